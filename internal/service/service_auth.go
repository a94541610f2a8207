// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/dlevch/simplenote/internal/adapter"
	"github.com/dlevch/simplenote/internal/logger"
	"github.com/dlevch/simplenote/internal/observe"
	"github.com/dlevch/simplenote/internal/store"
	"github.com/dlevch/simplenote/models"
)

// expirySkew is subtracted from the access token's exp claim when deciding
// whether a restored session needs an eager refresh. A token about to expire
// within the skew is treated as already expired.
const expirySkew = 30 * time.Second

type authService struct {
	localStore *store.Storages
	adapter    adapter.ServerAdapter
	logger     *logger.Logger

	// refreshGroup coalesces concurrent refresh attempts into one network
	// call, so a burst of 401s cannot burn the refresh token in a race.
	refreshGroup singleflight.Group
}

func NewAuthService(localStore *store.Storages, serverAdapter adapter.ServerAdapter, logger *logger.Logger) AuthService {
	return &authService{localStore: localStore, adapter: serverAdapter, logger: logger}
}

func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error) {
	resp, err := a.adapter.Register(ctx, req)
	if err != nil {
		return models.RegisterResponse{}, fmt.Errorf("%w: %v", ErrRegisterOnServer, err)
	}

	return resp, nil
}

func (a *authService) Login(ctx context.Context, username, password string) error {
	log := logger.FromContext(ctx)

	previous := a.localStore.Session.Session()

	tokens, err := a.adapter.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoginOnServer, err)
	}

	if err = a.localStore.Session.SaveTokens(ctx, tokens.Access, tokens.Refresh); err != nil {
		return fmt.Errorf("failed to persist token pair: %w", err)
	}

	// A different account on the same device must not see the previous
	// account's notes.
	if previous.Username != "" && previous.Username != username {
		log.Info().
			Str("func", "authService.Login").
			Str("previous", previous.Username).
			Str("current", username).
			Msg("account switch detected, wiping cached notes")
		if err = a.localStore.Notes.DeleteAllNotes(ctx); err != nil {
			return fmt.Errorf("failed to wipe notes of previous account: %w", err)
		}
		if err = a.localStore.Users.DeleteAllUsers(ctx); err != nil {
			return fmt.Errorf("failed to wipe cached identity of previous account: %w", err)
		}
	}

	info, err := a.adapter.GetUserInfo(ctx)
	if err != nil {
		// Tokens are already persisted, so the login itself stands; the
		// identity gets cached on the next successful CurrentUser call.
		log.Warn().Err(err).
			Str("func", "authService.Login").
			Msg("logged in but identity fetch failed")
		return a.localStore.Session.SaveUserInfo(ctx, 0, username)
	}

	if err = a.localStore.Session.SaveUserInfo(ctx, info.ID, info.Username); err != nil {
		return fmt.Errorf("failed to persist session owner: %w", err)
	}
	if err = a.localStore.Users.SaveUser(ctx, info.ToUser()); err != nil {
		return fmt.Errorf("failed to cache user identity: %w", err)
	}

	return nil
}

func (a *authService) RestoreSession(ctx context.Context) error {
	session := a.localStore.Session.Session()
	if !session.IsLoggedIn() {
		return ErrNotLoggedIn
	}

	if accessTokenExpired(session.AccessToken) {
		if _, err := a.RefreshAccessToken(ctx); err != nil {
			return err
		}
	}

	if err := a.VerifyToken(ctx); err != nil {
		if errors.Is(err, ErrReauthRequired) {
			return err
		}
		// Server unreachable; start with the persisted session and let the
		// background sync catch up once the network is back.
		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "authService.RestoreSession").
			Msg("session verification unavailable, starting offline")
	}

	return nil
}

func (a *authService) VerifyToken(ctx context.Context) error {
	if !a.localStore.Session.Session().IsLoggedIn() {
		return ErrNotLoggedIn
	}

	info, err := a.adapter.GetUserInfo(ctx)
	if err == nil {
		if saveErr := a.localStore.Session.SaveUserInfo(ctx, info.ID, info.Username); saveErr != nil {
			return fmt.Errorf("failed to persist session owner: %w", saveErr)
		}
		if saveErr := a.localStore.Users.SaveUser(ctx, info.ToUser()); saveErr != nil {
			return fmt.Errorf("failed to cache user identity: %w", saveErr)
		}
		return nil
	}

	if adapter.IsAuthError(err) {
		// The adapter already tried one refresh before surfacing this, so
		// the session is beyond recovery.
		if clearErr := a.localStore.Session.ClearAll(ctx); clearErr != nil {
			return fmt.Errorf("failed to clear rejected session: %w", clearErr)
		}
		return fmt.Errorf("%w: %v", ErrReauthRequired, err)
	}

	return fmt.Errorf("token verification failed: %w", err)
}

func (a *authService) AccessToken() string {
	return a.localStore.Session.Session().AccessToken
}

func (a *authService) RefreshAccessToken(ctx context.Context) (string, error) {
	access, err, _ := a.refreshGroup.Do("refresh", func() (any, error) {
		return a.doRefresh(ctx)
	})
	if err != nil {
		return "", err
	}

	return access.(string), nil
}

func (a *authService) doRefresh(ctx context.Context) (string, error) {
	log := logger.FromContext(ctx)

	session := a.localStore.Session.Session()
	if session.RefreshToken == "" {
		return "", ErrNotLoggedIn
	}

	access, err := a.adapter.RefreshToken(ctx, session.RefreshToken)
	if err != nil {
		log.Warn().Err(err).
			Str("func", "authService.doRefresh").
			Msg("refresh rejected, dropping session")
		if clearErr := a.localStore.Session.ClearAll(ctx); clearErr != nil {
			return "", fmt.Errorf("failed to clear session after refresh failure: %w", clearErr)
		}
		return "", fmt.Errorf("%w: %v", ErrReauthRequired, err)
	}

	if err = a.localStore.Session.SaveTokens(ctx, access, session.RefreshToken); err != nil {
		return "", fmt.Errorf("failed to persist refreshed access token: %w", err)
	}

	return access, nil
}

func (a *authService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if !a.localStore.Session.Session().IsLoggedIn() {
		return ErrNotLoggedIn
	}

	if err := a.adapter.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	return nil
}

func (a *authService) CurrentUser(ctx context.Context) (models.User, error) {
	log := logger.FromContext(ctx)

	info, err := a.adapter.GetUserInfo(ctx)
	if err == nil {
		user := info.ToUser()
		if saveErr := a.localStore.Users.SaveUser(ctx, user); saveErr != nil {
			log.Warn().Err(saveErr).
				Str("func", "authService.CurrentUser").
				Msg("failed to cache fetched identity")
		}
		return user, nil
	}

	cached, cacheErr := a.localStore.Users.GetUser(ctx)
	if cacheErr == nil {
		log.Debug().
			Str("func", "authService.CurrentUser").
			Msg("identity endpoint unreachable, serving cached identity")
		return cached, nil
	}

	return models.User{}, fmt.Errorf("failed to fetch user identity: %w", err)
}

func (a *authService) Session() models.AuthSession {
	return a.localStore.Session.Session()
}

func (a *authService) Logout(ctx context.Context) error {
	return errors.Join(
		a.localStore.Session.ClearAll(ctx),
		a.localStore.Users.DeleteAllUsers(ctx),
	)
}

func (a *authService) WatchLoggedIn(ctx context.Context) (<-chan bool, func()) {
	out := make(chan bool, 1)
	snapshots, unsubscribe := a.localStore.Session.Watch()
	watchCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(out)
		defer unsubscribe()

		first := true
		var last bool
		for {
			select {
			case <-watchCtx.Done():
				return
			case snapshot, ok := <-snapshots:
				if !ok {
					return
				}
				loggedIn := snapshot.IsLoggedIn()
				if !first && loggedIn == last {
					continue
				}
				first = false
				last = loggedIn
				observe.Replace(out, loggedIn)
			}
		}
	}()

	return out, cancel
}

// accessTokenExpired decodes the JWT exp claim without verifying the
// signature; only the server can verify, the client just needs to know
// whether sending the token is pointless. Unparseable tokens count as
// expired so the caller refreshes eagerly.
func accessTokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return time.Until(exp.Time) < expirySkew
}
