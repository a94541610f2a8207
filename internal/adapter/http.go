// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/dlevch/simplenote/internal/config"
	"github.com/dlevch/simplenote/internal/logger"
	"github.com/dlevch/simplenote/models"
)

const (
	registerPath       = "/api/auth/register/"
	tokenPath          = "/api/auth/token/"
	tokenRefreshPath   = "/api/auth/token/refresh/"
	userInfoPath       = "/api/auth/userinfo/"
	changePasswordPath = "/api/auth/change-password/"
	notesPath          = "/api/notes/"
)

type httpServerAdapter struct {
	// client attaches the bearer token (except on login/register) and runs
	// the single refresh-and-retry round on 401.
	client *resty.Client

	// refreshClient carries no token and no retry logic. It exists solely
	// for the refresh endpoint, so that refreshing a token never requires a
	// valid token and a refresh 401 never triggers another refresh.
	refreshClient *resty.Client

	mu     sync.RWMutex
	tokens TokenSource

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs the HTTP/REST implementation of
// [ServerAdapter]. It normalises and validates the base URL from
// cfg.Address and configures both underlying clients with the resolved base
// URL and the request timeout.
//
// Returns an error if cfg.Address is empty or cannot be parsed as a valid
// URL.
func NewHTTPServerAdapter(cfg config.Server, log *logger.Logger) (ServerAdapter, error) {
	baseURL, err := normalizeBaseURL(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	h := &httpServerAdapter{logger: log}

	h.client = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	h.client.OnBeforeRequest(h.beforeRequest)

	h.refreshClient = resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	h.refreshClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader("X-Request-ID", uuid.NewString())
		return nil
	})

	return h, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetTokenSource implements [ServerAdapter].
func (h *httpServerAdapter) SetTokenSource(src TokenSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tokens = src
}

func (h *httpServerAdapter) tokenSource() TokenSource {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tokens
}

// beforeRequest tags every outgoing request with a trace id and attaches
// the bearer token, except on the login and register endpoints which are
// reachable without one.
func (h *httpServerAdapter) beforeRequest(_ *resty.Client, req *resty.Request) error {
	req.SetHeader("X-Request-ID", uuid.NewString())

	if req.URL == tokenPath || req.URL == registerPath {
		return nil
	}
	if src := h.tokenSource(); src != nil {
		if token := src.AccessToken(); token != "" {
			req.SetHeader("Authorization", "Bearer "+token)
		}
	}

	return nil
}

// execute sends the request built by send and, on a 401, asks the token
// source for a fresh access token and retries exactly once. The retried
// request is rebuilt from scratch so the before-request hook picks up the
// new token. If the refresh fails, the original 401 is surfaced.
func (h *httpServerAdapter) execute(ctx context.Context, op string, send func() (*resty.Response, error)) (*resty.Response, error) {
	resp, err := send()
	if err != nil {
		return nil, fmt.Errorf("%s request: %w: %v", op, ErrNetwork, err)
	}
	if resp.StatusCode() != http.StatusUnauthorized {
		return resp, mapHTTPError(resp)
	}

	src := h.tokenSource()
	if src == nil {
		return resp, mapHTTPError(resp)
	}
	if _, refreshErr := src.RefreshAccessToken(ctx); refreshErr != nil {
		h.logger.Debug().Err(refreshErr).Str("op", op).Msg("token refresh failed, not retrying")
		return resp, mapHTTPError(resp)
	}

	resp, err = send()
	if err != nil {
		return nil, fmt.Errorf("%s retry request: %w: %v", op, ErrNetwork, err)
	}
	return resp, mapHTTPError(resp)
}

// Register implements [ServerAdapter]. It POSTs the account details to the
// register endpoint. No token is attached and nothing is persisted locally.
func (h *httpServerAdapter) Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error) {
	var created models.RegisterResponse

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&created).
		Post(registerPath)
	if err != nil {
		return models.RegisterResponse{}, fmt.Errorf("register request: %w: %v", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RegisterResponse{}, err
	}

	return created, nil
}

// Login implements [ServerAdapter]. It POSTs the credentials to the token
// endpoint and returns the issued access/refresh pair. A 401 here means bad
// credentials, never an expired session, so no refresh round is attempted.
func (h *httpServerAdapter) Login(ctx context.Context, username, password string) (models.TokenPair, error) {
	var pair models.TokenPair

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.LoginRequest{Username: username, Password: password}).
		SetResult(&pair).
		Post(tokenPath)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("login request: %w: %v", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// RefreshToken implements [ServerAdapter]. The call goes through the
// token-free client: no Authorization header, no 401 interception.
func (h *httpServerAdapter) RefreshToken(ctx context.Context, refresh string) (string, error) {
	var renewed models.AccessTokenResponse

	resp, err := h.refreshClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.RefreshRequest{Refresh: refresh}).
		SetResult(&renewed).
		Post(tokenRefreshPath)
	if err != nil {
		return "", fmt.Errorf("refresh token request: %w: %v", ErrNetwork, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}

	return renewed.Access, nil
}

// GetUserInfo implements [ServerAdapter].
func (h *httpServerAdapter) GetUserInfo(ctx context.Context) (models.UserInfoResponse, error) {
	var info models.UserInfoResponse

	_, err := h.execute(ctx, "get user info", func() (*resty.Response, error) {
		return h.client.R().
			SetContext(ctx).
			SetResult(&info).
			Get(userInfoPath)
	})
	if err != nil {
		return models.UserInfoResponse{}, err
	}

	return info, nil
}

// ChangePassword implements [ServerAdapter].
func (h *httpServerAdapter) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	_, err := h.execute(ctx, "change password", func() (*resty.Response, error) {
		return h.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(models.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}).
			Post(changePasswordPath)
	})

	return err
}

// ListNotes implements [ServerAdapter].
func (h *httpServerAdapter) ListNotes(ctx context.Context, page, pageSize int) (models.NotesPage, error) {
	var result models.NotesPage

	_, err := h.execute(ctx, "list notes", func() (*resty.Response, error) {
		return h.client.R().
			SetContext(ctx).
			SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("page_size", strconv.Itoa(pageSize)).
			SetResult(&result).
			Get(notesPath)
	})
	if err != nil {
		return models.NotesPage{}, err
	}

	return result, nil
}

// CreateNote implements [ServerAdapter].
func (h *httpServerAdapter) CreateNote(ctx context.Context, title, description string) (models.Note, error) {
	var created models.NoteResponse

	_, err := h.execute(ctx, "create note", func() (*resty.Response, error) {
		return h.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(models.NoteRequest{Title: title, Description: description}).
			SetResult(&created).
			Post(notesPath)
	})
	if err != nil {
		return models.Note{}, err
	}

	return created.ToNote(), nil
}

// GetNote implements [ServerAdapter].
func (h *httpServerAdapter) GetNote(ctx context.Context, id int64) (models.Note, error) {
	var found models.NoteResponse

	_, err := h.execute(ctx, "get note", func() (*resty.Response, error) {
		return h.client.R().
			SetContext(ctx).
			SetResult(&found).
			Get(notePath(id))
	})
	if err != nil {
		return models.Note{}, err
	}

	return found.ToNote(), nil
}

// UpdateNote implements [ServerAdapter].
func (h *httpServerAdapter) UpdateNote(ctx context.Context, id int64, title, description string) (models.Note, error) {
	var updated models.NoteResponse

	_, err := h.execute(ctx, "update note", func() (*resty.Response, error) {
		return h.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(models.NoteRequest{Title: title, Description: description}).
			SetResult(&updated).
			Put(notePath(id))
	})
	if err != nil {
		return models.Note{}, err
	}

	return updated.ToNote(), nil
}

// PartialUpdateNote implements [ServerAdapter].
func (h *httpServerAdapter) PartialUpdateNote(ctx context.Context, id int64, fields map[string]string) (models.Note, error) {
	var updated models.NoteResponse

	_, err := h.execute(ctx, "partial update note", func() (*resty.Response, error) {
		return h.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(fields).
			SetResult(&updated).
			Patch(notePath(id))
	})
	if err != nil {
		return models.Note{}, err
	}

	return updated.ToNote(), nil
}

// DeleteNote implements [ServerAdapter].
func (h *httpServerAdapter) DeleteNote(ctx context.Context, id int64) error {
	_, err := h.execute(ctx, "delete note", func() (*resty.Response, error) {
		return h.client.R().
			SetContext(ctx).
			Delete(notePath(id))
	})

	return err
}

func notePath(id int64) string {
	return fmt.Sprintf("%s%d/", notesPath, id)
}
