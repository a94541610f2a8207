// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daniil Levchenko

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlevch/simplenote/internal/config"
	"github.com/dlevch/simplenote/internal/logger"
	"github.com/dlevch/simplenote/models"
)

// stubTokenSource is a minimal TokenSource for transport tests. The refresh
// behaviour is injected per test.
type stubTokenSource struct {
	mu           sync.Mutex
	access       string
	refreshFn    func(ctx context.Context) (string, error)
	refreshCalls int
}

func (s *stubTokenSource) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

func (s *stubTokenSource) RefreshAccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.refreshCalls++
	fn := s.refreshFn
	s.mu.Unlock()

	token, err := fn(ctx)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.access = token
	s.mu.Unlock()
	return token, nil
}

func (s *stubTokenSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

func newTestAdapter(t *testing.T, handler http.Handler) (ServerAdapter, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	adapter, err := NewHTTPServerAdapter(config.Server{
		Address:        srv.URL,
		RequestTimeout: 5 * time.Second,
	}, logger.Nop())
	require.NoError(t, err)

	return adapter, srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// ── construction ─────────────────────────────────────────────────────────────

func TestNewHTTPServerAdapter_AddressValidation(t *testing.T) {
	log := logger.Nop()

	_, err := NewHTTPServerAdapter(config.Server{Address: ""}, log)
	assert.Error(t, err, "empty address must be rejected")

	_, err = NewHTTPServerAdapter(config.Server{Address: "   "}, log)
	assert.Error(t, err, "blank address must be rejected")

	// A bare host:port gets an http scheme prepended.
	_, err = NewHTTPServerAdapter(config.Server{Address: "localhost:8000"}, log)
	assert.NoError(t, err)
}

// ── auth endpoints ───────────────────────────────────────────────────────────

func TestLogin_SendsCredentialsWithoutToken(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/token/", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"), "login must not carry a token")
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req.Username)
		assert.Equal(t, "pw", req.Password)

		writeJSON(t, w, http.StatusOK, models.TokenPair{Access: "acc", Refresh: "ref"})
	}))
	// Even with a token source installed, login stays token-free.
	adapter.SetTokenSource(&stubTokenSource{access: "stale"})

	pair, err := adapter.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "acc", pair.Access)
	assert.Equal(t, "ref", pair.Refresh)
}

func TestLogin_BadCredentials(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := adapter.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegister_SendsAccountWithoutToken(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/register/", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var req models.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeJSON(t, w, http.StatusCreated, models.RegisterResponse{Username: req.Username})
	}))
	adapter.SetTokenSource(&stubTokenSource{access: "stale"})

	resp, err := adapter.Register(context.Background(), models.RegisterRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
}

func TestRefreshToken_UsesTokenFreeClient(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/token/refresh/", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"), "refresh must not require a valid access token")
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req models.RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ref", req.Refresh)

		writeJSON(t, w, http.StatusOK, models.AccessTokenResponse{Access: "renewed"})
	}))
	adapter.SetTokenSource(&stubTokenSource{access: "expired"})

	access, err := adapter.RefreshToken(context.Background(), "ref")
	require.NoError(t, err)
	assert.Equal(t, "renewed", access)
}

func TestGetUserInfo_CarriesBearerToken(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/userinfo/", r.URL.Path)
		assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, models.UserInfoResponse{ID: 7, Username: "alice"})
	}))
	adapter.SetTokenSource(&stubTokenSource{access: "token123"})

	info, err := adapter.GetUserInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), info.ID)
	assert.Equal(t, "alice", info.Username)
}

func TestChangePassword(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/change-password/", r.URL.Path)

		var req models.ChangePasswordRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "old", req.OldPassword)
		assert.Equal(t, "new", req.NewPassword)

		w.WriteHeader(http.StatusOK)
	}))
	adapter.SetTokenSource(&stubTokenSource{access: "token123"})

	require.NoError(t, adapter.ChangePassword(context.Background(), "old", "new"))
}

// ── 401 refresh-and-retry ────────────────────────────────────────────────────

func TestExpiredToken_RefreshedAndRetriedOnce(t *testing.T) {
	var hits int32
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("Authorization") != "Bearer new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(t, w, http.StatusOK, models.UserInfoResponse{ID: 7})
	}))

	src := &stubTokenSource{
		access:    "old",
		refreshFn: func(context.Context) (string, error) { return "new", nil },
	}
	adapter.SetTokenSource(src)

	info, err := adapter.GetUserInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), info.ID)
	assert.Equal(t, 1, src.calls(), "exactly one refresh")
	assert.EqualValues(t, 2, hits, "original request plus one retry")
}

func TestExpiredToken_RefreshFailureSurfacesOriginal401(t *testing.T) {
	var hits int32
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnauthorized)
	}))

	src := &stubTokenSource{
		access:    "old",
		refreshFn: func(context.Context) (string, error) { return "", ErrUnauthorized },
	}
	adapter.SetTokenSource(src)

	_, err := adapter.GetUserInfo(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, src.calls())
	assert.EqualValues(t, 1, hits, "no retry without a fresh token")
}

func TestExpiredToken_NoTokenSourceMapsDirectly(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := adapter.GetUserInfo(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// ── error mapping ────────────────────────────────────────────────────────────

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusUnprocessableEntity, ErrUnprocessable},
		{http.StatusInternalServerError, ErrInternalServerError},
		{http.StatusBadGateway, ErrBadGateway},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			adapter.SetTokenSource(&stubTokenSource{access: "token123"})

			_, err := adapter.GetNote(context.Background(), 5)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUnmappedStatusStillErrors(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	adapter.SetTokenSource(&stubTokenSource{access: "token123"})

	_, err := adapter.GetNote(context.Background(), 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNetwork)
}

func TestUnreachableServer(t *testing.T) {
	adapter, srv := newTestAdapter(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := adapter.ListNotes(context.Background(), 1, 20)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(ErrUnauthorized))
	assert.True(t, IsAuthError(ErrForbidden))
	assert.False(t, IsAuthError(ErrNotFound))
	assert.False(t, IsAuthError(ErrNetwork))
	assert.False(t, IsAuthError(nil))
}

// ── note endpoints ───────────────────────────────────────────────────────────

func TestListNotes_PaginationAndTimestamps(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/notes/", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("page_size"))

		w.Header().Set("Content-Type", "application/json")
		_, err := w.Write([]byte(`{
			"count": 1,
			"next": null,
			"previous": "http://example.com/api/notes/?page=1",
			"results": [{
				"id": 5,
				"title": "groceries",
				"description": "milk",
				"created_at": "2026-03-01T10:00:00Z",
				"updated_at": "2026-03-02T11:30:00.123456Z",
				"creator_name": "Alice A",
				"creator_username": "alice"
			}]
		}`))
		require.NoError(t, err)
	}))
	adapter.SetTokenSource(&stubTokenSource{access: "token123"})

	page, err := adapter.ListNotes(context.Background(), 2, 50)
	require.NoError(t, err)

	assert.Equal(t, 1, page.Count)
	assert.False(t, page.HasNext())
	require.Len(t, page.Results, 1)

	note := page.Results[0].ToNote()
	assert.Equal(t, int64(5), note.ID)
	assert.True(t, note.IsSynced)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), note.CreatedAt)
	assert.Equal(t, 2026, note.UpdatedAt.Year(), "fractional-second timestamps must parse")
}

func TestCreateNote(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/notes/", r.URL.Path)

		var req models.NoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "groceries", req.Title)

		writeJSON(t, w, http.StatusCreated, map[string]any{
			"id": 5, "title": req.Title, "description": req.Description,
		})
	}))
	adapter.SetTokenSource(&stubTokenSource{access: "token123"})

	note, err := adapter.CreateNote(context.Background(), "groceries", "milk")
	require.NoError(t, err)
	assert.Equal(t, int64(5), note.ID)
	assert.True(t, note.IsSynced)
}

func TestUpdateNote_PutsFullPayload(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/notes/5/", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 5, "title": "new"})
	}))
	adapter.SetTokenSource(&stubTokenSource{access: "token123"})

	note, err := adapter.UpdateNote(context.Background(), 5, "new", "body")
	require.NoError(t, err)
	assert.Equal(t, "new", note.Title)
}

func TestPartialUpdateNote_PatchesOnlyGivenFields(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/notes/5/", r.URL.Path)

		var fields map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		assert.Equal(t, map[string]string{"title": "renamed"}, fields)

		writeJSON(t, w, http.StatusOK, map[string]any{"id": 5, "title": "renamed", "description": "kept"})
	}))
	adapter.SetTokenSource(&stubTokenSource{access: "token123"})

	note, err := adapter.PartialUpdateNote(context.Background(), 5, map[string]string{"title": "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", note.Title)
	assert.Equal(t, "kept", note.Description)
}

func TestDeleteNote(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/notes/5/", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	adapter.SetTokenSource(&stubTokenSource{access: "token123"})

	require.NoError(t, adapter.DeleteNote(context.Background(), 5))
}

func TestGetNote_NotFound(t *testing.T) {
	adapter, _ := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	adapter.SetTokenSource(&stubTokenSource{access: "token123"})

	_, err := adapter.GetNote(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
