package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/utsav306/farmconnect-sub000/internal/api"
	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/middleware"
	"github.com/utsav306/farmconnect-sub000/internal/models"
)

type fakeAuthn map[string]*models.User

func (f fakeAuthn) Authenticate(_ context.Context, token string) (*models.User, error) {
	user, ok := f[token]
	if !ok {
		return nil, apperr.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, apperr.ErrAccountInactive
	}
	return user, nil
}

var fail = api.NewErrorWriter(zap.NewNop(), false)

func okHandler(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	w.Header().Set("X-User", p.UserID.String())
	w.WriteHeader(http.StatusNoContent)
}

func TestAuth(t *testing.T) {
	farmer := &models.User{ID: uuid.New(), Roles: models.Roles{models.RoleFarmer}, IsActive: true}
	banned := &models.User{ID: uuid.New(), Roles: models.Roles{models.RoleUser}, IsActive: false}
	authn := fakeAuthn{"good": farmer, "banned": banned}

	h := middleware.Auth(authn, fail)(http.HandlerFunc(okHandler))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"inactive account", "Bearer banned", http.StatusForbidden},
		{"valid token", "Bearer good", http.StatusNoContent},
		{"scheme is case-insensitive", "bearer good", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusNoContent {
				assert.Equal(t, farmer.ID.String(), rec.Header().Get("X-User"))
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	h := middleware.RequirePermission(models.PermManageOwnProducts, fail)(http.HandlerFunc(okHandler))

	serve := func(ctx context.Context) int {
		req := httptest.NewRequest(http.MethodPost, "/api/products", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(context.Background()))

	buyer := middleware.WithPrincipal(context.Background(), middleware.Principal{UserID: uuid.New(), Roles: models.Roles{models.RoleUser}})
	assert.Equal(t, http.StatusForbidden, serve(buyer))

	moderator := middleware.WithPrincipal(context.Background(), middleware.Principal{UserID: uuid.New(), Roles: models.Roles{models.RoleModerator}})
	assert.Equal(t, http.StatusForbidden, serve(moderator))

	farmer := middleware.WithPrincipal(context.Background(), middleware.Principal{UserID: uuid.New(), Roles: models.Roles{models.RoleUser, models.RoleFarmer}})
	assert.Equal(t, http.StatusNoContent, serve(farmer))
}

func TestRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(0.001, 2)
	h := rl.Limit(fail)(http.HandlerFunc(okHandler))

	serve := func(userID uuid.UUID) int {
		ctx := middleware.WithPrincipal(context.Background(), middleware.Principal{UserID: userID})
		req := httptest.NewRequest(http.MethodPost, "/api/ai/trending-crops", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	alice, bob := uuid.New(), uuid.New()
	assert.Equal(t, http.StatusNoContent, serve(alice))
	assert.Equal(t, http.StatusNoContent, serve(alice))
	assert.Equal(t, http.StatusTooManyRequests, serve(alice))
	assert.Equal(t, http.StatusNoContent, serve(bob), "buckets are per user")
	assert.Equal(t, 2, rl.Len())

	rl.Sweep(time.Hour)
	assert.Equal(t, 2, rl.Len(), "recently seen callers survive")
	rl.Sweep(-time.Minute)
	assert.Zero(t, rl.Len())
}

func TestRateLimiter_Run(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestLogger_RecordsStatusAndUser(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	user := &models.User{ID: uuid.New(), Roles: models.Roles{models.RoleUser}, IsActive: true}

	h := middleware.Chain(http.HandlerFunc(okHandler),
		middleware.Logger(zap.New(core)),
		middleware.Auth(fakeAuthn{"t": user}, fail),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer t")
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusNoContent), first["status"])
	assert.Equal(t, user.ID.String(), first["user_id"])
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)

	second := entries[1].ContextMap()
	assert.Equal(t, int64(http.StatusUnauthorized), second["status"])
	assert.NotContains(t, second, "user_id")
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestRecover(t *testing.T) {
	h := middleware.Recover(zap.NewNop(), fail)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
