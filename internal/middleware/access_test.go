// AngelaMos | 2026
// access_test.go

package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlastrail/atlas-backend/internal/core"
	"github.com/atlastrail/atlas-backend/internal/middleware"
)

type stubLoader struct {
	state *middleware.AccountState
	err   error
}

func (s stubLoader) LoadAccountState(
	_ context.Context,
	_ string,
) (*middleware.AccountState, error) {
	return s.state, s.err
}

func verifiedState(role string) *middleware.AccountState {
	return &middleware.AccountState{
		ID:                 "acct-1",
		Role:               role,
		EmailVerified:      true,
		SubscriptionActive: true,
	}
}

func doRequest(
	t *testing.T,
	loader middleware.AccountLoader,
	method, path, userID string,
) *httptest.ResponseRecorder {
	t.Helper()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.AccessControl(
		loader,
		middleware.DefaultAccessPolicy(),
	)(next)

	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
		req = req.WithContext(ctx)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestAccessControlUnauthenticated(t *testing.T) {
	t.Parallel()

	loader := stubLoader{}

	t.Run("open path passes through", func(t *testing.T) {
		t.Parallel()

		rec := doRequest(t, loader, http.MethodGet, "/api/v1/pois", "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("restricted path requires auth", func(t *testing.T) {
		t.Parallel()

		rec := doRequest(t, loader, http.MethodGet, "/api/v1/admin/users", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAccessControlRoleRestriction(t *testing.T) {
	t.Parallel()

	t.Run("wrong role gets required_roles back", func(t *testing.T) {
		t.Parallel()

		loader := stubLoader{state: verifiedState("user")}
		rec := doRequest(t, loader, http.MethodGet, "/api/v1/admin/users", "acct-1")
		require.Equal(t, http.StatusForbidden, rec.Code)

		body := decodeBody(t, rec)
		require.Equal(t, "INSUFFICIENT_ROLE", body["code"])
		require.ElementsMatch(t,
			[]any{"admin", "super_admin"},
			body["required_roles"],
		)
	})

	t.Run("partner reaches partner area", func(t *testing.T) {
		t.Parallel()

		loader := stubLoader{state: verifiedState("partner")}
		rec := doRequest(t, loader, http.MethodGet, "/api/v1/partners/pois", "acct-1")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("partner blocked from content area", func(t *testing.T) {
		t.Parallel()

		loader := stubLoader{state: verifiedState("partner")}
		rec := doRequest(t, loader, http.MethodGet, "/api/v1/content/pois", "acct-1")
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAccessControlEmailVerification(t *testing.T) {
	t.Parallel()

	unverified := &middleware.AccountState{
		ID:   "acct-1",
		Role: "user",
	}

	t.Run("unverified email denied", func(t *testing.T) {
		t.Parallel()

		loader := stubLoader{state: unverified}
		rec := doRequest(t, loader, http.MethodGet, "/api/v1/users/me", "acct-1")
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "EMAIL_NOT_VERIFIED", decodeBody(t, rec)["code"])
	})

	t.Run("exempt path reachable", func(t *testing.T) {
		t.Parallel()

		loader := stubLoader{state: unverified}
		rec := doRequest(
			t,
			loader,
			http.MethodPost,
			"/api/v1/auth/verify-email",
			"acct-1",
		)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("super_admin bypasses verification", func(t *testing.T) {
		t.Parallel()

		loader := stubLoader{state: &middleware.AccountState{
			ID:               "acct-1",
			Role:             "super_admin",
			TwoFactorEnabled: true,
		}}
		rec := doRequest(t, loader, http.MethodGet, "/api/v1/users/me", "acct-1")
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAccessControlSubscription(t *testing.T) {
	t.Parallel()

	lapsed := &middleware.AccountState{
		ID:            "acct-1",
		Role:          "partner",
		EmailVerified: true,
	}

	t.Run("lapsed partner cannot mutate listings", func(t *testing.T) {
		t.Parallel()

		loader := stubLoader{state: lapsed}
		rec := doRequest(t, loader, http.MethodPost, "/api/v1/partners/pois", "acct-1")
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "SUBSCRIPTION_EXPIRED", decodeBody(t, rec)["code"])
	})

	t.Run("lapsed partner can still read", func(t *testing.T) {
		t.Parallel()

		loader := stubLoader{state: lapsed}
		rec := doRequest(t, loader, http.MethodGet, "/api/v1/partners/pois", "acct-1")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("lapsed partner can still log out", func(t *testing.T) {
		t.Parallel()

		loader := stubLoader{state: lapsed}
		rec := doRequest(t, loader, http.MethodPost, "/api/v1/auth/logout", "acct-1")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("lapsed partner can still edit their profile", func(t *testing.T) {
		t.Parallel()

		loader := stubLoader{state: lapsed}
		rec := doRequest(t, loader, http.MethodPut, "/api/v1/partners/profile", "acct-1")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-partner is never subscription-checked", func(t *testing.T) {
		t.Parallel()

		loader := stubLoader{state: verifiedState("editor")}
		rec := doRequest(t, loader, http.MethodPost, "/api/v1/content/pois", "acct-1")
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAccessControlTwoFactor(t *testing.T) {
	t.Parallel()

	pending := &middleware.AccountState{
		ID:                "acct-1",
		Role:              "super_admin",
		EmailVerified:     true,
		RequiresTwoFactor: true,
	}

	t.Run("pending 2FA blocks normal routes", func(t *testing.T) {
		t.Parallel()

		loader := stubLoader{state: pending}
		rec := doRequest(t, loader, http.MethodGet, "/api/v1/admin/users", "acct-1")
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "2FA_REQUIRED", decodeBody(t, rec)["code"])
	})

	t.Run("setup path stays reachable", func(t *testing.T) {
		t.Parallel()

		loader := stubLoader{state: pending}
		rec := doRequest(t, loader, http.MethodPost, "/api/v1/auth/2fa/setup", "acct-1")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("enabled 2FA passes", func(t *testing.T) {
		t.Parallel()

		loader := stubLoader{state: &middleware.AccountState{
			ID:                "acct-1",
			Role:              "super_admin",
			EmailVerified:     true,
			RequiresTwoFactor: true,
			TwoFactorEnabled:  true,
		}}
		rec := doRequest(t, loader, http.MethodGet, "/api/v1/admin/users", "acct-1")
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAccessControlDeactivatedAccount(t *testing.T) {
	t.Parallel()

	loader := stubLoader{err: core.ErrNotFound}
	rec := doRequest(t, loader, http.MethodGet, "/api/v1/users/me", "acct-1")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
