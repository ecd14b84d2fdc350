// AngelaMos | 2026
// auth_test.go

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlastrail/atlas-backend/internal/middleware"
)

func requestAs(role string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if role == "" {
		return req
	}
	ctx := context.WithValue(req.Context(), middleware.UserRoleKey, role)
	return req.WithContext(ctx)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRoleGuards(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		guard func(http.Handler) http.Handler
		role  string
		want  int
	}{
		{"admin guard admits admin", middleware.RequireAdmin, "admin", http.StatusOK},
		{"admin guard admits super_admin", middleware.RequireAdmin, "super_admin", http.StatusOK},
		{"admin guard rejects editor", middleware.RequireAdmin, "editor", http.StatusForbidden},
		{"staff guard admits editor", middleware.RequireStaff, "editor", http.StatusOK},
		{"staff guard admits admin", middleware.RequireStaff, "admin", http.StatusOK},
		{"staff guard rejects partner", middleware.RequireStaff, "partner", http.StatusForbidden},
		{"super_admin guard admits super_admin", middleware.RequireSuperAdmin, "super_admin", http.StatusOK},
		{"super_admin guard rejects admin", middleware.RequireSuperAdmin, "admin", http.StatusForbidden},
		{"missing role is unauthorized", middleware.RequireStaff, "", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			tc.guard(okHandler()).ServeHTTP(rec, requestAs(tc.role))

			require.Equal(t, tc.want, rec.Code)
		})
	}
}
