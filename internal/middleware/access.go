// AngelaMos | 2026
// access.go

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/atlastrail/atlas-backend/internal/core"
)

// AccountState is the slice of an account the access chain needs. It is
// loaded fresh per request so that verification, 2FA, and subscription
// changes take effect without waiting for token expiry.
type AccountState struct {
	ID                 string
	Role               string
	EmailVerified      bool
	RequiresTwoFactor  bool
	TwoFactorEnabled   bool
	SubscriptionActive bool
}

type AccountLoader interface {
	LoadAccountState(ctx context.Context, id string) (*AccountState, error)
}

// AccessPolicy configures the ordered request checks. Zero values fall
// back to the defaults below.
type AccessPolicy struct {
	// VerificationExemptPaths are reachable with an unverified email.
	VerificationExemptPaths []string
	// RoleRestrictedPaths maps a path prefix to the roles allowed under it.
	RoleRestrictedPaths map[string][]string
	// SubscriptionGatedPaths are the prefixes where mutating requests
	// need an active partner subscription.
	SubscriptionGatedPaths []string
	// SubscriptionExemptPaths bypass the subscription check, so a lapsed
	// partner can still manage their account and renew.
	SubscriptionExemptPaths []string
	// TwoFactorSetupPath stays reachable while 2FA is still pending,
	// so the account can complete enrollment.
	TwoFactorSetupPath string
}

func DefaultAccessPolicy() AccessPolicy {
	return AccessPolicy{
		VerificationExemptPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/register",
			"/api/v1/auth/refresh",
			"/api/v1/auth/logout",
			"/api/v1/auth/verify-email",
			"/api/v1/auth/resend-verification",
			"/health",
		},
		RoleRestrictedPaths: map[string][]string{
			"/api/v1/admin/":    {"admin", "super_admin"},
			"/api/v1/partners/": {"partner", "editor", "admin", "super_admin"},
			"/api/v1/content/":  {"editor", "admin", "super_admin"},
		},
		SubscriptionGatedPaths: []string{
			"/api/v1/partners/pois",
		},
		SubscriptionExemptPaths: []string{
			"/api/v1/partners/profile",
		},
		TwoFactorSetupPath: "/api/v1/auth/2fa/",
	}
}

// AccessControl runs the ordered request checks after authentication:
// email verification, path role restrictions, subscription state for
// mutating requests, and mandatory 2FA. The first failing check denies
// the request; later checks never run.
func AccessControl(
	loader AccountLoader,
	policy AccessPolicy,
) func(http.Handler) http.Handler {
	if policy.RoleRestrictedPaths == nil {
		policy = DefaultAccessPolicy()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())

			requiredRoles, restricted := policy.restrictedRoles(r.URL.Path)

			if userID == "" {
				if restricted {
					core.JSONError(
						w,
						core.UnauthorizedError("authentication required"),
					)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			state, err := loader.LoadAccountState(r.Context(), userID)
			if err != nil {
				core.JSONError(
					w,
					core.UnauthorizedError("account no longer active"),
				)
				return
			}

			if denied := policy.checkEmailVerified(r, state); denied != nil {
				core.JSONError(w, denied)
				return
			}

			if restricted && !roleAllowed(state.Role, requiredRoles) {
				core.JSONError(w, core.NewAppError(
					core.ErrForbidden,
					"your role does not grant access to this area",
					http.StatusForbidden,
					"INSUFFICIENT_ROLE",
				).WithExtra("required_roles", requiredRoles))
				return
			}

			if denied := policy.checkSubscription(r, state); denied != nil {
				core.JSONError(w, denied)
				return
			}

			if denied := policy.checkTwoFactor(r, state); denied != nil {
				core.JSONError(w, denied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (p AccessPolicy) restrictedRoles(path string) ([]string, bool) {
	for prefix, roles := range p.RoleRestrictedPaths {
		if strings.HasPrefix(path, prefix) {
			return roles, true
		}
	}
	return nil, false
}

func (p AccessPolicy) checkEmailVerified(
	r *http.Request,
	state *AccountState,
) *core.AppError {
	if state.EmailVerified || state.Role == "super_admin" {
		return nil
	}

	for _, exempt := range p.VerificationExemptPaths {
		if strings.HasPrefix(r.URL.Path, exempt) {
			return nil
		}
	}

	return core.NewAppError(
		core.ErrForbidden,
		"email address must be verified before using this endpoint",
		http.StatusForbidden,
		"EMAIL_NOT_VERIFIED",
	)
}

// checkSubscription blocks mutating requests to the gated prefixes from
// partners whose trial or subscription has lapsed. Reads, ungated paths,
// and the exempt prefixes stay available so an expired partner can still
// log out, see their data, and renew.
func (p AccessPolicy) checkSubscription(
	r *http.Request,
	state *AccountState,
) *core.AppError {
	if state.Role != "partner" {
		return nil
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return nil
	}

	gated := false
	for _, prefix := range p.SubscriptionGatedPaths {
		if strings.HasPrefix(r.URL.Path, prefix) {
			gated = true
			break
		}
	}
	if !gated {
		return nil
	}

	for _, exempt := range p.SubscriptionExemptPaths {
		if strings.HasPrefix(r.URL.Path, exempt) {
			return nil
		}
	}

	if state.SubscriptionActive {
		return nil
	}

	return core.NewAppError(
		core.ErrForbidden,
		"partner subscription has expired",
		http.StatusForbidden,
		"SUBSCRIPTION_EXPIRED",
	)
}

func (p AccessPolicy) checkTwoFactor(
	r *http.Request,
	state *AccountState,
) *core.AppError {
	if !state.RequiresTwoFactor || state.TwoFactorEnabled {
		return nil
	}

	if p.TwoFactorSetupPath != "" &&
		strings.HasPrefix(r.URL.Path, p.TwoFactorSetupPath) {
		return nil
	}

	return core.NewAppError(
		core.ErrForbidden,
		"two-factor authentication must be enabled for this account",
		http.StatusForbidden,
		"2FA_REQUIRED",
	)
}

func roleAllowed(role string, allowed []string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
