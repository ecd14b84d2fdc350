// AngelaMos | 2026
// entity_test.go

package poi_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlastrail/atlas-backend/internal/poi"
)

func allStatuses() []poi.Status {
	return []poi.Status{
		poi.StatusDraft,
		poi.StatusPendingValidation,
		poi.StatusUnderReview,
		poi.StatusApproved,
		poi.StatusRejected,
		poi.StatusBlocked,
	}
}

func TestStatusValid(t *testing.T) {
	t.Parallel()

	for _, s := range allStatuses() {
		require.True(t, s.Valid(), "%s must be valid", s)
	}

	require.False(t, poi.Status("published").Valid())
	require.False(t, poi.Status("").Valid())
}

func TestModerateApproval(t *testing.T) {
	t.Parallel()

	// Approval must produce the same published state no matter which
	// status the point was in before.
	for _, from := range allStatuses() {
		from := from
		t.Run(string(from), func(t *testing.T) {
			t.Parallel()

			p := poi.POI{
				Status:          from,
				IsActive:        false,
				IsVerified:      false,
				RejectionReason: "old rejection",
				BlockedReason:   "old block",
			}

			state := p.Moderate(poi.StatusApproved, "")
			require.Equal(t, poi.StatusApproved, state.Status)
			require.True(t, state.IsActive)
			require.True(t, state.IsVerified)
			require.Empty(t, state.RejectionReason)
			require.Empty(t, state.BlockedReason)
		})
	}
}

func TestModerateRejection(t *testing.T) {
	t.Parallel()

	p := poi.POI{
		Status:        poi.StatusApproved,
		IsActive:      true,
		IsVerified:    true,
		BlockedReason: "stale",
	}

	state := p.Moderate(poi.StatusRejected, "missing opening hours")
	require.Equal(t, poi.StatusRejected, state.Status)
	require.False(t, state.IsActive)
	require.False(t, state.IsVerified)
	require.Equal(t, "missing opening hours", state.RejectionReason)
	require.Empty(t, state.BlockedReason)
}

func TestModerateBlock(t *testing.T) {
	t.Parallel()

	p := poi.POI{
		Status:          poi.StatusApproved,
		IsActive:        true,
		IsVerified:      true,
		RejectionReason: "stale",
	}

	state := p.Moderate(poi.StatusBlocked, "policy violation")
	require.Equal(t, poi.StatusBlocked, state.Status)
	require.False(t, state.IsActive)
	require.False(t, state.IsVerified)
	require.Equal(t, "policy violation", state.BlockedReason)
	require.Empty(t, state.RejectionReason)
}

func TestModerateNeutralStatusesClearReasons(t *testing.T) {
	t.Parallel()

	neutral := []poi.Status{
		poi.StatusDraft,
		poi.StatusPendingValidation,
		poi.StatusUnderReview,
	}

	for _, to := range neutral {
		to := to
		t.Run(string(to), func(t *testing.T) {
			t.Parallel()

			p := poi.POI{
				Status:          poi.StatusRejected,
				IsActive:        true,
				IsVerified:      true,
				RejectionReason: "stale",
				BlockedReason:   "stale",
			}

			state := p.Moderate(to, "ignored")
			require.Equal(t, to, state.Status)
			require.Empty(t, state.RejectionReason)
			require.Empty(t, state.BlockedReason)
			// Visibility is not forced by intermediate statuses.
			require.True(t, state.IsActive)
			require.True(t, state.IsVerified)
		})
	}
}

func TestResubmittable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status poi.Status
		want   bool
	}{
		{poi.StatusDraft, true},
		{poi.StatusRejected, true},
		{poi.StatusPendingValidation, false},
		{poi.StatusUnderReview, false},
		{poi.StatusApproved, false},
		{poi.StatusBlocked, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()

			p := poi.POI{Status: tt.status}
			require.Equal(t, tt.want, p.Resubmittable())
		})
	}
}
