// AngelaMos | 2026
// repository.go

package partner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atlastrail/atlas-backend/internal/core"
)

const profileColumns = `
	id, identity_id, company_name, website, phone, api_key, status,
	created_at, updated_at`

const commissionColumns = `
	id, partner_id, booking_ref, amount, rate, payment_status, paid_at,
	created_at`

type Repository interface {
	GetProfileByIdentity(ctx context.Context, identityID string) (*Profile, error)
	UpsertProfile(ctx context.Context, p *Profile) error
	RotateAPIKey(ctx context.Context, identityID, newKey string) (*Profile, error)
	UpdateProfileStatus(ctx context.Context, identityID string, status ProfileStatus) (*Profile, error)
	ListProfiles(ctx context.Context, status ProfileStatus, limit, offset int) ([]Profile, int, error)

	CreateCommission(ctx context.Context, c *Commission) error
	ListCommissions(ctx context.Context, partnerID string, limit, offset int) ([]Commission, int, error)
	UpdateCommissionStatus(ctx context.Context, id string, status PaymentStatus) (*Commission, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetProfileByIdentity(
	ctx context.Context,
	identityID string,
) (*Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM partner_profiles
		WHERE identity_id = $1`, profileColumns)

	var p Profile
	err := r.db.GetContext(ctx, &p, query, identityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get partner profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get partner profile: %w", err)
	}

	return &p, nil
}

func (r *repository) UpsertProfile(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO partner_profiles (
			id, identity_id, company_name, website, phone, api_key, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (identity_id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			website = EXCLUDED.website,
			phone = EXCLUDED.phone,
			updated_at = NOW()
		RETURNING id, api_key, status, created_at, updated_at`

	err := r.db.GetContext(ctx, p, query,
		p.ID,
		p.IdentityID,
		p.CompanyName,
		p.Website,
		p.Phone,
		p.APIKey,
		p.Status,
	)
	if err != nil {
		return fmt.Errorf("upsert partner profile: %w", err)
	}

	return nil
}

func (r *repository) RotateAPIKey(
	ctx context.Context,
	identityID, newKey string,
) (*Profile, error) {
	query := fmt.Sprintf(`
		UPDATE partner_profiles
		SET api_key = $2, updated_at = NOW()
		WHERE identity_id = $1
		RETURNING %s`, profileColumns)

	var p Profile
	err := r.db.GetContext(ctx, &p, query, identityID, newKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rotate api key: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("rotate api key: %w", err)
	}

	return &p, nil
}

func (r *repository) UpdateProfileStatus(
	ctx context.Context,
	identityID string,
	status ProfileStatus,
) (*Profile, error) {
	query := fmt.Sprintf(`
		UPDATE partner_profiles
		SET status = $2, updated_at = NOW()
		WHERE identity_id = $1
		RETURNING %s`, profileColumns)

	var p Profile
	err := r.db.GetContext(ctx, &p, query, identityID, status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update profile status: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update profile status: %w", err)
	}

	return &p, nil
}

func (r *repository) ListProfiles(
	ctx context.Context,
	status ProfileStatus,
	limit, offset int,
) ([]Profile, int, error) {
	where := "TRUE"
	args := []any{}
	argIdx := 1

	if status != "" {
		where = fmt.Sprintf("status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM partner_profiles WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count partner profiles: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM partner_profiles
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, profileColumns, where, argIdx, argIdx+1)

	args = append(args, limit, offset)

	var profiles []Profile
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list partner profiles: %w", err)
	}

	return profiles, total, nil
}

func (r *repository) CreateCommission(
	ctx context.Context,
	c *Commission,
) error {
	query := `
		INSERT INTO partner_commissions (
			id, partner_id, booking_ref, amount, rate, payment_status
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &c.CreatedAt, query,
		c.ID,
		c.PartnerID,
		c.BookingRef,
		c.Amount,
		c.Rate,
		c.PaymentStatus,
	)
	if err != nil {
		return fmt.Errorf("create commission: %w", err)
	}

	return nil
}

func (r *repository) ListCommissions(
	ctx context.Context,
	partnerID string,
	limit, offset int,
) ([]Commission, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM partner_commissions WHERE partner_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, partnerID); err != nil {
		return nil, 0, fmt.Errorf("count commissions: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM partner_commissions
		WHERE partner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, commissionColumns)

	var commissions []Commission
	err := r.db.SelectContext(ctx, &commissions, query, partnerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list commissions: %w", err)
	}

	return commissions, total, nil
}

// UpdateCommissionStatus stamps paid_at exactly when the status lands on
// paid, and clears it if the payment is walked back.
func (r *repository) UpdateCommissionStatus(
	ctx context.Context,
	id string,
	status PaymentStatus,
) (*Commission, error) {
	query := fmt.Sprintf(`
		UPDATE partner_commissions
		SET payment_status = $2,
		    paid_at = CASE WHEN $2 = 'paid' THEN NOW() ELSE NULL END
		WHERE id = $1
		RETURNING %s`, commissionColumns)

	var c Commission
	err := r.db.GetContext(ctx, &c, query, id, status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update commission status: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update commission status: %w", err)
	}

	return &c, nil
}
