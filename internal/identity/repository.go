// AngelaMos | 2026
// repository.go

package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/atlastrail/atlas-backend/internal/core"
)

const identityColumns = `
	id, email, password_hash, name, role, partner_tier,
	trial_ends_at, subscription_ends_at, content_approved,
	email_verified, requires_2fa, two_factor_enabled, is_staff,
	token_version, created_at, updated_at, deactivated_at`

type Repository interface {
	Create(ctx context.Context, id *Identity) error
	GetByID(ctx context.Context, id string) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	Update(ctx context.Context, id *Identity) error
	UpdateRole(ctx context.Context, id string, role Role, trialEnd time.Time) (*Identity, error)
	UpdateSubscription(ctx context.Context, id string, tier PartnerTier, endsAt *time.Time) (*Identity, error)
	SetContentApproved(ctx context.Context, id string, approved bool) error
	SetTwoFactorEnabled(ctx context.Context, id string, enabled bool) error
	MarkEmailVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context, params ListIdentitiesParams) ([]Identity, int, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context, role Role) (int, error)

	GetProfile(ctx context.Context, identityID string) (*Profile, error)
	UpsertProfile(ctx context.Context, p *Profile) error
	DeleteProfile(ctx context.Context, identityID string) error

	UpsertPermission(ctx context.Context, p *AdminPermission) error
	GetPermission(ctx context.Context, adminID string, permType PermissionType) (*AdminPermission, error)
	ListPermissions(ctx context.Context, adminID string) ([]AdminPermission, error)
	DeletePermission(ctx context.Context, adminID string, permType PermissionType) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, id *Identity) error {
	query := `
		INSERT INTO identities (
			id, email, password_hash, name, role, partner_tier,
			trial_ends_at, email_verified, requires_2fa
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at, token_version`

	err := r.db.GetContext(ctx, id, query,
		id.ID,
		id.Email,
		id.PasswordHash,
		id.Name,
		id.Role,
		id.PartnerTier,
		id.TrialEndsAt,
		id.EmailVerified,
		id.RequiresTwoFactor,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create identity: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create identity: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Identity, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM identities
		WHERE id = $1 AND deactivated_at IS NULL`, identityColumns)

	var ident Identity
	err := r.db.GetContext(ctx, &ident, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get identity: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}

	return &ident, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*Identity, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM identities
		WHERE email = $1 AND deactivated_at IS NULL`, identityColumns)

	var ident Identity
	err := r.db.GetContext(ctx, &ident, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get identity by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get identity by email: %w", err)
	}

	return &ident, nil
}

func (r *repository) Update(ctx context.Context, id *Identity) error {
	query := `
		UPDATE identities
		SET name = $2, content_approved = $3, updated_at = NOW()
		WHERE id = $1 AND deactivated_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &id.UpdatedAt, query,
		id.ID,
		id.Name,
		id.ContentApproved,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update identity: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}

	return nil
}

// UpdateRole reassigns the role in a single conditional statement so that
// concurrent role changes cannot double-initialize the partner trial:
// the trial tier and window are set only when the row has no tier yet,
// and 2FA becomes required the moment the role is super_admin.
func (r *repository) UpdateRole(
	ctx context.Context,
	id string,
	role Role,
	trialEnd time.Time,
) (*Identity, error) {
	query := fmt.Sprintf(`
		UPDATE identities
		SET role = $2,
		    requires_2fa = (requires_2fa OR $2 = 'super_admin'),
		    trial_ends_at = CASE
		        WHEN $2 = 'partner' AND partner_tier = '' THEN $3
		        ELSE trial_ends_at
		    END,
		    partner_tier = CASE
		        WHEN $2 = 'partner' AND partner_tier = '' THEN 'trial'
		        ELSE partner_tier
		    END,
		    updated_at = NOW()
		WHERE id = $1 AND deactivated_at IS NULL
		RETURNING %s`, identityColumns)

	var ident Identity
	err := r.db.GetContext(ctx, &ident, query, id, role, trialEnd)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update role: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	return &ident, nil
}

func (r *repository) UpdateSubscription(
	ctx context.Context,
	id string,
	tier PartnerTier,
	endsAt *time.Time,
) (*Identity, error) {
	query := fmt.Sprintf(`
		UPDATE identities
		SET partner_tier = $2,
		    trial_ends_at = CASE WHEN $2 = 'trial' THEN $3 ELSE trial_ends_at END,
		    subscription_ends_at = CASE WHEN $2 = 'trial' THEN subscription_ends_at ELSE $3 END,
		    updated_at = NOW()
		WHERE id = $1 AND role = 'partner' AND deactivated_at IS NULL
		RETURNING %s`, identityColumns)

	var ident Identity
	err := r.db.GetContext(ctx, &ident, query, id, tier, endsAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}

	return &ident, nil
}

func (r *repository) SetContentApproved(
	ctx context.Context,
	id string,
	approved bool,
) error {
	query := `
		UPDATE identities
		SET content_approved = $2, updated_at = NOW()
		WHERE id = $1 AND role = 'editor' AND deactivated_at IS NULL`

	return r.execExpectingRow(ctx, "set content approved", query, id, approved)
}

func (r *repository) SetTwoFactorEnabled(
	ctx context.Context,
	id string,
	enabled bool,
) error {
	query := `
		UPDATE identities
		SET two_factor_enabled = $2, updated_at = NOW()
		WHERE id = $1 AND deactivated_at IS NULL`

	return r.execExpectingRow(ctx, "set two factor", query, id, enabled)
}

func (r *repository) MarkEmailVerified(ctx context.Context, id string) error {
	query := `
		UPDATE identities
		SET email_verified = true, updated_at = NOW()
		WHERE id = $1 AND deactivated_at IS NULL`

	return r.execExpectingRow(ctx, "mark email verified", query, id)
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE identities
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND deactivated_at IS NULL`

	return r.execExpectingRow(ctx, "update password", query, id, passwordHash)
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE identities
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1 AND deactivated_at IS NULL`

	return r.execExpectingRow(ctx, "increment token version", query, id)
}

// Deactivate soft-deletes the account and scrubs the email so the address
// can be reused for a fresh registration.
func (r *repository) Deactivate(ctx context.Context, id string) error {
	query := `
		UPDATE identities
		SET deactivated_at = NOW(),
		    email = 'deactivated+' || id || '@invalid.local',
		    updated_at = NOW()
		WHERE id = $1 AND deactivated_at IS NULL`

	return r.execExpectingRow(ctx, "deactivate identity", query, id)
}

func (r *repository) List(
	ctx context.Context,
	params ListIdentitiesParams,
) ([]Identity, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "deactivated_at IS NULL")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.Tier != "" {
		conditions = append(conditions, fmt.Sprintf("partner_tier = $%d", argIdx))
		args = append(args, params.Tier)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM identities WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count identities: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM identities
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		identityColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var identities []Identity
	if err := r.db.SelectContext(ctx, &identities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list identities: %w", err)
	}

	return identities, total, nil
}

func (r *repository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM identities WHERE email = $1 AND deactivated_at IS NULL)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (r *repository) CountByRole(
	ctx context.Context,
	role Role,
) (int, error) {
	query := `SELECT COUNT(*) FROM identities WHERE role = $1 AND deactivated_at IS NULL`

	var count int
	if err := r.db.GetContext(ctx, &count, query, role); err != nil {
		return 0, fmt.Errorf("count by role: %w", err)
	}

	return count, nil
}

func (r *repository) GetProfile(
	ctx context.Context,
	identityID string,
) (*Profile, error) {
	query := `
		SELECT identity_id, email, name, avatar_url, bio, city, country,
		       is_public, created_at, updated_at
		FROM profiles
		WHERE identity_id = $1`

	var p Profile
	err := r.db.GetContext(ctx, &p, query, identityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &p, nil
}

func (r *repository) UpsertProfile(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO profiles (
			identity_id, email, name, avatar_url, bio, city, country, is_public
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (identity_id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			avatar_url = EXCLUDED.avatar_url,
			bio = EXCLUDED.bio,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			is_public = EXCLUDED.is_public,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, p, query,
		p.IdentityID,
		p.Email,
		p.Name,
		p.AvatarURL,
		p.Bio,
		p.City,
		p.Country,
		p.IsPublic,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	return nil
}

func (r *repository) DeleteProfile(ctx context.Context, identityID string) error {
	query := `DELETE FROM profiles WHERE identity_id = $1`

	if _, err := r.db.ExecContext(ctx, query, identityID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	return nil
}

func (r *repository) UpsertPermission(
	ctx context.Context,
	p *AdminPermission,
) error {
	query := `
		INSERT INTO admin_permissions (
			id, admin_id, permission_type,
			can_create, can_read, can_update, can_delete
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (admin_id, permission_type) DO UPDATE SET
			can_create = EXCLUDED.can_create,
			can_read = EXCLUDED.can_read,
			can_update = EXCLUDED.can_update,
			can_delete = EXCLUDED.can_delete,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.GetContext(ctx, p, query,
		p.ID,
		p.AdminID,
		p.PermissionType,
		p.CanCreate,
		p.CanRead,
		p.CanUpdate,
		p.CanDelete,
	)
	if err != nil {
		return fmt.Errorf("upsert admin permission: %w", err)
	}

	return nil
}

func (r *repository) GetPermission(
	ctx context.Context,
	adminID string,
	permType PermissionType,
) (*AdminPermission, error) {
	query := `
		SELECT id, admin_id, permission_type,
		       can_create, can_read, can_update, can_delete,
		       created_at, updated_at
		FROM admin_permissions
		WHERE admin_id = $1 AND permission_type = $2`

	var p AdminPermission
	err := r.db.GetContext(ctx, &p, query, adminID, permType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get admin permission: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get admin permission: %w", err)
	}

	return &p, nil
}

func (r *repository) ListPermissions(
	ctx context.Context,
	adminID string,
) ([]AdminPermission, error) {
	query := `
		SELECT id, admin_id, permission_type,
		       can_create, can_read, can_update, can_delete,
		       created_at, updated_at
		FROM admin_permissions
		WHERE admin_id = $1
		ORDER BY permission_type`

	var perms []AdminPermission
	if err := r.db.SelectContext(ctx, &perms, query, adminID); err != nil {
		return nil, fmt.Errorf("list admin permissions: %w", err)
	}

	return perms, nil
}

func (r *repository) DeletePermission(
	ctx context.Context,
	adminID string,
	permType PermissionType,
) error {
	query := `
		DELETE FROM admin_permissions
		WHERE admin_id = $1 AND permission_type = $2`

	return r.execExpectingRow(ctx, "delete admin permission", query, adminID, permType)
}

func (r *repository) execExpectingRow(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
