// AngelaMos | 2026
// repository.go

package poi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/atlastrail/atlas-backend/internal/core"
)

const poiColumns = `
	id, owner_id, name, description, category, latitude, longitude,
	address, city, country, status, is_active, is_verified,
	rejection_reason, blocked_reason, submission_count,
	created_at, updated_at, deleted_at`

type Repository interface {
	Create(ctx context.Context, p *POI) error
	GetByID(ctx context.Context, id string) (*POI, error)
	Update(ctx context.Context, p *POI) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, params ListPOIParams, publicOnly bool) ([]POI, int, error)
	SetModerationState(ctx context.Context, id string, state ModerationState) (*POI, error)
	Resubmit(ctx context.Context, id string) (*POI, error)
	CountActiveByOwner(ctx context.Context, ownerID string) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *POI) error {
	query := `
		INSERT INTO pois (
			id, owner_id, name, description, category,
			latitude, longitude, address, city, country, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at, submission_count`

	err := r.db.GetContext(ctx, p, query,
		p.ID,
		p.OwnerID,
		p.Name,
		p.Description,
		p.Category,
		p.Latitude,
		p.Longitude,
		p.Address,
		p.City,
		p.Country,
		p.Status,
	)
	if err != nil {
		return fmt.Errorf("create poi: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*POI, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM pois
		WHERE id = $1 AND deleted_at IS NULL`, poiColumns)

	var p POI
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get poi: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get poi: %w", err)
	}

	return &p, nil
}

func (r *repository) Update(ctx context.Context, p *POI) error {
	query := `
		UPDATE pois
		SET name = $2, description = $3, category = $4,
		    latitude = $5, longitude = $6,
		    address = $7, city = $8, country = $9,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &p.UpdatedAt, query,
		p.ID,
		p.Name,
		p.Description,
		p.Category,
		p.Latitude,
		p.Longitude,
		p.Address,
		p.City,
		p.Country,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update poi: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update poi: %w", err)
	}

	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE pois
		SET deleted_at = NOW(), is_active = false, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete poi: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete poi: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete poi: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListPOIParams,
	publicOnly bool,
) ([]POI, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if publicOnly {
		conditions = append(conditions, "status = 'approved'", "is_active = true")
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, params.Category)
		argIdx++
	}

	if params.City != "" {
		conditions = append(conditions, fmt.Sprintf("city = $%d", argIdx))
		args = append(args, params.City)
		argIdx++
	}

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argIdx))
		args = append(args, params.OwnerID)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM pois WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count pois: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM pois
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		poiColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var pois []POI
	if err := r.db.SelectContext(ctx, &pois, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list pois: %w", err)
	}

	return pois, total, nil
}

// SetModerationState writes the status and all of its forced visibility
// fields in one statement, so a reader can never observe a status
// without its side effects.
func (r *repository) SetModerationState(
	ctx context.Context,
	id string,
	state ModerationState,
) (*POI, error) {
	query := fmt.Sprintf(`
		UPDATE pois
		SET status = $2,
		    is_active = $3,
		    is_verified = $4,
		    rejection_reason = $5,
		    blocked_reason = $6,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING %s`, poiColumns)

	var p POI
	err := r.db.GetContext(ctx, &p, query,
		id,
		state.Status,
		state.IsActive,
		state.IsVerified,
		state.RejectionReason,
		state.BlockedReason,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("set moderation state: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("set moderation state: %w", err)
	}

	return &p, nil
}

// Resubmit moves a draft or rejected point back into the validation
// queue and bumps the submission counter. The status guard lives in the
// WHERE clause so concurrent resubmits count once.
func (r *repository) Resubmit(ctx context.Context, id string) (*POI, error) {
	query := fmt.Sprintf(`
		UPDATE pois
		SET status = 'pending_validation',
		    submission_count = submission_count + 1,
		    rejection_reason = '',
		    updated_at = NOW()
		WHERE id = $1
		  AND status IN ('draft', 'rejected')
		  AND deleted_at IS NULL
		RETURNING %s`, poiColumns)

	var p POI
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resubmit poi: %w", core.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("resubmit poi: %w", err)
	}

	return &p, nil
}

func (r *repository) CountActiveByOwner(
	ctx context.Context,
	ownerID string,
) (int, error) {
	query := `
		SELECT COUNT(*) FROM pois
		WHERE owner_id = $1 AND is_active = true AND deleted_at IS NULL`

	var count int
	if err := r.db.GetContext(ctx, &count, query, ownerID); err != nil {
		return 0, fmt.Errorf("count active pois: %w", err)
	}

	return count, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
