package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cometicitcare/dba-backend-sub002/internal/models"
)

var referenceTables = map[models.ReferenceKind]string{
	models.ReferenceProvince: "ref_provinces",
	models.ReferenceDistrict: "ref_districts",
	models.ReferenceDivision: "ref_divisions",
	models.ReferenceNikaya:   "ref_nikayas",
}

// ReferenceRepository reads the administrative-division and nikaya code
// tables. Reference data never drives workflow state; it only validates
// coded fields in transition payloads.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// ListByKind returns all active entries of a reference table.
func (r *ReferenceRepository) ListByKind(ctx context.Context, kind models.ReferenceKind) ([]models.ReferenceItem, error) {
	table, ok := referenceTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown reference kind: %s", kind)
	}
	query := fmt.Sprintf(`SELECT code, name, parent_code, active FROM %s WHERE active = TRUE ORDER BY code`, table)
	var items []models.ReferenceItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return items, nil
}

// GetByCode resolves a single coded entry.
func (r *ReferenceRepository) GetByCode(ctx context.Context, kind models.ReferenceKind, code string) (*models.ReferenceItem, error) {
	table, ok := referenceTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown reference kind: %s", kind)
	}
	query := fmt.Sprintf(`SELECT code, name, parent_code, active FROM %s WHERE code = $1 LIMIT 1`, table)
	var item models.ReferenceItem
	if err := r.db.GetContext(ctx, &item, query, code); err != nil {
		return nil, err
	}
	return &item, nil
}
