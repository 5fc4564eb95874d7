package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/careflow/hospital-api/internal/model"
)

func (r *clinicianRepository) Get(ctx context.Context, id uuid.UUID) (*model.ClinicianProfile, error) {
	query := `
		SELECT id, name, role, department, created_at, updated_at
		FROM clinicians
		WHERE id = $1
	`
	var clinician model.ClinicianProfile
	if err := r.db.GetContext(ctx, &clinician, query, id); err != nil {
		return nil, fmt.Errorf("failed to get clinician: %w", err)
	}
	return &clinician, nil
}

func (r *clinicianRepository) List(ctx context.Context, filters *model.ClinicianFilters) ([]*model.ClinicianProfile, error) {
	query := `
		SELECT id, name, role, department, created_at, updated_at
		FROM clinicians
		WHERE 1=1
	`
	var args []interface{}
	argCount := 1

	if len(filters.Roles) > 0 {
		roles := make([]string, len(filters.Roles))
		for i, role := range filters.Roles {
			roles[i] = string(role)
		}
		query += fmt.Sprintf(" AND role = ANY($%d)", argCount)
		args = append(args, pq.Array(roles))
		argCount++
	}
	if filters.Department != "" {
		query += fmt.Sprintf(" AND department = $%d", argCount)
		args = append(args, filters.Department)
		argCount++
	}

	// Registration order keeps assignment pool order stable.
	query += " ORDER BY created_at ASC"

	var clinicians []*model.ClinicianProfile
	if err := r.db.SelectContext(ctx, &clinicians, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list clinicians: %w", err)
	}
	return clinicians, nil
}
