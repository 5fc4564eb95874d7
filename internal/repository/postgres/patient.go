package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careflow/hospital-api/internal/model"
)

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, name, phone, payer_type,
			assigned_doctor_id, assignment_reason, assignment_date,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	patient.ID = uuid.New()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Phone,
		patient.PayerType,
		patient.AssignedDoctorID,
		patient.AssignmentReason,
		patient.AssignmentDate,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `
		SELECT id, name, phone, payer_type,
			   assigned_doctor_id, assignment_reason, assignment_date,
			   created_at, updated_at
		FROM patients
		WHERE id = $1
	`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	query := `
		SELECT id, name, phone, payer_type,
			   assigned_doctor_id, assignment_reason, assignment_date,
			   created_at, updated_at
		FROM patients
		WHERE 1=1
	`
	var args []interface{}
	argCount := 1

	if filters.PayerType != "" {
		query += fmt.Sprintf(" AND payer_type = $%d", argCount)
		args = append(args, filters.PayerType)
		argCount++
	}
	if filters.SearchTerm != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", argCount)
		args = append(args, "%"+filters.SearchTerm+"%")
		argCount++
	}

	query += " ORDER BY created_at DESC"

	if filters.PageSize > 0 {
		offset := 0
		if filters.Page > 1 {
			offset = (filters.Page - 1) * filters.PageSize
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
		args = append(args, filters.PageSize, offset)
	}

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// UpdateAssignment is a compare-and-swap on assigned_doctor_id so two
// operators racing a reassignment cannot both win.
func (r *patientRepository) UpdateAssignment(ctx context.Context, patientID uuid.UUID, record *model.AssignmentRecord, expectedDoctorID *uuid.UUID) (bool, error) {
	query := `
		UPDATE patients
		SET assigned_doctor_id = $1, assignment_reason = $2,
			assignment_date = $3, updated_at = $4
		WHERE id = $5
	`
	args := []interface{}{
		record.DoctorID,
		record.Reason,
		time.Now(),
		time.Now(),
		patientID,
	}

	if expectedDoctorID == nil {
		query += " AND assigned_doctor_id IS NULL"
	} else {
		query += " AND assigned_doctor_id = $6"
		args = append(args, *expectedDoctorID)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}
