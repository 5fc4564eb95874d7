package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/careflow/hospital-api/internal/model"
	"github.com/careflow/hospital-api/internal/repository"
)

// One partial unique index backs the one-active-entry-per-patient invariant:
//
//	CREATE UNIQUE INDEX queue_entries_one_active_per_patient
//	ON queue_entries (patient_id)
//	WHERE status IN ('waiting', 'in_progress');
const uniqueViolation = "23505"

func (r *queueRepository) Insert(ctx context.Context, entry *model.QueueEntry) error {
	query := `
		INSERT INTO queue_entries (
			id, patient_id, assigned_doctor_id, stage, status,
			priority, claimed_by, cancel_reason, vital_signs,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()

	vitals, err := marshalVitals(entry.VitalSigns)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.PatientID,
		entry.AssignedDoctorID,
		entry.Stage,
		entry.Status,
		entry.Priority,
		entry.ClaimedBy,
		entry.CancelReason,
		vitals,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return repository.ErrDuplicateActiveEntry
		}
		return fmt.Errorf("failed to insert queue entry: %w", err)
	}
	return nil
}

func (r *queueRepository) Get(ctx context.Context, id uuid.UUID) (*model.QueueEntry, error) {
	query := `
		SELECT id, patient_id, assigned_doctor_id, stage, status,
			   priority, claimed_by, cancel_reason, vital_signs,
			   created_at, updated_at
		FROM queue_entries
		WHERE id = $1
	`
	var entry model.QueueEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, fmt.Errorf("failed to get queue entry: %w", err)
	}
	if err := hydrateVitals(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *queueRepository) FindActiveByPatient(ctx context.Context, patientID uuid.UUID) (*model.QueueEntry, error) {
	query := `
		SELECT id, patient_id, assigned_doctor_id, stage, status,
			   priority, claimed_by, cancel_reason, vital_signs,
			   created_at, updated_at
		FROM queue_entries
		WHERE patient_id = $1
		AND status IN ('waiting', 'in_progress')
	`
	var entry model.QueueEntry
	err := r.db.GetContext(ctx, &entry, query, patientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active queue entry: %w", err)
	}
	if err := hydrateVitals(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *queueRepository) ConditionalUpdate(ctx context.Context, id uuid.UUID, expected model.QueueState, patch *model.QueueEntryPatch) (bool, error) {
	set := "updated_at = $1"
	args := []interface{}{time.Now()}
	argCount := 2

	appendSet := func(column string, value interface{}) {
		set += fmt.Sprintf(", %s = $%d", column, argCount)
		args = append(args, value)
		argCount++
	}

	if patch.Stage != nil {
		appendSet("stage", *patch.Stage)
	}
	if patch.Status != nil {
		appendSet("status", *patch.Status)
	}
	if patch.Priority != nil {
		appendSet("priority", *patch.Priority)
	}
	if patch.ClaimedBy != nil {
		appendSet("claimed_by", *patch.ClaimedBy)
	}
	if patch.CancelReason != nil {
		appendSet("cancel_reason", *patch.CancelReason)
	}
	if patch.VitalSigns != nil {
		vitals, err := marshalVitals(patch.VitalSigns)
		if err != nil {
			return false, err
		}
		appendSet("vital_signs", vitals)
	}

	query := fmt.Sprintf(`
		UPDATE queue_entries
		SET %s
		WHERE id = $%d AND stage = $%d AND status = $%d
	`, set, argCount, argCount+1, argCount+2)
	args = append(args, id, expected.Stage, expected.Status)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update queue entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *queueRepository) List(ctx context.Context, filters *model.QueueFilters) ([]*model.QueueEntry, error) {
	query := `
		SELECT id, patient_id, assigned_doctor_id, stage, status,
			   priority, claimed_by, cancel_reason, vital_signs,
			   created_at, updated_at
		FROM queue_entries
		WHERE 1=1
	`
	var args []interface{}
	argCount := 1

	appendCond := func(cond string, value interface{}) {
		query += fmt.Sprintf(" AND %s $%d", cond, argCount)
		args = append(args, value)
		argCount++
	}

	if filters.Stage != "" {
		appendCond("stage =", filters.Stage)
	}
	if filters.Status != "" {
		appendCond("status =", filters.Status)
	}
	if filters.AssignedDoctorID != uuid.Nil {
		appendCond("assigned_doctor_id =", filters.AssignedDoctorID)
	}
	if filters.PatientID != uuid.Nil {
		appendCond("patient_id =", filters.PatientID)
	}
	if filters.ActiveOnly {
		query += " AND status IN ('waiting', 'in_progress')"
	}
	if !filters.UpdatedBefore.IsZero() {
		appendCond("updated_at <", filters.UpdatedBefore)
	}

	// Board order: emergency first, then urgent, then arrival order.
	query += `
		ORDER BY CASE priority
			WHEN 'emergency' THEN 0
			WHEN 'urgent' THEN 1
			ELSE 2
		END, created_at ASC
	`

	var entries []*model.QueueEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	for _, entry := range entries {
		if err := hydrateVitals(entry); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func marshalVitals(v *model.VitalSigns) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vital signs: %w", err)
	}
	return raw, nil
}

func hydrateVitals(entry *model.QueueEntry) error {
	if len(entry.VitalsJSON) == 0 {
		return nil
	}
	var vitals model.VitalSigns
	if err := json.Unmarshal(entry.VitalsJSON, &vitals); err != nil {
		return fmt.Errorf("failed to unmarshal vital signs: %w", err)
	}
	entry.VitalSigns = &vitals
	return nil
}
