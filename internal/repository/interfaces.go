package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/careflow/hospital-api/internal/model"
)

// All repository interfaces in one file
type (
	// QueueRepository is the store adapter for queue entries. It owns no
	// business rules; every mutation after Insert goes through
	// ConditionalUpdate so concurrent staff actions race safely.
	QueueRepository interface {
		Insert(ctx context.Context, entry *model.QueueEntry) error
		Get(ctx context.Context, id uuid.UUID) (*model.QueueEntry, error)
		// FindActiveByPatient returns the patient's single active entry,
		// or nil when none exists.
		FindActiveByPatient(ctx context.Context, patientID uuid.UUID) (*model.QueueEntry, error)
		// ConditionalUpdate applies patch only while the entry still matches
		// the expected (stage, status) pair. It reports whether the update
		// took effect; a false return with nil error means a concurrent
		// writer got there first.
		ConditionalUpdate(ctx context.Context, id uuid.UUID, expected model.QueueState, patch *model.QueueEntryPatch) (bool, error)
		List(ctx context.Context, filters *model.QueueFilters) ([]*model.QueueEntry, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
		// UpdateAssignment writes the assignment policy's output onto the
		// patient, conditioned on the currently assigned doctor so two
		// operators cannot assign different doctors simultaneously.
		UpdateAssignment(ctx context.Context, patientID uuid.UUID, record *model.AssignmentRecord, expectedDoctorID *uuid.UUID) (bool, error)
	}

	// ClinicianRepository reads the roster. The roster is owned by an
	// external staffing service and is read-only here.
	ClinicianRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.ClinicianProfile, error)
		List(ctx context.Context, filters *model.ClinicianFilters) ([]*model.ClinicianProfile, error)
	}
)

// ErrDuplicateActiveEntry is returned by QueueRepository.Insert when the
// store's uniqueness guard rejects a second active entry for a patient.
// Defined here so fake stores can reproduce the postgres behaviour.
var ErrDuplicateActiveEntry = errors.New("duplicate active queue entry")
