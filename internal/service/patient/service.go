package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/careflow/hospital-api/internal/model"
	"github.com/careflow/hospital-api/internal/repository"
	"github.com/careflow/hospital-api/internal/service/assignment"
	"github.com/careflow/hospital-api/internal/service/queue"
	"github.com/careflow/hospital-api/internal/service/roster"
	apperrors "github.com/careflow/hospital-api/pkg/errors"
)

// Service is Reception's entry point: it registers patients, applies the
// assignment policy's output, and opens the initial queue entry.
type Service struct {
	repo      repository.PatientRepository
	rosterSvc *roster.Service
	assignSvc *assignment.Service
	queueSvc  *queue.Service
}

func NewService(repo repository.PatientRepository, rosterSvc *roster.Service, assignSvc *assignment.Service, queueSvc *queue.Service) *Service {
	return &Service{
		repo:      repo,
		rosterSvc: rosterSvc,
		assignSvc: assignSvc,
		queueSvc:  queueSvc,
	}
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	payer := model.PayerType(req.PayerType)
	if !payer.Valid() {
		return nil, apperrors.NewBadRequest("invalid payer type", nil)
	}

	patient := &model.Patient{
		Name:      req.Name,
		Phone:     req.Phone,
		PayerType: payer,
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("patient", err)
	}
	return patient, nil
}

func (s *Service) ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// AssignDoctor runs the assignment policy for the patient, persists the
// record, and registers the initial queue entry. Pass explicitDoctorID for
// an operator override.
func (s *Service) AssignDoctor(ctx context.Context, patientID uuid.UUID, explicitDoctorID *uuid.UUID) (*model.AssignmentRecord, *model.QueueEntry, error) {
	patient, err := s.GetPatient(ctx, patientID)
	if err != nil {
		return nil, nil, err
	}

	eligible, err := s.rosterSvc.Eligible(ctx)
	if err != nil {
		return nil, nil, err
	}

	record, err := s.assignSvc.Assign(patient.PayerType, eligible, explicitDoctorID)
	if err != nil {
		return nil, nil, err
	}

	applied, err := s.repo.UpdateAssignment(ctx, patientID, record, patient.AssignedDoctorID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to persist assignment: %w", err)
	}
	if !applied {
		return nil, nil, apperrors.NewStaleState("assign_doctor")
	}

	entry, err := s.queueSvc.Register(ctx, patientID, record.DoctorID)
	if err != nil {
		return nil, nil, err
	}
	return record, entry, nil
}

// ReassignDoctor re-runs the policy's override path under the same
// conditional-update discipline, so two operators racing a reassignment
// cannot both win. The active queue entry, if any, is not touched; queue
// reassignment is a cancellation plus re-registration by the operator.
func (s *Service) ReassignDoctor(ctx context.Context, patientID, doctorID uuid.UUID) (*model.AssignmentRecord, error) {
	patient, err := s.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	eligible, err := s.rosterSvc.Eligible(ctx)
	if err != nil {
		return nil, err
	}

	record, err := s.assignSvc.Assign(patient.PayerType, eligible, &doctorID)
	if err != nil {
		return nil, err
	}

	applied, err := s.repo.UpdateAssignment(ctx, patientID, record, patient.AssignedDoctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to persist reassignment: %w", err)
	}
	if !applied {
		return nil, apperrors.NewStaleState("reassign_doctor")
	}
	return record, nil
}
