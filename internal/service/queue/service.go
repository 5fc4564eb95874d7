package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careflow/hospital-api/internal/model"
	"github.com/careflow/hospital-api/internal/repository"
	"github.com/careflow/hospital-api/internal/service/vitals"
	apperrors "github.com/careflow/hospital-api/pkg/errors"
	"github.com/careflow/hospital-api/pkg/logger"
	"github.com/careflow/hospital-api/pkg/metrics"
)

// Event names used in errors and metrics labels.
const (
	eventRegister             = "register"
	eventClaimForTriage       = "claim_for_triage"
	eventCompleteTriage       = "complete_triage"
	eventStartConsultation    = "start_consultation"
	eventCompleteConsultation = "complete_consultation"
	eventCancel               = "cancel"
)

// Notifier fans queue events out to affected staff. Dispatch failures are
// logged and never abort an applied transition.
type Notifier interface {
	Dispatch(ctx context.Context, event *model.QueueEvent) error
}

// Service is the queue state machine. It validates and applies stage
// transitions, enforces one active entry per patient, and decides which
// staff role may see which entries. Every transition is a single
// conditional update keyed on the expected (stage, status) pair; the loser
// of a concurrent race observes StaleState and must re-read.
type Service struct {
	repo     repository.QueueRepository
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewService(repo repository.QueueRepository, notifier Notifier, m *metrics.Metrics, l *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		metrics:  m,
		logger:   l,
	}
}

// Register creates the patient's queue entry at (reception, waiting).
// The store's uniqueness guard backs the one-active-entry invariant, so a
// concurrent duplicate loses even if both callers pass the pre-check.
func (s *Service) Register(ctx context.Context, patientID, doctorID uuid.UUID) (*model.QueueEntry, error) {
	existing, err := s.repo.FindActiveByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active entries: %w", err)
	}
	if existing != nil {
		s.reject(eventRegister, "duplicate_active_entry")
		return nil, apperrors.NewDuplicateActiveEntry(patientID.String())
	}

	entry := &model.QueueEntry{
		PatientID:        patientID,
		AssignedDoctorID: doctorID,
		Stage:            model.StageReception,
		Status:           model.QueueStatusWaiting,
		Priority:         model.PriorityNormal,
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveEntry) {
			s.reject(eventRegister, "duplicate_active_entry")
			return nil, apperrors.NewDuplicateActiveEntry(patientID.String())
		}
		return nil, fmt.Errorf("failed to register queue entry: %w", err)
	}

	s.metrics.TransitionsApplied.WithLabelValues(eventRegister).Inc()
	s.metrics.ActiveEntries.WithLabelValues(string(entry.Stage)).Inc()
	s.notify(ctx, model.EventEntryRegistered, entry)
	return entry, nil
}

// ClaimForTriage moves a (reception, waiting) entry to in-progress under the
// claiming nurse. Exactly one of several concurrent claimants wins.
func (s *Service) ClaimForTriage(ctx context.Context, entryID, claimantID uuid.UUID) (*model.QueueEntry, error) {
	entry, err := s.load(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if entry.State() != (model.QueueState{Stage: model.StageReception, Status: model.QueueStatusWaiting}) {
		s.reject(eventClaimForTriage, "invalid_transition")
		return nil, apperrors.NewInvalidTransition(eventClaimForTriage, entry.State().String())
	}

	status := model.QueueStatusInProgress
	return s.apply(ctx, eventClaimForTriage, entry, &model.QueueEntryPatch{
		Status:    &status,
		ClaimedBy: &claimantID,
	}, model.EventTriageClaimed)
}

// SubmitTriage validates the vitals submission and, on success, advances the
// entry to (doctor, waiting). The entry's priority is taken from the
// validated urgency classification. Invalid vitals leave the entry at
// (reception, in_progress) untouched.
func (s *Service) SubmitTriage(ctx context.Context, entryID uuid.UUID, input *model.VitalSignsInput) (*model.QueueEntry, error) {
	validated, ferrs := vitals.Validate(input)
	if len(ferrs) > 0 {
		for _, fe := range ferrs {
			s.metrics.TriageValidationFailures.WithLabelValues(fe.Field).Inc()
		}
		return nil, ferrs
	}

	entry, err := s.load(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if entry.State() != (model.QueueState{Stage: model.StageReception, Status: model.QueueStatusInProgress}) {
		s.reject(eventCompleteTriage, "invalid_transition")
		return nil, apperrors.NewInvalidTransition(eventCompleteTriage, entry.State().String())
	}

	stage := model.StageDoctor
	status := model.QueueStatusWaiting
	return s.apply(ctx, eventCompleteTriage, entry, &model.QueueEntryPatch{
		Stage:      &stage,
		Status:     &status,
		VitalSigns: validated,
		Priority:   &validated.Urgency,
	}, model.EventTriageCompleted)
}

// StartConsultation moves a (doctor, waiting) entry to in-progress. Only the
// assigned doctor may start; the identity guard is checked before the state
// guard so a wrong doctor always sees NotAssignedClinician.
func (s *Service) StartConsultation(ctx context.Context, entryID, doctorID uuid.UUID) (*model.QueueEntry, error) {
	entry, err := s.load(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if entry.AssignedDoctorID != doctorID {
		s.reject(eventStartConsultation, "not_assigned_clinician")
		return nil, apperrors.NewNotAssignedClinician()
	}

	if entry.State() != (model.QueueState{Stage: model.StageDoctor, Status: model.QueueStatusWaiting}) {
		s.reject(eventStartConsultation, "invalid_transition")
		return nil, apperrors.NewInvalidTransition(eventStartConsultation, entry.State().String())
	}

	status := model.QueueStatusInProgress
	return s.apply(ctx, eventStartConsultation, entry, &model.QueueEntryPatch{
		Status: &status,
	}, model.EventConsultationStarted)
}

// CompleteConsultation is the terminal transition for a consultation in
// progress; the visit record itself is created downstream.
func (s *Service) CompleteConsultation(ctx context.Context, entryID uuid.UUID) (*model.QueueEntry, error) {
	entry, err := s.load(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if entry.State() != (model.QueueState{Stage: model.StageDoctor, Status: model.QueueStatusInProgress}) {
		s.reject(eventCompleteConsultation, "invalid_transition")
		return nil, apperrors.NewInvalidTransition(eventCompleteConsultation, entry.State().String())
	}

	status := model.QueueStatusCompleted
	return s.apply(ctx, eventCompleteConsultation, entry, &model.QueueEntryPatch{
		Status: &status,
	}, model.EventConsultationCompleted)
}

// Cancel marks any non-terminal entry cancelled at its current stage.
// Cancelling an already-cancelled entry is a no-op success so operator
// retries are harmless.
func (s *Service) Cancel(ctx context.Context, entryID uuid.UUID, reason string) (*model.QueueEntry, error) {
	entry, err := s.load(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if entry.Status == model.QueueStatusCancelled {
		return entry, nil
	}
	if entry.Status == model.QueueStatusCompleted {
		s.reject(eventCancel, "invalid_transition")
		return nil, apperrors.NewInvalidTransition(eventCancel, entry.State().String())
	}

	status := model.QueueStatusCancelled
	updated, err := s.apply(ctx, eventCancel, entry, &model.QueueEntryPatch{
		Status:       &status,
		CancelReason: &reason,
	}, model.EventEntryCancelled)
	if err == nil {
		return updated, nil
	}

	// A concurrent cancel is still a success; any other concurrent change
	// surfaces as StaleState for the caller to re-read.
	if apperrors.IsCode(err, apperrors.ErrStaleState) {
		current, getErr := s.repo.Get(ctx, entryID)
		if getErr == nil && current.Status == model.QueueStatusCancelled {
			return current, nil
		}
	}
	return nil, err
}

// CancelIfIdle cancels the entry only while it is still waiting with no
// activity since inactiveSince. It reports whether the cancellation
// applied: an entry that was touched, claimed, or advanced in the meantime
// is left alone rather than swept out from under the staff member who just
// picked it up.
func (s *Service) CancelIfIdle(ctx context.Context, entryID uuid.UUID, reason string, inactiveSince time.Time) (bool, error) {
	entry, err := s.load(ctx, entryID)
	if err != nil {
		return false, err
	}

	if entry.Status != model.QueueStatusWaiting || entry.UpdatedAt.After(inactiveSince) {
		return false, nil
	}

	status := model.QueueStatusCancelled
	_, err = s.apply(ctx, eventCancel, entry, &model.QueueEntryPatch{
		Status:       &status,
		CancelReason: &reason,
	}, model.EventEntryCancelled)
	if err != nil {
		// The conditional update expected (stage, waiting); losing it means
		// someone acted on the entry, which is exactly the case to skip.
		if apperrors.IsCode(err, apperrors.ErrStaleState) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) Get(ctx context.Context, entryID uuid.UUID) (*model.QueueEntry, error) {
	return s.load(ctx, entryID)
}

func (s *Service) load(ctx context.Context, entryID uuid.UUID) (*model.QueueEntry, error) {
	entry, err := s.repo.Get(ctx, entryID)
	if err != nil {
		return nil, apperrors.NewNotFound("queue entry", err)
	}
	return entry, nil
}

// List returns the queue board visible to the acting staff member.
// Reception and nursing see the reception stage; a doctor sees only the
// doctor-stage entries assigned to them. Terminal entries are filtered by
// construction, which is what makes the pipeline a gate rather than a
// shared list.
func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.QueueFilters) ([]*model.QueueEntry, error) {
	if filters == nil {
		filters = &model.QueueFilters{}
	}

	switch actor.Role {
	case model.StaffRoleReception, model.StaffRoleNurse:
		filters.Stage = model.StageReception
		filters.AssignedDoctorID = uuid.Nil
	case model.StaffRoleDoctor:
		filters.Stage = model.StageDoctor
		filters.AssignedDoctorID = actor.ID
	case model.StaffRoleAdmin:
		// Admins see whatever they ask for.
	default:
		return nil, apperrors.Forbidden("unknown staff role")
	}

	if actor.Role != model.StaffRoleAdmin {
		filters.ActiveOnly = true
		if filters.Status.Terminal() {
			filters.Status = ""
		}
	}

	entries, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	return entries, nil
}

// apply performs the single conditional read-modify-write for a transition.
func (s *Service) apply(ctx context.Context, event string, entry *model.QueueEntry, patch *model.QueueEntryPatch, eventType model.QueueEventType) (*model.QueueEntry, error) {
	timer := time.Now()
	applied, err := s.repo.ConditionalUpdate(ctx, entry.ID, entry.State(), patch)
	if err != nil {
		return nil, fmt.Errorf("failed to apply %s: %w", event, err)
	}
	s.metrics.TransitionLatency.WithLabelValues(event).Observe(time.Since(timer).Seconds())

	if !applied {
		s.metrics.TransitionConflicts.WithLabelValues(event).Inc()
		return nil, apperrors.NewStaleState(event)
	}

	updated, err := s.repo.Get(ctx, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("transition %s applied but re-read failed: %w", event, err)
	}

	s.metrics.TransitionsApplied.WithLabelValues(event).Inc()
	s.trackActive(entry, updated)
	s.notify(ctx, eventType, updated)
	return updated, nil
}

// trackActive keeps the per-stage active gauge in step with the transition
// that just applied.
func (s *Service) trackActive(before, after *model.QueueEntry) {
	switch {
	case !after.Status.Active():
		s.metrics.ActiveEntries.WithLabelValues(string(after.Stage)).Dec()
	case after.Stage != before.Stage:
		s.metrics.ActiveEntries.WithLabelValues(string(before.Stage)).Dec()
		s.metrics.ActiveEntries.WithLabelValues(string(after.Stage)).Inc()
	}
}

// notify dispatches after the store confirmed the transition. Failures are
// logged only; a lost notification degrades to staff refreshing their view.
func (s *Service) notify(ctx context.Context, eventType model.QueueEventType, entry *model.QueueEntry) {
	if s.notifier == nil {
		return
	}

	event := &model.QueueEvent{
		ID:         uuid.New(),
		Type:       eventType,
		EntryID:    entry.ID,
		PatientID:  entry.PatientID,
		Stage:      entry.Stage,
		Status:     entry.Status,
		Priority:   entry.Priority,
		OccurredAt: time.Now(),
	}
	if entry.AssignedDoctorID != uuid.Nil {
		event.Recipients = append(event.Recipients, entry.AssignedDoctorID)
	}
	if entry.ClaimedBy != nil {
		event.Recipients = append(event.Recipients, *entry.ClaimedBy)
	}

	if err := s.notifier.Dispatch(ctx, event); err != nil {
		s.logger.Error(err, "failed to dispatch queue event",
			"event_type", string(eventType),
			"entry_id", entry.ID.String())
	}
}

func (s *Service) reject(event, reason string) {
	s.metrics.TransitionsRejected.WithLabelValues(event, reason).Inc()
}
