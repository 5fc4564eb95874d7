package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careflow/hospital-api/internal/model"
	"github.com/careflow/hospital-api/internal/repository"
	apperrors "github.com/careflow/hospital-api/pkg/errors"
	"github.com/careflow/hospital-api/pkg/logger"
	"github.com/careflow/hospital-api/pkg/metrics"
)

// fakeQueueRepo is an in-memory store whose conditional update is atomic,
// mirroring the compare-and-swap the postgres adapter performs.
type fakeQueueRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*model.QueueEntry
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{entries: make(map[uuid.UUID]*model.QueueEntry)}
}

func (f *fakeQueueRepo) Insert(_ context.Context, entry *model.QueueEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.entries {
		if e.PatientID == entry.PatientID && e.Status.Active() {
			return repository.ErrDuplicateActiveEntry
		}
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	clone := *entry
	f.entries[entry.ID] = &clone
	return nil
}

func (f *fakeQueueRepo) Get(_ context.Context, id uuid.UUID) (*model.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[id]
	if !ok {
		return nil, assert.AnError
	}
	clone := *entry
	return &clone, nil
}

func (f *fakeQueueRepo) FindActiveByPatient(_ context.Context, patientID uuid.UUID) (*model.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.entries {
		if e.PatientID == patientID && e.Status.Active() {
			clone := *e
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeQueueRepo) ConditionalUpdate(_ context.Context, id uuid.UUID, expected model.QueueState, patch *model.QueueEntryPatch) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[id]
	if !ok || entry.State() != expected {
		return false, nil
	}
	if patch.Stage != nil {
		entry.Stage = *patch.Stage
	}
	if patch.Status != nil {
		entry.Status = *patch.Status
	}
	if patch.Priority != nil {
		entry.Priority = *patch.Priority
	}
	if patch.ClaimedBy != nil {
		entry.ClaimedBy = patch.ClaimedBy
	}
	if patch.CancelReason != nil {
		entry.CancelReason = patch.CancelReason
	}
	if patch.VitalSigns != nil {
		entry.VitalSigns = patch.VitalSigns
	}
	return true, nil
}

func (f *fakeQueueRepo) List(_ context.Context, filters *model.QueueFilters) ([]*model.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*model.QueueEntry
	for _, e := range f.entries {
		if filters.Stage != "" && e.Stage != filters.Stage {
			continue
		}
		if filters.Status != "" && e.Status != filters.Status {
			continue
		}
		if filters.AssignedDoctorID != uuid.Nil && e.AssignedDoctorID != filters.AssignedDoctorID {
			continue
		}
		if filters.PatientID != uuid.Nil && e.PatientID != filters.PatientID {
			continue
		}
		if filters.ActiveOnly && !e.Status.Active() {
			continue
		}
		if !filters.UpdatedBefore.IsZero() && !e.UpdatedAt.Before(filters.UpdatedBefore) {
			continue
		}
		clone := *e
		out = append(out, &clone)
	}
	return out, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []*model.QueueEvent
	err    error
}

func (f *fakeNotifier) Dispatch(_ context.Context, event *model.QueueEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeNotifier) eventTypes() []model.QueueEventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]model.QueueEventType, len(f.events))
	for i, e := range f.events {
		types[i] = e.Type
	}
	return types
}

func newTestService(t *testing.T) (*Service, *fakeQueueRepo, *fakeNotifier) {
	t.Helper()
	repo := newFakeQueueRepo()
	notifier := &fakeNotifier{}
	m := metrics.NewMetricsWithRegistry("test", "queue", prometheus.NewRegistry())
	return NewService(repo, notifier, m, logger.NewLogger(nil)), repo, notifier
}

func validVitals() *model.VitalSignsInput {
	return &model.VitalSignsInput{
		Temperature:      37.0,
		Pulse:            80,
		RespiratoryRate:  16,
		BloodPressure:    "120/80",
		Height:           170,
		Weight:           70,
		OxygenSaturation: 98,
	}
}

func TestFullPipeline(t *testing.T) {
	svc, _, notifier := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()
	doctorID := uuid.New()
	nurseID := uuid.New()

	entry, err := svc.Register(ctx, patientID, doctorID)
	require.NoError(t, err)
	assert.Equal(t, model.StageReception, entry.Stage)
	assert.Equal(t, model.QueueStatusWaiting, entry.Status)

	entry, err = svc.ClaimForTriage(ctx, entry.ID, nurseID)
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusInProgress, entry.Status)
	require.NotNil(t, entry.ClaimedBy)
	assert.Equal(t, nurseID, *entry.ClaimedBy)

	input := validVitals()
	input.Urgency = model.PriorityUrgent
	entry, err = svc.SubmitTriage(ctx, entry.ID, input)
	require.NoError(t, err)
	assert.Equal(t, model.StageDoctor, entry.Stage)
	assert.Equal(t, model.QueueStatusWaiting, entry.Status)
	assert.Equal(t, model.PriorityUrgent, entry.Priority)
	require.NotNil(t, entry.VitalSigns)
	assert.InDelta(t, 24.2, entry.VitalSigns.BMI, 0.05)

	entry, err = svc.StartConsultation(ctx, entry.ID, doctorID)
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusInProgress, entry.Status)

	entry, err = svc.CompleteConsultation(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusCompleted, entry.Status)

	assert.Equal(t, []model.QueueEventType{
		model.EventEntryRegistered,
		model.EventTriageClaimed,
		model.EventTriageCompleted,
		model.EventConsultationStarted,
		model.EventConsultationCompleted,
	}, notifier.eventTypes())
}

func TestRegisterDuplicateActiveEntry(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	_, err := svc.Register(ctx, patientID, uuid.New())
	require.NoError(t, err)

	_, err = svc.Register(ctx, patientID, uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrDuplicateActiveEntry))
}

func TestRegisterConcurrentExactlyOneWins(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	const attempts = 16
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(ctx, patientID, uuid.New())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, duplicates int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case apperrors.IsCode(err, apperrors.ErrDuplicateActiveEntry):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, duplicates)
}

func TestRegisterAllowedAfterTerminal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	entry, err := svc.Register(ctx, patientID, uuid.New())
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, entry.ID, "walked out")
	require.NoError(t, err)

	// A cancelled entry no longer occupies the active slot.
	_, err = svc.Register(ctx, patientID, uuid.New())
	assert.NoError(t, err)
}

func TestClaimConcurrentExactlyOneWins(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Register(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)

	const claimants = 8
	results := make(chan error, claimants)
	var wg sync.WaitGroup
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ClaimForTriage(ctx, entry.ID, uuid.New())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, stale int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case apperrors.IsCode(err, apperrors.ErrStaleState), apperrors.IsCode(err, apperrors.ErrInvalidTransition):
			stale++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, claimants-1, stale)
}

func TestClaimRequiresWaiting(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Register(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)
	_, err = svc.ClaimForTriage(ctx, entry.ID, uuid.New())
	require.NoError(t, err)

	_, err = svc.ClaimForTriage(ctx, entry.ID, uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidTransition))
}

func TestSubmitTriageInvalidVitalsLeavesEntry(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	nurseID := uuid.New()

	entry, err := svc.Register(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)
	_, err = svc.ClaimForTriage(ctx, entry.ID, nurseID)
	require.NoError(t, err)

	input := validVitals()
	input.Pulse = 250
	_, err = svc.SubmitTriage(ctx, entry.ID, input)

	var ferrs model.FieldErrors
	require.ErrorAs(t, err, &ferrs)
	assert.True(t, ferrs.HasField("pulse"))

	current, err := repo.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageReception, current.Stage)
	assert.Equal(t, model.QueueStatusInProgress, current.Status)
	assert.Nil(t, current.VitalSigns)
}

func TestSubmitTriageRequiresClaim(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Register(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)

	_, err = svc.SubmitTriage(ctx, entry.ID, validVitals())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidTransition))
}

func TestStartConsultationWrongDoctor(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	doctorY := uuid.New()

	entry := advanceToDoctorStage(t, svc, doctorY)

	doctorX := uuid.New()
	_, err := svc.StartConsultation(ctx, entry.ID, doctorX)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrNotAssignedClinician))

	current, err := repo.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusWaiting, current.Status)
}

func TestStartConsultationBeforeTriage(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	doctorID := uuid.New()

	entry, err := svc.Register(ctx, uuid.New(), doctorID)
	require.NoError(t, err)

	_, err = svc.StartConsultation(ctx, entry.ID, doctorID)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidTransition))
}

func TestCancelIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Register(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)

	first, err := svc.Cancel(ctx, entry.ID, "patient left")
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusCancelled, first.Status)
	assert.Equal(t, model.StageReception, first.Stage)

	second, err := svc.Cancel(ctx, entry.ID, "again")
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusCancelled, second.Status)
	require.NotNil(t, second.CancelReason)
	assert.Equal(t, "patient left", *second.CancelReason)
}

func TestCancelIfIdleCancelsUntouchedEntry(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Register(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)

	applied, err := svc.CancelIfIdle(ctx, entry.ID, "abandoned", time.Now())
	require.NoError(t, err)
	assert.True(t, applied)

	current, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusCancelled, current.Status)
	require.NotNil(t, current.CancelReason)
	assert.Equal(t, "abandoned", *current.CancelReason)
}

func TestCancelIfIdleSkipsClaimedEntry(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	nurseID := uuid.New()

	entry, err := svc.Register(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)
	_, err = svc.ClaimForTriage(ctx, entry.ID, nurseID)
	require.NoError(t, err)

	// A claim that lands between listing stale entries and cancelling them
	// must keep the entry with its claimant.
	applied, err := svc.CancelIfIdle(ctx, entry.ID, "abandoned", time.Now())
	require.NoError(t, err)
	assert.False(t, applied)

	current, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusInProgress, current.Status)
	require.NotNil(t, current.ClaimedBy)
	assert.Equal(t, nurseID, *current.ClaimedBy)
}

func TestCancelIfIdleSkipsRecentActivity(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Register(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)

	repo.mu.Lock()
	repo.entries[entry.ID].UpdatedAt = time.Now()
	repo.mu.Unlock()

	applied, err := svc.CancelIfIdle(ctx, entry.ID, "abandoned", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, applied)

	current, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusWaiting, current.Status)
}

func TestCancelCompletedRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	doctorID := uuid.New()

	entry := advanceToDoctorStage(t, svc, doctorID)
	_, err := svc.StartConsultation(context.Background(), entry.ID, doctorID)
	require.NoError(t, err)
	_, err = svc.CompleteConsultation(ctx, entry.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, entry.ID, "too late")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidTransition))
}

func TestVisibilityByRole(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	doctorID := uuid.New()
	otherDoctor := uuid.New()

	entry, err := svc.Register(ctx, uuid.New(), doctorID)
	require.NoError(t, err)

	nurse := model.Actor{ID: uuid.New(), Role: model.StaffRoleNurse}
	doctor := model.Actor{ID: doctorID, Role: model.StaffRoleDoctor}
	stranger := model.Actor{ID: otherDoctor, Role: model.StaffRoleDoctor}

	// Before triage the nurse sees the entry; the doctor sees nothing yet.
	board, err := svc.List(ctx, nurse, nil)
	require.NoError(t, err)
	assert.Len(t, board, 1)

	board, err = svc.List(ctx, doctor, nil)
	require.NoError(t, err)
	assert.Empty(t, board)

	_, err = svc.ClaimForTriage(ctx, entry.ID, nurse.ID)
	require.NoError(t, err)
	_, err = svc.SubmitTriage(ctx, entry.ID, validVitals())
	require.NoError(t, err)

	// After triage the assignment gate flips.
	board, err = svc.List(ctx, doctor, nil)
	require.NoError(t, err)
	assert.Len(t, board, 1)

	board, err = svc.List(ctx, stranger, nil)
	require.NoError(t, err)
	assert.Empty(t, board)

	board, err = svc.List(ctx, nurse, nil)
	require.NoError(t, err)
	assert.Empty(t, board)
}

func TestVisibilityExcludesTerminal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	entry, err := svc.Register(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, entry.ID, "no show")
	require.NoError(t, err)

	nurse := model.Actor{ID: uuid.New(), Role: model.StaffRoleNurse}
	board, err := svc.List(ctx, nurse, &model.QueueFilters{Status: model.QueueStatusCancelled})
	require.NoError(t, err)
	assert.Empty(t, board)
}

func TestNotifierFailureDoesNotAbortTransition(t *testing.T) {
	svc, repo, notifier := newTestService(t)
	notifier.err = assert.AnError
	ctx := context.Background()

	entry, err := svc.Register(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)

	current, err := repo.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QueueStatusWaiting, current.Status)
}

func advanceToDoctorStage(t *testing.T, svc *Service, doctorID uuid.UUID) *model.QueueEntry {
	t.Helper()
	ctx := context.Background()

	entry, err := svc.Register(ctx, uuid.New(), doctorID)
	require.NoError(t, err)
	_, err = svc.ClaimForTriage(ctx, entry.ID, uuid.New())
	require.NoError(t, err)
	entry, err = svc.SubmitTriage(ctx, entry.ID, validVitals())
	require.NoError(t, err)
	return entry
}
