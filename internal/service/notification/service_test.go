package notification

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careflow/hospital-api/internal/model"
	"github.com/careflow/hospital-api/pkg/logger"
	"github.com/careflow/hospital-api/pkg/metrics"
)

type fakeBroker struct {
	channels []string
	err      error
}

func (f *fakeBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.channels = append(f.channels, channel)
	return nil
}

func (f *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, nil
}

func (f *fakeBroker) Close() error { return nil }

type fakeEmail struct {
	sent []string
	err  error
}

func (f *fakeEmail) Send(to, subject, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, subject)
	return nil
}

func newTestService(broker *fakeBroker, mail *fakeEmail) *Service {
	m := metrics.NewMetricsWithRegistry("test", "notification", prometheus.NewRegistry())
	return NewService(broker, mail, "oncall@example.org", m, logger.NewLogger(nil))
}

func queueEvent(priority model.Priority, recipients ...uuid.UUID) *model.QueueEvent {
	return &model.QueueEvent{
		ID:         uuid.New(),
		Type:       model.EventTriageCompleted,
		EntryID:    uuid.New(),
		PatientID:  uuid.New(),
		Stage:      model.StageDoctor,
		Status:     model.QueueStatusWaiting,
		Priority:   priority,
		Recipients: recipients,
	}
}

func TestDispatchFansOutToStageAndRecipients(t *testing.T) {
	broker := &fakeBroker{}
	doctorID := uuid.New()
	svc := newTestService(broker, &fakeEmail{})

	err := svc.Dispatch(context.Background(), queueEvent(model.PriorityNormal, doctorID))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"queue:stage:doctor",
		"queue:staff:" + doctorID.String(),
	}, broker.channels)
}

func TestDispatchEmergencySendsEmail(t *testing.T) {
	mail := &fakeEmail{}
	svc := newTestService(&fakeBroker{}, mail)

	err := svc.Dispatch(context.Background(), queueEvent(model.PriorityEmergency))
	require.NoError(t, err)
	require.Len(t, mail.sent, 1)
	assert.Contains(t, mail.sent[0], "Emergency")
}

func TestDispatchNormalPrioritySkipsEmail(t *testing.T) {
	mail := &fakeEmail{}
	svc := newTestService(&fakeBroker{}, mail)

	err := svc.Dispatch(context.Background(), queueEvent(model.PriorityNormal))
	require.NoError(t, err)
	assert.Empty(t, mail.sent)
}

func TestDispatchBrokerFailureReported(t *testing.T) {
	broker := &fakeBroker{err: assert.AnError}
	svc := newTestService(broker, &fakeEmail{})

	err := svc.Dispatch(context.Background(), queueEvent(model.PriorityNormal))
	assert.Error(t, err)
}

func TestDispatchEmailFailureNotFatal(t *testing.T) {
	mail := &fakeEmail{err: assert.AnError}
	svc := newTestService(&fakeBroker{}, mail)

	// Email problems degrade silently; the broker path already succeeded.
	err := svc.Dispatch(context.Background(), queueEvent(model.PriorityEmergency))
	assert.NoError(t, err)
}
