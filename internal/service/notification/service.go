package notification

import (
	"context"
	"fmt"

	"github.com/careflow/hospital-api/internal/email"
	"github.com/careflow/hospital-api/internal/model"
	"github.com/careflow/hospital-api/pkg/logger"
	"github.com/careflow/hospital-api/pkg/messaging"
	"github.com/careflow/hospital-api/pkg/metrics"
)

const (
	channelBroker = "broker"
	channelEmail  = "email"

	// stageChannel fans out to everyone watching a stage board;
	// staffChannel targets a single staff member's session.
	stageChannelPrefix = "queue:stage:"
	staffChannelPrefix = "queue:staff:"
)

// Service fans queue events out to affected staff. Delivery is fire and
// forget: a failed channel is counted and logged, and never surfaces to
// the transition that produced the event.
type Service struct {
	broker     messaging.Broker
	emailSvc   email.Service
	alertEmail string
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

func NewService(broker messaging.Broker, emailSvc email.Service, alertEmail string, m *metrics.Metrics, l *logger.Logger) *Service {
	return &Service{
		broker:     broker,
		emailSvc:   emailSvc,
		alertEmail: alertEmail,
		metrics:    m,
		logger:     l,
	}
}

// Dispatch publishes the event to the stage board channel and each
// recipient's personal channel, then raises an email alert for emergency
// priority. The first broker failure is returned so the caller can log it;
// partial delivery is acceptable by contract.
func (s *Service) Dispatch(ctx context.Context, event *model.QueueEvent) error {
	var firstErr error

	publish := func(channel string) {
		if err := s.broker.Publish(ctx, channel, event); err != nil {
			s.metrics.NotificationsFailed.WithLabelValues(channelBroker).Inc()
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to publish to %s: %w", channel, err)
			}
			return
		}
		s.metrics.NotificationsSent.WithLabelValues(channelBroker).Inc()
	}

	publish(stageChannelPrefix + string(event.Stage))
	for _, recipient := range event.Recipients {
		publish(staffChannelPrefix + recipient.String())
	}

	if event.Priority == model.PriorityEmergency {
		s.sendEmergencyAlert(event)
	}

	return firstErr
}

func (s *Service) sendEmergencyAlert(event *model.QueueEvent) {
	if s.emailSvc == nil || s.alertEmail == "" {
		return
	}

	subject := fmt.Sprintf("Emergency patient in %s queue", event.Stage)
	body := fmt.Sprintf(
		"Queue entry %s for patient %s is flagged emergency (%s, %s).",
		event.EntryID, event.PatientID, event.Stage, event.Status,
	)
	if err := s.emailSvc.Send(s.alertEmail, subject, body); err != nil {
		s.metrics.NotificationsFailed.WithLabelValues(channelEmail).Inc()
		s.logger.Error(err, "failed to send emergency alert email",
			"entry_id", event.EntryID.String())
		return
	}
	s.metrics.NotificationsSent.WithLabelValues(channelEmail).Inc()
}
