package model

import (
	"time"

	"github.com/google/uuid"
)

type QueueEventType string

const (
	EventEntryRegistered       QueueEventType = "queue.entry_registered"
	EventTriageClaimed         QueueEventType = "queue.triage_claimed"
	EventTriageCompleted       QueueEventType = "queue.triage_completed"
	EventConsultationStarted   QueueEventType = "queue.consultation_started"
	EventConsultationCompleted QueueEventType = "queue.consultation_completed"
	EventEntryCancelled        QueueEventType = "queue.entry_cancelled"
	EventDoctorReassigned      QueueEventType = "queue.doctor_reassigned"
)

// QueueEvent is the payload fanned out to affected staff after a transition
// has been applied. Delivery is best effort; a lost event degrades to the
// staff member refreshing their queue view.
type QueueEvent struct {
	ID         uuid.UUID      `json:"id"`
	Type       QueueEventType `json:"type"`
	EntryID    uuid.UUID      `json:"entry_id"`
	PatientID  uuid.UUID      `json:"patient_id"`
	Stage      QueueStage     `json:"stage"`
	Status     QueueStatus    `json:"status"`
	Priority   Priority       `json:"priority"`
	Recipients []uuid.UUID    `json:"recipients,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}
