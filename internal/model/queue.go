package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QueueStage is the step of the clinical pipeline an entry sits at. Triage
// completion is implied by the entry reaching StageDoctor with vitals set.
type QueueStage string

const (
	StageReception QueueStage = "reception"
	StageDoctor    QueueStage = "doctor"
)

type QueueStatus string

const (
	QueueStatusWaiting    QueueStatus = "waiting"
	QueueStatusInProgress QueueStatus = "in_progress"
	QueueStatusCompleted  QueueStatus = "completed"
	QueueStatusCancelled  QueueStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s QueueStatus) Terminal() bool {
	return s == QueueStatusCompleted || s == QueueStatusCancelled
}

// Active reports whether the entry still occupies the patient's single
// active-queue slot.
func (s QueueStatus) Active() bool {
	return s == QueueStatusWaiting || s == QueueStatusInProgress
}

type Priority string

const (
	PriorityNormal    Priority = "normal"
	PriorityUrgent    Priority = "urgent"
	PriorityEmergency Priority = "emergency"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityUrgent, PriorityEmergency:
		return true
	}
	return false
}

// Rank orders priorities for board listings; lower sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityEmergency:
		return 0
	case PriorityUrgent:
		return 1
	default:
		return 2
	}
}

// QueueState is the compound state the machine transitions between.
type QueueState struct {
	Stage  QueueStage
	Status QueueStatus
}

func (s QueueState) String() string {
	return string(s.Stage) + "/" + string(s.Status)
}

type QueueEntry struct {
	Base
	PatientID        uuid.UUID       `db:"patient_id" json:"patient_id"`
	AssignedDoctorID uuid.UUID       `db:"assigned_doctor_id" json:"assigned_doctor_id"`
	Stage            QueueStage      `db:"stage" json:"stage"`
	Status           QueueStatus     `db:"status" json:"status"`
	Priority         Priority        `db:"priority" json:"priority"`
	ClaimedBy        *uuid.UUID      `db:"claimed_by" json:"claimed_by,omitempty"`
	CancelReason     *string         `db:"cancel_reason" json:"cancel_reason,omitempty"`
	VitalsJSON       json.RawMessage `db:"vital_signs" json:"-"`
	VitalSigns       *VitalSigns     `db:"-" json:"vital_signs,omitempty"`
}

// State returns the entry's compound machine state.
func (e *QueueEntry) State() QueueState {
	return QueueState{Stage: e.Stage, Status: e.Status}
}

// QueueEntryPatch is the mutation applied by a single conditional update.
// Nil fields are left untouched.
type QueueEntryPatch struct {
	Stage        *QueueStage
	Status       *QueueStatus
	Priority     *Priority
	ClaimedBy    *uuid.UUID
	CancelReason *string
	VitalSigns   *VitalSigns
}

type QueueFilters struct {
	Stage            QueueStage
	Status           QueueStatus
	AssignedDoctorID uuid.UUID
	PatientID        uuid.UUID
	ActiveOnly       bool
	UpdatedBefore    time.Time
}
