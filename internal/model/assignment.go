package model

import (
	"github.com/google/uuid"
)

// AssignmentRecord is the doctor-assignment policy's output. It is applied
// to the patient record by the caller, never persisted on its own.
type AssignmentRecord struct {
	DoctorID      uuid.UUID `json:"doctor_id"`
	Reason        string    `json:"reason"`
	IsRecommended bool      `json:"is_recommended"`
}

type AssignDoctorRequest struct {
	DoctorID *uuid.UUID `json:"doctor_id,omitempty"`
}

type ReassignDoctorRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
}
