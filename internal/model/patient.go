package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PayerType describes how a patient's visit is funded. Insurance payers
// carry their provider as a suffix, e.g. "insurance:NHIF".
type PayerType string

const (
	PayerTypeCash        PayerType = "cash"
	PayerTypeMobileMoney PayerType = "mobile_money"

	insurancePrefix = "insurance:"
)

// governmentSchemes are the public insurance schemes whose patients may only
// be assigned to general practice or ophthalmology.
var governmentSchemes = map[string]bool{
	"NHIF": true,
	"SHA":  true,
}

func InsurancePayer(provider string) PayerType {
	return PayerType(insurancePrefix + provider)
}

func (p PayerType) IsInsurance() bool {
	return strings.HasPrefix(string(p), insurancePrefix)
}

// InsuranceProvider returns the provider suffix, or "" for non-insurance payers.
func (p PayerType) InsuranceProvider() string {
	if !p.IsInsurance() {
		return ""
	}
	return strings.TrimPrefix(string(p), insurancePrefix)
}

// IsGovernmentScheme reports whether the payer is a public insurance scheme.
func (p PayerType) IsGovernmentScheme() bool {
	return governmentSchemes[strings.ToUpper(p.InsuranceProvider())]
}

func (p PayerType) Valid() bool {
	if p == PayerTypeCash || p == PayerTypeMobileMoney {
		return true
	}
	return p.IsInsurance() && p.InsuranceProvider() != ""
}

type Patient struct {
	Base
	Name             string     `db:"name" json:"name"`
	Phone            string     `db:"phone" json:"phone,omitempty"`
	PayerType        PayerType  `db:"payer_type" json:"payer_type"`
	AssignedDoctorID *uuid.UUID `db:"assigned_doctor_id" json:"assigned_doctor_id,omitempty"`
	AssignmentReason *string    `db:"assignment_reason" json:"assignment_reason,omitempty"`
	AssignmentDate   *time.Time `db:"assignment_date" json:"assignment_date,omitempty"`
}

type CreatePatientRequest struct {
	Name      string `json:"name" binding:"required"`
	Phone     string `json:"phone"`
	PayerType string `json:"payer_type" binding:"required"`
}

type PatientFilters struct {
	PayerType  PayerType
	SearchTerm string
	Pagination
}
