package model

import (
	"github.com/google/uuid"
)

// ClinicianRole is the clinical specialty of a staff member.
type ClinicianRole string

const (
	RoleGeneralPractitioner ClinicianRole = "general_practitioner"
	RoleOphthalmologist     ClinicianRole = "ophthalmologist"
	RoleRadiologist         ClinicianRole = "radiologist"
	RolePhysicalTherapist   ClinicianRole = "physical_therapist"
)

// clinicallyEligible is the eligibility table for doctor assignment. Roles
// not listed here (nursing, reception, lab) never receive queue assignments.
var clinicallyEligible = map[ClinicianRole]bool{
	RoleGeneralPractitioner: true,
	RoleOphthalmologist:     true,
	RoleRadiologist:         true,
	RolePhysicalTherapist:   true,
}

// governmentSchemeRoles is the restricted candidate pool for public-scheme
// payers.
var governmentSchemeRoles = map[ClinicianRole]bool{
	RoleGeneralPractitioner: true,
	RoleOphthalmologist:     true,
}

func (r ClinicianRole) ClinicallyEligible() bool {
	return clinicallyEligible[r]
}

func (r ClinicianRole) EligibleForGovernmentScheme() bool {
	return governmentSchemeRoles[r]
}

// ClinicianProfile is a read-only roster record; its lifecycle is owned by
// an external staffing service.
type ClinicianProfile struct {
	Base
	Name       string        `db:"name" json:"name"`
	Role       ClinicianRole `db:"role" json:"role"`
	Department string        `db:"department" json:"department"`
}

type ClinicianFilters struct {
	Roles      []ClinicianRole
	Department string
}

// StaffRole is the functional role a staff session acts under. It drives
// queue visibility, not assignment eligibility.
type StaffRole string

const (
	StaffRoleReception StaffRole = "reception"
	StaffRoleNurse     StaffRole = "nurse"
	StaffRoleDoctor    StaffRole = "doctor"
	StaffRoleAdmin     StaffRole = "admin"
)

func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleReception, StaffRoleNurse, StaffRoleDoctor, StaffRoleAdmin:
		return true
	}
	return false
}

// Actor identifies the authenticated staff member making a request.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role StaffRole `json:"role"`
}
