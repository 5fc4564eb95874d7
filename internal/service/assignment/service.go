package assignment

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/careflow/hospital-api/internal/model"
	"github.com/careflow/hospital-api/pkg/errors"
)

// Service implements the doctor-assignment policy. It is a pure decision
// component: the caller persists the returned record onto the patient and
// creates the initial queue entry.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Assign selects a doctor for the given payer type from the roster, in
// roster order. Pass explicitDoctorID for an operator override; the policy
// then only validates eligibility and clears the recommended flag.
// Given equal inputs the result is deterministic.
func (s *Service) Assign(payer model.PayerType, roster []*model.ClinicianProfile, explicitDoctorID *uuid.UUID) (*model.AssignmentRecord, error) {
	eligible := filterEligible(roster)
	if len(eligible) == 0 {
		return nil, errors.NewNoEligibleClinician()
	}

	pool := eligible
	if payer.IsGovernmentScheme() {
		pool = filterGovernmentScheme(eligible)
		if len(pool) == 0 {
			return nil, errors.NewNoEligibleClinician()
		}
	}

	if explicitDoctorID != nil {
		return overrideAssignment(payer, pool, *explicitDoctorID)
	}

	if payer.IsGovernmentScheme() {
		if gp := firstWithRole(pool, model.RoleGeneralPractitioner); gp != nil {
			return &model.AssignmentRecord{
				DoctorID:      gp.ID,
				Reason:        fmt.Sprintf("%s scheme covers general practice; assigned first available general practitioner", payer.InsuranceProvider()),
				IsRecommended: true,
			}, nil
		}
		pick := pool[0]
		return &model.AssignmentRecord{
			DoctorID:      pick.ID,
			Reason:        fmt.Sprintf("%s scheme restricts assignment to general practice and ophthalmology; no general practitioner available, assigned %s", payer.InsuranceProvider(), pick.Role),
			IsRecommended: true,
		}, nil
	}

	pick := pool[0]
	return &model.AssignmentRecord{
		DoctorID:      pick.ID,
		Reason:        fmt.Sprintf("%s payer may see any available doctor; assigned first available %s", payer, pick.Role),
		IsRecommended: true,
	}, nil
}

func overrideAssignment(payer model.PayerType, pool []*model.ClinicianProfile, doctorID uuid.UUID) (*model.AssignmentRecord, error) {
	for _, clinician := range pool {
		if clinician.ID == doctorID {
			return &model.AssignmentRecord{
				DoctorID:      doctorID,
				Reason:        fmt.Sprintf("selected by operator; %s is eligible for payer type %s", clinician.Name, payer),
				IsRecommended: false,
			}, nil
		}
	}
	return nil, errors.NewIneligibleClinicianForPayer(string(payer))
}

func filterEligible(roster []*model.ClinicianProfile) []*model.ClinicianProfile {
	var eligible []*model.ClinicianProfile
	for _, clinician := range roster {
		if clinician.Role.ClinicallyEligible() {
			eligible = append(eligible, clinician)
		}
	}
	return eligible
}

func filterGovernmentScheme(roster []*model.ClinicianProfile) []*model.ClinicianProfile {
	var pool []*model.ClinicianProfile
	for _, clinician := range roster {
		if clinician.Role.EligibleForGovernmentScheme() {
			pool = append(pool, clinician)
		}
	}
	return pool
}

func firstWithRole(roster []*model.ClinicianProfile, role model.ClinicianRole) *model.ClinicianProfile {
	for _, clinician := range roster {
		if clinician.Role == role {
			return clinician
		}
	}
	return nil
}
