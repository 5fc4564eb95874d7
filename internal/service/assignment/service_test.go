package assignment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careflow/hospital-api/internal/model"
	"github.com/careflow/hospital-api/pkg/errors"
)

func clinician(name string, role model.ClinicianRole) *model.ClinicianProfile {
	c := &model.ClinicianProfile{
		Name: name,
		Role: role,
	}
	c.ID = uuid.New()
	return c
}

func TestAssignGovernmentSchemePrefersGP(t *testing.T) {
	svc := NewService()
	ophtha := clinician("Dr. A", model.RoleOphthalmologist)
	gp := clinician("Dr. B", model.RoleGeneralPractitioner)

	record, err := svc.Assign(model.InsurancePayer("NHIF"), []*model.ClinicianProfile{ophtha, gp}, nil)
	require.NoError(t, err)

	assert.Equal(t, gp.ID, record.DoctorID)
	assert.True(t, record.IsRecommended)
	assert.Contains(t, record.Reason, "NHIF")
	assert.Contains(t, record.Reason, "general practitioner")
}

func TestAssignGovernmentSchemeFallsBackToOphthalmologist(t *testing.T) {
	svc := NewService()
	ophtha := clinician("Dr. A", model.RoleOphthalmologist)
	radio := clinician("Dr. C", model.RoleRadiologist)

	record, err := svc.Assign(model.InsurancePayer("NHIF"), []*model.ClinicianProfile{radio, ophtha}, nil)
	require.NoError(t, err)

	// Radiologist is clinically eligible but outside the scheme pool.
	assert.Equal(t, ophtha.ID, record.DoctorID)
}

func TestAssignCashTakesFullRoster(t *testing.T) {
	svc := NewService()
	ophtha := clinician("Dr. A", model.RoleOphthalmologist)

	record, err := svc.Assign(model.PayerTypeCash, []*model.ClinicianProfile{ophtha}, nil)
	require.NoError(t, err)

	assert.Equal(t, ophtha.ID, record.DoctorID)
	assert.True(t, record.IsRecommended)
}

func TestAssignPoolOrderIsStable(t *testing.T) {
	svc := NewService()
	first := clinician("Dr. First", model.RoleRadiologist)
	second := clinician("Dr. Second", model.RolePhysicalTherapist)
	roster := []*model.ClinicianProfile{first, second}

	record, err := svc.Assign(model.PayerTypeMobileMoney, roster, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, record.DoctorID)
}

func TestAssignEmptyRoster(t *testing.T) {
	svc := NewService()

	_, err := svc.Assign(model.PayerTypeCash, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrNoEligibleClinician))

	// A roster with no clinically eligible roles is the same as empty.
	_, err = svc.Assign(model.PayerTypeCash, []*model.ClinicianProfile{
		clinician("Nurse N", "nurse"),
	}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrNoEligibleClinician))
}

func TestAssignGovernmentSchemeEmptyPool(t *testing.T) {
	svc := NewService()
	radio := clinician("Dr. C", model.RoleRadiologist)

	_, err := svc.Assign(model.InsurancePayer("NHIF"), []*model.ClinicianProfile{radio}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrNoEligibleClinician))
}

func TestAssignOperatorOverride(t *testing.T) {
	svc := NewService()
	gp := clinician("Dr. B", model.RoleGeneralPractitioner)
	radio := clinician("Dr. C", model.RoleRadiologist)
	roster := []*model.ClinicianProfile{gp, radio}

	record, err := svc.Assign(model.PayerTypeCash, roster, &radio.ID)
	require.NoError(t, err)
	assert.Equal(t, radio.ID, record.DoctorID)
	assert.False(t, record.IsRecommended)
	assert.Contains(t, record.Reason, "operator")
}

func TestAssignOperatorOverrideIneligibleForScheme(t *testing.T) {
	svc := NewService()
	gp := clinician("Dr. B", model.RoleGeneralPractitioner)
	radio := clinician("Dr. C", model.RoleRadiologist)
	roster := []*model.ClinicianProfile{gp, radio}

	// Radiologist is outside the scheme's restricted pool.
	_, err := svc.Assign(model.InsurancePayer("NHIF"), roster, &radio.ID)
	assert.True(t, errors.IsCode(err, errors.ErrIneligibleClinicianForPayer))
}

func TestAssignDeterministic(t *testing.T) {
	svc := NewService()
	roster := []*model.ClinicianProfile{
		clinician("Dr. A", model.RoleOphthalmologist),
		clinician("Dr. B", model.RoleGeneralPractitioner),
		clinician("Dr. C", model.RoleRadiologist),
	}

	first, err := svc.Assign(model.InsurancePayer("NHIF"), roster, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := svc.Assign(model.InsurancePayer("NHIF"), roster, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAssignPrivateInsuranceNotRestricted(t *testing.T) {
	svc := NewService()
	radio := clinician("Dr. C", model.RoleRadiologist)

	record, err := svc.Assign(model.InsurancePayer("Jubilee"), []*model.ClinicianProfile{radio}, nil)
	require.NoError(t, err)
	assert.Equal(t, radio.ID, record.DoctorID)
}
