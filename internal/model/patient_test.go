package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayerTypeInsurance(t *testing.T) {
	payer := InsurancePayer("NHIF")

	assert.True(t, payer.IsInsurance())
	assert.Equal(t, "NHIF", payer.InsuranceProvider())
	assert.True(t, payer.IsGovernmentScheme())
	assert.True(t, payer.Valid())
}

func TestPayerTypePrivateInsurance(t *testing.T) {
	payer := InsurancePayer("AXA")

	assert.True(t, payer.IsInsurance())
	assert.False(t, payer.IsGovernmentScheme())
}

func TestPayerTypeCashAndMobileMoney(t *testing.T) {
	for _, payer := range []PayerType{PayerTypeCash, PayerTypeMobileMoney} {
		assert.True(t, payer.Valid(), string(payer))
		assert.False(t, payer.IsInsurance(), string(payer))
		assert.False(t, payer.IsGovernmentScheme(), string(payer))
		assert.Empty(t, payer.InsuranceProvider(), string(payer))
	}
}

func TestPayerTypeInvalid(t *testing.T) {
	assert.False(t, PayerType("barter").Valid())
	assert.False(t, PayerType("insurance:").Valid())
}

func TestQueueStatusTerminal(t *testing.T) {
	assert.True(t, QueueStatusCompleted.Terminal())
	assert.True(t, QueueStatusCancelled.Terminal())
	assert.False(t, QueueStatusWaiting.Terminal())
	assert.False(t, QueueStatusInProgress.Terminal())
}

func TestPriorityRankOrdering(t *testing.T) {
	assert.Less(t, PriorityEmergency.Rank(), PriorityUrgent.Rank())
	assert.Less(t, PriorityUrgent.Rank(), PriorityNormal.Rank())
}
