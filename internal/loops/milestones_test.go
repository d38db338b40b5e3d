package loops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMilestoneTablesAreOrdered(t *testing.T) {
	for _, loopType := range []TransactionType{TypePurchaseAgreement, TypeListingAgreement, TypeBuyerAgreement, TypeLeaseAgreement} {
		milestones := MilestonesForType(loopType)
		require.NotEmpty(t, milestones, "type %s", loopType)
		assert.Equal(t, 100, milestones[len(milestones)-1].CompletedPercentage, "type %s", loopType)
		for i := 1; i < len(milestones); i++ {
			assert.Greater(t, milestones[i].CompletedPercentage, milestones[i-1].CompletedPercentage, "type %s", loopType)
		}
	}
}

func TestCurrentMilestone(t *testing.T) {
	// Below the first threshold nothing has been reached yet.
	assert.Nil(t, CurrentMilestone(TypePurchaseAgreement, 5))

	current := CurrentMilestone(TypePurchaseAgreement, 10)
	require.NotNil(t, current)
	assert.Equal(t, "Offer Submitted", current.Name)

	current = CurrentMilestone(TypePurchaseAgreement, 74)
	require.NotNil(t, current)
	assert.Equal(t, "Financing Approved", current.Name)

	current = CurrentMilestone(TypePurchaseAgreement, 100)
	require.NotNil(t, current)
	assert.Equal(t, "Closing Complete", current.Name)
}

func TestNextMilestone(t *testing.T) {
	next := NextMilestone(TypeLeaseAgreement, 0)
	require.NotNil(t, next)
	assert.Equal(t, "Lease Created", next.Name)

	next = NextMilestone(TypeLeaseAgreement, 60)
	require.NotNil(t, next)
	assert.Equal(t, "Lease Signed", next.Name)

	assert.Nil(t, NextMilestone(TypeLeaseAgreement, 100))
}

func TestMilestonesForUnknownType(t *testing.T) {
	assert.Empty(t, MilestonesForType("ESCROW_AGREEMENT"))
	assert.Nil(t, CurrentMilestone("ESCROW_AGREEMENT", 50))
	assert.Nil(t, NextMilestone("ESCROW_AGREEMENT", 50))
}

func TestMilestonesForTypeCopyIsIndependent(t *testing.T) {
	got := MilestonesForType(TypeBuyerAgreement)
	got[0].Name = "mutated"
	assert.Equal(t, "Agreement Signed", MilestonesForType(TypeBuyerAgreement)[0].Name)
}
