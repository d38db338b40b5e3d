package loops

// Milestone is one named threshold on a transaction type's timeline.
type Milestone struct {
	Name                string `json:"name"`
	CompletedPercentage int    `json:"completed_percentage"`
}

// Per-type milestone timelines, ordered by threshold. Read-only after init.
var milestonesByType = map[TransactionType][]Milestone{
	TypePurchaseAgreement: {
		{Name: "Offer Submitted", CompletedPercentage: 10},
		{Name: "Offer Accepted", CompletedPercentage: 20},
		{Name: "Inspection Complete", CompletedPercentage: 40},
		{Name: "Financing Approved", CompletedPercentage: 60},
		{Name: "Appraisal Complete", CompletedPercentage: 75},
		{Name: "Final Walkthrough", CompletedPercentage: 90},
		{Name: "Closing Complete", CompletedPercentage: 100},
	},
	TypeListingAgreement: {
		{Name: "Listing Created", CompletedPercentage: 10},
		{Name: "Photos & Marketing Complete", CompletedPercentage: 30},
		{Name: "Active on MLS", CompletedPercentage: 50},
		{Name: "Offer Received", CompletedPercentage: 70},
		{Name: "Under Contract", CompletedPercentage: 85},
		{Name: "Sale Complete", CompletedPercentage: 100},
	},
	TypeBuyerAgreement: {
		{Name: "Agreement Signed", CompletedPercentage: 10},
		{Name: "Buyer Pre-approved", CompletedPercentage: 30},
		{Name: "Property Search Started", CompletedPercentage: 50},
		{Name: "Property Identified", CompletedPercentage: 70},
		{Name: "Offer Submitted", CompletedPercentage: 85},
		{Name: "Offer Accepted", CompletedPercentage: 100},
	},
	TypeLeaseAgreement: {
		{Name: "Lease Created", CompletedPercentage: 20},
		{Name: "Tenant Screening Complete", CompletedPercentage: 40},
		{Name: "Security Deposit Received", CompletedPercentage: 60},
		{Name: "Lease Signed", CompletedPercentage: 80},
		{Name: "Move-in Complete", CompletedPercentage: 100},
	},
}

// MilestonesForType returns the ordered milestone list for a transaction
// type. Unknown types get an empty list.
func MilestonesForType(t TransactionType) []Milestone {
	src := milestonesByType[t]
	out := make([]Milestone, len(src))
	copy(out, src)
	return out
}

// CurrentMilestone returns the highest milestone already reached, or nil
// when progress sits below the first threshold.
func CurrentMilestone(t TransactionType, progress int) *Milestone {
	var current *Milestone
	for _, m := range milestonesByType[t] {
		if m.CompletedPercentage <= progress {
			m := m
			current = &m
			continue
		}
		break
	}
	return current
}

// NextMilestone returns the first milestone still ahead of progress, or
// nil when the loop is complete.
func NextMilestone(t TransactionType, progress int) *Milestone {
	for _, m := range milestonesByType[t] {
		if m.CompletedPercentage > progress {
			m := m
			return &m
		}
	}
	return nil
}
