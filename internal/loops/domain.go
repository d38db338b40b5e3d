// Package loops tracks real-estate transaction loops and computes their
// weighted completion progress against per-type milestone tables.
package loops

import "time"

// TransactionType identifies the kind of deal a loop represents.
type TransactionType string

const (
	TypePurchaseAgreement TransactionType = "PURCHASE_AGREEMENT"
	TypeListingAgreement  TransactionType = "LISTING_AGREEMENT"
	TypeBuyerAgreement    TransactionType = "BUYER_AGREEMENT"
	TypeLeaseAgreement    TransactionType = "LEASE_AGREEMENT"
)

// Status is the lifecycle state of a loop.
type Status string

const (
	StatusActive        Status = "ACTIVE"
	StatusUnderContract Status = "UNDER_CONTRACT"
	StatusClosing       Status = "CLOSING"
	StatusClosed        Status = "CLOSED"
)

// TaskStatus is the state of a single task inside a loop.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// SignatureStatus is the state of one member signature inside a request group.
type SignatureStatus string

const (
	SignatureStatusPending SignatureStatus = "PENDING"
	SignatureStatusSigned  SignatureStatus = "SIGNED"
	SignatureStatusDeclined SignatureStatus = "DECLINED"
)

// Task is a checklist item attached to a loop.
type Task struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Status TaskStatus `json:"status"`
}

// Document is a file attached to a loop. Only its presence counts toward
// progress.
type Document struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Signature is one member's signature inside a request group.
type Signature struct {
	ID     string          `json:"id"`
	Status SignatureStatus `json:"status"`
}

// SignatureGroup is one signature request covering multiple members.
type SignatureGroup struct {
	ID         string      `json:"id"`
	Signatures []Signature `json:"signatures"`
}

// Loop is a transaction loop with the related records progress is
// computed from.
type Loop struct {
	ID              string           `json:"id"`
	OrgID           string           `json:"organization_id"`
	Name            string           `json:"name"`
	Type            TransactionType  `json:"type"`
	Status          Status           `json:"status"`
	Progress        int              `json:"progress"`
	Tasks           []Task           `json:"tasks,omitempty"`
	Documents       []Document       `json:"documents,omitempty"`
	SignatureGroups []SignatureGroup `json:"signature_groups,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ComponentBreakdown is the contribution of one progress component.
type ComponentBreakdown struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage int     `json:"percentage"`
	Weight     float64 `json:"weight"`
}

// Breakdown details how the overall percentage was assembled.
type Breakdown struct {
	Tasks      ComponentBreakdown `json:"tasks"`
	Documents  ComponentBreakdown `json:"documents"`
	Signatures ComponentBreakdown `json:"signatures"`
}

// ProgressResult is the outcome of one progress calculation.
type ProgressResult struct {
	LoopID           string     `json:"loop_id"`
	Progress         int        `json:"progress"`
	Breakdown        Breakdown  `json:"breakdown"`
	CurrentMilestone *Milestone `json:"current_milestone,omitempty"`
	NextMilestone    *Milestone `json:"next_milestone,omitempty"`
}

// RecalculateResult summarises a batch recalculation.
type RecalculateResult struct {
	UpdatedCount int `json:"updated_count"`
	FailedCount  int `json:"failed_count"`
}

// ProgressSummary aggregates progress over an organization's open loops.
type ProgressSummary struct {
	TotalLoops           int                     `json:"total_loops"`
	AverageProgress      int                     `json:"average_progress"`
	ByStatus             map[Status]int          `json:"by_status"`
	ByType               map[TransactionType]int `json:"by_type"`
	ProgressDistribution map[string]int          `json:"progress_distribution"`
}
