// Package expenses records deductible and non-deductible business expenses
// per organization and feeds deductible totals into tax estimation.
package expenses

import "time"

// Expense is one recorded business expense.
type Expense struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"organization_id"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Amount       float64   `json:"amount"`
	IsDeductible bool      `json:"is_deductible"`
	IncurredAt   time.Time `json:"incurred_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateInput carries the fields needed to record an expense.
type CreateInput struct {
	Description  string    `json:"description" validate:"required,max=500"`
	Category     string    `json:"category" validate:"required,max=100"`
	Amount       float64   `json:"amount" validate:"required,gt=0"`
	IsDeductible bool      `json:"is_deductible"`
	IncurredAt   time.Time `json:"incurred_at" validate:"required"`
}

// ListFilter narrows an expense listing.
type ListFilter struct {
	From           *time.Time
	To             *time.Time
	Category       string
	DeductibleOnly bool
	Page           int
	PerPage        int
}
