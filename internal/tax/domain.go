package tax

import "time"

// CalculationResult is a full tax estimate for one period.
type CalculationResult struct {
	Year               int     `json:"year"`
	Quarter            *int    `json:"quarter,omitempty"`
	TotalIncome        float64 `json:"total_income"`
	BusinessDeductions float64 `json:"business_deductions"`
	StandardDeduction  float64 `json:"standard_deduction"`
	TotalDeductions    float64 `json:"total_deductions"`
	TaxableIncome      float64 `json:"taxable_income"`
	EstimatedTax       float64 `json:"estimated_tax"`
	EffectiveRate      float64 `json:"effective_rate"`
}

// Estimate is a persisted tax estimate. Estimates belong to exactly one
// organization and are replaced, never partially mutated.
type Estimate struct {
	ID        string            `json:"id"`
	OrgID     string            `json:"organization_id"`
	Result    CalculationResult `json:"result"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
