// Package tax estimates federal income tax liability for an organization's
// deductible business expenses using the single-filer progressive bracket
// table.
package tax

import "math"

// Bracket is one marginal rate band. Upper is +Inf for the top band.
type Bracket struct {
	Lower float64
	Upper float64
	Rate  float64
}

// Single-filer brackets, tax year 2024.
var brackets = []Bracket{
	{Lower: 0, Upper: 11_600, Rate: 0.10},
	{Lower: 11_600, Upper: 47_150, Rate: 0.12},
	{Lower: 47_150, Upper: 100_525, Rate: 0.22},
	{Lower: 100_525, Upper: 191_950, Rate: 0.24},
	{Lower: 191_950, Upper: 243_725, Rate: 0.32},
	{Lower: 243_725, Upper: 609_350, Rate: 0.35},
	{Lower: 609_350, Upper: math.Inf(1), Rate: 0.37},
}

// StandardDeduction is the annual single-filer standard deduction.
const StandardDeduction = 14_600.0

// QuarterlyStandardDeduction returns one quarter of the annual standard
// deduction.
func QuarterlyStandardDeduction() float64 {
	return StandardDeduction / 4
}

// Brackets returns a copy of the bracket table.
func Brackets() []Bracket {
	out := make([]Bracket, len(brackets))
	copy(out, brackets)
	return out
}

// CalculateTax computes owed tax for the taxable income using standard
// marginal-bracket arithmetic. Non-positive income owes nothing.
func CalculateTax(taxableIncome float64) float64 {
	if taxableIncome <= 0 {
		return 0
	}
	var tax float64
	for _, b := range brackets {
		if taxableIncome <= b.Lower {
			break
		}
		portion := math.Min(taxableIncome-b.Lower, b.Upper-b.Lower)
		tax += portion * b.Rate
	}
	return tax
}
