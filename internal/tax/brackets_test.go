package tax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateTaxNonPositive(t *testing.T) {
	assert.Zero(t, CalculateTax(0))
	assert.Zero(t, CalculateTax(-100))
}

func TestCalculateTaxFirstBracketBoundary(t *testing.T) {
	// Everything at or below 11,600 is taxed at a flat 10%.
	assert.InDelta(t, 1_160.0, CalculateTax(11_600), 1e-9)
	assert.InDelta(t, 1_160.12, CalculateTax(11_601), 1e-9)
}

func TestCalculateTaxMidBracket(t *testing.T) {
	// 50,000 spans three bands: 11,600*0.10 + 35,550*0.12 + 2,850*0.22.
	want := 11_600*0.10 + 35_550*0.12 + 2_850*0.22
	assert.InDelta(t, want, CalculateTax(50_000), 1e-9)
}

func TestCalculateTaxTopBracket(t *testing.T) {
	base := CalculateTax(609_350)
	assert.InDelta(t, base+0.37, CalculateTax(609_351), 1e-9)
}

func TestCalculateTaxMonotonic(t *testing.T) {
	prev := 0.0
	for _, income := range []float64{1, 11_600, 47_150, 100_525, 191_950, 243_725, 609_350, 1_000_000} {
		got := CalculateTax(income)
		assert.Greater(t, got, prev)
		prev = got
	}
}

func TestQuarterlyStandardDeduction(t *testing.T) {
	assert.InDelta(t, StandardDeduction, 4*QuarterlyStandardDeduction(), 1e-9)
}

func TestBracketsCopyIsIndependent(t *testing.T) {
	got := Brackets()
	got[0].Rate = 0.99
	assert.InDelta(t, 0.10, Brackets()[0].Rate, 1e-9)
}
