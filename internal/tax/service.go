package tax

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/loopworks/loopworks/internal/shared"
)

// ExpenseSummer supplies the deductible expense total for an organization
// inside a date window. Tenant isolation is the collaborator's
// responsibility and is trusted here.
type ExpenseSummer interface {
	SumDeductible(ctx context.Context, orgID string, from, to time.Time) (float64, error)
}

// EstimateRepository persists computed estimates.
type EstimateRepository interface {
	Create(ctx context.Context, est Estimate) (Estimate, error)
	Update(ctx context.Context, orgID, id string, result CalculationResult) (Estimate, error)
	Get(ctx context.Context, orgID, id string) (Estimate, error)
	ListByYear(ctx context.Context, orgID string, year int) ([]Estimate, error)
}

// Service computes and persists tax estimates.
type Service struct {
	expenses  ExpenseSummer
	estimates EstimateRepository
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(expenses ExpenseSummer, estimates EstimateRepository, logger *slog.Logger) *Service {
	return &Service{expenses: expenses, estimates: estimates, logger: logger}
}

// YearlyEstimate computes the estimate for a full calendar year.
func (s *Service) YearlyEstimate(ctx context.Context, orgID string, year int) (CalculationResult, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	return s.estimate(ctx, orgID, year, nil, from, to, StandardDeduction)
}

// QuarterlyEstimate computes the estimate for one quarter of a year.
func (s *Service) QuarterlyEstimate(ctx context.Context, orgID string, year, quarter int) (CalculationResult, error) {
	if quarter < 1 || quarter > 4 {
		return CalculationResult{}, fmt.Errorf("%w: quarter must be between 1 and 4", shared.ErrInvalidArgument)
	}
	from := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 3, 0)
	q := quarter
	return s.estimate(ctx, orgID, year, &q, from, to, QuarterlyStandardDeduction())
}

func (s *Service) estimate(ctx context.Context, orgID string, year int, quarter *int, from, to time.Time, standardDeduction float64) (CalculationResult, error) {
	businessDeductions, err := s.expenses.SumDeductible(ctx, orgID, from, to)
	if err != nil {
		return CalculationResult{}, err
	}

	// No income source exists yet, so income is zero today. The arithmetic
	// stays correct once income ingestion lands.
	var totalIncome float64

	totalDeductions := businessDeductions + standardDeduction
	taxableIncome := totalIncome - totalDeductions
	if taxableIncome < 0 {
		taxableIncome = 0
	}
	estimatedTax := CalculateTax(taxableIncome)
	var effectiveRate float64
	if totalIncome > 0 {
		effectiveRate = estimatedTax / totalIncome
	}

	return CalculationResult{
		Year:               year,
		Quarter:            quarter,
		TotalIncome:        totalIncome,
		BusinessDeductions: businessDeductions,
		StandardDeduction:  standardDeduction,
		TotalDeductions:    totalDeductions,
		TaxableIncome:      taxableIncome,
		EstimatedTax:       estimatedTax,
		EffectiveRate:      effectiveRate,
	}, nil
}

// CreateEstimateInput names the period a persisted estimate covers.
type CreateEstimateInput struct {
	Year    int
	Quarter *int
}

// CreateEstimate computes and persists a new estimate for the organization.
func (s *Service) CreateEstimate(ctx context.Context, orgID string, input CreateEstimateInput) (Estimate, error) {
	result, err := s.calculateForPeriod(ctx, orgID, input.Year, input.Quarter)
	if err != nil {
		return Estimate{}, err
	}
	est, err := s.estimates.Create(ctx, Estimate{OrgID: orgID, Result: result})
	if err != nil {
		return Estimate{}, err
	}
	if s.logger != nil {
		s.logger.Info("tax estimate created",
			slog.String("organization_id", orgID),
			slog.String("estimate_id", est.ID),
			slog.Int("year", input.Year))
	}
	return est, nil
}

// UpdateEstimate recomputes an existing estimate in place. Estimates owned
// by other organizations surface as not-found.
func (s *Service) UpdateEstimate(ctx context.Context, orgID, id string, input CreateEstimateInput) (Estimate, error) {
	if _, err := s.estimates.Get(ctx, orgID, id); err != nil {
		return Estimate{}, err
	}
	result, err := s.calculateForPeriod(ctx, orgID, input.Year, input.Quarter)
	if err != nil {
		return Estimate{}, err
	}
	return s.estimates.Update(ctx, orgID, id, result)
}

// GetEstimate fetches one persisted estimate scoped to the organization.
func (s *Service) GetEstimate(ctx context.Context, orgID, id string) (Estimate, error) {
	return s.estimates.Get(ctx, orgID, id)
}

// ListEstimates returns the persisted estimates for a year.
func (s *Service) ListEstimates(ctx context.Context, orgID string, year int) ([]Estimate, error) {
	return s.estimates.ListByYear(ctx, orgID, year)
}

func (s *Service) calculateForPeriod(ctx context.Context, orgID string, year int, quarter *int) (CalculationResult, error) {
	if year < 2000 || year > 2100 {
		return CalculationResult{}, fmt.Errorf("%w: year out of range", shared.ErrInvalidArgument)
	}
	if quarter == nil {
		return s.YearlyEstimate(ctx, orgID, year)
	}
	return s.QuarterlyEstimate(ctx, orgID, year, *quarter)
}
