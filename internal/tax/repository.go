package tax

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loopworks/loopworks/internal/shared"
)

type estimateRepository struct {
	pool *pgxpool.Pool
}

// NewEstimateRepository constructs the pgx-backed EstimateRepository.
func NewEstimateRepository(pool *pgxpool.Pool) EstimateRepository {
	return &estimateRepository{pool: pool}
}

const estimateColumns = `id, organization_id, year, quarter, total_income, business_deductions, standard_deduction, total_deductions, taxable_income, estimated_tax, effective_rate, created_at, updated_at`

func (r *estimateRepository) Create(ctx context.Context, est Estimate) (Estimate, error) {
	if est.ID == "" {
		est.ID = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO tax_estimates (id, organization_id, year, quarter, total_income, business_deductions, standard_deduction, total_deductions, taxable_income, estimated_tax, effective_rate) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING `+estimateColumns,
		est.ID, est.OrgID, est.Result.Year, est.Result.Quarter,
		est.Result.TotalIncome, est.Result.BusinessDeductions, est.Result.StandardDeduction,
		est.Result.TotalDeductions, est.Result.TaxableIncome, est.Result.EstimatedTax, est.Result.EffectiveRate)
	return scanEstimate(row)
}

func (r *estimateRepository) Update(ctx context.Context, orgID, id string, result CalculationResult) (Estimate, error) {
	row := r.pool.QueryRow(ctx, `UPDATE tax_estimates SET year = $3, quarter = $4, total_income = $5, business_deductions = $6, standard_deduction = $7, total_deductions = $8, taxable_income = $9, estimated_tax = $10, effective_rate = $11, updated_at = NOW() WHERE id = $1 AND organization_id = $2 RETURNING `+estimateColumns,
		id, orgID, result.Year, result.Quarter,
		result.TotalIncome, result.BusinessDeductions, result.StandardDeduction,
		result.TotalDeductions, result.TaxableIncome, result.EstimatedTax, result.EffectiveRate)
	est, err := scanEstimate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Estimate{}, shared.ErrNotFound
		}
		return Estimate{}, err
	}
	return est, nil
}

func (r *estimateRepository) Get(ctx context.Context, orgID, id string) (Estimate, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+estimateColumns+` FROM tax_estimates WHERE id = $1 AND organization_id = $2`, id, orgID)
	est, err := scanEstimate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Estimate{}, shared.ErrNotFound
		}
		return Estimate{}, err
	}
	return est, nil
}

func (r *estimateRepository) ListByYear(ctx context.Context, orgID string, year int) ([]Estimate, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+estimateColumns+` FROM tax_estimates WHERE organization_id = $1 AND year = $2 ORDER BY quarter NULLS FIRST, created_at`, orgID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var estimates []Estimate
	for rows.Next() {
		est, err := scanEstimate(rows)
		if err != nil {
			return nil, err
		}
		estimates = append(estimates, est)
	}
	return estimates, rows.Err()
}

func scanEstimate(row pgx.Row) (Estimate, error) {
	var est Estimate
	err := row.Scan(
		&est.ID, &est.OrgID, &est.Result.Year, &est.Result.Quarter,
		&est.Result.TotalIncome, &est.Result.BusinessDeductions, &est.Result.StandardDeduction,
		&est.Result.TotalDeductions, &est.Result.TaxableIncome, &est.Result.EstimatedTax,
		&est.Result.EffectiveRate, &est.CreatedAt, &est.UpdatedAt,
	)
	if err != nil {
		return Estimate{}, err
	}
	return est, nil
}
