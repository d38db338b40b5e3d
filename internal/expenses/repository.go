package expenses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loopworks/loopworks/internal/shared"
)

// Repository is the pgx-backed expense store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository bound to the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const expenseColumns = `id, organization_id, description, category, amount, is_deductible, incurred_at, created_at, updated_at`

// Create records a new expense for the organization.
func (r *Repository) Create(ctx context.Context, orgID string, input CreateInput) (Expense, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO expenses (id, organization_id, description, category, amount, is_deductible, incurred_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+expenseColumns,
		uuid.NewString(), orgID, input.Description, input.Category, input.Amount, input.IsDeductible, input.IncurredAt)
	return scanExpense(row)
}

// Get fetches one expense scoped to the organization.
func (r *Repository) Get(ctx context.Context, orgID, id string) (Expense, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND organization_id = $2`, id, orgID)
	exp, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, shared.ErrNotFound
		}
		return Expense{}, err
	}
	return exp, nil
}

// Delete removes an expense scoped to the organization.
func (r *Repository) Delete(ctx context.Context, orgID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns a page of the organization's expenses, newest first.
func (r *Repository) List(ctx context.Context, orgID string, filter ListFilter) ([]Expense, shared.Pagination, error) {
	where := `organization_id = $1`
	args := []any{orgID}
	if filter.From != nil {
		args = append(args, *filter.From)
		where += fmt.Sprintf(` AND incurred_at >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where += fmt.Sprintf(` AND incurred_at < $%d`, len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	if filter.DeductibleOnly {
		where += ` AND is_deductible`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expenses WHERE `+where, args...).Scan(&total); err != nil {
		return nil, shared.Pagination{}, err
	}

	pagination := shared.NewPagination(filter.Page, filter.PerPage, total)
	offset := (pagination.Page - 1) * pagination.PerPage
	args = append(args, pagination.PerPage, offset)
	query := fmt.Sprintf(`SELECT %s FROM expenses WHERE %s ORDER BY incurred_at DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		expenseColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		out = append(out, exp)
	}
	return out, pagination, rows.Err()
}

// SumDeductible totals deductible expenses incurred inside [from, to).
func (r *Repository) SumDeductible(ctx context.Context, orgID string, from, to time.Time) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE organization_id = $1 AND is_deductible AND incurred_at >= $2 AND incurred_at < $3`, orgID, from, to).Scan(&total)
	return total, err
}

func scanExpense(row pgx.Row) (Expense, error) {
	var exp Expense
	err := row.Scan(&exp.ID, &exp.OrgID, &exp.Description, &exp.Category, &exp.Amount, &exp.IsDeductible, &exp.IncurredAt, &exp.CreatedAt, &exp.UpdatedAt)
	if err != nil {
		return Expense{}, err
	}
	return exp, nil
}
