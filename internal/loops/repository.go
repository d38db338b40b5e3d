package loops

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loopworks/loopworks/internal/shared"
)

// Repository is the pgx-backed loop store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository bound to the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetLoop loads a loop with its tasks, documents, and signature groups.
// Loops owned by other organizations surface as not-found.
func (r *Repository) GetLoop(ctx context.Context, orgID, loopID string) (Loop, error) {
	var loop Loop
	err := r.pool.QueryRow(ctx, `SELECT id, organization_id, name, type, status, progress, created_at, updated_at FROM transaction_loops WHERE id = $1 AND organization_id = $2`, loopID, orgID).
		Scan(&loop.ID, &loop.OrgID, &loop.Name, &loop.Type, &loop.Status, &loop.Progress, &loop.CreatedAt, &loop.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loop{}, shared.ErrNotFound
		}
		return Loop{}, err
	}

	if loop.Tasks, err = r.loopTasks(ctx, loopID); err != nil {
		return Loop{}, err
	}
	if loop.Documents, err = r.loopDocuments(ctx, loopID); err != nil {
		return Loop{}, err
	}
	if loop.SignatureGroups, err = r.loopSignatureGroups(ctx, loopID); err != nil {
		return Loop{}, err
	}
	return loop, nil
}

func (r *Repository) loopTasks(ctx context.Context, loopID string) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title, status FROM loop_tasks WHERE loop_id = $1 ORDER BY created_at`, loopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Status); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *Repository) loopDocuments(ctx context.Context, loopID string) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM loop_documents WHERE loop_id = $1 ORDER BY created_at`, loopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *Repository) loopSignatureGroups(ctx context.Context, loopID string) ([]SignatureGroup, error) {
	rows, err := r.pool.Query(ctx, `SELECT g.id, s.id, s.status FROM signature_requests g LEFT JOIN signatures s ON s.request_id = g.id WHERE g.loop_id = $1 ORDER BY g.created_at, s.created_at`, loopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []SignatureGroup
	index := map[string]int{}
	for rows.Next() {
		var groupID string
		var sigID, sigStatus *string
		if err := rows.Scan(&groupID, &sigID, &sigStatus); err != nil {
			return nil, err
		}
		i, ok := index[groupID]
		if !ok {
			groups = append(groups, SignatureGroup{ID: groupID})
			i = len(groups) - 1
			index[groupID] = i
		}
		if sigID != nil {
			groups[i].Signatures = append(groups[i].Signatures, Signature{ID: *sigID, Status: SignatureStatus(*sigStatus)})
		}
	}
	return groups, rows.Err()
}

// UpdateProgress persists the computed progress on the loop record.
func (r *Repository) UpdateProgress(ctx context.Context, orgID, loopID string, progress int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE transaction_loops SET progress = $3, updated_at = NOW() WHERE id = $1 AND organization_id = $2`, loopID, orgID, progress)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListRecalculableIDs returns ids of loops whose progress is kept current
// by the batch recalculation.
func (r *Repository) ListRecalculableIDs(ctx context.Context, orgID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM transaction_loops WHERE organization_id = $1 AND status = ANY($2) ORDER BY created_at`, orgID, []string{string(StatusActive), string(StatusUnderContract), string(StatusClosing)})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListOpen returns every non-closed loop in the organization. Related
// records are not loaded; the summary only needs the stored progress.
func (r *Repository) ListOpen(ctx context.Context, orgID string) ([]Loop, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, organization_id, name, type, status, progress, created_at, updated_at FROM transaction_loops WHERE organization_id = $1 AND status <> $2 ORDER BY created_at`, orgID, string(StatusClosed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Loop
	for rows.Next() {
		var loop Loop
		if err := rows.Scan(&loop.ID, &loop.OrgID, &loop.Name, &loop.Type, &loop.Status, &loop.Progress, &loop.CreatedAt, &loop.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, loop)
	}
	return out, rows.Err()
}
