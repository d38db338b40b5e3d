package loops

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loopworks/loopworks/internal/shared"
)

const (
	// AuditAction identifies audit log entries emitted by the engine.
	AuditAction = "updated_progress"
	// AuditEntity describes the audit entity for loop progress updates.
	AuditEntity = "transaction_loop"

	// ExpectedDocumentCount is how many documents a loop is assumed to
	// need. The document component maxes out at this count.
	ExpectedDocumentCount = 5

	taskWeight      = 0.5
	documentWeight  = 0.3
	signatureWeight = 0.2

	// recalcConcurrency bounds the batch recalculation fan-out.
	recalcConcurrency = 4
)

// RepositoryProvider describes the persistence operations required by the
// engine. All lookups are scoped to the calling organization.
type RepositoryProvider interface {
	GetLoop(ctx context.Context, orgID, loopID string) (Loop, error)
	UpdateProgress(ctx context.Context, orgID, loopID string, progress int) error
	ListRecalculableIDs(ctx context.Context, orgID string) ([]string, error)
}

// AuditRecorder captures audit events.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Engine computes weighted loop progress and keeps the persisted value
// current.
type Engine struct {
	repo   RepositoryProvider
	audit  AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine wires required dependencies for the progress engine.
func NewEngine(repo RepositoryProvider, audit AuditRecorder, logger *slog.Logger) *Engine {
	return &Engine{
		repo:   repo,
		audit:  audit,
		logger: logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// CalculateProgress recomputes one loop's progress from its tasks,
// documents, and signatures, persists the result, and records an audit
// entry.
func (e *Engine) CalculateProgress(ctx context.Context, orgID, loopID string) (ProgressResult, error) {
	if e == nil || e.repo == nil {
		return ProgressResult{}, fmt.Errorf("progress engine not initialised")
	}
	if orgID == "" {
		return ProgressResult{}, fmt.Errorf("%w: organization id is required", shared.ErrInvalidArgument)
	}
	if loopID == "" {
		return ProgressResult{}, fmt.Errorf("%w: loop id is required", shared.ErrInvalidArgument)
	}

	loop, err := e.repo.GetLoop(ctx, orgID, loopID)
	if err != nil {
		return ProgressResult{}, err
	}

	breakdown := computeBreakdown(loop)
	overall := weightedOverall(breakdown)

	if err := e.repo.UpdateProgress(ctx, orgID, loopID, overall); err != nil {
		return ProgressResult{}, err
	}
	e.recordAudit(ctx, loop, overall, breakdown)

	result := ProgressResult{
		LoopID:           loop.ID,
		Progress:         overall,
		Breakdown:        breakdown,
		CurrentMilestone: CurrentMilestone(loop.Type, overall),
		NextMilestone:    NextMilestone(loop.Type, overall),
	}
	e.log().Info("recalculated loop progress",
		slog.String("organization_id", orgID),
		slog.String("loop_id", loopID),
		slog.Int("progress", overall))
	return result, nil
}

// RecalculateAll recomputes progress for every open loop in the
// organization. A failing loop never aborts the batch; the returned count
// reflects actual successes.
func (e *Engine) RecalculateAll(ctx context.Context, orgID string) (RecalculateResult, error) {
	if e == nil || e.repo == nil {
		return RecalculateResult{}, fmt.Errorf("progress engine not initialised")
	}
	if orgID == "" {
		return RecalculateResult{}, fmt.Errorf("%w: organization id is required", shared.ErrInvalidArgument)
	}

	ids, err := e.repo.ListRecalculableIDs(ctx, orgID)
	if err != nil {
		return RecalculateResult{}, err
	}
	if len(ids) == 0 {
		return RecalculateResult{}, nil
	}

	var updated, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recalcConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if _, err := e.CalculateProgress(gctx, orgID, id); err != nil {
				failed.Add(1)
				e.log().Warn("loop progress recalculation failed",
					slog.String("organization_id", orgID),
					slog.String("loop_id", id),
					slog.String("error", err.Error()))
				return nil
			}
			updated.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	result := RecalculateResult{
		UpdatedCount: int(updated.Load()),
		FailedCount:  int(failed.Load()),
	}
	e.log().Info("completed loop progress batch",
		slog.String("organization_id", orgID),
		slog.Int("updated", result.UpdatedCount),
		slog.Int("failed", result.FailedCount))
	return result, nil
}

func computeBreakdown(loop Loop) Breakdown {
	tasksDone := 0
	for _, t := range loop.Tasks {
		if t.Status == TaskStatusDone {
			tasksDone++
		}
	}
	taskPct := 0
	if len(loop.Tasks) > 0 {
		taskPct = roundPct(float64(tasksDone) / float64(len(loop.Tasks)) * 100)
	}

	docPct := roundPct(float64(len(loop.Documents)) / float64(ExpectedDocumentCount) * 100)
	if docPct > 100 {
		docPct = 100
	}

	signedCount, totalSignatures := 0, 0
	for _, group := range loop.SignatureGroups {
		for _, sig := range group.Signatures {
			totalSignatures++
			if sig.Status == SignatureStatusSigned {
				signedCount++
			}
		}
	}
	// Loops with no individual signatures contribute nothing for this
	// component rather than counting as complete.
	sigPct := 0
	if totalSignatures > 0 {
		sigPct = roundPct(float64(signedCount) / float64(totalSignatures) * 100)
	}

	return Breakdown{
		Tasks:      ComponentBreakdown{Completed: tasksDone, Total: len(loop.Tasks), Percentage: taskPct, Weight: taskWeight},
		Documents:  ComponentBreakdown{Completed: len(loop.Documents), Total: ExpectedDocumentCount, Percentage: docPct, Weight: documentWeight},
		Signatures: ComponentBreakdown{Completed: signedCount, Total: totalSignatures, Percentage: sigPct, Weight: signatureWeight},
	}
}

func weightedOverall(b Breakdown) int {
	overall := roundPct(float64(b.Tasks.Percentage)*taskWeight +
		float64(b.Documents.Percentage)*documentWeight +
		float64(b.Signatures.Percentage)*signatureWeight)
	if overall < 0 {
		return 0
	}
	if overall > 100 {
		return 100
	}
	return overall
}

func roundPct(v float64) int {
	return int(math.Round(v))
}

func (e *Engine) recordAudit(ctx context.Context, loop Loop, overall int, breakdown Breakdown) {
	if e == nil || e.audit == nil {
		return
	}
	meta := map[string]any{
		"progress":              overall,
		"tasks_percentage":      breakdown.Tasks.Percentage,
		"documents_percentage":  breakdown.Documents.Percentage,
		"signatures_percentage": breakdown.Signatures.Percentage,
		"actor":                 "system/progress",
		"recorded_at":           e.now(),
	}
	_ = e.audit.Record(ctx, shared.AuditLog{
		OrgID:    loop.OrgID,
		Action:   AuditAction,
		Entity:   AuditEntity,
		EntityID: loop.ID,
		Meta:     meta,
		At:       e.now(),
	})
}

func (e *Engine) log() *slog.Logger {
	if e != nil && e.logger != nil {
		return e.logger.With(slog.String("component", "progress_engine"))
	}
	return slog.Default().With(slog.String("component", "progress_engine"))
}
