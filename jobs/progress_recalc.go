package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/loopworks/loopworks/internal/loops"
	"github.com/loopworks/loopworks/internal/observability"
)

// ProgressService describes the behaviour needed to refresh loop progress.
type ProgressService interface {
	RecalculateAll(ctx context.Context, orgID string) (loops.RecalculateResult, error)
}

// OrgIDLister supplies the tenants the nightly run fans out over.
type OrgIDLister interface {
	ListOrganizationIDs(ctx context.Context) ([]string, error)
}

// ProgressRecalcJob refreshes stored loop progress per tenant.
type ProgressRecalcJob struct {
	Service ProgressService
	Orgs    OrgIDLister
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// NewProgressRecalcJob constructs the job handler.
func NewProgressRecalcJob(service ProgressService, orgs OrgIDLister, logger *slog.Logger, metrics *observability.Metrics) *ProgressRecalcJob {
	return &ProgressRecalcJob{Service: service, Orgs: orgs, Logger: logger, Metrics: metrics}
}

// Handle processes TaskTypeProgressRecalc tasks. A failing tenant does not
// abort the run.
func (j *ProgressRecalcJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ProgressRecalcPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.TrackJob("progress_recalc")

	orgIDs := []string{payload.OrgID}
	if payload.OrgID == "" {
		var err error
		orgIDs, err = j.Orgs.ListOrganizationIDs(ctx)
		if err != nil {
			return tracker.End(err)
		}
	}

	var updated, failed int
	for _, orgID := range orgIDs {
		result, err := j.Service.RecalculateAll(ctx, orgID)
		if err != nil {
			failed++
			j.log().Warn("tenant progress recalculation failed",
				slog.String("organization_id", orgID),
				slog.String("error", err.Error()))
			continue
		}
		updated += result.UpdatedCount
		failed += result.FailedCount
	}
	j.Metrics.RecordRecalculations("cron", updated, failed)

	j.log().Info("progress recalculation run finished",
		slog.Int("organizations", len(orgIDs)),
		slog.Int("updated", updated),
		slog.Int("failed", failed))
	return tracker.End(nil)
}

func (j *ProgressRecalcJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeProgressRecalc))
	}
	return slog.Default().With(slog.String("job", TaskTypeProgressRecalc))
}
