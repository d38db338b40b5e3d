package loops

import (
	"context"
	"log/slog"
	"math"
)

// OpenLoopLister supplies the open loops a summary is computed over.
type OpenLoopLister interface {
	ListOpen(ctx context.Context, orgID string) ([]Loop, error)
}

// Service answers read queries over an organization's loops.
type Service struct {
	loops  OpenLoopLister
	engine *Engine
	cache  *SummaryCache
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(loops OpenLoopLister, engine *Engine, cache *SummaryCache, logger *slog.Logger) *Service {
	return &Service{loops: loops, engine: engine, cache: cache, logger: logger}
}

// CalculateProgress recomputes one loop's progress.
func (s *Service) CalculateProgress(ctx context.Context, orgID, loopID string) (ProgressResult, error) {
	result, err := s.engine.CalculateProgress(ctx, orgID, loopID)
	if err != nil {
		return ProgressResult{}, err
	}
	// Stored progress changed, so cached summaries are stale.
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("summary cache bump failed", slog.String("error", err.Error()))
	}
	return result, nil
}

// RecalculateAll recomputes every open loop in the organization.
func (s *Service) RecalculateAll(ctx context.Context, orgID string) (RecalculateResult, error) {
	result, err := s.engine.RecalculateAll(ctx, orgID)
	if err != nil {
		return RecalculateResult{}, err
	}
	if result.UpdatedCount > 0 {
		if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
			s.logger.Warn("summary cache bump failed", slog.String("error", err.Error()))
		}
	}
	return result, nil
}

// ProgressSummary aggregates stored progress across the organization's
// non-closed loops, serving from cache when warm.
func (s *Service) ProgressSummary(ctx context.Context, orgID string) (ProgressSummary, error) {
	return s.cache.Fetch(ctx, orgID, func(ctx context.Context) (ProgressSummary, error) {
		open, err := s.loops.ListOpen(ctx, orgID)
		if err != nil {
			return ProgressSummary{}, err
		}
		return summarise(open), nil
	})
}

func summarise(open []Loop) ProgressSummary {
	summary := ProgressSummary{
		TotalLoops: len(open),
		ByStatus:   map[Status]int{},
		ByType:     map[TransactionType]int{},
		ProgressDistribution: map[string]int{
			"0-25":   0,
			"26-50":  0,
			"51-75":  0,
			"76-100": 0,
		},
	}
	if len(open) == 0 {
		return summary
	}

	total := 0
	for _, loop := range open {
		total += loop.Progress
		summary.ByStatus[loop.Status]++
		summary.ByType[loop.Type]++
		summary.ProgressDistribution[bucketFor(loop.Progress)]++
	}
	summary.AverageProgress = int(math.Round(float64(total) / float64(len(open))))
	return summary
}

func bucketFor(progress int) string {
	switch {
	case progress <= 25:
		return "0-25"
	case progress <= 50:
		return "26-50"
	case progress <= 75:
		return "51-75"
	default:
		return "76-100"
	}
}
