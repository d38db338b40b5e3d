package loops

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopworks/loopworks/internal/shared"
)

type stubRepo struct {
	mu       sync.Mutex
	loops    map[string]Loop
	progress map[string]int
	openIDs  []string
}

func newStubRepo(loops ...Loop) *stubRepo {
	r := &stubRepo{loops: map[string]Loop{}, progress: map[string]int{}}
	for _, loop := range loops {
		r.loops[loop.ID] = loop
		r.openIDs = append(r.openIDs, loop.ID)
	}
	return r
}

func (r *stubRepo) GetLoop(_ context.Context, orgID, loopID string) (Loop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loop, ok := r.loops[loopID]
	if !ok || loop.OrgID != orgID {
		return Loop{}, shared.ErrNotFound
	}
	return loop, nil
}

func (r *stubRepo) UpdateProgress(_ context.Context, orgID, loopID string, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	loop, ok := r.loops[loopID]
	if !ok || loop.OrgID != orgID {
		return shared.ErrNotFound
	}
	r.progress[loopID] = progress
	return nil
}

func (r *stubRepo) ListRecalculableIDs(_ context.Context, _ string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.openIDs...), nil
}

type stubAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *stubAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func newTestEngine(repo RepositoryProvider, audit AuditRecorder) *Engine {
	return NewEngine(repo, audit, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCalculateProgressWeightedBreakdown(t *testing.T) {
	loop := Loop{
		ID:    "loop-1",
		OrgID: "org-1",
		Type:  TypePurchaseAgreement,
		Tasks: []Task{
			{ID: "t1", Status: TaskStatusDone},
			{ID: "t2", Status: TaskStatusDone},
			{ID: "t3", Status: TaskStatusTodo},
			{ID: "t4", Status: TaskStatusInProgress},
		},
		Documents: []Document{{ID: "d1"}, {ID: "d2"}, {ID: "d3"}},
		SignatureGroups: []SignatureGroup{
			{ID: "g1", Signatures: []Signature{
				{ID: "s1", Status: SignatureStatusSigned},
				{ID: "s2", Status: SignatureStatusPending},
			}},
		},
	}
	repo := newStubRepo(loop)
	audit := &stubAudit{}
	eng := newTestEngine(repo, audit)

	result, err := eng.CalculateProgress(context.Background(), "org-1", "loop-1")
	require.NoError(t, err)

	// 2/4 tasks, 3/5 documents, 1/2 signatures.
	assert.Equal(t, 50, result.Breakdown.Tasks.Percentage)
	assert.Equal(t, 60, result.Breakdown.Documents.Percentage)
	assert.Equal(t, 50, result.Breakdown.Signatures.Percentage)
	// round(50*0.5 + 60*0.3 + 50*0.2) = 53
	assert.Equal(t, 53, result.Progress)
	assert.Equal(t, 53, repo.progress["loop-1"])

	require.NotNil(t, result.CurrentMilestone)
	assert.Equal(t, "Inspection Complete", result.CurrentMilestone.Name)
	require.NotNil(t, result.NextMilestone)
	assert.Equal(t, "Financing Approved", result.NextMilestone.Name)

	require.Len(t, audit.logs, 1)
	entry := audit.logs[0]
	assert.Equal(t, "updated_progress", entry.Action)
	assert.Equal(t, "transaction_loop", entry.Entity)
	assert.Equal(t, "loop-1", entry.EntityID)
	assert.Equal(t, "org-1", entry.OrgID)
}

func TestCalculateProgressEmptyLoop(t *testing.T) {
	loop := Loop{ID: "loop-1", OrgID: "org-1", Type: TypeListingAgreement}
	repo := newStubRepo(loop)
	eng := newTestEngine(repo, &stubAudit{})

	result, err := eng.CalculateProgress(context.Background(), "org-1", "loop-1")
	require.NoError(t, err)

	assert.Zero(t, result.Progress)
	assert.Zero(t, result.Breakdown.Tasks.Percentage)
	assert.Zero(t, result.Breakdown.Documents.Percentage)
	assert.Zero(t, result.Breakdown.Signatures.Percentage)
	assert.Nil(t, result.CurrentMilestone)
	require.NotNil(t, result.NextMilestone)
	assert.Equal(t, "Listing Created", result.NextMilestone.Name)
}

func TestCalculateProgressCapsDocuments(t *testing.T) {
	docs := make([]Document, 10)
	for i := range docs {
		docs[i] = Document{ID: string(rune('a' + i))}
	}
	loop := Loop{ID: "loop-1", OrgID: "org-1", Type: TypeLeaseAgreement, Documents: docs}
	repo := newStubRepo(loop)
	eng := newTestEngine(repo, &stubAudit{})

	result, err := eng.CalculateProgress(context.Background(), "org-1", "loop-1")
	require.NoError(t, err)

	// 10 documents against an expectation of 5 still count as 100%.
	assert.Equal(t, 100, result.Breakdown.Documents.Percentage)
	assert.Equal(t, 30, result.Progress)
}

func TestCalculateProgressAllComplete(t *testing.T) {
	loop := Loop{
		ID:        "loop-1",
		OrgID:     "org-1",
		Type:      TypeBuyerAgreement,
		Tasks:     []Task{{ID: "t1", Status: TaskStatusDone}},
		Documents: []Document{{ID: "d1"}, {ID: "d2"}, {ID: "d3"}, {ID: "d4"}, {ID: "d5"}},
		SignatureGroups: []SignatureGroup{
			{ID: "g1", Signatures: []Signature{{ID: "s1", Status: SignatureStatusSigned}}},
		},
	}
	repo := newStubRepo(loop)
	eng := newTestEngine(repo, &stubAudit{})

	result, err := eng.CalculateProgress(context.Background(), "org-1", "loop-1")
	require.NoError(t, err)

	assert.Equal(t, 100, result.Progress)
	require.NotNil(t, result.CurrentMilestone)
	assert.Equal(t, "Offer Accepted", result.CurrentMilestone.Name)
	assert.Nil(t, result.NextMilestone)
}

func TestCalculateProgressZeroSignaturesInGroups(t *testing.T) {
	loop := Loop{
		ID:              "loop-1",
		OrgID:           "org-1",
		Type:            TypePurchaseAgreement,
		Tasks:           []Task{{ID: "t1", Status: TaskStatusDone}},
		SignatureGroups: []SignatureGroup{{ID: "g1"}},
	}
	repo := newStubRepo(loop)
	eng := newTestEngine(repo, &stubAudit{})

	result, err := eng.CalculateProgress(context.Background(), "org-1", "loop-1")
	require.NoError(t, err)

	// Empty signature groups count as nothing signed, not as complete.
	assert.Zero(t, result.Breakdown.Signatures.Percentage)
	assert.Equal(t, 50, result.Progress)
}

func TestCalculateProgressCrossTenant(t *testing.T) {
	loop := Loop{ID: "loop-1", OrgID: "org-1", Type: TypePurchaseAgreement}
	repo := newStubRepo(loop)
	audit := &stubAudit{}
	eng := newTestEngine(repo, audit)

	_, err := eng.CalculateProgress(context.Background(), "org-2", "loop-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, audit.logs)
	assert.Empty(t, repo.progress)
}

func TestRecalculateAllToleratesFailures(t *testing.T) {
	repo := newStubRepo(
		Loop{ID: "loop-1", OrgID: "org-1", Type: TypePurchaseAgreement, Tasks: []Task{{ID: "t1", Status: TaskStatusDone}}},
		Loop{ID: "loop-2", OrgID: "org-1", Type: TypeListingAgreement},
		Loop{ID: "loop-3", OrgID: "org-1", Type: TypeLeaseAgreement, Documents: []Document{{ID: "d1"}}},
	)
	// loop-2 disappears between listing and lookup.
	delete(repo.loops, "loop-2")
	audit := &stubAudit{}
	eng := newTestEngine(repo, audit)

	result, err := eng.RecalculateAll(context.Background(), "org-1")
	require.NoError(t, err)

	assert.Equal(t, 2, result.UpdatedCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Len(t, audit.logs, 2)
}

func TestRecalculateAllEmptyOrganization(t *testing.T) {
	eng := newTestEngine(newStubRepo(), &stubAudit{})

	result, err := eng.RecalculateAll(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Zero(t, result.UpdatedCount)
	assert.Zero(t, result.FailedCount)
}
