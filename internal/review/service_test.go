package review

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verisource/procure-cli/internal/config"
	"github.com/verisource/procure-cli/internal/model"
)

// memStore keeps reviews in memory and records reconcile writes.
type memStore struct {
	rfps    map[string]*model.RFP
	bids    map[string]*model.VendorBid
	reviews map[string]*model.HumanReview
	writes  []*ReconcileWrite
}

func newMemStore() *memStore {
	return &memStore{
		rfps:    map[string]*model.RFP{},
		bids:    map[string]*model.VendorBid{},
		reviews: map[string]*model.HumanReview{},
	}
}

func (s *memStore) GetRFP(_ context.Context, id string) (*model.RFP, error) {
	if rfp, ok := s.rfps[id]; ok {
		return rfp, nil
	}
	return nil, eris.New("rfp not found")
}

func (s *memStore) GetBid(_ context.Context, id string) (*model.VendorBid, error) {
	if bid, ok := s.bids[id]; ok {
		return bid, nil
	}
	return nil, eris.New("bid not found")
}

func (s *memStore) CreateReview(_ context.Context, r *model.HumanReview) error {
	cp := *r
	s.reviews[r.ID] = &cp
	return nil
}

func (s *memStore) GetReview(_ context.Context, id string) (*model.HumanReview, error) {
	if r, ok := s.reviews[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, eris.New("review not found")
}

func (s *memStore) ListPendingReviews(_ context.Context, filter PendingFilter) ([]model.HumanReview, error) {
	var out []model.HumanReview
	for _, r := range s.reviews {
		if r.Status != model.ReviewStatusPending {
			continue
		}
		if filter.AssignedTo != "" && r.AssignedTo != filter.AssignedTo {
			continue
		}
		if filter.Priority != "" && r.Priority != filter.Priority {
			continue
		}
		if filter.ReviewType != "" && r.ReviewType != filter.ReviewType {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *memStore) ListReviews(_ context.Context) ([]model.HumanReview, error) {
	var out []model.HumanReview
	for _, r := range s.reviews {
		out = append(out, *r)
	}
	return out, nil
}

func (s *memStore) CompleteReview(_ context.Context, r *model.HumanReview, write *ReconcileWrite) error {
	cp := *r
	s.reviews[r.ID] = &cp
	if write != nil {
		s.writes = append(s.writes, write)
	}
	return nil
}

func serviceFixture() (*Service, *memStore) {
	store := newMemStore()
	store.rfps["rfp-1"] = &model.RFP{ID: "rfp-1", Title: "Data Center Refresh"}
	store.bids["bid-1"] = &model.VendorBid{ID: "bid-1", RFPID: "rfp-1", VendorName: "Acme"}
	return NewService(store, config.ReviewConfig{DefaultPriority: "medium"}), store
}

func TestCreateReviewRequest_RequiresLinkedRecord(t *testing.T) {
	svc, _ := serviceFixture()

	_, err := svc.CreateReviewRequest(context.Background(), CreateParams{
		ReviewType: model.ReviewTypeBidEvaluation,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rfp_id or bid_id")
}

func TestCreateReviewRequest_UnknownType(t *testing.T) {
	svc, _ := serviceFixture()

	_, err := svc.CreateReviewRequest(context.Background(), CreateParams{
		ReviewType: "vibes_check",
		BidID:      "bid-1",
	})
	require.Error(t, err)
}

func TestCreateReviewRequest_BidMustBelongToRFP(t *testing.T) {
	svc, store := serviceFixture()
	store.rfps["rfp-2"] = &model.RFP{ID: "rfp-2"}

	_, err := svc.CreateReviewRequest(context.Background(), CreateParams{
		ReviewType: model.ReviewTypeBidEvaluation,
		RFPID:      "rfp-2",
		BidID:      "bid-1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not belong")
}

func TestCreateReviewRequest_DefaultsAndPersists(t *testing.T) {
	svc, store := serviceFixture()

	r, err := svc.CreateReviewRequest(context.Background(), CreateParams{
		ReviewType:   model.ReviewTypeBidEvaluation,
		BidID:        "bid-1",
		AIAssessment: map[string]any{"overall_score": 55.0},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, model.ReviewStatusPending, r.Status)
	assert.Equal(t, model.ReviewPriorityMedium, r.Priority)
	assert.NotNil(t, store.reviews[r.ID])
}

func TestCreateReviewRequest_UnknownPriorityRejected(t *testing.T) {
	svc, _ := serviceFixture()

	_, err := svc.CreateReviewRequest(context.Background(), CreateParams{
		ReviewType: model.ReviewTypeBidEvaluation,
		BidID:      "bid-1",
		Priority:   "urgent-ish",
	})
	require.Error(t, err)
}

func pendingReview(svc *Service, t *testing.T, assessment map[string]any) *model.HumanReview {
	t.Helper()
	r, err := svc.CreateReviewRequest(context.Background(), CreateParams{
		ReviewType:   model.ReviewTypeBidEvaluation,
		BidID:        "bid-1",
		AIAssessment: assessment,
	})
	require.NoError(t, err)
	return r
}

func TestSubmitReview_RequiresTerminalStatus(t *testing.T) {
	svc, _ := serviceFixture()
	r := pendingReview(svc, t, nil)

	_, err := svc.SubmitReview(context.Background(), SubmitParams{
		ReviewID: r.ID,
		Reviewer: "dana",
		Status:   model.ReviewStatusPending,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid verdict")
}

func TestSubmitReview_RequiresReviewer(t *testing.T) {
	svc, _ := serviceFixture()
	r := pendingReview(svc, t, nil)

	_, err := svc.SubmitReview(context.Background(), SubmitParams{
		ReviewID: r.ID,
		Status:   model.ReviewStatusApproved,
	})
	require.Error(t, err)
}

func TestSubmitReview_ApprovedAppliesAIAssessment(t *testing.T) {
	svc, store := serviceFixture()
	r := pendingReview(svc, t, map[string]any{"overall_score": 58.0})

	got, err := svc.SubmitReview(context.Background(), SubmitParams{
		ReviewID: r.ID,
		Reviewer: "dana",
		Status:   model.ReviewStatusApproved,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ReviewStatusApproved, got.Status)
	assert.NotNil(t, got.CompletedAt)
	require.Len(t, store.writes, 1)
	require.NotNil(t, store.writes[0].OverallScore)
	assert.Equal(t, 58.0, *store.writes[0].OverallScore)
}

func TestSubmitReview_ModifiedPrefersHumanAssessment(t *testing.T) {
	svc, store := serviceFixture()
	r := pendingReview(svc, t, map[string]any{"overall_score": 58.0})

	_, err := svc.SubmitReview(context.Background(), SubmitParams{
		ReviewID:        r.ID,
		Reviewer:        "dana",
		Status:          model.ReviewStatusModified,
		HumanAssessment: map[string]any{"overall_score": 41.0},
	})
	require.NoError(t, err)

	require.Len(t, store.writes, 1)
	assert.Equal(t, 41.0, *store.writes[0].OverallScore)
}

func TestSubmitReview_ModifiedWithoutAssessmentFallsBackToAI(t *testing.T) {
	svc, store := serviceFixture()
	r := pendingReview(svc, t, map[string]any{"overall_score": 58.0})

	_, err := svc.SubmitReview(context.Background(), SubmitParams{
		ReviewID: r.ID,
		Reviewer: "dana",
		Status:   model.ReviewStatusModified,
	})
	require.NoError(t, err)

	require.Len(t, store.writes, 1)
	assert.Equal(t, 58.0, *store.writes[0].OverallScore)
}

func TestSubmitReview_RejectedNeverWritesBack(t *testing.T) {
	svc, store := serviceFixture()
	r := pendingReview(svc, t, map[string]any{"overall_score": 58.0})

	got, err := svc.SubmitReview(context.Background(), SubmitParams{
		ReviewID:        r.ID,
		Reviewer:        "dana",
		Status:          model.ReviewStatusRejected,
		HumanAssessment: map[string]any{"overall_score": 10.0},
	})
	require.NoError(t, err)

	assert.Equal(t, model.ReviewStatusRejected, got.Status)
	// The human assessment is kept on the review for audit, never applied.
	assert.Equal(t, 10.0, got.HumanAssessment["overall_score"])
	assert.Empty(t, store.writes)
}

func TestSubmitReview_RFPOnlyReviewNeverWritesBack(t *testing.T) {
	svc, store := serviceFixture()
	r, err := svc.CreateReviewRequest(context.Background(), CreateParams{
		ReviewType:   model.ReviewTypeRequirementExtraction,
		RFPID:        "rfp-1",
		AIAssessment: map[string]any{"requirements": []any{}},
	})
	require.NoError(t, err)

	_, err = svc.SubmitReview(context.Background(), SubmitParams{
		ReviewID: r.ID,
		Reviewer: "dana",
		Status:   model.ReviewStatusApproved,
	})
	require.NoError(t, err)
	assert.Empty(t, store.writes)
}

func TestSubmitReview_CompletionClockFixedAtFirstSubmission(t *testing.T) {
	svc, store := serviceFixture()
	r := pendingReview(svc, t, nil)

	// Backdate creation so the first completion time is clearly nonzero.
	created := time.Now().UTC().Add(-90 * time.Minute)
	store.reviews[r.ID].CreatedAt = created

	first, err := svc.SubmitReview(context.Background(), SubmitParams{
		ReviewID: r.ID,
		Reviewer: "dana",
		Status:   model.ReviewStatusRejected,
	})
	require.NoError(t, err)
	require.NotNil(t, first.TimeToComplete)
	assert.InDelta(t, 90, *first.TimeToComplete, 1)

	second, err := svc.SubmitReview(context.Background(), SubmitParams{
		ReviewID: r.ID,
		Reviewer: "lee",
		Status:   model.ReviewStatusApproved,
	})
	require.NoError(t, err)

	// The verdict changed; the clock did not.
	assert.Equal(t, model.ReviewStatusApproved, second.Status)
	assert.Equal(t, "lee", second.CompletedBy)
	assert.Equal(t, *first.CompletedAt, *second.CompletedAt)
	assert.Equal(t, *first.TimeToComplete, *second.TimeToComplete)
}

func TestComputeStatistics(t *testing.T) {
	svc, store := serviceFixture()

	tt := 30.0
	agree := 0.8
	done := time.Now().UTC()
	store.reviews["a"] = &model.HumanReview{
		ID: "a", Status: model.ReviewStatusApproved, ReviewType: model.ReviewTypeBidEvaluation,
		Priority: model.ReviewPriorityHigh, CompletedAt: &done, TimeToComplete: &tt, AgreementLevel: &agree,
	}
	store.reviews["b"] = &model.HumanReview{
		ID: "b", Status: model.ReviewStatusPending, ReviewType: model.ReviewTypeBidEvaluation,
		Priority: model.ReviewPriorityMedium,
	}

	stats, err := svc.ComputeStatistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalReviews)
	assert.Equal(t, 1, stats.PendingReviews)
	assert.Equal(t, 1, stats.ApprovedReviews)
	assert.Equal(t, 0.5, stats.CompletionRate)
	assert.Equal(t, 30.0, stats.AverageCompletionTime)
	assert.Equal(t, 0.8, stats.AverageAgreementLevel)
	assert.Equal(t, 2, stats.ReviewsByType[model.ReviewTypeBidEvaluation])
	assert.Equal(t, 0, stats.ReviewsByType[model.ReviewTypeRiskAssessment])
	assert.Equal(t, 1, stats.ReviewsByPriority[model.ReviewPriorityHigh])
}
