// Package review implements the human-in-the-loop review workflow for
// AI-generated assessments: queueing, submission, and reconciliation of
// accepted verdicts back into the bid records.
package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/verisource/procure-cli/internal/config"
	"github.com/verisource/procure-cli/internal/model"
)

// Store is the persistence surface the review service needs.
type Store interface {
	GetRFP(ctx context.Context, rfpID string) (*model.RFP, error)
	GetBid(ctx context.Context, bidID string) (*model.VendorBid, error)

	CreateReview(ctx context.Context, review *model.HumanReview) error
	GetReview(ctx context.Context, reviewID string) (*model.HumanReview, error)
	ListPendingReviews(ctx context.Context, filter PendingFilter) ([]model.HumanReview, error)
	ListReviews(ctx context.Context) ([]model.HumanReview, error)

	// CompleteReview persists the review update and, when write is non-nil,
	// applies the reconciliation write in the same transaction. Either both
	// land or neither does.
	CompleteReview(ctx context.Context, review *model.HumanReview, write *ReconcileWrite) error
}

// PendingFilter narrows the pending queue. Zero values match everything.
type PendingFilter struct {
	AssignedTo string
	Priority   model.ReviewPriority
	ReviewType model.ReviewType
}

// Service coordinates the review lifecycle.
type Service struct {
	store       Store
	cfg         config.ReviewConfig
	reconcilers map[model.ReviewType]Reconciler
}

// NewService creates a Service with the default reconcilers registered.
func NewService(store Store, cfg config.ReviewConfig) *Service {
	s := &Service{
		store:       store,
		cfg:         cfg,
		reconcilers: map[model.ReviewType]Reconciler{},
	}
	s.Register(BidEvaluationReconciler{})
	s.Register(SecurityAssessmentReconciler{})
	s.Register(RiskAssessmentReconciler{})
	s.Register(SentimentAnalysisReconciler{})
	return s
}

// Register adds a reconciler, replacing any existing one for its type.
func (s *Service) Register(r Reconciler) {
	s.reconcilers[r.ReviewType()] = r
}

// CreateParams holds the inputs for opening a review request.
type CreateParams struct {
	ReviewType   model.ReviewType
	AIAssessment map[string]any
	RFPID        string
	BidID        string
	Priority     model.ReviewPriority
	AssignedTo   string
}

// CreateReviewRequest opens a PENDING review for an AI assessment. At least
// one of RFPID and BidID must be set and must reference an existing record;
// when both are set, the bid must belong to the RFP.
func (s *Service) CreateReviewRequest(ctx context.Context, params CreateParams) (*model.HumanReview, error) {
	if params.RFPID == "" && params.BidID == "" {
		return nil, eris.New("review: either rfp_id or bid_id must be provided")
	}
	if !validReviewType(params.ReviewType) {
		return nil, eris.Errorf("review: unknown review type %q", params.ReviewType)
	}

	var bid *model.VendorBid
	if params.BidID != "" {
		var err error
		bid, err = s.store.GetBid(ctx, params.BidID)
		if err != nil {
			return nil, eris.Wrapf(err, "review: load bid %s", params.BidID)
		}
	}
	if params.RFPID != "" {
		if _, err := s.store.GetRFP(ctx, params.RFPID); err != nil {
			return nil, eris.Wrapf(err, "review: load rfp %s", params.RFPID)
		}
		if bid != nil && bid.RFPID != params.RFPID {
			return nil, eris.Errorf("review: bid %s does not belong to rfp %s", params.BidID, params.RFPID)
		}
	}

	priority := params.Priority
	if priority == "" {
		priority = model.ReviewPriority(s.cfg.DefaultPriority)
	}
	if priority.QueueRank() == 0 {
		return nil, eris.Errorf("review: unknown priority %q", priority)
	}

	now := time.Now().UTC()
	review := &model.HumanReview{
		ID:           uuid.New().String(),
		BidID:        params.BidID,
		RFPID:        params.RFPID,
		ReviewType:   params.ReviewType,
		Status:       model.ReviewStatusPending,
		Priority:     priority,
		AssignedTo:   params.AssignedTo,
		AIAssessment: params.AIAssessment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, eris.Wrap(err, "review: create")
	}

	zap.L().Info("review: request created",
		zap.String("review_id", review.ID),
		zap.String("type", string(review.ReviewType)),
		zap.String("priority", string(review.Priority)),
	)
	return review, nil
}

// SubmitParams holds the inputs for completing a review.
type SubmitParams struct {
	ReviewID        string
	Reviewer        string
	Status          model.ReviewStatus
	HumanAssessment map[string]any
	Notes           string
	Rationale       string
	AgreementLevel  *float64
	ConfidenceScore *float64
}

// SubmitReview records a reviewer's verdict. The first submission fixes
// CompletedAt and TimeToComplete; a later resubmission may change the
// verdict but never the completion clock. APPROVED and MODIFIED verdicts on
// bid-linked reviews reconcile the accepted assessment back into the bid's
// records in the same transaction; REJECTED never writes back.
func (s *Service) SubmitReview(ctx context.Context, params SubmitParams) (*model.HumanReview, error) {
	if !params.Status.Terminal() {
		return nil, eris.Errorf("review: status %q is not a valid verdict", params.Status)
	}
	if params.Reviewer == "" {
		return nil, eris.New("review: reviewer is required")
	}

	review, err := s.store.GetReview(ctx, params.ReviewID)
	if err != nil {
		return nil, eris.Wrapf(err, "review: load %s", params.ReviewID)
	}

	now := time.Now().UTC()
	if review.CompletedAt == nil {
		minutes := now.Sub(review.CreatedAt).Minutes()
		review.CompletedAt = &now
		review.TimeToComplete = &minutes
	}

	review.Status = params.Status
	review.CompletedBy = params.Reviewer
	review.HumanAssessment = params.HumanAssessment
	review.ReviewNotes = params.Notes
	review.DecisionRationale = params.Rationale
	review.AgreementLevel = params.AgreementLevel
	review.ConfidenceScore = params.ConfidenceScore
	review.UpdatedAt = now

	write, err := s.reconcileWrite(review)
	if err != nil {
		return nil, err
	}

	if err := s.store.CompleteReview(ctx, review, write); err != nil {
		return nil, eris.Wrapf(err, "review: complete %s", params.ReviewID)
	}

	zap.L().Info("review: completed",
		zap.String("review_id", review.ID),
		zap.String("reviewer", params.Reviewer),
		zap.String("status", string(params.Status)),
		zap.Bool("reconciled", write != nil),
	)
	return review, nil
}

// reconcileWrite resolves the assessment to apply and dispatches to the
// reconciler for the review's type. An APPROVED verdict applies the AI
// assessment unchanged; MODIFIED applies the human assessment, falling back
// to the AI assessment when the reviewer submitted none.
func (s *Service) reconcileWrite(review *model.HumanReview) (*ReconcileWrite, error) {
	if review.BidID == "" {
		return nil, nil
	}
	if review.Status != model.ReviewStatusApproved && review.Status != model.ReviewStatusModified {
		return nil, nil
	}

	reconciler, ok := s.reconcilers[review.ReviewType]
	if !ok {
		zap.L().Debug("review: no reconciler registered",
			zap.String("review_id", review.ID),
			zap.String("type", string(review.ReviewType)),
		)
		return nil, nil
	}

	assessment := review.HumanAssessment
	if len(assessment) == 0 {
		assessment = review.AIAssessment
	}
	if len(assessment) == 0 {
		return nil, nil
	}

	write, err := reconciler.Reconcile(review, assessment)
	if err != nil {
		return nil, eris.Wrapf(err, "review: reconcile %s", review.ID)
	}
	if write != nil && write.Empty() {
		return nil, nil
	}
	return write, nil
}

// ListPending returns the pending queue, highest priority first and oldest
// first within a priority.
func (s *Service) ListPending(ctx context.Context, filter PendingFilter) ([]model.HumanReview, error) {
	reviews, err := s.store.ListPendingReviews(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "review: list pending")
	}
	return reviews, nil
}

// Details is a review joined with summaries of its linked documents and the
// AI/human comparison.
type Details struct {
	Review     *model.HumanReview         `json:"review"`
	RFP        *model.RFP                 `json:"rfp,omitempty"`
	Bid        *model.VendorBid           `json:"bid,omitempty"`
	BidRFP     *model.RFP                 `json:"bid_rfp,omitempty"`
	Comparison map[string]FieldComparison `json:"comparison"`
}

// ReviewDetails loads a review together with its linked RFP and bid.
// Missing linked records are omitted rather than failing the lookup.
func (s *Service) ReviewDetails(ctx context.Context, reviewID string) (*Details, error) {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, eris.Wrapf(err, "review: load %s", reviewID)
	}

	details := &Details{
		Review:     review,
		Comparison: CompareAssessments(review.AIAssessment, review.HumanAssessment),
	}

	if review.RFPID != "" {
		if rfp, err := s.store.GetRFP(ctx, review.RFPID); err == nil {
			details.RFP = rfp
		}
	}
	if review.BidID != "" {
		if bid, err := s.store.GetBid(ctx, review.BidID); err == nil {
			details.Bid = bid
			if rfp, err := s.store.GetRFP(ctx, bid.RFPID); err == nil {
				details.BidRFP = rfp
			}
		}
	}

	return details, nil
}

// Statistics summarizes the review workload.
type Statistics struct {
	TotalReviews    int `json:"total_reviews"`
	PendingReviews  int `json:"pending_reviews"`
	ApprovedReviews int `json:"approved_reviews"`
	RejectedReviews int `json:"rejected_reviews"`
	ModifiedReviews int `json:"modified_reviews"`

	CompletionRate        float64 `json:"completion_rate"`
	AverageCompletionTime float64 `json:"average_completion_time"` // minutes
	AverageAgreementLevel float64 `json:"average_agreement_level"`

	ReviewsByType     map[model.ReviewType]int     `json:"reviews_by_type"`
	ReviewsByPriority map[model.ReviewPriority]int `json:"reviews_by_priority"`
}

// ComputeStatistics aggregates counts and averages over all reviews.
func (s *Service) ComputeStatistics(ctx context.Context) (*Statistics, error) {
	reviews, err := s.store.ListReviews(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "review: list all")
	}

	stats := &Statistics{
		ReviewsByType:     map[model.ReviewType]int{},
		ReviewsByPriority: map[model.ReviewPriority]int{},
	}
	for _, t := range model.ReviewTypes {
		stats.ReviewsByType[t] = 0
	}
	for _, p := range model.ReviewPriorities {
		stats.ReviewsByPriority[p] = 0
	}

	var timeSum float64
	var timeCount int
	var agreementSum float64
	var agreementCount int

	for i := range reviews {
		r := &reviews[i]
		stats.TotalReviews++
		switch r.Status {
		case model.ReviewStatusPending:
			stats.PendingReviews++
		case model.ReviewStatusApproved:
			stats.ApprovedReviews++
		case model.ReviewStatusRejected:
			stats.RejectedReviews++
		case model.ReviewStatusModified:
			stats.ModifiedReviews++
		}
		stats.ReviewsByType[r.ReviewType]++
		stats.ReviewsByPriority[r.Priority]++

		if r.CompletedAt != nil && r.TimeToComplete != nil {
			timeSum += *r.TimeToComplete
			timeCount++
		}
		if r.AgreementLevel != nil {
			agreementSum += *r.AgreementLevel
			agreementCount++
		}
	}

	if stats.TotalReviews > 0 {
		completed := stats.ApprovedReviews + stats.RejectedReviews + stats.ModifiedReviews
		stats.CompletionRate = float64(completed) / float64(stats.TotalReviews)
	}
	if timeCount > 0 {
		stats.AverageCompletionTime = timeSum / float64(timeCount)
	}
	if agreementCount > 0 {
		stats.AverageAgreementLevel = agreementSum / float64(agreementCount)
	}

	return stats, nil
}

func validReviewType(t model.ReviewType) bool {
	for _, known := range model.ReviewTypes {
		if t == known {
			return true
		}
	}
	return false
}
