package model

import "time"

// ReviewStatus is the lifecycle state of a human review. PENDING is the
// initial state; the other three are terminal.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
	ReviewStatusModified ReviewStatus = "modified"
)

// Terminal reports whether the status ends the review lifecycle.
func (s ReviewStatus) Terminal() bool {
	switch s {
	case ReviewStatusApproved, ReviewStatusRejected, ReviewStatusModified:
		return true
	}
	return false
}

// ReviewPriority orders the review queue.
type ReviewPriority string

const (
	ReviewPriorityLow      ReviewPriority = "low"
	ReviewPriorityMedium   ReviewPriority = "medium"
	ReviewPriorityHigh     ReviewPriority = "high"
	ReviewPriorityCritical ReviewPriority = "critical"
)

// QueueRank returns a sort rank for the pending queue (higher first).
func (p ReviewPriority) QueueRank() int {
	switch p {
	case ReviewPriorityCritical:
		return 4
	case ReviewPriorityHigh:
		return 3
	case ReviewPriorityMedium:
		return 2
	case ReviewPriorityLow:
		return 1
	}
	return 0
}

// ReviewType identifies which AI assessment a review covers.
type ReviewType string

const (
	ReviewTypeSecurityAssessment    ReviewType = "security_assessment"
	ReviewTypeRiskAssessment        ReviewType = "risk_assessment"
	ReviewTypeSentimentAnalysis     ReviewType = "sentiment_analysis"
	ReviewTypeBidEvaluation         ReviewType = "bid_evaluation"
	ReviewTypeRequirementExtraction ReviewType = "requirement_extraction"
	ReviewTypeInfographicReport     ReviewType = "infographic_report"
)

// ReviewTypes lists all known review types.
var ReviewTypes = []ReviewType{
	ReviewTypeSecurityAssessment,
	ReviewTypeRiskAssessment,
	ReviewTypeSentimentAnalysis,
	ReviewTypeBidEvaluation,
	ReviewTypeRequirementExtraction,
	ReviewTypeInfographicReport,
}

// ReviewPriorities lists all priorities in ascending order.
var ReviewPriorities = []ReviewPriority{
	ReviewPriorityLow,
	ReviewPriorityMedium,
	ReviewPriorityHigh,
	ReviewPriorityCritical,
}

// HumanReview is the audit record for one human review of an AI assessment.
// At least one of RFPID/BidID is set. AIAssessment is written once at
// creation; CompletedAt and TimeToComplete are fixed at first submission and
// never recomputed, even if the verdict is later changed.
type HumanReview struct {
	ID    string `json:"id"`
	BidID string `json:"bid_id,omitempty"`
	RFPID string `json:"rfp_id,omitempty"`

	ReviewType ReviewType     `json:"review_type"`
	Status     ReviewStatus   `json:"status"`
	Priority   ReviewPriority `json:"priority"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`

	AssignedTo     string     `json:"assigned_to,omitempty"`
	CompletedBy    string     `json:"completed_by,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	TimeToComplete *float64   `json:"time_to_complete,omitempty"` // minutes

	AIAssessment      map[string]any `json:"ai_assessment,omitempty"`
	HumanAssessment   map[string]any `json:"human_assessment,omitempty"`
	ReviewNotes       string         `json:"review_notes,omitempty"`
	DecisionRationale string         `json:"decision_rationale,omitempty"`

	AgreementLevel  *float64 `json:"agreement_level,omitempty"`  // 0-1
	ConfidenceScore *float64 `json:"confidence_score,omitempty"` // 0-1
}
