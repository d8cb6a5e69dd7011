// Package store persists procurement records in PostgreSQL or SQLite.
package store

import (
	"context"

	"github.com/verisource/procure-cli/internal/model"
	"github.com/verisource/procure-cli/internal/review"
)

// Store defines the persistence interface for the procurement pipeline.
type Store interface {
	// RFPs
	CreateRFP(ctx context.Context, rfp *model.RFP) error
	GetRFP(ctx context.Context, rfpID string) (*model.RFP, error)
	ListRFPs(ctx context.Context) ([]model.RFP, error)

	// SaveRFPAnalysis replaces the RFP's extracted requirements and
	// technical specifications and marks it processed, all in one
	// transaction.
	SaveRFPAnalysis(ctx context.Context, rfp *model.RFP, requirements []model.Requirement, specs []model.TechnicalSpecification) error
	ListRequirements(ctx context.Context, rfpID string) ([]model.Requirement, error)
	ListTechSpecs(ctx context.Context, rfpID string) ([]model.TechnicalSpecification, error)

	// Bids
	CreateBid(ctx context.Context, bid *model.VendorBid) error
	GetBid(ctx context.Context, bidID string) (*model.VendorBid, error)
	ListBids(ctx context.Context, rfpID string) ([]model.VendorBid, error)

	// UpsertBids bulk-loads bids keyed on (rfp_id, document_ref), so
	// re-running an ingest never duplicates rows. Returns rows written.
	UpsertBids(ctx context.Context, bids []model.VendorBid) (int64, error)

	// Evaluations. SaveEvaluation upserts the single analysis row per bid
	// and refreshes the bid's cached total score in one transaction.
	SaveEvaluation(ctx context.Context, analysis *model.AnalysisResult) error
	GetEvaluation(ctx context.Context, bidID string) (*model.AnalysisResult, error)

	// Security
	CreateSecurityRequirements(ctx context.Context, requirements []model.SecurityRequirement) error
	ListSecurityRequirements(ctx context.Context, rfpID string) ([]model.SecurityRequirement, error)
	SaveSecurityCompliance(ctx context.Context, compliance *model.BidSecurityCompliance) error
	ListSecurityCompliance(ctx context.Context, bidID string) ([]model.BidSecurityCompliance, error)

	// Reviews
	CreateReview(ctx context.Context, r *model.HumanReview) error
	GetReview(ctx context.Context, reviewID string) (*model.HumanReview, error)
	ListPendingReviews(ctx context.Context, filter review.PendingFilter) ([]model.HumanReview, error)
	ListReviews(ctx context.Context) ([]model.HumanReview, error)

	// CompleteReview persists the review verdict and, when write is
	// non-nil, applies the reconciliation write in the same transaction.
	CompleteReview(ctx context.Context, r *model.HumanReview, write *review.ReconcileWrite) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
