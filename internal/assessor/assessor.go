// Package assessor runs the security, risk, and sentiment analyses that
// follow a bid evaluation, and opens human reviews over their output.
package assessor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/verisource/procure-cli/internal/extract"
	"github.com/verisource/procure-cli/internal/gateway"
	"github.com/verisource/procure-cli/internal/model"
	"github.com/verisource/procure-cli/internal/review"
)

// compliantThreshold is the minimum score for a requirement to count as met.
const compliantThreshold = 70

// Store is the persistence surface the assessor needs.
type Store interface {
	GetBid(ctx context.Context, bidID string) (*model.VendorBid, error)
	GetRFP(ctx context.Context, rfpID string) (*model.RFP, error)

	ListSecurityRequirements(ctx context.Context, rfpID string) ([]model.SecurityRequirement, error)
	CreateSecurityRequirements(ctx context.Context, requirements []model.SecurityRequirement) error
	ListSecurityCompliance(ctx context.Context, bidID string) ([]model.BidSecurityCompliance, error)
	SaveSecurityCompliance(ctx context.Context, compliance *model.BidSecurityCompliance) error
}

// ReviewOpener opens human review requests over assessment output.
type ReviewOpener interface {
	CreateReviewRequest(ctx context.Context, params review.CreateParams) (*model.HumanReview, error)
}

// Assessor runs post-evaluation analyses for vendor bids.
type Assessor struct {
	store     Store
	extractor extract.Extractor
	gw        gateway.Gateway
	reviews   ReviewOpener
}

// New creates an Assessor. reviews may be nil, in which case no review
// requests are opened.
func New(store Store, extractor extract.Extractor, gw gateway.Gateway, reviews ReviewOpener) *Assessor {
	return &Assessor{store: store, extractor: extractor, gw: gw, reviews: reviews}
}

// AssessSecurityCompliance scores a bid against the RFP's security
// requirements. Requirements already assessed for the bid are skipped, so
// repeated runs only fill gaps. When the RFP has no stored security
// requirements they are first extracted from the RFP text.
func (a *Assessor) AssessSecurityCompliance(ctx context.Context, bidID string) error {
	bid, err := a.store.GetBid(ctx, bidID)
	if err != nil {
		return eris.Wrapf(err, "assessor: load bid %s", bidID)
	}
	rfp, err := a.store.GetRFP(ctx, bid.RFPID)
	if err != nil {
		return eris.Wrapf(err, "assessor: load rfp %s", bid.RFPID)
	}

	requirements, err := a.store.ListSecurityRequirements(ctx, rfp.ID)
	if err != nil {
		return eris.Wrap(err, "assessor: list security requirements")
	}
	if len(requirements) == 0 {
		requirements, err = a.extractSecurityRequirements(ctx, rfp)
		if err != nil {
			return err
		}
	}
	if len(requirements) == 0 {
		zap.L().Info("assessor: no security requirements to assess", zap.String("rfp_id", rfp.ID))
		return nil
	}

	existing, err := a.store.ListSecurityCompliance(ctx, bid.ID)
	if err != nil {
		return eris.Wrap(err, "assessor: list existing compliance")
	}
	assessed := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		assessed[c.RequirementID] = struct{}{}
	}

	bidText, err := a.extractor.Extract(ctx, bid.DocumentRef)
	if err != nil {
		return eris.Wrap(err, "assessor: extract bid text")
	}

	var scored int
	results := map[string]any{}
	for _, req := range requirements {
		if _, ok := assessed[req.ID]; ok {
			continue
		}

		result := a.evaluateSecurityCompliance(ctx, req, bidText)
		compliance := &model.BidSecurityCompliance{
			ID:            uuid.New().String(),
			BidID:         bid.ID,
			RequirementID: req.ID,
			Score:         result.Score,
			Notes:         result.Explanation,
			Evidence:      result.Evidence,
			IsCompliant:   result.Score >= compliantThreshold,
			AssessedAt:    time.Now().UTC(),
		}
		if err := a.store.SaveSecurityCompliance(ctx, compliance); err != nil {
			return eris.Wrapf(err, "assessor: save compliance for requirement %s", req.ID)
		}
		scored++
		results[req.ID] = map[string]any{
			"title":        req.Title,
			"score":        result.Score,
			"is_compliant": compliance.IsCompliant,
			"explanation":  result.Explanation,
		}
	}

	zap.L().Info("assessor: security compliance assessed",
		zap.String("bid_id", bid.ID),
		zap.Int("requirements", len(requirements)),
		zap.Int("newly_scored", scored),
	)

	if a.reviews != nil && scored > 0 {
		a.openReview(ctx, model.ReviewTypeSecurityAssessment, rfp.ID, bid.ID, map[string]any{
			"requirement_compliance": results,
		})
	}
	return nil
}

type securityScore struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
	Evidence    string `json:"evidence"`
	Status      string `json:"status"`
}

// evaluateSecurityCompliance never fails: gateway errors degrade to a zero
// score with the error recorded in the explanation.
func (a *Assessor) evaluateSecurityCompliance(ctx context.Context, req model.SecurityRequirement, bidText string) securityScore {
	var b strings.Builder
	b.WriteString("Analyze this bid's compliance with the following security requirement:\n\n")
	fmt.Fprintf(&b, "Requirement: %s\n", req.Title)
	fmt.Fprintf(&b, "Description: %s\n", req.Description)
	fmt.Fprintf(&b, "Framework: %s\n", req.Framework)
	if req.ControlID != "" {
		fmt.Fprintf(&b, "ID: %s\n", req.ControlID)
	}
	b.WriteString(`
Provide a compliance score from 0-100, where:
- 0-39: Non-compliant, does not address the requirement
- 40-69: Partially compliant, addresses some aspects but has gaps
- 70-89: Mostly compliant, addresses most aspects with minor gaps
- 90-100: Fully compliant, comprehensively addresses all aspects

Also provide a detailed explanation of your assessment and any evidence found in the bid.

Format your response as valid JSON with the following structure:
{
    "score": number,
    "explanation": string,
    "evidence": string,
    "status": string
}`)

	var result securityScore
	if err := gateway.AnalyzeJSON(ctx, a.gw, b.String(), bidText, &result); err != nil {
		zap.L().Warn("assessor: security compliance call failed",
			zap.String("requirement_id", req.ID),
			zap.Error(err),
		)
		return securityScore{
			Score:       0,
			Explanation: "Error: " + err.Error(),
			Evidence:    "None",
			Status:      "error",
		}
	}
	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}
	return result
}

const extractSecurityPrompt = `Extract all security requirements from this RFP.
For each requirement, identify:
1. The security framework it belongs to (e.g., NIST, FedRAMP, CMMC, etc.)
2. The requirement ID if available (e.g., AC-2, IA-4)
3. The requirement title
4. The detailed description
5. The compliance level (required, recommended, or optional)

Format your response as a JSON array of objects with the following structure:
[
    {
        "framework": string,
        "requirement_id": string,
        "title": string,
        "description": string,
        "compliance_level": string
    }
]`

// extractSecurityRequirements pulls security requirements out of the RFP
// text and persists them for reuse across bids.
func (a *Assessor) extractSecurityRequirements(ctx context.Context, rfp *model.RFP) ([]model.SecurityRequirement, error) {
	rfpText, err := a.extractor.Extract(ctx, rfp.DocumentRef)
	if err != nil {
		return nil, eris.Wrap(err, "assessor: extract rfp text")
	}

	var raw []struct {
		Framework       string `json:"framework"`
		RequirementID   string `json:"requirement_id"`
		Title           string `json:"title"`
		Description     string `json:"description"`
		ComplianceLevel string `json:"compliance_level"`
	}
	if err := gateway.AnalyzeJSON(ctx, a.gw, extractSecurityPrompt, rfpText, &raw); err != nil {
		zap.L().Warn("assessor: security requirement extraction failed",
			zap.String("rfp_id", rfp.ID),
			zap.Error(err),
		)
		return nil, nil
	}

	requirements := make([]model.SecurityRequirement, 0, len(raw))
	for _, r := range raw {
		title := r.Title
		if title == "" {
			title = "Unknown Requirement"
		}
		requirements = append(requirements, model.SecurityRequirement{
			ID:              uuid.New().String(),
			RFPID:           rfp.ID,
			Framework:       mapFramework(r.Framework),
			ControlID:       r.RequirementID,
			Title:           title,
			Description:     r.Description,
			ComplianceLevel: mapComplianceLevel(r.ComplianceLevel),
		})
	}
	if len(requirements) == 0 {
		return nil, nil
	}

	if err := a.store.CreateSecurityRequirements(ctx, requirements); err != nil {
		return nil, eris.Wrap(err, "assessor: save security requirements")
	}
	zap.L().Info("assessor: security requirements extracted",
		zap.String("rfp_id", rfp.ID),
		zap.Int("count", len(requirements)),
	)
	return requirements, nil
}

func mapFramework(s string) model.SecurityFramework {
	lower := strings.ToLower(s)
	for _, fw := range model.SecurityFrameworks {
		if fw == model.FrameworkOther {
			continue
		}
		if strings.Contains(lower, strings.ToLower(string(fw))) {
			return fw
		}
	}
	return model.FrameworkOther
}

func mapComplianceLevel(s string) model.ComplianceLevel {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "recommend"):
		return model.ComplianceRecommended
	case strings.Contains(lower, "option"):
		return model.ComplianceOptional
	}
	return model.ComplianceRequired
}

// openReview opens a human review over assessment output. Failures are
// logged, never propagated; the assessment result stands either way.
func (a *Assessor) openReview(ctx context.Context, reviewType model.ReviewType, rfpID, bidID string, assessment map[string]any) {
	_, err := a.reviews.CreateReviewRequest(ctx, review.CreateParams{
		ReviewType:   reviewType,
		AIAssessment: assessment,
		RFPID:        rfpID,
		BidID:        bidID,
	})
	if err != nil {
		zap.L().Warn("assessor: failed to open review",
			zap.String("type", string(reviewType)),
			zap.String("bid_id", bidID),
			zap.Error(err),
		)
	}
}
