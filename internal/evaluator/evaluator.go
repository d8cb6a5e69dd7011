// Package evaluator scores vendor bids against RFP requirements and
// technical specifications and aggregates the results into one overall
// compliance score per bid.
package evaluator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verisource/procure-cli/internal/config"
	"github.com/verisource/procure-cli/internal/extract"
	"github.com/verisource/procure-cli/internal/gateway"
	"github.com/verisource/procure-cli/internal/model"
)

// Store is the persistence surface the evaluator needs.
type Store interface {
	GetBid(ctx context.Context, bidID string) (*model.VendorBid, error)
	GetRFP(ctx context.Context, rfpID string) (*model.RFP, error)
	ListRequirements(ctx context.Context, rfpID string) ([]model.Requirement, error)
	ListTechSpecs(ctx context.Context, rfpID string) ([]model.TechnicalSpecification, error)

	// SaveEvaluation upserts the bid's single AnalysisResult row (keyed on
	// bid ID) and updates the bid's cached total score in one transaction.
	SaveEvaluation(ctx context.Context, analysis *model.AnalysisResult) error
}

// Downstream receives best-effort notifications after a successful
// evaluation commit. Failures are logged and never revert the evaluation.
type Downstream interface {
	EvaluationCompleted(ctx context.Context, bid *model.VendorBid, analysis *model.AnalysisResult)
}

// Evaluator orchestrates one bid evaluation run.
type Evaluator struct {
	store      Store
	extractor  extract.Extractor
	gw         gateway.Gateway
	cfg        config.EvaluatorConfig
	downstream []Downstream
}

// New creates an Evaluator.
func New(store Store, extractor extract.Extractor, gw gateway.Gateway, cfg config.EvaluatorConfig) *Evaluator {
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = 10000
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	return &Evaluator{
		store:     store,
		extractor: extractor,
		gw:        gw,
		cfg:       cfg,
	}
}

// AddDownstream registers a post-commit hook.
func (e *Evaluator) AddDownstream(d Downstream) {
	e.downstream = append(e.downstream, d)
}

// EvaluateBid runs the full evaluation sequence for one bid. A nil return
// means the evaluation committed; any error means nothing was written.
// Individual item-scoring failures degrade to zero scores inside a committed
// result and are reported via log fields, not via the error return.
func (e *Evaluator) EvaluateBid(ctx context.Context, bidID string) error {
	bid, err := e.store.GetBid(ctx, bidID)
	if err != nil {
		return eris.Wrapf(err, "evaluator: load bid %s", bidID)
	}
	if !bid.IsProcessed {
		return eris.Errorf("evaluator: bid %s has not been processed yet", bidID)
	}

	rfp, err := e.store.GetRFP(ctx, bid.RFPID)
	if err != nil {
		return eris.Wrapf(err, "evaluator: load rfp %s", bid.RFPID)
	}

	requirements, err := e.store.ListRequirements(ctx, rfp.ID)
	if err != nil {
		return eris.Wrap(err, "evaluator: list requirements")
	}
	specs, err := e.store.ListTechSpecs(ctx, rfp.ID)
	if err != nil {
		return eris.Wrap(err, "evaluator: list tech specs")
	}
	if len(requirements) == 0 && len(specs) == 0 {
		return eris.Errorf("evaluator: no requirements or technical specifications for rfp %s", rfp.ID)
	}

	rawText, err := e.extractor.Extract(ctx, bid.DocumentRef)
	if err != nil {
		return eris.Wrap(err, "evaluator: extract bid text")
	}

	chunks := ChunkText(rawText, e.cfg.ChunkSize, e.cfg.ChunkOverlap)
	bidText := boundedText(chunks, e.cfg.MaxTextChars)

	// Score every requirement and spec. Calls are independent, so they run
	// concurrently under a limit; one item's failure degrades that item to a
	// zero score and never cancels its siblings.
	reqCompliance := make(map[string]model.ComplianceScore, len(requirements))
	techCompliance := make(map[string]model.ComplianceScore, len(specs))
	var mu sync.Mutex
	var degraded int

	g := new(errgroup.Group)
	g.SetLimit(e.cfg.MaxConcurrent)

	for _, req := range requirements {
		g.Go(func() error {
			score, ok := ScoreRequirement(ctx, e.gw, req, bidText)
			mu.Lock()
			reqCompliance[req.ID] = score
			if !ok {
				degraded++
			}
			mu.Unlock()
			return nil
		})
	}
	for _, spec := range specs {
		g.Go(func() error {
			score, ok := ScoreTechnicalSpecification(ctx, e.gw, spec, bidText)
			mu.Lock()
			techCompliance[spec.ID] = score
			if !ok {
				degraded++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Qualitative analysis: two independent calls, each fails soft.
	requirementsText := formatRequirements(requirements)
	specsText := formatTechSpecs(specs)
	narrative := AnalyzeNarrative(ctx, e.gw, requirementsText, specsText, bidText)
	gaps := AnalyzeGaps(ctx, e.gw, requirementsText, specsText, bidText)

	// Aggregation only runs after every item call has resolved.
	reqScores := make([]int, 0, len(requirements))
	for _, req := range requirements {
		reqScores = append(reqScores, reqCompliance[req.ID].Score)
	}
	techScores := make([]int, 0, len(specs))
	var mandatoryIDs []string
	for _, spec := range specs {
		techScores = append(techScores, techCompliance[spec.ID].Score)
		if spec.IsMandatory {
			mandatoryIDs = append(mandatoryIDs, spec.ID)
		}
	}
	overall := Aggregate(reqScores, techScores, mandatoryIDs, techCompliance)

	analysis := &model.AnalysisResult{
		ID:                    uuid.New().String(),
		BidID:                 bid.ID,
		AnalyzedAt:            time.Now().UTC(),
		RequirementCompliance: reqCompliance,
		TechnicalCompliance:   techCompliance,
		Strengths:             narrative.Strengths,
		Weaknesses:            narrative.Weaknesses,
		GapAnalysis:           gaps,
		OverallScore:          overall,
	}

	if err := e.store.SaveEvaluation(ctx, analysis); err != nil {
		return eris.Wrapf(err, "evaluator: save evaluation for bid %s", bidID)
	}

	bid.TotalScore = &analysis.OverallScore
	zap.L().Info("evaluator: bid evaluated",
		zap.String("bid_id", bidID),
		zap.String("vendor", bid.VendorName),
		zap.Float64("overall_score", overall),
		zap.Int("requirements", len(requirements)),
		zap.Int("tech_specs", len(specs)),
		zap.Int("degraded_items", degraded),
	)

	// Post-commit hooks are fire-and-forget with respect to the scoring
	// outcome.
	for _, d := range e.downstream {
		d.EvaluationCompleted(ctx, bid, analysis)
	}

	return nil
}

func formatRequirements(requirements []model.Requirement) string {
	var parts []string
	for i, req := range requirements {
		parts = append(parts, fmt.Sprintf("Requirement %d (%s, %s): %s", i+1, req.Category, req.Priority, req.Description))
	}
	return strings.Join(parts, "\n")
}

func formatTechSpecs(specs []model.TechnicalSpecification) string {
	var parts []string
	for i, spec := range specs {
		var b strings.Builder
		fmt.Fprintf(&b, "Technical Specification %d (%s): %s - %s", i+1, spec.Category, spec.Name, spec.Description)
		if spec.MinValue != "" {
			fmt.Fprintf(&b, " (Min: %s %s)", spec.MinValue, spec.MeasurementUnit)
		}
		if spec.MaxValue != "" {
			fmt.Fprintf(&b, " (Max: %s %s)", spec.MaxValue, spec.MeasurementUnit)
		}
		if spec.IsMandatory {
			b.WriteString(" (Mandatory)")
		} else {
			b.WriteString(" (Optional)")
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}
