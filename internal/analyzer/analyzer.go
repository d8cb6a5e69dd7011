// Package analyzer extracts requirements and technical specifications from
// RFP documents.
package analyzer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verisource/procure-cli/internal/config"
	"github.com/verisource/procure-cli/internal/evaluator"
	"github.com/verisource/procure-cli/internal/extract"
	"github.com/verisource/procure-cli/internal/gateway"
	"github.com/verisource/procure-cli/internal/model"
	"github.com/verisource/procure-cli/internal/review"
)

// Store is the persistence surface the analyzer needs.
type Store interface {
	GetRFP(ctx context.Context, rfpID string) (*model.RFP, error)

	// SaveRFPAnalysis persists the extracted items and marks the RFP
	// processed in one transaction.
	SaveRFPAnalysis(ctx context.Context, rfp *model.RFP, requirements []model.Requirement, specs []model.TechnicalSpecification) error
}

// ReviewOpener opens human review requests over extraction output.
type ReviewOpener interface {
	CreateReviewRequest(ctx context.Context, params review.CreateParams) (*model.HumanReview, error)
}

// Analyzer extracts structured procurement data from RFP text.
type Analyzer struct {
	store     Store
	extractor extract.Extractor
	gw        gateway.Gateway
	cfg       config.EvaluatorConfig
	reviews   ReviewOpener
}

// New creates an Analyzer. reviews may be nil.
func New(store Store, extractor extract.Extractor, gw gateway.Gateway, cfg config.EvaluatorConfig, reviews ReviewOpener) *Analyzer {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	return &Analyzer{store: store, extractor: extractor, gw: gw, cfg: cfg, reviews: reviews}
}

const requirementsPrompt = `You are an expert in government procurement. Analyze this RFP document section and identify all requirements. For each requirement, provide:
1. Category (Technical, Financial, Compliance, etc.)
2. Description (the actual requirement text)
3. Priority (Must-have, Should-have, or Nice-to-have)
4. Section (which part of the RFP this was found in)

Respond with a JSON array of requirements in the following format:
[
    {
        "category": "Technical",
        "description": "The system must support 10Gbps throughput",
        "priority": "Must-have",
        "section": "Network Requirements"
    }
]`

const techSpecsPrompt = `You are an expert in technology procurement for government connectivity projects. Analyze this RFP document section and identify all technical specifications. For each specification, provide:
1. Name (short identifier)
2. Description (detailed specification)
3. Category (Network, Hardware, Software, Security, etc.)
4. Measurement unit (if applicable)
5. Minimum value (if applicable)
6. Maximum value (if applicable)
7. Is mandatory (true/false)

Respond with a JSON array of technical specifications in the following format:
[
    {
        "name": "Network Throughput",
        "description": "Minimum network throughput for backbone connections",
        "category": "Network",
        "measurement_unit": "Gbps",
        "min_value": "10",
        "max_value": null,
        "is_mandatory": true
    }
]`

type rawRequirement struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Section     string `json:"section"`
}

type rawSpec struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	MeasurementUnit string `json:"measurement_unit"`
	MinValue        string `json:"min_value"`
	MaxValue        string `json:"max_value"`
	IsMandatory     *bool  `json:"is_mandatory"`
}

// AnalyzeRFP extracts requirements and technical specifications from the
// RFP's document text, chunk by chunk. A chunk that fails to parse is
// skipped; the run fails only when nothing at all could be extracted or
// persistence fails.
func (a *Analyzer) AnalyzeRFP(ctx context.Context, rfpID string) error {
	rfp, err := a.store.GetRFP(ctx, rfpID)
	if err != nil {
		return eris.Wrapf(err, "analyzer: load rfp %s", rfpID)
	}

	text, err := a.extractor.Extract(ctx, rfp.DocumentRef)
	if err != nil {
		return eris.Wrap(err, "analyzer: extract rfp text")
	}
	if text == "" {
		return eris.Errorf("analyzer: rfp %s has no document text", rfpID)
	}

	chunks := evaluator.ChunkText(text, a.cfg.ChunkSize, a.cfg.ChunkOverlap)

	var requirements []model.Requirement
	var specs []model.TechnicalSpecification

	// Chunks are independent so extraction runs concurrently; results are
	// appended in chunk order afterwards to keep output deterministic.
	reqByChunk := make([][]rawRequirement, len(chunks))
	specByChunk := make([][]rawSpec, len(chunks))

	g := new(errgroup.Group)
	g.SetLimit(a.cfg.MaxConcurrent)
	for i, chunk := range chunks {
		g.Go(func() error {
			var reqs []rawRequirement
			if err := gateway.AnalyzeJSON(ctx, a.gw, requirementsPrompt, chunk, &reqs); err != nil {
				zap.L().Warn("analyzer: requirement extraction failed for chunk",
					zap.Int("chunk", i), zap.Error(err))
			} else {
				reqByChunk[i] = reqs
			}

			var ss []rawSpec
			if err := gateway.AnalyzeJSON(ctx, a.gw, techSpecsPrompt, chunk, &ss); err != nil {
				zap.L().Warn("analyzer: spec extraction failed for chunk",
					zap.Int("chunk", i), zap.Error(err))
			} else {
				specByChunk[i] = ss
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, reqs := range reqByChunk {
		for _, r := range reqs {
			requirements = append(requirements, model.Requirement{
				ID:          uuid.New().String(),
				RFPID:       rfp.ID,
				Category:    defaultStr(r.Category, "Uncategorized"),
				Description: r.Description,
				Priority:    defaultStr(r.Priority, "Should-have"),
				Section:     defaultStr(r.Section, "General"),
			})
		}
	}
	for _, ss := range specByChunk {
		for _, s := range ss {
			mandatory := true
			if s.IsMandatory != nil {
				mandatory = *s.IsMandatory
			}
			specs = append(specs, model.TechnicalSpecification{
				ID:              uuid.New().String(),
				RFPID:           rfp.ID,
				Name:            s.Name,
				Description:     s.Description,
				Category:        defaultStr(s.Category, "Uncategorized"),
				MeasurementUnit: s.MeasurementUnit,
				MinValue:        s.MinValue,
				MaxValue:        s.MaxValue,
				IsMandatory:     mandatory,
			})
		}
	}

	if len(requirements) == 0 && len(specs) == 0 {
		return eris.Errorf("analyzer: nothing extracted from rfp %s", rfpID)
	}

	now := time.Now().UTC()
	rfp.IsProcessed = true
	rfp.ProcessedAt = &now
	if err := a.store.SaveRFPAnalysis(ctx, rfp, requirements, specs); err != nil {
		return eris.Wrapf(err, "analyzer: save analysis for rfp %s", rfpID)
	}

	zap.L().Info("analyzer: rfp analyzed",
		zap.String("rfp_id", rfp.ID),
		zap.Int("requirements", len(requirements)),
		zap.Int("tech_specs", len(specs)),
	)

	if a.reviews != nil {
		a.openExtractionReview(ctx, rfp, requirements, specs)
	}
	return nil
}

func (a *Analyzer) openExtractionReview(ctx context.Context, rfp *model.RFP, requirements []model.Requirement, specs []model.TechnicalSpecification) {
	reqItems := make([]any, 0, len(requirements))
	for _, r := range requirements {
		reqItems = append(reqItems, map[string]any{
			"id":          r.ID,
			"category":    r.Category,
			"description": r.Description,
			"priority":    r.Priority,
			"section":     r.Section,
		})
	}
	specItems := make([]any, 0, len(specs))
	for _, s := range specs {
		specItems = append(specItems, map[string]any{
			"id":           s.ID,
			"name":         s.Name,
			"category":     s.Category,
			"is_mandatory": s.IsMandatory,
		})
	}

	_, err := a.reviews.CreateReviewRequest(ctx, review.CreateParams{
		ReviewType: model.ReviewTypeRequirementExtraction,
		AIAssessment: map[string]any{
			"requirements":             reqItems,
			"technical_specifications": specItems,
		},
		RFPID: rfp.ID,
	})
	if err != nil {
		zap.L().Warn("analyzer: failed to open extraction review",
			zap.String("rfp_id", rfp.ID),
			zap.Error(err),
		)
	}
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
