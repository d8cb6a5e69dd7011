package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/verisource/procure-cli/internal/analyzer"
	"github.com/verisource/procure-cli/internal/assessor"
	"github.com/verisource/procure-cli/internal/evaluator"
	"github.com/verisource/procure-cli/internal/extract"
	"github.com/verisource/procure-cli/internal/gateway"
	"github.com/verisource/procure-cli/internal/review"
	"github.com/verisource/procure-cli/internal/store"
)

// newStore opens the configured backend. Callers own Close.
func newStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unknown store driver %q (want sqlite or postgres)", cfg.Store.Driver)
	}
}

// services bundles the wired pipeline components behind a single store
// connection.
type services struct {
	store     store.Store
	reviews   *review.Service
	evaluator *evaluator.Evaluator
	assessor  *assessor.Assessor
	analyzer  *analyzer.Analyzer
}

// buildServices wires the full pipeline: store, extractor, gateway chain,
// review service, and the evaluator with its post-evaluation hook
// (evaluation review + security assessment).
func buildServices(ctx context.Context) (*services, error) {
	st, err := newStore(ctx)
	if err != nil {
		return nil, err
	}

	gw, err := gateway.Build(cfg)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	extractor := extract.NewFileExtractor(cfg.Documents.Dir)
	reviews := review.NewService(st, cfg.Review)
	assess := assessor.New(st, extractor, gw, reviews)

	eval := evaluator.New(st, extractor, gw, cfg.Evaluator)
	eval.AddDownstream(&assessor.EvaluationHook{Assessor: assess, Reviews: reviews})

	return &services{
		store:     st,
		reviews:   reviews,
		evaluator: eval,
		assessor:  assess,
		analyzer:  analyzer.New(st, extractor, gw, cfg.Evaluator, reviews),
	}, nil
}

func (s *services) Close() {
	_ = s.store.Close()
}
