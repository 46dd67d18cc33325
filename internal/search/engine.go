// Package search implements the hybrid retrieval core: structural
// filtering of candidates, vector and lexical scoring, and score fusion.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MeganHarrison/alleato-core/internal/model"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/MeganHarrison/alleato-core/internal/vector"
)

// CandidateQuery is handed to a Source. A store honoring PoolLimit loads the
// PoolLimit nearest rows to Embedding under Metric and, separately, the
// PoolLimit best full-text matches for Text, and returns their union.
// WithEmbeddings is false for lexical-only requests.
type CandidateQuery struct {
	Filter         Filter
	Embedding      vector.Embedding
	Metric         vector.Metric
	Text           string
	PoolLimit      int
	WithEmbeddings bool
}

// Source supplies filtered candidates of one kind.
type Source interface {
	Kind() model.SourceKind
	Candidates(ctx context.Context, q CandidateQuery) ([]Candidate, error)
}

type Options struct {
	Dimension           int
	Metric              vector.Metric
	DefaultFusionWeight float64
	MaxMatchCount       int
	PoolLimit           int
	LexicalSaturation   float64
}

type Engine struct {
	sources map[model.SourceKind]Source
	kinds   []model.SourceKind
	sim     *SimilarityScorer
	lex     *LexicalScorer
	opts    Options
}

func NewEngine(opts Options, index LexicalIndex, sources ...Source) *Engine {
	if opts.Dimension <= 0 {
		opts.Dimension = vector.DefaultDimension
	}
	if opts.DefaultFusionWeight < 0 || opts.DefaultFusionWeight > 1 || math.IsNaN(opts.DefaultFusionWeight) {
		opts.DefaultFusionWeight = DefaultFusionWeight
	}
	e := &Engine{
		sources: make(map[model.SourceKind]Source, len(sources)),
		sim:     NewSimilarityScorer(opts.Metric, opts.Dimension),
		opts:    opts,
	}
	if index != nil {
		e.lex = NewLexicalScorer(index, opts.LexicalSaturation)
	}
	for _, s := range sources {
		if _, ok := e.sources[s.Kind()]; !ok {
			e.kinds = append(e.kinds, s.Kind())
		}
		e.sources[s.Kind()] = s
	}
	sort.Slice(e.kinds, func(i, j int) bool { return e.kinds[i] < e.kinds[j] })
	return e
}

// Search runs a request end to end and returns the ranked, truncated list.
// Zero matches is an empty slice, not an error.
func (e *Engine) Search(ctx context.Context, req Request) ([]Ranked, error) {
	p, err := e.plan(req)
	if err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("mode", Mode(req)), zap.Int("match_count", p.MatchCount))
	start := time.Now()

	candidates, err := e.collect(ctx, p)
	if err != nil {
		return nil, err
	}
	var vectorScores, textScores []Scored
	g, gctx := errgroup.WithContext(ctx)
	if p.useVector() {
		g.Go(func() error {
			threshold, count := p.MatchThreshold, p.MatchCount
			if p.useLexical() {
				// fused scores are thresholded and truncated after fusion
				threshold, count = 0, 0
			}
			scores, err := e.sim.Score(gctx, p.embedding, candidates, count, threshold)
			if err != nil {
				return fmt.Errorf("vector scoring: %w", err)
			}
			vectorScores = scores
			return nil
		})
	}
	if p.useLexical() {
		g.Go(func() error {
			scores, err := e.lex.Score(gctx, p.text, candidates)
			if err != nil {
				return fmt.Errorf("lexical scoring: %w", err)
			}
			textScores = scores
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	ranked := Rank(Fuse(vectorScores, textScores, p.weight), p.MatchThreshold, p.MatchCount)
	logger.Debug("search finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("vector_hits", len(vectorScores)),
		zap.Int("text_hits", len(textScores)),
		zap.Int("results", len(ranked)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return ranked, nil
}

func (e *Engine) collect(ctx context.Context, p plan) ([]Candidate, error) {
	kinds := p.Sources
	if len(kinds) == 0 {
		kinds = e.kinds
	}
	q := CandidateQuery{
		Filter:         p.Filter,
		Embedding:      p.embedding,
		Metric:         e.sim.Metric(),
		Text:           p.text,
		PoolLimit:      e.opts.PoolLimit,
		WithEmbeddings: p.useVector(),
	}
	var out []Candidate
	for _, kind := range kinds {
		src, ok := e.sources[kind]
		if !ok {
			return nil, appErr.Invalidf("source %q is not searchable", kind)
		}
		items, err := src.Candidates(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("load %s candidates: %w", kind, err)
		}
		out = append(out, Resolve(items, p.Filter)...)
	}
	return out, nil
}

func (e *Engine) plan(req Request) (plan, error) {
	var p plan
	switch r := req.(type) {
	case VectorQuery:
		p = plan{Params: r.Params, embedding: r.Embedding}
	case *VectorQuery:
		p = plan{Params: r.Params, embedding: r.Embedding}
	case HybridQuery:
		p = plan{Params: r.Params, embedding: r.Embedding, text: r.Text, weight: e.weight(r.FusionWeight)}
	case *HybridQuery:
		p = plan{Params: r.Params, embedding: r.Embedding, text: r.Text, weight: e.weight(r.FusionWeight)}
	case LexicalQuery:
		p = plan{Params: r.Params, text: r.Text}
	case *LexicalQuery:
		p = plan{Params: r.Params, text: r.Text}
	default:
		return plan{}, appErr.Invalidf("unsupported request %T", req)
	}
	if p.MatchCount <= 0 {
		return plan{}, appErr.Invalidf("match_count must be positive")
	}
	if e.opts.MaxMatchCount > 0 && p.MatchCount > e.opts.MaxMatchCount {
		return plan{}, appErr.Invalidf("match_count exceeds %d", e.opts.MaxMatchCount)
	}
	if math.IsNaN(p.MatchThreshold) || p.MatchThreshold < 0 || p.MatchThreshold > 1 {
		return plan{}, appErr.Invalidf("match_threshold must be within [0,1]")
	}
	if math.IsNaN(p.weight) || p.weight < 0 || p.weight > 1 {
		return plan{}, appErr.Invalidf("fusion_weight must be within [0,1]")
	}
	if err := p.Filter.Validate(); err != nil {
		return plan{}, err
	}
	switch req.(type) {
	case VectorQuery, *VectorQuery, HybridQuery, *HybridQuery:
		if err := p.embedding.Validate(e.opts.Dimension); err != nil {
			return plan{}, err
		}
	}
	switch req.(type) {
	case HybridQuery, *HybridQuery, LexicalQuery, *LexicalQuery:
		if !p.useLexical() {
			return plan{}, appErr.Invalidf("query_text is required")
		}
		if e.lex == nil {
			return plan{}, appErr.Invalidf("lexical search is not configured")
		}
	}
	return p, nil
}

func (e *Engine) weight(w *float64) float64 {
	if w == nil {
		return e.opts.DefaultFusionWeight
	}
	return *w
}
