package memory

import (
	"context"
	"log/slog"
	"time"

	"github.com/neuraplay/recall/internal/config"
	"github.com/neuraplay/recall/internal/embedding"
	"github.com/neuraplay/recall/internal/metrics"
)

// Outcome is what a search attempt produced: the hits, the tier that
// served them, and the tiers that were tried and gave nothing.
type Outcome struct {
	Results []SearchResult
	Tier    string
	Failed  []string
}

// Degraded reports whether the request was served below the vector tier.
func (o Outcome) Degraded() bool {
	return o.Tier == SourceText || o.Tier == ""
}

// Orchestrator walks the tier chain for each search. The query text is
// embedded once up front; every tier gets its own deadline and the
// whole walk is capped by the configured ceiling. A search never errors
// to the caller: when every tier comes up empty the outcome is simply
// empty.
type Orchestrator struct {
	embedder embedding.Provider
	tiers    []SimilarityBackend
	cfg      config.SearchConfig
	logger   *slog.Logger
}

func NewOrchestrator(embedder embedding.Provider, tiers []SimilarityBackend, cfg config.SearchConfig, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		embedder: embedder,
		tiers:    tiers,
		cfg:      cfg,
		logger:   logger,
	}
}

func (o *Orchestrator) timeoutFor(tier string) time.Duration {
	switch tier {
	case SourceAccelerated:
		return o.cfg.AcceleratedTimeout
	case SourceVector:
		return o.cfg.VectorTimeout
	default:
		return o.cfg.TextTimeout
	}
}

// Search runs the fallback chain. The first two tiers fall through on
// error or on an empty result set; a successful text-tier answer is
// terminal even when it is empty.
func (o *Orchestrator) Search(ctx context.Context, q Query) Outcome {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Ceiling())
	defer cancel()

	q.Vector = o.embedQuery(ctx, q.Text)
	if q.Limit <= 0 {
		q.Limit = o.cfg.DefaultLimit
	}
	if q.Threshold <= 0 {
		q.Threshold = o.cfg.DefaultThreshold
	}

	var out Outcome
	for i, tier := range o.tiers {
		name := tier.Name()
		last := i == len(o.tiers)-1

		tierCtx, tierCancel := context.WithTimeout(ctx, o.timeoutFor(name))
		start := time.Now()
		results, err := tier.Search(tierCtx, q)
		metrics.SearchTierDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		tierCancel()

		if err != nil {
			o.logger.Warn("search tier failed",
				"tier", name,
				"user_id", q.UserID,
				"error", err,
			)
			out.Failed = append(out.Failed, name)
		} else if len(results) > 0 || last {
			out.Results = results
			out.Tier = name
			metrics.SearchesTotal.WithLabelValues(name).Inc()
			return out
		} else {
			out.Failed = append(out.Failed, name)
		}

		if !last {
			metrics.TierFallbacksTotal.WithLabelValues(name, o.tiers[i+1].Name()).Inc()
		}
	}

	// every tier errored, including the last one
	metrics.SearchesTotal.WithLabelValues("none").Inc()
	return out
}

// embedQuery never fails the search: the chain falls back to the local
// hash model, and a zero vector just means the vector tiers find nothing.
func (o *Orchestrator) embedQuery(ctx context.Context, text string) []float32 {
	vec, err := o.embedder.Embed(ctx, text)
	if err != nil {
		o.logger.Warn("query embedding failed", "error", err)
		return nil
	}
	return vec
}
