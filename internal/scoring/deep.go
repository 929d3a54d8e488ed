package scoring

import (
	"context"
	"log/slog"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/ports"
	"AINewsBrief/internal/retry"
)

// privilegedImportance is the lower bar for Breaking News and Research stories.
const privilegedImportance = 7

// DeepScorer runs the second, more expensive analysis pass on the strongest stories.
type DeepScorer struct {
	analyzer  ports.Analyzer
	threshold int
	policy    retry.Policy
	wait      retry.Sleeper
	logger    *slog.Logger
}

// NewDeepScorer wires the analyzer with the importance threshold for deep analysis.
func NewDeepScorer(analyzer ports.Analyzer, threshold int, policy retry.Policy, log *slog.Logger) *DeepScorer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &DeepScorer{
		analyzer:  analyzer,
		threshold: threshold,
		policy:    policy,
		wait:      sleepCtx,
		logger:    log,
	}
}

// Qualifies reports whether a review deserves deep analysis.
func (d *DeepScorer) Qualifies(r domain.ArticleReview) bool {
	if r.ImportanceScore >= d.threshold {
		return true
	}
	switch r.Category {
	case domain.CategoryBreakingNews, domain.CategoryResearch:
		return r.ImportanceScore >= privilegedImportance
	}
	return false
}

// SelectCandidates returns the admitted reviews that qualify, preserving order.
func (d *DeepScorer) SelectCandidates(reviews []domain.ArticleReview) []domain.ArticleReview {
	var out []domain.ArticleReview
	for _, r := range reviews {
		if d.Qualifies(r) {
			out = append(out, r)
		}
	}
	return out
}

// Run analyzes candidates one at a time. Failed candidates are left out of the result.
func (d *DeepScorer) Run(ctx context.Context, reviews []domain.ArticleReview) []domain.DeepReview {
	candidates := d.SelectCandidates(reviews)
	d.logger.Info("deep analysis candidates", "count", len(candidates))

	var out []domain.DeepReview
	for _, r := range candidates {
		if ctx.Err() != nil {
			d.logger.Warn("deep analysis interrupted", "error", ctx.Err())
			break
		}

		var analysis domain.DeepAnalysis
		err := retry.DoWithSleeper(ctx, d.policy, d.wait, func(ctx context.Context) error {
			var err error
			analysis, err = d.analyzer.DeepAnalyze(ctx, r)
			return err
		})
		if err != nil {
			d.logger.Warn("deep analysis failed", "title", truncate(r.Article.Title, 50), "error", err)
			continue
		}
		out = append(out, domain.DeepReview{Review: r, Analysis: analysis})
	}
	return out
}
