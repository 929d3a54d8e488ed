package scoring

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/ports"
	"AINewsBrief/internal/retry"
)

const (
	maxTitleLen   = 200
	maxSummaryLen = 150
	maxInsightLen = 100
)

// Config tunes batching and admission.
type Config struct {
	BatchSize           int
	BatchDelay          time.Duration
	MinImportanceScore  int
	MinAIRelevanceScore int
}

// Scorer runs the analysis capability over a batch of articles.
type Scorer struct {
	analyzer ports.Analyzer
	cfg      Config
	policy   retry.Policy
	wait     retry.Sleeper
	now      func() time.Time
	logger   *slog.Logger
}

// NewScorer wires the analyzer with batching and retry settings.
func NewScorer(analyzer ports.Analyzer, cfg Config, policy retry.Policy, log *slog.Logger) *Scorer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scorer{
		analyzer: analyzer,
		cfg:      cfg,
		policy:   policy,
		wait:     sleepCtx,
		now:      time.Now,
		logger:   log,
	}
}

// ScoreAll scores every article and returns one review per input, in input order.
// Articles whose analysis fails come back as zero-scored fallback reviews.
func (s *Scorer) ScoreAll(ctx context.Context, articles []domain.Article) []domain.ArticleReview {
	reviews := make([]domain.ArticleReview, len(articles))
	if len(articles) == 0 {
		return reviews
	}

	for start := 0; start < len(articles); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(articles))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				reviews[i] = s.scoreOne(ctx, articles[i])
				return nil
			})
		}
		_ = g.Wait()

		s.logger.Debug("scored batch", "from", start, "to", end, "total", len(articles))

		if end < len(articles) && s.cfg.BatchDelay > 0 {
			if err := s.wait(ctx, s.cfg.BatchDelay); err != nil {
				for i := end; i < len(articles); i++ {
					reviews[i] = domain.FallbackReview(articles[i], s.now())
				}
				s.logger.Warn("scoring interrupted", "remaining", len(articles)-end, "error", err)
				return reviews
			}
		}
	}
	return reviews
}

func (s *Scorer) scoreOne(ctx context.Context, article domain.Article) domain.ArticleReview {
	var review domain.ArticleReview
	err := retry.DoWithSleeper(ctx, s.policy, s.wait, func(ctx context.Context) error {
		var err error
		review, err = s.analyzer.Analyze(ctx, article)
		return err
	})
	if err != nil {
		s.logger.Warn("article analysis failed", "title", truncate(article.Title, 50), "error", err)
		return domain.FallbackReview(article, s.now())
	}

	review.Article = article
	review.TitleCN = truncate(review.TitleCN, maxTitleLen)
	review.Summary = truncate(review.Summary, maxSummaryLen)
	review.Insight = truncate(review.Insight, maxInsightLen)
	review.ImportanceScore = clamp(review.ImportanceScore)
	review.AIRelevanceScore = clamp(review.AIRelevanceScore)
	if review.Category == "" {
		review.Category = domain.CategoryTools
	}
	if review.ScoredAt.IsZero() {
		review.ScoredAt = s.now()
	}
	return review
}

// Admit keeps reviews that pass both thresholds, applying importance first and relevance second.
func (s *Scorer) Admit(reviews []domain.ArticleReview) []domain.ArticleReview {
	byImportance := FilterImportance(reviews, s.cfg.MinImportanceScore)
	admitted := FilterRelevance(byImportance, s.cfg.MinAIRelevanceScore)
	s.logger.Info("admission done",
		"scored", len(reviews),
		"after_importance", len(byImportance),
		"admitted", len(admitted),
		"min_importance", s.cfg.MinImportanceScore,
		"min_ai_relevance", s.cfg.MinAIRelevanceScore,
	)
	return admitted
}

// FilterImportance keeps reviews with ImportanceScore >= threshold.
func FilterImportance(reviews []domain.ArticleReview, threshold int) []domain.ArticleReview {
	out := make([]domain.ArticleReview, 0, len(reviews))
	for _, r := range reviews {
		if r.ImportanceScore >= threshold {
			out = append(out, r)
		}
	}
	return out
}

// FilterRelevance keeps reviews with AIRelevanceScore >= threshold.
func FilterRelevance(reviews []domain.ArticleReview, threshold int) []domain.ArticleReview {
	out := make([]domain.ArticleReview, 0, len(reviews))
	for _, r := range reviews {
		if r.AIRelevanceScore >= threshold {
			out = append(out, r)
		}
	}
	return out
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
