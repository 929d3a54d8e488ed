// Package filter narrows the fetched batch to a small, deduplicated, priority-ordered set.
//
// Stages run in a fixed order: age, content length, history, intra-batch dedup,
// priority sort, cap. Title similarity is not transitive, so when A~B and B~C but
// not A~C the surviving set depends on input order; the first item seen wins.
package filter

import (
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/ports"
	"AINewsBrief/internal/similarity"
)

// Config tunes the filter stages.
type Config struct {
	MaxAge              time.Duration
	MinContentLength    int
	SimilarityThreshold float64
	MaxArticles         int
}

// Stats records how many articles survived each stage.
type Stats struct {
	Input        int
	AfterAge     int
	AfterLength  int
	AfterHistory int
	AfterDedup   int
	Output       int
}

// Pipeline applies the filter stages.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New builds a filter pipeline.
func New(cfg Config, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{cfg: cfg, logger: log}
}

// Apply runs every stage against the batch. It never adds articles and returns
// at most MaxArticles of them.
func (p *Pipeline) Apply(articles []domain.Article, history ports.HistorySnapshot, now time.Time) ([]domain.Article, Stats) {
	stats := Stats{Input: len(articles)}

	out := ByAge(articles, now, p.cfg.MaxAge)
	stats.AfterAge = len(out)

	out = ByContentLength(out, p.cfg.MinContentLength)
	stats.AfterLength = len(out)

	out = AgainstHistory(out, history, p.cfg.SimilarityThreshold)
	stats.AfterHistory = len(out)

	out = Dedup(out, p.cfg.SimilarityThreshold)
	stats.AfterDedup = len(out)

	SortByPriority(out)
	out = Cap(out, p.cfg.MaxArticles)
	stats.Output = len(out)

	p.logger.Info("filter pipeline done",
		"input", stats.Input,
		"after_age", stats.AfterAge,
		"after_length", stats.AfterLength,
		"after_history", stats.AfterHistory,
		"after_dedup", stats.AfterDedup,
		"output", stats.Output,
	)
	return out, stats
}

// ByAge keeps articles published within maxAge of now. Timestamps are compared in UTC.
func ByAge(articles []domain.Article, now time.Time, maxAge time.Duration) []domain.Article {
	if len(articles) == 0 {
		return nil
	}
	cutoff := now.UTC().Add(-maxAge)
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if !a.PublishedAt.UTC().Before(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

// ByContentLength drops articles whose content has fewer than minLen characters.
func ByContentLength(articles []domain.Article, minLen int) []domain.Article {
	if len(articles) == 0 {
		return nil
	}
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if utf8.RuneCountInString(a.Content) >= minLen {
			out = append(out, a)
		}
	}
	return out
}

// AgainstHistory drops articles already delivered, by URL first and then by title similarity.
func AgainstHistory(articles []domain.Article, history ports.HistorySnapshot, threshold float64) []domain.Article {
	if len(articles) == 0 {
		return nil
	}
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if history.HasURL(a.URL) {
			continue
		}
		if similarToAny(a.Title, history.Titles, threshold) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Dedup keeps the first of every group of articles sharing a URL or a near-identical title.
func Dedup(articles []domain.Article, threshold float64) []domain.Article {
	if len(articles) == 0 {
		return nil
	}
	urls := make(map[string]struct{}, len(articles))
	titles := make([]string, 0, len(articles))
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if _, ok := urls[a.URL]; ok {
			continue
		}
		if similarToAny(a.Title, titles, threshold) {
			continue
		}
		urls[a.URL] = struct{}{}
		titles = append(titles, a.Title)
		out = append(out, a)
	}
	return out
}

// SortByPriority orders articles by source priority, newest first within a bucket.
// The sort is stable.
func SortByPriority(articles []domain.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		pi, pj := SourcePriority(articles[i].Source), SourcePriority(articles[j].Source)
		if pi != pj {
			return pi > pj
		}
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}

// Cap truncates to at most limit articles. A non-positive limit keeps everything.
func Cap(articles []domain.Article, limit int) []domain.Article {
	if limit > 0 && len(articles) > limit {
		return articles[:limit]
	}
	return articles
}

var priorityTable = []struct {
	match    []string
	priority int
}{
	{[]string{"OpenAI Blog", "Anthropic Blog"}, 100},
	{[]string{"Google AI Blog", "DeepMind Blog"}, 95},
	{[]string{"GitHub"}, 80},
	{[]string{"HackerNews"}, 70},
	{[]string{"ArXiv"}, 60},
}

const defaultSourcePriority = 50

// SourcePriority looks up the source bucket by substring match.
func SourcePriority(source string) int {
	for _, row := range priorityTable {
		for _, m := range row.match {
			if strings.Contains(source, m) {
				return row.priority
			}
		}
	}
	return defaultSourcePriority
}

func similarToAny(title string, titles []string, threshold float64) bool {
	for _, t := range titles {
		if similarity.Duplicate(title, t, threshold) {
			return true
		}
	}
	return false
}
