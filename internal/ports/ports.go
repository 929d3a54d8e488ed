package ports

import (
	"context"
	"time"

	"AINewsBrief/internal/domain"
)

// ArticleSource pulls fresh articles from every enabled upstream.
// Per-source failures are returned alongside whatever was fetched.
type ArticleSource interface {
	FetchAll(ctx context.Context, since time.Time) ([]domain.Article, []error)
}

// HistorySnapshot is the read-only view of delivered articles used for dedup.
type HistorySnapshot struct {
	URLs   map[string]struct{}
	Titles []string
}

// HasURL reports whether the URL was delivered before.
func (s HistorySnapshot) HasURL(url string) bool {
	_, ok := s.URLs[url]
	return ok
}

// HistoryStats summarizes the stored history.
type HistoryStats struct {
	Records int
	Oldest  time.Time
	Newest  time.Time
}

// HistoryStore persists delivered articles for cross-run deduplication.
type HistoryStore interface {
	Load(ctx context.Context) (HistorySnapshot, error)
	Record(ctx context.Context, articles []domain.Article) error
	Prune(ctx context.Context) (int, error)
	Stats(ctx context.Context) (HistoryStats, error)
}

// Analyzer scores articles with a language model.
type Analyzer interface {
	Analyze(ctx context.Context, article domain.Article) (domain.ArticleReview, error)
	DeepAnalyze(ctx context.Context, review domain.ArticleReview) (domain.DeepAnalysis, error)
}

// Notifier delivers the rendered report to a chat.
type Notifier interface {
	Send(ctx context.Context, text string) (int64, error)
	SendError(ctx context.Context, message string) error
}

// ReportSaver keeps a copy of the rendered report.
type ReportSaver interface {
	Save(content string, day time.Time) (string, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

type runIDKey struct{}

// ContextWithRunID tags ctx with the id of the current pipeline run.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run id set by ContextWithRunID, if any.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
