package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/filter"
	"AINewsBrief/internal/ports"
	"AINewsBrief/internal/report"
	"AINewsBrief/internal/retry"
	"AINewsBrief/internal/scoring"
)

var runNow = time.Date(2025, time.November, 8, 0, 0, 0, 0, time.UTC)

type fakeSource struct {
	articles []domain.Article
	errs     []error
	since    time.Time
}

func (f *fakeSource) FetchAll(_ context.Context, since time.Time) ([]domain.Article, []error) {
	f.since = since
	return f.articles, f.errs
}

type fakeHistory struct {
	mu       sync.Mutex
	snapshot ports.HistorySnapshot
	loadErr  error
	recorded []domain.Article
}

func (f *fakeHistory) Load(context.Context) (ports.HistorySnapshot, error) {
	return f.snapshot, f.loadErr
}

func (f *fakeHistory) Record(_ context.Context, articles []domain.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, articles...)
	return nil
}

func (f *fakeHistory) Prune(context.Context) (int, error) { return 0, nil }

func (f *fakeHistory) Stats(context.Context) (ports.HistoryStats, error) {
	return ports.HistoryStats{}, nil
}

type scriptedAnalyzer struct {
	mu     sync.Mutex
	scores map[string][2]int
	calls  int
}

func (s *scriptedAnalyzer) Analyze(_ context.Context, a domain.Article) (domain.ArticleReview, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	sc, ok := s.scores[a.URL]
	if !ok {
		return domain.ArticleReview{}, errors.New("parse analysis: no json object found")
	}
	return domain.ArticleReview{
		TitleCN:          a.Title + " 中文",
		Summary:          "summary",
		Category:         domain.CategoryResearch,
		ImportanceScore:  sc[0],
		AIRelevanceScore: sc[1],
	}, nil
}

func (s *scriptedAnalyzer) DeepAnalyze(context.Context, domain.ArticleReview) (domain.DeepAnalysis, error) {
	return domain.DeepAnalysis{
		TechnicalContext: domain.TechnicalContext{Background: "deep background"},
		KeyInsights:      []string{"insight"},
		Impact:           domain.Impact{ImmediateImpact: "now", LongTermImpact: "later", ImpactLevel: 4},
	}, nil
}

type fakeNotifier struct {
	sent    []string
	errors  []string
	sendErr error
}

func (f *fakeNotifier) Send(_ context.Context, text string) (int64, error) {
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.sent = append(f.sent, text)
	return 777, nil
}

func (f *fakeNotifier) SendError(_ context.Context, msg string) error {
	f.errors = append(f.errors, msg)
	return nil
}

type memorySaver struct {
	content string
	err     error
}

func (m *memorySaver) Save(content string, day time.Time) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.content = content
	return "reports/" + report.FileName(day), nil
}

func article(url, title string, age time.Duration) domain.Article {
	return domain.Article{
		ID:          url,
		Title:       title,
		URL:         url,
		Source:      "TechCrunch AI",
		PublishedAt: runNow.Add(-age),
		Content:     strings.Repeat("content ", 20),
		Priority:    domain.DefaultPriority,
	}
}

type fixture struct {
	source   *fakeSource
	history  *fakeHistory
	analyzer *scriptedAnalyzer
	notifier *fakeNotifier
	saver    *memorySaver
}

func newFixture() *fixture {
	return &fixture{
		source: &fakeSource{articles: []domain.Article{
			article("https://x/1", "OpenAI ships a reasoning model", time.Hour),
			article("https://x/2", "Startup raises seed round for robots", 2*time.Hour),
			article("https://x/3", "Benchmark paper questions leaderboard results", 3*time.Hour),
			article("https://x/old", "Last week's announcement", 72*time.Hour),
		}},
		history: &fakeHistory{snapshot: ports.HistorySnapshot{URLs: map[string]struct{}{}}},
		analyzer: &scriptedAnalyzer{scores: map[string][2]int{
			"https://x/1": {9, 10},
			"https://x/2": {6, 3},
			"https://x/3": {6, 8},
		}},
		notifier: &fakeNotifier{},
		saver:    &memorySaver{},
	}
}

func (f *fixture) pipeline(dryRun bool) *Pipeline {
	policy := retry.Policy{MaxAttempts: 1}
	return NewPipeline(PipelineDeps{
		Source:  f.source,
		History: f.history,
		Filter: filter.New(filter.Config{
			MaxAge:              24 * time.Hour,
			MinContentLength:    100,
			SimilarityThreshold: 0.8,
			MaxArticles:         50,
		}, nil),
		Scorer: scoring.NewScorer(f.analyzer, scoring.Config{
			BatchSize:           5,
			MinImportanceScore:  5,
			MinAIRelevanceScore: 5,
		}, policy, nil),
		Deep:      scoring.NewDeepScorer(f.analyzer, 8, policy, nil),
		Formatter: report.Formatter{Provider: "anthropic", Model: "claude"},
		Saver:     f.saver,
		Notifier:  f.notifier,
		MaxAge:    24 * time.Hour,
		DryRun:    dryRun,
		Now:       func() time.Time { return runNow },
	})
}

func TestPipelineRunDelivers(t *testing.T) {
	t.Parallel()

	f := newFixture()
	state, err := f.pipeline(false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !f.source.since.Equal(runNow.Add(-24 * time.Hour)) {
		t.Fatalf("unexpected since: %v", f.source.since)
	}
	if state.RunID == "" {
		t.Fatalf("run id missing")
	}
	if len(state.Fetched) != 4 || len(state.Filtered) != 3 || len(state.Scored) != 3 {
		t.Fatalf("unexpected stage counts: fetched=%d filtered=%d scored=%d", len(state.Fetched), len(state.Filtered), len(state.Scored))
	}
	if len(state.Admitted) != 2 {
		t.Fatalf("expected 2 admitted, got %d", len(state.Admitted))
	}
	if len(state.Deep) != 1 || state.Deep[0].Review.Article.URL != "https://x/1" {
		t.Fatalf("expected one deep review for the top story, got %+v", state.Deep)
	}
	if state.MessageID != 777 || !state.Delivered {
		t.Fatalf("delivery not recorded: %+v", state)
	}
	if state.ReportPath != "reports/ai-news-brief-2025-11-08.md" {
		t.Fatalf("unexpected report path: %s", state.ReportPath)
	}
	if len(state.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", state.Errors)
	}

	if len(f.notifier.sent) != 1 || f.notifier.sent[0] != state.Report {
		t.Fatalf("report not sent")
	}
	if !strings.Contains(state.Report, "OpenAI ships a reasoning model 中文") || strings.Contains(state.Report, "seed round for robots 中文") {
		t.Fatalf("report should list only admitted stories:\n%s", state.Report)
	}
	if f.saver.content != state.Report {
		t.Fatalf("saved report differs from the sent one")
	}

	if len(f.history.recorded) != 2 {
		t.Fatalf("admitted articles should be recorded, got %d", len(f.history.recorded))
	}
}

func TestPipelineRunSendFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.notifier.sendErr = errors.New("telegram error: 400 Bad Request")

	state, err := f.pipeline(false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Delivered || len(f.history.recorded) != 0 {
		t.Fatalf("history must not be recorded when delivery fails")
	}
	if len(f.notifier.errors) != 1 || !strings.Contains(f.notifier.errors[0], "400 Bad Request") {
		t.Fatalf("error notification not sent: %v", f.notifier.errors)
	}
	if len(state.Errors) != 1 || !strings.HasPrefix(state.Errors[0], "send:") {
		t.Fatalf("unexpected errors: %v", state.Errors)
	}
}

func TestPipelineRunDryRun(t *testing.T) {
	t.Parallel()

	f := newFixture()
	state, err := f.pipeline(true).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.notifier.sent) != 0 || len(f.history.recorded) != 0 {
		t.Fatalf("dry run must not deliver or record history")
	}
	if state.Report == "" || f.saver.content == "" {
		t.Fatalf("dry run should still render and save the report")
	}
}

func TestPipelineRunAccumulatesErrors(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.source.articles = append(f.source.articles, article("https://x/broken", "Model output was not json at all", time.Hour))
	f.source.errs = []error{errors.New("scan site reddit: 503")}
	f.history.loadErr = errors.New("permission denied")
	f.saver.err = errors.New("disk full")

	state, err := f.pipeline(false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"fetch: scan site reddit: 503", "history load: permission denied", "score: analysis failed for 1 of 4 articles", "report save: disk full"}
	if len(state.Errors) != len(want) {
		t.Fatalf("expected %d errors, got %v", len(want), state.Errors)
	}
	for i := range want {
		if state.Errors[i] != want[i] {
			t.Fatalf("error %d = %q, want %q", i, state.Errors[i], want[i])
		}
	}
	if !state.Delivered {
		t.Fatalf("errors in earlier stages must not block delivery")
	}
	if !strings.Contains(state.Report, "503") {
		t.Fatalf("report should list accumulated errors:\n%s", state.Report)
	}
}

func TestPipelineRunEmptyStillSends(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.source.articles = nil

	state, err := f.pipeline(false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.analyzer.calls != 0 {
		t.Fatalf("nothing to score, analyzer should not be called")
	}
	if len(f.notifier.sent) != 1 || !strings.Contains(f.notifier.sent[0], "今日沒有重大 AI 新聞") {
		t.Fatalf("a no-news report should still be delivered: %v", f.notifier.sent)
	}
	if len(f.history.recorded) != 0 {
		t.Fatalf("nothing to record")
	}
}

func TestPipelineRunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newFixture()
	state, err := f.pipeline(false).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if len(f.notifier.sent) != 0 || len(state.Errors) != 1 {
		t.Fatalf("cancelled run should stop before delivery: %v", state.Errors)
	}
}
