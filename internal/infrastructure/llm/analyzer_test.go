package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"AINewsBrief/internal/domain"
)

type stubCompleter struct {
	reply  string
	err    error
	system string
	user   string
}

func (s *stubCompleter) Complete(_ context.Context, system, user string) (string, error) {
	s.system, s.user = system, user
	return s.reply, s.err
}

func sampleArticle() domain.Article {
	return domain.Article{
		Title:   "OpenAI releases GPT-5",
		URL:     "https://openai.com/gpt-5",
		Source:  "OpenAI Blog",
		Content: strings.Repeat("c", 3000),
	}
}

func TestAnalyzeParsesAndTruncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("長", 400)
	stub := &stubCompleter{reply: "```json\n{" +
		`"title_cn": "` + long + `",` +
		`"summary": "` + long + `",` +
		`"category": "research",` +
		`"importance_score": 12,` +
		`"ai_relevance_score": "9",` +
		`"insight": "` + long + `"` +
		"}\n```"}

	a := NewAnalyzer(stub, AnalyzerConfig{}, nil)
	review, err := a.Analyze(context.Background(), sampleArticle())
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	if utf8.RuneCountInString(review.TitleCN) != 200 {
		t.Fatalf("title not truncated: %d", utf8.RuneCountInString(review.TitleCN))
	}
	if utf8.RuneCountInString(review.Summary) != 150 {
		t.Fatalf("summary not truncated: %d", utf8.RuneCountInString(review.Summary))
	}
	if utf8.RuneCountInString(review.Insight) != 100 {
		t.Fatalf("insight not truncated: %d", utf8.RuneCountInString(review.Insight))
	}
	if review.Category != domain.CategoryResearch {
		t.Fatalf("unexpected category: %s", review.Category)
	}
	if review.ImportanceScore != 10 || review.AIRelevanceScore != 9 {
		t.Fatalf("unexpected scores: %d/%d", review.ImportanceScore, review.AIRelevanceScore)
	}
	if strings.Count(stub.user, "c") < 2000 || strings.Contains(stub.user, strings.Repeat("c", 2001)) {
		t.Fatalf("content preview should be capped at 2000 characters")
	}
}

func TestAnalyzeUnknownCategory(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{reply: `{"title_cn":"t","summary":"s","category":"Gossip","importance_score":6,"ai_relevance_score":7,"insight":"i"}`}
	review, err := NewAnalyzer(stub, AnalyzerConfig{}, nil).Analyze(context.Background(), sampleArticle())
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if review.Category != domain.CategoryTools {
		t.Fatalf("expected Tools/Products, got %s", review.Category)
	}
}

func TestAnalyzeMissingRelevanceLenient(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{reply: `{"title_cn":"t","summary":"s","category":"Business","importance_score":6,"insight":"i"}`}
	review, err := NewAnalyzer(stub, AnalyzerConfig{StrictValidation: false}, nil).Analyze(context.Background(), sampleArticle())
	if err != nil {
		t.Fatalf("lenient mode should not fail: %v", err)
	}
	if review.AIRelevanceScore != 5 {
		t.Fatalf("expected injected relevance 5, got %d", review.AIRelevanceScore)
	}
}

func TestAnalyzeMissingRelevanceStrict(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{reply: `{"title_cn":"t","summary":"s","category":"Business","importance_score":6,"insight":"i"}`}
	_, err := NewAnalyzer(stub, AnalyzerConfig{StrictValidation: true}, nil).Analyze(context.Background(), sampleArticle())
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse in strict mode, got %v", err)
	}
	if !strings.Contains(err.Error(), "ai_relevance_score") {
		t.Fatalf("error should name the field: %v", err)
	}
}

func TestAnalyzeMissingRequiredField(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{reply: `{"title_cn":"t","category":"Business","importance_score":6,"ai_relevance_score":7}`}
	_, err := NewAnalyzer(stub, AnalyzerConfig{}, nil).Analyze(context.Background(), sampleArticle())
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestAnalyzePropagatesTransportError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("status 429 Too Many Requests")
	_, err := NewAnalyzer(&stubCompleter{err: sentinel}, AnalyzerConfig{}, nil).Analyze(context.Background(), sampleArticle())
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestDeepAnalyze(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{reply: `{
		"technical_context": {"background": "bg", "key_technologies": ["MoE"]},
		"key_insights": ["a", "b", "c", "d", "e", "f"],
		"impact": {"immediate_impact": "now", "long_term_impact": "later", "affected_sectors": ["NLP"]},
		"guidance": {"for_developers": "try it", "action_items": ["read docs"]},
		"related_resources": [{"title": "paper", "url": "https://arxiv.org/abs/1", "type": "paper"}, {}]
	}`}

	review := domain.ArticleReview{Article: sampleArticle(), TitleCN: "標題", Category: domain.CategoryResearch, ImportanceScore: 9}
	deep, err := NewAnalyzer(stub, AnalyzerConfig{}, nil).DeepAnalyze(context.Background(), review)
	if err != nil {
		t.Fatalf("DeepAnalyze error: %v", err)
	}
	if deep.Impact.ImpactLevel != 3 {
		t.Fatalf("expected default impact level 3, got %d", deep.Impact.ImpactLevel)
	}
	if len(deep.KeyInsights) != 5 {
		t.Fatalf("expected insights capped at 5, got %d", len(deep.KeyInsights))
	}
	if deep.Guidance == nil || deep.Guidance.ForDevelopers != "try it" {
		t.Fatalf("guidance not parsed: %+v", deep.Guidance)
	}
	if len(deep.RelatedResources) != 1 {
		t.Fatalf("empty resources should be skipped: %+v", deep.RelatedResources)
	}
	if !strings.Contains(stub.user, "標題") {
		t.Fatalf("prompt should carry the translated title")
	}
}

func TestDeepAnalyzeMissingImpact(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{reply: `{"technical_context": {"background": "bg"}, "key_insights": ["a"], "impact": {"immediate_impact": "now"}}`}
	_, err := NewAnalyzer(stub, AnalyzerConfig{}, nil).DeepAnalyze(context.Background(), domain.ArticleReview{Article: sampleArticle()})
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}
