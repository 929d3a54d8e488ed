package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/ports"
)

const (
	maxTitleLen   = 200
	maxSummaryLen = 150
	maxInsightLen = 100

	defaultAIRelevance = 5
	defaultImpactLevel = 3
	maxKeyInsights     = 5
)

// AnalyzerConfig tunes prompt size and validation strictness.
type AnalyzerConfig struct {
	ContentPreview     int
	DeepContentPreview int
	// StrictValidation rejects responses without ai_relevance_score instead of assuming 5.
	StrictValidation bool
}

// Analyzer implements ports.Analyzer over any Completer.
type Analyzer struct {
	completer Completer
	cfg       AnalyzerConfig
	now       func() time.Time
	logger    *slog.Logger
}

var _ ports.Analyzer = (*Analyzer)(nil)

// NewAnalyzer wires a completer with analysis settings.
func NewAnalyzer(completer Completer, cfg AnalyzerConfig, log *slog.Logger) *Analyzer {
	if cfg.ContentPreview <= 0 {
		cfg.ContentPreview = 2000
	}
	if cfg.DeepContentPreview <= 0 {
		cfg.DeepContentPreview = 5000
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{completer: completer, cfg: cfg, now: time.Now, logger: log}
}

// Analyze scores one article. Oversized text fields are truncated, never rejected.
func (a *Analyzer) Analyze(ctx context.Context, article domain.Article) (domain.ArticleReview, error) {
	prompt := fmt.Sprintf(analysisUserTemplate,
		article.Title,
		article.Source,
		article.URL,
		truncateRunes(article.Content, a.cfg.ContentPreview),
	)

	text, err := a.completer.Complete(ctx, analysisSystemPrompt, prompt)
	if err != nil {
		return domain.ArticleReview{}, err
	}

	payload, err := a.parseAnalysis(text)
	if err != nil {
		a.logger.Warn("analysis response rejected", "title", truncateRunes(article.Title, 50), "error", err)
		return domain.ArticleReview{}, err
	}

	return domain.ArticleReview{
		Article:          article,
		TitleCN:          truncateRunes(payload.TitleCN, maxTitleLen),
		Summary:          truncateRunes(payload.Summary, maxSummaryLen),
		Insight:          truncateRunes(payload.Insight, maxInsightLen),
		Category:         domain.ParseCategory(payload.Category),
		ImportanceScore:  clampScore(payload.ImportanceScore.value),
		AIRelevanceScore: clampScore(payload.AIRelevanceScore.value),
		ScoredAt:         a.now(),
	}, nil
}

// DeepAnalyze produces the structured second-pass analysis for a review.
func (a *Analyzer) DeepAnalyze(ctx context.Context, review domain.ArticleReview) (domain.DeepAnalysis, error) {
	prompt := fmt.Sprintf(deepUserTemplate,
		review.TitleCN,
		review.Article.Title,
		review.Article.Source,
		review.Category,
		review.ImportanceScore,
		review.AIRelevanceScore,
		review.Summary,
		review.Insight,
		a.cfg.DeepContentPreview,
		truncateRunes(review.Article.Content, a.cfg.DeepContentPreview),
	)

	text, err := a.completer.Complete(ctx, deepSystemPrompt, prompt)
	if err != nil {
		return domain.DeepAnalysis{}, err
	}

	analysis, err := parseDeep(text)
	if err != nil {
		a.logger.Warn("deep analysis response rejected", "title", truncateRunes(review.Article.Title, 50), "error", err)
		return domain.DeepAnalysis{}, err
	}
	return analysis, nil
}

type analysisPayload struct {
	TitleCN          string   `json:"title_cn"`
	Summary          string   `json:"summary"`
	Category         string   `json:"category"`
	ImportanceScore  flexInt  `json:"importance_score"`
	AIRelevanceScore flexInt  `json:"ai_relevance_score"`
	Insight          string   `json:"insight"`
	raw              rawField
}

type rawField map[string]json.RawMessage

func (a *Analyzer) parseAnalysis(text string) (analysisPayload, error) {
	obj, err := ExtractJSON(text)
	if err != nil {
		return analysisPayload{}, err
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return analysisPayload{}, parseErrorf(text, err.Error())
	}
	if err := json.Unmarshal([]byte(obj), &payload.raw); err != nil {
		return analysisPayload{}, parseErrorf(text, err.Error())
	}

	for _, field := range []string{"title_cn", "summary", "category", "importance_score"} {
		if !payload.raw.present(field) {
			return analysisPayload{}, parseErrorf(text, "missing required field: "+field)
		}
	}
	if !payload.ImportanceScore.set {
		return analysisPayload{}, parseErrorf(text, "importance_score is not a number")
	}

	if !payload.raw.present("ai_relevance_score") || !payload.AIRelevanceScore.set {
		if a.cfg.StrictValidation {
			return analysisPayload{}, parseErrorf(text, "missing required field: ai_relevance_score")
		}
		payload.AIRelevanceScore = flexInt{value: defaultAIRelevance, set: true}
	}
	return payload, nil
}

func (r rawField) present(key string) bool {
	v, ok := r[key]
	return ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

type deepPayload struct {
	TechnicalContext *struct {
		Background      string   `json:"background"`
		KeyTechnologies []string `json:"key_technologies"`
	} `json:"technical_context"`
	KeyInsights []string `json:"key_insights"`
	Impact      *struct {
		ImmediateImpact string   `json:"immediate_impact"`
		LongTermImpact  string   `json:"long_term_impact"`
		AffectedSectors []string `json:"affected_sectors"`
		ImpactLevel     flexInt  `json:"impact_level"`
	} `json:"impact"`
	Guidance *struct {
		ForDevelopers  string   `json:"for_developers"`
		ForResearchers string   `json:"for_researchers"`
		ForBusiness    string   `json:"for_business"`
		ActionItems    []string `json:"action_items"`
	} `json:"guidance"`
	Controversies    []string `json:"controversies"`
	OpenQuestions    []string `json:"open_questions"`
	RelatedResources []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Type  string `json:"type"`
	} `json:"related_resources"`
}

func parseDeep(text string) (domain.DeepAnalysis, error) {
	obj, err := ExtractJSON(text)
	if err != nil {
		return domain.DeepAnalysis{}, err
	}

	var p deepPayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return domain.DeepAnalysis{}, parseErrorf(text, err.Error())
	}

	switch {
	case p.TechnicalContext == nil || strings.TrimSpace(p.TechnicalContext.Background) == "":
		return domain.DeepAnalysis{}, parseErrorf(text, "missing technical_context.background")
	case len(p.KeyInsights) == 0:
		return domain.DeepAnalysis{}, parseErrorf(text, "missing key_insights")
	case p.Impact == nil || p.Impact.ImmediateImpact == "" || p.Impact.LongTermImpact == "":
		return domain.DeepAnalysis{}, parseErrorf(text, "missing impact.immediate_impact or impact.long_term_impact")
	}

	level := defaultImpactLevel
	if p.Impact.ImpactLevel.set {
		level = min(5, max(1, p.Impact.ImpactLevel.value))
	}

	insights := p.KeyInsights
	if len(insights) > maxKeyInsights {
		insights = insights[:maxKeyInsights]
	}

	out := domain.DeepAnalysis{
		TechnicalContext: domain.TechnicalContext{
			Background:      p.TechnicalContext.Background,
			KeyTechnologies: p.TechnicalContext.KeyTechnologies,
		},
		KeyInsights: insights,
		Impact: domain.Impact{
			ImmediateImpact: p.Impact.ImmediateImpact,
			LongTermImpact:  p.Impact.LongTermImpact,
			AffectedSectors: p.Impact.AffectedSectors,
			ImpactLevel:     level,
		},
		Controversies: p.Controversies,
		OpenQuestions: p.OpenQuestions,
	}
	if p.Guidance != nil {
		out.Guidance = &domain.Guidance{
			ForDevelopers:  p.Guidance.ForDevelopers,
			ForResearchers: p.Guidance.ForResearchers,
			ForBusiness:    p.Guidance.ForBusiness,
			ActionItems:    p.Guidance.ActionItems,
		}
	}
	for _, r := range p.RelatedResources {
		if r.URL == "" && r.Title == "" {
			continue
		}
		out.RelatedResources = append(out.RelatedResources, domain.Resource{Title: r.Title, URL: r.URL, Type: r.Type})
	}
	return out, nil
}

// flexInt accepts 8, 8.6 or "8" from model output.
type flexInt struct {
	value int
	set   bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f.value = int(math.Round(v))
	f.set = true
	return nil
}

func clampScore(v int) int {
	return min(10, max(0, v))
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
