package domain

import (
	"strings"
	"time"
)

// DefaultPriority is the source hint assigned when a fetcher does not set one.
const DefaultPriority = 5

// Article is a fetched item normalized from any upstream source.
type Article struct {
	ID          string
	Title       string
	URL         string
	Source      string
	PublishedAt time.Time
	Content     string
	Tags        []string
	Priority    int
}

// Category groups scored articles in the report.
type Category string

const (
	CategoryBreakingNews Category = "Breaking News"
	CategoryResearch     Category = "Research"
	CategoryTools        Category = "Tools/Products"
	CategoryBusiness     Category = "Business"
	CategoryTutorial     Category = "Tutorial"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryBreakingNews,
	CategoryResearch,
	CategoryTools,
	CategoryBusiness,
	CategoryTutorial,
}

// ParseCategory maps free-form model output onto a known category, defaulting to Tools/Products.
func ParseCategory(value string) Category {
	value = strings.TrimSpace(value)
	for _, c := range Categories {
		if strings.EqualFold(value, string(c)) {
			return c
		}
	}
	return CategoryTools
}

// ArticleReview captures LLM scoring and enrichment for an article.
type ArticleReview struct {
	Article          Article
	TitleCN          string
	Summary          string
	Insight          string
	Category         Category
	ImportanceScore  int
	AIRelevanceScore int
	// Fallback marks a review produced after analysis failed; both scores are zero.
	Fallback bool
	ScoredAt time.Time
}

// DisplayTitle prefers the translated title when present.
func (r ArticleReview) DisplayTitle() string {
	if strings.TrimSpace(r.TitleCN) != "" {
		return r.TitleCN
	}
	return r.Article.Title
}

// FallbackReview returns the zero-scored sentinel for a failed analysis.
func FallbackReview(article Article, now time.Time) ArticleReview {
	return ArticleReview{
		Article:  article,
		TitleCN:  article.Title,
		Category: CategoryTools,
		Fallback: true,
		ScoredAt: now,
	}
}

// HistoryRecord is a previously delivered article.
type HistoryRecord struct {
	URL    string
	Title  string
	SeenAt time.Time
}
