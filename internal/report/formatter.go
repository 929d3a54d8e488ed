// Package report renders scored reviews into the Markdown brief and keeps dated copies on disk.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"AINewsBrief/internal/domain"
)

const (
	maxListedErrors = 5
	dividerHeavy    = "━━━━━━━━━━━━━━━━━━━━"
	dividerLight    = "────────────────────"
)

var categoryHeadings = map[domain.Category]string{
	domain.CategoryBreakingNews: "🔥 重大新聞",
	domain.CategoryResearch:     "🔬 學術研究",
	domain.CategoryTools:        "🛠️ 工具與產品",
	domain.CategoryBusiness:     "💼 商業動態",
	domain.CategoryTutorial:     "📚 技術教程",
}

// Meta carries run counters and accumulated errors into the report.
type Meta struct {
	Date     time.Time
	Fetched  int
	Filtered int
	Admitted int
	Errors   []string
}

// Formatter renders Telegram-flavored Markdown.
type Formatter struct {
	Location *time.Location
	Provider string
	Model    string
}

// Format builds the brief. Admitted reviews are grouped by category in fixed order and
// sorted by importance inside each group; deep reviews get their own section.
func (f Formatter) Format(reviews []domain.ArticleReview, deep []domain.DeepReview, meta Meta) string {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🤖 *AI快訊* %s\n", meta.Date.In(loc).Format("2006-01-02"))
	fmt.Fprintf(&b, "📊 抓取 %d · 篩選後 %d · 入選 %d\n", meta.Fetched, meta.Filtered, meta.Admitted)
	b.WriteString(dividerHeavy + "\n")

	if len(reviews) == 0 {
		b.WriteString("\n📭 今日沒有重大 AI 新聞\n")
	}

	grouped := groupByCategory(reviews)
	for _, cat := range domain.Categories {
		items := grouped[cat]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n*%s*\n", categoryHeadings[cat])
		for _, r := range items {
			writeReview(&b, r)
		}
	}

	if len(deep) > 0 {
		b.WriteString("\n" + dividerLight + "\n*🧠 深度分析*\n")
		for _, d := range deep {
			writeDeep(&b, d)
		}
	}

	if len(meta.Errors) > 0 {
		fmt.Fprintf(&b, "\n⚠️ 執行警告 (%d)\n", len(meta.Errors))
		for _, e := range meta.Errors[:min(len(meta.Errors), maxListedErrors)] {
			fmt.Fprintf(&b, "• %s\n", escape(e))
		}
		if extra := len(meta.Errors) - maxListedErrors; extra > 0 {
			fmt.Fprintf(&b, "• …另有 %d 則\n", extra)
		}
	}

	b.WriteString("\n" + dividerLight + "\n")
	fmt.Fprintf(&b, "_來源：%s %s_\n", escape(providerName(f.Provider)), escape(f.Model))
	return b.String()
}

func groupByCategory(reviews []domain.ArticleReview) map[domain.Category][]domain.ArticleReview {
	grouped := make(map[domain.Category][]domain.ArticleReview)
	for _, r := range reviews {
		cat := r.Category
		if _, known := categoryHeadings[cat]; !known {
			cat = domain.CategoryTools
		}
		grouped[cat] = append(grouped[cat], r)
	}
	for _, items := range grouped {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].ImportanceScore > items[j].ImportanceScore
		})
	}
	return grouped
}

func writeReview(b *strings.Builder, r domain.ArticleReview) {
	fmt.Fprintf(b, "• *%s* ⭐%d · AI %d\n", escape(r.DisplayTitle()), r.ImportanceScore, r.AIRelevanceScore)
	if r.TitleCN != "" && r.TitleCN != r.Article.Title {
		fmt.Fprintf(b, "  _%s_\n", escape(r.Article.Title))
	}
	if r.Summary != "" {
		fmt.Fprintf(b, "  %s\n", escape(r.Summary))
	}
	if r.Insight != "" {
		fmt.Fprintf(b, "  💡 %s\n", escape(r.Insight))
	}
	fmt.Fprintf(b, "  🔗 [%s](%s)\n", escape(r.Article.Source), r.Article.URL)
}

func writeDeep(b *strings.Builder, d domain.DeepReview) {
	a := d.Analysis
	fmt.Fprintf(b, "\n*%s*\n", escape(d.Review.DisplayTitle()))
	if a.TechnicalContext.Background != "" {
		fmt.Fprintf(b, "背景：%s\n", escape(a.TechnicalContext.Background))
	}
	if len(a.TechnicalContext.KeyTechnologies) > 0 {
		fmt.Fprintf(b, "關鍵技術：%s\n", escape(strings.Join(a.TechnicalContext.KeyTechnologies, "、")))
	}
	if len(a.KeyInsights) > 0 {
		b.WriteString("關鍵洞察：\n")
		for _, in := range a.KeyInsights {
			fmt.Fprintf(b, "  • %s\n", escape(in))
		}
	}
	fmt.Fprintf(b, "影響（%d/5）：短期 %s；長期 %s\n",
		a.Impact.ImpactLevel, escape(a.Impact.ImmediateImpact), escape(a.Impact.LongTermImpact))
	if g := a.Guidance; g != nil {
		for _, line := range []struct{ label, text string }{
			{"開發者", g.ForDevelopers},
			{"研究者", g.ForResearchers},
			{"企業", g.ForBusiness},
		} {
			if line.text != "" {
				fmt.Fprintf(b, "建議（%s）：%s\n", line.label, escape(line.text))
			}
		}
	}
	fmt.Fprintf(b, "🔗 %s\n", d.Review.Article.URL)
}

// escape neutralizes the characters Telegram's legacy Markdown treats as entities.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func providerName(p string) string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(p[:1]) + p[1:]
}
