package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"AINewsBrief/internal/domain"
)

func sampleReview(title string, cat domain.Category, importance int) domain.ArticleReview {
	return domain.ArticleReview{
		Article: domain.Article{
			Title:  title,
			URL:    "https://example.com/" + strings.ReplaceAll(title, " ", "-"),
			Source: "OpenAI Blog",
		},
		TitleCN:          title + " 中文",
		Summary:          "摘要 " + title,
		Insight:          "洞察",
		Category:         cat,
		ImportanceScore:  importance,
		AIRelevanceScore: 9,
	}
}

func TestFormatGroupsAndOrders(t *testing.T) {
	t.Parallel()

	shanghai, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	f := Formatter{Location: shanghai, Provider: "anthropic", Model: "claude-sonnet-4-5"}

	reviews := []domain.ArticleReview{
		sampleReview("tool launch", domain.CategoryTools, 6),
		sampleReview("minor paper", domain.CategoryResearch, 6),
		sampleReview("big paper", domain.CategoryResearch, 9),
		sampleReview("model release", domain.CategoryBreakingNews, 10),
	}
	meta := Meta{
		Date:     time.Date(2025, time.November, 7, 23, 30, 0, 0, time.UTC),
		Fetched:  120,
		Filtered: 40,
		Admitted: 4,
	}

	out := f.Format(reviews, nil, meta)

	if !strings.Contains(out, "2025-11-08") {
		t.Fatalf("date should be rendered in the configured timezone:\n%s", out)
	}
	if !strings.Contains(out, "抓取 120 · 篩選後 40 · 入選 4") {
		t.Fatalf("stats missing:\n%s", out)
	}

	order := []string{"重大新聞", "model release 中文", "學術研究", "big paper 中文", "minor paper 中文", "工具與產品", "tool launch 中文"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(out, marker)
		if idx <= last {
			t.Fatalf("%q out of order in:\n%s", marker, out)
		}
		last = idx
	}
	if strings.Contains(out, "商業動態") {
		t.Fatalf("empty categories should be omitted")
	}
	if !strings.Contains(out, "來源：Anthropic claude-sonnet-4-5") {
		t.Fatalf("footer missing:\n%s", out)
	}
}

func TestFormatEmptyReport(t *testing.T) {
	t.Parallel()

	out := Formatter{}.Format(nil, nil, Meta{Date: time.Now(), Errors: []string{"a", "b", "c", "d", "e", "f", "g"}})
	if !strings.Contains(out, "今日沒有重大 AI 新聞") {
		t.Fatalf("empty body missing:\n%s", out)
	}
	if !strings.Contains(out, "執行警告 (7)") || !strings.Contains(out, "另有 2 則") {
		t.Fatalf("errors should be listed with overflow:\n%s", out)
	}
	if strings.Contains(out, "• f\n") {
		t.Fatalf("only the first five errors are listed")
	}
}

func TestFormatDeepSection(t *testing.T) {
	t.Parallel()

	r := sampleReview("model release", domain.CategoryBreakingNews, 10)
	deep := []domain.DeepReview{{
		Review: r,
		Analysis: domain.DeepAnalysis{
			TechnicalContext: domain.TechnicalContext{Background: "背景說明", KeyTechnologies: []string{"MoE", "RLHF"}},
			KeyInsights:      []string{"第一", "第二"},
			Impact:           domain.Impact{ImmediateImpact: "立即", LongTermImpact: "長遠", ImpactLevel: 4},
			Guidance:         &domain.Guidance{ForDevelopers: "試用 API"},
		},
	}}

	out := Formatter{}.Format([]domain.ArticleReview{r}, deep, Meta{Date: time.Now(), Admitted: 1})
	for _, want := range []string{"深度分析", "背景：背景說明", "關鍵技術：MoE、RLHF", "  • 第二", "影響（4/5）", "建議（開發者）：試用 API"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestEscapeMarkdown(t *testing.T) {
	t.Parallel()

	if got := escape("gpt_4 *new* [beta] `x`"); got != "gpt\\_4 \\*new\\* \\[beta] \\`x\\`" {
		t.Fatalf("unexpected escape: %q", got)
	}
}

func TestSaverSave(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "reports")
	day := time.Date(2025, time.November, 8, 8, 0, 0, 0, time.UTC)

	path, err := Saver{Dir: dir}.Save("# brief", day)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "ai-news-brief-2025-11-08.md" {
		t.Fatalf("unexpected file name: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "# brief" {
		t.Fatalf("unexpected content %q, %v", data, err)
	}

	if _, err := (Saver{Dir: dir}).Save("# second run", day); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "# second run" {
		t.Fatalf("same-day save should overwrite, got %q", data)
	}
}
