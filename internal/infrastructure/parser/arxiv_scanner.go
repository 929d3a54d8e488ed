package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/scanner"
)

const (
	arxivBaseURL      = "https://arxiv.org"
	defaultArxivLimit = 15
	maxAbstract       = 500
	maxAuthors        = 3
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivScanner crawls category list pages and extracts papers announced since the cutoff day.
type ArxivScanner struct {
	client    *http.Client
	userAgent string
	pageSize  int
}

// NewArxivScanner wires an HTTP client; pageSize defaults to 200.
func NewArxivScanner(client *http.Client, userAgent string) *ArxivScanner {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &ArxivScanner{client: defaultClient(client), userAgent: userAgent, pageSize: 200}
}

// Name identifies the strategy inside the registry.
func (a *ArxivScanner) Name() string {
	return "arxiv"
}

// Scan walks through each category URL and returns the papers dated on or after the Since day.
func (a *ArxivScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no categories provided for site %s", req.SiteName)
	}

	sinceDay := req.Since.UTC().Truncate(24 * time.Hour)
	limit := req.Limit
	if limit <= 0 {
		limit = defaultArxivLimit
	}

	perCategory, err := scanEach(ctx, req.Categories, 2, func(ctx context.Context, cat scanner.Category) ([]domain.Article, error) {
		return a.scanCategory(ctx, req, cat, sinceDay, limit)
	})

	// Papers are cross-listed, so the same id shows up under several categories.
	seen := map[string]struct{}{}
	results := make([]domain.Article, 0, len(perCategory))
	for _, article := range perCategory {
		if _, ok := seen[article.ID]; ok {
			continue
		}
		seen[article.ID] = struct{}{}
		results = append(results, article)
	}
	return results, err
}

func (a *ArxivScanner) scanCategory(ctx context.Context, req scanner.Request, cat scanner.Category, sinceDay time.Time, limit int) ([]domain.Article, error) {
	var results []domain.Article
	skip := 0
	for {
		pageURL, err := buildPageURL(cat.URL, skip, a.pageSize)
		if err != nil {
			return results, err
		}

		doc, err := fetchDocument(ctx, a.client, pageURL, a.userAgent)
		if err != nil {
			return results, err
		}

		pageArticles, shouldContinue := a.extractArticles(doc, sinceDay, cat.Name)
		for _, article := range pageArticles {
			article.Priority = priorityOrDefault(req.Priority)
			results = append(results, article)
			if len(results) >= limit {
				return results, nil
			}
		}

		if !shouldContinue {
			return results, nil
		}
		skip += a.pageSize
	}
}

func (a *ArxivScanner) extractArticles(doc *goquery.Document, sinceDay time.Time, category string) ([]domain.Article, bool) {
	var (
		collected    []domain.Article
		continueScan = true
		processed    int
	)

	doc.Find("dl > dt").EachWithBreak(func(i int, dt *goquery.Selection) bool {
		dd := dt.Next()
		processed++

		article, publishedAt, err := parseEntry(dt, dd, category)
		if err != nil {
			return true
		}

		articleDay := publishedAt.UTC().Truncate(24 * time.Hour)
		if articleDay.Before(sinceDay) {
			continueScan = false
			return false
		}
		collected = append(collected, article)
		return true
	})

	if processed < a.pageSize {
		continueScan = false
	}

	return collected, continueScan
}

func parseEntry(dt, dd *goquery.Selection, category string) (domain.Article, time.Time, error) {
	link := dt.Find("a[href*=\"/abs/\"]").First()
	href, _ := link.Attr("href")
	if href == "" {
		return domain.Article{}, time.Time{}, fmt.Errorf("entry without abstract link")
	}

	id := strings.TrimSpace(link.Text())
	if id == "" {
		id = "arXiv:" + strings.TrimPrefix(href, "/abs/")
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = collapseSpace(strings.TrimPrefix(title, "Title:"))
	if title == "" {
		return domain.Article{}, time.Time{}, fmt.Errorf("entry %s without title", id)
	}

	summary := dd.Find("p.mathjax").First().Text()
	summary = collapseSpace(strings.TrimPrefix(strings.TrimSpace(summary), "Abstract:"))

	var authors []string
	dd.Find(".list-authors a").Each(func(_ int, s *goquery.Selection) {
		if name := collapseSpace(s.Text()); name != "" {
			authors = append(authors, name)
		}
	})

	article := domain.Article{
		ID:          id,
		Title:       title,
		URL:         href,
		Source:      "ArXiv",
		PublishedAt: entryDate(dt, dd),
		Content:     paperContent(summary, authors),
		Tags:        []string{"ArXiv", "Research", category},
	}
	return article, article.PublishedAt, nil
}

// entryDate reads the per-entry date line, falling back to the day heading above the list.
func entryDate(dt, dd *goquery.Selection) time.Time {
	candidates := []string{
		dd.Find(".list-date").First().Text(),
		dd.Find(".list-dateline").First().Text(),
		dt.Parent().PrevAllFiltered("h3").First().Text(),
	}
	for _, text := range candidates {
		if match := dateExpr.FindString(text); match != "" {
			if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
				return parsed
			}
		}
	}
	return time.Now().UTC()
}

func paperContent(summary string, authors []string) string {
	content := summary
	if len([]rune(summary)) > maxAbstract {
		content = truncateRunes(summary, maxAbstract) + "..."
	}
	if len(authors) == 0 {
		return content
	}
	names := strings.Join(authors[:min(len(authors), maxAuthors)], ", ")
	if len(authors) > maxAuthors {
		names += " et al."
	}
	return content + "\n\nAuthors: " + names
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
