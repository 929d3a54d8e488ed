package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/scanner"
)

const maxPageContent = 2000

var pageDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// HTMLScanner scrapes news list pages that publish no feed.
// Selectors come from site options so a layout change is a config edit.
type HTMLScanner struct {
	client    *http.Client
	userAgent string
	now       func() time.Time
}

// NewHTMLScanner wires an HTTP client.
func NewHTMLScanner(client *http.Client, userAgent string) *HTMLScanner {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTMLScanner{client: defaultClient(client), userAgent: userAgent, now: time.Now}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return "html"
}

// Scan fetches every list page and extracts the items matching the configured selectors.
func (h *HTMLScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no pages provided for site %s", req.SiteName)
	}
	return scanEach(ctx, req.Categories, 2, func(ctx context.Context, cat scanner.Category) ([]domain.Article, error) {
		doc, err := fetchDocument(ctx, h.client, cat.URL, h.userAgent)
		if err != nil {
			return nil, err
		}
		return h.extract(doc, req, cat), nil
	})
}

func (h *HTMLScanner) extract(doc *goquery.Document, req scanner.Request, cat scanner.Category) []domain.Article {
	base, _ := url.Parse(cat.URL)
	var (
		itemSel  = req.Option("item_selector", "article")
		titleSel = req.Option("title_selector", "h1, h2, h3, .title")
		linkSel  = req.Option("link_selector", "a[href]")
		dateSel  = req.Option("date_selector", "time, .date")
		textSel  = req.Option("text_selector", "p, .summary, .excerpt")
		tags     = req.Tags()
		seen     = map[string]struct{}{}
		out      []domain.Article
	)

	doc.Find(itemSel).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if req.Limit > 0 && len(out) >= req.Limit {
			return false
		}

		title := collapseSpace(item.Find(titleSel).First().Text())
		if title == "" {
			return true
		}

		link := selectLink(item, linkSel)
		if link == "" {
			return true
		}
		if base != nil {
			if ref, err := url.Parse(link); err == nil {
				link = base.ResolveReference(ref).String()
			}
		}
		if _, dup := seen[link]; dup {
			return true
		}
		seen[link] = struct{}{}

		published := h.now().UTC()
		if dateEl := item.Find(dateSel).First(); dateEl.Length() > 0 {
			raw, ok := dateEl.Attr("datetime")
			if !ok || raw == "" {
				raw = dateEl.Text()
			}
			if parsed, ok := parsePageDate(raw); ok {
				published = parsed
			}
		}
		if published.Before(req.Since) {
			return true
		}

		content := collapseSpace(item.Find(textSel).First().Text())
		if content == "" {
			content = title
		}

		out = append(out, domain.Article{
			ID:          link,
			Title:       title,
			URL:         link,
			Source:      cat.Name,
			PublishedAt: published,
			Content:     truncateRunes(content, maxPageContent),
			Tags:        append([]string(nil), tags...),
			Priority:    priorityOrDefault(req.Priority),
		})
		return true
	})
	return out
}

// selectLink returns the first matching href, accepting the item itself when it is an anchor.
func selectLink(item *goquery.Selection, sel string) string {
	if goquery.NodeName(item) == "a" {
		if href, ok := item.Attr("href"); ok {
			return strings.TrimSpace(href)
		}
	}
	href, _ := item.Find(sel).First().Attr("href")
	return strings.TrimSpace(href)
}

func parsePageDate(raw string) (time.Time, bool) {
	raw = collapseSpace(raw)
	for _, layout := range pageDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
