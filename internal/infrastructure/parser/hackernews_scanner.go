package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/scanner"
)

const (
	hackerNewsAPI         = "https://hacker-news.firebaseio.com/v0"
	hackerNewsItemURL     = "https://news.ycombinator.com/item?id=%d"
	defaultHackerNewsTake = 25
	maxHackerNewsContent  = 3000
	maxLinkedContent      = 2000
	linkedPageTimeout     = 10 * time.Second
)

// HackerNewsScanner keeps AI stories from the HackerNews front page.
type HackerNewsScanner struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// NewHackerNewsScanner wires an HTTP client.
func NewHackerNewsScanner(client *http.Client, userAgent string) *HackerNewsScanner {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HackerNewsScanner{
		client:    defaultClient(client),
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Every(20*time.Millisecond), 10),
	}
}

// Name identifies the strategy inside the registry.
func (h *HackerNewsScanner) Name() string {
	return "hackernews"
}

type hnItem struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	Time        int64  `json:"time"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Dead        bool   `json:"dead"`
	Deleted     bool   `json:"deleted"`

	linked string
}

// Scan over-fetches Limit*4 top stories and keeps the AI related ones in ranking order.
func (h *HackerNewsScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	api := hackerNewsAPI
	if len(req.Categories) > 0 && req.Categories[0].URL != "" {
		api = strings.TrimSuffix(req.Categories[0].URL, "/")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHackerNewsTake
	}

	var ids []int
	if err := h.getJSON(ctx, api+"/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("top stories: %w", err)
	}
	if len(ids) > limit*4 {
		ids = ids[:limit*4]
	}

	extract := req.Option("extract_content", "true") == "true"
	items := make([]*hnItem, len(ids))

	var g errgroup.Group
	g.SetLimit(10)
	for i, id := range ids {
		g.Go(func() error {
			var item hnItem
			if err := h.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", api, id), &item); err != nil {
				// One broken item never sinks the listing.
				return nil
			}
			if item.Type != "story" || item.Dead || item.Deleted {
				return nil
			}
			if extract && item.URL != "" && item.Text == "" {
				item.linked = h.linkedContent(ctx, item.URL)
			}
			items[i] = &item
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []domain.Article
	for _, item := range items {
		if len(out) >= limit {
			break
		}
		if item == nil {
			continue
		}
		text := stripHTML(item.Text)
		if !isAIRelated(item.Title + " " + text + " " + item.linked) {
			continue
		}
		published := time.Unix(item.Time, 0).UTC()
		if published.Before(req.Since) {
			continue
		}

		out = append(out, domain.Article{
			ID:          fmt.Sprint(item.ID),
			Title:       strings.TrimSpace(item.Title),
			URL:         fmt.Sprintf(hackerNewsItemURL, item.ID),
			Source:      "HackerNews",
			PublishedAt: published,
			Content:     hnContent(item, text),
			Tags:        []string{"HackerNews", "AI"},
			Priority:    priorityOrDefault(req.Priority),
		})
	}
	return out, nil
}

func (h *HackerNewsScanner) getJSON(ctx context.Context, endpoint string, v any) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return err
	}
	return getJSON(ctx, h.client, endpoint, map[string]string{"User-Agent": h.userAgent}, v)
}

// linkedContent pulls readable text from the story's target page; failures yield "".
func (h *HackerNewsScanner) linkedContent(ctx context.Context, link string) string {
	ctx, cancel := context.WithTimeout(ctx, linkedPageTimeout)
	defer cancel()

	doc, err := fetchDocument(ctx, h.client, link, h.userAgent)
	if err != nil {
		return ""
	}
	doc.Find("script, style, nav, footer, header, aside").Remove()

	var text string
	if article := doc.Find("article").First(); article.Length() > 0 {
		text = article.Text()
	} else {
		var parts []string
		doc.Find("main p, body p").EachWithBreak(func(i int, p *goquery.Selection) bool {
			parts = append(parts, p.Text())
			return i < 9
		})
		text = strings.Join(parts, " ")
	}
	return truncateRunes(collapseSpace(text), maxLinkedContent)
}

func hnContent(item *hnItem, text string) string {
	content := text
	if content == "" {
		content = item.linked
	}
	if content == "" {
		content = strings.TrimSpace(item.Title + " " + item.URL)
	}
	if item.Score > 0 || item.Descendants > 0 {
		content += fmt.Sprintf("\n\n[HN Score: %d, Comments: %d]", item.Score, item.Descendants)
	}
	return truncateRunes(content, maxHackerNewsContent)
}
