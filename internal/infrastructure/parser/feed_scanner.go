package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/scanner"
)

const maxFeedContent = 3000

// FeedScanner reads RSS and Atom feeds: news sites, company blogs, Nitter timelines, YouTube channels.
type FeedScanner struct {
	client    *http.Client
	userAgent string
	workers   int
	now       func() time.Time
}

// NewFeedScanner wires an HTTP client shared by every feed.
func NewFeedScanner(client *http.Client, userAgent string) *FeedScanner {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &FeedScanner{
		client:    defaultClient(client),
		userAgent: userAgent,
		workers:   4,
		now:       time.Now,
	}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "rss"
}

// Scan parses every configured feed. The category name becomes the article source.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no feeds provided for site %s", req.SiteName)
	}
	return scanEach(ctx, req.Categories, f.workers, func(ctx context.Context, cat scanner.Category) ([]domain.Article, error) {
		return f.scanFeed(ctx, req, cat)
	})
}

func (f *FeedScanner) scanFeed(ctx context.Context, req scanner.Request, cat scanner.Category) ([]domain.Article, error) {
	parser := gofeed.NewParser()
	parser.Client = f.client
	parser.UserAgent = f.userAgent

	feed, err := parser.ParseURLWithContext(cat.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	minContent := req.IntOption("min_content", 0)
	aiOnly := req.Option("ai_only", "") == "true"
	tags := req.Tags()

	var out []domain.Article
	for _, item := range feed.Items {
		if req.Limit > 0 && len(out) >= req.Limit {
			break
		}

		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}

		published := f.itemTime(item)
		if published.Before(req.Since) {
			continue
		}

		content := itemContent(item)
		if minContent > 0 && len([]rune(content)) < minContent {
			continue
		}
		if content == "" {
			content = title
		}
		if aiOnly && !isAIRelated(title+" "+content) {
			continue
		}

		id := item.GUID
		if id == "" {
			id = link
		}

		out = append(out, domain.Article{
			ID:          id,
			Title:       title,
			URL:         link,
			Source:      cat.Name,
			PublishedAt: published,
			Content:     truncateRunes(content, maxFeedContent),
			Tags:        append(append([]string(nil), tags...), item.Categories...),
			Priority:    priorityOrDefault(req.Priority),
		})
	}
	return out, nil
}

func (f *FeedScanner) itemTime(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC()
	default:
		return f.now().UTC()
	}
}

// itemContent prefers full content, then the description, then the YouTube media description.
func itemContent(item *gofeed.Item) string {
	for _, candidate := range []string{item.Content, item.Description, mediaDescription(item)} {
		if text := stripHTML(candidate); text != "" {
			return text
		}
	}
	return ""
}

func mediaDescription(item *gofeed.Item) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, group := range media["group"] {
		for _, desc := range group.Children["description"] {
			if desc.Value != "" {
				return desc.Value
			}
		}
	}
	return ""
}
