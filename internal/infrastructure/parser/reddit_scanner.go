package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/scanner"
)

const (
	redditBaseURL      = "https://www.reddit.com"
	defaultRedditLimit = 10
)

// RedditScanner pulls hot posts from subreddits through the public JSON listing.
type RedditScanner struct {
	client    *http.Client
	userAgent string
	baseURL   string
	limiter   *rate.Limiter
}

// NewRedditScanner wires an HTTP client. Reddit rejects requests without a descriptive User-Agent.
func NewRedditScanner(client *http.Client, userAgent string) *RedditScanner {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RedditScanner{
		client:    defaultClient(client),
		userAgent: userAgent,
		baseURL:   redditBaseURL,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// Name identifies the strategy inside the registry.
func (r *RedditScanner) Name() string {
	return "reddit"
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Stickied    bool    `json:"stickied"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
}

// Scan reads the hot listing of every subreddit named in the categories.
func (r *RedditScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no subreddits provided for site %s", req.SiteName)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultRedditLimit
	}
	return scanEach(ctx, req.Categories, 3, func(ctx context.Context, cat scanner.Category) ([]domain.Article, error) {
		return r.scanSubreddit(ctx, req, cat.Name, limit)
	})
}

func (r *RedditScanner) scanSubreddit(ctx context.Context, req scanner.Request, sub string, limit int) ([]domain.Article, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", strings.TrimSuffix(r.baseURL, "/"), sub, limit*2)
	var listing redditListing
	if err := getJSON(ctx, r.client, endpoint, map[string]string{"User-Agent": r.userAgent}, &listing); err != nil {
		return nil, err
	}

	var out []domain.Article
	for _, child := range listing.Data.Children {
		if len(out) >= limit {
			break
		}
		post := child.Data
		title := strings.TrimSpace(post.Title)
		if post.Stickied || title == "" {
			continue
		}

		published := time.Unix(int64(post.CreatedUTC), 0).UTC()
		if published.Before(req.Since) {
			continue
		}

		out = append(out, domain.Article{
			ID:          post.ID,
			Title:       title,
			URL:         redditBaseURL + post.Permalink,
			Source:      "Reddit r/" + sub,
			PublishedAt: published,
			Content:     redditContent(post, title),
			Tags:        []string{"Reddit", "AI", sub},
			Priority:    priorityOrDefault(req.Priority),
		})
	}
	return out, nil
}

func redditContent(post redditPost, title string) string {
	var parts []string
	if text := strings.TrimSpace(post.Selftext); len(text) > 50 {
		parts = append(parts, truncateRunes(text, 1500))
	} else {
		parts = append(parts, title)
		if post.URL != "" && !strings.Contains(post.URL, post.Permalink) {
			parts = append(parts, post.URL)
		}
	}
	if post.Score > 100 || post.NumComments > 50 {
		parts = append(parts, fmt.Sprintf("Score: %d, Comments: %d", post.Score, post.NumComments))
	}
	return strings.Join(parts, "\n\n")
}
