package parser

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/scanner"
)

const (
	githubAPI         = "https://api.github.com"
	maxReleaseBody    = 2500
	maxReleaseContent = 3000
)

var htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)

// GitHubScanner reports recent releases of tracked repositories.
type GitHubScanner struct {
	client    *http.Client
	userAgent string
	token     string
	baseURL   string
	limiter   *rate.Limiter
	now       func() time.Time
}

// NewGitHubScanner wires an HTTP client; token is optional and only raises the rate limit.
func NewGitHubScanner(client *http.Client, userAgent, token string) *GitHubScanner {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &GitHubScanner{
		client:    defaultClient(client),
		userAgent: userAgent,
		token:     token,
		baseURL:   githubAPI,
		limiter:   rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
		now:       time.Now,
	}
}

// Name identifies the strategy inside the registry.
func (g *GitHubScanner) Name() string {
	return "github"
}

type githubRelease struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	Body        string `json:"body"`
	HTMLURL     string `json:"html_url"`
	Draft       bool   `json:"draft"`
	Prerelease  bool   `json:"prerelease"`
	PublishedAt string `json:"published_at"`
	CreatedAt   string `json:"created_at"`
}

// Scan lists the latest releases per repository. Category names are "owner/repo" slugs.
// Releases ship less often than news, so the window is twice the requested age.
func (g *GitHubScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no repositories provided for site %s", req.SiteName)
	}
	now := g.now()
	cutoff := now.Add(-2 * now.Sub(req.Since))

	return scanEach(ctx, req.Categories, 5, func(ctx context.Context, cat scanner.Category) ([]domain.Article, error) {
		return g.scanRepo(ctx, req, cat, cutoff)
	})
}

func (g *GitHubScanner) scanRepo(ctx context.Context, req scanner.Request, cat scanner.Category, cutoff time.Time) ([]domain.Article, error) {
	slug := strings.Trim(cat.Name, "/")
	_, repo, ok := strings.Cut(slug, "/")
	if !ok || repo == "" {
		return nil, fmt.Errorf("repository %q is not owner/repo", cat.Name)
	}
	label := cat.Label
	if label == "" {
		label = "AI Tool"
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	headers := map[string]string{
		"Accept":     "application/vnd.github+json",
		"User-Agent": g.userAgent,
	}
	if g.token != "" {
		headers["Authorization"] = "Bearer " + g.token
	}

	var releases []githubRelease
	endpoint := fmt.Sprintf("%s/repos/%s/releases?per_page=5", strings.TrimSuffix(g.baseURL, "/"), slug)
	if err := getJSON(ctx, g.client, endpoint, headers, &releases); err != nil {
		return nil, err
	}

	var out []domain.Article
	for _, rel := range releases {
		if rel.Draft {
			continue
		}
		stamp := rel.PublishedAt
		if stamp == "" {
			stamp = rel.CreatedAt
		}
		published, err := time.Parse(time.RFC3339, stamp)
		if err != nil || published.Before(cutoff) {
			continue
		}

		name := strings.TrimSpace(rel.Name)
		if name == "" {
			name = rel.TagName
		}
		title := repo + " " + name
		if rel.Prerelease {
			title += " (Pre-release)"
		}

		out = append(out, domain.Article{
			ID:          rel.HTMLURL,
			Title:       title,
			URL:         rel.HTMLURL,
			Source:      "GitHub " + label,
			PublishedAt: published.UTC(),
			Content:     releaseContent(rel),
			Tags:        []string{"GitHub", "Release", label, repo},
			Priority:    priorityOrDefault(req.Priority),
		})
	}
	return out, nil
}

func releaseContent(rel githubRelease) string {
	var parts []string
	if rel.TagName != "" {
		parts = append(parts, "Version: "+rel.TagName)
		if isMajorRelease(rel.TagName) {
			parts = append(parts, "Major release")
		}
	}
	if body := strings.TrimSpace(htmlComment.ReplaceAllString(rel.Body, "")); body != "" {
		parts = append(parts, truncateRunes(body, maxReleaseBody))
	}
	return truncateRunes(strings.Join(parts, "\n\n"), maxReleaseContent)
}

// isMajorRelease reports whether a dotted tag has a major version of at least 1.
func isMajorRelease(tag string) bool {
	if !strings.Contains(tag, ".") {
		return false
	}
	major, err := strconv.Atoi(strings.SplitN(strings.TrimPrefix(tag, "v"), ".", 2)[0])
	return err == nil && major >= 1
}
