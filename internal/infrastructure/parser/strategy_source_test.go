package parser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"AINewsBrief/internal/config"
	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/scanner"
)

type stubScanner struct {
	name  string
	delay time.Duration
	fn    func(scanner.Request) ([]domain.Article, error)
}

func (s stubScanner) Name() string { return s.name }

func (s stubScanner) Scan(_ context.Context, req scanner.Request) ([]domain.Article, error) {
	time.Sleep(s.delay)
	return s.fn(req)
}

func TestStrategySourceFetchAll(t *testing.T) {
	t.Parallel()

	var gotLimit int
	reg := scanner.NewRegistry()
	reg.Register(stubScanner{name: "rss", delay: 20 * time.Millisecond, fn: func(req scanner.Request) ([]domain.Article, error) {
		gotLimit = req.Limit
		return []domain.Article{{Title: "feed item", URL: "https://a"}}, nil
	}})
	reg.Register(stubScanner{name: "reddit", fn: func(req scanner.Request) ([]domain.Article, error) {
		return []domain.Article{{Title: "partial", URL: "https://b", Source: "Reddit r/x"}}, errors.New("r/y returned 503")
	}})
	reg.Register(stubScanner{name: "github", fn: func(req scanner.Request) ([]domain.Article, error) {
		t.Errorf("disabled group must not be scanned")
		return nil, nil
	}})

	sites := []config.SiteConfig{
		{Name: "feeds", Scanner: "rss", Priority: 9},
		{Name: "reddit", Scanner: "reddit", Limit: 10},
		{Name: "releases", Scanner: "github"},
		{Name: "mystery", Scanner: "gopher"},
	}
	sources := config.SourcesConfig{RSS: true, Reddit: true, GitHub: false}

	src := NewStrategySource(reg, sites, sources, 20, nil)
	articles, errs := src.FetchAll(context.Background(), time.Now().Add(-24*time.Hour))

	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Title != "feed item" || articles[1].Title != "partial" {
		t.Fatalf("results should follow site order: %+v", articles)
	}
	if articles[0].Source != "feeds" || articles[0].Priority != domain.DefaultPriority {
		t.Fatalf("defaults not applied: %+v", articles[0])
	}
	if gotLimit != 20 {
		t.Fatalf("site without limit should use the default, got %d", gotLimit)
	}

	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if !strings.Contains(errs[0].Error(), "reddit") || !strings.Contains(errs[1].Error(), "gopher") {
		t.Fatalf("errors should name their sites: %v", errs)
	}
}

func TestStrategySourceWithoutRegistry(t *testing.T) {
	t.Parallel()

	articles, errs := NewStrategySource(nil, nil, config.SourcesConfig{}, 20, nil).FetchAll(context.Background(), time.Now())
	if articles != nil || len(errs) != 1 {
		t.Fatalf("expected a single configuration error, got %v %v", articles, errs)
	}
}
