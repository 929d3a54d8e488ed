package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"AINewsBrief/internal/config"
	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/ports"
	"AINewsBrief/internal/scanner"
)

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry     *scanner.Registry
	sites        []config.SiteConfig
	sources      config.SourcesConfig
	defaultLimit int
	logger       *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, sources config.SourcesConfig, defaultLimit int, log *slog.Logger) *StrategySource {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &StrategySource{
		registry:     reg,
		sites:        sites,
		sources:      sources,
		defaultLimit: defaultLimit,
		logger:       log,
	}
}

// FetchAll runs every enabled site concurrently. A failing site contributes an error
// and whatever it managed to collect; siblings are never cancelled.
func (s *StrategySource) FetchAll(ctx context.Context, since time.Time) ([]domain.Article, []error) {
	if s.registry == nil {
		return nil, []error{fmt.Errorf("scanner registry is not configured")}
	}

	var sites []config.SiteConfig
	for _, site := range s.sites {
		if !s.sources.Enabled(site.SourceGroup()) {
			s.logger.Debug("site disabled", "site", site.Name, "group", site.SourceGroup())
			continue
		}
		sites = append(sites, site)
	}
	s.logger.Info("fetch started", "sites", len(sites), "since", since.Format(time.RFC3339))

	results := make([][]domain.Article, len(sites))
	errs := make([]error, len(sites))

	var g errgroup.Group
	for i, site := range sites {
		g.Go(func() error {
			results[i], errs[i] = s.scanSite(ctx, site, since)
			return nil
		})
	}
	_ = g.Wait()

	var (
		aggregated []domain.Article
		failures   []error
	)
	for i, site := range sites {
		if errs[i] != nil {
			s.logger.Warn("site failed", "site", site.Name, "error", errs[i])
			failures = append(failures, errs[i])
		}
		s.logger.Debug("site produced articles", "site", site.Name, "count", len(results[i]))
		aggregated = append(aggregated, results[i]...)
	}

	s.logger.Info("fetch done", "total_articles", len(aggregated), "failed_sites", len(failures))
	return aggregated, failures
}

func (s *StrategySource) scanSite(ctx context.Context, site config.SiteConfig, since time.Time) ([]domain.Article, error) {
	strategy, err := s.registry.Resolve(site.Scanner)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", site.Name, err)
	}

	limit := site.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	req := scanner.Request{
		Since:      since,
		SiteName:   site.Name,
		Categories: toScannerCategories(site.Categories),
		Limit:      limit,
		Priority:   site.Priority,
		Options:    site.Options,
	}

	results, err := strategy.Scan(ctx, req)
	for i := range results {
		if results[i].Source == "" {
			results[i].Source = site.Name
		}
		if results[i].Priority == 0 {
			results[i].Priority = domain.DefaultPriority
		}
	}
	if err != nil {
		return results, fmt.Errorf("scan site %s: %w", site.Name, err)
	}
	return results, nil
}

func toScannerCategories(cfg []config.CategoryConfig) []scanner.Category {
	categories := make([]scanner.Category, 0, len(cfg))
	for _, cat := range cfg {
		categories = append(categories, scanner.Category{
			Name:  cat.Name,
			URL:   cat.URL,
			Label: cat.Label,
		})
	}
	return categories
}
