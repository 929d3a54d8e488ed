package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"AINewsBrief/internal/config"
	"AINewsBrief/internal/filter"
	"AINewsBrief/internal/history"
	"AINewsBrief/internal/infrastructure/httpclient"
	"AINewsBrief/internal/infrastructure/llm"
	"AINewsBrief/internal/infrastructure/parser"
	"AINewsBrief/internal/infrastructure/scheduler"
	"AINewsBrief/internal/infrastructure/storage"
	"AINewsBrief/internal/infrastructure/telegram"
	"AINewsBrief/internal/logging"
	"AINewsBrief/internal/ports"
	"AINewsBrief/internal/report"
	"AINewsBrief/internal/retry"
	"AINewsBrief/internal/scanner"
	"AINewsBrief/internal/scoring"
	"AINewsBrief/internal/usecase"
)

const (
	postgresConnectTimeout = 10 * time.Second
	telegramTimeout        = 30 * time.Second
	stopTimeout            = 2 * time.Minute
)

var errNoPipeline = errors.New("application was opened for history maintenance only")

// Option adjusts how the application is assembled.
type Option func(*options)

type options struct {
	dryRun bool
}

// WithDryRun renders and saves the report but skips delivery and history recording.
func WithDryRun(enabled bool) Option {
	return func(o *options) { o.dryRun = enabled }
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	history  ports.HistoryStore
	closers  []func() error
	pipeline *usecase.Pipeline
}

// New builds every adapter from cfg. A missing LLM key or an unreachable
// Postgres backend is a configuration error.
func New(cfg config.Config, baseLogger *slog.Logger, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	fetchClient := httpclient.New(cfg.Fetch.RequestTimeout())
	source := parser.NewStrategySource(
		newRegistry(cfg.Fetch, fetchClient),
		cfg.Sites,
		cfg.Sources,
		cfg.Fetch.MaxArticlesPerSource,
		baseLogger.With("component", "source"),
	)

	store, err := a.openHistory(cfg)
	if err != nil {
		return nil, err
	}
	a.history = store

	analyzer, err := newAnalyzer(cfg.LLM, cfg.Scoring, baseLogger.With("component", "llm"))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	policy := retryPolicy(cfg.Retry)
	scorer := scoring.NewScorer(analyzer, scoring.Config{
		BatchSize:           cfg.Scoring.BatchSize,
		BatchDelay:          cfg.Scoring.BatchDelay(),
		MinImportanceScore:  cfg.Scoring.MinImportanceScore,
		MinAIRelevanceScore: cfg.Scoring.MinAIRelevanceScore,
	}, policy, baseLogger.With("component", "scoring"))

	var deep *scoring.DeepScorer
	if cfg.Scoring.DeepAnalysisEnabled {
		deep = scoring.NewDeepScorer(analyzer, cfg.Scoring.DeepAnalysisThreshold, policy, baseLogger.With("component", "deep_scoring"))
	}

	var saver ports.ReportSaver
	if cfg.Reports.Save {
		saver = report.Saver{Dir: cfg.Reports.Dir}
	}

	tg := cfg.Notifications.Telegram
	notifier := telegram.NewNotifier(tg.BotToken, tg.ChatID, tg.APIBase, httpclient.New(telegramTimeout), baseLogger.With("component", "telegram"))

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:  source,
		History: store,
		Filter: filter.New(filter.Config{
			MaxAge:              cfg.Fetch.MaxAge(),
			MinContentLength:    cfg.Filter.MinContentLength,
			SimilarityThreshold: cfg.Filter.SimilarityThreshold,
			MaxArticles:         cfg.Filter.MaxTotalArticles,
		}, baseLogger.With("component", "filter")),
		Scorer: scorer,
		Deep:   deep,
		Formatter: report.Formatter{
			Location: cfg.Scheduler.Location(),
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
		},
		Saver:    saver,
		Notifier: notifier,
		MaxAge:   cfg.Fetch.MaxAge(),
		DryRun:   o.dryRun,
		Logger:   baseLogger.With("component", "pipeline"),
	})
	return a, nil
}

// NewHistoryOnly opens just the history store, for maintenance commands that
// must work without LLM or Telegram credentials.
func NewHistoryOnly(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}
	store, err := a.openHistory(cfg)
	if err != nil {
		return nil, err
	}
	a.history = store
	return a, nil
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) (usecase.State, error) {
	if a.pipeline == nil {
		return usecase.State{}, errNoPipeline
	}
	return a.pipeline.Run(ctx)
}

// Schedule runs the pipeline on the configured cron expression until ctx is done.
func (a *Application) Schedule(ctx context.Context) error {
	driver, err := scheduler.NewCronScheduler(
		a.cfg.Scheduler.CronExpression,
		a.cfg.Scheduler.Location(),
		a.logger.With("component", "cron"),
	)
	if err != nil {
		return err
	}

	if a.pipeline == nil {
		return errNoPipeline
	}
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("waiting for scheduled runs", "next", driver.Next())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return ctx.Err()
}

// History exposes the configured history store.
func (a *Application) History() ports.HistoryStore {
	return a.history
}

// Close releases database connections.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *Application) openHistory(cfg config.Config) (ports.HistoryStore, error) {
	switch strings.ToLower(cfg.History.Backend) {
	case "", "file":
		return history.NewFileStore(cfg.History.Path, cfg.History.Days, a.logger.With("component", "history")), nil
	case "postgres":
		if cfg.Database.DSN == "" {
			return nil, errors.New("history backend postgres requires DATABASE_DSN")
		}
		ctx, cancel := context.WithTimeout(context.Background(), postgresConnectTimeout)
		defer cancel()

		db, err := storage.OpenPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		repo := storage.NewPostgresRepository(db, cfg.History.Days, a.logger.With("component", "history"))
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}

func newRegistry(cfg config.FetchConfig, client *http.Client) *scanner.Registry {
	registry := scanner.NewRegistry()
	registry.Register(parser.NewArxivScanner(client, cfg.UserAgent))
	registry.Register(parser.NewFeedScanner(client, cfg.UserAgent))
	registry.Register(parser.NewHTMLScanner(client, cfg.UserAgent))
	registry.Register(parser.NewRedditScanner(client, cfg.RedditUserAgent))
	registry.Register(parser.NewHackerNewsScanner(client, cfg.UserAgent))
	registry.Register(parser.NewGitHubScanner(client, cfg.UserAgent, cfg.GitHubToken))
	return registry
}

func newAnalyzer(cfg config.LLMConfig, scoringCfg config.ScoringConfig, log *slog.Logger) (*llm.Analyzer, error) {
	provider, err := llm.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	completer, err := llm.NewCompleter(llm.ProviderConfig{
		Provider:    provider,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey(provider.String()),
		Endpoint:    cfg.Endpoint,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout(),
	}, httpclient.New(cfg.Timeout()))
	if err != nil {
		return nil, err
	}
	return llm.NewAnalyzer(completer, llm.AnalyzerConfig{
		ContentPreview:     scoringCfg.ContentPreview,
		DeepContentPreview: scoringCfg.DeepContentPreview,
		StrictValidation:   cfg.StrictValidation,
	}, log), nil
}

func retryPolicy(cfg config.RetryConfig) retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = cfg.MaxAttempts
	p.InitialWait = time.Duration(cfg.InitialWaitMillis) * time.Millisecond
	p.MaxWait = time.Duration(cfg.MaxWaitMillis) * time.Millisecond
	p.Jitter = cfg.Jitter
	return p
}
