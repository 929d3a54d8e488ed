package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"AINewsBrief/internal/domain"
	"AINewsBrief/internal/filter"
	"AINewsBrief/internal/ports"
	"AINewsBrief/internal/report"
	"AINewsBrief/internal/scoring"
)

const tracerName = "AINewsBrief/internal/usecase"

// State is the accumulated result of one run. Errors only ever grow.
type State struct {
	RunID       string
	StartedAt   time.Time
	Fetched     []domain.Article
	Filtered    []domain.Article
	FilterStats filter.Stats
	Scored      []domain.ArticleReview
	Admitted    []domain.ArticleReview
	Deep        []domain.DeepReview
	Report      string
	ReportPath  string
	MessageID   int64
	Delivered   bool
	Errors      []string
}

func (s *State) addError(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source    ports.ArticleSource
	History   ports.HistoryStore
	Filter    *filter.Pipeline
	Scorer    *scoring.Scorer
	Deep      *scoring.DeepScorer
	Formatter report.Formatter
	Saver     ports.ReportSaver
	Notifier  ports.Notifier
	MaxAge    time.Duration
	DryRun    bool
	Tracer    trace.Tracer
	Logger    *slog.Logger
	Now       func() time.Time
}

// Pipeline runs Fetch, Filter, Score, DeepScore, Format and Send in that order.
// A failing stage records its error and hands partial data to the next one.
type Pipeline struct {
	source    ports.ArticleSource
	history   ports.HistoryStore
	filter    *filter.Pipeline
	scorer    *scoring.Scorer
	deep      *scoring.DeepScorer
	formatter report.Formatter
	saver     ports.ReportSaver
	notifier  ports.Notifier
	maxAge    time.Duration
	dryRun    bool
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		source:    deps.Source,
		history:   deps.History,
		filter:    deps.Filter,
		scorer:    deps.Scorer,
		deep:      deps.Deep,
		formatter: deps.Formatter,
		saver:     deps.Saver,
		notifier:  deps.Notifier,
		maxAge:    deps.MaxAge,
		dryRun:    deps.DryRun,
		tracer:    deps.Tracer,
		logger:    deps.Logger,
		now:       deps.Now,
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(tracerName)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.maxAge <= 0 {
		p.maxAge = 24 * time.Hour
	}
	return p
}

type stage struct {
	name string
	run  func(ctx context.Context, state *State, log *slog.Logger)
}

// Run executes one brief. It returns an error only when ctx ends before the run completes;
// everything else is recorded in State.Errors.
func (p *Pipeline) Run(ctx context.Context) (State, error) {
	state := State{RunID: uuid.NewString(), StartedAt: p.now()}
	log := p.logger.With("run_id", state.RunID)

	ctx = ports.ContextWithRunID(ctx, state.RunID)
	ctx, span := p.tracer.Start(ctx, "brief.run", trace.WithAttributes(
		attribute.String("brief.run_id", state.RunID),
		attribute.Bool("brief.dry_run", p.dryRun),
	))
	defer span.End()

	log.Info("run started", "dry_run", p.dryRun)

	stages := []stage{
		{"fetch", p.fetch},
		{"filter", p.applyFilter},
		{"score", p.score},
		{"deep_score", p.deepScore},
		{"format", p.format},
		{"send", p.send},
	}
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			state.addError("run interrupted before %s: %v", st.name, err)
			span.SetStatus(codes.Error, "interrupted")
			log.Warn("run interrupted", "stage", st.name, "error", err)
			return state, fmt.Errorf("run interrupted before %s: %w", st.name, err)
		}
		p.runStage(ctx, st, &state, log)
	}

	span.SetAttributes(attribute.Int("brief.errors", len(state.Errors)))
	log.Info("run finished",
		"fetched", len(state.Fetched),
		"filtered", len(state.Filtered),
		"admitted", len(state.Admitted),
		"deep", len(state.Deep),
		"delivered", state.Delivered,
		"errors", len(state.Errors),
	)
	return state, nil
}

func (p *Pipeline) runStage(ctx context.Context, st stage, state *State, log *slog.Logger) {
	ctx, span := p.tracer.Start(ctx, "brief."+st.name)
	defer span.End()

	before := len(state.Errors)
	started := time.Now()
	st.run(ctx, state, log.With("stage", st.name))

	if added := state.Errors[before:]; len(added) > 0 {
		for _, msg := range added {
			span.RecordError(fmt.Errorf("%s", msg))
		}
		span.SetStatus(codes.Error, added[len(added)-1])
	}
	log.Debug("stage done", "stage", st.name, "elapsed", time.Since(started), "errors", len(state.Errors)-before)
}

func (p *Pipeline) fetch(ctx context.Context, state *State, log *slog.Logger) {
	if p.source == nil {
		state.addError("fetch: no article source configured")
		return
	}
	since := state.StartedAt.Add(-p.maxAge)
	articles, errs := p.source.FetchAll(ctx, since)
	for _, err := range errs {
		state.addError("fetch: %v", err)
	}
	state.Fetched = articles
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("brief.fetched", len(articles)))
	log.Info("fetched articles", "count", len(articles), "source_errors", len(errs))
}

func (p *Pipeline) applyFilter(ctx context.Context, state *State, log *slog.Logger) {
	snapshot := ports.HistorySnapshot{URLs: map[string]struct{}{}}
	if p.history != nil {
		loaded, err := p.history.Load(ctx)
		if err != nil {
			state.addError("history load: %v", err)
		} else {
			snapshot = loaded
		}
	}
	if p.filter == nil {
		state.Filtered = state.Fetched
	} else {
		state.Filtered, state.FilterStats = p.filter.Apply(state.Fetched, snapshot, state.StartedAt)
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("brief.filtered", len(state.Filtered)))
	log.Info("filtered articles", "kept", len(state.Filtered), "history_urls", len(snapshot.URLs))
}

func (p *Pipeline) score(ctx context.Context, state *State, log *slog.Logger) {
	if len(state.Filtered) == 0 {
		return
	}
	if p.scorer == nil {
		state.addError("score: no scorer configured")
		return
	}
	state.Scored = p.scorer.ScoreAll(ctx, state.Filtered)

	fallbacks := 0
	for _, r := range state.Scored {
		if r.Fallback {
			fallbacks++
		}
	}
	if fallbacks > 0 {
		state.addError("score: analysis failed for %d of %d articles", fallbacks, len(state.Scored))
	}

	state.Admitted = p.scorer.Admit(state.Scored)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("brief.scored", len(state.Scored)),
		attribute.Int("brief.admitted", len(state.Admitted)),
	)
	log.Info("scored articles", "scored", len(state.Scored), "admitted", len(state.Admitted), "fallbacks", fallbacks)
}

func (p *Pipeline) deepScore(ctx context.Context, state *State, log *slog.Logger) {
	if p.deep == nil || len(state.Admitted) == 0 {
		return
	}
	state.Deep = p.deep.Run(ctx, state.Admitted)
	log.Info("deep analysis done", "count", len(state.Deep))
}

func (p *Pipeline) format(_ context.Context, state *State, log *slog.Logger) {
	state.Report = p.formatter.Format(state.Admitted, state.Deep, report.Meta{
		Date:     state.StartedAt,
		Fetched:  len(state.Fetched),
		Filtered: len(state.Filtered),
		Admitted: len(state.Admitted),
		Errors:   state.Errors,
	})

	if p.saver == nil {
		return
	}
	path, err := p.saver.Save(state.Report, state.StartedAt.In(p.location()))
	if err != nil {
		state.addError("report save: %v", err)
		return
	}
	state.ReportPath = path
	log.Info("report saved", "path", path)
}

func (p *Pipeline) send(ctx context.Context, state *State, log *slog.Logger) {
	if p.dryRun {
		log.Info("dry run, delivery and history recording skipped", "report_chars", len([]rune(state.Report)))
		return
	}
	if p.notifier == nil {
		log.Warn("no notifier configured, report not delivered")
		return
	}

	id, err := p.notifier.Send(ctx, state.Report)
	if err != nil {
		state.addError("send: %v", err)
		if notifyErr := p.notifier.SendError(ctx, fmt.Sprintf("Failed to deliver brief %s: %v", state.RunID, err)); notifyErr != nil {
			log.Error("error notification failed", "error", notifyErr)
		}
		return
	}
	state.MessageID = id
	state.Delivered = true
	log.Info("report delivered", "message_id", id)

	if p.history == nil || len(state.Admitted) == 0 {
		return
	}
	delivered := make([]domain.Article, 0, len(state.Admitted))
	for _, r := range state.Admitted {
		delivered = append(delivered, r.Article)
	}
	if err := p.history.Record(ctx, delivered); err != nil {
		state.addError("history record: %v", err)
		return
	}
	log.Info("history updated", "recorded", len(delivered))
}

func (p *Pipeline) location() *time.Location {
	if p.formatter.Location != nil {
		return p.formatter.Location
	}
	return time.UTC
}
