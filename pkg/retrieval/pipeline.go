// Package retrieval turns text-selection events into backend calls whose
// results land in the shared store, newest selection wins.
package retrieval

import (
	"context"
	"strings"
	"time"

	"docuwise-client/internal/metrics"
	"docuwise-client/internal/pkg/logger"
	"docuwise-client/pkg/backend"
	"docuwise-client/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Result describes how one run ended.
type Result string

const (
	ResultRejected  Result = "rejected"  // empty selection, nothing happened
	ResultCommitted Result = "committed" // this run's results are in the store
	ResultStale     Result = "stale"     // a newer selection overtook this run
	ResultFailed    Result = "failed"    // network failure, empty results committed
)

// Stage names used in error reports and metrics.
const (
	StageRecommend = "recommend"
	StageInsights  = "insights"
)

// ErrorReporter receives contained pipeline failures. It must not block.
type ErrorReporter interface {
	Report(ctx context.Context, stage string, err error)
}

// LogReporter reports failures to the structured log.
type LogReporter struct {
	Logger logger.ILogger
}

func (r LogReporter) Report(ctx context.Context, stage string, err error) {
	r.Logger.Warn("Retrieval", "Backend call failed, showing empty results", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
}

type Config struct {
	MaxSnippets     int
	MaxInsightTexts int
	Persona         string
	Task            string
}

func (c Config) withDefaults() Config {
	if c.MaxSnippets <= 0 {
		c.MaxSnippets = 5
	}
	if c.MaxInsightTexts <= 0 {
		c.MaxInsightTexts = 6
	}
	if c.Persona == "" {
		c.Persona = "General researcher"
	}
	if c.Task == "" {
		c.Task = "Understand and compare the selected concept across documents"
	}
	return c
}

type Pipeline struct {
	store    *store.Store
	client   backend.Client
	cfg      Config
	reporter ErrorReporter
	logger   logger.ILogger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

func WithReporter(r ErrorReporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithLogger(l logger.ILogger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func NewPipeline(st *store.Store, client backend.Client, cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:  st,
		client: client,
		cfg:    cfg.withDefaults(),
		logger: logger.NewNopLogger(),
		tracer: otel.Tracer("docuwise-client/retrieval"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.reporter == nil {
		p.reporter = LogReporter{Logger: p.logger}
	}
	return p
}

// Trigger runs the pipeline in the background. Overtaken runs are not
// cancelled; their results are discarded at commit time.
func (p *Pipeline) Trigger(text string) {
	go p.Run(context.Background(), text)
}

// Run processes one selection synchronously. Failures are contained: they are
// reported and turned into empty results, never returned.
func (p *Pipeline) Run(ctx context.Context, text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		p.metrics.RecordRun(string(ResultRejected), time.Time{})
		return ResultRejected
	}

	// Mode is captured once; toggling it mid-flight affects only later runs.
	snap := p.store.Snapshot()
	online := snap.OnlineMode

	ctx, span := p.tracer.Start(ctx, "retrieval.run", trace.WithAttributes(
		attribute.Bool("online", online),
		attribute.String("active_document", snap.ActiveDocumentID),
		attribute.Int("selection_length", len(text)),
	))
	defer span.End()

	start := time.Now()
	p.metrics.RunStarted()
	defer p.metrics.RunFinished()

	token := p.store.BeginSelection(text)
	span.SetAttributes(attribute.Int64("token", int64(token)))
	// Guarded by token: an overtaken run never clears a newer run's loading flag.
	defer p.store.EndSelection(token)

	result := p.run(ctx, token, text, online)

	p.metrics.RecordRun(string(result), start)
	span.SetAttributes(attribute.String("result", string(result)))
	p.logger.Debug("Retrieval", "Run finished", map[string]interface{}{
		"token":       token,
		"result":      result,
		"online":      online,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return result
}

func (p *Pipeline) run(ctx context.Context, token store.Token, text string, online bool) Result {
	callStart := time.Now()
	rec, err := p.client.Recommend(ctx, backend.RecommendRequest{
		SelectedText: text,
		TopK:         p.cfg.MaxSnippets,
		Online:       online,
	})
	p.metrics.ObserveBackend(StageRecommend, callStart, err)
	if err != nil {
		return p.fail(ctx, token, StageRecommend, err)
	}

	snippets := rec.Snippets
	if len(snippets) > p.cfg.MaxSnippets {
		snippets = snippets[:p.cfg.MaxSnippets]
	}
	if !p.store.CommitSnippets(token, snippets) {
		p.metrics.RecordStale(StageRecommend)
		return ResultStale
	}

	if !online || len(snippets) == 0 {
		return p.commitInsights(token, store.EmptyInsights())
	}

	if rec.Online != nil {
		return p.commitInsights(token, *rec.Online)
	}
	if rec.OnlineError != "" {
		p.logger.Info("Retrieval", "Backend could not inline insights", map[string]interface{}{
			"online_error": rec.OnlineError,
		})
	}

	callStart = time.Now()
	ins, err := p.client.Insights(ctx, backend.InsightsRequest{
		Texts:   insightTexts(snippets, p.cfg.MaxInsightTexts),
		Persona: p.cfg.Persona,
		Task:    p.cfg.Task,
	})
	p.metrics.ObserveBackend(StageInsights, callStart, err)
	if err != nil {
		return p.fail(ctx, token, StageInsights, err)
	}
	return p.commitInsights(token, ins.Pack)
}

func (p *Pipeline) commitInsights(token store.Token, pack store.InsightsPack) Result {
	if !p.store.CommitInsights(token, pack) {
		p.metrics.RecordStale(StageInsights)
		return ResultStale
	}
	return ResultCommitted
}

// fail clears this run's results so nothing from an earlier selection stays
// visible, then reports. A stale run leaves the store alone.
func (p *Pipeline) fail(ctx context.Context, token store.Token, stage string, err error) Result {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, stage+" failed")

	p.reporter.Report(ctx, stage, err)

	snippetsCleared := p.store.CommitSnippets(token, []store.Snippet{})
	insightsCleared := p.store.CommitInsights(token, store.EmptyInsights())
	if !snippetsCleared && !insightsCleared {
		p.metrics.RecordStale(stage)
		return ResultStale
	}
	return ResultFailed
}

// insightTexts picks up to max non-empty snippet texts.
func insightTexts(snippets []store.Snippet, max int) []string {
	texts := make([]string, 0, max)
	for _, s := range snippets {
		if len(texts) == max {
			break
		}
		if t := strings.TrimSpace(s.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return texts
}
