// Package orchestrator runs the classify, guard, generate and log lifecycle
// of a single plan request.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/airouter/internal/classifier"
	"github.com/airouter/internal/llm"
	"github.com/airouter/internal/logging"
	"github.com/airouter/internal/metrics"
	"github.com/airouter/internal/models"
	"github.com/airouter/internal/planner"
	"github.com/airouter/internal/usagelog"
)

const (
	Endpoint = "/generate-plan"

	tracerName = "github.com/airouter/internal/orchestrator"

	// observabilityTimeout bounds the post-request writes, which run on a
	// context detached from the request so a cancelled caller still gets logged.
	observabilityTimeout = 5 * time.Second
)

// ErrInternal marks failures that are neither budget nor generation errors.
var ErrInternal = errors.New("internal error")

type Orchestrator struct {
	classifier classifier.Classifier
	guard      llm.BudgetGuard
	generator  planner.Generator
	usage      usagelog.Writer
	metrics    metrics.Publisher
	logger     *slog.Logger
	tracer     trace.Tracer

	newID func() string
	now   func() time.Time
}

type Option func(*Orchestrator)

// WithBudgetGuard replaces the default guard.
func WithBudgetGuard(g llm.BudgetGuard) Option {
	return func(o *Orchestrator) { o.guard = g }
}

func WithIDGenerator(f func() string) Option {
	return func(o *Orchestrator) { o.newID = f }
}

func WithClock(f func() time.Time) Option {
	return func(o *Orchestrator) { o.now = f }
}

// WithTracerProvider overrides the global OpenTelemetry provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Orchestrator) { o.tracer = tp.Tracer(tracerName) }
}

func New(c classifier.Classifier, g planner.Generator, usage usagelog.Writer, pub metrics.Publisher, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier: c,
		guard:      llm.DefaultBudgetGuard(),
		generator:  g,
		usage:      usage,
		metrics:    pub,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// outcome accumulates what is known about a request for the terminal log.
type outcome struct {
	requestID string
	goal      string
	category  models.Category
	modelID   string
	tokens    int
	start     time.Time
}

// GeneratePlan runs one request. Errors returned are *llm.BudgetExceededError,
// or wrap planner.ErrMalformedPlan, planner.ErrProviderFailure or ErrInternal.
// Exactly one usage entry is written whatever the outcome.
func (o *Orchestrator) GeneratePlan(ctx context.Context, req models.GoalRequest) (plan *models.Plan, err error) {
	out := &outcome{
		requestID: o.newID(),
		goal:      req.Goal,
		category:  models.CategoryUnknown,
		start:     o.now(),
	}

	ctx, span := o.tracer.Start(ctx, "GeneratePlan", trace.WithAttributes(
		attribute.String("request_id", out.requestID),
		attribute.Int("goal_length", len(req.Goal)),
	))
	defer span.End()

	o.logger.InfoContext(ctx, "processing plan request",
		slog.String("request_id", out.requestID),
		slog.Int("goal_length", len(req.Goal)),
	)

	defer func() {
		if r := recover(); r != nil {
			plan = nil
			err = fmt.Errorf("%w: panic: %v", ErrInternal, r)
		}
		span.SetAttributes(
			attribute.String("category", string(out.category)),
			attribute.Int("tokens", out.tokens),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "plan generation failed")
		}
		o.finish(ctx, out, plan, err)
	}()

	classifyStart := o.now()
	out.category = o.classifier.Classify(ctx, req.Goal)
	classifyLatency := o.now().Sub(classifyStart)
	o.logger.InfoContext(ctx, "goal classified",
		slog.String("request_id", out.requestID),
		slog.String("category", string(out.category)),
		slog.Float64("latency_ms", float64(classifyLatency.Microseconds())/1000),
	)

	out.tokens = llm.EstimateRequestTokens(req.Goal, req.Context)
	if err := o.guard.Check(out.tokens); err != nil {
		logging.CostGuardTriggered(ctx, o.logger, out.requestID, out.tokens, o.guard.MaxInputTokens, len(req.Goal))
		return nil, err
	}

	plan, err = o.generator.Generate(ctx, req.Goal, req.Context, out.category, out.requestID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: generator returned no plan", ErrInternal)
	}

	plan.Metadata.ClassificationLatencyMs = float64(classifyLatency.Microseconds()) / 1000
	out.modelID = plan.Metadata.Model
	out.tokens = plan.Metadata.TokensUsed.Total
	return plan, nil
}

// finish publishes metrics and writes the usage entry. Failures are logged
// and never returned.
func (o *Orchestrator) finish(ctx context.Context, out *outcome, plan *models.Plan, reqErr error) {
	latency := o.now().Sub(out.start)
	success := reqErr == nil

	errMsg := ""
	if !success {
		errMsg = reqErr.Error()
		o.logger.ErrorContext(ctx, "plan request failed",
			slog.String("request_id", out.requestID),
			slog.String("category", string(out.category)),
			slog.String("error", logging.TruncateError(reqErr)),
		)
	}

	entry := models.NewUsageLogEntry(out.requestID, out.goal, out.category, out.modelID, out.tokens, latency, errMsg, o.now())

	obsCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), observabilityTimeout)
	defer cancel()

	// bestEffort never returns an error, so Wait only joins the two writes.
	var g errgroup.Group
	g.Go(o.bestEffort(obsCtx, out.requestID, "UsageLogWriteFailure", func() error {
		return o.usage.LogRequest(obsCtx, entry)
	}))
	g.Go(o.bestEffort(obsCtx, out.requestID, "MetricsPublishFailure", func() error {
		return errors.Join(o.publishMetrics(obsCtx, out, plan, latency, success)...)
	}))
	g.Wait()

	if success {
		o.logger.InfoContext(ctx, "plan generated",
			slog.String("request_id", out.requestID),
			slog.String("category", string(out.category)),
			slog.Int("tokens_used", out.tokens),
			slog.Float64("latency_ms", entry.LatencyMs),
		)
	}
}

// bestEffort wraps an observability write so that neither its error nor a
// panic escapes; both are logged.
func (o *Orchestrator) bestEffort(ctx context.Context, requestID, errorType string, write func() error) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				logging.Error(ctx, o.logger, requestID, errorType, fmt.Errorf("panic: %v", r))
			}
		}()
		if err := write(); err != nil {
			logging.Error(ctx, o.logger, requestID, errorType, err)
		}
		return nil
	}
}

func (o *Orchestrator) publishMetrics(ctx context.Context, out *outcome, plan *models.Plan, latency time.Duration, success bool) []error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	category := string(out.category)
	if success {
		collect(o.metrics.PublishTokenUsage(ctx, plan.Metadata.TokensUsed.Total, plan.Metadata.Model))
		collect(o.metrics.PublishLatency(ctx, latency, Endpoint))
	}
	collect(o.metrics.PublishRequestCount(ctx, success, category))
	return errs
}
