package riskintel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/safeplay/guardian/internal/activity"
	"github.com/safeplay/guardian/internal/assessment"
	"github.com/safeplay/guardian/internal/idgen"
	"github.com/safeplay/guardian/internal/metrics"
	"github.com/safeplay/guardian/internal/traces"
)

// ActivityProvider supplies a subject's live-activity windows.
type ActivityProvider interface {
	WindowsForSubject(ctx context.Context, subjectID string) (*activity.Windows, error)
}

// SignalProvider supplies the signal triple for a completed assessment
// session.
type SignalProvider interface {
	GetSignals(ctx context.Context, sessionID string) (*assessment.SignalScores, error)
}

// EventSink receives evaluation events for live dashboards.
type EventSink interface {
	Publish(eventType string, data any)
}

// Service runs full risk-evaluation cycles: it fetches the boundary inputs,
// generates a reason stack, derives the recommendation, and persists the
// pair atomically.
type Service struct {
	store     Store
	activity  ActivityProvider
	signals   SignalProvider
	generator *Generator
	logger    *slog.Logger
	events    EventSink
}

// Option configures the service.
type Option func(*Service)

// WithEventSink sets the live-event sink.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.events = sink }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a risk-intelligence service.
func NewService(store Store, activityProvider ActivityProvider, signalProvider SignalProvider, opts ...Option) *Service {
	s := &Service{
		store:     store,
		activity:  activityProvider,
		signals:   signalProvider,
		generator: NewGenerator(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate runs one risk-evaluation cycle for a subject. The live-activity
// fetch and the signal fetch are independent, so they run concurrently and
// are joined before generation. A missing signal triple downgrades to a
// live-activity-only stack; a failed activity fetch fails the whole cycle.
func (s *Service) Evaluate(ctx context.Context, subjectID string, req EvaluateRequest) (*ReasonStack, *Recommendation, error) {
	ctx, span := traces.StartSpan(ctx, "riskintel.Evaluate", traces.SubjectID(subjectID))
	defer span.End()

	start := time.Now()

	type activityResult struct {
		windows *activity.Windows
		err     error
	}
	type signalResult struct {
		signals *assessment.SignalScores
		err     error
	}

	activityCh := make(chan activityResult, 1)
	signalCh := make(chan signalResult, 1)

	go func() {
		w, err := s.activity.WindowsForSubject(ctx, subjectID)
		activityCh <- activityResult{windows: w, err: err}
	}()
	go func() {
		if req.SessionID == "" {
			signalCh <- signalResult{}
			return
		}
		sig, err := s.signals.GetSignals(ctx, req.SessionID)
		signalCh <- signalResult{signals: sig, err: err}
	}()

	act := <-activityCh
	sig := <-signalCh

	if act.err != nil {
		span.RecordError(act.err)
		span.SetStatus(codes.Error, "activity fetch failed")
		return nil, nil, fmt.Errorf("fetch activity windows: %w", act.err)
	}
	if sig.err != nil {
		if !errors.Is(sig.err, assessment.ErrSignalsNotFound) && !errors.Is(sig.err, assessment.ErrSessionNotFound) {
			span.RecordError(sig.err)
			span.SetStatus(codes.Error, "signal fetch failed")
			return nil, nil, fmt.Errorf("fetch assessment signals: %w", sig.err)
		}
		s.logger.Warn("assessment signals unavailable, evaluating on live activity only",
			"subject", subjectID, "session", req.SessionID)
		sig.signals = nil
	}

	sessionID := req.SessionID
	if sig.signals == nil {
		sessionID = ""
	}

	stack := s.generator.Generate(subjectID, act.windows, sig.signals, sessionID)
	stack.ID = idgen.WithPrefix("stk_")
	stack.CreatedAt = time.Now().UTC()
	span.SetAttributes(traces.StackID(stack.ID), traces.RiskLevel(string(stack.RiskLevel)))

	rec := Recommend(stack)
	rec.ID = idgen.WithPrefix("rec_")
	rec.CreatedAt = stack.CreatedAt

	if err := s.store.SaveEvaluation(ctx, stack, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist evaluation failed")
		return nil, nil, err
	}

	metrics.ReasonStacksTotal.WithLabelValues(string(stack.RiskLevel)).Inc()
	metrics.RecommendationsTotal.WithLabelValues(string(rec.Type)).Inc()
	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("risk evaluation completed",
		"subject", subjectID,
		"stack", stack.ID,
		"risk_level", stack.RiskLevel,
		"confidence", stack.Confidence,
		"factors", len(stack.Factors),
		"intervention", rec.Type,
		"success_probability", rec.SuccessProbability,
	)

	if s.events != nil {
		s.events.Publish("reason_stack_created", map[string]any{
			"stackId":    stack.ID,
			"subjectId":  subjectID,
			"riskLevel":  stack.RiskLevel,
			"confidence": stack.Confidence,
		})
		s.events.Publish("recommendation_created", map[string]any{
			"recommendationId":   rec.ID,
			"stackId":            stack.ID,
			"subjectId":          subjectID,
			"type":               rec.Type,
			"timing":             rec.Timing,
			"successProbability": rec.SuccessProbability,
		})
	}

	return stack, rec, nil
}

// GetStack returns one reason stack by id.
func (s *Service) GetStack(ctx context.Context, id string) (*ReasonStack, error) {
	return s.store.GetStack(ctx, id)
}

// GetRecommendation returns the recommendation for a stack.
func (s *Service) GetRecommendation(ctx context.Context, stackID string) (*Recommendation, error) {
	return s.store.GetRecommendation(ctx, stackID)
}

// ListStacks returns a subject's reason stacks, newest first.
func (s *Service) ListStacks(ctx context.Context, subjectID string, limit int) ([]*ReasonStack, error) {
	return s.store.ListStacksBySubject(ctx, subjectID, limit)
}
