package assessment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/safeplay/guardian/internal/idgen"
	"github.com/safeplay/guardian/internal/metrics"
	"github.com/safeplay/guardian/internal/traces"
)

// EventSink receives completed-session events for live dashboards. The
// realtime hub satisfies this via an adapter in the server package.
type EventSink interface {
	Publish(eventType string, data any)
}

// Service completes sessions: it runs the analyzer, evaluates badges against
// the subject's history, persists the result, and notifies listeners.
type Service struct {
	store    Store
	analyzer *Analyzer
	logger   *slog.Logger
	events   EventSink
}

// Option configures the service.
type Option func(*Service)

// WithAnalyzer overrides the default canonical analyzer.
func WithAnalyzer(a *Analyzer) Option {
	return func(s *Service) { s.analyzer = a }
}

// WithEventSink sets the live-event sink.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) { s.events = sink }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates an assessment service backed by the given store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		analyzer: NewAnalyzer(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CompleteSession analyzes a finished session, awards badges against the
// subject's prior history, and persists the scores. The decision slice may
// be empty; the analyzer degrades to neutral defaults rather than erroring.
func (s *Service) CompleteSession(ctx context.Context, req CompleteSessionRequest) (*SessionScores, *Comparison, error) {
	ctx, span := traces.StartSpan(ctx, "assessment.CompleteSession", traces.SubjectID(req.SubjectID))
	defer span.End()

	for i := range req.Decisions {
		if !req.Decisions[i].Tier.Valid() {
			return nil, nil, fmt.Errorf("decision %d: %w %q", i, ErrInvalidTier, req.Decisions[i].Tier)
		}
	}

	history, err := s.store.ListBySubject(ctx, req.SubjectID, historyLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("load session history: %w", err)
	}

	scores := s.analyzer.Analyze(req.SubjectID, req.Decisions)
	scores.ID = idgen.WithPrefix("ses_")
	scores.Badges = EvaluateBadges(scores, history)
	span.SetAttributes(traces.SessionID(scores.ID))

	if err := s.store.CreateSession(ctx, scores); err != nil {
		return nil, nil, fmt.Errorf("persist session: %w", err)
	}
	for _, b := range scores.Badges {
		if err := s.store.AwardBadge(ctx, req.SubjectID, b); err != nil {
			// Badge loss is recoverable from the session record; don't fail
			// the whole completion over it.
			s.logger.Warn("award badge failed",
				"subject", req.SubjectID, "badge", b.ID, "error", err)
			continue
		}
		metrics.BadgesAwardedTotal.WithLabelValues(string(b.Tier)).Inc()
	}

	metrics.SessionsAnalyzedTotal.Inc()
	for _, in := range scores.Insights {
		metrics.InsightsGeneratedTotal.WithLabelValues(string(in.Severity)).Inc()
	}

	comparison := CompareToHistory(scores, history)

	s.logger.Info("session completed",
		"session", scores.ID,
		"subject", req.SubjectID,
		"risk_index", scores.RiskIndex,
		"insights", len(scores.Insights),
		"badges", len(scores.Badges),
		"trend", comparison.Trend,
	)

	if s.events != nil {
		s.events.Publish("session_completed", map[string]any{
			"sessionId": scores.ID,
			"subjectId": scores.SubjectID,
			"riskIndex": scores.RiskIndex,
			"trend":     comparison.Trend,
		})
	}

	return scores, comparison, nil
}

// GetSession returns one completed session by id.
func (s *Service) GetSession(ctx context.Context, id string) (*SessionScores, error) {
	return s.store.GetSession(ctx, id)
}

// ListSessions returns a subject's completed sessions, oldest first.
func (s *Service) ListSessions(ctx context.Context, subjectID string, limit int) ([]*SessionScores, error) {
	return s.store.ListBySubject(ctx, subjectID, limit)
}

// ListBadges returns all badges a subject holds.
func (s *Service) ListBadges(ctx context.Context, subjectID string) ([]Badge, error) {
	return s.store.ListBadges(ctx, subjectID)
}

// PutSignals records the external scorer's signal triple for a session.
func (s *Service) PutSignals(ctx context.Context, sessionID string, req PutSignalsRequest) (*SignalScores, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	sig := &SignalScores{
		SessionID:      sessionID,
		Impulsivity:    req.Impulsivity,
		Patience:       req.Patience,
		RiskEscalation: req.RiskEscalation,
	}
	if err := s.store.PutSignals(ctx, sig); err != nil {
		return nil, fmt.Errorf("persist signal scores: %w", err)
	}
	return sig, nil
}

// GetSignals returns the signal triple for a session, if the external
// scorer has delivered one.
func (s *Service) GetSignals(ctx context.Context, sessionID string) (*SignalScores, error) {
	return s.store.GetSignals(ctx, sessionID)
}
