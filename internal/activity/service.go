package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/safeplay/guardian/internal/idgen"
	"github.com/safeplay/guardian/internal/metrics"
)

// Service handles activity ingestion and window queries.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an activity service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest validates and appends a batch of wagering records. IDs are
// assigned server-side.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) ([]*Record, error) {
	if len(req.Records) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidRecord)
	}

	records := make([]*Record, 0, len(req.Records))
	for i, in := range req.Records {
		if in.Stake <= 0 {
			return nil, fmt.Errorf("%w: record %d: stake must be positive", ErrInvalidRecord, i)
		}
		if in.Result != ResultWin && in.Result != ResultLoss {
			return nil, fmt.Errorf("%w: record %d: result must be win or loss", ErrInvalidRecord, i)
		}
		records = append(records, &Record{
			ID:        idgen.WithPrefix("act_"),
			SubjectID: in.SubjectID,
			Timestamp: in.Timestamp,
			Stake:     in.Stake,
			Result:    in.Result,
		})
	}

	if err := s.store.Append(ctx, records); err != nil {
		return nil, fmt.Errorf("append activity: %w", err)
	}

	metrics.ActivityRecordsTotal.Add(float64(len(records)))
	s.logger.Debug("activity ingested", "count", len(records))
	return records, nil
}

// WindowsForSubject fetches a subject's trailing 30 days of activity and
// slices it into the 24h/7d/30d windows.
func (s *Service) WindowsForSubject(ctx context.Context, subjectID string) (*Windows, error) {
	now := s.now()
	records, err := s.store.ListBySubjectSince(ctx, subjectID, now.Add(-Window30d))
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return Slice(records, now), nil
}

// ListSince returns a subject's records newer than the given duration.
func (s *Service) ListSince(ctx context.Context, subjectID string, window time.Duration) ([]*Record, error) {
	return s.store.ListBySubjectSince(ctx, subjectID, s.now().Add(-window))
}
