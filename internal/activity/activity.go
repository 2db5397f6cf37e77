// Package activity stores live wagering records and slices them into the
// trailing windows (24h/7d/30d) the risk-intelligence layer consumes.
package activity

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrInvalidRecord = errors.New("invalid activity record")
)

// Result of a single wager.
type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
)

// Record is one wagering event for a subject.
type Record struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subjectId"`
	Timestamp time.Time `json:"timestamp"`
	Stake     float64   `json:"stake"`
	Result    Result    `json:"result"`
}

// Store persists wagering activity.
type Store interface {
	// Append adds records; each invocation is independent of any other
	// subject's records.
	Append(ctx context.Context, records []*Record) error
	// ListBySubjectSince returns a subject's records with timestamp >= since,
	// ordered oldest first.
	ListBySubjectSince(ctx context.Context, subjectID string, since time.Time) ([]*Record, error)
}

// IngestRequest is the request body for POST /v1/activity.
type IngestRequest struct {
	Records []IngestRecord `json:"records" binding:"required"`
}

// IngestRecord is one record in an ingest batch.
type IngestRecord struct {
	SubjectID string    `json:"subjectId" binding:"required"`
	Timestamp time.Time `json:"timestamp" binding:"required"`
	Stake     float64   `json:"stake" binding:"required"`
	Result    Result    `json:"result" binding:"required"`
}
