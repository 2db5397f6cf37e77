package activity

import (
	"context"
	"testing"
	"time"

	"github.com/safeplay/guardian/internal/testutil"
)

func TestPostgresStore_AppendAndList(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	err := store.Append(ctx, []*Record{
		{ID: "act_pg1", SubjectID: "player-pg", Timestamp: now.Add(-2 * time.Hour), Stake: 10, Result: ResultLoss},
		{ID: "act_pg2", SubjectID: "player-pg", Timestamp: now.Add(-1 * time.Hour), Stake: 25, Result: ResultWin},
		{ID: "act_pg3", SubjectID: "other-pg", Timestamp: now.Add(-1 * time.Hour), Stake: 5, Result: ResultWin},
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := store.ListBySubjectSince(ctx, "player-pg", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("ListBySubjectSince failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].ID != "act_pg1" || records[1].ID != "act_pg2" {
		t.Errorf("Expected oldest-first ordering, got %s,%s", records[0].ID, records[1].ID)
	}
	if records[0].Result != ResultLoss || records[0].Stake != 10 {
		t.Errorf("Record did not round trip: %+v", records[0])
	}
}

func TestPostgresStore_SinceFiltersOldRecords(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	err := store.Append(ctx, []*Record{
		{ID: "act_old", SubjectID: "player-pg", Timestamp: now.Add(-40 * 24 * time.Hour), Stake: 10, Result: ResultLoss},
		{ID: "act_new", SubjectID: "player-pg", Timestamp: now.Add(-1 * time.Hour), Stake: 20, Result: ResultWin},
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := store.ListBySubjectSince(ctx, "player-pg", now.Add(-Window30d))
	if err != nil {
		t.Fatalf("ListBySubjectSince failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "act_new" {
		t.Errorf("Expected only the recent record, got %+v", records)
	}
}

func TestPostgresStore_AppendEmpty(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	store := NewPostgresStore(db)
	if err := store.Append(context.Background(), nil); err != nil {
		t.Errorf("Expected empty append to be a no-op, got %v", err)
	}
}
