package realtime

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func testHub() *Hub {
	return NewHub(slog.Default())
}

// ---------------------------------------------------------------------------
// shouldSend tests
// ---------------------------------------------------------------------------

func TestShouldSend_AllEvents(t *testing.T) {
	h := testHub()
	client := &Client{sub: Subscription{AllEvents: true}}

	event := &Event{Type: EventReasonStackCreated, Timestamp: time.Now()}
	if !h.shouldSend(client, event) {
		t.Error("AllEvents client should receive all events")
	}
}

func TestShouldSend_EventTypeFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		EventTypes: []EventType{EventReasonStackCreated, EventRecommendationCreated},
	}}

	stackEvent := &Event{Type: EventReasonStackCreated}
	recEvent := &Event{Type: EventRecommendationCreated}
	sessionEvent := &Event{Type: EventSessionCompleted}

	if !h.shouldSend(client, stackEvent) {
		t.Error("Should receive reason_stack_created events")
	}
	if !h.shouldSend(client, recEvent) {
		t.Error("Should receive recommendation_created events")
	}
	if h.shouldSend(client, sessionEvent) {
		t.Error("Should NOT receive session_completed events")
	}
}

func TestShouldSend_SubjectFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		SubjectIDs: []string{"sub-1"},
	}}

	matching := &Event{
		Type: EventReasonStackCreated,
		Data: map[string]interface{}{"subjectId": "sub-1", "riskLevel": "high"},
	}
	notMatching := &Event{
		Type: EventReasonStackCreated,
		Data: map[string]interface{}{"subjectId": "sub-2", "riskLevel": "high"},
	}

	if !h.shouldSend(client, matching) {
		t.Error("Should match on subjectId")
	}
	if h.shouldSend(client, notMatching) {
		t.Error("Should NOT match unrelated subjects")
	}
}

func TestShouldSend_MinRiskLevelFilter(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		MinRiskLevel: "high",
	}}

	critical := &Event{
		Type: EventReasonStackCreated,
		Data: map[string]interface{}{"riskLevel": "critical"},
	}
	low := &Event{
		Type: EventReasonStackCreated,
		Data: map[string]interface{}{"riskLevel": "low"},
	}
	session := &Event{
		Type: EventSessionCompleted,
		Data: map[string]interface{}{"riskIndex": 42},
	}

	if !h.shouldSend(client, critical) {
		t.Error("Should receive critical stack")
	}
	if h.shouldSend(client, low) {
		t.Error("Should NOT receive low-risk stack")
	}
	if !h.shouldSend(client, session) {
		t.Error("MinRiskLevel filter should only apply to reason-stack events")
	}
}

func TestShouldSend_EmptySubscription(t *testing.T) {
	h := testHub()

	// No filters, not AllEvents
	client := &Client{sub: Subscription{}}

	event := &Event{Type: EventReasonStackCreated}
	if !h.shouldSend(client, event) {
		t.Error("Empty subscription (no filters) should receive events")
	}
}

func TestShouldSend_NonMapData(t *testing.T) {
	h := testHub()

	client := &Client{sub: Subscription{
		SubjectIDs: []string{"sub-1"},
	}}

	// Event with non-map data should not crash
	event := &Event{
		Type: EventSessionCompleted,
		Data: "string data not a map",
	}

	// Subject filter skips non-map data (can't extract the subject), so event passes through
	if !h.shouldSend(client, event) {
		t.Error("Non-map data should pass through when subject filter can't extract the subject")
	}
}

// ---------------------------------------------------------------------------
// Hub lifecycle tests
// ---------------------------------------------------------------------------

func TestHub_Stats_Initial(t *testing.T) {
	h := testHub()

	stats := h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("Expected 0 connected clients, got %v", stats["connectedClients"])
	}
	if stats["totalEvents"].(int64) != 0 {
		t.Errorf("Expected 0 total events, got %v", stats["totalEvents"])
	}
}

func TestHub_BroadcastAndStats(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	// Broadcast an event
	h.Broadcast(&Event{Type: EventReasonStackCreated, Timestamp: time.Now()})
	time.Sleep(50 * time.Millisecond)

	stats := h.Stats()
	if stats["totalEvents"].(int64) != 1 {
		t.Errorf("Expected 1 total event, got %v", stats["totalEvents"])
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{AllEvents: true},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	stats := h.Stats()
	if stats["connectedClients"].(int) != 1 {
		t.Errorf("Expected 1 connected client, got %v", stats["connectedClients"])
	}
	if stats["peakClients"].(int64) != 1 {
		t.Errorf("Expected peak 1, got %v", stats["peakClients"])
	}

	h.unregister <- client
	time.Sleep(50 * time.Millisecond)

	stats = h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("Expected 0 connected clients after unregister, got %v", stats["connectedClients"])
	}
	// Peak should still be 1
	if stats["peakClients"].(int64) != 1 {
		t.Errorf("Expected peak still 1, got %v", stats["peakClients"])
	}
}

func TestHub_BroadcastToClient(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{AllEvents: true},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	h.Broadcast(&Event{
		Type:      EventReasonStackCreated,
		Timestamp: time.Now(),
		Data:      map[string]interface{}{"riskLevel": "high"},
	})

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("Expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for broadcast")
	}
}

func TestHub_Publish(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	// Should not panic
	h.Publish("session_completed", map[string]interface{}{
		"sessionId": "ses_1", "subjectId": "sub-1", "riskIndex": 26,
	})
}

func TestHub_ContextCancellation(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
		// Hub stopped
	case <-time.After(2 * time.Second):
		t.Error("Hub did not stop after context cancellation")
	}
}

func TestHub_FilteredBroadcast(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	// Client only wants recommendations
	client := &Client{
		hub:  h,
		send: make(chan []byte, 256),
		sub:  Subscription{EventTypes: []EventType{EventRecommendationCreated}},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	// Send a session event (should be filtered out)
	h.Broadcast(&Event{Type: EventSessionCompleted, Timestamp: time.Now()})
	time.Sleep(100 * time.Millisecond)

	select {
	case <-client.send:
		t.Error("Client should NOT receive session event")
	default:
		// Good - filtered out
	}

	// Send a recommendation event (should be received)
	h.Broadcast(&Event{Type: EventRecommendationCreated, Timestamp: time.Now()})

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("Expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Error("Client should receive recommendation event")
	}
}
