package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type createFailStore struct {
	*MemoryStore
}

func (s *createFailStore) CreateSession(ctx context.Context, scores *SessionScores) error {
	return errors.New("connection refused")
}

func init() {
	gin.SetMode(gin.TestMode)
}

func setupHandlerTest() *gin.Engine {
	svc := NewService(NewMemoryStore())
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/v1"))
	return r
}

func TestCompleteSessionEndpoint(t *testing.T) {
	r := setupHandlerTest()

	body := `{"subjectId":"player-1","decisions":[
		{"scenarioId":1,"category":"loss_chasing","tier":"safe","latencyMs":4000},
		{"scenarioId":2,"category":"winning_streak","tier":"safe","latencyMs":5000},
		{"scenarioId":3,"category":"budget_violation","tier":"safe","latencyMs":6000}
	]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Session struct {
			ID        string `json:"id"`
			RiskIndex int    `json:"riskIndex"`
		} `json:"session"`
		Comparison struct {
			Trend string `json:"trend"`
		} `json:"comparison"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Session.RiskIndex != 26 {
		t.Errorf("Expected risk index 26, got %d", resp.Session.RiskIndex)
	}
	if resp.Comparison.Trend != "stable" {
		t.Errorf("Expected stable trend, got %s", resp.Comparison.Trend)
	}
}

func TestCompleteSessionEndpoint_UnknownTier(t *testing.T) {
	r := setupHandlerTest()

	body := `{"subjectId":"player-1","decisions":[{"scenarioId":1,"tier":"reckless"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown tier, got %d", w.Code)
	}
}

func TestCompleteSessionEndpoint_StoreFailure(t *testing.T) {
	svc := NewService(&createFailStore{NewMemoryStore()})
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/v1"))

	body := `{"subjectId":"player-1","decisions":[{"scenarioId":1,"category":"loss_chasing","tier":"safe","latencyMs":4000}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500 for a persistence failure, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "internal_error") {
		t.Errorf("Expected internal_error code, got %s", w.Body.String())
	}
}

func TestGetSessionEndpoint_NotFound(t *testing.T) {
	r := setupHandlerTest()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/sessions/ses_missing", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestSignalsEndpoints(t *testing.T) {
	r := setupHandlerTest()

	// Create a session first.
	body := `{"subjectId":"player-1","decisions":[{"scenarioId":1,"category":"loss_chasing","tier":"safe","latencyMs":4000}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", w.Code)
	}

	var created struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	// Signals not delivered yet.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/v1/sessions/"+created.Session.ID+"/signals", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 before signals delivered, got %d", w.Code)
	}

	// Deliver the triple.
	sigBody := `{"impulsivity":80,"patience":25,"riskEscalation":70}`
	w = httptest.NewRecorder()
	req = httptest.NewRequest("PUT", "/v1/sessions/"+created.Session.ID+"/signals", strings.NewReader(sigBody))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 putting signals, got %d: %s", w.Code, w.Body.String())
	}

	// Now readable.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/v1/sessions/"+created.Session.ID+"/signals", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 reading signals, got %d", w.Code)
	}
}

func TestPutSignalsEndpoint_UnknownSession(t *testing.T) {
	r := setupHandlerTest()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/v1/sessions/ses_missing/signals", strings.NewReader(`{"impulsivity":10}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", w.Code)
	}
}

func TestListBadgesEndpoint(t *testing.T) {
	r := setupHandlerTest()

	body := `{"subjectId":"player-1","decisions":[{"scenarioId":1,"category":"loss_chasing","tier":"safe","latencyMs":4000}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/v1/subjects/player-1/badges", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Count == 0 {
		t.Error("Expected at least one badge after first session")
	}
}
