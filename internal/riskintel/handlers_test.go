package riskintel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupHandlerTest(store Store) *gin.Engine {
	svc := NewService(store, &fakeActivity{windows: chasingWindows()}, &fakeSignals{})
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/v1"))
	return r
}

func TestEvaluateEndpoint(t *testing.T) {
	r := setupHandlerTest(NewMemoryStore())

	// Empty body evaluates on live activity alone.
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/subjects/player-1/evaluate", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ReasonStack struct {
			ID        string `json:"id"`
			RiskLevel string `json:"riskLevel"`
		} `json:"reasonStack"`
		Recommendation struct {
			ID      string `json:"id"`
			StackID string `json:"stackId"`
		} `json:"recommendation"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.ReasonStack.RiskLevel == "" {
		t.Error("Expected a risk level in the reason stack")
	}
	if resp.Recommendation.StackID != resp.ReasonStack.ID {
		t.Errorf("Expected recommendation linked to stack %s, got %s",
			resp.ReasonStack.ID, resp.Recommendation.StackID)
	}
}

func TestEvaluateEndpoint_InvalidBody(t *testing.T) {
	r := setupHandlerTest(NewMemoryStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/subjects/player-1/evaluate", strings.NewReader("{bad"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", w.Code)
	}
}

func TestEvaluateEndpoint_RecommendationWriteFailed(t *testing.T) {
	r := setupHandlerTest(&failingStore{saveErr: ErrRecommendationWrite})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/subjects/player-1/evaluate", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", w.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Error != "recommendation_write_failed" {
		t.Errorf("Expected recommendation_write_failed, got %s", resp.Error)
	}
}

func TestGetStackEndpoint_NotFound(t *testing.T) {
	r := setupHandlerTest(NewMemoryStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/reason-stacks/stk_missing", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestGetRecommendationEndpoint_NotFound(t *testing.T) {
	r := setupHandlerTest(NewMemoryStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/reason-stacks/stk_missing/recommendation", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestListStacksEndpoint(t *testing.T) {
	r := setupHandlerTest(NewMemoryStore())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/subjects/player-1/evaluate", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d", w.Code)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/subjects/player-1/reason-stacks", nil)
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
	if resp.Count != 2 {
		t.Errorf("Expected 2 stacks, got %d", resp.Count)
	}

	// Limit caps the result.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/v1/subjects/player-1/reason-stacks?limit=1", nil)
	r.ServeHTTP(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("Expected 1 stack with limit=1, got %d", resp.Count)
	}
}
