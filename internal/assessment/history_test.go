package assessment

import (
	"strings"
	"testing"
)

func TestCompareToHistory_FirstSession(t *testing.T) {
	c := CompareToHistory(sessionWithBalance(70), nil)

	if c.Trend != TrendStable {
		t.Errorf("Expected stable trend for first session, got %s", c.Trend)
	}
	if !strings.Contains(c.Message, "first session") {
		t.Errorf("Expected first-session message, got %q", c.Message)
	}
}

func TestCompareToHistory_Improving(t *testing.T) {
	history := []*SessionScores{sessionWithBalance(50), sessionWithBalance(50)}
	c := CompareToHistory(sessionWithBalance(75), history)

	if c.Trend != TrendImproving {
		t.Errorf("Expected improving trend, got %s", c.Trend)
	}
	if c.Improvement != 25 {
		t.Errorf("Expected improvement 25, got %.1f", c.Improvement)
	}
}

func TestCompareToHistory_Declining(t *testing.T) {
	history := []*SessionScores{sessionWithBalance(80)}
	c := CompareToHistory(sessionWithBalance(50), history)

	if c.Trend != TrendDeclining {
		t.Errorf("Expected declining trend, got %s", c.Trend)
	}
}

func TestCompareToHistory_StableWithinBand(t *testing.T) {
	history := []*SessionScores{sessionWithBalance(70)}
	c := CompareToHistory(sessionWithBalance(75), history)

	if c.Trend != TrendStable {
		t.Errorf("Expected stable trend within ±10 band, got %s", c.Trend)
	}
}
