package assessment

import "testing"

func insightTitles(insights []Insight) map[string]bool {
	titles := make(map[string]bool, len(insights))
	for _, in := range insights {
		titles[in.Title] = true
	}
	return titles
}

func TestGenerateInsights_Empty(t *testing.T) {
	if got := GenerateInsights(nil, false); got != nil {
		t.Errorf("Expected no insights for empty session, got %d", len(got))
	}
}

func TestGenerateInsights_LossChasing(t *testing.T) {
	d := []DecisionRecord{
		{Category: CategoryLossChasing, Tier: TierVeryRisky, LatencyMS: 5000},
	}
	titles := insightTitles(GenerateInsights(d, false))
	if !titles["Loss Chasing Tendency"] {
		t.Error("Expected loss chasing insight")
	}
}

func TestGenerateInsights_WinManagement(t *testing.T) {
	d := []DecisionRecord{
		{Category: CategoryWinningStreak, Tier: TierSafe, LatencyMS: 5000},
		{Category: CategoryWinningStreak, Tier: TierSafe, LatencyMS: 5000},
	}
	titles := insightTitles(GenerateInsights(d, false))
	if !titles["Excellent Win Management"] {
		t.Error("Expected win management insight for two safe winning-streak choices")
	}
}

func TestGenerateInsights_QuickRiskyDecisions(t *testing.T) {
	d := []DecisionRecord{
		{Category: CategoryEmotionalPlay, Tier: TierVeryRisky, LatencyMS: 1000},
		{Category: CategoryBudgetViolation, Tier: TierVeryRisky, LatencyMS: 1500},
		{Category: CategoryTimeManagement, Tier: TierVeryRisky, LatencyMS: 2000},
	}
	titles := insightTitles(GenerateInsights(d, false))
	if !titles["Quick Risky Decisions"] {
		t.Error("Expected impulsivity insight for fast very-risky choices")
	}
}

func TestGenerateInsights_SelfControl(t *testing.T) {
	var d []DecisionRecord
	for i := 0; i < 6; i++ {
		d = append(d, DecisionRecord{Category: CategoryTimeManagement, Tier: TierSafe, LatencyMS: 5000})
	}
	titles := insightTitles(GenerateInsights(d, false))
	if !titles["Strong Self-Control"] {
		t.Error("Expected self-control insight for six safe choices")
	}
}

func TestGenerateInsights_Escalation(t *testing.T) {
	d := []DecisionRecord{
		{Category: CategoryRiskEscalation, Tier: TierRisky, LatencyMS: 5000},
	}
	titles := insightTitles(GenerateInsights(d, true))
	if !titles["Risk Escalation Pattern"] {
		t.Error("Expected escalation insight when escalation flag is set")
	}

	titles = insightTitles(GenerateInsights(d, false))
	if titles["Risk Escalation Pattern"] {
		t.Error("Did not expect escalation insight without the flag")
	}
}

func TestGenerateInsights_RulesStack(t *testing.T) {
	// Loss chasing plus budget violation: both rules fire.
	d := []DecisionRecord{
		{Category: CategoryLossChasing, Tier: TierVeryRisky, LatencyMS: 5000},
		{Category: CategoryBudgetViolation, Tier: TierVeryRisky, LatencyMS: 5000},
	}
	titles := insightTitles(GenerateInsights(d, false))
	if !titles["Loss Chasing Tendency"] || !titles["Budget Limit Concerns"] {
		t.Errorf("Expected both insights to fire, got %v", titles)
	}
}
