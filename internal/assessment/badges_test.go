package assessment

import "testing"

func badgeIDs(badges []Badge) map[string]bool {
	ids := make(map[string]bool, len(badges))
	for _, b := range badges {
		ids[b.ID] = true
	}
	return ids
}

func sessionWithBalance(balance int) *SessionScores {
	return &SessionScores{RiskIndex: 100 - balance}
}

func TestEvaluateBadges_FirstSession(t *testing.T) {
	current := &SessionScores{Decisions: decisionsWithTiers(TierRisky)}
	ids := badgeIDs(EvaluateBadges(current, nil))

	if !ids["self_aware"] {
		t.Error("Expected self_aware badge on first session")
	}
	if ids["improvement_seeker"] {
		t.Error("Did not expect improvement_seeker on first session")
	}
}

func TestEvaluateBadges_EmptySessionFirstOnly(t *testing.T) {
	ids := badgeIDs(EvaluateBadges(&SessionScores{RiskIndex: 50}, nil))

	if !ids["self_aware"] {
		t.Error("Expected self_aware badge on an empty first session")
	}
	if len(ids) != 1 {
		t.Errorf("Expected only the first-session badge for an empty session, got %v", ids)
	}
}

func TestEvaluateBadges_EmptySessionWithHistory(t *testing.T) {
	history := []*SessionScores{sessionWithBalance(80), sessionWithBalance(80)}
	ids := badgeIDs(EvaluateBadges(&SessionScores{RiskIndex: 20}, history))

	if len(ids) != 0 {
		t.Errorf("Expected no badges for an empty later session, got %v", ids)
	}
}

func TestEvaluateBadges_BalancedStart(t *testing.T) {
	current := &SessionScores{Decisions: decisionsWithTiers(
		TierSafe, TierSafe, TierSafe, TierSafe, TierSafe, TierSafe,
	)}
	ids := badgeIDs(EvaluateBadges(current, nil))

	if !ids["balanced_start"] {
		t.Error("Expected balanced_start badge for six safe choices")
	}
	if !ids["risk_manager"] {
		t.Error("Expected risk_manager badge with zero very-risky choices")
	}
}

func TestEvaluateBadges_RiskManagerBlockedByVeryRisky(t *testing.T) {
	current := &SessionScores{Decisions: decisionsWithTiers(TierSafe, TierVeryRisky)}
	ids := badgeIDs(EvaluateBadges(current, nil))

	if ids["risk_manager"] {
		t.Error("Did not expect risk_manager badge with a very-risky choice")
	}
}

func TestEvaluateBadges_ImprovementSeeker(t *testing.T) {
	history := []*SessionScores{sessionWithBalance(50), sessionWithBalance(50)}
	current := &SessionScores{RiskIndex: 50, Decisions: decisionsWithTiers(TierRisky)}
	ids := badgeIDs(EvaluateBadges(current, history))

	if !ids["improvement_seeker"] {
		t.Error("Expected improvement_seeker badge on third session")
	}
	if ids["consistent_control"] {
		t.Error("Did not expect consistent_control with balance below 70")
	}
}

func TestEvaluateBadges_ConsistentControl(t *testing.T) {
	// Current and the two prior sessions all at 70+ balance.
	history := []*SessionScores{sessionWithBalance(40), sessionWithBalance(75), sessionWithBalance(80)}
	current := sessionWithBalance(72)
	current.Decisions = decisionsWithTiers(TierSafe)

	ids := badgeIDs(EvaluateBadges(current, history))
	if !ids["consistent_control"] {
		t.Error("Expected consistent_control; only the two most recent prior sessions count")
	}
}

func TestEvaluateBadges_WellbeingChampion(t *testing.T) {
	var history []*SessionScores
	for i := 0; i < 9; i++ {
		history = append(history, sessionWithBalance(85))
	}
	current := sessionWithBalance(85)
	current.Decisions = decisionsWithTiers(TierSafe)

	ids := badgeIDs(EvaluateBadges(current, history))
	if !ids["wellbeing_champion"] {
		t.Error("Expected wellbeing_champion for 10 sessions averaging 80+")
	}

	// One weak session drags the average below 80.
	history[0] = sessionWithBalance(20)
	ids = badgeIDs(EvaluateBadges(current, history))
	if ids["wellbeing_champion"] {
		t.Error("Did not expect wellbeing_champion below the average threshold")
	}
}
