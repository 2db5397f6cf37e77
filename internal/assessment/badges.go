package assessment

// Badge definitions. Names and thresholds are part of the product's audit
// surface and must not drift between releases.
var (
	badgeSelfAware = Badge{
		ID:          "self_aware",
		Name:        "Self-Aware Player",
		Description: "Completed your first wellbeing assessment",
		Tier:        TierBronze,
	}
	badgeBalancedStart = Badge{
		ID:          "balanced_start",
		Name:        "Balanced Beginning",
		Description: "Made 6 or more safe choices in a session",
		Tier:        TierBronze,
	}
	badgeRiskManager = Badge{
		ID:          "risk_manager",
		Name:        "Risk Manager",
		Description: "Avoided all high-risk choices in a session",
		Tier:        TierSilver,
	}
	badgeImprovementSeeker = Badge{
		ID:          "improvement_seeker",
		Name:        "Improvement Seeker",
		Description: "Completed 3 wellbeing assessments",
		Tier:        TierSilver,
	}
	badgeConsistentControl = Badge{
		ID:          "consistent_control",
		Name:        "Consistent Control",
		Description: "Maintained 70+ balance score across 3 sessions",
		Tier:        TierGold,
	}
	badgeWellbeingChampion = Badge{
		ID:          "wellbeing_champion",
		Name:        "Wellbeing Champion",
		Description: "10 sessions with average 80+ balance score",
		Tier:        TierPlatinum,
	}
)

// EvaluateBadges returns the badges earned by the current session given the
// subject's prior completed sessions (ordered oldest-first). Evaluation only
// ever adds: past awards are never re-checked or revoked, and persisting an
// already-held badge is an idempotent upsert.
func EvaluateBadges(current *SessionScores, history []*SessionScores) []Badge {
	totalSessions := len(history) + 1
	safe, _, veryRisky := tierCounts(current.Decisions)

	var badges []Badge

	if totalSessions == 1 {
		badges = append(badges, badgeSelfAware)
	}

	// A session with no decisions proves nothing about behavior; it earns
	// the first-session badge at most.
	if len(current.Decisions) == 0 {
		return badges
	}

	if safe >= 6 {
		badges = append(badges, badgeBalancedStart)
	}

	if veryRisky == 0 {
		badges = append(badges, badgeRiskManager)
	}

	if totalSessions >= 3 {
		badges = append(badges, badgeImprovementSeeker)

		// Current plus the two immediately prior sessions all balanced.
		recent := append(lastN(history, 2), current)
		allBalanced := true
		for _, s := range recent {
			if s.BalanceScore() < 70 {
				allBalanced = false
				break
			}
		}
		if allBalanced {
			badges = append(badges, badgeConsistentControl)
		}
	}

	if totalSessions >= 10 {
		sum := current.BalanceScore()
		for _, s := range history {
			sum += s.BalanceScore()
		}
		if float64(sum)/float64(totalSessions) >= 80 {
			badges = append(badges, badgeWellbeingChampion)
		}
	}

	return badges
}

func lastN(sessions []*SessionScores, n int) []*SessionScores {
	if len(sessions) <= n {
		return append([]*SessionScores(nil), sessions...)
	}
	return append([]*SessionScores(nil), sessions[len(sessions)-n:]...)
}
