package assessment

// sessionProfile aggregates a decision sequence for insight rules.
type sessionProfile struct {
	safe, risky, veryRisky int
	avgLatencyMS           float64
	escalation             bool
	byCategory             map[Category]tierTally
}

type tierTally struct {
	safe, risky, veryRisky int
}

func profile(decisions []DecisionRecord, escalation bool) *sessionProfile {
	p := &sessionProfile{
		avgLatencyMS: avgLatencyMS(decisions),
		escalation:   escalation,
		byCategory:   make(map[Category]tierTally),
	}
	p.safe, p.risky, p.veryRisky = tierCounts(decisions)
	for i := range decisions {
		t := p.byCategory[decisions[i].Category]
		switch decisions[i].Tier {
		case TierSafe:
			t.safe++
		case TierRisky:
			t.risky++
		case TierVeryRisky:
			t.veryRisky++
		}
		p.byCategory[decisions[i].Category] = t
	}
	return p
}

// insightRule is one (predicate, result) pair. Rules are independent and
// order-insensitive; every matching rule fires.
type insightRule struct {
	match func(*sessionProfile) bool
	build func(*sessionProfile) Insight
}

var insightRules = []insightRule{
	{
		match: func(p *sessionProfile) bool { return p.byCategory[CategoryLossChasing].veryRisky >= 1 },
		build: func(*sessionProfile) Insight {
			return Insight{
				Type:           InsightPattern,
				Category:       string(CategoryLossChasing),
				Title:          "Loss Chasing Tendency",
				Description:    "You showed a tendency to chase losses with risky bets. This is one of the most dangerous patterns in gambling and often leads to bigger losses.",
				Severity:       SeverityConcern,
				Recommendation: "Set strict loss limits before you start playing and stick to them no matter what.",
			}
		},
	},
	{
		match: func(p *sessionProfile) bool { return p.byCategory[CategoryWinningStreak].safe >= 2 },
		build: func(*sessionProfile) Insight {
			return Insight{
				Type:           InsightPattern,
				Category:       string(CategoryWinningStreak),
				Title:          "Excellent Win Management",
				Description:    "You showed great discipline during winning streaks. This is when most players lose control, but you made safe choices.",
				Severity:       SeverityInfo,
				Recommendation: "Keep this mindset when playing for real. Consider setting a \"win target\" and stopping when you reach it.",
			}
		},
	},
	{
		match: func(p *sessionProfile) bool { return p.byCategory[CategoryBudgetViolation].veryRisky >= 1 },
		build: func(*sessionProfile) Insight {
			return Insight{
				Type:           InsightTrigger,
				Category:       string(CategoryBudgetViolation),
				Title:          "Budget Limit Concerns",
				Description:    "You chose to exceed your budget in a scenario. This is a red flag that could lead to overspending.",
				Severity:       SeverityWarning,
				Recommendation: "Use your casino's deposit limit features to enforce boundaries automatically.",
			}
		},
	},
	{
		match: func(p *sessionProfile) bool {
			t := p.byCategory[CategoryEmotionalPlay]
			return t.risky >= 1 || t.veryRisky >= 1
		},
		build: func(*sessionProfile) Insight {
			return Insight{
				Type:           InsightTrigger,
				Category:       string(CategoryEmotionalPlay),
				Title:          "Emotional Decision Making",
				Description:    "You made risky choices in emotional scenarios. Playing while stressed, upset, or trying to cope with emotions is risky.",
				Severity:       SeverityWarning,
				Recommendation: "Consider taking a break from gambling when you're feeling emotional or stressed.",
			}
		},
	},
	{
		match: func(p *sessionProfile) bool { return p.avgLatencyMS < quickAverageMS && p.veryRisky > 2 },
		build: func(*sessionProfile) Insight {
			return Insight{
				Type:           InsightTrigger,
				Category:       "impulsivity",
				Title:          "Quick Risky Decisions",
				Description:    "You made several risky choices very quickly. Impulsive decisions often lead to regret.",
				Severity:       SeverityWarning,
				Recommendation: "Try the \"10-second rule\": Wait 10 seconds before making any bet, especially large ones.",
			}
		},
	},
	{
		match: func(p *sessionProfile) bool { return p.safe >= 6 },
		build: func(*sessionProfile) Insight {
			return Insight{
				Type:           InsightRecommendation,
				Category:       "positive_reinforcement",
				Title:          "Strong Self-Control",
				Description:    "You demonstrated excellent self-control throughout the scenarios. This awareness is your best protection.",
				Severity:       SeverityInfo,
				Recommendation: "Keep this awareness when playing for real. Share your strategies with friends who gamble.",
			}
		},
	},
	{
		match: func(p *sessionProfile) bool { return p.veryRisky >= 5 },
		build: func(*sessionProfile) Insight {
			return Insight{
				Type:           InsightRecommendation,
				Category:       "risk_awareness",
				Title:          "Consider Stricter Safeguards",
				Description:    "Your choices suggest you might benefit from additional safeguards when gambling.",
				Severity:       SeverityConcern,
				Recommendation: "Consider self-exclusion or reduced deposit limits. Contact support if you need help.",
			}
		},
	},
	{
		match: func(p *sessionProfile) bool { return p.escalation },
		build: func(*sessionProfile) Insight {
			return Insight{
				Type:           InsightPattern,
				Category:       string(CategoryRiskEscalation),
				Title:          "Risk Escalation Pattern",
				Description:    "Your risk level increased throughout the game. This pattern of escalating bets is very dangerous.",
				Severity:       SeverityConcern,
				Recommendation: "Set bet limits before starting and use your casino's tools to enforce them automatically.",
			}
		},
	},
}

// GenerateInsights evaluates the rule table against one session. Insights
// are not mutually exclusive; an empty decision slice produces none.
func GenerateInsights(decisions []DecisionRecord, escalation bool) []Insight {
	if len(decisions) == 0 {
		return nil
	}
	p := profile(decisions, escalation)

	var insights []Insight
	for _, rule := range insightRules {
		if rule.match(p) {
			insights = append(insights, rule.build(p))
		}
	}
	return insights
}
