// internal/matching/scoring.go
package matching

import (
	"time"

	"grantmatch/internal/models"
)

// Scoring constants. The weights sum to 1.0, so a composite score stays in
// [0,1] for components in range.
const (
	semanticWeight   = 0.6
	awardWeight      = 0.2
	complexityWeight = 0.1
	deadlineWeight   = 0.1

	// AwardCap normalizes award amounts: anything at or above the cap scores
	// a full 1.0 on the award component.
	AwardCap = 50000.0

	// requirementPenalty is subtracted from the complexity component for
	// each application burden (essay, recommendation letter).
	requirementPenalty = 0.3

	// deadlineSoonDays marks a deadline as "close": applying becomes risky,
	// so proximity scores half.
	deadlineSoonDays = 30
)

// CalculateScore computes the composite score for a profile/opportunity pair
// given an externally-supplied semantic similarity in [0,1]. Eligibility is
// copied from CheckEligibility and never overridden by the score.
// Deterministic: identical inputs (including now) yield identical output.
func CalculateScore(p *models.Profile, o *models.Opportunity, similarity float64, now time.Time) models.MatchResult {
	eligibility := CheckEligibility(p, o)

	breakdown := models.ScoreBreakdown{
		Semantic:          clamp01(similarity),
		Award:             awardComponent(o.AwardAmount),
		Complexity:        complexityComponent(o),
		DeadlineProximity: deadlineComponent(o.Deadline, now),
	}

	composite := breakdown.Semantic*semanticWeight +
		breakdown.Award*awardWeight +
		breakdown.Complexity*complexityWeight +
		breakdown.DeadlineProximity*deadlineWeight

	return models.MatchResult{
		OpportunityID:        o.ID,
		CompositeScore:       composite,
		Breakdown:            breakdown,
		MeetsAllRequirements: eligibility.MeetsAll,
		UnmetRequirements:    eligibility.UnmetReasons,
		AwardAmount:          o.AwardAmount,
		Deadline:             o.Deadline,
	}
}

func awardComponent(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	if amount >= AwardCap {
		return 1
	}
	return amount / AwardCap
}

func complexityComponent(o *models.Opportunity) float64 {
	score := 1.0
	if o.EssayRequired {
		score -= requirementPenalty
	}
	if o.RecommendationRequired {
		score -= requirementPenalty
	}
	if score < 0 {
		return 0
	}
	return score
}

func deadlineComponent(deadline, now time.Time) float64 {
	days := deadline.Sub(now).Hours() / 24
	if days < deadlineSoonDays {
		return 0.5
	}
	return 1.0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
