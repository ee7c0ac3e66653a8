// internal/models/match.go
package models

import "time"

// EligibilityResult reports whether a profile meets every requirement of an
// opportunity. UnmetReasons is ordered by check order, so output is stable.
type EligibilityResult struct {
	MeetsAll     bool     `json:"meetsAll"`
	UnmetReasons []string `json:"unmetReasons"`
}

// ScoreBreakdown holds the four normalized scoring components, each in [0,1]
// before weighting.
type ScoreBreakdown struct {
	Semantic          float64 `json:"semantic"`
	Award             float64 `json:"award"`
	Complexity        float64 `json:"complexity"`
	DeadlineProximity float64 `json:"deadlineProximity"`
}

// MatchResult is one scored opportunity for a profile.
type MatchResult struct {
	OpportunityID        string         `json:"opportunityId"`
	CompositeScore       float64        `json:"compositeScore"`
	Breakdown            ScoreBreakdown `json:"breakdown"`
	MeetsAllRequirements bool           `json:"meetsAllRequirements"`
	UnmetRequirements    []string       `json:"unmetRequirements"`
	AwardAmount          float64        `json:"awardAmount"`
	Deadline             time.Time      `json:"deadline"`
}

// Filters are the request-level filters applied after scoring, by exact
// boolean/range match.
type Filters struct {
	MinAwardAmount *float64   `json:"minAwardAmount,omitempty"`
	MaxAwardAmount *float64   `json:"maxAwardAmount,omitempty"`
	DeadlineAfter  *time.Time `json:"deadlineAfter,omitempty"`
	DeadlineBefore *time.Time `json:"deadlineBefore,omitempty"`
	EssayRequired  *bool      `json:"essayRequired,omitempty"`
}

// SearchRequest is one normalized matching request.
type SearchRequest struct {
	ProfileID     string  `json:"profileId"`
	Filters       Filters `json:"filters"`
	Limit         int     `json:"limit"`
	Offset        int     `json:"offset"`
	MinSimilarity float64 `json:"minSimilarity"`
}

// RankedResults is the ordered, paginated result of one search.
type RankedResults struct {
	Matches        []MatchResult `json:"matches"`
	TotalCount     int           `json:"totalCount"`
	FromCache      bool          `json:"fromCache"`
	SearchStrategy string        `json:"searchStrategy"`
	ProcessingTime time.Duration `json:"-"`
}
