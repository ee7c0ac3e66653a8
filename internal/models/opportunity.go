// internal/models/opportunity.go
package models

import "time"

// Opportunity is a grant/scholarship opportunity. Nil bounds and empty
// eligibility sets mean unrestricted.
type Opportunity struct {
	ID                      string    `json:"id"`
	Title                   string    `json:"title"`
	MinGPA                  *float64  `json:"minGpa,omitempty"`
	MaxGPA                  *float64  `json:"maxGpa,omitempty"`
	EligibleMajors          []string  `json:"eligibleMajors,omitempty"`
	RequiredStates          []string  `json:"requiredStates,omitempty"`
	EligibleEthnicities     []string  `json:"eligibleEthnicities,omitempty"`
	EligibleGenders         []string  `json:"eligibleGenders,omitempty"`
	FirstGenerationRequired bool      `json:"firstGenerationRequired"`
	MinGraduationYear       *int      `json:"minGraduationYear,omitempty"`
	MaxGraduationYear       *int      `json:"maxGraduationYear,omitempty"`
	EssayRequired           bool      `json:"essayRequired"`
	RecommendationRequired  bool      `json:"recommendationRequired"`
	AwardAmount             float64   `json:"awardAmount"`
	Deadline                time.Time `json:"deadline"`
	Renewable               bool      `json:"renewable"`
}
