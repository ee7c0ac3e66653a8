// Package search defines the candidate-retrieval contract: given a profile,
// return opportunities ranked by semantic similarity. The real
// implementation queries Elasticsearch; tests use in-process stubs.
package search

import (
	"context"

	"grantmatch/internal/models"
)

// Candidate is one retrieved opportunity with its similarity to the profile.
type Candidate struct {
	OpportunityID string             `json:"opportunityId"`
	Similarity    float64            `json:"similarity"`
	Opportunity   models.Opportunity `json:"opportunity"`
}

// Query bounds a candidate retrieval.
type Query struct {
	Profile       *models.Profile
	MinSimilarity float64
	Limit         int
}

// CandidateSearcher retrieves the candidate superset for ranking. A failed
// retrieval must fail the whole search: ranking validity requires a complete
// candidate set.
type CandidateSearcher interface {
	Search(ctx context.Context, q Query) ([]Candidate, error)
}
