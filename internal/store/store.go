// Package store provides lookup access to the profile and opportunity
// documents, reachable by id and partition key.
package store

import (
	"context"
	"errors"

	"grantmatch/internal/models"
)

// ErrNotFound is returned when no document exists for the given id.
var ErrNotFound = errors.New("document not found")

// ProfileStore looks up applicant profiles.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

// OpportunityStore looks up grant opportunities.
type OpportunityStore interface {
	GetByID(ctx context.Context, id string) (*models.Opportunity, error)
}
