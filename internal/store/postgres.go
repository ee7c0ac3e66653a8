// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"grantmatch/internal/models"
)

// PostgresStore implements ProfileStore and OpportunityStore over the
// document tables. List-valued attributes are stored as JSON columns.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, partition_key, gpa, major, state, ethnicity, gender,
		       first_generation, graduation_year, embedding
		FROM profiles WHERE id = $1`, id)

	var p models.Profile
	var embedding []byte
	err := row.Scan(&p.ID, &p.PartitionKey, &p.GPA, &p.Major, &p.State,
		&p.Ethnicity, &p.Gender, &p.FirstGeneration, &p.GraduationYear, &embedding)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	if len(embedding) > 0 {
		if err := json.Unmarshal(embedding, &p.Embedding); err != nil {
			p.Embedding = nil
		}
	}

	return &p, nil
}

// Opportunities returns an OpportunityStore view over the same connection.
func (s *PostgresStore) Opportunities() OpportunityStore {
	return &postgresOpportunities{db: s.db}
}

type postgresOpportunities struct {
	db *sql.DB
}

func (s *postgresOpportunities) GetByID(ctx context.Context, id string) (*models.Opportunity, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, min_gpa, max_gpa, eligible_majors, required_states,
		       eligible_ethnicities, eligible_genders, first_generation_required,
		       min_graduation_year, max_graduation_year, essay_required,
		       recommendation_required, award_amount, deadline, renewable
		FROM opportunities WHERE id = $1`, id)

	var o models.Opportunity
	var majors, states, ethnicities, genders []byte
	err := row.Scan(&o.ID, &o.Title, &o.MinGPA, &o.MaxGPA, &majors, &states,
		&ethnicities, &genders, &o.FirstGenerationRequired,
		&o.MinGraduationYear, &o.MaxGraduationYear, &o.EssayRequired,
		&o.RecommendationRequired, &o.AwardAmount, &o.Deadline, &o.Renewable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query opportunity: %w", err)
	}

	unmarshalList(majors, &o.EligibleMajors)
	unmarshalList(states, &o.RequiredStates)
	unmarshalList(ethnicities, &o.EligibleEthnicities)
	unmarshalList(genders, &o.EligibleGenders)

	return &o, nil
}

func unmarshalList(raw []byte, dst *[]string) {
	if len(raw) == 0 {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		*dst = nil
	}
}
