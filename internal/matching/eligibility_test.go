package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"grantmatch/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }

func TestCheckEligibility(t *testing.T) {
	tests := []struct {
		name        string
		profile     models.Profile
		opportunity models.Opportunity
		wantMeets   bool
		wantReasons []string
	}{
		{
			name:    "all requirements met",
			profile: models.Profile{GPA: 3.8, Major: "CS", State: "CA"},
			opportunity: models.Opportunity{
				MinGPA:         floatPtr(3.5),
				EligibleMajors: []string{"CS", "EE"},
				RequiredStates: []string{"CA", "OR"},
			},
			wantMeets:   true,
			wantReasons: []string{},
		},
		{
			name:        "minimum score not met",
			profile:     models.Profile{GPA: 3.8, Major: "CS", State: "CA"},
			opportunity: models.Opportunity{MinGPA: floatPtr(3.9)},
			wantMeets:   false,
			wantReasons: []string{ReasonMinScore},
		},
		{
			name:        "maximum score exceeded",
			profile:     models.Profile{GPA: 3.9},
			opportunity: models.Opportunity{MaxGPA: floatPtr(3.5)},
			wantMeets:   false,
			wantReasons: []string{ReasonMaxScore},
		},
		{
			name:        "no restrictions means eligible",
			profile:     models.Profile{},
			opportunity: models.Opportunity{},
			wantMeets:   true,
			wantReasons: []string{},
		},
		{
			name:        "major not in eligible set",
			profile:     models.Profile{GPA: 3.0, Major: "History"},
			opportunity: models.Opportunity{EligibleMajors: []string{"CS", "EE"}},
			wantMeets:   false,
			wantReasons: []string{ReasonMajor},
		},
		{
			name:        "empty profile attribute fails non-empty restriction",
			profile:     models.Profile{GPA: 3.0},
			opportunity: models.Opportunity{RequiredStates: []string{"CA"}},
			wantMeets:   false,
			wantReasons: []string{ReasonState},
		},
		{
			name:        "first generation required",
			profile:     models.Profile{GPA: 3.0, FirstGeneration: false},
			opportunity: models.Opportunity{FirstGenerationRequired: true},
			wantMeets:   false,
			wantReasons: []string{ReasonFirstGen},
		},
		{
			name:        "first generation satisfied",
			profile:     models.Profile{GPA: 3.0, FirstGeneration: true},
			opportunity: models.Opportunity{FirstGenerationRequired: true},
			wantMeets:   true,
			wantReasons: []string{},
		},
		{
			name:    "graduation year below range",
			profile: models.Profile{GraduationYear: 2024},
			opportunity: models.Opportunity{
				MinGraduationYear: intPtr(2026),
				MaxGraduationYear: intPtr(2028),
			},
			wantMeets:   false,
			wantReasons: []string{ReasonGraduationYear},
		},
		{
			name:        "graduation year above open-ended max",
			profile:     models.Profile{GraduationYear: 2030},
			opportunity: models.Opportunity{MaxGraduationYear: intPtr(2028)},
			wantMeets:   false,
			wantReasons: []string{ReasonGraduationYear},
		},
		{
			name:    "multiple failures reported in check order",
			profile: models.Profile{GPA: 2.0, Major: "History", State: "TX"},
			opportunity: models.Opportunity{
				MinGPA:                  floatPtr(3.5),
				EligibleMajors:          []string{"CS"},
				RequiredStates:          []string{"CA"},
				FirstGenerationRequired: true,
			},
			wantMeets:   false,
			wantReasons: []string{ReasonMinScore, ReasonMajor, ReasonState, ReasonFirstGen},
		},
		{
			name:    "ethnicity and gender sets",
			profile: models.Profile{Ethnicity: "Hispanic", Gender: "Female"},
			opportunity: models.Opportunity{
				EligibleEthnicities: []string{"Hispanic", "Native American"},
				EligibleGenders:     []string{"Female"},
			},
			wantMeets:   true,
			wantReasons: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckEligibility(&tt.profile, &tt.opportunity)
			assert.Equal(t, tt.wantMeets, result.MeetsAll)
			assert.Equal(t, tt.wantReasons, result.UnmetReasons)
			// The invariant that makes the result trustworthy downstream.
			assert.Equal(t, result.MeetsAll, len(result.UnmetReasons) == 0)
		})
	}
}
