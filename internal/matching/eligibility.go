// internal/matching/eligibility.go
package matching

import "grantmatch/internal/models"

// Unmet-requirement reason strings, one per check, in check order.
const (
	ReasonMinScore       = "Minimum score not met"
	ReasonMaxScore       = "Maximum score exceeded"
	ReasonMajor          = "Major not eligible"
	ReasonState          = "State not eligible"
	ReasonEthnicity      = "Ethnicity not eligible"
	ReasonGender         = "Gender not eligible"
	ReasonFirstGen       = "First-generation status required"
	ReasonGraduationYear = "Graduation year outside eligible range"
)

// CheckEligibility evaluates every requirement of the opportunity against
// the profile. All checks run (no short-circuit) so UnmetReasons is complete,
// and they run in a fixed order: numeric bounds, categorical sets, boolean
// flags, date bounds. Absent or zero-valued requirements mean "no
// restriction". Pure function: no I/O, no error paths.
func CheckEligibility(p *models.Profile, o *models.Opportunity) models.EligibilityResult {
	reasons := []string{}

	if o.MinGPA != nil && p.GPA < *o.MinGPA {
		reasons = append(reasons, ReasonMinScore)
	}
	if o.MaxGPA != nil && p.GPA > *o.MaxGPA {
		reasons = append(reasons, ReasonMaxScore)
	}

	if len(o.EligibleMajors) > 0 && !contains(o.EligibleMajors, p.Major) {
		reasons = append(reasons, ReasonMajor)
	}
	if len(o.RequiredStates) > 0 && !contains(o.RequiredStates, p.State) {
		reasons = append(reasons, ReasonState)
	}
	if len(o.EligibleEthnicities) > 0 && !contains(o.EligibleEthnicities, p.Ethnicity) {
		reasons = append(reasons, ReasonEthnicity)
	}
	if len(o.EligibleGenders) > 0 && !contains(o.EligibleGenders, p.Gender) {
		reasons = append(reasons, ReasonGender)
	}

	if o.FirstGenerationRequired && !p.FirstGeneration {
		reasons = append(reasons, ReasonFirstGen)
	}

	if o.MinGraduationYear != nil && p.GraduationYear < *o.MinGraduationYear {
		reasons = append(reasons, ReasonGraduationYear)
	} else if o.MaxGraduationYear != nil && p.GraduationYear > *o.MaxGraduationYear {
		reasons = append(reasons, ReasonGraduationYear)
	}

	return models.EligibilityResult{
		MeetsAll:     len(reasons) == 0,
		UnmetReasons: reasons,
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
