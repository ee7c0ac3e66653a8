// internal/models/profile.go
package models

// Profile is an applicant profile, immutable for the duration of one
// matching request. Empty categorical fields mean "no restriction applies".
type Profile struct {
	ID              string    `json:"id"`
	PartitionKey    string    `json:"partitionKey,omitempty"`
	GPA             float64   `json:"gpa"`
	Major           string    `json:"major,omitempty"`
	State           string    `json:"state,omitempty"`
	Ethnicity       string    `json:"ethnicity,omitempty"`
	Gender          string    `json:"gender,omitempty"`
	FirstGeneration bool      `json:"firstGeneration"`
	GraduationYear  int       `json:"graduationYear,omitempty"`
	Embedding       []float32 `json:"embedding,omitempty"`
}
