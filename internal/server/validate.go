// internal/server/validate.go
package server

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "grantmatch/internal/common/errors"
)

// searchRequestSchema validates the shape and bounds of a search request
// before it reaches the orchestrator. Business defaults (limit, similarity
// floor) are applied downstream; the schema only rejects the impossible.
var searchRequestSchema = map[string]interface{}{
	"type":                 "object",
	"required":             []string{"profileId"},
	"additionalProperties": false,
	"properties": map[string]interface{}{
		"profileId": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"limit": map[string]interface{}{
			"type":    "integer",
			"minimum": 1,
			"maximum": 1000,
		},
		"offset": map[string]interface{}{
			"type":    "integer",
			"minimum": 0,
		},
		"minSimilarity": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
			"maximum": 1,
		},
		"filters": map[string]interface{}{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]interface{}{
				"minAwardAmount": map[string]interface{}{
					"type":    "number",
					"minimum": 0,
				},
				"maxAwardAmount": map[string]interface{}{
					"type":    "number",
					"minimum": 0,
				},
				"deadlineAfter": map[string]interface{}{
					"type":   "string",
					"format": "date-time",
				},
				"deadlineBefore": map[string]interface{}{
					"type":   "string",
					"format": "date-time",
				},
				"essayRequired": map[string]interface{}{
					"type": "boolean",
				},
			},
		},
	},
}

// ValidateSearchRequest checks the raw request body against the schema and
// returns a VALIDATION_FAILED error listing every violated field.
func ValidateSearchRequest(body []byte) error {
	schemaLoader := gojsonschema.NewGoLoader(searchRequestSchema)
	documentLoader := gojsonschema.NewBytesLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return apperrors.NewValidationFailedError(fmt.Sprintf("malformed JSON body: %v", err))
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return apperrors.NewValidationFailedError(strings.Join(violations, "; "))
}
