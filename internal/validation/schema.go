package validation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/autosolutionsai-didac/Falcon/internal/models"
)

//go:embed forensic_output_schema.json
var forensicOutputSchema string

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		loader := gojsonschema.NewStringLoader(forensicOutputSchema)
		schema, schemaErr = gojsonschema.NewSchema(loader)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to load schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// ValidateOutput validates a raw analysis JSON string against the
// forensic output schema. A missing confidence level anywhere is a
// validation error, not a coercible gap.
func ValidateOutput(outputJSON string) error {
	s, err := loadSchema()
	if err != nil {
		return err
	}

	documentLoader := gojsonschema.NewStringLoader(outputJSON)
	result, err := s.Validate(documentLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}
		return fmt.Errorf("%w: %v", models.ErrValidation, errors)
	}

	return nil
}

// ValidateAndParseOutput validates and unmarshals an analysis JSON string
func ValidateAndParseOutput(outputJSON string) (*models.ForensicOutput, error) {
	if err := ValidateOutput(outputJSON); err != nil {
		return nil, err
	}

	var output models.ForensicOutput
	if err := json.Unmarshal([]byte(outputJSON), &output); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON: %v", models.ErrValidation, err)
	}

	return &output, nil
}

// ValidateOutputRecord round-trips an assembled output record through
// the schema. Used before any report is rendered or persisted.
func ValidateOutputRecord(output *models.ForensicOutput) error {
	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal output: %v", models.ErrValidation, err)
	}
	return ValidateOutput(string(data))
}
