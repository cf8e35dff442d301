package search

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// responseSchema describes the body of GET /search. Listing columns that are
// stored as text may arrive as strings or numbers.
const responseSchema = `{
	"type": "object",
	"required": ["listings", "count"],
	"properties": {
		"listings": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"source":         {"type": ["string", "null"]},
					"url":            {"type": ["string", "null"]},
					"street_address": {"type": ["string", "null"]},
					"city":           {"type": ["string", "null"]},
					"state":          {"type": ["string", "null"]},
					"zip_code":       {"type": ["string", "number", "null"]},
					"beds":           {"type": ["string", "number", "null"]},
					"baths":          {"type": ["string", "number", "null"]},
					"sqft":           {"type": ["string", "number", "null"]},
					"price":          {"type": ["string", "number", "null"]},
					"date_collected": {"type": ["string", "null"]},
					"date_updated":   {"type": ["string", "null"]}
				}
			}
		},
		"count": {"type": "integer", "minimum": 0}
	}
}`

// ResponseValidator checks a raw search response against the expected shape
// before it is decoded.
type ResponseValidator struct {
	schema *gojsonschema.Schema
}

func NewResponseValidator() (*ResponseValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile response schema: %w", err)
	}
	return &ResponseValidator{schema: schema}, nil
}

// Validate returns an error listing every schema violation in body.
func (v *ResponseValidator) Validate(body []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("response validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
