// Package schemavalidator implements structcontent.SchemaValidator on top of
// the santhosh-tekuri/jsonschema compiler. It is a pure collaborator: every
// call compiles and validates in memory, with no I/O and no state retained
// between calls.
package schemavalidator

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/structcms/structured-content/pkg/structcontent"
)

const schemaURL = "inline://schema.json"

// Validator validates JSON-schema documents and payloads.
type Validator struct{}

// New creates a new Validator.
func New() *Validator {
	return &Validator{}
}

// ValidateSchema checks that schema is a well-formed JSON-schema document.
func (v *Validator) ValidateSchema(schema json.RawMessage) error {
	if len(schema) == 0 {
		return structcontent.NewError(structcontent.CodeTypeSchemaInvalid,
			"schema document is required",
			"provide a JSON-schema document describing the content type",
		)
	}
	if _, err := v.compile(schema); err != nil {
		return structcontent.NewError(structcontent.CodeTypeSchemaInvalid,
			"schema document is not a valid JSON schema",
			"fix the schema document and retry",
		).WithContext("detail", err.Error())
	}
	return nil
}

// ValidateData checks data against schema. The returned error carries the
// offending instance locations so callers can self-correct.
func (v *Validator) ValidateData(schema, data json.RawMessage) error {
	sch, err := v.compile(schema)
	if err != nil {
		// Declared schemas are validated on write, so a compile failure
		// here means the stored schema document is broken.
		return structcontent.NewError(structcontent.CodeTypeSchemaInvalid,
			"stored schema document is not a valid JSON schema",
			"update the content type with a valid schema document",
		).WithContext("detail", err.Error())
	}

	if len(data) == 0 {
		return structcontent.NewError(structcontent.CodeContentSchemaInvalid,
			"payload is required",
			"provide a data payload conforming to the content type schema",
		)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return structcontent.NewError(structcontent.CodeContentSchemaInvalid,
			"payload is not valid JSON",
			"provide a syntactically valid JSON payload",
		).WithContext("detail", err.Error())
	}

	if err := sch.Validate(inst); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return invalidPayload(ve)
		}
		return structcontent.NewError(structcontent.CodeContentSchemaInvalid,
			"payload does not conform to the content type schema",
			"fix the payload and retry",
		).WithContext("detail", err.Error())
	}
	return nil
}

func (v *Validator) compile(schema json.RawMessage) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
}

func invalidPayload(ve *jsonschema.ValidationError) *structcontent.Error {
	var locations []string
	for _, leaf := range leafCauses(ve) {
		locations = append(locations, "/"+strings.Join(leaf.InstanceLocation, "/"))
	}
	return structcontent.NewError(structcontent.CodeContentSchemaInvalid,
		"payload does not conform to the content type schema",
		"fix the payload fields listed in context.locations and retry",
	).WithContext("locations", locations).
		WithContext("detail", ve.Error())
}

func leafCauses(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range ve.Causes {
		out = append(out, leafCauses(cause)...)
	}
	return out
}
