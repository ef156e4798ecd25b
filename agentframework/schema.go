// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// GenerateSchema builds a JSON Schema for T using reflection.
// Only fields tagged `jsonschema:"required"` are marked required.
func GenerateSchema[T any]() json.RawMessage {
	r := &jsonschema.Reflector{
		Anonymous:                  true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var zero T
	s := r.Reflect(zero)
	// The service rejects meta keys on function parameters.
	s.Version = ""
	s.ID = ""
	b, err := json.Marshal(s)
	if err != nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return b
}

// argumentValidator checks raw tool arguments against a compiled schema.
type argumentValidator struct {
	schema *gojsonschema.Schema
}

func newArgumentValidator(params json.RawMessage) (*argumentValidator, error) {
	if len(params) == 0 {
		return nil, nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(params))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &argumentValidator{schema: s}, nil
}

// validate returns a descriptive error listing every schema violation.
func (v *argumentValidator) validate(args json.RawMessage) error {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	res, err := v.schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msg := "arguments do not match schema:"
	for _, e := range res.Errors() {
		msg += " " + e.String() + ";"
	}
	return fmt.Errorf("%s", msg)
}
