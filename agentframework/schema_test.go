// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

type weatherArgs struct {
	Location string `json:"location" jsonschema:"description=City name,required"`
	Unit     string `json:"unit,omitempty" jsonschema:"description=Temperature unit,enum=celsius,enum=fahrenheit"`
}

func TestGenerateSchema_BasicStruct(t *testing.T) {
	schema := af.GenerateSchema[weatherArgs]()

	var parsed map[string]any
	if err := json.Unmarshal(schema, &parsed); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}

	if parsed["type"] != "object" {
		t.Errorf("type = %v, want object", parsed["type"])
	}
	if _, ok := parsed["$schema"]; ok {
		t.Error("$schema should be stripped")
	}
	if _, ok := parsed["$ref"]; ok {
		t.Error("schema should be inlined, not referenced")
	}

	props, ok := parsed["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties not a map: %T", parsed["properties"])
	}

	locProp, ok := props["location"].(map[string]any)
	if !ok {
		t.Fatalf("location property missing or wrong type")
	}
	if locProp["type"] != "string" {
		t.Errorf("location type = %v", locProp["type"])
	}
	if locProp["description"] != "City name" {
		t.Errorf("location description = %v", locProp["description"])
	}

	unitProp, ok := props["unit"].(map[string]any)
	if !ok {
		t.Fatalf("unit property missing or wrong type")
	}
	enumVals, ok := unitProp["enum"].([]any)
	if !ok {
		t.Fatalf("unit enum missing or wrong type: %T", unitProp["enum"])
	}
	if len(enumVals) != 2 {
		t.Errorf("enum len = %d, want 2", len(enumVals))
	}

	required, ok := parsed["required"].([]any)
	if !ok {
		t.Fatalf("required missing or wrong type")
	}
	if len(required) != 1 || required[0] != "location" {
		t.Errorf("required = %v, want [location]", required)
	}
}

func TestGenerateSchema_NestedStruct(t *testing.T) {
	type address struct {
		City string `json:"city"`
	}
	type person struct {
		Name    string   `json:"name" jsonschema:"required"`
		Tags    []string `json:"tags,omitempty"`
		Address address  `json:"address"`
	}

	var parsed map[string]any
	if err := json.Unmarshal(af.GenerateSchema[person](), &parsed); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}
	props := parsed["properties"].(map[string]any)

	tags := props["tags"].(map[string]any)
	if tags["type"] != "array" {
		t.Errorf("tags type = %v", tags["type"])
	}
	addr := props["address"].(map[string]any)
	if addr["type"] != "object" {
		t.Errorf("address type = %v", addr["type"])
	}
}

func TestToolSet_ValidatesAgainstGeneratedSchema(t *testing.T) {
	called := false
	tool := af.NewTypedTool("get_weather", "Weather lookup",
		func(ctx context.Context, a weatherArgs) (any, error) {
			called = true
			return "sunny", nil
		},
	)
	ts := af.NewToolSet([]af.Tool{tool}, af.WithInvocationConfig(af.InvocationConfig{
		MaxConsecutiveErrors:  5,
		IncludeDetailedErrors: true,
	}))

	tests := []struct {
		name    string
		args    string
		wantErr bool
	}{
		{"valid", `{"location":"Seattle","unit":"celsius"}`, false},
		{"missing required", `{"unit":"celsius"}`, true},
		{"enum violation", `{"location":"Seattle","unit":"kelvin"}`, true},
		{"wrong type", `{"location":7}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			results, err := ts.Resolve(context.Background(), []af.ToolCall{
				{ID: "call_1", Name: "get_weather", Arguments: tt.args},
			})
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("results = %d", len(results))
			}
			r := results[0]
			if tt.wantErr {
				if r.Err == nil || !errors.Is(r.Err, af.ErrToolExecution) {
					t.Errorf("Err = %v, want ErrToolExecution", r.Err)
				}
				if !strings.Contains(r.Output, "do not match schema") {
					t.Errorf("Output = %q", r.Output)
				}
				if called {
					t.Error("handler must not run when validation fails")
				}
				return
			}
			if r.Err != nil || r.Output != "sunny" {
				t.Errorf("result = %+v", r)
			}
		})
	}
}

func TestToolSet_SkipsValidationWhenDisabled(t *testing.T) {
	tool := af.NewTool("echo", "",
		json.RawMessage(`{"type":"object","properties":{"x":{"type":"integer"}},"required":["x"]}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return string(args), nil
		},
		af.WithoutArgumentValidation(),
	)
	ts := af.NewToolSet([]af.Tool{tool})

	results, err := ts.Resolve(context.Background(), []af.ToolCall{{ID: "c", Name: "echo", Arguments: `{"y":1}`}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if results[0].Err != nil || results[0].Output != `{"y":1}` {
		t.Errorf("result = %+v", results[0])
	}
}
