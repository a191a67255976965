package tools

import (
	"reflect"
	"testing"
)

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr bool
	}{
		{
			name: "valid definition",
			def: Definition{
				Name: "get_weather",
				Parameters: []Parameter{
					{Name: "location", Type: TypeString, Required: true},
					{Name: "units", Type: TypeString, Default: "celsius"},
				},
			},
		},
		{
			name:    "empty name",
			def:     Definition{},
			wantErr: true,
		},
		{
			name: "duplicate parameter names",
			def: Definition{
				Name: "dup",
				Parameters: []Parameter{
					{Name: "x", Type: TypeString},
					{Name: "x", Type: TypeInteger},
				},
			},
			wantErr: true,
		},
		{
			name: "empty parameter name",
			def: Definition{
				Name:       "blank",
				Parameters: []Parameter{{Type: TypeString}},
			},
			wantErr: true,
		},
		{
			name: "required parameter with default",
			def: Definition{
				Name: "bad",
				Parameters: []Parameter{
					{Name: "x", Type: TypeString, Required: true, Default: "y"},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefinitionSchema(t *testing.T) {
	min := 1.0
	max := 10.0
	def := Definition{
		Name:        "search",
		Description: "Search things",
		Parameters: []Parameter{
			{Name: "query", Type: TypeString, Description: "what to search", Required: true},
			{Name: "limit", Type: TypeInteger, Minimum: &min, Maximum: &max, Default: 5},
			{Name: "sort", Type: TypeString, Enum: []string{"asc", "desc"}},
		},
	}

	schema := def.Schema()
	if schema.Name != "search" || schema.Description != "Search things" {
		t.Errorf("unexpected identity: %q %q", schema.Name, schema.Description)
	}
	if schema.InputSchema.Type != "object" {
		t.Errorf("schema type = %q, want object", schema.InputSchema.Type)
	}
	if !reflect.DeepEqual(schema.InputSchema.Required, []string{"query"}) {
		t.Errorf("required = %v, want [query]", schema.InputSchema.Required)
	}

	limit, ok := schema.InputSchema.Properties["limit"].(map[string]any)
	if !ok {
		t.Fatalf("limit property missing")
	}
	if limit["minimum"] != 1.0 || limit["maximum"] != 10.0 || limit["default"] != 5 {
		t.Errorf("limit constraints lost: %v", limit)
	}

	sort, _ := schema.InputSchema.Properties["sort"].(map[string]any)
	if !reflect.DeepEqual(sort["enum"], []string{"asc", "desc"}) {
		t.Errorf("enum lost: %v", sort["enum"])
	}
}
