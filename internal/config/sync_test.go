// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// These tests verify Go struct JSON tags match CUE schema field names, so a
// renamed field cannot silently stop being read from config files.

// extractCUEFields returns the top-level field names of a CUE struct definition.
func extractCUEFields(t *testing.T, val cue.Value) map[string]bool {
	t.Helper()

	fields := make(map[string]bool)

	iter, err := val.Fields(cue.Definitions(false), cue.Optional(true))
	if err != nil {
		t.Fatalf("failed to iterate CUE fields: %v", err)
	}

	for iter.Next() {
		sel := iter.Selector()
		if sel.LabelType().IsHidden() || sel.IsDefinition() {
			continue
		}
		fields[strings.TrimSuffix(sel.String(), "?")] = true
	}

	return fields
}

// extractGoJSONTags returns the JSON field names of a Go struct.
func extractGoJSONTags(t *testing.T, typ reflect.Type) map[string]bool {
	t.Helper()

	if typ.Kind() != reflect.Struct {
		t.Fatalf("expected struct type, got %s", typ.Kind())
	}

	fields := make(map[string]bool)
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		fields[name] = true
	}

	return fields
}

func assertFieldsSync(t *testing.T, structName string, cueFields, goFields map[string]bool) {
	t.Helper()

	for field := range cueFields {
		if !goFields[field] {
			t.Errorf("[%s] CUE field %q not found in Go struct (missing JSON tag)", structName, field)
		}
	}
	for field := range goFields {
		if !cueFields[field] {
			t.Errorf("[%s] Go JSON tag %q not found in CUE schema (missing CUE field)", structName, field)
		}
	}
}

func lookupDefinition(t *testing.T, defPath string) cue.Value {
	t.Helper()

	schema := cuecontext.New().CompileString(configSchema)
	if schema.Err() != nil {
		t.Fatalf("failed to compile CUE schema: %v", schema.Err())
	}
	def := schema.LookupPath(cue.ParsePath(defPath))
	if def.Err() != nil {
		t.Fatalf("failed to lookup CUE definition %s: %v", defPath, def.Err())
	}
	return def
}

func TestSchemaSync(t *testing.T) {
	t.Parallel()

	tests := []struct {
		def string
		typ reflect.Type
	}{
		{"#Config", reflect.TypeFor[Config]()},
		{"#SourceConfig", reflect.TypeFor[SourceConfig]()},
		{"#InstallConfig", reflect.TypeFor[InstallConfig]()},
		{"#NetworkConfig", reflect.TypeFor[NetworkConfig]()},
		{"#UIConfig", reflect.TypeFor[UIConfig]()},
		{"#LogConfig", reflect.TypeFor[LogConfig]()},
	}

	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			t.Parallel()
			assertFieldsSync(t, tt.typ.Name(), extractCUEFields(t, lookupDefinition(t, tt.def)), extractGoJSONTags(t, tt.typ))
		})
	}
}

// validateCUE validates cueData against #Config with concrete values required.
func validateCUE(t *testing.T, cueData string) error {
	t.Helper()

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		t.Fatalf("failed to compile schema: %v", schemaValue.Err())
	}

	userValue := ctx.CompileString(cueData)
	if userValue.Err() != nil {
		return fmt.Errorf("CUE compile error: %w", userValue.Err())
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("CUE validation error: %w", err)
	}
	return nil
}

func TestSchemaConstraints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cueData string
		wantErr bool
	}{
		{"empty config accepted", ``, false},
		{"https mirror accepted", `source: mirrors: ["https://a.example/ui.zip"]`, false},
		{"ftp mirror rejected", `source: mirrors: ["ftp://a.example/ui.zip"]`, true},
		{"empty mirror list rejected", `source: mirrors: []`, true},
		{"nine mirrors rejected", `source: mirrors: [` + strings.Repeat(`"https://a.example/x.zip",`, 9) + `]`, true},
		{"dir name with slash rejected", `install: dir_name: "a/b"`, true},
		{"empty aux path rejected", `install: aux_config_path: ""`, true},
		{"timeout with unit accepted", `network: timeout: "90s"`, false},
		{"compound timeout rejected", `network: timeout: "1m30s"`, true},
		{"unknown log level rejected", `log: level: "trace"`, true},
		{"bool as string rejected", `ui: pause_on_exit: "no"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateCUE(t, tt.cueData)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}
