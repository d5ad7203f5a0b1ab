// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

const testSchema = `
#Settings: {
	name?:        string & !=""
	compression?: "none" | "gzip" | "bzip2"
	includes?: [...string]
	...
}
`

type testSettings struct {
	Name        string   `json:"name"`
	Compression string   `json:"compression"`
	Includes    []string `json:"includes"`
}

func mustCompile(t *testing.T) *Schema {
	t.Helper()
	schema, err := Compile([]byte(testSchema), "#Settings")
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	return schema
}

func TestCompile(t *testing.T) {
	t.Parallel()

	if schema := mustCompile(t); schema.Name() != "#Settings" {
		t.Errorf("Name() = %q", schema.Name())
	}

	for name, tc := range map[string]struct {
		src, path string
	}{
		"syntax error":       {src: "#Settings: {", path: "#Settings"},
		"missing definition": {src: testSchema, path: "#Missing"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Compile([]byte(tc.src), tc.path)
			if err == nil || !strings.Contains(err.Error(), "internal error") {
				t.Fatalf("expected internal error, got %v", err)
			}
		})
	}
}

func TestSchema_Validate(t *testing.T) {
	t.Parallel()

	schema := mustCompile(t)

	t.Run("valid JSON document", func(t *testing.T) {
		t.Parallel()

		data := []byte(`{"name": "app.phar", "compression": "gzip", "includes": ["res"], "other": 1}`)
		if err := schema.Validate(data, WithFilename("composer.json")); err != nil {
			t.Fatalf("Validate() failed: %v", err)
		}
	})

	t.Run("disallowed enum value is rejected with path", func(t *testing.T) {
		t.Parallel()

		err := schema.Validate([]byte(`{"compression": "zip"}`), WithFilename("composer.json"))
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "compression") || !strings.Contains(err.Error(), "composer.json") {
			t.Errorf("error should name the document and field, got: %v", err)
		}
	})

	t.Run("wrong type is rejected", func(t *testing.T) {
		t.Parallel()

		if err := schema.Validate([]byte(`{"includes": "res"}`)); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("size limit applies", func(t *testing.T) {
		t.Parallel()

		err := schema.Validate([]byte(`{"name": "x"}`), WithMaxFileSize(4))
		if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
			t.Fatalf("expected size error, got %v", err)
		}
	})
}

func TestDecode(t *testing.T) {
	t.Parallel()

	schema := mustCompile(t)

	got, err := Decode[testSettings](schema, []byte(`{"name": "app.phar", "compression": "gzip", "includes": ["res"]}`))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if got.Name != "app.phar" || got.Compression != "gzip" {
		t.Errorf("decoded %+v", got)
	}
	if len(got.Includes) != 1 || got.Includes[0] != "res" {
		t.Errorf("includes = %v", got.Includes)
	}

	if _, err := Decode[testSettings](schema, []byte(`{"name": ""}`)); err == nil {
		t.Error("Decode() accepted an empty name")
	}
}
