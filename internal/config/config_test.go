// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pharbuilder/pharbuilder/internal/testutil"
	"github.com/pharbuilder/pharbuilder/pkg/composer"

	"github.com/spf13/pflag"
)

func loadProject(t *testing.T, manifest string, opts LoadOptions) (*Settings, error) {
	t.Helper()
	p := testutil.NewProject(t, manifest)
	project, err := composer.Open(p.Root)
	if err != nil {
		t.Fatalf("composer.Open() failed: %v", err)
	}
	return NewProvider().Load(context.Background(), project, opts)
}

// newFlagSet declares the package command's flags.
func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("package", pflag.ContinueOnError)
	flags.String("name", "", "")
	flags.String("output-dir", "", "")
	flags.String("entry-point", "", "")
	flags.String("compression", "", "")
	flags.StringSlice("include", nil, "")
	flags.StringSlice("exclude", nil, "")
	flags.Bool("include-dev", false, "")
	flags.Bool(NoShebangFlag, false, "")
	flags.String("signature", "", "")
	if err := flags.Parse(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(sourceDateEpochEnv, "")

	s, err := loadProject(t, `{"name": "acme/tool", "bin": ["bin/tool", "bin/other"]}`, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := Settings{
		Name:        "tool.phar",
		OutputDir:   ".",
		EntryPoint:  "bin/tool",
		Compression: CompressionNone,
		Includes:    []string{},
		Shebang:     true,
		Excludes:    []string{},
		Signature:   SignatureSHA256,
		Runtime:     DefaultRuntime,
		Alias:       "tool.phar",
		Timestamp:   0,
	}
	if !settingsEqual(*s, want) {
		t.Errorf("Load() = %+v, want %+v", *s, want)
	}
}

func TestLoad_SourceDateEpoch(t *testing.T) {
	t.Setenv(sourceDateEpochEnv, "1700000000")

	s, err := loadProject(t, `{"bin": "index.php"}`, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if s.Timestamp != 1700000000 || s.ModTime().Unix() != 1700000000 {
		t.Errorf("Timestamp = %d, want 1700000000", s.Timestamp)
	}
	if s.Name != DefaultName || s.EntryPoint != "index.php" {
		t.Errorf("Name = %q, EntryPoint = %q", s.Name, s.EntryPoint)
	}
}

func TestLoad_ManifestSection(t *testing.T) {
	t.Parallel()

	s, err := loadProject(t, `{
		"name": "acme/tool",
		"extra": {
			"phar-builder": {
				"name": "acme.phar",
				"output-dir": "build",
				"entry-point": "./bin/acme",
				"compression": "gzip",
				"includes": ["resources", "LICENSE"],
				"include-dev": true,
				"shebang": false,
				"excludes": ["fixtures"],
				"signature": "sha512",
				"runtime": "php8.3",
				"alias": "acme",
				"timestamp": 1700000000
			}
		}
	}`, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := Settings{
		Name:        "acme.phar",
		OutputDir:   "build",
		EntryPoint:  "bin/acme",
		Compression: CompressionGzip,
		Includes:    []string{"resources", "LICENSE"},
		IncludeDev:  true,
		Shebang:     false,
		Excludes:    []string{"fixtures"},
		Signature:   SignatureSHA512,
		Runtime:     "php8.3",
		Alias:       "acme",
		Timestamp:   1700000000,
	}
	if !settingsEqual(*s, want) {
		t.Errorf("Load() = %+v, want %+v", *s, want)
	}
}

func TestLoad_InvalidSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		manifest string
		wantErr  error
	}{
		{
			name:     "unknown compression",
			manifest: `{"extra": {"phar-builder": {"entry-point": "a.php", "compression": "zip"}}}`,
			wantErr:  ErrInvalidSettings,
		},
		{
			name:     "unknown key",
			manifest: `{"extra": {"phar-builder": {"entry-point": "a.php", "compresion": "gzip"}}}`,
			wantErr:  ErrInvalidSettings,
		},
		{
			name:     "wrong type",
			manifest: `{"extra": {"phar-builder": {"entry-point": "a.php", "includes": "src"}}}`,
			wantErr:  ErrInvalidSettings,
		},
		{
			name:     "name with separator",
			manifest: `{"extra": {"phar-builder": {"entry-point": "a.php", "name": "dist/app.phar"}}}`,
			wantErr:  ErrInvalidSettings,
		},
		{
			name:     "negative timestamp",
			manifest: `{"extra": {"phar-builder": {"entry-point": "a.php", "timestamp": -1}}}`,
			wantErr:  ErrInvalidSettings,
		},
		{
			name:     "section is not an object",
			manifest: `{"extra": {"phar-builder": "yes"}}`,
			wantErr:  ErrInvalidSettings,
		},
		{
			name:     "no entry point",
			manifest: `{"name": "acme/tool"}`,
			wantErr:  ErrMissingEntryPoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := loadProject(t, tt.manifest, LoadOptions{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Load() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("error %v does not wrap ErrInvalidSettings", err)
			}
		})
	}
}

func TestLoad_EnvOverridesManifest(t *testing.T) {
	testutil.MustSetenv(t, "PHAR_BUILDER_COMPRESSION", "bzip2")
	testutil.MustSetenv(t, "PHAR_BUILDER_INCLUDE_DEV", "true")
	testutil.MustSetenv(t, "PHAR_BUILDER_OUTPUT_DIR", "dist")

	s, err := loadProject(t, `{"extra": {"phar-builder": {"entry-point": "a.php", "compression": "gzip", "output-dir": "build"}}}`, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if s.Compression != CompressionBzip2 || !s.IncludeDev || s.OutputDir != "dist" {
		t.Errorf("env overrides not applied: %+v", *s)
	}
}

func TestLoad_EnvInvalidValue(t *testing.T) {
	testutil.MustSetenv(t, "PHAR_BUILDER_SIGNATURE", "md5")

	_, err := loadProject(t, `{"bin": "a.php"}`, LoadOptions{})
	if !errors.Is(err, ErrInvalidSignatureAlgorithm) {
		t.Fatalf("Load() error = %v, want ErrInvalidSignatureAlgorithm", err)
	}
}

func TestLoad_FlagsOverride(t *testing.T) {
	t.Parallel()

	manifest := `{"extra": {"phar-builder": {"name": "custom.phar", "entry-point": "a.php", "compression": "bzip2", "includes": ["res"]}}}`

	t.Run("set flags win", func(t *testing.T) {
		t.Parallel()

		flags := newFlagSet(t, "--compression=gzip", "--no-shebang", "--include", "extra,more", "--output-dir", "dist", "--include-dev")
		s, err := loadProject(t, manifest, LoadOptions{Flags: flags})
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if s.Compression != CompressionGzip || s.Shebang || s.OutputDir != "dist" || !s.IncludeDev {
			t.Errorf("flags not applied: %+v", *s)
		}
		if !slices.Equal(s.Includes, []string{"extra", "more"}) {
			t.Errorf("Includes = %v, want [extra more]", s.Includes)
		}
	})

	t.Run("unset flags keep lower layers", func(t *testing.T) {
		t.Parallel()

		s, err := loadProject(t, manifest, LoadOptions{Flags: newFlagSet(t)})
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if s.Name != "custom.phar" || s.Compression != CompressionBzip2 || !s.Shebang {
			t.Errorf("lower layers overridden: %+v", *s)
		}
		if !slices.Equal(s.Includes, []string{"res"}) {
			t.Errorf("Includes = %v, want [res]", s.Includes)
		}
	})

	t.Run("invalid flag value", func(t *testing.T) {
		t.Parallel()

		_, err := loadProject(t, manifest, LoadOptions{Flags: newFlagSet(t, "--compression=lzma")})
		if !errors.Is(err, ErrInvalidCompressionMode) {
			t.Fatalf("Load() error = %v, want ErrInvalidCompressionMode", err)
		}
	})
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	p := testutil.NewProject(t, `{"bin": "a.php"}`)
	project, err := composer.Open(p.Root)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, project, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestSettings_OutputPath(t *testing.T) {
	t.Parallel()

	root := filepath.FromSlash("/work/project")
	tests := []struct {
		outputDir string
		want      string
	}{
		{".", filepath.FromSlash("/work/project/app.phar")},
		{"build/bin", filepath.FromSlash("/work/project/build/bin/app.phar")},
		{filepath.FromSlash("/tmp/out"), filepath.FromSlash("/tmp/out/app.phar")},
	}

	for _, tt := range tests {
		s := &Settings{Name: "app.phar", OutputDir: tt.outputDir}
		if got := s.OutputPath(root); got != tt.want {
			t.Errorf("OutputPath() with %q = %q, want %q", tt.outputDir, got, tt.want)
		}
	}
}

func settingsEqual(a, b Settings) bool {
	return a.Name == b.Name &&
		a.OutputDir == b.OutputDir &&
		a.EntryPoint == b.EntryPoint &&
		a.Compression == b.Compression &&
		slices.Equal(a.Includes, b.Includes) &&
		a.IncludeDev == b.IncludeDev &&
		a.Shebang == b.Shebang &&
		slices.Equal(a.Excludes, b.Excludes) &&
		a.Signature == b.Signature &&
		a.Runtime == b.Runtime &&
		a.Alias == b.Alias &&
		a.Timestamp == b.Timestamp
}
