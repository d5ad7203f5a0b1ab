// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pharbuilder/pharbuilder/pkg/composer"
	"github.com/pharbuilder/pharbuilder/pkg/cueutil"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "phar-builder"
	// SectionKey locates the settings inside composer.json.
	SectionKey = "extra/phar-builder"
	// EnvPrefix prefixes environment overrides, e.g. PHAR_BUILDER_COMPRESSION.
	EnvPrefix = "PHAR_BUILDER"
	// DefaultName is the archive name for manifests without a package name.
	DefaultName = "app.phar"
	// DefaultRuntime is the interpreter of the stub's shebang line.
	DefaultRuntime = "php"

	// NoShebangFlag disables the shebang line; it has no settings key of its own.
	NoShebangFlag = "no-shebang"

	sourceDateEpochEnv = "SOURCE_DATE_EPOCH"
	schemaDefinition   = "#Settings"
)

//go:embed settings_schema.cue
var settingsSchemaSrc []byte

var settingsSchema = sync.OnceValues(func() (*cueutil.Schema, error) {
	return cueutil.Compile(settingsSchemaSrc, schemaDefinition)
})

// flagKeys maps command-line flag names to settings keys.
var flagKeys = map[string]string{
	"name":        "name",
	"output-dir":  "output-dir",
	"entry-point": "entry-point",
	"compression": "compression",
	"include":     "includes",
	"exclude":     "excludes",
	"include-dev": "include-dev",
	"signature":   "signature",
	"runtime":     "runtime",
	"alias":       "alias",
	"timestamp":   "timestamp",
}

// Settings are the resolved options of one build.
type Settings struct {
	// Name is the archive file name.
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	// OutputDir is where the archive is written, relative to the project root.
	OutputDir string `json:"output-dir" yaml:"output-dir" mapstructure:"output-dir"`
	// EntryPoint is the project file the stub hands control to.
	EntryPoint string `json:"entry-point" yaml:"entry-point" mapstructure:"entry-point"`
	// Compression applies to allow-listed entries only.
	Compression CompressionMode `json:"compression" yaml:"compression" mapstructure:"compression"`
	// Includes are extra files or directories to package.
	Includes []string `json:"includes" yaml:"includes" mapstructure:"includes"`
	// IncludeDev keeps dev-only packages and the autoload-dev section.
	IncludeDev bool `json:"include-dev" yaml:"include-dev" mapstructure:"include-dev"`
	// Shebang prefixes the stub with "#!/usr/bin/env <runtime>".
	Shebang bool `json:"shebang" yaml:"shebang" mapstructure:"shebang"`
	// Excludes are dropped from every selected directory they exist in.
	Excludes []string `json:"excludes" yaml:"excludes" mapstructure:"excludes"`
	// Signature is the archive signature algorithm.
	Signature SignatureAlgorithm `json:"signature" yaml:"signature" mapstructure:"signature"`
	// Runtime is the interpreter named in the shebang line.
	Runtime string `json:"runtime" yaml:"runtime" mapstructure:"runtime"`
	// Alias is the name the archive maps itself under; defaults to Name.
	Alias string `json:"alias" yaml:"alias" mapstructure:"alias"`
	// Timestamp is recorded for every entry, in Unix seconds.
	Timestamp int64 `json:"timestamp" yaml:"timestamp" mapstructure:"timestamp"`
}

// DefaultSettings returns the built-in defaults. The timestamp honors
// SOURCE_DATE_EPOCH.
func DefaultSettings() *Settings {
	return &Settings{
		Name:        DefaultName,
		OutputDir:   ".",
		Compression: CompressionNone,
		Includes:    []string{},
		Shebang:     true,
		Excludes:    []string{},
		Signature:   SignatureSHA256,
		Runtime:     DefaultRuntime,
		Timestamp:   sourceDateEpoch(),
	}
}

// OutputPath returns the archive path for a project rooted at root.
func (s *Settings) OutputPath(root string) string {
	dir := filepath.FromSlash(s.OutputDir)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return filepath.Join(dir, s.Name)
}

// ModTime returns Timestamp as a time.
func (s *Settings) ModTime() time.Time {
	return time.Unix(s.Timestamp, 0)
}

// IsValid returns whether every field holds a usable value.
func (s *Settings) IsValid() (bool, []error) {
	var errs []error
	if s.Name == "" || strings.ContainsAny(s.Name, `/\`) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidArchiveName, s.Name))
	}
	if strings.TrimSpace(s.EntryPoint) == "" {
		errs = append(errs, ErrMissingEntryPoint)
	}
	if valid, fieldErrs := s.Compression.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := s.Signature.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if s.Shebang && strings.TrimSpace(s.Runtime) == "" {
		errs = append(errs, fmt.Errorf("%w: runtime is empty", ErrInvalidSettings))
	}
	if s.Timestamp < 0 || s.Timestamp > math.MaxUint32 {
		errs = append(errs, fmt.Errorf("%w: timestamp %d out of range", ErrInvalidSettings, s.Timestamp))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidSettingsError{FieldErrors: errs}}
	}
	return true, nil
}

// loadWithOptions layers defaults, the manifest section, environment and
// flags into Settings.
func loadWithOptions(ctx context.Context, project *composer.Project, opts LoadOptions) (*Settings, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load settings canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultSettings()
	defaults.Name = defaultName(project.Manifest())
	defaults.EntryPoint = defaultEntryPoint(project.Manifest())
	v.SetDefault("name", defaults.Name)
	v.SetDefault("output-dir", defaults.OutputDir)
	v.SetDefault("entry-point", defaults.EntryPoint)
	v.SetDefault("compression", string(defaults.Compression))
	v.SetDefault("includes", defaults.Includes)
	v.SetDefault("include-dev", defaults.IncludeDev)
	v.SetDefault("shebang", defaults.Shebang)
	v.SetDefault("excludes", defaults.Excludes)
	v.SetDefault("signature", string(defaults.Signature))
	v.SetDefault("runtime", defaults.Runtime)
	v.SetDefault("alias", "")
	v.SetDefault("timestamp", defaults.Timestamp)

	if err := mergeManifestSection(v, project.Manifest()); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, err
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, &InvalidSettingsError{FieldErrors: []error{fmt.Errorf("failed to decode settings: %w", err)}}
	}
	if s.Alias == "" {
		s.Alias = s.Name
	}
	s.EntryPoint = strings.TrimPrefix(path.Clean(filepath.ToSlash(s.EntryPoint)), "/")
	if s.EntryPoint == "." {
		s.EntryPoint = ""
	}

	if valid, errs := s.IsValid(); !valid {
		return nil, errs[0]
	}
	return &s, nil
}

// mergeManifestSection validates the extra.phar-builder section against the
// CUE schema and merges it into v.
func mergeManifestSection(v *viper.Viper, manifest *composer.Manifest) error {
	section := manifest.Section(SectionKey)
	if section == nil {
		if _, ok := manifest.Value(SectionKey); ok {
			return &InvalidSettingsError{FieldErrors: []error{
				fmt.Errorf("%s#%s: expected an object", composer.ManifestFileName, strings.ReplaceAll(SectionKey, "/", ".")),
			}}
		}
		return nil
	}

	// Round-trip through JSON: the CUE input, and a private copy for viper.
	data, err := json.Marshal(section)
	if err != nil {
		return fmt.Errorf("failed to encode settings section: %w", err)
	}
	filename := composer.ManifestFileName + "#" + strings.ReplaceAll(SectionKey, "/", ".")
	schema, err := settingsSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(data, cueutil.WithFilename(filename)); err != nil {
		return &InvalidSettingsError{FieldErrors: []error{err}}
	}

	var settingsMap map[string]any
	if err := json.Unmarshal(data, &settingsMap); err != nil {
		return fmt.Errorf("failed to decode settings section: %w", err)
	}
	if err := v.MergeConfigMap(settingsMap); err != nil {
		return fmt.Errorf("failed to merge settings: %w", err)
	}
	return nil
}

// bindFlags binds the flags that were set on the command line.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	if flag := flags.Lookup(NoShebangFlag); flag != nil && flag.Changed {
		noShebang, err := strconv.ParseBool(flag.Value.String())
		if err != nil {
			return fmt.Errorf("invalid --%s value: %w", NoShebangFlag, err)
		}
		if noShebang {
			v.Set("shebang", false)
		}
	}
	return nil
}

// defaultName derives "<package>.phar" from the manifest's vendor/package name.
func defaultName(manifest *composer.Manifest) string {
	name := manifest.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if strings.TrimSpace(name) == "" {
		return DefaultName
	}
	return name + ".phar"
}

// defaultEntryPoint returns the first binary declared under "bin".
func defaultEntryPoint(manifest *composer.Manifest) string {
	raw, ok := manifest.Value("bin")
	if !ok {
		return ""
	}
	switch bin := raw.(type) {
	case string:
		return bin
	case []any:
		if len(bin) > 0 {
			if s, ok := bin[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func sourceDateEpoch() int64 {
	raw, ok := os.LookupEnv(sourceDateEpochEnv)
	if !ok {
		return 0
	}
	epoch, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || epoch < 0 || epoch > math.MaxUint32 {
		return 0
	}
	return epoch
}
