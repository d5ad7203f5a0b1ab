// SPDX-License-Identifier: MPL-2.0

package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/pharbuilder/pharbuilder/internal/config"
	"github.com/pharbuilder/pharbuilder/pkg/composer"
	"github.com/pharbuilder/pharbuilder/pkg/fileselect"
	"github.com/pharbuilder/pharbuilder/pkg/phar"

	"github.com/charmbracelet/log"
	"github.com/opencontainers/go-digest"
)

type (
	// Builder packages one project with one set of settings.
	Builder struct {
		project  *composer.Project
		settings *config.Settings
		logger   *log.Logger
		reporter Reporter
		clock    Clock
	}

	// Option configures a Builder.
	Option func(*Builder)

	// run holds the state of a single Build call.
	run struct {
		*Builder
		ctx      context.Context
		writer   *phar.Writer
		excludes []string
		// sourceExcludes also keeps the vendor directory and the output
		// archive out of source and include walks.
		sourceExcludes []string
		ignore         []string
		seen           map[string]struct{}
		result         Result
	}
)

// WithLogger sets the diagnostics logger. Nothing is logged by default.
func WithLogger(logger *log.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithReporter sets the progress receiver.
func WithReporter(r Reporter) Option {
	return func(b *Builder) { b.reporter = r }
}

// WithClock replaces the wall clock used for the reported duration.
func WithClock(c Clock) Option {
	return func(b *Builder) { b.clock = c }
}

// New returns a Builder for project. settings are expected to be valid, as
// returned by config.Provider.
func New(project *composer.Project, settings *config.Settings, opts ...Option) *Builder {
	b := &Builder{
		project:  project,
		settings: settings,
		logger:   log.New(io.Discard),
		reporter: nopReporter{},
		clock:    realClock{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build writes the archive. Metadata errors are reported before the output
// is touched. A failure after the autoload registries were rewritten leaves
// them rewritten.
func (b *Builder) Build(ctx context.Context) (result *Result, err error) {
	start := b.clock.Now()
	root := b.project.Root()

	spec, err := b.project.SourceSpec(b.settings.IncludeDev)
	if err != nil {
		return nil, err
	}
	compression, err := phar.ParseCompression(b.settings.Compression.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidSettings, err)
	}
	signature, err := phar.ParseSignature(b.settings.Signature.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidSettings, err)
	}
	ignore, err := fileselect.LoadIgnoreFile(root)
	if err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	output := b.settings.OutputPath(root)
	lock, err := acquireOutputLock(output)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := lock.release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()

	alias := b.settings.Alias
	if alias == "" {
		alias = b.settings.Name
	}
	writer, err := phar.Create(output,
		phar.WithRoot(root),
		phar.WithAlias(alias),
		phar.WithCompression(compression),
		phar.WithSignature(signature),
		phar.WithModTime(b.settings.ModTime()),
		phar.WithProgress(b.reporter.EntryAdded),
	)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("archive created", "path", output, "compression", compression, "signature", signature)

	err = writer.SetStub(phar.NewStub(phar.StubOptions{
		Alias:      alias,
		EntryPoint: b.settings.EntryPoint,
		Shebang:    b.settings.Shebang,
		Runtime:    b.settings.Runtime,
	}))
	if err != nil {
		return nil, err
	}

	sourceExcludes, err := b.sourceExcludes(spec.VendorDir, output)
	if err != nil {
		return nil, err
	}
	r := &run{
		Builder:        b,
		ctx:            ctx,
		writer:         writer,
		excludes:       b.settings.Excludes,
		sourceExcludes: sourceExcludes,
		ignore:         ignore,
		seen:           make(map[string]struct{}),
	}
	if err = r.addAll(spec); err != nil {
		return nil, err
	}

	if err = writer.Finalize(); err != nil {
		return nil, err
	}
	if err = r.describe(output); err != nil {
		return nil, err
	}
	r.result.Duration = b.clock.Since(start)

	b.logger.Info("archive written", "path", r.result.Path, "entries", r.result.Entries, "digest", r.result.Digest)
	b.reporter.Finished(&r.result)
	return &r.result, nil
}

// sourceExcludes returns the settings excludes plus the absolute vendor
// directory and output path. Vendor files are only stored by the vendor
// phase, after the autoload registries were rewritten.
func (b *Builder) sourceExcludes(vendorDir, output string) ([]string, error) {
	vendor, err := filepath.Abs(filepath.Join(b.project.Root(), filepath.FromSlash(vendorDir)))
	if err != nil {
		return nil, fmt.Errorf("%w: vendor directory: %w", phar.ErrArchiveWrite, err)
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return nil, fmt.Errorf("%w: output path: %w", phar.ErrArchiveWrite, err)
	}
	excludes := append([]string(nil), b.settings.Excludes...)
	return append(excludes, vendor, out), nil
}

// addAll stores every entry in archive order, checking ctx between phases.
func (r *run) addAll(spec *composer.SourceSpec) error {
	phases := []struct {
		name string
		fn   func() error
	}{
		{"sources", func() error { return r.addDirs(spec.Dirs, r.sourceExcludes) }},
		{"files", func() error { return r.addFiles(spec.Files) }},
		{"placeholders", func() error { return r.addPlaceholders(spec.Stubs) }},
		{"includes", func() error { return r.addIncludes(r.settings.Includes) }},
		{"autoload", func() error { return r.rewriteAutoload(spec.ExcludedPackages) }},
		{"vendor", func() error { return r.addVendor(spec) }},
		{"manifest", func() error {
			return r.addFiles([]string{composer.ManifestFileName, composer.LockFileName})
		}},
		{"entry point", r.addEntryPoint},
	}

	for _, phase := range phases {
		if err := r.ctx.Err(); err != nil {
			return fmt.Errorf("build interrupted before %s: %w", phase.name, err)
		}
		before := r.writer.Len()
		if err := phase.fn(); err != nil {
			return err
		}
		r.logger.Debug("phase done", "phase", phase.name, "entries", r.writer.Len()-before)
	}
	return nil
}

func (r *run) addDirs(dirs, excludes []string) error {
	for _, dir := range dirs {
		files, err := fileselect.Select(r.project.Root(), dir, excludes, fileselect.WithIgnorePatterns(r.ignore))
		if err != nil {
			return fmt.Errorf("%w: select %s: %w", phar.ErrArchiveWrite, dir, err)
		}
		if err := r.addFiles(files); err != nil {
			return err
		}
	}
	return nil
}

// addFiles stores each file unless an earlier phase already stored it.
func (r *run) addFiles(files []string) error {
	for _, file := range files {
		if !r.claim(file) {
			continue
		}
		if err := r.writer.AddFile(file); err != nil {
			return err
		}
		if err := r.writer.CompressEntry(file); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) addPlaceholders(stubs []string) error {
	for _, stub := range stubs {
		if !r.claim(stub) {
			continue
		}
		if err := r.writer.AddPlaceholder(stub); err != nil {
			return err
		}
		if err := r.writer.CompressEntry(stub); err != nil {
			return err
		}
		r.result.Placeholders++
	}
	return nil
}

// addIncludes stores extra paths; directories go through the selection
// policy, files are stored as they are. A missing include is fatal.
func (r *run) addIncludes(includes []string) error {
	root := r.project.Root()
	for _, include := range includes {
		rel := filepath.ToSlash(include)
		if filepath.IsAbs(include) {
			var err error
			if rel, err = filepath.Rel(root, include); err != nil {
				return fmt.Errorf("%w: include %s: %w", phar.ErrArchiveWrite, include, err)
			}
			rel = filepath.ToSlash(rel)
		}
		rel = path.Clean(rel)

		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("%w: include %s: %w", phar.ErrArchiveWrite, include, err)
		}
		if info.IsDir() {
			err = r.addDirs([]string{rel}, r.sourceExcludes)
		} else {
			err = r.addFiles([]string{rel})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *run) rewriteAutoload(packages []string) error {
	removed, err := r.project.RemoveAutoloadEntries(packages)
	if err != nil {
		return err
	}
	if removed > 0 {
		r.logger.Info("autoload registries rewritten", "packages", len(packages), "removed", removed)
	}
	r.result.AutoloadEntriesRemoved = removed
	return nil
}

// addVendor walks the vendor directory without the excluded packages. A
// project without a vendor directory has nothing installed to package.
func (r *run) addVendor(spec *composer.SourceSpec) error {
	vendor := filepath.Join(r.project.Root(), filepath.FromSlash(spec.VendorDir))
	if _, err := os.Stat(vendor); errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("vendor directory not found, run 'composer install' first", "path", spec.VendorDir)
		return nil
	}
	excludes := append(append([]string(nil), spec.ExcludedPackages...), r.excludes...)
	return r.addDirs([]string{spec.VendorDir}, excludes)
}

// addEntryPoint stores the entry point last, without its shebang line. It
// replaces a copy stored by an earlier phase.
func (r *run) addEntryPoint() error {
	name := path.Clean(filepath.ToSlash(r.settings.EntryPoint))
	data, err := os.ReadFile(filepath.Join(r.project.Root(), filepath.FromSlash(name)))
	if err != nil {
		return fmt.Errorf("%w: entry point: %w", phar.ErrArchiveWrite, err)
	}
	r.seen[name] = struct{}{}
	if err := r.writer.AddContent(name, stripShebang(data)); err != nil {
		return err
	}
	return r.writer.CompressEntry(name)
}

// claim reports whether name is new to the archive and records it.
func (r *run) claim(name string) bool {
	if _, ok := r.seen[name]; ok {
		return false
	}
	r.seen[name] = struct{}{}
	return true
}

// describe fills the result from the written archive.
func (r *run) describe(output string) error {
	f, err := os.Open(output)
	if err != nil {
		return fmt.Errorf("%w: %w", phar.ErrArchiveWrite, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %w", phar.ErrArchiveWrite, err)
	}
	dgst, err := digest.FromReader(f)
	if err != nil {
		return fmt.Errorf("%w: digest: %w", phar.ErrArchiveWrite, err)
	}

	r.result.Path = output
	r.result.Size = info.Size()
	r.result.Digest = dgst
	for _, e := range r.writer.Entries() {
		r.result.Entries++
		if e.Compression != phar.None {
			r.result.Compressed++
		}
	}
	return nil
}

// stripShebang drops a leading "#!" line.
func stripShebang(data []byte) []byte {
	if !bytes.HasPrefix(data, []byte("#!")) {
		return data
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[i+1:]
	}
	return []byte{}
}
