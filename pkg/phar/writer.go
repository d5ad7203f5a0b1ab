// SPDX-License-Identifier: MPL-2.0

package phar

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io/fs"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

type (
	// Writer assembles an archive in memory. It moves from buffering to
	// finalized exactly once; after Finalize every mutating call fails with
	// ErrFinalized. A Writer is not safe for concurrent use.
	Writer struct {
		path        string
		root        string
		alias       string
		compression Compression
		signature   Signature
		modTime     time.Time
		progress    func(name string)

		stub      []byte
		entries   []*entry
		index     map[string]int
		finalized bool
	}

	// Option configures a Writer.
	Option func(*Writer)

	entry struct {
		Entry
		data []byte
	}
)

// WithRoot sets the directory AddFile reads relative paths from.
// It defaults to the process working directory.
func WithRoot(root string) Option {
	return func(w *Writer) { w.root = root }
}

// WithAlias sets the alias recorded in the manifest. It defaults to the
// base name of the output path and must match the alias the stub maps.
func WithAlias(alias string) Option {
	return func(w *Writer) { w.alias = alias }
}

// WithCompression sets the method CompressEntry applies.
func WithCompression(c Compression) Option {
	return func(w *Writer) { w.compression = c }
}

// WithSignature sets the signature algorithm. It defaults to SHA256.
func WithSignature(s Signature) Option {
	return func(w *Writer) { w.signature = s }
}

// WithModTime sets the timestamp recorded for every entry.
// It defaults to the Unix epoch.
func WithModTime(t time.Time) Option {
	return func(w *Writer) { w.modTime = t }
}

// WithProgress registers a callback invoked with the name of every added entry.
func WithProgress(fn func(name string)) Option {
	return func(w *Writer) { w.progress = fn }
}

// Create prepares a new archive at outputPath. A file already at outputPath
// is removed and the output directory is created. Nothing is written to
// outputPath until Finalize.
func Create(outputPath string, opts ...Option) (*Writer, error) {
	w := &Writer{
		path:      outputPath,
		alias:     filepath.Base(outputPath),
		signature: SHA256,
		modTime:   time.Unix(0, 0),
		index:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.modTime.Unix() < 0 || w.modTime.Unix() > math.MaxUint32 {
		return nil, fmt.Errorf("%w: timestamp %d out of range", ErrArchiveCreate, w.modTime.Unix())
	}
	if _, ok := w.signature.newHash(); !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrArchiveCreate, ErrInvalidSignature, w.signature)
	}

	info, err := os.Lstat(outputPath)
	switch {
	case err == nil && info.IsDir():
		return nil, fmt.Errorf("%w: %s is a directory", ErrArchiveCreate, outputPath)
	case err == nil:
		if err := os.Remove(outputPath); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrArchiveCreate, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %w", ErrArchiveCreate, err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchiveCreate, err)
	}

	return w, nil
}

// Path returns the output path.
func (w *Writer) Path() string {
	return w.path
}

// Len returns the number of entries added so far.
func (w *Writer) Len() int {
	return len(w.entries)
}

// SetStub sets the bootstrap program. The stub is terminated after its halt
// marker; one is appended if src has none.
func (w *Writer) SetStub(src string) error {
	if w.finalized {
		return ErrFinalized
	}
	if w.stub != nil {
		return ErrStubAlreadySet
	}
	w.stub = normalizeStub([]byte(src))
	return nil
}

// AddFile stores the file at rel, read relative to the writer's root, under
// the same slash-separated name.
func (w *Writer) AddFile(rel string) error {
	if w.finalized {
		return ErrFinalized
	}
	src := filepath.Join(w.root, filepath.FromSlash(rel))
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrArchiveWrite, rel)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}
	return w.add(rel, data, info.Mode())
}

// AddContent stores data under rel.
func (w *Writer) AddContent(rel string, data []byte) error {
	if w.finalized {
		return ErrFinalized
	}
	return w.add(rel, append([]byte(nil), data...), 0o644)
}

// AddPlaceholder stores an empty entry under rel without touching the disk.
func (w *Writer) AddPlaceholder(rel string) error {
	if w.finalized {
		return ErrFinalized
	}
	return w.add(rel, []byte{}, 0o644)
}

// add stores an entry; a name added twice keeps its first position and
// takes the new content. Progress is reported once per name.
func (w *Writer) add(rel string, data []byte, mode fs.FileMode) error {
	name, err := entryName(rel)
	if err != nil {
		return err
	}
	if uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("%w: %s exceeds 4 GiB", ErrArchiveWrite, name)
	}

	e := &entry{
		Entry: Entry{
			Name:           name,
			Size:           uint32(len(data)),
			CompressedSize: uint32(len(data)),
			CRC32:          crc32.ChecksumIEEE(data),
			Mode:           normalizeMode(mode),
			Compression:    None,
			ModTime:        w.modTime,
		},
		data: data,
	}
	if i, ok := w.index[name]; ok {
		w.entries[i] = e
		return nil
	}
	w.index[name] = len(w.entries)
	w.entries = append(w.entries, e)

	if w.progress != nil {
		w.progress(name)
	}
	return nil
}

// CompressEntry compresses the entry stored under rel with the writer's
// method. It does nothing when compression is off, when the extension is not
// allow-listed, when the entry is empty or already compressed.
func (w *Writer) CompressEntry(rel string) error {
	if w.finalized {
		return ErrFinalized
	}
	name, err := entryName(rel)
	if err != nil {
		return err
	}
	i, ok := w.index[name]
	if !ok {
		return fmt.Errorf("%w: %w: %s", ErrArchiveWrite, ErrEntryNotFound, name)
	}

	e := w.entries[i]
	if w.compression == None || !Compressible(name) || e.Compression != None || len(e.data) == 0 {
		return nil
	}

	data, err := compress(w.compression, e.data)
	if err != nil {
		return fmt.Errorf("%w: compress %s: %w", ErrArchiveWrite, name, err)
	}
	e.data = data
	e.CompressedSize = uint32(len(data))
	e.Compression = w.compression
	return nil
}

// Entries returns the entries added so far, in archive order.
func (w *Writer) Entries() []Entry {
	out := make([]Entry, len(w.entries))
	for i, e := range w.entries {
		out[i] = e.Entry
	}
	return out
}

// Finalize encodes the archive, writes it next to the output path and
// renames it into place with mode 0755. The writer is finalized even when
// writing fails; a failed Finalize leaves nothing at the output path.
func (w *Writer) Finalize() (err error) {
	if w.finalized {
		return ErrFinalized
	}
	if w.stub == nil {
		return ErrStubMissing
	}
	w.finalized = true

	data, err := w.encode()
	if err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}
	if err = os.Chmod(tmpPath, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}
	if err = os.Rename(tmpPath, w.path); err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}
	return nil
}

func (w *Writer) encode() ([]byte, error) {
	manifest := encodeManifest(w.alias, w.entries, w.signature)

	size := len(w.stub) + len(manifest)
	for _, e := range w.entries {
		size += len(e.data)
	}
	h, _ := w.signature.newHash()
	size += h.Size() + 8

	out := make([]byte, 0, size)
	out = append(out, w.stub...)
	out = append(out, manifest...)
	for _, e := range w.entries {
		out = append(out, e.data...)
	}

	if _, err := h.Write(out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchiveWrite, err)
	}
	out = h.Sum(out)
	out = appendUint32(out, uint32(w.signature))
	return append(out, signatureMagic...), nil
}

// entryName converts a relative path into a clean slash-separated name.
func entryName(rel string) (string, error) {
	name := path.Clean(strings.TrimLeft(filepath.ToSlash(rel), "/"))
	if name == "." || name == ".." || strings.HasPrefix(name, "../") {
		return "", fmt.Errorf("%w: invalid entry name %q", ErrArchiveWrite, rel)
	}
	return name, nil
}
