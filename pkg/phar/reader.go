// SPDX-License-Identifier: MPL-2.0

package phar

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"time"
)

// Archive is a decoded archive.
type Archive struct {
	stub      []byte
	alias     string
	signature Signature
	entries   []*entry
	index     map[string]int
}

// Open reads and verifies the archive at path.
func Open(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes an archive and verifies its signature and the framing of
// every entry. Entry checksums are verified by ReadFile.
func Parse(data []byte) (*Archive, error) {
	manifestAt, err := findManifest(data)
	if err != nil {
		return nil, err
	}

	a := &Archive{stub: data[:manifestAt], index: make(map[string]int)}

	d := &manifestDecoder{buf: data, off: manifestAt}
	manifestLen := d.uint32()
	if d.err || uint64(manifestAt)+4+uint64(manifestLen) > uint64(len(data)) {
		return nil, fmt.Errorf("%w: truncated manifest", ErrCorrupt)
	}
	d.buf = data[:manifestAt+4+int(manifestLen)]

	count := d.uint32()
	api := d.bytes(2)
	globalFlags := d.uint32()
	a.alias = d.string()
	_ = d.bytes(int(d.uint32())) // archive metadata
	if d.err {
		return nil, fmt.Errorf("%w: truncated manifest header", ErrCorrupt)
	}
	if api[0] != byte(apiVersion>>8) {
		return nil, fmt.Errorf("%w: unsupported manifest API %#x%02x", ErrCorrupt, api[0], api[1])
	}
	if uint64(count)*entryFixedSize > uint64(len(d.buf)) {
		return nil, fmt.Errorf("%w: entry count %d exceeds manifest", ErrCorrupt, count)
	}

	for range count {
		name := d.string()
		size := d.uint32()
		timestamp := d.uint32()
		compressedSize := d.uint32()
		checksum := d.uint32()
		flags := d.uint32()
		_ = d.bytes(int(d.uint32())) // entry metadata
		if d.err {
			return nil, fmt.Errorf("%w: truncated entry table", ErrCorrupt)
		}
		a.index[name] = len(a.entries)
		a.entries = append(a.entries, &entry{Entry: Entry{
			Name:           name,
			Size:           size,
			CompressedSize: compressedSize,
			CRC32:          checksum,
			Mode:           fs.FileMode(flags & permMask),
			Compression:    Compression(flags & compressionMask),
			ModTime:        time.Unix(int64(timestamp), 0),
		}})
	}

	end := len(data)
	if globalFlags&flagHasSignature != 0 {
		if end, err = a.verifySignature(data); err != nil {
			return nil, err
		}
	}

	off := manifestAt + 4 + int(manifestLen)
	for _, e := range a.entries {
		if uint64(off)+uint64(e.CompressedSize) > uint64(end) {
			return nil, fmt.Errorf("%w: content of %s is truncated", ErrCorrupt, e.Name)
		}
		e.data = data[off : off+int(e.CompressedSize)]
		off += int(e.CompressedSize)
	}
	if off != end {
		return nil, fmt.Errorf("%w: %d unexpected bytes after content", ErrCorrupt, end-off)
	}

	return a, nil
}

// findManifest returns the offset right after the stub.
func findManifest(data []byte) (int, error) {
	i := bytes.Index(data, []byte(haltCompiler))
	if i < 0 {
		return 0, fmt.Errorf("%w: no halt marker", ErrCorrupt)
	}
	off := i + len(haltCompiler)
	if bytes.HasPrefix(data[off:], []byte(" ?>")) {
		off += 3
	}
	switch {
	case bytes.HasPrefix(data[off:], []byte("\r\n")):
		off += 2
	case bytes.HasPrefix(data[off:], []byte("\n")):
		off++
	}
	return off, nil
}

// verifySignature checks the trailing signature block and returns where the
// signed content ends.
func (a *Archive) verifySignature(data []byte) (int, error) {
	if len(data) < 8 || string(data[len(data)-4:]) != signatureMagic {
		return 0, fmt.Errorf("%w: missing signature", ErrCorrupt)
	}
	a.signature = Signature(binary.LittleEndian.Uint32(data[len(data)-8:]))
	h, ok := a.signature.newHash()
	if !ok {
		return 0, fmt.Errorf("%w: unsupported signature flag %#x", ErrCorrupt, uint32(a.signature))
	}
	end := len(data) - 8 - h.Size()
	if end < 0 {
		return 0, fmt.Errorf("%w: truncated signature", ErrCorrupt)
	}
	_, _ = h.Write(data[:end])
	if subtle.ConstantTimeCompare(h.Sum(nil), data[end:len(data)-8]) != 1 {
		return 0, ErrSignatureMismatch
	}
	return end, nil
}

// Stub returns the bootstrap program including the halt marker.
func (a *Archive) Stub() string {
	return string(a.stub)
}

// Alias returns the alias recorded in the manifest.
func (a *Archive) Alias() string {
	return a.alias
}

// Signature returns the signature algorithm, or 0 for an unsigned archive.
func (a *Archive) Signature() Signature {
	return a.signature
}

// Entries returns the entries in archive order.
func (a *Archive) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Entry
	}
	return out
}

// Entry returns the named entry.
func (a *Archive) Entry(name string) (Entry, bool) {
	i, ok := a.index[name]
	if !ok {
		return Entry{}, false
	}
	return a.entries[i].Entry, true
}

// ReadFile returns the uncompressed content of the named entry and verifies
// its checksum.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	i, ok := a.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	e := a.entries[i]
	data, err := decompress(e.Compression, e.data, e.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, name, err)
	}
	if uint32(len(data)) != e.Size || crc32.ChecksumIEEE(data) != e.CRC32 {
		return nil, fmt.Errorf("%w: checksum mismatch for %s", ErrCorrupt, name)
	}
	return data, nil
}
