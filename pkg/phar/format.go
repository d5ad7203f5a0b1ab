// SPDX-License-Identifier: MPL-2.0

package phar

import (
	"encoding/binary"
	"io/fs"
	"time"
)

const (
	// apiVersion is manifest API 1.1.1, stored as two nibble-packed bytes.
	apiVersion uint16 = 0x1110

	flagHasSignature uint32 = 0x00010000
	permMask         uint32 = 0x000001FF

	// bytes before the variable-length alias: length, count, api, flags.
	manifestHeaderSize = 4 + 4 + 2 + 4
	// fixed-size fields of an entry after its name.
	entryFixedSize = 4 + 4 + 4 + 4 + 4 + 4
)

// Entry describes one file stored in an archive.
type Entry struct {
	Name string
	// Size is the uncompressed length.
	Size uint32
	// CompressedSize is the stored length.
	CompressedSize uint32
	// CRC32 is the IEEE checksum of the uncompressed content.
	CRC32       uint32
	Mode        fs.FileMode
	Compression Compression
	ModTime     time.Time
}

func (e Entry) flags() uint32 {
	return uint32(e.Mode.Perm())&permMask | uint32(e.Compression)
}

// normalizeMode maps any file mode to 0755 or 0644.
func normalizeMode(mode fs.FileMode) fs.FileMode {
	if mode&0o111 != 0 {
		return 0o755
	}
	return 0o644
}

// encodeManifest renders the manifest for the given entries.
func encodeManifest(alias string, entries []*entry, sig Signature) []byte {
	var globalFlags uint32
	if sig != 0 {
		globalFlags |= flagHasSignature
	}

	body := make([]byte, 0, 256)
	body = binary.LittleEndian.AppendUint32(body, uint32(len(entries)))
	body = append(body, byte(apiVersion>>8), byte(apiVersion&0xF0))
	flagsAt := len(body)
	body = binary.LittleEndian.AppendUint32(body, 0)
	body = appendString(body, alias)
	body = binary.LittleEndian.AppendUint32(body, 0) // archive metadata

	for _, e := range entries {
		globalFlags |= uint32(e.Compression)
		body = appendString(body, e.Name)
		body = binary.LittleEndian.AppendUint32(body, e.Size)
		body = binary.LittleEndian.AppendUint32(body, uint32(e.ModTime.Unix()))
		body = binary.LittleEndian.AppendUint32(body, e.CompressedSize)
		body = binary.LittleEndian.AppendUint32(body, e.CRC32)
		body = binary.LittleEndian.AppendUint32(body, e.flags())
		body = binary.LittleEndian.AppendUint32(body, 0) // entry metadata
	}
	binary.LittleEndian.PutUint32(body[flagsAt:], globalFlags)

	out := make([]byte, 0, 4+len(body))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}

func appendString(b []byte, s string) []byte {
	b = appendUint32(b, uint32(len(s)))
	return append(b, s...)
}

func appendUint32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

// manifestDecoder reads little-endian fields from a manifest.
type manifestDecoder struct {
	buf []byte
	off int
	err bool
}

func (d *manifestDecoder) uint32() uint32 {
	if d.err || d.off+4 > len(d.buf) {
		d.err = true
		return 0
	}
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v
}

func (d *manifestDecoder) bytes(n int) []byte {
	if d.err || n < 0 || d.off+n > len(d.buf) {
		d.err = true
		return nil
	}
	v := d.buf[d.off : d.off+n]
	d.off += n
	return v
}

func (d *manifestDecoder) string() string {
	return string(d.bytes(int(d.uint32())))
}
