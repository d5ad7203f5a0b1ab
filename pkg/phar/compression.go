// SPDX-License-Identifier: MPL-2.0

package phar

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/flate"
)

// Compression is a per-entry compression method. The values are the PHAR
// entry flag bits.
type Compression uint32

const (
	// None stores entries as is.
	None Compression = 0
	// GZIP stores entries as raw DEFLATE streams.
	GZIP Compression = 0x00001000
	// BZIP2 stores entries as bzip2 streams.
	BZIP2 Compression = 0x00002000

	compressionMask = uint32(GZIP | BZIP2)
)

// compressible lists the extensions CompressEntry acts on.
var compressible = map[string]bool{
	"php": true, "phtml": true, "inc": true,
	"xml": true, "xsd": true, "html": true, "htm": true,
	"twig": true, "tpl": true,
	"js": true, "css": true, "scss": true, "less": true,
	"json": true, "yml": true, "yaml": true, "neon": true, "ini": true,
	"md": true, "txt": true, "rst": true,
	"csv": true, "sql": true, "svg": true, "dist": true,
}

// ParseCompression parses none, gzip or bzip2. The empty string means none.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, nil
	case "gzip", "gz":
		return GZIP, nil
	case "bzip2", "bz2":
		return BZIP2, nil
	default:
		return None, fmt.Errorf("%w: %q (expected none, gzip or bzip2)", ErrInvalidCompression, s)
	}
}

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case GZIP:
		return "gzip"
	case BZIP2:
		return "bzip2"
	default:
		return fmt.Sprintf("Compression(%#x)", uint32(c))
	}
}

// Compressible reports whether an entry name has an allow-listed extension.
func Compressible(name string) bool {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	return compressible[strings.ToLower(ext)]
}

func compress(c Compression, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch c {
	case GZIP:
		w, err = flate.NewWriter(&buf, flate.BestCompression)
	case BZIP2:
		w, err = bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	default:
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// maxPrealloc bounds the buffer reserved up front when inflating an entry.
const maxPrealloc = 1 << 20

func decompress(c Compression, data []byte, size uint32) ([]byte, error) {
	var r io.Reader
	switch c {
	case None:
		return data, nil
	case GZIP:
		fr := flate.NewReader(bytes.NewReader(data))
		defer func() { _ = fr.Close() }()
		r = fr
	case BZIP2:
		br, err := bzip2.NewReader(bytes.NewReader(data), nil)
		if err != nil {
			return nil, err
		}
		defer func() { _ = br.Close() }()
		r = br
	default:
		return nil, fmt.Errorf("unknown compression %s", c)
	}

	// size is read from the archive; it bounds the output, not the initial
	// allocation.
	buf := bytes.NewBuffer(make([]byte, 0, min(size, maxPrealloc)))
	n, err := io.Copy(buf, io.LimitReader(r, int64(size)+1))
	if err != nil {
		return nil, err
	}
	if n > int64(size) {
		return nil, fmt.Errorf("content exceeds declared size %d", size)
	}
	return buf.Bytes(), nil
}
