// SPDX-License-Identifier: MPL-2.0

package phar

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"testing"
)

func writeArchive(t *testing.T, entries map[string]string, opts ...Option) []byte {
	t.Helper()
	w, out := newTestWriter(t, t.TempDir(), opts...)
	for _, name := range []string{"a.php", "b.txt", "c.bin"} {
		content, ok := entries[name]
		if !ok {
			continue
		}
		if err := w.AddContent(name, []byte(content)); err != nil {
			t.Fatal(err)
		}
		if err := w.CompressEntry(name); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestParse_Layout(t *testing.T) {
	t.Parallel()

	data := writeArchive(t, map[string]string{"a.php": "<?php echo 1;"}, WithCompression(GZIP))

	manifestAt := len(testStub)
	if !bytes.HasPrefix(data, []byte(testStub)) {
		t.Fatal("archive does not start with the stub")
	}
	d := &manifestDecoder{buf: data, off: manifestAt}
	_ = d.uint32()
	if count := d.uint32(); count != 1 {
		t.Errorf("entry count = %d, want 1", count)
	}
	if api := d.bytes(2); api[0] != 0x11 || api[1] != 0x10 {
		t.Errorf("api = %x, want 1110", api)
	}
	if flags := d.uint32(); flags != flagHasSignature|uint32(GZIP) {
		t.Errorf("global flags = %#x, want %#x", flags, flagHasSignature|uint32(GZIP))
	}
	if !bytes.HasSuffix(data, []byte("GBMB")) {
		t.Error("archive does not end with GBMB")
	}
	if flag := binary.LittleEndian.Uint32(data[len(data)-8:]); flag != uint32(SHA256) {
		t.Errorf("signature flag = %#x, want %#x", flag, uint32(SHA256))
	}
}

func TestParse_DetectsTampering(t *testing.T) {
	t.Parallel()

	data := writeArchive(t, map[string]string{"a.php": "<?php echo 'original';", "c.bin": "payload"})

	tampered := bytes.Replace(data, []byte("payload"), []byte("PAYLOAD"), 1)
	if _, err := Parse(tampered); !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("Parse(tampered) error = %v, want ErrSignatureMismatch", err)
	}

	if _, err := Parse(data[:len(data)-2]); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Parse(truncated) error = %v, want ErrCorrupt", err)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string][]byte{
		"no halt marker":    []byte("<?php echo 1;"),
		"no manifest":       []byte("<?php __HALT_COMPILER(); ?>\r\n"),
		"short manifest":    append([]byte("<?php __HALT_COMPILER(); ?>\r\n"), 0xff, 0, 0, 0, 1),
		"huge entry count":  append([]byte("<?php __HALT_COMPILER(); ?>\r\n"), 10, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0x11, 0x10, 0, 0, 0, 0),
		"wrong api version": append([]byte("<?php __HALT_COMPILER(); ?>\r\n"), 18, 0, 0, 0, 0, 0, 0, 0, 0x09, 0x00, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if _, err := Parse(data); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Parse() error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestArchive_ReadFileVerifiesChecksum(t *testing.T) {
	t.Parallel()

	data := writeArchive(t, map[string]string{"b.txt": "hello"})
	a, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	a.entries[0].CRC32++
	if _, err := a.ReadFile("b.txt"); !errors.Is(err, ErrCorrupt) {
		t.Errorf("ReadFile() error = %v, want ErrCorrupt", err)
	}
}
