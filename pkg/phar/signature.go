// SPDX-License-Identifier: MPL-2.0

package phar

import (
	"crypto/sha1" //nolint:gosec // PHAR signature algorithm, not used for security decisions
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"
)

// Signature is the algorithm of the trailing archive signature. The values
// are the PHAR signature flags.
type Signature uint32

const (
	// SHA1 signs with SHA-1, for runtimes that predate SHA-2 support.
	SHA1 Signature = 0x0002
	// SHA256 is the default.
	SHA256 Signature = 0x0003
	SHA512 Signature = 0x0004
)

// signatureMagic terminates every signed archive.
const signatureMagic = "GBMB"

// ParseSignature parses sha1, sha256 or sha512. The empty string means sha256.
func ParseSignature(s string) (Signature, error) {
	switch strings.ToLower(s) {
	case "", "sha256":
		return SHA256, nil
	case "sha1":
		return SHA1, nil
	case "sha512":
		return SHA512, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected sha1, sha256 or sha512)", ErrInvalidSignature, s)
	}
}

// String returns the algorithm name.
func (s Signature) String() string {
	switch s {
	case SHA1:
		return "sha1"
	case SHA256:
		return "sha256"
	case SHA512:
		return "sha512"
	default:
		return fmt.Sprintf("Signature(%#x)", uint32(s))
	}
}

func (s Signature) newHash() (hash.Hash, bool) {
	switch s {
	case SHA1:
		return sha1.New(), true //nolint:gosec // see import
	case SHA256:
		return sha256.New(), true
	case SHA512:
		return sha512.New(), true
	default:
		return nil, false
	}
}

func (s Signature) size() int {
	h, ok := s.newHash()
	if !ok {
		return 0
	}
	return h.Size()
}
