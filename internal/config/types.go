// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// CompressionNone stores every entry uncompressed.
	CompressionNone CompressionMode = "none"
	// CompressionGzip compresses allow-listed entries with DEFLATE.
	CompressionGzip CompressionMode = "gzip"
	// CompressionBzip2 compresses allow-listed entries with bzip2.
	CompressionBzip2 CompressionMode = "bzip2"

	// SignatureSHA1 signs with SHA-1.
	SignatureSHA1 SignatureAlgorithm = "sha1"
	// SignatureSHA256 signs with SHA-256 (default).
	SignatureSHA256 SignatureAlgorithm = "sha256"
	// SignatureSHA512 signs with SHA-512.
	SignatureSHA512 SignatureAlgorithm = "sha512"
)

var (
	// ErrInvalidSettings is the sentinel wrapped by every settings error.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrInvalidCompressionMode is returned when a CompressionMode value is not recognized.
	ErrInvalidCompressionMode = errors.New("invalid compression mode")
	// ErrInvalidSignatureAlgorithm is returned when a SignatureAlgorithm value is not recognized.
	ErrInvalidSignatureAlgorithm = errors.New("invalid signature algorithm")
	// ErrMissingEntryPoint is returned when no entry point is configured or derivable.
	ErrMissingEntryPoint = errors.New("no entry point configured")
	// ErrInvalidArchiveName is returned for names that are empty or contain a path separator.
	ErrInvalidArchiveName = errors.New("invalid archive name")
)

type (
	// CompressionMode selects how allow-listed entries are compressed.
	CompressionMode string

	// InvalidCompressionModeError is returned when a CompressionMode value is not recognized.
	// It wraps ErrInvalidCompressionMode for errors.Is() compatibility.
	InvalidCompressionModeError struct {
		Value CompressionMode
	}

	// SignatureAlgorithm selects the hash of the archive signature.
	SignatureAlgorithm string

	// InvalidSignatureAlgorithmError is returned when a SignatureAlgorithm value is not recognized.
	// It wraps ErrInvalidSignatureAlgorithm for errors.Is() compatibility.
	InvalidSignatureAlgorithmError struct {
		Value SignatureAlgorithm
	}

	// InvalidSettingsError collects every field error of a Settings value.
	// It wraps ErrInvalidSettings for errors.Is() compatibility.
	InvalidSettingsError struct {
		FieldErrors []error
	}
)

// IsValid returns whether the CompressionMode is one of the defined modes.
func (m CompressionMode) IsValid() (bool, []error) {
	switch m {
	case CompressionNone, CompressionGzip, CompressionBzip2:
		return true, nil
	default:
		return false, []error{&InvalidCompressionModeError{Value: m}}
	}
}

// String returns the string representation of the CompressionMode.
func (m CompressionMode) String() string { return string(m) }

// Error implements the error interface for InvalidCompressionModeError.
func (e *InvalidCompressionModeError) Error() string {
	return fmt.Sprintf("invalid compression mode %q (valid: none, gzip, bzip2)", e.Value)
}

// Unwrap returns ErrInvalidCompressionMode for errors.Is() compatibility.
func (e *InvalidCompressionModeError) Unwrap() error { return ErrInvalidCompressionMode }

// IsValid returns whether the SignatureAlgorithm is one of the defined algorithms.
func (a SignatureAlgorithm) IsValid() (bool, []error) {
	switch a {
	case SignatureSHA1, SignatureSHA256, SignatureSHA512:
		return true, nil
	default:
		return false, []error{&InvalidSignatureAlgorithmError{Value: a}}
	}
}

// String returns the string representation of the SignatureAlgorithm.
func (a SignatureAlgorithm) String() string { return string(a) }

// Error implements the error interface for InvalidSignatureAlgorithmError.
func (e *InvalidSignatureAlgorithmError) Error() string {
	return fmt.Sprintf("invalid signature algorithm %q (valid: sha1, sha256, sha512)", e.Value)
}

// Unwrap returns ErrInvalidSignatureAlgorithm for errors.Is() compatibility.
func (e *InvalidSignatureAlgorithmError) Unwrap() error { return ErrInvalidSignatureAlgorithm }

// Error implements the error interface for InvalidSettingsError.
func (e *InvalidSettingsError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid settings: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidSettings and the field errors, so errors.Is()
// matches both the sentinel and each field's own sentinel.
func (e *InvalidSettingsError) Unwrap() []error {
	return append([]error{ErrInvalidSettings}, e.FieldErrors...)
}
