// SPDX-License-Identifier: MPL-2.0

package phar

import "errors"

var (
	// ErrArchiveCreate is returned when the output cannot be prepared.
	ErrArchiveCreate = errors.New("failed to create archive")
	// ErrArchiveWrite is returned when an entry cannot be added or the
	// archive cannot be written.
	ErrArchiveWrite = errors.New("failed to write archive")
	// ErrFinalized is returned by every mutating call after Finalize.
	ErrFinalized = errors.New("archive already finalized")
	// ErrStubMissing is returned by Finalize when no stub was set.
	ErrStubMissing = errors.New("archive has no stub")
	// ErrStubAlreadySet is returned when SetStub is called twice.
	ErrStubAlreadySet = errors.New("archive stub already set")
	// ErrEntryNotFound is returned for names that are not in the archive.
	ErrEntryNotFound = errors.New("archive entry not found")
	// ErrSignatureMismatch is returned when an archive's signature does not
	// match its content.
	ErrSignatureMismatch = errors.New("archive signature mismatch")
	// ErrCorrupt is returned for archives that cannot be decoded.
	ErrCorrupt = errors.New("corrupt archive")
	// ErrInvalidCompression is returned for unknown compression names.
	ErrInvalidCompression = errors.New("invalid compression")
	// ErrInvalidSignature is returned for unknown signature algorithm names.
	ErrInvalidSignature = errors.New("invalid signature algorithm")
)
