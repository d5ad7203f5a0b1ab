// SPDX-License-Identifier: MPL-2.0

package build

import (
	"time"

	"github.com/opencontainers/go-digest"
)

type (
	// Result describes a finished archive.
	Result struct {
		// Path is the absolute archive path.
		Path string
		// Size is the archive size in bytes.
		Size int64
		// Entries is the number of archive entries, placeholders included.
		Entries int
		// Compressed is the number of entries stored compressed.
		Compressed int
		// Placeholders is the number of empty stand-in entries.
		Placeholders int
		// AutoloadEntriesRemoved counts registry entries dropped for excluded packages.
		AutoloadEntriesRemoved int
		// Duration is the wall time of the build.
		Duration time.Duration
		// Digest is the sha256 digest of the archive file.
		Digest digest.Digest
	}

	// Reporter receives build progress.
	Reporter interface {
		// EntryAdded is called once per stored entry, in archive order.
		EntryAdded(name string)
		// Finished is called once after the archive is written.
		Finished(result *Result)
	}

	// Clock abstracts time for duration reporting.
	Clock interface {
		Now() time.Time
		Since(t time.Time) time.Duration
	}

	realClock struct{}

	nopReporter struct{}
)

func (realClock) Now() time.Time                  { return time.Now() }
func (realClock) Since(t time.Time) time.Duration { return time.Since(t) }

func (nopReporter) EntryAdded(string) {}
func (nopReporter) Finished(*Result)  {}
