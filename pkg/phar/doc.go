// SPDX-License-Identifier: MPL-2.0

// Package phar writes and reads self-executing PHP archives.
//
// A Writer buffers a stub and the archive entries in memory and encodes the
// whole archive once, on Finalize. Entries are compressed one at a time with
// CompressEntry, and only when their extension is in a fixed allow-list of
// text-like formats. Output is reproducible: entry timestamps are fixed,
// permissions are normalized and entries keep their insertion order.
//
// The on-disk layout is the PHAR manifest format, API version 1.1.1,
// followed by a signature block.
package phar
