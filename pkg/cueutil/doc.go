// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates JSON documents against embedded CUE schemas.
//
// Composer manifests are JSON, and JSON is valid CUE, so a manifest section
// can be compiled directly and unified with a schema definition:
//
//  1. Compile the embedded schema once with Compile
//  2. Compile each document and unify it with the schema definition
//  3. Validate, and optionally decode to a Go value with Decode
//
// # Usage
//
//	//go:embed settings_schema.cue
//	var schemaSrc []byte
//
//	schema, err := cueutil.Compile(schemaSrc, "#Settings")
//	if err != nil {
//	    return err
//	}
//	err = schema.Validate(sectionJSON, cueutil.WithFilename("composer.json#extra.phar-builder"))
//	// err carries the offending field path
package cueutil
