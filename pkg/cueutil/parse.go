// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Schema is a compiled CUE definition that documents are checked against.
// A Schema is safe for concurrent use.
type Schema struct {
	mu         sync.Mutex
	ctx        *cue.Context
	definition cue.Value
	name       string
}

// Compile compiles src and resolves the definition at path, e.g. "#Settings".
// Failures here are programming errors in an embedded schema.
func Compile(src []byte, path string) (*Schema, error) {
	ctx := cuecontext.New()

	root := ctx.CompileBytes(src)
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("internal error: failed to compile schema: %w", err)
	}
	def := root.LookupPath(cue.ParsePath(path))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("internal error: schema definition %s not found: %w", path, err)
	}
	return &Schema{ctx: ctx, definition: def, name: path}, nil
}

// Name returns the definition path the schema was compiled with.
func (s *Schema) Name() string { return s.name }

// Validate unifies data (JSON or CUE) with the definition and checks the result.
// Errors carry the document name and the path of the offending field.
func (s *Schema) Validate(data []byte, opts ...Option) error {
	_, err := s.unify(data, opts)
	return err
}

// Decode validates data like Validate and decodes the unified value into T,
// so schema defaults are applied.
func Decode[T any](s *Schema, data []byte, opts ...Option) (*T, error) {
	unified, err := s.unify(data, opts)
	if err != nil {
		return nil, err
	}

	var out T
	s.mu.Lock()
	err = unified.Decode(&out)
	s.mu.Unlock()
	if err != nil {
		return nil, FormatError(err, documentName(opts))
	}
	return &out, nil
}

func (s *Schema) unify(data []byte, opts []Option) (cue.Value, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	filename := documentName(opts)

	if err := CheckFileSize(data, options.maxFileSize, filename); err != nil {
		return cue.Value{}, err
	}

	// cue.Context is not safe for concurrent use.
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.ctx.CompileBytes(data, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return cue.Value{}, FormatError(err, filename)
	}
	unified := s.definition.Unify(doc)
	if err := unified.Validate(cue.Concrete(options.concrete)); err != nil {
		return cue.Value{}, FormatError(err, filename)
	}
	return unified, nil
}

func documentName(opts []Option) string {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.filename == "" {
		return "<input>"
	}
	return options.filename
}
