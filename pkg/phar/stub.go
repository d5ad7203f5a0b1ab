// SPDX-License-Identifier: MPL-2.0

package phar

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	haltCompiler = "__HALT_COMPILER();"
	// stubEnd follows the halt marker; the manifest starts right after it.
	stubEnd = " ?>\r\n"

	// DefaultRuntime is the interpreter named in the shebang line.
	DefaultRuntime = "php"
)

// StubOptions describe the bootstrap program placed in front of the archive.
type StubOptions struct {
	// Alias is the name the archive maps itself under.
	Alias string
	// EntryPoint is the archive entry control is handed to.
	EntryPoint string
	// Shebang prefixes the stub with "#!/usr/bin/env <Runtime>".
	Shebang bool
	// Runtime defaults to DefaultRuntime.
	Runtime string
}

// NewStub renders a stub that maps the archive and requires the entry point.
func NewStub(opts StubOptions) string {
	var sb strings.Builder
	if opts.Shebang {
		runtime := opts.Runtime
		if runtime == "" {
			runtime = DefaultRuntime
		}
		fmt.Fprintf(&sb, "#!/usr/bin/env %s\n", runtime)
	}
	sb.WriteString("<?php\n")
	fmt.Fprintf(&sb, "Phar::mapPhar('%s');\n", phpQuote(opts.Alias))
	fmt.Fprintf(&sb, "require 'phar://%s/%s';\n", phpQuote(opts.Alias), phpQuote(strings.TrimPrefix(opts.EntryPoint, "/")))
	sb.WriteString(haltCompiler + stubEnd)
	return sb.String()
}

// normalizeStub cuts anything after the halt marker and terminates the stub
// the way the reader expects. A source without a marker gets one appended.
func normalizeStub(src []byte) []byte {
	if i := bytes.Index(src, []byte(haltCompiler)); i >= 0 {
		src = src[:i]
	} else if len(src) > 0 && src[len(src)-1] != '\n' {
		src = append(append([]byte{}, src...), '\n')
	}
	out := make([]byte, 0, len(src)+len(haltCompiler)+len(stubEnd))
	out = append(out, src...)
	out = append(out, haltCompiler...)
	return append(out, stubEnd...)
}

// phpQuote escapes s for a single-quoted PHP string literal.
func phpQuote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
