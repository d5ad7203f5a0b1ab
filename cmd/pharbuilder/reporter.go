// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/pharbuilder/pharbuilder/internal/build"

	"github.com/dustin/go-humanize"
)

// progressReporter prints one line per archive entry and a summary.
type progressReporter struct {
	w     io.Writer
	quiet bool
}

func newProgressReporter(w io.Writer, quiet bool) *progressReporter {
	return &progressReporter{w: w, quiet: quiet}
}

// EntryAdded prints the entry name.
func (r *progressReporter) EntryAdded(name string) {
	if r.quiet {
		return
	}
	fmt.Fprintln(r.w, VerboseStyle.Render("  + ")+name)
}

// Finished prints the archive summary.
func (r *progressReporter) Finished(res *build.Result) {
	if !r.quiet {
		fmt.Fprintln(r.w)
	}
	fmt.Fprintln(r.w, SuccessStyle.Render("✓ ")+TitleStyle.Render("Archive written: ")+PathStyle.Render(res.Path))

	entries := humanize.Comma(int64(res.Entries)) + " entries"
	if res.Compressed > 0 {
		entries += fmt.Sprintf(", %s compressed", humanize.Comma(int64(res.Compressed)))
	}
	if res.Placeholders > 0 {
		entries += fmt.Sprintf(", %s placeholders", humanize.Comma(int64(res.Placeholders)))
	}

	rows := [][2]string{
		{"Size", humanize.Bytes(uint64(res.Size))},
		{"Entries", entries},
		{"Duration", res.Duration.Round(time.Millisecond).String()},
		{"Digest", res.Digest.String()},
	}
	if res.AutoloadEntriesRemoved > 0 {
		rows = append(rows, [2]string{"Autoload", fmt.Sprintf("%d always-load entries of dev-only packages removed", res.AutoloadEntriesRemoved)})
	}
	for _, row := range rows {
		fmt.Fprintf(r.w, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-9s", row[0]+":")), row[1])
	}
}
