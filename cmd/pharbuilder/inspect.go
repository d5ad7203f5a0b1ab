// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/pharbuilder/pharbuilder/pkg/phar"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatYAML = "yaml"
)

type (
	// archiveInfo is the machine-readable description of an archive.
	archiveInfo struct {
		Path      string      `yaml:"path"`
		Alias     string      `yaml:"alias"`
		Signature string      `yaml:"signature"`
		Stub      string      `yaml:"stub,omitempty"`
		Entries   []entryInfo `yaml:"entries"`
	}

	entryInfo struct {
		Name           string `yaml:"name"`
		Size           uint32 `yaml:"size"`
		CompressedSize uint32 `yaml:"compressed-size"`
		Compression    string `yaml:"compression"`
		Mode           string `yaml:"mode"`
		CRC32          string `yaml:"crc32"`
	}
)

// newInspectCommand creates the `phar-builder inspect` command.
func newInspectCommand(app *App) *cobra.Command {
	var (
		format   string
		showStub bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <archive>",
		Short: "List the entries of a PHAR archive",
		Long: `List the entries of a PHAR archive.

The archive's signature and every entry's checksum are verified; a modified
or truncated archive is reported as an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatText && format != formatYAML {
				return failure(fmt.Errorf("unknown format %q (expected %s or %s)", format, formatText, formatYAML), "inspect archive")
			}

			archive, err := phar.Open(args[0])
			if err != nil {
				return failure(err, "read archive")
			}
			for _, e := range archive.Entries() {
				if _, err := archive.ReadFile(e.Name); err != nil {
					return failure(err, "read archive")
				}
			}

			info := describeArchive(args[0], archive, showStub)
			if format == formatYAML {
				if err := writeYAML(app.stdout, info); err != nil {
					return failure(err, "encode archive description")
				}
				return nil
			}
			writeArchiveText(app.stdout, info)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text or yaml")
	cmd.Flags().BoolVar(&showStub, "stub", false, "include the stub source")

	return cmd
}

func describeArchive(path string, archive *phar.Archive, withStub bool) archiveInfo {
	info := archiveInfo{
		Path:      path,
		Alias:     archive.Alias(),
		Signature: archive.Signature().String(),
		Entries:   []entryInfo{},
	}
	if withStub {
		info.Stub = archive.Stub()
	}
	for _, e := range archive.Entries() {
		info.Entries = append(info.Entries, entryInfo{
			Name:           e.Name,
			Size:           e.Size,
			CompressedSize: e.CompressedSize,
			Compression:    e.Compression.String(),
			Mode:           fmt.Sprintf("%04o", uint32(e.Mode.Perm())),
			CRC32:          fmt.Sprintf("%08x", e.CRC32),
		})
	}
	return info
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeArchiveText(w io.Writer, info archiveInfo) {
	fmt.Fprintln(w, TitleStyle.Render("Archive ")+PathStyle.Render(info.Path))
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Alias:    "), info.Alias)
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Signature:"), info.Signature)
	fmt.Fprintf(w, "  %s %d\n", labelStyle.Render("Entries:  "), len(info.Entries))
	fmt.Fprintln(w)

	width := len("NAME")
	for _, e := range info.Entries {
		width = max(width, len(e.Name))
	}
	fmt.Fprintln(w, SubtitleStyle.Render(fmt.Sprintf("%-*s  %5s  %10s  %10s  %s", width, "NAME", "MODE", "SIZE", "STORED", "COMPRESSION")))
	for _, e := range info.Entries {
		fmt.Fprintf(w, "%-*s  %5s  %10s  %10s  %s\n", width, e.Name, e.Mode,
			humanize.Bytes(uint64(e.Size)), humanize.Bytes(uint64(e.CompressedSize)), e.Compression)
	}

	if info.Stub != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, TitleStyle.Render("Stub"))
		fmt.Fprint(w, strings.TrimRight(info.Stub, "\r\n")+"\n")
	}
}
