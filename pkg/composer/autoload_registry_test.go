// SPDX-License-Identifier: MPL-2.0

package composer

import (
	"errors"
	"strings"
	"testing"

	"github.com/pharbuilder/pharbuilder/internal/testutil"
)

func TestParseAutoloadRegistry(t *testing.T) {
	t.Parallel()

	t.Run("files registry round-trips unchanged", func(t *testing.T) {
		t.Parallel()

		src := testutil.AutoloadFilesPHP(
			testutil.LockedPackage{Name: "symfony/polyfill-mbstring", Files: []string{"bootstrap.php"}},
			testutil.LockedPackage{Name: "acme/devtool", Files: []string{"bootstrap.php", "lib/helpers.php"}},
		)
		reg, err := ParseAutoloadRegistry("autoload_files.php", []byte(src), FilesRegistry)
		if err != nil {
			t.Fatalf("ParseAutoloadRegistry() failed: %v", err)
		}
		if len(reg.Entries) != 3 {
			t.Fatalf("Entries = %d, want 3", len(reg.Entries))
		}
		if got := string(reg.Bytes()); got != src {
			t.Errorf("Bytes() changed an untouched registry:\n%s", got)
		}
	})

	t.Run("CRLF line endings are preserved", func(t *testing.T) {
		t.Parallel()

		src := strings.ReplaceAll(testutil.AutoloadFilesPHP(
			testutil.LockedPackage{Name: "acme/lib", Files: []string{"f.php"}},
		), "\n", "\r\n")
		reg, err := ParseAutoloadRegistry("autoload_files.php", []byte(src), FilesRegistry)
		if err != nil {
			t.Fatalf("ParseAutoloadRegistry() failed: %v", err)
		}
		if got := string(reg.Bytes()); got != src {
			t.Errorf("Bytes() = %q, want %q", got, src)
		}
	})

	t.Run("unexpected line in table is a format error", func(t *testing.T) {
		t.Parallel()

		src := "<?php\nreturn array(\n    'abc' => $vendorDir . '/acme/a/f.php',\n    require 'x.php';\n);\n"
		_, err := ParseAutoloadRegistry("autoload_files.php", []byte(src), FilesRegistry)
		if !errors.Is(err, ErrAutoloadRewrite) {
			t.Fatalf("error = %v, want ErrAutoloadRewrite", err)
		}
		var formatErr *RegistryFormatError
		if !errors.As(err, &formatErr) || formatErr.Line != 4 {
			t.Errorf("error = %#v, want RegistryFormatError at line 4", err)
		}
	})

	t.Run("files registry without table is a format error", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAutoloadRegistry("autoload_files.php", []byte("<?php\nreturn [];\n"), FilesRegistry)
		if !errors.Is(err, ErrAutoloadRewrite) {
			t.Fatalf("error = %v, want ErrAutoloadRewrite", err)
		}
	})

	t.Run("unterminated table is a format error", func(t *testing.T) {
		t.Parallel()

		src := "<?php\nreturn array(\n    'abc' => $vendorDir . '/acme/a/f.php',\n"
		_, err := ParseAutoloadRegistry("autoload_files.php", []byte(src), FilesRegistry)
		if !errors.Is(err, ErrAutoloadRewrite) {
			t.Fatalf("error = %v, want ErrAutoloadRewrite", err)
		}
	})

	t.Run("static registry without files table is empty", func(t *testing.T) {
		t.Parallel()

		src := "<?php\nclass ComposerStaticInit\n{\n    public static $classMap = array (\n    );\n}\n"
		reg, err := ParseAutoloadRegistry("autoload_static.php", []byte(src), StaticRegistry)
		if err != nil {
			t.Fatalf("ParseAutoloadRegistry() failed: %v", err)
		}
		if len(reg.Entries) != 0 || string(reg.Bytes()) != src {
			t.Errorf("registry should be empty and unchanged")
		}
	})
}

func TestAutoloadRegistry_RemovePackages(t *testing.T) {
	t.Parallel()

	src := testutil.AutoloadStaticPHP(
		testutil.LockedPackage{Name: "acme/devtool", Files: []string{"bootstrap.php"}},
		testutil.LockedPackage{Name: "acme/devtool-extra", Files: []string{"x.php"}},
		testutil.LockedPackage{Name: "symfony/polyfill-php80", Files: []string{"bootstrap.php"}},
	)
	reg, err := ParseAutoloadRegistry("autoload_static.php", []byte(src), StaticRegistry)
	if err != nil {
		t.Fatalf("ParseAutoloadRegistry() failed: %v", err)
	}

	if removed := reg.RemovePackages([]string{"acme/devtool", "acme/absent"}); removed != 1 {
		t.Errorf("RemovePackages() = %d, want 1", removed)
	}

	out := string(reg.Bytes())
	if strings.Contains(out, "'/acme/devtool/") {
		t.Errorf("acme/devtool still registered:\n%s", out)
	}
	for _, kept := range []string{"/acme/devtool-extra/x.php", "/symfony/polyfill-php80/bootstrap.php", "$classMap", "InstalledVersions"} {
		if !strings.Contains(out, kept) {
			t.Errorf("rewritten registry lost %q:\n%s", kept, out)
		}
	}
}

func TestAutoloadRegistry_BlankLinesInTable(t *testing.T) {
	t.Parallel()

	src := "<?php\nreturn array(\n" +
		"    'a1' => $vendorDir . '/acme/lib/a.php',\n" +
		"\n" +
		"    'd1' => $vendorDir . '/acme/devtool/bootstrap.php',\n" +
		"    'b1' => $baseDir . '/src/helpers.php',\n" +
		"\n" +
		");\n"
	reg, err := ParseAutoloadRegistry("autoload_files.php", []byte(src), FilesRegistry)
	if err != nil {
		t.Fatalf("ParseAutoloadRegistry() failed: %v", err)
	}
	if len(reg.Entries) != 3 {
		t.Fatalf("Entries = %d, want 3", len(reg.Entries))
	}
	if got := string(reg.Bytes()); got != src {
		t.Errorf("Bytes() = %q, want %q", got, src)
	}

	if removed := reg.RemovePackages([]string{"acme/devtool"}); removed != 1 {
		t.Fatalf("RemovePackages() = %d, want 1", removed)
	}
	want := "<?php\nreturn array(\n" +
		"    'a1' => $vendorDir . '/acme/lib/a.php',\n" +
		"\n" +
		"    'b1' => $baseDir . '/src/helpers.php',\n" +
		"\n" +
		");\n"
	if got := string(reg.Bytes()); got != want {
		t.Errorf("Bytes() after removal = %q, want %q", got, want)
	}

	reg.RemovePackages([]string{"acme/lib"})
	if got := string(reg.Bytes()); strings.Count(got, "\n\n") != 2 {
		t.Errorf("blank lines lost when their entry was removed: %q", got)
	}
}

func TestRegistryEntry_Package(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry RegistryEntry
		pkg   string
		want  bool
	}{
		{name: "vendorDir base", entry: RegistryEntry{Base: "$vendorDir", Path: "/acme/a/f.php"}, pkg: "acme/a", want: true},
		{name: "static vendor base", entry: RegistryEntry{Base: "__DIR__ . '/..'", Path: "/acme/a/f.php"}, pkg: "acme/a", want: true},
		{name: "prefix of another package", entry: RegistryEntry{Base: "$vendorDir", Path: "/acme/ab/f.php"}, pkg: "acme/a", want: false},
		{name: "project file", entry: RegistryEntry{Base: "$baseDir", Path: "/acme/a/f.php"}, pkg: "acme/a", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.entry.Package(tt.pkg); got != tt.want {
				t.Errorf("Package(%q) = %v, want %v", tt.pkg, got, tt.want)
			}
		})
	}
}

func TestProject_RemoveAutoloadEntries(t *testing.T) {
	t.Parallel()

	dev := testutil.LockedPackage{Name: "acme/devtool", Files: []string{"bootstrap.php"}}
	prod := testutil.LockedPackage{Name: "acme/runtime", Files: []string{"functions.php"}}

	t.Run("rewrites both registries once", func(t *testing.T) {
		t.Parallel()

		p := testutil.NewProject(t, `{}`).Vendor(prod, dev)
		project := openProject(t, p)

		removed, err := project.RemoveAutoloadEntries([]string{"acme/devtool"})
		if err != nil {
			t.Fatalf("RemoveAutoloadEntries() failed: %v", err)
		}
		if removed != 2 {
			t.Errorf("removed = %d, want 2 (files + static)", removed)
		}
		for _, reg := range []string{"vendor/composer/autoload_files.php", "vendor/composer/autoload_static.php"} {
			content := p.Read(reg)
			if strings.Contains(content, "acme/devtool") {
				t.Errorf("%s still references acme/devtool", reg)
			}
			if !strings.Contains(content, "acme/runtime/functions.php") {
				t.Errorf("%s lost acme/runtime", reg)
			}
		}

		if _, err := project.RemoveAutoloadEntries([]string{"acme/devtool"}); !errors.Is(err, ErrAutoloadAlreadyRewritten) {
			t.Errorf("second call error = %v, want ErrAutoloadAlreadyRewritten", err)
		}
	})

	t.Run("absent package is benign", func(t *testing.T) {
		t.Parallel()

		p := testutil.NewProject(t, `{}`).Vendor(prod)
		before := p.Read("vendor/composer/autoload_files.php")
		removed, err := openProject(t, p).RemoveAutoloadEntries([]string{"acme/devtool"})
		if err != nil || removed != 0 {
			t.Fatalf("RemoveAutoloadEntries() = %d, %v; want 0, nil", removed, err)
		}
		if after := p.Read("vendor/composer/autoload_files.php"); after != before {
			t.Error("registry was rewritten although nothing matched")
		}
	})

	t.Run("missing registries are skipped", func(t *testing.T) {
		t.Parallel()

		project := openProject(t, testutil.NewProject(t, `{}`))
		if _, err := project.RemoveAutoloadEntries([]string{"acme/devtool"}); err != nil {
			t.Fatalf("RemoveAutoloadEntries() failed: %v", err)
		}
	})

	t.Run("corrupted registry fails", func(t *testing.T) {
		t.Parallel()

		p := testutil.NewProject(t, `{}`).
			File("vendor/composer/autoload_files.php", "<?php\nreturn array(\n    $files[] = 'x';\n);\n")
		_, err := openProject(t, p).RemoveAutoloadEntries([]string{"acme/devtool"})
		if !errors.Is(err, ErrAutoloadRewrite) {
			t.Fatalf("error = %v, want ErrAutoloadRewrite", err)
		}
	})

	t.Run("custom vendor dir", func(t *testing.T) {
		t.Parallel()

		p := testutil.NewProject(t, `{"config": {"vendor-dir": "deps"}}`).
			File("deps/composer/autoload_files.php", testutil.AutoloadFilesPHP(dev, prod))
		if _, err := openProject(t, p).RemoveAutoloadEntries([]string{"acme/devtool"}); err != nil {
			t.Fatalf("RemoveAutoloadEntries() failed: %v", err)
		}
		if strings.Contains(p.Read("deps/composer/autoload_files.php"), "acme/devtool") {
			t.Error("deps/composer/autoload_files.php still references acme/devtool")
		}
	})
}
