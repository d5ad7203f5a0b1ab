// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ManifestNotFoundId Id = iota + 1
	ManifestParseErrorId
	LockFileMissingId
	LockFileUnreadableId
	InvalidSettingsId
	EntryPointNotFoundId
	AutoloadRewriteFailedId
	ArchiveWriteFailedId
	BuildInProgressId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink  // external documentation for the failing input
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue and its links as terminal Markdown.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	composerSchemaLink HttpLink = "https://getcomposer.org/doc/04-schema.md"
	composerLockLink   HttpLink = "https://getcomposer.org/doc/01-basic-usage.md#commit-your-composer-lock-file-to-version-control"
	pharManualLink     HttpLink = "https://www.php.net/manual/en/book.phar.php"

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No composer.json found!

phar-builder packages Composer projects and reads everything it needs from
the project's ` + "`composer.json`" + `.

## Things you can try:
- Run phar-builder from the project root, or pass the root as argument:
~~~
$ phar-builder package path/to/project
~~~
- Create a manifest if the project has none yet:
~~~
$ composer init
~~~`,
		extLinks: []HttpLink{composerSchemaLink},
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Failed to parse composer.json!

The manifest is not valid JSON.

## Things you can try:
- Let Composer point at the problem:
~~~
$ composer validate
~~~
- Look for trailing commas and unquoted keys`,
		extLinks: []HttpLink{composerSchemaLink},
	}

	lockFileMissingIssue = &Issue{
		id: LockFileMissingId,
		mdMsg: `
# No composer.lock found!

The lock file tells phar-builder which installed packages are dev-only, so it
is required even when the project has no dev dependencies.

## Things you can try:
- Install the dependencies, which writes the lock file:
~~~
$ composer install
~~~`,
		extLinks: []HttpLink{composerLockLink},
	}

	lockFileUnreadableIssue = &Issue{
		id: LockFileUnreadableId,
		mdMsg: `
# Failed to read composer.lock!

The lock file exists but could not be read or is not valid JSON.

## Things you can try:
- Check the file permissions
- Regenerate the lock file:
~~~
$ composer update --lock
~~~`,
		extLinks: []HttpLink{composerLockLink},
	}

	invalidSettingsIssue = &Issue{
		id: InvalidSettingsId,
		mdMsg: `
# Invalid phar-builder settings!

Settings come from the ` + "`extra.phar-builder`" + ` section of composer.json,
then PHAR_BUILDER_* environment variables, then command-line flags.

## Example:
~~~json
{
    "extra": {
        "phar-builder": {
            "name": "app.phar",
            "output-dir": "build",
            "entry-point": "bin/app",
            "compression": "gzip",
            "include-dev": false
        }
    }
}
~~~

## Things you can try:
- Print the resolved settings:
~~~
$ phar-builder config
~~~`,
		extLinks: []HttpLink{composerSchemaLink},
	}

	entryPointNotFoundIssue = &Issue{
		id: EntryPointNotFoundId,
		mdMsg: `
# Entry point not found!

The configured entry point does not exist in the project.

## Things you can try:
- Set ` + "`entry-point`" + ` to a path relative to the project root
- Or declare the script under ` + "`bin`" + ` in composer.json`,
	}

	autoloadRewriteFailedIssue = &Issue{
		id: AutoloadRewriteFailedId,
		mdMsg: `
# Failed to rewrite the Composer autoloader!

Dev-only packages are removed from ` + "`vendor/composer/autoload_files.php`" + `
and ` + "`autoload_static.php`" + ` before the vendor directory is packaged.
These files did not have the layout Composer generates.

The rewrite happens in place and may have been partially applied.

## Things you can try:
- Regenerate the autoloader and build again:
~~~
$ composer dump-autoload
~~~`,
		extLinks: []HttpLink{composerSchemaLink},
	}

	archiveWriteFailedIssue = &Issue{
		id: ArchiveWriteFailedId,
		mdMsg: `
# Failed to write the archive!

No archive was produced. A file listed by the project could not be read, or
the output directory is not writable.

## Things you can try:
- Check that every path under ` + "`includes`" + ` exists
- Check free space and permissions of the output directory`,
		extLinks: []HttpLink{pharManualLink},
	}

	buildInProgressIssue = &Issue{
		id: BuildInProgressId,
		mdMsg: `
# Another build is running!

Another phar-builder process holds the lock for this output file.

## Things you can try:
- Wait for the other build to finish
- Build to a different ` + "`output-dir`",
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

phar-builder could not read a project file or write to the output directory.

## Things you can try:
- Check file and directory permissions
- Run phar-builder from a directory you own`,
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():      manifestNotFoundIssue,
		manifestParseErrorIssue.Id():    manifestParseErrorIssue,
		lockFileMissingIssue.Id():       lockFileMissingIssue,
		lockFileUnreadableIssue.Id():    lockFileUnreadableIssue,
		invalidSettingsIssue.Id():       invalidSettingsIssue,
		entryPointNotFoundIssue.Id():    entryPointNotFoundIssue,
		autoloadRewriteFailedIssue.Id(): autoloadRewriteFailedIssue,
		archiveWriteFailedIssue.Id():    archiveWriteFailedIssue,
		buildInProgressIssue.Id():       buildInProgressIssue,
		permissionDeniedIssue.Id():      permissionDeniedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, issue := range issues {
		values = append(values, issue)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
