// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/pharbuilder/pharbuilder/internal/build"
	"github.com/pharbuilder/pharbuilder/internal/config"
	"github.com/pharbuilder/pharbuilder/internal/issue"
	"github.com/pharbuilder/pharbuilder/pkg/composer"
	"github.com/pharbuilder/pharbuilder/pkg/phar"

	"github.com/charmbracelet/fang"
)

// issueStyle is the glamour style used for catalog entries.
const issueStyle = "dark"

// failure converts err into the exit error returned by RunE handlers.
// operation describes what the command was doing when no more specific
// classification applies.
func failure(err error, operation string) error {
	return &ExitError{Code: 1, Err: classifyError(err, operation)}
}

// classifyError maps domain errors to actionable errors with suggestions and
// a catalog entry. An error that already is actionable is returned as is.
func classifyError(err error, operation string) *issue.ActionableError {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae
	}

	ctx := issue.NewErrorContext().Wrap(err)
	switch {
	case errors.Is(err, build.ErrBuildInProgress):
		ctx.WithOperation("lock archive output").
			WithIssue(issue.BuildInProgressId).
			WithSuggestion("Wait for the other build of this archive to finish")
	case errors.Is(err, composer.ErrUnreadableManifest):
		id := issue.ManifestParseErrorId
		if errors.Is(err, fs.ErrNotExist) {
			id = issue.ManifestNotFoundId
		}
		ctx.WithOperation("read manifest").
			WithResource(composer.ManifestFileName).
			WithIssue(id).
			WithSuggestion("Run phar-builder from the project root or pass the project directory").
			WithSuggestion("Check the file with 'composer validate'")
	case errors.Is(err, composer.ErrMissingLockFile):
		ctx.WithOperation("read lock file").
			WithResource(composer.LockFileName).
			WithIssue(issue.LockFileMissingId).
			WithSuggestion("Run 'composer install' to resolve the dependencies first")
	case errors.Is(err, composer.ErrUnreadableLockFile):
		ctx.WithOperation("read lock file").
			WithResource(composer.LockFileName).
			WithIssue(issue.LockFileUnreadableId).
			WithSuggestion("Regenerate the lock file with 'composer update --lock'")
	case errors.Is(err, config.ErrMissingEntryPoint):
		ctx.WithOperation("resolve entry point").
			WithIssue(issue.EntryPointNotFoundId).
			WithSuggestion("Set extra.phar-builder.entry-point in composer.json or pass --entry-point").
			WithSuggestion(`Declare the script under "bin" in composer.json`)
	case errors.Is(err, config.ErrInvalidSettings):
		ctx.WithOperation("load settings").
			WithResource(composer.ManifestFileName).
			WithIssue(issue.InvalidSettingsId).
			WithSuggestion("Run 'phar-builder config' to see the resolved settings")
	case errors.Is(err, composer.ErrAutoloadRewrite), errors.Is(err, composer.ErrAutoloadAlreadyRewritten):
		ctx.WithOperation("rewrite autoload registry").
			WithIssue(issue.AutoloadRewriteFailedId).
			WithSuggestion("Regenerate the registries with 'composer dump-autoload' and retry")
	case errors.Is(err, fs.ErrPermission):
		ctx.WithOperation(operation).
			WithIssue(issue.PermissionDeniedId).
			WithSuggestion("Check the permissions of the output directory and the project files")
	case errors.Is(err, phar.ErrArchiveCreate), errors.Is(err, phar.ErrArchiveWrite),
		errors.Is(err, phar.ErrFinalized), errors.Is(err, phar.ErrStubMissing):
		ctx.WithOperation("write archive").
			WithIssue(issue.ArchiveWriteFailedId).
			WithSuggestion("Check that the entry point and every include exist").
			WithSuggestion("Check that the output directory is writable")
	case errors.Is(err, phar.ErrCorrupt), errors.Is(err, phar.ErrSignatureMismatch):
		ctx.WithOperation("read archive").
			WithSuggestion("Rebuild the archive; it was truncated or modified after it was written")
	case errors.Is(err, context.Canceled):
		ctx.WithOperation(operation).
			WithSuggestion("The build was interrupted; run it again to produce an archive")
	default:
		ctx.WithOperation(operation)
	}
	return ctx.Build()
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// handleError renders a command failure: the actionable message, then the
// catalog entry linked to it.
func (a *App) handleError(w io.Writer, _ fang.Styles, err error) {
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.verbose))

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return
	}
	entry := ae.Entry()
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(issueStyle)
	if renderErr != nil {
		a.logger().Warn("failed to render issue catalog entry", "issue", ae.Issue, "error", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}
