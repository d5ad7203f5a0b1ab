// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries what was being attempted, the file involved and
// suggestions for fixing it. Build failures can additionally point at an
// Issue: a Markdown explanation rendered with glamour when the user asks for
// verbose output.
package issue
