// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and a list
// of suggestions. Issue pages are longer Markdown explanations (for example the
// manual installation guide) rendered for the terminal with glamour.
package issue
