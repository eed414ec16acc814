// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by tests: package archives laid
// out like the published ones, and must-style filesystem helpers that fail
// the test instead of returning errors.
package testutil
