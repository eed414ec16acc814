// SPDX-License-Identifier: MPL-2.0

// Package platform provides cross-platform file naming helpers.
package platform
