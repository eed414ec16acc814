// SPDX-License-Identifier: MPL-2.0

// Package modupdate checks the installed Divine UI version against the
// published one and, when they differ, replaces the installation with a fresh
// package fetched from a bounded list of mirrors.
package modupdate
