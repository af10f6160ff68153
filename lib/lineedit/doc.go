// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package lineedit applies register text to workspace files by line
// number and records each change.
//
// Lines are 1-indexed. The line count of a file is its number of
// newline characters, so a final line with no newline is not counted.
// Before and after every edit a non-empty file that does not end in a
// newline gains one; an empty file stays empty.
//
// Range arguments follow the conventions of sed addresses: a start
// below 1 is an error, an end before the start selects only the start
// line, and ranges that run past the end of the file are clipped.
//
// Each edit is one read, an in-memory rewrite, and one atomic
// replacement of the file (keeping its mode). A successful edit is then
// passed to the [Recorder], which in production commits the work tree.
// A recorder failure fails the operation but does not undo the edit.
package lineedit
