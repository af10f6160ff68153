// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is the subset of the Matrix client-server API that
// scrivener's Matrix transport needs.
//
// [Client] is unauthenticated: it holds the homeserver URL and HTTP
// transport and performs password login. [DirectSession] adds an access
// token (held in [secret.Buffer] memory) and covers whoami, long-poll
// sync, joining rooms, and sending events with idempotent transaction IDs.
//
// A session survives restarts through a [SessionFile]: a small JSON
// document written atomically with mode 0600. The login subcommand
// writes it; the serve command reads it back with [LoadSession].
//
// All API errors are returned as [*MatrixError] carrying the Matrix error
// code and HTTP status; [IsMatrixError] tests for a specific code.
package messaging
