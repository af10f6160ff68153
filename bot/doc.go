// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bot dispatches chat commands to scrivener's register store and
// line editor.
//
// [Bot.Handle] is a [chat.Handler]. Each update is looked up in a fixed
// command table; each entry states whether the sender must be on the
// allow-list, whether an open register blocks the command, and how many
// arguments it takes. Plain text, and any slash command the table does
// not know, is appended to the sender's open register.
//
// Handlers return errors rather than replies for every failure, and a
// single mapping turns them into chat text: unauthorized senders get no
// reply, an open register gets "Release register X.", a missing register
// gets "Register X is empty.", malformed arguments get the usage line,
// and file or command failures get "-1". Anything else, including a
// recovered panic, is echoed as its error text.
//
// Successful edits reply with nothing; the git commit is their record.
package bot
