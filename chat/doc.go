// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat connects scrivener's command dispatch to a chat network.
//
// A [Transport] receives messages, turns each into an [Update], passes it
// to a [Handler], and sends back the handler's [Reply], if any. Updates are
// handled one at a time on the transport's goroutine; the next update is
// not read until the previous reply has been sent.
//
// Two transports exist. [Telegram] long-polls the Bot API through
// go-telegram-bot-api and sends replies with notifications disabled.
// [Matrix] runs a /sync loop on a [messaging.DirectSession], accepts
// invites from allowed users, and replies with m.notice events.
//
// Replies carry a [Format]. Each transport renders it as well as the
// network allows: code blocks become preformatted HTML tagged with the
// language chroma detects for the file, and Markdown (the help text)
// becomes goldmark-rendered HTML on Matrix and stays plain on Telegram.
// Outgoing messages are rate limited per transport.
package chat
