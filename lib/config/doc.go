// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads Scrivener's YAML configuration.
//
// There is exactly one configuration file, named either by the
// SCRIVENER_CONFIG environment variable ([Load]) or by the --config
// flag ([LoadFile]). There is no search path and no per-field
// environment override: what the file says is what runs.
//
// The file may carry development and production sections whose values
// replace the base values when [Config].Environment matches. A
// production config without its own section gets JSON logs and zstd
// snapshots.
//
// After loading, path fields expand ${HOME}, ${SCRIVENER_ROOT} (the
// resolved paths.root) and ${VAR:-default}.
package config
