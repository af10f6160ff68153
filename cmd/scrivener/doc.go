// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// scrivener is a chat bot that collects text into named registers and
// writes them into files in a git-tracked workspace.
//
// Subcommands:
//
//	scrivener serve    run the bot (the default with no subcommand)
//	scrivener login    log the Matrix bot account in and save its session
//	scrivener check    validate the configuration and report stored state
//	scrivener keygen   create an age identity for sealed snapshots
//
// Configuration comes from the YAML file named by --config or
// SCRIVENER_CONFIG. When a user sends /restart, serve exits with status
// 75 so that the supervisor starts a fresh process; the shipped systemd
// unit sets RestartForceExitStatus=75.
package main
