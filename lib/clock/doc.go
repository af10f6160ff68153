// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the time source for Scrivener's retry loops.
//
// The Matrix sync loop and the Telegram poll loop both back off after
// transport failures. They take a Clock rather than calling time.After
// directly so tests can drive the backoff deterministically:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go loop.Run(ctx)
//	fake.WaitForTimers(1)      // the loop is now sleeping
//	fake.Advance(time.Second)  // wake it
//
// Only the operations the loops need are provided: Now, After, and
// Sleep.
package clock
