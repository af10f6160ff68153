// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Default send limits, matching the bot-wide limits Telegram documents.
const (
	DefaultSendRate  = 5.0
	DefaultSendBurst = 10
)

// throttle limits outgoing messages with a token bucket.
type throttle struct {
	limiter *rate.Limiter
}

// newThrottle returns a throttle allowing perSecond sends with the given
// burst. Non-positive values select the defaults.
func newThrottle(perSecond float64, burst int) *throttle {
	if perSecond <= 0 {
		perSecond = DefaultSendRate
	}
	if burst < 1 {
		burst = DefaultSendBurst
	}
	return &throttle{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// wait blocks until a send is allowed or ctx is done.
func (t *throttle) wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("chat: waiting for send slot: %w", err)
	}
	return nil
}
