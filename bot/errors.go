// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"errors"
	"fmt"
)

// UsageError reports arguments of the wrong number or type.
type UsageError struct {
	// Usage is the command synopsis, e.g. "/in <register_label>".
	Usage string
}

func (e *UsageError) Error() string {
	return "Correct format: " + e.Usage
}

// IsUsageError reports whether err is or wraps a *UsageError.
func IsUsageError(err error) bool {
	var usageError *UsageError
	return errors.As(err, &usageError)
}

// panicError carries a value recovered from a panicking handler.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}
