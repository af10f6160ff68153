// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"errors"
	"fmt"
)

// ErrNothingToRelease is returned by Close when the user has no active
// register.
var ErrNothingToRelease = errors.New("no register to release")

// EmptyError reports a label that holds no text.
type EmptyError struct {
	Label string
}

func (e *EmptyError) Error() string {
	return fmt.Sprintf("register %s is empty", e.Label)
}

// IsEmpty reports whether err is or wraps an *EmptyError.
func IsEmpty(err error) bool {
	var emptyError *EmptyError
	return errors.As(err, &emptyError)
}
