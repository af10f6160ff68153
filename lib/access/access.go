// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package access decides whether a chat user may run a command.
//
// Two checks exist. Authorize consults the static allow-list loaded at
// startup; a rejected user gets no reply at all, so the bot does not
// reveal itself to strangers. RequireReleased refuses commands while
// the user has a register open, so that stray messages cannot be
// appended into a register the user forgot to close.
package access

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bureau-foundation/scrivener/lib/ref"
)

// ErrUnauthorized is returned for users not on the allow-list. Callers
// must not reply to the user.
var ErrUnauthorized = errors.New("access: user is not authorized")

// BusyError is returned when a command needs the user's registers
// released and one is still open.
type BusyError struct {
	Label string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("register %s is still open", e.Label)
}

// Validator checks one allow-list entry for the active transport.
type Validator func(userID string) error

// TelegramUserID accepts Telegram numeric user IDs.
func TelegramUserID(userID string) error {
	if _, err := strconv.ParseInt(userID, 10, 64); err != nil {
		return fmt.Errorf("telegram user ID %q is not an integer", userID)
	}
	return nil
}

// MatrixUserID accepts full Matrix user IDs.
func MatrixUserID(userID string) error {
	_, err := ref.ParseUserID(userID)
	return err
}

// AllowList is an immutable set of user IDs.
type AllowList struct {
	users map[string]struct{}
}

// NewAllowList builds an allow-list from IDs without validation.
func NewAllowList(userIDs ...string) *AllowList {
	users := make(map[string]struct{}, len(userIDs))
	for _, userID := range userIDs {
		users[userID] = struct{}{}
	}
	return &AllowList{users: users}
}

// LoadAllowList reads path: one user ID per line, blank lines and
// lines starting with '#' ignored. Every entry must pass validate.
func LoadAllowList(path string, validate Validator) (*AllowList, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("access: %w", err)
	}
	defer file.Close()

	allowList, err := ParseAllowList(file, validate)
	if err != nil {
		return nil, fmt.Errorf("access: %s: %w", path, err)
	}
	return allowList, nil
}

// ParseAllowList is LoadAllowList over a reader.
func ParseAllowList(reader io.Reader, validate Validator) (*AllowList, error) {
	var userIDs []string
	var errs []error

	scanner := bufio.NewScanner(reader)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		entry := strings.TrimSpace(scanner.Text())
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		if err := validate(entry); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", lineNumber, err))
			continue
		}
		userIDs = append(userIDs, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return NewAllowList(userIDs...), nil
}

// Contains reports whether userID is allowed.
func (a *AllowList) Contains(userID string) bool {
	_, ok := a.users[userID]
	return ok
}

// Len returns the number of allowed users.
func (a *AllowList) Len() int {
	return len(a.users)
}

// ActiveRegisters reports a user's open register. *register.Store
// satisfies it.
type ActiveRegisters interface {
	Active(userID string) (string, bool)
}

// Guard applies the allow-list and the release gate.
type Guard struct {
	allowList *AllowList
	registers ActiveRegisters
}

// NewGuard returns a Guard over allowList and registers.
func NewGuard(allowList *AllowList, registers ActiveRegisters) *Guard {
	return &Guard{allowList: allowList, registers: registers}
}

// Authorize returns ErrUnauthorized unless userID is allow-listed.
func (g *Guard) Authorize(userID string) error {
	if !g.allowList.Contains(userID) {
		return ErrUnauthorized
	}
	return nil
}

// RequireReleased returns a *BusyError naming the user's open
// register, if there is one.
func (g *Guard) RequireReleased(userID string) error {
	if label, open := g.registers.Active(userID); open {
		return &BusyError{Label: label}
	}
	return nil
}
