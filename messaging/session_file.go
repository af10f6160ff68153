// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/scrivener/lib/atomicfile"
	"github.com/bureau-foundation/scrivener/lib/ref"
	"github.com/bureau-foundation/scrivener/lib/secret"
)

// SessionFile is the on-disk form of a logged-in session. It contains an
// access token, so it is always written with mode 0600.
type SessionFile struct {
	Homeserver  string     `json:"homeserver"`
	UserID      ref.UserID `json:"user_id"`
	DeviceID    string     `json:"device_id,omitempty"`
	AccessToken string     `json:"access_token"`
}

// SaveSession writes session to path atomically, creating the parent
// directory with mode 0700 if needed.
func SaveSession(path string, session *DirectSession) error {
	file := SessionFile{
		Homeserver:  session.HomeserverURL(),
		UserID:      session.UserID(),
		DeviceID:    session.DeviceID(),
		AccessToken: session.AccessToken(),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("messaging: marshaling session: %w", err)
	}
	data = append(data, '\n')
	defer secret.Zero(data)

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("messaging: creating session directory %s: %w", directory, err)
	}
	if err := atomicfile.Write(path, data, 0o600); err != nil {
		return fmt.Errorf("messaging: writing session file: %w", err)
	}
	return nil
}

// ReadSessionFile reads and validates the session file at path. A
// missing file yields an error that names the login command and wraps
// os.ErrNotExist.
func ReadSessionFile(path string) (*SessionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("messaging: no session at %s (run \"scrivener login\" first): %w", path, err)
		}
		return nil, fmt.Errorf("messaging: reading session file %s: %w", path, err)
	}
	defer secret.Zero(data)

	var file SessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("messaging: parsing session file %s: %w", path, err)
	}

	var missing []string
	if file.Homeserver == "" {
		missing = append(missing, "homeserver")
	}
	if file.UserID.IsZero() {
		missing = append(missing, "user_id")
	}
	if file.AccessToken == "" {
		missing = append(missing, "access_token")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("messaging: session file %s has no %s", path, strings.Join(missing, ", "))
	}
	return &file, nil
}

// LoadSession restores a DirectSession from the session file at path.
// config.HomeserverURL, when set, must match the homeserver recorded at
// login; when empty the recorded one is used. The caller must Close the
// returned session.
func LoadSession(path string, config ClientConfig) (*DirectSession, error) {
	file, err := ReadSessionFile(path)
	if err != nil {
		return nil, err
	}

	if config.HomeserverURL == "" {
		config.HomeserverURL = file.Homeserver
	} else if strings.TrimRight(config.HomeserverURL, "/") != strings.TrimRight(file.Homeserver, "/") {
		return nil, fmt.Errorf("messaging: session file %s belongs to %s, not %s", path, file.Homeserver, config.HomeserverURL)
	}

	client, err := NewClient(config)
	if err != nil {
		return nil, err
	}
	return client.SessionFromToken(file.UserID, file.DeviceID, file.AccessToken)
}
