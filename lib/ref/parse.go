// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// splitSigilID splits "<sigil>local:server" into its parts. The first
// colon after the sigil separates localpart from server, so a server
// with a port ("example.org:8448") is kept intact.
func splitSigilID(identifier string, sigil byte, kind string) (local, server string, err error) {
	if len(identifier) < 2 || identifier[0] != sigil {
		return "", "", fmt.Errorf("invalid %s %q: must start with %c", kind, identifier, sigil)
	}
	colon := strings.IndexByte(identifier, ':')
	if colon < 0 {
		return "", "", fmt.Errorf("invalid %s %q: missing :server", kind, identifier)
	}
	if colon == 1 {
		return "", "", fmt.Errorf("invalid %s %q: empty localpart", kind, identifier)
	}
	local, server = identifier[1:colon], identifier[colon+1:]
	if err := validateServer(server); err != nil {
		return "", "", fmt.Errorf("invalid %s %q: %w", kind, identifier, err)
	}
	return local, server, nil
}

func validateServer(server string) error {
	if server == "" {
		return fmt.Errorf("empty server name")
	}
	for i := 0; i < len(server); i++ {
		c := server[i]
		if c <= ' ' || c == '@' || c == '#' || c == '!' || c == '$' {
			return fmt.Errorf("server name %q: invalid character at position %d", server, i)
		}
	}
	return nil
}

// unmarshalText is the shared UnmarshalText body: empty input yields
// the zero value, anything else must parse.
func unmarshalText[T any](data []byte, parse func(string) (T, error), target *T) error {
	if len(data) == 0 {
		var zero T
		*target = zero
		return nil
	}
	parsed, err := parse(string(data))
	if err != nil {
		return err
	}
	*target = parsed
	return nil
}
