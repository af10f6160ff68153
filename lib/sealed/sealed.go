// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts Scrivener's register snapshot at rest with
// age (X25519).
//
// The operator generates an identity once with `scrivener keygen`; the
// identity file is then named in store.identity_file. Every snapshot is
// encrypted to that identity's recipient and decrypted with it on
// startup. The secret key is read through lib/secret so the file
// contents never linger on the Go heap.
package sealed

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"filippo.io/age"

	"github.com/bureau-foundation/scrivener/lib/secret"
)

// header is the first line of every binary age file.
const header = "age-encryption.org/v1\n"

// Identity is an age X25519 identity and its public recipient.
type Identity struct {
	identity  *age.X25519Identity
	recipient string
}

// Generate creates a fresh identity.
func Generate() (*Identity, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("sealed: generating identity: %w", err)
	}
	return &Identity{identity: identity, recipient: identity.Recipient().String()}, nil
}

// LoadIdentity reads an identity file in age-keygen format: comment
// lines starting with '#' and one AGE-SECRET-KEY-1 line.
func LoadIdentity(path string) (*Identity, error) {
	buffer, err := secret.ReadFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("sealed: reading identity %s: %w", path, err)
	}
	defer buffer.Close()

	identity, err := parseIdentityFile(bytes.NewReader(buffer.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("sealed: %s: %w", path, err)
	}
	return identity, nil
}

func parseIdentityFile(reader io.Reader) (*Identity, error) {
	scanner := bufio.NewScanner(reader)
	var found *age.X25519Identity
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("more than one identity in file")
		}
		identity, err := age.ParseX25519Identity(line)
		if err != nil {
			return nil, fmt.Errorf("parsing identity: %w", err)
		}
		found = identity
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("no identity found")
	}
	return &Identity{identity: found, recipient: found.Recipient().String()}, nil
}

// Recipient returns the public age1... string.
func (i *Identity) Recipient() string {
	return i.recipient
}

// File renders the identity in age-keygen format, suitable for writing
// to an identity file with mode 0600.
func (i *Identity) File(now time.Time) []byte {
	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, "# created: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&buffer, "# public key: %s\n", i.recipient)
	fmt.Fprintf(&buffer, "%s\n", i.identity.String())
	return buffer.Bytes()
}

// Seal encrypts plaintext to this identity's recipient. The result is a
// binary age file.
func (i *Identity) Seal(plaintext []byte) ([]byte, error) {
	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, i.identity.Recipient())
	if err != nil {
		return nil, fmt.Errorf("sealed: creating encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("sealed: encrypting: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("sealed: finalizing: %w", err)
	}
	return ciphertext.Bytes(), nil
}

// Open decrypts ciphertext produced by Seal.
func (i *Identity) Open(ciphertext []byte) ([]byte, error) {
	reader, err := age.Decrypt(bytes.NewReader(ciphertext), i.identity)
	if err != nil {
		return nil, fmt.Errorf("sealed: decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("sealed: reading plaintext: %w", err)
	}
	return plaintext, nil
}

// IsSealed reports whether data starts with the age header.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, []byte(header))
}
