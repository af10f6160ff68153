// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package access

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeRegisters map[string]string

func (f fakeRegisters) Active(userID string) (string, bool) {
	label, ok := f[userID]
	return label, ok
}

func TestParseAllowList(t *testing.T) {
	input := `
# operators
123456789

  987654321  
# disabled: 555
`
	allowList, err := ParseAllowList(strings.NewReader(input), TelegramUserID)
	if err != nil {
		t.Fatalf("ParseAllowList: %v", err)
	}
	if allowList.Len() != 2 {
		t.Errorf("Len = %d, want 2", allowList.Len())
	}
	for _, user := range []string{"123456789", "987654321"} {
		if !allowList.Contains(user) {
			t.Errorf("%s should be allowed", user)
		}
	}
	if allowList.Contains("555") {
		t.Error("commented-out entry was allowed")
	}
}

func TestParseAllowListValidation(t *testing.T) {
	t.Run("telegram rejects non-integers", func(t *testing.T) {
		_, err := ParseAllowList(strings.NewReader("123\n@alice:example.org\nbob\n"), TelegramUserID)
		if err == nil {
			t.Fatal("expected error")
		}
		for _, fragment := range []string{"line 2", "line 3"} {
			if !strings.Contains(err.Error(), fragment) {
				t.Errorf("error %q does not mention %s", err, fragment)
			}
		}
	})

	t.Run("matrix accepts user IDs", func(t *testing.T) {
		allowList, err := ParseAllowList(strings.NewReader("@alice:example.org\n"), MatrixUserID)
		if err != nil {
			t.Fatalf("ParseAllowList: %v", err)
		}
		if !allowList.Contains("@alice:example.org") {
			t.Error("alice should be allowed")
		}
	})

	t.Run("matrix rejects bare numbers", func(t *testing.T) {
		if _, err := ParseAllowList(strings.NewReader("12345\n"), MatrixUserID); err == nil {
			t.Error("expected error")
		}
	})
}

func TestLoadAllowList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowed_users")
	if err := os.WriteFile(path, []byte("42\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	allowList, err := LoadAllowList(path, TelegramUserID)
	if err != nil {
		t.Fatalf("LoadAllowList: %v", err)
	}
	if !allowList.Contains("42") {
		t.Error("42 should be allowed")
	}

	if _, err := LoadAllowList(filepath.Join(t.TempDir(), "absent"), TelegramUserID); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
}

func TestGuard(t *testing.T) {
	guard := NewGuard(NewAllowList("42", "7"), fakeRegisters{"7": "draft"})

	if err := guard.Authorize("42"); err != nil {
		t.Errorf("Authorize(42) = %v", err)
	}
	if err := guard.Authorize("13"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authorize(13) = %v, want ErrUnauthorized", err)
	}

	if err := guard.RequireReleased("42"); err != nil {
		t.Errorf("RequireReleased(42) = %v", err)
	}

	err := guard.RequireReleased("7")
	var busy *BusyError
	if !errors.As(err, &busy) {
		t.Fatalf("RequireReleased(7) = %v, want *BusyError", err)
	}
	if busy.Label != "draft" {
		t.Errorf("busy label = %q, want draft", busy.Label)
	}
}
