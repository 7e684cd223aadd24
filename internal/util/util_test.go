// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := []byte("[endpoint]\nurl = \"http://localhost:5000/ask\"\n")

	if err := AtomicWriteFile(path, data, 0600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(content) != string(data) {
		t.Errorf("content = %q, want %q", content, data)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("perm = %v, want 0600", info.Mode().Perm())
		}
	}
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "config.toml")

	if err := AtomicWriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not created: %v", err)
	}
}

func TestAtomicWriteFile_OverwritesWithoutTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := AtomicWriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWriteFile(path, []byte("new"), 0600); err != nil {
		t.Fatal(err)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "new" {
		t.Errorf("content = %q, want 'new'", content)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (temp file leaked)", len(entries))
	}
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"hello world", 8, "hello..."},
		{"日本語", 6, "日本語"},
		{"日本語テキスト", 7, "日本..."},
		{"abc", 0, ""},
	}

	for _, tc := range tests {
		got := TruncateWidth(tc.in, tc.max)
		if got != tc.want {
			t.Errorf("TruncateWidth(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
		if w := runewidth.StringWidth(got); w > tc.max {
			t.Errorf("TruncateWidth(%q, %d) width = %d", tc.in, tc.max, w)
		}
	}
}

func TestNormalizedLen(t *testing.T) {
	decomposed := "cafe\u0301"
	if got := len([]rune(decomposed)); got != 5 {
		t.Fatalf("rune count = %d, want 5", got)
	}
	if got := NormalizedLen(decomposed); got != 4 {
		t.Errorf("NormalizedLen = %d, want 4", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := FirstLine("one\ntwo"); got != "one" {
		t.Errorf("FirstLine = %q, want 'one'", got)
	}
	if got := FirstLine("single"); got != "single" {
		t.Errorf("FirstLine = %q, want 'single'", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandHome("~/.nutriwise/config.toml"); got != filepath.Join(home, ".nutriwise/config.toml") {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := ExpandHome("/etc/nutriwise.toml"); got != "/etc/nutriwise.toml" {
		t.Errorf("ExpandHome changed absolute path: %q", got)
	}
}
