package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestSplitDrivePath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"/", nil},
		{"cars", []string{"cars"}},
		{"/cars/img/", []string{"cars", "img"}},
		{"cars// img", []string{"cars", "img"}},
	}
	for _, tt := range tests {
		if got := splitDrivePath(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitDrivePath(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEscapeQuery(t *testing.T) {
	tests := []struct{ in, want string }{
		{"acme-volt-x.png", "acme-volt-x.png"},
		{"it's.jpg", `it\'s.jpg`},
		{`a\b`, `a\\b`},
	}
	for _, tt := range tests {
		if got := escapeQuery(tt.in); got != tt.want {
			t.Errorf("escapeQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/token.json"); got != filepath.Join(home, "token.json") {
		t.Errorf("expandHome() = %s, want under %s", got, home)
	}
	if got := expandHome("/abs/token.json"); got != "/abs/token.json" {
		t.Errorf("expandHome() changed absolute path: %s", got)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "token.json")
	want := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	if err := saveToken(file, want); err != nil {
		t.Fatalf("saveToken() error = %v", err)
	}
	info, err := os.Stat(file)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token permissions = %o, want 600", perm)
	}

	got, err := loadToken(file)
	if err != nil {
		t.Fatalf("loadToken() error = %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken || !got.Expiry.Equal(want.Expiry) {
		t.Errorf("loadToken() = %+v, want %+v", got, want)
	}
}

func TestLoadTokenMissing(t *testing.T) {
	if _, err := loadToken(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("loadToken() error = nil for missing file")
	}
}
