package coverage

import (
	"os"
	"path/filepath"
	"testing"
)

const sample = `
version = 1

[[ticket]]
id = "AUTH-12"
title = "Password login"
requirements = ["auth.login.basic-auth"]

[[ticket]]
id = "AUTH-3"
requirements = ["auth.login.basic-auth", "auth.session.expiry"]

[[ticket]]
requirements = ["auth.orphan"]
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !m.Covered("auth.login.basic-auth") {
		t.Error("expected basic-auth to be covered")
	}
	if m.Covered("auth.orphan") {
		t.Error("tickets without id must be ignored")
	}
	if m.Covered("auth.login") {
		t.Error("coverage must be exact-path")
	}

	ids := m.Tickets("auth.login.basic-auth")
	if len(ids) != 2 || ids[0] != "AUTH-12" || ids[1] != "AUTH-3" {
		t.Errorf("expected [AUTH-12 AUTH-3], got %v", ids)
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 covered paths, got %d", m.Len())
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte("version = [")); err == nil {
		t.Error("expected syntax error")
	}
	if _, err := Parse([]byte("version = 2")); err == nil {
		t.Error("expected unsupported version error")
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()

	m, err := LoadOptional(filepath.Join(dir, DefaultFile))
	if err != nil || m != nil {
		t.Fatalf("expected (nil, nil) for missing file, got (%v, %v)", m, err)
	}

	path := filepath.Join(dir, DefaultFile)
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	m, err = LoadOptional(path)
	if err != nil {
		t.Fatalf("LoadOptional failed: %v", err)
	}
	if !m.Covered("auth.session.expiry") {
		t.Error("expected auth.session.expiry to be covered")
	}

	if _, err := Load(filepath.Join(dir, "nope.toml")); err == nil {
		t.Error("expected Load to fail on missing file")
	}
}

func TestNilMap(t *testing.T) {
	var m *Map
	if m.Covered("x") || m.Tickets("x") != nil || m.Len() != 0 {
		t.Error("nil map should report nothing")
	}
}
