package db

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheck_RequiresMigration(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if err := db.Check(ctx); !errors.Is(err, ErrNotMigrated) {
		t.Errorf("before Migrate: expected ErrNotMigrated, got %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	if err := db.Check(ctx); err != nil {
		t.Errorf("after Migrate: got %v", err)
	}
}

func TestResolvePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "cfg"))

	got, err := resolvePath("")
	if err != nil {
		t.Fatalf("resolvePath error: %v", err)
	}
	if !strings.HasPrefix(got, home) || filepath.Base(got) != "state.db" {
		t.Errorf("default path: got %s", got)
	}

	got, err = resolvePath("~/data/state.db")
	if err != nil {
		t.Fatalf("resolvePath error: %v", err)
	}
	if got != filepath.Join(home, "data", "state.db") {
		t.Errorf("home expansion: got %s", got)
	}

	if got, _ := resolvePath("/var/lib/state.db"); got != "/var/lib/state.db" {
		t.Errorf("absolute path: got %s", got)
	}
}
