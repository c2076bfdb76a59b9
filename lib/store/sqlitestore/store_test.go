// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitestore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/h3xrecon/h3xrecon/lib/store"
	"github.com/h3xrecon/h3xrecon/lib/store/sqlitestore"
	"github.com/h3xrecon/h3xrecon/lib/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) (store.Store, storetest.Seeder) {
		s := openTestStore(t, filepath.Join(t.TempDir(), "h3xrecon.db"))
		return s, s
	})
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "h3xrecon.db")

	first, err := sqlitestore.Open(ctx, path, 1, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := first.AddProgram(ctx, "acme"); err != nil {
		t.Fatalf("AddProgram: %v", err)
	}
	if _, err := first.AddScope(ctx, "acme", `.*\.acme\.com`); err != nil {
		t.Fatalf("AddScope: %v", err)
	}
	first.Close()

	second := openTestStore(t, path)
	scopes, err := second.Scopes(ctx, "acme")
	if err != nil {
		t.Fatalf("Scopes after reopen: %v", err)
	}
	if len(scopes) != 1 {
		t.Errorf("Scopes after reopen = %q", scopes)
	}
}

func TestInsertRequiresProgram(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "h3xrecon.db"))
	err := s.InsertDomain(context.Background(), "ghost", store.Domain{Domain: "x.example.com"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("InsertDomain on unknown program: got %v, want ErrNotFound", err)
	}
}

func openTestStore(t *testing.T, path string) *sqlitestore.Store {
	t.Helper()
	s, err := sqlitestore.Open(context.Background(), path, 2, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
