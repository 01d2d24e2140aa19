package cache

import (
	"path/filepath"
	"testing"
)

func testStore(t *testing.T, s Store) {
	t.Helper()

	if _, ok := s.Rate("USD", "2025-03-14"); ok {
		t.Error("expected rate miss on empty store")
	}
	s.PutRate("USD", "2025-03-14", 3.9876)
	if r, ok := s.Rate("USD", "2025-03-14"); !ok || r != 3.9876 {
		t.Errorf("rate = %v/%v, want 3.9876/true", r, ok)
	}
	if _, ok := s.Rate("USD", "2025-03-15"); ok {
		t.Error("rate key must include the quote date")
	}

	if _, ok := s.Price("BTC", 1714000000); ok {
		t.Error("expected price miss on empty store")
	}
	s.PutPrice("BTC", 1714000000, 60000.5)
	if p, ok := s.Price("BTC", 1714000000); !ok || p != 60000.5 {
		t.Errorf("price = %v/%v, want 60000.5/true", p, ok)
	}
	if _, ok := s.Price("BTC", 1714003600); ok {
		t.Error("price key must include the hour")
	}

	s.PutPrice("BTC", 1714000000, 61000)
	if p, _ := s.Price("BTC", 1714000000); p != 61000 {
		t.Errorf("overwrite not applied, price = %v", p)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemory())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()

	testStore(t, s)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	s.PutRate("EUR", "2025-01-02", 4.3210)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if r, ok := s2.Rate("EUR", "2025-01-02"); !ok || r != 4.3210 {
		t.Errorf("rate after reopen = %v/%v, want 4.321/true", r, ok)
	}
}
