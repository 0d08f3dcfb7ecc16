package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/yunilang/yuni/internal/diagnostics"
	"github.com/yunilang/yuni/internal/position"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreAndLookup(t *testing.T) {
	s := openTemp(t)

	d := diagnostics.New(diagnostics.UseAfterMove, position.At("main.yaml", 3, 7)).
		InFunction("main").
		Message("use of moved value `s`").
		Secondary(position.At("main.yaml", 2, 5), "value moved here").
		Hint("consider cloning the value").
		Build()

	tests := []struct {
		name string
		key  string
		ds   []diagnostics.Diagnostic
	}{
		{"with diagnostics", "k1", []diagnostics.Diagnostic{d}},
		{"clean function", "k2", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Store(tt.key, "main", tt.ds); err != nil {
				t.Fatalf("store failed: %v", err)
			}
			got, ok, err := s.Lookup(tt.key)
			if err != nil || !ok {
				t.Fatalf("lookup = %v, %v", ok, err)
			}
			if len(got) != len(tt.ds) {
				t.Fatalf("got %d diagnostics, want %d", len(got), len(tt.ds))
			}
			for i := range got {
				if got[i].String() != tt.ds[i].String() || got[i].Hint != tt.ds[i].Hint {
					t.Errorf("round trip changed %s into %s", tt.ds[i], got[i])
				}
				if len(got[i].Secondary) != 1 || got[i].Function != "main" {
					t.Errorf("lost fields: %+v", got[i])
				}
			}
		})
	}

	if _, ok, err := s.Lookup("missing"); ok || err != nil {
		t.Errorf("missing key: ok=%v err=%v", ok, err)
	}
}

func TestStoreReplaces(t *testing.T) {
	s := openTemp(t)
	d := diagnostics.New(diagnostics.TypeMismatch, position.At("a.yaml", 1, 1)).Message("mismatched types").Build()

	if err := s.Store("k", "f", []diagnostics.Diagnostic{d}); err != nil {
		t.Fatal(err)
	}
	if err := s.Store("k", "f", nil); err != nil {
		t.Fatal(err)
	}
	got, ok, _ := s.Lookup("k")
	if !ok || len(got) != 0 {
		t.Errorf("expected the replaced empty entry, got %v", got)
	}

	st, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.Entries != 1 || st.Functions != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Store("k", "f", nil); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok, err := s.Lookup("k"); !ok || err != nil {
		t.Errorf("entry did not persist: ok=%v err=%v", ok, err)
	}
}

func TestPrune(t *testing.T) {
	s := openTemp(t)
	if err := s.Store("k", "f", nil); err != nil {
		t.Fatal(err)
	}
	if n, err := s.Prune(time.Hour); err != nil || n != 0 {
		t.Errorf("fresh entry pruned: n=%d err=%v", n, err)
	}
	if n, err := s.Prune(-time.Hour); err != nil || n != 1 {
		t.Errorf("expected one pruned entry: n=%d err=%v", n, err)
	}
}

func TestClosedStore(t *testing.T) {
	s := openTemp(t)
	s.Close()
	if _, _, err := s.Lookup("k"); err == nil {
		t.Error("lookup on a closed cache should fail")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}
