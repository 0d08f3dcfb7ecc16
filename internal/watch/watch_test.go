package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{0, "none"},
		{OpWrite, "write"},
		{OpCreate | OpRename, "create|rename"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestRunReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.yaml")
	if err := os.WriteFile(path, []byte("language: \"0.1.0\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(path, 20*time.Millisecond)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan Event, 8)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(ev Event) { events <- ev }) }()

	// an unrelated file in the same directory is ignored
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("language: \"0.1.1\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case ev := <-events:
		if ev.Path != w.Path() || ev.Op&OpWrite == 0 {
			t.Errorf("unexpected event %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}
