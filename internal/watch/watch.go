// Package watch re-runs an action whenever a document changes on disk.
// The document's directory is watched rather than the file itself so that
// editors which save by writing a temporary file and renaming it over the
// original are still noticed. Bursts of events are coalesced.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a burst of events must be quiet before the
// action runs
const DefaultDebounce = 100 * time.Millisecond

// Op is a set of file operations
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
)

func (op Op) String() string {
	var parts []string
	for _, x := range []struct {
		op   Op
		name string
	}{{OpCreate, "create"}, {OpWrite, "write"}, {OpRemove, "remove"}, {OpRename, "rename"}} {
		if op&x.op != 0 {
			parts = append(parts, x.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Event describes a coalesced change. Op is the union of every operation
// seen during the burst.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// Watcher watches a single file
type Watcher struct {
	w        *fsnotify.Watcher
	path     string
	debounce time.Duration
}

// New starts watching path. Changes made after New returns are reported
// by Run.
func New(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{w: w, path: abs, debounce: debounce}, nil
}

// Path returns the absolute path being watched
func (w *Watcher) Path() string { return w.path }

// Close stops watching
func (w *Watcher) Close() error { return w.w.Close() }

func convert(op fsnotify.Op) Op {
	var out Op
	if op.Has(fsnotify.Create) {
		out |= OpCreate
	}
	if op.Has(fsnotify.Write) {
		out |= OpWrite
	}
	if op.Has(fsnotify.Remove) {
		out |= OpRemove
	}
	if op.Has(fsnotify.Rename) {
		out |= OpRename
	}
	return out
}

// Run calls onChange once per burst of changes to the file until ctx is
// done or the watcher fails. onChange runs on Run's goroutine, so changes
// arriving while it runs are coalesced into the next call.
func (w *Watcher) Run(ctx context.Context, onChange func(Event)) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var pending Op
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			op := convert(ev.Op)
			if op == 0 {
				continue
			}
			pending |= op
			timer.Reset(w.debounce)

		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", w.path, err)

		case now := <-timer.C:
			ev := Event{Path: w.path, Op: pending, Time: now}
			pending = 0
			onChange(ev)
		}
	}
}

// Run watches path and calls onChange for every burst of changes until
// ctx is done
func Run(ctx context.Context, path string, debounce time.Duration, onChange func(Event)) error {
	w, err := New(path, debounce)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Run(ctx, onChange)
}
