package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{EventCreate, "create"},
		{EventModify, "modify"},
		{EventDelete, "delete"},
		{EventType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.eventType.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewBatchDebouncer(t *testing.T) {
	b := NewBatchDebouncer(100*time.Millisecond, func([]Event) {})

	if b.delay != 100*time.Millisecond {
		t.Errorf("delay = %v, want 100ms", b.delay)
	}
	if b.events == nil {
		t.Error("events should be initialized")
	}
}

func TestBatchDebouncerAdd(t *testing.T) {
	var received []Event
	var mu sync.Mutex

	b := NewBatchDebouncer(50*time.Millisecond, func(events []Event) {
		mu.Lock()
		received = events
		mu.Unlock()
	})

	b.Add(Event{Type: EventCreate, Path: "/w/a.req"})
	b.Add(Event{Type: EventModify, Path: "/w/b.req"})
	b.Add(Event{Type: EventDelete, Path: "/w/c.req"})

	if b.EventCount() != 3 {
		t.Errorf("EventCount() = %d, want 3", b.EventCount())
	}

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 3 {
		t.Errorf("expected 3 events, got %d", len(received))
	}
}

func TestBatchDebouncerCancel(t *testing.T) {
	var called bool
	var mu sync.Mutex

	b := NewBatchDebouncer(50*time.Millisecond, func([]Event) {
		mu.Lock()
		called = true
		mu.Unlock()
	})
	b.Add(Event{Type: EventCreate, Path: "/w/a.req"})
	b.Cancel()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if called {
		t.Error("emit should not be called after Cancel")
	}
	if b.EventCount() != 0 {
		t.Errorf("EventCount() = %d, want 0", b.EventCount())
	}
}

func TestBatchDebouncerFlush(t *testing.T) {
	var received []Event
	b := NewBatchDebouncer(time.Hour, func(events []Event) { received = events })

	b.Add(Event{Type: EventModify, Path: "/w/a.req"})
	b.Flush()

	if len(received) != 1 {
		t.Fatalf("expected 1 event after Flush, got %d", len(received))
	}
}

func TestBatchDebouncerNoEmitWithNoEvents(t *testing.T) {
	called := false
	b := NewBatchDebouncer(10*time.Millisecond, func([]Event) { called = true })
	b.Flush()
	if called {
		t.Error("emit should not be called with no events")
	}
}

func TestCoalesce(t *testing.T) {
	events := []Event{
		{Type: EventModify, Path: "/w/b.req"},
		{Type: EventCreate, Path: "/w/a.req"},
		{Type: EventModify, Path: "/w/a.req"},
		{Type: EventCreate, Path: "/w/c.req"},
		{Type: EventDelete, Path: "/w/c.req"},
		{Type: EventModify, Path: "/w/b.req"},
	}

	got := Coalesce(events)
	want := []struct {
		path string
		typ  EventType
	}{
		{"/w/a.req", EventCreate},
		{"/w/b.req", EventModify},
		{"/w/c.req", EventDelete},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Path != w.path || got[i].Type != w.typ {
			t.Errorf("event %d = %s %s, want %s %s", i, got[i].Type, got[i].Path, w.typ, w.path)
		}
	}
}

func TestStopWithoutStart(t *testing.T) {
	w := New(t.TempDir(), Options{}, nil, nil)
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() without Start returned %v", err)
	}
}

func waitFor(t *testing.T, ch <-chan []Event, match func(Event) bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case batch := <-ch:
			for _, e := range batch {
				if match(e) {
					return
				}
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestWatcherDeliversFilteredEvents(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, ".hidden"), 0755); err != nil {
		t.Fatal(err)
	}

	batches := make(chan []Event, 16)
	w := New(root, Options{
		Debounce: 20 * time.Millisecond,
		Filter:   func(rel string) bool { return strings.HasSuffix(rel, ".req") },
	}, nil, func(events []Event) { batches <- events })

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if w.DirCount() != 2 {
		t.Errorf("DirCount() = %d, want 2 (hidden dir skipped)", w.DirCount())
	}

	target := filepath.Join(root, "sub", "a.req")
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("module a {}"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, batches, func(e Event) bool {
		if strings.HasSuffix(e.Path, "notes.txt") {
			t.Errorf("filtered path delivered: %s", e.Path)
		}
		return e.Path == target && e.Type != EventDelete
	})

	if err := os.Remove(target); err != nil {
		t.Fatal(err)
	}
	waitFor(t, batches, func(e Event) bool { return e.Path == target && e.Type == EventDelete })
}

func TestWatcherNewDirectory(t *testing.T) {
	root := t.TempDir()
	batches := make(chan []Event, 16)
	w := New(root, Options{Debounce: 20 * time.Millisecond}, nil, func(events []Event) { batches <- events })
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	dir := filepath.Join(root, "billing")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	// give the watcher a moment to add the directory
	time.Sleep(100 * time.Millisecond)
	target := filepath.Join(dir, "invoices.req")
	if err := os.WriteFile(target, []byte("module billing {}"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, batches, func(e Event) bool { return e.Path == target })

	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	waitFor(t, batches, func(e Event) bool { return e.Path == dir && e.Dir && e.Type == EventDelete })
}
