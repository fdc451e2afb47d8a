// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

package journal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// startLog opens a journal in a temp dir and runs its writer until the
// test ends.
func startLog(t *testing.T, name string) *Log {
	t.Helper()

	l, err := Open(Config{
		Name: name,
		Path: filepath.Join(t.TempDir(), name+".jsonl"),
	})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("journal writer did not stop")
		}
	})

	return l
}

func TestOpenCreatesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "events.jsonl")
	l, err := Open(Config{Name: "events", Path: path})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer l.file.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("new file not empty: %q", data)
	}
	if l.Path() != path {
		t.Errorf("Path() = %q, want %q", l.Path(), path)
	}
}

func TestOpenRequiresNameAndPath(t *testing.T) {
	if _, err := Open(Config{Path: "x.jsonl"}); err == nil {
		t.Error("Open without name should fail")
	}
	if _, err := Open(Config{Name: "x"}); err == nil {
		t.Error("Open without path should fail")
	}
}

func TestAppendWaitWritesOneLine(t *testing.T) {
	l := startLog(t, "events")

	ctx := context.Background()
	if err := l.AppendWait(ctx, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("AppendWait error: %v", err)
	}

	data, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	if string(data) != `{"a":1}`+"\n" {
		t.Errorf("file = %q", data)
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	l := startLog(t, "events")

	const n = 200
	for i := 0; i < n; i++ {
		if err := l.Append([]byte(fmt.Sprintf(`{"seq":%d}`, i))); err != nil {
			t.Fatalf("Append(%d) error: %v", i, err)
		}
	}
	if err := l.Sync(context.Background()); err != nil {
		t.Fatalf("Sync error: %v", err)
	}

	lines, err := l.Lines()
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if len(lines) != n {
		t.Fatalf("len(lines) = %d, want %d", len(lines), n)
	}
	for i, line := range lines {
		want := fmt.Sprintf(`{"seq":%d}`, i)
		if string(line) != want {
			t.Fatalf("line %d = %q, want %q", i, line, want)
		}
	}
}

func TestSyncIsABarrier(t *testing.T) {
	l := startLog(t, "events")

	for i := 0; i < 50; i++ {
		if err := l.Append([]byte(`{"x":true}`)); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}
	if err := l.Sync(context.Background()); err != nil {
		t.Fatalf("Sync error: %v", err)
	}

	appended, failed, queued := l.Stats()
	if appended != 50 {
		t.Errorf("appended = %d, want 50", appended)
	}
	if failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
	if queued != 0 {
		t.Errorf("queued = %d, want 0", queued)
	}
}

func TestTrailingNewlineNotDoubled(t *testing.T) {
	l := startLog(t, "events")

	if err := l.AppendWait(context.Background(), []byte("already terminated\n")); err != nil {
		t.Fatalf("AppendWait error: %v", err)
	}
	data, err := l.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	if strings.Count(string(data), "\n") != 1 {
		t.Errorf("file = %q, want single newline", data)
	}
}

func TestAppendAfterCloseFails(t *testing.T) {
	l, err := Open(Config{
		Name: "events",
		Path: filepath.Join(t.TempDir(), "events.jsonl"),
	})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Serve(ctx)
	}()
	cancel()
	<-done

	if err := l.Append([]byte("late")); !errors.Is(err, ErrClosed) {
		t.Errorf("Append after close = %v, want ErrClosed", err)
	}
	if err := l.Sync(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Sync after close = %v, want ErrClosed", err)
	}
}

func TestQueueFullRejects(t *testing.T) {
	// Writer never started, so the queue fills up.
	l, err := Open(Config{
		Name:      "events",
		Path:      filepath.Join(t.TempDir(), "events.jsonl"),
		QueueSize: 16,
	})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer l.file.Close()

	var full bool
	for i := 0; i < 32; i++ {
		if err := l.Append([]byte("x")); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
	}
	if !full {
		t.Error("expected ErrQueueFull once the queue filled")
	}
}

func TestDrainOnShutdown(t *testing.T) {
	l, err := Open(Config{
		Name: "events",
		Path: filepath.Join(t.TempDir(), "events.jsonl"),
	})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	// Enqueue before the writer runs, then run it just long enough to
	// be cancelled: shutdown must still drain the queue to disk.
	for i := 0; i < 10; i++ {
		if err := l.Append([]byte(fmt.Sprintf(`{"seq":%d}`, i))); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = l.Serve(ctx)

	lines, err := l.Lines()
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if len(lines) != 10 {
		t.Errorf("len(lines) = %d, want 10", len(lines))
	}
}
