// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

// Package journal provides append-only NDJSON logs backed by a single
// writer goroutine. Every payload becomes exactly one line, lines are
// written in submission order, and the file is created empty on open so
// export and dashboard endpoints always have something to read.
package journal

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/greglas75/prefetch/internal/logging"
	"github.com/greglas75/prefetch/internal/metrics"
)

var (
	// ErrClosed is returned when appending after the writer has stopped.
	ErrClosed = errors.New("journal: closed")

	// ErrQueueFull is returned when the writer queue cannot accept more
	// payloads without blocking.
	ErrQueueFull = errors.New("journal: queue full")
)

const defaultQueueSize = 1024

// request is one unit of work for the writer goroutine. A nil payload is
// a sync barrier: it carries no bytes but is acknowledged once every
// earlier payload has reached the file.
type request struct {
	payload []byte
	done    chan error
}

// Log is an append-only NDJSON file. All writes funnel through one
// goroutine, which is what guarantees line ordering matches submission
// order without locking around file I/O.
type Log struct {
	name string
	path string
	file *os.File

	queue  chan request
	closed atomic.Bool

	appended atomic.Int64
	failed   atomic.Int64
}

// Config controls a single journal file.
type Config struct {
	// Name labels the journal in logs and metrics ("events", "heartbeats").
	Name string

	// Path is the NDJSON file location. Parent directories are created.
	Path string

	// QueueSize bounds the writer queue. Zero means a sensible default.
	QueueSize int
}

// Open creates or opens the journal file in append mode. The file is
// created (empty) if it does not exist. The writer does not run until
// Serve is called; appends submitted before then sit in the queue.
func Open(cfg Config) (*Log, error) {
	if cfg.Name == "" {
		return nil, errors.New("journal: name is required")
	}
	if cfg.Path == "" {
		return nil, errors.New("journal: path is required")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("journal: create directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", cfg.Path, err)
	}

	logging.Info().
		Str("journal", cfg.Name).
		Str("path", cfg.Path).
		Int("queue_size", cfg.QueueSize).
		Msg("Journal opened")

	return &Log{
		name:  cfg.Name,
		path:  cfg.Path,
		file:  f,
		queue: make(chan request, cfg.QueueSize),
	}, nil
}

// Serve runs the writer loop until ctx is cancelled, then drains the
// queue and closes the file. Implements suture.Service.
func (l *Log) Serve(ctx context.Context) error {
	defer l.file.Close()

	for {
		select {
		case req := <-l.queue:
			l.handle(req)
			metrics.SetJournalQueueDepth(l.name, len(l.queue))
		case <-ctx.Done():
			l.closed.Store(true)
			l.drain()
			logging.Info().
				Str("journal", l.name).
				Int64("appended", l.appended.Load()).
				Msg("Journal writer stopped")
			return ctx.Err()
		}
	}
}

// drain writes everything still queued at shutdown. New appends are
// already rejected by the closed flag, so this terminates.
func (l *Log) drain() {
	for {
		select {
		case req := <-l.queue:
			l.handle(req)
		default:
			metrics.SetJournalQueueDepth(l.name, 0)
			return
		}
	}
}

func (l *Log) handle(req request) {
	var err error
	if req.payload != nil {
		err = l.write(req.payload)
	}
	if req.done != nil {
		req.done <- err
	}
}

// write appends one payload, newline-terminated. A payload may carry
// several newline-separated lines; they land in one write.
func (l *Log) write(payload []byte) error {
	line := payload
	if n := len(line); n == 0 || line[n-1] != '\n' {
		line = append(append(make([]byte, 0, n+1), line...), '\n')
	}
	if _, err := l.file.Write(line); err != nil {
		l.failed.Add(1)
		metrics.RecordJournalAppendError(l.name)
		logging.Error().
			Err(err).
			Str("journal", l.name).
			Msg("Journal append failed")
		return fmt.Errorf("journal: append to %s: %w", l.name, err)
	}
	l.appended.Add(1)
	metrics.RecordJournalAppend(l.name)
	return nil
}

// Append enqueues payload without waiting for the write to complete.
// Failures surface on metrics and logs rather than to the caller. The
// payload must not be modified after the call.
func (l *Log) Append(payload []byte) error {
	if l.closed.Load() {
		return ErrClosed
	}
	select {
	case l.queue <- request{payload: payload}:
		metrics.SetJournalQueueDepth(l.name, len(l.queue))
		return nil
	default:
		l.failed.Add(1)
		metrics.RecordJournalAppendError(l.name)
		return ErrQueueFull
	}
}

// AppendWait enqueues payload and blocks until it has been written to
// the file, the queue refuses it, or ctx expires.
func (l *Log) AppendWait(ctx context.Context, payload []byte) error {
	if l.closed.Load() {
		return ErrClosed
	}
	done := make(chan error, 1)
	select {
	case l.queue <- request{payload: payload, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sync blocks until every payload enqueued before the call has reached
// the file. Useful before reading the log back.
func (l *Log) Sync(ctx context.Context) error {
	if l.closed.Load() {
		return ErrClosed
	}
	done := make(chan error, 1)
	select {
	case l.queue <- request{done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadAll returns the current file contents verbatim. Callers that need
// queued-but-unwritten lines included should Sync first.
func (l *Log) ReadAll() ([]byte, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("journal: read %s: %w", l.name, err)
	}
	return data, nil
}

// Lines returns the file split into non-empty lines, for callers that
// iterate records rather than stream bytes.
func (l *Log) Lines() ([][]byte, error) {
	data, err := l.ReadAll()
	if err != nil {
		return nil, err
	}
	var lines [][]byte
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		line := make([]byte, len(sc.Bytes()))
		copy(line, sc.Bytes())
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("journal: scan %s: %w", l.name, err)
	}
	return lines, nil
}

// Path returns the journal file location.
func (l *Log) Path() string {
	return l.path
}

// Stats reports writer counters for diagnostics.
func (l *Log) Stats() (appended, failed int64, queued int) {
	return l.appended.Load(), l.failed.Load(), len(l.queue)
}

// String implements fmt.Stringer for supervisor logs.
func (l *Log) String() string {
	return "journal-" + l.name
}
