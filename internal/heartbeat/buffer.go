// Prefetch - Behavioral Telemetry Collection and Session Classification
// Copyright 2026 Greg L. (greglas75)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greglas75/prefetch

// Package heartbeat batches liveness pings in memory and flushes them to
// a journal on a fixed interval, trading at most one interval of loss on
// crash for not hitting the disk on every ping.
package heartbeat

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/greglas75/prefetch/internal/logging"
	"github.com/greglas75/prefetch/internal/metrics"
)

// Journal is the durable sink a buffer flushes into.
type Journal interface {
	Append(payload []byte) error
}

// Overflow policies applied when the buffer reaches capacity.
const (
	// OverflowDropOldest discards the oldest pending line to make room.
	OverflowDropOldest = "drop-oldest"

	// OverflowReject discards the incoming line instead.
	OverflowReject = "reject"
)

const (
	defaultFlushInterval = 2 * time.Second
	defaultCapacity      = 10000
)

// Config controls buffer behaviour.
type Config struct {
	// FlushInterval is the wall-clock period between flush ticks.
	FlushInterval time.Duration

	// Capacity bounds the number of pending lines. Zero means default.
	Capacity int

	// OverflowPolicy selects what happens at capacity. Empty means
	// drop-oldest, which keeps the freshest liveness signal.
	OverflowPolicy string
}

// Buffer accumulates heartbeat lines and writes them out in batches.
// Push never blocks on I/O; the flush loop owns all journal writes.
type Buffer struct {
	journal  Journal
	interval time.Duration
	capacity int
	reject   bool

	mu      sync.Mutex
	pending [][]byte

	pushed  atomic.Int64
	dropped atomic.Int64
	flushes atomic.Int64
}

// NewBuffer builds a buffer over the given journal.
func NewBuffer(j Journal, cfg Config) *Buffer {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaultCapacity
	}
	return &Buffer{
		journal:  j,
		interval: cfg.FlushInterval,
		capacity: cfg.Capacity,
		reject:   cfg.OverflowPolicy == OverflowReject,
	}
}

// Push queues one heartbeat line for the next flush. The payload must
// not be modified after the call. At capacity the overflow policy
// decides which line is lost; Push itself never blocks.
func (b *Buffer) Push(payload []byte) {
	b.mu.Lock()
	if len(b.pending) >= b.capacity {
		b.dropped.Add(1)
		metrics.RecordHeartbeatDropped()
		if b.reject {
			b.mu.Unlock()
			return
		}
		copy(b.pending, b.pending[1:])
		b.pending = b.pending[:len(b.pending)-1]
	}
	b.pending = append(b.pending, payload)
	n := len(b.pending)
	b.mu.Unlock()

	b.pushed.Add(1)
	metrics.SetHeartbeatPending(n)
}

// Serve runs the flush loop until ctx is cancelled, then performs a
// final flush so pending lines survive a clean shutdown. Implements
// suture.Service.
func (b *Buffer) Serve(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	logging.Info().
		Dur("flush_interval", b.interval).
		Int("capacity", b.capacity).
		Msg("Heartbeat buffer started")

	for {
		select {
		case <-ticker.C:
			b.Flush()
		case <-ctx.Done():
			b.Flush()
			logging.Info().
				Int64("pushed", b.pushed.Load()).
				Msg("Heartbeat buffer stopped")
			return ctx.Err()
		}
	}
}

// Flush concatenates every pending line into one payload and appends it
// to the journal. The pending slice is swapped out under the lock so
// pushes are never held up by I/O; the batch occupies a single journal
// queue slot and lands or fails as a unit. A failed batch goes back to
// the front of the buffer for the next tick.
func (b *Buffer) Flush() {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		metrics.SetHeartbeatPending(0)
		return
	}

	payload := bytes.Join(batch, []byte{'\n'})
	if err := b.journal.Append(payload); err != nil {
		metrics.SetHeartbeatPending(b.requeue(batch))
		logging.Warn().
			Err(err).
			Int("batch", len(batch)).
			Msg("Heartbeat flush failed, batch requeued")
		return
	}

	b.flushes.Add(1)
	b.mu.Lock()
	n := len(b.pending)
	b.mu.Unlock()
	metrics.SetHeartbeatPending(n)
	metrics.RecordHeartbeatFlush(len(batch))
	logging.Debug().
		Int("batch", len(batch)).
		Msg("Heartbeat flush")
}

// requeue puts a failed batch back ahead of anything pushed during the
// flush attempt, dropping the oldest lines if the merge overflows
// capacity. Returns the new pending count.
func (b *Buffer) requeue(batch [][]byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	merged := append(batch, b.pending...)
	if over := len(merged) - b.capacity; over > 0 {
		b.dropped.Add(int64(over))
		for i := 0; i < over; i++ {
			metrics.RecordHeartbeatDropped()
		}
		merged = merged[over:]
	}
	b.pending = merged
	return len(merged)
}

// Stats reports buffer counters for diagnostics.
func (b *Buffer) Stats() (pushed, dropped, flushes int64, pending int) {
	b.mu.Lock()
	pending = len(b.pending)
	b.mu.Unlock()
	return b.pushed.Load(), b.dropped.Load(), b.flushes.Load(), pending
}

// String implements fmt.Stringer for supervisor logs.
func (b *Buffer) String() string {
	return "heartbeat-buffer"
}
