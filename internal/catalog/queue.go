// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const (
	// jobTimeout bounds the search-engine round trips of one job.
	jobTimeout = 30 * time.Second

	// retryBase and retryJitter shape the backoff between attempts.
	retryBase   = 200 * time.Millisecond
	retryJitter = 100 * time.Millisecond

	// maxRetries is the number of additional attempts after the first.
	maxRetries = 3
)

// Queue decouples catalog mutations from index synchronization. Mutations
// enqueue a job after their transaction commits and return immediately; a
// single worker applies jobs in order with bounded retry and jitter on
// transient search failures. A job that still fails after the last retry is
// logged and dropped — the index is a best-effort replica, and a derived
// failure must never surface to the mutation's caller. The document stays
// stale until a later write or an operator reindex.
type Queue struct {
	sync    *Synchronizer
	jobs    chan Job
	done    chan struct{}
	version atomic.Uint64

	mu     sync.Mutex
	closed bool
}

// NewQueue creates and starts the queue's worker.
func NewQueue(s *Synchronizer, size int) *Queue {
	if size <= 0 {
		size = 256
	}
	q := &Queue{
		sync: s,
		jobs: make(chan Job, size),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue submits a sync job, stamping it with the next version so the
// synchronizer can discard out-of-order duplicates. It never blocks or
// panics in the caller: if the buffer is full, or the queue is already
// closed, the job is dropped with a warning, leaving the document stale
// until the next write or reindex.
func (q *Queue) Enqueue(kind EntityKind, id uuid.UUID, action Action, cascade bool) {
	job := Job{
		Kind:    kind,
		ID:      id,
		Action:  action,
		Cascade: cascade,
		Version: q.version.Add(1),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		slog.Warn("sync queue closed, dropping job",
			"kind", kind.String(), "id", id, "action", action.String())
		return
	}
	select {
	case q.jobs <- job:
	default:
		slog.Warn("sync queue full, dropping job",
			"kind", kind.String(), "id", id, "action", action.String())
	}
}

// Close stops accepting jobs and waits for the worker to drain the queue.
// Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)
	for job := range q.jobs {
		q.process(job)
	}
}

// process applies one job with bounded retry. Every failure path ends in a
// log line, never a propagated error.
func (q *Queue) process(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	backoff := retry.NewExponential(retryBase)
	backoff = retry.WithJitter(retryJitter, backoff)
	backoff = retry.WithMaxRetries(maxRetries, backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := q.sync.Apply(ctx, job); err != nil {
			slog.Warn("index sync attempt failed",
				"kind", job.Kind.String(), "id", job.ID,
				"action", job.Action.String(), "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		slog.Error("index sync failed, document left stale until next write or reindex",
			"kind", job.Kind.String(), "id", job.ID,
			"action", job.Action.String(), "error", err)
	}
}
