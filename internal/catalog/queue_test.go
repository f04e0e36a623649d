// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobsAsynchronously(t *testing.T) {
	idx := newFakeIndex()
	cat := newFakeCatalog()
	q := NewQueue(newTestSynchronizer(idx, cat), 16)
	defer q.Close()

	item := seedItem(cat, "queued", nil)
	q.Enqueue(KindItem, item.ID, ActionCreate, false)

	assert.Eventually(t, func() bool {
		_, ok := idx.itemDocument(item.ID.String())
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueueRetriesTransientFailures(t *testing.T) {
	idx := newFakeIndex()
	cat := newFakeCatalog()
	q := NewQueue(newTestSynchronizer(idx, cat), 16)
	defer q.Close()

	item := seedItem(cat, "flaky", nil)
	idx.failNext(2)
	q.Enqueue(KindItem, item.ID, ActionCreate, false)

	assert.Eventually(t, func() bool {
		_, ok := idx.itemDocument(item.ID.String())
		return ok
	}, 5*time.Second, 20*time.Millisecond)
}

func TestQueueTerminalFailureDoesNotStopWorker(t *testing.T) {
	idx := newFakeIndex()
	cat := newFakeCatalog()
	q := NewQueue(newTestSynchronizer(idx, cat), 16)
	defer q.Close()

	doomed := seedItem(cat, "doomed", nil)
	healthy := seedItem(cat, "healthy", nil)

	// More consecutive failures than the retry budget: the first job is
	// dropped, the second must still be processed.
	idx.failNext(maxRetries + 1)
	q.Enqueue(KindItem, doomed.ID, ActionCreate, false)
	q.Enqueue(KindItem, healthy.ID, ActionCreate, false)

	assert.Eventually(t, func() bool {
		_, ok := idx.itemDocument(healthy.ID.String())
		return ok
	}, 10*time.Second, 20*time.Millisecond)
}

func TestQueueCloseDrainsPendingJobs(t *testing.T) {
	idx := newFakeIndex()
	cat := newFakeCatalog()
	q := NewQueue(newTestSynchronizer(idx, cat), 16)

	var items []string
	for i := 0; i < 5; i++ {
		it := seedItem(cat, "drain", nil)
		items = append(items, it.ID.String())
		q.Enqueue(KindItem, it.ID, ActionCreate, false)
	}

	q.Close()

	for _, id := range items {
		_, ok := idx.itemDocument(id)
		require.True(t, ok, "job for %s must be processed before Close returns", id)
	}
}

func TestQueueEnqueueAfterCloseIsDropped(t *testing.T) {
	idx := newFakeIndex()
	cat := newFakeCatalog()
	q := NewQueue(newTestSynchronizer(idx, cat), 16)
	q.Close()

	// A late trigger must be dropped, never panic the caller.
	item := seedItem(cat, "late", nil)
	q.Enqueue(KindItem, item.ID, ActionCreate, false)

	_, ok := idx.itemDocument(item.ID.String())
	assert.False(t, ok)

	// Close is idempotent.
	q.Close()
}

func TestQueueVersionsIncreaseMonotonically(t *testing.T) {
	idx := newFakeIndex()
	cat := newFakeCatalog()
	q := NewQueue(newTestSynchronizer(idx, cat), 16)
	defer q.Close()

	assert.Equal(t, uint64(0), q.version.Load())
	item := seedItem(cat, "versioned", nil)
	q.Enqueue(KindItem, item.ID, ActionUpdate, false)
	q.Enqueue(KindItem, item.ID, ActionUpdate, false)
	assert.Equal(t, uint64(2), q.version.Load())
}
