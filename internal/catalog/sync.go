// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"storefront/internal/search"
)

// Job is one synchronization request: rebuild (or remove) the search
// document for a single entity. Version is a monotonic sequence assigned at
// enqueue time; the synchronizer discards jobs older than the last one
// applied for the same (kind, id), so out-of-order processing cannot
// resurrect a deleted document.
type Job struct {
	Kind    EntityKind
	ID      uuid.UUID
	Action  Action
	Cascade bool
	Version uint64
}

// Synchronizer rebuilds denormalized search documents from the canonical
// relational store. It is the only writer of the search collections.
// Documents it writes are whole snapshots: readers see the previous document
// or the new one, never a partial write.
type Synchronizer struct {
	client     search.Client
	items      ItemSource
	formatters map[EntityKind]documentFormatter

	mu          sync.Mutex
	lastApplied map[appliedKey]uint64
}

type appliedKey struct {
	kind EntityKind
	id   uuid.UUID
}

// NewSynchronizer wires a synchronizer over the given canonical sources and
// search client.
func NewSynchronizer(client search.Client, items ItemSource, categories CategorySource, brands BrandSource) *Synchronizer {
	return &Synchronizer{
		client: client,
		items:  items,
		formatters: map[EntityKind]documentFormatter{
			KindItem:     &itemFormatter{items: items},
			KindCategory: &categoryFormatter{categories: categories},
			KindBrand:    &brandFormatter{brands: brands},
		},
		lastApplied: make(map[appliedKey]uint64),
	}
}

// Apply processes one sync job: an idempotent delete, or a re-read of the
// entity graph followed by an upsert. An entity that vanished between the
// commit and the sync is treated as deleted. The returned error is for the
// caller (the queue) to log and retry; it must never reach the code path
// that performed the originating mutation.
func (s *Synchronizer) Apply(ctx context.Context, job Job) error {
	if s.isStale(job) {
		slog.Debug("discarding stale sync job",
			"kind", job.Kind.String(), "id", job.ID, "version", job.Version)
		return nil
	}

	f, ok := s.formatters[job.Kind]
	if !ok {
		return fmt.Errorf("sync: unknown entity kind %v", job.Kind)
	}

	if job.Action == ActionDelete {
		if err := s.client.DeleteDocument(ctx, f.collection(), job.ID.String()); err != nil {
			return fmt.Errorf("sync delete %s %s: %w", job.Kind, job.ID, err)
		}
		s.markApplied(job)
		return nil
	}

	if err := s.upsert(ctx, f, job.ID); err != nil {
		return err
	}
	if job.Cascade {
		if err := s.cascade(ctx, job); err != nil {
			return err
		}
	}
	// Marked only once the whole job, cascade included, has been applied:
	// a job that failed partway must not look stale to its own retry. The
	// retry redoes the entity upsert too, which is idempotent.
	s.markApplied(job)
	return nil
}

// upsert rebuilds one entity's document from the canonical store and writes
// it, or removes the document when the entity no longer exists.
func (s *Synchronizer) upsert(ctx context.Context, f documentFormatter, id uuid.UUID) error {
	doc, err := f.build(id)
	if err != nil {
		return fmt.Errorf("sync read %s: %w", id, err)
	}
	if doc == nil {
		// Deleted between commit and sync.
		if err := s.client.DeleteDocument(ctx, f.collection(), id.String()); err != nil {
			return fmt.Errorf("sync remove vanished %s: %w", id, err)
		}
		return nil
	}
	if err := s.client.UpsertDocument(ctx, f.collection(), doc); err != nil {
		return fmt.Errorf("sync upsert %s: %w", id, err)
	}
	return nil
}

// cascade resynchronizes every item whose document embeds display fields of
// the changed category or brand. Cascaded upserts carry no version: they
// rebuild from the current canonical state, and an item deleted in the
// meantime resolves to a document removal, so they cannot resurrect stale
// data.
func (s *Synchronizer) cascade(ctx context.Context, job Job) error {
	var ids []uuid.UUID
	var err error
	switch job.Kind {
	case KindCategory:
		ids, err = s.items.IDsByCategory(job.ID)
	case KindBrand:
		ids, err = s.items.IDsByBrand(job.ID)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("sync cascade %s %s: %w", job.Kind, job.ID, err)
	}

	itemFmt := s.formatters[KindItem]
	for _, itemID := range ids {
		if err := s.upsert(ctx, itemFmt, itemID); err != nil {
			return fmt.Errorf("sync cascade item %s: %w", itemID, err)
		}
	}
	if len(ids) > 0 {
		slog.Info("cascade resync complete",
			"kind", job.Kind.String(), "id", job.ID, "items", len(ids))
	}
	return nil
}

// ReindexAll creates any missing collections, then rebuilds every item,
// category, and brand document from the canonical store, one kind at a
// time. Repeated runs converge to the same document set.
func (s *Synchronizer) ReindexAll(ctx context.Context) error {
	for _, kind := range []EntityKind{KindItem, KindCategory, KindBrand} {
		f := s.formatters[kind]
		if err := s.client.EnsureCollection(ctx, f.schema()); err != nil {
			return fmt.Errorf("reindex ensure collection %s: %w", f.collection(), err)
		}

		ids, err := f.allIDs()
		if err != nil {
			return fmt.Errorf("reindex list %s ids: %w", kind, err)
		}
		for _, id := range ids {
			if err := s.upsert(ctx, f, id); err != nil {
				return fmt.Errorf("reindex %s: %w", kind, err)
			}
		}
		slog.Info("reindexed collection", "collection", f.collection(), "documents", len(ids))
	}
	return nil
}

// EnsureCollections creates the search collections if absent, without
// rebuilding documents. Called at startup so first writes have a target.
func (s *Synchronizer) EnsureCollections(ctx context.Context) error {
	for _, kind := range []EntityKind{KindItem, KindCategory, KindBrand} {
		f := s.formatters[kind]
		if err := s.client.EnsureCollection(ctx, f.schema()); err != nil {
			return fmt.Errorf("ensure collection %s: %w", f.collection(), err)
		}
	}
	return nil
}

// isStale reports whether a versioned job is older than the last one
// applied for its entity. Unversioned jobs (version 0) are never stale.
func (s *Synchronizer) isStale(job Job) bool {
	if job.Version == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return job.Version <= s.lastApplied[appliedKey{job.Kind, job.ID}]
}

func (s *Synchronizer) markApplied(job Job) {
	if job.Version == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := appliedKey{job.Kind, job.ID}
	if job.Version > s.lastApplied[key] {
		s.lastApplied[key] = job.Version
	}
}
