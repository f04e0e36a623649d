// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import "github.com/google/uuid"

// Trigger is the lifecycle hook between catalog mutations and the index.
// The service calls it strictly after a store mutation has committed; every
// method only enqueues and therefore cannot fail or block, so the mutation's
// outcome as seen by its caller is decided by the relational store alone.
type Trigger struct {
	queue *Queue
}

// NewTrigger returns a trigger feeding the given queue.
func NewTrigger(q *Queue) *Trigger {
	return &Trigger{queue: q}
}

// ItemSaved fires after an item create or update commits.
func (t *Trigger) ItemSaved(id uuid.UUID, action Action) {
	t.queue.Enqueue(KindItem, id, action, false)
}

// ItemDeleted fires after an item delete commits.
func (t *Trigger) ItemDeleted(id uuid.UUID) {
	t.queue.Enqueue(KindItem, id, ActionDelete, false)
}

// CategorySaved fires after a category create or update commits.
// displayChanged reports whether fields embedded in item documents (name,
// slug) changed, which decides whether referencing items are resynced.
func (t *Trigger) CategorySaved(id uuid.UUID, action Action, displayChanged bool) {
	t.queue.Enqueue(KindCategory, id, action, displayChanged)
}

// CategoryDeleted fires after a category delete commits.
func (t *Trigger) CategoryDeleted(id uuid.UUID) {
	t.queue.Enqueue(KindCategory, id, ActionDelete, false)
}

// BrandSaved fires after a brand create or update commits.
func (t *Trigger) BrandSaved(id uuid.UUID, action Action, displayChanged bool) {
	t.queue.Enqueue(KindBrand, id, action, displayChanged)
}

// BrandDeleted fires after a brand delete commits.
func (t *Trigger) BrandDeleted(id uuid.UUID) {
	t.queue.Enqueue(KindBrand, id, ActionDelete, false)
}
