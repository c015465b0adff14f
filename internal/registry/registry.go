package registry

import (
	"context"
	"sort"
	"sync"

	logx "bdaybot/pkg/logx"
)

// Registry is the durable set of broadcast subscribers.
//
// The in-memory set is the source of truth for reads; every successful
// mutation is persisted synchronously before it becomes visible, so the store
// always reflects the set as of the last successful mutation. A failed Save
// leaves both the store and the in-memory set unchanged.
type Registry struct {
	log   logx.Logger
	store Store

	mu  sync.Mutex
	set map[int64]struct{}
}

// New loads persisted state from the store. No prior state is an empty set.
func New(ctx context.Context, store Store, log logx.Logger) (*Registry, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	ids, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &Registry{log: log, store: store, set: set}, nil
}

// Add inserts id and persists. It returns false without touching the store
// when id is already subscribed.
func (r *Registry) Add(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.set[id]; ok {
		return false, nil
	}
	r.set[id] = struct{}{}
	if err := r.store.Save(ctx, r.idsLocked()); err != nil {
		delete(r.set, id)
		return false, err
	}
	r.log.Info("subscriber added", logx.Int64("chat_id", id), logx.Int("total", len(r.set)))
	return true, nil
}

// Remove deletes id and persists. It returns false without touching the store
// when id was not subscribed.
func (r *Registry) Remove(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.set[id]; !ok {
		return false, nil
	}
	delete(r.set, id)
	if err := r.store.Save(ctx, r.idsLocked()); err != nil {
		r.set[id] = struct{}{}
		return false, err
	}
	r.log.Info("subscriber removed", logx.Int64("chat_id", id), logx.Int("total", len(r.set)))
	return true, nil
}

func (r *Registry) Contains(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.set[id]
	return ok
}

// List returns the current subscribers. Sorted for stable logs and tests;
// subscription order is not meaningful.
func (r *Registry) List() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idsLocked()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.set)
}

func (r *Registry) idsLocked() []int64 {
	ids := make([]int64, 0, len(r.set))
	for id := range r.set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
