package progress

import (
	"sync"

	"github.com/google/uuid"
)

type key struct {
	userID     uuid.UUID
	documentID uuid.UUID
}

// Registry hands out one pipeline per (user, document) pair. Each pipeline
// owns its last-saved watermark exclusively.
type Registry struct {
	mu        sync.Mutex
	store     Store
	opts      []Option
	pipelines map[key]*Pipeline
}

func NewRegistry(store Store, opts ...Option) *Registry {
	return &Registry{
		store:     store,
		opts:      opts,
		pipelines: make(map[key]*Pipeline),
	}
}

// For returns the pipeline for the pair, creating it on first use.
func (r *Registry) For(userID, documentID uuid.UUID) *Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{userID: userID, documentID: documentID}
	p, ok := r.pipelines[k]
	if !ok {
		p = NewPipeline(r.store, userID, documentID, r.opts...)
		r.pipelines[k] = p
	}
	return p
}

// Drop forgets the pair's pipeline, e.g. after a session ends.
func (r *Registry) Drop(userID, documentID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pipelines, key{userID: userID, documentID: documentID})
}
