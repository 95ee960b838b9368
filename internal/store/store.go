// Package store holds the session's entities as an indexed immutable
// sequence, populated once from the CSV ingestion step and never mutated
// afterward.
package store

import "github.com/mhacks/dredd-judging/internal/model"

// Store is an immutable, zero-based indexed sequence of entities.
type Store struct {
	entities []model.Entity
}

// New builds a Store from entities, which must already be ordered by
// ProjectID with no gaps starting at 0.
func New(entities []model.Entity) *Store {
	cp := make([]model.Entity, len(entities))
	copy(cp, entities)
	return &Store{entities: cp}
}

// Len returns the number of entities, K.
func (s *Store) Len() int {
	return len(s.entities)
}

// Get returns the entity at id, or false if id is out of range.
func (s *Store) Get(id int) (model.Entity, bool) {
	if id < 0 || id >= len(s.entities) {
		return model.Entity{}, false
	}
	return s.entities[id], true
}

// All returns a defensive copy of every entity, in ProjectID order.
func (s *Store) All() []model.Entity {
	cp := make([]model.Entity, len(s.entities))
	copy(cp, s.entities)
	return cp
}
