package combat

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Engine manages all active encounters, keyed by encounter ID. The map is
// safe for concurrent use; turns within one Encounter must still be
// serialized by the caller.
type Engine struct {
	mu         sync.RWMutex
	encounters map[uuid.UUID]*Encounter
}

// NewEngine creates an empty Engine.
//
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine() *Engine {
	return &Engine{encounters: make(map[uuid.UUID]*Encounter)}
}

// Start builds an encounter from cfg and registers it.
//
// Postcondition: the returned encounter is retrievable by its ID until
// End is called.
func (e *Engine) Start(cfg Config) *Encounter {
	enc := NewEncounter(cfg)
	e.mu.Lock()
	e.encounters[enc.ID] = enc
	e.mu.Unlock()
	return enc
}

// Get returns the encounter with the given ID.
//
// Postcondition: Returns (encounter, true) if found, or (nil, false).
func (e *Engine) Get(id uuid.UUID) (*Encounter, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	enc, ok := e.encounters[id]
	return enc, ok
}

// End resets and removes the encounter with the given ID.
func (e *Engine) End(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	enc, ok := e.encounters[id]
	if !ok {
		return fmt.Errorf("combat: no encounter %s", id)
	}
	enc.Reset()
	delete(e.encounters, id)
	return nil
}

// Active returns the number of registered encounters.
func (e *Engine) Active() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.encounters)
}
