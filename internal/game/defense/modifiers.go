package defense

import (
	"github.com/google/uuid"
)

// Modifier is a temporary combat adjustment installed by defensive,
// movement, or ultimate actions and read when resolving later attacks
// against the owner.
type Modifier struct {
	Source           string
	DamageReduction  float64
	ParryOverride    float64
	HasParryOverride bool
	DodgeBonus       float64
	CritChanceBonus  float64
	CritDamageBonus  float64
	ExtraActions     int
	Duration         int
}

// ModifierBook tracks active temporary modifiers per combatant. Durations
// are in rounds; Tick prunes expired entries.
type ModifierBook struct {
	entries map[uuid.UUID][]*Modifier
}

// NewModifierBook creates an empty book.
func NewModifierBook() *ModifierBook {
	return &ModifierBook{entries: make(map[uuid.UUID][]*Modifier)}
}

// Add installs a modifier for actor.
// Precondition: mod.Duration must be >= 1.
func (b *ModifierBook) Add(actor uuid.UUID, mod Modifier) {
	m := mod
	b.entries[actor] = append(b.entries[actor], &m)
}

// DamageReduction returns the summed active damage reduction for actor,
// capped at 0.9 so no stack of modifiers grants full immunity.
func (b *ModifierBook) DamageReduction(actor uuid.UUID) float64 {
	total := 0.0
	for _, m := range b.entries[actor] {
		total += m.DamageReduction
	}
	if total > 0.9 {
		total = 0.9
	}
	return total
}

// ParryOverride returns the highest active parry override for actor, if any.
func (b *ModifierBook) ParryOverride(actor uuid.UUID) (float64, bool) {
	best := 0.0
	found := false
	for _, m := range b.entries[actor] {
		if m.HasParryOverride && (!found || m.ParryOverride > best) {
			best = m.ParryOverride
			found = true
		}
	}
	return best, found
}

// DodgeBonus returns the summed active dodge bonus for actor.
func (b *ModifierBook) DodgeBonus(actor uuid.UUID) float64 {
	total := 0.0
	for _, m := range b.entries[actor] {
		total += m.DodgeBonus
	}
	return total
}

// CritChanceBonus returns the summed active critical chance bonus for actor.
func (b *ModifierBook) CritChanceBonus(actor uuid.UUID) float64 {
	total := 0.0
	for _, m := range b.entries[actor] {
		total += m.CritChanceBonus
	}
	return total
}

// CritDamageBonus returns the summed active critical damage bonus for actor.
func (b *ModifierBook) CritDamageBonus(actor uuid.UUID) float64 {
	total := 0.0
	for _, m := range b.entries[actor] {
		total += m.CritDamageBonus
	}
	return total
}

// ExtraActions returns the summed extra actions granted to actor this round.
func (b *ModifierBook) ExtraActions(actor uuid.UUID) int {
	total := 0
	for _, m := range b.entries[actor] {
		total += m.ExtraActions
	}
	return total
}

// Active returns a snapshot of actor's live modifiers.
func (b *ModifierBook) Active(actor uuid.UUID) []Modifier {
	out := make([]Modifier, 0, len(b.entries[actor]))
	for _, m := range b.entries[actor] {
		out = append(out, *m)
	}
	return out
}

// Tick decrements every modifier's duration for actor and drops expired
// ones. Call once per actor per round.
func (b *ModifierBook) Tick(actor uuid.UUID) {
	kept := b.entries[actor][:0]
	for _, m := range b.entries[actor] {
		m.Duration--
		if m.Duration > 0 {
			kept = append(kept, m)
		}
	}
	b.entries[actor] = kept
}

// Reset drops all modifiers.
func (b *ModifierBook) Reset() {
	b.entries = make(map[uuid.UUID][]*Modifier)
}
