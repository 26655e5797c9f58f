// Package initiative computes per-round turn order and manages interrupt
// reactions.
package initiative

import (
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orenaud/neonfall/internal/game/combatant"
	"github.com/orenaud/neonfall/internal/game/dice"
)

// heavyWeaponWeight is the weight above which a weapon slows its wielder.
const heavyWeaponWeight = 5.0

const surprisePenalty = -5

// StatusChecker is the slice of the status registry the tracker reads.
type StatusChecker interface {
	HasEffect(target uuid.UUID, effectID string) bool
}

// Entry pairs a combatant with its computed initiative value.
type Entry struct {
	Combatant combatant.View
	Value     int
}

// Condition restricts when a reaction triggers. A zero Condition matches
// every action by another combatant.
type Condition struct {
	// IsTarget triggers only when the registrant is the action's target.
	IsTarget bool
	// ActionTypes, when non-empty, triggers only for the listed action types.
	ActionTypes []string
}

// Reaction is a pre-registered interrupt. Each reaction fires at most once
// per combat.
type Reaction struct {
	Type      string
	Condition Condition
	Cost      map[string]int
	used      bool
}

// Triggered reports one reaction firing in response to an action.
type Triggered struct {
	Interrupter uuid.UUID
	Reaction    *Reaction
}

type modifier struct {
	value    int
	reason   string
	duration int
}

// Tracker owns turn order, surprise flags, timed initiative modifiers, and
// interrupt reactions for one encounter. Not safe for concurrent use.
type Tracker struct {
	roller *dice.Roller
	status StatusChecker
	logger *zap.Logger

	order     []Entry
	surprised map[uuid.UUID]bool
	modifiers map[uuid.UUID][]*modifier
	reactions map[uuid.UUID][]*Reaction
	reactors  []uuid.UUID
}

// NewTracker creates a Tracker rolling initiative dice from roller.
// Precondition: roller, status, and logger must not be nil.
func NewTracker(roller *dice.Roller, status StatusChecker, logger *zap.Logger) *Tracker {
	return &Tracker{
		roller:    roller,
		status:    status,
		logger:    logger,
		surprised: make(map[uuid.UUID]bool),
		modifiers: make(map[uuid.UUID][]*modifier),
		reactions: make(map[uuid.UUID][]*Reaction),
	}
}

// ComputeOrder rolls initiative for every participant and returns the
// turn order, descending by value with ties broken by input order.
//
// Postcondition: The returned order is stored as the tracker's current
// order until the next call.
func (t *Tracker) ComputeOrder(participants []combatant.View) []Entry {
	entries := make([]Entry, 0, len(participants))
	for _, p := range participants {
		stats := p.EffectiveStats()
		base := stats.Reflexes + stats.Agility/2
		equipment := t.equipmentModifier(p)
		status := t.statusModifier(p.ID())
		surprise := 0
		if t.surprised[p.ID()] {
			surprise = surprisePenalty
		}
		timed := 0
		for _, m := range t.modifiers[p.ID()] {
			timed += m.value
		}
		roll := t.roller.Between(1, 10)
		value := base + equipment + status + surprise + timed + roll

		t.logger.Debug("initiative rolled",
			zap.String("combatant", p.Name()),
			zap.Int("base", base),
			zap.Int("equipment", equipment),
			zap.Int("status", status),
			zap.Int("surprise", surprise),
			zap.Int("timed", timed),
			zap.Int("roll", roll),
			zap.Int("value", value))

		entries = append(entries, Entry{Combatant: p, Value: value})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value > entries[j].Value
	})
	t.order = entries
	return entries
}

// Order returns the stored turn order from the last ComputeOrder call.
func (t *Tracker) Order() []Entry {
	return t.order
}

func (t *Tracker) equipmentModifier(p combatant.View) int {
	mod := 0
	for _, implant := range p.Implants() {
		mod += implant.InitiativeBonus
	}
	if weapon, ok := p.Weapon(); ok && weapon.Weight > heavyWeaponWeight {
		mod -= int(weapon.Weight / 2)
	}
	return mod
}

func (t *Tracker) statusModifier(id uuid.UUID) int {
	mod := 0
	if t.status.HasEffect(id, "stunned") {
		mod -= 5
	}
	if t.status.HasEffect(id, "slowed") {
		mod -= 3
	}
	if t.status.HasEffect(id, "hasted") {
		mod += 5
	}
	return mod
}

// SetSurprise flags actor as surprised for this encounter's initiative.
func (t *Tracker) SetSurprise(actor uuid.UUID, surprised bool) {
	t.surprised[actor] = surprised
}

// AddModifier appends a timed initiative adjustment for actor.
func (t *Tracker) AddModifier(actor uuid.UUID, value int, reason string, duration int) {
	t.modifiers[actor] = append(t.modifiers[actor], &modifier{
		value:    value,
		reason:   reason,
		duration: duration,
	})
	t.logger.Debug("initiative modifier added",
		zap.String("actor", actor.String()),
		zap.Int("value", value),
		zap.String("reason", reason),
		zap.Int("duration", duration))
}

// UpdateModifiers decrements every timed modifier's duration and prunes
// expired entries. Call exactly once per round, after all actions resolve.
func (t *Tracker) UpdateModifiers() {
	for actor, mods := range t.modifiers {
		kept := mods[:0]
		for _, m := range mods {
			m.duration--
			if m.duration > 0 {
				kept = append(kept, m)
			}
		}
		t.modifiers[actor] = kept
	}
}

// RegisterReaction pre-registers an interrupt reaction for actor.
func (t *Tracker) RegisterReaction(actor uuid.UUID, reactionType string, cond Condition, cost map[string]int) {
	if _, known := t.reactions[actor]; !known {
		t.reactors = append(t.reactors, actor)
	}
	t.reactions[actor] = append(t.reactions[actor], &Reaction{
		Type:      reactionType,
		Condition: cond,
		Cost:      cost,
	})
}

// CheckInterrupts evaluates every registered reaction against an action by
// actor on target, returning the reactions that fire in registration order.
// A fired reaction is consumed and will not fire again until
// ResetInterrupts.
func (t *Tracker) CheckInterrupts(actor, target uuid.UUID, actionType string) []Triggered {
	var triggered []Triggered
	for _, interrupter := range t.reactors {
		if interrupter == actor {
			continue
		}
		for _, r := range t.reactions[interrupter] {
			if r.used {
				continue
			}
			if r.Condition.IsTarget && interrupter != target {
				continue
			}
			if len(r.Condition.ActionTypes) > 0 && !contains(r.Condition.ActionTypes, actionType) {
				continue
			}
			r.used = true
			triggered = append(triggered, Triggered{Interrupter: interrupter, Reaction: r})
			t.logger.Debug("interrupt triggered",
				zap.String("interrupter", interrupter.String()),
				zap.String("reaction", r.Type))
		}
	}
	return triggered
}

func contains(types []string, t string) bool {
	for _, s := range types {
		if s == t {
			return true
		}
	}
	return false
}

// ResetInterrupts makes every registered reaction available again.
func (t *Tracker) ResetInterrupts() {
	for _, reactions := range t.reactions {
		for _, r := range reactions {
			r.used = false
		}
	}
}

// Reset drops all encounter state: order, surprise, modifiers, reactions.
func (t *Tracker) Reset() {
	t.order = nil
	t.surprised = make(map[uuid.UUID]bool)
	t.modifiers = make(map[uuid.UUID][]*modifier)
	t.reactions = make(map[uuid.UUID][]*Reaction)
	t.reactors = nil
}
