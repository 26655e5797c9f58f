// Package defense resolves incoming attacks against a defender's avoidance
// and mitigation options: dodge, parry with counter, block, and passive
// absorption.
package defense

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orenaud/neonfall/internal/game/combatant"
	"github.com/orenaud/neonfall/internal/game/dice"
)

// Type is the closed set of defense outcomes.
type Type string

const (
	TypeDodge   Type = "DODGE"
	TypeParry   Type = "PARRY"
	TypeBlock   Type = "BLOCK"
	TypeCounter Type = "COUNTER"
	TypeAbsorb  Type = "ABSORB"
)

// AttackType shapes which defenses apply against an attack.
type AttackType string

const (
	AttackNormal AttackType = "NORMAL"
	AttackRanged AttackType = "RANGED"
	AttackArea   AttackType = "AREA"
)

// blockReduction is the share of damage a successful block removes.
const blockReduction = 0.7

// counterMultiplier scales a counter-attack's weapon damage.
const counterMultiplier = 0.7

// Attack describes one incoming hit.
type Attack struct {
	Damage      int
	Critical    bool
	Type        AttackType
	Unavoidable bool
}

// Profile is a combatant's derived defense chances. It is recomputed on
// demand and never cached across a stat change.
type Profile struct {
	Dodge            float64
	Parry            float64
	Block            float64
	Counter          float64
	PassiveReduction float64
}

// Counter reports a triggered counter-attack.
type Counter struct {
	Damage  int
	Message string
}

// Result is the outcome of resolving one attack.
type Result struct {
	OriginalDamage int
	FinalDamage    int
	Defense        Type
	Avoided        bool
	Counter        *Counter
}

// HistoryEntry records one defensive branch for AI and UI consumption.
type HistoryEntry struct {
	Type    Type
	Success bool
}

// historyCap bounds the per-defender rolling history.
const historyCap = 10

// StatusChecker is the slice of the status registry the resolver reads.
type StatusChecker interface {
	HasEffect(target uuid.UUID, effectID string) bool
}

// Resolver resolves attacks. Not safe for concurrent use.
type Resolver struct {
	roller  *dice.Roller
	status  StatusChecker
	mods    *ModifierBook
	logger  *zap.Logger
	history map[uuid.UUID][]HistoryEntry
}

// NewResolver creates a Resolver.
// Precondition: all arguments must be non-nil.
func NewResolver(roller *dice.Roller, status StatusChecker, mods *ModifierBook, logger *zap.Logger) *Resolver {
	return &Resolver{
		roller:  roller,
		status:  status,
		mods:    mods,
		logger:  logger,
		history: make(map[uuid.UUID][]HistoryEntry),
	}
}

// Modifiers returns the temporary modifier book the resolver reads.
func (r *Resolver) Modifiers() *ModifierBook {
	return r.mods
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ProfileFor computes the defender's current defense profile from effective
// stats, equipment, and active temporary modifiers.
//
// Postcondition: Every chance in the returned profile is within [0, 1].
func (r *Resolver) ProfileFor(defender combatant.View) Profile {
	stats := defender.EffectiveStats()
	id := defender.ID()

	dodge := 0.05 + float64(stats.Agility)*0.01 + float64(stats.Reflexes)*0.005
	dodge += r.mods.DodgeBonus(id)

	parry := 0.0
	if weapon, ok := defender.Weapon(); ok && weapon.Kind == combatant.WeaponMelee {
		parry = 0.10 + float64(stats.Reflexes)*0.008 + float64(stats.Strength)*0.004
	}
	if override, ok := r.mods.ParryOverride(id); ok {
		parry = override
	}

	block := float64(stats.Strength)*0.005 + float64(stats.Endurance)*0.007
	if shield, ok := defender.Shield(); ok {
		base := shield.BlockChance
		if base == 0 {
			base = 0.15
		}
		block += base
	}

	counter := 0.0
	if parry > 0 {
		counter = 0.30 + float64(stats.Reflexes)*0.006 + float64(stats.Precision)*0.008
	}

	passive := float64(stats.Armor)*0.005 + float64(stats.Endurance)*0.002

	return Profile{
		Dodge:            clamp01(dodge),
		Parry:            clamp01(parry),
		Block:            clamp01(block),
		Counter:          clamp01(counter),
		PassiveReduction: clamp01(passive),
	}
}

// ProcessAttack resolves one attack from attacker against defender. At most
// one active defense is attempted; on failure or when avoidance is
// impossible, passive reduction applies. A successful parry may immediately
// counter, mutating the attacker's health.
func (r *Resolver) ProcessAttack(attacker, defender combatant.View, atk Attack) Result {
	profile := r.ProfileFor(defender)
	result := Result{
		OriginalDamage: atk.Damage,
		FinalDamage:    atk.Damage,
	}

	if r.canAvoid(defender, atk) {
		choice, chance := r.chooseDefense(profile, atk.Type)
		if r.roller.Percent(chance) {
			switch choice {
			case TypeDodge:
				result.Avoided = true
				result.Defense = TypeDodge
				result.FinalDamage = 0
				r.record(defender.ID(), TypeDodge, true)
				r.logger.Debug("attack dodged",
					zap.String("defender", defender.Name()),
					zap.String("attacker", attacker.Name()))
				return result
			case TypeParry:
				result.Avoided = true
				result.Defense = TypeParry
				result.FinalDamage = 0
				r.record(defender.ID(), TypeParry, true)
				r.logger.Debug("attack parried",
					zap.String("defender", defender.Name()),
					zap.String("attacker", attacker.Name()))
				if r.roller.Percent(profile.Counter) {
					roll := defender.WeaponDamage(attacker)
					dmg := int(float64(roll.Damage) * counterMultiplier)
					attacker.ApplyDamage(dmg)
					result.Counter = &Counter{
						Damage:  dmg,
						Message: fmt.Sprintf("%s counters for %d damage", defender.Name(), dmg),
					}
					r.record(defender.ID(), TypeCounter, true)
					r.logger.Debug("counter attack",
						zap.String("defender", defender.Name()),
						zap.Int("damage", dmg))
				}
				return result
			case TypeBlock:
				result.Defense = TypeBlock
				result.FinalDamage = int(float64(atk.Damage) * (1 - blockReduction))
				r.record(defender.ID(), TypeBlock, true)
				r.logger.Debug("attack blocked",
					zap.String("defender", defender.Name()),
					zap.Int("damage", result.FinalDamage))
				return result
			}
		}
		r.record(defender.ID(), choice, false)
	}

	reduction := clamp01(profile.PassiveReduction + r.mods.DamageReduction(defender.ID()))
	if reduction > 0 {
		result.Defense = TypeAbsorb
		result.FinalDamage = int(float64(atk.Damage) * (1 - reduction))
		r.record(defender.ID(), TypeAbsorb, true)
		r.logger.Debug("damage absorbed",
			zap.String("defender", defender.Name()),
			zap.Int("damage", result.FinalDamage))
	}
	return result
}

func (r *Resolver) canAvoid(defender combatant.View, atk Attack) bool {
	if atk.Unavoidable {
		return false
	}
	id := defender.ID()
	if r.status.HasEffect(id, "stunned") || r.status.HasEffect(id, "frozen") {
		return false
	}
	return true
}

// chooseDefense adjusts chances for the attack type and picks the single
// best active defense. Parry wins ties, then dodge, then block.
func (r *Resolver) chooseDefense(p Profile, attackType AttackType) (Type, float64) {
	dodge, parry, block := p.Dodge, p.Parry, p.Block
	switch attackType {
	case AttackRanged:
		parry = 0
		dodge = clamp01(dodge * 1.2)
	case AttackArea:
		dodge *= 0.5
		parry *= 0.5
	}
	if parry >= dodge && parry >= block {
		return TypeParry, parry
	}
	if dodge >= block {
		return TypeDodge, dodge
	}
	return TypeBlock, block
}

func (r *Resolver) record(defender uuid.UUID, t Type, success bool) {
	h := append(r.history[defender], HistoryEntry{Type: t, Success: success})
	if len(h) > historyCap {
		h = h[len(h)-historyCap:]
	}
	r.history[defender] = h
}

// History returns the defender's rolling defense history, oldest first.
func (r *Resolver) History(defender uuid.UUID) []HistoryEntry {
	return r.history[defender]
}

// Reset drops all defense history. Temporary modifiers are owned by the
// ModifierBook and reset separately.
func (r *Resolver) Reset() {
	r.history = make(map[uuid.UUID][]HistoryEntry)
}
