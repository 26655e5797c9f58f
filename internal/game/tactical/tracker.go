// Package tactical tracks battlefield position state: cover, stance,
// flanking, and control zones. It is pure state with a query surface; only
// explicit position-changing actions mutate it.
package tactical

import (
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orenaud/neonfall/internal/game/combatant"
)

// Cover is the closed set of cover levels.
type Cover int

const (
	CoverNone Cover = iota
	CoverPartial
	CoverMedium
	CoverHeavy
)

// String returns the label for the cover level.
func (c Cover) String() string {
	switch c {
	case CoverPartial:
		return "PARTIAL"
	case CoverMedium:
		return "MEDIUM"
	case CoverHeavy:
		return "HEAVY"
	default:
		return "NONE"
	}
}

// DamageMultiplier returns the incoming-damage multiplier for the cover
// level. Heavier cover means a smaller multiplier.
func (c Cover) DamageMultiplier() float64 {
	switch c {
	case CoverPartial:
		return 0.75
	case CoverMedium:
		return 0.5
	case CoverHeavy:
		return 0.25
	default:
		return 1.0
	}
}

// Stance is the closed set of body positions.
type Stance int

const (
	StanceStanding Stance = iota
	StanceCrouched
	StanceProne
	StanceElevated
)

// String returns the label for the stance.
func (s Stance) String() string {
	switch s {
	case StanceCrouched:
		return "CROUCHED"
	case StanceProne:
		return "PRONE"
	case StanceElevated:
		return "ELEVATED"
	default:
		return "STANDING"
	}
}

// StanceModifiers is the multiplier set a stance confers.
type StanceModifiers struct {
	Attack   float64
	Defense  float64
	Mobility float64
	Stealth  float64
}

// Modifiers returns the multiplier set for the stance.
func (s Stance) Modifiers() StanceModifiers {
	switch s {
	case StanceProne:
		return StanceModifiers{Attack: 0.8, Defense: 1.2, Mobility: 0.5, Stealth: 1.5}
	case StanceCrouched:
		return StanceModifiers{Attack: 0.9, Defense: 1.1, Mobility: 0.8, Stealth: 1.3}
	case StanceElevated:
		return StanceModifiers{Attack: 1.2, Defense: 0.9, Mobility: 0.7, Stealth: 0.8}
	default:
		return StanceModifiers{Attack: 1.0, Defense: 1.0, Mobility: 1.0, Stealth: 1.0}
	}
}

// flankingBonus is the damage multiplier for attacking a flanked target.
const flankingBonus = 1.5

// Zone is a circular control zone anchored at its owner's position.
type Zone struct {
	ID     string
	Center combatant.Point
	Radius float64
}

// Advantage is the combined tactical picture of one attacker against one
// target.
type Advantage struct {
	AttackModifier  float64
	DefenseModifier float64
	Ratio           float64
	IsFlanking      bool
	CoverReduction  float64
	PositionAttack  float64
	PositionDefense float64
}

// Tracker holds cover, stance, flanking, and control-zone state keyed by
// combatant ID. Not safe for concurrent use.
type Tracker struct {
	logger   *zap.Logger
	cover    map[uuid.UUID]Cover
	stances  map[uuid.UUID]Stance
	zones    map[uuid.UUID][]Zone
	flanking map[uuid.UUID]map[uuid.UUID]bool
}

// NewTracker creates an empty Tracker.
func NewTracker(logger *zap.Logger) *Tracker {
	return &Tracker{
		logger:   logger,
		cover:    make(map[uuid.UUID]Cover),
		stances:  make(map[uuid.UUID]Stance),
		zones:    make(map[uuid.UUID][]Zone),
		flanking: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

// SetCover records actor's cover level.
func (t *Tracker) SetCover(actor uuid.UUID, cover Cover) {
	t.cover[actor] = cover
	t.logger.Debug("cover changed",
		zap.String("actor", actor.String()),
		zap.String("cover", cover.String()))
}

// CoverOf returns actor's cover level, defaulting to none.
func (t *Tracker) CoverOf(actor uuid.UUID) Cover {
	return t.cover[actor]
}

// SetStance records actor's stance.
func (t *Tracker) SetStance(actor uuid.UUID, stance Stance) {
	t.stances[actor] = stance
	t.logger.Debug("stance changed",
		zap.String("actor", actor.String()),
		zap.String("stance", stance.String()))
}

// StanceOf returns actor's stance, defaulting to standing.
func (t *Tracker) StanceOf(actor uuid.UUID) Stance {
	return t.stances[actor]
}

// AddControlZone registers a zone owned by actor, centered where the actor
// stands when the zone is established.
func (t *Tracker) AddControlZone(actor uuid.UUID, zoneID string, center combatant.Point, radius float64) {
	t.zones[actor] = append(t.zones[actor], Zone{ID: zoneID, Center: center, Radius: radius})
	t.logger.Debug("control zone added",
		zap.String("actor", actor.String()),
		zap.String("zone", zoneID),
		zap.Float64("radius", radius))
}

// ControllersAt returns the IDs of every actor other than the querying one
// whose control zone contains the position.
func (t *Tracker) ControllersAt(querying uuid.UUID, pos combatant.Point) []uuid.UUID {
	var controllers []uuid.UUID
	for owner, zones := range t.zones {
		if owner == querying {
			continue
		}
		for _, z := range zones {
			dx := float64(z.Center.X - pos.X)
			dy := float64(z.Center.Y - pos.Y)
			if math.Sqrt(dx*dx+dy*dy) <= z.Radius {
				controllers = append(controllers, owner)
				break
			}
		}
	}
	return controllers
}

// SetFlanking records whether actor currently flanks target.
func (t *Tracker) SetFlanking(actor, target uuid.UUID, flanking bool) {
	if flanking {
		if t.flanking[actor] == nil {
			t.flanking[actor] = make(map[uuid.UUID]bool)
		}
		t.flanking[actor][target] = true
	} else {
		delete(t.flanking[actor], target)
	}
}

// IsFlanking reports whether actor flanks target.
func (t *Tracker) IsFlanking(actor, target uuid.UUID) bool {
	return t.flanking[actor][target]
}

// FlankingBonus returns the damage multiplier actor earns against target.
func (t *Tracker) FlankingBonus(actor, target uuid.UUID) float64 {
	if t.IsFlanking(actor, target) {
		return flankingBonus
	}
	return 1.0
}

// TacticalAdvantage combines the attacker's stance and flanking against the
// target's stance and cover.
func (t *Tracker) TacticalAdvantage(attacker, target uuid.UUID) Advantage {
	atkMods := t.StanceOf(attacker).Modifiers()
	defMods := t.StanceOf(target).Modifiers()
	coverMult := t.CoverOf(target).DamageMultiplier()
	flankMult := t.FlankingBonus(attacker, target)

	adv := Advantage{
		AttackModifier:  atkMods.Attack * flankMult,
		DefenseModifier: defMods.Defense * coverMult,
		IsFlanking:      flankMult > 1.0,
		CoverReduction:  coverMult,
		PositionAttack:  atkMods.Attack,
		PositionDefense: defMods.Defense,
	}
	if adv.DefenseModifier > 0 {
		adv.Ratio = adv.AttackModifier / adv.DefenseModifier
	} else {
		adv.Ratio = adv.AttackModifier
	}
	return adv
}

// ApplyModifiers scales base damage by the attacker's tactical advantage
// over the target, truncating to an integer.
func (t *Tracker) ApplyModifiers(baseDamage int, attacker, target uuid.UUID) int {
	adv := t.TacticalAdvantage(attacker, target)
	return int(float64(baseDamage) * adv.AttackModifier / adv.DefenseModifier)
}

// Reset drops all tactical state.
func (t *Tracker) Reset() {
	t.cover = make(map[uuid.UUID]Cover)
	t.stances = make(map[uuid.UUID]Stance)
	t.zones = make(map[uuid.UUID][]Zone)
	t.flanking = make(map[uuid.UUID]map[uuid.UUID]bool)
}
