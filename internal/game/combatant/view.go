// Package combatant defines the capability surface the combat core requires
// from every participant, plus a concrete Sheet implementation.
//
// The engine never owns a combatant's lifecycle: it attaches side tables
// keyed by the stable ID and reads everything else through View.
package combatant

import (
	"math"

	"github.com/google/uuid"
)

// Category is the broad kind of combatant, used by effect application
// restrictions and tactic adaptation.
type Category string

const (
	CategoryHuman    Category = "HUMAN"
	CategoryRobot    Category = "ROBOT"
	CategoryDrone    Category = "DRONE"
	CategoryCyborg   Category = "CYBORG"
	CategoryMutant   Category = "MUTANT"
	CategorySecurity Category = "SECURITY"
	CategoryHacker   Category = "HACKER"
	CategoryCyber    Category = "CYBER"
	CategoryStandard Category = "STANDARD"
)

// Class is the combat specialization of a non-player combatant.
type Class string

const (
	ClassGrunt    Class = "GRUNT"
	ClassElite    Class = "ELITE"
	ClassSniper   Class = "SNIPER"
	ClassTank     Class = "TANK"
	ClassSupport  Class = "SUPPORT"
	ClassAssassin Class = "ASSASSIN"
	ClassBoss     Class = "BOSS"
)

// WeaponKind distinguishes melee, ranged, and smart-linked weapons.
type WeaponKind string

const (
	WeaponMelee  WeaponKind = "MELEE"
	WeaponRanged WeaponKind = "RANGED"
	WeaponSmart  WeaponKind = "SMART"
)

// DamageType is the elemental type carried by a weapon or effect.
type DamageType string

const (
	DamagePhysical DamageType = "PHYSICAL"
	DamageThermal  DamageType = "THERMAL"
	DamageChemical DamageType = "CHEMICAL"
	DamageShock    DamageType = "SHOCK"
	DamageEMP      DamageType = "EMP"
)

// Point is a 2-D battlefield position.
type Point struct {
	X int
	Y int
}

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(q Point) float64 {
	dx := float64(p.X - q.X)
	dy := float64(p.Y - q.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Stats holds the effective numeric attributes of a combatant.
// All values are post-modifier; the character subsystem owns the base values.
type Stats struct {
	Agility      int
	Reflexes     int
	Strength     int
	Endurance    int
	Precision    int
	Intelligence int
	Perception   int
	Armor        int
	Hacking      int
	Medical      int
	// Accuracy is the percentile hit chance before action modifiers.
	Accuracy int
}

// Add returns a copy of s with the named stat adjusted by delta.
// Unknown stat names are ignored; status-effect catalogs may carry stats
// this engine does not track.
func (s Stats) Add(name string, delta int) Stats {
	switch name {
	case "agility":
		s.Agility += delta
	case "reflexes":
		s.Reflexes += delta
	case "strength":
		s.Strength += delta
	case "endurance":
		s.Endurance += delta
	case "precision":
		s.Precision += delta
	case "intelligence":
		s.Intelligence += delta
	case "perception":
		s.Perception += delta
	case "armor":
		s.Armor += delta
	case "hacking":
		s.Hacking += delta
	case "medical":
		s.Medical += delta
	case "accuracy":
		s.Accuracy += delta
	}
	return s
}

// Value returns the named stat, or false for names this engine does not
// track.
func (s Stats) Value(name string) (int, bool) {
	switch name {
	case "agility":
		return s.Agility, true
	case "reflexes":
		return s.Reflexes, true
	case "strength":
		return s.Strength, true
	case "endurance":
		return s.Endurance, true
	case "precision":
		return s.Precision, true
	case "intelligence":
		return s.Intelligence, true
	case "perception":
		return s.Perception, true
	case "armor":
		return s.Armor, true
	case "hacking":
		return s.Hacking, true
	case "medical":
		return s.Medical, true
	case "accuracy":
		return s.Accuracy, true
	}
	return 0, false
}

// Weapon is an equipped weapon as the combat core sees it.
type Weapon struct {
	Name       string
	Kind       WeaponKind
	DamageType DamageType
	Damage     int
	Weight     float64
}

// Shield is an equipped shield.
type Shield struct {
	Name string
	// BlockChance is the shield's base block chance; 0 means use the
	// standard 0.15 default.
	BlockChance float64
}

// Implant is an installed combat implant contributing flat bonuses.
type Implant struct {
	Name            string
	InitiativeBonus int
}

// DamageRoll is the result of a weapon damage computation, produced by the
// character subsystem.
type DamageRoll struct {
	Damage   int
	Critical bool
	Type     DamageType
}

// View is the capability interface every combatant-like entity must
// implement to participate in combat. Optional capabilities (no weapon, no
// shield) are explicit second return values, never runtime probes.
type View interface {
	ID() uuid.UUID
	Name() string
	IsPlayer() bool
	Category() Category
	Class() Class
	Level() int

	// EffectiveStats returns current stats including temporary boosts.
	EffectiveStats() Stats
	Weapon() (Weapon, bool)
	Shield() (Shield, bool)
	Implants() []Implant
	Abilities() []string

	Health() int
	MaxHealth() int
	// ApplyDamage reduces health by amount, flooring at zero.
	ApplyDamage(amount int)
	// Heal raises health by amount, capped at MaxHealth.
	Heal(amount int)

	ActionPoints() int
	SpendActionPoints(n int)
	Energy() int
	SpendEnergy(n int)

	HasItem(id string) bool
	RemoveItem(id string) bool

	// AddStatBoost installs a timed stat adjustment; TickBoosts decrements
	// durations and prunes expired boosts.
	AddStatBoost(stat string, value, duration int, source string)
	TickBoosts()

	Position() Point
	IsGuarding() bool

	// WeaponDamage computes this combatant's weapon damage roll against
	// target. Owned by the character subsystem; the combat core only
	// consumes the result.
	WeaponDamage(target View) DamageRoll
}
