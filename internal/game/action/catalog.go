// Package action holds the special-action catalog and the executor that
// applies an action's mechanical effects to the battlefield.
package action

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orenaud/neonfall/internal/game/combatant"
)

// Category is the closed set of action categories.
type Category string

const (
	CategoryAttack   Category = "ATTACK"
	CategoryDefense  Category = "DEFENSE"
	CategorySupport  Category = "SUPPORT"
	CategoryMovement Category = "MOVEMENT"
	CategoryUltimate Category = "ULTIMATE"
)

// UnmarshalYAML decodes a Category, rejecting labels outside the closed set.
func (c *Category) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch Category(s) {
	case CategoryAttack, CategoryDefense, CategorySupport, CategoryMovement, CategoryUltimate:
		*c = Category(s)
		return nil
	default:
		return fmt.Errorf("action: unknown category %q", s)
	}
}

// Cost is what using an action deducts from the actor. Zero fields cost
// nothing; Item names a consumable removed from inventory.
type Cost struct {
	ActionPoints int    `yaml:"action_points"`
	Energy       int    `yaml:"energy"`
	Health       int    `yaml:"health"`
	Item         string `yaml:"item"`
}

// Def is an immutable catalog entry. Shared, read-only, loaded once.
type Def struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    Category `yaml:"category"`

	DamageMultiplier float64 `yaml:"damage_multiplier"`
	AccuracyModifier float64 `yaml:"accuracy_modifier"`
	ArmorPenetration float64 `yaml:"armor_penetration"`
	CritChanceBonus  float64 `yaml:"crit_chance_bonus"`
	CritDamageBonus  float64 `yaml:"crit_damage_bonus"`
	NumAttacks       int     `yaml:"num_attacks"`

	DamageReduction float64 `yaml:"damage_reduction"`
	ParryChance     float64 `yaml:"parry_chance"`
	Duration        int     `yaml:"duration"`

	HealBase         int            `yaml:"heal_base"`
	HealPerLevel     int            `yaml:"heal_per_level"`
	StatBoosts       map[string]int `yaml:"stat_boosts"`
	SideEffectHealth int            `yaml:"side_effect_health"`

	MovementDistance int     `yaml:"movement_distance"`
	DodgeBonus       float64 `yaml:"dodge_bonus"`
	StunChance       float64 `yaml:"stun_chance"`

	ExtraActions int `yaml:"extra_actions"`

	Cost         Cost                   `yaml:"cost"`
	Cooldown     int                    `yaml:"cooldown"`
	Requirements map[string]int         `yaml:"requirements"`
	WeaponKinds  []combatant.WeaponKind `yaml:"weapon_kinds"`
}

// Catalog holds all known action definitions keyed by ID.
type Catalog struct {
	defs map[string]*Def
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{defs: make(map[string]*Def)}
}

// Register adds def, overwriting any existing entry with the same ID.
func (c *Catalog) Register(def *Def) {
	c.defs[def.ID] = def
}

// Get returns the Def for id, or (nil, false) if not found.
func (c *Catalog) Get(id string) (*Def, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered Defs.
func (c *Catalog) All() []*Def {
	out := make([]*Def, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d)
	}
	return out
}

// LoadDirectory reads every *.yaml file in dir as a Def and returns a
// populated Catalog.
// Postcondition: Returns a non-nil Catalog, or an error if any file fails to parse.
func LoadDirectory(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("action: reading action dir %q: %w", dir, err)
	}
	cat := NewCatalog()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("action: reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("action: parsing %q: %w", path, err)
		}
		cat.Register(&def)
	}
	return cat, nil
}

// BuiltinCatalog returns the stock action catalog.
func BuiltinCatalog() *Catalog {
	cat := NewCatalog()
	for _, def := range []*Def{
		{
			ID:               "power_strike",
			Name:             "Power Strike",
			Description:      "A heavy blow dealing extra damage",
			Category:         CategoryAttack,
			DamageMultiplier: 1.5,
			AccuracyModifier: 0.9,
			NumAttacks:       1,
			Cost:             Cost{ActionPoints: 2},
			Cooldown:         1,
			Requirements:     map[string]int{"strength": 5},
			WeaponKinds:      []combatant.WeaponKind{combatant.WeaponMelee},
		},
		{
			ID:               "rapid_fire",
			Name:             "Rapid Fire",
			Description:      "Several quick shots at reduced accuracy",
			Category:         CategoryAttack,
			NumAttacks:       3,
			DamageMultiplier: 0.7,
			AccuracyModifier: 0.8,
			Cost:             Cost{ActionPoints: 2},
			Cooldown:         2,
			Requirements:     map[string]int{"reflexes": 6},
			WeaponKinds:      []combatant.WeaponKind{combatant.WeaponRanged},
		},
		{
			ID:               "precision_shot",
			Name:             "Precision Shot",
			Description:      "A careful shot that punches through armor",
			Category:         CategoryAttack,
			DamageMultiplier: 1.2,
			ArmorPenetration: 0.5,
			CritChanceBonus:  0.2,
			NumAttacks:       1,
			Cost:             Cost{ActionPoints: 2, Energy: 10},
			Cooldown:         2,
			Requirements:     map[string]int{"precision": 7},
			WeaponKinds:      []combatant.WeaponKind{combatant.WeaponRanged, combatant.WeaponSmart},
		},
		{
			ID:              "defensive_stance",
			Name:            "Defensive Stance",
			Description:     "Brace against incoming damage",
			Category:        CategoryDefense,
			DamageReduction: 0.5,
			Duration:        2,
			Cost:            Cost{ActionPoints: 1},
			Cooldown:        3,
			Requirements:    map[string]int{"endurance": 5},
		},
		{
			ID:           "parry",
			Name:         "Parry",
			Description:  "Ready a parry against the next attack",
			Category:     CategoryDefense,
			ParryChance:  0.7,
			Duration:     1,
			Cost:         Cost{ActionPoints: 1},
			Cooldown:     1,
			Requirements: map[string]int{"reflexes": 6},
			WeaponKinds:  []combatant.WeaponKind{combatant.WeaponMelee},
		},
		{
			ID:           "first_aid",
			Name:         "First Aid",
			Description:  "Patch wounds with a medkit",
			Category:     CategorySupport,
			HealBase:     20,
			HealPerLevel: 5,
			Cost:         Cost{ActionPoints: 2, Item: "medkit"},
			Cooldown:     3,
			Requirements: map[string]int{"medical": 3},
		},
		{
			ID:               "combat_stim",
			Name:             "Combat Stim",
			Description:      "Inject a stimulant for a temporary edge",
			Category:         CategorySupport,
			StatBoosts:       map[string]int{"strength": 3, "reflexes": 3, "agility": 3},
			Duration:         3,
			SideEffectHealth: -5,
			Cost:             Cost{ActionPoints: 1, Item: "combat_stim"},
			Cooldown:         5,
		},
		{
			ID:               "tactical_retreat",
			Name:             "Tactical Retreat",
			Description:      "Fall back quickly, harder to hit",
			Category:         CategoryMovement,
			MovementDistance: 3,
			DodgeBonus:       0.3,
			Duration:         1,
			Cost:             Cost{ActionPoints: 1},
			Cooldown:         2,
			Requirements:     map[string]int{"agility": 5},
		},
		{
			ID:               "charge",
			Name:             "Charge",
			Description:      "Rush an enemy and slam into them",
			Category:         CategoryMovement,
			MovementDistance: 4,
			DamageMultiplier: 1.3,
			StunChance:       0.3,
			Cost:             Cost{ActionPoints: 2},
			Cooldown:         3,
			Requirements:     map[string]int{"strength": 6, "agility": 4},
		},
		{
			ID:           "adrenaline_rush",
			Name:         "Adrenaline Rush",
			Description:  "Surge of adrenaline grants an extra action",
			Category:     CategoryUltimate,
			ExtraActions: 1,
			StatBoosts:   map[string]int{"reflexes": 5, "agility": 5},
			Duration:     1,
			Cost:         Cost{Energy: 50, Health: 10},
			Cooldown:     5,
			Requirements: map[string]int{"level": 10},
		},
		{
			ID:              "critical_overload",
			Name:            "Critical Overload",
			Description:     "Overclock targeting systems for lethal precision",
			Category:        CategoryUltimate,
			CritChanceBonus: 0.5,
			CritDamageBonus: 0.5,
			Duration:        2,
			Cost:            Cost{Energy: 40},
			Cooldown:        5,
			Requirements:    map[string]int{"hacking": 8, "level": 8},
		},
	} {
		cat.Register(def)
	}
	return cat
}
