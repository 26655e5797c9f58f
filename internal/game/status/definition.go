// Package status implements the timed status-effect registry: effect
// definitions, the per-combatant active-instance state machine, round
// ticking, and the modifier query surface the rest of the engine reads.
package status

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orenaud/neonfall/internal/game/combatant"
)

// Kind is the closed set of status-effect kinds.
type Kind int

const (
	KindBuff Kind = iota
	KindDebuff
	KindDamageOverTime
	KindHealOverTime
	KindControl
	KindSpecial
)

// String returns the canonical catalog label for the Kind.
func (k Kind) String() string {
	switch k {
	case KindBuff:
		return "BUFF"
	case KindDebuff:
		return "DEBUFF"
	case KindDamageOverTime:
		return "DAMAGE_OVER_TIME"
	case KindHealOverTime:
		return "HEAL_OVER_TIME"
	case KindControl:
		return "CONTROL"
	case KindSpecial:
		return "SPECIAL"
	default:
		return "UNKNOWN"
	}
}

// ParseKind parses a catalog label into a Kind.
//
// Postcondition: Returns an error for labels outside the closed set.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "BUFF":
		return KindBuff, nil
	case "DEBUFF":
		return KindDebuff, nil
	case "DAMAGE_OVER_TIME":
		return KindDamageOverTime, nil
	case "HEAL_OVER_TIME":
		return KindHealOverTime, nil
	case "CONTROL":
		return KindControl, nil
	case "SPECIAL":
		return KindSpecial, nil
	default:
		return 0, fmt.Errorf("status: unknown effect kind %q", s)
	}
}

// UnmarshalYAML decodes a Kind from its catalog label.
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Multiplier is a stack-dependent damage multiplier: value = Base + PerStack*stacks.
// A flat multiplier has PerStack == 0.
type Multiplier struct {
	Base     float64 `yaml:"base"`
	PerStack float64 `yaml:"per_stack"`
}

// Value evaluates the multiplier for the given stack count.
func (m Multiplier) Value(stacks int) float64 {
	if stacks < 1 {
		stacks = 1
	}
	return m.Base + m.PerStack*float64(stacks)
}

// Def is the static definition of a status effect. Definitions are shared,
// read-only data: loaded once from YAML or taken from BuiltinCatalog.
//
// Formula fields replace the original callable catalog entries:
// PowerPerLevel gives tick power = PowerPerLevel * level for over-time
// kinds, and StackGrowth multiplies an instance's power on each re-apply.
type Def struct {
	ID          string               `yaml:"id"`
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Kind        Kind                 `yaml:"kind"`
	DamageType  combatant.DamageType `yaml:"damage_type"`

	PowerPerLevel int     `yaml:"power_per_level"`
	BaseDuration  int     `yaml:"base_duration"`
	Stackable     bool    `yaml:"stackable"`
	MaxStacks     int     `yaml:"max_stacks"`
	StackGrowth   float64 `yaml:"stack_growth"`

	StatModifiers map[string]int `yaml:"stat_modifiers"`
	DamageDealt   *Multiplier    `yaml:"damage_dealt"`
	DamageTaken   *Multiplier    `yaml:"damage_taken"`

	PreventsActions     bool    `yaml:"prevents_actions"`
	PreventsMovement    bool    `yaml:"prevents_movement"`
	ActionFailureChance float64 `yaml:"action_failure_chance"`
	FriendlyFireChance  float64 `yaml:"friendly_fire_chance"`
	CritChanceModifier  float64 `yaml:"crit_chance_modifier"`

	Cleansable bool                  `yaml:"cleansable"`
	AppliesTo  []combatant.Category  `yaml:"applies_to"`

	LuaOnApply  string `yaml:"lua_on_apply"`
	LuaOnExpire string `yaml:"lua_on_expire"`
}

// appliesToCategory reports whether the definition may affect the category.
// An empty AppliesTo list means no restriction.
func (d *Def) appliesToCategory(cat combatant.Category) bool {
	if len(d.AppliesTo) == 0 {
		return true
	}
	for _, c := range d.AppliesTo {
		if c == cat {
			return true
		}
	}
	return false
}

// Catalog holds all known effect definitions keyed by ID.
type Catalog struct {
	defs map[string]*Def
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{defs: make(map[string]*Def)}
}

// Register adds def to the catalog, overwriting any existing entry with the
// same ID.
// Precondition: def must not be nil and def.ID must not be empty.
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

// LoadDirectory reads every *.yaml file in dir, parses each as a Def, and
// returns a populated Catalog.
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Catalog, or an error if any file fails to parse.
func LoadDirectory(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("status: reading effect dir %q: %w", dir, err)
	}
	cat := NewCatalog()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("status: reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("status: parsing %q: %w", path, err)
		}
		cat.Register(&def)
	}
	return cat, nil
}
