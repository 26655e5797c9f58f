package status

import (
	"github.com/orenaud/neonfall/internal/game/combatant"
)

// BuiltinCatalog returns the stock effect catalog. Content packs loaded via
// LoadDirectory can extend or replace these.
func BuiltinCatalog() *Catalog {
	cat := NewCatalog()
	for _, def := range []*Def{
		{
			ID:            "bleeding",
			Name:          "Bleeding",
			Description:   "Deals physical damage each round",
			Kind:          KindDamageOverTime,
			DamageType:    combatant.DamagePhysical,
			PowerPerLevel: 3,
			BaseDuration:  3,
			Stackable:     true,
			MaxStacks:     3,
			StackGrowth:   1.5,
			Cleansable:    true,
		},
		{
			ID:            "burning",
			Name:          "Burning",
			Description:   "Deals thermal damage each round",
			Kind:          KindDamageOverTime,
			DamageType:    combatant.DamageThermal,
			PowerPerLevel: 5,
			BaseDuration:  2,
			Stackable:     true,
			MaxStacks:     2,
			StackGrowth:   1.3,
			Cleansable:    true,
		},
		{
			ID:            "poisoned",
			Name:          "Poisoned",
			Description:   "Deals chemical damage each round",
			Kind:          KindDamageOverTime,
			DamageType:    combatant.DamageChemical,
			PowerPerLevel: 4,
			BaseDuration:  4,
			Stackable:     true,
			MaxStacks:     3,
			StackGrowth:   1.2,
			Cleansable:    true,
		},
		{
			ID:            "electrocuted",
			Name:          "Electrocuted",
			Description:   "Deals shock damage each round and degrades accuracy",
			Kind:          KindDamageOverTime,
			DamageType:    combatant.DamageShock,
			PowerPerLevel: 3,
			BaseDuration:  2,
			StatModifiers: map[string]int{"accuracy": -10},
			Cleansable:    true,
		},
		{
			ID:              "stunned",
			Name:            "Stunned",
			Description:     "Prevents any action for a round",
			Kind:            KindControl,
			BaseDuration:    1,
			PreventsActions: true,
			Cleansable:      true,
		},
		{
			ID:               "frozen",
			Name:             "Frozen",
			Description:      "Immobilizes the target and amplifies damage taken",
			Kind:             KindControl,
			BaseDuration:     2,
			PreventsMovement: true,
			DamageTaken:      &Multiplier{Base: 1.5},
			Cleansable:       true,
		},
		{
			ID:                  "confused",
			Name:                "Confused",
			Description:         "Chance to fumble an action or strike an ally",
			Kind:                KindControl,
			BaseDuration:        2,
			ActionFailureChance: 0.3,
			FriendlyFireChance:  0.2,
			Cleansable:          true,
		},
		{
			ID:           "weakened",
			Name:         "Weakened",
			Description:  "Reduces damage dealt",
			Kind:         KindDebuff,
			BaseDuration: 3,
			Stackable:    true,
			MaxStacks:    3,
			DamageDealt:  &Multiplier{Base: 1.0, PerStack: -0.1},
			Cleansable:   true,
		},
		{
			ID:           "vulnerable",
			Name:         "Vulnerable",
			Description:  "Increases damage taken",
			Kind:         KindDebuff,
			BaseDuration: 3,
			Stackable:    true,
			MaxStacks:    3,
			DamageTaken:  &Multiplier{Base: 1.0, PerStack: 0.15},
			Cleansable:   true,
		},
		{
			ID:            "slowed",
			Name:          "Slowed",
			Description:   "Reduces speed and initiative",
			Kind:          KindDebuff,
			BaseDuration:  2,
			StatModifiers: map[string]int{"agility": -5, "reflexes": -3},
			Cleansable:    true,
		},
		{
			ID:           "strengthened",
			Name:         "Strengthened",
			Description:  "Increases damage dealt",
			Kind:         KindBuff,
			BaseDuration: 3,
			Stackable:    true,
			MaxStacks:    3,
			DamageDealt:  &Multiplier{Base: 1.0, PerStack: 0.1},
		},
		{
			ID:           "protected",
			Name:         "Protected",
			Description:  "Reduces damage taken",
			Kind:         KindBuff,
			BaseDuration: 3,
			Stackable:    true,
			MaxStacks:    3,
			DamageTaken:  &Multiplier{Base: 1.0, PerStack: -0.1},
		},
		{
			ID:            "hasted",
			Name:          "Hasted",
			Description:   "Increases speed and initiative",
			Kind:          KindBuff,
			BaseDuration:  2,
			StatModifiers: map[string]int{"agility": 5, "reflexes": 3},
		},
		{
			ID:            "regenerating",
			Name:          "Regenerating",
			Description:   "Recovers health each round",
			Kind:          KindHealOverTime,
			PowerPerLevel: 5,
			BaseDuration:  3,
		},
		{
			ID:                 "marked",
			Name:               "Marked",
			Description:        "Increases critical hit chance against this target",
			Kind:               KindSpecial,
			BaseDuration:       2,
			CritChanceModifier: 0.2,
			Cleansable:         true,
		},
		{
			ID:            "hacked",
			Name:          "Hacked",
			Description:   "Cybernetic systems compromised, degrades effectiveness",
			Kind:          KindSpecial,
			BaseDuration:  3,
			StatModifiers: map[string]int{"hacking": -50},
			Cleansable:    true,
			AppliesTo:     []combatant.Category{combatant.CategoryCyber},
		},
	} {
		cat.Register(def)
	}
	return cat
}
