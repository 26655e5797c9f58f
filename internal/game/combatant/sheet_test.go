package combatant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/orenaud/neonfall/internal/game/combatant"
)

func soldier() *combatant.Sheet {
	s := combatant.NewSheet("Vex", combatant.CategoryHuman, combatant.ClassGrunt, 3,
		combatant.Stats{Agility: 6, Reflexes: 7, Strength: 8, Endurance: 5, Accuracy: 70}, 100)
	s.EquippedWeapon = &combatant.Weapon{Name: "mono-knife", Kind: combatant.WeaponMelee, DamageType: combatant.DamagePhysical, Damage: 12, Weight: 1.5}
	return s
}

func TestSheet_ApplyDamage_FloorsAtZero(t *testing.T) {
	s := soldier()
	s.ApplyDamage(150)
	assert.Equal(t, 0, s.Health())
}

func TestSheet_Heal_CapsAtMax(t *testing.T) {
	s := soldier()
	s.ApplyDamage(30)
	s.Heal(500)
	assert.Equal(t, s.MaxHealth(), s.Health())
}

func TestSheet_Weapon_AbsentIsExplicit(t *testing.T) {
	s := soldier()
	s.EquippedWeapon = nil
	_, ok := s.Weapon()
	assert.False(t, ok, "missing weapon must be reported via the second return value")
}

func TestSheet_StatBoost_AppliedAndExpires(t *testing.T) {
	s := soldier()
	s.AddStatBoost("strength", 3, 2, "combat_stim")
	assert.Equal(t, 11, s.EffectiveStats().Strength)

	s.TickBoosts()
	assert.Equal(t, 11, s.EffectiveStats().Strength, "boost must survive its first tick")
	s.TickBoosts()
	assert.Equal(t, 8, s.EffectiveStats().Strength, "boost must expire after its duration")
}

func TestSheet_StatBoost_UnknownStatIgnored(t *testing.T) {
	s := soldier()
	s.AddStatBoost("charisma", 5, 2, "test")
	assert.Equal(t, s.Base, s.EffectiveStats())
}

func TestSheet_Inventory(t *testing.T) {
	s := soldier()
	s.Items["medkit"] = 1
	assert.True(t, s.HasItem("medkit"))
	assert.True(t, s.RemoveItem("medkit"))
	assert.False(t, s.HasItem("medkit"))
	assert.False(t, s.RemoveItem("medkit"), "removing an absent item must report false")
}

func TestSheet_WeaponDamage_Default(t *testing.T) {
	s := soldier()
	roll := s.WeaponDamage(nil)
	assert.Equal(t, 16, roll.Damage, "weapon damage + strength/2")
	assert.Equal(t, combatant.DamagePhysical, roll.Type)
}

func TestSheet_WeaponDamage_Unarmed(t *testing.T) {
	s := soldier()
	s.EquippedWeapon = nil
	roll := s.WeaponDamage(nil)
	assert.Equal(t, 4, roll.Damage)
}

func TestPoint_DistanceTo(t *testing.T) {
	a := combatant.Point{X: 0, Y: 0}
	b := combatant.Point{X: 3, Y: 4}
	assert.InDelta(t, 5.0, a.DistanceTo(b), 1e-9)
}

func TestPropertySheet_HealthStaysInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := soldier()
		ops := rapid.SliceOfN(rapid.IntRange(-50, 50), 1, 30).Draw(rt, "ops")
		for _, op := range ops {
			if op >= 0 {
				s.ApplyDamage(op)
			} else {
				s.Heal(-op)
			}
			assert.GreaterOrEqual(rt, s.Health(), 0)
			assert.LessOrEqual(rt, s.Health(), s.MaxHealth())
		}
	})
}
