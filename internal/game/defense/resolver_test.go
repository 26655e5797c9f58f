package defense_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/orenaud/neonfall/internal/game/combatant"
	"github.com/orenaud/neonfall/internal/game/defense"
	"github.com/orenaud/neonfall/internal/game/dice"
)

type fakeStatus struct {
	effects map[uuid.UUID]map[string]bool
}

func (f *fakeStatus) HasEffect(target uuid.UUID, effectID string) bool {
	return f.effects[target][effectID]
}

func (f *fakeStatus) set(target uuid.UUID, effectID string) {
	if f.effects == nil {
		f.effects = make(map[uuid.UUID]map[string]bool)
	}
	if f.effects[target] == nil {
		f.effects[target] = make(map[string]bool)
	}
	f.effects[target][effectID] = true
}

func newResolver(status *fakeStatus) *defense.Resolver {
	roller := dice.NewRoller(dice.NewSeededSource(42), zap.NewNop())
	return defense.NewResolver(roller, status, defense.NewModifierBook(), zap.NewNop())
}

func fighter(name string, stats combatant.Stats) *combatant.Sheet {
	return combatant.NewSheet(name, combatant.CategoryHuman, combatant.ClassGrunt, 1, stats, 100)
}

func TestProfileFor_Formulas(t *testing.T) {
	r := newResolver(&fakeStatus{})
	d := fighter("vex", combatant.Stats{
		Agility: 10, Reflexes: 10, Strength: 10, Endurance: 10,
		Precision: 10, Armor: 20,
	})

	p := r.ProfileFor(d)
	assert.InDelta(t, 0.05+0.10+0.05, p.Dodge, 1e-9)
	assert.Zero(t, p.Parry, "no melee weapon means no parry")
	assert.Zero(t, p.Counter, "no parry means no counter")
	assert.InDelta(t, 0.05+0.07, p.Block, 1e-9)
	assert.InDelta(t, 0.10+0.02, p.PassiveReduction, 1e-9)
}

func TestProfileFor_MeleeWeaponEnablesParry(t *testing.T) {
	r := newResolver(&fakeStatus{})
	d := fighter("vex", combatant.Stats{Reflexes: 10, Strength: 10, Precision: 5})
	d.EquippedWeapon = &combatant.Weapon{
		Name: "mono-knife", Kind: combatant.WeaponMelee,
		DamageType: combatant.DamagePhysical, Damage: 12,
	}

	p := r.ProfileFor(d)
	assert.InDelta(t, 0.10+0.08+0.04, p.Parry, 1e-9)
	assert.InDelta(t, 0.30+0.06+0.04, p.Counter, 1e-9)
}

func TestProfileFor_ShieldEnablesBlock(t *testing.T) {
	r := newResolver(&fakeStatus{})
	d := fighter("vex", combatant.Stats{Strength: 10, Endurance: 10})
	d.EquippedShield = &combatant.Shield{Name: "riot shield"}

	p := r.ProfileFor(d)
	assert.InDelta(t, 0.15+0.05+0.07, p.Block, 1e-9)

	d.EquippedShield.BlockChance = 0.25
	assert.InDelta(t, 0.25+0.05+0.07, r.ProfileFor(d).Block, 1e-9)
}

func TestProfileFor_BoundsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := newResolver(&fakeStatus{})
		stat := func(name string) int { return rapid.IntRange(0, 300).Draw(t, name) }
		d := fighter("vex", combatant.Stats{
			Agility:   stat("agi"),
			Reflexes:  stat("ref"),
			Strength:  stat("str"),
			Endurance: stat("end"),
			Precision: stat("pre"),
			Armor:     stat("arm"),
		})
		if rapid.Bool().Draw(t, "melee") {
			d.EquippedWeapon = &combatant.Weapon{Name: "blade", Kind: combatant.WeaponMelee, Damage: 10}
		}
		if rapid.Bool().Draw(t, "shield") {
			d.EquippedShield = &combatant.Shield{Name: "shield"}
		}
		p := r.ProfileFor(d)
		for _, c := range []float64{p.Dodge, p.Parry, p.Block, p.Counter, p.PassiveReduction} {
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, 1.0)
		}
	})
}

func TestProcessAttack_UnavoidableExactPassive(t *testing.T) {
	r := newResolver(&fakeStatus{})
	a := fighter("raider", combatant.Stats{})
	d := fighter("vex", combatant.Stats{Armor: 40, Endurance: 50})

	res := r.ProcessAttack(a, d, defense.Attack{Damage: 100, Type: defense.AttackNormal, Unavoidable: true})
	// passive = 40*0.005 + 50*0.002 = 0.3
	assert.Equal(t, 100, res.OriginalDamage)
	assert.Equal(t, 70, res.FinalDamage)
	assert.Equal(t, defense.TypeAbsorb, res.Defense)
	assert.False(t, res.Avoided)
}

func TestProcessAttack_StunnedSkipsAvoidance(t *testing.T) {
	status := &fakeStatus{}
	r := newResolver(status)
	a := fighter("raider", combatant.Stats{})
	d := fighter("vex", combatant.Stats{Agility: 200}) // would always dodge
	status.set(d.ID(), "stunned")

	res := r.ProcessAttack(a, d, defense.Attack{Damage: 50, Type: defense.AttackNormal})
	assert.False(t, res.Avoided)
	assert.Equal(t, 50, res.FinalDamage)
}

func TestProcessAttack_GuaranteedDodge(t *testing.T) {
	r := newResolver(&fakeStatus{})
	a := fighter("raider", combatant.Stats{})
	d := fighter("vex", combatant.Stats{Agility: 200})

	res := r.ProcessAttack(a, d, defense.Attack{Damage: 50, Type: defense.AttackNormal})
	assert.True(t, res.Avoided)
	assert.Equal(t, defense.TypeDodge, res.Defense)
	assert.Zero(t, res.FinalDamage)

	hist := r.History(d.ID())
	require.Len(t, hist, 1)
	assert.Equal(t, defense.TypeDodge, hist[0].Type)
	assert.True(t, hist[0].Success)
}

func TestProcessAttack_ParryWinsTiesAndCounters(t *testing.T) {
	r := newResolver(&fakeStatus{})
	a := fighter("raider", combatant.Stats{})
	// reflexes 200 pushes both parry and dodge to the 1.0 clamp
	d := fighter("vex", combatant.Stats{Reflexes: 200})
	d.EquippedWeapon = &combatant.Weapon{
		Name: "mono-knife", Kind: combatant.WeaponMelee,
		DamageType: combatant.DamagePhysical, Damage: 10,
	}

	res := r.ProcessAttack(a, d, defense.Attack{Damage: 50, Type: defense.AttackNormal})
	assert.True(t, res.Avoided)
	assert.Equal(t, defense.TypeParry, res.Defense)
	assert.Zero(t, res.FinalDamage)

	// counter chance also clamps to 1: 0.7x the deterministic weapon roll
	require.NotNil(t, res.Counter)
	assert.Equal(t, 7, res.Counter.Damage)
	assert.Equal(t, 100-7, a.Health())
}

func TestProcessAttack_RangedForcesNoParry(t *testing.T) {
	r := newResolver(&fakeStatus{})
	a := fighter("raider", combatant.Stats{})
	d := fighter("vex", combatant.Stats{Reflexes: 200})
	d.EquippedWeapon = &combatant.Weapon{
		Name: "mono-knife", Kind: combatant.WeaponMelee,
		DamageType: combatant.DamagePhysical, Damage: 10,
	}

	res := r.ProcessAttack(a, d, defense.Attack{Damage: 50, Type: defense.AttackRanged})
	assert.True(t, res.Avoided)
	assert.Equal(t, defense.TypeDodge, res.Defense)
	assert.Nil(t, res.Counter)
}

func TestProcessAttack_AreaFavorsBlock(t *testing.T) {
	r := newResolver(&fakeStatus{})
	a := fighter("raider", combatant.Stats{})
	d := fighter("vex", combatant.Stats{Agility: 200})
	d.EquippedShield = &combatant.Shield{Name: "tower shield", BlockChance: 1.0}

	// area halves dodge; the certain block wins and reduces by 70%
	res := r.ProcessAttack(a, d, defense.Attack{Damage: 100, Type: defense.AttackArea})
	assert.Equal(t, defense.TypeBlock, res.Defense)
	assert.False(t, res.Avoided)
	assert.Equal(t, 30, res.FinalDamage)
}

func TestProcessAttack_ModifierBookReduction(t *testing.T) {
	r := newResolver(&fakeStatus{})
	a := fighter("raider", combatant.Stats{})
	d := fighter("vex", combatant.Stats{})

	r.Modifiers().Add(d.ID(), defense.Modifier{
		Source: "defensive_stance", DamageReduction: 0.5, Duration: 2,
	})
	res := r.ProcessAttack(a, d, defense.Attack{Damage: 100, Type: defense.AttackNormal, Unavoidable: true})
	assert.Equal(t, 50, res.FinalDamage)
	assert.Equal(t, defense.TypeAbsorb, res.Defense)
}

func TestProcessAttack_ParryOverrideWithoutWeapon(t *testing.T) {
	r := newResolver(&fakeStatus{})
	d := fighter("vex", combatant.Stats{})
	r.Modifiers().Add(d.ID(), defense.Modifier{
		Source: "parry_stance", ParryOverride: 1.0, HasParryOverride: true, Duration: 1,
	})
	p := r.ProfileFor(d)
	assert.Equal(t, 1.0, p.Parry)
	assert.Greater(t, p.Counter, 0.0)
}

func TestHistory_CappedAtTen(t *testing.T) {
	r := newResolver(&fakeStatus{})
	a := fighter("raider", combatant.Stats{})
	d := fighter("vex", combatant.Stats{Armor: 10})

	for i := 0; i < 15; i++ {
		r.ProcessAttack(a, d, defense.Attack{Damage: 10, Type: defense.AttackNormal, Unavoidable: true})
	}
	assert.Len(t, r.History(d.ID()), 10)
}

func TestModifierBook_TickExpires(t *testing.T) {
	b := defense.NewModifierBook()
	id := uuid.New()
	b.Add(id, defense.Modifier{Source: "stance", DamageReduction: 0.3, Duration: 2})
	b.Add(id, defense.Modifier{Source: "retreat", DodgeBonus: 0.2, Duration: 1})

	assert.InDelta(t, 0.3, b.DamageReduction(id), 1e-9)
	assert.InDelta(t, 0.2, b.DodgeBonus(id), 1e-9)

	b.Tick(id)
	assert.InDelta(t, 0.3, b.DamageReduction(id), 1e-9)
	assert.Zero(t, b.DodgeBonus(id))

	b.Tick(id)
	assert.Zero(t, b.DamageReduction(id))
}

func TestModifierBook_ReductionCap(t *testing.T) {
	b := defense.NewModifierBook()
	id := uuid.New()
	for i := 0; i < 5; i++ {
		b.Add(id, defense.Modifier{Source: "stack", DamageReduction: 0.4, Duration: 3})
	}
	assert.InDelta(t, 0.9, b.DamageReduction(id), 1e-9)
}

func TestResolver_Reset(t *testing.T) {
	r := newResolver(&fakeStatus{})
	a := fighter("raider", combatant.Stats{})
	d := fighter("vex", combatant.Stats{Armor: 10})
	r.ProcessAttack(a, d, defense.Attack{Damage: 10, Unavoidable: true})
	require.NotEmpty(t, r.History(d.ID()))

	r.Reset()
	assert.Empty(t, r.History(d.ID()))
}
