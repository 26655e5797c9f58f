package group_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/orenaud/neonfall/internal/game/ai"
	"github.com/orenaud/neonfall/internal/game/combatant"
	"github.com/orenaud/neonfall/internal/game/dice"
	"github.com/orenaud/neonfall/internal/game/group"
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

func newCoordinator(seed int64, status *fakeStatus) *group.Coordinator {
	roller := dice.NewRoller(dice.NewSeededSource(seed), zap.NewNop())
	tactics := ai.NewSystem(roller, zap.NewNop())
	return group.NewCoordinator(roller, tactics, status, zap.NewNop())
}

func soldier(name string, str, end int) *combatant.Sheet {
	s := combatant.NewSheet(name, combatant.CategoryHuman, combatant.ClassGrunt, 2,
		combatant.Stats{Strength: str, Endurance: end}, 100)
	s.EquippedWeapon = &combatant.Weapon{
		Name: "pipe", Kind: combatant.WeaponMelee,
		DamageType: combatant.DamagePhysical, Damage: 10,
	}
	return s
}

func TestCreate_RolesFromAbilitiesAndStats(t *testing.T) {
	c := newCoordinator(1, nil)

	medic := soldier("medic", 4, 4)
	medic.AbilityList = []string{"field_heal"}
	jammer := soldier("jammer", 4, 4)
	jammer.AbilityList = []string{"stun_baton"}
	runner := soldier("runner", 4, 4)
	runner.AbilityList = []string{"hack_terminal"}
	wall := soldier("wall", 3, 9)
	bruiser := soldier("bruiser", 9, 3)

	g, err := c.Create("squad", []combatant.View{medic, jammer, runner, wall, bruiser})
	require.NoError(t, err)

	assert.Equal(t, group.RoleSupport, g.Roles[medic.ID()])
	assert.Equal(t, group.RoleControl, g.Roles[jammer.ID()])
	assert.Equal(t, group.RoleUtility, g.Roles[runner.ID()])
	assert.Equal(t, group.RoleTank, g.Roles[wall.ID()])
	assert.Equal(t, group.RoleDamage, g.Roles[bruiser.ID()])
}

func TestCreate_DuplicateAndEmpty(t *testing.T) {
	c := newCoordinator(1, nil)
	_, err := c.Create("squad", []combatant.View{soldier("a", 5, 5)})
	require.NoError(t, err)

	_, err = c.Create("squad", []combatant.View{soldier("b", 5, 5)})
	assert.Error(t, err)

	_, err = c.Create("empty", nil)
	assert.Error(t, err)
}

func TestElectLeader_ClassAndLevelWeighting(t *testing.T) {
	c := newCoordinator(1, nil)

	grunt := soldier("grunt", 5, 5)
	grunt.CharLevel = 5 // 50 + 10 = 60
	boss := combatant.NewSheet("boss", combatant.CategoryHuman, combatant.ClassBoss, 1,
		combatant.Stats{}, 100) // 10 + 100 + 10 = 120
	smart := soldier("smart", 5, 5) // 20 + 10 + 50 + 9 = 89
	smart.Base.Intelligence = 10
	smart.Base.Perception = 3

	g, err := c.Create("squad", []combatant.View{grunt, smart, boss})
	require.NoError(t, err)
	assert.Equal(t, boss.ID(), g.Leader)
}

func TestSynergies_RolePairs(t *testing.T) {
	c := newCoordinator(1, nil)

	wall := soldier("wall", 3, 9)
	medic := soldier("medic", 4, 4)
	medic.AbilityList = []string{"field_heal"}

	g, err := c.Create("squad", []combatant.View{wall, medic})
	require.NoError(t, err)

	effects := c.Synergies(g.ID, wall.ID(), nil)
	require.Len(t, effects, 1)
	assert.Equal(t, "bastion", effects[0].Name)
	assert.Equal(t, 1.2, effects[0].HealingReceivedMultiplier)

	// The same synergy is visible from the support side.
	assert.Len(t, c.Synergies(g.ID, medic.ID(), nil), 1)
}

func TestSynergies_WeaponPairConditionalOnStatus(t *testing.T) {
	status := &fakeStatus{}
	c := newCoordinator(1, status)

	zapper := soldier("zapper", 9, 3)
	zapper.EquippedWeapon = &combatant.Weapon{
		Name: "emp_coil", Kind: combatant.WeaponRanged,
		DamageType: combatant.DamageEMP, Damage: 8,
	}
	bruiser := soldier("bruiser", 9, 3)

	g, err := c.Create("squad", []combatant.View{zapper, bruiser})
	require.NoError(t, err)

	victim := soldier("victim", 1, 1)

	// Without the electrocuted effect the overload synergy filters out.
	assert.Empty(t, c.Synergies(g.ID, bruiser.ID(), victim))

	status.set(victim.ID(), "electrocuted")
	effects := c.Synergies(g.ID, bruiser.ID(), victim)
	require.Len(t, effects, 1)
	assert.Equal(t, 1.25, effects[0].PhysicalVsEMP)
}

func TestFormationBonuses(t *testing.T) {
	c := newCoordinator(1, nil)
	lead := soldier("lead", 9, 3)
	lead.CharLevel = 10
	side := soldier("side", 9, 3)
	g, err := c.Create("squad", []combatant.View{lead, side})
	require.NoError(t, err)
	require.Equal(t, lead.ID(), g.Leader)

	// Default line formation.
	assert.Equal(t, 0.2, c.MemberBonuses(g.ID, lead.ID()).FrontDamageReduction)

	require.NoError(t, c.SetFormation(g.ID, group.FormationWedge))
	assert.Equal(t, 1.2, c.MemberBonuses(g.ID, lead.ID()).DamageMultiplier)
	assert.Equal(t, 0.1, c.MemberBonuses(g.ID, lead.ID()).CritChanceBonus)
	assert.Equal(t, 1.1, c.MemberBonuses(g.ID, side.ID()).DamageMultiplier)

	require.NoError(t, c.SetFormation(g.ID, group.FormationCircle))
	assert.Equal(t, 0.15, c.MemberBonuses(g.ID, lead.ID()).DamageReduction)

	require.NoError(t, c.SetFormation(g.ID, group.FormationScattered))
	assert.Equal(t, 0.15, c.MemberBonuses(g.ID, side.ID()).EvasionBonus)

	require.NoError(t, c.SetFormation(g.ID, group.FormationFlanking))
	assert.Equal(t, 1.3, c.MemberBonuses(g.ID, side.ID()).FlankDamageMultiplier)

	assert.Error(t, c.SetFormation("ghost", group.FormationLine))
}

func TestCoordinateAttack_WedgeContributions(t *testing.T) {
	c := newCoordinator(1, nil)
	lead := soldier("lead", 10, 3) // weapon 10 + str/2 = 15
	lead.CharLevel = 10
	side := soldier("side", 10, 3)
	g, err := c.Create("squad", []combatant.View{lead, side})
	require.NoError(t, err)
	require.NoError(t, c.SetFormation(g.ID, group.FormationWedge))

	victim := soldier("victim", 1, 1)
	victim.HP = 100

	result, err := c.CoordinateAttack(g.ID, victim)
	require.NoError(t, err)

	// Leader: 15 × 1.2 × 1.2 = 21; side: 15 × 1.1 × 1.2 = 19.
	byMember := map[uuid.UUID]int{}
	for _, contrib := range result.Contributions {
		byMember[contrib.Member] = contrib.Damage
	}
	assert.Equal(t, 21, byMember[lead.ID()])
	assert.Equal(t, 19, byMember[side.ID()])
	assert.Equal(t, 40, result.TotalDamage)
	assert.Equal(t, 60, victim.HP)
	assert.Equal(t, 60, result.TargetHealth)

	assert.Equal(t, 40.0, c.ThreatLevel(g.ID, victim.ID()))
	assert.Equal(t, victim.ID(), c.HighestThreatTarget(g.ID))
}

func TestCoordinateAttack_ControlSynergyAgainstStunned(t *testing.T) {
	status := &fakeStatus{}
	c := newCoordinator(1, status)

	bruiser := soldier("bruiser", 10, 3) // 15 base damage
	jammer := soldier("jammer", 4, 4)
	jammer.AbilityList = []string{"stun_baton"}
	jammer.EquippedWeapon = nil // unarmed: str/2 = 2
	g, err := c.Create("squad", []combatant.View{bruiser, jammer})
	require.NoError(t, err)

	victim := soldier("victim", 1, 1)
	victim.HP = 100
	status.set(victim.ID(), "stunned")

	result, err := c.CoordinateAttack(g.ID, victim)
	require.NoError(t, err)

	byMember := map[uuid.UUID]int{}
	for _, contrib := range result.Contributions {
		byMember[contrib.Member] = contrib.Damage
	}
	// Both sides of the damage+control pair get the 1.3 multiplier.
	assert.Equal(t, 19, byMember[bruiser.ID()], "15 × 1.3")
	assert.Equal(t, 2, byMember[jammer.ID()], "int(2 × 1.3)")
}

func TestCoordinateAttack_SkipsDowned(t *testing.T) {
	c := newCoordinator(1, nil)
	a := soldier("a", 10, 3)
	b := soldier("b", 10, 3)
	g, err := c.Create("squad", []combatant.View{a, b})
	require.NoError(t, err)
	b.HP = 0

	victim := soldier("victim", 1, 1)
	result, err := c.CoordinateAttack(g.ID, victim)
	require.NoError(t, err)
	assert.Len(t, result.Contributions, 1)
	assert.Equal(t, 15, result.TotalDamage)
}

func TestCoordinateDefense_TankInterventionAndCap(t *testing.T) {
	c := newCoordinator(1, nil)

	ward := soldier("ward", 5, 5)
	members := []combatant.View{ward}
	for i := 0; i < 5; i++ {
		tank := soldier("tank", 3, 9)
		members = append(members, tank)
	}
	g, err := c.Create("squad", members)
	require.NoError(t, err)
	require.NoError(t, c.SetFormation(g.ID, group.FormationCircle))

	attacker := uuid.New()

	// With five tanks at 60% each an intervention is very likely; run
	// rounds until one fires and check the cap and threat bookkeeping.
	for i := 0; i < 50; i++ {
		result, err := c.CoordinateDefense(g.ID, attacker, ward)
		require.NoError(t, err)
		if !result.Intervened {
			continue
		}
		assert.LessOrEqual(t, result.DamageReduction, 0.9)
		assert.Greater(t, result.DamageReduction, 0.0)
		assert.Equal(t, float64(20*len(result.Defenders)),
			c.ThreatLevel(g.ID, attacker))
		return
	}
	t.Fatal("no intervention in 50 rounds")
}

func TestCoordinateDefense_NonMember(t *testing.T) {
	c := newCoordinator(1, nil)
	g, err := c.Create("squad", []combatant.View{soldier("a", 5, 5)})
	require.NoError(t, err)

	_, err = c.CoordinateDefense(g.ID, uuid.New(), soldier("stranger", 5, 5))
	assert.Error(t, err)
}

func TestCoordinateDefenseReductionCapped(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := newCoordinator(rapid.Int64().Draw(t, "seed"), nil)
		ward := soldier("ward", 5, 5)
		members := []combatant.View{ward}
		n := rapid.IntRange(1, 8).Draw(t, "tanks")
		for i := 0; i < n; i++ {
			members = append(members, soldier("tank", 3, 9))
		}
		g, err := c.Create("squad", members)
		if err != nil {
			t.Fatal(err)
		}
		result, err := c.CoordinateDefense(g.ID, uuid.New(), ward)
		if err != nil {
			t.Fatal(err)
		}
		if result.DamageReduction < 0 || result.DamageReduction > 0.9 {
			t.Fatalf("reduction out of bounds: %v", result.DamageReduction)
		}
	})
}

func TestCoordinateSupport_PicksMostWounded(t *testing.T) {
	c := newCoordinator(1, nil)

	medic := soldier("medic", 4, 4)
	medic.AbilityList = []string{"field_heal"}
	hurt := soldier("hurt", 9, 3)
	hurt.HP = 20
	fine := soldier("fine", 9, 3)

	g, err := c.Create("squad", []combatant.View{medic, hurt, fine})
	require.NoError(t, err)

	result, err := c.CoordinateSupport(g.ID, nil, 25)
	require.NoError(t, err)
	assert.Equal(t, hurt.ID(), result.Target)
	assert.Equal(t, 25, result.TotalHealing)
	assert.Equal(t, 45, hurt.HP)
}

func TestCoordinateSupport_BastionAmplifiesTankHealing(t *testing.T) {
	c := newCoordinator(1, nil)

	wall := soldier("wall", 3, 9)
	wall.HP = 10
	medic := soldier("medic", 4, 4)
	medic.AbilityList = []string{"field_heal"}

	g, err := c.Create("squad", []combatant.View{wall, medic})
	require.NoError(t, err)

	result, err := c.CoordinateSupport(g.ID, wall, 20)
	require.NoError(t, err)
	assert.Equal(t, 24, result.TotalHealing, "20 × 1.2 bastion")
	assert.Equal(t, 34, wall.HP)
}

func TestCoordinateSupport_NoSupporter(t *testing.T) {
	c := newCoordinator(1, nil)
	g, err := c.Create("squad", []combatant.View{soldier("a", 9, 3)})
	require.NoError(t, err)

	_, err = c.CoordinateSupport(g.ID, nil, 10)
	assert.Error(t, err)
}

func TestCoordinateTargets_DefensiveSpread(t *testing.T) {
	c := newCoordinator(1, nil)
	a := soldier("a", 9, 3)
	b := soldier("b", 9, 3)
	d := soldier("d", 9, 3)
	g, err := c.Create("squad", []combatant.View{a, b, d})
	require.NoError(t, err)
	g.Tactic = ai.TacticDefensive

	t1 := soldier("t1", 5, 5)
	t2 := soldier("t2", 5, 5)
	orders := c.CoordinateTargets(g.ID, []combatant.View{t1, t2})
	require.Len(t, orders, 3)
	assert.Equal(t, t1.ID(), orders[a.ID()].Target.ID())
	assert.Equal(t, t2.ID(), orders[b.ID()].Target.ID())
	assert.Equal(t, t1.ID(), orders[d.ID()].Target.ID())
	for _, order := range orders {
		assert.True(t, order.Defensive)
	}
}

func TestCoordinateTargets_FlankingSplit(t *testing.T) {
	c := newCoordinator(1, nil)
	var members []combatant.View
	for i := 0; i < 4; i++ {
		members = append(members, soldier("m", 9, 3))
	}
	g, err := c.Create("squad", members)
	require.NoError(t, err)
	g.Tactic = ai.TacticFlanking

	target := soldier("target", 5, 5)
	orders := c.CoordinateTargets(g.ID, []combatant.View{target})
	require.Len(t, orders, 4)
	left := 0
	for _, order := range orders {
		assert.Equal(t, target.ID(), order.Target.ID())
		if order.FlankLeft {
			left++
		}
	}
	assert.Equal(t, 2, left)
}

func TestCoordinateTargets_TacticalPrioritizesHighValue(t *testing.T) {
	c := newCoordinator(1, nil)
	a := soldier("a", 9, 3)
	b := soldier("b", 9, 3)
	g, err := c.Create("squad", []combatant.View{a, b})
	require.NoError(t, err)
	g.Tactic = ai.TacticTactical

	player := soldier("pc", 5, 5)
	player.Player = true
	mook := soldier("mook", 5, 5)
	mook.CharLevel = 1

	orders := c.CoordinateTargets(g.ID, []combatant.View{mook, player})
	require.Len(t, orders, 2)

	// One member takes the high-value player with priority, the other
	// spreads to the mook.
	var priority, spread int
	for _, order := range orders {
		if order.Priority {
			priority++
			assert.Equal(t, player.ID(), order.Target.ID())
		} else {
			spread++
			assert.Equal(t, mook.ID(), order.Target.ID())
		}
	}
	assert.Equal(t, 1, priority)
	assert.Equal(t, 1, spread)
}

func TestCoordinateTargets_AggressiveFocusesFire(t *testing.T) {
	// Focus probability is 0.8 per member; with one candidate everyone
	// converges regardless of the rolls.
	c := newCoordinator(1, nil)
	var members []combatant.View
	for i := 0; i < 3; i++ {
		members = append(members, soldier("m", 9, 3))
	}
	g, err := c.Create("squad", members)
	require.NoError(t, err)
	g.Tactic = ai.TacticAggressive

	target := soldier("target", 5, 5)
	orders := c.CoordinateTargets(g.ID, []combatant.View{target})
	require.Len(t, orders, 3)
	for _, order := range orders {
		assert.Equal(t, target.ID(), order.Target.ID())
		assert.True(t, order.Focus)
	}
}

func TestAddThreat_FloorsAtZero(t *testing.T) {
	c := newCoordinator(1, nil)
	g, err := c.Create("squad", []combatant.View{soldier("a", 5, 5)})
	require.NoError(t, err)

	target := uuid.New()
	c.AddThreat(g.ID, target, 30)
	c.AddThreat(g.ID, target, -100)
	assert.Equal(t, 0.0, c.ThreatLevel(g.ID, target))
}

func TestReset_KeepsCompositionDropsThreat(t *testing.T) {
	c := newCoordinator(1, nil)
	wall := soldier("wall", 3, 9)
	medic := soldier("medic", 4, 4)
	medic.AbilityList = []string{"field_heal"}
	g, err := c.Create("squad", []combatant.View{wall, medic})
	require.NoError(t, err)

	target := uuid.New()
	c.AddThreat(g.ID, target, 55)
	c.Reset()

	assert.Equal(t, 0.0, c.ThreatLevel(g.ID, target))
	assert.Equal(t, group.RoleTank, c.Group("squad").Roles[wall.ID()])
	assert.Len(t, c.Synergies(g.ID, wall.ID(), nil), 1)
}
