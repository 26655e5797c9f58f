// Package group coordinates squads of combatants: automatic role
// assignment, leader election, formations with per-member bonuses, pairwise
// synergies, and coordinated attack, defense, and support resolution.
package group

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orenaud/neonfall/internal/game/ai"
	"github.com/orenaud/neonfall/internal/game/combatant"
	"github.com/orenaud/neonfall/internal/game/dice"
)

// Role is a member's function within the group.
type Role string

const (
	RoleTank    Role = "TANK"
	RoleDamage  Role = "DAMAGE"
	RoleSupport Role = "SUPPORT"
	RoleControl Role = "CONTROL"
	RoleUtility Role = "UTILITY"
)

// Formation is the group's spatial arrangement.
type Formation string

const (
	FormationLine      Formation = "LINE"
	FormationWedge     Formation = "WEDGE"
	FormationCircle    Formation = "CIRCLE"
	FormationScattered Formation = "SCATTERED"
	FormationFlanking  Formation = "FLANKING"
)

// MemberBonus holds the modifiers a formation grants one member. A zero
// DamageMultiplier or FlankDamageMultiplier means "no multiplier", read back
// as 1.0.
type MemberBonus struct {
	FrontDamageReduction  float64
	RearVulnerability     float64
	DamageMultiplier      float64
	CritChanceBonus       float64
	DamageReduction       float64
	AttackPenalty         float64
	EvasionBonus          float64
	CoordinationPenalty   float64
	FlankDamageMultiplier float64
	StealthBonus          float64
}

func (b MemberBonus) damageMultiplier() float64 {
	if b.DamageMultiplier == 0 {
		return 1.0
	}
	return b.DamageMultiplier
}

func (b MemberBonus) flankMultiplier() float64 {
	if b.FlankDamageMultiplier == 0 {
		return 1.0
	}
	return b.FlankDamageMultiplier
}

// Synergy is an effect produced by a pair of members whose roles or weapons
// complement each other.
type Synergy struct {
	Name        string
	Description string

	HealingReceivedMultiplier float64
	DamageVsControlled        float64
	SupportDurationBonus      int
	PhysicalVsEMP             float64
	ExtraStatusChance         float64
}

// controlEffects are the status effects that count as "controlled" for the
// damage-versus-controlled synergy.
var controlEffects = []string{"stunned", "frozen", "confused"}

type pair struct {
	a, b uuid.UUID
}

// Group is one registered squad.
type Group struct {
	ID        string
	Members   []combatant.View
	Roles     map[uuid.UUID]Role
	Formation Formation
	Leader    uuid.UUID
	Tactic    ai.Tactic
}

func (g *Group) member(id uuid.UUID) combatant.View {
	for _, m := range g.Members {
		if m.ID() == id {
			return m
		}
	}
	return nil
}

// StatusChecker reports active status effects; the status registry
// implements it.
type StatusChecker interface {
	HasEffect(target uuid.UUID, effectID string) bool
}

// AttackContribution is one member's share of a coordinated attack.
type AttackContribution struct {
	Member   uuid.UUID
	Damage   int
	Critical bool
}

// AttackResult is the outcome of a coordinated attack.
type AttackResult struct {
	TotalDamage   int
	Contributions []AttackContribution
	TargetHealth  int
}

// DefenseResult is the outcome of a coordinated defense attempt.
type DefenseResult struct {
	Intervened      bool
	Defenders       []uuid.UUID
	DamageReduction float64
}

// SupportEffect is one supporter's contribution to a support action.
type SupportEffect struct {
	Supporter uuid.UUID
	Healing   int
	Synergy   string
}

// SupportResult is the outcome of a coordinated support action.
type SupportResult struct {
	Target       uuid.UUID
	TotalHealing int
	Effects      []SupportEffect
}

// Assignment is one member's coordinated orders.
type Assignment struct {
	Target    combatant.View
	Focus     bool
	Defensive bool
	FlankLeft bool
	Priority  bool
}

// Coordinator manages combat groups. Not safe for concurrent use.
type Coordinator struct {
	roller  *dice.Roller
	tactics *ai.System
	status  StatusChecker
	logger  *zap.Logger

	groups    map[string]*Group
	bonuses   map[string]map[uuid.UUID]MemberBonus
	synergies map[string]map[pair][]Synergy
	threat    map[string]map[uuid.UUID]float64
}

// NewCoordinator creates a Coordinator.
// Precondition: roller, tactics, and logger must not be nil; status may be
// nil, disabling status-conditional synergies.
func NewCoordinator(roller *dice.Roller, tactics *ai.System, status StatusChecker, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		roller:    roller,
		tactics:   tactics,
		status:    status,
		logger:    logger,
		groups:    make(map[string]*Group),
		bonuses:   make(map[string]map[uuid.UUID]MemberBonus),
		synergies: make(map[string]map[pair][]Synergy),
		threat:    make(map[string]map[uuid.UUID]float64),
	}
}

// Create registers a group: roles are assigned from abilities and stats, a
// leader is elected, the group tactic is derived from member tactics, and
// the group starts in line formation.
func (c *Coordinator) Create(id string, members []combatant.View) (*Group, error) {
	if _, ok := c.groups[id]; ok {
		return nil, fmt.Errorf("group: %q already exists", id)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("group: %q needs at least one member", id)
	}

	g := &Group{
		ID:        id,
		Members:   members,
		Roles:     make(map[uuid.UUID]Role, len(members)),
		Formation: FormationLine,
	}
	for _, m := range members {
		g.Roles[m.ID()] = assignRole(m)
		c.tactics.RegisterEnemy(m)
	}
	g.Leader = electLeader(members)
	g.Tactic = c.determineTactic(members)

	allies := make([]uuid.UUID, 0, len(members)-1)
	for _, m := range members {
		allies = allies[:0]
		for _, other := range members {
			if other.ID() != m.ID() {
				allies = append(allies, other.ID())
			}
		}
		c.tactics.SetAllies(m.ID(), append([]uuid.UUID(nil), allies...))
	}

	c.groups[id] = g
	c.threat[id] = make(map[uuid.UUID]float64)
	c.computeSynergies(g)
	c.applyFormationBonuses(g)

	c.logger.Debug("group created",
		zap.String("group", id),
		zap.Int("members", len(members)),
		zap.String("tactic", string(g.Tactic)))
	return g, nil
}

// Group returns the registered group, or nil.
func (c *Coordinator) Group(id string) *Group {
	return c.groups[id]
}

// assignRole picks a member's role: ability keywords first, then endurance
// against strength.
func assignRole(m combatant.View) Role {
	var healing, control, tech bool
	for _, ability := range m.Abilities() {
		a := strings.ToLower(ability)
		if strings.Contains(a, "heal") {
			healing = true
		}
		if strings.Contains(a, "stun") || strings.Contains(a, "freeze") || strings.Contains(a, "control") {
			control = true
		}
		if strings.Contains(a, "hack") || strings.Contains(a, "tech") {
			tech = true
		}
	}
	switch {
	case healing:
		return RoleSupport
	case control:
		return RoleControl
	case tech:
		return RoleUtility
	}
	stats := m.EffectiveStats()
	if stats.Endurance > stats.Strength {
		return RoleTank
	}
	return RoleDamage
}

func leaderScore(m combatant.View) float64 {
	score := float64(m.Level()) * 10
	switch m.Class() {
	case combatant.ClassElite:
		score += 50
	case combatant.ClassBoss:
		score += 100
	}
	score += float64(m.MaxHealth()) / 10
	stats := m.EffectiveStats()
	score += float64(stats.Intelligence) * 5
	score += float64(stats.Perception) * 3
	return score
}

func electLeader(members []combatant.View) uuid.UUID {
	best := members[0]
	bestScore := leaderScore(best)
	for _, m := range members[1:] {
		if s := leaderScore(m); s > bestScore {
			best, bestScore = m, s
		}
	}
	return best.ID()
}

// determineTactic picks the most common member tactic with probability 0.7,
// otherwise keeps a balanced fallback.
func (c *Coordinator) determineTactic(members []combatant.View) ai.Tactic {
	counts := make(map[ai.Tactic]int)
	var mostCommon ai.Tactic
	for _, m := range members {
		t := c.tactics.Tactic(m.ID())
		counts[t]++
		if counts[t] > counts[mostCommon] {
			mostCommon = t
		}
	}
	if mostCommon != "" && c.roller.Percent(0.7) {
		return mostCommon
	}
	return ai.TacticBalanced
}

// computeSynergies records pairwise role and weapon synergies.
func (c *Coordinator) computeSynergies(g *Group) {
	table := make(map[pair][]Synergy)
	for i, m1 := range g.Members {
		for _, m2 := range g.Members[i+1:] {
			var effects []Synergy
			r1, r2 := g.Roles[m1.ID()], g.Roles[m2.ID()]

			switch {
			case r1 == RoleTank && r2 == RoleSupport:
				effects = append(effects, Synergy{
					Name:                      "bastion",
					Description:               "the tank receives amplified healing",
					HealingReceivedMultiplier: 1.2,
				})
			case r1 == RoleDamage && r2 == RoleControl:
				effects = append(effects, Synergy{
					Name:               "exposed target",
					Description:        "bonus damage against controlled targets",
					DamageVsControlled: 1.3,
				})
			case r1 == RoleSupport && r2 == RoleUtility:
				effects = append(effects, Synergy{
					Name:                 "signal boost",
					Description:          "support effects last longer",
					SupportDurationBonus: 1,
				})
			}

			if w1, ok := m1.Weapon(); ok {
				if w2, ok := m2.Weapon(); ok {
					switch {
					case w1.DamageType == combatant.DamageEMP && w2.DamageType == combatant.DamagePhysical:
						effects = append(effects, Synergy{
							Name:          "system overload",
							Description:   "EMP-softened targets take extra physical damage",
							PhysicalVsEMP: 1.25,
						})
					case w1.DamageType == combatant.DamageThermal && w2.DamageType == combatant.DamageChemical:
						effects = append(effects, Synergy{
							Name:              "catalytic reaction",
							Description:       "chance of an extra status effect",
							ExtraStatusChance: 0.2,
						})
					}
				}
			}

			if len(effects) > 0 {
				table[pair{m1.ID(), m2.ID()}] = effects
			}
		}
	}
	c.synergies[g.ID] = table
}

// SetFormation changes the group's formation and recomputes member bonuses.
func (c *Coordinator) SetFormation(id string, f Formation) error {
	g, ok := c.groups[id]
	if !ok {
		return fmt.Errorf("group: %q does not exist", id)
	}
	g.Formation = f
	c.applyFormationBonuses(g)
	c.logger.Debug("formation set",
		zap.String("group", id),
		zap.String("formation", string(f)))
	return nil
}

func (c *Coordinator) applyFormationBonuses(g *Group) {
	bonuses := make(map[uuid.UUID]MemberBonus, len(g.Members))
	switch g.Formation {
	case FormationLine:
		for _, m := range g.Members {
			bonuses[m.ID()] = MemberBonus{
				FrontDamageReduction: 0.2,
				RearVulnerability:    0.2,
			}
		}
	case FormationWedge:
		for _, m := range g.Members {
			if m.ID() == g.Leader {
				bonuses[m.ID()] = MemberBonus{
					DamageMultiplier: 1.2,
					CritChanceBonus:  0.1,
				}
			} else {
				bonuses[m.ID()] = MemberBonus{DamageMultiplier: 1.1}
			}
		}
	case FormationCircle:
		for _, m := range g.Members {
			bonuses[m.ID()] = MemberBonus{
				DamageReduction: 0.15,
				AttackPenalty:   0.1,
			}
		}
	case FormationScattered:
		for _, m := range g.Members {
			bonuses[m.ID()] = MemberBonus{
				EvasionBonus:        0.15,
				CoordinationPenalty: 0.1,
			}
		}
	case FormationFlanking:
		for _, m := range g.Members {
			bonuses[m.ID()] = MemberBonus{
				FlankDamageMultiplier: 1.3,
				StealthBonus:          0.2,
			}
		}
	}
	c.bonuses[g.ID] = bonuses
}

// MemberBonuses returns the formation bonuses for one member.
func (c *Coordinator) MemberBonuses(groupID string, member uuid.UUID) MemberBonus {
	return c.bonuses[groupID][member]
}

// Synergies returns every synergy involving member. When target is non-nil,
// status-conditional synergies are filtered against the target's active
// effects.
func (c *Coordinator) Synergies(groupID string, member uuid.UUID, target combatant.View) []Synergy {
	var out []Synergy
	for key, effects := range c.synergies[groupID] {
		if key.a != member && key.b != member {
			continue
		}
		for _, eff := range effects {
			if target != nil && !c.synergyApplies(eff, target) {
				continue
			}
			out = append(out, eff)
		}
	}
	return out
}

func (c *Coordinator) synergyApplies(eff Synergy, target combatant.View) bool {
	switch {
	case eff.DamageVsControlled > 0:
		return c.targetControlled(target.ID())
	case eff.PhysicalVsEMP > 0:
		return c.status != nil && c.status.HasEffect(target.ID(), "electrocuted")
	}
	return true
}

func (c *Coordinator) targetControlled(id uuid.UUID) bool {
	if c.status == nil {
		return false
	}
	for _, eff := range controlEffects {
		if c.status.HasEffect(id, eff) {
			return true
		}
	}
	return false
}

// AddThreat raises the group's threat toward target, flooring at zero.
// Group threat is unbounded above; only the per-enemy AI tables clamp.
func (c *Coordinator) AddThreat(groupID string, target uuid.UUID, amount float64) {
	table, ok := c.threat[groupID]
	if !ok {
		return
	}
	next := table[target] + amount
	if next < 0 {
		next = 0
	}
	table[target] = next
}

// ThreatLevel returns the group's accumulated threat toward target.
func (c *Coordinator) ThreatLevel(groupID string, target uuid.UUID) float64 {
	return c.threat[groupID][target]
}

// HighestThreatTarget returns the target with the most accumulated threat,
// or uuid.Nil when the table is empty.
func (c *Coordinator) HighestThreatTarget(groupID string) uuid.UUID {
	var best uuid.UUID
	bestThreat := -1.0
	for target, level := range c.threat[groupID] {
		if level > bestThreat || (level == bestThreat && target.String() < best.String()) {
			best, bestThreat = target, level
		}
	}
	return best
}

// CoordinateAttack resolves a whole-group attack on target: every living
// member contributes a weapon roll scaled by formation bonuses, synergies,
// and the formation's coordination factor, and group threat grows by the
// damage dealt.
func (c *Coordinator) CoordinateAttack(groupID string, target combatant.View) (*AttackResult, error) {
	g, ok := c.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group: %q does not exist", groupID)
	}

	coordination := 1.0
	switch g.Formation {
	case FormationWedge:
		coordination = 1.2
	case FormationScattered:
		coordination = 0.9
	}

	result := &AttackResult{}
	for _, m := range g.Members {
		if m.Health() <= 0 {
			continue
		}
		roll := m.WeaponDamage(target)
		mult := c.bonuses[groupID][m.ID()].damageMultiplier()
		if g.Formation == FormationFlanking {
			mult *= c.bonuses[groupID][m.ID()].flankMultiplier()
		}

		for _, eff := range c.Synergies(groupID, m.ID(), target) {
			switch {
			case eff.DamageVsControlled > 0:
				mult *= eff.DamageVsControlled
			case eff.PhysicalVsEMP > 0 && roll.Type == combatant.DamagePhysical:
				mult *= eff.PhysicalVsEMP
			}
		}

		damage := int(float64(roll.Damage) * mult * coordination)
		result.TotalDamage += damage
		result.Contributions = append(result.Contributions, AttackContribution{
			Member:   m.ID(),
			Damage:   damage,
			Critical: roll.Critical,
		})
		c.AddThreat(groupID, target.ID(), float64(damage))
	}

	target.ApplyDamage(result.TotalDamage)
	result.TargetHealth = target.Health()
	c.logger.Debug("coordinated attack",
		zap.String("group", groupID),
		zap.String("target", target.Name()),
		zap.Int("damage", result.TotalDamage))
	return result, nil
}

// CoordinateDefense lets groupmates intervene when ward is attacked. Each
// other living member defends with 30% probability, 60% for tanks; each
// defender contributes a 30% reduction scaled by the formation's defense
// factor, capped at 90%. Defenders draw threat from the attacker.
func (c *Coordinator) CoordinateDefense(groupID string, attacker uuid.UUID, ward combatant.View) (*DefenseResult, error) {
	g, ok := c.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group: %q does not exist", groupID)
	}
	if g.member(ward.ID()) == nil {
		return nil, fmt.Errorf("group: %s is not a member of %q", ward.Name(), groupID)
	}

	defenseBonus := 1.0
	switch g.Formation {
	case FormationCircle:
		defenseBonus = 1.2
	case FormationLine:
		defenseBonus = 1.15
	}

	result := &DefenseResult{}
	for _, m := range g.Members {
		if m.ID() == ward.ID() || m.Health() <= 0 {
			continue
		}
		chance := 0.3
		if g.Roles[m.ID()] == RoleTank {
			chance += 0.3
		}
		if c.roller.Percent(chance) {
			result.Defenders = append(result.Defenders, m.ID())
		}
	}
	if len(result.Defenders) == 0 {
		return result, nil
	}

	result.Intervened = true
	reduction := 0.3 * float64(len(result.Defenders)) * defenseBonus
	if reduction > 0.9 {
		reduction = 0.9
	}
	result.DamageReduction = reduction

	for range result.Defenders {
		c.AddThreat(groupID, attacker, 20)
	}
	return result, nil
}

// CoordinateSupport heals a member through the group's supporters. With a
// nil target the lowest health-ratio member is chosen. Returns an error
// when the group has no supporter.
func (c *Coordinator) CoordinateSupport(groupID string, target combatant.View, healPerSupporter int) (*SupportResult, error) {
	g, ok := c.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group: %q does not exist", groupID)
	}

	var supporters []combatant.View
	for _, m := range g.Members {
		if g.Roles[m.ID()] == RoleSupport && m.Health() > 0 {
			supporters = append(supporters, m)
		}
	}
	if len(supporters) == 0 {
		return nil, fmt.Errorf("group: %q has no support member", groupID)
	}

	if target == nil {
		target = g.Members[0]
		lowest := healthRatio(target)
		for _, m := range g.Members[1:] {
			if r := healthRatio(m); r < lowest {
				target, lowest = m, r
			}
		}
	} else if g.member(target.ID()) == nil {
		return nil, fmt.Errorf("group: %s is not a member of %q", target.Name(), groupID)
	}

	healingMult := 1.0
	if g.Roles[target.ID()] == RoleTank {
		for _, eff := range c.Synergies(groupID, target.ID(), nil) {
			if eff.HealingReceivedMultiplier > 0 {
				healingMult = eff.HealingReceivedMultiplier
				break
			}
		}
	}

	result := &SupportResult{Target: target.ID()}
	for _, s := range supporters {
		healing := int(float64(healPerSupporter) * healingMult)
		target.Heal(healing)
		result.TotalHealing += healing
		effect := SupportEffect{Supporter: s.ID(), Healing: healing}
		for _, eff := range c.Synergies(groupID, s.ID(), nil) {
			if eff.SupportDurationBonus > 0 {
				effect.Synergy = eff.Name
				break
			}
		}
		result.Effects = append(result.Effects, effect)
	}
	return result, nil
}

// CoordinateTargets assigns a target to every living member according to
// the group tactic. Aggressive groups focus-fire the leader's pick with
// probability 0.8; defensive groups spread evenly; flanking groups split in
// two around one target; tactical groups prioritize high-value targets.
func (c *Coordinator) CoordinateTargets(groupID string, candidates []combatant.View) map[uuid.UUID]Assignment {
	g, ok := c.groups[groupID]
	if !ok || len(candidates) == 0 {
		return nil
	}
	out := make(map[uuid.UUID]Assignment, len(g.Members))

	living := make([]combatant.View, 0, len(g.Members))
	for _, m := range g.Members {
		if m.Health() > 0 {
			living = append(living, m)
		}
	}
	if len(living) == 0 {
		return out
	}

	leader := g.member(g.Leader)
	if leader == nil || leader.Health() <= 0 {
		leader = living[0]
	}

	switch g.Tactic {
	case ai.TacticAggressive:
		main := c.tactics.SelectTarget(leader, candidates)
		others := make([]combatant.View, 0, len(candidates)-1)
		for _, t := range candidates {
			if t.ID() != main.ID() {
				others = append(others, t)
			}
		}
		for _, m := range living {
			if c.roller.Percent(0.8) || len(others) == 0 {
				out[m.ID()] = Assignment{Target: main, Focus: true}
			} else {
				out[m.ID()] = Assignment{Target: others[c.roller.Between(0, len(others)-1)]}
			}
		}
	case ai.TacticDefensive:
		for i, m := range living {
			out[m.ID()] = Assignment{Target: candidates[i%len(candidates)], Defensive: true}
		}
	case ai.TacticFlanking:
		main := c.tactics.SelectTarget(leader, candidates)
		half := len(living) / 2
		for i, m := range living {
			out[m.ID()] = Assignment{Target: main, FlankLeft: i < half}
		}
	case ai.TacticTactical:
		var highValue, normal []combatant.View
		for _, t := range candidates {
			if c.tactics.HighValue(t) {
				highValue = append(highValue, t)
			} else {
				normal = append(normal, t)
			}
		}
		for i, m := range living {
			if i < len(highValue) {
				out[m.ID()] = Assignment{Target: highValue[i], Priority: true}
			} else if len(normal) > 0 {
				out[m.ID()] = Assignment{Target: normal[i%len(normal)]}
			} else {
				out[m.ID()] = Assignment{Target: candidates[i%len(candidates)]}
			}
		}
	default:
		for _, m := range living {
			out[m.ID()] = Assignment{Target: c.tactics.SelectTarget(m, candidates)}
		}
	}
	return out
}

func healthRatio(v combatant.View) float64 {
	max := v.MaxHealth()
	if max <= 0 {
		return 0
	}
	return float64(v.Health()) / float64(max)
}

// Reset drops formation bonuses and threat tables for every group. Group
// composition, roles, and synergies persist.
func (c *Coordinator) Reset() {
	for id, g := range c.groups {
		c.threat[id] = make(map[uuid.UUID]float64)
		c.applyFormationBonuses(g)
	}
}
