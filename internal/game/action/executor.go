package action

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orenaud/neonfall/internal/game/combatant"
	"github.com/orenaud/neonfall/internal/game/defense"
	"github.com/orenaud/neonfall/internal/game/dice"
)

// baseCritMultiplier applies to critical swings before ultimate bonuses.
const baseCritMultiplier = 1.5

// StatusApplier is the slice of the status registry the executor mutates.
type StatusApplier interface {
	Apply(target combatant.View, effectID string, source uuid.UUID, level int, durationMod float64) bool
}

// Info describes one catalog action from a specific actor's point of view.
type Info struct {
	ID                string
	Name              string
	Description       string
	Category          Category
	CooldownRemaining int
	Available         bool
}

// Result is the outcome of using an action. Rejections carry Success=false
// and a distinct message; nothing is charged on rejection.
type Result struct {
	Success   bool
	Message   string
	Damage    int
	Hits      int
	Criticals int
	Healing   int
	Stunned   bool

	StatBoosts       map[string]int
	DamageReduction  float64
	DodgeBonus       float64
	MovementDistance int
	ExtraActions     int
	Duration         int
}

// PositionModifier adjusts raw attack damage for battlefield position
// (cover, stance, flanking) before defenses resolve.
type PositionModifier interface {
	ApplyModifiers(baseDamage int, attacker, target uuid.UUID) int
}

// Executor charges costs, manages cooldowns, and applies action mechanics.
// Attack damage routes through the defense resolver so the target's
// avoidance and mitigation apply. Not safe for concurrent use.
type Executor struct {
	catalog   *Catalog
	roller    *dice.Roller
	resolver  *defense.Resolver
	mods      *defense.ModifierBook
	status    StatusApplier
	terrain   PositionModifier
	logger    *zap.Logger
	cooldowns map[uuid.UUID]map[string]int
}

// NewExecutor creates an Executor.
// Precondition: all arguments must be non-nil.
func NewExecutor(catalog *Catalog, roller *dice.Roller, resolver *defense.Resolver, status StatusApplier, logger *zap.Logger) *Executor {
	return &Executor{
		catalog:   catalog,
		roller:    roller,
		resolver:  resolver,
		mods:      resolver.Modifiers(),
		status:    status,
		logger:    logger,
		cooldowns: make(map[uuid.UUID]map[string]int),
	}
}

// SetTerrain installs a positional damage adjuster. A nil terrain leaves
// attack damage unmodified.
func (e *Executor) SetTerrain(terrain PositionModifier) {
	e.terrain = terrain
}

// Catalog returns the executor's action catalog.
func (e *Executor) Catalog() *Catalog {
	return e.catalog
}

// CooldownRemaining returns the rounds left before actor can reuse the
// action, zero when ready.
func (e *Executor) CooldownRemaining(actor uuid.UUID, actionID string) int {
	return e.cooldowns[actor][actionID]
}

// qualifies checks stat/level prerequisites and weapon-kind restrictions.
func qualifies(actor combatant.View, def *Def) bool {
	stats := actor.EffectiveStats()
	for name, min := range def.Requirements {
		value := 0
		if name == "level" {
			value = actor.Level()
		} else if v, ok := stats.Value(name); ok {
			value = v
		}
		if value < min {
			return false
		}
	}
	if len(def.WeaponKinds) > 0 {
		weapon, ok := actor.Weapon()
		if !ok {
			return false
		}
		match := false
		for _, k := range def.WeaponKinds {
			if weapon.Kind == k {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

func (e *Executor) canPay(actor combatant.View, cost Cost) bool {
	if actor.ActionPoints() < cost.ActionPoints {
		return false
	}
	if actor.Energy() < cost.Energy {
		return false
	}
	// a health cost may never kill the actor outright
	if cost.Health > 0 && actor.Health() <= cost.Health {
		return false
	}
	if cost.Item != "" && !actor.HasItem(cost.Item) {
		return false
	}
	return true
}

func (e *Executor) pay(actor combatant.View, cost Cost) {
	if cost.ActionPoints > 0 {
		actor.SpendActionPoints(cost.ActionPoints)
	}
	if cost.Energy > 0 {
		actor.SpendEnergy(cost.Energy)
	}
	if cost.Health > 0 {
		actor.ApplyDamage(cost.Health)
	}
	if cost.Item != "" {
		actor.RemoveItem(cost.Item)
	}
}

// Available lists every catalog action the actor qualifies for, with
// per-action cooldown and affordability baked into Available.
func (e *Executor) Available(actor combatant.View) []Info {
	var out []Info
	for _, def := range e.catalog.All() {
		if !qualifies(actor, def) {
			continue
		}
		remaining := e.CooldownRemaining(actor.ID(), def.ID)
		out = append(out, Info{
			ID:                def.ID,
			Name:              def.Name,
			Description:       def.Description,
			Category:          def.Category,
			CooldownRemaining: remaining,
			Available:         remaining == 0 && e.canPay(actor, def.Cost),
		})
	}
	return out
}

// UseAction validates, charges, and executes one action by actor against
// target. A nil target defaults to the actor for defense, support, and
// ultimate actions; attacks without a target are rejected.
func (e *Executor) UseAction(actor, target combatant.View, actionID string) Result {
	def, ok := e.catalog.Get(actionID)
	if !ok {
		return Result{Message: fmt.Sprintf("unknown action: %s", actionID)}
	}
	if !qualifies(actor, def) {
		return Result{Message: fmt.Sprintf("%s cannot use %s", actor.Name(), def.Name)}
	}
	if target == nil {
		switch def.Category {
		case CategoryAttack:
			return Result{Message: fmt.Sprintf("%s needs a target", def.Name)}
		case CategoryDefense, CategorySupport, CategoryUltimate:
			// Self-directed by default; movement keeps a nil target so
			// charge-style damage riders stay inert.
			target = actor
		}
	}
	if remaining := e.CooldownRemaining(actor.ID(), actionID); remaining > 0 {
		return Result{Message: fmt.Sprintf("%s is recharging (%d rounds left)", def.Name, remaining)}
	}
	if !e.canPay(actor, def.Cost) {
		return Result{Message: fmt.Sprintf("not enough resources for %s", def.Name)}
	}

	e.pay(actor, def.Cost)
	if def.Cooldown > 0 {
		if e.cooldowns[actor.ID()] == nil {
			e.cooldowns[actor.ID()] = make(map[string]int)
		}
		e.cooldowns[actor.ID()][actionID] = def.Cooldown
	}

	targetName := "none"
	if target != nil {
		targetName = target.Name()
	}
	e.logger.Debug("action used",
		zap.String("actor", actor.Name()),
		zap.String("target", targetName),
		zap.String("action", actionID))

	switch def.Category {
	case CategoryAttack:
		return e.executeAttack(actor, target, def)
	case CategoryDefense:
		return e.executeDefense(actor, def)
	case CategorySupport:
		return e.executeSupport(actor, target, def)
	case CategoryMovement:
		return e.executeMovement(actor, target, def)
	case CategoryUltimate:
		return e.executeUltimate(actor, def)
	}
	return Result{Success: true, Message: fmt.Sprintf("%s uses %s", actor.Name(), def.Name)}
}

func attackTypeFor(actor combatant.View) defense.AttackType {
	if weapon, ok := actor.Weapon(); ok && weapon.Kind != combatant.WeaponMelee {
		return defense.AttackRanged
	}
	return defense.AttackNormal
}

func (e *Executor) executeAttack(actor, target combatant.View, def *Def) Result {
	swings := def.NumAttacks
	if swings < 1 {
		swings = 1
	}
	damageMult := def.DamageMultiplier
	if damageMult == 0 {
		damageMult = 1.0
	}
	accuracyMod := def.AccuracyModifier
	if accuracyMod == 0 {
		accuracyMod = 1.0
	}
	critChance := def.CritChanceBonus + e.mods.CritChanceBonus(actor.ID())
	critMult := baseCritMultiplier + e.mods.CritDamageBonus(actor.ID())
	attackType := attackTypeFor(actor)

	res := Result{Success: true}
	for i := 0; i < swings; i++ {
		roll := actor.WeaponDamage(target)
		crit := roll.Critical || e.roller.Percent(critChance)
		damage := float64(roll.Damage) * damageMult
		if crit {
			damage *= critMult
			res.Criticals++
		}

		hitChance := float64(actor.EffectiveStats().Accuracy) * accuracyMod / 100
		if !e.roller.Percent(hitChance) {
			continue
		}
		res.Hits++

		if def.ArmorPenetration > 0 {
			effectiveArmor := float64(target.EffectiveStats().Armor) * (1 - def.ArmorPenetration)
			reduction := effectiveArmor / 100
			if reduction > 0.8 {
				reduction = 0.8
			}
			damage *= 1 - reduction
		}

		raw := int(damage)
		if e.terrain != nil {
			raw = e.terrain.ApplyModifiers(raw, actor.ID(), target.ID())
		}

		outcome := e.resolver.ProcessAttack(actor, target, defense.Attack{
			Damage:   raw,
			Critical: crit,
			Type:     attackType,
		})
		target.ApplyDamage(outcome.FinalDamage)
		res.Damage += outcome.FinalDamage
	}

	if res.Hits == 0 {
		res.Message = fmt.Sprintf("%s uses %s but misses completely", actor.Name(), def.Name)
	} else {
		res.Message = fmt.Sprintf("%s uses %s, hitting %d/%d for %d damage",
			actor.Name(), def.Name, res.Hits, swings, res.Damage)
		if res.Criticals > 0 {
			res.Message += fmt.Sprintf(" (%d critical)", res.Criticals)
		}
	}
	return res
}

func (e *Executor) executeDefense(actor combatant.View, def *Def) Result {
	duration := def.Duration
	if duration < 1 {
		duration = 1
	}
	e.mods.Add(actor.ID(), defense.Modifier{
		Source:           def.ID,
		DamageReduction:  def.DamageReduction,
		ParryOverride:    def.ParryChance,
		HasParryOverride: def.ParryChance > 0,
		Duration:         duration,
	})
	return Result{
		Success:         true,
		Message:         fmt.Sprintf("%s takes a defensive posture", actor.Name()),
		DamageReduction: def.DamageReduction,
		Duration:        duration,
	}
}

func (e *Executor) executeSupport(actor, target combatant.View, def *Def) Result {
	res := Result{
		Success:  true,
		Message:  fmt.Sprintf("%s uses %s on %s", actor.Name(), def.Name, target.Name()),
		Duration: def.Duration,
	}

	if def.HealBase > 0 || def.HealPerLevel > 0 {
		amount := def.HealBase + def.HealPerLevel*actor.Level()
		before := target.Health()
		target.Heal(amount)
		res.Healing = target.Health() - before
	}

	if len(def.StatBoosts) > 0 {
		res.StatBoosts = def.StatBoosts
		for stat, value := range def.StatBoosts {
			target.AddStatBoost(stat, value, def.Duration, def.Name)
		}
	}

	if def.SideEffectHealth < 0 {
		target.ApplyDamage(-def.SideEffectHealth)
	} else if def.SideEffectHealth > 0 {
		target.Heal(def.SideEffectHealth)
	}
	return res
}

func (e *Executor) executeMovement(actor, target combatant.View, def *Def) Result {
	res := Result{
		Success:          true,
		Message:          fmt.Sprintf("%s uses %s", actor.Name(), def.Name),
		MovementDistance: def.MovementDistance,
	}

	if def.DodgeBonus > 0 {
		duration := def.Duration
		if duration < 1 {
			duration = 1
		}
		e.mods.Add(actor.ID(), defense.Modifier{
			Source:     def.ID,
			DodgeBonus: def.DodgeBonus,
			Duration:   duration,
		})
		res.DodgeBonus = def.DodgeBonus
	}

	if def.DamageMultiplier > 0 && target != nil {
		roll := actor.WeaponDamage(target)
		damage := int(float64(roll.Damage) * def.DamageMultiplier)
		if e.terrain != nil {
			damage = e.terrain.ApplyModifiers(damage, actor.ID(), target.ID())
		}
		outcome := e.resolver.ProcessAttack(actor, target, defense.Attack{
			Damage:   damage,
			Critical: roll.Critical,
			Type:     defense.AttackNormal,
		})
		target.ApplyDamage(outcome.FinalDamage)
		res.Damage = outcome.FinalDamage
		res.Message += fmt.Sprintf(", dealing %d damage to %s", outcome.FinalDamage, target.Name())

		if outcome.FinalDamage > 0 && def.StunChance > 0 && e.roller.Percent(def.StunChance) {
			if e.status.Apply(target, "stunned", actor.ID(), 1, 1.0) {
				res.Stunned = true
				res.Message += " and stuns them"
			}
		}
	}
	return res
}

func (e *Executor) executeUltimate(actor combatant.View, def *Def) Result {
	duration := def.Duration
	if duration < 1 {
		duration = 1
	}
	if def.ExtraActions > 0 || def.CritChanceBonus > 0 || def.CritDamageBonus > 0 {
		e.mods.Add(actor.ID(), defense.Modifier{
			Source:          def.ID,
			CritChanceBonus: def.CritChanceBonus,
			CritDamageBonus: def.CritDamageBonus,
			ExtraActions:    def.ExtraActions,
			Duration:        duration,
		})
	}
	for stat, value := range def.StatBoosts {
		actor.AddStatBoost(stat, value, duration, def.Name)
	}
	return Result{
		Success:      true,
		Message:      fmt.Sprintf("%s unleashes %s!", actor.Name(), def.Name),
		StatBoosts:   def.StatBoosts,
		ExtraActions: def.ExtraActions,
		Duration:     duration,
	}
}

// UpdateCooldowns decrements all of actor's cooldowns, dropping expired
// entries. Run once per actor per round, after that actor's action resolves.
func (e *Executor) UpdateCooldowns(actor uuid.UUID) {
	for id, remaining := range e.cooldowns[actor] {
		remaining--
		if remaining <= 0 {
			delete(e.cooldowns[actor], id)
			e.logger.Debug("action recharged",
				zap.String("actor", actor.String()),
				zap.String("action", id))
		} else {
			e.cooldowns[actor][id] = remaining
		}
	}
}

// Reset drops all cooldown state.
func (e *Executor) Reset() {
	e.cooldowns = make(map[uuid.UUID]map[string]int)
}
