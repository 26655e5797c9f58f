package status

import (
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orenaud/neonfall/internal/game/combatant"
)

// HookCaller dispatches a named script hook for an effect transition. The
// scripting manager satisfies this; a nil caller disables hooks.
type HookCaller interface {
	CallEffectHook(hook string, targetName string, effectID string, power int) error
}

// Instance is a live effect on a combatant.
type Instance struct {
	Def      *Def
	Duration int
	Stacks   int
	Level    int
	Power    int
	Source   uuid.UUID
}

// Result aggregates what a round tick did to one combatant.
type Result struct {
	Damage  int
	Healing int
	Expired []string
}

// Registry tracks active effect instances, immunities, and resistances per
// combatant. All state lives in side tables keyed by combatant ID; the
// combatants themselves are never annotated.
//
// Registry is not safe for concurrent use. The combat engine serializes
// access per encounter.
type Registry struct {
	catalog *Catalog
	logger  *zap.Logger
	hooks   HookCaller

	active           map[uuid.UUID][]*Instance
	immunities       map[uuid.UUID]map[string]bool
	resistances      map[uuid.UUID]map[Kind]int
	damageResistance map[uuid.UUID]map[combatant.DamageType]int
}

// NewRegistry creates a Registry over the given catalog.
// Precondition: catalog and logger must not be nil. hooks may be nil.
func NewRegistry(catalog *Catalog, logger *zap.Logger, hooks HookCaller) *Registry {
	return &Registry{
		catalog:          catalog,
		logger:           logger,
		hooks:            hooks,
		active:           make(map[uuid.UUID][]*Instance),
		immunities:       make(map[uuid.UUID]map[string]bool),
		resistances:      make(map[uuid.UUID]map[Kind]int),
		damageResistance: make(map[uuid.UUID]map[combatant.DamageType]int),
	}
}

// Catalog returns the definition catalog backing the registry.
func (r *Registry) Catalog() *Catalog {
	return r.catalog
}

func (r *Registry) find(target uuid.UUID, effectID string) *Instance {
	for _, inst := range r.active[target] {
		if inst.Def.ID == effectID {
			return inst
		}
	}
	return nil
}

// Apply applies the effect to target at the given level. durationMod scales
// the base duration before resistance is taken into account.
//
// Postcondition: Returns false without mutating state when the effect is
// unknown, the target's category is outside the effect's applies-to set,
// the target is immune, or the target fully resists the effect's kind.
func (r *Registry) Apply(target combatant.View, effectID string, source uuid.UUID, level int, durationMod float64) bool {
	def, ok := r.catalog.Get(effectID)
	if !ok {
		r.logger.Warn("unknown status effect", zap.String("effect", effectID))
		return false
	}
	if !def.appliesToCategory(target.Category()) {
		r.logger.Debug("effect does not apply to category",
			zap.String("effect", effectID),
			zap.String("target", target.Name()),
			zap.String("category", string(target.Category())))
		return false
	}
	id := target.ID()
	if r.IsImmune(id, effectID) {
		r.logger.Debug("target immune to effect",
			zap.String("effect", effectID),
			zap.String("target", target.Name()))
		return false
	}
	resistance := r.Resistance(id, def.Kind)
	if resistance >= 100 {
		r.logger.Debug("target fully resists effect kind",
			zap.String("effect", effectID),
			zap.String("target", target.Name()))
		return false
	}

	duration := int(float64(def.BaseDuration) * durationMod * (1 - float64(resistance)/100))
	if duration < 1 {
		duration = 1
	}

	if existing := r.find(id, effectID); existing != nil {
		if def.Stackable {
			existing.Stacks++
			if existing.Stacks > def.MaxStacks {
				existing.Stacks = def.MaxStacks
			}
			if duration > existing.Duration {
				existing.Duration = duration
			}
			if def.StackGrowth != 0 {
				existing.Power = int(math.Round(float64(existing.Power) * def.StackGrowth))
			}
			r.logger.Debug("effect stacked",
				zap.String("effect", effectID),
				zap.String("target", target.Name()),
				zap.Int("stacks", existing.Stacks),
				zap.Int("duration", existing.Duration))
		} else {
			if duration > existing.Duration {
				existing.Duration = duration
			}
			r.logger.Debug("effect duration refreshed",
				zap.String("effect", effectID),
				zap.String("target", target.Name()),
				zap.Int("duration", existing.Duration))
		}
		return true
	}

	inst := &Instance{
		Def:      def,
		Duration: duration,
		Stacks:   1,
		Level:    level,
		Power:    def.PowerPerLevel * level,
		Source:   source,
	}
	r.active[id] = append(r.active[id], inst)
	r.logger.Debug("effect applied",
		zap.String("effect", effectID),
		zap.String("target", target.Name()),
		zap.Int("duration", duration),
		zap.Int("level", level))

	if r.hooks != nil && def.LuaOnApply != "" {
		if err := r.hooks.CallEffectHook(def.LuaOnApply, target.Name(), effectID, inst.Power); err != nil {
			r.logger.Warn("effect apply hook failed",
				zap.String("effect", effectID),
				zap.Error(err))
		}
	}
	return true
}

// Remove deletes a single effect instance from target, firing its expire
// hook. Returns false if the effect was not active.
func (r *Registry) Remove(target combatant.View, effectID string) bool {
	id := target.ID()
	list := r.active[id]
	for i, inst := range list {
		if inst.Def.ID == effectID {
			r.active[id] = append(list[:i], list[i+1:]...)
			r.fireExpire(target.Name(), inst)
			return true
		}
	}
	return false
}

// Cleanse removes all cleansable effects of the given kinds from target and
// returns the number removed. A nil kinds slice means the default negative
// set: debuffs, damage-over-time, and control effects.
func (r *Registry) Cleanse(target combatant.View, kinds []Kind) int {
	if kinds == nil {
		kinds = []Kind{KindDebuff, KindDamageOverTime, KindControl}
	}
	match := func(k Kind) bool {
		for _, kk := range kinds {
			if kk == k {
				return true
			}
		}
		return false
	}
	id := target.ID()
	kept := r.active[id][:0]
	count := 0
	for _, inst := range r.active[id] {
		if match(inst.Def.Kind) && inst.Def.Cleansable {
			count++
			r.fireExpire(target.Name(), inst)
			continue
		}
		kept = append(kept, inst)
	}
	r.active[id] = kept
	if count > 0 {
		r.logger.Debug("effects cleansed",
			zap.String("target", target.Name()),
			zap.Int("count", count))
	}
	return count
}

// Tick advances all of target's effects by one round: damage-over-time
// instances deal their power mitigated by the target's damage-type
// resistance (minimum 1), heal-over-time instances heal capped at max
// health, then every duration decrements and expired instances are removed.
//
// Postcondition: An effect applied with duration N contributes exactly N
// ticks before expiring.
func (r *Registry) Tick(target combatant.View) Result {
	id := target.ID()
	res := Result{}
	kept := r.active[id][:0]
	for _, inst := range r.active[id] {
		switch inst.Def.Kind {
		case KindDamageOverTime:
			mitigation := r.DamageResistance(id, inst.Def.DamageType)
			dmg := int(float64(inst.Power) * (1 - float64(mitigation)/100))
			if dmg < 1 {
				dmg = 1
			}
			target.ApplyDamage(dmg)
			res.Damage += dmg
			r.logger.Debug("damage over time tick",
				zap.String("effect", inst.Def.ID),
				zap.String("target", target.Name()),
				zap.Int("damage", dmg))
		case KindHealOverTime:
			target.Heal(inst.Power)
			res.Healing += inst.Power
			r.logger.Debug("heal over time tick",
				zap.String("effect", inst.Def.ID),
				zap.String("target", target.Name()),
				zap.Int("healing", inst.Power))
		}
		inst.Duration--
		if inst.Duration <= 0 {
			res.Expired = append(res.Expired, inst.Def.ID)
			r.fireExpire(target.Name(), inst)
			continue
		}
		kept = append(kept, inst)
	}
	r.active[id] = kept
	return res
}

func (r *Registry) fireExpire(targetName string, inst *Instance) {
	if r.hooks != nil && inst.Def.LuaOnExpire != "" {
		if err := r.hooks.CallEffectHook(inst.Def.LuaOnExpire, targetName, inst.Def.ID, inst.Power); err != nil {
			r.logger.Warn("effect expire hook failed",
				zap.String("effect", inst.Def.ID),
				zap.Error(err))
		}
	}
}

// ActiveEffects returns a snapshot of target's active instances.
func (r *Registry) ActiveEffects(target uuid.UUID) []*Instance {
	out := make([]*Instance, len(r.active[target]))
	copy(out, r.active[target])
	return out
}

// HasEffect reports whether target currently has the effect.
func (r *Registry) HasEffect(target uuid.UUID, effectID string) bool {
	return r.find(target, effectID) != nil
}

// EffectStacks returns the stack count of an active effect, or 0 if absent.
func (r *Registry) EffectStacks(target uuid.UUID, effectID string) int {
	if inst := r.find(target, effectID); inst != nil {
		return inst.Stacks
	}
	return 0
}

// AddImmunity makes target immune to the given effect ID.
func (r *Registry) AddImmunity(target uuid.UUID, effectID string) {
	if r.immunities[target] == nil {
		r.immunities[target] = make(map[string]bool)
	}
	r.immunities[target][effectID] = true
}

// RemoveImmunity clears an immunity.
func (r *Registry) RemoveImmunity(target uuid.UUID, effectID string) {
	delete(r.immunities[target], effectID)
}

// IsImmune reports whether target is immune to the effect.
func (r *Registry) IsImmune(target uuid.UUID, effectID string) bool {
	return r.immunities[target][effectID]
}

// AddResistance adds percentage resistance against an effect kind.
// Resistance accumulates additively and clamps at 100.
func (r *Registry) AddResistance(target uuid.UUID, kind Kind, value int) {
	if r.resistances[target] == nil {
		r.resistances[target] = make(map[Kind]int)
	}
	total := r.resistances[target][kind] + value
	if total > 100 {
		total = 100
	}
	r.resistances[target][kind] = total
}

// Resistance returns target's resistance percentage against an effect kind.
func (r *Registry) Resistance(target uuid.UUID, kind Kind) int {
	return r.resistances[target][kind]
}

// AddDamageResistance adds percentage mitigation against a damage type,
// applied to damage-over-time ticks. Accumulates additively, clamped at 100.
func (r *Registry) AddDamageResistance(target uuid.UUID, dt combatant.DamageType, value int) {
	if r.damageResistance[target] == nil {
		r.damageResistance[target] = make(map[combatant.DamageType]int)
	}
	total := r.damageResistance[target][dt] + value
	if total > 100 {
		total = 100
	}
	r.damageResistance[target][dt] = total
}

// DamageResistance returns target's mitigation percentage for a damage type.
func (r *Registry) DamageResistance(target uuid.UUID, dt combatant.DamageType) int {
	return r.damageResistance[target][dt]
}

// StatModifiers aggregates the stat deltas from all of target's active
// effects.
func (r *Registry) StatModifiers(target uuid.UUID) map[string]int {
	mods := make(map[string]int)
	for _, inst := range r.active[target] {
		for stat, value := range inst.Def.StatModifiers {
			mods[stat] += value
		}
	}
	return mods
}

// DamageModifier returns the multiplicative damage modifier from target's
// active effects. With isAttacker true it folds damage-dealt multipliers,
// otherwise damage-taken multipliers. Stack-dependent multipliers evaluate
// at the instance's current stack count.
func (r *Registry) DamageModifier(target uuid.UUID, isAttacker bool) float64 {
	mod := 1.0
	for _, inst := range r.active[target] {
		if isAttacker && inst.Def.DamageDealt != nil {
			mod *= inst.Def.DamageDealt.Value(inst.Stacks)
		} else if !isAttacker && inst.Def.DamageTaken != nil {
			mod *= inst.Def.DamageTaken.Value(inst.Stacks)
		}
	}
	return mod
}

// CanAct reports whether target is free of action-preventing effects.
func (r *Registry) CanAct(target uuid.UUID) bool {
	for _, inst := range r.active[target] {
		if inst.Def.PreventsActions {
			return false
		}
	}
	return true
}

// CanMove reports whether target is free of movement-preventing effects.
func (r *Registry) CanMove(target uuid.UUID) bool {
	for _, inst := range r.active[target] {
		if inst.Def.PreventsMovement {
			return false
		}
	}
	return true
}

// ActionFailureChance returns the highest action failure chance among
// target's active effects.
func (r *Registry) ActionFailureChance(target uuid.UUID) float64 {
	chance := 0.0
	for _, inst := range r.active[target] {
		if inst.Def.ActionFailureChance > chance {
			chance = inst.Def.ActionFailureChance
		}
	}
	return chance
}

// FriendlyFireChance returns the highest friendly fire chance among
// target's active effects.
func (r *Registry) FriendlyFireChance(target uuid.UUID) float64 {
	chance := 0.0
	for _, inst := range r.active[target] {
		if inst.Def.FriendlyFireChance > chance {
			chance = inst.Def.FriendlyFireChance
		}
	}
	return chance
}

// CritChanceModifier returns the additive critical chance modifier from
// effects on target. Queried for the victim, so marked targets are easier
// to crit.
func (r *Registry) CritChanceModifier(target uuid.UUID) float64 {
	mod := 0.0
	for _, inst := range r.active[target] {
		mod += inst.Def.CritChanceModifier
	}
	return mod
}

// Reset drops all active effect instances. Immunities and resistances
// persist across encounters.
func (r *Registry) Reset() {
	r.active = make(map[uuid.UUID][]*Instance)
}
