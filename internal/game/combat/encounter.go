// Package combat is the orchestration layer: an Encounter owns one seeded
// dice source and every subsystem side table for a single fight, and
// serializes all combat mutation through BeginRound / TakeTurn / EndRound.
package combat

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orenaud/neonfall/internal/game/action"
	"github.com/orenaud/neonfall/internal/game/ai"
	"github.com/orenaud/neonfall/internal/game/combatant"
	"github.com/orenaud/neonfall/internal/game/defense"
	"github.com/orenaud/neonfall/internal/game/dice"
	"github.com/orenaud/neonfall/internal/game/group"
	"github.com/orenaud/neonfall/internal/game/initiative"
	"github.com/orenaud/neonfall/internal/game/status"
	"github.com/orenaud/neonfall/internal/game/tactical"
)

// Side distinguishes the player party from hostiles.
type Side int

const (
	SideParty Side = iota
	SideHostile
)

// Decision is an externally supplied action choice for one turn. Hostiles
// pass a nil Decision and let the AI decide.
type Decision struct {
	ActionID string
	Target   combatant.View
}

// TurnResult reports one resolved turn.
type TurnResult struct {
	Actor      combatant.View
	ActionID   string
	Target     combatant.View
	Outcome    action.Result
	Interrupts []initiative.Triggered
	// Skipped is true when a control effect prevented the actor from
	// acting; Outcome is zero in that case.
	Skipped bool
}

// RoundReport aggregates the end-of-round effect ticks.
type RoundReport struct {
	Round   int
	Ticks   map[uuid.UUID]status.Result
	Downed  []uuid.UUID
	Over    bool
	Victory bool
}

// Encounter is the live state of one fight. All subsystem side tables hang
// off it; nothing survives Reset. Not safe for concurrent use: callers
// serialize turns through the Engine.
type Encounter struct {
	ID     uuid.UUID
	roller *dice.Roller
	logger *zap.Logger

	Status     *status.Registry
	Tactical   *tactical.Tracker
	Initiative *initiative.Tracker
	Defense    *defense.Resolver
	Actions    *action.Executor
	Tactics    *ai.System
	Groups     *group.Coordinator

	party    []combatant.View
	hostiles []combatant.View

	started   bool
	round     int
	order     []initiative.Entry
	turn      int
	events    []ai.Event
	extraUsed map[uuid.UUID]int
}

// Config carries encounter construction inputs. Zero-value catalogs fall
// back to the builtins; a nil Hooks disables Lua effect hooks.
type Config struct {
	Seed          int64
	StatusCatalog *status.Catalog
	ActionCatalog *action.Catalog
	Hooks         status.HookCaller
	Logger        *zap.Logger
}

// NewEncounter wires a full subsystem stack around one seeded dice source.
//
// Postcondition: two encounters built with equal seeds and catalogs resolve
// identical inputs identically.
func NewEncounter(cfg Config) *Encounter {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.StatusCatalog == nil {
		cfg.StatusCatalog = status.BuiltinCatalog()
	}
	if cfg.ActionCatalog == nil {
		cfg.ActionCatalog = action.BuiltinCatalog()
	}

	roller := dice.NewRoller(dice.NewSeededSource(cfg.Seed), cfg.Logger)
	registry := status.NewRegistry(cfg.StatusCatalog, cfg.Logger, cfg.Hooks)
	resolver := defense.NewResolver(roller, registry, defense.NewModifierBook(), cfg.Logger)
	tactics := ai.NewSystem(roller, cfg.Logger)
	positions := tactical.NewTracker(cfg.Logger)
	executor := action.NewExecutor(cfg.ActionCatalog, roller, resolver, registry, cfg.Logger)
	executor.SetTerrain(positions)

	return &Encounter{
		ID:         uuid.New(),
		roller:     roller,
		logger:     cfg.Logger,
		Status:     registry,
		Tactical:   positions,
		Initiative: initiative.NewTracker(roller, registry, cfg.Logger),
		Defense:    resolver,
		Actions:    executor,
		Tactics:    tactics,
		Groups:     group.NewCoordinator(roller, tactics, registry, cfg.Logger),
		extraUsed:  make(map[uuid.UUID]int),
	}
}

// AddParty adds player-side combatants.
//
// Precondition: the encounter has not started.
func (e *Encounter) AddParty(members ...combatant.View) error {
	if e.started {
		return fmt.Errorf("combat: encounter %s already started", e.ID)
	}
	e.party = append(e.party, members...)
	return nil
}

// AddHostiles adds an enemy squad under groupID, registering each member
// with the AI and the group coordinator.
//
// Precondition: the encounter has not started; groupID must be unused.
func (e *Encounter) AddHostiles(groupID string, members ...combatant.View) error {
	if e.started {
		return fmt.Errorf("combat: encounter %s already started", e.ID)
	}
	if _, err := e.Groups.Create(groupID, members); err != nil {
		return err
	}
	e.hostiles = append(e.hostiles, members...)
	return nil
}

// Begin fixes the initiative order for the whole fight and opens round 1.
// The order is never silently recomputed mid-fight.
func (e *Encounter) Begin() error {
	if e.started {
		return fmt.Errorf("combat: encounter %s already started", e.ID)
	}
	if len(e.party) == 0 || len(e.hostiles) == 0 {
		return fmt.Errorf("combat: encounter %s needs both sides populated", e.ID)
	}

	all := make([]combatant.View, 0, len(e.party)+len(e.hostiles))
	all = append(all, e.party...)
	all = append(all, e.hostiles...)
	e.order = e.Initiative.ComputeOrder(all)
	e.started = true
	e.round = 1
	e.turn = 0

	e.logger.Info("encounter started",
		zap.Stringer("encounter", e.ID),
		zap.Int("party", len(e.party)),
		zap.Int("hostiles", len(e.hostiles)))
	return nil
}

// Round returns the current round number, zero before Begin.
func (e *Encounter) Round() int { return e.round }

// Order returns the fixed initiative order.
func (e *Encounter) Order() []initiative.Entry { return e.order }

// SideOf reports which side a combatant fights on.
func (e *Encounter) SideOf(id uuid.UUID) Side {
	for _, h := range e.hostiles {
		if h.ID() == id {
			return SideHostile
		}
	}
	return SideParty
}

// CurrentActor returns the living combatant whose turn it is, advancing
// past the dead. Returns nil when nobody is left standing.
func (e *Encounter) CurrentActor() combatant.View {
	for range e.order {
		actor := e.order[e.turn].Combatant
		if actor.Health() > 0 {
			return actor
		}
		e.turn = (e.turn + 1) % len(e.order)
	}
	return nil
}

func (e *Encounter) advanceTurn() {
	e.turn = (e.turn + 1) % len(e.order)
}

// livingParty returns party members still standing.
func (e *Encounter) livingParty() []combatant.View {
	return living(e.party)
}

// livingHostiles returns hostiles still standing.
func (e *Encounter) livingHostiles() []combatant.View {
	return living(e.hostiles)
}

func living(members []combatant.View) []combatant.View {
	var alive []combatant.View
	for _, m := range members {
		if m.Health() > 0 {
			alive = append(alive, m)
		}
	}
	return alive
}

// Over reports whether either side is wiped out.
func (e *Encounter) Over() bool {
	return e.started && (len(e.livingParty()) == 0 || len(e.livingHostiles()) == 0)
}

// TakeTurn resolves the current actor's turn and rotates to the next one.
// Party actors act on the supplied decision; hostiles decide through the
// AI when decision is nil. Control effects that prevent acting consume the
// turn.
//
// Precondition: Begin has been called and the fight is not over.
// Postcondition: the actor's temporary modifiers are ticked at the start
// of their turn, so a modifier installed this turn covers every attack
// until the actor next acts; cooldowns are ticked after the action
// resolves, never before. An active extra-action grant lets the actor act
// again before the turn rotates.
func (e *Encounter) TakeTurn(decision *Decision) (*TurnResult, error) {
	if !e.started {
		return nil, fmt.Errorf("combat: encounter %s not started", e.ID)
	}
	if e.Over() {
		return nil, fmt.Errorf("combat: encounter %s is over", e.ID)
	}
	actor := e.CurrentActor()
	if actor == nil {
		return nil, fmt.Errorf("combat: encounter %s has no living combatant", e.ID)
	}

	if e.extraUsed[actor.ID()] == 0 {
		e.Defense.Modifiers().Tick(actor.ID())
	}

	result := &TurnResult{Actor: actor}
	acted := false
	defer func() {
		if acted && e.extraUsed[actor.ID()] < e.Defense.Modifiers().ExtraActions(actor.ID()) {
			e.extraUsed[actor.ID()]++
			return
		}
		e.Actions.UpdateCooldowns(actor.ID())
		delete(e.extraUsed, actor.ID())
		e.advanceTurn()
	}()

	if !e.Status.CanAct(actor.ID()) {
		result.Skipped = true
		e.logger.Debug("turn skipped",
			zap.String("actor", actor.Name()))
		return result, nil
	}

	actionID, target, err := e.resolveDecision(actor, decision)
	if err != nil {
		return nil, err
	}
	result.ActionID = actionID
	result.Target = target

	if def, ok := e.Actions.Catalog().Get(actionID); ok && target != nil {
		result.Interrupts = e.Initiative.CheckInterrupts(actor.ID(), target.ID(), string(def.Category))
	}

	result.Outcome = e.Actions.UseAction(actor, target, actionID)
	e.recordOutcome(actor, target, actionID, result.Outcome)
	acted = true
	return result, nil
}

// resolveDecision turns a player decision or an AI pick into a concrete
// action and target.
func (e *Encounter) resolveDecision(actor combatant.View, decision *Decision) (string, combatant.View, error) {
	if decision != nil {
		return decision.ActionID, decision.Target, nil
	}
	if e.SideOf(actor.ID()) != SideHostile {
		return "", nil, fmt.Errorf("combat: %s requires a decision", actor.Name())
	}

	candidates := e.livingParty()
	target := e.Tactics.SelectTarget(actor, candidates)
	info := e.Tactics.SelectAction(actor, target, e.Actions.Available(actor))
	if info == nil {
		return "", nil, fmt.Errorf("combat: %s has no usable action", actor.Name())
	}
	return info.ID, target, nil
}

// recordOutcome feeds the AI bookkeeping: action history and the threat
// event buffer consumed at round end.
func (e *Encounter) recordOutcome(actor, target combatant.View, actionID string, out action.Result) {
	if !out.Success {
		return
	}
	def, ok := e.Actions.Catalog().Get(actionID)
	if !ok {
		return
	}

	eventType := string(def.Category)
	if def.Category == action.CategorySupport && out.Healing > 0 {
		eventType = "HEAL"
	}
	e.Tactics.RecordAction(actor.ID(), ai.Record{Type: eventType, ActionID: actionID})

	ev := ai.Event{Actor: actor.ID(), Type: eventType, Damage: out.Damage}
	if target != nil {
		ev.Target = target.ID()
	}
	e.events = append(e.events, ev)
}

// EndRound closes the round: per-target effect ticks, initiative modifier
// expiry, threat updates from the round's events, and hostile tactic
// adaptation. Returns the aggregated report and opens the next round.
//
// Postcondition: UpdateModifiers has run exactly once for the round.
func (e *Encounter) EndRound() (*RoundReport, error) {
	if !e.started {
		return nil, fmt.Errorf("combat: encounter %s not started", e.ID)
	}

	report := &RoundReport{
		Round: e.round,
		Ticks: make(map[uuid.UUID]status.Result),
	}

	for _, entry := range e.order {
		target := entry.Combatant
		if target.Health() <= 0 {
			continue
		}
		tick := e.Status.Tick(target)
		if tick.Damage > 0 || tick.Healing > 0 || len(tick.Expired) > 0 {
			report.Ticks[target.ID()] = tick
		}
		if target.Health() <= 0 {
			report.Downed = append(report.Downed, target.ID())
		}
		target.TickBoosts()
	}

	e.Initiative.UpdateModifiers()

	for _, hostile := range e.livingHostiles() {
		e.Tactics.UpdateThreat(hostile, e.livingParty(), e.events)
		e.Tactics.AdaptTactics(hostile)
	}
	e.events = e.events[:0]

	report.Over = e.Over()
	report.Victory = report.Over && len(e.livingParty()) > 0
	if !report.Over {
		e.round++
		e.turn = 0
	}
	e.logger.Debug("round ended",
		zap.Stringer("encounter", e.ID),
		zap.Int("round", report.Round),
		zap.Bool("over", report.Over))
	return report, nil
}

// Reset clears every side table at combat end. Combatants themselves are
// untouched; they belong to the character subsystem.
func (e *Encounter) Reset() {
	e.Status.Reset()
	e.Tactical.Reset()
	e.Initiative.Reset()
	e.Defense.Reset()
	e.Defense.Modifiers().Reset()
	e.Actions.Reset()
	e.Tactics.Reset()
	e.Groups.Reset()
	e.started = false
	e.round = 0
	e.turn = 0
	e.order = nil
	e.events = nil
	e.extraUsed = make(map[uuid.UUID]int)
}
