// Package ai drives non-player combatants: per-enemy tactic archetypes,
// threat tracking over observed actions, target and action selection, and
// tactic adaptation under pressure.
package ai

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orenaud/neonfall/internal/game/action"
	"github.com/orenaud/neonfall/internal/game/combatant"
	"github.com/orenaud/neonfall/internal/game/dice"
)

// Tactic is the closed set of enemy behavior archetypes.
type Tactic string

const (
	TacticAggressive Tactic = "AGGRESSIVE"
	TacticDefensive  Tactic = "DEFENSIVE"
	TacticBalanced   Tactic = "BALANCED"
	TacticSupport    Tactic = "SUPPORT"
	TacticFlanking   Tactic = "FLANKING"
	TacticRanged     Tactic = "RANGED"
	TacticBerserker  Tactic = "BERSERKER"
	TacticTactical   Tactic = "TACTICAL"
)

// Tactics assigned by combatant category when no class preference wins.
var categoryTactics = map[combatant.Category]Tactic{
	combatant.CategoryHuman:    TacticBalanced,
	combatant.CategoryRobot:    TacticTactical,
	combatant.CategoryDrone:    TacticRanged,
	combatant.CategoryCyborg:   TacticAggressive,
	combatant.CategoryMutant:   TacticBerserker,
	combatant.CategorySecurity: TacticDefensive,
	combatant.CategoryHacker:   TacticSupport,
}

// Tactics assigned by combat class, preferred with probability 0.7.
var classTactics = map[combatant.Class]Tactic{
	combatant.ClassGrunt:    TacticAggressive,
	combatant.ClassElite:    TacticTactical,
	combatant.ClassSniper:   TacticRanged,
	combatant.ClassTank:     TacticDefensive,
	combatant.ClassSupport:  TacticSupport,
	combatant.ClassAssassin: TacticFlanking,
	combatant.ClassBoss:     TacticBalanced,
}

// Event is one observed combat action, fed to threat tracking.
type Event struct {
	Actor  uuid.UUID
	Target uuid.UUID
	Type   string
	Damage int
}

// Record is one entry in an actor's recent action history.
type Record struct {
	Type     string
	ActionID string
}

const (
	baseThreat = 50.0
	minThreat  = 10.0
	maxThreat  = 100.0

	historyCap = 10
)

// System holds per-enemy AI state. Not safe for concurrent use.
type System struct {
	roller *dice.Roller
	logger *zap.Logger

	tactics map[uuid.UUID]Tactic
	threat  map[uuid.UUID]map[uuid.UUID]float64
	history map[uuid.UUID][]Record
	allies  map[uuid.UUID][]uuid.UUID
}

// NewSystem creates an AI System.
// Precondition: roller and logger must not be nil.
func NewSystem(roller *dice.Roller, logger *zap.Logger) *System {
	return &System{
		roller:  roller,
		logger:  logger,
		tactics: make(map[uuid.UUID]Tactic),
		threat:  make(map[uuid.UUID]map[uuid.UUID]float64),
		history: make(map[uuid.UUID][]Record),
		allies:  make(map[uuid.UUID][]uuid.UUID),
	}
}

// RegisterEnemy assigns enemy a tactic from its class and category tables,
// picking the class tactic with probability 0.7. Registration is idempotent.
func (s *System) RegisterEnemy(enemy combatant.View) Tactic {
	if t, ok := s.tactics[enemy.ID()]; ok {
		return t
	}
	categoryTactic, ok := categoryTactics[enemy.Category()]
	if !ok {
		categoryTactic = TacticBalanced
	}
	classTactic, ok := classTactics[enemy.Class()]
	if !ok {
		classTactic = TacticBalanced
	}
	tactic := categoryTactic
	if s.roller.Percent(0.7) {
		tactic = classTactic
	}
	s.tactics[enemy.ID()] = tactic
	s.threat[enemy.ID()] = make(map[uuid.UUID]float64)
	s.logger.Debug("enemy registered",
		zap.String("enemy", enemy.Name()),
		zap.String("tactic", string(tactic)))
	return tactic
}

// Tactic returns enemy's current tactic, or balanced if unregistered.
func (s *System) Tactic(enemy uuid.UUID) Tactic {
	if t, ok := s.tactics[enemy]; ok {
		return t
	}
	return TacticBalanced
}

// SetTactic overrides enemy's tactic.
func (s *System) SetTactic(enemy uuid.UUID, t Tactic) {
	s.tactics[enemy] = t
}

// SetAllies records which combatants count as enemy's allies for support
// scoring and tactic adaptation. The group coordinator wires this.
func (s *System) SetAllies(enemy uuid.UUID, allies []uuid.UUID) {
	s.allies[enemy] = allies
}

// UpdateThreat folds recent combat events into enemy's threat table.
// Unseen targets start at 50; threat from actions against the enemy grows
// by action type, observed healing raises the healer's threat, and all
// values clamp to [10, 100].
func (s *System) UpdateThreat(enemy combatant.View, targets []combatant.View, recent []Event) {
	s.RegisterEnemy(enemy)
	table := s.threat[enemy.ID()]

	targetSet := make(map[uuid.UUID]bool, len(targets))
	for _, t := range targets {
		targetSet[t.ID()] = true
		if _, ok := table[t.ID()]; !ok {
			table[t.ID()] = baseThreat
		}
	}

	for _, ev := range recent {
		if ev.Actor == uuid.Nil {
			continue
		}
		if ev.Target == enemy.ID() {
			increase := 0.0
			switch ev.Type {
			case "ATTACK":
				increase = math.Min(30, float64(ev.Damage)/2)
			case "DEBUFF":
				increase = 15
			case "CONTROL":
				increase = 25
			}
			if _, ok := table[ev.Actor]; ok {
				table[ev.Actor] += increase
			}
		} else if ev.Type == "HEAL" && targetSet[ev.Actor] {
			if _, ok := table[ev.Actor]; ok {
				table[ev.Actor] += 10
			}
		}
	}

	for id, level := range table {
		table[id] = math.Max(minThreat, math.Min(maxThreat, level))
	}
}

// ThreatLevel returns enemy's tracked threat for target, defaulting to 50.
func (s *System) ThreatLevel(enemy, target uuid.UUID) float64 {
	if level, ok := s.threat[enemy][target]; ok {
		return level
	}
	return baseThreat
}

func healthRatio(v combatant.View) float64 {
	max := v.MaxHealth()
	if max <= 0 {
		return 0
	}
	return float64(v.Health()) / float64(max)
}

// IsHealer reports whether target recently healed or carries a heal-named
// ability.
func (s *System) IsHealer(target combatant.View) bool {
	for _, rec := range s.history[target.ID()] {
		if rec.Type == "HEAL" {
			return true
		}
	}
	for _, ability := range target.Abilities() {
		if strings.Contains(strings.ToLower(ability), "heal") {
			return true
		}
	}
	return false
}

// HighValue reports whether target warrants spending an ultimate: players,
// healers, high-health targets, and high-level targets qualify.
func (s *System) HighValue(target combatant.View) bool {
	if target.IsPlayer() {
		return true
	}
	if s.IsHealer(target) {
		return true
	}
	if target.MaxHealth() > 150 {
		return true
	}
	return target.Level() > 5
}

// SelectTarget scores every candidate and returns the best. Returns nil for
// an empty candidate list.
func (s *System) SelectTarget(enemy combatant.View, candidates []combatant.View) combatant.View {
	if len(candidates) == 0 {
		return nil
	}
	s.RegisterEnemy(enemy)
	tactic := s.tactics[enemy.ID()]

	var best combatant.View
	bestScore := math.Inf(-1)
	for _, target := range candidates {
		score := s.ThreatLevel(enemy.ID(), target.ID())

		switch tactic {
		case TacticAggressive:
			score += (1 - healthRatio(target)) * 30
		case TacticDefensive:
			distance := enemy.Position().DistanceTo(target.Position())
			score += (1 - math.Min(1, distance/10)) * 20
		case TacticSupport:
			for _, ally := range s.allies[enemy.ID()] {
				score += s.threat[ally][target.ID()] * 0.5
			}
		case TacticFlanking:
			if !target.IsGuarding() {
				score += 30
			}
		case TacticRanged:
			distance := enemy.Position().DistanceTo(target.Position())
			score += math.Min(30, distance*3)
		}

		if s.IsHealer(target) {
			score += 20
		}
		score += (1 - healthRatio(target)) * 15

		if score > bestScore {
			bestScore = score
			best = target
		}
	}
	s.logger.Debug("target selected",
		zap.String("enemy", enemy.Name()),
		zap.String("target", best.Name()),
		zap.Float64("score", bestScore))
	return best
}

// SelectAction scores every available action for enemy against target and
// returns the best, with random noise to avoid predictability. Returns nil
// when nothing is usable.
func (s *System) SelectAction(enemy, target combatant.View, available []action.Info) *action.Info {
	s.RegisterEnemy(enemy)
	tactic := s.tactics[enemy.ID()]
	hr := healthRatio(enemy)

	var best *action.Info
	bestScore := math.Inf(-1)
	for i := range available {
		info := &available[i]
		if !info.Available {
			continue
		}
		score := 50.0
		id := strings.ToLower(info.ID)

		switch tactic {
		case TacticAggressive:
			if info.Category == action.CategoryAttack {
				score += 30
			}
		case TacticDefensive:
			if info.Category == action.CategoryDefense {
				score += 30
			}
		case TacticSupport:
			if info.Category == action.CategorySupport {
				score += 30
			}
		case TacticFlanking:
			if info.Category == action.CategoryMovement {
				score += 20
			}
			if strings.Contains(id, "flank") || strings.Contains(id, "backstab") {
				score += 30
			}
		case TacticRanged:
			if strings.Contains(id, "ranged") || strings.Contains(id, "shot") {
				score += 30
			}
		case TacticBerserker:
			if strings.Contains(id, "power") || strings.Contains(id, "rage") {
				score += 30
			}
			if info.Category == action.CategoryDefense {
				score -= 20
			}
		case TacticTactical:
			if strings.Contains(id, "tactical") || strings.Contains(id, "environment") {
				score += 30
			}
		}

		if hr < 0.3 {
			if info.Category == action.CategoryDefense {
				score += 40
			}
			if strings.Contains(id, "heal") || strings.Contains(id, "retreat") || strings.Contains(id, "aid") {
				score += 50
			}
		}

		if info.Category == action.CategoryUltimate {
			switch {
			case target != nil && s.HighValue(target):
				score += 40
			case hr < 0.4:
				score += 30
			default:
				score -= 20
			}
		}

		score += float64(s.roller.Jitter(10))

		if score > bestScore {
			bestScore = score
			best = info
		}
	}
	return best
}

// RecordAction appends to actor's rolling action history, capped at 10.
func (s *System) RecordAction(actor uuid.UUID, rec Record) {
	h := append(s.history[actor], rec)
	if len(h) > historyCap {
		h = h[len(h)-historyCap:]
	}
	s.history[actor] = h
}

// History returns actor's recent actions, oldest first.
func (s *System) History(actor uuid.UUID) []Record {
	return s.history[actor]
}

// AdaptTactics reconsiders enemy's tactic: below 30% health, rational
// categories turn defensive while instinctive ones go berserk; and with 30%
// probability the enemy complements an ally group that has unanimously
// converged on one tactic.
func (s *System) AdaptTactics(enemy combatant.View) {
	s.RegisterEnemy(enemy)
	current := s.tactics[enemy.ID()]

	if healthRatio(enemy) < 0.3 {
		next := TacticBerserker
		switch enemy.Category() {
		case combatant.CategoryHuman, combatant.CategorySecurity, combatant.CategoryRobot:
			next = TacticDefensive
		}
		if current != next {
			s.tactics[enemy.ID()] = next
			s.logger.Debug("tactic adapted under pressure",
				zap.String("enemy", enemy.Name()),
				zap.String("from", string(current)),
				zap.String("to", string(next)))
			current = next
		}
	}

	allies := s.allies[enemy.ID()]
	if len(allies) == 0 {
		return
	}
	unanimous := s.Tactic(allies[0])
	for _, ally := range allies[1:] {
		if s.Tactic(ally) != unanimous {
			return
		}
	}
	if unanimous == current {
		return
	}
	next := current
	switch unanimous {
	case TacticAggressive:
		next = TacticSupport
	case TacticDefensive:
		next = TacticRanged
	}
	if next != current && s.roller.Percent(0.3) {
		s.tactics[enemy.ID()] = next
		s.logger.Debug("tactic adapted to complement allies",
			zap.String("enemy", enemy.Name()),
			zap.String("from", string(current)),
			zap.String("to", string(next)))
	}
}

// Reset drops threat tables and action history. Tactic assignments persist;
// they belong to the enemy, not the encounter.
func (s *System) Reset() {
	s.threat = make(map[uuid.UUID]map[uuid.UUID]float64)
	s.history = make(map[uuid.UUID][]Record)
	for id := range s.tactics {
		s.threat[id] = make(map[uuid.UUID]float64)
	}
}
