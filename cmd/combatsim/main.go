// Package main runs a seeded combat encounter end to end and prints a
// round-by-round transcript. Useful for balancing catalogs and reproducing
// fights from a seed.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/orenaud/neonfall/internal/config"
	"github.com/orenaud/neonfall/internal/game/action"
	"github.com/orenaud/neonfall/internal/game/combat"
	"github.com/orenaud/neonfall/internal/game/combatant"
	"github.com/orenaud/neonfall/internal/game/dice"
	"github.com/orenaud/neonfall/internal/game/status"
	"github.com/orenaud/neonfall/internal/observability"
	"github.com/orenaud/neonfall/internal/scripting"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (optional)")
	seed := flag.Int64("seed", 0, "dice seed override (0 = config value)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}
	if *seed != 0 {
		cfg.Combat.Seed = *seed
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("simulation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	statusCatalog, err := loadStatusCatalog(cfg.Content.EffectsDir)
	if err != nil {
		return err
	}
	actionCatalog, err := loadActionCatalog(cfg.Content.ActionsDir)
	if err != nil {
		return err
	}

	var hooks status.HookCaller
	if cfg.Content.ScriptsDir != "" {
		roller := dice.NewRoller(dice.NewSeededSource(cfg.Combat.Seed), logger)
		mgr := scripting.NewManager(roller, logger)
		if err := mgr.Load(cfg.Content.ScriptsDir, cfg.Content.ScriptInstructionLimit); err != nil {
			return err
		}
		defer mgr.Close()
		hooks = mgr
	}

	engine := combat.NewEngine()
	enc := engine.Start(combat.Config{
		Seed:          cfg.Combat.Seed,
		StatusCatalog: statusCatalog,
		ActionCatalog: actionCatalog,
		Hooks:         hooks,
		Logger:        logger,
	})
	defer func() { _ = engine.End(enc.ID) }()
	encLog := observability.ForEncounter(logger, enc.ID)

	player := demoPlayer()
	raiders := demoRaiders()
	if err := enc.AddParty(player); err != nil {
		return err
	}
	hostileViews := make([]combatant.View, len(raiders))
	for i, r := range raiders {
		hostileViews[i] = r
	}
	if err := enc.AddHostiles("raiders", hostileViews...); err != nil {
		return err
	}
	if err := enc.Begin(); err != nil {
		return err
	}

	fmt.Printf("encounter %s, seed %d\n", enc.ID, cfg.Combat.Seed)
	for _, entry := range enc.Order() {
		fmt.Printf("  initiative %2d  %s\n", entry.Value, entry.Combatant.Name())
	}

	for round := 1; round <= cfg.Combat.MaxRounds && !enc.Over(); round++ {
		fmt.Printf("\n--- round %d ---\n", enc.Round())
		for range enc.Order() {
			if enc.Over() {
				break
			}
			actor := enc.CurrentActor()
			if actor == nil {
				break
			}

			var decision *combat.Decision
			if enc.SideOf(actor.ID()) == combat.SideParty {
				decision = playerDecision(enc, actor, raiders)
			}
			result, err := enc.TakeTurn(decision)
			if err != nil {
				return err
			}
			printTurn(result)
		}
		if enc.Over() {
			break
		}
		report, err := enc.EndRound()
		if err != nil {
			return err
		}
		encLog.Debug("round complete",
			zap.Int("round", report.Round),
			zap.Int("downed", len(report.Downed)),
			zap.Bool("over", report.Over))
		printRoundReport(enc, report)
	}

	fmt.Println()
	if livingCount(raiders) == 0 {
		fmt.Println("the raiders are down")
	} else if player.HP <= 0 {
		fmt.Println("the player is down")
	} else {
		fmt.Println("stalemate, round cap reached")
	}
	return nil
}

func loadStatusCatalog(dir string) (*status.Catalog, error) {
	if dir == "" {
		return status.BuiltinCatalog(), nil
	}
	return status.LoadDirectory(dir)
}

func loadActionCatalog(dir string) (*action.Catalog, error) {
	if dir == "" {
		return action.BuiltinCatalog(), nil
	}
	return action.LoadDirectory(dir)
}

func demoPlayer() *combatant.Sheet {
	s := combatant.NewSheet("Vex", combatant.CategoryHuman, combatant.ClassElite, 5,
		combatant.Stats{Strength: 9, Reflexes: 7, Agility: 6, Endurance: 6,
			Precision: 8, Medical: 4, Accuracy: 110}, 140)
	s.Player = true
	s.AP = 40
	s.EN = 120
	s.EquippedWeapon = &combatant.Weapon{
		Name: "mono-blade", Kind: combatant.WeaponMelee,
		DamageType: combatant.DamagePhysical, Damage: 12, Weight: 3,
	}
	s.Items = map[string]int{"medkit": 2}
	return s
}

func demoRaiders() []*combatant.Sheet {
	mk := func(name string, class combatant.Class, hp int) *combatant.Sheet {
		s := combatant.NewSheet(name, combatant.CategoryHuman, class, 3,
			combatant.Stats{Strength: 7, Reflexes: 5, Agility: 5, Endurance: 4,
				Precision: 5, Accuracy: 100}, hp)
		s.AP = 40
		s.EN = 80
		s.EquippedWeapon = &combatant.Weapon{
			Name: "pipe-club", Kind: combatant.WeaponMelee,
			DamageType: combatant.DamagePhysical, Damage: 7, Weight: 4,
		}
		return s
	}
	return []*combatant.Sheet{
		mk("Scav", combatant.ClassGrunt, 90),
		mk("Havok", combatant.ClassGrunt, 90),
		mk("Creed", combatant.ClassElite, 110),
	}
}

// playerDecision is a scripted stand-in for interactive input: heal when
// hurt and a medkit remains, otherwise swing at the first living raider.
func playerDecision(enc *combat.Encounter, actor combatant.View, raiders []*combatant.Sheet) *combat.Decision {
	if actor.Health() < actor.MaxHealth()/3 && actor.HasItem("medkit") &&
		enc.Actions.CooldownRemaining(actor.ID(), "first_aid") == 0 {
		return &combat.Decision{ActionID: "first_aid", Target: actor}
	}
	for _, r := range raiders {
		if r.HP > 0 {
			if enc.Actions.CooldownRemaining(actor.ID(), "power_strike") == 0 {
				return &combat.Decision{ActionID: "power_strike", Target: r}
			}
			return &combat.Decision{ActionID: "charge", Target: r}
		}
	}
	return &combat.Decision{ActionID: "defensive_stance"}
}

func printTurn(result *combat.TurnResult) {
	if result.Skipped {
		fmt.Printf("%s cannot act\n", result.Actor.Name())
		return
	}
	fmt.Printf("%s\n", result.Outcome.Message)
	for _, interrupt := range result.Interrupts {
		fmt.Printf("  interrupt by %s (%s)\n", interrupt.Interrupter, interrupt.Reaction.Type)
	}
}

func printRoundReport(enc *combat.Encounter, report *combat.RoundReport) {
	for _, entry := range enc.Order() {
		tick, ok := report.Ticks[entry.Combatant.ID()]
		if !ok {
			continue
		}
		if tick.Damage > 0 {
			fmt.Printf("%s suffers %d from ongoing effects\n", entry.Combatant.Name(), tick.Damage)
		}
		if tick.Healing > 0 {
			fmt.Printf("%s recovers %d from ongoing effects\n", entry.Combatant.Name(), tick.Healing)
		}
		for _, expired := range tick.Expired {
			fmt.Printf("%s: %s wears off\n", entry.Combatant.Name(), expired)
		}
	}
	for _, entry := range enc.Order() {
		fmt.Printf("  %s %d/%d hp\n", entry.Combatant.Name(),
			entry.Combatant.Health(), entry.Combatant.MaxHealth())
	}
}

func livingCount(raiders []*combatant.Sheet) int {
	n := 0
	for _, r := range raiders {
		if r.HP > 0 {
			n++
		}
	}
	return n
}
