package combatant

import "github.com/google/uuid"

// StatBoost is one timed stat adjustment on a Sheet.
type StatBoost struct {
	Stat     string
	Value    int
	Duration int
	Source   string
}

// Sheet is the reference View implementation used by the simulator and
// tests. Real characters from the character subsystem satisfy View with
// their own types.
//
// Sheet is not safe for concurrent use; the combat step serializes access.
type Sheet struct {
	UID       uuid.UUID
	CharName  string
	Player    bool
	Cat       Category
	Cls       Class
	CharLevel int

	Base Stats

	EquippedWeapon *Weapon
	EquippedShield *Shield
	Installed      []Implant
	AbilityList    []string

	HP    int
	MaxHP int
	AP    int
	EN    int

	Items map[string]int

	boosts []StatBoost

	Pos      Point
	Guarding bool

	// RollDamage overrides the default weapon damage computation when set.
	RollDamage func(target View) DamageRoll
}

// NewSheet creates a Sheet with a fresh stable ID and full health.
//
// Postcondition: Health() == MaxHealth() == maxHP.
func NewSheet(name string, cat Category, cls Class, level int, base Stats, maxHP int) *Sheet {
	return &Sheet{
		UID:       uuid.New(),
		CharName:  name,
		Cat:       cat,
		Cls:       cls,
		CharLevel: level,
		Base:      base,
		HP:        maxHP,
		MaxHP:     maxHP,
		Items:     make(map[string]int),
	}
}

func (s *Sheet) ID() uuid.UUID      { return s.UID }
func (s *Sheet) Name() string       { return s.CharName }
func (s *Sheet) IsPlayer() bool     { return s.Player }
func (s *Sheet) Category() Category { return s.Cat }
func (s *Sheet) Class() Class       { return s.Cls }
func (s *Sheet) Level() int         { return s.CharLevel }

// EffectiveStats returns base stats with all active boosts applied.
func (s *Sheet) EffectiveStats() Stats {
	stats := s.Base
	for _, b := range s.boosts {
		stats = stats.Add(b.Stat, b.Value)
	}
	return stats
}

// Weapon returns the equipped weapon, if any.
func (s *Sheet) Weapon() (Weapon, bool) {
	if s.EquippedWeapon == nil {
		return Weapon{}, false
	}
	return *s.EquippedWeapon, true
}

// Shield returns the equipped shield, if any.
func (s *Sheet) Shield() (Shield, bool) {
	if s.EquippedShield == nil {
		return Shield{}, false
	}
	return *s.EquippedShield, true
}

func (s *Sheet) Implants() []Implant { return s.Installed }
func (s *Sheet) Abilities() []string { return s.AbilityList }

func (s *Sheet) Health() int    { return s.HP }
func (s *Sheet) MaxHealth() int { return s.MaxHP }

// ApplyDamage reduces health by amount, flooring at zero.
//
// Precondition: amount >= 0.
// Postcondition: Health() >= 0.
func (s *Sheet) ApplyDamage(amount int) {
	s.HP -= amount
	if s.HP < 0 {
		s.HP = 0
	}
}

// Heal raises health by amount, capped at MaxHealth.
//
// Precondition: amount >= 0.
// Postcondition: Health() <= MaxHealth().
func (s *Sheet) Heal(amount int) {
	s.HP += amount
	if s.HP > s.MaxHP {
		s.HP = s.MaxHP
	}
}

func (s *Sheet) ActionPoints() int       { return s.AP }
func (s *Sheet) SpendActionPoints(n int) { s.AP -= n }
func (s *Sheet) Energy() int             { return s.EN }
func (s *Sheet) SpendEnergy(n int)       { s.EN -= n }

// HasItem reports whether at least one of the item is in inventory.
func (s *Sheet) HasItem(id string) bool { return s.Items[id] > 0 }

// RemoveItem consumes one of the item, reporting whether one was present.
func (s *Sheet) RemoveItem(id string) bool {
	if s.Items[id] <= 0 {
		return false
	}
	s.Items[id]--
	return true
}

// AddStatBoost installs a timed stat adjustment.
func (s *Sheet) AddStatBoost(stat string, value, duration int, source string) {
	s.boosts = append(s.boosts, StatBoost{Stat: stat, Value: value, Duration: duration, Source: source})
}

// TickBoosts decrements boost durations and prunes expired entries.
// Must run once per round per combatant.
func (s *Sheet) TickBoosts() {
	kept := s.boosts[:0]
	for _, b := range s.boosts {
		b.Duration--
		if b.Duration > 0 {
			kept = append(kept, b)
		}
	}
	s.boosts = kept
}

func (s *Sheet) Position() Point  { return s.Pos }
func (s *Sheet) IsGuarding() bool { return s.Guarding }

// WeaponDamage computes the sheet's weapon damage roll against target.
// Without an override the roll is deterministic: weapon damage plus half
// strength, unarmed combatants hit for half strength alone.
func (s *Sheet) WeaponDamage(target View) DamageRoll {
	if s.RollDamage != nil {
		return s.RollDamage(target)
	}
	stats := s.EffectiveStats()
	dmg := stats.Strength / 2
	dtype := DamagePhysical
	if w, ok := s.Weapon(); ok {
		dmg += w.Damage
		dtype = w.DamageType
	}
	return DamageRoll{Damage: dmg, Critical: false, Type: dtype}
}
