package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/orenaud/neonfall/internal/game/dice"
)

// Manager owns one sandboxed LState holding all status-effect hook scripts
// and dispatches apply/expire hooks into it. It satisfies the status
// registry's HookCaller interface.
//
// Manager serializes all hook calls through an internal mutex; the LState
// is single-threaded.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	cancel func()
	roller *dice.Roller
	logger *zap.Logger

	// Injected after construction. nil = no-op in combat.* modules.
	ApplyEffect func(targetName, effectID string, level int) bool
	DealDamage  func(targetName string, amount int)
	HealTarget  func(targetName string, amount int)
	Notify      func(msg string)
}

// NewManager creates a Manager with no scripts loaded. CallEffectHook on
// an empty Manager is a no-op.
//
// Precondition: roller and logger must be non-nil.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	return &Manager{
		roller: roller,
		logger: logger,
	}
}

// Load creates a sandboxed VM, registers the combat.* modules, then
// executes every *.lua file in scriptDir in lexicographic order. A repeat
// Load replaces the previous VM.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: hook globals defined by the scripts are callable; returns
// an error on Lua load failure without replacing the old VM.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.registerModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.state != nil {
		m.cancel()
		m.state.Close()
	}
	m.state = L
	m.cancel = cancel
	m.mu.Unlock()
	return nil
}

// registerModules installs the combat.* Lua table: dice access and the
// injected effect callbacks.
func (m *Manager) registerModules(L *lua.LState) {
	combat := L.NewTable()

	L.SetField(combat, "roll", L.NewFunction(func(L *lua.LState) int {
		lo := int(L.CheckNumber(1))
		hi := int(L.CheckNumber(2))
		L.Push(lua.LNumber(m.roller.Between(lo, hi)))
		return 1
	}))

	L.SetField(combat, "apply_effect", L.NewFunction(func(L *lua.LState) int {
		target := L.CheckString(1)
		effect := L.CheckString(2)
		level := int(L.OptNumber(3, 1))
		applied := false
		if m.ApplyEffect != nil {
			applied = m.ApplyEffect(target, effect, level)
		}
		L.Push(lua.LBool(applied))
		return 1
	}))

	L.SetField(combat, "damage", L.NewFunction(func(L *lua.LState) int {
		if m.DealDamage != nil {
			m.DealDamage(L.CheckString(1), int(L.CheckNumber(2)))
		}
		return 0
	}))

	L.SetField(combat, "heal", L.NewFunction(func(L *lua.LState) int {
		if m.HealTarget != nil {
			m.HealTarget(L.CheckString(1), int(L.CheckNumber(2)))
		}
		return 0
	}))

	L.SetField(combat, "notify", L.NewFunction(func(L *lua.LState) int {
		msg := L.CheckString(1)
		if m.Notify != nil {
			m.Notify(msg)
		}
		m.logger.Debug("script notify", zap.String("message", msg))
		return 0
	}))

	L.SetGlobal("combat", combat)
}

// CallEffectHook invokes the named Lua global with (targetName, effectID,
// power). Undefined hooks and an unloaded Manager are silent no-ops; Lua
// runtime errors are returned for the caller to log.
func (m *Manager) CallEffectHook(hook, targetName, effectID string, power int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return nil
	}
	fn := m.state.GetGlobal(hook)
	if fn == lua.LNil {
		return nil
	}

	if err := m.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LString(targetName), lua.LString(effectID), lua.LNumber(power)); err != nil {
		return fmt.Errorf("scripting: hook %q: %w", hook, err)
	}
	return nil
}

// Close releases the VM. The Manager becomes a no-op hook caller.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.cancel()
		m.state.Close()
		m.state = nil
		m.cancel = nil
	}
}
