package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM hosting behavior scripts.
// Single-goroutine access only (simulation loop); jobs never touch it.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. A missing directory is not an error; every entity falls back
// to the built-in wander behavior.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load behavior scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

// BehaviorView is the value-copied state handed to a decide function. No
// references into simulation memory cross the boundary.
type BehaviorView struct {
	X, Y        float64
	Rotation    float64
	Health      float64
	Hunger      float64
	Thirst      float64
	State       string
	NearbyCount int
	Rand        float64 // seeded, deterministic per entity per decision
	Rand2       float64
}

// BehaviorIntent is what a decide function returns: a move direction and an
// optional new state. The behavior system applies it on the tick thread.
type BehaviorIntent struct {
	MoveX, MoveY float64
	State        string
}

// Decide calls the Lua function registered under the given name. The second
// return is false when the function does not exist, letting the caller fall
// back to the built-in behavior.
func (e *Engine) Decide(fn string, view BehaviorView) (BehaviorIntent, bool, error) {
	luaFn := e.vm.GetGlobal(fn)
	if luaFn == lua.LNil {
		return BehaviorIntent{}, false, nil
	}

	t := e.vm.NewTable()
	t.RawSetString("x", lua.LNumber(view.X))
	t.RawSetString("y", lua.LNumber(view.Y))
	t.RawSetString("rotation", lua.LNumber(view.Rotation))
	t.RawSetString("health", lua.LNumber(view.Health))
	t.RawSetString("hunger", lua.LNumber(view.Hunger))
	t.RawSetString("thirst", lua.LNumber(view.Thirst))
	t.RawSetString("state", lua.LString(view.State))
	t.RawSetString("nearby_count", lua.LNumber(view.NearbyCount))
	t.RawSetString("rand", lua.LNumber(view.Rand))
	t.RawSetString("rand2", lua.LNumber(view.Rand2))

	if err := e.vm.CallByParam(lua.P{
		Fn:      luaFn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		return BehaviorIntent{}, true, fmt.Errorf("lua %s: %w", fn, err)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return BehaviorIntent{}, true, fmt.Errorf("lua %s returned non-table", fn)
	}

	return BehaviorIntent{
		MoveX: float64(lua.LVAsNumber(rt.RawGetString("move_x"))),
		MoveY: float64(lua.LVAsNumber(rt.RawGetString("move_y"))),
		State: lua.LVAsString(rt.RawGetString("state")),
	}, true, nil
}
