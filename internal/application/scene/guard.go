package scene

import (
	"errors"
	"fmt"

	"github.com/younwookim/lightscenes/internal/application/state"
	"github.com/younwookim/lightscenes/internal/gfx"
	"github.com/younwookim/lightscenes/internal/infrastructure/log"
)

// ErrLifecycle is returned when a lifecycle operation is invoked out of order
var ErrLifecycle = errors.New("scene lifecycle violation")

// Guard wraps a Scene and enforces the call order of the lifecycle.
// Init and Load report violations as errors; the other operations log them and
// skip the call.
type Guard struct {
	scene Scene
	state state.Lifecycle
	log   *log.Logger

	// Violations counts rejected calls
	Violations int
}

// NewGuard wraps s
func NewGuard(s Scene, logger *log.Logger) *Guard {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Guard{scene: s, state: state.StateCreated, log: logger}
}

// State returns the current lifecycle state
func (g *Guard) State() state.Lifecycle {
	return g.state
}

// Scene returns the wrapped scene
func (g *Guard) Scene() Scene {
	return g.scene
}

func (g *Guard) Name() string {
	return g.scene.Name()
}

func (g *Guard) check(op state.Op) error {
	if g.state.Allowed(op) {
		return nil
	}
	g.Violations++
	return fmt.Errorf("%w: %s while %s", ErrLifecycle, op, g.state)
}

func (g *Guard) skip(op state.Op) bool {
	if err := g.check(op); err != nil {
		g.log.Warnw("skipping scene call", "scene", g.scene.Name(), "error", err)
		return true
	}
	return false
}

func (g *Guard) Init(dev gfx.Device) error {
	if err := g.check(state.OpInit); err != nil {
		return err
	}
	if err := g.scene.Init(dev); err != nil {
		return fmt.Errorf("init %s: %w", g.scene.Name(), err)
	}
	g.state = g.state.After(state.OpInit)
	g.log.Debugw("scene initialized", "scene", g.scene.Name())
	return nil
}

func (g *Guard) Load(dev gfx.Device, sc gfx.SwapChain, depth gfx.RenderTarget) error {
	if err := g.check(state.OpLoad); err != nil {
		return err
	}
	if err := g.scene.Load(dev, sc, depth); err != nil {
		return fmt.Errorf("load %s: %w", g.scene.Name(), err)
	}
	g.state = g.state.After(state.OpLoad)
	g.log.Debugw("scene loaded", "scene", g.scene.Name())
	return nil
}

func (g *Guard) Update(dt float32) {
	if g.skip(state.OpUpdate) {
		return
	}
	g.scene.Update(dt)
}

func (g *Guard) Draw(cmd gfx.Cmd, imageIndex int) {
	if g.skip(state.OpDraw) {
		return
	}
	g.scene.Draw(cmd, imageIndex)
}

func (g *Guard) DrawUI() {
	if g.skip(state.OpDrawUI) {
		return
	}
	g.scene.DrawUI()
}

func (g *Guard) Unload(dev gfx.Device) {
	if g.skip(state.OpUnload) {
		return
	}
	g.scene.Unload(dev)
	g.state = g.state.After(state.OpUnload)
	g.log.Debugw("scene unloaded", "scene", g.scene.Name())
}

func (g *Guard) Exit(dev gfx.Device) {
	if g.skip(state.OpExit) {
		return
	}
	g.scene.Exit(dev)
	g.state = g.state.After(state.OpExit)
	g.log.Debugw("scene exited", "scene", g.scene.Name())
}
