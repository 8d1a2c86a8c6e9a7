package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/lightscenes/internal/application/camera"
	"github.com/younwookim/lightscenes/internal/application/input"
	"github.com/younwookim/lightscenes/internal/application/state"
	"github.com/younwookim/lightscenes/internal/gfx"
	"github.com/younwookim/lightscenes/internal/gfx/gfxtest"
	"github.com/younwookim/lightscenes/internal/infrastructure/config"
)

// mockScene is a test double for the Scene interface
type mockScene struct {
	calls   []string
	initErr error
	loadErr error
}

func (m *mockScene) Name() string { return "mock" }

func (m *mockScene) Init(gfx.Device) error {
	m.calls = append(m.calls, "Init")
	return m.initErr
}

func (m *mockScene) Load(gfx.Device, gfx.SwapChain, gfx.RenderTarget) error {
	m.calls = append(m.calls, "Load")
	return m.loadErr
}

func (m *mockScene) Update(float32)    { m.calls = append(m.calls, "Update") }
func (m *mockScene) Draw(gfx.Cmd, int) { m.calls = append(m.calls, "Draw") }
func (m *mockScene) DrawUI()           { m.calls = append(m.calls, "DrawUI") }
func (m *mockScene) Unload(gfx.Device) { m.calls = append(m.calls, "Unload") }
func (m *mockScene) Exit(gfx.Device)   { m.calls = append(m.calls, "Exit") }

type focus bool

func (f focus) IsFocused() bool { return bool(f) }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("b", func(Env) Scene { return &mockScene{} })
	r.Register("a", func(Env) Scene { return &mockScene{} })

	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("c"))

	s, err := r.New("a", Env{})
	require.NoError(t, err)
	assert.Equal(t, "mock", s.Name())

	_, err = r.New("c", Env{})
	assert.ErrorIs(t, err, config.ErrUnknownScene)

	f, err := r.Factory("b")
	require.NoError(t, err)
	assert.Equal(t, "mock", f(Env{}).Name())

	f, err = r.Factory("c")
	assert.ErrorIs(t, err, config.ErrUnknownScene)
	assert.ErrorContains(t, err, "[a b]")
	assert.Nil(t, f)
}

func TestGuard_FullLifecycle(t *testing.T) {
	dev := gfxtest.New(640, 480, 3)
	m := &mockScene{}
	g := NewGuard(m, nil)

	assert.Equal(t, state.StateCreated, g.State())
	require.NoError(t, g.Init(dev))
	require.NoError(t, g.Load(dev, nil, nil))
	g.Update(0.016)
	g.Draw(nil, 0)
	g.DrawUI()
	g.Unload(dev)
	require.NoError(t, g.Load(dev, nil, nil))
	g.Unload(dev)
	g.Exit(dev)

	assert.Equal(t, state.StateExited, g.State())
	assert.Equal(t, 0, g.Violations)
	assert.Equal(t, []string{"Init", "Load", "Update", "Draw", "DrawUI", "Unload", "Load", "Unload", "Exit"}, m.calls)
}

func TestGuard_RejectsOutOfOrder(t *testing.T) {
	dev := gfxtest.New(640, 480, 3)

	t.Run("load before init", func(t *testing.T) {
		m := &mockScene{}
		g := NewGuard(m, nil)

		err := g.Load(dev, nil, nil)
		assert.ErrorIs(t, err, ErrLifecycle)
		assert.Empty(t, m.calls)
	})

	t.Run("draw before load", func(t *testing.T) {
		m := &mockScene{}
		g := NewGuard(m, nil)
		require.NoError(t, g.Init(dev))

		g.Update(0.016)
		g.Draw(nil, 0)
		g.DrawUI()

		assert.Equal(t, []string{"Init"}, m.calls)
		assert.Equal(t, 3, g.Violations)
	})

	t.Run("double init", func(t *testing.T) {
		g := NewGuard(&mockScene{}, nil)
		require.NoError(t, g.Init(dev))
		assert.ErrorIs(t, g.Init(dev), ErrLifecycle)
	})

	t.Run("exit while loaded", func(t *testing.T) {
		m := &mockScene{}
		g := NewGuard(m, nil)
		require.NoError(t, g.Init(dev))
		require.NoError(t, g.Load(dev, nil, nil))

		g.Exit(dev)
		assert.Equal(t, state.StateLoaded, g.State())
		assert.NotContains(t, m.calls, "Exit")
	})
}

func TestGuard_FailuresKeepState(t *testing.T) {
	dev := gfxtest.New(640, 480, 3)
	boom := errors.New("boom")

	m := &mockScene{initErr: boom}
	g := NewGuard(m, nil)
	assert.ErrorIs(t, g.Init(dev), boom)
	assert.Equal(t, state.StateCreated, g.State())

	m.initErr = nil
	m.loadErr = boom
	require.NoError(t, g.Init(dev))
	assert.ErrorIs(t, g.Load(dev, nil, nil), boom)
	assert.Equal(t, state.StateInitialized, g.State())
}

type stickSource struct{ st input.State }

func (s *stickSource) Poll() input.State { return s.st }

func TestBindCamera(t *testing.T) {
	cfg := &config.SceneConfig{Input: config.InputConfig{
		Move:   config.AxisConfig{Deadzone: 0.1, OutsideRadius: 1, Scale: 1},
		Rotate: config.AxisConfig{Deadzone: 0.5, OutsideRadius: 64, Scale: 0.01},
	}}
	src := &stickSource{}
	sys := input.NewSystem(src)
	cam := camera.NewFPS(mgl32.Vec3{0, 0, 3}, mgl32.Vec3{})
	cam.SetMotion(camera.Motion{MaxSpeed: 1, Acceleration: 100, Braking: 100})

	var ui focus
	b := BindCamera(Env{Config: cfg, Input: sys, UI: &ui}, cam, true)
	assert.Equal(t, 3, sys.ActionCount())

	t.Run("not captured", func(t *testing.T) {
		src.st = input.State{LeftStick: [2]float32{0, 1}}
		sys.Update()
		cam.Update(1)
		assert.Equal(t, mgl32.Vec3{0, 0, 3}, cam.Position())
	})

	t.Run("captured moves", func(t *testing.T) {
		sys.SetCaptured(true)
		sys.Update()
		cam.Update(1)
		assert.InDelta(t, 2, cam.Position().Z(), 1e-5)
	})

	t.Run("ui focus blocks", func(t *testing.T) {
		cam.ResetView()
		ui = true
		sys.Update()
		cam.Update(1)
		assert.Equal(t, mgl32.Vec3{0, 0, 3}, cam.Position())
		ui = false
	})

	t.Run("north resets", func(t *testing.T) {
		src.st = input.State{LeftStick: [2]float32{0, 1}}
		sys.Update()
		cam.Update(1)
		require.NotEqual(t, mgl32.Vec3{0, 0, 3}, cam.Position())

		src.st = input.State{Buttons: input.Buttons(0).With(input.ButtonNorth)}
		sys.Update()
		assert.Equal(t, mgl32.Vec3{0, 0, 3}, cam.Position())
	})

	b.Release()
	assert.Equal(t, 0, sys.ActionCount())
	// Releasing twice is harmless
	b.Release()
}

func TestNewCamera(t *testing.T) {
	t.Run("from config", func(t *testing.T) {
		cfg := &config.SceneConfig{Camera: config.CameraConfig{
			Position: config.Vec3{2, 2, 2},
			Motion:   config.MotionConfig{MaxSpeed: 160, Acceleration: 600, Braking: 200},
		}}
		cam := NewCamera(cfg, mgl32.Vec3{0, 0, 3}, mgl32.Vec3{}, camera.Motion{MaxSpeed: 1})
		assert.Equal(t, mgl32.Vec3{2, 2, 2}, cam.Position())
		assert.Equal(t, camera.Motion{MaxSpeed: 160, Acceleration: 600, Braking: 200}, cam.Motion())
	})

	t.Run("defaults", func(t *testing.T) {
		cam := NewCamera(nil, mgl32.Vec3{0, 0, 3}, mgl32.Vec3{}, camera.Motion{MaxSpeed: 16, Acceleration: 10, Braking: 20})
		assert.Equal(t, mgl32.Vec3{0, 0, 3}, cam.Position())
		assert.Equal(t, float32(16), cam.Motion().MaxSpeed)
	})
}
