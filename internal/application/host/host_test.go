package host

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/lightscenes/internal/application/capture"
	"github.com/younwookim/lightscenes/internal/application/input"
	"github.com/younwookim/lightscenes/internal/application/scene"
	"github.com/younwookim/lightscenes/internal/application/scene/basiclighting"
	"github.com/younwookim/lightscenes/internal/application/scene/colors"
	"github.com/younwookim/lightscenes/internal/application/scene/testscene"
	"github.com/younwookim/lightscenes/internal/application/state"
	"github.com/younwookim/lightscenes/internal/gfx"
	"github.com/younwookim/lightscenes/internal/gfx/gfxtest"
	"github.com/younwookim/lightscenes/internal/infrastructure/config"
)

// traceScene records the frame indices it is drawn with and owns one buffer while loaded
type traceScene struct {
	dev     *gfxtest.Device
	indices []int
	buf     gfx.Buffer
	loadErr error
	loads   int
}

func (p *traceScene) Name() string          { return "trace" }
func (p *traceScene) Init(gfx.Device) error { return nil }

func (p *traceScene) Load(dev gfx.Device, sc gfx.SwapChain, depth gfx.RenderTarget) error {
	p.loads++
	if p.loadErr != nil {
		return p.loadErr
	}
	var err error
	p.buf, err = dev.AddBuffer(gfx.BufferDesc{Usage: gfx.UsageUniform, Size: 64})
	return err
}

func (p *traceScene) Update(float32) {}

func (p *traceScene) Draw(cmd gfx.Cmd, imageIndex int) {
	p.dev.Mark("scene.Draw")
	p.indices = append(p.indices, imageIndex)
}

func (p *traceScene) DrawUI()               {}
func (p *traceScene) Unload(dev gfx.Device) { dev.RemoveResource(p.buf) }
func (p *traceScene) Exit(gfx.Device)       {}

type stubSource struct{ st input.State }

func (s *stubSource) Poll() input.State { return s.st }

func newHost(t *testing.T, opts Options) (*Host, *gfxtest.Device, *traceScene) {
	t.Helper()
	dev := gfxtest.New(640, 480, 3)
	ts := &traceScene{dev: dev}

	if opts.Config == nil {
		opts.Config = config.DefaultApp()
		opts.Config.Display.ScreenWidth, opts.Config.Display.ScreenHeight = 640, 480
	}
	opts.Driver = dev
	if opts.Scene == nil {
		opts.Scene = func(scene.Env) scene.Scene { return ts }
	}
	opts.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	h, err := New(opts)
	require.NoError(t, err)
	return h, dev, ts
}

func start(t *testing.T, h *Host) {
	t.Helper()
	require.NoError(t, h.Init())
	require.NoError(t, h.Load())
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	cfg := config.DefaultApp()
	cfg.Renderer.ImageCount = 9
	_, err = New(Options{Config: cfg, Driver: gfxtest.New(1, 1, 3), Scene: func(scene.Env) scene.Scene { return nil }})
	assert.Error(t, err)

	cfg = config.DefaultApp()
	cfg.Renderer.ColorFormat = "XYZ"
	_, err = New(Options{Config: cfg, Driver: gfxtest.New(1, 1, 3), Scene: func(scene.Env) scene.Scene { return nil }})
	assert.Error(t, err)
}

func TestHost_FrameRing(t *testing.T) {
	h, dev, ts := newHost(t, Options{})
	start(t, h)

	for i := 0; i < 10; i++ {
		require.NoError(t, h.Frame(1.0/60))
	}

	assert.Equal(t, 10, dev.Count("AcquireNextImage"))
	assert.Equal(t, 10, dev.Count("Submit"))
	assert.Equal(t, 10, dev.Count("Present"))
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2, 0, 1, 2, 0}, ts.indices)
	assert.Equal(t, 10, h.Frames())
	assert.Equal(t, 1, h.FrameIndex())

	// Each frame resets the pool of its own slot
	var pools []uint64
	for _, c := range dev.Calls {
		if c.Op == "ResetCmdPool" {
			pools = append(pools, c.ID)
		}
	}
	require.Len(t, pools, 10)
	for i := 3; i < 10; i++ {
		assert.Equal(t, pools[i-3], pools[i], "frame %d", i)
	}
	assert.NotEqual(t, pools[0], pools[1])
	assert.NotEqual(t, pools[1], pools[2])

	require.NoError(t, h.Exit())
	assert.Equal(t, 0, dev.LiveCount())
	assert.Empty(t, dev.Violations)
}

func TestHost_WaitsForFenceBeforeReuse(t *testing.T) {
	t.Run("gpu behind", func(t *testing.T) {
		h, dev, _ := newHost(t, Options{})
		start(t, h)
		for i := 0; i < 10; i++ {
			require.NoError(t, h.Frame(1.0/60))
		}

		assert.Equal(t, 7, dev.Count("WaitForFences"))
		ops := dev.Ops()
		resets := 0
		for i, op := range ops {
			if op != "ResetCmdPool" {
				continue
			}
			if resets >= 3 {
				assert.Equal(t, "WaitForFences", ops[i-1], "reset %d waits first", resets)
			}
			resets++
		}
	})

	t.Run("gpu caught up", func(t *testing.T) {
		h, dev, _ := newHost(t, Options{})
		dev.AutoSignal = true
		start(t, h)
		for i := 0; i < 10; i++ {
			require.NoError(t, h.Frame(1.0/60))
		}
		assert.Equal(t, 0, dev.Count("WaitForFences"))
	})
}

func TestHost_FrameOrder(t *testing.T) {
	h, dev, _ := newHost(t, Options{})
	start(t, h)
	dev.Reset()

	require.NoError(t, h.Frame(1.0/60))

	ops := dev.Ops()
	order := []string{
		"AcquireNextImage", "FenceStatus", "ResetCmdPool", "cmd.Begin", "cmd.ResourceBarrier",
		"cmd.BindRenderTargets", "cmd.SetViewport", "cmd.SetScissor", "cmd.BeginTimestampQuery",
		"scene.Draw", "cmd.EndTimestampQuery", "cmd.BindRenderTargets", "cmd.End", "Submit", "Present",
	}
	at := 0
	for _, op := range order {
		i := dev.Index(op, at)
		require.NotEqual(t, -1, i, "%s after position %d in %v", op, at, ops)
		at = i + 1
	}
	assert.Equal(t, 2, dev.Count("cmd.BeginTimestampQuery"))
	assert.Positive(t, dev.Count("cmd.DrawText"))
}

func TestHost_VSyncToggle(t *testing.T) {
	h, dev, ts := newHost(t, Options{})
	start(t, h)
	require.NoError(t, h.Frame(1.0/60))
	require.NoError(t, h.Frame(1.0/60))
	require.Equal(t, 2, h.FrameIndex())
	idle := dev.Count("WaitIdle")

	h.SetVSync(true)
	require.NoError(t, h.Frame(1.0/60))

	assert.Equal(t, idle+1, dev.Count("WaitIdle"))
	assert.Equal(t, 1, dev.Count("ToggleVSync"))
	assert.True(t, h.SwapChain().VSync())
	assert.Equal(t, []int{0, 1, 0}, ts.indices, "frame index reset before drawing")
	assert.Equal(t, 1, ts.loads, "scene stays loaded")

	// No further toggles while the flag matches
	require.NoError(t, h.Frame(1.0/60))
	assert.Equal(t, 1, dev.Count("ToggleVSync"))

	require.NoError(t, h.Exit())
	assert.Equal(t, 0, dev.LiveCount())
}

func TestHost_VSyncCheckbox(t *testing.T) {
	src := &stubSource{}
	h, dev, _ := newHost(t, Options{Input: input.NewSystem(src)})
	start(t, h)

	// Row 1 of the panel is the VSync checkbox
	src.st = input.State{CursorX: 20, CursorY: 96 + 26 + 5, Click: true}
	require.NoError(t, h.Frame(1.0/60))
	assert.True(t, h.UI().IsFocused())
	assert.False(t, h.Input().Captured(), "clicks on the panel do not capture")

	src.st = input.State{}
	require.NoError(t, h.Frame(1.0/60))
	assert.Equal(t, 1, dev.Count("ToggleVSync"))
	assert.True(t, h.SwapChain().VSync())
}

func TestHost_UnloadLoadIsClean(t *testing.T) {
	h, dev, ts := newHost(t, Options{})
	start(t, h)
	loaded := dev.Snapshot()

	h.Unload()
	assert.False(t, h.Loaded())
	assert.Nil(t, h.SwapChain())
	assert.ErrorIs(t, h.Draw(), ErrNotLoaded)

	require.NoError(t, h.Load())
	assert.Equal(t, loaded, dev.Snapshot())
	assert.Equal(t, 2, ts.loads)
	require.NoError(t, h.Frame(1.0/60))

	require.NoError(t, h.Exit())
	assert.Equal(t, 0, dev.LiveCount())
	assert.Empty(t, dev.Violations)
}

func TestHost_Resize(t *testing.T) {
	h, dev, ts := newHost(t, Options{})
	start(t, h)

	h.Resize(800, 600)
	require.NoError(t, h.Frame(1.0/60))

	assert.Equal(t, 800, h.SwapChain().RenderTarget(0).Width())
	assert.Equal(t, 2, ts.loads)
	assert.Equal(t, 2, dev.Created(gfx.KindSwapChain))

	// Same size is a no-op
	h.Resize(800, 600)
	require.NoError(t, h.Frame(1.0/60))
	assert.Equal(t, 2, ts.loads)

	require.NoError(t, h.Exit())
	assert.Equal(t, 0, dev.LiveCount())
}

func TestHost_ResizeReplacesPending(t *testing.T) {
	h, dev, ts := newHost(t, Options{})
	start(t, h)

	// Back to the current size before the next Update cancels the pending resize
	h.Resize(800, 600)
	h.Resize(640, 480)
	require.NoError(t, h.Frame(1.0/60))
	assert.Equal(t, 640, h.SwapChain().RenderTarget(0).Width())
	assert.Equal(t, 480, h.SwapChain().RenderTarget(0).Height())
	assert.Equal(t, 1, ts.loads)
	assert.Equal(t, 1, dev.Created(gfx.KindSwapChain))

	// The latest request wins
	h.Resize(800, 600)
	h.Resize(1024, 768)
	require.NoError(t, h.Frame(1.0/60))
	assert.Equal(t, 1024, h.SwapChain().RenderTarget(0).Width())
	assert.Equal(t, 768, h.SwapChain().RenderTarget(0).Height())
	assert.Equal(t, 2, ts.loads)

	h.Resize(0, 600)
	require.NoError(t, h.Frame(1.0/60))
	assert.Equal(t, 2, ts.loads)
}

func TestHost_LoadFailureAborts(t *testing.T) {
	h, dev, ts := newHost(t, Options{})
	ts.loadErr = errors.New("no pipeline")
	require.NoError(t, h.Init())

	err := h.Load()
	assert.ErrorIs(t, err, ts.loadErr)
	assert.False(t, h.Loaded())
	assert.ErrorIs(t, h.Frame(1.0/60), ErrNotLoaded)

	require.NoError(t, h.Exit())
	assert.Equal(t, 0, dev.LiveCount())
	assert.Empty(t, dev.Violations)
}

func TestHost_SceneFailureReleasesEverything(t *testing.T) {
	tests := []struct {
		name    string
		factory scene.Factory
		kind    gfx.Kind
		inInit  bool
	}{
		{"colors pipeline", colors.New, gfx.KindPipeline, false},
		{"colors buffer", colors.New, gfx.KindBuffer, true},
		{"colors descriptor set", colors.New, gfx.KindDescriptorSet, true},
		{"basiclighting pipeline", basiclighting.New, gfx.KindPipeline, false},
		{"basiclighting root signature", basiclighting.New, gfx.KindRootSignature, true},
		{"testscene geometry", testscene.New, gfx.KindGeometry, false},
		{"testscene pipeline", testscene.New, gfx.KindPipeline, false},
		{"testscene texture", testscene.New, gfx.KindTexture, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, dev, _ := newHost(t, Options{Scene: tt.factory})
			dev.Fail[tt.kind] = assert.AnError

			if tt.inInit {
				assert.ErrorIs(t, h.Init(), assert.AnError)
				assert.ErrorIs(t, h.Load(), ErrNotInitialized)
			} else {
				require.NoError(t, h.Init())
				assert.ErrorIs(t, h.Load(), assert.AnError)
				assert.False(t, h.Loaded())
			}

			require.NoError(t, h.Exit())
			assert.Equal(t, 0, dev.LiveCount(), "live after Exit: %v", dev.Live())
			assert.Empty(t, dev.Violations)
			assert.Equal(t, 0, h.Scene().Violations)
		})
	}
}

func TestHost_VSyncFailureUnloadsScene(t *testing.T) {
	h, dev, _ := newHost(t, Options{})
	start(t, h)
	require.NoError(t, h.Frame(1.0/60))

	dev.Fail[gfx.KindSwapChain] = assert.AnError
	h.SetVSync(true)
	assert.ErrorIs(t, h.Frame(1.0/60), assert.AnError)
	assert.False(t, h.Loaded())
	assert.Equal(t, state.StateLoaded, h.Scene().State())

	require.NoError(t, h.Exit())
	assert.Equal(t, state.StateExited, h.Scene().State())
	assert.Equal(t, 0, dev.LiveCount(), "live after Exit: %v", dev.Live())
	assert.Equal(t, 1, dev.Destroyed(gfx.KindBuffer), "scene buffer released")
	assert.Empty(t, dev.Violations)
	assert.Equal(t, 0, h.Scene().Violations)
}

func TestHost_InitFailure(t *testing.T) {
	h, dev, _ := newHost(t, Options{})
	dev.FontErr = errors.New("missing font")

	assert.ErrorIs(t, h.Init(), dev.FontErr)
	assert.ErrorIs(t, h.Load(), ErrNotInitialized)

	require.NoError(t, h.Exit())
	assert.Equal(t, 0, dev.LiveCount())
	assert.Empty(t, dev.Violations)
}

func TestHost_Screenshot(t *testing.T) {
	h, dev, _ := newHost(t, Options{})
	start(t, h)
	dev.Reset()

	h.RequestScreenshot()
	require.NoError(t, h.Frame(1.0/60))
	require.NoError(t, h.Frame(1.0/60))

	assert.Equal(t, []string{"Screenshot-20240102-030405"}, dev.Screenshots)
	shot := dev.Index("CaptureScreenshot", 0)
	assert.Greater(t, shot, dev.Index("Submit", 0))
	assert.Less(t, shot, dev.Index("Present", 0))
}

func TestHost_FrameCapture(t *testing.T) {
	dir := t.TempDir()
	c := capture.New(dir)
	h, _, _ := newHost(t, Options{Capturer: c})
	start(t, h)

	labels := make([]string, 0)
	for _, w := range h.UI().Widgets() {
		labels = append(labels, w.Label)
	}
	assert.Equal(t, []string{"Toggle VSync", "Capture Frame", "Screenshot"}, labels)

	require.NoError(t, h.Frame(1.0/60))
	h.RequestCapture()
	require.NoError(t, h.Frame(1.0/60))

	require.NotNil(t, c.Last())
	assert.Equal(t, 1, c.Last().Number)
	assert.NotEmpty(t, c.Last().Commands)
	assert.False(t, c.Active())

	_, err := os.Stat(dir + "/frame-1.json")
	assert.NoError(t, err)
}

func TestHost_Actions(t *testing.T) {
	src := &stubSource{}
	fullscreen := 0
	h, _, _ := newHost(t, Options{
		Input:            input.NewSystem(src),
		ToggleFullscreen: func() { fullscreen++ },
	})
	h.cfg.Paths.Captures = t.TempDir()
	start(t, h)

	src.st = input.State{Buttons: input.Buttons(0).With(input.ButtonFullscreen)}
	require.NoError(t, h.Frame(1.0/60))
	assert.Equal(t, 1, fullscreen)
	assert.True(t, h.Input().Captured(), "any button off the panel captures input")

	src.st = input.State{Buttons: input.Buttons(0).With(input.ButtonDump)}
	require.NoError(t, h.Frame(1.0/60))
	entries, err := os.ReadDir(h.cfg.Paths.Captures)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.False(t, h.Done())
	src.st = input.State{Buttons: input.Buttons(0).With(input.ButtonExit)}
	require.NoError(t, h.Frame(1.0/60))
	assert.True(t, h.Done())

	require.NoError(t, h.Exit())
	assert.Equal(t, 0, h.Input().ActionCount())
}

func TestHost_ColorsScene(t *testing.T) {
	h, dev, _ := newHost(t, Options{Scene: colors.New})
	start(t, h)

	for i := 0; i < 6; i++ {
		require.NoError(t, h.Frame(1.0/60))
	}
	h.Unload()
	require.NoError(t, h.Load())
	require.NoError(t, h.Frame(1.0/60))

	require.NoError(t, h.Exit())
	assert.Equal(t, 0, dev.LiveCount())
	assert.Empty(t, dev.Violations)
	assert.Equal(t, 0, h.Scene().Violations)
}
