// Package host drives the single active scene through its lifecycle and owns
// everything around it: the swapchain and depth target, the ring of frame slots,
// the overlay UI, the profiler, screenshots and frame captures.
package host

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/younwookim/lightscenes/internal/application/capture"
	"github.com/younwookim/lightscenes/internal/application/input"
	"github.com/younwookim/lightscenes/internal/application/profile"
	"github.com/younwookim/lightscenes/internal/application/scene"
	"github.com/younwookim/lightscenes/internal/application/ui"
	"github.com/younwookim/lightscenes/internal/gfx"
	"github.com/younwookim/lightscenes/internal/infrastructure/config"
	"github.com/younwookim/lightscenes/internal/infrastructure/log"
)

var (
	// ErrNotLoaded is returned by Draw before Load succeeded or after Unload
	ErrNotLoaded = errors.New("host: not loaded")
	// ErrNotInitialized is returned by Load before Init succeeded
	ErrNotInitialized = errors.New("host: not initialized")
)

// Options configures a Host
type Options struct {
	Config      *config.AppConfig
	SceneConfig *config.SceneConfig
	Driver      gfx.Driver
	Scene       scene.Factory
	// Input defaults to a system without a source
	Input *input.System
	Log   *log.Logger
	// Capturer enables the "Capture Frame" button when set
	Capturer *capture.Capturer
	Profiler *profile.Profiler
	// ToggleFullscreen is invoked by the fullscreen binding
	ToggleFullscreen func()
	// Now stamps screenshot names; defaults to time.Now
	Now func() time.Time
}

// frameSlot holds the recording and synchronization objects of one in-flight frame
type frameSlot struct {
	pool       gfx.CmdPool
	cmd        gfx.Cmd
	fence      gfx.Fence
	renderDone gfx.Semaphore
}

// Host is the application around a scene. Its methods run on one goroutine.
type Host struct {
	cfg   *config.AppConfig
	drv   gfx.Driver
	queue gfx.Queue
	log   *log.Logger
	now   func() time.Time

	colorFormat gfx.Format
	depthFormat gfx.Format
	width       int
	height      int
	clearColor  color.Color

	sc            gfx.SwapChain
	depth         gfx.RenderTarget
	slots         []frameSlot
	imageAcquired gfx.Semaphore
	frameIndex    int
	frames        int

	// vsync is written by the UI checkbox and read by Update
	vsync      bool
	screenshot bool
	capture    bool
	shutdown   bool
	resize     *[2]int

	font     gfx.FontDrawDesc
	panel    *ui.Component
	profiler *profile.Profiler
	capturer *capture.Capturer
	input    *input.System
	actions  []input.ActionID
	scene    *scene.Guard

	fullscreen  func()
	initialized bool
	loaded      bool
}

// New creates the host and constructs the scene with an environment pointing at the
// host's input system and UI.
func New(opts Options) (*Host, error) {
	if opts.Config == nil || opts.Driver == nil || opts.Scene == nil {
		return nil, errors.New("host: config, driver and scene are required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}

	colorFormat, err := gfx.ParseFormat(opts.Config.Renderer.ColorFormat)
	if err != nil {
		return nil, err
	}
	depthFormat, err := gfx.ParseFormat(opts.Config.Renderer.DepthFormat)
	if err != nil {
		return nil, err
	}

	h := &Host{
		cfg:         opts.Config,
		drv:         opts.Driver,
		queue:       opts.Driver.Queue(),
		log:         opts.Log,
		now:         opts.Now,
		colorFormat: colorFormat,
		depthFormat: depthFormat,
		width:       opts.Config.Display.ScreenWidth,
		height:      opts.Config.Display.ScreenHeight,
		vsync:       opts.Config.Renderer.VSync,
		profiler:    opts.Profiler,
		capturer:    opts.Capturer,
		input:       opts.Input,
		fullscreen:  opts.ToggleFullscreen,
	}
	if h.log == nil {
		h.log = log.NewNop()
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.profiler == nil {
		h.profiler = profile.New()
	}
	if h.input == nil {
		h.input = input.NewSystem(nil)
	}
	c := opts.Config.Renderer.ClearColor
	h.clearColor = color.RGBA{R: unit8(c[0]), G: unit8(c[1]), B: unit8(c[2]), A: unit8(c[3])}

	h.panel = ui.NewComponent("Settings", 8, 96)
	h.scene = scene.NewGuard(opts.Scene(scene.Env{
		Config: opts.SceneConfig,
		Input:  h.input,
		UI:     h.panel,
		Log:    h.log.Named("scene"),
	}), h.log)
	return h, nil
}

func unit8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

// Scene returns the guarded scene
func (h *Host) Scene() *scene.Guard { return h.scene }

// Input returns the input system shared with the scene
func (h *Host) Input() *input.System { return h.input }

// UI returns the settings panel
func (h *Host) UI() *ui.Component { return h.panel }

// Profiler returns the frame profiler
func (h *Host) Profiler() *profile.Profiler { return h.profiler }

// SwapChain returns the current swapchain, nil while unloaded
func (h *Host) SwapChain() gfx.SwapChain { return h.sc }

// FrameIndex returns the frame slot the next Draw records into
func (h *Host) FrameIndex() int { return h.frameIndex }

// Frames returns the number of frames drawn
func (h *Host) Frames() int { return h.frames }

// Loaded reports whether the host holds a swapchain and a loaded scene
func (h *Host) Loaded() bool { return h.loaded }

// Done reports whether shutdown was requested
func (h *Host) Done() bool { return h.shutdown }

// RequestShutdown asks the frame loop to stop after the current frame
func (h *Host) RequestShutdown() { h.shutdown = true }

// SetVSync requests a VSync mode; the swapchain is recreated at the next Update
func (h *Host) SetVSync(on bool) { h.vsync = on }

// RequestScreenshot captures the next presented image
func (h *Host) RequestScreenshot() { h.screenshot = true }

// RequestCapture records the next frame's command stream. It is ignored without a capturer.
func (h *Host) RequestCapture() {
	if h.capturer != nil {
		h.capture = true
	}
}

// Resize recreates the swapchain at the given size at the next Update. A request
// replaces any pending one; asking for the current size cancels it.
func (h *Host) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if width == h.width && height == h.height {
		h.resize = nil
		return
	}
	h.resize = &[2]int{width, height}
}
