package host

import (
	"fmt"

	"github.com/younwookim/lightscenes/internal/application/input"
	"github.com/younwookim/lightscenes/internal/application/state"
	"github.com/younwookim/lightscenes/internal/gfx"
)

// Init creates the frame slots, the font, the settings panel and the host input
// actions, then initializes the scene. On error the caller still runs Exit, which
// releases whatever was created.
func (h *Host) Init() error {
	if h.initialized {
		return nil
	}
	n := h.cfg.Renderer.ImageCount

	h.slots = make([]frameSlot, 0, n)
	for i := 0; i < n; i++ {
		slot, err := h.addSlot()
		h.slots = append(h.slots, slot)
		if err != nil {
			return fmt.Errorf("failed to create frame slot %d: %w", i, err)
		}
	}
	var err error
	if h.imageAcquired, err = h.drv.AddSemaphore(); err != nil {
		return fmt.Errorf("failed to add image semaphore: %w", err)
	}

	fontID, err := h.drv.DefineFont(gfx.FontDesc{Path: h.cfg.Font.Path})
	if err != nil {
		return fmt.Errorf("failed to load font %q: %w", h.cfg.Font.Path, err)
	}
	h.font = gfx.FontDrawDesc{FontID: fontID, Size: float32(h.cfg.Font.Size), Color: h.cfg.Font.Color}

	h.initUI()
	h.addActions()

	if err := h.scene.Init(h.drv); err != nil {
		return err
	}
	h.initialized = true
	h.log.Infow("host initialized", "scene", h.scene.Name(), "slots", n)
	return nil
}

func (h *Host) addSlot() (frameSlot, error) {
	var (
		s   frameSlot
		err error
	)
	if s.pool, err = h.drv.AddCmdPool(); err != nil {
		return s, err
	}
	if s.cmd, err = h.drv.AddCmd(s.pool); err != nil {
		return s, err
	}
	if s.fence, err = h.drv.AddFence(); err != nil {
		return s, err
	}
	if s.renderDone, err = h.drv.AddSemaphore(); err != nil {
		return s, err
	}
	return s, nil
}

func (h *Host) initUI() {
	vsync := h.panel.AddCheckbox("Toggle VSync", &h.vsync)
	vsync.OnEdited = func() {
		h.log.Debugw("vsync requested", "vsync", h.vsync)
	}
	if h.capturer != nil {
		h.panel.AddButton("Capture Frame").OnEdited = h.RequestCapture
	}
	h.panel.AddButton("Screenshot").OnEdited = h.RequestScreenshot
}

func (h *Host) addActions() {
	add := func(b input.Binding, f func()) {
		h.actions = append(h.actions, h.input.AddAction(input.ActionDesc{Binding: b, Func: func(input.Context) bool {
			f()
			return true
		}}))
	}

	add(input.ButtonDump, h.dumpProfile)
	add(input.ButtonFullscreen, func() {
		if h.fullscreen != nil {
			h.fullscreen()
		}
	})
	add(input.ButtonExit, h.RequestShutdown)
	add(input.ButtonCapture, h.RequestCapture)
	add(input.ButtonScreenshot, h.RequestScreenshot)
	// Clicking or pressing anything captures input unless the cursor is on the panel.
	// The panel has not seen this frame's cursor yet, so hit-test it directly.
	add(input.ButtonAny, func() {
		st := h.input.Last()
		h.input.SetCaptured(!h.panel.Contains(float32(st.CursorX), float32(st.CursorY)))
	})
}

func (h *Host) dumpProfile() {
	path, err := h.profiler.DumpFile(h.cfg.Paths.Captures)
	if err != nil {
		h.log.Errorw("failed to dump profile", "error", err)
		return
	}
	h.log.Infow("profile written", "path", path)
}

// Load creates the swapchain and depth target and loads the scene. Any error aborts
// startup; the swapchain objects created so far are released by Unload.
func (h *Host) Load() error {
	if !h.initialized {
		return ErrNotInitialized
	}
	if h.loaded {
		return nil
	}

	var err error
	h.sc, err = h.drv.AddSwapChain(gfx.SwapChainDesc{
		Width:       h.width,
		Height:      h.height,
		ImageCount:  h.cfg.Renderer.ImageCount,
		ColorFormat: h.colorFormat,
		VSync:       h.vsync,
	})
	if err != nil {
		return fmt.Errorf("failed to add swapchain: %w", err)
	}

	h.depth, err = h.drv.AddRenderTarget(gfx.RenderTargetDesc{
		Width:       h.width,
		Height:      h.height,
		Format:      h.depthFormat,
		SampleCount: 1,
		ClearDepth:  1,
		StartState:  gfx.StateDepthWrite,
	})
	if err != nil {
		return fmt.Errorf("failed to add depth buffer: %w", err)
	}

	if err := h.drv.WaitForAllResourceLoads(); err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}
	if err := h.scene.Load(h.drv, h.sc, h.depth); err != nil {
		return err
	}
	if err := h.drv.WaitForAllResourceLoads(); err != nil {
		return fmt.Errorf("failed to load scene resources: %w", err)
	}

	h.loaded = true
	h.log.Infow("host loaded", "width", h.width, "height", h.height, "vsync", h.sc.VSync())
	return nil
}

// Unload waits for the GPU, unloads the scene and releases the swapchain objects.
// The scene is unloaded whenever its guard reports it loaded, even if a later step
// of Load or a swapchain recreation failed and the host never became loaded.
func (h *Host) Unload() {
	sceneLoaded := h.scene.State() == state.StateLoaded
	if h.sc == nil && h.depth == nil && !sceneLoaded {
		return
	}
	h.queue.WaitIdle()

	if sceneLoaded {
		h.scene.Unload(h.drv)
	}
	if h.sc != nil {
		h.drv.RemoveSwapChain(h.sc)
		h.sc = nil
	}
	if h.depth != nil {
		h.drv.RemoveRenderTarget(h.depth)
		h.depth = nil
	}
	h.loaded = false
	h.frameIndex = 0
}

// Exit releases everything Init created and closes the driver
func (h *Host) Exit() error {
	h.Unload()

	if h.initialized {
		h.scene.Exit(h.drv)
		h.initialized = false
	}
	for _, id := range h.actions {
		h.input.RemoveAction(id)
	}
	h.actions = nil

	for _, s := range h.slots {
		h.removeSlot(s)
	}
	h.slots = nil
	if h.imageAcquired != nil {
		h.drv.RemoveSemaphore(h.imageAcquired)
		h.imageAcquired = nil
	}
	return h.drv.Close()
}

func (h *Host) removeSlot(s frameSlot) {
	if s.renderDone != nil {
		h.drv.RemoveSemaphore(s.renderDone)
	}
	if s.fence != nil {
		h.drv.RemoveFence(s.fence)
	}
	if s.cmd != nil {
		h.drv.RemoveCmd(s.cmd)
	}
	if s.pool != nil {
		h.drv.RemoveCmdPool(s.pool)
	}
}
