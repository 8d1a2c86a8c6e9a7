package host

import (
	"fmt"

	"github.com/younwookim/lightscenes/internal/gfx"
)

// Update runs the stop-the-world work (VSync toggle, resize), dispatches input and
// advances the scene.
func (h *Host) Update(dt float32) error {
	h.profiler.BeginFrame()

	if h.loaded && h.vsync != h.sc.VSync() {
		if err := h.toggleVSync(); err != nil {
			return err
		}
	}
	if h.resize != nil {
		if err := h.applyResize(); err != nil {
			return err
		}
	}

	h.input.Update()
	h.panel.Update(h.input.Last())
	if h.loaded {
		h.scene.Update(dt)
	}
	return nil
}

func (h *Host) toggleVSync() error {
	h.queue.WaitIdle()
	h.frameIndex = 0

	sc, err := h.drv.ToggleVSync(h.sc)
	if err != nil {
		h.sc = nil
		h.loaded = false
		return fmt.Errorf("failed to toggle vsync: %w", err)
	}
	h.sc = sc
	h.log.Infow("vsync toggled", "vsync", sc.VSync())
	return nil
}

func (h *Host) applyResize() error {
	size := *h.resize
	h.resize = nil

	h.Unload()
	h.width, h.height = size[0], size[1]
	if err := h.Load(); err != nil {
		return fmt.Errorf("failed to reload at %dx%d: %w", size[0], size[1], err)
	}
	return nil
}

// Draw records, submits and presents one frame into the current frame slot
func (h *Host) Draw() error {
	if !h.loaded {
		return ErrNotLoaded
	}

	imageIndex, err := h.queue.AcquireNextImage(h.sc, h.imageAcquired)
	if err != nil {
		return fmt.Errorf("failed to acquire image: %w", err)
	}
	if h.capture {
		h.capture = false
		h.capturer.Start(h.frames, imageIndex)
	}

	slot := h.slots[h.frameIndex]
	// Back-pressure: the slot's previous submission must retire before it is reused
	if h.drv.FenceStatus(slot.fence) == gfx.FenceIncomplete {
		h.drv.WaitForFences(slot.fence)
	}
	h.drv.ResetCmdPool(slot.pool)

	cmd := slot.cmd
	if h.capturer != nil {
		cmd = h.capturer.Wrap(cmd)
	}
	rt := h.sc.RenderTarget(imageIndex)

	cmd.Begin()
	cmd.ResourceBarrier(rt, gfx.StatePresent, gfx.StateRenderTarget)

	cmd.BindRenderTargets([]gfx.RenderTarget{rt}, h.depth, &gfx.LoadActions{
		Color:      gfx.LoadActionClear,
		Depth:      gfx.LoadActionClear,
		ClearColor: h.clearColor,
		ClearDepth: 1,
	})
	w, ht := float32(rt.Width()), float32(rt.Height())
	cmd.SetViewport(0, 0, w, ht, 0, 1)
	cmd.SetScissor(0, 0, rt.Width(), rt.Height())

	h.profiler.BeginGPU(cmd, "Draw Scene")
	h.scene.Draw(cmd, h.frameIndex)
	h.profiler.End(cmd)

	cmd.BindRenderTargets(nil, nil, nil)
	cmd.BindRenderTargets([]gfx.RenderTarget{rt}, nil, &gfx.LoadActions{Color: gfx.LoadActionLoad})

	h.profiler.BeginGPU(cmd, "Draw UI")
	h.profiler.DrawText(cmd, 8, 8, h.font)
	h.panel.Draw(cmd, h.font)
	h.scene.DrawUI()
	h.profiler.End(cmd)

	cmd.BindRenderTargets(nil, nil, nil)
	cmd.ResourceBarrier(rt, gfx.StateRenderTarget, gfx.StatePresent)
	cmd.End()

	err = h.queue.Submit(gfx.SubmitDesc{
		Cmds:             []gfx.Cmd{slot.cmd},
		WaitSemaphores:   []gfx.Semaphore{h.imageAcquired},
		SignalSemaphores: []gfx.Semaphore{slot.renderDone},
		SignalFence:      slot.fence,
	})
	if err != nil {
		return fmt.Errorf("failed to submit frame %d: %w", h.frames, err)
	}

	if h.screenshot {
		h.screenshot = false
		name := "Screenshot-" + h.now().Format("20060102-150405")
		if err := h.drv.CaptureScreenshot(h.sc, imageIndex, name); err != nil {
			h.log.Errorw("failed to capture screenshot", "error", err)
		} else {
			h.log.Infow("screenshot captured", "name", name)
		}
	}

	err = h.queue.Present(gfx.PresentDesc{
		SwapChain:      h.sc,
		Index:          imageIndex,
		WaitSemaphores: []gfx.Semaphore{slot.renderDone},
		SubmitDone:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to present frame %d: %w", h.frames, err)
	}

	if h.capturer != nil && h.capturer.Active() {
		if path, err := h.capturer.End(); err != nil {
			h.log.Errorw("failed to write frame capture", "error", err)
		} else {
			h.log.Infow("frame captured", "path", path)
		}
	}

	h.frameIndex = (h.frameIndex + 1) % len(h.slots)
	h.frames++
	return nil
}

// Frame runs Update then Draw
func (h *Host) Frame(dt float32) error {
	if err := h.Update(dt); err != nil {
		return err
	}
	return h.Draw()
}
