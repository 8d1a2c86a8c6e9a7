// Package scenetest drives a scene through its lifecycle against the recording device.
package scenetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/lightscenes/internal/application/scene"
	"github.com/younwookim/lightscenes/internal/gfx"
	"github.com/younwookim/lightscenes/internal/gfx/gfxtest"
)

// Harness owns the device, swapchain and depth buffer a scene is loaded against.
type Harness struct {
	Dev   *gfxtest.Device
	SC    gfx.SwapChain
	Depth gfx.RenderTarget
	Cmd   *gfxtest.Cmd

	pool gfx.CmdPool
}

// New creates a harness with a 3-slot 640x480 surface.
func New(t *testing.T) *Harness {
	t.Helper()
	dev := gfxtest.New(640, 480, 3)
	h := &Harness{Dev: dev}

	var err error
	h.SC, err = dev.AddSwapChain(gfx.SwapChainDesc{Width: 640, Height: 480, ImageCount: 3, ColorFormat: gfx.FormatB8G8R8A8Srgb})
	require.NoError(t, err)
	h.Depth, err = dev.AddRenderTarget(gfx.RenderTargetDesc{Width: 640, Height: 480, Format: gfx.FormatD32Float, SampleCount: 1})
	require.NoError(t, err)
	h.pool, err = dev.AddCmdPool()
	require.NoError(t, err)
	cmd, err := dev.AddCmd(h.pool)
	require.NoError(t, err)
	h.Cmd = cmd.(*gfxtest.Cmd)
	return h
}

// Close removes the harness surface and command buffer, then closes the device.
// It fails if the scene left anything behind.
func (h *Harness) Close() error {
	h.Dev.RemoveCmd(h.Cmd)
	h.Dev.RemoveCmdPool(h.pool)
	h.Dev.RemoveRenderTarget(h.Depth)
	h.Dev.RemoveSwapChain(h.SC)
	return h.Dev.Close()
}

// Frame records one frame of s into the harness command buffer.
func (h *Harness) Frame(s scene.Scene, imageIndex int) {
	s.Update(1.0 / 60)
	h.Cmd.Begin()
	s.Draw(h.Cmd, imageIndex)
	s.DrawUI()
	h.Cmd.End()
}

// Cycle runs Init, Load, a few frames, Unload, Load, Unload and Exit, asserting that
// every object is released and a reload recreates the same object set.
func Cycle(t *testing.T, s scene.Scene) *Harness {
	t.Helper()
	h := New(t)
	base := h.Dev.Snapshot()

	require.NoError(t, s.Init(h.Dev))
	afterInit := h.Dev.Snapshot()

	require.NoError(t, s.Load(h.Dev, h.SC, h.Depth))
	assert.False(t, h.Dev.Pending(), "uploads awaited during Load")
	loaded := h.Dev.Snapshot()

	for i := 0; i < 4; i++ {
		h.Frame(s, i%h.SC.ImageCount())
	}

	s.Unload(h.Dev)
	assert.Equal(t, afterInit.Live, h.Dev.Snapshot().Live, "Unload releases what Load created")

	require.NoError(t, s.Load(h.Dev, h.SC, h.Depth))
	assert.Equal(t, loaded, h.Dev.Snapshot(), "reload recreates the same objects and bindings")
	h.Frame(s, 0)

	s.Unload(h.Dev)
	s.Exit(h.Dev)
	assert.Equal(t, base.Live, h.Dev.Snapshot().Live, "Exit releases what Init created")
	assert.NoError(t, h.Close())
	assert.Empty(t, h.Dev.Violations)
	return h
}
