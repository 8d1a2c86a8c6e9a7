// Package scene defines the lifecycle contract every demo scene implements.
//
// The host drives the single active scene through Init, Load, then repeated
// Update/Draw/DrawUI, then Unload and Exit. Unload/Load pairs repeat whenever the
// swapchain is recreated. Resources created in Init are released in Exit and
// resources created in Load are released in Unload, in mirror order.
package scene

import (
	"github.com/younwookim/lightscenes/internal/application/input"
	"github.com/younwookim/lightscenes/internal/gfx"
	"github.com/younwookim/lightscenes/internal/infrastructure/config"
	"github.com/younwookim/lightscenes/internal/infrastructure/log"
)

// Scene is a demo driven by the host
type Scene interface {
	// Name returns the registry name of the scene.
	Name() string

	// Init creates swapchain-independent objects: shaders, root signatures,
	// static buffers, descriptor sets, the camera and its input actions.
	// Per-frame descriptor sets are sized from dev.Settings().ImageCount.
	// An error aborts host startup; a failed Init leaves nothing behind.
	Init(dev gfx.Device) error

	// Load creates swapchain-dependent objects (pipelines, per-image uniform buffers)
	// and waits for every upload it started. It runs again after each swapchain
	// recreation. An error aborts host startup, and the scene releases whatever the
	// failed Load created before returning it.
	Load(dev gfx.Device, sc gfx.SwapChain, depth gfx.RenderTarget) error

	// Update advances time-driven state. It must not record commands.
	Update(dt float32)

	// Draw writes the uniforms of imageIndex and records draws into cmd,
	// which is already inside the main render pass with viewport and scissor set.
	Draw(cmd gfx.Cmd, imageIndex int)

	// DrawUI runs inside the overlay pass.
	DrawUI()

	// Unload releases what Load created.
	Unload(dev gfx.Device)

	// Exit releases what Init created.
	Exit(dev gfx.Device)
}

// Focus reports whether the UI currently owns the cursor
type Focus interface {
	IsFocused() bool
}

// Env carries the host services a scene may use
type Env struct {
	Config *config.SceneConfig
	Input  *input.System
	UI     Focus
	Log    *log.Logger
}

// Factory constructs a scene for the given environment
type Factory func(env Env) Scene
