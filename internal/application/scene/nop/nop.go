// Package nop provides an empty scene: it creates nothing and draws nothing.
package nop

import (
	"github.com/younwookim/lightscenes/internal/application/scene"
	"github.com/younwookim/lightscenes/internal/gfx"
)

// Name is the registry name of the scene
const Name = "nop"

// Scene does nothing
type Scene struct{}

// New implements scene.Factory
func New(scene.Env) scene.Scene {
	return &Scene{}
}

func (s *Scene) Name() string                                           { return Name }
func (s *Scene) Init(gfx.Device) error                                  { return nil }
func (s *Scene) Load(gfx.Device, gfx.SwapChain, gfx.RenderTarget) error { return nil }
func (s *Scene) Update(float32)                                         {}
func (s *Scene) Draw(gfx.Cmd, int)                                      {}
func (s *Scene) DrawUI()                                                {}
func (s *Scene) Unload(gfx.Device)                                      {}
func (s *Scene) Exit(gfx.Device)                                        {}
