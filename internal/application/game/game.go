// Package game adapts the host frame loop to ebiten's Update/Draw/Layout cycle.
package game

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Host is the part of host.Host the game loop drives
type Host interface {
	Update(dt float32) error
	Draw() error
	Done() bool
}

// Screen receives the ebiten screen that the next Present blits into
type Screen interface {
	SetScreen(screen *ebiten.Image)
}

// Game implements ebiten.Game around a Host.
// ebiten splits a frame into Update and Draw(screen); the host's Update runs in the
// former and its Draw, which ends in Present, in the latter.
type Game struct {
	host    Host
	screen  Screen
	screenW int
	screenH int
	dt      float64
	// stop ends the loop when it returns true, e.g. once a replay is exhausted
	stop func() bool
	err  error
}

// New creates a new Game with a logical screen of screenW x screenH
func New(h Host, screen Screen, screenW, screenH int) *Game {
	return &Game{
		host:    h,
		screen:  screen,
		screenW: screenW,
		screenH: screenH,
		dt:      1.0 / 60.0, // Default to 60 FPS
	}
}

// Update updates the host. Errors from the previous Draw surface here.
// Implements ebiten.Game interface.
func (g *Game) Update() error {
	if g.err != nil {
		return g.err
	}
	if g.host.Done() || (g.stop != nil && g.stop()) {
		return ebiten.Termination
	}
	return g.host.Update(float32(g.dt))
}

// Draw records and presents one frame onto screen.
// Implements ebiten.Game interface.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.err != nil {
		return
	}
	if g.screen != nil {
		g.screen.SetScreen(screen)
	}
	g.err = g.host.Draw()
}

// Layout returns the game's logical screen dimensions.
// Implements ebiten.Game interface.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.screenW, g.screenH
}

// SetDT sets the delta time used for updates.
// Useful for testing or custom frame rates.
func (g *Game) SetDT(dt float64) {
	g.dt = dt
}

// SetStop installs a condition checked before every Update
func (g *Game) SetStop(stop func() bool) {
	g.stop = stop
}
