package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/younwookim/lightscenes/internal/gfx"
)

type renderTarget struct {
	handle
	desc gfx.RenderTargetDesc
	// img is nil for depth targets; depth is resolved by triangle ordering
	img *ebiten.Image
}

func (r *renderTarget) Width() int         { return r.desc.Width }
func (r *renderTarget) Height() int        { return r.desc.Height }
func (r *renderTarget) Format() gfx.Format { return r.desc.Format }
func (r *renderTarget) SampleCount() int   { return r.desc.SampleCount }

func isDepth(f gfx.Format) bool { return f == gfx.FormatD32Float }

func (d *Driver) AddRenderTarget(desc gfx.RenderTargetDesc) (gfx.RenderTarget, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("render: render target of %dx%d", desc.Width, desc.Height)
	}
	rt := &renderTarget{handle: d.newHandle(gfx.KindRenderTarget), desc: desc}
	if !isDepth(desc.Format) {
		rt.img = ebiten.NewImage(desc.Width, desc.Height)
	}
	return rt, nil
}

func (d *Driver) RemoveRenderTarget(rt gfx.RenderTarget) {
	if !d.release(rt, gfx.KindRenderTarget) {
		return
	}
	if r, ok := rt.(*renderTarget); ok && r.img != nil {
		r.img.Deallocate()
	}
}

type swapChain struct {
	handle
	desc    gfx.SwapChainDesc
	targets []*renderTarget
	next    int
}

func (s *swapChain) ImageCount() int                     { return len(s.targets) }
func (s *swapChain) RenderTarget(i int) gfx.RenderTarget { return s.targets[i] }
func (s *swapChain) VSync() bool                         { return s.desc.VSync }

// AddSwapChain creates ImageCount offscreen images. Present blits the presented one
// onto the ebiten screen.
func (d *Driver) AddSwapChain(desc gfx.SwapChainDesc) (gfx.SwapChain, error) {
	if desc.ImageCount <= 0 {
		return nil, fmt.Errorf("render: swapchain with %d images", desc.ImageCount)
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("render: swapchain of %dx%d", desc.Width, desc.Height)
	}
	sc := &swapChain{handle: d.newHandle(gfx.KindSwapChain), desc: desc}
	for i := 0; i < desc.ImageCount; i++ {
		sc.targets = append(sc.targets, &renderTarget{
			handle: handle{kind: gfx.KindRenderTarget},
			desc: gfx.RenderTargetDesc{
				Width:       desc.Width,
				Height:      desc.Height,
				Format:      desc.ColorFormat,
				SampleCount: 1,
				StartState:  gfx.StatePresent,
			},
			img: ebiten.NewImage(desc.Width, desc.Height),
		})
	}
	ebiten.SetVsyncEnabled(desc.VSync)
	d.settings = gfx.Settings{Width: desc.Width, Height: desc.Height, ImageCount: desc.ImageCount}
	d.log.Debugw("swapchain added", "width", desc.Width, "height", desc.Height, "images", desc.ImageCount, "vsync", desc.VSync)
	return sc, nil
}

func (d *Driver) RemoveSwapChain(sc gfx.SwapChain) {
	if !d.release(sc, gfx.KindSwapChain) {
		return
	}
	if s, ok := sc.(*swapChain); ok {
		for _, t := range s.targets {
			t.img.Deallocate()
		}
	}
}

// ToggleVSync recreates sc with the opposite VSync mode
func (d *Driver) ToggleVSync(sc gfx.SwapChain) (gfx.SwapChain, error) {
	s, ok := sc.(*swapChain)
	if !ok {
		return nil, gfx.ErrUnknownHandle
	}
	desc := s.desc
	desc.VSync = !desc.VSync
	d.RemoveSwapChain(sc)
	return d.AddSwapChain(desc)
}

type fence struct {
	handle
	pending bool
}

func (d *Driver) AddFence() (gfx.Fence, error) {
	return &fence{handle: d.newHandle(gfx.KindFence)}, nil
}

func (d *Driver) RemoveFence(f gfx.Fence) { d.release(f, gfx.KindFence) }

func (d *Driver) FenceStatus(f gfx.Fence) gfx.FenceStatus {
	if ff, ok := f.(*fence); ok && ff.pending {
		return gfx.FenceIncomplete
	}
	return gfx.FenceComplete
}

func (d *Driver) WaitForFences(fences ...gfx.Fence) {
	for _, f := range fences {
		if ff, ok := f.(*fence); ok {
			ff.pending = false
		}
	}
}

type semaphore struct {
	handle
}

func (d *Driver) AddSemaphore() (gfx.Semaphore, error) {
	return &semaphore{handle: d.newHandle(gfx.KindSemaphore)}, nil
}

func (d *Driver) RemoveSemaphore(s gfx.Semaphore) { d.release(s, gfx.KindSemaphore) }

type cmdPool struct {
	handle
	cmds []*cmd
}

func (d *Driver) AddCmdPool() (gfx.CmdPool, error) {
	return &cmdPool{handle: d.newHandle(gfx.KindCmdPool)}, nil
}

func (d *Driver) RemoveCmdPool(p gfx.CmdPool) { d.release(p, gfx.KindCmdPool) }

func (d *Driver) AddCmd(pool gfx.CmdPool) (gfx.Cmd, error) {
	p, ok := pool.(*cmdPool)
	if !ok {
		return nil, gfx.ErrUnknownHandle
	}
	c := &cmd{handle: d.newHandle(gfx.KindCmd), drv: d}
	p.cmds = append(p.cmds, c)
	return c, nil
}

func (d *Driver) RemoveCmd(c gfx.Cmd) { d.release(c, gfx.KindCmd) }

// ResetCmdPool returns the pool's command buffers to the initial state
func (d *Driver) ResetCmdPool(pool gfx.CmdPool) {
	if p, ok := pool.(*cmdPool); ok {
		for _, c := range p.cmds {
			c.reset()
		}
	}
}

func (d *Driver) Queue() gfx.Queue { return d.queue }

type queue struct {
	drv *Driver
}

func (q *queue) AcquireNextImage(sc gfx.SwapChain, signal gfx.Semaphore) (int, error) {
	s, ok := sc.(*swapChain)
	if !ok {
		return 0, gfx.ErrUnknownHandle
	}
	i := s.next
	s.next = (s.next + 1) % len(s.targets)
	return i, nil
}

// Submit completes immediately: commands already executed while recording
func (q *queue) Submit(desc gfx.SubmitDesc) error {
	for _, c := range desc.Cmds {
		if cc, ok := c.(*cmd); ok && cc.recording {
			return fmt.Errorf("render: submit of cmd %d while recording", cc.id)
		}
	}
	if f, ok := desc.SignalFence.(*fence); ok {
		f.pending = false
	}
	return nil
}

func (q *queue) Present(desc gfx.PresentDesc) error {
	s, ok := desc.SwapChain.(*swapChain)
	if !ok {
		return gfx.ErrUnknownHandle
	}
	if desc.Index < 0 || desc.Index >= len(s.targets) {
		return fmt.Errorf("render: present of image %d", desc.Index)
	}
	if screen := q.drv.screen; screen != nil {
		screen.DrawImage(s.targets[desc.Index].img, nil)
	}
	return nil
}

func (q *queue) WaitIdle() {}

// CaptureScreenshot writes swapchain image imageIndex to <dir>/<name>.png
func (d *Driver) CaptureScreenshot(sc gfx.SwapChain, imageIndex int, name string) error {
	s, ok := sc.(*swapChain)
	if !ok {
		return gfx.ErrUnknownHandle
	}
	if imageIndex < 0 || imageIndex >= len(s.targets) {
		return fmt.Errorf("render: screenshot of image %d", imageIndex)
	}
	img := s.targets[imageIndex].img
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	img.ReadPixels(rgba.Pix)

	if err := os.MkdirAll(d.shots, 0o755); err != nil {
		return fmt.Errorf("render: failed to create %s: %w", d.shots, err)
	}
	path := filepath.Join(d.shots, name+".png")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, rgba); err != nil {
		return fmt.Errorf("render: failed to encode %s: %w", path, err)
	}
	return nil
}
