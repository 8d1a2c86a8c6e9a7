package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/younwookim/lightscenes/internal/gfx"
	"github.com/younwookim/lightscenes/internal/infrastructure/assets"
)

// pendingLoad finishes an asynchronous load on the game goroutine after the decode
// goroutines joined
type pendingLoad func() error

type uploadState struct {
	pending bool
}

func (u *uploadState) loading() bool { return u.pending }

type buffer struct {
	handle
	uploadState
	*gfx.Mapping
	desc    gfx.BufferDesc
	floats  []float32
	indices []uint32
}

func (b *buffer) Size() int { return b.desc.Size }

func (b *buffer) Update(block any) error {
	if b.Mapping == nil {
		return errors.New("render: buffer is not CPU mapped")
	}
	return b.Write(block)
}

// AddBuffer creates a buffer. Uniform buffers get mapped storage; vertex and index
// data is copied and becomes bindable after WaitForAllResourceLoads.
func (d *Driver) AddBuffer(desc gfx.BufferDesc) (gfx.Buffer, error) {
	if desc.Size <= 0 {
		return nil, fmt.Errorf("render: buffer of size %d", desc.Size)
	}
	b := &buffer{desc: desc}
	if desc.Memory == gfx.MemoryCPUToGPU || desc.Flags&gfx.BufferFlagPersistentMap != 0 {
		b.Mapping = gfx.NewMapping(desc.Size)
	}

	switch data := desc.Data.(type) {
	case nil:
	case []float32:
		b.floats = append([]float32(nil), data...)
	case []uint16:
		b.indices = make([]uint32, len(data))
		for i, v := range data {
			b.indices[i] = uint32(v)
		}
	case []uint32:
		b.indices = append([]uint32(nil), data...)
	default:
		return nil, fmt.Errorf("render: unsupported buffer data %T", desc.Data)
	}

	b.handle = d.newHandle(gfx.KindBuffer)
	b.pending = true
	d.pending = append(d.pending, func() error {
		b.pending = false
		return nil
	})
	return b, nil
}

type texture struct {
	handle
	uploadState
	name    string
	decoded image.Image
	img     *ebiten.Image
}

func (t *texture) Width() int {
	if t.img == nil {
		return 0
	}
	return t.img.Bounds().Dx()
}

func (t *texture) Height() int {
	if t.img == nil {
		return 0
	}
	return t.img.Bounds().Dy()
}

// AddTexture decodes the texture file in the background
func (d *Driver) AddTexture(desc gfx.TextureDesc) (gfx.Texture, error) {
	t := &texture{handle: d.newHandle(gfx.KindTexture), name: desc.File}
	t.pending = true

	d.loads.Go(func() error {
		img, format, err := assets.LoadTexture(d.fsys, d.resolve(d.paths.Textures, desc.File))
		if err != nil {
			return fmt.Errorf("texture %s: %w", desc.File, err)
		}
		d.log.Debugw("texture decoded", "file", desc.File, "format", format)
		t.decoded = img
		return nil
	})
	d.pending = append(d.pending, func() error {
		if t.decoded == nil {
			return fmt.Errorf("texture %s: not decoded", t.name)
		}
		t.img = ebiten.NewImageFromImage(t.decoded)
		t.decoded = nil
		t.pending = false
		return nil
	})
	return t, nil
}

type geometry struct {
	handle
	uploadState
	name     string
	prims    []assets.Primitive
	vertices []gfx.Buffer
	strides  []int
	indices  *buffer
	count    int
}

func (g *geometry) VertexBuffers() []gfx.Buffer { return g.vertices }
func (g *geometry) VertexStrides() []int        { return g.strides }
func (g *geometry) IndexBuffer() gfx.Buffer     { return g.indices }
func (g *geometry) IndexType() gfx.IndexType    { return gfx.IndexUint32 }
func (g *geometry) IndexCount() int             { return g.count }

// AddGeometry parses a glTF binary in the background. All triangle primitives are merged
// into one vertex buffer in the requested layout and one index buffer.
func (d *Driver) AddGeometry(desc gfx.GeometryDesc) (gfx.Geometry, error) {
	g := &geometry{handle: d.newHandle(gfx.KindGeometry), name: desc.File}
	g.pending = true

	d.loads.Go(func() error {
		prims, err := assets.LoadGLB(d.fsys, d.resolve(d.paths.Meshes, desc.File))
		if err != nil {
			return fmt.Errorf("geometry %s: %w", desc.File, err)
		}
		if len(prims) == 0 {
			return fmt.Errorf("geometry %s: no triangle primitives", desc.File)
		}
		g.prims = prims
		return nil
	})
	d.pending = append(d.pending, func() error {
		if g.prims == nil {
			return fmt.Errorf("geometry %s: not parsed", g.name)
		}
		vb, ib, stride := mergePrimitives(g.prims, desc.VertexLayout)
		g.prims = nil
		g.vertices = []gfx.Buffer{&buffer{handle: handle{kind: gfx.KindBuffer}, desc: gfx.BufferDesc{Usage: gfx.UsageVertex, Size: len(vb) * 4}, floats: vb}}
		g.strides = []int{stride}
		g.indices = &buffer{handle: handle{kind: gfx.KindBuffer}, desc: gfx.BufferDesc{Usage: gfx.UsageIndex, Size: len(ib) * 4}, indices: ib}
		g.count = len(ib)
		g.pending = false
		return nil
	})
	return g, nil
}

func mergePrimitives(prims []assets.Primitive, layout gfx.VertexLayout) (vb []float32, ib []uint32, stride int) {
	var base uint32
	for _, p := range prims {
		data, s := p.Interleave(layout)
		stride = s
		vb = append(vb, data...)
		for _, i := range p.Indices {
			ib = append(ib, base+i)
		}
		base += uint32(len(p.Positions))
	}
	return vb, ib, stride
}

func (d *Driver) RemoveResource(r gfx.Resource) {
	if r == nil {
		return
	}
	if !d.release(r, r.Kind()) {
		return
	}
	if t, ok := r.(*texture); ok && t.img != nil {
		t.img.Deallocate()
		t.img = nil
	}
}

// WaitForAllResourceLoads joins the decode goroutines, then creates GPU images on the
// calling goroutine. Every load started before the call is bindable afterwards.
func (d *Driver) WaitForAllResourceLoads() error {
	err := d.loads.Wait()
	d.resetLoads()

	pending := d.pending
	d.pending = nil
	if err != nil {
		return fmt.Errorf("render: resource load failed: %w", err)
	}

	var errs []error
	for _, finish := range pending {
		if err := finish(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
