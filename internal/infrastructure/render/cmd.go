package render

import (
	"image"
	"image/color"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/younwookim/lightscenes/internal/gfx"
)

type boundSet struct {
	set   *descriptorSet
	index int
}

type query struct {
	name  string
	start time.Time
}

// cmd executes commands as they are recorded
type cmd struct {
	handle
	drv       *Driver
	recording bool

	target   *ebiten.Image
	scissor  *image.Rectangle
	vp       viewport
	pipeline *pipeline
	sets     []boundSet
	vertices []gfx.Buffer
	strides  []int
	index    *buffer
	queries  []query
}

func (c *cmd) reset() {
	c.recording = false
	c.target = nil
	c.scissor = nil
	c.pipeline = nil
	c.sets = nil
	c.vertices, c.strides = nil, nil
	c.index = nil
	c.queries = nil
}

func (c *cmd) Begin() {
	c.reset()
	c.recording = true
}

func (c *cmd) End() { c.recording = false }

func (c *cmd) ResourceBarrier(rt gfx.RenderTarget, from, to gfx.ResourceState) {}

func (c *cmd) BindRenderTargets(colors []gfx.RenderTarget, depth gfx.RenderTarget, load *gfx.LoadActions) {
	c.target = nil
	c.scissor = nil
	if len(colors) == 0 {
		return
	}
	rt, ok := colors[0].(*renderTarget)
	if !ok || rt.img == nil {
		return
	}
	c.target = rt.img
	c.vp = viewport{w: float32(rt.desc.Width), h: float32(rt.desc.Height)}
	if load != nil && load.Color == gfx.LoadActionClear {
		if load.ClearColor != nil {
			rt.img.Fill(load.ClearColor)
		} else {
			rt.img.Clear()
		}
	}
}

func (c *cmd) SetViewport(x, y, w, h, minDepth, maxDepth float32) {
	c.vp = viewport{x: x, y: y, w: w, h: h}
}

func (c *cmd) SetScissor(x, y, w, h int) {
	r := image.Rect(x, y, x+w, y+h)
	c.scissor = &r
}

func (c *cmd) dst() *ebiten.Image {
	if c.target == nil || c.scissor == nil {
		return c.target
	}
	return c.target.SubImage(*c.scissor).(*ebiten.Image)
}

func (c *cmd) BindPipeline(p gfx.Pipeline) {
	c.pipeline, _ = p.(*pipeline)
	c.sets = c.sets[:0]
}

func (c *cmd) BindDescriptorSet(index int, set gfx.DescriptorSet) {
	s, ok := set.(*descriptorSet)
	if !ok || index < 0 || index >= len(s.slots) {
		c.drv.log.Warnw("bind of invalid descriptor set", "index", index)
		return
	}
	for i, b := range c.sets {
		if b.set == s {
			c.sets[i].index = index
			return
		}
	}
	c.sets = append(c.sets, boundSet{set: s, index: index})
}

func (c *cmd) BindVertexBuffer(buffers []gfx.Buffer, strides []int) {
	c.vertices, c.strides = buffers, strides
}

func (c *cmd) BindIndexBuffer(b gfx.Buffer, t gfx.IndexType, offset int) {
	c.index, _ = b.(*buffer)
}

func (c *cmd) Draw(vertexCount, firstVertex int) {
	indices := make([]uint32, vertexCount)
	for i := range indices {
		indices[i] = uint32(i)
	}
	c.draw(firstVertex, vertexCount, indices)
}

func (c *cmd) DrawIndexed(indexCount, firstIndex, firstVertex int) {
	if c.index == nil || firstIndex+indexCount > len(c.index.indices) {
		c.drv.log.Warnw("indexed draw without a valid index buffer", "count", indexCount)
		return
	}
	c.draw(firstVertex, -1, c.index.indices[firstIndex:firstIndex+indexCount])
}

// draw runs the vertex stage over the bound vertex buffer and rasterizes the result
// with the pipeline's Kage program. vertexCount < 0 reads every vertex in the buffer.
func (c *cmd) draw(firstVertex, vertexCount int, indices []uint32) {
	dst := c.dst()
	if !c.recording || dst == nil || c.pipeline == nil || len(c.vertices) == 0 {
		c.drv.log.Warnw("draw without target, pipeline or vertex buffer")
		return
	}
	vb, ok := c.vertices[0].(*buffer)
	if !ok || len(c.strides) == 0 || c.strides[0] <= 0 {
		return
	}
	sh := c.pipeline.desc.Shader.(*shader)
	layout := c.pipeline.desc.VertexLayout

	stride := c.strides[0] / 4
	available := len(vb.floats)/stride - firstVertex
	if vertexCount < 0 || vertexCount > available {
		vertexCount = available
	}
	inputs := make([]vertexInput, 0, max(vertexCount, 0))
	for i := 0; i < vertexCount; i++ {
		inputs = append(inputs, readVertex(vb.floats, stride, firstVertex+i, layout))
	}

	uniforms := make(map[string]any)
	var (
		images [4]*ebiten.Image
		block  any
	)
	for _, b := range c.sets {
		for _, data := range b.set.slots[b.index] {
			for _, buf := range data.Buffers {
				if bb, ok := buf.(*buffer); ok && bb.Mapping != nil && bb.Block() != nil {
					block = bb.Block()
					kageUniforms(block, uniforms)
				}
			}
			for i, t := range data.Textures {
				if tt, ok := t.(*texture); ok && i < len(images) {
					images[i] = tt.img
				}
			}
		}
	}
	if block == nil {
		c.drv.log.Warnw("draw without uniform block", "shader", sh.name)
		return
	}
	clip, world, err := sh.vertex.matrices(block)
	if err != nil {
		c.drv.log.Warnw("vertex stage failed", "shader", sh.name, "error", err)
		return
	}

	r := rasterizer{
		clip:      clip,
		world:     world,
		vp:        c.vp,
		cull:      c.pipeline.desc.Rasterizer.Cull,
		depthSort: c.pipeline.desc.Depth != nil && c.pipeline.desc.Depth.Test,
	}
	if images[0] != nil {
		s := images[0].Bounds().Size()
		r.texSize = mgl32.Vec2{float32(s.X), float32(s.Y)}
	}

	vs, is := batches(r.assemble(inputs, indices))
	op := &ebiten.DrawTrianglesShaderOptions{
		Uniforms: uniforms,
		Images:   images,
		Blend:    ebitenBlend(c.pipeline.desc.Blend),
	}
	for i := range vs {
		dst.DrawTrianglesShader(vs[i], is[i], sh.frag, op)
	}
}

func ebitenBlend(b gfx.BlendState) ebiten.Blend {
	if !b.Enabled {
		return ebiten.BlendCopy
	}
	return ebiten.Blend{
		BlendFactorSourceRGB:        blendFactor(b.Src),
		BlendFactorSourceAlpha:      blendFactor(b.SrcAlpha),
		BlendFactorDestinationRGB:   blendFactor(b.Dst),
		BlendFactorDestinationAlpha: blendFactor(b.DstAlpha),
		BlendOperationRGB:           ebiten.BlendOperationAdd,
		BlendOperationAlpha:         ebiten.BlendOperationAdd,
	}
}

func blendFactor(f gfx.BlendFactor) ebiten.BlendFactor {
	switch f {
	case gfx.BlendOne:
		return ebiten.BlendFactorOne
	case gfx.BlendSrcAlpha:
		return ebiten.BlendFactorSourceAlpha
	case gfx.BlendOneMinusSrcAlpha:
		return ebiten.BlendFactorOneMinusSourceAlpha
	default:
		return ebiten.BlendFactorZero
	}
}

func (c *cmd) BeginTimestampQuery(name string) {
	c.queries = append(c.queries, query{name: name, start: time.Now()})
}

func (c *cmd) EndTimestampQuery() {
	if len(c.queries) == 0 {
		return
	}
	q := c.queries[len(c.queries)-1]
	c.queries = c.queries[:len(c.queries)-1]
	c.drv.timings[q.name] = float64(time.Since(q.start)) / float64(time.Millisecond)
}

func (c *cmd) DrawText(s string, x, y float32, desc gfx.FontDrawDesc) (float32, float32) {
	face := c.drv.face(desc)
	if face == nil {
		return 0, 0
	}
	w, h := text.Measure(s, face, face.Size*1.2)
	if dst := c.dst(); dst != nil {
		op := &text.DrawOptions{}
		op.GeoM.Translate(float64(x), float64(y))
		op.ColorScale.ScaleWithColor(desc.RGBA())
		text.Draw(dst, s, face, op)
	}
	return float32(w), float32(h)
}

func (c *cmd) FillRect(x, y, w, h float32, col color.Color) {
	if dst := c.dst(); dst != nil {
		vector.DrawFilledRect(dst, x, y, w, h, col, false)
	}
}
