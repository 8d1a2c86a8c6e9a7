package render

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/younwookim/lightscenes/internal/gfx"
)

type viewport struct {
	x, y, w, h float32
}

// vertexInput is one vertex read from a bound vertex buffer
type vertexInput struct {
	pos    mgl32.Vec3
	normal mgl32.Vec3
	uv     mgl32.Vec2
}

type triangle struct {
	v     [3]ebiten.Vertex
	depth float32
}

// readVertex decodes vertex i of an interleaved stream following layout
func readVertex(data []float32, strideFloats, i int, layout gfx.VertexLayout) vertexInput {
	var in vertexInput
	base := i * strideFloats
	for _, a := range layout.Attribs {
		off := base + a.Offset/4
		n := a.Format.Components()
		if off+n > len(data) {
			continue
		}
		switch a.Semantic {
		case gfx.SemanticPosition:
			in.pos = mgl32.Vec3{data[off], data[off+1], data[off+2]}
		case gfx.SemanticNormal:
			in.normal = mgl32.Vec3{data[off], data[off+1], data[off+2]}
		case gfx.SemanticTexCoord0:
			in.uv = mgl32.Vec2{data[off], data[off+1]}
		}
	}
	return in
}

// rasterizer runs the CPU vertex stage and assembles culled, depth-ordered triangles
type rasterizer struct {
	clip, world mgl32.Mat4
	vp          viewport
	cull        gfx.CullMode
	depthSort   bool
	// texSize scales UVs into source-image pixels
	texSize mgl32.Vec2
}

type transformed struct {
	ndc mgl32.Vec3
	out ebiten.Vertex
	ok  bool
}

func (r *rasterizer) transform(in vertexInput) transformed {
	c := r.clip.Mul4x1(in.pos.Vec4(1))
	if c.W() <= 1e-6 {
		return transformed{}
	}
	ndc := c.Vec3().Mul(1 / c.W())
	world := r.world.Mul4x1(in.pos.Vec4(1)).Vec3()
	normal := r.world.Mat3().Mul3x1(in.normal)
	if normal.Len() > 0 {
		normal = normal.Normalize()
	}
	return transformed{
		ndc: ndc,
		ok:  ndc.Z() >= -1 && ndc.Z() <= 1,
		out: ebiten.Vertex{
			DstX:    r.vp.x + (ndc.X()+1)/2*r.vp.w,
			DstY:    r.vp.y + (1-ndc.Y())/2*r.vp.h,
			SrcX:    in.uv.X() * r.texSize.X(),
			SrcY:    in.uv.Y() * r.texSize.Y(),
			ColorR:  world.X(),
			ColorG:  world.Y(),
			ColorB:  world.Z(),
			ColorA:  1,
			Custom0: normal.X(),
			Custom1: normal.Y(),
			Custom2: normal.Z(),
		},
	}
}

// assemble builds the triangles of a list of vertex indices into inputs
func (r *rasterizer) assemble(inputs []vertexInput, indices []uint32) []triangle {
	cache := make([]transformed, len(inputs))
	done := make([]bool, len(inputs))
	get := func(i uint32) (transformed, bool) {
		if int(i) >= len(inputs) {
			return transformed{}, false
		}
		if !done[i] {
			cache[i] = r.transform(inputs[i])
			done[i] = true
		}
		return cache[i], cache[i].ok
	}

	tris := make([]triangle, 0, len(indices)/3)
	for t := 0; t+2 < len(indices); t += 3 {
		a, okA := get(indices[t])
		b, okB := get(indices[t+1])
		c, okC := get(indices[t+2])
		if !okA || !okB || !okC {
			continue
		}
		if r.culled(a.ndc, b.ndc, c.ndc) {
			continue
		}
		tris = append(tris, triangle{
			v:     [3]ebiten.Vertex{a.out, b.out, c.out},
			depth: (a.ndc.Z() + b.ndc.Z() + c.ndc.Z()) / 3,
		})
	}

	if r.depthSort {
		// No depth buffer: draw far triangles first
		sort.SliceStable(tris, func(i, j int) bool { return tris[i].depth > tris[j].depth })
	}
	return tris
}

// culled reports whether the NDC triangle is discarded. Counter-clockwise is front facing.
func (r *rasterizer) culled(a, b, c mgl32.Vec3) bool {
	area := (b.X()-a.X())*(c.Y()-a.Y()) - (c.X()-a.X())*(b.Y()-a.Y())
	switch r.cull {
	case gfx.CullBack:
		return area <= 0
	case gfx.CullFront:
		return area >= 0
	default:
		return area == 0
	}
}

// maxBatch keeps index values within uint16
const maxBatch = 65535 / 3

// batches flattens triangles into vertex and index slices of at most maxBatch triangles
func batches(tris []triangle) (vs [][]ebiten.Vertex, is [][]uint16) {
	for len(tris) > 0 {
		n := len(tris)
		if n > maxBatch {
			n = maxBatch
		}
		v := make([]ebiten.Vertex, 0, n*3)
		idx := make([]uint16, 0, n*3)
		for i, t := range tris[:n] {
			v = append(v, t.v[:]...)
			idx = append(idx, uint16(i*3), uint16(i*3+1), uint16(i*3+2))
		}
		vs = append(vs, v)
		is = append(is, idx)
		tris = tris[n:]
	}
	return vs, is
}
