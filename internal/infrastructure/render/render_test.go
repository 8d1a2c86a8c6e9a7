package render

import (
	"os"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/lightscenes/internal/gfx"
	"github.com/younwookim/lightscenes/internal/infrastructure/assets"
	"github.com/younwookim/lightscenes/internal/infrastructure/config"
)

const assetDir = "../../../cmd/scenes/assets"

type block struct {
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Color      mgl32.Vec3
	Shininess  float32
}

func TestParseVertexProgram(t *testing.T) {
	p, err := parseVertexProgram([]byte("# cube\nclip Projection View Model\n\nworld Model\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Projection", "View", "Model"}, p.clip)
	assert.Equal(t, []string{"Model"}, p.world)

	for name, src := range map[string]string{
		"no clip":        "world Model\n",
		"unknown":        "clip Model\nnormal Model\n",
		"missing matrix": "clip\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseVertexProgram([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestShaderFiles(t *testing.T) {
	entries, err := os.ReadDir(assetDir + "/shaders")
	require.NoError(t, err)

	vert := 0
	for _, e := range entries {
		if len(e.Name()) < 5 || e.Name()[len(e.Name())-5:] != ".vert" {
			continue
		}
		vert++
		src, err := os.ReadFile(assetDir + "/shaders/" + e.Name())
		require.NoError(t, err)
		_, err = parseVertexProgram(src)
		assert.NoError(t, err, e.Name())
	}
	assert.Equal(t, 5, vert)
}

func TestVertexProgram_Matrices(t *testing.T) {
	p, err := parseVertexProgram([]byte("clip Projection View Model\nworld Model"))
	require.NoError(t, err)

	b := block{
		Model:      mgl32.Translate3D(1, 0, 0),
		View:       mgl32.Translate3D(0, 0, -3),
		Projection: mgl32.Scale3D(2, 2, 2),
	}
	clip, world, err := p.matrices(b)
	require.NoError(t, err)

	assert.Equal(t, b.Projection.Mul4(b.View).Mul4(b.Model), clip)
	assert.Equal(t, b.Model, world)

	_, _, err = (&vertexProgram{clip: []string{"Color"}}).matrices(b)
	assert.Error(t, err, "vectors are not matrices")
	_, _, err = (&vertexProgram{clip: []string{"Model"}}).matrices(42)
	assert.Error(t, err)
}

func TestKageUniforms(t *testing.T) {
	u := make(map[string]any)
	kageUniforms(&block{Model: mgl32.Ident4(), Color: mgl32.Vec3{1, 0.5, 0.25}, Shininess: 32}, u)

	assert.Equal(t, []float32{1, 0.5, 0.25}, u["Color"])
	assert.Equal(t, float32(32), u["Shininess"])
	assert.Len(t, u["Model"], 16)
	assert.Equal(t, float32(1), u["Model"].([]float32)[15])
}

func quad() []vertexInput {
	return []vertexInput{
		{pos: mgl32.Vec3{-1, -1, 0}, normal: mgl32.Vec3{0, 0, 1}, uv: mgl32.Vec2{0, 1}},
		{pos: mgl32.Vec3{1, -1, 0}, normal: mgl32.Vec3{0, 0, 1}, uv: mgl32.Vec2{1, 1}},
		{pos: mgl32.Vec3{1, 1, 0}, normal: mgl32.Vec3{0, 0, 1}, uv: mgl32.Vec2{1, 0}},
	}
}

func TestRasterizer_ViewportAndAttributes(t *testing.T) {
	r := rasterizer{
		clip:    mgl32.Scale3D(0.5, 0.5, 0.5),
		world:   mgl32.Translate3D(0, 0, 2),
		vp:      viewport{w: 200, h: 100},
		cull:    gfx.CullBack,
		texSize: mgl32.Vec2{64, 64},
	}
	tris := r.assemble(quad(), []uint32{0, 1, 2})
	require.Len(t, tris, 1)

	v := tris[0].v[0]
	// NDC (-0.5,-0.5) maps to a quarter in from the left and three quarters down
	assert.InDelta(t, 50, v.DstX, 1e-4)
	assert.InDelta(t, 75, v.DstY, 1e-4)
	assert.InDelta(t, 64, v.SrcY, 1e-4)
	// World position in the color, normal in the custom attributes
	assert.InDelta(t, 2, v.ColorB, 1e-5)
	assert.InDelta(t, 1, v.Custom2, 1e-5)
	assert.Equal(t, float32(1), v.ColorA)
}

func TestRasterizer_Culling(t *testing.T) {
	ccw := []uint32{0, 1, 2}
	cw := []uint32{0, 2, 1}

	tests := []struct {
		name string
		cull gfx.CullMode
		idx  []uint32
		want int
	}{
		{"back keeps ccw", gfx.CullBack, ccw, 1},
		{"back drops cw", gfx.CullBack, cw, 0},
		{"front drops ccw", gfx.CullFront, ccw, 0},
		{"front keeps cw", gfx.CullFront, cw, 1},
		{"none keeps both", gfx.CullNone, append(ccw, cw...), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rasterizer{clip: mgl32.Scale3D(0.5, 0.5, 0.5), world: mgl32.Ident4(), vp: viewport{w: 10, h: 10}, cull: tt.cull}
			assert.Len(t, r.assemble(quad(), tt.idx), tt.want)
		})
	}
}

func TestRasterizer_ClipsBehindCamera(t *testing.T) {
	r := rasterizer{
		clip:  mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 100).Mul4(mgl32.Translate3D(0, 0, 5)),
		world: mgl32.Ident4(),
		vp:    viewport{w: 10, h: 10},
	}
	assert.Empty(t, r.assemble(quad(), []uint32{0, 1, 2}))
}

func TestRasterizer_DepthSort(t *testing.T) {
	inputs := []vertexInput{
		// near triangle
		{pos: mgl32.Vec3{-1, -1, -2}}, {pos: mgl32.Vec3{1, -1, -2}}, {pos: mgl32.Vec3{0, 1, -2}},
		// far triangle
		{pos: mgl32.Vec3{-1, -1, -8}}, {pos: mgl32.Vec3{1, -1, -8}}, {pos: mgl32.Vec3{0, 1, -8}},
	}
	r := rasterizer{
		clip:      mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 100),
		world:     mgl32.Ident4(),
		vp:        viewport{w: 100, h: 100},
		cull:      gfx.CullBack,
		depthSort: true,
	}
	tris := r.assemble(inputs, []uint32{0, 1, 2, 3, 4, 5})
	require.Len(t, tris, 2)
	assert.Greater(t, tris[0].depth, tris[1].depth, "far first")

	r.depthSort = false
	tris = r.assemble(inputs, []uint32{0, 1, 2, 3, 4, 5})
	assert.Less(t, tris[0].depth, tris[1].depth, "submission order")
}

func TestBatches(t *testing.T) {
	tris := make([]triangle, maxBatch+2)
	vs, is := batches(tris)

	require.Len(t, vs, 2)
	assert.Len(t, vs[0], maxBatch*3)
	assert.Len(t, vs[1], 6)
	assert.Equal(t, []uint16{0, 1, 2, 3, 4, 5}, is[1])
}

func TestReadVertex(t *testing.T) {
	data := assets.Cuboid()
	layout := gfx.VertexLayout{Attribs: []gfx.VertexAttrib{
		{Semantic: gfx.SemanticPosition, Format: gfx.FormatR32G32B32Float, Offset: 0},
		{Semantic: gfx.SemanticNormal, Format: gfx.FormatR32G32B32Float, Offset: 12},
	}}
	v := readVertex(data, assets.CuboidStride/4, 1, layout)
	assert.Equal(t, mgl32.Vec3{data[6], data[7], data[8]}, v.pos)
	assert.Equal(t, mgl32.Vec3{data[9], data[10], data[11]}, v.normal)
}

func TestEbitenBlend(t *testing.T) {
	b := ebitenBlend(gfx.AlphaBlend)
	assert.Equal(t, ebiten.BlendFactorSourceAlpha, b.BlendFactorSourceRGB)
	assert.Equal(t, ebiten.BlendFactorOneMinusSourceAlpha, b.BlendFactorDestinationRGB)
	assert.Equal(t, ebiten.BlendCopy, ebitenBlend(gfx.BlendState{}))
}

func newDriver() *Driver {
	return New(Options{
		FS:    os.DirFS(assetDir),
		Paths: config.DefaultApp().Paths,
	})
}

func TestDriver_SettingsBeforeSwapChain(t *testing.T) {
	assert.Zero(t, newDriver().Settings().ImageCount)

	d := New(Options{
		FS:       os.DirFS(assetDir),
		Paths:    config.DefaultApp().Paths,
		Settings: gfx.Settings{Width: 640, Height: 480, ImageCount: 3},
	})
	st := d.Settings()
	assert.Equal(t, 3, st.ImageCount)
	assert.Equal(t, 640, st.Width)
	assert.Equal(t, 480, st.Height)

	// Scenes size per-frame sets this way during Init, before Load adds the swapchain
	set, err := d.AddDescriptorSet(gfx.DescriptorSetDesc{
		RootSignature:   &rootSignature{},
		UpdateFrequency: gfx.UpdateFreqPerFrame,
		MaxSets:         st.ImageCount,
	})
	require.NoError(t, err)
	d.RemoveDescriptorSet(set)
	assert.NoError(t, d.Close())
}

func TestDriver_Ledger(t *testing.T) {
	d := newDriver()

	f, err := d.AddFence()
	require.NoError(t, err)
	s, err := d.AddSemaphore()
	require.NoError(t, err)
	pool, err := d.AddCmdPool()
	require.NoError(t, err)
	c, err := d.AddCmd(pool)
	require.NoError(t, err)

	assert.ErrorIs(t, d.Close(), ErrLeaked)

	d.RemoveCmd(c)
	d.RemoveCmdPool(pool)
	d.RemoveSemaphore(s)
	d.RemoveFence(f)
	// Double removal is logged and ignored
	d.RemoveFence(f)
	assert.NoError(t, d.Close())
}

func TestDriver_BuffersBindAfterWait(t *testing.T) {
	d := newDriver()
	sig := &rootSignature{}
	set, err := d.AddDescriptorSet(gfx.DescriptorSetDesc{RootSignature: sig, UpdateFrequency: gfx.UpdateFreqPerFrame, MaxSets: 2})
	require.NoError(t, err)

	buf, err := d.AddBuffer(gfx.BufferDesc{Usage: gfx.UsageUniform, Memory: gfx.MemoryCPUToGPU, Size: 64, Flags: gfx.BufferFlagPersistentMap})
	require.NoError(t, err)

	data := gfx.DescriptorData{Name: "uniformBlock", Buffers: []gfx.Buffer{buf}}
	assert.ErrorIs(t, d.UpdateDescriptorSet(set, 0, data), gfx.ErrNotLoaded)

	require.NoError(t, d.WaitForAllResourceLoads())
	assert.NoError(t, d.UpdateDescriptorSet(set, 1, data))
	assert.Error(t, d.UpdateDescriptorSet(set, 2, data))

	require.NoError(t, gfx.WriteUniform(buf, mgl32.Ident4()))

	d.RemoveResource(buf)
	d.RemoveDescriptorSet(set)
	assert.NoError(t, d.Close())
}

func TestDriver_Geometry(t *testing.T) {
	d := newDriver()
	layout := gfx.VertexLayout{Attribs: []gfx.VertexAttrib{
		{Semantic: gfx.SemanticPosition, Format: gfx.FormatR32G32B32Float, Offset: 0},
		{Semantic: gfx.SemanticNormal, Format: gfx.FormatR32G32B32Float, Offset: 12},
		{Semantic: gfx.SemanticTexCoord0, Format: gfx.FormatR32G32Float, Offset: 24},
	}}

	g, err := d.AddGeometry(gfx.GeometryDesc{File: "model.glb", VertexLayout: layout})
	require.NoError(t, err)
	assert.Equal(t, 0, g.IndexCount(), "not available before the wait")

	require.NoError(t, d.WaitForAllResourceLoads())
	assert.Equal(t, 36, g.IndexCount())
	assert.Equal(t, []int{32}, g.VertexStrides())
	require.Len(t, g.VertexBuffers(), 1)
	assert.Equal(t, 24*32, g.VertexBuffers()[0].Size())

	d.RemoveResource(g)
	assert.NoError(t, d.Close())
}

func TestDriver_MissingGeometry(t *testing.T) {
	d := newDriver()
	g, err := d.AddGeometry(gfx.GeometryDesc{File: "missing.glb"})
	require.NoError(t, err)

	assert.Error(t, d.WaitForAllResourceLoads())
	d.RemoveResource(g)
	assert.NoError(t, d.Close())
}

func TestMergePrimitives(t *testing.T) {
	p := assets.Primitive{
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:   []uint32{0, 1, 2},
	}
	layout := gfx.VertexLayout{Attribs: []gfx.VertexAttrib{
		{Semantic: gfx.SemanticPosition, Format: gfx.FormatR32G32B32Float, Offset: 0},
	}}
	vb, ib, stride := mergePrimitives([]assets.Primitive{p, p}, layout)

	assert.Equal(t, 12, stride)
	assert.Len(t, vb, 18)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, ib)
}
