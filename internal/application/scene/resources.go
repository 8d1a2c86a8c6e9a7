package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/younwookim/lightscenes/internal/application/camera"
	"github.com/younwookim/lightscenes/internal/gfx"
)

// HorizontalFOV is the field of view every demo projects with
const HorizontalFOV = math.Pi / 2

// UniformBlockName is the shader slot per-frame uniform buffers bind to
const UniformBlockName = "uniformBlock"

// Projection returns the demo projection for a surface of the given settings
func Projection(s gfx.Settings) mgl32.Mat4 {
	return camera.Perspective(HorizontalFOV, s.AspectInverse())
}

// AddUniformBuffers creates count persistently mapped uniform buffers of size bytes.
// The uploads must be awaited before the buffers are bound.
func AddUniformBuffers(dev gfx.Device, count, size int) ([]gfx.Buffer, error) {
	bufs := make([]gfx.Buffer, 0, count)
	for i := 0; i < count; i++ {
		b, err := dev.AddBuffer(gfx.BufferDesc{
			Usage:  gfx.UsageUniform,
			Memory: gfx.MemoryCPUToGPU,
			Size:   size,
			Flags:  gfx.BufferFlagPersistentMap,
		})
		if err != nil {
			RemoveBuffers(dev, bufs)
			return nil, fmt.Errorf("failed to add uniform buffer %d: %w", i, err)
		}
		bufs = append(bufs, b)
	}
	return bufs, nil
}

// RemoveBuffers releases every buffer in bufs
func RemoveBuffers(dev gfx.Device, bufs []gfx.Buffer) {
	for _, b := range bufs {
		dev.RemoveResource(b)
	}
}

// RemovePipelines releases every pipeline that was created. Nil entries are skipped
// so a partially loaded scene can unwind with it.
func RemovePipelines(dev gfx.Device, pipelines ...gfx.Pipeline) {
	for _, p := range pipelines {
		if p != nil {
			dev.RemovePipeline(p)
		}
	}
}

// BindUniformBuffers points slot i of a per-frame descriptor set at bufs[i]
func BindUniformBuffers(dev gfx.Device, set gfx.DescriptorSet, bufs []gfx.Buffer) error {
	for i, b := range bufs {
		err := dev.UpdateDescriptorSet(set, i, gfx.DescriptorData{
			Name:    UniformBlockName,
			Buffers: []gfx.Buffer{b},
		})
		if err != nil {
			return fmt.Errorf("failed to bind uniform buffer %d: %w", i, err)
		}
	}
	return nil
}

// OpaquePipeline returns the pipeline state shared by the demos: triangle lists,
// back-face culling, depth tested and written, straight alpha blending.
func OpaquePipeline(sc gfx.SwapChain, depth gfx.RenderTarget, layout gfx.VertexLayout) gfx.PipelineDesc {
	rt := sc.RenderTarget(0)
	desc := gfx.PipelineDesc{
		VertexLayout: layout,
		Topology:     gfx.TopologyTriList,
		ColorFormat:  rt.Format(),
		SampleCount:  rt.SampleCount(),
		Rasterizer:   gfx.RasterizerState{Cull: gfx.CullBack},
		Depth:        &gfx.DepthState{Test: true, Write: true, Func: gfx.CompareLessEqual},
		Blend:        gfx.AlphaBlend,
	}
	if depth != nil {
		desc.DepthFormat = depth.Format()
	}
	return desc
}

// PositionNormalLayout is the interleaved {position, normal} layout of the cuboid
var PositionNormalLayout = gfx.VertexLayout{Attribs: []gfx.VertexAttrib{
	{Semantic: gfx.SemanticPosition, Format: gfx.FormatR32G32B32Float, Location: 0, Offset: 0},
	{Semantic: gfx.SemanticNormal, Format: gfx.FormatR32G32B32Float, Location: 1, Offset: 12},
}}
