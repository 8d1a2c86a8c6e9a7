package gfx

import "image/color"

// ShaderStage names a per-stage source file resolved through the shader directory.
type ShaderStage struct {
	File string
}

// ShaderDesc describes a shader program (vertex stage first, fragment stage second).
type ShaderDesc struct {
	Stages []ShaderStage
}

// RootSignatureDesc declares the shaders and static samplers a pipeline layout serves.
type RootSignatureDesc struct {
	Shaders        []Shader
	StaticSamplers map[string]Sampler
}

// VertexAttrib is one attribute of an interleaved vertex.
type VertexAttrib struct {
	Semantic Semantic
	Format   Format
	Binding  int
	Location int
	Offset   int // bytes
}

// VertexLayout describes interleaved vertex data.
type VertexLayout struct {
	Attribs []VertexAttrib
}

// Attrib returns the attribute with the given semantic.
func (l VertexLayout) Attrib(s Semantic) (VertexAttrib, bool) {
	for _, a := range l.Attribs {
		if a.Semantic == s {
			return a, true
		}
	}
	return VertexAttrib{}, false
}

type RasterizerState struct {
	Cull CullMode
}

type DepthState struct {
	Test  bool
	Write bool
	Func  CompareFunc
}

type BlendState struct {
	Enabled     bool
	Src, Dst    BlendFactor
	SrcAlpha    BlendFactor
	DstAlpha    BlendFactor
	Op, AlphaOp BlendOp
}

// AlphaBlend is the straight alpha blend every demo pipeline uses.
var AlphaBlend = BlendState{
	Enabled:  true,
	Src:      BlendSrcAlpha,
	Dst:      BlendOneMinusSrcAlpha,
	SrcAlpha: BlendOne,
	DstAlpha: BlendZero,
	Op:       BlendOpAdd,
	AlphaOp:  BlendOpAdd,
}

// PipelineDesc describes a graphics pipeline bound to swapchain color/depth formats.
type PipelineDesc struct {
	Shader        Shader
	RootSignature RootSignature
	VertexLayout  VertexLayout
	Topology      Topology
	ColorFormat   Format
	DepthFormat   Format
	SampleCount   int
	Rasterizer    RasterizerState
	Depth         *DepthState
	Blend         BlendState
}

// BufferDesc describes a GPU buffer. Data, when set, is uploaded asynchronously and
// must be []float32 for vertex buffers and []uint16 or []uint32 for index buffers.
type BufferDesc struct {
	Usage  BufferUsage
	Memory MemoryUsage
	Size   int
	Flags  BufferFlags
	Data   any
}

type TextureDesc struct {
	File string
}

type GeometryDesc struct {
	File         string
	VertexLayout VertexLayout
}

type SamplerDesc struct {
	Min, Mag                     Filter
	Mipmap                       MipmapMode
	AddressU, AddressV, AddressW AddressMode
}

type DescriptorSetDesc struct {
	RootSignature   RootSignature
	UpdateFrequency UpdateFrequency
	MaxSets         int
}

// DescriptorData binds buffers or textures to the named shader slot.
type DescriptorData struct {
	Name     string
	Buffers  []Buffer
	Textures []Texture
}

type SwapChainDesc struct {
	Width       int
	Height      int
	ImageCount  int
	ColorFormat Format
	VSync       bool
}

type RenderTargetDesc struct {
	Width       int
	Height      int
	Format      Format
	SampleCount int
	ClearDepth  float32
	StartState  ResourceState
}

// LoadActions control how bound render targets are initialized.
type LoadActions struct {
	Color      LoadAction
	Depth      LoadAction
	ClearColor color.Color
	ClearDepth float32
}

type SubmitDesc struct {
	Cmds             []Cmd
	WaitSemaphores   []Semaphore
	SignalSemaphores []Semaphore
	SignalFence      Fence
}

type PresentDesc struct {
	SwapChain      SwapChain
	Index          int
	WaitSemaphores []Semaphore
	SubmitDone     bool
}

// FontDesc names a font file under the font directory. An empty path selects the built-in face.
type FontDesc struct {
	Path string
}

type FontDrawDesc struct {
	FontID int
	Size   float32
	Color  uint32 // 0xAABBGGRR
}

// RGBA converts the packed font color to a color.RGBA.
func (d FontDrawDesc) RGBA() color.RGBA {
	return color.RGBA{
		R: uint8(d.Color),
		G: uint8(d.Color >> 8),
		B: uint8(d.Color >> 16),
		A: uint8(d.Color >> 24),
	}
}
