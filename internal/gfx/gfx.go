// Package gfx defines the rendering engine API used by the scene host and the demo scenes.
//
// Scenes talk to a Device: they create shaders, root signatures, pipelines, buffers and
// descriptor sets, and release them again in mirror order. The host talks to a Driver,
// which additionally owns swapchains, render targets, fences, semaphores and command
// recording. Backends live elsewhere (the ebiten driver in infrastructure/render and the
// recording fake in gfx/gfxtest).
package gfx

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownHandle is returned when a handle was not created by the device or was already removed.
	ErrUnknownHandle = errors.New("gfx: unknown or released handle")
	// ErrNotLoaded is returned when a resource is referenced before its upload was awaited.
	ErrNotLoaded = errors.New("gfx: resource upload not awaited")
)

// Kind identifies a class of device object for leak accounting.
type Kind int

const (
	KindShader Kind = iota
	KindRootSignature
	KindPipeline
	KindSampler
	KindDescriptorSet
	KindBuffer
	KindTexture
	KindGeometry
	KindSwapChain
	KindRenderTarget
	KindFence
	KindSemaphore
	KindCmdPool
	KindCmd
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindShader:
		return "Shader"
	case KindRootSignature:
		return "RootSignature"
	case KindPipeline:
		return "Pipeline"
	case KindSampler:
		return "Sampler"
	case KindDescriptorSet:
		return "DescriptorSet"
	case KindBuffer:
		return "Buffer"
	case KindTexture:
		return "Texture"
	case KindGeometry:
		return "Geometry"
	case KindSwapChain:
		return "SwapChain"
	case KindRenderTarget:
		return "RenderTarget"
	case KindFence:
		return "Fence"
	case KindSemaphore:
		return "Semaphore"
	case KindCmdPool:
		return "CmdPool"
	case KindCmd:
		return "Cmd"
	default:
		return "Unknown"
	}
}

// Format is a texel or vertex attribute format.
type Format int

const (
	FormatUndefined Format = iota
	FormatR32G32Float
	FormatR32G32B32Float
	FormatR8G8B8A8Unorm
	FormatB8G8R8A8Srgb
	FormatD32Float
)

// Components returns the number of float components of a vertex attribute format.
func (f Format) Components() int {
	switch f {
	case FormatR32G32Float:
		return 2
	case FormatR32G32B32Float:
		return 3
	default:
		return 0
	}
}

type Semantic int

const (
	SemanticPosition Semantic = iota
	SemanticNormal
	SemanticTexCoord0
)

type BufferUsage int

const (
	UsageVertex BufferUsage = iota
	UsageIndex
	UsageUniform
)

type MemoryUsage int

const (
	MemoryGPUOnly MemoryUsage = iota
	MemoryCPUToGPU
)

type BufferFlags uint32

const (
	BufferFlagNone          BufferFlags = 0
	BufferFlagPersistentMap BufferFlags = 1 << iota
)

type IndexType int

const (
	IndexUint16 IndexType = iota
	IndexUint32
)

type Topology int

const (
	TopologyTriList Topology = iota
)

type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

type CompareFunc int

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareLessEqual
	CompareGreater
	CompareGreaterEqual
	CompareAlways
)

type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
)

type BlendOp int

const (
	BlendOpAdd BlendOp = iota
)

type UpdateFrequency int

const (
	UpdateFreqNone UpdateFrequency = iota
	UpdateFreqPerFrame
)

type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

type MipmapMode int

const (
	MipmapNearest MipmapMode = iota
	MipmapLinear
)

type AddressMode int

const (
	AddressRepeat AddressMode = iota
	AddressClampToEdge
)

type LoadAction int

const (
	LoadActionDontCare LoadAction = iota
	LoadActionLoad
	LoadActionClear
)

type ResourceState int

const (
	StateUndefined ResourceState = iota
	StatePresent
	StateRenderTarget
	StateDepthWrite
)

type FenceStatus int

const (
	FenceComplete FenceStatus = iota
	FenceIncomplete
)

// Settings describes the presentation surface the device renders to.
type Settings struct {
	Width      int
	Height     int
	ImageCount int
}

// AspectInverse returns height/width, the aspect the scenes feed to their projection.
func (s Settings) AspectInverse() float32 {
	if s.Width == 0 {
		return 1
	}
	return float32(s.Height) / float32(s.Width)
}

var formatNames = map[string]Format{
	"R32G32_SFLOAT":    FormatR32G32Float,
	"R32G32B32_SFLOAT": FormatR32G32B32Float,
	"R8G8B8A8_UNORM":   FormatR8G8B8A8Unorm,
	"B8G8R8A8_SRGB":    FormatB8G8R8A8Srgb,
	"D32_SFLOAT":       FormatD32Float,
}

// ParseFormat maps a config format name such as "B8G8R8A8_SRGB" to a Format.
// The empty string yields FormatUndefined.
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return FormatUndefined, nil
	}
	f, ok := formatNames[name]
	if !ok {
		return FormatUndefined, fmt.Errorf("gfx: unknown format %q", name)
	}
	return f, nil
}
