package gfx

import "image/color"

// Handle is implemented by every device object.
type Handle interface {
	Kind() Kind
	ID() uint64
}

type (
	Shader        interface{ Handle }
	RootSignature interface{ Handle }
	Pipeline      interface{ Handle }
	Sampler       interface{ Handle }
	DescriptorSet interface{ Handle }
	Fence         interface{ Handle }
	Semaphore     interface{ Handle }
	CmdPool       interface{ Handle }
)

// Resource is a Buffer, Texture or Geometry created through the resource loader.
type Resource interface {
	Handle
}

// Buffer is a GPU buffer. Uniform buffers created with BufferFlagPersistentMap stay
// mapped and accept Update once per frame.
type Buffer interface {
	Resource
	Size() int
	// Update writes a fixed-layout block into the mapped storage.
	Update(block any) error
}

type Texture interface {
	Resource
	Width() int
	Height() int
}

// Geometry is a loaded mesh split into one or more vertex buffers sharing an index buffer.
type Geometry interface {
	Resource
	VertexBuffers() []Buffer
	VertexStrides() []int
	IndexBuffer() Buffer
	IndexType() IndexType
	IndexCount() int
}

type RenderTarget interface {
	Handle
	Width() int
	Height() int
	Format() Format
	SampleCount() int
}

type SwapChain interface {
	Handle
	ImageCount() int
	RenderTarget(i int) RenderTarget
	VSync() bool
}

// Device is the scene-facing part of the engine.
type Device interface {
	Settings() Settings

	AddShader(desc ShaderDesc) (Shader, error)
	RemoveShader(s Shader)
	AddRootSignature(desc RootSignatureDesc) (RootSignature, error)
	RemoveRootSignature(r RootSignature)
	AddPipeline(desc PipelineDesc) (Pipeline, error)
	RemovePipeline(p Pipeline)
	AddSampler(desc SamplerDesc) (Sampler, error)
	RemoveSampler(s Sampler)
	AddDescriptorSet(desc DescriptorSetDesc) (DescriptorSet, error)
	RemoveDescriptorSet(d DescriptorSet)
	UpdateDescriptorSet(set DescriptorSet, index int, params ...DescriptorData) error

	// AddBuffer, AddTexture and AddGeometry start asynchronous uploads. The returned
	// resources may not be bound until WaitForAllResourceLoads returns.
	AddBuffer(desc BufferDesc) (Buffer, error)
	AddTexture(desc TextureDesc) (Texture, error)
	AddGeometry(desc GeometryDesc) (Geometry, error)
	RemoveResource(r Resource)
	WaitForAllResourceLoads() error
}

// Cmd records GPU commands for one frame slot.
type Cmd interface {
	Handle
	Begin()
	End()
	ResourceBarrier(rt RenderTarget, from, to ResourceState)
	BindRenderTargets(colors []RenderTarget, depth RenderTarget, load *LoadActions)
	SetViewport(x, y, w, h, minDepth, maxDepth float32)
	SetScissor(x, y, w, h int)
	BindPipeline(p Pipeline)
	BindDescriptorSet(index int, set DescriptorSet)
	BindVertexBuffer(buffers []Buffer, strides []int)
	BindIndexBuffer(b Buffer, t IndexType, offset int)
	Draw(vertexCount, firstVertex int)
	DrawIndexed(indexCount, firstIndex, firstVertex int)
	BeginTimestampQuery(name string)
	EndTimestampQuery()
	DrawText(text string, x, y float32, desc FontDrawDesc) (w, h float32)
	FillRect(x, y, w, h float32, c color.Color)
}

type Queue interface {
	AcquireNextImage(sc SwapChain, signal Semaphore) (int, error)
	Submit(desc SubmitDesc) error
	Present(desc PresentDesc) error
	WaitIdle()
}

// Driver is the host-facing engine: everything a Device does plus presentation,
// synchronization and command recording.
type Driver interface {
	Device

	Queue() Queue

	AddSwapChain(desc SwapChainDesc) (SwapChain, error)
	RemoveSwapChain(sc SwapChain)
	// ToggleVSync recreates the swapchain with the opposite VSync mode.
	ToggleVSync(sc SwapChain) (SwapChain, error)
	AddRenderTarget(desc RenderTargetDesc) (RenderTarget, error)
	RemoveRenderTarget(rt RenderTarget)

	AddFence() (Fence, error)
	RemoveFence(f Fence)
	FenceStatus(f Fence) FenceStatus
	WaitForFences(fences ...Fence)
	AddSemaphore() (Semaphore, error)
	RemoveSemaphore(s Semaphore)

	AddCmdPool() (CmdPool, error)
	RemoveCmdPool(p CmdPool)
	AddCmd(pool CmdPool) (Cmd, error)
	RemoveCmd(c Cmd)
	ResetCmdPool(p CmdPool)

	DefineFont(desc FontDesc) (int, error)
	// CaptureScreenshot writes the given swapchain image to name. Must run before Present.
	CaptureScreenshot(sc SwapChain, imageIndex int, name string) error

	Close() error
}
