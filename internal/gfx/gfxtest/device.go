// Package gfxtest provides a recording gfx.Driver for tests.
//
// The Device keeps a call log, a ledger of live objects per kind, and a list of
// contract violations (double removal, binding resources whose upload was not awaited,
// drawing without a pipeline). Fences signaled by Submit stay incomplete until
// WaitForFences or WaitIdle, so tests can observe the host's back-pressure.
package gfxtest

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/younwookim/lightscenes/internal/gfx"
)

// Call is one recorded engine call.
type Call struct {
	Op   string
	Kind gfx.Kind
	ID   uint64
}

type handle struct {
	kind gfx.Kind
	id   uint64
}

func (h *handle) Kind() gfx.Kind { return h.kind }
func (h *handle) ID() uint64     { return h.id }

type buffer struct {
	handle
	*gfx.Mapping
	desc gfx.BufferDesc
	dev  *Device
}

func (b *buffer) Size() int { return b.desc.Size }

func (b *buffer) Update(block any) error {
	if _, ok := b.dev.live[b.id]; !ok {
		b.dev.violate(fmt.Errorf("UpdateBuffer %d: %w", b.id, gfx.ErrUnknownHandle))
		return gfx.ErrUnknownHandle
	}
	b.dev.record("UpdateBuffer", gfx.KindBuffer, b.id)
	b.dev.bufferWrites[b.id]++
	return b.Write(block)
}

type texture struct {
	handle
	w, h int
}

func (t *texture) Width() int  { return t.w }
func (t *texture) Height() int { return t.h }

type geometry struct {
	handle
	vertices []gfx.Buffer
	strides  []int
	indices  gfx.Buffer
	count    int
}

func (g *geometry) VertexBuffers() []gfx.Buffer { return g.vertices }
func (g *geometry) VertexStrides() []int        { return g.strides }
func (g *geometry) IndexBuffer() gfx.Buffer     { return g.indices }
func (g *geometry) IndexType() gfx.IndexType    { return gfx.IndexUint32 }
func (g *geometry) IndexCount() int             { return g.count }

type renderTarget struct {
	handle
	desc gfx.RenderTargetDesc
}

func (r *renderTarget) Width() int         { return r.desc.Width }
func (r *renderTarget) Height() int        { return r.desc.Height }
func (r *renderTarget) Format() gfx.Format { return r.desc.Format }
func (r *renderTarget) SampleCount() int   { return r.desc.SampleCount }

type swapChain struct {
	handle
	desc    gfx.SwapChainDesc
	targets []*renderTarget
	next    int
}

func (s *swapChain) ImageCount() int                     { return s.desc.ImageCount }
func (s *swapChain) RenderTarget(i int) gfx.RenderTarget { return s.targets[i] }
func (s *swapChain) VSync() bool                         { return s.desc.VSync }

type fence struct {
	handle
	pending bool
}

type descriptorSet struct {
	handle
	desc     gfx.DescriptorSetDesc
	bindings map[int][]string
}

// Device is a recording fake implementing gfx.Driver.
type Device struct {
	settings gfx.Settings
	nextID   uint64

	live         map[uint64]gfx.Kind
	created      map[gfx.Kind]int
	destroyed    map[gfx.Kind]int
	pending      map[uint64]bool
	bufferWrites map[uint64]int
	sets         map[uint64]*descriptorSet

	queue *queue

	// Calls is the ordered call log.
	Calls []Call
	// Violations collects contract violations observed by the device.
	Violations []error
	// Screenshots lists the names passed to CaptureScreenshot.
	Screenshots []string
	// AutoSignal makes Submit signal its fence immediately.
	AutoSignal bool
	// Fail makes the next Add of a kind return the error.
	Fail map[gfx.Kind]error
	// FontErr is returned by DefineFont when set.
	FontErr error
	// GeometryIndexCount is the index count reported by loaded geometry.
	GeometryIndexCount int

	fonts int
}

// New creates a recording device for the given surface.
func New(width, height, imageCount int) *Device {
	d := &Device{
		settings:           gfx.Settings{Width: width, Height: height, ImageCount: imageCount},
		live:               make(map[uint64]gfx.Kind),
		created:            make(map[gfx.Kind]int),
		destroyed:          make(map[gfx.Kind]int),
		pending:            make(map[uint64]bool),
		bufferWrites:       make(map[uint64]int),
		sets:               make(map[uint64]*descriptorSet),
		Fail:               make(map[gfx.Kind]error),
		GeometryIndexCount: 36,
	}
	d.queue = &queue{dev: d}
	return d
}

func (d *Device) record(op string, kind gfx.Kind, id uint64) {
	d.Calls = append(d.Calls, Call{Op: op, Kind: kind, ID: id})
}

func (d *Device) violate(err error) {
	d.Violations = append(d.Violations, err)
}

func (d *Device) add(kind gfx.Kind) (handle, error) {
	if err := d.Fail[kind]; err != nil {
		delete(d.Fail, kind)
		return handle{}, err
	}
	d.nextID++
	h := handle{kind: kind, id: d.nextID}
	d.live[h.id] = kind
	d.created[kind]++
	d.record("Add"+kind.String(), kind, h.id)
	return h, nil
}

func (d *Device) remove(h gfx.Handle, kind gfx.Kind) {
	if h == nil {
		d.violate(fmt.Errorf("Remove%s(nil): %w", kind, gfx.ErrUnknownHandle))
		return
	}
	if k, ok := d.live[h.ID()]; !ok || k != kind {
		d.violate(fmt.Errorf("Remove%s(%d): %w", kind, h.ID(), gfx.ErrUnknownHandle))
		return
	}
	delete(d.live, h.ID())
	delete(d.pending, h.ID())
	delete(d.sets, h.ID())
	d.destroyed[kind]++
	d.record("Remove"+kind.String(), kind, h.ID())
}

// Mark appends a marker to the call log, letting tests interleave their own events.
func (d *Device) Mark(op string) {
	d.record(op, -1, 0)
}

// Settings implements gfx.Device.
func (d *Device) Settings() gfx.Settings { return d.settings }

// Resize changes the reported surface size.
func (d *Device) Resize(width, height int) {
	d.settings.Width = width
	d.settings.Height = height
}

func (d *Device) AddShader(desc gfx.ShaderDesc) (gfx.Shader, error) {
	if len(desc.Stages) == 0 {
		return nil, fmt.Errorf("gfxtest: shader without stages")
	}
	h, err := d.add(gfx.KindShader)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (d *Device) RemoveShader(s gfx.Shader) { d.remove(s, gfx.KindShader) }

func (d *Device) AddRootSignature(desc gfx.RootSignatureDesc) (gfx.RootSignature, error) {
	for _, s := range desc.Shaders {
		d.requireLive("AddRootSignature", s)
	}
	for _, s := range desc.StaticSamplers {
		d.requireLive("AddRootSignature", s)
	}
	h, err := d.add(gfx.KindRootSignature)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (d *Device) RemoveRootSignature(r gfx.RootSignature) { d.remove(r, gfx.KindRootSignature) }

func (d *Device) AddPipeline(desc gfx.PipelineDesc) (gfx.Pipeline, error) {
	d.requireLive("AddPipeline", desc.Shader)
	d.requireLive("AddPipeline", desc.RootSignature)
	h, err := d.add(gfx.KindPipeline)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (d *Device) RemovePipeline(p gfx.Pipeline) { d.remove(p, gfx.KindPipeline) }

func (d *Device) AddSampler(desc gfx.SamplerDesc) (gfx.Sampler, error) {
	h, err := d.add(gfx.KindSampler)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (d *Device) RemoveSampler(s gfx.Sampler) { d.remove(s, gfx.KindSampler) }

func (d *Device) AddDescriptorSet(desc gfx.DescriptorSetDesc) (gfx.DescriptorSet, error) {
	d.requireLive("AddDescriptorSet", desc.RootSignature)
	if desc.MaxSets <= 0 {
		return nil, fmt.Errorf("gfxtest: descriptor set with %d sets", desc.MaxSets)
	}
	h, err := d.add(gfx.KindDescriptorSet)
	if err != nil {
		return nil, err
	}
	s := &descriptorSet{handle: h, desc: desc, bindings: make(map[int][]string)}
	d.sets[h.id] = s
	return s, nil
}

func (d *Device) RemoveDescriptorSet(s gfx.DescriptorSet) { d.remove(s, gfx.KindDescriptorSet) }

func (d *Device) UpdateDescriptorSet(set gfx.DescriptorSet, index int, params ...gfx.DescriptorData) error {
	if set == nil {
		d.violate(fmt.Errorf("UpdateDescriptorSet(nil): %w", gfx.ErrUnknownHandle))
		return gfx.ErrUnknownHandle
	}
	s, ok := d.sets[set.ID()]
	if !ok {
		d.violate(fmt.Errorf("UpdateDescriptorSet(%d): %w", set.ID(), gfx.ErrUnknownHandle))
		return gfx.ErrUnknownHandle
	}
	if index < 0 || index >= s.desc.MaxSets {
		err := fmt.Errorf("gfxtest: descriptor index %d out of range [0,%d)", index, s.desc.MaxSets)
		d.violate(err)
		return err
	}
	d.record("UpdateDescriptorSet", gfx.KindDescriptorSet, set.ID())

	names := make([]string, 0, len(params))
	for _, p := range params {
		for _, b := range p.Buffers {
			if err := d.checkBindable(b); err != nil {
				return err
			}
		}
		for _, t := range p.Textures {
			if err := d.checkBindable(t); err != nil {
				return err
			}
		}
		names = append(names, fmt.Sprintf("%s:%d/%d", p.Name, len(p.Buffers), len(p.Textures)))
	}
	s.bindings[index] = names
	return nil
}

func (d *Device) checkBindable(h gfx.Handle) error {
	if h == nil {
		d.violate(fmt.Errorf("bind nil resource: %w", gfx.ErrUnknownHandle))
		return gfx.ErrUnknownHandle
	}
	if _, ok := d.live[h.ID()]; !ok {
		err := fmt.Errorf("bind %s %d: %w", h.Kind(), h.ID(), gfx.ErrUnknownHandle)
		d.violate(err)
		return err
	}
	if d.pending[h.ID()] {
		err := fmt.Errorf("bind %s %d: %w", h.Kind(), h.ID(), gfx.ErrNotLoaded)
		d.violate(err)
		return err
	}
	return nil
}

func (d *Device) requireLive(op string, h gfx.Handle) {
	if h == nil {
		return
	}
	if _, ok := d.live[h.ID()]; !ok {
		d.violate(fmt.Errorf("%s uses %s %d: %w", op, h.Kind(), h.ID(), gfx.ErrUnknownHandle))
	}
}

func (d *Device) AddBuffer(desc gfx.BufferDesc) (gfx.Buffer, error) {
	if desc.Size <= 0 {
		return nil, fmt.Errorf("gfxtest: buffer of size %d", desc.Size)
	}
	h, err := d.add(gfx.KindBuffer)
	if err != nil {
		return nil, err
	}
	d.pending[h.id] = true
	return &buffer{handle: h, Mapping: gfx.NewMapping(desc.Size), desc: desc, dev: d}, nil
}

func (d *Device) AddTexture(desc gfx.TextureDesc) (gfx.Texture, error) {
	h, err := d.add(gfx.KindTexture)
	if err != nil {
		return nil, err
	}
	d.pending[h.id] = true
	return &texture{handle: h, w: 4, h: 4}, nil
}

func (d *Device) AddGeometry(desc gfx.GeometryDesc) (gfx.Geometry, error) {
	h, err := d.add(gfx.KindGeometry)
	if err != nil {
		return nil, err
	}
	d.pending[h.id] = true
	// Geometry owns its buffers; they are not tracked as separate resources.
	vb := &buffer{handle: handle{kind: gfx.KindBuffer}, desc: gfx.BufferDesc{Usage: gfx.UsageVertex, Size: 32}, dev: d}
	ib := &buffer{handle: handle{kind: gfx.KindBuffer}, desc: gfx.BufferDesc{Usage: gfx.UsageIndex, Size: 4}, dev: d}
	return &geometry{
		handle:   h,
		vertices: []gfx.Buffer{vb},
		strides:  []int{32},
		indices:  ib,
		count:    d.GeometryIndexCount,
	}, nil
}

func (d *Device) RemoveResource(r gfx.Resource) {
	if r == nil {
		d.violate(fmt.Errorf("RemoveResource(nil): %w", gfx.ErrUnknownHandle))
		return
	}
	d.remove(r, r.Kind())
}

func (d *Device) WaitForAllResourceLoads() error {
	d.record("WaitForAllResourceLoads", -1, 0)
	for id := range d.pending {
		delete(d.pending, id)
	}
	return nil
}

func (d *Device) Queue() gfx.Queue { return d.queue }

func (d *Device) AddSwapChain(desc gfx.SwapChainDesc) (gfx.SwapChain, error) {
	h, err := d.add(gfx.KindSwapChain)
	if err != nil {
		return nil, err
	}
	sc := &swapChain{handle: h, desc: desc}
	for i := 0; i < desc.ImageCount; i++ {
		d.nextID++
		sc.targets = append(sc.targets, &renderTarget{
			handle: handle{kind: gfx.KindRenderTarget, id: d.nextID},
			desc: gfx.RenderTargetDesc{
				Width:       desc.Width,
				Height:      desc.Height,
				Format:      desc.ColorFormat,
				SampleCount: 1,
			},
		})
	}
	return sc, nil
}

func (d *Device) RemoveSwapChain(sc gfx.SwapChain) { d.remove(sc, gfx.KindSwapChain) }

func (d *Device) ToggleVSync(sc gfx.SwapChain) (gfx.SwapChain, error) {
	old, ok := sc.(*swapChain)
	if !ok {
		return nil, gfx.ErrUnknownHandle
	}
	d.record("ToggleVSync", gfx.KindSwapChain, sc.ID())
	desc := old.desc
	desc.VSync = !desc.VSync
	d.RemoveSwapChain(sc)
	return d.AddSwapChain(desc)
}

func (d *Device) AddRenderTarget(desc gfx.RenderTargetDesc) (gfx.RenderTarget, error) {
	h, err := d.add(gfx.KindRenderTarget)
	if err != nil {
		return nil, err
	}
	return &renderTarget{handle: h, desc: desc}, nil
}

func (d *Device) RemoveRenderTarget(rt gfx.RenderTarget) { d.remove(rt, gfx.KindRenderTarget) }

func (d *Device) AddFence() (gfx.Fence, error) {
	h, err := d.add(gfx.KindFence)
	if err != nil {
		return nil, err
	}
	return &fence{handle: h}, nil
}

func (d *Device) RemoveFence(f gfx.Fence) { d.remove(f, gfx.KindFence) }

func (d *Device) FenceStatus(f gfx.Fence) gfx.FenceStatus {
	d.record("FenceStatus", gfx.KindFence, f.ID())
	if ff, ok := f.(*fence); ok && ff.pending {
		return gfx.FenceIncomplete
	}
	return gfx.FenceComplete
}

func (d *Device) WaitForFences(fences ...gfx.Fence) {
	for _, f := range fences {
		d.record("WaitForFences", gfx.KindFence, f.ID())
		if ff, ok := f.(*fence); ok {
			ff.pending = false
		}
	}
}

// SignalAll completes every outstanding fence, as if the GPU caught up.
func (d *Device) SignalAll() {
	for _, f := range d.queue.inFlight {
		f.pending = false
	}
	d.queue.inFlight = nil
}

func (d *Device) AddSemaphore() (gfx.Semaphore, error) {
	h, err := d.add(gfx.KindSemaphore)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (d *Device) RemoveSemaphore(s gfx.Semaphore) { d.remove(s, gfx.KindSemaphore) }

func (d *Device) AddCmdPool() (gfx.CmdPool, error) {
	h, err := d.add(gfx.KindCmdPool)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (d *Device) RemoveCmdPool(p gfx.CmdPool) { d.remove(p, gfx.KindCmdPool) }

func (d *Device) AddCmd(pool gfx.CmdPool) (gfx.Cmd, error) {
	d.requireLive("AddCmd", pool)
	h, err := d.add(gfx.KindCmd)
	if err != nil {
		return nil, err
	}
	return &Cmd{handle: h, dev: d}, nil
}

func (d *Device) RemoveCmd(c gfx.Cmd) { d.remove(c, gfx.KindCmd) }

func (d *Device) ResetCmdPool(p gfx.CmdPool) {
	d.record("ResetCmdPool", gfx.KindCmdPool, p.ID())
}

func (d *Device) DefineFont(desc gfx.FontDesc) (int, error) {
	if d.FontErr != nil {
		return 0, d.FontErr
	}
	d.record("DefineFont", -1, 0)
	id := d.fonts
	d.fonts++
	return id, nil
}

func (d *Device) CaptureScreenshot(sc gfx.SwapChain, imageIndex int, name string) error {
	d.record("CaptureScreenshot", gfx.KindSwapChain, sc.ID())
	d.Screenshots = append(d.Screenshots, name)
	return nil
}

// ErrLeaked is returned by Close while objects are still live
var ErrLeaked = errors.New("gfxtest: objects leaked")

// Close fails with ErrLeaked, naming the live counts per kind, unless every object
// was removed.
func (d *Device) Close() error {
	d.record("Close", -1, 0)
	if d.LiveCount() == 0 {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrLeaked, d.Live())
}

// Live returns the number of live objects per kind.
func (d *Device) Live() map[gfx.Kind]int {
	out := make(map[gfx.Kind]int)
	for _, k := range d.live {
		out[k]++
	}
	return out
}

// LiveCount returns the total number of live objects.
func (d *Device) LiveCount() int { return len(d.live) }

// Created returns how many objects of kind were created.
func (d *Device) Created(kind gfx.Kind) int { return d.created[kind] }

// Destroyed returns how many objects of kind were removed.
func (d *Device) Destroyed(kind gfx.Kind) int { return d.destroyed[kind] }

// Pending reports whether any resource upload is still outstanding.
func (d *Device) Pending() bool { return len(d.pending) > 0 }

// BufferWrites returns how many times the buffer was updated.
func (d *Device) BufferWrites(b gfx.Buffer) int { return d.bufferWrites[b.ID()] }

// Ops returns the op names of the call log.
func (d *Device) Ops() []string {
	ops := make([]string, len(d.Calls))
	for i, c := range d.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was recorded.
func (d *Device) Count(op string) int {
	n := 0
	for _, c := range d.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Index returns the position of the n-th (0-based) occurrence of op after from, or -1.
func (d *Device) Index(op string, from int) int {
	for i := from; i < len(d.Calls); i++ {
		if d.Calls[i].Op == op {
			return i
		}
	}
	return -1
}

// Reset clears the call log but keeps the ledger.
func (d *Device) Reset() {
	d.Calls = nil
}

// Snapshot describes the live object set independent of handle identity.
type Snapshot struct {
	Live     map[gfx.Kind]int
	Bindings []string
}

// Snapshot captures live counts and the descriptor bindings of every live set.
func (d *Device) Snapshot() Snapshot {
	ids := make([]uint64, 0, len(d.sets))
	for id := range d.sets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var bindings []string
	for n, id := range ids {
		s := d.sets[id]
		idx := make([]int, 0, len(s.bindings))
		for i := range s.bindings {
			idx = append(idx, i)
		}
		sort.Ints(idx)
		for _, i := range idx {
			bindings = append(bindings, fmt.Sprintf("set%d[%d]=%s", n, i, strings.Join(s.bindings[i], ",")))
		}
	}
	return Snapshot{Live: d.Live(), Bindings: bindings}
}

type queue struct {
	dev      *Device
	inFlight []*fence
}

func (q *queue) AcquireNextImage(sc gfx.SwapChain, signal gfx.Semaphore) (int, error) {
	s, ok := sc.(*swapChain)
	if !ok {
		return 0, gfx.ErrUnknownHandle
	}
	q.dev.record("AcquireNextImage", gfx.KindSwapChain, sc.ID())
	idx := s.next
	s.next = (s.next + 1) % s.desc.ImageCount
	return idx, nil
}

func (q *queue) Submit(desc gfx.SubmitDesc) error {
	q.dev.record("Submit", -1, 0)
	for _, c := range desc.Cmds {
		if cc, ok := c.(*Cmd); ok && cc.recording {
			q.dev.violate(fmt.Errorf("submit of cmd %d still recording", c.ID()))
		}
	}
	if f, ok := desc.SignalFence.(*fence); ok && !q.dev.AutoSignal {
		f.pending = true
		q.inFlight = append(q.inFlight, f)
	}
	return nil
}

func (q *queue) Present(desc gfx.PresentDesc) error {
	q.dev.record("Present", -1, 0)
	return nil
}

func (q *queue) WaitIdle() {
	q.dev.record("WaitIdle", -1, 0)
	q.dev.SignalAll()
}

// Cmd is the recording command buffer handed out by Device.AddCmd.
type Cmd struct {
	handle
	dev       *Device
	recording bool
	pipeline  bool
	// Draws counts draw calls recorded since creation.
	Draws int
}

func (c *Cmd) op(name string) {
	c.dev.record("cmd."+name, gfx.KindCmd, c.id)
	if !c.recording && name != "Begin" {
		c.dev.violate(fmt.Errorf("cmd.%s outside Begin/End", name))
	}
}

func (c *Cmd) Begin() {
	c.op("Begin")
	c.recording = true
	c.pipeline = false
}

func (c *Cmd) End() {
	c.op("End")
	c.recording = false
}

func (c *Cmd) ResourceBarrier(rt gfx.RenderTarget, from, to gfx.ResourceState) {
	c.op("ResourceBarrier")
}

func (c *Cmd) BindRenderTargets(colors []gfx.RenderTarget, depth gfx.RenderTarget, load *gfx.LoadActions) {
	c.op("BindRenderTargets")
}

func (c *Cmd) SetViewport(x, y, w, h, minDepth, maxDepth float32) { c.op("SetViewport") }
func (c *Cmd) SetScissor(x, y, w, h int)                          { c.op("SetScissor") }

func (c *Cmd) BindPipeline(p gfx.Pipeline) {
	c.op("BindPipeline")
	c.dev.requireLive("cmd.BindPipeline", p)
	c.pipeline = true
}

func (c *Cmd) BindDescriptorSet(index int, set gfx.DescriptorSet) {
	c.op("BindDescriptorSet")
	c.dev.requireLive("cmd.BindDescriptorSet", set)
	if s, ok := c.dev.sets[set.ID()]; ok && index >= s.desc.MaxSets {
		c.dev.violate(fmt.Errorf("cmd.BindDescriptorSet index %d out of range", index))
	}
}

func (c *Cmd) BindVertexBuffer(buffers []gfx.Buffer, strides []int) {
	c.op("BindVertexBuffer")
	if len(buffers) != len(strides) {
		c.dev.violate(fmt.Errorf("cmd.BindVertexBuffer: %d buffers, %d strides", len(buffers), len(strides)))
	}
}

func (c *Cmd) BindIndexBuffer(b gfx.Buffer, t gfx.IndexType, offset int) { c.op("BindIndexBuffer") }

func (c *Cmd) Draw(vertexCount, firstVertex int) {
	c.op("Draw")
	c.draw()
}

func (c *Cmd) DrawIndexed(indexCount, firstIndex, firstVertex int) {
	c.op("DrawIndexed")
	c.draw()
}

func (c *Cmd) draw() {
	if !c.pipeline {
		c.dev.violate(fmt.Errorf("draw without bound pipeline"))
	}
	c.Draws++
}

func (c *Cmd) BeginTimestampQuery(name string) { c.op("BeginTimestampQuery") }
func (c *Cmd) EndTimestampQuery()              { c.op("EndTimestampQuery") }

func (c *Cmd) DrawText(text string, x, y float32, desc gfx.FontDrawDesc) (float32, float32) {
	c.op("DrawText")
	return float32(len(text)) * desc.Size * 0.5, desc.Size
}

func (c *Cmd) FillRect(x, y, w, h float32, col color.Color) { c.op("FillRect") }
