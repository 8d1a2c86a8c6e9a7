// Package render implements gfx.Driver on top of ebiten.
//
// Fragment stages are Kage programs drawn with DrawTrianglesShader; vertex stages
// run on the CPU (see vertexProgram). ebiten has no depth buffer, so pipelines with
// depth testing draw their triangles back to front. Submission is synchronous:
// commands execute as they are recorded and fences signal when Submit returns.
package render

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/sync/errgroup"

	"github.com/younwookim/lightscenes/internal/gfx"
	"github.com/younwookim/lightscenes/internal/infrastructure/config"
	"github.com/younwookim/lightscenes/internal/infrastructure/log"
)

// ErrLeaked is returned by Close when objects were never removed
var ErrLeaked = errors.New("render: objects leaked")

// loadLimit bounds concurrent texture and mesh decodes
const loadLimit = 4

// Options configures the Driver
type Options struct {
	// FS holds shaders, textures, meshes and fonts under Paths
	FS    fs.FS
	Paths config.PathsConfig
	Log   *log.Logger
	// ScreenshotDir is where CaptureScreenshot writes PNG files
	ScreenshotDir string
	// Settings is reported by Settings until the first swapchain exists.
	// Scenes size their per-frame descriptor sets from it during Init.
	Settings gfx.Settings
}

// Driver is an ebiten-backed gfx.Driver. Apart from resource decoding it must be
// used from the goroutine running the ebiten game loop.
type Driver struct {
	fsys  fs.FS
	paths config.PathsConfig
	log   *log.Logger
	shots string

	settings gfx.Settings
	nextID   atomic.Uint64
	live     map[uint64]gfx.Kind

	loads   *errgroup.Group
	pending []pendingLoad

	fonts  []*text.GoTextFaceSource
	screen *ebiten.Image
	queue  *queue
	// timings holds the duration of the latest timestamp query per name
	timings map[string]float64
}

var _ gfx.Driver = (*Driver)(nil)

// New creates a driver reading assets from opts.FS
func New(opts Options) *Driver {
	d := &Driver{
		fsys:     opts.FS,
		paths:    opts.Paths,
		log:      opts.Log,
		shots:    opts.ScreenshotDir,
		settings: opts.Settings,
		live:     make(map[uint64]gfx.Kind),
		timings:  make(map[string]float64),
	}
	if d.log == nil {
		d.log = log.NewNop()
	}
	d.resetLoads()
	d.queue = &queue{drv: d}
	return d
}

func (d *Driver) resetLoads() {
	d.loads = new(errgroup.Group)
	d.loads.SetLimit(loadLimit)
}

type handle struct {
	kind gfx.Kind
	id   uint64
}

func (h *handle) Kind() gfx.Kind { return h.kind }
func (h *handle) ID() uint64     { return h.id }

func (d *Driver) newHandle(kind gfx.Kind) handle {
	h := handle{kind: kind, id: d.nextID.Add(1)}
	d.live[h.id] = kind
	return h
}

// release forgets h and reports whether it was live
func (d *Driver) release(h gfx.Handle, kind gfx.Kind) bool {
	if h == nil {
		return false
	}
	if k, ok := d.live[h.ID()]; !ok || k != kind {
		d.log.Warnw("remove of unknown handle", "kind", kind.String(), "id", h.ID())
		return false
	}
	delete(d.live, h.ID())
	return true
}

func (d *Driver) resolve(dir, name string) string {
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}

// Settings reports the surface of the current swapchain, or Options.Settings before one exists
func (d *Driver) Settings() gfx.Settings { return d.settings }

// SetScreen sets the image Present blits into. The game loop calls it once per Draw.
func (d *Driver) SetScreen(screen *ebiten.Image) { d.screen = screen }

// Timings returns the latest timestamp query durations in milliseconds
func (d *Driver) Timings() map[string]float64 { return d.timings }

type rootSignature struct {
	handle
	samplers map[string]gfx.Sampler
}

func (d *Driver) AddRootSignature(desc gfx.RootSignatureDesc) (gfx.RootSignature, error) {
	if len(desc.Shaders) == 0 {
		return nil, errors.New("render: root signature without shaders")
	}
	return &rootSignature{handle: d.newHandle(gfx.KindRootSignature), samplers: desc.StaticSamplers}, nil
}

func (d *Driver) RemoveRootSignature(r gfx.RootSignature) { d.release(r, gfx.KindRootSignature) }

type pipeline struct {
	handle
	desc gfx.PipelineDesc
}

func (d *Driver) AddPipeline(desc gfx.PipelineDesc) (gfx.Pipeline, error) {
	if _, ok := desc.Shader.(*shader); !ok {
		return nil, fmt.Errorf("render: pipeline shader %T: %w", desc.Shader, gfx.ErrUnknownHandle)
	}
	if desc.Topology != gfx.TopologyTriList {
		return nil, fmt.Errorf("render: unsupported topology %d", desc.Topology)
	}
	return &pipeline{handle: d.newHandle(gfx.KindPipeline), desc: desc}, nil
}

func (d *Driver) RemovePipeline(p gfx.Pipeline) { d.release(p, gfx.KindPipeline) }

// sampler is accepted for API parity. Kage programs sample through imageSrc0At,
// which reads texels directly and treats reads outside the image as transparent.
type sampler struct {
	handle
	desc gfx.SamplerDesc
}

func (d *Driver) AddSampler(desc gfx.SamplerDesc) (gfx.Sampler, error) {
	return &sampler{handle: d.newHandle(gfx.KindSampler), desc: desc}, nil
}

func (d *Driver) RemoveSampler(s gfx.Sampler) { d.release(s, gfx.KindSampler) }

type descriptorSet struct {
	handle
	desc  gfx.DescriptorSetDesc
	slots [][]gfx.DescriptorData
}

func (d *Driver) AddDescriptorSet(desc gfx.DescriptorSetDesc) (gfx.DescriptorSet, error) {
	if desc.MaxSets <= 0 {
		return nil, fmt.Errorf("render: descriptor set with %d sets", desc.MaxSets)
	}
	return &descriptorSet{
		handle: d.newHandle(gfx.KindDescriptorSet),
		desc:   desc,
		slots:  make([][]gfx.DescriptorData, desc.MaxSets),
	}, nil
}

func (d *Driver) RemoveDescriptorSet(s gfx.DescriptorSet) { d.release(s, gfx.KindDescriptorSet) }

func (d *Driver) UpdateDescriptorSet(set gfx.DescriptorSet, index int, params ...gfx.DescriptorData) error {
	s, ok := set.(*descriptorSet)
	if !ok || d.live[s.id] != gfx.KindDescriptorSet {
		return gfx.ErrUnknownHandle
	}
	if index < 0 || index >= len(s.slots) {
		return fmt.Errorf("render: descriptor index %d out of range [0,%d)", index, len(s.slots))
	}
	for _, p := range params {
		for _, b := range p.Buffers {
			if err := d.bindable(b); err != nil {
				return fmt.Errorf("bind %s: %w", p.Name, err)
			}
		}
		for _, t := range p.Textures {
			if err := d.bindable(t); err != nil {
				return fmt.Errorf("bind %s: %w", p.Name, err)
			}
		}
	}
	s.slots[index] = append([]gfx.DescriptorData(nil), params...)
	return nil
}

func (d *Driver) bindable(r gfx.Resource) error {
	if r == nil {
		return gfx.ErrUnknownHandle
	}
	if _, ok := d.live[r.ID()]; !ok {
		return gfx.ErrUnknownHandle
	}
	if p, ok := r.(interface{ loading() bool }); ok && p.loading() {
		return gfx.ErrNotLoaded
	}
	return nil
}

// DefineFont loads a TrueType font from the font directory. An empty path selects
// Go Regular.
func (d *Driver) DefineFont(desc gfx.FontDesc) (int, error) {
	src, err := d.loadFont(desc.Path)
	if err != nil {
		return 0, err
	}
	d.fonts = append(d.fonts, src)
	return len(d.fonts) - 1, nil
}

func (d *Driver) face(desc gfx.FontDrawDesc) *text.GoTextFace {
	if desc.FontID < 0 || desc.FontID >= len(d.fonts) {
		return nil
	}
	return &text.GoTextFace{Source: d.fonts[desc.FontID], Size: float64(desc.Size)}
}

// Close reports objects that were never removed
func (d *Driver) Close() error {
	if err := d.loads.Wait(); err != nil {
		d.log.Warnw("resource load failed during close", "error", err)
	}
	if len(d.live) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, k := range d.live {
		counts[k.String()]++
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	d.log.Warnw("objects leaked", "counts", counts)
	return fmt.Errorf("%w: %v", ErrLeaked, kinds)
}
