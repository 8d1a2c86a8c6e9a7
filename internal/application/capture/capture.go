// Package capture records the command stream of a single frame and writes it to JSON.
package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/younwookim/lightscenes/internal/gfx"
)

// ErrNotCapturing is returned by End when no capture is in progress
var ErrNotCapturing = errors.New("no frame capture in progress")

// Command is one recorded call
type Command struct {
	Op   string         `json:"op"`
	Args map[string]any `json:"args,omitempty"`
}

// Frame is a captured frame
type Frame struct {
	Number     int       `json:"frame"`
	ImageIndex int       `json:"imageIndex"`
	Commands   []Command `json:"commands"`
}

// Capturer captures one frame at a time
type Capturer struct {
	dir    string
	active *Frame
	last   *Frame
}

// New creates a capturer writing into dir
func New(dir string) *Capturer {
	return &Capturer{dir: dir}
}

// Start begins capturing frame number n rendering into the given swapchain image
func (c *Capturer) Start(n, imageIndex int) {
	c.active = &Frame{Number: n, ImageIndex: imageIndex}
}

// Active reports whether a capture is in progress
func (c *Capturer) Active() bool {
	return c.active != nil
}

// Last returns the most recently finished capture
func (c *Capturer) Last() *Frame {
	return c.last
}

// Wrap returns cmd recording into the active capture, or cmd itself when idle
func (c *Capturer) Wrap(cmd gfx.Cmd) gfx.Cmd {
	if c.active == nil {
		return cmd
	}
	return &capturedCmd{Cmd: cmd, frame: c.active}
}

// End finishes the capture and writes it to <dir>/frame-<n>.json
func (c *Capturer) End() (string, error) {
	if c.active == nil {
		return "", ErrNotCapturing
	}
	f := c.active
	c.active = nil
	c.last = f

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", c.dir, err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode capture: %w", err)
	}
	path := filepath.Join(c.dir, fmt.Sprintf("frame-%d.json", f.Number))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

type capturedCmd struct {
	gfx.Cmd
	frame *Frame
}

func (c *capturedCmd) add(op string, args map[string]any) {
	c.frame.Commands = append(c.frame.Commands, Command{Op: op, Args: args})
}

func id(h gfx.Handle) any {
	if h == nil {
		return nil
	}
	return h.ID()
}

func (c *capturedCmd) Begin() {
	c.add("Begin", nil)
	c.Cmd.Begin()
}

func (c *capturedCmd) End() {
	c.add("End", nil)
	c.Cmd.End()
}

func (c *capturedCmd) ResourceBarrier(rt gfx.RenderTarget, from, to gfx.ResourceState) {
	c.add("ResourceBarrier", map[string]any{"target": id(rt), "from": from, "to": to})
	c.Cmd.ResourceBarrier(rt, from, to)
}

func (c *capturedCmd) BindRenderTargets(colors []gfx.RenderTarget, depth gfx.RenderTarget, load *gfx.LoadActions) {
	ids := make([]any, len(colors))
	for i, rt := range colors {
		ids[i] = id(rt)
	}
	args := map[string]any{"colors": ids}
	if depth != nil {
		args["depth"] = depth.ID()
	}
	if load != nil {
		args["loadColor"] = load.Color
		args["loadDepth"] = load.Depth
	}
	c.add("BindRenderTargets", args)
	c.Cmd.BindRenderTargets(colors, depth, load)
}

func (c *capturedCmd) SetViewport(x, y, w, h, minDepth, maxDepth float32) {
	c.add("SetViewport", map[string]any{"rect": []float32{x, y, w, h}, "depth": []float32{minDepth, maxDepth}})
	c.Cmd.SetViewport(x, y, w, h, minDepth, maxDepth)
}

func (c *capturedCmd) SetScissor(x, y, w, h int) {
	c.add("SetScissor", map[string]any{"rect": []int{x, y, w, h}})
	c.Cmd.SetScissor(x, y, w, h)
}

func (c *capturedCmd) BindPipeline(p gfx.Pipeline) {
	c.add("BindPipeline", map[string]any{"pipeline": id(p)})
	c.Cmd.BindPipeline(p)
}

func (c *capturedCmd) BindDescriptorSet(index int, set gfx.DescriptorSet) {
	c.add("BindDescriptorSet", map[string]any{"index": index, "set": id(set)})
	c.Cmd.BindDescriptorSet(index, set)
}

func (c *capturedCmd) BindVertexBuffer(buffers []gfx.Buffer, strides []int) {
	ids := make([]any, len(buffers))
	for i, b := range buffers {
		ids[i] = id(b)
	}
	c.add("BindVertexBuffer", map[string]any{"buffers": ids, "strides": strides})
	c.Cmd.BindVertexBuffer(buffers, strides)
}

func (c *capturedCmd) BindIndexBuffer(b gfx.Buffer, t gfx.IndexType, offset int) {
	c.add("BindIndexBuffer", map[string]any{"buffer": id(b), "type": t, "offset": offset})
	c.Cmd.BindIndexBuffer(b, t, offset)
}

func (c *capturedCmd) Draw(vertexCount, firstVertex int) {
	c.add("Draw", map[string]any{"vertexCount": vertexCount, "firstVertex": firstVertex})
	c.Cmd.Draw(vertexCount, firstVertex)
}

func (c *capturedCmd) DrawIndexed(indexCount, firstIndex, firstVertex int) {
	c.add("DrawIndexed", map[string]any{"indexCount": indexCount, "firstIndex": firstIndex, "firstVertex": firstVertex})
	c.Cmd.DrawIndexed(indexCount, firstIndex, firstVertex)
}

func (c *capturedCmd) BeginTimestampQuery(name string) {
	c.add("BeginTimestampQuery", map[string]any{"name": name})
	c.Cmd.BeginTimestampQuery(name)
}

func (c *capturedCmd) EndTimestampQuery() {
	c.add("EndTimestampQuery", nil)
	c.Cmd.EndTimestampQuery()
}

func (c *capturedCmd) DrawText(text string, x, y float32, desc gfx.FontDrawDesc) (float32, float32) {
	c.add("DrawText", map[string]any{"text": text, "pos": []float32{x, y}})
	return c.Cmd.DrawText(text, x, y, desc)
}

func (c *capturedCmd) FillRect(x, y, w, h float32, col color.Color) {
	c.add("FillRect", map[string]any{"rect": []float32{x, y, w, h}})
	c.Cmd.FillRect(x, y, w, h, col)
}
