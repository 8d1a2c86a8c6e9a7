package render

import (
	"bytes"
	"fmt"
	"io/fs"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/younwookim/lightscenes/internal/gfx"
)

type shader struct {
	handle
	name   string
	vertex *vertexProgram
	frag   *ebiten.Shader
}

// AddShader reads the vertex program and compiles the Kage fragment stage
func (d *Driver) AddShader(desc gfx.ShaderDesc) (gfx.Shader, error) {
	if len(desc.Stages) != 2 {
		return nil, fmt.Errorf("render: shader needs vertex and fragment stages, got %d", len(desc.Stages))
	}
	vertFile, fragFile := desc.Stages[0].File, desc.Stages[1].File

	src, err := fs.ReadFile(d.fsys, d.resolve(d.paths.Shaders, vertFile))
	if err != nil {
		return nil, fmt.Errorf("render: failed to read %s: %w", vertFile, err)
	}
	vp, err := parseVertexProgram(src)
	if err != nil {
		return nil, fmt.Errorf("render: %s: %w", vertFile, err)
	}

	src, err = fs.ReadFile(d.fsys, d.resolve(d.paths.Shaders, fragFile))
	if err != nil {
		return nil, fmt.Errorf("render: failed to read %s: %w", fragFile, err)
	}
	frag, err := ebiten.NewShader(src)
	if err != nil {
		return nil, fmt.Errorf("render: failed to compile %s: %w", fragFile, err)
	}

	d.log.Debugw("shader added", "vert", vertFile, "frag", fragFile)
	return &shader{handle: d.newHandle(gfx.KindShader), name: fragFile, vertex: vp, frag: frag}, nil
}

func (d *Driver) RemoveShader(s gfx.Shader) {
	if !d.release(s, gfx.KindShader) {
		return
	}
	if sh, ok := s.(*shader); ok {
		sh.frag.Deallocate()
	}
}

func (d *Driver) loadFont(name string) (*text.GoTextFaceSource, error) {
	data := goregular.TTF
	if name != "" {
		var err error
		data, err = fs.ReadFile(d.fsys, d.resolve(d.paths.Fonts, name))
		if err != nil {
			return nil, fmt.Errorf("render: failed to read font %s: %w", name, err)
		}
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("render: failed to parse font %q: %w", name, err)
	}
	return src, nil
}
