package assets

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/younwookim/lightscenes/internal/gfx"
)

// ErrNoPosition is returned for primitives without a POSITION attribute
var ErrNoPosition = errors.New("primitive has no POSITION attribute")

// Primitive is one indexed triangle list of a mesh
type Primitive struct {
	Positions [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Indices   []uint32
}

// ReadGLB decodes a binary glTF stream and returns every triangle primitive it holds,
// in mesh order.
func ReadGLB(r io.Reader) ([]Primitive, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode glTF: %w", err)
	}

	var prims []Primitive
	for mi, mesh := range doc.Meshes {
		for pi, p := range mesh.Primitives {
			if p.Mode != gltf.PrimitiveTriangles {
				continue
			}
			prim, err := readPrimitive(doc, p)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			prims = append(prims, prim)
		}
	}
	return prims, nil
}

// LoadGLB opens name in fsys and reads it with ReadGLB
func LoadGLB(fsys fs.FS, name string) ([]Primitive, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	prims, err := ReadGLB(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return prims, nil
}

func readPrimitive(doc *gltf.Document, p *gltf.Primitive) (Primitive, error) {
	var prim Primitive

	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return prim, ErrNoPosition
	}
	pos, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return prim, fmt.Errorf("position: %w", err)
	}
	prim.Positions = pos

	if idx, ok := p.Attributes[gltf.NORMAL]; ok {
		n, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return prim, fmt.Errorf("normal: %w", err)
		}
		prim.Normals = n
	}
	if idx, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		uv, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return prim, fmt.Errorf("texcoord: %w", err)
		}
		prim.UVs = uv
	}

	if p.Indices != nil {
		ind, err := modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil)
		if err != nil {
			return prim, fmt.Errorf("indices: %w", err)
		}
		prim.Indices = ind
	} else {
		prim.Indices = make([]uint32, len(pos))
		for i := range prim.Indices {
			prim.Indices[i] = uint32(i)
		}
	}

	return prim, nil
}

// Interleave packs the primitive's attributes into one float stream following layout.
// Attributes the primitive lacks are zero filled. It returns the data and the stride in bytes.
func (p Primitive) Interleave(layout gfx.VertexLayout) ([]float32, int) {
	floats := 0
	for _, a := range layout.Attribs {
		if end := a.Offset/4 + a.Format.Components(); end > floats {
			floats = end
		}
	}

	out := make([]float32, floats*len(p.Positions))
	for v := range p.Positions {
		base := v * floats
		for _, a := range layout.Attribs {
			dst := out[base+a.Offset/4:]
			switch a.Semantic {
			case gfx.SemanticPosition:
				copy(dst[:3], p.Positions[v][:])
			case gfx.SemanticNormal:
				if v < len(p.Normals) {
					copy(dst[:3], p.Normals[v][:])
				}
			case gfx.SemanticTexCoord0:
				if v < len(p.UVs) {
					copy(dst[:2], p.UVs[v][:])
				}
			}
		}
	}
	return out, floats * 4
}
