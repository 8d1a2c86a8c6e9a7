package render

import (
	"bufio"
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// vertexProgram is the vertex stage of a shader. ebiten has no programmable vertex
// stage, so the stage file declares which uniform-block matrices produce the clip and
// world positions and the driver evaluates them on the CPU:
//
//	# comment
//	clip Projection View Model
//	world Model
//
// Matrices are multiplied left to right. A missing world line means identity.
type vertexProgram struct {
	clip  []string
	world []string
}

func parseVertexProgram(src []byte) (*vertexProgram, error) {
	p := &vertexProgram{}
	sc := bufio.NewScanner(bytes.NewReader(src))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: %q needs at least one matrix", line, fields[0])
		}
		switch fields[0] {
		case "clip":
			p.clip = fields[1:]
		case "world":
			p.world = fields[1:]
		default:
			return nil, fmt.Errorf("line %d: unknown directive %q", line, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(p.clip) == 0 {
		return nil, fmt.Errorf("no clip directive")
	}
	return p, nil
}

// matrices resolves the clip and world matrices against a uniform block
func (p *vertexProgram) matrices(block any) (clip, world mgl32.Mat4, err error) {
	if clip, err = product(block, p.clip); err != nil {
		return
	}
	world, err = product(block, p.world)
	return
}

func product(block any, names []string) (mgl32.Mat4, error) {
	m := mgl32.Ident4()
	for _, n := range names {
		f, err := matField(block, n)
		if err != nil {
			return m, err
		}
		m = m.Mul4(f)
	}
	return m, nil
}

var mat4Type = reflect.TypeOf(mgl32.Mat4{})

func matField(block any, name string) (mgl32.Mat4, error) {
	v := reflect.Indirect(reflect.ValueOf(block))
	if v.Kind() != reflect.Struct {
		return mgl32.Mat4{}, fmt.Errorf("uniform block %T is not a struct", block)
	}
	f := v.FieldByName(name)
	if !f.IsValid() || f.Type() != mat4Type {
		return mgl32.Mat4{}, fmt.Errorf("uniform block %T has no mat4 %s", block, name)
	}
	return f.Interface().(mgl32.Mat4), nil
}

// kageUniforms converts the exported fields of a uniform block into Kage uniform values.
// Vectors and matrices become []float32 (matrices column major), scalars stay scalar.
func kageUniforms(block any, into map[string]any) {
	v := reflect.Indirect(reflect.ValueOf(block))
	if v.Kind() != reflect.Struct {
		return
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		f := v.Field(i)
		switch f.Kind() {
		case reflect.Array:
			if f.Type().Elem().Kind() != reflect.Float32 {
				continue
			}
			vals := make([]float32, f.Len())
			for j := range vals {
				vals[j] = float32(f.Index(j).Float())
			}
			into[sf.Name] = vals
		case reflect.Float32:
			into[sf.Name] = float32(f.Float())
		case reflect.Int32, reflect.Int:
			into[sf.Name] = int(f.Int())
		}
	}
}
