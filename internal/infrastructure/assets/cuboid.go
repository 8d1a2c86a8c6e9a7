// Package assets produces vertex data for the demo scenes: the procedural cuboid,
// meshes read from binary glTF files and decoded textures.
package assets

// CuboidVertexCount is the number of vertices Cuboid returns.
const CuboidVertexCount = 36

// CuboidStride is the byte stride of one interleaved cuboid vertex (position + normal).
const CuboidStride = 6 * 4

// cuboid faces, each two counter-clockwise triangles seen from outside
var cuboidFaces = []struct {
	normal [3]float32
	corner [4][3]float32
}{
	{[3]float32{0, 0, -1}, [4][3]float32{{-1, -1, -1}, {-1, 1, -1}, {1, 1, -1}, {1, -1, -1}}},
	{[3]float32{0, 0, 1}, [4][3]float32{{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}}},
	{[3]float32{-1, 0, 0}, [4][3]float32{{-1, -1, -1}, {-1, -1, 1}, {-1, 1, 1}, {-1, 1, -1}}},
	{[3]float32{1, 0, 0}, [4][3]float32{{1, -1, -1}, {1, 1, -1}, {1, 1, 1}, {1, -1, 1}}},
	{[3]float32{0, -1, 0}, [4][3]float32{{-1, -1, -1}, {1, -1, -1}, {1, -1, 1}, {-1, -1, 1}}},
	{[3]float32{0, 1, 0}, [4][3]float32{{-1, 1, -1}, {-1, 1, 1}, {1, 1, 1}, {1, 1, -1}}},
}

// Cuboid returns a unit cube centered at the origin (half extent 0.5) as 36 interleaved
// vertices of {x, y, z, nx, ny, nz}, ready for a non-indexed triangle list draw.
func Cuboid() []float32 {
	out := make([]float32, 0, CuboidVertexCount*6)
	for _, f := range cuboidFaces {
		for _, i := range [6]int{0, 1, 2, 2, 3, 0} {
			c := f.corner[i]
			out = append(out,
				c[0]*0.5, c[1]*0.5, c[2]*0.5,
				f.normal[0], f.normal[1], f.normal[2],
			)
		}
	}
	return out
}
