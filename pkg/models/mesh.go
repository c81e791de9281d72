// Package models holds the indexed triangle mesh shared by the lens loader,
// the glTF exporter and the renderer.
package models

import (
	"image"

	"github.com/taigrr/anamorph/pkg/math3d"
)

// Mesh is an indexed triangle mesh. BoundsMin and BoundsMax are kept by
// UpdateBounds.
type Mesh struct {
	Name      string
	Vertices  []MeshVertex
	Faces     []Face
	Materials []Material

	BoundsMin, BoundsMax math3d.Vec3
}

type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2 // origin at the bottom-left of the image
}

// Face is a triangle. Material is -1 when the face has none.
type Face struct {
	V        [3]int
	Material int
}

// Material is the surface the anamorphic image is printed on.
type Material struct {
	Name        string
	BaseColor   [4]float64 // linear RGBA, 0-1
	BaseMap     image.Image
	DoubleSided bool
}

func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// UpdateBounds recomputes the bounding box. Vertices no face references
// are skipped, so the unused corners of failed samples do not stretch it.
// A mesh without faces is bounded by all its vertices.
func (m *Mesh) UpdateBounds() {
	first := true
	grow := func(p math3d.Vec3) {
		if first {
			m.BoundsMin, m.BoundsMax, first = p, p, false
			return
		}
		m.BoundsMin, m.BoundsMax = m.BoundsMin.Min(p), m.BoundsMax.Max(p)
	}

	if len(m.Faces) == 0 {
		for _, v := range m.Vertices {
			grow(v.Position)
		}
		return
	}
	for _, f := range m.Faces {
		for _, i := range f.V {
			grow(m.Vertices[i].Position)
		}
	}
}

func (m *Mesh) TriangleCount() int { return len(m.Faces) }

func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// CalculateSmoothNormals sets each vertex normal to the area-weighted mean
// of the face normals around it. Unreferenced vertices get a zero normal.
func (m *Mesh) CalculateSmoothNormals() {
	sums := make([]math3d.Vec3, len(m.Vertices))
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f.V[0]].Position, m.Vertices[f.V[1]].Position, m.Vertices[f.V[2]].Position
		// The cross product's length is twice the area.
		n := b.Sub(a).Cross(c.Sub(a))
		for _, i := range f.V {
			sums[i] = sums[i].Add(n)
		}
	}
	for i := range m.Vertices {
		m.Vertices[i].Normal = sums[i].Normalize()
	}
}

// Vertex returns the attributes of vertex i.
func (m *Mesh) Vertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	v := m.Vertices[i]
	return v.Position, v.Normal, v.UV
}

func (m *Mesh) Face(i int) [3]int { return m.Faces[i].V }

func (m *Mesh) Bounds() (lo, hi math3d.Vec3) { return m.BoundsMin, m.BoundsMax }
