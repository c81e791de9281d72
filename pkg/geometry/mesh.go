package geometry

import (
	"math"

	"github.com/taigrr/anamorph/pkg/math3d"
	"github.com/taigrr/anamorph/pkg/models"
)

// TriangleMesh is a surface made of triangles, used for lenses loaded from
// glTF files. Normals are reported facing the ray, which for a closed mesh hit
// from outside is the outward normal.
type TriangleMesh struct {
	Positions []math3d.Vec3
	Faces     [][3]int
	bounds    AABB
}

// NewTriangleMesh creates a mesh surface. Faces index into positions.
func NewTriangleMesh(positions []math3d.Vec3, faces [][3]int) *TriangleMesh {
	return &TriangleMesh{
		Positions: positions,
		Faces:     faces,
		bounds:    AABBFromPoints(positions...),
	}
}

// MeshSurface turns a loaded model into a ray-queryable surface.
func MeshSurface(m *models.Mesh) *TriangleMesh {
	positions := make([]math3d.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		positions[i] = v.Position
	}
	faces := make([][3]int, len(m.Faces))
	for i, f := range m.Faces {
		faces[i] = f.V
	}
	return NewTriangleMesh(positions, faces)
}

// Raycast implements Surface.
func (m *TriangleMesh) Raycast(r Ray) (Hit, bool) {
	if !m.bounds.HitsRay(r) {
		return Hit{}, false
	}

	best := Hit{T: math.Inf(1)}
	found := false
	for _, f := range m.Faces {
		v0, v1, v2 := m.Positions[f[0]], m.Positions[f[1]], m.Positions[f[2]]
		t, ok := intersectTriangle(r, v0, v1, v2)
		if !ok || t >= best.T {
			continue
		}
		n := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
		best = Hit{Point: r.At(t), Normal: facing(n, r.Direction), T: t}
		found = true
	}
	return best, found
}

// Bounds implements Bounded.
func (m *TriangleMesh) Bounds() AABB {
	return m.bounds
}

// intersectTriangle is the Möller-Trumbore ray/triangle test.
func intersectTriangle(r Ray, v0, v1, v2 math3d.Vec3) (float64, bool) {
	const eps = 1e-12

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := r.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -eps && a < eps {
		return 0, false
	}

	f := 1 / a
	s := r.Origin.Sub(v0)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := f * r.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := f * edge2.Dot(q)
	if t <= Epsilon {
		return 0, false
	}
	return t, true
}
