package render

import (
	"github.com/taigrr/anamorph/pkg/geometry"
	"github.com/taigrr/anamorph/pkg/math3d"
)

// Plane is the set of points p with Normal·p + D = 0.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Distance is the signed distance of p, positive on the Normal side when
// the normal has unit length.
func (pl Plane) Distance(p math3d.Vec3) float64 {
	return pl.Normal.Dot(p) + pl.D
}

// Normalized rescales the equation to a unit normal. A zero normal is left
// alone.
func (pl Plane) Normalized() Plane {
	l := pl.Normal.Len()
	if l == 0 {
		return pl
	}
	return Plane{Normal: pl.Normal.Scale(1 / l), D: pl.D / l}
}

// Frustum is a view volume bounded by six planes with inward normals, in
// the order left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts the planes of a view-projection matrix with
// the Gribb-Hartmann method. Perspective and orthographic both work.
func FrustumFromMatrix(m math3d.Mat4) Frustum {
	// Row i of the column-major matrix.
	row := func(i int) Plane {
		return Plane{Normal: math3d.V3(m[i], m[i+4], m[i+8]), D: m[i+12]}
	}
	w := row(3)

	var f Frustum
	for axis := range 3 {
		r := row(axis)
		f.Planes[2*axis] = Plane{Normal: w.Normal.Add(r.Normal), D: w.D + r.D}.Normalized()
		f.Planes[2*axis+1] = Plane{Normal: w.Normal.Sub(r.Normal), D: w.D - r.D}.Normalized()
	}
	return f
}

// Frustum returns the camera's current view volume.
func (c *Camera) Frustum() Frustum {
	return FrustumFromMatrix(c.ViewProjectionMatrix())
}

// Intersects reports whether box may overlap the volume. It tests the box
// corner furthest along each plane normal, so boxes near the edges can pass
// without overlapping.
func (f Frustum) Intersects(box geometry.AABB) bool {
	if box.IsEmpty() {
		return false
	}
	for _, pl := range f.Planes {
		far := box.Min
		if pl.Normal.X >= 0 {
			far.X = box.Max.X
		}
		if pl.Normal.Y >= 0 {
			far.Y = box.Max.Y
		}
		if pl.Normal.Z >= 0 {
			far.Z = box.Max.Z
		}
		if pl.Distance(far) < 0 {
			return false
		}
	}
	return true
}

func (f Frustum) Contains(p math3d.Vec3) bool {
	for _, pl := range f.Planes {
		if pl.Distance(p) < 0 {
			return false
		}
	}
	return true
}
