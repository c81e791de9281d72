package geometry

import (
	"math"

	"github.com/taigrr/anamorph/pkg/math3d"
)

// Plane is an infinite two-sided plane.
type Plane struct {
	Point  math3d.Vec3
	Normal math3d.Vec3
}

// NewPlane creates a plane through point with the given normal.
func NewPlane(point, normal math3d.Vec3) *Plane {
	return &Plane{Point: point, Normal: normal.Normalize()}
}

// Raycast implements Surface. The reported normal faces the ray.
func (p *Plane) Raycast(r Ray) (Hit, bool) {
	t, ok := planeT(p.Point, p.Normal, r)
	if !ok {
		return Hit{}, false
	}
	return Hit{Point: r.At(t), Normal: facing(p.Normal, r.Direction), T: t}, true
}

func planeT(point, normal math3d.Vec3, r Ray) (float64, bool) {
	denom := normal.Dot(r.Direction)
	if math.Abs(denom) < 1e-12 {
		return 0, false
	}
	t := point.Sub(r.Origin).Dot(normal) / denom
	if t <= Epsilon {
		return 0, false
	}
	return t, true
}

// Rect is a bounded two-sided rectangle, used for the flat target screen.
// U is the unit width direction; the height direction is Normal × U.
type Rect struct {
	Center math3d.Vec3
	Normal math3d.Vec3
	U      math3d.Vec3
	Width  float64
	Height float64
}

// NewRect creates a rectangle. u is projected onto the plane and normalized.
func NewRect(center, normal, u math3d.Vec3, width, height float64) *Rect {
	n := normal.Normalize()
	u = u.Sub(n.Scale(u.Dot(n))).Normalize()
	return &Rect{Center: center, Normal: n, U: u, Width: width, Height: height}
}

// NewScreenRect creates a rectangle facing -Z at depth z, centered on the Z
// axis, width along X and height along Y.
func NewScreenRect(z, width, height float64) *Rect {
	return NewRect(math3d.V3(0, 0, z), math3d.V3(0, 0, -1), math3d.V3(1, 0, 0), width, height)
}

// V returns the unit height direction.
func (q *Rect) V() math3d.Vec3 {
	return q.Normal.Cross(q.U)
}

// Raycast implements Surface. The reported normal faces the ray.
func (q *Rect) Raycast(r Ray) (Hit, bool) {
	t, ok := planeT(q.Center, q.Normal, r)
	if !ok {
		return Hit{}, false
	}
	p := r.At(t)
	local := p.Sub(q.Center)
	if math.Abs(local.Dot(q.U)) > q.Width/2 || math.Abs(local.Dot(q.V())) > q.Height/2 {
		return Hit{}, false
	}
	return Hit{Point: p, Normal: facing(q.Normal, r.Direction), T: t}, true
}

// Bounds implements Bounded.
func (q *Rect) Bounds() AABB {
	hu := q.U.Scale(q.Width / 2)
	hv := q.V().Scale(q.Height / 2)
	return AABBFromPoints(
		q.Center.Add(hu).Add(hv),
		q.Center.Add(hu).Sub(hv),
		q.Center.Sub(hu).Add(hv),
		q.Center.Sub(hu).Sub(hv),
	)
}

// Corners returns the four corners counter-clockwise from (-U, -V).
func (q *Rect) Corners() [4]math3d.Vec3 {
	hu := q.U.Scale(q.Width / 2)
	hv := q.V().Scale(q.Height / 2)
	return [4]math3d.Vec3{
		q.Center.Sub(hu).Sub(hv),
		q.Center.Add(hu).Sub(hv),
		q.Center.Add(hu).Add(hv),
		q.Center.Sub(hu).Add(hv),
	}
}
