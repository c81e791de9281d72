package geometry

import (
	"math"

	"github.com/taigrr/anamorph/pkg/math3d"
)

// Solid is a closed convex body. Span returns where the infinite line through
// r enters and leaves the body; either parameter may be negative or infinite.
// Both normals point out of the body.
type Solid interface {
	Span(r Ray) (in, out Hit, ok bool)
}

// raycastSolid turns a span into a nearest forward hit. From outside that is
// the entry point; from inside it is the exit point.
func raycastSolid(s Solid, r Ray) (Hit, bool) {
	in, out, ok := s.Span(r)
	if !ok {
		return Hit{}, false
	}
	if in.T > Epsilon && !math.IsInf(in.T, 1) {
		return in, true
	}
	if out.T > Epsilon && !math.IsInf(out.T, 1) {
		return out, true
	}
	return Hit{}, false
}

// Sphere is a solid ball.
type Sphere struct {
	Center math3d.Vec3
	Radius float64
}

// NewSphere creates a sphere.
func NewSphere(center math3d.Vec3, radius float64) *Sphere {
	return &Sphere{Center: center, Radius: radius}
}

// Span implements Solid.
func (s *Sphere) Span(r Ray) (in, out Hit, ok bool) {
	oc := r.Origin.Sub(s.Center)
	a := r.Direction.LenSq()
	halfB := oc.Dot(r.Direction)
	c := oc.LenSq() - s.Radius*s.Radius

	disc := halfB*halfB - a*c
	if a == 0 || disc < 0 {
		return Hit{}, Hit{}, false
	}
	sq := math.Sqrt(disc)
	t0 := (-halfB - sq) / a
	t1 := (-halfB + sq) / a

	return s.hitAt(r, t0), s.hitAt(r, t1), true
}

func (s *Sphere) hitAt(r Ray, t float64) Hit {
	p := r.At(t)
	return Hit{Point: p, Normal: p.Sub(s.Center).Scale(1 / s.Radius), T: t}
}

// Raycast implements Surface.
func (s *Sphere) Raycast(r Ray) (Hit, bool) {
	return raycastSolid(s, r)
}

// Bounds implements Bounded.
func (s *Sphere) Bounds() AABB {
	ext := math3d.V3(s.Radius, s.Radius, s.Radius)
	return AABB{Min: s.Center.Sub(ext), Max: s.Center.Add(ext)}
}

// Box is an axis-aligned solid slab, the simplest flat lens.
type Box struct {
	AABB
}

// NewBox creates a box centered on center with the given edge lengths.
func NewBox(center, size math3d.Vec3) *Box {
	half := size.Scale(0.5)
	return &Box{AABB{Min: center.Sub(half), Max: center.Add(half)}}
}

// Span implements Solid.
func (b *Box) Span(r Ray) (in, out Hit, ok bool) {
	tIn, tOut, axisIn, axisOut, ok := b.slab(r)
	if !ok {
		return Hit{}, Hit{}, false
	}
	in = Hit{T: tIn, Normal: axisNormal(axisIn, r.Direction, -1)}
	out = Hit{T: tOut, Normal: axisNormal(axisOut, r.Direction, 1)}
	if !math.IsInf(tIn, 0) {
		in.Point = r.At(tIn)
	}
	if !math.IsInf(tOut, 0) {
		out.Point = r.At(tOut)
	}
	return in, out, true
}

// Raycast implements Surface.
func (b *Box) Raycast(r Ray) (Hit, bool) {
	return raycastSolid(b, r)
}

// Bounds implements Bounded.
func (b *Box) Bounds() AABB {
	return b.AABB
}

// axisNormal is the outward face normal on axis for a ray travelling along d.
// sign is -1 for the face the ray enters through and +1 for the one it leaves.
func axisNormal(axis int, d math3d.Vec3, sign float64) math3d.Vec3 {
	if axis < 0 {
		return math3d.Vec3{}
	}
	s := sign
	if d.Component(axis) < 0 {
		s = -sign
	}
	var n math3d.Vec3
	switch axis {
	case 0:
		n.X = s
	case 1:
		n.Y = s
	default:
		n.Z = s
	}
	return n
}

// HalfSpace is everything behind a plane: the points p with
// (p - Point)·Normal <= 0. Normal points out of the solid.
type HalfSpace struct {
	Point  math3d.Vec3
	Normal math3d.Vec3
}

// NewHalfSpace creates a half-space bounded by the plane through point with
// the given outward normal.
func NewHalfSpace(point, normal math3d.Vec3) *HalfSpace {
	return &HalfSpace{Point: point, Normal: normal.Normalize()}
}

// Span implements Solid.
func (h *HalfSpace) Span(r Ray) (in, out Hit, ok bool) {
	inf := math.Inf(1)
	denom := h.Normal.Dot(r.Direction)
	side := r.Origin.Sub(h.Point).Dot(h.Normal)
	if denom == 0 {
		if side > 0 {
			return Hit{}, Hit{}, false
		}
		return Hit{T: -inf}, Hit{T: inf}, true
	}
	t := -side / denom
	plane := Hit{Point: r.At(t), Normal: h.Normal, T: t}
	if denom < 0 {
		return plane, Hit{T: inf}, true
	}
	return Hit{T: -inf}, plane, true
}

// Intersection is the common volume of several convex solids, e.g. a
// biconvex lens made of two overlapping spheres.
type Intersection []Solid

// Span implements Solid.
func (x Intersection) Span(r Ray) (in, out Hit, ok bool) {
	if len(x) == 0 {
		return Hit{}, Hit{}, false
	}
	in = Hit{T: math.Inf(-1)}
	out = Hit{T: math.Inf(1)}
	for _, s := range x {
		sIn, sOut, ok := s.Span(r)
		if !ok {
			return Hit{}, Hit{}, false
		}
		if sIn.T > in.T {
			in = sIn
		}
		if sOut.T < out.T {
			out = sOut
		}
		if in.T > out.T {
			return Hit{}, Hit{}, false
		}
	}
	return in, out, true
}

// Raycast implements Surface.
func (x Intersection) Raycast(r Ray) (Hit, bool) {
	return raycastSolid(x, r)
}

// Bounds implements Bounded using the tightest bounded member boxes.
func (x Intersection) Bounds() AABB {
	var box AABB
	first := true
	for _, s := range x {
		b, ok := s.(Bounded)
		if !ok {
			continue
		}
		bb := b.Bounds()
		if first {
			box, first = bb, false
			continue
		}
		box = AABB{Min: box.Min.Max(bb.Min), Max: box.Max.Min(bb.Max)}
	}
	if first {
		return EmptyAABB()
	}
	return box
}

// BiconvexLens builds a symmetric lens of the given center thickness from two
// spheres of radius r, with its optical axis along Z through center.
func BiconvexLens(center math3d.Vec3, radius, thickness float64) Intersection {
	// Each sphere reaches thickness/2 past the center plane.
	offset := radius - thickness/2
	return Intersection{
		NewSphere(center.Add(math3d.V3(0, 0, offset)), radius),
		NewSphere(center.Sub(math3d.V3(0, 0, offset)), radius),
	}
}

// PlanoConvexLens builds a lens with a flat back face at center.Z+thickness/2
// and a spherical front face bulging toward -Z. A box around the rim keeps
// Bounds tight, since the half-space is unbounded.
func PlanoConvexLens(center math3d.Vec3, radius, thickness float64) Intersection {
	back := center.Add(math3d.V3(0, 0, thickness/2))
	rim := math.Sqrt(max(0, 2*radius*thickness-thickness*thickness))
	return Intersection{
		NewSphere(back.Add(math3d.V3(0, 0, radius-thickness)), radius),
		NewHalfSpace(back, math3d.V3(0, 0, 1)),
		NewBox(center, math3d.V3(2*rim, 2*rim, thickness)),
	}
}
