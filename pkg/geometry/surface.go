// Package geometry answers ray queries against the lens and target surfaces:
// cast a ray, report the nearest hit point and its surface normal.
package geometry

import (
	"math"

	"github.com/taigrr/anamorph/pkg/math3d"
)

// Epsilon is the minimum ray parameter accepted as a hit. It keeps a ray that
// starts on a surface from hitting that same surface again.
const Epsilon = 1e-6

// Ray is a half-line Origin + t*Direction, t > 0.
type Ray struct {
	Origin    math3d.Vec3
	Direction math3d.Vec3
}

// NewRay creates a ray with a normalized direction, so t is a distance.
func NewRay(origin, direction math3d.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) math3d.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// Hit is the nearest intersection of a ray with a surface.
type Hit struct {
	Point  math3d.Vec3
	Normal math3d.Vec3 // unit length
	T      float64
}

// Surface is anything a ray can be cast against. Raycast reports the nearest
// intersection with T > Epsilon.
type Surface interface {
	Raycast(r Ray) (Hit, bool)
}

// Bounded is implemented by surfaces with a finite bounding box.
type Bounded interface {
	Bounds() AABB
}

// Group is a set of surfaces queried together; the nearest hit wins.
type Group []Surface

// Raycast implements Surface.
func (g Group) Raycast(r Ray) (Hit, bool) {
	best := Hit{T: math.Inf(1)}
	found := false
	for _, s := range g {
		if h, ok := s.Raycast(r); ok && h.T < best.T {
			best = h
			found = true
		}
	}
	return best, found
}

// Bounds implements Bounded. Members without bounds are ignored.
func (g Group) Bounds() AABB {
	box := EmptyAABB()
	for _, s := range g {
		if b, ok := s.(Bounded); ok {
			box = box.Union(b.Bounds())
		}
	}
	return box
}

// facing flips n so it points against the ray direction d.
func facing(n, d math3d.Vec3) math3d.Vec3 {
	if n.Dot(d) > 0 {
		return n.Negate()
	}
	return n
}
