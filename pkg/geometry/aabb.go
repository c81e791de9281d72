package geometry

import (
	"math"

	"github.com/taigrr/anamorph/pkg/math3d"
)

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// NewAABB creates an AABB from min and max points.
func NewAABB(min, max math3d.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB returns an inverted box that any Union or Extend replaces.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: math3d.V3(inf, inf, inf),
		Max: math3d.V3(-inf, -inf, -inf),
	}
}

// AABBFromPoints returns the smallest box containing all points.
func AABBFromPoints(points ...math3d.Vec3) AABB {
	box := EmptyAABB()
	for _, p := range points {
		box = box.Extend(p)
	}
	return box
}

// IsEmpty reports whether the box contains no points.
func (b AABB) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend returns the box grown to contain p.
func (b AABB) Extend(p math3d.Vec3) AABB {
	return AABB{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the box containing both b and o.
func (b AABB) Union(o AABB) AABB {
	return AABB{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Size returns the dimensions of the AABB.
func (b AABB) Size() math3d.Vec3 {
	if b.IsEmpty() {
		return math3d.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Transform returns the box bounding all 8 corners of b after m.
func (b AABB) Transform(m math3d.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for i := range 8 {
		corner := math3d.V3(
			pick(i&1 != 0, b.Max.X, b.Min.X),
			pick(i&2 != 0, b.Max.Y, b.Min.Y),
			pick(i&4 != 0, b.Max.Z, b.Min.Z),
		)
		out = out.Extend(m.MulVec3(corner))
	}
	return out
}

// slab intersects r with the box and returns the entry and exit parameters
// together with the axis crossed at each. ok is false on a miss.
func (b AABB) slab(r Ray) (tIn, tOut float64, axisIn, axisOut int, ok bool) {
	tIn, tOut = math.Inf(-1), math.Inf(1)
	axisIn, axisOut = -1, -1
	for axis := range 3 {
		o := r.Origin.Component(axis)
		d := r.Direction.Component(axis)
		lo, hi := b.Min.Component(axis), b.Max.Component(axis)
		if d == 0 {
			if o < lo || o > hi {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t0, t1 := (lo-o)/d, (hi-o)/d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tIn {
			tIn, axisIn = t0, axis
		}
		if t1 < tOut {
			tOut, axisOut = t1, axis
		}
		if tIn > tOut {
			return 0, 0, 0, 0, false
		}
	}
	return tIn, tOut, axisIn, axisOut, true
}

// HitsRay reports whether r crosses the box anywhere ahead of its origin.
func (b AABB) HitsRay(r Ray) bool {
	_, tOut, _, _, ok := b.slab(r)
	return ok && tOut > Epsilon
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
