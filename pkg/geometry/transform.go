package geometry

import "github.com/taigrr/anamorph/pkg/math3d"

// Transformed places a surface defined in local coordinates into the world
// with a matrix, the way scene objects carry a transform.
type Transformed struct {
	Surface Surface
	world   math3d.Mat4
	inverse math3d.Mat4
	normal  math3d.Mat4 // inverse transpose, for normals
}

// NewTransformed wraps s with the local-to-world transform m.
func NewTransformed(s Surface, m math3d.Mat4) *Transformed {
	inv := m.Inverse()
	return &Transformed{
		Surface: s,
		world:   m,
		inverse: inv,
		normal:  inv.Transpose(),
	}
}

// Matrix returns the local-to-world transform.
func (t *Transformed) Matrix() math3d.Mat4 {
	return t.world
}

// Raycast implements Surface. The local ray keeps an unnormalized direction
// so hit parameters are the same in both frames.
func (t *Transformed) Raycast(r Ray) (Hit, bool) {
	local := Ray{
		Origin:    t.inverse.MulVec3(r.Origin),
		Direction: t.inverse.MulVec3Dir(r.Direction),
	}
	h, ok := t.Surface.Raycast(local)
	if !ok {
		return Hit{}, false
	}
	return Hit{
		Point:  r.At(h.T),
		Normal: t.normal.MulVec3Dir(h.Normal).Normalize(),
		T:      h.T,
	}, true
}

// Bounds implements Bounded when the wrapped surface is bounded.
func (t *Transformed) Bounds() AABB {
	b, ok := t.Surface.(Bounded)
	if !ok {
		return EmptyAABB()
	}
	return b.Bounds().Transform(t.world)
}
