package math3d

import "math"

// Mat4 is a column-major 4x4 matrix: element (row, col) is m[row+col*4],
// so m[12], m[13], m[14] hold the translation.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate creates a translation matrix.
func Translate(v Vec3) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		v.X, v.Y, v.Z, 1,
	}
}

// Scale creates a scaling matrix.
func Scale(v Vec3) Mat4 {
	return Mat4{
		v.X, 0, 0, 0,
		0, v.Y, 0, 0,
		0, 0, v.Z, 0,
		0, 0, 0, 1,
	}
}

// RotateX creates a rotation matrix around the X axis.
func RotateX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY creates a rotation matrix around the Y axis.
func RotateY(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotateZ creates a rotation matrix around the Z axis.
func RotateZ(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// LookAt creates a view matrix looking from eye towards center.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize() // Forward
	s := f.Cross(up).Normalize()     // Right
	u := s.Cross(f)                  // Up (recomputed)

	return Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}

// Perspective creates a perspective projection matrix.
// fovy is vertical field of view in radians.
// aspect is width/height.
// near and far are clipping planes.
func Perspective(fovy, aspect, near, far float64) Mat4 {
	f := 1.0 / math.Tan(fovy/2)
	nf := 1.0 / (near - far)

	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}

// Orthographic creates an orthographic projection matrix.
func Orthographic(left, right, bottom, top, near, far float64) Mat4 {
	rl := 1.0 / (right - left)
	tb := 1.0 / (top - bottom)
	fn := 1.0 / (far - near)

	return Mat4{
		2 * rl, 0, 0, 0,
		0, 2 * tb, 0, 0,
		0, 0, -2 * fn, 0,
		-(right + left) * rl, -(top + bottom) * tb, -(far + near) * fn, 1,
	}
}

// Mul returns the product a * b; b is applied first.
func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for col := range 4 {
		for row := range 4 {
			m[row+col*4] = a[row]*b[col*4] + a[row+4]*b[col*4+1] + a[row+8]*b[col*4+2] + a[row+12]*b[col*4+3]
		}
	}
	return m
}

// MulVec3 transforms a point, dividing by w when the matrix is projective.
func (m Mat4) MulVec3(v Vec3) Vec3 {
	p := m.MulVec4(V4FromV3(v, 1))
	if p.W == 0 {
		return p.XYZ()
	}
	return p.PerspectiveDivide()
}

// MulVec3Dir transforms a direction: only the linear part applies.
func (m Mat4) MulVec3Dir(v Vec3) Vec3 {
	return m.MulVec4(V4FromV3(v, 0)).XYZ()
}

// MulVec4 transforms a homogeneous vector.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// Transpose swaps rows and columns.
func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for col := range 4 {
		for row := range 4 {
			t[col+row*4] = m[row+col*4]
		}
	}
	return t
}

// Det3 is the determinant of the upper-left 3x3 block, the volume factor
// of an affine transform.
func (m Mat4) Det3() float64 {
	return m[0]*(m[5]*m[10]-m[9]*m[6]) -
		m[4]*(m[1]*m[10]-m[9]*m[2]) +
		m[8]*(m[1]*m[6]-m[5]*m[2])
}

// Inverse inverts an affine transform (bottom row 0 0 0 1), which is all
// that object placements and view matrices use. A singular transform, e.g.
// one with a zero scale, yields the identity.
func (m Mat4) Inverse() Mat4 {
	det := m.Det3()
	if det == 0 {
		return Identity()
	}
	d := 1 / det

	// Inverse of the linear block via its adjugate.
	var inv Mat4
	inv[0] = (m[5]*m[10] - m[9]*m[6]) * d
	inv[1] = (m[9]*m[2] - m[1]*m[10]) * d
	inv[2] = (m[1]*m[6] - m[5]*m[2]) * d
	inv[4] = (m[8]*m[6] - m[4]*m[10]) * d
	inv[5] = (m[0]*m[10] - m[8]*m[2]) * d
	inv[6] = (m[4]*m[2] - m[0]*m[6]) * d
	inv[8] = (m[4]*m[9] - m[8]*m[5]) * d
	inv[9] = (m[8]*m[1] - m[0]*m[9]) * d
	inv[10] = (m[0]*m[5] - m[4]*m[1]) * d
	inv[15] = 1

	// Translation becomes -L⁻¹·t.
	t := inv.MulVec3Dir(m.Translation())
	inv[12], inv[13], inv[14] = -t.X, -t.Y, -t.Z
	return inv
}

// Translation extracts the translation component.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// RotateQuat is the rotation of the unit quaternion (x, y, z, w).
func RotateQuat(x, y, z, w float64) Mat4 {
	return Mat4{
		1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w), 0,
		2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w), 0,
		2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y), 0,
		0, 0, 0, 1,
	}
}

// TRS composes a translation, an XYZ Euler rotation in degrees and a scale
// into a single transform: T * Rz * Ry * Rx * S.
func TRS(translation, rotationDeg, scale Vec3) Mat4 {
	const deg = math.Pi / 180
	rot := RotateZ(rotationDeg.Z * deg).
		Mul(RotateY(rotationDeg.Y * deg)).
		Mul(RotateX(rotationDeg.X * deg))
	return Translate(translation).Mul(rot).Mul(Scale(scale))
}

// Vec4 is a homogeneous point or clip-space position.
type Vec4 struct {
	X, Y, Z, W float64
}

// V4FromV3 lifts v with the given w: 1 for points, 0 for directions.
func V4FromV3(v Vec3, w float64) Vec4 {
	return Vec4{v.X, v.Y, v.Z, w}
}

// XYZ drops w.
func (v Vec4) XYZ() Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// PerspectiveDivide maps a clip-space position to normalized device
// coordinates. w = 0 returns XYZ unchanged.
func (v Vec4) PerspectiveDivide() Vec3 {
	if v.W == 0 {
		return v.XYZ()
	}
	return Vec3{v.X / v.W, v.Y / v.W, v.Z / v.W}
}

// Lerp interpolates from v to o, used to clip lines in clip space.
func (v Vec4) Lerp(o Vec4, t float64) Vec4 {
	return Vec4{
		v.X + (o.X-v.X)*t,
		v.Y + (o.Y-v.Y)*t,
		v.Z + (o.Z-v.Z)*t,
		v.W + (o.W-v.W)*t,
	}
}
