// Package optics implements vector refraction at an interface between two
// media.
package optics

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/anamorph/pkg/math3d"
)

var (
	// ErrInvalidRefraction is returned when Snell's law has no real
	// solution: sin²θt exceeds 1 and the ray would be totally internally
	// reflected.
	ErrInvalidRefraction = errors.New("total internal reflection")

	// ErrDegenerateVector is returned when the incident direction or the
	// surface normal has zero length.
	ErrDegenerateVector = errors.New("zero-length vector")

	// ErrInvalidIndex is returned for a refractive index that is not a
	// positive finite number.
	ErrInvalidIndex = errors.New("invalid refractive index")
)

// Medium is a pair of refractive indices describing a crossing from a medium
// with index N1 into one with index N2.
type Medium struct {
	N1, N2 float64
}

// Air and Glass are the default indices the tool starts from.
const (
	Air   = 1.0
	Glass = 1.4
)

// NewMedium creates a medium crossing n1 → n2.
func NewMedium(n1, n2 float64) Medium {
	return Medium{N1: n1, N2: n2}
}

// Validate reports ErrInvalidIndex unless both indices are positive and
// finite.
func (m Medium) Validate() error {
	if !validIndex(m.N1) || !validIndex(m.N2) {
		return fmt.Errorf("medium %v -> %v: %w", m.N1, m.N2, ErrInvalidIndex)
	}
	return nil
}

func validIndex(n float64) bool {
	return n > 0 && !math.IsInf(n, 1)
}

// Reverse returns the opposite crossing n2 → n1.
func (m Medium) Reverse() Medium {
	return Medium{N1: m.N2, N2: m.N1}
}

// Refract bends incident through this medium; see Refract.
func (m Medium) Refract(incident, normal math3d.Vec3) (math3d.Vec3, error) {
	return Refract(incident, normal, m.N1, m.N2)
}

// Refract returns the unit direction of incident after crossing a surface with
// the given normal, going from index n1 into index n2.
//
// Neither vector needs to be normalized. The normal is expected to face the
// incoming ray; if it faces along the ray it is flipped first. When
// (n1/n2)²(1-cos²θi) > 1 there is no transmitted ray and ErrInvalidRefraction
// is returned with a zero vector. The result is never NaN or infinite.
func Refract(incident, normal math3d.Vec3, n1, n2 float64) (math3d.Vec3, error) {
	if err := (Medium{N1: n1, N2: n2}).Validate(); err != nil {
		return math3d.Vec3{}, err
	}
	if !incident.IsFinite() || !normal.IsFinite() || incident.LenSq() == 0 || normal.LenSq() == 0 {
		return math3d.Vec3{}, ErrDegenerateVector
	}
	i := incident.Normalize()
	nrm := normal.Normalize()

	n := n1 / n2
	cosI := -nrm.Dot(i)
	if cosI < 0 {
		nrm = nrm.Negate()
		cosI = -cosI
	}

	if TotalInternalReflection(cosI, n1, n2) {
		return math3d.Vec3{}, ErrInvalidRefraction
	}
	cosT := math.Sqrt(1 - n*n*(1-cosI*cosI))

	out := i.Scale(n).Add(nrm.Scale(n*cosI - cosT))
	if !out.IsFinite() || out.LenSq() == 0 {
		return math3d.Vec3{}, ErrDegenerateVector
	}
	return out, nil
}

// TotalInternalReflection reports whether a ray meeting the surface at
// cosI = cos θi would be totally internally reflected going n1 → n2.
func TotalInternalReflection(cosI, n1, n2 float64) bool {
	n := n1 / n2
	return n*n*(1-cosI*cosI) > 1
}

// CriticalAngle returns the incidence angle in radians beyond which light is
// totally internally reflected going n1 → n2. ok is false when n1 <= n2,
// where every angle refracts.
func CriticalAngle(n1, n2 float64) (angle float64, ok bool) {
	if n1 <= n2 {
		return 0, false
	}
	return math.Asin(n2 / n1), true
}
