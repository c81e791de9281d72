package scene

import (
	"errors"
	"fmt"

	"github.com/taigrr/anamorph/pkg/geometry"
	"github.com/taigrr/anamorph/pkg/math3d"
	"github.com/taigrr/anamorph/pkg/models"
)

// LensKind names a lens shape.
type LensKind string

const (
	LensSlab        LensKind = "slab"
	LensBiconvex    LensKind = "biconvex"
	LensPlanoConvex LensKind = "planoconvex"
	LensSphere      LensKind = "sphere"
	LensMesh        LensKind = "mesh" // closed glTF/GLB mesh
)

// LensCfg describes the lens and its placement. Rotation is XYZ Euler in
// degrees; when omitted, mesh lenses are turned -90 degrees about X so a
// Y-up model faces the optical axis. A zero scale component means 1.
type LensCfg struct {
	Kind      LensKind    `json:"kind"`
	Path      string      `json:"path,omitempty"`
	Radius    float64     `json:"radius,omitempty"`
	Thickness float64     `json:"thickness,omitempty"`
	Width     float64     `json:"width,omitempty"`
	Height    float64     `json:"height,omitempty"`
	Position  [3]float64  `json:"position"`
	Rotation  *[3]float64 `json:"rotation,omitempty"`
	Scale     [3]float64  `json:"scale"`
}

// DefaultLens is a 20 unit thick biconvex lens ground from radius 100 spheres.
func DefaultLens() LensCfg {
	return LensCfg{
		Kind:      LensBiconvex,
		Radius:    100,
		Thickness: 20,
		Scale:     [3]float64{1, 1, 1},
	}
}

// LensPreset returns stock parameters for kind, placed at the origin.
// Mesh presets still need a path.
func LensPreset(kind LensKind) LensCfg {
	l := LensCfg{Kind: kind, Scale: [3]float64{1, 1, 1}}
	switch kind {
	case LensSlab:
		l.Width, l.Height, l.Thickness = 200, 200, 10
	case LensBiconvex:
		return DefaultLens()
	case LensPlanoConvex:
		l.Radius, l.Thickness = 100, 20
	case LensSphere:
		l.Radius = 40
	}
	return l
}

// Validate checks the shape parameters the kind needs.
func (l LensCfg) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: lens: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	switch l.Kind {
	case LensSlab:
		if !(l.Width > 0) || !(l.Height > 0) || !(l.Thickness > 0) {
			bad("slab needs positive width, height and thickness")
		}
	case LensBiconvex, LensPlanoConvex:
		if !(l.Radius > 0) {
			bad("radius must be positive, got %v", l.Radius)
		} else if !(l.Thickness > 0) || l.Thickness >= 2*l.Radius {
			bad("thickness must be in (0, %v), got %v", 2*l.Radius, l.Thickness)
		}
	case LensSphere:
		if !(l.Radius > 0) {
			bad("radius must be positive, got %v", l.Radius)
		}
	case LensMesh:
		if l.Path == "" {
			bad("mesh lens needs a path")
		}
	default:
		bad("unknown kind %q", l.Kind)
	}
	for i, s := range l.Scale {
		if s < 0 {
			bad("scale[%d] must not be negative, got %v", i, s)
		}
	}

	return errors.Join(errs...)
}

// Transform returns the local-to-world placement.
func (l LensCfg) Transform() math3d.Mat4 {
	scale := l.Scale
	for i := range scale {
		if scale[i] == 0 {
			scale[i] = 1
		}
	}
	var rot [3]float64
	switch {
	case l.Rotation != nil:
		rot = *l.Rotation
	case l.Kind == LensMesh:
		rot = [3]float64{-90, 0, 0}
	}
	return math3d.TRS(vec(l.Position), vec(rot), vec(scale))
}

// Build creates the lens surface in world coordinates. For mesh lenses the
// loaded model is returned too, already placed, so it can be drawn.
func (l LensCfg) Build() (geometry.Surface, *models.Mesh, error) {
	if err := l.Validate(); err != nil {
		return nil, nil, err
	}

	var (
		local geometry.Surface
		model *models.Mesh
	)
	switch l.Kind {
	case LensSlab:
		local = geometry.NewBox(math3d.Zero3(), math3d.V3(l.Width, l.Height, l.Thickness))
	case LensBiconvex:
		local = geometry.BiconvexLens(math3d.Zero3(), l.Radius, l.Thickness)
	case LensPlanoConvex:
		local = geometry.PlanoConvexLens(math3d.Zero3(), l.Radius, l.Thickness)
	case LensSphere:
		local = geometry.NewSphere(math3d.Zero3(), l.Radius)
	case LensMesh:
		m, err := models.LoadGLB(l.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("load lens: %w", err)
		}
		if len(m.Faces) == 0 {
			return nil, nil, fmt.Errorf("lens %s: %w", l.Path, models.ErrEmptyMesh)
		}
		model = m
		local = geometry.MeshSurface(m)
	}

	m := l.Transform()
	if model != nil {
		model = placeModel(model, m)
		// Baking the transform keeps mesh raycasts in world space.
		return geometry.MeshSurface(model), model, nil
	}
	return geometry.NewTransformed(local, m), nil, nil
}

// placeModel returns a copy of src with positions and normals moved by m.
func placeModel(src *models.Mesh, m math3d.Mat4) *models.Mesh {
	normal := m.Inverse().Transpose()
	out := *src
	out.Vertices = make([]models.MeshVertex, len(src.Vertices))
	for i, v := range src.Vertices {
		v.Position = m.MulVec3(v.Position)
		if v.Normal.LenSq() > 0 {
			v.Normal = normal.MulVec3Dir(v.Normal).Normalize()
		}
		out.Vertices[i] = v
	}
	out.UpdateBounds()
	return &out
}

func vec(a [3]float64) math3d.Vec3 {
	return math3d.V3(a[0], a[1], a[2])
}
