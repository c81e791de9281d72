package scene

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/taigrr/anamorph/pkg/anamorph"
	"github.com/taigrr/anamorph/pkg/geometry"
	"github.com/taigrr/anamorph/pkg/math3d"
	"github.com/taigrr/anamorph/pkg/models"
	"github.com/taigrr/anamorph/pkg/render"
)

// meshCameraGap is how far in front of the target the mesh camera sits.
const meshCameraGap = 10

// Scene is a built configuration: surfaces placed in the world frame.
type Scene struct {
	Config Config

	Eye        math3d.Vec3
	Lens       geometry.Surface
	LensBounds geometry.AABB
	LensModel  *models.Mesh // mesh lenses only

	// Screen is the physical target. Target is the same plane grown by
	// TargetMargin and is what rays are cast against.
	Screen *geometry.Rect
	Target *geometry.Rect
}

// Build validates cfg and constructs the lens and target.
func Build(cfg Config) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lens, model, err := cfg.Lens.Build()
	if err != nil {
		return nil, err
	}
	bounds := geometry.EmptyAABB()
	if b, ok := lens.(geometry.Bounded); ok {
		bounds = b.Bounds()
	}
	if bounds.IsEmpty() {
		return nil, fmt.Errorf("%w: lens has no extent", ErrInvalidConfig)
	}

	margin := 2 * cfg.TargetMargin
	return &Scene{
		Config:     cfg,
		Eye:        math3d.V3(0, 0, cfg.EyeZ),
		Lens:       lens,
		LensBounds: bounds,
		LensModel:  model,
		Screen:     geometry.NewScreenRect(cfg.TargetZ, cfg.ScreenWidth, cfg.ScreenHeight),
		Target:     geometry.NewScreenRect(cfg.TargetZ, cfg.ScreenWidth+margin, cfg.ScreenHeight+margin),
	}, nil
}

// LensDepth is the lens extent along the optical axis.
func (s *Scene) LensDepth() float64 {
	return s.LensBounds.Size().Z
}

// Params returns the pipeline inputs for one run. Live runs use the clamped
// resolution.
func (s *Scene) Params(live bool, logger *log.Logger) anamorph.Params {
	cfg := s.Config
	cols, rows := cfg.Resolution(live)
	return anamorph.Params{
		Eye:    s.Eye,
		PlaneZ: cfg.VirtualScreenZ,
		HSize:  cfg.HSize,
		VSize:  cfg.VSize,
		Cols:   cols,
		Rows:   rows,
		Lens:   s.Lens,
		Target: s.Target,
		Options: anamorph.Options{
			Medium:           cfg.Medium(),
			LensDepth:        s.LensDepth(),
			SecondRayOffset:  cfg.SecondRayOffset,
			OffsetPercentage: cfg.OffsetPercentage,
			EmitSegments:     cfg.ShowRays,
			MissRayLength:    anamorph.DefaultMissRayLength,
		},
		DistanceThreshold: cfg.DistanceThreshold,
		Logger:            logger,
	}
}

// MeshCamera returns the orthographic camera that frames the physical
// screen, looking down +Z at the target from just in front of it.
func (s *Scene) MeshCamera() *render.Camera {
	cfg := s.Config
	pos := math3d.V3(0, 0, cfg.TargetZ-meshCameraGap)
	return render.NewOrthoCamera(pos, math3d.V3(0, 0, cfg.TargetZ), cfg.ScreenHeight/2, cfg.ScreenWidth/cfg.ScreenHeight)
}

// Run executes the pipeline once against the scene.
func (s *Scene) Run(live bool, logger *log.Logger) (*anamorph.Result, error) {
	return anamorph.RunOnce(s.Params(live, logger))
}
