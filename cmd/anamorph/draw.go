package main

import (
	"math"

	"github.com/taigrr/anamorph/pkg/anamorph"
	"github.com/taigrr/anamorph/pkg/math3d"
	"github.com/taigrr/anamorph/pkg/models"
	"github.com/taigrr/anamorph/pkg/render"
	"github.com/taigrr/anamorph/pkg/scene"
)

// drawOptions selects the layers drawn over the mesh.
type drawOptions struct {
	ShowRays    bool
	ShowMarkers bool
	ShowLens    bool
	ShowAxes    bool
	AxisLength  float64
	MarkerSize  float64
	LineWidth   int
	LightDir    math3d.Vec3
}

func drawOptionsFor(cfg scene.Config) drawOptions {
	return drawOptions{
		ShowRays:    cfg.ShowRays,
		ShowMarkers: cfg.ShowGridMarkers,
		ShowLens:    true,
		AxisLength:  cfg.ScreenHeight / 2,
		MarkerSize:  cfg.GridMarkerSize,
		LineWidth:   cfg.LineWidth,
		LightDir:    math3d.V3(0, 0.3, -1).Normalize(),
	}
}

// drawScene renders a run: the textured mesh on the target, then the target
// outline, lens, rays and markers on top.
func drawScene(r *render.Rasterizer, sc *scene.Scene, res *anamorph.Result, mesh *models.Mesh, tex *render.Texture, o drawOptions) {
	identity := math3d.Identity()

	// The print is seen from either side depending on the camera.
	r.TwoSided = true
	if mesh != nil && mesh.TriangleCount() > 0 {
		r.DrawMeshTextured(mesh, identity, tex, o.LightDir)
	}
	r.TwoSided = false

	ov := render.NewOverlay(r)
	ov.LineWidth = o.LineWidth

	corners := sc.Screen.Corners()
	ov.DrawLoop(corners[:], render.ColorGray)
	if o.ShowAxes {
		ov.DrawAxes(o.AxisLength)
	}

	if o.ShowLens {
		if sc.LensModel != nil {
			r.DrawMeshWireframe(sc.LensModel, identity, render.ColorGlass)
		} else {
			ov.DrawBox(sc.LensBounds, render.ColorGlass)
		}
	}
	if res == nil {
		return
	}
	if o.ShowRays {
		ov.DrawSegments(res.Trace.Segments)
	}
	if o.ShowMarkers {
		ov.DrawMarkers(res.Markers, o.MarkerSize)
	}
}

// snapshot renders the mesh as the orthographic mesh camera sees the
// physical screen, scale pixels per world unit.
func snapshot(sc *scene.Scene, mesh *models.Mesh, tex *render.Texture, scale float64) *render.Framebuffer {
	cfg := sc.Config
	w := max(1, int(math.Round(cfg.ScreenWidth*scale)))
	h := max(1, int(math.Round(cfg.ScreenHeight*scale)))

	fb := render.NewFramebuffer(w, h)
	fb.Clear(render.ColorWhite)
	r := render.NewRasterizer(sc.MeshCamera(), fb)
	r.ClearDepth()
	r.TwoSided = true
	r.DrawMeshTextured(mesh, math3d.Identity(), tex, math3d.V3(0, 0, -1))
	return fb
}

// sourceTexture loads the configured image, or the stand-in UV grid.
func sourceTexture(cfg scene.Config) (*render.Texture, error) {
	if cfg.Image == "" {
		return render.NewUVGridTexture(256, 8), nil
	}
	tex, err := render.LoadTexture(cfg.Image)
	if err != nil {
		return nil, err
	}
	tex.FilterMode = render.FilterBilinear
	return tex, nil
}

// printModel converts a run's mesh into a model textured with the source.
func printModel(res *anamorph.Result, tex *render.Texture) *models.Mesh {
	m := res.Mesh.ToModel("anamorph")
	m.Materials = []models.Material{{
		Name:        "print",
		BaseColor:   [4]float64{1, 1, 1, 1},
		BaseMap:     tex.Image(),
		DoubleSided: true,
	}}
	for i := range m.Faces {
		m.Faces[i].Material = 0
	}
	return m
}
