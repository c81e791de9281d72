package main

import (
	"github.com/spf13/pflag"
	"github.com/taigrr/anamorph/pkg/scene"
)

// sceneFlags override config file values. Only flags set on the command line
// are applied.
type sceneFlags struct {
	n1, n2          float64
	cols, rows      int
	threshold       float64
	offset          float64
	secondRayOffset float64
	lens            string
	lensPath        string
	image           string
	live            bool
	showRays        bool
}

func (f *sceneFlags) register(fs *pflag.FlagSet) {
	d := scene.Default()
	fs.Float64Var(&f.n1, "n1", d.N1, "refractive index outside the lens")
	fs.Float64Var(&f.n2, "n2", d.N2, "refractive index of the lens")
	fs.IntVar(&f.cols, "cols", d.Cols, "grid columns")
	fs.IntVar(&f.rows, "rows", d.Rows, "grid rows")
	fs.Float64Var(&f.threshold, "threshold", d.DistanceThreshold, "drop triangles with a longer checked edge")
	fs.Float64Var(&f.offset, "offset", d.OffsetPercentage, "nudge exit points along the outgoing ray")
	fs.Float64Var(&f.secondRayOffset, "second-ray-offset", d.SecondRayOffset, "extra depth of the backward exit ray")
	fs.StringVar(&f.lens, "lens", string(d.Lens.Kind), "lens kind: slab, biconvex, planoconvex, sphere or mesh")
	fs.StringVar(&f.lensPath, "lens-path", "", "glTF/GLB file for a mesh lens")
	fs.StringVar(&f.image, "image", "", "source image printed on the mesh (PNG/JPG)")
	fs.BoolVar(&f.live, "live", d.LiveMode, "recompute every frame at reduced resolution")
	fs.BoolVar(&f.showRays, "rays", d.ShowRays, "record and draw traced rays")
}

func (f *sceneFlags) apply(fs *pflag.FlagSet, cfg *scene.Config) {
	if fs.Changed("n1") {
		cfg.N1 = f.n1
	}
	if fs.Changed("n2") {
		cfg.N2 = f.n2
	}
	if fs.Changed("cols") {
		cfg.Cols = f.cols
	}
	if fs.Changed("rows") {
		cfg.Rows = f.rows
	}
	if fs.Changed("threshold") {
		cfg.DistanceThreshold = f.threshold
	}
	if fs.Changed("offset") {
		cfg.OffsetPercentage = f.offset
	}
	if fs.Changed("second-ray-offset") {
		cfg.SecondRayOffset = f.secondRayOffset
	}
	if fs.Changed("lens") && scene.LensKind(f.lens) != cfg.Lens.Kind {
		// Switching kinds starts from that kind's stock shape, keeping placement.
		placed := cfg.Lens
		cfg.Lens = scene.LensPreset(scene.LensKind(f.lens))
		cfg.Lens.Position, cfg.Lens.Rotation, cfg.Lens.Scale = placed.Position, placed.Rotation, placed.Scale
	}
	if fs.Changed("lens-path") {
		cfg.Lens.Path = f.lensPath
		if !fs.Changed("lens") {
			cfg.Lens.Kind = scene.LensMesh
		}
	}
	if fs.Changed("image") {
		cfg.Image = f.image
	}
	if fs.Changed("live") {
		cfg.LiveMode = f.live
	}
	if fs.Changed("rays") {
		cfg.ShowRays = f.showRays
	}
}
