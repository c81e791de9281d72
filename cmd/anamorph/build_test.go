package main

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/taigrr/anamorph/pkg/anamorph"
	"github.com/taigrr/anamorph/pkg/models"
	"github.com/taigrr/anamorph/pkg/render"
	"github.com/taigrr/anamorph/pkg/scene"
)

func slabScene() scene.Config {
	cfg := scene.Default()
	cfg.Lens = scene.LensPreset(scene.LensSlab)
	cfg.Cols, cfg.Rows = 6, 6
	return cfg
}

func TestRunBuild(t *testing.T) {
	dir := t.TempDir()
	opts := buildOptions{
		output:   filepath.Join(dir, "print.glb"),
		png:      filepath.Join(dir, "print.png"),
		pngScale: 1,
	}
	if err := runBuild(slabScene(), opts, log.New(io.Discard)); err != nil {
		t.Fatalf("runBuild() error = %v", err)
	}

	mesh, err := models.LoadGLB(opts.output)
	if err != nil {
		t.Fatalf("LoadGLB() error = %v", err)
	}
	if got := mesh.TriangleCount(); got != 50 {
		t.Errorf("triangles = %d, want 50", got)
	}

	tex, err := render.LoadTexture(opts.png)
	if err != nil {
		t.Fatalf("LoadTexture() error = %v", err)
	}
	if tex.Width != 300 || tex.Height != 200 {
		t.Errorf("snapshot = %dx%d, want 300x200", tex.Width, tex.Height)
	}
	if tex.GetPixel(150, 100) == render.ColorWhite {
		t.Error("snapshot center should be covered by the print")
	}
}

func TestRunBuildNoTriangles(t *testing.T) {
	cfg := slabScene()
	cfg.DistanceThreshold = 1e-6
	opts := buildOptions{output: filepath.Join(t.TempDir(), "print.glb"), pngScale: 1}

	err := runBuild(cfg, opts, log.New(io.Discard))
	if !errors.Is(err, errNoTriangles) {
		t.Errorf("runBuild() error = %v, want %v", err, errNoTriangles)
	}
}

func TestRunBuildLensMissed(t *testing.T) {
	cfg := slabScene()
	cfg.Lens.Position = [3]float64{5000, 0, 0}
	opts := buildOptions{output: filepath.Join(t.TempDir(), "print.glb"), pngScale: 1}

	err := runBuild(cfg, opts, log.New(io.Discard))
	if !errors.Is(err, errNoTriangles) || !errors.Is(err, anamorph.ErrNoIntersection) {
		t.Errorf("runBuild() error = %v, want no triangles caused by a missed lens", err)
	}
}

func TestFailuresByStage(t *testing.T) {
	errs := []error{
		&anamorph.SampleError{Stage: anamorph.StageEntry, Err: anamorph.ErrNoIntersection},
		&anamorph.SampleError{Stage: anamorph.StageEntry, Err: anamorph.ErrNoIntersection},
		&anamorph.SampleError{Stage: anamorph.StageRefractOut, Err: anamorph.ErrInvalidRefraction},
		errors.New("not a sample error"),
	}
	got := failuresByStage(errs)
	if len(got) != 2 || got[anamorph.StageEntry] != 2 || got[anamorph.StageRefractOut] != 1 {
		t.Errorf("failuresByStage() = %v", got)
	}
}
