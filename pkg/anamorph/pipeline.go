// Package anamorph computes the distorted surface that, seen from a fixed eye
// through a refracting lens, looks like an undistorted rectangular image.
//
// The pipeline samples a grid on a virtual image plane, traces each sample
// through both lens surfaces onto a target, and triangulates the landing
// points into a mesh.
package anamorph

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/taigrr/anamorph/pkg/geometry"
	"github.com/taigrr/anamorph/pkg/math3d"
)

// Params is everything one pipeline run needs.
type Params struct {
	Eye          math3d.Vec3
	PlaneZ       float64
	HSize, VSize float64
	Cols, Rows   int

	Lens    geometry.Surface
	Target  geometry.Surface
	Options Options

	DistanceThreshold float64
	Logger            *log.Logger
}

// MarkerKind tags a debug marker.
type MarkerKind string

const (
	MarkerVirtual   MarkerKind = "virtual"   // sample on the virtual plane
	MarkerRefracted MarkerKind = "refracted" // landing point on the target
	MarkerEye       MarkerKind = "eye"
)

// Marker is a point to highlight in a debug view.
type Marker struct {
	Position math3d.Vec3
	Kind     MarkerKind
}

// Result is the output of one run.
type Result struct {
	Virtual *Grid
	Trace   *Trace
	Mesh    *Mesh
	Markers []Marker
}

// Validate checks the parts of p that would make a run meaningless.
func (p *Params) Validate() error {
	if p.Lens == nil {
		return fmt.Errorf("lens: %w", ErrMissingSurface)
	}
	if p.Target == nil {
		return fmt.Errorf("target: %w", ErrMissingSurface)
	}
	if err := checkGrid(p.HSize, p.VSize, p.Cols, p.Rows); err != nil {
		return err
	}
	if !(p.DistanceThreshold > 0) {
		return fmt.Errorf("threshold %v: %w", p.DistanceThreshold, ErrInvalidThreshold)
	}
	return p.Options.Validate()
}

// RunOnce samples, traces and triangulates. Configuration errors are
// returned before any ray is cast; per-sample failures end up in the trace.
func RunOnce(p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	logger := p.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	grid, err := SampleGrid(p.HSize, p.VSize, p.Cols, p.Rows, p.PlaneZ)
	if err != nil {
		return nil, err
	}

	rc := &Raycaster{Lens: p.Lens, Target: p.Target, Options: p.Options, Logger: logger}
	trace := rc.TraceGrid(grid, p.Eye)

	mesh, err := BuildMesh(trace, p.DistanceThreshold, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("anamorph run",
		"grid", fmt.Sprintf("%dx%d", grid.Cols, grid.Rows),
		"failed", trace.Failed(),
		"triangles", len(mesh.Triangles),
		"dropped", mesh.Dropped)

	return &Result{
		Virtual: grid,
		Trace:   trace,
		Mesh:    mesh,
		Markers: markers(p.Eye, grid, trace),
	}, nil
}

func markers(eye math3d.Vec3, grid *Grid, trace *Trace) []Marker {
	out := make([]Marker, 0, 1+grid.Len()*2)
	out = append(out, Marker{Position: eye, Kind: MarkerEye})
	for _, p := range grid.Points {
		out = append(out, Marker{Position: p, Kind: MarkerVirtual})
	}
	for _, s := range trace.Slots {
		if s.OK() {
			out = append(out, Marker{Position: s.Point, Kind: MarkerRefracted})
		}
	}
	return out
}
