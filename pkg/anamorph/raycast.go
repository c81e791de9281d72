package anamorph

import (
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/taigrr/anamorph/pkg/geometry"
	"github.com/taigrr/anamorph/pkg/math3d"
	"github.com/taigrr/anamorph/pkg/optics"
)

// FailurePoint is the position stored in the slot of a sample that failed.
// It keeps the vertex buffer full-size; Slot.Err says whether it is real.
var FailurePoint = math3d.V3(-100, -100, -100)

// DefaultMissRayLength is how far an escaping exit ray is drawn when it
// misses the target.
const DefaultMissRayLength = 50

// Options controls the two-bounce refraction trace.
type Options struct {
	// Medium is the crossing into the lens: N1 outside, N2 inside.
	Medium optics.Medium

	// LensDepth is the lens extent along Z. Together with SecondRayOffset it
	// sets how far past the entry point the backward exit ray starts, so a
	// lens thicker than LensDepth+SecondRayOffset along the refracted ray
	// fails that sample at the exit stage.
	LensDepth       float64
	SecondRayOffset float64

	// OffsetPercentage nudges the exit point along the outgoing ray before
	// casting it at the target.
	OffsetPercentage float64

	// EmitSegments records the ray segments of every sample for display.
	EmitSegments  bool
	MissRayLength float64
}

// DefaultOptions returns air-to-glass options with the stock second ray offset.
func DefaultOptions() Options {
	return Options{
		Medium:          optics.NewMedium(optics.Air, optics.Glass),
		SecondRayOffset: 5,
		EmitSegments:    true,
		MissRayLength:   DefaultMissRayLength,
	}
}

// Validate checks the medium and the exit ray distances.
func (o Options) Validate() error {
	if err := o.Medium.Validate(); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"lens depth", o.LensDepth},
		{"second ray offset", o.SecondRayOffset},
	} {
		if !(f.v >= 0) || math.IsInf(f.v, 1) {
			return fmt.Errorf("%s %v: %w", f.name, f.v, ErrInvalidOptions)
		}
	}
	if math.IsNaN(o.OffsetPercentage) || math.IsInf(o.OffsetPercentage, 0) {
		return fmt.Errorf("offset percentage %v: %w", o.OffsetPercentage, ErrInvalidOptions)
	}
	return nil
}

// SegmentTag says which leg of the light path a segment belongs to.
type SegmentTag string

const (
	SegmentPrimary  SegmentTag = "primary"  // eye to lens entry
	SegmentInternal SegmentTag = "internal" // entry to exit, inside the lens
	SegmentExit     SegmentTag = "exit"     // exit to target
)

// Segment is one drawn leg of a traced ray.
type Segment struct {
	Start, End math3d.Vec3
	Tag        SegmentTag
}

// Slot is the outcome for one grid sample.
type Slot struct {
	Point math3d.Vec3
	Err   error // *SampleError when the sample failed
}

// OK reports whether the sample reached the target.
func (s Slot) OK() bool {
	return s.Err == nil
}

// Trace is the refracted image of a grid, in the grid's order.
type Trace struct {
	Rows, Cols int
	Slots      []Slot
	Segments   []Segment
}

// Points returns the slot positions, failed ones at FailurePoint.
func (t *Trace) Points() []math3d.Vec3 {
	pts := make([]math3d.Vec3, len(t.Slots))
	for i, s := range t.Slots {
		pts[i] = s.Point
	}
	return pts
}

// Failed returns the number of samples that did not reach the target.
func (t *Trace) Failed() int {
	n := 0
	for _, s := range t.Slots {
		if !s.OK() {
			n++
		}
	}
	return n
}

// Errors returns the errors of all failed samples in grid order.
func (t *Trace) Errors() []error {
	var errs []error
	for _, s := range t.Slots {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return errs
}

// Raycaster traces grid samples from the eye through a lens onto a target.
type Raycaster struct {
	Lens    geometry.Surface
	Target  geometry.Surface
	Options Options
	Logger  *log.Logger // nil discards
}

// NewRaycaster creates a raycaster for the given lens and target.
func NewRaycaster(lens, target geometry.Surface, opts Options) *Raycaster {
	return &Raycaster{Lens: lens, Target: target, Options: opts}
}

func (r *Raycaster) logger() *log.Logger {
	if r.Logger == nil {
		return log.New(io.Discard)
	}
	return r.Logger
}

// TraceGrid traces every point of grid from eye. Failures are recorded per
// slot and never stop the batch.
func (r *Raycaster) TraceGrid(grid *Grid, eye math3d.Vec3) *Trace {
	logger := r.logger()
	trace := &Trace{
		Rows:  grid.Rows,
		Cols:  grid.Cols,
		Slots: make([]Slot, len(grid.Points)),
	}

	for i, p := range grid.Points {
		point, segs, stage, err := r.TracePoint(eye, p)
		if r.Options.EmitSegments {
			trace.Segments = append(trace.Segments, segs...)
		}
		if err != nil {
			row, col := grid.RowCol(i)
			serr := &SampleError{Index: i, Row: row, Col: col, Stage: stage, Err: err}
			logger.Warn("sample failed", "index", i, "row", row, "col", col, "stage", stage, "err", err)
			trace.Slots[i] = Slot{Point: FailurePoint, Err: serr}
			continue
		}
		trace.Slots[i] = Slot{Point: point}
	}

	return trace
}

// TracePoint follows the ray from eye through virtual point p. It returns the
// target hit, the segments walked so far and, on failure, the failing stage.
func (r *Raycaster) TracePoint(eye, p math3d.Vec3) (math3d.Vec3, []Segment, Stage, error) {
	var segs []Segment
	opts := r.Options

	entry, ok := r.Lens.Raycast(geometry.NewRay(eye, p.Sub(eye)))
	if !ok {
		return FailurePoint, segs, StageEntry, ErrNoIntersection
	}
	segs = append(segs, Segment{Start: eye, End: entry.Point, Tag: SegmentPrimary})

	inside, err := opts.Medium.Refract(entry.Point.Sub(eye), entry.Normal)
	if err != nil {
		return FailurePoint, segs, StageRefractIn, err
	}

	// Overshoot past the far side, then cast back to find where the ray leaves.
	// A start point still inside the lens finds the entry face again.
	depth := opts.LensDepth + opts.SecondRayOffset
	back := entry.Point.Add(inside.Scale(depth))
	exit, ok := r.Lens.Raycast(geometry.NewRay(back, inside.Negate()))
	if !ok || exit.T >= depth-geometry.Epsilon || exit.Point.Distance(entry.Point) <= geometry.Epsilon {
		return FailurePoint, segs, StageExit, ErrNoIntersection
	}
	segs = append(segs, Segment{Start: entry.Point, End: exit.Point, Tag: SegmentInternal})

	out, err := opts.Medium.Reverse().Refract(exit.Point.Sub(entry.Point), exit.Normal.Negate())
	if err != nil {
		return FailurePoint, segs, StageRefractOut, err
	}

	start := exit.Point.Add(out.Scale(opts.OffsetPercentage))
	hit, ok := r.Target.Raycast(geometry.NewRay(start, out))
	if !ok {
		length := opts.MissRayLength
		if length <= 0 {
			length = DefaultMissRayLength
		}
		segs = append(segs, Segment{Start: exit.Point, End: exit.Point.Add(out.Scale(length)), Tag: SegmentExit})
		return FailurePoint, segs, StageTarget, ErrNoIntersection
	}
	segs = append(segs, Segment{Start: exit.Point, End: hit.Point, Tag: SegmentExit})

	return hit.Point, segs, "", nil
}
