package anamorph

import (
	"errors"
	"math"
	"testing"

	"github.com/taigrr/anamorph/pkg/geometry"
	"github.com/taigrr/anamorph/pkg/math3d"
	"github.com/taigrr/anamorph/pkg/optics"
)

var eye = math3d.V3(0, 0, -350)

// slab is a flat 10-unit-thick glass plate centered on the origin.
func slab(width float64) *geometry.Box {
	return geometry.NewBox(math3d.Zero3(), math3d.V3(width, width, 10))
}

func slabOptions() Options {
	opts := DefaultOptions()
	opts.LensDepth = 10
	return opts
}

func TestTracePointThroughSlab(t *testing.T) {
	rc := NewRaycaster(slab(400), geometry.NewScreenRect(500, 4000, 4000), slabOptions())

	tests := []struct {
		name    string
		virtual math3d.Vec3
	}{
		{"on axis", math3d.V3(0, 0, -10)},
		{"off axis", math3d.V3(30, 30, -10)},
		{"left", math3d.V3(-30, 0, -10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, segs, _, err := rc.TracePoint(eye, tt.virtual)
			if err != nil {
				t.Fatalf("TracePoint() error = %v", err)
			}
			if math.Abs(got.Z-500) > 1e-9 {
				t.Errorf("landing z = %v, want 500", got.Z)
			}

			// A parallel plate shifts the ray sideways toward the axis but
			// keeps its direction, so it lands just inside the straight line.
			straight := eye.Add(tt.virtual.Sub(eye).Scale(850.0 / 340.0))
			for _, c := range []struct{ got, want float64 }{{got.X, straight.X}, {got.Y, straight.Y}} {
				if math.Abs(c.got) > math.Abs(c.want)+1e-9 || math.Abs(c.got-c.want) > 1 {
					t.Errorf("landing %v not just inside straight-line %v", got, straight)
				}
			}

			if len(segs) != 3 {
				t.Fatalf("segments = %d, want 3", len(segs))
			}
			tags := []SegmentTag{SegmentPrimary, SegmentInternal, SegmentExit}
			for i, s := range segs {
				if s.Tag != tags[i] {
					t.Errorf("segment %d tag = %q, want %q", i, s.Tag, tags[i])
				}
			}
			if math.Abs(segs[0].End.Z+5) > 1e-9 || math.Abs(segs[1].End.Z-5) > 1e-9 {
				t.Errorf("entry/exit z = %v/%v, want -5/5", segs[0].End.Z, segs[1].End.Z)
			}
		})
	}
}

func TestTracePointOnAxisIsStraight(t *testing.T) {
	rc := NewRaycaster(slab(400), geometry.NewScreenRect(500, 4000, 4000), slabOptions())
	got, _, _, err := rc.TracePoint(eye, math3d.V3(0, 0, -10))
	if err != nil {
		t.Fatalf("TracePoint() error = %v", err)
	}
	if !got.ApproxEqual(math3d.V3(0, 0, 500), 1e-9) {
		t.Errorf("landing = %v, want (0, 0, 500)", got)
	}
}

func TestTracePointExitRayStart(t *testing.T) {
	// The on-axis path through the slab is 10 long, so the backward exit ray
	// must start more than 10 past the entry point.
	tests := []struct {
		name      string
		lensDepth float64
		offset    float64
		wantErr   bool
	}{
		{"depth plus offset", 10, 5, false},
		{"offset alone", 0, 12, false},
		{"shallow start", 3, 0, true},
		{"just short", 9, 0, true},
		{"starts at entry", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := slabOptions()
			opts.LensDepth = tt.lensDepth
			opts.SecondRayOffset = tt.offset
			rc := NewRaycaster(slab(400), geometry.NewScreenRect(500, 4000, 4000), opts)

			got, segs, stage, err := rc.TracePoint(eye, math3d.V3(0, 0, -10))
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("TracePoint() error = %v at %s", err, stage)
				}
				if !got.ApproxEqual(math3d.V3(0, 0, 500), 1e-9) {
					t.Errorf("landing = %v, want (0, 0, 500)", got)
				}
				if math.Abs(segs[1].End.Z-5) > 1e-9 {
					t.Errorf("exit z = %v, want 5", segs[1].End.Z)
				}
				return
			}
			if !errors.Is(err, ErrNoIntersection) || stage != StageExit {
				t.Errorf("TracePoint() = %v at %q, want no intersection at %q", err, stage, StageExit)
			}
			if got != FailurePoint {
				t.Errorf("point = %v, want FailurePoint", got)
			}
		})
	}
}

func TestTracePointOffsetPercentage(t *testing.T) {
	tests := []struct {
		name    string
		offset  float64
		wantHit bool
	}{
		{"none", 0, true},
		{"forward", 100, true},
		{"backward", -100, true},
		{"past the target", 600, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := slabOptions()
			opts.OffsetPercentage = tt.offset
			rc := NewRaycaster(slab(400), geometry.NewScreenRect(500, 4000, 4000), opts)

			got, segs, stage, err := rc.TracePoint(eye, math3d.V3(0, 0, -10))
			if !tt.wantHit {
				if !errors.Is(err, ErrNoIntersection) || stage != StageTarget {
					t.Errorf("TracePoint() = %v at %q, want target miss", err, stage)
				}
				return
			}
			if err != nil {
				t.Fatalf("TracePoint() error = %v", err)
			}
			if !got.ApproxEqual(math3d.V3(0, 0, 500), 1e-9) {
				t.Errorf("landing = %v, want (0, 0, 500)", got)
			}
			if last := segs[len(segs)-1]; math.Abs(last.Start.Z-5) > 1e-9 {
				t.Errorf("exit segment starts at z = %v, want the exit point at 5", last.Start.Z)
			}
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		want   error
	}{
		{"defaults", func(*Options) {}, nil},
		{"zero index", func(o *Options) { o.Medium.N1 = 0 }, ErrInvalidIndex},
		{"nan index", func(o *Options) { o.Medium.N2 = math.NaN() }, ErrInvalidIndex},
		{"negative depth", func(o *Options) { o.LensDepth = -1 }, ErrInvalidOptions},
		{"nan depth", func(o *Options) { o.LensDepth = math.NaN() }, ErrInvalidOptions},
		{"negative offset", func(o *Options) { o.SecondRayOffset = -5 }, ErrInvalidOptions},
		{"infinite offset", func(o *Options) { o.SecondRayOffset = math.Inf(1) }, ErrInvalidOptions},
		{"nan offset percentage", func(o *Options) { o.OffsetPercentage = math.NaN() }, ErrInvalidOptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := slabOptions()
			tt.modify(&opts)
			err := opts.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTraceGridFailures(t *testing.T) {
	tests := []struct {
		name      string
		lens      geometry.Surface
		target    geometry.Surface
		medium    optics.Medium
		hSize     float64
		wantStage Stage
		wantErr   error
	}{
		{
			name:      "lens missed",
			lens:      slab(20),
			target:    geometry.NewScreenRect(500, 4000, 4000),
			medium:    optics.NewMedium(optics.Air, optics.Glass),
			hSize:     60,
			wantStage: StageEntry,
			wantErr:   ErrNoIntersection,
		},
		{
			name:      "total internal reflection",
			lens:      slab(2000),
			target:    geometry.NewScreenRect(500, 8000, 8000),
			medium:    optics.NewMedium(1.5, 1.0),
			hSize:     800,
			wantStage: StageRefractIn,
			wantErr:   ErrInvalidRefraction,
		},
		{
			name:      "target missed",
			lens:      slab(400),
			target:    geometry.NewScreenRect(500, 10, 10),
			medium:    optics.NewMedium(optics.Air, optics.Glass),
			hSize:     60,
			wantStage: StageTarget,
			wantErr:   ErrNoIntersection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := slabOptions()
			opts.Medium = tt.medium
			rc := NewRaycaster(tt.lens, tt.target, opts)

			grid, err := SampleGrid(tt.hSize, 0, 3, 1, -10)
			if err != nil {
				t.Fatalf("SampleGrid() error = %v", err)
			}
			trace := rc.TraceGrid(grid, eye)

			if len(trace.Slots) != 3 {
				t.Fatalf("slots = %d, want 3", len(trace.Slots))
			}
			if !trace.Slots[1].OK() {
				t.Errorf("center sample failed: %v", trace.Slots[1].Err)
			}
			if trace.Failed() != 2 {
				t.Errorf("Failed() = %d, want 2", trace.Failed())
			}

			for _, i := range []int{0, 2} {
				slot := trace.Slots[i]
				if slot.Point != FailurePoint {
					t.Errorf("slot %d point = %v, want FailurePoint", i, slot.Point)
				}
				if !errors.Is(slot.Err, tt.wantErr) {
					t.Errorf("slot %d error = %v, want %v", i, slot.Err, tt.wantErr)
				}
				var se *SampleError
				if !errors.As(slot.Err, &se) {
					t.Fatalf("slot %d error is not a *SampleError", i)
				}
				if se.Index != i || se.Row != 0 || se.Col != i || se.Stage != tt.wantStage {
					t.Errorf("slot %d = %+v, want index %d col %d stage %s", i, se, i, i, tt.wantStage)
				}
			}
		})
	}
}

func TestTraceGridMissRaySegment(t *testing.T) {
	opts := slabOptions()
	opts.MissRayLength = 50
	rc := NewRaycaster(slab(400), geometry.NewScreenRect(500, 10, 10), opts)

	_, segs, stage, err := rc.TracePoint(eye, math3d.V3(30, 0, -10))
	if !errors.Is(err, ErrNoIntersection) || stage != StageTarget {
		t.Fatalf("TracePoint() = %v at %s, want target miss", err, stage)
	}
	last := segs[len(segs)-1]
	if last.Tag != SegmentExit {
		t.Errorf("last segment tag = %q, want exit", last.Tag)
	}
	if l := last.End.Distance(last.Start); math.Abs(l-50) > 1e-9 {
		t.Errorf("miss ray length = %v, want 50", l)
	}
}

func TestTraceGridSegmentsToggle(t *testing.T) {
	opts := slabOptions()
	opts.EmitSegments = false
	rc := NewRaycaster(slab(400), geometry.NewScreenRect(500, 4000, 4000), opts)

	grid, _ := SampleGrid(60, 60, 3, 3, -10)
	trace := rc.TraceGrid(grid, eye)
	if len(trace.Segments) != 0 {
		t.Errorf("segments = %d with EmitSegments off, want 0", len(trace.Segments))
	}
	if trace.Failed() != 0 {
		t.Errorf("Failed() = %d, want 0", trace.Failed())
	}
}

func TestTracePointBiconvexFocuses(t *testing.T) {
	// A converging lens bends off-axis rays toward the axis.
	lens := geometry.BiconvexLens(math3d.Zero3(), 100, 20)
	opts := DefaultOptions()
	opts.LensDepth = lens.Bounds().Size().Z
	rc := NewRaycaster(lens, geometry.NewScreenRect(500, 4000, 4000), opts)

	got, _, _, err := rc.TracePoint(eye, math3d.V3(10, 0, -10))
	if err != nil {
		t.Fatalf("TracePoint() error = %v", err)
	}
	straightX := 10 * 850.0 / 340.0
	if got.X >= straightX {
		t.Errorf("landing x = %v, want less than straight-line %v", got.X, straightX)
	}
}

func BenchmarkTraceGrid(b *testing.B) {
	rc := NewRaycaster(slab(400), geometry.NewScreenRect(500, 4000, 4000), slabOptions())
	grid, _ := SampleGrid(60, 60, 40, 40, -10)
	for b.Loop() {
		rc.TraceGrid(grid, eye)
	}
}
