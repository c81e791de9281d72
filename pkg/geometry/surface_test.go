package geometry

import (
	"math"
	"testing"

	"github.com/taigrr/anamorph/pkg/math3d"
)

const tol = 1e-9

func TestSphereRaycast(t *testing.T) {
	s := NewSphere(math3d.Zero3(), 2)

	tests := []struct {
		name       string
		ray        Ray
		wantHit    bool
		wantPoint  math3d.Vec3
		wantNormal math3d.Vec3
	}{
		{
			name:       "from outside",
			ray:        NewRay(math3d.V3(0, 0, -10), math3d.V3(0, 0, 1)),
			wantHit:    true,
			wantPoint:  math3d.V3(0, 0, -2),
			wantNormal: math3d.V3(0, 0, -1),
		},
		{
			name:       "from inside",
			ray:        NewRay(math3d.Zero3(), math3d.V3(1, 0, 0)),
			wantHit:    true,
			wantPoint:  math3d.V3(2, 0, 0),
			wantNormal: math3d.V3(1, 0, 0),
		},
		{
			name:    "pointing away",
			ray:     NewRay(math3d.V3(0, 0, 10), math3d.V3(0, 0, 1)),
			wantHit: false,
		},
		{
			name:    "miss",
			ray:     NewRay(math3d.V3(5, 0, -10), math3d.V3(0, 0, 1)),
			wantHit: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, ok := s.Raycast(tc.ray)
			if ok != tc.wantHit {
				t.Fatalf("hit = %v, want %v", ok, tc.wantHit)
			}
			if !ok {
				return
			}
			if !h.Point.ApproxEqual(tc.wantPoint, tol) {
				t.Errorf("point = %v, want %v", h.Point, tc.wantPoint)
			}
			if !h.Normal.ApproxEqual(tc.wantNormal, tol) {
				t.Errorf("normal = %v, want %v", h.Normal, tc.wantNormal)
			}
		})
	}
}

func TestBoxRaycastNormals(t *testing.T) {
	b := NewBox(math3d.Zero3(), math3d.V3(100, 100, 10))

	front, ok := b.Raycast(NewRay(math3d.V3(0, 0, -50), math3d.V3(0, 0, 1)))
	if !ok {
		t.Fatal("expected front hit")
	}
	if !front.Point.ApproxEqual(math3d.V3(0, 0, -5), tol) {
		t.Errorf("front point = %v", front.Point)
	}
	if !front.Normal.ApproxEqual(math3d.V3(0, 0, -1), tol) {
		t.Errorf("front normal = %v, want -Z", front.Normal)
	}

	// Backward ray from beyond the slab finds the back face, outward normal.
	back, ok := b.Raycast(NewRay(math3d.V3(0, 0, 50), math3d.V3(0, 0, -1)))
	if !ok {
		t.Fatal("expected back hit")
	}
	if !back.Point.ApproxEqual(math3d.V3(0, 0, 5), tol) {
		t.Errorf("back point = %v", back.Point)
	}
	if !back.Normal.ApproxEqual(math3d.V3(0, 0, 1), tol) {
		t.Errorf("back normal = %v, want +Z", back.Normal)
	}

	// From inside, the exit face.
	exit, ok := b.Raycast(NewRay(math3d.Zero3(), math3d.V3(0, 0, 1)))
	if !ok {
		t.Fatal("expected exit hit")
	}
	if !exit.Normal.ApproxEqual(math3d.V3(0, 0, 1), tol) {
		t.Errorf("exit normal = %v, want +Z", exit.Normal)
	}
}

func TestBiconvexLensThickness(t *testing.T) {
	lens := BiconvexLens(math3d.Zero3(), 50, 8)

	in, ok := lens.Raycast(NewRay(math3d.V3(0, 0, -100), math3d.V3(0, 0, 1)))
	if !ok {
		t.Fatal("expected entry hit")
	}
	if math.Abs(in.Point.Z+4) > tol {
		t.Errorf("entry z = %v, want -4", in.Point.Z)
	}

	out, ok := lens.Raycast(NewRay(math3d.V3(0, 0, 100), math3d.V3(0, 0, -1)))
	if !ok {
		t.Fatal("expected exit hit")
	}
	if math.Abs(out.Point.Z-4) > tol {
		t.Errorf("exit z = %v, want 4", out.Point.Z)
	}
	if out.Normal.Z <= 0 {
		t.Errorf("exit normal = %v, want outward (+Z)", out.Normal)
	}

	// Off-axis entry normal tilts away from the axis on a convex face.
	off, ok := lens.Raycast(NewRay(math3d.V3(10, 0, -100), math3d.V3(0, 0, 1)))
	if !ok {
		t.Fatal("expected off-axis hit")
	}
	if off.Normal.X <= 0 || off.Normal.Z >= 0 {
		t.Errorf("off-axis normal = %v, want +X and -Z components", off.Normal)
	}

	// Beyond the rim the two spheres no longer overlap.
	if _, ok := lens.Raycast(NewRay(math3d.V3(40, 0, -100), math3d.V3(0, 0, 1))); ok {
		t.Error("ray past the rim should miss")
	}
}

func TestPlanoConvexLens(t *testing.T) {
	lens := PlanoConvexLens(math3d.Zero3(), 40, 6)

	back, ok := lens.Raycast(NewRay(math3d.V3(5, 5, 100), math3d.V3(0, 0, -1)))
	if !ok {
		t.Fatal("expected flat back face hit")
	}
	if math.Abs(back.Point.Z-3) > tol {
		t.Errorf("back z = %v, want 3", back.Point.Z)
	}
	if !back.Normal.ApproxEqual(math3d.V3(0, 0, 1), tol) {
		t.Errorf("back normal = %v, want +Z", back.Normal)
	}

	front, ok := lens.Raycast(NewRay(math3d.V3(0, 0, -100), math3d.V3(0, 0, 1)))
	if !ok {
		t.Fatal("expected curved front hit")
	}
	if math.Abs(front.Point.Z+3) > tol {
		t.Errorf("front z = %v, want -3", front.Point.Z)
	}
}

func TestPlanoConvexLensBounds(t *testing.T) {
	b := PlanoConvexLens(math3d.Zero3(), 40, 6).Bounds()
	if got := b.Size().Z; math.Abs(got-6) > tol {
		t.Errorf("depth = %v, want 6", got)
	}
	rim := math.Sqrt(2*40*6 - 6*6)
	if math.Abs(b.Max.X-rim) > tol {
		t.Errorf("rim = %v, want %v", b.Max.X, rim)
	}
}

func TestRectRaycast(t *testing.T) {
	r := NewScreenRect(500, 300, 200)

	h, ok := r.Raycast(NewRay(math3d.V3(10, 20, 0), math3d.V3(0, 0, 1)))
	if !ok {
		t.Fatal("expected hit")
	}
	if !h.Point.ApproxEqual(math3d.V3(10, 20, 500), tol) {
		t.Errorf("point = %v", h.Point)
	}
	if h.Normal.Z >= 0 {
		t.Errorf("normal = %v, want facing the ray", h.Normal)
	}

	if _, ok := r.Raycast(NewRay(math3d.V3(160, 0, 0), math3d.V3(0, 0, 1))); ok {
		t.Error("point outside width should miss")
	}
	if _, ok := r.Raycast(NewRay(math3d.V3(0, 0, 0), math3d.V3(1, 0, 0))); ok {
		t.Error("parallel ray should miss")
	}

	b := r.Bounds()
	if !b.Min.ApproxEqual(math3d.V3(-150, -100, 500), tol) || !b.Max.ApproxEqual(math3d.V3(150, 100, 500), tol) {
		t.Errorf("bounds = %+v", b)
	}
}

func TestTransformedSurface(t *testing.T) {
	// A thin slab in local XZ, rotated -90° about X so it faces the Z axis.
	local := NewBox(math3d.Zero3(), math3d.V3(100, 4, 100))
	placed := NewTransformed(local, math3d.TRS(math3d.V3(0, 0, 20), math3d.V3(-90, 0, 0), math3d.V3(1, 1, 1)))

	h, ok := placed.Raycast(NewRay(math3d.V3(3, 3, -100), math3d.V3(0, 0, 1)))
	if !ok {
		t.Fatal("expected hit")
	}
	if math.Abs(h.Point.Z-18) > 1e-6 {
		t.Errorf("hit z = %v, want 18", h.Point.Z)
	}
	if !h.Normal.ApproxEqual(math3d.V3(0, 0, -1), 1e-6) {
		t.Errorf("normal = %v, want -Z", h.Normal)
	}

	size := placed.Bounds().Size()
	if math.Abs(size.Z-4) > 1e-6 {
		t.Errorf("bounds depth = %v, want 4", size.Z)
	}
}

func TestTriangleMeshRaycast(t *testing.T) {
	// Closed tetrahedron-free test: a unit square made of two triangles at z=1.
	m := NewTriangleMesh(
		[]math3d.Vec3{
			math3d.V3(-1, -1, 1), math3d.V3(1, -1, 1),
			math3d.V3(1, 1, 1), math3d.V3(-1, 1, 1),
		},
		[][3]int{{0, 1, 2}, {0, 2, 3}},
	)

	h, ok := m.Raycast(NewRay(math3d.V3(0.5, -0.5, -5), math3d.V3(0, 0, 1)))
	if !ok {
		t.Fatal("expected hit")
	}
	if !h.Point.ApproxEqual(math3d.V3(0.5, -0.5, 1), tol) {
		t.Errorf("point = %v", h.Point)
	}
	if !h.Normal.ApproxEqual(math3d.V3(0, 0, -1), tol) {
		t.Errorf("normal = %v, want facing the ray", h.Normal)
	}

	if _, ok := m.Raycast(NewRay(math3d.V3(2, 0, -5), math3d.V3(0, 0, 1))); ok {
		t.Error("ray outside the quad should miss")
	}
}

func TestGroupNearest(t *testing.T) {
	g := Group{
		NewScreenRect(10, 100, 100),
		NewScreenRect(5, 100, 100),
	}
	h, ok := g.Raycast(NewRay(math3d.Zero3(), math3d.V3(0, 0, 1)))
	if !ok {
		t.Fatal("expected hit")
	}
	if math.Abs(h.Point.Z-5) > tol {
		t.Errorf("nearest z = %v, want 5", h.Point.Z)
	}
}

func TestAABBHelpers(t *testing.T) {
	b := AABBFromPoints(math3d.V3(1, 2, 3), math3d.V3(-1, 5, 0))
	if !b.Min.ApproxEqual(math3d.V3(-1, 2, 0), tol) || !b.Max.ApproxEqual(math3d.V3(1, 5, 3), tol) {
		t.Errorf("AABBFromPoints = %+v", b)
	}
	if !EmptyAABB().IsEmpty() {
		t.Error("EmptyAABB should be empty")
	}
	if EmptyAABB().Size() != (math3d.Vec3{}) {
		t.Error("empty box should have zero size")
	}
	if !b.HitsRay(NewRay(math3d.V3(0, 3, -10), math3d.V3(0, 0, 1))) {
		t.Error("ray through the box should hit")
	}
	if b.HitsRay(NewRay(math3d.V3(0, 3, 10), math3d.V3(0, 0, 1))) {
		t.Error("box behind the ray should not hit")
	}
}

func BenchmarkBiconvexRaycast(b *testing.B) {
	lens := BiconvexLens(math3d.Zero3(), 50, 8)
	r := NewRay(math3d.V3(3, 2, -100), math3d.V3(0, 0, 1))

	for b.Loop() {
		_, _ = lens.Raycast(r)
	}
}

func TestPlaneRaycast(t *testing.T) {
	p := NewPlane(math3d.V3(0, 0, 5), math3d.V3(0, 0, 3))

	tests := []struct {
		name       string
		ray        Ray
		wantHit    bool
		wantT      float64
		wantNormal math3d.Vec3
	}{
		{"from below", NewRay(math3d.V3(1, 2, 0), math3d.V3(0, 0, 1)), true, 5, math3d.V3(0, 0, -1)},
		{"from above", NewRay(math3d.V3(0, 0, 9), math3d.V3(0, 0, -1)), true, 4, math3d.V3(0, 0, 1)},
		{"far off axis", NewRay(math3d.V3(1e6, -1e6, 0), math3d.V3(0, 0, 1)), true, 5, math3d.V3(0, 0, -1)},
		{"parallel", NewRay(math3d.V3(0, 0, 0), math3d.V3(1, 0, 0)), false, 0, math3d.Vec3{}},
		{"pointing away", NewRay(math3d.V3(0, 0, 0), math3d.V3(0, 0, -1)), false, 0, math3d.Vec3{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, ok := p.Raycast(tc.ray)
			if ok != tc.wantHit {
				t.Fatalf("hit = %v, want %v", ok, tc.wantHit)
			}
			if !ok {
				return
			}
			if math.Abs(h.T-tc.wantT) > tol {
				t.Errorf("t = %v, want %v", h.T, tc.wantT)
			}
			if !h.Normal.ApproxEqual(tc.wantNormal, tol) {
				t.Errorf("normal = %v, want %v", h.Normal, tc.wantNormal)
			}
		})
	}
}
