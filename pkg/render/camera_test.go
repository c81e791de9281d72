package render

import (
	"math"
	"testing"

	"github.com/taigrr/anamorph/pkg/math3d"
)

func TestOrthoCameraWorldToScreen(t *testing.T) {
	// 300x200 screen at z=500 seen by the mesh camera.
	cam := NewOrthoCamera(math3d.V3(0, 0, 490), math3d.V3(0, 0, 500), 100, 1.5)

	tests := []struct {
		name       string
		point      math3d.Vec3
		wantX      float64
		wantY      float64
		wantInView bool
	}{
		{"center", math3d.V3(0, 0, 500), 150, 100, true},
		{"near top edge", math3d.V3(0, 90, 500), 150, 10, true},
		{"depth does not scale", math3d.V3(0, 50, 900), 150, 50, true},
		{"outside", math3d.V3(0, 150, 500), 0, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x, y, _, ok := cam.WorldToScreen(tc.point, 300, 200)
			if ok != tc.wantInView {
				t.Fatalf("visible = %v, want %v", ok, tc.wantInView)
			}
			if ok && (math.Abs(x-tc.wantX) > 1e-6 || math.Abs(y-tc.wantY) > 1e-6) {
				t.Errorf("screen = (%v, %v), want (%v, %v)", x, y, tc.wantX, tc.wantY)
			}
		})
	}
}

func TestCameraOrbit(t *testing.T) {
	cam := NewCamera()
	target := math3d.V3(0, 0, 100)

	cam.Orbit(target, 500, 0, 0)
	if !cam.Position.ApproxEqual(math3d.V3(0, 0, -400), 1e-9) {
		t.Errorf("position = %v, want (0, 0, -400)", cam.Position)
	}
	if !cam.Forward().ApproxEqual(math3d.V3(0, 0, 1), 1e-9) {
		t.Errorf("forward = %v, want +Z", cam.Forward())
	}

	cam.Orbit(target, 500, math.Pi/2, math.Pi)
	if d := cam.Position.Distance(target); math.Abs(d-500) > 1e-9 {
		t.Errorf("distance = %v, want 500", d)
	}
	if f := cam.Forward(); f.Y > -0.99 {
		t.Errorf("forward = %v, want nearly straight down", f)
	}
	// Looking straight down still yields a usable view.
	cam.SetPosition(math3d.V3(0, 100, 0))
	cam.LookAt(math3d.Zero3())
	if _, _, _, ok := cam.WorldToScreen(math3d.Zero3(), 100, 100); !ok {
		t.Error("target should be visible when looking along the up vector")
	}
}
