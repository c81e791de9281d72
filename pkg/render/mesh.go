package render

import (
	"math"

	"github.com/taigrr/anamorph/pkg/geometry"
	"github.com/taigrr/anamorph/pkg/math3d"
)

// Mesh is what the rasterizer needs from a triangle mesh. models.Mesh
// satisfies it.
type Mesh interface {
	TriangleCount() int
	Face(i int) [3]int
	Vertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	Bounds() (lo, hi math3d.Vec3)
}

// culled tests the transformed bounds of mesh against the view volume and
// records the outcome in Stats.
func (r *Rasterizer) culled(mesh Mesh, transform math3d.Mat4) bool {
	r.Stats.Tested++
	if !r.Visible(geometry.NewAABB(mesh.Bounds()).Transform(transform)) {
		r.Stats.Culled++
		return true
	}
	r.Stats.Drawn++
	return false
}

func worldTriangle(mesh Mesh, i int, transform math3d.Mat4, color Color) Triangle {
	var tri Triangle
	for k, vi := range mesh.Face(i) {
		p, n, uv := mesh.Vertex(vi)
		tri.V[k] = Vertex{
			Position: transform.MulVec3(p),
			Normal:   transform.MulVec3Dir(n).Normalize(),
			UV:       uv,
			Color:    color,
		}
	}
	return tri
}

// DrawMesh fills mesh in a single lit color.
func (r *Rasterizer) DrawMesh(mesh Mesh, transform math3d.Mat4, color Color, lightDir math3d.Vec3) {
	if r.culled(mesh, transform) {
		return
	}
	for i := range mesh.TriangleCount() {
		r.DrawTriangle(worldTriangle(mesh, i, transform, color), lightDir)
	}
}

// DrawMeshTextured fills mesh from tex through its vertex UVs.
func (r *Rasterizer) DrawMeshTextured(mesh Mesh, transform math3d.Mat4, tex *Texture, lightDir math3d.Vec3) {
	if r.culled(mesh, transform) {
		return
	}
	for i := range mesh.TriangleCount() {
		r.DrawTriangleTextured(worldTriangle(mesh, i, transform, ColorWhite), tex, lightDir)
	}
}

// DrawMeshWireframe outlines every triangle of mesh.
func (r *Rasterizer) DrawMeshWireframe(mesh Mesh, transform math3d.Mat4, color Color) {
	if r.culled(mesh, transform) {
		return
	}
	for i := range mesh.TriangleCount() {
		v := worldTriangle(mesh, i, transform, color).V
		for k := range 3 {
			r.DrawLine3D(v[k].Position, v[(k+1)%3].Position, color)
		}
	}
}

// DrawLine3D draws a world-space line, clipped at the camera plane. Lines
// skip the depth test so the overlay is never hidden.
func (r *Rasterizer) DrawLine3D(a, b math3d.Vec3, color Color) {
	r.DrawLine3DWidth(a, b, color, 1)
}

// DrawLine3DWidth draws the line width pixels thick by repeating it on
// alternating sides of the center.
func (r *Rasterizer) DrawLine3DWidth(a, b math3d.Vec3, color Color, width int) {
	vp := r.camera.ViewProjectionMatrix()
	ca := vp.MulVec4(math3d.V4FromV3(a, 1))
	cb := vp.MulVec4(math3d.V4FromV3(b, 1))

	const minW = 1e-6
	switch {
	case ca.W <= minW && cb.W <= minW:
		return
	case ca.W <= minW:
		ca = ca.Lerp(cb, (minW-ca.W)/(cb.W-ca.W))
	case cb.W <= minW:
		cb = cb.Lerp(ca, (minW-cb.W)/(ca.W-cb.W))
	}

	// Segments that project far off screen would keep Bresenham busy.
	lim := float64(4 * (r.fb.Width + r.fb.Height))
	fx0, fy0 := r.pixel(ca)
	fx1, fy1 := r.pixel(cb)
	for _, c := range [4]float64{fx0, fy0, fx1, fy1} {
		if !(math.Abs(c) <= lim) {
			return
		}
	}
	x0, y0, x1, y1 := int(fx0), int(fy0), int(fx1), int(fy1)

	steep := abs(y1-y0) >= abs(x1-x0)
	for k := range max(1, width) {
		d := (k + 1) / 2
		if k%2 == 0 {
			d = -d
		}
		if steep {
			r.fb.DrawLine(x0+d, y0, x1+d, y1, color)
		} else {
			r.fb.DrawLine(x0, y0+d, x1, y1+d, color)
		}
	}
}

func (r *Rasterizer) pixel(clip math3d.Vec4) (x, y float64) {
	ndc := clip.PerspectiveDivide()
	x = math.Round((ndc.X + 1) * 0.5 * float64(r.fb.Width))
	y = math.Round((1 - ndc.Y) * 0.5 * float64(r.fb.Height))
	return x, y
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
