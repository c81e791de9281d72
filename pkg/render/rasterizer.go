// Package render draws the anamorphic mesh, the lens and the ray overlay into
// a software framebuffer that can be shown in a terminal or saved as PNG.
package render

import (
	"math"

	"github.com/taigrr/anamorph/pkg/geometry"
	"github.com/taigrr/anamorph/pkg/math3d"
)

// Vertex is a world-space triangle corner with its shading attributes.
type Vertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
	Color    Color
}

type Triangle struct {
	V [3]Vertex
}

// Rasterizer fills triangles and draws lines into a framebuffer through a
// camera, with a depth buffer for triangles.
type Rasterizer struct {
	camera *Camera
	fb     *Framebuffer
	depth  []float64

	// frustum is rebuilt whenever the camera's view-projection changes.
	frustum    Frustum
	frustumVP  math3d.Mat4
	frustumSet bool

	// TwoSided draws back faces too and lights them from either side.
	TwoSided bool
	Stats    DrawStats
}

// DrawStats counts meshes seen by the frustum test since the last reset.
type DrawStats struct {
	Tested, Culled, Drawn int
}

func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{camera: camera, fb: fb}
	r.Resize()
	return r
}

// Resize matches the depth buffer to the framebuffer.
func (r *Rasterizer) Resize() {
	r.depth = make([]float64, r.fb.Width*r.fb.Height)
	r.ClearDepth()
}

// ClearDepth resets every depth sample to +Inf. Call it once per frame.
func (r *Rasterizer) ClearDepth() {
	for i := range r.depth {
		r.depth[i] = math.Inf(1)
	}
}

func (r *Rasterizer) ResetStats() { r.Stats = DrawStats{} }

func (r *Rasterizer) depthAt(x, y int) float64 {
	if x < 0 || x >= r.fb.Width || y < 0 || y >= r.fb.Height {
		return math.Inf(1)
	}
	return r.depth[y*r.fb.Width+x]
}

// Visible reports whether box may intersect the camera's view volume.
func (r *Rasterizer) Visible(box geometry.AABB) bool {
	vp := r.camera.ViewProjectionMatrix()
	if !r.frustumSet || vp != r.frustumVP {
		r.frustum = FrustumFromMatrix(vp)
		r.frustumVP = vp
		r.frustumSet = true
	}
	return r.frustum.Intersects(box)
}

// screenVertex is a projected corner: pixel position, NDC depth, clip W
// for perspective correction.
type screenVertex struct {
	X, Y, Z, W float64
	UV         math3d.Vec2
}

// project moves a triangle to pixel space. ok is false when it lies wholly
// behind the camera, is degenerate, or is a culled back face. area2 is
// twice the signed pixel area, positive for front faces.
func (r *Rasterizer) project(tri Triangle) (sv [3]screenVertex, area2 float64, ok bool) {
	vp := r.camera.ViewProjectionMatrix()
	w, h := float64(r.fb.Width), float64(r.fb.Height)
	inFront := false

	for i, v := range tri.V {
		clip := vp.MulVec4(math3d.V4FromV3(v.Position, 1))
		inFront = inFront || clip.W > 0
		ndc := clip.PerspectiveDivide()
		sv[i] = screenVertex{
			X:  (ndc.X + 1) * 0.5 * w,
			Y:  (1 - ndc.Y) * 0.5 * h,
			Z:  ndc.Z,
			W:  clip.W,
			UV: v.UV,
		}
	}
	if !inFront {
		return sv, 0, false
	}

	area2 = (sv[1].X-sv[0].X)*(sv[2].Y-sv[0].Y) - (sv[1].Y-sv[0].Y)*(sv[2].X-sv[0].X)
	switch {
	case area2 == 0:
		return sv, 0, false
	case area2 < 0 && !r.TwoSided:
		return sv, area2, false
	}
	return sv, area2, true
}

// edge holds the line function a*x + b*y + c of the directed edge p->q. It
// is positive on the left of the edge.
type edge struct{ a, b, c float64 }

func newEdge(p, q screenVertex) edge {
	return edge{a: p.Y - q.Y, b: q.X - p.X, c: p.X*q.Y - q.X*p.Y}
}

func (e edge) at(x, y float64) float64 { return e.a*x + e.b*y + e.c }

// fill scans the triangle's pixel bounding box, stepping the edge functions
// incrementally. shade receives the barycentric weights of every covered
// pixel that passes the depth test.
func (r *Rasterizer) fill(sv [3]screenVertex, area2 float64, shade func(b0, b1, b2 float64) Color) {
	// Clamp before converting; far-off vertices overflow int.
	clamp := func(v float64, hi int) int { return int(math.Max(0, math.Min(float64(hi), v))) }
	lox, hix := min(sv[0].X, sv[1].X, sv[2].X), max(sv[0].X, sv[1].X, sv[2].X)
	loy, hiy := min(sv[0].Y, sv[1].Y, sv[2].Y), max(sv[0].Y, sv[1].Y, sv[2].Y)
	if hix < 0 || hiy < 0 || lox > float64(r.fb.Width) || loy > float64(r.fb.Height) {
		return
	}
	x0, x1 := clamp(math.Floor(lox), r.fb.Width-1), clamp(math.Ceil(hix), r.fb.Width-1)
	y0, y1 := clamp(math.Floor(loy), r.fb.Height-1), clamp(math.Ceil(hiy), r.fb.Height-1)
	if x0 > x1 || y0 > y1 {
		return
	}

	// Edge i is opposite vertex i.
	edges := [3]edge{newEdge(sv[1], sv[2]), newEdge(sv[2], sv[0]), newEdge(sv[0], sv[1])}
	inv := 1 / area2
	cx, cy := float64(x0)+0.5, float64(y0)+0.5
	var row [3]float64
	for i, e := range edges {
		row[i] = e.at(cx, cy) * inv
	}

	for y := y0; y <= y1; y++ {
		b := row
		for x := x0; x <= x1; x++ {
			// Scaled by 1/area2, the weights are non-negative inside for
			// either winding.
			if b[0] >= 0 && b[1] >= 0 && b[2] >= 0 {
				z := b[0]*sv[0].Z + b[1]*sv[1].Z + b[2]*sv[2].Z
				if i := y*r.fb.Width + x; z < r.depth[i] {
					r.depth[i] = z
					r.fb.SetPixel(x, y, shade(b[0], b[1], b[2]))
				}
			}
			for i := range b {
				b[i] += edges[i].a * inv
			}
		}
		for i := range row {
			row[i] += edges[i].b * inv
		}
	}
}

// intensity is ambient plus Lambert diffuse.
func (r *Rasterizer) intensity(n, light math3d.Vec3) float64 {
	d := n.Dot(light)
	if r.TwoSided {
		d = math.Abs(d)
	}
	return 0.3 + 0.7*math.Max(0, d)
}

// DrawTriangle fills tri with Gouraud shading in its vertex colors.
func (r *Rasterizer) DrawTriangle(tri Triangle, lightDir math3d.Vec3) {
	sv, area2, ok := r.project(tri)
	if !ok {
		return
	}

	light := lightDir.Normalize()
	var lit [3]math3d.Vec3
	for i, v := range tri.V {
		k := r.intensity(v.Normal, light)
		lit[i] = math3d.V3(float64(v.Color.R), float64(v.Color.G), float64(v.Color.B)).Scale(k)
	}

	r.fill(sv, area2, func(b0, b1, b2 float64) Color {
		c := lit[0].Scale(b0).Add(lit[1].Scale(b1)).Add(lit[2].Scale(b2))
		return RGB(uint8(c.X), uint8(c.Y), uint8(c.Z))
	})
}

// DrawTriangleTextured fills tri from tex with perspective-correct UVs,
// modulated by the interpolated lighting.
func (r *Rasterizer) DrawTriangleTextured(tri Triangle, tex *Texture, lightDir math3d.Vec3) {
	sv, area2, ok := r.project(tri)
	if !ok {
		return
	}

	light := lightDir.Normalize()
	var k, invW [3]float64
	for i, v := range tri.V {
		k[i] = r.intensity(v.Normal, light)
		if sv[i].W != 0 {
			invW[i] = 1 / sv[i].W
		}
	}

	r.fill(sv, area2, func(b0, b1, b2 float64) Color {
		w0, w1, w2 := b0*invW[0], b1*invW[1], b2*invW[2]
		sum := w0 + w1 + w2
		if sum == 0 {
			return tex.Sample(sv[0].UV.X, sv[0].UV.Y)
		}
		uv := sv[0].UV.Scale(w0).Add(sv[1].UV.Scale(w1)).Add(sv[2].UV.Scale(w2)).Scale(1 / sum)
		return MultiplyColor(tex.Sample(uv.X, uv.Y), b0*k[0]+b1*k[1]+b2*k[2])
	})
}
