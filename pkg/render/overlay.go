package render

import (
	"github.com/taigrr/anamorph/pkg/anamorph"
	"github.com/taigrr/anamorph/pkg/geometry"
	"github.com/taigrr/anamorph/pkg/math3d"
)

// Overlay draws the debug geometry of a run on top of the rasterized scene:
// traced rays, grid markers, the target outline and the lens bounds.
type Overlay struct {
	rast *Rasterizer

	LineWidth    int
	SegmentColor map[anamorph.SegmentTag]Color
	MarkerColor  map[anamorph.MarkerKind]Color
}

// NewOverlay creates an overlay drawing through r.
func NewOverlay(r *Rasterizer) *Overlay {
	return &Overlay{
		rast:      r,
		LineWidth: 1,
		SegmentColor: map[anamorph.SegmentTag]Color{
			anamorph.SegmentPrimary:  ColorRed,
			anamorph.SegmentInternal: ColorBlue,
			anamorph.SegmentExit:     ColorYellow,
		},
		MarkerColor: map[anamorph.MarkerKind]Color{
			anamorph.MarkerVirtual:   ColorCyan,
			anamorph.MarkerRefracted: ColorMagenta,
			anamorph.MarkerEye:       ColorWhite,
		},
	}
}

// DrawSegments draws ray segments colored by tag.
func (o *Overlay) DrawSegments(segs []anamorph.Segment) {
	for _, s := range segs {
		c, ok := o.SegmentColor[s.Tag]
		if !ok {
			c = ColorGray
		}
		o.rast.DrawLine3DWidth(s.Start, s.End, c, o.LineWidth)
	}
}

// DrawMarkers draws each marker as a small cross of the given world size.
func (o *Overlay) DrawMarkers(markers []anamorph.Marker, size float64) {
	for _, m := range markers {
		c, ok := o.MarkerColor[m.Kind]
		if !ok {
			c = ColorGray
		}
		o.DrawPoint(m.Position, size, c)
	}
}

// DrawPoint draws a point as a small cross.
func (o *Overlay) DrawPoint(pos math3d.Vec3, size float64, color Color) {
	h := size / 2
	o.rast.DrawLine3D(math3d.V3(pos.X-h, pos.Y, pos.Z), math3d.V3(pos.X+h, pos.Y, pos.Z), color)
	o.rast.DrawLine3D(math3d.V3(pos.X, pos.Y-h, pos.Z), math3d.V3(pos.X, pos.Y+h, pos.Z), color)
	o.rast.DrawLine3D(math3d.V3(pos.X, pos.Y, pos.Z-h), math3d.V3(pos.X, pos.Y, pos.Z+h), color)
}

// DrawLoop draws a closed polyline, e.g. the target screen corners.
func (o *Overlay) DrawLoop(pts []math3d.Vec3, color Color) {
	for i := range pts {
		o.rast.DrawLine3D(pts[i], pts[(i+1)%len(pts)], color)
	}
}

// DrawBox draws the 12 edges of a box.
func (o *Overlay) DrawBox(b geometry.AABB, color Color) {
	if b.IsEmpty() {
		return
	}
	lo, hi := b.Min, b.Max
	v := [8]math3d.Vec3{
		{X: lo.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z},
	}
	edges := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	for _, e := range edges {
		o.rast.DrawLine3D(v[e[0]], v[e[1]], color)
	}
}

// DrawAxes draws the coordinate axes at the origin.
func (o *Overlay) DrawAxes(length float64) {
	origin := math3d.Zero3()
	o.rast.DrawLine3D(origin, math3d.V3(length, 0, 0), ColorRed)   // X axis
	o.rast.DrawLine3D(origin, math3d.V3(0, length, 0), ColorGreen) // Y axis
	o.rast.DrawLine3D(origin, math3d.V3(0, 0, length), ColorBlue)  // Z axis
}
