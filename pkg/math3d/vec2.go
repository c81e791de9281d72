package math3d

// Vec2 is a texture coordinate, origin at the bottom-left of the image.
type Vec2 struct {
	X, Y float64
}

// V2 creates a Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{x, y}
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
