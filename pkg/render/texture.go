package render

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
)

// WrapMode decides what happens to texture coordinates outside [0,1].
type WrapMode int

const (
	WrapClamp WrapMode = iota
	WrapRepeat
)

type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterBilinear
)

// Texture is the source image painted onto the anamorphic mesh. UV (0,0)
// is the bottom-left corner of the image.
type Texture struct {
	canvas
	WrapU, WrapV WrapMode
	FilterMode   FilterMode
}

// NewTexture returns a transparent texture with clamped nearest sampling.
func NewTexture(width, height int) *Texture {
	return &Texture{canvas: newCanvas(width, height)}
}

// LoadTexture decodes a PNG or JPEG file.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return TextureFromImage(img), nil
}

// TextureFromImage copies img into a new texture.
func TextureFromImage(img image.Image) *Texture {
	b := img.Bounds()
	tex := NewTexture(b.Dx(), b.Dy())
	draw.Draw(tex.img, tex.img.Rect, img, b.Min, draw.Src)
	return tex
}

// NewUVGridTexture draws the stand-in source image used when none is given:
// a checkerboard tinted red along U and green along V, with a white border,
// so distortion and orientation are both readable on the mesh.
func NewUVGridTexture(size, cells int) *Texture {
	tex := NewTexture(size, size)
	check := max(1, size/max(1, cells))
	for y := range size {
		for x := range size {
			u := float64(x) / float64(size-1)
			v := 1 - float64(y)/float64(size-1)
			c := RGB(uint8(60+180*u), uint8(60+180*v), 120)
			if (x/check+y/check)%2 == 1 {
				c = MultiplyColor(c, 0.45)
			}
			if x == 0 || y == 0 || x == size-1 || y == size-1 {
				c = ColorWhite
			}
			tex.SetPixel(x, y, c)
		}
	}
	return tex
}

// Sample returns the color at (u, v).
func (t *Texture) Sample(u, v float64) Color {
	fx := wrapCoord(u, t.WrapU) * float64(t.Width)
	fy := (1 - wrapCoord(v, t.WrapV)) * float64(t.Height)

	if t.FilterMode != FilterBilinear {
		return t.GetPixel(min(int(fx), t.Width-1), min(int(fy), t.Height-1))
	}

	fx, fy = fx-0.5, fy-0.5
	x0, y0 := math.Floor(fx), math.Floor(fy)
	tx, ty := fx-x0, fy-y0
	px := [2]int{wrapPixel(int(x0), t.Width, t.WrapU), wrapPixel(int(x0)+1, t.Width, t.WrapU)}
	py := [2]int{wrapPixel(int(y0), t.Height, t.WrapV), wrapPixel(int(y0)+1, t.Height, t.WrapV)}

	top := lerpColor(t.GetPixel(px[0], py[0]), t.GetPixel(px[1], py[0]), tx)
	bot := lerpColor(t.GetPixel(px[0], py[1]), t.GetPixel(px[1], py[1]), tx)
	return lerpColor(top, bot, ty)
}

func wrapCoord(c float64, mode WrapMode) float64 {
	if mode == WrapRepeat {
		return c - math.Floor(c)
	}
	return math.Max(0, math.Min(1, c))
}

func wrapPixel(x, size int, mode WrapMode) int {
	if mode == WrapRepeat {
		return ((x % size) + size) % size
	}
	return max(0, min(x, size-1))
}

func lerpColor(a, b Color, t float64) Color {
	mix := func(p, q uint8) uint8 { return uint8(float64(p) + (float64(q)-float64(p))*t) }
	return Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// MultiplyColor scales the RGB channels by k, saturating at 255.
func MultiplyColor(c Color, k float64) Color {
	scale := func(p uint8) uint8 { return uint8(math.Min(255, float64(p)*k)) }
	return Color{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
}
