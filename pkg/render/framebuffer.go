package render

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
)

// canvas is the RGBA pixel grid behind both framebuffers and textures.
// Reads outside the grid return transparent black and writes are dropped.
type canvas struct {
	Width, Height int
	img           *image.RGBA
}

func newCanvas(width, height int) canvas {
	return canvas{Width: width, Height: height, img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (c *canvas) SetPixel(x, y int, col Color) { c.img.SetRGBA(x, y, col) }

func (c *canvas) GetPixel(x, y int) Color { return c.img.RGBAAt(x, y) }

// Image exposes the backing image. It is not a copy.
func (c *canvas) Image() *image.RGBA { return c.img }

// Clear paints every pixel with col.
func (c *canvas) Clear(col Color) {
	draw.Draw(c.img, c.img.Rect, image.NewUniform(col), image.Point{}, draw.Src)
}

// Framebuffer is the render target. In the terminal each cell shows two
// rows of it, so its height is twice the row count.
type Framebuffer struct {
	canvas
}

func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{canvas: newCanvas(width, height)}
}

// Resize reallocates the buffer when the size changes. Contents are lost.
func (fb *Framebuffer) Resize(width, height int) {
	if width == fb.Width && height == fb.Height {
		return
	}
	fb.canvas = newCanvas(width, height)
}

// DrawLine draws a 1px line between two pixels (Bresenham).
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c Color) {
	dx, sx := x1-x0, 1
	if dx < 0 {
		dx, sx = -dx, -1
	}
	dy, sy := y1-y0, 1
	if dy < 0 {
		dy, sy = -dy, -1
	}
	dy = -dy

	for e := dx + dy; ; {
		fb.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// SavePNG writes the framebuffer to path.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, fb.img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
