package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Color is the pixel type of framebuffers and textures.
type Color = color.RGBA

var (
	ColorBlack      = RGB(0, 0, 0)
	ColorWhite      = RGB(255, 255, 255)
	ColorRed        = RGB(255, 0, 0)
	ColorGreen      = RGB(0, 255, 0)
	ColorBlue       = RGB(0, 0, 255)
	ColorYellow     = RGB(255, 255, 0)
	ColorCyan       = RGB(0, 255, 255)
	ColorMagenta    = RGB(255, 0, 255)
	ColorGray       = RGB(128, 128, 128)
	ColorBackground = RGB(18, 18, 24)
	ColorGlass      = RGB(120, 180, 220)
)

func RGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b, A: 255} }

// upperHalf paints its top half in the foreground color and its bottom half
// in the background color, so one cell shows two framebuffer rows.
const upperHalf = "▀"

// Draw paints the framebuffer into area of scr, two pixel rows per cell.
// Pixels beyond the framebuffer are left untouched.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	cols := min(area.Dx(), fb.Width)
	rows := min(area.Dy(), (fb.Height+1)/2)
	for row := range rows {
		for col := range cols {
			scr.SetCell(area.Min.X+col, area.Min.Y+row, &uv.Cell{
				Content: upperHalf,
				Width:   1,
				Style: uv.Style{
					Fg: cellColor(fb.GetPixel(col, 2*row)),
					Bg: cellColor(fb.GetPixel(col, 2*row+1)),
				},
			})
		}
	}
}

// cellColor maps transparent pixels to the terminal default.
func cellColor(c Color) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}
