package anamorph

import (
	"fmt"
	"math"

	"github.com/taigrr/anamorph/pkg/math3d"
)

// Grid is a row-major set of sample points on the virtual image plane.
// Row 0 is the bottom row, column 0 the left column.
type Grid struct {
	Rows, Cols int
	Points     []math3d.Vec3
}

// Len returns the number of samples.
func (g *Grid) Len() int {
	return len(g.Points)
}

// Index returns the flat index of (row, col).
func (g *Grid) Index(row, col int) (int, error) {
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return 0, fmt.Errorf("row %d col %d in %dx%d grid: %w", row, col, g.Rows, g.Cols, ErrOutOfBounds)
	}
	return row*g.Cols + col, nil
}

// At returns the point at (row, col).
func (g *Grid) At(row, col int) (math3d.Vec3, error) {
	i, err := g.Index(row, col)
	if err != nil {
		return math3d.Vec3{}, err
	}
	return g.Points[i], nil
}

// RowCol converts a flat index back into (row, col).
func (g *Grid) RowCol(i int) (row, col int) {
	return i / g.Cols, i % g.Cols
}

// SampleGrid lays out cols × rows points covering an hSize × vSize rectangle
// centered on the Z axis at z = planeZ. A single row or column sits on the
// axis. 0×0 yields one point at the center, reported as a 1×1 grid.
func SampleGrid(hSize, vSize float64, cols, rows int, planeZ float64) (*Grid, error) {
	if err := checkGrid(hSize, vSize, cols, rows); err != nil {
		return nil, err
	}
	if math.IsNaN(planeZ) || math.IsInf(planeZ, 0) {
		return nil, fmt.Errorf("plane z %v: %w", planeZ, ErrInvalidGridDimensions)
	}

	if rows == 0 && cols == 0 {
		return &Grid{Rows: 1, Cols: 1, Points: []math3d.Vec3{math3d.V3(0, 0, planeZ)}}, nil
	}

	x0, dx := axis(hSize, cols)
	y0, dy := axis(vSize, rows)

	points := make([]math3d.Vec3, 0, rows*cols)
	for i := range rows {
		y := y0 + float64(i)*dy
		for j := range cols {
			points = append(points, math3d.V3(x0+float64(j)*dx, y, planeZ))
		}
	}

	return &Grid{Rows: rows, Cols: cols, Points: points}, nil
}

// axis returns the start coordinate and step for n samples over size.
func axis(size float64, n int) (start, step float64) {
	if n == 1 {
		return 0, 0
	}
	return -size / 2, size / float64(n-1)
}

func checkGrid(hSize, vSize float64, cols, rows int) error {
	if cols < 0 || rows < 0 || (cols == 0) != (rows == 0) {
		return fmt.Errorf("%d cols x %d rows: %w", cols, rows, ErrInvalidGridDimensions)
	}
	for _, s := range []float64{hSize, vSize} {
		if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
			return fmt.Errorf("image size %vx%v: %w", hSize, vSize, ErrInvalidGridDimensions)
		}
	}
	return nil
}
