package anamorph

import (
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"github.com/taigrr/anamorph/pkg/math3d"
	"github.com/taigrr/anamorph/pkg/models"
)

// Triangle holds three vertex indices into Mesh.Vertices.
type Triangle [3]int

// Mesh is the anamorphic surface: one vertex per grid sample, in grid order,
// with triangles only where neighbouring samples stay close together.
type Mesh struct {
	Rows, Cols int
	Vertices   []math3d.Vec3
	UVs        []math3d.Vec2
	Triangles  []Triangle

	// Dropped counts triangles rejected for a long edge or a failed corner.
	Dropped int
}

// BuildMesh triangulates a trace. Each grid cell yields up to two triangles;
// a triangle is dropped when its checked edge is at least threshold long or
// when one of its corners failed to trace or is not finite.
func BuildMesh(trace *Trace, threshold float64, logger *log.Logger) (*Mesh, error) {
	if math.IsNaN(threshold) || threshold <= 0 {
		return nil, fmt.Errorf("threshold %v: %w", threshold, ErrInvalidThreshold)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	rows, cols := trace.Rows, trace.Cols
	if len(trace.Slots) != rows*cols {
		return nil, fmt.Errorf("%d slots for %dx%d grid: %w", len(trace.Slots), rows, cols, ErrInvalidGridDimensions)
	}

	m := &Mesh{
		Rows:     rows,
		Cols:     cols,
		Vertices: trace.Points(),
		UVs:      make([]math3d.Vec2, rows*cols),
	}

	for i := range rows {
		v := uvCoord(i, rows)
		for j := range cols {
			m.UVs[i*cols+j] = math3d.V2(uvCoord(j, cols), v)
		}
	}

	idx := func(i, j int) int { return i*cols + j }

	for i := 0; i < rows-1; i++ {
		for j := 0; j < cols-1; j++ {
			a := Triangle{idx(i, j), idx(i+1, j), idx(i, j+1)}
			m.add(trace, a, idx(i, j), idx(i, j+1), threshold, logger)

			b := Triangle{idx(i+1, j), idx(i+1, j+1), idx(i, j+1)}
			m.add(trace, b, idx(i+1, j+1), idx(i+1, j), threshold, logger)
		}
	}

	return m, nil
}

// add appends t unless a corner failed or is not finite, or the edge p-q is
// not shorter than threshold.
func (m *Mesh) add(trace *Trace, t Triangle, p, q int, threshold float64, logger *log.Logger) {
	for _, c := range t {
		if !trace.Slots[c].OK() || !m.Vertices[c].IsFinite() {
			m.Dropped++
			logger.Debug("triangle dropped", "triangle", t, "err", ErrDegenerateTriangle, "reason", "failed corner", "vertex", c)
			return
		}
	}
	if d := m.Vertices[p].Distance(m.Vertices[q]); !(d < threshold) {
		m.Dropped++
		logger.Debug("triangle dropped", "triangle", t, "err", ErrDegenerateTriangle, "edge", d, "threshold", threshold)
		return
	}
	m.Triangles = append(m.Triangles, t)
}

func uvCoord(k, n int) float64 {
	if n <= 1 {
		return 0.5
	}
	return float64(k) / float64(n-1)
}

// ToModel converts the mesh into a renderable, exportable models.Mesh with
// smooth normals. Unreferenced vertices stay in place so indices match.
func (m *Mesh) ToModel(name string) *models.Mesh {
	out := models.NewMesh(name)
	out.Vertices = make([]models.MeshVertex, len(m.Vertices))
	for i, p := range m.Vertices {
		out.Vertices[i] = models.MeshVertex{Position: p, UV: m.UVs[i]}
	}
	out.Faces = make([]models.Face, len(m.Triangles))
	for i, t := range m.Triangles {
		out.Faces[i] = models.Face{V: t, Material: -1}
	}
	out.CalculateSmoothNormals()
	out.UpdateBounds()
	return out
}
