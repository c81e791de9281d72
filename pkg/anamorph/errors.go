package anamorph

import (
	"errors"
	"fmt"

	"github.com/taigrr/anamorph/pkg/optics"
)

var (
	// ErrNoIntersection is recorded when a ray misses the lens or the target.
	ErrNoIntersection = errors.New("no intersection")

	// ErrInvalidRefraction is recorded when a refraction step has no real
	// solution (total internal reflection).
	ErrInvalidRefraction = optics.ErrInvalidRefraction

	// ErrInvalidIndex is returned when the medium has a refractive index that
	// is not a positive finite number.
	ErrInvalidIndex = optics.ErrInvalidIndex

	// ErrInvalidOptions is returned for a negative or non-finite lens depth
	// or exit offset.
	ErrInvalidOptions = errors.New("invalid raycast options")

	// ErrDegenerateTriangle marks a triangle rejected by the mesh assembler.
	// It only appears in diagnostics; rejection is never returned as an error.
	ErrDegenerateTriangle = errors.New("degenerate triangle")

	// ErrInvalidGridDimensions is returned for negative counts, a single zero
	// count, or non-finite image sizes.
	ErrInvalidGridDimensions = errors.New("invalid grid dimensions")

	// ErrInvalidThreshold is returned when the triangle edge threshold is not
	// a positive number.
	ErrInvalidThreshold = errors.New("invalid distance threshold")

	// ErrOutOfBounds is returned by grid accessors for a row or column
	// outside the grid.
	ErrOutOfBounds = errors.New("grid index out of bounds")

	// ErrMissingSurface is returned when the lens or target is nil.
	ErrMissingSurface = errors.New("missing surface")
)

// Stage names the step of the raycast that failed for a sample.
type Stage string

const (
	StageEntry      Stage = "entry"
	StageRefractIn  Stage = "refract-in"
	StageExit       Stage = "exit"
	StageRefractOut Stage = "refract-out"
	StageTarget     Stage = "target"
)

// SampleError describes why one grid sample produced no mesh vertex.
type SampleError struct {
	Index    int
	Row, Col int
	Stage    Stage
	Err      error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d (row %d, col %d): %s: %v", e.Index, e.Row, e.Col, e.Stage, e.Err)
}

func (e *SampleError) Unwrap() error { return e.Err }
