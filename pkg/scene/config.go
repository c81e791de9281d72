// Package scene turns a JSON configuration into the lens, target and
// parameters of an anamorph run, and schedules runs in live or static mode.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/taigrr/anamorph/pkg/anamorph"
	"github.com/taigrr/anamorph/pkg/optics"
)

// LiveMaxResolution caps cols and rows while live mode recomputes every frame.
const LiveMaxResolution = 40

// ErrInvalidConfig wraps every configuration range violation.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full scene description. Positions are Z coordinates on the
// optical axis; the lens sits at the origin unless moved.
type Config struct {
	N1 float64 `json:"n1"`
	N2 float64 `json:"n2"`

	EyeZ           float64 `json:"eyePos"`
	VirtualScreenZ float64 `json:"virtualScreenPos"`
	TargetZ        float64 `json:"targetPos"`

	// Virtual image size on the virtual screen plane.
	HSize float64 `json:"hSize"`
	VSize float64 `json:"vSize"`

	// Physical target screen. TargetMargin extends the hit area on every
	// side so rays landing just off the screen still produce vertices.
	ScreenWidth  float64 `json:"screenWidth"`
	ScreenHeight float64 `json:"screenHeight"`
	TargetMargin float64 `json:"targetMargin"`

	Cols int `json:"cols"`
	Rows int `json:"rows"`

	OffsetPercentage  float64 `json:"offsetPercentage"`
	SecondRayOffset   float64 `json:"secondRayOffset"`
	DistanceThreshold float64 `json:"meshDistThreshold"`

	LiveMode        bool    `json:"liveMode"`
	ShowRays        bool    `json:"showRays"`
	ShowGridMarkers bool    `json:"showGridMarkers"`
	GridMarkerSize  float64 `json:"gridMarkerSize"`
	LineWidth       int     `json:"lineWidth"`

	// Image is printed on the mesh through its UVs; empty uses a UV grid.
	Image string `json:"image,omitempty"`

	Lens LensCfg `json:"lens"`
}

// Default returns the stock scene: a biconvex glass lens between an eye 350
// units in front of it and a 300x200 screen 500 units behind it.
func Default() Config {
	return Config{
		N1:                optics.Air,
		N2:                optics.Glass,
		EyeZ:              -350,
		VirtualScreenZ:    -10,
		TargetZ:           500,
		HSize:             60,
		VSize:             60,
		ScreenWidth:       300,
		ScreenHeight:      200,
		TargetMargin:      2000,
		Cols:              20,
		Rows:              20,
		OffsetPercentage:  0,
		SecondRayOffset:   5,
		DistanceThreshold: 100,
		LiveMode:          true,
		ShowRays:          true,
		ShowGridMarkers:   true,
		GridMarkerSize:    1,
		LineWidth:         1,
		Lens:              DefaultLens(),
	}
}

// Load reads a JSON config. Fields missing from the file keep their
// defaults; the result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg as indented JSON.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate reports every out-of-range field at once.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

	if !finite(c.N1) || c.N1 <= 0 {
		bad("n1 must be positive, got %v", c.N1)
	}
	if !finite(c.N2) || c.N2 <= 0 {
		bad("n2 must be positive, got %v", c.N2)
	}
	if !finite(c.EyeZ) || !finite(c.VirtualScreenZ) || !finite(c.TargetZ) {
		bad("positions must be finite")
	} else if c.EyeZ >= c.VirtualScreenZ {
		bad("eyePos %v must be in front of virtualScreenPos %v", c.EyeZ, c.VirtualScreenZ)
	}
	if c.Cols < 0 || c.Rows < 0 || (c.Cols == 0) != (c.Rows == 0) {
		errs = append(errs, fmt.Errorf("%dx%d grid: %w", c.Cols, c.Rows, anamorph.ErrInvalidGridDimensions))
	}
	if !finite(c.HSize) || !finite(c.VSize) || c.HSize < 0 || c.VSize < 0 {
		errs = append(errs, fmt.Errorf("image size %vx%v: %w", c.HSize, c.VSize, anamorph.ErrInvalidGridDimensions))
	}
	if !(c.DistanceThreshold > 0) || math.IsInf(c.DistanceThreshold, 1) {
		errs = append(errs, fmt.Errorf("meshDistThreshold %v: %w", c.DistanceThreshold, anamorph.ErrInvalidThreshold))
	}
	if !(c.ScreenWidth > 0) || !(c.ScreenHeight > 0) {
		bad("screen must have positive size, got %vx%v", c.ScreenWidth, c.ScreenHeight)
	}
	if !(c.TargetMargin >= 0) {
		bad("targetMargin must not be negative, got %v", c.TargetMargin)
	}
	if !(c.SecondRayOffset >= 0) {
		bad("secondRayOffset must not be negative, got %v", c.SecondRayOffset)
	}
	if !finite(c.OffsetPercentage) {
		bad("offsetPercentage must be finite")
	}
	if c.LineWidth < 1 {
		bad("lineWidth must be at least 1, got %d", c.LineWidth)
	}
	if !(c.GridMarkerSize > 0) {
		bad("gridMarkerSize must be positive, got %v", c.GridMarkerSize)
	}
	if err := c.Lens.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Resolution returns the grid size to sample. Live mode clamps both axes
// to LiveMaxResolution; the configured values are left untouched.
func (c Config) Resolution(live bool) (cols, rows int) {
	cols, rows = c.Cols, c.Rows
	if live {
		cols = min(cols, LiveMaxResolution)
		rows = min(rows, LiveMaxResolution)
	}
	return cols, rows
}

// Medium returns the crossing into the lens.
func (c Config) Medium() optics.Medium {
	return optics.NewMedium(c.N1, c.N2)
}
