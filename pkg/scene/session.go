package scene

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/taigrr/anamorph/pkg/anamorph"
)

// Session schedules pipeline runs for an interactive view. In live mode
// every Update recomputes at the clamped resolution; in static mode Update
// computes once at full resolution and then idles until Invalidate.
type Session struct {
	mu     sync.Mutex
	scene  *Scene
	live   bool
	dirty  bool
	logger *log.Logger

	result atomic.Pointer[anamorph.Result]
	runs   atomic.Int64
}

// NewSession builds cfg and returns a session that has not run yet.
func NewSession(cfg Config, logger *log.Logger) (*Session, error) {
	sc, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Session{scene: sc, live: cfg.LiveMode, dirty: true, logger: logger}, nil
}

// Update runs the pipeline if the mode calls for it and reports whether a
// new result was published. A failed run keeps the previous result.
func (s *Session) Update() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live && !s.dirty {
		return false, nil
	}
	s.dirty = false

	res, err := s.scene.Run(s.live, s.logger)
	if err != nil {
		s.logger.Error("anamorph run failed", "err", err)
		return false, err
	}
	s.result.Store(res)
	s.runs.Add(1)
	return true, nil
}

// Invalidate makes the next static Update recompute.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// SetLive switches scheduling mode. Leaving live mode schedules one
// full-resolution run.
func (s *Session) SetLive(live bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live && !live {
		s.dirty = true
	}
	s.live = live
	s.scene.Config.LiveMode = live
}

// Live reports the scheduling mode.
func (s *Session) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// SetConfig rebuilds the scene. On error the session is unchanged.
func (s *Session) SetConfig(cfg Config) error {
	sc, err := Build(cfg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.scene = sc
	s.live = cfg.LiveMode
	s.dirty = true
	s.mu.Unlock()
	return nil
}

// Config returns a copy of the current configuration.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.Config
}

// Scene returns the current built scene. It must not be modified.
func (s *Session) Scene() *Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene
}

// Result returns the last published result, or nil before the first run.
func (s *Session) Result() *anamorph.Result {
	return s.result.Load()
}

// Runs counts successful pipeline runs.
func (s *Session) Runs() int64 {
	return s.runs.Load()
}
