package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/log"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"
	"github.com/taigrr/anamorph/pkg/anamorph"
	"github.com/taigrr/anamorph/pkg/math3d"
	"github.com/taigrr/anamorph/pkg/models"
	"github.com/taigrr/anamorph/pkg/render"
	"github.com/taigrr/anamorph/pkg/scene"
	"golang.org/x/sync/errgroup"
)

const viewHelp = `Controls:
  W/S/A/D, arrows  Orbit the camera
  +/-, scroll      Zoom
  C                Toggle orbit / target view
  L                Toggle live mode
  U                Update once (static mode)
  Y                Toggle rays
  G                Toggle grid markers
  O                Toggle lens outline
  X                Toggle axes
  [ / ]            Decrease / increase lens index
  R                Reset view
  ?                Toggle HUD
  Esc, Ctrl+C      Quit`

func newViewCmd(root *rootOptions) *cobra.Command {
	var (
		flags   sceneFlags
		fps     int
		logPath string
	)
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Preview the scene, rays and mesh in the terminal",
		Long:  "Interactive software-rendered preview of the lens, traced rays and anamorphic mesh.\n\n" + viewHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The renderer owns the screen, so logs go to a file or nowhere.
			var w io.Writer = io.Discard
			if logPath != "" {
				f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log: %w", err)
				}
				defer f.Close()
				w = f
			}
			logger := root.logger(w)

			cfg, err := root.config(cmd.Flags(), &flags)
			if err != nil {
				return err
			}
			if fps < 1 {
				return fmt.Errorf("fps must be positive, got %d", fps)
			}
			return runView(cmd.Context(), cfg, fps, logger)
		},
	}

	fs := cmd.Flags()
	flags.register(fs)
	fs.IntVar(&fps, "fps", 30, "target frames per second")
	fs.StringVar(&logPath, "log", "", "append logs to this file")
	return cmd
}

// springValue eases a value toward its target with a critically damped
// spring.
type springValue struct {
	Value    float64
	Target   float64
	velocity float64
	spring   harmonica.Spring
}

func newSpringValue(fps int, v float64) springValue {
	return springValue{
		Value:  v,
		Target: v,
		// Frequency 6 settles in a few frames, damping 1 never overshoots.
		spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
	}
}

func (s *springValue) Update() {
	s.Value, s.velocity = s.spring.Update(s.Value, s.velocity, s.Target)
}

// orbitState is the eased preview camera placement.
type orbitState struct {
	Yaw, Pitch, Distance springValue
	fps                  int
	home                 [3]float64
}

func newOrbitState(fps int, cfg scene.Config) *orbitState {
	o := &orbitState{fps: fps}
	o.home = [3]float64{0.9, 0.35, 1.3 * (cfg.TargetZ - cfg.EyeZ)}
	o.Reset()
	return o
}

func (o *orbitState) Reset() {
	o.Yaw = newSpringValue(o.fps, o.home[0])
	o.Pitch = newSpringValue(o.fps, o.home[1])
	o.Distance = newSpringValue(o.fps, o.home[2])
}

func (o *orbitState) Update() {
	o.Yaw.Update()
	o.Pitch.Update()
	o.Distance.Update()
}

func (o *orbitState) Rotate(dyaw, dpitch float64) {
	o.Yaw.Target += dyaw
	o.Pitch.Target = math.Max(-1.4, math.Min(1.4, o.Pitch.Target+dpitch))
}

func (o *orbitState) Zoom(factor float64) {
	o.Distance.Target = math.Max(50, math.Min(4500, o.Distance.Target*factor))
}

// viewState is the UI state shared by the input and frame loops.
type viewState struct {
	mu sync.Mutex

	orbit       *orbitState
	targetView  bool
	showHUD     bool
	showMarkers bool
	showLens    bool
	showAxes    bool
	status      string
}

// hud is the text overlay on the top and bottom terminal rows.
type hud struct {
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

func (h *hud) tick() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

func (h *hud) draw(scr uv.Screen, width, height int, cfg scene.Config, res *anamorph.Result, status string) {
	const (
		reset   = "\x1b[0m"
		bgBlack = "\x1b[40m"
		fgWhite = "\x1b[97m"
		fgGreen = "\x1b[92m"
		fgCyan  = "\x1b[96m"
		fgRed   = "\x1b[91m"
	)

	mode := "static"
	if cfg.LiveMode {
		mode = "live"
	}
	top := fmt.Sprintf("%s%s %.0f FPS %s%s %s lens  n %.2f/%.2f  %s ",
		bgBlack, fgGreen, h.fps, fgWhite, bgBlack, cfg.Lens.Kind, cfg.N1, cfg.N2, mode)
	if res != nil {
		top += fmt.Sprintf("%s %dx%d grid  %d tris  %d dropped  %d failed ",
			fgCyan, res.Mesh.Cols, res.Mesh.Rows, len(res.Mesh.Triangles), res.Mesh.Dropped, res.Trace.Failed())
	}
	uv.NewStyledString(top+reset).Draw(scr, uv.Rect(0, 0, width, 1))

	bottom := bgBlack + fgWhite + " L live  U update  Y rays  G markers  C camera  [ ] index  ? hud  Esc quit "
	if status != "" {
		bottom = bgBlack + fgRed + " " + status + " "
	}
	uv.NewStyledString(bottom+reset).Draw(scr, uv.Rect(0, height-1, width, 1))
}

func runView(ctx context.Context, cfg scene.Config, fps int, logger *log.Logger) error {
	session, err := scene.NewSession(cfg, logger)
	if err != nil {
		return err
	}
	tex, err := sourceTexture(cfg)
	if err != nil {
		return err
	}

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	defer term.Shutdown(context.Background())

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)
	_, _ = term.WriteString("\x1b[?1000h\x1b[?1006h") // button and SGR mouse for the wheel
	defer term.WriteString("\x1b[?1000l\x1b[?1006l")

	state := &viewState{
		orbit:       newOrbitState(fps, cfg),
		showHUD:     true,
		showMarkers: cfg.ShowGridMarkers,
		showLens:    true,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	resize := make(chan [2]int, 1)
	g.Go(func() error {
		return viewInput(ctx, cancel, term, session, state, resize, logger)
	})
	g.Go(func() error {
		return viewFrames(ctx, term, session, state, tex, fps, width, height, resize, logger)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// viewInput applies key and mouse events until quit or cancellation.
func viewInput(ctx context.Context, quit context.CancelFunc, term *uv.Terminal, session *scene.Session, state *viewState, resize chan<- [2]int, logger *log.Logger) error {
	const (
		yawStep   = 0.15
		pitchStep = 0.1
		nStep     = 0.02
	)

	// reconfigure rebuilds the scene with one field changed.
	reconfigure := func(change func(*scene.Config)) {
		cfg := session.Config()
		change(&cfg)
		if err := session.SetConfig(cfg); err != nil {
			logger.Warn("config rejected", "err", err)
			state.status = err.Error()
			return
		}
		state.status = ""
	}

	events := term.Events()
	for {
		var ev uv.Event
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				quit()
				return nil
			}
			ev = e
		}

		state.mu.Lock()
		switch ev := ev.(type) {
		case uv.WindowSizeEvent:
			select {
			case resize <- [2]int{ev.Width, ev.Height}:
			default:
			}

		case uv.KeyPressEvent:
			switch {
			case ev.MatchString("escape", "ctrl+c"):
				state.mu.Unlock()
				quit()
				return nil
			case ev.MatchString("w", "up"):
				state.orbit.Rotate(0, pitchStep)
			case ev.MatchString("s", "down"):
				state.orbit.Rotate(0, -pitchStep)
			case ev.MatchString("a", "left"):
				state.orbit.Rotate(-yawStep, 0)
			case ev.MatchString("d", "right"):
				state.orbit.Rotate(yawStep, 0)
			case ev.MatchString("+", "="):
				state.orbit.Zoom(0.9)
			case ev.MatchString("-", "_"):
				state.orbit.Zoom(1.1)
			case ev.MatchString("r"):
				state.orbit.Reset()
			case ev.MatchString("c"):
				state.targetView = !state.targetView
			case ev.MatchString("l"):
				session.SetLive(!session.Live())
			case ev.MatchString("u"):
				session.Invalidate()
			case ev.MatchString("y"):
				reconfigure(func(c *scene.Config) { c.ShowRays = !c.ShowRays })
			case ev.MatchString("g"):
				state.showMarkers = !state.showMarkers
			case ev.MatchString("o"):
				state.showLens = !state.showLens
			case ev.MatchString("x"):
				state.showAxes = !state.showAxes
			case ev.MatchString("["):
				reconfigure(func(c *scene.Config) { c.N2 = math.Max(nStep, c.N2-nStep) })
			case ev.MatchString("]"):
				reconfigure(func(c *scene.Config) { c.N2 += nStep })
			case ev.MatchString("?", "shift+/"):
				state.showHUD = !state.showHUD
			}

		case uv.MouseWheelEvent:
			switch ev.Button {
			case uv.MouseWheelUp:
				state.orbit.Zoom(0.9)
			case uv.MouseWheelDown:
				state.orbit.Zoom(1.1)
			}
		}
		state.mu.Unlock()
	}
}

// viewFrames runs the session and draws at a fixed frame rate.
func viewFrames(ctx context.Context, term *uv.Terminal, session *scene.Session, state *viewState, tex *render.Texture, fps, width, height int, resize <-chan [2]int, logger *log.Logger) error {
	fb := render.NewFramebuffer(width, height*2)
	camera := render.NewCamera()
	camera.SetAspectRatio(float64(fb.Width) / float64(fb.Height))
	rast := render.NewRasterizer(camera, fb)

	h := &hud{fpsTime: time.Now()}
	var (
		shown *anamorph.Result
		model *models.Mesh
	)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case size := <-resize:
			width, height = size[0], size[1]
			term.Erase()
			term.Resize(width, height)
			fb.Resize(width, height*2)
			rast.Resize()
			camera.SetAspectRatio(float64(fb.Width) / float64(max(1, fb.Height)))
			continue
		case <-ticker.C:
		}

		if _, err := session.Update(); err != nil {
			logger.Warn("update failed", "err", err)
		}
		res := session.Result()
		if res != shown && res != nil {
			shown, model = res, res.Mesh.ToModel("anamorph")
		}
		sc := session.Scene()
		cfg := sc.Config

		state.mu.Lock()
		state.orbit.Update()
		targetView := state.targetView
		opts := drawOptionsFor(cfg)
		opts.ShowMarkers = state.showMarkers
		opts.ShowLens = state.showLens
		opts.ShowAxes = state.showAxes
		showHUD, status := state.showHUD, state.status
		yaw, pitch, dist := state.orbit.Yaw.Value, state.orbit.Pitch.Value, state.orbit.Distance.Value
		state.mu.Unlock()

		cam := camera
		if targetView {
			cam = sc.MeshCamera()
			cam.SetAspectRatio(float64(fb.Width) / float64(max(1, fb.Height)))
			// Fit the whole screen whichever side is the tight one.
			cam.SetOrthoSize(math.Max(cfg.ScreenHeight, cfg.ScreenWidth/cam.AspectRatio) / 2)
		} else {
			center := math3d.V3(0, 0, (cfg.EyeZ+cfg.TargetZ)/2)
			camera.Orbit(center, dist, yaw, pitch)
		}
		r := rast
		if cam != camera {
			r = render.NewRasterizer(cam, fb)
		}

		fb.Clear(render.ColorBackground)
		r.ClearDepth()
		drawScene(r, sc, shown, model, tex, opts)

		fb.Draw(term, term.Bounds())
		h.tick()
		if showHUD {
			h.draw(term, width, height, cfg, shown, status)
		}
		if err := term.Display(); err != nil {
			return fmt.Errorf("display: %w", err)
		}
	}
}
