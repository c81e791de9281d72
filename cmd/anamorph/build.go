package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/taigrr/anamorph/pkg/anamorph"
	"github.com/taigrr/anamorph/pkg/models"
	"github.com/taigrr/anamorph/pkg/scene"
	"golang.org/x/sync/errgroup"
)

var errNoTriangles = errors.New("no triangles survived")

type buildOptions struct {
	output   string
	png      string
	pngScale float64
}

func newBuildCmd(root *rootOptions) *cobra.Command {
	var (
		flags sceneFlags
		opts  buildOptions
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Trace the scene at full resolution and export the mesh",
		Example: "  anamorph build -o print.glb\n" +
			"  anamorph build --lens slab --image photo.png --png print.png",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := root.logger(cmd.ErrOrStderr())
			cfg, err := root.config(cmd.Flags(), &flags)
			if err != nil {
				return err
			}
			return runBuild(cfg, opts, logger)
		},
	}

	fs := cmd.Flags()
	flags.register(fs)
	fs.StringVarP(&opts.output, "output", "o", "anamorph.glb", "mesh file (.glb binary or .gltf JSON)")
	fs.StringVar(&opts.png, "png", "", "also write a PNG of the print as it lies on the target")
	fs.Float64Var(&opts.pngScale, "png-scale", 2, "PNG pixels per target unit")
	return cmd
}

func runBuild(cfg scene.Config, opts buildOptions, logger *log.Logger) error {
	sc, err := scene.Build(cfg)
	if err != nil {
		return err
	}
	if !(opts.pngScale > 0) {
		return fmt.Errorf("png scale must be positive, got %v", opts.pngScale)
	}

	res, err := sc.Run(false, logger)
	if err != nil {
		return err
	}
	failures := res.Trace.Errors()
	if len(res.Mesh.Triangles) == 0 {
		err := fmt.Errorf("%w: %d of %d samples failed", errNoTriangles, len(failures), len(res.Trace.Slots))
		if len(failures) > 0 {
			err = fmt.Errorf("%w, first: %w", err, failures[0])
		}
		return err
	}

	tex, err := sourceTexture(cfg)
	if err != nil {
		return err
	}
	model := printModel(res, tex)

	var g errgroup.Group
	g.Go(func() error {
		return models.WriteGLTF(opts.output, model)
	})
	if opts.png != "" {
		g.Go(func() error {
			return snapshot(sc, model, tex, opts.pngScale).SavePNG(opts.png)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("wrote mesh",
		"path", opts.output,
		"grid", fmt.Sprintf("%dx%d", res.Mesh.Cols, res.Mesh.Rows),
		"triangles", len(res.Mesh.Triangles),
		"dropped", res.Mesh.Dropped,
		"failed", len(failures))
	if len(failures) > 0 {
		logger.Warn("samples failed", "byStage", failuresByStage(failures))
	}
	if opts.png != "" {
		logger.Info("wrote snapshot", "path", opts.png)
	}
	return nil
}

// failuresByStage counts sample errors per raycast stage.
func failuresByStage(errs []error) map[anamorph.Stage]int {
	counts := make(map[anamorph.Stage]int)
	for _, err := range errs {
		var se *anamorph.SampleError
		if errors.As(err, &se) {
			counts[se.Stage]++
		}
	}
	return counts
}
