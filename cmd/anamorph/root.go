package main

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/taigrr/anamorph/pkg/scene"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	verbose    bool
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "anamorph",
		Short: "Generate anamorphic prints that look right through a lens",
		Long: "anamorph traces sight lines from an eye through a refracting lens onto a\n" +
			"flat target and builds the distorted mesh that, printed on the target,\n" +
			"appears as an undistorted image when viewed through the lens.",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "scene config file (JSON)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug details")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "log errors only")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	root.AddCommand(
		newBuildCmd(opts),
		newViewCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// logger returns a leveled logger writing to w.
func (o *rootOptions) logger(w io.Writer) *log.Logger {
	l := log.NewWithOptions(w, log.Options{Prefix: "anamorph"})
	switch {
	case o.verbose:
		l.SetLevel(log.DebugLevel)
	case o.quiet:
		l.SetLevel(log.ErrorLevel)
	}
	return l
}

// config loads the config file, or the defaults when none is given, and
// applies flag overrides on top.
func (o *rootOptions) config(fs *pflag.FlagSet, overrides *sceneFlags) (scene.Config, error) {
	cfg := scene.Default()
	if o.configPath != "" {
		var err error
		cfg, err = scene.Load(o.configPath)
		if err != nil {
			return cfg, err
		}
	}
	if overrides != nil {
		overrides.apply(fs, &cfg)
	}
	return cfg, cfg.Validate()
}
