// anamorph - anamorphic print generator
// Traces a grid of sight lines from an eye through a lens onto a flat target
// and builds the distorted mesh that looks undistorted through the lens.
//
// Commands:
//
//	build        - Trace the scene and export the mesh as glTF/GLB
//	view         - Interactive terminal preview
//	config init  - Write the default scene config
//	config show  - Print the effective scene config
package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
)

var version = "dev"

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}
