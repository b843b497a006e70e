// Command oxy-msaa renders a GLB model and a skybox through a multisampled off-screen target,
// composites the resolved image to the window and shows a debug console on F1.
package main

import (
	"context"
	"os"
	"runtime"
)

func init() {
	// GLFW and the wgpu surface must stay on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
