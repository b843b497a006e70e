package engine

import (
	"log/slog"
	"runtime"
	"runtime/debug"
)

// AppName is the application name written to the log and used as the default window title.
const AppName = "togl_demo"

// logSystemInfo writes the start-up system information block.
func logSystemInfo(log *slog.Logger) {
	log.Info("=== system info ===")
	log.Info("Application: " + AppName)
	log.Info("Build: " + buildName())
	log.Info("Platform: " + runtime.GOOS + "/" + runtime.GOARCH)
	log.Info("Go: " + runtime.Version())
}

// buildName describes the running binary from its embedded build information.
func buildName() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	name := info.Main.Path
	if name == "" {
		name = info.Path
	}
	if v := info.Main.Version; v != "" {
		name += " " + v
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			name += " (" + s.Value[:7] + ")"
		}
	}
	return name
}
