package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-msaa/engine"
	"github.com/Carmen-Shannon/oxy-msaa/engine/config"
	"github.com/Carmen-Shannon/oxy-msaa/engine/logger"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps each command line flag onto its config key.
var flagKeys = map[string]string{
	"width":            "window.width",
	"height":           "window.height",
	"title":            "window.title",
	"msaa":             "render.msaa",
	"vsync":            "render.vsync",
	"fallback-adapter": "render.fallback_adapter",
	"wgpu-log-level":   "render.wgpu_log_level",
	"shader-dir":       "assets.shader_dir",
	"model":            "assets.model",
	"skybox-dir":       "assets.skybox_dir",
	"icon":             "assets.icon",
	"log-dir":          "log.dir",
	"log-level":        "log.level",
	"profile":          "profile",
}

func newRootCommand() *cobra.Command {
	v := config.NewViper()
	var configFile string

	cmd := &cobra.Command{
		Use:           "oxy-msaa",
		Short:         "Render a GLB model and a skybox through a multisampled off-screen target",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if configFile != "" {
				v.SetConfigFile(configFile)
			}
			return bindFlags(v, cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file (default ./"+config.FileName+".yaml)")
	flags.Int("width", v.GetInt("window.width"), "window width in pixels")
	flags.Int("height", v.GetInt("window.height"), "window height in pixels")
	flags.String("title", v.GetString("window.title"), "window title")
	flags.Int("msaa", v.GetInt("render.msaa"), "multisample count: 0, 2, 4 or 8")
	flags.Bool("vsync", v.GetBool("render.vsync"), "wait for vertical blank when presenting")
	flags.Bool("fallback-adapter", v.GetBool("render.fallback_adapter"), "force the software adapter")
	flags.String("wgpu-log-level", v.GetString("render.wgpu_log_level"), "native wgpu log level: off, error, warn, info, debug, trace")
	flags.String("shader-dir", v.GetString("assets.shader_dir"), "directory holding the WGSL programs")
	flags.String("model", v.GetString("assets.model"), "GLB model path")
	flags.String("skybox-dir", v.GetString("assets.skybox_dir"), "directory holding the six skybox faces")
	flags.String("icon", v.GetString("assets.icon"), "window icon path")
	flags.String("log-dir", v.GetString("log.dir"), "directory the run log is written to")
	flags.String("log-level", v.GetString("log.level"), "log level: debug, info, warn, error")
	flags.String("profile", v.GetString("profile"), "write a pprof profile for the run: cpu or mem")

	return cmd
}

// bindFlags binds every flag in flagKeys into v so explicitly set flags override file and env values.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}

// run opens the run log, starts the optional profiler and runs the engine until the window closes,
// the process is interrupted, or a fatal error occurs.
func run(ctx context.Context, cfg config.Config) error {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	runLog, err := logger.NewLogger(
		logger.WithDirectory(cfg.Log.Dir),
		logger.WithLevel(level),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer runLog.Close()
	slog.SetDefault(runLog.Slog())

	switch cfg.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.Log.Dir), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(cfg.Log.Dir), profile.Quiet).Stop()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng := engine.NewEngine(
		engine.WithConfig(cfg),
		engine.WithRunLog(runLog),
		engine.WithProfiling(cfg.Profile != ""),
	)
	return eng.Run(ctx)
}
