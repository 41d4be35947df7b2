package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/yaml.v3"

	verrors "github.com/FocuswithJustin/versemem/core/errors"
	"github.com/FocuswithJustin/versemem/core/sqlite"
	"github.com/FocuswithJustin/versemem/internal/api"
	"github.com/FocuswithJustin/versemem/internal/config"
	"github.com/FocuswithJustin/versemem/internal/logging"
)

// ServeCmd starts the API server.
type ServeCmd struct {
	Port int  `help:"HTTP server port (default from config)"`
	Open bool `help:"Accept every origin, ignoring api.allowed_origins"`
}

func (c *ServeCmd) Run(rt *Runtime) error {
	cfg, err := rt.Config()
	if err != nil {
		return err
	}
	svc, err := rt.Service()
	if err != nil {
		return err
	}
	registry, err := rt.Registry()
	if err != nil {
		return err
	}
	provider, err := rt.Provider()
	if err != nil {
		return err
	}

	apiCfg := api.DefaultConfig()
	apiCfg.Port = cfg.API.Port
	if c.Port != 0 {
		apiCfg.Port = c.Port
	}
	if !c.Open {
		apiCfg.AllowedOrigins = cfg.API.AllowedOrigins
	}
	apiCfg.APIKey = cfg.API.APIKey
	apiCfg.RateLimitRequests = cfg.API.RateLimit
	if cfg.API.RateBurst > 0 {
		apiCfg.RateLimitBurst = cfg.API.RateBurst
	}
	apiCfg.Version = version

	srv, err := api.NewServer(svc, apiCfg,
		api.WithRegistry(registry),
		api.WithStore(provider.Store()),
		api.WithDownloader(provider))
	if err != nil {
		return err
	}

	if rt.manager.ConfigFile() != "" {
		rt.manager.OnChange(func(next *config.Config) {
			svc.SetMatchOptions(next.MatchOptions()...)
			logging.Info("configuration reloaded", "file", rt.manager.ConfigFile(),
				"tolerance_level", next.Matching.ToleranceLevel)
		})
		rt.manager.WatchConfig(func(err error) {
			logging.Warn("configuration reload rejected", "error", err)
		})
	}

	ctx, stop := signal.NotifyContext(rt.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(rt.out, "versemem API listening on :%d\n", apiCfg.Port)
	return srv.ListenAndServe(ctx)
}

// ConfigGroup contains configuration file operations.
type ConfigGroup struct {
	Init ConfigInitCmd `cmd:"" help:"Write a default config file"`
	Show ConfigShowCmd `cmd:"" help:"Print the effective configuration"`
}

// ConfigInitCmd writes the default configuration.
type ConfigInitCmd struct {
	Path  string `arg:"" optional:"" help:"Destination (default ~/.versemem/config.yaml)" type:"path"`
	Force bool   `help:"Overwrite an existing file"`
}

func (c *ConfigInitCmd) Run(rt *Runtime) error {
	path := c.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return verrors.NewIO("locate home directory", "", err)
		}
		path = filepath.Join(home, ".versemem", "config.yaml")
	}

	if _, err := os.Stat(path); err == nil && !c.Force {
		return verrors.WithHint(
			verrors.NewValidation("path", fmt.Sprintf("%s already exists", path)),
			"use --force to overwrite it")
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "wrote %s\n", path)
	return nil
}

// ConfigShowCmd prints the effective configuration as YAML.
type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(rt *Runtime) error {
	cfg, err := rt.Config()
	if err != nil {
		return err
	}
	if f := rt.manager.ConfigFile(); f != "" {
		fmt.Fprintf(rt.out, "# from %s\n", f)
	}

	shown := *cfg
	if shown.API.APIKey != "" {
		shown.API.APIKey = "********"
	}
	enc := yaml.NewEncoder(rt.out)
	enc.SetIndent(2)
	if err := enc.Encode(shown); err != nil {
		return err
	}
	return enc.Close()
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(rt *Runtime) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(rt.out, "versemem version %s\n", version)
	fmt.Fprintf(rt.out, "sqlite driver: %s (%s)\n", info.DriverName, info.Package)
	return nil
}
