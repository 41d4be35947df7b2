package main

import (
	"context"
	"io"
	"net/http"
	"path/filepath"

	"github.com/FocuswithJustin/versemem/core/books"
	"github.com/FocuswithJustin/versemem/core/cache"
	"github.com/FocuswithJustin/versemem/internal/config"
	"github.com/FocuswithJustin/versemem/internal/logging"
	"github.com/FocuswithJustin/versemem/internal/practice"
	"github.com/FocuswithJustin/versemem/internal/service"
	"github.com/FocuswithJustin/versemem/internal/source"
)

// Runtime lazily opens what a command needs and closes it afterwards.
type Runtime struct {
	*Globals
	ctx context.Context
	in  io.Reader
	out io.Writer
	err io.Writer

	manager  *config.Manager
	registry *source.Registry
	store    *source.Store
	provider *source.CachingProvider
	svc      *service.Service
	tracker  *practice.Tracker
}

func newRuntime(ctx context.Context, g *Globals, in io.Reader, out, errOut io.Writer) *Runtime {
	return &Runtime{Globals: g, ctx: ctx, in: in, out: out, err: errOut}
}

// Config loads the configuration and initializes logging on the error
// writer.
func (rt *Runtime) Config() (*config.Config, error) {
	if rt.manager == nil {
		m, err := config.NewManager(rt.ConfigFile)
		if err != nil {
			return nil, err
		}
		rt.manager = m

		cfg := m.Get()
		levelName := cfg.Log.Level
		if rt.LogLevel != "" {
			levelName = rt.LogLevel
		}
		level, err := logging.ParseLevel(levelName)
		if err != nil {
			return nil, err
		}
		format, err := logging.ParseFormat(cfg.Log.Format)
		if err != nil {
			return nil, err
		}
		logging.InitLoggerWithWriter(rt.err, level, format)
	}
	return rt.manager.Get(), nil
}

// Language is the --lang flag, else the configured display language.
func (rt *Runtime) Language() (books.Language, error) {
	if rt.Lang != "" {
		return books.Language(rt.Lang), nil
	}
	cfg, err := rt.Config()
	if err != nil {
		return "", err
	}
	return cfg.Language(), nil
}

// Registry returns the translation registry with configured overrides.
func (rt *Runtime) Registry() (*source.Registry, error) {
	if rt.registry == nil {
		cfg, err := rt.Config()
		if err != nil {
			return nil, err
		}
		rt.registry = source.NewRegistry(cfg.Sources.BaseURL, cfg.Sources.URLs)
	}
	return rt.registry, nil
}

// Store opens the download store under the data directory.
func (rt *Runtime) Store() (*source.Store, error) {
	if rt.store == nil {
		cfg, err := rt.Config()
		if err != nil {
			return nil, err
		}
		st, err := source.OpenStore(rt.ctx, cfg.StorePath(), cfg.Fetch.MinBytes)
		if err != nil {
			return nil, err
		}
		rt.store = st
	}
	return rt.store, nil
}

// Provider reads the store first, then sources.dir when set, then the
// network.
func (rt *Runtime) Provider() (*source.CachingProvider, error) {
	if rt.provider == nil {
		cfg, err := rt.Config()
		if err != nil {
			return nil, err
		}
		registry, err := rt.Registry()
		if err != nil {
			return nil, err
		}
		st, err := rt.Store()
		if err != nil {
			return nil, err
		}

		httpProvider := source.NewHTTPProvider(registry,
			source.WithClient(&http.Client{Timeout: cfg.Fetch.Timeout}),
			source.WithRetry(cfg.Fetch.Attempts, cfg.Fetch.Delay))

		var upstream source.Provider = httpProvider
		if cfg.Sources.Dir != "" {
			upstream = source.Chain(source.NewFileProvider(cfg.Sources.Dir), httpProvider)
		}
		rt.provider = source.NewCachingProvider(st, upstream)
	}
	return rt.provider, nil
}

// Service builds the corpus service from the configuration.
func (rt *Runtime) Service() (*service.Service, error) {
	if rt.svc == nil {
		cfg, err := rt.Config()
		if err != nil {
			return nil, err
		}
		provider, err := rt.Provider()
		if err != nil {
			return nil, err
		}
		lang, err := rt.Language()
		if err != nil {
			return nil, err
		}

		rt.svc = service.New(provider,
			service.WithCache(cache.NewCorpusCache(cache.Config{MaxSize: cfg.CacheSize})),
			service.WithTestaments(books.DefaultTestamentClassifier(cfg.Testaments.NewTestamentStems...)),
			service.WithLanguage(lang),
			service.WithMatchOptions(cfg.MatchOptions()...))
	}
	return rt.svc, nil
}

// Tracker opens the practice progress database.
func (rt *Runtime) Tracker() (*practice.Tracker, error) {
	if rt.tracker == nil {
		cfg, err := rt.Config()
		if err != nil {
			return nil, err
		}
		t, err := practice.OpenTracker(rt.ctx, filepath.Join(cfg.DataDir, "progress.db"))
		if err != nil {
			return nil, err
		}
		rt.tracker = t
	}
	return rt.tracker, nil
}

// Close releases open databases.
func (rt *Runtime) Close() error {
	var firstErr error
	if rt.tracker != nil {
		if err := rt.tracker.Close(); err != nil {
			firstErr = err
		}
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
