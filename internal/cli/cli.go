// Package cli implements the codexrender command-line interface.
//
// # Commands
//
//   - serve: run the HTTP API
//   - render: render one entry to the output directory, a file or stdout
//   - entries: list, show and import entry documents
//   - templates: list the available templates
//   - config: print the effective configuration or write a default file
//
// Every command loads configuration the same way: the file named by
// --config (or $CODEXRENDER_CONFIG), then MEDIA_ROOT, RENDER_OUT and PORT
// from the environment. --verbose (-v) forces debug logging.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/codexrender/pkg/buildinfo"
	"github.com/matzehuels/codexrender/pkg/cache"
	"github.com/matzehuels/codexrender/pkg/config"
	"github.com/matzehuels/codexrender/pkg/entry"
	"github.com/matzehuels/codexrender/pkg/entry/mongostore"
	"github.com/matzehuels/codexrender/pkg/entry/redisstore"
	"github.com/matzehuels/codexrender/pkg/fonts"
	"github.com/matzehuels/codexrender/pkg/pipeline"
	"github.com/matzehuels/codexrender/pkg/sink"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "codexrender"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Getenv reads environment overrides. Tests replace it.
	Getenv func(string) string

	configPath string
	verbose    bool
	cfg        *config.Config
	logFile    io.Closer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Getenv: os.Getenv,
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Codexrender turns codex entries into share images",
		Long:         `Codexrender composes codex entries onto themed PNG templates and serves them over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $"+config.EnvConfigPath+")")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.entriesCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Close releases the log file, if one was opened.
func (c *CLI) Close() error {
	if c.logFile == nil {
		return nil
	}
	return c.logFile.Close()
}

// setup loads the configuration and applies its log settings.
func (c *CLI) setup() error {
	path := c.configPath
	if path == "" {
		path = c.Getenv(config.EnvConfigPath)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg.ApplyEnv(c.Getenv)
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	level := LogDebug
	if !c.verbose {
		if level, err = log.ParseLevel(cfg.Log.Level); err != nil {
			return err
		}
	}
	c.Logger.SetLevel(level)

	if cfg.Log.File != "" && c.logFile == nil {
		w := newLogFile(cfg.Log.File, cfg.Log.MaxSizeMB)
		c.Logger.SetOutput(w)
		c.logFile = w
	}
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// openStore connects the configured entry backend.
func (c *CLI) openStore(ctx context.Context) (entry.Store, error) {
	switch c.cfg.Store.Backend {
	case config.BackendRedis:
		s, err := redisstore.New(ctx, redisstore.Config{
			Addr:     c.cfg.Store.RedisAddr,
			Password: c.cfg.Store.RedisPassword,
			DB:       c.cfg.Store.RedisDB,
			Prefix:   c.cfg.Store.RedisPrefix,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendMongo:
		s, err := mongostore.New(ctx, mongostore.Config{
			URI:        c.cfg.Store.MongoURI,
			Database:   c.cfg.Store.MongoDatabase,
			Collection: c.cfg.Store.MongoCollection,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := entry.NewFileStore(c.cfg.CodexDir())
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func (c *CLI) newCache() (cache.Cache, error) {
	switch c.cfg.Cache.Backend {
	case config.CacheMemory:
		return cache.NewMemoryCache(c.cfg.Cache.MaxEntries), nil
	case config.CacheFile:
		fc, err := cache.NewFileCache(c.cfg.CacheDir())
		if err != nil {
			return nil, err
		}
		return fc, nil
	default:
		return cache.NewNullCache(), nil
	}
}

// newRunner wires the entry store, output sink, cache and fonts from the
// loaded configuration. The caller closes the runner.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	store, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	out, err := sink.NewFileSink(c.cfg.RenderOut(), c.cfg.Storage.MediaPrefix)
	if err != nil {
		store.Close()
		return nil, err
	}
	imgCache, err := c.newCache()
	if err != nil {
		store.Close()
		return nil, err
	}

	runner := pipeline.NewRunner(store, out, imgCache, c.Logger)
	runner.CacheTTL = c.cfg.CacheTTL()

	if runner.Fonts, err = fonts.Load(c.cfg.Render.RegularFont, c.cfg.Render.BoldFont); err != nil {
		runner.Close()
		return nil, err
	}
	mode, err := pipeline.ParseNaming(c.cfg.Render.Naming)
	if err != nil {
		runner.Close()
		return nil, err
	}
	runner.Namer = pipeline.NewNamer(mode)
	return runner, nil
}
