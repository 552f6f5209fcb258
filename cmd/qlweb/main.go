package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"qlweb/internal/brotherql"
	"qlweb/internal/config"
	"qlweb/internal/http/server"
	"qlweb/internal/infra/cache"
	"qlweb/internal/infra/events"
	"qlweb/internal/infra/fonts"
	"qlweb/internal/infra/logging"
	"qlweb/internal/infra/postgres"
	"qlweb/internal/infra/ratelimit"
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	Execute()
}

// Execute runs the root command and exits with its status.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

type options struct {
	configPath string
	overrides  config.Overrides
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "qlweb [printer]",
		Short:        "Web service to design and print labels on Brother QL printers",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.overrides.Printer = args[0]
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				_ = cmd.Usage()
				return &exitError{code: 2, err: err}
			}
			return run(cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "configuration file (default: $CONFIG_PATH, config.json, config.example.json)")
	f.IntVar(&opts.overrides.Port, "port", 0, "port to listen on")
	f.StringVar(&opts.overrides.LogLevel, "loglevel", "", "log level (DEBUG, INFO, WARNING, ERROR)")
	f.StringVar(&opts.overrides.FontFolder, "font-folder", "", "additional folder with .ttf/.otf fonts")
	f.StringVar(&opts.overrides.DefaultLabelSize, "default-label-size", "",
		"label size selected by default: "+strings.Join(brotherql.LabelIdentifiers(), ", "))
	f.StringVar(&opts.overrides.DefaultOrientation, "default-orientation", "", "label orientation selected by default (standard, rotated)")
	f.StringVar(&opts.overrides.Model, "model", "", "printer model: "+strings.Join(brotherql.ModelNames(), ", "))
	return cmd
}

// loadConfig reads the file, merges command line values and checks the
// result, including that the printer identifier names a usable backend.
func loadConfig(opts options) (config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Read(path)
	if err != nil {
		return config.Config{}, err
	}
	cfg.ApplyOverrides(opts.overrides)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	kind, err := brotherql.GuessBackend(cfg.Printer.Printer)
	if err != nil {
		return config.Config{}, err
	}
	if kind == brotherql.BackendUSB {
		return config.Config{}, fmt.Errorf("%w: %s", brotherql.ErrUnsupportedBackend, kind)
	}
	return cfg, nil
}

func run(cfg config.Config) error {
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Server.LogLevel,
	)
	logging.SetLogLevel(cfg.Server.LogLevel)

	dirs := fonts.SystemDirs()
	if extra := string(cfg.Server.AdditionalFontFolder); extra != "" {
		dirs = append(dirs, extra)
	}
	reg := fonts.Discover(dirs...)
	if reg.Len() == 0 {
		return &exitError{code: 2, err: errors.New("not a single font was found on your system, please install some or add a custom font folder")}
	}

	candidates := make([]fonts.Spec, 0, len(cfg.Label.DefaultFonts))
	for _, f := range cfg.Label.DefaultFonts {
		candidates = append(candidates, fonts.Spec(f))
	}
	def, _ := reg.SelectDefault(candidates)
	cfg.Label.DefaultFont = config.FontSpec(def)
	logging.Info("Fonts loaded", "count", reg.Len(), "default", def.String())

	deps := server.Deps{
		Config: cfg,
		Fonts:  reg,
		Store: ratelimit.NewStore(ratelimit.RedisConfig{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.RateLimitDB,
		}),
	}

	if cfg.Cache.RedisHost != "" && cfg.Cache.PreviewCacheEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.PreviewDB,
		})
		defer rdb.Close()
		deps.Cache = cache.NewPreview(rdb, cfg.Cache.PreviewTTL())
	}

	if cfg.Journal.Host != "" {
		dsn, err := postgres.DSN(cfg.Journal)
		if err != nil {
			return err
		}
		db := postgres.NewDB()
		defer db.Close()
		journal := postgres.NewJournal(db, dsn)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := journal.EnsureSchema(ctx); err != nil {
			logging.Warn("Print journal not ready", "error", err)
		}
		cancel()
		deps.Journal = journal
	}

	publisher := events.New(cfg.MQTT)
	if publisher.Enabled() {
		if err := publisher.Connect(5 * time.Second); err != nil {
			logging.Warn("MQTT connect failed", "error", err)
		}
		defer publisher.Close()
		deps.Events = publisher
	}

	app := server.New(deps)

	idleConnsClosed := make(chan struct{})
	startServer(app, cfg, idleConnsClosed)
	<-idleConnsClosed
	return nil
}

// startServer starts the Fiber app and listens for shutdown signals
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	// Listen for OS termination signals
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logging.Info("Listening", "addr", cfg.Server.Addr(), "printer", cfg.Printer.Printer, "model", cfg.Printer.Model)
		if err := app.Listen(cfg.Server.Addr()); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	<-sigint
	signal.Stop(sigint)

	logging.Warn("Shutdown signal received, closing server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
