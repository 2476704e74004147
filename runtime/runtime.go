package runtime

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/InsulaLabs/sphere/config"
	"github.com/InsulaLabs/sphere/db/core"
	"github.com/InsulaLabs/sphere/db/tkv"
	"github.com/fatih/color"
)

// Runtime manages the execution of sphered: flags, configuration, signal
// handling and the lifetime of the store and HTTP service.
type Runtime struct {
	appCtx     context.Context
	appCancel  context.CancelFunc
	logger     *slog.Logger
	cfg        *config.Config
	configFile string
	rawArgs    []string

	store   tkv.TKV
	service *core.Core

	currentLogLevel slog.Level
}

// New parses flags, loads .env files and the configuration, and opens the
// store. With --new-cfg it only writes a fresh config file and the returned
// runtime's Run is a no-op.
func New(args []string, defaultConfigFile string) (*Runtime, error) {
	r := &Runtime{
		rawArgs: args,
	}

	r.appCtx, r.appCancel = context.WithCancel(context.Background())
	r.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("service", "sphereRuntime")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			r.logger.Info("Received signal, initiating shutdown...", "signal", sig)
			r.appCancel()
		case <-r.appCtx.Done():
		}
		signal.Stop(sigChan)
	}()

	var genConfigFile string
	var envFile string
	fs := flag.NewFlagSet("sphered", flag.ContinueOnError)
	fs.StringVar(&r.configFile, "config", defaultConfigFile, "Path to the configuration file.")
	fs.StringVar(&genConfigFile, "new-cfg", "", "Generate a new configuration file to a given path.")
	fs.StringVar(&envFile, "env", ".env", "Optional dotenv file with SPHERE_* overrides.")

	if err := fs.Parse(r.rawArgs); err != nil {
		r.appCancel()
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if genConfigFile != "" {
		defer r.appCancel()
		if err := writeGeneratedConfig(genConfigFile); err != nil {
			return nil, err
		}
		color.HiGreen("Wrote new configuration to %s", genConfigFile)
		r.logger.Info("Successfully generated new configuration file", "path", genConfigFile)
		return r, nil
	}

	if err := config.LoadEnvFiles(envFile); err != nil {
		r.appCancel()
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	var err error
	r.cfg, err = config.LoadConfig(r.configFile)
	if err != nil {
		r.appCancel()
		return nil, fmt.Errorf("failed to load configuration from %s: %w", r.configFile, err)
	}

	r.currentLogLevel = parseLevel(r.cfg.Logging.Level)
	r.logger = newLogger(os.Stderr, r.cfg.Logging.Format, r.currentLogLevel).With("service", "sphereRuntime")

	r.store, err = openStore(r.appCtx, r.logger, r.cfg, r.currentLogLevel)
	if err != nil {
		r.appCancel()
		return nil, fmt.Errorf("failed to open %s store: %w", r.cfg.Storage.Backend, err)
	}
	return r, nil
}

func writeGeneratedConfig(path string) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for config file %s: %w", path, err)
		}
	}
	if err := config.WriteConfig(config.GenerateConfig(), path); err != nil {
		return fmt.Errorf("failed to write generated configuration to %s: %w", path, err)
	}
	return nil
}

// Run wires the services, seeds the administrator and serves until the
// runtime is stopped or receives SIGINT/SIGTERM.
func (r *Runtime) Run() error {
	if r.cfg == nil {
		r.logger.Info("Runtime.Run called without a loaded config (e.g., after --new-cfg). Nothing to run.")
		return nil
	}
	defer r.closeStore()

	svcLogger := r.logger.WithGroup("service")
	svc, err := core.NewServices(svcLogger, r.store, r.cfg)
	if err != nil {
		return fmt.Errorf("failed to create services: %w", err)
	}

	if err := r.seedAdmin(svc); err != nil {
		return err
	}

	r.service, err = core.New(r.appCtx, svcLogger, r.cfg, svc)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	r.printBanner()
	r.service.Run()
	return nil
}

// seedAdmin creates the configured administrator when a password is set
// and the username is still free.
func (r *Runtime) seedAdmin(svc core.Services) error {
	admin := r.cfg.Admin
	if admin.Password == "" {
		r.logger.Info("No admin password configured, skipping admin seeding")
		return nil
	}
	created, err := svc.Identity.EnsureAdmin(r.appCtx, admin.Username, admin.Password, admin.Email)
	if err != nil {
		return fmt.Errorf("failed to seed admin %q: %w", admin.Username, err)
	}
	if created {
		color.HiYellow("Created administrator account %q", admin.Username)
		r.logger.Info("Seeded administrator account", "username", admin.Username)
	}
	return nil
}

func (r *Runtime) printBanner() {
	scheme := "http"
	if r.cfg.TLS.Cert != "" {
		scheme = "https"
	}
	color.HiCyan("sphere listening on %s://%s", scheme, r.cfg.HttpBinding)
	color.Cyan("  storage: %s", r.cfg.Storage.Backend)
	if r.cfg.Sessions.Required() {
		color.Cyan("  sessions: enforced")
	} else {
		color.HiYellow("  sessions: not enforced, any caller may act as any user")
	}
}

func (r *Runtime) closeStore() {
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.logger.Error("Failed to close store", "error", err)
		return
	}
	r.logger.Info("Store closed")
}

// Wait blocks until the runtime's context is cancelled.
func (r *Runtime) Wait() {
	<-r.appCtx.Done()
	r.logger.Info("Runtime has been shut down.")
}

// Stop cancels the runtime's context, which shuts the HTTP server down.
func (r *Runtime) Stop() {
	r.logger.Info("Runtime stop requested.")
	r.appCancel()
}

func (r *Runtime) Config() *config.Config {
	return r.cfg
}
