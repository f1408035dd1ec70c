// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/tunedeck/internal/api/httpapi"
	"github.com/osa030/tunedeck/internal/app/search"
	"github.com/osa030/tunedeck/internal/app/session"
	"github.com/osa030/tunedeck/internal/infra/config"
	"github.com/osa030/tunedeck/internal/infra/logger"
)

var (
	app        = kingpin.New("tunedeck-server", "tunedeck music player server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-providers command
	listProvidersCmd = app.Command("list-providers", "List the search providers that would be used and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	closeLog, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closeLog()

	zlog.Info().Msgf("server: loading config path=%s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("server: failed to load config error=%v", err)
	}

	if command == listProvidersCmd.FullCommand() {
		if err := printProviders(cfg); err != nil {
			zlog.Fatal().Msgf("server: %v", err)
		}
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("server: %v", err)
		closeLog()
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	sessionMgr, err := session.NewManager(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "failed to create session manager")
	}
	defer sessionMgr.Close()

	if err := sessionMgr.Start(); err != nil {
		return errors.Wrap(err, "failed to start session")
	}

	api := httpapi.New(sessionMgr, cfg.Server.CORSOrigin)

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(api.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("server: starting addr=%s", cfg.Server.Addr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the listener a moment before running hooks
	time.Sleep(100 * time.Millisecond)
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("server: received shutdown signal")
	case <-sessionMgr.Done():
		zlog.Info().Msg("server: session ended, shutting down")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close the session first so event streams terminate
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("server: failed to shutdown error=%v", err)
	}
	zlog.Info().Msg("server: stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")
	return nil
}

// printProviders prints the provider chain built from cfg.
func printProviders(cfg *config.Config) error {
	chain, err := search.NewProviderChainFromConfig(context.Background(), cfg.Search)
	if err != nil {
		return errors.Wrap(err, "failed to create search provider chain")
	}
	fmt.Println("Search providers (in fallback order):")
	for i, name := range chain.Providers() {
		fmt.Printf("  %d. %s\n", i+1, name)
	}
	fmt.Println("\nCategories:")
	for _, c := range search.Categories() {
		fmt.Printf("  %-12s - %s\n", c.ID, c.Description)
	}
	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("server: executing hooks stage=%s count=%d", stage, len(hooks))
	for _, hook := range hooks {
		zlog.Info().Msgf("server: executing hook command=%q", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("server: hook failed command=%q", hook)
		}
	}
}
