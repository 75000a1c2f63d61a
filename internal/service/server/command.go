package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	api "github.com/oshokin/alarm-orchestrator/internal/api/http/alarm"
	"github.com/oshokin/alarm-orchestrator/internal/auth"
	"github.com/oshokin/alarm-orchestrator/internal/config"
	"github.com/oshokin/alarm-orchestrator/internal/logger"
	"github.com/oshokin/alarm-orchestrator/internal/repository/trigger"
	"github.com/oshokin/alarm-orchestrator/internal/service/core"
	"github.com/oshokin/alarm-orchestrator/internal/service/fanout"
	"github.com/oshokin/alarm-orchestrator/internal/upstream/registry"
	"github.com/oshokin/alarm-orchestrator/internal/upstream/sink"
)

// Options controls the alarm-orchestrator process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the HTTP server.
	ListenAddress string
	// LedgerFile specifies the path to persist the trigger ledger JSON.
	LedgerFile string
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// shutdownTimeout bounds how long in-flight requests may run during shutdown.
const shutdownTimeout = 10 * time.Second

// Run starts the HTTP server and blocks until context is canceled or the
// server stops. Loads configuration first, then wires the upstream clients,
// the trigger ledger and the core service into the route tree.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarm-orchestrator")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	// Use LedgerFile from config unless overridden by command line option.
	ledgerFile := settings.LedgerFile
	if opts.LedgerFile != "" {
		ledgerFile = opts.LedgerFile
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	verifier, err := auth.NewVerifier(settings.AuthSecret)
	if err != nil {
		return fmt.Errorf("initialise verifier: %w", err)
	}

	registryClient, err := registry.NewClient(settings.RegistryURL,
		registry.WithCallTimeout(settings.Timeout))
	if err != nil {
		return fmt.Errorf("initialise registry client: %w", err)
	}

	logSink, notifySink, err := buildSinks(settings)
	if err != nil {
		return err
	}

	ledger, err := trigger.NewFile(ledgerFile)
	if err != nil {
		return fmt.Errorf("open trigger ledger: %w", err)
	}

	delegate := registry.NewDelegate(registryClient)
	effects := fanout.NewDispatcher(logSink, notifySink, delegate)
	service := core.NewService(delegate, ledger, effects)
	router := api.NewRouter(api.NewHandler(service), verifier)

	httpServer := &http.Server{
		Addr:              listenAddress,
		Handler:           router,
		ReadHeaderTimeout: settings.Timeout,
	}

	logger.InfoKV(ctx, "Alarm orchestrator listening",
		"listen_address", listenAddress,
		"ledger_file", ledgerFile,
		"registry_url", settings.RegistryURL)

	// Done channel is closed after Shutdown finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.WarnKV(ctx, "HTTP server shutdown", "error", shutdownErr)
		}

		close(done)
	}()

	if err = httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	<-done
	logger.Info(ctx, "HTTP server stopped")

	return nil
}

// buildSinks constructs the optional audit-log and notification sink clients.
// An empty endpoint disables the corresponding sink.
func buildSinks(settings *config.Config) (logSink, notifySink fanout.Sink, err error) {
	if settings.LogSinkURL != "" {
		client, clientErr := sink.NewClient(settings.LogSinkURL,
			sink.WithCallTimeout(settings.Timeout))
		if clientErr != nil {
			return nil, nil, fmt.Errorf("initialise log sink: %w", clientErr)
		}

		logSink = client
	}

	if settings.NotifySinkURL != "" {
		client, clientErr := sink.NewClient(settings.NotifySinkURL,
			sink.WithCallTimeout(settings.Timeout))
		if clientErr != nil {
			return nil, nil, fmt.Errorf("initialise notify sink: %w", clientErr)
		}

		notifySink = client
	}

	return logSink, notifySink, nil
}

// resolveListenAddress determines the listen address for the HTTP server.
// If override is provided, uses it directly. Otherwise extracts the port
// from configAddr and binds on all interfaces.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}
