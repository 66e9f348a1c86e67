package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blogem/deskauth/authenticator"
	"github.com/blogem/deskauth/config"
	"github.com/blogem/deskauth/logging"
	"github.com/blogem/deskauth/metrics"
	"github.com/blogem/deskauth/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// app is what every command needs once configuration is loaded
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	manager *services.Manager
	close   func()
}

func newRootCmd() *cobra.Command {
	var (
		envFile     string
		metricsAddr string
	)

	root := &cobra.Command{
		Use:           "deskauth",
		Short:         "Sign in from the desktop through the system browser and a loopback redirect",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "file with DESKAUTH_* variables, ignored when missing")
	root.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")

	setup := func(ctx context.Context) (*app, error) {
		return newApp(ctx, envFile, metricsAddr)
	}

	root.AddCommand(newLoginCmd(setup), newMeCmd(setup))
	return root
}

func newLoginCmd(setup func(context.Context) (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Run the authorization flow and print the access token and profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return writeError(cmd.ErrOrStderr(), err)
			}
			defer a.close()

			fmt.Fprintf(cmd.ErrOrStderr(), "🔐 Waiting for the browser sign-in on http://127.0.0.1:%d/callback\n", a.cfg.RedirectPort)

			result, err := a.manager.StartOAuthFlow(cmd.Context())
			if err != nil {
				return writeError(cmd.ErrOrStderr(), err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "✅ Signed in as %s\n", result.User.DisplayName())
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newMeCmd(setup func(context.Context) (*app, error)) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "me",
		Short: "Print the profile behind an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("DESKAUTH_ACCESS_TOKEN")
			}
			if token == "" {
				return writeError(cmd.ErrOrStderr(), errors.New("an access token is required (--token or DESKAUTH_ACCESS_TOKEN)"))
			}

			a, err := setup(cmd.Context())
			if err != nil {
				return writeError(cmd.ErrOrStderr(), err)
			}
			defer a.close()

			user, err := a.manager.GetUserInfo(cmd.Context(), token)
			if err != nil {
				return writeError(cmd.ErrOrStderr(), err)
			}
			return writeJSON(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token (env DESKAUTH_ACCESS_TOKEN)")
	return cmd
}

// newApp loads configuration and wires the manager
func newApp(ctx context.Context, envFile, metricsAddr string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogEnv, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	recorder, err := metrics.New(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	closers := []func(){func() { _ = logger.Sync() }}
	if metricsAddr != "" {
		closers = append(closers, serveMetrics(metricsAddr, registry, logger))
	}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	client := &http.Client{Timeout: 30 * time.Second}
	endpoints := authenticator.DefaultEndpoints()
	if cfg.Issuer != "" {
		endpoints, err = authenticator.DiscoverEndpoints(ctx, cfg.Issuer, client)
		if err != nil {
			closeAll()
			return nil, err
		}
	}

	manager := services.NewManager(
		services.WithLogger(logger),
		services.WithMetrics(recorder),
		services.WithBrowser(services.SystemBrowser{}),
		services.WithHTTPClient(client),
		services.WithEndpoints(endpoints),
	)
	err = manager.Initialize(cfg.ClientID, cfg.ClientSecret, cfg.RedirectPort,
		services.WithRedirectURL(cfg.RedirectURL),
		services.WithCallbackTimeout(cfg.CallbackTimeout),
		services.WithStrictState(cfg.StrictState),
	)
	if err != nil {
		closeAll()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, manager: manager, close: closeAll}, nil
}

// serveMetrics exposes the registry until the returned func is called
func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeError prints err as JSON, keeping the error kind for callers that parse
// it, and returns err so the command exits non-zero.
func writeError(w io.Writer, err error) error {
	var authErr *authenticator.Error
	if errors.As(err, &authErr) {
		_ = writeJSON(w, map[string]interface{}{"error": authErr})
		return err
	}
	_ = writeJSON(w, map[string]interface{}{
		"error": map[string]interface{}{
			"kind":      "host",
			"message":   err.Error(),
			"retryable": false,
		},
	})
	return err
}
