package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexjbarnes/esi-proxy/internal/api"
	"github.com/alexjbarnes/esi-proxy/internal/auth"
	"github.com/alexjbarnes/esi-proxy/internal/config"
	"github.com/alexjbarnes/esi-proxy/internal/keyhash"
	"github.com/alexjbarnes/esi-proxy/internal/logging"
	"github.com/alexjbarnes/esi-proxy/internal/proxy"
	"github.com/alexjbarnes/esi-proxy/internal/server"
	"github.com/alexjbarnes/esi-proxy/internal/sso"
	"github.com/alexjbarnes/esi-proxy/internal/state"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the proxy and management API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.Environment, cfg.LogLevel)
	logger.Info("esi-proxy starting",
		slog.String("version", Version),
		slog.String("upstream", cfg.UpstreamHost),
		slog.Bool("debug_sso", cfg.EveDebugMode),
	)

	statePath, err := cfg.StatePath()
	if err != nil {
		return err
	}

	st, err := state.LoadAt(statePath)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	defer st.Close()

	keys, err := keyhash.Derive(cfg.KeySecret)
	if err != nil {
		return fmt.Errorf("deriving keys: %w", err)
	}

	accessKeys := state.NewAccessKeyStore(st, keyhash.NewHasher(keys.Hash))

	roots, err := proxy.LoadTrustStore(cfg.TrustStore, cfg.TrustStorePassword)
	if err != nil {
		return fmt.Errorf("loading trust store: %w", err)
	}

	transport := proxy.NewTransport(cfg.UpstreamTimeout, roots)
	upstreamClient := &http.Client{Transport: transport, Timeout: cfg.UpstreamTimeout}

	ssoClient := sso.New(sso.Config{
		ClientID:     cfg.EveClientID,
		ClientSecret: cfg.EveSecretKey,
		AuthURL:      cfg.EveAuthURL,
		TokenURL:     cfg.EveTokenURL,
		VerifyURL:    cfg.EveVerifyURL,
		RedirectURL:  cfg.AppPath + api.CallbackPath(api.SourceEVE),
	}, &http.Client{Timeout: cfg.UpstreamTimeout})

	proxyHandler := proxy.NewHandler(proxy.Options{
		UpstreamHost: cfg.UpstreamHost,
		Prefix:       cfg.RoutePrefix(),
		KeyName:      cfg.KeyName,
		HashName:     cfg.HashName,
		Transport:    transport,
		Logger:       logger.With(slog.String("component", "proxy")),
	},
		proxy.NewResolver(accessKeys, ssoClient, cfg.ExpiryWindow, logger),
		proxy.NewRegexRewriter(proxy.RewriteConfig{
			ProxyHost: cfg.ProxyHost,
			ProxyPort: cfg.ProxyPort,
			AppName:   cfg.AppName,
			KeyName:   cfg.KeyName,
			HashName:  cfg.HashName,
		}),
	)

	pending := auth.NewPendingStore(logger, cfg.TempStateLifetime, cfg.TempStateSweep)
	defer pending.Stop()

	sessions := auth.NewSessions(keys.CookieAuth, keys.CookieEncrypt, strings.HasPrefix(cfg.AppPath, "https://"))

	apiHandler := api.New(api.Options{
		AppPath:              cfg.AppPath,
		UpstreamHost:         cfg.UpstreamHost,
		Client:               upstreamClient,
		KeyLimit:             cfg.KeyLimit,
		RestrictLoginToAdmin: cfg.RestrictLoginToAdmin,
		IsAdmin:              cfg.IsAdmin,
		DebugMode:            cfg.EveDebugMode,
		DebugUser:            cfg.EveDebugUser,
		Version:              Version,
		BuildDate:            BuildDate,
		Logger:               logger.With(slog.String("component", "api")),
	}, st, accessKeys, ssoClient, pending, sessions)

	srv := server.New(cfg.ListenAddr, server.NewRouter(server.RouterConfig{
		Prefix: cfg.RoutePrefix(),
		API:    apiHandler.Routes(),
		Proxy:  proxyHandler,
		Logger: logger,
	}))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return pending.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("listening",
			slog.String("addr", cfg.ListenAddr),
			slog.String("prefix", cfg.RoutePrefix()),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
