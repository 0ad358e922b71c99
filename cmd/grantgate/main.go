package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/grantgate/migrations"
	"github.com/dmitrymomot/grantgate/modules/auth"
	"github.com/dmitrymomot/grantgate/pkg/config"
	"github.com/dmitrymomot/grantgate/pkg/email"
	"github.com/dmitrymomot/grantgate/pkg/httpserver"
	"github.com/dmitrymomot/grantgate/pkg/logger"
	"github.com/dmitrymomot/grantgate/pkg/pg"
	"github.com/dmitrymomot/grantgate/pkg/redirect"
	"github.com/dmitrymomot/grantgate/pkg/session"
)

type appConfig struct {
	Log     logger.Config
	HTTP    httpserver.Config
	PG      pg.Config
	Session session.Config
	Email   email.Config
	Auth    auth.Config
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.NewFromConfig(cfg.Log, logger.WithService("grantgate"))
	logger.SetAsDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("service stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, migrations.FS, log); err != nil {
		return err
	}

	sessionStore := session.NewMemoryStore(cfg.Session.CleanupInterval)
	defer func() { _ = sessionStore.Close() }()
	sessions := session.New(
		session.WithStore(sessionStore),
		session.WithTransport(session.NewCookieTransport(cfg.Session.CookieName, cfg.Session.SecureCookies)),
		session.WithConfig(cfg.Session),
	)

	var sender email.EmailSender
	if cfg.Email.PostmarkServerToken != "" {
		sender, err = email.NewPostmarkClient(cfg.Email)
		if err != nil {
			return err
		}
	} else {
		log.Warn("no postmark token configured, writing emails to disk",
			slog.String("dir", cfg.Email.DevOutputDir))
		sender = email.NewDevSender(cfg.Email.DevOutputDir)
	}

	sanitizer := redirect.New(
		redirect.WithFallback(cfg.Auth.FallbackRedirect),
		redirect.WithLogger(log),
	)

	users := auth.NewPostgresUserStore(pool)
	links := auth.NewPostgresLinkStore(pool)
	notifier := auth.NewEmailNotifier(sender,
		auth.WithNotifierLogger(log),
		auth.WithNotifierTimeout(cfg.Auth.OutboundTimeout),
	)
	magic := auth.NewMagicLinkService(users, links, notifier, sanitizer, cfg.Auth.BaseURL,
		auth.WithMagicLinkTTL(cfg.Auth.MagicLinkTTL),
		auth.WithMagicLinkLogger(log),
	)

	handlerOpts := []auth.HandlerOption{
		auth.WithHandlerLogger(log),
		auth.WithMetrics(auth.NewMetrics(prometheus.DefaultRegisterer)),
	}
	if cfg.Auth.OIDCAuthority != "" {
		discoverCtx, cancel := context.WithTimeout(ctx, cfg.Auth.OutboundTimeout)
		provider, err := auth.NewOIDCProvider(discoverCtx, cfg.Auth)
		cancel()
		if err != nil {
			return err
		}
		handlerOpts = append(handlerOpts,
			auth.WithSSO(auth.NewSSOService(users, provider, sanitizer, auth.WithSSOLogger(log))))
	}

	handler := auth.NewHandler(magic, sessions, auth.MustNewViews(), sanitizer, cfg.Auth, handlerOpts...)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", httpserver.HealthCheckHandler(log, pg.Healthcheck(pool)))
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/", auth.Router(handler))

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}
