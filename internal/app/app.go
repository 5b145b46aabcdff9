// Package app wires configuration, transport, services and the store into a ready client.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"snapfeed/internal/apiclient"
	"snapfeed/internal/cache"
	"snapfeed/internal/config"
	"snapfeed/internal/observability"
	"snapfeed/internal/search"
	"snapfeed/internal/service"
	"snapfeed/internal/session"
	"snapfeed/internal/store"
)

// Version is stamped into traces.
var Version = "dev"

// Options overrides parts of the wiring, mostly for tests.
type Options struct {
	// Profile selects the stored credential set. Empty means "default".
	Profile string
	// Session replaces the sqlite credential store.
	Session    session.Store
	HTTPClient *http.Client
}

// App is a wired client.
type App struct {
	Config   *config.Config
	Client   *apiclient.Client
	Services *service.Services
	Store    *store.Store
	Cache    *cache.Cache
	Sessions session.Store

	closers []func(context.Context) error
}

// New builds an App from cfg. A configured but unreachable redis is logged and skipped.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	observability.SetLevel(cfg.LogLevel)
	log := observability.GlobalLogger.With("component", "app")

	a := &App{Config: cfg}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "snapfeed",
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		APIURL:         cfg.APIURL,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	a.closers = append(a.closers, shutdownTracing)

	c, err := cache.Connect(ctx, cfg.RedisURL, cfg.CacheTTL())
	if err != nil {
		log.WarnContext(ctx, "redis unavailable, caching disabled", slog.String("error", err.Error()))
	}
	a.Cache = c
	a.closers = append(a.closers, func(context.Context) error { return c.Close() })

	a.Sessions = opts.Session
	if a.Sessions == nil {
		db, err := session.OpenDB(cfg.SessionDBPath)
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("opening session database: %w", err)
		}
		a.Sessions = session.NewGormStore(db, opts.Profile)
		a.closers = append(a.closers, func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
	}

	// The client reads the token from the store, which is built on top of the client.
	var st *store.Store
	a.Client = apiclient.New(apiclient.Options{
		BaseURL:    cfg.APIURL,
		Timeout:    cfg.APITimeout(),
		HTTPClient: opts.HTTPClient,
		Tokens: apiclient.TokenFunc(func() string {
			if st == nil {
				return ""
			}
			return st.Token()
		}),
	})
	a.Services = service.New(a.Client, a.Cache)
	st = store.New(store.FromServices(a.Services), a.Sessions, store.Options{
		FeedPageSize:     cfg.FeedPageSize,
		ExplorePageSize:  cfg.ExplorePageSize,
		ProfilePageSize:  cfg.ProfilePageSize,
		CommentsPageSize: cfg.CommentsPageSize,
	})
	a.Client.SetOnUnauthorized(st.HandleUnauthorized)
	a.Services.Profile.SetViewer(st.ViewerID)
	a.Store = st

	return a, nil
}

// NewSearch returns a debounced user search over the app's services. Close it when done.
func (a *App) NewSearch() *search.Debouncer {
	return search.NewDebouncer(a.Services.Search.Users, a.Config.SearchDebounce())
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
