// Command postcode-demo serves a page with an embedded postcode search and
// a popup opener, both backed by one shared script loader.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pthm/hxpostcode"
	hxpostcodeecho "github.com/pthm/hxpostcode/adapters/echo"
	"github.com/pthm/hxpostcode/binding"
	"github.com/pthm/hxpostcode/internal/config"
	"github.com/pthm/hxpostcode/jsbridge"
	"github.com/pthm/hxpostcode/loader"
	"github.com/pthm/hxpostcode/widget"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc.Level = lvl
	return zc.Build()
}

func run(cfg config.Config, logger *zap.Logger) error {
	var key []byte
	if cfg.Server.Key != "" {
		k, err := hex.DecodeString(cfg.Server.Key)
		if err != nil {
			return errors.New("server.key must be hex encoded")
		}
		key = k
	} else {
		logger.Warn("server.key not set, using a random key")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	}))

	reg := hxpostcodeecho.Mount(e,
		hxpostcodeecho.WithKey(key),
		hxpostcodeecho.WithRegistryOptions(
			hxpostcode.WithRegistryLogger(logger.Named("registry")),
			hxpostcode.WithRateLimit(rate.Limit(20), 40),
		),
	)

	app := newApp(cfg, reg, logger)
	e.GET("/", app.handleIndex)
	e.GET("/selected", app.handleSelected)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Warm the shared loader so the first page view does not wait on the CDN.
	app.embed.Mount(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
	if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newApp wires the browser model: script fetches land in doc, the executor
// publishes the bridge constructor into globals, and both bindings share one
// loader.
func newApp(cfg config.Config, reg *hxpostcode.Registry, logger *zap.Logger) *app {
	globals := loader.NewGlobals()
	doc := loader.NewDocument()
	ctor := jsbridge.New(reg.EventURL)

	injector := loader.NewScriptInjector(doc,
		loader.NewHTTPFetcher(&http.Client{Timeout: cfg.Loader.Timeout}),
		jsbridge.NewExecutor(globals, ctor),
	).WithLogger(logger.Named("injector"))

	shared := loader.New(append(cfg.Loader.LoaderOptions(),
		loader.WithResolver(loader.NewNamespaceResolver(globals)),
		loader.WithInjector(injector),
		loader.WithLogger(logger.Named("loader")),
	)...)

	a := &app{reg: reg, doc: doc, logger: logger}

	opts := binding.Options{
		Options: widget.Options{
			OnComplete: a.complete,
			OnClose: func(s widget.CloseState) {
				logger.Debug("widget closed", zap.String("state", string(s)))
			},
		},
		OnError: func(err error) {
			logger.Warn("postcode load failed", zap.Error(err))
		},
		OnStateChange: func(s binding.State) {
			logger.Info("postcode state", zap.Stringer("status", s.Status))
		},
		DefaultQuery: cfg.Widget.DefaultQuery,
		AutoClose:    widget.Bool(cfg.Widget.AutoClose),
	}

	a.embed = binding.New(opts, binding.WithLoader(shared), binding.WithLogger(logger.Named("embed")))
	a.popup = binding.New(opts, binding.WithLoader(shared), binding.WithLogger(logger.Named("popup")))
	reg.Add(a.embed, a.popup)
	return a
}
