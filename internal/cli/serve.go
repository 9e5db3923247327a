package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	httpadapter "github.com/aretw0/leynos/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// Servers returns the application server and, when a separate metrics address
// is configured, the metrics server. Without one, /metrics is served by the application.
func (a *App) Servers() (appSrv *http.Server, metricsSrv *http.Server) {
	cfg := a.Config.HTTP
	metrics := promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})

	opts := []httpadapter.Option{
		httpadapter.WithSessionCookie(cfg.SessionCookie, cfg.SecureCookie),
		httpadapter.WithMaxBodyBytes(cfg.MaxBodyBytes),
		httpadapter.WithLogger(a.Logger),
	}
	if cfg.MetricsAddr == "" {
		opts = append(opts, httpadapter.WithMetricsHandler(metrics))
	} else {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics)
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: cfg.ReadTimeout,
		}
	}

	appSrv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpadapter.NewHandler(a.Kernel, opts...),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return appSrv, metricsSrv
}

// Serve runs the HTTP servers until ctx is done, then shuts them down within
// the configured shutdown timeout.
func (a *App) Serve(ctx context.Context) error {
	appSrv, metricsSrv := a.Servers()
	servers := []*http.Server{appSrv}
	if metricsSrv != nil {
		servers = append(servers, metricsSrv)
	}

	listeners := make([]net.Listener, 0, len(servers))
	for _, srv := range servers {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		listeners = append(listeners, ln)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, srv := range servers {
		ln := listeners[i]
		a.Logger.Info("listening", "addr", ln.Addr().String())
		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.HTTP.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
				_ = srv.Close()
			}
		}
		a.Logger.Info("servers stopped", "cause", context.Cause(ctx))
		return errors.Join(errs...)
	})

	return g.Wait()
}
