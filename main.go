/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/spf13/cobra"

	"soundoff/internal/auth"
	"soundoff/internal/catalog"
	"soundoff/internal/config"
	"soundoff/internal/gateway"
	"soundoff/internal/playback"
	"soundoff/internal/registry"
	"soundoff/internal/room"
	"soundoff/internal/store"
)

func main() {
	log.SetFlags(0)
	cfg := &config.Config{}
	cobra.CheckErr(config.NewCommand(cfg, serve).Execute())
}

// serve wires a Config into the room registry, collaborator adapters, and
// the protocol gateway, then runs the HTTP server until interrupted. It
// plays the role of the teacher's ServePage, generalized to the larger
// collaborator graph this server assembles.
func serve(cfg *config.Config, args []string) error {
	logger := newLogger(cfg.Verbose)

	db, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	tokens := playback.NewTokenCache(time.Hour)

	catalogProvider := catalog.NewRestyProvider(catalog.Config{
		CatalogBaseURL: cfg.CatalogBaseURL,
		CatalogAPIKey:  cfg.CatalogAPIKey,
		VideoAPIKey:    cfg.VideoAPIKey,
		Timeout:        cfg.SearchTimeout,
	}, tokens)

	verifier := auth.NewBearerVerifier(auth.Config{
		IssuerURL: cfg.TokenIssuerURL,
		Timeout:   cfg.TokenVerifyTimeout.Seconds(),
	})

	resolver := playback.NewResolver(catalogProvider, playback.Config{
		SearchTimeout:    cfg.SearchTimeout,
		BreakerCooldown:  cfg.BreakerCooldown,
		BreakerThreshold: cfg.BreakerThreshold,
	})

	reg := registry.New(room.Deps{
		Resolver: resolver,
		Store:    db,
		Logger:   logger,
	})

	gw := gateway.New(gateway.Config{
		Prefix:         cfg.Prefix,
		AllowedOrigins: cfg.AllowedOrigins,
		TLSEnabled:     cfg.TLSCert != "" && cfg.TLSKey != "",
	}, reg, db, verifier, catalogProvider, logger)

	mux := httprouter.New()
	gw.Register(mux)

	if cfg.Profile {
		registerProfileHandlers(cfg, mux)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Bind, strconv.Itoa(cfg.Port)),
		Handler:           mux,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      0, // websocket connections are long-lived
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		logger.Info("listening", "scheme", cfg.Scheme(), "addr", srv.Addr, "prefix", cfg.Prefix)
		var err error
		if cfg.TLSCert != "" && cfg.TLSKey != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case <-ctx.Done():
	case err := <-errs:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func registerProfileHandlers(cfg *config.Config, mux *httprouter.Router) {
	mux.Handler("GET", cfg.Prefix+"/pprof/allocs", pprof.Handler("allocs"))
	mux.Handler("GET", cfg.Prefix+"/pprof/block", pprof.Handler("block"))
	mux.Handler("GET", cfg.Prefix+"/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handler("GET", cfg.Prefix+"/pprof/heap", pprof.Handler("heap"))
	mux.Handler("GET", cfg.Prefix+"/pprof/mutex", pprof.Handler("mutex"))
	mux.Handler("GET", cfg.Prefix+"/pprof/threadcreate", pprof.Handler("threadcreate"))
	mux.HandlerFunc("GET", cfg.Prefix+"/pprof/cmdline", pprof.Cmdline)
	mux.HandlerFunc("GET", cfg.Prefix+"/pprof/profile", pprof.Profile)
	mux.HandlerFunc("GET", cfg.Prefix+"/pprof/symbol", pprof.Symbol)
	mux.HandlerFunc("GET", cfg.Prefix+"/pprof/trace", pprof.Trace)
}
