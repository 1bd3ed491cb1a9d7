/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package gateway is the Protocol Gateway: it terminates HTTP, upgrades
// per-client WebSocket connections, dispatches inbound events to the Room
// Registry/Engine, and exposes the REST surface for playlist parsing, the
// leaderboard, and playlist history. It generalizes the teacher's
// celebrity-game web.go/celebrity.go request plumbing to a single
// multi-room event protocol.
package gateway

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"soundoff/internal/collab"
	"soundoff/internal/registry"
)

// Config carries the gateway's HTTP-facing knobs — origin policy and the
// security-header behavior borrowed from the teacher's securityHeaders.
type Config struct {
	Prefix         string
	AllowedOrigins []string // empty means allow any origin
	TLSEnabled     bool
}

func (c Config) scheme() string {
	if c.TLSEnabled {
		return "https"
	}
	return "http"
}

// Gateway wires the registry and collaborator adapters to HTTP handlers.
type Gateway struct {
	cfg      Config
	registry *registry.Registry
	store    collab.Store
	verifier collab.TokenVerifier
	playlist collab.PlaylistProvider
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New builds a Gateway. Any of store/verifier/playlist may be nil; the
// corresponding REST endpoints degrade gracefully (503) when absent.
func New(cfg Config, reg *registry.Registry, store collab.Store, verifier collab.TokenVerifier, playlist collab.PlaylistProvider, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	gw := &Gateway{
		cfg:      cfg,
		registry: reg,
		store:    store,
		verifier: verifier,
		playlist: playlist,
		logger:   logger,
	}
	gw.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     gw.checkOrigin,
	}
	return gw
}

func (gw *Gateway) checkOrigin(r *http.Request) bool {
	if len(gw.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range gw.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func (gw *Gateway) securityHeaders(w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'")

	if gw.cfg.TLSEnabled {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

// Register installs every route this package serves onto mux.
func (gw *Gateway) Register(mux *httprouter.Router) {
	prefix := gw.cfg.Prefix

	mux.GET(prefix+"/healthz", gw.serveHealthCheck)
	mux.GET(prefix+"/ws", gw.serveWS)
	mux.GET(prefix+"/rooms/:code/qr", gw.serveRoomQR)
	mux.POST(prefix+"/api/parse-playlist", gw.serveParsePlaylist)
	mux.GET(prefix+"/api/leaderboard", gw.serveLeaderboard)
	mux.GET(prefix+"/api/playlist-history", gw.servePlaylistHistory)
}

func (gw *Gateway) serveHealthCheck(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	gw.securityHeaders(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Ok\n"))
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}
