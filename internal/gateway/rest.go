/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"soundoff/internal/model"
)

const restTimeout = 5 * time.Second

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type parsePlaylistRequest struct {
	URL       string `json:"url"`
	SongCount int    `json:"songCount"`
	Token     string `json:"token"`
}

type parsePlaylistResponse struct {
	Source         string                       `json:"source"`
	PlaylistID     string                       `json:"playlistId"`
	PlaylistName   string                       `json:"playlistName"`
	Total          int                          `json:"total"`
	Playable       int                          `json:"playable"`
	Tracks         []model.Track                `json:"tracks"`
	UpdatedHistory []model.PlaylistHistoryEntry `json:"updatedHistory,omitempty"`
}

// serveParsePlaylist implements §6.1's POST /api/parse-playlist.
func (gw *Gateway) serveParsePlaylist(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	gw.securityHeaders(w)

	if gw.playlist == nil {
		writeError(w, http.StatusServiceUnavailable, "playlist provider not configured")
		return
	}

	var req parsePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "missing url")
		return
	}
	if req.SongCount <= 0 {
		req.SongCount = 20
	}

	ctx, cancel := context.WithTimeout(r.Context(), restTimeout)
	defer cancel()

	result, err := gw.playlist.ParsePlaylist(ctx, req.URL, req.SongCount)
	if err != nil {
		status := http.StatusInternalServerError
		if isInputError(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	resp := parsePlaylistResponse{
		Source:       result.Source,
		PlaylistID:   result.PlaylistID,
		PlaylistName: result.PlaylistName,
		Total:        result.Total,
		Playable:     result.Playable,
		Tracks:       result.Tracks,
	}

	if req.Token != "" && gw.verifier != nil && gw.store != nil {
		userID, _, ok := gw.verifier.Verify(ctx, req.Token)
		if ok {
			entry := model.PlaylistHistoryEntry{
				URL:    req.URL,
				Name:   result.PlaylistName,
				Source: result.Source,
				Added:  time.Now(),
			}
			if err := gw.store.AppendRecentPlaylist(ctx, userID, entry); err == nil {
				if history, err := gw.store.GetRecentPlaylists(ctx, userID); err == nil {
					resp.UpdatedHistory = history
				}
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// isInputError distinguishes the provider's "unrecognized URL" class of
// failure from an upstream/transport failure, per §7's error taxonomy.
func isInputError(err error) bool {
	return strings.Contains(err.Error(), "unrecognized playlist url")
}

// serveLeaderboard implements §6.1's GET /api/leaderboard.
func (gw *Gateway) serveLeaderboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	gw.securityHeaders(w)

	if gw.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), restTimeout)
	defer cancel()

	rows, err := gw.store.GetLeaderboard(ctx, 10)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	if rows == nil {
		rows = []model.LeaderboardRow{}
	}

	writeJSON(w, http.StatusOK, rows)
}

// servePlaylistHistory implements §6.1's GET /api/playlist-history.
func (gw *Gateway) servePlaylistHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	gw.securityHeaders(w)

	if gw.store == nil || gw.verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "store or verifier not configured")
		return
	}

	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), restTimeout)
	defer cancel()

	userID, _, ok := gw.verifier.Verify(ctx, token)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	history, err := gw.store.GetRecentPlaylists(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if history == nil {
		history = []model.PlaylistHistoryEntry{}
	}

	writeJSON(w, http.StatusOK, history)
}

// serveRoomQR renders a scannable link to a room, adapted from the
// teacher's qrHandler.
func (gw *Gateway) serveRoomQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := ps.ByName("code")
	if code == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}

	scheme := gw.cfg.scheme()
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	url := scheme + "://" + r.Host + "/room/" + code

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	gw.securityHeaders(w)
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
