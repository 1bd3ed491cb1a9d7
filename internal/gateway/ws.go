/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/xid"

	"soundoff/internal/model"
	"soundoff/internal/room"
)

const (
	wsWriteTimeout = 10 * time.Second
	opTimeout      = 8 * time.Second
)

// inboundMessage is the envelope for every client-to-server event in
// §6.2. Only the fields relevant to msg.Type are populated; unused fields
// are left zero.
type inboundMessage struct {
	Type             string         `json:"type"`
	ReqID            string         `json:"reqId,omitempty"`
	Code             string         `json:"code"`
	Name             string         `json:"name,omitempty"`
	Token            string         `json:"token,omitempty"`
	Mode             model.Mode     `json:"mode,omitempty"`
	GameType         model.GameType `json:"gameType,omitempty"`
	Tracks           []model.Track  `json:"tracks,omitempty"`
	GuessText        string         `json:"guessText,omitempty"`
	Text             string         `json:"text,omitempty"`
	PlayerName       string         `json:"playerName,omitempty"`
	Points           int            `json:"points,omitempty"`
	Artist           string         `json:"artist,omitempty"`
	Title            string         `json:"title,omitempty"`
	TargetConnHandle string         `json:"targetConnHandle,omitempty"`
}

// ack is the envelope every inbound message's optional callback receives:
// {ok, ...} on success or {error} on failure.
type ack struct {
	ReqID string `json:"reqId,omitempty"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func (gw *Gateway) serveWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := gw.upgrader.Upgrade(w, r, nil)
	if err != nil {
		gw.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	handle := room.ConnHandle(xid.New().String())
	send := make(chan room.Event, 32)

	go gw.writePump(conn, send)
	gw.readPump(conn, handle, send)
}

func (gw *Gateway) writePump(conn *websocket.Conn, send chan room.Event) {
	defer conn.Close()
	for ev := range send {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

// readPump owns the connection's single goroutine of inbound dispatch, so
// every event from this client is applied to its room in arrival order.
func (gw *Gateway) readPump(conn *websocket.Conn, handle room.ConnHandle, send chan room.Event) {
	var joinedCode string

	defer func() {
		if joinedCode != "" {
			if hub, ok := gw.lookup(joinedCode); ok {
				hub.Disconnect(handle)
			}
		}
		conn.Close()
		close(send)
	}()

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		result := gw.dispatch(context.Background(), handle, send, &msg)
		if result.err == nil && (msg.Type == "createRoom" || msg.Type == "joinRoom") {
			joinedCode = result.code
		}

		if msg.ReqID != "" || msg.Type == "createRoom" {
			send <- ack{ReqID: msg.ReqID, OK: result.err == nil, Error: errString(result.err), Code: errCode(result.err), Data: result.data}
		}
	}
}

func errString(err *room.EngineError) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func errCode(err *room.EngineError) string {
	if err == nil {
		return ""
	}
	return string(err.Code)
}

type dispatchResult struct {
	code string
	data any
	err  *room.EngineError
}

func (gw *Gateway) lookup(code string) (*room.Hub, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	hub, ok, err := gw.registry.Get(ctx, code)
	if err != nil || !ok {
		return nil, false
	}
	return hub, true
}

// dispatch routes one inbound message to the room engine, mirroring the
// teacher's readPump switch but against one typed channel per room instead
// of three.
func (gw *Gateway) dispatch(ctx context.Context, handle room.ConnHandle, send chan room.Event, msg *inboundMessage) dispatchResult {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	switch msg.Type {
	case "createRoom":
		hub, err := gw.registry.Create(ctx, handle)
		if err != nil {
			return dispatchResult{err: &room.EngineError{Code: room.ErrUpstream, Message: err.Error()}}
		}
		userID, photoURL := gw.verifyToken(ctx, msg.Token)
		result, joinErr := hub.JoinRoom(handle, send, msg.Name, userID, photoURL)
		if joinErr != nil {
			return dispatchResult{err: joinErr}
		}
		return dispatchResult{code: hub.Code(), data: map[string]any{"code": hub.Code(), "name": result.AssignedName, "isHost": result.IsHost}}

	case "joinRoom":
		hub, ok := gw.lookup(msg.Code)
		if !ok {
			return dispatchResult{err: &room.EngineError{Code: room.ErrInput, Message: "unknown room code"}}
		}
		userID, photoURL := gw.verifyToken(ctx, msg.Token)
		result, err := hub.JoinRoom(handle, send, msg.Name, userID, photoURL)
		if err != nil {
			return dispatchResult{err: err}
		}
		return dispatchResult{code: msg.Code, data: map[string]any{"name": result.AssignedName, "isHost": result.IsHost}}

	case "setName":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			name, err := hub.SetName(handle, msg.Name)
			return map[string]any{"name": name}, err
		})

	case "startGame":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			return nil, hub.StartGame(handle, msg.Mode, msg.Tracks, msg.GameType)
		})

	case "nextRound":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			return nil, hub.NextRound(ctx, handle)
		})

	case "guess":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			return nil, hub.Guess(handle, msg.GuessText)
		})

	case "chat":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			return nil, hub.Chat(handle, msg.Text)
		})

	case "voteSkip":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			return nil, hub.VoteSkip(handle)
		})

	case "buzz":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			return nil, hub.Buzz(handle)
		})

	case "passBuzzer":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			return nil, hub.PassBuzzer(handle)
		})

	case "awardPoints":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			return nil, hub.AwardPoints(handle, msg.PlayerName, msg.Points)
		})

	case "deductPoints":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			return nil, hub.DeductPoints(handle, msg.PlayerName, msg.Points)
		})

	case "endRoundManual":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			return nil, hub.EndRoundManual(handle)
		})

	case "hostVerifyGuess":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			result, err := hub.HostVerifyGuess(handle, msg.Artist, msg.Title)
			return result, err
		})

	case "pauseRound":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			return nil, hub.PauseRound(handle)
		})

	case "resumeRound":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			return nil, hub.ResumeRound(handle)
		})

	case "kickPlayer":
		return gw.withHub(ctx, msg.Code, func(hub *room.Hub) (any, *room.EngineError) {
			return nil, hub.KickPlayer(handle, room.ConnHandle(msg.TargetConnHandle))
		})

	default:
		return dispatchResult{err: &room.EngineError{Code: room.ErrInput, Message: "unknown event type"}}
	}
}

func (gw *Gateway) withHub(ctx context.Context, code string, fn func(hub *room.Hub) (any, *room.EngineError)) dispatchResult {
	hub, ok := gw.lookup(code)
	if !ok {
		return dispatchResult{err: &room.EngineError{Code: room.ErrInput, Message: "unknown room code"}}
	}
	data, err := fn(hub)
	return dispatchResult{code: code, data: data, err: err}
}

// verifyToken downgrades a failed or absent verification to an
// unauthenticated join rather than a hard error, per §7's Auth taxonomy.
func (gw *Gateway) verifyToken(ctx context.Context, token string) (userID, photoURL string) {
	if token == "" || gw.verifier == nil {
		return "", ""
	}
	userID, photoURL, ok := gw.verifier.Verify(ctx, token)
	if !ok {
		return "", ""
	}
	return userID, photoURL
}
