package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"fourline-server/internal/core"
	"fourline-server/internal/game"
	"fourline-server/internal/matchmaking"
	"fourline-server/internal/proto"
	"fourline-server/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to the engine.
type WSHandler struct {
	engine *core.Engine
	mm     *matchmaking.Matchmaker
	log    *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(engine *core.Engine, mm *matchmaking.Matchmaker, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{engine: engine, mm: mm, log: logger}
}

// wsClient tracks per-connection state. The seat reference is learned
// from game_started / rejoin_success events in the write loop and read
// by the read loop when forwarding moves.
type wsClient struct {
	conn *core.Conn

	mu        sync.Mutex
	identity  string
	sessionID string
	seat      int
}

func (c *wsClient) setIdentity(identity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = identity
}

func (c *wsClient) getIdentity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

func (c *wsClient) setSeatRef(sessionID string, seat int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
	c.seat = seat
}

func (c *wsClient) seatRef() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID, c.seat
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := &wsClient{conn: core.NewConn(utils.NewConnID())}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	// The transport only sees a dead socket; whether that forfeits the
	// game is the engine's call.
	if identity := client.getIdentity(); identity != "" {
		h.mm.Cancel(identity)
		h.engine.Disconnect(identity)
	}

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *wsClient) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}
		if protoErr := h.handleInbound(client, inbound); protoErr != nil {
			if err := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); err != nil {
				return err
			}
		}
	}
}

// handleInbound dispatches one client message. Returns a protocol error
// for malformed or out-of-place requests; engine-level rejections travel
// back through the event channel instead.
func (h *WSHandler) handleInbound(client *wsClient, inbound proto.Inbound) *proto.Error {
	switch inbound.Type {
	case proto.InboundTypeHello:
		var data proto.HelloData
		if err := json.Unmarshal(inbound.Data, &data); err != nil || data.Name == "" {
			return &proto.Error{Code: "bad_request", Msg: "hello requires a name"}
		}
		if client.getIdentity() != "" {
			return &proto.Error{Code: "bad_request", Msg: "already introduced"}
		}
		if h.engine.Registry().Contains(data.Name) {
			return &proto.Error{Code: "name_taken", Msg: "name is bound to a live session"}
		}
		client.setIdentity(data.Name)
		h.mm.Enqueue(core.Participant{Identity: data.Name, Conn: client.conn})
		return nil

	case proto.InboundTypeRejoin:
		var data proto.RejoinData
		if err := json.Unmarshal(inbound.Data, &data); err != nil || data.Name == "" {
			return &proto.Error{Code: "bad_request", Msg: "rejoin requires a name"}
		}
		if client.getIdentity() != "" {
			return &proto.Error{Code: "bad_request", Msg: "already introduced"}
		}
		// Success and failure both come back as events on the new handle.
		// The identity binds to this socket only on success; otherwise a
		// later hangup would forfeit a session this socket never held.
		if h.engine.Rejoin(data.Name, client.conn) {
			client.setIdentity(data.Name)
		}
		return nil

	case proto.InboundTypeMove:
		var data proto.MoveData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return &proto.Error{Code: "bad_request", Msg: "invalid move payload"}
		}
		if data.Column < 0 || data.Column >= game.Cols {
			return &proto.Error{Code: "bad_request", Msg: "column out of range"}
		}
		sessionID, seat := client.seatRef()
		if sessionID == "" {
			return &proto.Error{Code: "bad_request", Msg: "no active session"}
		}
		if err := h.engine.ApplyMove(sessionID, seat, data.Column); err != nil {
			h.log.Debug().Err(err).
				Str("session_id", sessionID).
				Int("column", data.Column).
				Msg("move rejected")
		}
		return nil

	default:
		return &proto.Error{Code: "bad_request", Msg: "unknown message type"}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *wsClient) error {
	for {
		select {
		case event, ok := <-client.conn.Events:
			if !ok {
				return nil
			}
			if event.Kind == core.EventGameStarted || event.Kind == core.EventRejoinSuccess {
				client.setSeatRef(event.SessionID, event.Snapshot.Seat)
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.conn.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
