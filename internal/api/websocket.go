package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// WSMessage is a client request over the socket.
type WSMessage struct {
	Type string `json:"type"` // snapshot | hit | stand | finish
}

// WSReply is a server response over the socket.
type WSReply struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// HandleWebSocket serves a live view of the player's session. The connection
// is the presentation layer's liveness signal: when it closes with a game
// still in flight, the coordinator's disconnect path refunds the bet.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	player := playerFrom(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("websocket upgrade failed")
		return
	}
	defer func() {
		conn.Close()
		h.casino.HandleDisconnect(r.Context(), player)
	}()

	h.writeSnapshot(conn, player)

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "snapshot":
			h.writeSnapshot(conn, player)
		case "hit":
			snap, err := h.casino.Hit(r.Context(), player)
			h.writeResult(conn, "hit", snap, err)
		case "stand":
			snap, err := h.casino.Stand(r.Context(), player)
			h.writeResult(conn, "stand", snap, err)
		case "finish":
			snap, err := h.casino.Finish(r.Context(), player)
			h.writeResult(conn, "finish", snap, err)
		default:
			h.writeJSON(conn, WSReply{Type: "error", Error: "unknown message type"})
		}
	}
}

func (h *Handler) writeSnapshot(conn *websocket.Conn, player uuid.UUID) {
	snap := h.casino.Snapshot(player)
	if snap == nil {
		h.writeJSON(conn, WSReply{Type: "snapshot"})
		return
	}
	h.writeJSON(conn, WSReply{Type: "snapshot", Data: snap})
}

func (h *Handler) writeResult(conn *websocket.Conn, msgType string, snap interface{}, err error) {
	if err != nil {
		h.writeJSON(conn, WSReply{Type: msgType, Error: err.Error()})
		return
	}
	h.writeJSON(conn, WSReply{Type: msgType, Data: snap})
}

func (h *Handler) writeJSON(conn *websocket.Conn, reply WSReply) {
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(reply); err != nil {
		h.log.WithError(err).Debug("websocket write failed")
	}
}
