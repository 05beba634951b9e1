package adapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocket keeps one conversation per connection, for chat widgets
// that hold a socket open.  Frames are JSON both ways: {"user","text"}
// in, the payload out.
type WebSocket struct {
	Board  Board
	Logger *slog.Logger

	upgrader websocket.Upgrader
}

type wsMessage struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// Handler upgrades the connection and serves it until the peer goes
// away.
func (a *WebSocket) Handler(w http.ResponseWriter, req *http.Request) {
	conn, err := a.upgrader.Upgrade(w, req, nil)
	if err != nil {
		a.logf("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	for {
		_, bs, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if len(bs) == 0 {
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(bs, &msg); err != nil {
			a.logf("websocket bad frame", "err", err)
			continue
		}
		if msg.User == "" {
			continue
		}

		p := deliver(req.Context(), a.Board, a.Logger, "websocket", msg.User, msg.Text)

		js, err := json.Marshal(p)
		if err != nil {
			a.logf("websocket marshal failed", "err", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, js); err != nil {
			return
		}
	}
}

func (a *WebSocket) logf(msg string, args ...interface{}) {
	if a.Logger != nil {
		a.Logger.Info(msg, args...)
	}
}
