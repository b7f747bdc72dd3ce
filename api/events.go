package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.dedis.ch/blitz"
	"go.dedis.ch/blitz/core/execution"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingPeriod   = 30 * time.Second
)

// checkOrigin tells if the browser that opens the stream runs a page of an
// allowed origin. Browsers do not apply the CORS policy to websockets.
// Requests without an origin come from other clients and are accepted.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.origins) == 0 {
		return true
	}

	origin = strings.ToLower(origin)

	for _, allowed := range s.origins {
		if matchOrigin(strings.ToLower(allowed), origin) {
			return true
		}
	}

	return false
}

func matchOrigin(allowed, origin string) bool {
	if allowed == "*" || allowed == origin {
		return true
	}

	prefix, suffix, found := strings.Cut(allowed, "*")
	if !found {
		return false
	}

	return len(origin) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix)
}

// EventJSON is a message of the stream of notifications.
type EventJSON struct {
	Index uint64 `json:"index"`

	execution.Event
}

// handleEvents streams the notifications of the committed transactions until
// the client closes the connection.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The observer is registered before the handshake completes so that the
	// client gets every batch committed after it is connected.
	events := s.node.Watch(ctx)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already replied to the client.
		blitz.Logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	defer conn.Close()

	// The read loop only handles the control messages and detects when the
	// client leaves.
	go func() {
		defer cancel()

		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongTimeout))
		})

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))

			err = conn.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				return
			}
		case batch, ok := <-events:
			if !ok {
				return
			}

			for _, evt := range batch.Events {
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))

				err = conn.WriteJSON(EventJSON{Index: batch.Index, Event: evt})
				if err != nil {
					blitz.Logger.Debug().Err(err).Msg("websocket closed")
					return
				}
			}
		}
	}
}
