// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/codecollab/codecollab/internal/bus"
)

// Custom WebSocket close codes.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
)

// WSHandler upgrades the connection and runs the read/write pumps. Each
// connection gets a bus.Conn whose buffered out-channel the write pump
// drains; the read pump feeds frames to the protocol handler.
func (s *Server) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"codecollab"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			s.Log.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "codecollab" {
			c.Close(BadSubprotocolError, "client must speak the codecollab subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		conn := bus.NewConn(uuid.NewString(), cancel)

		s.Log.Infof("ws: conn %s connected from %s", conn.ID, r.RemoteAddr)

		go writePump(ctx, c, conn, s.Log)
		readPump(ctx, c, conn, s)

		// Cleanup after the read pump exits: run the leave flow if the client
		// never sent leave_room, then stop the write pump.
		s.Protocol.HandleDisconnect(conn)
		cancel()
		s.Log.Infof("ws: conn %s disconnected", conn.ID)
	}
}

// readPump handles incoming frames until the connection closes.
func readPump(ctx context.Context, c *websocket.Conn, conn *bus.Conn, s *Server) {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				s.Log.Infof("ws: conn %s closed normally", conn.ID)
			} else if !strings.Contains(err.Error(), "context canceled") {
				s.Log.Warnf("ws: read error for conn %s: %v", conn.ID, err)
			}
			return
		}

		if typ != websocket.MessageText {
			s.Log.Warnf("ws: conn %s sent non-text message type %d, ignoring", conn.ID, typ)
			continue
		}

		s.Protocol.HandleMessage(ctx, conn, msg)
	}
}

// writePump drains the connection's out-channel onto the wire and sends
// periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *bus.Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-conn.Out:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("ws: failed to marshal outgoing event for conn %s: %v", conn.ID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("ws: write failed for conn %s: %v", conn.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ws: ping failed for conn %s, assuming disconnect: %v", conn.ID, err)
				return
			}
		}
	}
}
