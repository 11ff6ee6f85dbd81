// WebSocket subscription endpoint: one streaming loop per connection.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lumen-labs/signal-backend/internal/stream"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// wsSink pushes loop frames onto a websocket connection. Writes are
// serialized with the keepalive pings through one mutex, so frame order on
// the wire matches push order.
type wsSink struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *wsSink) Send(msg any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

func (s *wsSink) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// handleWebSocket attaches a streaming loop to the requested strategy and
// runs it until the subscriber disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	strategyID := mux.Vars(r)["strategyId"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.logger.Info("Subscriber connected", zap.String("strategy", strategyID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump exists only to detect disconnect and keep pong handling
	// alive; subscribers don't send application messages.
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sink := &wsSink{conn: conn}

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := sink.ping(); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	loop := stream.New(
		s.logger,
		stream.Config{
			Interval:      s.cfg.Stream.Interval,
			ErrorInterval: s.cfg.Stream.ErrorInterval,
		},
		strategyID,
		s.registry,
		s.sessions,
		s.provider,
		s.metrics,
	)

	if err := loop.Run(ctx, sink); err != nil {
		s.logger.Info("Subscription closed",
			zap.String("strategy", strategyID),
			zap.Error(err),
		)
	} else {
		s.logger.Info("Subscriber disconnected", zap.String("strategy", strategyID))
	}
}
