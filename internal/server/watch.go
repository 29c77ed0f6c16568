package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// watchWriteTimeout bounds one state push; a stalled client is dropped
// rather than backing the stream up.
const watchWriteTimeout = 5 * time.Second

// handleWatch upgrades to a websocket and streams the session's render
// state: one full snapshot on connect, then one after every store change.
// Bursts of changes coalesce into a single push.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Warn("Websocket accept failed.", "session", sess.ID, "error", err)
		return
	}
	defer conn.CloseNow()

	// The subscription callback runs on the store queue and must not
	// block; the buffered channel coalesces pending updates.
	updates := make(chan struct{}, 1)
	unsub := sess.Store.Subscribe(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer unsub()

	ctx := r.Context()
	if err := s.pushState(ctx, conn, sess); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "server shutting down")
			return
		case <-updates:
			if err := s.pushState(ctx, conn, sess); err != nil {
				s.logger.Debug("Watch stream ended.", "session", sess.ID, "error", err)
				return
			}
		}
	}
}

func (s *Server) pushState(ctx context.Context, conn *websocket.Conn, sess *Session) error {
	writeCtx, cancel := context.WithTimeout(ctx, watchWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, sess.Store.RenderState(ctx))
}
