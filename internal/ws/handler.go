package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/live-scoreboard/internal/command"
	"github.com/DoyleJ11/live-scoreboard/internal/hub"
	"github.com/DoyleJ11/live-scoreboard/internal/scoreboard"
	"github.com/DoyleJ11/live-scoreboard/internal/types"
)

type Options struct {
	OriginPatterns []string // empty allows same-origin only
	WriteTimeout   time.Duration
	OutboxSize     int
	ReadLimit      int64
}

func (o Options) withDefaults() Options {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = 32
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32 << 10
	}
	return o
}

// Handler upgrades to a websocket and bridges it to the hub: one reader loop forwards
// client events, one writer goroutine drains the session's outbox.
func Handler(h *hub.Hub, opts Options, log *zap.Logger) http.HandlerFunc {
	opts = opts.withDefaults()
	log = log.Named("ws")

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
			return
		}
		defer conn.CloseNow()
		conn.SetReadLimit(opts.ReadLimit)

		sessionID := uuid.NewString()
		out := make(chan types.ServerMessage, opts.OutboxSize)
		if !h.Send(hub.Connect{SessionID: sessionID, RemoteAddr: r.RemoteAddr, Outbox: out}) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}
		defer h.Send(hub.Disconnect{SessionID: sessionID})

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine
		go func() {
			defer cancel()
			for msg := range out {
				if err := writeJSON(ctx, conn, msg, opts.WriteTimeout); err != nil {
					log.Debug("write failed", zap.String("session_id", sessionID), zap.Error(err))
					return
				}
			}
			conn.Close(closeReason(h.Stopping()))
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					if !errors.Is(err, context.Canceled) {
						log.Debug("read failed", zap.String("session_id", sessionID), zap.Error(err))
					}
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil || cm.Event == "" {
				_ = writeJSON(ctx, conn, types.Error(scoreboard.Message(command.ErrBadFormat, "Invalid message format")), opts.WriteTimeout)
				continue
			}

			if !h.Send(hub.FromClient{SessionID: sessionID, Event: cm.Event, Data: cm.Data}) {
				return
			}
		}
	}
}

// closeReason is used once the hub has closed the outbox: either it is shutting down or
// the session was dropped for falling behind.
func closeReason(stopping <-chan struct{}) (websocket.StatusCode, string) {
	select {
	case <-stopping:
		return websocket.StatusGoingAway, "server shutting down"
	default:
		return websocket.StatusTryAgainLater, "disconnected by server"
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage, timeout time.Duration) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
