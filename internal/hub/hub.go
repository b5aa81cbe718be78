package hub

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/live-scoreboard/internal/scoreboard"
	"github.com/DoyleJ11/live-scoreboard/internal/types"
)

// TeamStore is the persistence the hub mutates. Implementations must be safe for
// concurrent use because the HTTP API reads from the same store.
type TeamStore interface {
	CreateTeam(ctx context.Context, name string) (scoreboard.Team, error)
	GetTeam(ctx context.Context, id string) (scoreboard.Team, error)
	ListTeams(ctx context.Context) ([]scoreboard.Team, error)
	RenameTeam(ctx context.Context, id, name string) (scoreboard.Team, error)
	SetScore(ctx context.Context, id string, score float64) (scoreboard.Team, error)
	UpdateTeam(ctx context.Context, id, name string, score float64) (scoreboard.Team, error)
	DeleteTeam(ctx context.Context, id string) (bool, error)
	ClearAll(ctx context.Context) (int64, error)
}

type GameState interface {
	IsPlayersLocked(ctx context.Context) (bool, error)
	SetPlayersLocked(ctx context.Context, locked bool) (bool, error)
	SetTeamLocked(ctx context.Context, id string, locked bool) (bool, error)
}

// Mirror receives every broadcast. Publish must not block.
type Mirror interface {
	Publish(msg types.ServerMessage)
}

type Msg interface{ isHubMsg() }

// Connect registers a session. The hub owns Outbox from here on and closes it when the
// session leaves or is dropped.
type Connect struct {
	SessionID  string
	RemoteAddr string
	Outbox     chan types.ServerMessage
}

type Disconnect struct{ SessionID string }

// FromClient carries a raw client event; the hub validates it.
type FromClient struct {
	SessionID string
	Event     string
	Data      json.RawMessage
}

// GetState asks for a View. Reply should be buffered; the hub never waits on it and
// drops the view if nobody is ready to take it.
type GetState struct {
	Reply chan View
}

type Shutdown struct{}

func (Connect) isHubMsg()    {}
func (Disconnect) isHubMsg() {}
func (FromClient) isHubMsg() {}
func (GetState) isHubMsg()   {}
func (Shutdown) isHubMsg()   {}

// View is a race-free copy of hub state, mostly for tests and diagnostics.
type View struct {
	NumSessions int
	Bindings    map[string]string // session id -> team id, joined sessions only
	Broadcasts  int
}

type Deps struct {
	Teams  TeamStore
	Game   GameState
	Mirror Mirror // optional
	Logger *zap.Logger
}

// Hub is the single event loop behind the realtime channel. One goroutine owns every
// session and runs each command's validate, mutate, respond sequence to completion before
// reading the next message.
type Hub struct {
	inbox      chan Msg
	sessions   map[string]*Session
	teams      TeamStore
	game       GameState
	mirror     Mirror
	log        *zap.Logger
	broadcasts int
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

func New(parent context.Context, deps Deps) *Hub {
	ctx, cancel := context.WithCancel(parent)

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	h := &Hub{
		inbox:    make(chan Msg, 64),
		sessions: make(map[string]*Session),
		teams:    deps.Teams,
		game:     deps.Game,
		mirror:   deps.Mirror,
		log:      log.Named("hub"),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go h.loop()
	return h
}

// Send delivers m to the hub, or reports false once the hub has stopped.
func (h *Hub) Send(m Msg) bool {
	select {
	case <-h.ctx.Done():
		return false
	default:
	}
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Done is closed after the loop has exited and every outbox is closed.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Stopping is closed as soon as shutdown begins, before any outbox is closed, so a
// writer that sees its outbox close can tell shutdown from being dropped.
func (h *Hub) Stopping() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Connect:
				if old, ok := h.sessions[msg.SessionID]; ok {
					h.log.Warn("replacing session with duplicate id", zap.String("session_id", old.ID))
					h.remove(old)
				}
				s := &Session{
					ID:          msg.SessionID,
					RemoteAddr:  msg.RemoteAddr,
					ConnectedAt: time.Now(),
					outbox:      msg.Outbox,
				}
				h.sessions[s.ID] = s
				h.log.Info("client connected",
					zap.String("session_id", s.ID),
					zap.String("remote_addr", s.RemoteAddr),
					zap.Int("sessions", len(h.sessions)),
				)
				h.send(s, types.Connected("Successfully connected to the game server"))

			case Disconnect:
				s, ok := h.sessions[msg.SessionID]
				if !ok {
					break
				}
				h.remove(s)
				h.log.Info("client disconnected",
					zap.String("session_id", s.ID),
					zap.String("team_id", s.TeamID),
					zap.Duration("connected_for", time.Since(s.ConnectedAt)),
					zap.Int("sessions", len(h.sessions)),
				)

			case FromClient:
				s, ok := h.sessions[msg.SessionID]
				if !ok {
					h.log.Debug("event from unknown session", zap.String("session_id", msg.SessionID), zap.String("event", msg.Event))
					break
				}
				h.dispatch(s, msg.Event, msg.Data)

			case GetState:
				v := View{
					NumSessions: len(h.sessions),
					Bindings:    make(map[string]string),
					Broadcasts:  h.broadcasts,
				}
				for id, s := range h.sessions {
					if s.Joined() {
						v.Bindings[id] = s.TeamID
					}
				}
				select {
				case msg.Reply <- v:
				default:
					h.log.Warn("state reply dropped: receiver not ready")
				}

			case Shutdown:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	h.cancel()
	for _, s := range h.sessions {
		h.remove(s)
	}
}

func (h *Hub) remove(s *Session) {
	close(s.outbox)
	delete(h.sessions, s.ID)
}

// send never blocks the loop: a session whose outbox is full is dropped.
func (h *Hub) send(s *Session, msg types.ServerMessage) {
	select {
	case s.outbox <- msg:
	default:
		h.log.Warn("dropping slow client", zap.String("session_id", s.ID), zap.String("event", msg.Event))
		h.remove(s)
	}
}

func (h *Hub) broadcast(msg types.ServerMessage) {
	h.broadcasts++
	for _, s := range h.sessions {
		h.send(s, msg)
	}
	if h.mirror != nil {
		h.mirror.Publish(msg)
	}
}
