package ws_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/live-scoreboard/internal/hub"
	"github.com/DoyleJ11/live-scoreboard/internal/store"
	"github.com/DoyleJ11/live-scoreboard/internal/types"
	"github.com/DoyleJ11/live-scoreboard/internal/ws"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func startServer(t *testing.T) (*httptest.Server, *hub.Hub) {
	t.Helper()
	log := zaptest.NewLogger(t)

	db, err := store.Open(store.DriverSQLite, ":memory:", log)
	require.NoError(t, err)
	st := store.New(db, log)
	require.NoError(t, st.Migrate(context.Background(), "Test Game"))

	ctx, cancel := context.WithCancel(context.Background())
	h := hub.New(ctx, hub.Deps{Teams: st, Game: st, Logger: log})

	// Handler goroutines may outlive the test once their connection is hijacked.
	srv := httptest.NewServer(ws.Handler(h, ws.Options{WriteTimeout: time.Second}, zap.NewNop()))
	t.Cleanup(func() {
		cancel()
		<-h.Done()
		srv.Close()
		_ = store.Close(db)
	})
	return srv, h
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })

	expect(t, conn, "connected")
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var f frame
	require.NoError(t, wsjson.Read(ctx, conn, &f))
	return f
}

func expect(t *testing.T, conn *websocket.Conn, event string) frame {
	t.Helper()
	f := read(t, conn)
	require.Equal(t, event, f.Event, "data: %s", f.Data)
	return f
}

func write(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{"event": event, "data": data}))
}

func TestHandler_JoinBroadcastsToEveryClient(t *testing.T) {
	srv, _ := startServer(t)
	player := dial(t, srv)
	screen := dial(t, srv)

	write(t, player, "join_game", map[string]any{"team_name": "  Red  "})

	joined := expect(t, player, "team_joined")
	var team types.TeamPayload
	require.NoError(t, json.Unmarshal(joined.Data, &team))
	assert.Equal(t, "Red", team.TeamName)
	assert.NotEmpty(t, team.TeamID)
	assert.Zero(t, team.Score)

	for _, conn := range []*websocket.Conn{player, screen} {
		f := expect(t, conn, "leaderboard_update")
		var lb types.LeaderboardPayload
		require.NoError(t, json.Unmarshal(f.Data, &lb))
		require.Len(t, lb.Teams, 1)
		assert.Equal(t, team.TeamID, lb.Teams[0].ID)
		assert.False(t, lb.PlayersLocked)
	}
}

func TestHandler_MalformedFrameGetsErrorAndConnectionSurvives(t *testing.T) {
	srv, _ := startServer(t)
	conn := dial(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{not json")))

	f := expect(t, conn, "error")
	var msg types.MessagePayload
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	assert.Equal(t, "Invalid message format", msg.Message)

	write(t, conn, "request_leaderboard", nil)
	f = expect(t, conn, "leaderboard_update")
	assert.JSONEq(t, `{"teams":[],"players_locked":false}`, string(f.Data))
}

func TestHandler_UnknownEvent(t *testing.T) {
	srv, _ := startServer(t)
	conn := dial(t, srv)

	write(t, conn, "launch_rockets", nil)
	f := expect(t, conn, "error")
	assert.JSONEq(t, `{"message":"Unknown event: launch_rockets"}`, string(f.Data))
}

func TestHandler_DisconnectUnregistersSession(t *testing.T) {
	srv, h := startServer(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return numSessions(h) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	require.Eventually(t, func() bool { return numSessions(h) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_HubShutdownClosesConnection(t *testing.T) {
	srv, h := startServer(t)
	conn := dial(t, srv)

	require.True(t, h.Send(hub.Shutdown{}))
	<-h.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}

func numSessions(h *hub.Hub) int {
	reply := make(chan hub.View, 1)
	if !h.Send(hub.GetState{Reply: reply}) {
		return -1
	}
	return (<-reply).NumSessions
}
