package httpapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net/http"
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
	"github.com/DoyleJ11/live-scoreboard/internal/scoreboard"
	"github.com/DoyleJ11/live-scoreboard/internal/store"
)

type testEnv struct {
	srv   *httptest.Server
	store *store.Store
}

func newTestEnv(t *testing.T, publicURL string) testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)

	db, err := store.Open(store.DriverSQLite, ":memory:", log)
	require.NoError(t, err)
	st := store.New(db, log)
	require.NoError(t, st.Migrate(context.Background(), "Test Game"))

	ctx, cancel := context.WithCancel(context.Background())
	h := hub.New(ctx, hub.Deps{Teams: st, Game: st, Logger: log})

	// Websocket handlers may outlive the test once their connection is hijacked.
	srv := httptest.NewServer(SetupRoutes(Deps{Hub: h, Teams: st, Logger: zap.NewNop(), PublicURL: publicURL}))
	t.Cleanup(func() {
		cancel()
		<-h.Done()
		srv.Close()
		_ = store.Close(db)
	})
	return testEnv{srv: srv, store: st}
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, "")
	resp, _ := get(t, env.srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListTeams_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t, "")
	resp, body := get(t, env.srv.URL+"/api/teams")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"teams":[]}`, string(body))
}

func TestListTeams_LeaderboardOrder(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	red, err := env.store.CreateTeam(ctx, "Red")
	require.NoError(t, err)
	blue, err := env.store.CreateTeam(ctx, "Blue")
	require.NoError(t, err)
	_, err = env.store.CreateTeam(ctx, "Green")
	require.NoError(t, err)
	_, err = env.store.SetScore(ctx, blue.ID, 10)
	require.NoError(t, err)

	_, body := get(t, env.srv.URL+"/api/teams")
	var got struct {
		Teams []scoreboard.Team `json:"teams"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got.Teams, 3)
	assert.Equal(t, "Blue", got.Teams[0].Name)
	assert.Equal(t, red.ID, got.Teams[1].ID)
	assert.Equal(t, "Green", got.Teams[2].Name)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	_, body := get(t, env.srv.URL+"/api/stats")
	assert.JSONEq(t, `{"team_count":0,"total_score":0,"average_score":0,"top_team":null,"players_locked":false}`, string(body))

	a, err := env.store.CreateTeam(ctx, "A")
	require.NoError(t, err)
	b, err := env.store.CreateTeam(ctx, "B")
	require.NoError(t, err)
	_, err = env.store.SetScore(ctx, a.ID, 5)
	require.NoError(t, err)
	_, err = env.store.SetScore(ctx, b.ID, 2.5)
	require.NoError(t, err)

	_, body = get(t, env.srv.URL+"/api/stats")
	assert.JSONEq(t, `{"team_count":2,"total_score":7.5,"average_score":3.75,"top_team":{"name":"A","score":5},"players_locked":false}`, string(body))
}

type brokenReader struct{}

func (brokenReader) ListTeams(context.Context) ([]scoreboard.Team, error) {
	return nil, errors.New("database is on fire")
}

func (brokenReader) Stats(context.Context) (scoreboard.Stats, error) {
	return scoreboard.Stats{}, errors.New("database is on fire")
}

func TestReadFailuresReturnJSONErrors(t *testing.T) {
	log := zaptest.NewLogger(t)
	tests := []struct {
		name    string
		handler http.HandlerFunc
		message string
	}{
		{"teams", ListTeams(brokenReader{}, log), "Failed to load teams"},
		{"stats", Stats(brokenReader{}, log), "Failed to load stats"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"message":"`+tt.message+`","code":500}`, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "fire")
		})
	}
}

func TestQRCode_ServesPNG(t *testing.T) {
	env := newTestEnv(t, "")
	resp, body := get(t, env.srv.URL+"/qr")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG\r\n\x1a\n")))
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		name      string
		publicURL string
		proto     string
		tls       bool
		want      string
	}{
		{name: "plain", want: "http://scores.local/join"},
		{name: "tls", tls: true, want: "https://scores.local/join"},
		{name: "forwarded", proto: "https", want: "https://scores.local/join"},
		{name: "forwarded list", proto: "https, http", want: "https://scores.local/join"},
		{name: "public url wins", publicURL: "https://quiz.example.com/", proto: "http", want: "https://quiz.example.com/join"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://scores.local/qr", nil)
			if tt.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			if tt.tls {
				r.TLS = &tls.ConnectionState{}
			}
			assert.Equal(t, tt.want, JoinURL(r, tt.publicURL))
		})
	}
}

func TestWebsocketRoute(t *testing.T) {
	env := newTestEnv(t, "")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(env.srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var msg struct {
		Event string `json:"event"`
	}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "connected", msg.Event)

	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{
		"event": "join_game",
		"data":  map[string]string{"team_name": "Red"},
	}))
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "team_joined", msg.Event)

	_, body := get(t, env.srv.URL+"/api/teams")
	assert.Contains(t, string(body), `"name":"Red"`)
}
