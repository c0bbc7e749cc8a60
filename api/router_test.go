package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	arenaapi "github.com/beka-birhanu/vinom-arena/api/arena"
	"github.com/beka-birhanu/vinom-arena/api/i"
	apiidentity "github.com/beka-birhanu/vinom-arena/api/identity"
	"github.com/beka-birhanu/vinom-arena/game"
	"github.com/beka-birhanu/vinom-arena/identity"
	"github.com/beka-birhanu/vinom-arena/infrastruture/token"
	"github.com/beka-birhanu/vinom-arena/roster"
	"github.com/beka-birhanu/vinom-arena/service"
	"github.com/beka-birhanu/vinom-arena/wire"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const password = "correct-horse-battery-staple-42"

type stubArena struct {
	lifecycle game.ServerLifecycle
	slots     []roster.Slot
}

func (a *stubArena) Start() bool             { return a.lifecycle.Start() }
func (a *stubArena) Phase() game.Phase       { return a.lifecycle.Phase() }
func (a *stubArena) Snapshot() []roster.Slot { return a.slots }

func newTestRouter(t *testing.T, options ...arenaapi.ControllerOption) (*Router, *stubArena, *token.JwtService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	op, err := identity.NewOperator(identity.OperatorConfig{PlainPassword: password, HashCost: bcrypt.MinCost})
	require.NoError(t, err)
	tokenizer := token.NewJwtService("secret", "arena-test")

	head, _, err := game.InitPlayer(1, game.Bounds{Width: 1500, Height: 900, Segment: 20})
	require.NoError(t, err)
	stub := &stubArena{slots: []roster.Slot{
		{PlayerID: 1, Avatar: head, Active: true},
		{PlayerID: 2, Avatar: wire.SentinelAvatar()},
	}}

	r := NewRouter(Config{
		BaseURL: "/api",
		Controllers: []i.Controller{
			apiidentity.NewIdentityServer(service.NewAuth(op, tokenizer, time.Minute)),
			arenaapi.NewArenaController(stub, 10*time.Millisecond, nil, options...),
		},
		AuthorizationMiddleware: apiidentity.Authoriz(tokenizer),
	})
	return r, stub, tokenizer
}

func login(t *testing.T, h http.Handler, pw string) *httptest.ResponseRecorder {
	body, err := json.Marshal(apiidentity.LoginRequest{Password: pw})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func authorized(method, target, tok string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func TestLoginAndStart(t *testing.T) {
	r, stub, _ := newTestRouter(t)
	h := r.Handler()

	rec := login(t, h, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = login(t, h, password)
	require.Equal(t, http.StatusOK, rec.Code)
	var res apiidentity.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authorized(http.MethodGet, "/api/v1/arena", res.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	var state arenaapi.ArenaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "waiting", state.Phase)
	require.Len(t, state.Players, 2)
	assert.Equal(t, &arenaapi.SegmentResponse{X: 120, Y: 120}, state.Players[0].Head)
	assert.Len(t, state.Players[0].Body, game.InitialBodyLength)
	assert.Nil(t, state.Players[1].Head)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authorized(http.MethodPost, "/api/v1/arena/start", res.Token))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, game.Running, stub.Phase())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authorized(http.MethodPost, "/api/v1/arena/start", res.Token))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginRejectsMissingPassword(t *testing.T) {
	r, _, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutes(t *testing.T) {
	r, _, tokenizer := newTestRouter(t)
	h := r.Handler()

	playerToken, err := tokenizer.Generate(map[string]interface{}{"role": "player"}, time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no header", header: "", want: http.StatusUnauthorized},
		{name: "malformed", header: "Token abc", want: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer abc", want: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + playerToken, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/arena/start", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestWatchStreamsSnapshots(t *testing.T) {
	r, stub, tokenizer := newTestRouter(t)
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	tok, err := tokenizer.Generate(map[string]interface{}{"role": identity.RoleOperator}, time.Minute)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/arena/watch"
	header := http.Header{"Authorization": []string{"Bearer " + tok}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	var first arenaapi.ArenaResponse
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "waiting", first.Phase)

	stub.Start()
	require.Eventually(t, func() bool {
		var next arenaapi.ArenaResponse
		return conn.ReadJSON(&next) == nil && next.Phase == "running"
	}, 2*time.Second, time.Millisecond)
}

func TestWatchOutlivesPongWait(t *testing.T) {
	pongWait := 100 * time.Millisecond
	r, _, tokenizer := newTestRouter(t, arenaapi.WithPongWait(pongWait))
	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	tok, err := tokenizer.Generate(map[string]interface{}{"role": identity.RoleOperator}, time.Minute)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/arena/watch"
	header := http.Header{"Authorization": []string{"Bearer " + tok}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	pings := 0
	conn.SetPingHandler(func(data string) error {
		pings++
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	end := time.Now().Add(5 * pongWait)
	for time.Now().Before(end) {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, _, err := conn.ReadMessage()
		require.NoError(t, err, "stream ended after %d pings", pings)
	}
	assert.Positive(t, pings)
}

func TestRunStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	r, _, _ := newTestRouter(t)
	r.addr = addr

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/v1/arena")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusUnauthorized
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
