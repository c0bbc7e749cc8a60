package arenaapi

import (
	"fmt"
	"net/http"
	"time"

	logger "github.com/beka-birhanu/vinom-arena/infrastruture/log"
	"github.com/beka-birhanu/vinom-arena/service/i"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait       = 5 * time.Second
	DefaultPongWait = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ArenaController lets the operator inspect, start and watch the arena.
type ArenaController struct {
	arena       i.Arena
	watchPeriod time.Duration
	pongWait    time.Duration
	logger      i.Logger
}

type ControllerOption func(*ArenaController)

// NewArenaController creates the controller. Watchers receive one snapshot per watchPeriod.
func NewArenaController(arena i.Arena, watchPeriod time.Duration, l i.Logger, options ...ControllerOption) *ArenaController {
	if l == nil {
		l = logger.Discard()
	}
	ac := &ArenaController{
		arena:       arena,
		watchPeriod: watchPeriod,
		pongWait:    DefaultPongWait,
		logger:      l,
	}
	for _, opt := range options {
		opt(ac)
	}
	return ac
}

// WithPongWait sets how long a watcher may stay silent. Pings go out at 9/10 of it.
func WithPongWait(d time.Duration) ControllerOption {
	return func(ac *ArenaController) {
		if d > 0 {
			ac.pongWait = d
		}
	}
}

// RegisterPublic registers public routes.
func (ac *ArenaController) RegisterPublic(route *gin.RouterGroup) {}

// RegisterProtected registers protected routes.
func (ac *ArenaController) RegisterProtected(route *gin.RouterGroup) {
	arena := route.Group("/arena")
	{
		arena.GET("", ac.state)
		arena.POST("/start", ac.start)
		arena.GET("/watch", ac.watch)
	}
}

func (ac *ArenaController) state(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, newArenaResponse(ac.arena.Phase(), ac.arena.Snapshot()))
}

func (ac *ArenaController) start(ctx *gin.Context) {
	started := ac.arena.Start()
	response := &StartResponse{Started: started, Phase: ac.arena.Phase().String()}
	if !started {
		ctx.JSON(http.StatusConflict, response)
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// watch streams snapshots until the watcher goes away.
func (ac *ArenaController) watch(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		ac.logger.Warning(fmt.Sprintf("error while upgrading watcher: %s", err))
		return
	}
	defer conn.Close()

	// Reading is only needed to notice close frames and answer pings.
	closed := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(ac.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(ac.pongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if !ac.send(conn) {
		return
	}

	ticker := time.NewTicker(ac.watchPeriod)
	defer ticker.Stop()
	// Pings keep the read deadline moving; all writes stay on this goroutine.
	pinger := time.NewTicker(ac.pongWait * 9 / 10)
	defer pinger.Stop()
	for {
		select {
		case <-closed:
			return
		case <-ctx.Request.Context().Done():
			return
		case <-pinger.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				ac.logger.Warning(fmt.Sprintf("error while pinging watcher: %s", err))
				return
			}
		case <-ticker.C:
			if !ac.send(conn) {
				return
			}
		}
	}
}

// send writes one snapshot and reports whether the watcher is still there.
func (ac *ArenaController) send(conn *websocket.Conn) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(newArenaResponse(ac.arena.Phase(), ac.arena.Snapshot())) == nil
}
