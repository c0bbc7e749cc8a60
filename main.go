package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beka-birhanu/vinom-arena/api"
	arenaapi "github.com/beka-birhanu/vinom-arena/api/arena"
	api_i "github.com/beka-birhanu/vinom-arena/api/i"
	apiidentity "github.com/beka-birhanu/vinom-arena/api/identity"
	"github.com/beka-birhanu/vinom-arena/config"
	"github.com/beka-birhanu/vinom-arena/game"
	"github.com/beka-birhanu/vinom-arena/identity"
	"github.com/beka-birhanu/vinom-arena/infrastruture/lock"
	logger "github.com/beka-birhanu/vinom-arena/infrastruture/log"
	"github.com/beka-birhanu/vinom-arena/infrastruture/pubsub"
	"github.com/beka-birhanu/vinom-arena/infrastruture/token"
	"github.com/beka-birhanu/vinom-arena/service"
	"github.com/beka-birhanu/vinom-arena/service/i"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Global variables for dependencies
var (
	redisOptions    *redis.Options
	redisClient     *redis.Client
	publisher       i.EventPublisher
	arenaLocker     i.ArenaLocker
	arena           *service.Arena
	console         *service.Console
	jwtTokenizer    i.Tokenizer
	authService     i.OperatorAuthenticator
	authController  api_i.Controller
	arenaController api_i.Controller
	router          *api.Router
	appLogger       i.Logger
)

func newLogger(prefix, color string) i.Logger {
	l, err := logger.New(prefix, color, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating %s logger: %v", prefix, err))
		os.Exit(1)
	}
	return l
}

func initRedis(ctx context.Context) {
	if config.Envs.RedisAddr == "" {
		appLogger.Info("Redis not configured, events and arena lock disabled")
		return
	}

	redisOptions = &redis.Options{
		Addr:     config.Envs.RedisAddr,
		Password: config.Envs.RedisPassword,
	}
	redisClient = redis.NewClient(redisOptions)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Error(fmt.Sprintf("Redis ping failed: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Connected to Redis")
}

func initPublisher() {
	if redisClient == nil {
		return
	}
	// The publisher closes its client when the arena stops; the lock needs its own until release.
	publisher = pubsub.NewRedisPublisher(redis.NewClient(redisOptions), config.Envs.ArenaName)
	appLogger.Info(fmt.Sprintf("Publishing events on %s", pubsub.Channel(config.Envs.ArenaName)))
}

func initArenaLocker() {
	if redisClient == nil {
		return
	}
	arenaLocker = lock.NewRedisLock(redisClient, config.Envs.ArenaName, lock.DefaultExpiry, newLogger("LOCK", config.ColorMagenta))
	appLogger.Info("Arena lock initialized")
}

func initArena() {
	options := []service.ArenaOption{service.ArenaWithLogger(newLogger("RELAY", config.ColorCyan))}
	if publisher != nil {
		options = append(options, service.ArenaWithPublisher(publisher))
	}
	if arenaLocker != nil {
		options = append(options, service.ArenaWithLocker(arenaLocker))
	}

	var err error
	arena, err = service.NewArena(service.ArenaConfig{
		ListenAddr: fmt.Sprintf("%s:%d", config.Envs.ArenaHost, config.Envs.ArenaPort),
		Capacity:   config.Envs.MaxClients,
		Bounds: game.Bounds{
			Width:   config.Envs.WindowWidth,
			Height:  config.Envs.WindowHeight,
			Segment: config.Envs.SegmentSize,
		},
	}, options...)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating arena: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Arena initialized")
}

func initConsole(quit context.CancelFunc) {
	console = service.NewConsole(arena, quit, newLogger("CONSOLE", config.ColorBlue))
	appLogger.Info("Console initialized, commands: start, status, quit")
}

func initJWTTokenizer() {
	jwtTokenizer = token.NewJwtService(config.Envs.JWTSecret, config.Envs.JWTIssuer)
	appLogger.Info("JWT Tokenizer initialized")
}

func initAuthService() {
	op, err := identity.NewOperator(identity.OperatorConfig{PlainPassword: config.Envs.AdminPassword})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating operator: %v", err))
		os.Exit(1)
	}
	authService = service.NewAuth(op, jwtTokenizer, service.DefaultTokenTTL)
	appLogger.Info("Auth service initialized")
}

func initControllers() {
	authController = apiidentity.NewIdentityServer(authService)
	arenaController = arenaapi.NewArenaController(arena, config.Envs.TickPeriod, newLogger("ADMIN", config.ColorPurple))
	appLogger.Info("Controllers initialized")
}

func initRouter(t i.Tokenizer) {
	gin.SetMode(config.Envs.GinMode)
	router = api.NewRouter(api.Config{
		Addr:                    config.Envs.AdminAddr,
		BaseURL:                 "/api",
		Controllers:             []api_i.Controller{authController, arenaController},
		AuthorizationMiddleware: apiidentity.Authoriz(t),
	})
	appLogger.Info(fmt.Sprintf("Admin API on %s", config.Envs.AdminAddr))
}

func main() {
	appLogger, _ = logger.New("APP", config.ColorGreen, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	setupCtx, cancelSetup := context.WithTimeout(ctx, 10*time.Second)
	initRedis(setupCtx)
	cancelSetup()

	initPublisher()
	initArenaLocker()
	initArena()
	initConsole(quit)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return arena.Serve(gctx)
	})
	go func() {
		if err := console.Run(gctx, os.Stdin); err != nil {
			appLogger.Warning(fmt.Sprintf("Console stopped: %v", err))
		}
	}()

	if config.Envs.AdminAddr != "" {
		if config.Envs.JWTSecret == "" {
			appLogger.Error("JWT_SECRET is required when ADMIN_ADDR is set")
			os.Exit(1)
		}
		initJWTTokenizer()
		initAuthService()
		initControllers()
		initRouter(jwtTokenizer)
		g.Go(func() error {
			return router.Run(gctx)
		})
	}

	err := g.Wait()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err != nil {
		appLogger.Error(fmt.Sprintf("Serving arena: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Arena shut down")
}
