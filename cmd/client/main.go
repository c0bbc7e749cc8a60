package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/beka-birhanu/vinom-arena/client"
	"github.com/beka-birhanu/vinom-arena/config"
	"github.com/beka-birhanu/vinom-arena/game"
	logger "github.com/beka-birhanu/vinom-arena/infrastruture/log"
	"github.com/beka-birhanu/vinom-arena/infrastruture/terminal"
	"github.com/beka-birhanu/vinom-arena/service/i"
	"github.com/gdamore/tcell/v2"
)

var (
	appLogger i.Logger
	session   *client.Session
	screen    *terminal.Screen
)

func initLogger() *os.File {
	f, err := os.OpenFile(config.Envs.ClientLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	appLogger, _ = logger.New("CLIENT", config.ColorCyan, f)
	return f
}

func initSession(ctx context.Context) {
	var err error
	session, err = client.Dial(ctx, config.Envs.ServerAddr, client.Config{
		Bounds: game.Bounds{
			Width:   config.Envs.WindowWidth,
			Height:  config.Envs.WindowHeight,
			Segment: config.Envs.SegmentSize,
		},
		TickPeriod: config.Envs.TickPeriod,
		Capacity:   config.Envs.MaxClients,
	}, client.WithLogger(appLogger))
	if err != nil {
		appLogger.Error(fmt.Sprintf("Joining arena at %s: %v", config.Envs.ServerAddr, err))
		fmt.Fprintf(os.Stderr, "joining arena at %s: %v\n", config.Envs.ServerAddr, err)
		os.Exit(1)
	}
}

func initScreen() {
	s, err := tcell.NewScreen()
	if err == nil {
		screen, err = terminal.New(s, config.Envs.WindowWidth, config.Envs.WindowHeight, config.Envs.SegmentSize)
	}
	if err != nil {
		appLogger.Error(fmt.Sprintf("Opening terminal: %v", err))
		fmt.Fprintf(os.Stderr, "opening terminal: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	logFile := initLogger()
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initSession(ctx)
	initScreen()

	err := session.Run(ctx, screen, screen)
	screen.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error(fmt.Sprintf("Session ended: %v", err))
		fmt.Fprintf(os.Stderr, "session ended: %v\n", err)
		os.Exit(1)
	}
	appLogger.Info(fmt.Sprintf("Left the arena as player %d (%s)", session.PlayerID(), session.Phase()))
}
