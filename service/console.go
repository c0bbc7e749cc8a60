package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	logger "github.com/beka-birhanu/vinom-arena/infrastruture/log"
	"github.com/beka-birhanu/vinom-arena/service/i"
)

// Operator console commands.
const (
	CommandStart  = "start"
	CommandQuit   = "quit"
	CommandStatus = "status"
)

// Console reads operator commands, one per line.
type Console struct {
	arena  i.Arena
	quit   context.CancelFunc
	logger i.Logger
}

// NewConsole creates a console that drives arena and calls quit on the quit command.
func NewConsole(arena i.Arena, quit context.CancelFunc, l i.Logger) *Console {
	if l == nil {
		l = logger.Discard()
	}
	return &Console{
		arena:  arena,
		quit:   quit,
		logger: l,
	}
}

// Run reads commands from r until quit, EOF or ctx cancellation. Unknown lines are ignored.
func (c *Console) Run(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	failed := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		failed <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-failed:
			return err
		case line := <-lines:
			if c.Handle(line) {
				return nil
			}
		}
	}
}

// Handle executes one command line and reports whether it was quit.
func (c *Console) Handle(line string) bool {
	switch strings.TrimSpace(line) {
	case CommandStart:
		c.arena.Start()
	case CommandQuit:
		c.logger.Info("quit requested")
		c.quit()
		return true
	case CommandStatus:
		c.logger.Info(c.status())
	}
	return false
}

func (c *Console) status() string {
	active, alive := 0, 0
	for _, slot := range c.arena.Snapshot() {
		if !slot.Active {
			continue
		}
		active++
		if slot.Avatar.Alive {
			alive++
		}
	}
	return fmt.Sprintf("phase=%s players=%d alive=%d", c.arena.Phase(), active, alive)
}
