package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/livenotify/pkg/broadcast"
	"github.com/dmitrymomot/livenotify/pkg/logger"
)

// PanelCommand asks the notification panel to change visibility.
type PanelCommand int

const (
	PanelOpen PanelCommand = iota + 1
	PanelClose
	PanelToggle
)

func (c PanelCommand) String() string {
	switch c {
	case PanelOpen:
		return "open"
	case PanelClose:
		return "close"
	case PanelToggle:
		return "toggle"
	}
	return "unknown"
}

// PanelEvent reports the panel state after a command was applied.
type PanelEvent struct {
	Command PanelCommand
	Open    bool
}

// Panel is the command channel between the components that show the
// notification panel and the ones that open it (a bell button, a toast).
// Senders issue commands; the panel view subscribes to the resulting
// events. It is owned by the Controller, so every session has its own.
type Panel struct {
	mu     sync.Mutex
	open   bool
	events *broadcast.MemoryBroadcaster[PanelEvent]
	logger *slog.Logger
}

func newPanel(buffer int, log *slog.Logger) *Panel {
	return &Panel{
		events: broadcast.NewMemoryBroadcaster[PanelEvent](buffer, broadcast.WithSlowConsumerPolicy(broadcast.DropMessage)),
		logger: log,
	}
}

// Send applies cmd and publishes the resulting PanelEvent. Commands that do
// not change visibility are still published so views can resync. It
// returns whether the panel is open afterwards.
func (p *Panel) Send(ctx context.Context, cmd PanelCommand) bool {
	p.mu.Lock()
	switch cmd {
	case PanelOpen:
		p.open = true
	case PanelClose:
		p.open = false
	case PanelToggle:
		p.open = !p.open
	default:
		open := p.open
		p.mu.Unlock()
		p.logger.LogAttrs(ctx, slog.LevelWarn, "ignored unknown panel command", slog.Int("command", int(cmd)))
		return open
	}
	ev := PanelEvent{Command: cmd, Open: p.open}
	// published under the lock so subscribers observe commands in order
	p.publish(ctx, ev)
	p.mu.Unlock()

	return ev.Open
}

func (p *Panel) publish(ctx context.Context, ev PanelEvent) {
	if err := p.events.Broadcast(ctx, broadcast.Message[PanelEvent]{Data: ev}); err != nil {
		p.logger.LogAttrs(ctx, slog.LevelDebug, "panel event not published",
			slog.String("command", ev.Command.String()),
			logger.Error(err),
		)
	}
}

// Subscribe returns a stream of PanelEvents bound to ctx.
func (p *Panel) Subscribe(ctx context.Context) broadcast.Subscriber[PanelEvent] {
	return p.events.Subscribe(ctx)
}

// IsOpen reports the current visibility.
func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// reset closes the panel when the session ends or changes hands. Views are
// told only if it was open.
func (p *Panel) reset(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return
	}
	p.open = false
	p.publish(ctx, PanelEvent{Command: PanelClose, Open: false})
}

func (p *Panel) close() error {
	return p.events.Close()
}
