// Package actions executes the opaque action strings attached to case
// outcomes ("[command] give %player% key", "[message] you won", ...).
//
// Each action string starts with a bracketed tag that selects a handler
// from the registry; unknown tags route to the default handler so a typo
// in a config never crashes a run. The handlers themselves only describe
// what should happen; delivering a chat message or running a console
// command is the host's job, reached through the Sink.
package actions

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Sink receives the interpreted effects. The reference sink logs them;
// a game-server integration replaces it with the real thing.
type Sink interface {
	// Message sends a private message to the player.
	Message(ctx context.Context, player, text string) error
	// Broadcast sends a message to every connected player.
	Broadcast(ctx context.Context, text string) error
	// Title shows a title/subtitle pair to the player.
	Title(ctx context.Context, player, title, subtitle string) error
	// Command runs a server console command.
	Command(ctx context.Context, command string) error
	// Sound plays a named sound at the player.
	Sound(ctx context.Context, player, sound string) error
}

// Handler executes one parsed action payload for a player.
type Handler func(ctx context.Context, player, payload string) error

// Executor routes action strings to handlers by their bracket tag.
type Executor struct {
	sink Sink
	log  *zap.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	fallback Handler
}

// NewExecutor creates an executor with the built-in handlers registered.
func NewExecutor(sink Sink, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Executor{
		sink:     sink,
		log:      log.Named("actions"),
		handlers: make(map[string]Handler),
	}
	e.fallback = func(ctx context.Context, player, payload string) error {
		e.log.Warn("unknown action tag, ignored",
			zap.String("player", player), zap.String("action", payload))
		return nil
	}
	e.registerBuiltins()
	return e
}

// Register binds a handler to a tag, replacing any previous one.
func (e *Executor) Register(tag string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[strings.ToLower(tag)] = h
}

// SetFallback replaces the handler used for unknown tags.
func (e *Executor) SetFallback(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fallback = h
}

// Execute runs the given action strings in order for the player. A failing
// action is logged and the rest still run; one bad line must not swallow
// the remainder of a reward.
func (e *Executor) Execute(ctx context.Context, player string, actionList []string) {
	for _, raw := range actionList {
		tag, payload := splitAction(raw)
		payload = strings.ReplaceAll(payload, "%player%", player)

		e.mu.RLock()
		h, ok := e.handlers[tag]
		if !ok {
			h = e.fallback
			payload = raw
		}
		e.mu.RUnlock()

		if err := h(ctx, player, payload); err != nil {
			e.log.Error("action failed",
				zap.String("player", player),
				zap.String("tag", tag),
				zap.String("action", raw),
				zap.Error(err))
		}
	}
}

func (e *Executor) registerBuiltins() {
	e.Register("message", func(ctx context.Context, player, payload string) error {
		return e.sink.Message(ctx, player, payload)
	})
	e.Register("broadcast", func(ctx context.Context, _, payload string) error {
		return e.sink.Broadcast(ctx, payload)
	})
	e.Register("command", func(ctx context.Context, _, payload string) error {
		return e.sink.Command(ctx, payload)
	})
	e.Register("title", func(ctx context.Context, player, payload string) error {
		title, subtitle := payload, ""
		if i := strings.Index(payload, ";"); i >= 0 {
			title, subtitle = payload[:i], payload[i+1:]
		}
		return e.sink.Title(ctx, player, strings.TrimSpace(title), strings.TrimSpace(subtitle))
	})
	e.Register("sound", func(ctx context.Context, player, payload string) error {
		return e.sink.Sound(ctx, player, payload)
	})
}

// splitAction separates "[tag] payload" into its tag (lowercased, without
// brackets) and payload. Strings without a bracket tag keep an empty tag
// and fall through to the default handler.
func splitAction(raw string) (tag, payload string) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "[") {
		return "", s
	}
	end := strings.Index(s, "]")
	if end < 0 {
		return "", s
	}
	tag = strings.ToLower(strings.TrimSpace(s[1:end]))
	payload = strings.TrimSpace(s[end+1:])
	return tag, payload
}

// LogSink is the default Sink: it records every effect through the logger.
// Useful on its own for dry runs and tests.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink creates a sink that logs effects instead of delivering them.
func NewLogSink(log *zap.Logger) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSink{log: log.Named("sink")}
}

func (s *LogSink) Message(_ context.Context, player, text string) error {
	s.log.Info("message", zap.String("player", player), zap.String("text", text))
	return nil
}

func (s *LogSink) Broadcast(_ context.Context, text string) error {
	s.log.Info("broadcast", zap.String("text", text))
	return nil
}

func (s *LogSink) Title(_ context.Context, player, title, subtitle string) error {
	s.log.Info("title", zap.String("player", player),
		zap.String("title", title), zap.String("subtitle", subtitle))
	return nil
}

func (s *LogSink) Command(_ context.Context, command string) error {
	s.log.Info("command", zap.String("command", command))
	return nil
}

func (s *LogSink) Sound(_ context.Context, player, sound string) error {
	s.log.Info("sound", zap.String("player", player), zap.String("sound", sound))
	return nil
}
