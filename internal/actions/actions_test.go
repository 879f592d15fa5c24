package actions

import (
	"context"
	"errors"
	"testing"
)

// recordSink captures every delivered effect for assertions.
type recordSink struct {
	messages   []string
	broadcasts []string
	commands   []string
	titles     [][2]string
	sounds     []string
	fail       bool
}

func (s *recordSink) Message(_ context.Context, player, text string) error {
	if s.fail {
		return errors.New("sink down")
	}
	s.messages = append(s.messages, player+":"+text)
	return nil
}

func (s *recordSink) Broadcast(_ context.Context, text string) error {
	s.broadcasts = append(s.broadcasts, text)
	return nil
}

func (s *recordSink) Command(_ context.Context, command string) error {
	s.commands = append(s.commands, command)
	return nil
}

func (s *recordSink) Title(_ context.Context, _, title, subtitle string) error {
	s.titles = append(s.titles, [2]string{title, subtitle})
	return nil
}

func (s *recordSink) Sound(_ context.Context, _, sound string) error {
	s.sounds = append(s.sounds, sound)
	return nil
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	t.Run("RoutesByTag", func(t *testing.T) {
		sink := &recordSink{}
		e := NewExecutor(sink, nil)

		e.Execute(ctx, "steve", []string{
			"[message] you won",
			"[broadcast] steve won the jackpot",
			"[command] give steve diamond 1",
			"[sound] ENTITY_PLAYER_LEVELUP",
		})

		if len(sink.messages) != 1 || sink.messages[0] != "steve:you won" {
			t.Errorf("Unexpected messages: %v", sink.messages)
		}
		if len(sink.broadcasts) != 1 {
			t.Errorf("Unexpected broadcasts: %v", sink.broadcasts)
		}
		if len(sink.commands) != 1 || sink.commands[0] != "give steve diamond 1" {
			t.Errorf("Unexpected commands: %v", sink.commands)
		}
		if len(sink.sounds) != 1 {
			t.Errorf("Unexpected sounds: %v", sink.sounds)
		}
	})

	t.Run("SubstitutesPlayerPlaceholder", func(t *testing.T) {
		sink := &recordSink{}
		e := NewExecutor(sink, nil)

		e.Execute(ctx, "alex", []string{"[command] give %player% key 1"})

		if sink.commands[0] != "give alex key 1" {
			t.Errorf("Placeholder not substituted: %q", sink.commands[0])
		}
	})

	t.Run("TitleSplitsSubtitle", func(t *testing.T) {
		sink := &recordSink{}
		e := NewExecutor(sink, nil)

		e.Execute(ctx, "steve", []string{"[title] Congratulations;you opened a case"})

		if len(sink.titles) != 1 {
			t.Fatalf("Expected one title, got %d", len(sink.titles))
		}
		if sink.titles[0][0] != "Congratulations" || sink.titles[0][1] != "you opened a case" {
			t.Errorf("Unexpected title split: %v", sink.titles[0])
		}
	})

	t.Run("UnknownTagIgnored", func(t *testing.T) {
		sink := &recordSink{}
		e := NewExecutor(sink, nil)

		e.Execute(ctx, "steve", []string{"[teleport] spawn", "[message] still here"})

		if len(sink.messages) != 1 {
			t.Errorf("Action after an unknown tag never ran: %v", sink.messages)
		}
	})

	t.Run("FailingActionDoesNotStopRest", func(t *testing.T) {
		sink := &recordSink{fail: true}
		e := NewExecutor(sink, nil)

		e.Execute(ctx, "steve", []string{"[message] will fail", "[command] still runs"})

		if len(sink.commands) != 1 {
			t.Errorf("Action after a failing action never ran: %v", sink.commands)
		}
	})

	t.Run("CustomHandlerOverridesBuiltin", func(t *testing.T) {
		sink := &recordSink{}
		e := NewExecutor(sink, nil)

		var custom []string
		e.Register("message", func(_ context.Context, player, payload string) error {
			custom = append(custom, payload)
			return nil
		})

		e.Execute(ctx, "steve", []string{"[message] intercepted"})

		if len(custom) != 1 || len(sink.messages) != 0 {
			t.Errorf("Custom handler not used: custom=%v sink=%v", custom, sink.messages)
		}
	})

	t.Run("CustomFallback", func(t *testing.T) {
		sink := &recordSink{}
		e := NewExecutor(sink, nil)

		var caught []string
		e.SetFallback(func(_ context.Context, _, payload string) error {
			caught = append(caught, payload)
			return nil
		})

		e.Execute(ctx, "steve", []string{"[warp] hub"})

		if len(caught) != 1 || caught[0] != "[warp] hub" {
			t.Errorf("Fallback did not receive the raw action: %v", caught)
		}
	})
}

func TestSplitAction(t *testing.T) {
	cases := []struct {
		raw     string
		tag     string
		payload string
	}{
		{"[message] hello", "message", "hello"},
		{"[MESSAGE]  spaced  ", "message", "spaced"},
		{"no tag at all", "", "no tag at all"},
		{"[unclosed payload", "", "[unclosed payload"},
		{"  [sound] click", "sound", "click"},
	}
	for _, c := range cases {
		tag, payload := splitAction(c.raw)
		if tag != c.tag || payload != c.payload {
			t.Errorf("splitAction(%q) = (%q, %q), expected (%q, %q)",
				c.raw, tag, payload, c.tag, c.payload)
		}
	}
}
