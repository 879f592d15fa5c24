package events

import (
	"testing"
)

func TestPublish(t *testing.T) {
	t.Run("HandlersRunInRegistrationOrder", func(t *testing.T) {
		b := NewBus(nil)
		var order []int
		for i := 1; i <= 3; i++ {
			i := i
			b.Subscribe(TypeReload, func(Event) { order = append(order, i) })
		}

		b.Publish(&ReloadEvent{Count: 2})

		if len(order) != 3 {
			t.Fatalf("Expected 3 handlers to run, got %d", len(order))
		}
		for i, got := range order {
			if got != i+1 {
				t.Errorf("Handler %d ran at position %d", got, i)
			}
		}
	})

	t.Run("OnlyMatchingTypeDispatched", func(t *testing.T) {
		b := NewBus(nil)
		var reloads, opens int
		b.Subscribe(TypeReload, func(Event) { reloads++ })
		b.Subscribe(TypeOpen, func(Event) { opens++ })

		b.Publish(&ReloadEvent{Count: 1})

		if reloads != 1 || opens != 0 {
			t.Errorf("Expected reloads=1 opens=0, got reloads=%d opens=%d", reloads, opens)
		}
	})

	t.Run("PanickingHandlerDoesNotStopOthers", func(t *testing.T) {
		b := NewBus(nil)
		var survived bool
		b.Subscribe(TypeOpen, func(Event) { panic("boom") })
		b.Subscribe(TypeOpen, func(Event) { survived = true })

		b.Publish(&OpenEvent{CaseID: "weekly", Player: "steve"})

		if !survived {
			t.Error("Handler after a panicking handler never ran")
		}
	})

	t.Run("NoHandlersIsFine", func(t *testing.T) {
		b := NewBus(nil)
		b.Publish(&EnableEvent{})
	})
}

func TestPreOpenEvent(t *testing.T) {
	t.Run("CancelVetoes", func(t *testing.T) {
		b := NewBus(nil)
		b.Subscribe(TypePreOpen, func(e Event) {
			e.(*PreOpenEvent).Cancel()
		})

		pre := &PreOpenEvent{CaseID: "weekly", Player: "steve"}
		b.Publish(pre)

		if !pre.Cancelled() {
			t.Error("Expected event to be cancelled")
		}
	})

	t.Run("IgnoreKeysFlag", func(t *testing.T) {
		b := NewBus(nil)
		b.Subscribe(TypePreOpen, func(e Event) {
			e.(*PreOpenEvent).SetIgnoreKeys(true)
		})

		pre := &PreOpenEvent{CaseID: "weekly", Player: "steve"}
		b.Publish(pre)

		if !pre.IgnoreKeys() {
			t.Error("Expected ignore-keys flag to be set")
		}
		if pre.Cancelled() {
			t.Error("Ignore-keys must not imply cancellation")
		}
	})

	t.Run("DefaultsClean", func(t *testing.T) {
		pre := &PreOpenEvent{}
		if pre.Cancelled() || pre.IgnoreKeys() {
			t.Error("Fresh event should be neither cancelled nor key-exempt")
		}
	})
}

func TestOpenEventCancel(t *testing.T) {
	b := NewBus(nil)
	b.Subscribe(TypeOpen, func(e Event) {
		e.(*OpenEvent).Cancel()
	})

	open := &OpenEvent{CaseID: "weekly", Player: "steve"}
	b.Publish(open)

	if !open.Cancelled() {
		t.Error("Expected event to be cancelled")
	}
}

func TestEventTypes(t *testing.T) {
	cases := []struct {
		event Event
		want  Type
	}{
		{&ReloadEvent{}, TypeReload},
		{&PreOpenEvent{}, TypePreOpen},
		{&OpenEvent{}, TypeOpen},
		{&AnimationEndEvent{}, TypeAnimationEnd},
		{&EnableEvent{}, TypeEnable},
		{&DisableEvent{}, TypeDisable},
	}
	for _, c := range cases {
		if got := c.event.EventType(); got != c.want {
			t.Errorf("%T.EventType() = %q, expected %q", c.event, got, c.want)
		}
	}
}
