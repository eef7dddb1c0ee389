package gamification

import (
	"reflect"
	"testing"
)

func TestDiffer_FirstSnapshotNeverFires(t *testing.T) {
	d := NewDiffer()

	events := d.Apply(Snapshot{XP: 5000})
	if len(events) != 0 {
		t.Fatalf("first snapshot emitted %v, want nothing", events)
	}
}

func TestDiffer_TransitionSequence(t *testing.T) {
	d := NewDiffer()

	steps := []struct {
		xp       int
		expected []Event
	}{
		{50, nil},
		{150, []Event{
			{Type: EventXPGain, Amount: 100},
			{Type: EventLevelUp, Level: 2},
		}},
		{150, nil},
		{400, []Event{
			{Type: EventXPGain, Amount: 250},
			{Type: EventLevelUp, Level: 3},
		}},
	}

	for i, step := range steps {
		got := d.Apply(Snapshot{XP: step.xp})
		if !reflect.DeepEqual(got, step.expected) {
			t.Errorf("step %d (xp=%d): got %v, want %v", i, step.xp, got, step.expected)
		}
	}
}

func TestDiffer_BulkGainSuppressed(t *testing.T) {
	d := NewDiffer()
	d.Apply(Snapshot{XP: 100})

	events := d.Apply(Snapshot{XP: 1600})
	for _, ev := range events {
		if ev.Type == EventXPGain {
			t.Errorf("bulk gain of 1500 emitted an XP gain event: %v", ev)
		}
	}

	// The level boundary crossing still fires.
	found := false
	for _, ev := range events {
		if ev.Type == EventLevelUp {
			found = true
			if ev.Level != LevelOf(1600) {
				t.Errorf("level up reported level %d, want %d", ev.Level, LevelOf(1600))
			}
		}
	}
	if !found {
		t.Error("expected a level up event for the crossed boundary")
	}
}

func TestDiffer_StateAdvancesWithoutEvents(t *testing.T) {
	d := NewDiffer()
	d.Apply(Snapshot{XP: 100})
	d.Apply(Snapshot{XP: 2000}) // suppressed bulk gain

	// The next small gain is measured against 2000, not 100.
	events := d.Apply(Snapshot{XP: 2050})
	if len(events) != 1 || events[0].Type != EventXPGain || events[0].Amount != 50 {
		t.Errorf("expected a single 50 XP gain, got %v", events)
	}
}

func TestDiffer_XPDecreaseIsSilent(t *testing.T) {
	d := NewDiffer()
	d.Apply(Snapshot{XP: 500})

	if events := d.Apply(Snapshot{XP: 300}); len(events) != 0 {
		t.Errorf("xp decrease emitted %v, want nothing", events)
	}
}
