package gamification

import "time"

// Snapshot is one delivery of the user's remote aggregate record.
type Snapshot struct {
	XP                int         `json:"xp"`
	TotalStudySeconds int         `json:"total_study_seconds"`
	ActivityDates     []time.Time `json:"activity_dates"`
}

type EventType string

const (
	EventXPGain  EventType = "xp_gain"
	EventLevelUp EventType = "level_up"
)

// Event is a UI-facing notification derived from a snapshot transition.
type Event struct {
	Type   EventType `json:"type"`
	Amount int       `json:"amount,omitempty"`
	Level  int       `json:"level,omitempty"`
}

// xpGainCeiling suppresses gain toasts for bulk corrections and backfills,
// which exceed any normal single-action reward.
const xpGainCeiling = 1000

// Differ compares consecutive snapshots of one user's aggregate and emits
// each level-up and XP-gain transition exactly once. Construct a fresh
// instance per subscription: the first snapshot seeds the comparison state
// and never fires events, so a resubscribe (new user, recovered stream)
// cannot replay stale notifications.
type Differ struct {
	prevXP    int
	prevLevel int
	primed    bool
}

func NewDiffer() *Differ {
	return &Differ{}
}

// Apply evaluates one incoming snapshot and returns the events it
// triggers, in emission order. Comparison state advances whether or not
// anything fired.
func (d *Differ) Apply(s Snapshot) []Event {
	level := LevelOf(s.XP)

	var events []Event
	if d.primed {
		if s.XP > d.prevXP {
			if gained := s.XP - d.prevXP; gained < xpGainCeiling {
				events = append(events, Event{Type: EventXPGain, Amount: gained})
			}
		}
		if level > d.prevLevel {
			events = append(events, Event{Type: EventLevelUp, Level: level})
		}
	}

	d.prevXP = s.XP
	d.prevLevel = level
	d.primed = true
	return events
}
