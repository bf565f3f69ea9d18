package presence

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"smartmenu/model"
	"smartmenu/state"
)

var ErrInvalidMessage = errors.New("presence: invalid message")

const maxBadges = 5

// Entry is the last known presence of one user.
type Entry struct {
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

// Badge is one rendered "who's here" chip.
type Badge struct {
	Label  string
	Status string
	Class  string
}

type wireEntry struct {
	UserID    state.ID `json:"user_id"`
	Email     string   `json:"email"`
	Status    string   `json:"status"`
	Event     string   `json:"event"`
	Timestamp string   `json:"timestamp"`
}

// Decode validates a presence channel message.
func Decode(raw []byte) (Entry, error) {
	var w wireEntry
	if err := json.Unmarshal(raw, &w); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if w.UserID == 0 {
		return Entry{}, fmt.Errorf("%w: missing user_id", ErrInvalidMessage)
	}
	e := Entry{UserID: uint(w.UserID), Email: w.Email, Status: w.Status, Event: w.Event}
	if ts, err := time.Parse(time.RFC3339, w.Timestamp); err == nil {
		e.Timestamp = ts
	}
	return e, nil
}

// Tracker keeps the last message per user and re-renders only when a user's
// status or event actually changed.
type Tracker struct {
	mu      sync.Mutex
	entries map[uint]Entry
	render  func(count int, badges []Badge)
}

func NewTracker(render func(count int, badges []Badge)) *Tracker {
	return &Tracker{entries: map[uint]Entry{}, render: render}
}

func (t *Tracker) HandleMessage(raw []byte) error {
	e, err := Decode(raw)
	if err != nil {
		return err
	}
	t.Apply(e)
	return nil
}

// Apply stores e, last write wins. It reports whether a render happened.
func (t *Tracker) Apply(e Entry) bool {
	t.mu.Lock()
	prev, seen := t.entries[e.UserID]
	t.entries[e.UserID] = e
	if seen && prev.Status == e.Status && prev.Event == e.Event {
		t.mu.Unlock()
		return false
	}
	count, badges := t.viewLocked()
	t.mu.Unlock()

	if t.render != nil {
		t.render(count, badges)
	}
	return true
}

// Online lists users that are not offline, active first, then most recent.
func (t *Tracker) Online() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.onlineLocked()
}

func (t *Tracker) onlineLocked() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		if e.Status == "" || e.Status == model.PresenceOffline {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].Status == model.PresenceActive, out[j].Status == model.PresenceActive
		if ai != aj {
			return ai
		}
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// View returns the online count and the badges for the top users.
func (t *Tracker) View() (int, []Badge) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewLocked()
}

func (t *Tracker) viewLocked() (int, []Badge) {
	online := t.onlineLocked()
	n := min(len(online), maxBadges)
	badges := make([]Badge, 0, n)
	for _, e := range online[:n] {
		badges = append(badges, badgeFor(e))
	}
	return len(online), badges
}

func badgeFor(e Entry) Badge {
	label, _, _ := strings.Cut(e.Email, "@")
	if label == "" {
		label = fmt.Sprintf("User %d", e.UserID)
	}
	if e.Status == model.PresenceActive {
		return Badge{Label: label, Status: "active", Class: "bg-success"}
	}
	return Badge{Label: label, Status: "idle", Class: "bg-warning text-dark"}
}
