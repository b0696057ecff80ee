package syncer

import (
	"sync"
	"time"

	"fieldsync/internal/domain/submission"
)

// EventType names a sync lifecycle notification.
type EventType string

const (
	EventSyncStart        EventType = "sync_start"
	EventSyncProgress     EventType = "sync_progress"
	EventSyncComplete     EventType = "sync_complete"
	EventSyncError        EventType = "sync_error"
	EventConflictDetected EventType = "conflict_detected"
	EventConflictResolved EventType = "conflict_resolved"
)

// Progress reports how far a running sync pass has advanced.
type Progress struct {
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Current string `json:"current,omitempty"`
}

// Summary totals one finished sync pass. Skipped counts records left
// in the queue because connectivity dropped or a manual conflict is
// still unresolved.
type Summary struct {
	Total     int `json:"total"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Conflicts int `json:"conflicts"`
	Skipped   int `json:"skipped"`
}

// Event is what sync listeners receive. Exactly one of Progress,
// Summary, Conflict or Err is populated depending on Type.
type Event struct {
	Type     EventType            `json:"type"`
	Time     time.Time            `json:"time"`
	Progress *Progress            `json:"progress,omitempty"`
	Summary  *Summary             `json:"summary,omitempty"`
	Conflict *submission.Conflict `json:"conflict,omitempty"`
	Err      string               `json:"error,omitempty"`
}

// broadcaster fans events out to subscribed listeners.
type broadcaster struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(Event)
}

func newBroadcaster() *broadcaster {
	return &broadcaster{listeners: make(map[int]func(Event))}
}

func (b *broadcaster) subscribe(l func(Event)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

func (b *broadcaster) publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	b.mu.Lock()
	listeners := make([]func(Event), 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}
