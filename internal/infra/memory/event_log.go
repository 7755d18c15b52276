package memory

import (
	"context"
	"sync"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
)

// EventLog is an in-process app.EventPublisher that keeps every event it
// receives.
type EventLog struct {
	mu     sync.RWMutex
	events []domain.Event
}

func NewEventLog() *EventLog {
	return &EventLog{}
}

func (l *EventLog) Publish(_ context.Context, event domain.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

// Events returns the events published for gameID, oldest first. An empty
// gameID returns everything.
func (l *EventLog) Events(gameID string) []domain.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.Event
	for _, ev := range l.events {
		if gameID == "" || ev.GameID == gameID {
			out = append(out, ev)
		}
	}
	return out
}

// Types is Events reduced to event types.
func (l *EventLog) Types(gameID string) []domain.EventType {
	events := l.Events(gameID)
	types := make([]domain.EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}
