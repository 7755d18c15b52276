package domain

import "time"

// EventType names a state change produced by the core.
type EventType string

const (
	EventGameCreated      EventType = "game.created"
	EventGameUpdated      EventType = "game.updated"
	EventGameStarted      EventType = "game.started"
	EventGameCompleted    EventType = "game.completed"
	EventGameCancelled    EventType = "game.cancelled"
	EventGameArchived     EventType = "game.archived"
	EventGameDeleted      EventType = "game.deleted"
	EventTeamCreated      EventType = "team.created"
	EventTeamUpdated      EventType = "team.updated"
	EventTeamDeleted      EventType = "team.deleted"
	EventPlayerJoined     EventType = "player.joined"
	EventPlayerLeft       EventType = "player.left"
	EventRoundStarted     EventType = "round.started"
	EventRoundCompleted   EventType = "round.completed"
	EventQuestionReplaced EventType = "question.replaced"
	EventAnswerSubmitted  EventType = "answer.submitted"
)

// Event is a committed state change, handed to an external fan-out.
type Event struct {
	Type    EventType `json:"type"`
	GameID  string    `json:"gameId"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}
