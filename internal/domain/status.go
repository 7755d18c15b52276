package domain

// GameStatus is the lifecycle state of a game.
type GameStatus string

const (
	GameSetup      GameStatus = "setup"
	GameInProgress GameStatus = "in_progress"
	GameCompleted  GameStatus = "completed"
	GameCancelled  GameStatus = "cancelled"
)

var gameTransitions = map[GameStatus][]GameStatus{
	GameSetup:      {GameInProgress, GameCancelled},
	GameInProgress: {GameCompleted, GameCancelled},
}

// Valid reports whether s is a known status.
func (s GameStatus) Valid() bool {
	switch s {
	case GameSetup, GameInProgress, GameCompleted, GameCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the lifecycle permits moving from s to next.
func (s GameStatus) CanTransition(next GameStatus) bool {
	for _, allowed := range gameTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RoundStatus is the progression state of a round.
type RoundStatus string

const (
	RoundPending    RoundStatus = "pending"
	RoundInProgress RoundStatus = "in_progress"
	RoundCompleted  RoundStatus = "completed"
)

// Valid reports whether s is a known status.
func (s RoundStatus) Valid() bool {
	switch s {
	case RoundPending, RoundInProgress, RoundCompleted:
		return true
	}
	return false
}

// CanTransition reports whether a round may move from s to next. Rounds
// never skip in_progress and never regress.
func (s RoundStatus) CanTransition(next RoundStatus) bool {
	switch s {
	case RoundPending:
		return next == RoundInProgress
	case RoundInProgress:
		return next == RoundCompleted
	}
	return false
}
