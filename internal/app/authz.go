package app

import "github.com/burggraf/trivia-party-new-2-sub000/internal/domain"

// requireHost rejects callers that do not own the game.
func requireHost(game domain.Game, callerID, op string) error {
	if callerID == "" || callerID != game.HostID {
		return &domain.UnauthorizedError{Op: op, Resource: "game " + game.ID, CallerID: callerID}
	}
	return nil
}

// requireSelfOrHost lets a player act for themselves, or the host act for anyone.
func requireSelfOrHost(game domain.Game, callerID, playerID, op string) error {
	if callerID != "" && (callerID == playerID || callerID == game.HostID) {
		return nil
	}
	return &domain.UnauthorizedError{Op: op, Resource: "player " + playerID, CallerID: callerID}
}
