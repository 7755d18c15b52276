package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is matched by ValidationError.
	ErrValidation = errors.New("configuration validation failed")
	// ErrCapacityExceeded is matched by every CapacityError.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrTeamFull is matched by a CapacityError on a team's roster.
	ErrTeamFull = errors.New("team full")
	// ErrDuplicateName indicates a team name is already used in the game.
	ErrDuplicateName = errors.New("duplicate team name")
	// ErrDuplicateAnswer indicates the team already answered the round-question.
	ErrDuplicateAnswer = errors.New("duplicate answer")
	// ErrPlayerAlreadyAssigned indicates the player is already on a team of the game.
	ErrPlayerAlreadyAssigned = errors.New("player already assigned")
	// ErrInsufficientQuestions indicates allocation could not satisfy the requested count.
	ErrInsufficientQuestions = errors.New("insufficient questions")
	// ErrInvalidTransition indicates an operation the current state does not permit.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrRoundsNotFinished indicates a game still has rounds that are not completed.
	ErrRoundsNotFinished = errors.New("rounds not finished")
	// ErrNotDeletable indicates a game can no longer be deleted.
	ErrNotDeletable = errors.New("not deletable")
	// ErrNotEditable indicates a resource can no longer be modified.
	ErrNotEditable = errors.New("not editable")
	// ErrTeamsNotReady indicates at least one team's roster is outside its bounds.
	ErrTeamsNotReady = errors.New("teams not ready")
	// ErrUnauthorized indicates the caller may not perform the operation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates a referenced resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotTeamMember indicates the player does not belong to the team.
	ErrNotTeamMember = errors.New("player is not a team member")
	// ErrStorage is matched by StorageError.
	ErrStorage = errors.New("storage failure")
)

// Kind classifies a domain error for callers that render or route it.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindCapacityExceeded      Kind = "capacity_exceeded"
	KindDuplicateName         Kind = "duplicate_name"
	KindDuplicateAnswer       Kind = "duplicate_answer"
	KindPlayerAlreadyAssigned Kind = "player_already_assigned"
	KindInsufficientQuestions Kind = "insufficient_questions"
	KindInvalidTransition     Kind = "invalid_transition"
	KindRoundsNotFinished     Kind = "rounds_not_finished"
	KindNotDeletable          Kind = "not_deletable"
	KindNotEditable           Kind = "not_editable"
	KindTeamsNotReady         Kind = "teams_not_ready"
	KindUnauthorized          Kind = "unauthorized"
	KindNotFound              Kind = "not_found"
	KindNotTeamMember         Kind = "not_team_member"
	KindStorage               Kind = "storage"
)

type kinded interface {
	Kind() Kind
}

// KindOf returns the kind of the first domain error in err's chain, or ""
// when err carries none.
func KindOf(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// FieldError is one violated configuration rule.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every violated field, not just the first.
type ValidationError struct {
	Resource string       `json:"resource"`
	Fields   []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("invalid %s configuration: %s", e.Resource, strings.Join(parts, "; "))
}

func (e *ValidationError) Kind() Kind { return KindValidation }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Add records a violation.
func (e *ValidationError) Add(field, rule, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Rule: rule, Message: msg})
}

// HasField reports whether field is among the violations.
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Capacity resources.
const (
	ResourceTeams   = "teams"
	ResourcePlayers = "players"
)

// CapacityError reports a team-count or roster-size bound.
type CapacityError struct {
	Resource string `json:"resource"`
	GameID   string `json:"gameId"`
	TeamID   string `json:"teamId,omitempty"`
	Limit    int    `json:"limit"`
}

func (e *CapacityError) Error() string {
	if e.Resource == ResourcePlayers {
		return fmt.Sprintf("team %s is full (%d players)", e.TeamID, e.Limit)
	}
	return fmt.Sprintf("game %s already has the maximum of %d teams", e.GameID, e.Limit)
}

func (e *CapacityError) Kind() Kind { return KindCapacityExceeded }

func (e *CapacityError) Is(target error) bool {
	if target == ErrCapacityExceeded {
		return true
	}
	return target == ErrTeamFull && e.Resource == ResourcePlayers
}

// DuplicateNameError reports a team name collision within a game.
type DuplicateNameError struct {
	GameID string `json:"gameId"`
	Name   string `json:"name"`
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("team name %q is already used in game %s", e.Name, e.GameID)
}

func (e *DuplicateNameError) Kind() Kind { return KindDuplicateName }
func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// DuplicateAnswerError reports a second submission for a round-question.
type DuplicateAnswerError struct {
	TeamID          string `json:"teamId"`
	RoundQuestionID string `json:"roundQuestionId"`
}

func (e *DuplicateAnswerError) Error() string {
	return fmt.Sprintf("team %s already answered round question %s", e.TeamID, e.RoundQuestionID)
}

func (e *DuplicateAnswerError) Kind() Kind { return KindDuplicateAnswer }
func (e *DuplicateAnswerError) Is(target error) bool { return target == ErrDuplicateAnswer }

// PlayerAssignedError reports a player already on a team of the same game.
type PlayerAssignedError struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	TeamID   string `json:"teamId,omitempty"`
}

func (e *PlayerAssignedError) Error() string {
	if e.TeamID != "" {
		return fmt.Sprintf("player %s already belongs to team %s in game %s", e.PlayerID, e.TeamID, e.GameID)
	}
	return fmt.Sprintf("player %s already belongs to a team in game %s", e.PlayerID, e.GameID)
}

func (e *PlayerAssignedError) Kind() Kind { return KindPlayerAlreadyAssigned }
func (e *PlayerAssignedError) Is(target error) bool { return target == ErrPlayerAlreadyAssigned }

// InsufficientQuestionsError reports an allocation the bank cannot satisfy.
type InsufficientQuestionsError struct {
	HostID     string   `json:"hostId"`
	Categories []string `json:"categories"`
	Needed     int      `json:"needed"`
	Available  int      `json:"available"`
}

func (e *InsufficientQuestionsError) Error() string {
	return fmt.Sprintf("insufficient questions in %s: needed %d, available %d",
		strings.Join(e.Categories, ","), e.Needed, e.Available)
}

func (e *InsufficientQuestionsError) Kind() Kind { return KindInsufficientQuestions }
func (e *InsufficientQuestionsError) Is(target error) bool { return target == ErrInsufficientQuestions }

// TransitionError reports a state-machine method invoked from a state that
// does not permit it. To is set for status changes, Op for other guarded
// operations.
type TransitionError struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	From   string `json:"from"`
	To     string `json:"to,omitempty"`
	Op     string `json:"op,omitempty"`
}

func (e *TransitionError) Error() string {
	if e.To != "" {
		return fmt.Sprintf("%s %s: invalid transition %s -> %s", e.Entity, e.ID, e.From, e.To)
	}
	return fmt.Sprintf("%s %s: %s not permitted while %s", e.Entity, e.ID, e.Op, e.From)
}

func (e *TransitionError) Kind() Kind { return KindInvalidTransition }
func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// RoundsNotFinishedError lists the round numbers that still block completion.
type RoundsNotFinishedError struct {
	GameID     string `json:"gameId"`
	Unfinished []int  `json:"unfinished"`
}

func (e *RoundsNotFinishedError) Error() string {
	return fmt.Sprintf("game %s has %d unfinished rounds", e.GameID, len(e.Unfinished))
}

func (e *RoundsNotFinishedError) Kind() Kind { return KindRoundsNotFinished }
func (e *RoundsNotFinishedError) Is(target error) bool { return target == ErrRoundsNotFinished }

// LifecycleError is a structural guard on deleting or editing.
type LifecycleError struct {
	Op       string `json:"op"`
	Resource string `json:"resource"`
	ID       string `json:"id"`
	Status   string `json:"status,omitempty"`
	Teams    int    `json:"teams,omitempty"`
	Hint     string `json:"hint,omitempty"`
	editable bool
}

// NewNotDeletable builds a not-deletable error.
func NewNotDeletable(resource, id, status string, teams int, hint string) *LifecycleError {
	return &LifecycleError{Op: "delete", Resource: resource, ID: id, Status: status, Teams: teams, Hint: hint}
}

// NewNotEditable builds a not-editable error.
func NewNotEditable(op, resource, id, status, hint string) *LifecycleError {
	return &LifecycleError{Op: op, Resource: resource, ID: id, Status: status, Hint: hint, editable: true}
}

func (e *LifecycleError) Error() string {
	what := "deletable"
	if e.editable {
		what = "editable"
	}
	msg := fmt.Sprintf("%s %s is not %s", e.Resource, e.ID, what)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

func (e *LifecycleError) Kind() Kind {
	if e.editable {
		return KindNotEditable
	}
	return KindNotDeletable
}

func (e *LifecycleError) Is(target error) bool {
	if e.editable {
		return target == ErrNotEditable
	}
	return target == ErrNotDeletable
}

// TeamsNotReadyError lists teams whose rosters are outside the game bounds.
type TeamsNotReadyError struct {
	GameID string   `json:"gameId"`
	Teams  []string `json:"teams"`
}

func (e *TeamsNotReadyError) Error() string {
	return fmt.Sprintf("game %s has %d teams outside their player bounds", e.GameID, len(e.Teams))
}

func (e *TeamsNotReadyError) Kind() Kind { return KindTeamsNotReady }
func (e *TeamsNotReadyError) Is(target error) bool { return target == ErrTeamsNotReady }

// UnauthorizedError names the rejected operation and resource.
type UnauthorizedError struct {
	Op       string `json:"op"`
	Resource string `json:"resource"`
	CallerID string `json:"callerId"`
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("caller %s may not %s %s", e.CallerID, e.Op, e.Resource)
}

func (e *UnauthorizedError) Kind() Kind { return KindUnauthorized }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Kind() Kind { return KindNotFound }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// MembershipError reports a player acting for a team they are not on.
type MembershipError struct {
	TeamID   string `json:"teamId"`
	PlayerID string `json:"playerId"`
}

func (e *MembershipError) Error() string {
	return fmt.Sprintf("player %s is not a member of team %s", e.PlayerID, e.TeamID)
}

func (e *MembershipError) Kind() Kind { return KindNotTeamMember }
func (e *MembershipError) Is(target error) bool { return target == ErrNotTeamMember }

// StorageError wraps a persistence failure with the operation that hit it.
type StorageError struct {
	Op  string `json:"op"`
	Err error  `json:"-"`
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
func (e *StorageError) Kind() Kind { return KindStorage }
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// WrapStorage passes domain errors through unchanged and wraps anything else
// in a StorageError.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
