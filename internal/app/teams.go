package app

import (
	"context"
	"fmt"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
)

// TeamManager enforces team-count, roster-size and one-team-per-player rules.
// Callers hand it a Repository bound to the atomic unit holding the game or
// team lock.
type TeamManager struct {
	now   func() time.Time
	newID func() string
}

func NewTeamManager(now func() time.Time, newID func() string) *TeamManager {
	return &TeamManager{now: now, newID: newID}
}

// Create adds a team to a game that is still in setup.
func (m *TeamManager) Create(ctx context.Context, repo Repository, game domain.Game, in TeamInput) (domain.Team, error) {
	if game.Status != domain.GameSetup {
		return domain.Team{}, &domain.TransitionError{Entity: "game", ID: game.ID, From: string(game.Status), Op: "create team"}
	}
	teams, err := repo.ListTeams(ctx, game.ID)
	if err != nil {
		return domain.Team{}, fmt.Errorf("list teams: %w", err)
	}
	if len(teams) >= game.MaxTeams {
		return domain.Team{}, &domain.CapacityError{Resource: domain.ResourceTeams, GameID: game.ID, Limit: game.MaxTeams}
	}
	if nameTaken(teams, in.Name, "") {
		return domain.Team{}, &domain.DuplicateNameError{GameID: game.ID, Name: in.Name}
	}

	team := domain.Team{
		ID:        m.newID(),
		GameID:    game.ID,
		Name:      in.Name,
		Color:     in.Color,
		CreatedAt: m.now(),
	}
	if err := repo.CreateTeam(ctx, team); err != nil {
		return domain.Team{}, err
	}
	return team, nil
}

// Update renames or recolors a team while the game is in setup.
func (m *TeamManager) Update(ctx context.Context, repo Repository, game domain.Game, team domain.Team, in TeamInput) (domain.Team, error) {
	if game.Status != domain.GameSetup {
		return domain.Team{}, domain.NewNotEditable("update", "team", team.ID, string(game.Status), "teams are fixed once the game starts")
	}
	if in.Name != team.Name {
		teams, err := repo.ListTeams(ctx, game.ID)
		if err != nil {
			return domain.Team{}, fmt.Errorf("list teams: %w", err)
		}
		if nameTaken(teams, in.Name, team.ID) {
			return domain.Team{}, &domain.DuplicateNameError{GameID: game.ID, Name: in.Name}
		}
	}
	team.Name = in.Name
	team.Color = in.Color
	if err := repo.UpdateTeam(ctx, team); err != nil {
		return domain.Team{}, err
	}
	return team, nil
}

// Delete removes a team and its memberships while the game is in setup.
func (m *TeamManager) Delete(ctx context.Context, repo Repository, game domain.Game, team domain.Team) error {
	if game.Status != domain.GameSetup {
		return domain.NewNotDeletable("team", team.ID, string(game.Status), 0, "teams are fixed once the game starts")
	}
	return repo.DeleteTeam(ctx, team.ID)
}

// Join adds a player to a team. A player already on any team of the game,
// this one included, is rejected rather than treated as idempotent.
func (m *TeamManager) Join(ctx context.Context, repo Repository, game domain.Game, team domain.Team, playerID string) (domain.TeamPlayer, error) {
	if !rosterOpen(game.Status) {
		return domain.TeamPlayer{}, &domain.TransitionError{Entity: "game", ID: game.ID, From: string(game.Status), Op: "join team"}
	}
	current, ok, err := repo.FindPlayerTeam(ctx, game.ID, playerID)
	if err != nil {
		return domain.TeamPlayer{}, fmt.Errorf("find player team: %w", err)
	}
	if ok {
		return domain.TeamPlayer{}, &domain.PlayerAssignedError{GameID: game.ID, PlayerID: playerID, TeamID: current}
	}
	members, err := repo.ListTeamPlayers(ctx, team.ID)
	if err != nil {
		return domain.TeamPlayer{}, fmt.Errorf("list team players: %w", err)
	}
	if len(members) >= game.MaxPlayersPerTeam {
		return domain.TeamPlayer{}, &domain.CapacityError{
			Resource: domain.ResourcePlayers,
			GameID:   game.ID,
			TeamID:   team.ID,
			Limit:    game.MaxPlayersPerTeam,
		}
	}

	member := domain.TeamPlayer{TeamID: team.ID, GameID: game.ID, PlayerID: playerID, JoinedAt: m.now()}
	if err := repo.AddTeamPlayer(ctx, member); err != nil {
		return domain.TeamPlayer{}, err
	}
	return member, nil
}

// Leave removes a player from a team. Removing a non-member is a no-op and
// reports false.
func (m *TeamManager) Leave(ctx context.Context, repo Repository, game domain.Game, team domain.Team, playerID string) (bool, error) {
	if !rosterOpen(game.Status) {
		return false, &domain.TransitionError{Entity: "game", ID: game.ID, From: string(game.Status), Op: "leave team"}
	}
	return repo.RemoveTeamPlayer(ctx, team.ID, playerID)
}

// Readiness reports which teams have a roster within the game's bounds.
func (m *TeamManager) Readiness(ctx context.Context, repo Repository, game domain.Game) (domain.Readiness, error) {
	teams, err := repo.ListTeams(ctx, game.ID)
	if err != nil {
		return domain.Readiness{}, fmt.Errorf("list teams: %w", err)
	}
	out := domain.Readiness{GameID: game.ID, Ready: true, Teams: make([]domain.TeamReadiness, 0, len(teams))}
	for _, team := range teams {
		members, err := repo.ListTeamPlayers(ctx, team.ID)
		if err != nil {
			return domain.Readiness{}, fmt.Errorf("list team players: %w", err)
		}
		n := len(members)
		ready := n >= game.MinPlayersPerTeam && n <= game.MaxPlayersPerTeam
		out.Teams = append(out.Teams, domain.TeamReadiness{TeamID: team.ID, Name: team.Name, Members: n, Ready: ready})
		if !ready {
			out.Ready = false
		}
	}
	return out, nil
}

func nameTaken(teams []domain.Team, name, exceptID string) bool {
	for _, t := range teams {
		if t.Name == name && t.ID != exceptID {
			return true
		}
	}
	return false
}

// rosterOpen reports whether memberships may still change. Late joiners are
// accepted while the game runs.
func rosterOpen(status domain.GameStatus) bool {
	return status == domain.GameSetup || status == domain.GameInProgress
}

// CreateTeam adds a team to a game in setup. Any identified caller may create
// a team.
func (s *GameService) CreateTeam(ctx context.Context, callerID, gameID string, in TeamInput) (domain.Team, error) {
	if callerID == "" {
		return domain.Team{}, &domain.UnauthorizedError{Op: "create team in", Resource: "game " + gameID}
	}
	in = in.normalize()
	if err := asError(validateStruct("team", in)); err != nil {
		return domain.Team{}, err
	}
	var team domain.Team
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		game, err := repo.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		team, err = s.teams.Create(ctx, repo, game, in)
		return err
	})
	if err != nil {
		return domain.Team{}, domain.WrapStorage("create team", err)
	}
	s.publish(ctx, s.event(domain.EventTeamCreated, team.GameID, team))
	return team, nil
}

// UpdateTeam changes a team's name or color. Host only.
func (s *GameService) UpdateTeam(ctx context.Context, callerID, teamID string, in TeamInput) (domain.Team, error) {
	in = in.normalize()
	if err := asError(validateStruct("team", in)); err != nil {
		return domain.Team{}, err
	}
	var team domain.Team
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		game, current, err := s.lockTeamGame(ctx, repo, teamID)
		if err != nil {
			return err
		}
		if err := requireHost(game, callerID, "update team in"); err != nil {
			return err
		}
		team, err = s.teams.Update(ctx, repo, game, current, in)
		return err
	})
	if err != nil {
		return domain.Team{}, domain.WrapStorage("update team", err)
	}
	s.publish(ctx, s.event(domain.EventTeamUpdated, team.GameID, team))
	return team, nil
}

// DeleteTeam removes a team during setup. Host only.
func (s *GameService) DeleteTeam(ctx context.Context, callerID, teamID string) error {
	var gameID string
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		game, team, err := s.lockTeamGame(ctx, repo, teamID)
		if err != nil {
			return err
		}
		if err := requireHost(game, callerID, "delete team in"); err != nil {
			return err
		}
		gameID = game.ID
		return s.teams.Delete(ctx, repo, game, team)
	})
	if err != nil {
		return domain.WrapStorage("delete team", err)
	}
	s.publish(ctx, s.event(domain.EventTeamDeleted, gameID, map[string]string{"teamId": teamID}))
	return nil
}

// JoinTeam adds playerID to a team; an empty playerID means the caller.
func (s *GameService) JoinTeam(ctx context.Context, callerID, teamID, playerID string) (domain.TeamPlayer, error) {
	if playerID == "" {
		playerID = callerID
	}
	var member domain.TeamPlayer
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		game, team, err := s.lockTeamGame(ctx, repo, teamID)
		if err != nil {
			return err
		}
		if err := requireSelfOrHost(game, callerID, playerID, "join team for"); err != nil {
			return err
		}
		member, err = s.teams.Join(ctx, repo, game, team, playerID)
		return err
	})
	if err != nil {
		return domain.TeamPlayer{}, domain.WrapStorage("join team", err)
	}
	s.publish(ctx, s.event(domain.EventPlayerJoined, member.GameID, member))
	return member, nil
}

// LeaveTeam removes playerID from a team; an empty playerID means the caller.
func (s *GameService) LeaveTeam(ctx context.Context, callerID, teamID, playerID string) error {
	if playerID == "" {
		playerID = callerID
	}
	var (
		removed bool
		gameID  string
	)
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		game, team, err := s.lockTeamGame(ctx, repo, teamID)
		if err != nil {
			return err
		}
		if err := requireSelfOrHost(game, callerID, playerID, "leave team for"); err != nil {
			return err
		}
		gameID = game.ID
		removed, err = s.teams.Leave(ctx, repo, game, team, playerID)
		return err
	})
	if err != nil {
		return domain.WrapStorage("leave team", err)
	}
	if removed {
		s.publish(ctx, s.event(domain.EventPlayerLeft, gameID, map[string]string{"teamId": teamID, "playerId": playerID}))
	}
	return nil
}

// GetReadiness reports whether every team of a game is within its player
// bounds. StartGame only enforces it when Options.RequireReadyTeams is set.
func (s *GameService) GetReadiness(ctx context.Context, gameID string) (domain.Readiness, error) {
	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.Readiness{}, domain.WrapStorage("get readiness", err)
	}
	readiness, err := s.teams.Readiness(ctx, s.repo, game)
	if err != nil {
		return domain.Readiness{}, domain.WrapStorage("get readiness", err)
	}
	return readiness, nil
}

// ListTeams returns a game's teams in creation order.
func (s *GameService) ListTeams(ctx context.Context, gameID string) ([]domain.Team, error) {
	if _, err := s.repo.GetGame(ctx, gameID); err != nil {
		return nil, domain.WrapStorage("list teams", err)
	}
	teams, err := s.repo.ListTeams(ctx, gameID)
	if err != nil {
		return nil, domain.WrapStorage("list teams", err)
	}
	return teams, nil
}

// lockTeamGame locks the game owning teamID, then the team. Every roster or
// game-config change takes the game lock first, so limits read here hold
// until commit.
func (s *GameService) lockTeamGame(ctx context.Context, repo Repository, teamID string) (domain.Game, domain.Team, error) {
	team, err := repo.GetTeam(ctx, teamID)
	if err != nil {
		return domain.Game{}, domain.Team{}, err
	}
	game, err := repo.LockGame(ctx, team.GameID)
	if err != nil {
		return domain.Game{}, domain.Team{}, err
	}
	team, err = repo.LockTeam(ctx, teamID)
	if err != nil {
		return domain.Game{}, domain.Team{}, err
	}
	return game, team, nil
}
