package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
)

// GameService is the entry point for every game operation. Each mutating
// call runs as one Repository.Atomic unit; events and score cache writes
// happen only after that unit commits.
type GameService struct {
	repo    Repository
	bank    QuestionBank
	alloc   *Allocator
	teams   *TeamManager
	rounds  *RoundController
	scorer  *Scorer
	summary SummaryAggregator

	events       EventPublisher
	scores       ScoreCache
	now          func() time.Time
	newID        func() string
	requireReady bool
	log          *slog.Logger
}

func NewGameService(repo Repository, bank QuestionBank, opts Options) *GameService {
	opts = opts.withDefaults()
	return &GameService{
		repo:         repo,
		bank:         bank,
		alloc:        NewAllocator(bank, opts.Rand, opts.Now),
		teams:        NewTeamManager(opts.Now, opts.NewID),
		rounds:       NewRoundController(opts.Now, opts.NewID),
		scorer:       NewScorer(bank, opts.Scoring, opts.Now, opts.NewID),
		events:       opts.Events,
		scores:       opts.Scores,
		now:          opts.Now,
		newID:        opts.NewID,
		requireReady: opts.RequireReadyTeams,
		log:          opts.Logger,
	}
}

// CreateGame stores a new game in setup together with its pending rounds.
func (s *GameService) CreateGame(ctx context.Context, hostID string, cfg GameConfig) (domain.Game, error) {
	if hostID == "" {
		return domain.Game{}, &domain.UnauthorizedError{Op: "create", Resource: "game"}
	}
	cfg = cfg.normalize()
	if err := asError(validateStruct("game", cfg)); err != nil {
		return domain.Game{}, err
	}

	now := s.now()
	game := domain.Game{
		ID:        s.newID(),
		HostID:    hostID,
		Status:    domain.GameSetup,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyConfig(&game, cfg)

	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.CreateGame(ctx, game); err != nil {
			return err
		}
		_, err := s.rounds.CreateRounds(ctx, repo, game)
		return err
	})
	if err != nil {
		return domain.Game{}, domain.WrapStorage("create game", err)
	}
	s.log.InfoContext(ctx, "game created", "game", game.ID, "host", hostID, "rounds", game.TotalRounds)
	s.publish(ctx, s.event(domain.EventGameCreated, game.ID, game))
	return game, nil
}

// UpdateGame replaces a game's configuration while it is in setup. Host only.
func (s *GameService) UpdateGame(ctx context.Context, callerID, gameID string, cfg GameConfig) (domain.Game, error) {
	cfg = cfg.normalize()
	if err := asError(validateStruct("game", cfg)); err != nil {
		return domain.Game{}, err
	}

	var game domain.Game
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		game, err = repo.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, callerID, "update"); err != nil {
			return err
		}
		if game.Status != domain.GameSetup {
			return domain.NewNotEditable("update", "game", game.ID, string(game.Status), "only games in setup can be changed")
		}
		if err := s.checkShrink(ctx, repo, game, cfg); err != nil {
			return err
		}

		resize := cfg.TotalRounds != game.TotalRounds
		applyConfig(&game, cfg)
		game.UpdatedAt = s.now()
		if err := repo.UpdateGame(ctx, game); err != nil {
			return err
		}
		if !resize {
			return nil
		}
		if err := repo.DeleteRounds(ctx, game.ID); err != nil {
			return err
		}
		_, err = s.rounds.CreateRounds(ctx, repo, game)
		return err
	})
	if err != nil {
		return domain.Game{}, domain.WrapStorage("update game", err)
	}
	s.publish(ctx, s.event(domain.EventGameUpdated, game.ID, game))
	return game, nil
}

// checkShrink rejects capacity limits below what the game already holds.
func (s *GameService) checkShrink(ctx context.Context, repo Repository, game domain.Game, cfg GameConfig) error {
	teams, err := repo.ListTeams(ctx, game.ID)
	if err != nil {
		return err
	}
	verr := &domain.ValidationError{Resource: "game"}
	if cfg.MaxTeams < len(teams) {
		verr.Add("maxTeams", "min", "must be at least the current team count")
	}
	for _, t := range teams {
		members, err := repo.ListTeamPlayers(ctx, t.ID)
		if err != nil {
			return err
		}
		if len(members) > cfg.MaxPlayersPerTeam {
			verr.Add("maxPlayersPerTeam", "min", "must be at least the largest team's member count")
			break
		}
	}
	return asError(verr)
}

func applyConfig(game *domain.Game, cfg GameConfig) {
	game.Title = cfg.Title
	game.ScheduledAt = cfg.ScheduledAt
	game.TotalRounds = cfg.TotalRounds
	game.QuestionsPerRound = cfg.QuestionsPerRound
	game.Categories = append([]string(nil), cfg.Categories...)
	game.MaxTeams = cfg.MaxTeams
	game.MaxPlayersPerTeam = cfg.MaxPlayersPerTeam
	game.MinPlayersPerTeam = cfg.MinPlayersPerTeam
}

// StartGame allocates every question the game needs, assigns them to rounds
// in order and starts round 1. On any failure nothing is started and no
// question is marked used. Host only.
func (s *GameService) StartGame(ctx context.Context, callerID, gameID string) (domain.Game, error) {
	var game domain.Game
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		game, err = repo.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, callerID, "start"); err != nil {
			return err
		}
		if !game.Status.CanTransition(domain.GameInProgress) {
			return gameTransition(game, domain.GameInProgress)
		}
		if s.requireReady {
			if err := s.checkReady(ctx, repo, game); err != nil {
				return err
			}
		}

		rounds, err := repo.ListRounds(ctx, game.ID)
		if err != nil {
			return err
		}
		sortRounds(rounds)
		questions, err := s.alloc.Allocate(ctx, repo, game.HostID, game.Categories, game.QuestionCount())
		if err != nil {
			return err
		}
		for i, batch := range chunk(questions, game.QuestionsPerRound) {
			if i >= len(rounds) {
				break
			}
			if _, err := s.rounds.AssignQuestions(ctx, repo, rounds[i], batch); err != nil {
				return err
			}
		}
		if len(rounds) > 0 {
			if _, err := s.rounds.Start(ctx, repo, rounds[0]); err != nil {
				return err
			}
		}

		now := s.now()
		game.Status = domain.GameInProgress
		game.StartedAt = &now
		game.UpdatedAt = now
		return repo.UpdateGame(ctx, game)
	})
	if err != nil {
		return domain.Game{}, domain.WrapStorage("start game", err)
	}
	s.log.InfoContext(ctx, "game started", "game", game.ID, "questions", game.QuestionCount())
	s.publish(ctx, s.event(domain.EventGameStarted, game.ID, game))
	return game, nil
}

func (s *GameService) checkReady(ctx context.Context, repo Repository, game domain.Game) error {
	readiness, err := s.teams.Readiness(ctx, repo, game)
	if err != nil {
		return err
	}
	if readiness.Ready {
		return nil
	}
	notReady := &domain.TeamsNotReadyError{GameID: game.ID}
	for _, t := range readiness.Teams {
		if !t.Ready {
			notReady.Teams = append(notReady.Teams, t.TeamID)
		}
	}
	return notReady
}

// CompleteGame ends a game whose rounds are all completed and returns its
// summary. Host only.
func (s *GameService) CompleteGame(ctx context.Context, callerID, gameID string) (domain.GameSummary, error) {
	var game domain.Game
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		game, err = repo.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, callerID, "complete"); err != nil {
			return err
		}
		if !game.Status.CanTransition(domain.GameCompleted) {
			return gameTransition(game, domain.GameCompleted)
		}
		rounds, err := repo.ListRounds(ctx, game.ID)
		if err != nil {
			return err
		}
		sortRounds(rounds)
		var unfinished []int
		for _, r := range rounds {
			if r.Status != domain.RoundCompleted {
				unfinished = append(unfinished, r.Number)
			}
		}
		if len(unfinished) > 0 {
			return &domain.RoundsNotFinishedError{GameID: game.ID, Unfinished: unfinished}
		}

		now := s.now()
		game.Status = domain.GameCompleted
		game.EndedAt = &now
		game.UpdatedAt = now
		return repo.UpdateGame(ctx, game)
	})
	if err != nil {
		return domain.GameSummary{}, domain.WrapStorage("complete game", err)
	}

	summary, err := s.summary.Compute(ctx, s.repo, game)
	if err != nil {
		return domain.GameSummary{}, domain.WrapStorage("complete game", err)
	}
	s.log.InfoContext(ctx, "game completed", "game", game.ID, "answers", summary.Overall.TotalAnswered)
	s.publish(ctx, s.event(domain.EventGameCompleted, game.ID, summary))
	s.replaceScores(ctx, summary)
	return summary, nil
}

// CancelGame stops a game in setup or in progress. Host only.
func (s *GameService) CancelGame(ctx context.Context, callerID, gameID string) (domain.Game, error) {
	game, err := s.mutateGame(ctx, callerID, gameID, "cancel", func(game *domain.Game) error {
		if !game.Status.CanTransition(domain.GameCancelled) {
			return gameTransition(*game, domain.GameCancelled)
		}
		now := s.now()
		game.Status = domain.GameCancelled
		game.EndedAt = &now
		return nil
	})
	if err != nil {
		return domain.Game{}, err
	}
	s.publish(ctx, s.event(domain.EventGameCancelled, game.ID, game))
	return game, nil
}

// ArchiveGame hides a game from default listings. It is allowed in every
// status and is the only removal path once teams exist. Host only.
func (s *GameService) ArchiveGame(ctx context.Context, callerID, gameID string) (domain.Game, error) {
	game, err := s.mutateGame(ctx, callerID, gameID, "archive", func(game *domain.Game) error {
		game.Archived = true
		return nil
	})
	if err != nil {
		return domain.Game{}, err
	}
	s.publish(ctx, s.event(domain.EventGameArchived, game.ID, game))
	return game, nil
}

// DeleteGame removes a game that is still in setup and has no teams. Host only.
func (s *GameService) DeleteGame(ctx context.Context, callerID, gameID string) error {
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		game, err := repo.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, callerID, "delete"); err != nil {
			return err
		}
		teams, err := repo.ListTeams(ctx, game.ID)
		if err != nil {
			return err
		}
		if game.Status != domain.GameSetup || len(teams) > 0 {
			return domain.NewNotDeletable("game", game.ID, string(game.Status), len(teams), "archive the game instead")
		}
		return repo.DeleteGame(ctx, game.ID)
	})
	if err != nil {
		return domain.WrapStorage("delete game", err)
	}
	s.publish(ctx, s.event(domain.EventGameDeleted, gameID, nil))
	return nil
}

// GetGame returns a game by id.
func (s *GameService) GetGame(ctx context.Context, gameID string) (domain.Game, error) {
	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, domain.WrapStorage("get game", err)
	}
	return game, nil
}

// ListHostGames returns a host's games, newest first.
func (s *GameService) ListHostGames(ctx context.Context, hostID string, includeArchived bool) ([]domain.Game, error) {
	games, err := s.repo.ListHostGames(ctx, hostID, includeArchived)
	if err != nil {
		return nil, domain.WrapStorage("list host games", err)
	}
	return games, nil
}

// mutateGame applies fn to the locked game and stores the result.
func (s *GameService) mutateGame(ctx context.Context, callerID, gameID, op string, fn func(*domain.Game) error) (domain.Game, error) {
	var game domain.Game
	err := s.repo.Atomic(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		game, err = repo.LockGame(ctx, gameID)
		if err != nil {
			return err
		}
		if err := requireHost(game, callerID, op); err != nil {
			return err
		}
		if err := fn(&game); err != nil {
			return err
		}
		game.UpdatedAt = s.now()
		return repo.UpdateGame(ctx, game)
	})
	if err != nil {
		return domain.Game{}, domain.WrapStorage(op+" game", err)
	}
	return game, nil
}

func gameTransition(game domain.Game, to domain.GameStatus) error {
	return &domain.TransitionError{Entity: "game", ID: game.ID, From: string(game.Status), To: string(to)}
}

func (s *GameService) event(typ domain.EventType, gameID string, payload any) domain.Event {
	return domain.Event{Type: typ, GameID: gameID, At: s.now(), Payload: payload}
}

// publish hands ev to the publisher. Failures never undo the committed change.
func (s *GameService) publish(ctx context.Context, ev domain.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WarnContext(ctx, "event publish failed", "type", ev.Type, "game", ev.GameID, "err", err)
	}
}

func (s *GameService) replaceScores(ctx context.Context, summary domain.GameSummary) {
	if s.scores == nil {
		return
	}
	scores := make(map[string]int, len(summary.Teams))
	for _, t := range summary.Teams {
		scores[t.TeamID] = t.Score
	}
	if err := s.scores.Replace(ctx, summary.GameID, scores); err != nil {
		s.log.WarnContext(ctx, "score cache rebuild failed", "game", summary.GameID, "err", err)
	}
}
