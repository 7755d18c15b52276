package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/app"
	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Store implements app.Repository on Postgres through bun. Atomic units are
// transactions; Lock* methods use SELECT … FOR UPDATE and LockHost a
// transaction-scoped advisory lock.
type Store struct {
	db    *bun.DB
	conn  bun.IDB
	bound bool
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, conn: db}
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, repo app.Repository) error) error {
	if s.bound {
		return fn(ctx, s)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Store{db: s.db, conn: tx, bound: true})
	})
}

func (s *Store) CreateGame(ctx context.Context, game domain.Game) error {
	if _, err := s.conn.NewInsert().Model(newGameRow(game)).Exec(ctx); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (s *Store) GetGame(ctx context.Context, id string) (domain.Game, error) {
	return s.selectGame(ctx, id, false)
}

func (s *Store) LockGame(ctx context.Context, id string) (domain.Game, error) {
	return s.selectGame(ctx, id, true)
}

func (s *Store) selectGame(ctx context.Context, id string, lock bool) (domain.Game, error) {
	row := new(gameRow)
	q := s.conn.NewSelect().Model(row).Where("id = ?", id)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return domain.Game{}, notFound(err, "game", id)
	}
	if err := row.validate(); err != nil {
		return domain.Game{}, err
	}
	return row.domain(), nil
}

func (s *Store) UpdateGame(ctx context.Context, game domain.Game) error {
	res, err := s.conn.NewUpdate().Model(newGameRow(game)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	return affected(res, "game", game.ID)
}

func (s *Store) DeleteGame(ctx context.Context, id string) error {
	res, err := s.conn.NewDelete().Model((*gameRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return affected(res, "game", id)
}

func (s *Store) ListHostGames(ctx context.Context, hostID string, includeArchived bool) ([]domain.Game, error) {
	var rows []gameRow
	q := s.conn.NewSelect().Model(&rows).Where("host_id = ?", hostID).OrderExpr("created_at DESC, id DESC")
	if !includeArchived {
		q = q.Where("NOT archived")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list host games: %w", err)
	}
	games := make([]domain.Game, len(rows))
	for i := range rows {
		if err := rows[i].validate(); err != nil {
			return nil, err
		}
		games[i] = rows[i].domain()
	}
	return games, nil
}

func (s *Store) CreateRounds(ctx context.Context, rounds []domain.Round) error {
	if len(rounds) == 0 {
		return nil
	}
	rows := make([]roundRow, len(rounds))
	for i, r := range rounds {
		rows[i] = newRoundRow(r)
	}
	if _, err := s.conn.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert rounds: %w", err)
	}
	return nil
}

// DeleteRounds removes a game's rounds; round questions follow by cascade.
func (s *Store) DeleteRounds(ctx context.Context, gameID string) error {
	if _, err := s.conn.NewDelete().Model((*roundRow)(nil)).Where("game_id = ?", gameID).Exec(ctx); err != nil {
		return fmt.Errorf("delete rounds: %w", err)
	}
	return nil
}

func (s *Store) GetRound(ctx context.Context, id string) (domain.Round, error) {
	row := new(roundRow)
	if err := s.conn.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.Round{}, notFound(err, "round", id)
	}
	if err := row.validate(); err != nil {
		return domain.Round{}, err
	}
	return row.domain(), nil
}

func (s *Store) ListRounds(ctx context.Context, gameID string) ([]domain.Round, error) {
	var rows []roundRow
	if err := s.conn.NewSelect().Model(&rows).Where("game_id = ?", gameID).Order("number").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	rounds := make([]domain.Round, len(rows))
	for i := range rows {
		if err := rows[i].validate(); err != nil {
			return nil, err
		}
		rounds[i] = rows[i].domain()
	}
	return rounds, nil
}

func (s *Store) UpdateRound(ctx context.Context, round domain.Round) error {
	row := newRoundRow(round)
	res, err := s.conn.NewUpdate().Model(&row).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update round: %w", err)
	}
	return affected(res, "round", round.ID)
}

func (s *Store) CreateRoundQuestions(ctx context.Context, questions []domain.RoundQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	rows := make([]roundQuestionRow, len(questions))
	for i, q := range questions {
		rows[i] = newRoundQuestionRow(q)
	}
	if _, err := s.conn.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert round questions: %w", err)
	}
	return nil
}

func (s *Store) GetRoundQuestion(ctx context.Context, id string) (domain.RoundQuestion, error) {
	row := new(roundQuestionRow)
	if err := s.conn.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return domain.RoundQuestion{}, notFound(err, "round question", id)
	}
	return row.domain(), nil
}

func (s *Store) ListRoundQuestions(ctx context.Context, gameID string) ([]domain.RoundQuestion, error) {
	var rows []roundQuestionRow
	err := s.conn.NewSelect().
		Model(&rows).
		Join("JOIN rounds AS r ON r.id = rq.round_id").
		Where("rq.game_id = ?", gameID).
		OrderExpr("r.number, rq.position").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list round questions: %w", err)
	}
	out := make([]domain.RoundQuestion, len(rows))
	for i := range rows {
		out[i] = rows[i].domain()
	}
	return out, nil
}

func (s *Store) UpdateRoundQuestion(ctx context.Context, question domain.RoundQuestion) error {
	row := newRoundQuestionRow(question)
	res, err := s.conn.NewUpdate().Model(&row).Column("question_id").WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update round question: %w", err)
	}
	return affected(res, "round question", question.ID)
}

func (s *Store) CreateTeam(ctx context.Context, team domain.Team) error {
	if _, err := s.conn.NewInsert().Model(newTeamRow(team)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateNameError{GameID: team.GameID, Name: team.Name}
		}
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

func (s *Store) GetTeam(ctx context.Context, id string) (domain.Team, error) {
	return s.selectTeam(ctx, id, false)
}

func (s *Store) LockTeam(ctx context.Context, id string) (domain.Team, error) {
	return s.selectTeam(ctx, id, true)
}

func (s *Store) selectTeam(ctx context.Context, id string, lock bool) (domain.Team, error) {
	row := new(teamRow)
	q := s.conn.NewSelect().Model(row).Where("id = ?", id)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		return domain.Team{}, notFound(err, "team", id)
	}
	return row.domain(), nil
}

func (s *Store) UpdateTeam(ctx context.Context, team domain.Team) error {
	res, err := s.conn.NewUpdate().Model(newTeamRow(team)).Column("name", "color").WherePK().Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateNameError{GameID: team.GameID, Name: team.Name}
		}
		return fmt.Errorf("update team: %w", err)
	}
	return affected(res, "team", team.ID)
}

// DeleteTeam removes a team; memberships and answers follow by cascade.
func (s *Store) DeleteTeam(ctx context.Context, id string) error {
	res, err := s.conn.NewDelete().Model((*teamRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return affected(res, "team", id)
}

func (s *Store) ListTeams(ctx context.Context, gameID string) ([]domain.Team, error) {
	var rows []teamRow
	if err := s.conn.NewSelect().Model(&rows).Where("game_id = ?", gameID).OrderExpr("created_at, id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	teams := make([]domain.Team, len(rows))
	for i := range rows {
		teams[i] = rows[i].domain()
	}
	return teams, nil
}

// AddTeamScore increments in SQL so concurrent increments never lose points.
func (s *Store) AddTeamScore(ctx context.Context, teamID string, points int) (int, error) {
	var score int
	err := s.conn.NewUpdate().
		Model((*teamRow)(nil)).
		Set("current_score = current_score + ?", points).
		Where("id = ?", teamID).
		Returning("current_score").
		Scan(ctx, &score)
	if err != nil {
		return 0, notFound(err, "team", teamID)
	}
	return score, nil
}

func (s *Store) AddTeamPlayer(ctx context.Context, member domain.TeamPlayer) error {
	row := &teamPlayerRow{TeamID: member.TeamID, PlayerID: member.PlayerID, GameID: member.GameID, JoinedAt: member.JoinedAt}
	if _, err := s.conn.NewInsert().Model(row).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return &domain.PlayerAssignedError{GameID: member.GameID, PlayerID: member.PlayerID}
		}
		return fmt.Errorf("insert team player: %w", err)
	}
	return nil
}

func (s *Store) RemoveTeamPlayer(ctx context.Context, teamID, playerID string) (bool, error) {
	res, err := s.conn.NewDelete().
		Model((*teamPlayerRow)(nil)).
		Where("team_id = ? AND player_id = ?", teamID, playerID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("delete team player: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) ListTeamPlayers(ctx context.Context, teamID string) ([]domain.TeamPlayer, error) {
	var rows []teamPlayerRow
	if err := s.conn.NewSelect().Model(&rows).Where("team_id = ?", teamID).OrderExpr("joined_at, player_id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list team players: %w", err)
	}
	out := make([]domain.TeamPlayer, len(rows))
	for i := range rows {
		out[i] = rows[i].domain()
	}
	return out, nil
}

func (s *Store) FindPlayerTeam(ctx context.Context, gameID, playerID string) (string, bool, error) {
	var teamID string
	err := s.conn.NewSelect().
		Model((*teamPlayerRow)(nil)).
		Column("team_id").
		Where("game_id = ? AND player_id = ?", gameID, playerID).
		Scan(ctx, &teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find player team: %w", err)
	}
	return teamID, true, nil
}

func (s *Store) CreateTeamAnswer(ctx context.Context, answer domain.TeamAnswer) error {
	if _, err := s.conn.NewInsert().Model(newTeamAnswerRow(answer)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateAnswerError{TeamID: answer.TeamID, RoundQuestionID: answer.RoundQuestionID}
		}
		return fmt.Errorf("insert team answer: %w", err)
	}
	return nil
}

func (s *Store) ListTeamAnswers(ctx context.Context, teamID string) ([]domain.TeamAnswer, error) {
	return s.listAnswers(ctx, "team_id = ?", teamID)
}

func (s *Store) ListGameAnswers(ctx context.Context, gameID string) ([]domain.TeamAnswer, error) {
	return s.listAnswers(ctx, "game_id = ?", gameID)
}

func (s *Store) listAnswers(ctx context.Context, where string, arg string) ([]domain.TeamAnswer, error) {
	var rows []teamAnswerRow
	if err := s.conn.NewSelect().Model(&rows).Where(where, arg).OrderExpr("submitted_at, id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list team answers: %w", err)
	}
	out := make([]domain.TeamAnswer, len(rows))
	for i := range rows {
		out[i] = rows[i].domain()
	}
	return out, nil
}

func (s *Store) CountRoundQuestionAnswers(ctx context.Context, roundQuestionID string) (int, error) {
	n, err := s.conn.NewSelect().Model((*teamAnswerRow)(nil)).Where("round_question_id = ?", roundQuestionID).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count answers: %w", err)
	}
	return n, nil
}

// LockHost serializes allocations for one host until the transaction ends.
func (s *Store) LockHost(ctx context.Context, hostID string) error {
	if _, err := s.conn.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext(?))", hostID); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	return nil
}

func (s *Store) ListUsedQuestionIDs(ctx context.Context, hostID string) ([]string, error) {
	var ids []string
	err := s.conn.NewSelect().
		Model((*hostUsedQuestionRow)(nil)).
		Column("question_id").
		Where("host_id = ?", hostID).
		Order("question_id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("list used questions: %w", err)
	}
	return ids, nil
}

// MarkQuestionsUsed ignores pairs that already exist.
func (s *Store) MarkQuestionsUsed(ctx context.Context, hostID string, questionIDs []string, at time.Time) error {
	if len(questionIDs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(questionIDs))
	rows := make([]hostUsedQuestionRow, 0, len(questionIDs))
	for _, id := range questionIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, hostUsedQuestionRow{HostID: hostID, QuestionID: id, UsedAt: at})
	}
	_, err := s.conn.NewInsert().
		Model(&rows).
		On("CONFLICT (host_id, question_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark questions used: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}

func notFound(err error, resource, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Resource: resource, ID: id}
	}
	return fmt.Errorf("select %s: %w", resource, err)
}

func affected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.NotFoundError{Resource: resource, ID: id}
	}
	return nil
}
