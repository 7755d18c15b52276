package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/app"
	"github.com/burggraf/trivia-party-new-2-sub000/internal/domain"
)

// Store is an in-memory implementation of app.Repository. A single lock
// serializes every atomic unit; a failed unit is rolled back by restoring a
// snapshot taken when it began.
type Store struct {
	db    *db
	bound bool
}

type db struct {
	mu  sync.Mutex
	st  *state
	seq int64
}

type state struct {
	games          map[string]row[domain.Game]
	rounds         map[string]domain.Round
	roundQuestions map[string]domain.RoundQuestion
	teams          map[string]row[domain.Team]
	members        map[string]map[string]row[domain.TeamPlayer] // team → player
	playerTeam     map[pairKey]string                          // (game, player) → team
	answers        map[string]row[domain.TeamAnswer]
	answerKeys     map[pairKey]string // (team, round question) → answer
	used           map[string]map[string]time.Time
}

type row[T any] struct {
	v   T
	seq int64
}

type pairKey struct{ a, b string }

func NewStore() *Store {
	return &Store{db: &db{st: newState()}}
}

func newState() *state {
	return &state{
		games:          make(map[string]row[domain.Game]),
		rounds:         make(map[string]domain.Round),
		roundQuestions: make(map[string]domain.RoundQuestion),
		teams:          make(map[string]row[domain.Team]),
		members:        make(map[string]map[string]row[domain.TeamPlayer]),
		playerTeam:     make(map[pairKey]string),
		answers:        make(map[string]row[domain.TeamAnswer]),
		answerKeys:     make(map[pairKey]string),
		used:           make(map[string]map[string]time.Time),
	}
}

func (st *state) clone() *state {
	out := newState()
	for k, v := range st.games {
		v.v.Categories = append([]string(nil), v.v.Categories...)
		out.games[k] = v
	}
	for k, v := range st.rounds {
		out.rounds[k] = v
	}
	for k, v := range st.roundQuestions {
		out.roundQuestions[k] = v
	}
	for k, v := range st.teams {
		out.teams[k] = v
	}
	for team, players := range st.members {
		m := make(map[string]row[domain.TeamPlayer], len(players))
		for k, v := range players {
			m[k] = v
		}
		out.members[team] = m
	}
	for k, v := range st.playerTeam {
		out.playerTeam[k] = v
	}
	for k, v := range st.answers {
		out.answers[k] = v
	}
	for k, v := range st.answerKeys {
		out.answerKeys[k] = v
	}
	for host, ids := range st.used {
		m := make(map[string]time.Time, len(ids))
		for k, v := range ids {
			m[k] = v
		}
		out.used[host] = m
	}
	return out
}

// lock takes the store lock unless s is bound to an atomic unit that already
// holds it.
func (s *Store) lock() func() {
	if s.bound {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

func (s *Store) next() int64 {
	s.db.seq++
	return s.db.seq
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, repo app.Repository) error) error {
	if s.bound {
		return fn(ctx, s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	snapshot := s.db.st.clone()
	if err := fn(ctx, &Store{db: s.db, bound: true}); err != nil {
		s.db.st = snapshot
		return err
	}
	return nil
}

func (s *Store) CreateGame(_ context.Context, game domain.Game) error {
	defer s.lock()()
	game.Categories = append([]string(nil), game.Categories...)
	s.db.st.games[game.ID] = row[domain.Game]{v: game, seq: s.next()}
	return nil
}

func (s *Store) GetGame(_ context.Context, id string) (domain.Game, error) {
	defer s.lock()()
	return s.getGame(id)
}

func (s *Store) getGame(id string) (domain.Game, error) {
	r, ok := s.db.st.games[id]
	if !ok {
		return domain.Game{}, &domain.NotFoundError{Resource: "game", ID: id}
	}
	game := r.v
	game.Categories = append([]string(nil), game.Categories...)
	return game, nil
}

// LockGame reads the game; the store lock already excludes other units.
func (s *Store) LockGame(ctx context.Context, id string) (domain.Game, error) {
	return s.GetGame(ctx, id)
}

func (s *Store) UpdateGame(_ context.Context, game domain.Game) error {
	defer s.lock()()
	r, ok := s.db.st.games[game.ID]
	if !ok {
		return &domain.NotFoundError{Resource: "game", ID: game.ID}
	}
	r.v = game
	r.v.Categories = append([]string(nil), game.Categories...)
	s.db.st.games[game.ID] = r
	return nil
}

func (s *Store) DeleteGame(_ context.Context, id string) error {
	defer s.lock()()
	st := s.db.st
	if _, ok := st.games[id]; !ok {
		return &domain.NotFoundError{Resource: "game", ID: id}
	}
	delete(st.games, id)
	s.deleteRounds(id)
	for teamID, t := range st.teams {
		if t.v.GameID == id {
			s.deleteTeam(teamID)
		}
	}
	return nil
}

func (s *Store) ListHostGames(_ context.Context, hostID string, includeArchived bool) ([]domain.Game, error) {
	defer s.lock()()
	var rows []row[domain.Game]
	for _, r := range s.db.st.games {
		if r.v.HostID != hostID || (r.v.Archived && !includeArchived) {
			continue
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].v.CreatedAt.Equal(rows[j].v.CreatedAt) {
			return rows[i].v.CreatedAt.After(rows[j].v.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	games := make([]domain.Game, len(rows))
	for i, r := range rows {
		games[i] = r.v
	}
	return games, nil
}

func (s *Store) CreateRounds(_ context.Context, rounds []domain.Round) error {
	defer s.lock()()
	st := s.db.st
	for _, r := range rounds {
		for _, existing := range st.rounds {
			if existing.GameID == r.GameID && existing.Number == r.Number {
				return fmt.Errorf("round %d of game %s already exists", r.Number, r.GameID)
			}
		}
		st.rounds[r.ID] = r
	}
	return nil
}

func (s *Store) DeleteRounds(_ context.Context, gameID string) error {
	defer s.lock()()
	s.deleteRounds(gameID)
	return nil
}

func (s *Store) deleteRounds(gameID string) {
	st := s.db.st
	for id, r := range st.rounds {
		if r.GameID == gameID {
			delete(st.rounds, id)
		}
	}
	for id, rq := range st.roundQuestions {
		if rq.GameID == gameID {
			delete(st.roundQuestions, id)
		}
	}
}

func (s *Store) GetRound(_ context.Context, id string) (domain.Round, error) {
	defer s.lock()()
	r, ok := s.db.st.rounds[id]
	if !ok {
		return domain.Round{}, &domain.NotFoundError{Resource: "round", ID: id}
	}
	return r, nil
}

func (s *Store) ListRounds(_ context.Context, gameID string) ([]domain.Round, error) {
	defer s.lock()()
	var rounds []domain.Round
	for _, r := range s.db.st.rounds {
		if r.GameID == gameID {
			rounds = append(rounds, r)
		}
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].Number < rounds[j].Number })
	return rounds, nil
}

func (s *Store) UpdateRound(_ context.Context, round domain.Round) error {
	defer s.lock()()
	if _, ok := s.db.st.rounds[round.ID]; !ok {
		return &domain.NotFoundError{Resource: "round", ID: round.ID}
	}
	s.db.st.rounds[round.ID] = round
	return nil
}

func (s *Store) CreateRoundQuestions(_ context.Context, questions []domain.RoundQuestion) error {
	defer s.lock()()
	for _, q := range questions {
		s.db.st.roundQuestions[q.ID] = q
	}
	return nil
}

func (s *Store) GetRoundQuestion(_ context.Context, id string) (domain.RoundQuestion, error) {
	defer s.lock()()
	rq, ok := s.db.st.roundQuestions[id]
	if !ok {
		return domain.RoundQuestion{}, &domain.NotFoundError{Resource: "round question", ID: id}
	}
	return rq, nil
}

func (s *Store) ListRoundQuestions(_ context.Context, gameID string) ([]domain.RoundQuestion, error) {
	defer s.lock()()
	st := s.db.st
	var out []domain.RoundQuestion
	for _, rq := range st.roundQuestions {
		if rq.GameID == gameID {
			out = append(out, rq)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := st.rounds[out[i].RoundID].Number, st.rounds[out[j].RoundID].Number
		if ni != nj {
			return ni < nj
		}
		return out[i].Order < out[j].Order
	})
	return out, nil
}

func (s *Store) UpdateRoundQuestion(_ context.Context, question domain.RoundQuestion) error {
	defer s.lock()()
	if _, ok := s.db.st.roundQuestions[question.ID]; !ok {
		return &domain.NotFoundError{Resource: "round question", ID: question.ID}
	}
	s.db.st.roundQuestions[question.ID] = question
	return nil
}

func (s *Store) CreateTeam(_ context.Context, team domain.Team) error {
	defer s.lock()()
	st := s.db.st
	for _, t := range st.teams {
		if t.v.GameID == team.GameID && t.v.Name == team.Name {
			return &domain.DuplicateNameError{GameID: team.GameID, Name: team.Name}
		}
	}
	st.teams[team.ID] = row[domain.Team]{v: team, seq: s.next()}
	return nil
}

func (s *Store) GetTeam(_ context.Context, id string) (domain.Team, error) {
	defer s.lock()()
	t, ok := s.db.st.teams[id]
	if !ok {
		return domain.Team{}, &domain.NotFoundError{Resource: "team", ID: id}
	}
	return t.v, nil
}

// LockTeam reads the team; the store lock already excludes other units.
func (s *Store) LockTeam(ctx context.Context, id string) (domain.Team, error) {
	return s.GetTeam(ctx, id)
}

func (s *Store) UpdateTeam(_ context.Context, team domain.Team) error {
	defer s.lock()()
	st := s.db.st
	r, ok := st.teams[team.ID]
	if !ok {
		return &domain.NotFoundError{Resource: "team", ID: team.ID}
	}
	for id, t := range st.teams {
		if id != team.ID && t.v.GameID == team.GameID && t.v.Name == team.Name {
			return &domain.DuplicateNameError{GameID: team.GameID, Name: team.Name}
		}
	}
	r.v = team
	st.teams[team.ID] = r
	return nil
}

func (s *Store) DeleteTeam(_ context.Context, id string) error {
	defer s.lock()()
	if _, ok := s.db.st.teams[id]; !ok {
		return &domain.NotFoundError{Resource: "team", ID: id}
	}
	s.deleteTeam(id)
	return nil
}

func (s *Store) deleteTeam(id string) {
	st := s.db.st
	team := st.teams[id].v
	for playerID := range st.members[id] {
		delete(st.playerTeam, pairKey{team.GameID, playerID})
	}
	delete(st.members, id)
	for answerID, a := range st.answers {
		if a.v.TeamID == id {
			delete(st.answerKeys, pairKey{id, a.v.RoundQuestionID})
			delete(st.answers, answerID)
		}
	}
	delete(st.teams, id)
}

func (s *Store) ListTeams(_ context.Context, gameID string) ([]domain.Team, error) {
	defer s.lock()()
	var rows []row[domain.Team]
	for _, t := range s.db.st.teams {
		if t.v.GameID == gameID {
			rows = append(rows, t)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	teams := make([]domain.Team, len(rows))
	for i, r := range rows {
		teams[i] = r.v
	}
	return teams, nil
}

func (s *Store) AddTeamScore(_ context.Context, teamID string, points int) (int, error) {
	defer s.lock()()
	r, ok := s.db.st.teams[teamID]
	if !ok {
		return 0, &domain.NotFoundError{Resource: "team", ID: teamID}
	}
	r.v.CurrentScore += points
	s.db.st.teams[teamID] = r
	return r.v.CurrentScore, nil
}

func (s *Store) AddTeamPlayer(_ context.Context, member domain.TeamPlayer) error {
	defer s.lock()()
	st := s.db.st
	key := pairKey{member.GameID, member.PlayerID}
	if teamID, ok := st.playerTeam[key]; ok {
		return &domain.PlayerAssignedError{GameID: member.GameID, PlayerID: member.PlayerID, TeamID: teamID}
	}
	if st.members[member.TeamID] == nil {
		st.members[member.TeamID] = make(map[string]row[domain.TeamPlayer])
	}
	st.members[member.TeamID][member.PlayerID] = row[domain.TeamPlayer]{v: member, seq: s.next()}
	st.playerTeam[key] = member.TeamID
	return nil
}

func (s *Store) RemoveTeamPlayer(_ context.Context, teamID, playerID string) (bool, error) {
	defer s.lock()()
	st := s.db.st
	r, ok := st.members[teamID][playerID]
	if !ok {
		return false, nil
	}
	delete(st.members[teamID], playerID)
	delete(st.playerTeam, pairKey{r.v.GameID, playerID})
	return true, nil
}

func (s *Store) ListTeamPlayers(_ context.Context, teamID string) ([]domain.TeamPlayer, error) {
	defer s.lock()()
	rows := make([]row[domain.TeamPlayer], 0, len(s.db.st.members[teamID]))
	for _, r := range s.db.st.members[teamID] {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]domain.TeamPlayer, len(rows))
	for i, r := range rows {
		out[i] = r.v
	}
	return out, nil
}

func (s *Store) FindPlayerTeam(_ context.Context, gameID, playerID string) (string, bool, error) {
	defer s.lock()()
	teamID, ok := s.db.st.playerTeam[pairKey{gameID, playerID}]
	return teamID, ok, nil
}

func (s *Store) CreateTeamAnswer(_ context.Context, answer domain.TeamAnswer) error {
	defer s.lock()()
	st := s.db.st
	key := pairKey{answer.TeamID, answer.RoundQuestionID}
	if _, ok := st.answerKeys[key]; ok {
		return &domain.DuplicateAnswerError{TeamID: answer.TeamID, RoundQuestionID: answer.RoundQuestionID}
	}
	st.answers[answer.ID] = row[domain.TeamAnswer]{v: answer, seq: s.next()}
	st.answerKeys[key] = answer.ID
	return nil
}

func (s *Store) ListTeamAnswers(_ context.Context, teamID string) ([]domain.TeamAnswer, error) {
	defer s.lock()()
	return s.answersWhere(func(a domain.TeamAnswer) bool { return a.TeamID == teamID }), nil
}

func (s *Store) ListGameAnswers(_ context.Context, gameID string) ([]domain.TeamAnswer, error) {
	defer s.lock()()
	return s.answersWhere(func(a domain.TeamAnswer) bool { return a.GameID == gameID }), nil
}

func (s *Store) answersWhere(keep func(domain.TeamAnswer) bool) []domain.TeamAnswer {
	var rows []row[domain.TeamAnswer]
	for _, r := range s.db.st.answers {
		if keep(r.v) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]domain.TeamAnswer, len(rows))
	for i, r := range rows {
		out[i] = r.v
	}
	return out
}

func (s *Store) CountRoundQuestionAnswers(_ context.Context, roundQuestionID string) (int, error) {
	defer s.lock()()
	n := 0
	for _, r := range s.db.st.answers {
		if r.v.RoundQuestionID == roundQuestionID {
			n++
		}
	}
	return n, nil
}

// LockHost is a no-op: allocations already run under the store lock.
func (s *Store) LockHost(context.Context, string) error {
	return nil
}

func (s *Store) ListUsedQuestionIDs(_ context.Context, hostID string) ([]string, error) {
	defer s.lock()()
	ids := make([]string, 0, len(s.db.st.used[hostID]))
	for id := range s.db.st.used[hostID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) MarkQuestionsUsed(_ context.Context, hostID string, questionIDs []string, at time.Time) error {
	defer s.lock()()
	used := s.db.st.used[hostID]
	if used == nil {
		used = make(map[string]time.Time, len(questionIDs))
		s.db.st.used[hostID] = used
	}
	for _, id := range questionIDs {
		if _, ok := used[id]; !ok {
			used[id] = at
		}
	}
	return nil
}
