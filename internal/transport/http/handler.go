package http

import (
	"log/slog"
	"net/http"

	"github.com/burggraf/trivia-party-new-2-sub000/internal/app"
	"github.com/gin-gonic/gin"
)

// Handler exposes the game use cases as a JSON API.
type Handler struct {
	service *app.GameService
	log     *slog.Logger
}

func NewHandler(service *app.GameService, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{service: service, log: log}
}

// Router builds the gin engine with every route; all but /healthz need a
// bearer token signed with secret.
func (h *Handler) Router(secret []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLog())
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/")
	api.Use(RequireCaller(secret))
	{
		games := api.Group("/games")
		games.POST("", h.createGame)
		games.GET("", h.listHostGames)
		games.GET("/:id", h.getGame)
		games.PATCH("/:id", h.updateGame)
		games.DELETE("/:id", h.deleteGame)
		games.POST("/:id/archive", h.archiveGame)
		games.POST("/:id/start", h.startGame)
		games.POST("/:id/advance", h.advanceRound)
		games.POST("/:id/complete", h.completeGame)
		games.POST("/:id/cancel", h.cancelGame)
		games.GET("/:id/rounds", h.listRounds)
		games.GET("/:id/teams", h.listTeams)
		games.POST("/:id/teams", h.createTeam)
		games.GET("/:id/readiness", h.getReadiness)
		games.GET("/:id/summary", h.getSummary)
		games.GET("/:id/leaderboard", h.getLeaderboard)

		teams := api.Group("/teams")
		teams.PATCH("/:id", h.updateTeam)
		teams.DELETE("/:id", h.deleteTeam)
		teams.POST("/:id/players", h.joinTeam)
		teams.DELETE("/:id/players/:playerId", h.leaveTeam)
		teams.GET("/:id/stats", h.getTeamStats)

		api.GET("/rounds/:id/questions", h.roundQuestions)
		api.POST("/rounds/:id/start", h.startRound)
		api.POST("/rounds/:id/complete", h.completeRound)

		api.POST("/round-questions/:id/answers", h.submitAnswer)
		api.POST("/round-questions/:id/replace", h.replaceRoundQuestion)

		api.GET("/hosts/:hostId/questions", h.availableQuestions)
		api.POST("/hosts/:hostId/used-questions", h.markQuestionsUsed)
	}
	return r
}

func (h *Handler) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		h.log.Debug("request", "method", c.Request.Method, "path", c.FullPath(), "status", c.Writer.Status())
	}
}

func (h *Handler) createGame(c *gin.Context) {
	var cfg app.GameConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, err)
		return
	}
	game, err := h.service.CreateGame(c.Request.Context(), caller(c), cfg)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, game)
}

func (h *Handler) listHostGames(c *gin.Context) {
	games, err := h.service.ListHostGames(c.Request.Context(), caller(c), c.Query("archived") == "true")
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}

func (h *Handler) getGame(c *gin.Context) {
	game, err := h.service.GetGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *Handler) updateGame(c *gin.Context) {
	var cfg app.GameConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, err)
		return
	}
	game, err := h.service.UpdateGame(c.Request.Context(), caller(c), c.Param("id"), cfg)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *Handler) deleteGame(c *gin.Context) {
	if err := h.service.DeleteGame(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) archiveGame(c *gin.Context) {
	game, err := h.service.ArchiveGame(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *Handler) startGame(c *gin.Context) {
	game, err := h.service.StartGame(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *Handler) advanceRound(c *gin.Context) {
	round, err := h.service.AdvanceRound(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"round": round})
}

func (h *Handler) completeGame(c *gin.Context) {
	summary, err := h.service.CompleteGame(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) cancelGame(c *gin.Context) {
	game, err := h.service.CancelGame(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *Handler) listRounds(c *gin.Context) {
	rounds, err := h.service.ListRounds(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rounds)
}

func (h *Handler) listTeams(c *gin.Context) {
	teams, err := h.service.ListTeams(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

func (h *Handler) createTeam(c *gin.Context) {
	var in app.TeamInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	team, err := h.service.CreateTeam(c.Request.Context(), caller(c), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

func (h *Handler) getReadiness(c *gin.Context) {
	readiness, err := h.service.GetReadiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, readiness)
}

func (h *Handler) getSummary(c *gin.Context) {
	summary, err := h.service.GetGameSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) getLeaderboard(c *gin.Context) {
	board, err := h.service.GetLeaderboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

func (h *Handler) updateTeam(c *gin.Context) {
	var in app.TeamInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	team, err := h.service.UpdateTeam(c.Request.Context(), caller(c), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

func (h *Handler) deleteTeam(c *gin.Context) {
	if err := h.service.DeleteTeam(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type joinRequest struct {
	PlayerID string `json:"playerId"`
}

func (h *Handler) joinTeam(c *gin.Context) {
	var req joinRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if req.PlayerID == "" {
		req.PlayerID = caller(c)
	}
	member, err := h.service.JoinTeam(c.Request.Context(), caller(c), c.Param("id"), req.PlayerID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *Handler) leaveTeam(c *gin.Context) {
	if err := h.service.LeaveTeam(c.Request.Context(), caller(c), c.Param("id"), c.Param("playerId")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getTeamStats(c *gin.Context) {
	stats, err := h.service.GetTeamStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) startRound(c *gin.Context) {
	round, err := h.service.StartRound(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

func (h *Handler) completeRound(c *gin.Context) {
	round, err := h.service.CompleteRound(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, round)
}

func (h *Handler) roundQuestions(c *gin.Context) {
	questions, err := h.service.GetRoundQuestions(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

type answerRequest struct {
	TeamID      string `json:"teamId"`
	AnswerLabel string `json:"answerLabel"`
	PlayerID    string `json:"playerId"`
}

func (h *Handler) submitAnswer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.PlayerID == "" {
		req.PlayerID = caller(c)
	}
	result, err := h.service.SubmitAnswer(c.Request.Context(), caller(c), app.AnswerInput{
		TeamID:          req.TeamID,
		RoundQuestionID: c.Param("id"),
		AnswerLabel:     req.AnswerLabel,
		PlayerID:        req.PlayerID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) replaceRoundQuestion(c *gin.Context) {
	rq, err := h.service.ReplaceRoundQuestion(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rq)
}

func (h *Handler) availableQuestions(c *gin.Context) {
	questions, err := h.service.GetAvailableQuestionsForHost(c.Request.Context(), caller(c), c.Param("hostId"), c.QueryArray("category"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, questions)
}

type markUsedRequest struct {
	QuestionIDs []string `json:"questionIds"`
}

func (h *Handler) markQuestionsUsed(c *gin.Context) {
	var req markUsedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.service.MarkQuestionsUsed(c.Request.Context(), caller(c), c.Param("hostId"), req.QuestionIDs); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
