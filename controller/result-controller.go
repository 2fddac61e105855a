package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"tally/metrics"
	"tally/repository"
	"tally/scoring"
	"tally/service"
	"tally/utils"

	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

type ResultController struct {
	resultService      *scoring.ResultService
	categoryRepository *repository.CategoryRepository
	notifier           *service.NotificationService
}

func NewResultController(db *gorm.DB, notifier *service.NotificationService) *ResultController {
	return &ResultController{
		resultService:      scoring.NewResultService(db),
		categoryRepository: repository.NewCategoryRepository(db),
		notifier:           notifier,
	}
}

func setupResultController(db *gorm.DB, notifier *service.NotificationService, cacheStore persistence.CacheStore) []RouteInfo {
	e := NewResultController(db, notifier)
	routes := []RouteInfo{
		{Method: "GET", Path: "/categories/:category_id/judges/:judge_id/scoreboard", HandlerFunc: e.getScoreboardHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "GET", Path: "/categories/:category_id/comparison", HandlerFunc: cache.CachePage(cacheStore, 5*time.Second, e.getComparisonHandler())},
		{Method: "GET", Path: "/categories/:category_id/comparison/ws", HandlerFunc: e.comparisonWebSocketHandler},
		{Method: "GET", Path: "/events/:event_id/results", HandlerFunc: cache.CachePage(cacheStore, 5*time.Second, e.getFinalResultHandler())},
		{Method: "GET", Path: "/events/:event_id/results/ws", HandlerFunc: e.finalResultWebSocketHandler},
	}
	return routes
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// allow any host origin to connect to the websocket
		return true
	},
}

// @id GetScoreboard
// @Description Fetches one judge's tabulated sheet for a category: per-criterion points, totals and ranks
// @Tags result
// @Produce json
// @Param category_id path int true "Category Id"
// @Param judge_id path int true "Judge Id"
// @Success 200 {object} ScoreboardResponse
// @Security BearerAuth
// @Router /categories/{category_id}/judges/{judge_id}/scoreboard [get]
func (e *ResultController) getScoreboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, err := strconv.Atoi(c.Param("category_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		judgeId, err := strconv.Atoi(c.Param("judge_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		scoreboard, err := e.resultService.GetScoreboard(c.Request.Context(), categoryId, judgeId)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, toScoreboardResponse(scoreboard))
	}
}

// @id GetComparison
// @Description Fetches the cross-judge comparison for a category: each judge's rank column and the mean rank
// @Tags result
// @Produce json
// @Param category_id path int true "Category Id"
// @Success 200 {object} ComparisonResponse
// @Router /categories/{category_id}/comparison [get]
func (e *ResultController) getComparisonHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, err := strconv.Atoi(c.Param("category_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		comparison, err := e.resultService.GetComparison(c.Request.Context(), categoryId)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, toComparisonResponse(comparison))
	}
}

// @id GetFinalResult
// @Description Fetches the event's overall standings across all categories
// @Tags result
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {object} FinalResultResponse
// @Router /events/{event_id}/results [get]
func (e *ResultController) getFinalResultHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		result, err := e.resultService.GetFinalResult(c.Request.Context(), eventId)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, toFinalResultResponse(result))
	}
}

// @id ComparisonWebSocket
// @Description Websocket pushing the cross-judge comparison. The client receives the current view on connect and a fresh one after every change
// @Tags result
// @Param category_id path int true "Category Id"
// @Success 200 {object} ComparisonResponse
// @Router /categories/{category_id}/comparison/ws [get]
func (e *ResultController) comparisonWebSocketHandler(c *gin.Context) {
	categoryId, err := strconv.Atoi(c.Param("category_id"))
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	category, err := e.categoryRepository.GetCategoryById(c.Request.Context(), categoryId)
	if err != nil {
		writeError(c, err)
		return
	}
	// category subscribers still need the event's cross-replica feed
	e.notifier.StartEventFeed(category.EventId)
	e.serveUpdates(c,
		func(onChange func()) func() { return e.notifier.Subscribe(categoryId, onChange) },
		func(ctx context.Context) (any, error) {
			comparison, err := e.resultService.GetComparison(ctx, categoryId)
			if err != nil {
				return nil, err
			}
			return toComparisonResponse(comparison), nil
		})
}

// @id FinalResultWebSocket
// @Description Websocket pushing the event's overall standings. The client receives the current view on connect and a fresh one after every change
// @Tags result
// @Param event_id path int true "Event Id"
// @Success 200 {object} FinalResultResponse
// @Router /events/{event_id}/results/ws [get]
func (e *ResultController) finalResultWebSocketHandler(c *gin.Context) {
	eventId, err := strconv.Atoi(c.Param("event_id"))
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	e.serveUpdates(c,
		func(onChange func()) func() { return e.notifier.SubscribeEvent(eventId, onChange) },
		func(ctx context.Context) (any, error) {
			result, err := e.resultService.GetFinalResult(ctx, eventId)
			if err != nil {
				return nil, err
			}
			return toFinalResultResponse(result), nil
		})
}

// serveUpdates runs one websocket subscriber. The subscription is
// registered before the initial view is computed, so a change landing
// between the two triggers a recomputation instead of being lost. The
// notify channel has capacity one: bursts of changes coalesce into a
// single recomputation once the current write finishes.
func (e *ResultController) serveUpdates(c *gin.Context, subscribe func(onChange func()) func(), compute func(ctx context.Context) (any, error)) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		http.NotFound(c.Writer, c.Request)
		return
	}
	defer utils.Closer(conn)()
	metrics.ResultConnectionsGauge.Inc()
	defer metrics.ResultConnectionsGauge.Dec()

	notify := make(chan struct{}, 1)
	unsubscribe := subscribe(func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func() error {
		view, err := compute(context.Background())
		if err != nil {
			return err
		}
		serialized, err := json.Marshal(view)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, serialized)
	}

	if err := write(); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-notify:
			if err := write(); err != nil {
				return
			}
		}
	}
}

type CriterionScoreResponse struct {
	Points float64 `json:"points"`
	Rank   *int    `json:"rank"`
}

type ScoreboardRowResponse struct {
	ParticipantId int                            `json:"participant_id"`
	Total         float64                        `json:"total"`
	Rank          *int                           `json:"rank"`
	Criteria      map[int]CriterionScoreResponse `json:"criteria"`
}

type ScoreboardResponse struct {
	CategoryId int                     `json:"category_id"`
	JudgeId    int                     `json:"judge_id"`
	Rows       []ScoreboardRowResponse `json:"rows"`
}

type ComparisonRowResponse struct {
	ParticipantId int          `json:"participant_id"`
	JudgeRanks    map[int]*int `json:"judge_ranks"`
	SumRanks      int          `json:"sum_ranks"`
	MeanRank      *float64     `json:"mean_rank"`
	Rank          *int         `json:"rank"`
}

type ComparisonResponse struct {
	CategoryId int                     `json:"category_id"`
	JudgeIds   []int                   `json:"judge_ids"`
	Rows       []ComparisonRowResponse `json:"rows"`
}

type FinalRowResponse struct {
	ParticipantId int          `json:"participant_id"`
	CategoryRanks map[int]*int `json:"category_ranks"`
	MeanRank      *float64     `json:"mean_rank"`
	Rank          *int         `json:"rank"`
}

type FinalResultResponse struct {
	EventId int                `json:"event_id"`
	Rows    []FinalRowResponse `json:"rows"`
}

func toScoreboardResponse(scoreboard *scoring.Scoreboard) ScoreboardResponse {
	return ScoreboardResponse{
		CategoryId: scoreboard.CategoryId,
		JudgeId:    scoreboard.JudgeId,
		Rows: utils.Map(scoreboard.Rows, func(row scoring.ScoreboardRow) ScoreboardRowResponse {
			criteria := make(map[int]CriterionScoreResponse, len(row.Criteria))
			for criterionId, cell := range row.Criteria {
				criteria[criterionId] = CriterionScoreResponse{Points: cell.Points, Rank: cell.Rank}
			}
			return ScoreboardRowResponse{
				ParticipantId: row.ParticipantId,
				Total:         row.Total,
				Rank:          row.Rank,
				Criteria:      criteria,
			}
		}),
	}
}

func toComparisonResponse(comparison *scoring.Comparison) ComparisonResponse {
	return ComparisonResponse{
		CategoryId: comparison.CategoryId,
		JudgeIds:   comparison.JudgeIds,
		Rows: utils.Map(comparison.Rows, func(row scoring.ComparisonRow) ComparisonRowResponse {
			return ComparisonRowResponse{
				ParticipantId: row.ParticipantId,
				JudgeRanks:    row.JudgeRanks,
				SumRanks:      row.SumRanks,
				MeanRank:      row.MeanRank,
				Rank:          row.Rank,
			}
		}),
	}
}

func toFinalResultResponse(result *scoring.FinalResult) FinalResultResponse {
	return FinalResultResponse{
		EventId: result.EventId,
		Rows: utils.Map(result.Rows, func(row scoring.FinalRow) FinalRowResponse {
			return FinalRowResponse{
				ParticipantId: row.ParticipantId,
				CategoryRanks: row.CategoryRanks,
				MeanRank:      row.MeanRank,
				Rank:          row.Rank,
			}
		}),
	}
}
