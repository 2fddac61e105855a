package controller

import (
	"strconv"

	"tally/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SubmissionController struct {
	submissionService *service.SubmissionService
	judgeService      *service.JudgeService
}

func setupSubmissionController(db *gorm.DB, submissionService *service.SubmissionService) []RouteInfo {
	e := &SubmissionController{
		submissionService: submissionService,
		judgeService:      service.NewJudgeService(db),
	}
	basePath := "/categories/:category_id"
	routes := []RouteInfo{
		{Method: "GET", Path: "/sheet", HandlerFunc: e.getSheetHandler(), Authenticated: true, RequiredRoles: []string{"judge"}},
		{Method: "PUT", Path: "/participants/:participant_id/score", HandlerFunc: e.setScoreHandler(), Authenticated: true, RequiredRoles: []string{"judge"}},
		{Method: "PUT", Path: "/participants/:participant_id/rank", HandlerFunc: e.setRankHandler(), Authenticated: true, RequiredRoles: []string{"judge"}},
		{Method: "POST", Path: "/participants/:participant_id/lock", HandlerFunc: e.lockHandler(), Authenticated: true, RequiredRoles: []string{"judge"}},
		{Method: "POST", Path: "/participants/:participant_id/unlock", HandlerFunc: e.unlockHandler(), Authenticated: true, RequiredRoles: []string{"judge"}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// submissionParams resolves the judge from the token and verifies the
// category assignment: a valid judge token for another category gets 403.
func (e *SubmissionController) submissionParams(c *gin.Context) (categoryId int, judgeId int, participantId int, ok bool) {
	claims := getClaims(c)
	if claims == nil {
		c.JSON(401, gin.H{"error": "Unauthenticated"})
		return 0, 0, 0, false
	}
	categoryId, err := strconv.Atoi(c.Param("category_id"))
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return 0, 0, 0, false
	}
	participantId = 0
	if raw := c.Param("participant_id"); raw != "" {
		participantId, err = strconv.Atoi(raw)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return 0, 0, 0, false
		}
	}
	assigned, err := e.judgeService.IsAssigned(c.Request.Context(), claims.JudgeId, categoryId)
	if err != nil {
		writeError(c, err)
		return 0, 0, 0, false
	}
	if !assigned {
		c.JSON(403, gin.H{"error": "Judge is not assigned to this category"})
		return 0, 0, 0, false
	}
	return categoryId, claims.JudgeId, participantId, true
}

// @id GetSheet
// @Description Fetches the judge's own sheet for a category, draft values and lock markers included
// @Tags submission
// @Produce json
// @Param category_id path int true "Category Id"
// @Success 200 {object} SheetResponse
// @Security BearerAuth
// @Router /categories/{category_id}/sheet [get]
func (e *SubmissionController) getSheetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, judgeId, _, ok := e.submissionParams(c)
		if !ok {
			return
		}
		sheet, err := e.submissionService.Sheet(c.Request.Context(), categoryId, judgeId)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, toSheetResponse(sheet))
	}
}

// @id SetScore
// @Description Records a draft point value for one participant and criterion. Writes against a locked participant are ignored
// @Tags submission
// @Accept json
// @Param category_id path int true "Category Id"
// @Param participant_id path int true "Participant Id"
// @Param score body ScoreWrite true "Points for one criterion"
// @Success 204
// @Security BearerAuth
// @Router /categories/{category_id}/participants/{participant_id}/score [put]
func (e *SubmissionController) setScoreHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, judgeId, participantId, ok := e.submissionParams(c)
		if !ok {
			return
		}
		var write ScoreWrite
		if err := c.BindJSON(&write); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		err := e.submissionService.SetScore(c.Request.Context(), categoryId, judgeId, participantId, write.CriterionId, write.Points)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

// @id SetRank
// @Description Records a draft rank for one participant in a ranking category
// @Tags submission
// @Accept json
// @Param category_id path int true "Category Id"
// @Param participant_id path int true "Participant Id"
// @Param rank body RankWrite true "Rank to assign"
// @Success 204
// @Security BearerAuth
// @Router /categories/{category_id}/participants/{participant_id}/rank [put]
func (e *SubmissionController) setRankHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, judgeId, participantId, ok := e.submissionParams(c)
		if !ok {
			return
		}
		var write RankWrite
		if err := c.BindJSON(&write); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		err := e.submissionService.SetRanking(c.Request.Context(), categoryId, judgeId, participantId, write.Rank)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

// @id LockSubmission
// @Description Persists the judge's values for a participant and makes them immutable. Locking twice is a no-op
// @Tags submission
// @Param category_id path int true "Category Id"
// @Param participant_id path int true "Participant Id"
// @Success 204
// @Security BearerAuth
// @Router /categories/{category_id}/participants/{participant_id}/lock [post]
func (e *SubmissionController) lockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, judgeId, participantId, ok := e.submissionParams(c)
		if !ok {
			return
		}
		if err := e.submissionService.Lock(c.Request.Context(), categoryId, judgeId, participantId); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

// @id UnlockSubmission
// @Description Clears the lock so the judge can edit again. Persisted values are kept
// @Tags submission
// @Param category_id path int true "Category Id"
// @Param participant_id path int true "Participant Id"
// @Success 204
// @Security BearerAuth
// @Router /categories/{category_id}/participants/{participant_id}/unlock [post]
func (e *SubmissionController) unlockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, judgeId, participantId, ok := e.submissionParams(c)
		if !ok {
			return
		}
		if err := e.submissionService.Unlock(c.Request.Context(), categoryId, judgeId, participantId); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

type ScoreWrite struct {
	CriterionId int     `json:"criterion_id" binding:"required"`
	Points      float64 `json:"points"`
}

type RankWrite struct {
	Rank int `json:"rank" binding:"required"`
}

type SheetResponse struct {
	CategoryId int                     `json:"category_id"`
	JudgeId    int                     `json:"judge_id"`
	Ranking    bool                    `json:"ranking"`
	Scores     map[int]map[int]float64 `json:"scores"`
	Ranks      map[int]int             `json:"ranks"`
	Locked     map[int]bool            `json:"locked"`
}

func toSheetResponse(sheet *service.SheetSnapshot) SheetResponse {
	return SheetResponse{
		CategoryId: sheet.CategoryId,
		JudgeId:    sheet.JudgeId,
		Ranking:    sheet.Ranking,
		Scores:     sheet.Scores,
		Ranks:      sheet.Ranks,
		Locked:     sheet.Locked,
	}
}
