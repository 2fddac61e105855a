package controller

import (
	"strconv"

	"tally/auth"
	"tally/repository"
	"tally/service"
	"tally/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type JudgeController struct {
	judgeService *service.JudgeService
}

func NewJudgeController(db *gorm.DB) *JudgeController {
	return &JudgeController{
		judgeService: service.NewJudgeService(db),
	}
}

func setupJudgeController(db *gorm.DB) []RouteInfo {
	e := NewJudgeController(db)
	routes := []RouteInfo{
		{Method: "GET", Path: "/events/:event_id/judges", HandlerFunc: e.getJudgesHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "POST", Path: "/events/:event_id/judges", HandlerFunc: e.createJudgeHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "PATCH", Path: "/judges/:judge_id", HandlerFunc: e.updateJudgeHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "DELETE", Path: "/judges/:judge_id", HandlerFunc: e.deleteJudgeHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "POST", Path: "/judges/:judge_id/token", HandlerFunc: e.createTokenHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "PUT", Path: "/judges/:judge_id/categories/:category_id", HandlerFunc: e.assignCategoryHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "DELETE", Path: "/judges/:judge_id/categories/:category_id", HandlerFunc: e.unassignCategoryHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
	}
	return routes
}

// @id GetJudgesForEvent
// @Description Fetches the judges of an event with their category assignments
// @Tags judge
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {array} JudgeResponse
// @Security BearerAuth
// @Router /events/{event_id}/judges [get]
func (e *JudgeController) getJudgesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		judges, err := e.judgeService.GetJudgesForEvent(c.Request.Context(), eventId)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, utils.Map(judges, toJudgeResponse))
	}
}

// @id CreateJudge
// @Description Creates a judge. The response is the only place the access code is ever returned
// @Tags judge
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param judge body JudgeCreate true "Judge to create"
// @Success 201 {object} JudgeResponse
// @Security BearerAuth
// @Router /events/{event_id}/judges [post]
func (e *JudgeController) createJudgeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var judgeCreate JudgeCreate
		if err := c.BindJSON(&judgeCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		judge, err := e.judgeService.CreateJudge(c.Request.Context(), judgeCreate.toModel(eventId))
		if err != nil {
			writeError(c, err)
			return
		}
		response := toJudgeResponse(judge)
		response.Code = judge.Code
		c.JSON(201, response)
	}
}

// @id UpdateJudge
// @Description Renames a judge
// @Tags judge
// @Accept json
// @Produce json
// @Param judge_id path int true "Judge Id"
// @Param judge body JudgeUpdate true "Judge fields to update"
// @Success 200 {object} JudgeResponse
// @Security BearerAuth
// @Router /judges/{judge_id} [patch]
func (e *JudgeController) updateJudgeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		judgeId, err := strconv.Atoi(c.Param("judge_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var judgeUpdate JudgeUpdate
		if err := c.BindJSON(&judgeUpdate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		judge, err := e.judgeService.UpdateJudge(c.Request.Context(), judgeId, judgeUpdate.toModel())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, toJudgeResponse(judge))
	}
}

// @id DeleteJudge
// @Description Deletes a judge and their submissions
// @Tags judge
// @Param judge_id path int true "Judge Id"
// @Success 204
// @Security BearerAuth
// @Router /judges/{judge_id} [delete]
func (e *JudgeController) deleteJudgeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		judgeId, err := strconv.Atoi(c.Param("judge_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.judgeService.DeleteJudge(c.Request.Context(), judgeId); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

// @id CreateJudgeToken
// @Description Mints a signed token for a judge's scoring device
// @Tags judge
// @Produce json
// @Param judge_id path int true "Judge Id"
// @Success 201 {object} TokenResponse
// @Security BearerAuth
// @Router /judges/{judge_id}/token [post]
func (e *JudgeController) createTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		judgeId, err := strconv.Atoi(c.Param("judge_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		judge, err := e.judgeService.GetJudgeById(c.Request.Context(), judgeId)
		if err != nil {
			writeError(c, err)
			return
		}
		token, err := auth.CreateJudgeToken(judge)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(201, TokenResponse{Token: token})
	}
}

// @id AssignCategory
// @Description Assigns a judge to a category of the same event
// @Tags judge
// @Param judge_id path int true "Judge Id"
// @Param category_id path int true "Category Id"
// @Success 204
// @Security BearerAuth
// @Router /judges/{judge_id}/categories/{category_id} [put]
func (e *JudgeController) assignCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		judgeId, err := strconv.Atoi(c.Param("judge_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		categoryId, err := strconv.Atoi(c.Param("category_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.judgeService.AssignCategory(c.Request.Context(), judgeId, categoryId); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

// @id UnassignCategory
// @Description Removes a judge's category assignment
// @Tags judge
// @Param judge_id path int true "Judge Id"
// @Param category_id path int true "Category Id"
// @Success 204
// @Security BearerAuth
// @Router /judges/{judge_id}/categories/{category_id} [delete]
func (e *JudgeController) unassignCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		judgeId, err := strconv.Atoi(c.Param("judge_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		categoryId, err := strconv.Atoi(c.Param("category_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.judgeService.UnassignCategory(c.Request.Context(), judgeId, categoryId); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

type JudgeCreate struct {
	Name string `json:"name" binding:"required"`
}

type JudgeUpdate struct {
	Name string `json:"name"`
}

type JudgeResponse struct {
	Id         int    `json:"id"`
	EventId    int    `json:"event_id"`
	Name       string `json:"name"`
	Code       string `json:"code,omitempty"`
	Categories []int  `json:"categories"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

func (e *JudgeCreate) toModel(eventId int) *repository.Judge {
	return &repository.Judge{
		EventId: eventId,
		Name:    e.Name,
	}
}

func (e *JudgeUpdate) toModel() *repository.Judge {
	return &repository.Judge{
		Name: e.Name,
	}
}

func toJudgeResponse(judge *repository.Judge) JudgeResponse {
	return JudgeResponse{
		Id:      judge.Id,
		EventId: judge.EventId,
		Name:    judge.Name,
		Categories: utils.Map(judge.Categories, func(category *repository.Category) int {
			return category.Id
		}),
	}
}
