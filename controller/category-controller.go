package controller

import (
	"strconv"

	"tally/repository"
	"tally/service"
	"tally/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CategoryController struct {
	categoryService *service.CategoryService
}

func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{
		categoryService: service.NewCategoryService(db),
	}
}

func setupCategoryController(db *gorm.DB) []RouteInfo {
	e := NewCategoryController(db)
	routes := []RouteInfo{
		{Method: "GET", Path: "/events/:event_id/categories", HandlerFunc: e.getCategoriesHandler()},
		{Method: "POST", Path: "/events/:event_id/categories", HandlerFunc: e.createCategoryHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "GET", Path: "/categories/:category_id", HandlerFunc: e.getCategoryHandler()},
		{Method: "PATCH", Path: "/categories/:category_id", HandlerFunc: e.updateCategoryHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "DELETE", Path: "/categories/:category_id", HandlerFunc: e.deleteCategoryHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "GET", Path: "/categories/:category_id/criteria", HandlerFunc: e.getCriteriaHandler()},
		{Method: "POST", Path: "/categories/:category_id/criteria", HandlerFunc: e.createCriterionHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "PATCH", Path: "/criteria/:criterion_id", HandlerFunc: e.updateCriterionHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "DELETE", Path: "/criteria/:criterion_id", HandlerFunc: e.deleteCriterionHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
	}
	return routes
}

// @id GetCategoriesForEvent
// @Description Fetches the categories of an event in display order
// @Tags category
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {array} CategoryResponse
// @Router /events/{event_id}/categories [get]
func (e *CategoryController) getCategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		categories, err := e.categoryService.GetCategoriesForEvent(c.Request.Context(), eventId)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, utils.Map(categories, toCategoryResponse))
	}
}

// @id CreateCategory
// @Description Creates a category within an event
// @Tags category
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param category body CategoryCreate true "Category to create"
// @Success 201 {object} CategoryResponse
// @Router /events/{event_id}/categories [post]
func (e *CategoryController) createCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var categoryCreate CategoryCreate
		if err := c.BindJSON(&categoryCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		category, err := e.categoryService.CreateCategory(c.Request.Context(), categoryCreate.toModel(eventId))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(201, toCategoryResponse(category))
	}
}

// @id GetCategory
// @Description Gets a category with its criteria and an indicator whether the criterion weights sum to 100
// @Tags category
// @Produce json
// @Param category_id path int true "Category Id"
// @Success 200 {object} CategoryResponse
// @Router /categories/{category_id} [get]
func (e *CategoryController) getCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, err := strconv.Atoi(c.Param("category_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		category, err := e.categoryService.GetCategoryById(c.Request.Context(), categoryId, "Criteria")
		if err != nil {
			writeError(c, err)
			return
		}
		weightSum, err := e.categoryService.WeightSum(c.Request.Context(), categoryId)
		if err != nil {
			writeError(c, err)
			return
		}
		response := toCategoryResponse(category)
		response.WeightSum = &weightSum
		c.JSON(200, response)
	}
}

// @id UpdateCategory
// @Description Updates a category. The tabular type is frozen once submissions exist
// @Tags category
// @Accept json
// @Produce json
// @Param category_id path int true "Category Id"
// @Param category body CategoryUpdate true "Category fields to update"
// @Success 200 {object} CategoryResponse
// @Router /categories/{category_id} [patch]
func (e *CategoryController) updateCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, err := strconv.Atoi(c.Param("category_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var categoryUpdate CategoryUpdate
		if err := c.BindJSON(&categoryUpdate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		category, err := e.categoryService.UpdateCategory(c.Request.Context(), categoryId, categoryUpdate.toModel())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, toCategoryResponse(category))
	}
}

// @id DeleteCategory
// @Description Deletes a category with its criteria and submissions
// @Tags category
// @Param category_id path int true "Category Id"
// @Success 204
// @Router /categories/{category_id} [delete]
func (e *CategoryController) deleteCategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, err := strconv.Atoi(c.Param("category_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.categoryService.DeleteCategory(c.Request.Context(), categoryId); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

// @id GetCriteriaForCategory
// @Description Fetches the criteria of a category in display order
// @Tags category
// @Produce json
// @Param category_id path int true "Category Id"
// @Success 200 {array} CriterionResponse
// @Router /categories/{category_id}/criteria [get]
func (e *CategoryController) getCriteriaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, err := strconv.Atoi(c.Param("category_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		criteria, err := e.categoryService.GetCriteriaForCategory(c.Request.Context(), categoryId)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, utils.Map(criteria, toCriterionResponse))
	}
}

// @id CreateCriterion
// @Description Adds a criterion to a scoring category
// @Tags category
// @Accept json
// @Produce json
// @Param category_id path int true "Category Id"
// @Param criterion body CriterionCreate true "Criterion to create"
// @Success 201 {object} CriterionResponse
// @Router /categories/{category_id}/criteria [post]
func (e *CategoryController) createCriterionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryId, err := strconv.Atoi(c.Param("category_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var criterionCreate CriterionCreate
		if err := c.BindJSON(&criterionCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		criterion, err := e.categoryService.CreateCriterion(c.Request.Context(), criterionCreate.toModel(categoryId))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(201, toCriterionResponse(criterion))
	}
}

// @id UpdateCriterion
// @Description Updates a criterion
// @Tags category
// @Accept json
// @Produce json
// @Param criterion_id path int true "Criterion Id"
// @Param criterion body CriterionUpdate true "Criterion fields to update"
// @Success 200 {object} CriterionResponse
// @Router /criteria/{criterion_id} [patch]
func (e *CategoryController) updateCriterionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		criterionId, err := strconv.Atoi(c.Param("criterion_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var criterionUpdate CriterionUpdate
		if err := c.BindJSON(&criterionUpdate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		criterion, err := e.categoryService.UpdateCriterion(c.Request.Context(), criterionId, criterionUpdate.toModel())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, toCriterionResponse(criterion))
	}
}

// @id DeleteCriterion
// @Description Deletes a criterion and its score rows
// @Tags category
// @Param criterion_id path int true "Criterion Id"
// @Success 204
// @Router /criteria/{criterion_id} [delete]
func (e *CategoryController) deleteCriterionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		criterionId, err := strconv.Atoi(c.Param("criterion_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.categoryService.DeleteCriterion(c.Request.Context(), criterionId); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

type CategoryCreate struct {
	Name         string                 `json:"name" binding:"required"`
	TabularType  repository.TabularType `json:"tabular_type"`
	Percentage   int                    `json:"percentage"`
	DisplayOrder int                    `json:"display_order"`
}

type CategoryUpdate struct {
	Name         string                 `json:"name"`
	TabularType  repository.TabularType `json:"tabular_type"`
	Percentage   int                    `json:"percentage"`
	DisplayOrder int                    `json:"display_order"`
}

type CategoryResponse struct {
	Id           int                    `json:"id"`
	EventId      int                    `json:"event_id"`
	Name         string                 `json:"name"`
	TabularType  repository.TabularType `json:"tabular_type"`
	Percentage   int                    `json:"percentage"`
	DisplayOrder int                    `json:"display_order"`
	Criteria     []CriterionResponse    `json:"criteria,omitempty"`
	WeightSum    *int                   `json:"weight_sum,omitempty"`
}

type CriterionCreate struct {
	Name         string  `json:"name" binding:"required"`
	Percentage   int     `json:"percentage"`
	MinScore     float64 `json:"min_score"`
	MaxScore     float64 `json:"max_score"`
	DisplayOrder int     `json:"display_order"`
}

type CriterionUpdate struct {
	Name         string  `json:"name"`
	Percentage   int     `json:"percentage"`
	MinScore     float64 `json:"min_score"`
	MaxScore     float64 `json:"max_score"`
	DisplayOrder int     `json:"display_order"`
}

type CriterionResponse struct {
	Id           int     `json:"id"`
	CategoryId   int     `json:"category_id"`
	Name         string  `json:"name"`
	Percentage   int     `json:"percentage"`
	MinScore     float64 `json:"min_score"`
	MaxScore     float64 `json:"max_score"`
	DisplayOrder int     `json:"display_order"`
}

func (e *CategoryCreate) toModel(eventId int) *repository.Category {
	return &repository.Category{
		EventId:      eventId,
		Name:         e.Name,
		TabularType:  e.TabularType,
		Percentage:   e.Percentage,
		DisplayOrder: e.DisplayOrder,
	}
}

func (e *CategoryUpdate) toModel() *repository.Category {
	return &repository.Category{
		Name:         e.Name,
		TabularType:  e.TabularType,
		Percentage:   e.Percentage,
		DisplayOrder: e.DisplayOrder,
	}
}

func (e *CriterionCreate) toModel(categoryId int) *repository.Criterion {
	return &repository.Criterion{
		CategoryId:   categoryId,
		Name:         e.Name,
		Percentage:   e.Percentage,
		MinScore:     e.MinScore,
		MaxScore:     e.MaxScore,
		DisplayOrder: e.DisplayOrder,
	}
}

func (e *CriterionUpdate) toModel() *repository.Criterion {
	return &repository.Criterion{
		Name:         e.Name,
		Percentage:   e.Percentage,
		MinScore:     e.MinScore,
		MaxScore:     e.MaxScore,
		DisplayOrder: e.DisplayOrder,
	}
}

func toCategoryResponse(category *repository.Category) CategoryResponse {
	response := CategoryResponse{
		Id:           category.Id,
		EventId:      category.EventId,
		Name:         category.Name,
		TabularType:  category.TabularType,
		Percentage:   category.Percentage,
		DisplayOrder: category.DisplayOrder,
	}
	if category.Criteria != nil {
		response.Criteria = utils.Map(category.Criteria, toCriterionResponse)
	}
	return response
}

func toCriterionResponse(criterion *repository.Criterion) CriterionResponse {
	return CriterionResponse{
		Id:           criterion.Id,
		CategoryId:   criterion.CategoryId,
		Name:         criterion.Name,
		Percentage:   criterion.Percentage,
		MinScore:     criterion.MinScore,
		MaxScore:     criterion.MaxScore,
		DisplayOrder: criterion.DisplayOrder,
	}
}
