package controller

import (
	"strconv"

	"tally/repository"
	"tally/service"
	"tally/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ParticipantController struct {
	participantService *service.ParticipantService
}

func NewParticipantController(db *gorm.DB) *ParticipantController {
	return &ParticipantController{
		participantService: service.NewParticipantService(db),
	}
}

func setupParticipantController(db *gorm.DB) []RouteInfo {
	e := NewParticipantController(db)
	routes := []RouteInfo{
		{Method: "GET", Path: "/events/:event_id/participants", HandlerFunc: e.getParticipantsHandler()},
		{Method: "POST", Path: "/events/:event_id/participants", HandlerFunc: e.createParticipantHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "PATCH", Path: "/participants/:participant_id", HandlerFunc: e.updateParticipantHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "DELETE", Path: "/participants/:participant_id", HandlerFunc: e.deleteParticipantHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
	}
	return routes
}

// @id GetParticipantsForEvent
// @Description Fetches the participants of an event in display order
// @Tags participant
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {array} ParticipantResponse
// @Router /events/{event_id}/participants [get]
func (e *ParticipantController) getParticipantsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		participants, err := e.participantService.GetParticipantsForEvent(c.Request.Context(), eventId)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, utils.Map(participants, toParticipantResponse))
	}
}

// @id CreateParticipant
// @Description Registers a participant for an event
// @Tags participant
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param participant body ParticipantCreate true "Participant to create"
// @Success 201 {object} ParticipantResponse
// @Router /events/{event_id}/participants [post]
func (e *ParticipantController) createParticipantHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var participantCreate ParticipantCreate
		if err := c.BindJSON(&participantCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		participant, err := e.participantService.CreateParticipant(c.Request.Context(), participantCreate.toModel(eventId))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(201, toParticipantResponse(participant))
	}
}

// @id UpdateParticipant
// @Description Updates a participant
// @Tags participant
// @Accept json
// @Produce json
// @Param participant_id path int true "Participant Id"
// @Param participant body ParticipantUpdate true "Participant fields to update"
// @Success 200 {object} ParticipantResponse
// @Router /participants/{participant_id} [patch]
func (e *ParticipantController) updateParticipantHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		participantId, err := strconv.Atoi(c.Param("participant_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var participantUpdate ParticipantUpdate
		if err := c.BindJSON(&participantUpdate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		participant, err := e.participantService.UpdateParticipant(c.Request.Context(), participantId, participantUpdate.toModel())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, toParticipantResponse(participant))
	}
}

// @id DeleteParticipant
// @Description Removes a participant and their submissions
// @Tags participant
// @Param participant_id path int true "Participant Id"
// @Success 204
// @Router /participants/{participant_id} [delete]
func (e *ParticipantController) deleteParticipantHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		participantId, err := strconv.Atoi(c.Param("participant_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.participantService.DeleteParticipant(c.Request.Context(), participantId); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

type ParticipantCreate struct {
	Name         string  `json:"name" binding:"required"`
	Department   string  `json:"department"`
	Gender       *string `json:"gender"`
	DisplayOrder int     `json:"display_order"`
}

type ParticipantUpdate struct {
	Name         string  `json:"name"`
	Department   string  `json:"department"`
	Gender       *string `json:"gender"`
	DisplayOrder int     `json:"display_order"`
}

type ParticipantResponse struct {
	Id           int     `json:"id"`
	EventId      int     `json:"event_id"`
	Name         string  `json:"name"`
	Department   string  `json:"department"`
	Gender       *string `json:"gender,omitempty"`
	DisplayOrder int     `json:"display_order"`
}

func (e *ParticipantCreate) toModel(eventId int) *repository.Participant {
	return &repository.Participant{
		EventId:      eventId,
		Name:         e.Name,
		Department:   e.Department,
		Gender:       e.Gender,
		DisplayOrder: e.DisplayOrder,
	}
}

func (e *ParticipantUpdate) toModel() *repository.Participant {
	return &repository.Participant{
		Name:         e.Name,
		Department:   e.Department,
		Gender:       e.Gender,
		DisplayOrder: e.DisplayOrder,
	}
}

func toParticipantResponse(participant *repository.Participant) ParticipantResponse {
	return ParticipantResponse{
		Id:           participant.Id,
		EventId:      participant.EventId,
		Name:         participant.Name,
		Department:   participant.Department,
		Gender:       participant.Gender,
		DisplayOrder: participant.DisplayOrder,
	}
}
