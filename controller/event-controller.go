package controller

import (
	"strconv"

	"tally/repository"
	"tally/service"
	"tally/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EventController struct {
	eventService *service.EventService
}

func NewEventController(db *gorm.DB) *EventController {
	return &EventController{
		eventService: service.NewEventService(db),
	}
}

func setupEventController(db *gorm.DB) []RouteInfo {
	e := NewEventController(db)
	basePath := "/events"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getEventsHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.createEventHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "GET", Path: "/:event_id", HandlerFunc: e.getEventHandler()},
		{Method: "PATCH", Path: "/:event_id", HandlerFunc: e.updateEventHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
		{Method: "DELETE", Path: "/:event_id", HandlerFunc: e.deleteEventHandler(), Authenticated: true, RequiredRoles: []string{"admin"}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @id GetEvents
// @Description Fetches all events
// @Tags event
// @Produce json
// @Success 200 {array} EventResponse
// @Router /events [get]
func (e *EventController) getEventsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := e.eventService.GetAllEvents(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, utils.Map(events, toEventResponse))
	}
}

// @id CreateEvent
// @Description Creates an event
// @Tags event
// @Accept json
// @Produce json
// @Param event body EventCreate true "Event to create"
// @Success 201 {object} EventResponse
// @Router /events [post]
func (e *EventController) createEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var eventCreate EventCreate
		if err := c.BindJSON(&eventCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		event, err := e.eventService.CreateEvent(c.Request.Context(), eventCreate.toModel())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(201, toEventResponse(event))
	}
}

// @id GetEvent
// @Description Gets an event by id
// @Tags event
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {object} EventResponse
// @Router /events/{event_id} [get]
func (e *EventController) getEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		event, err := e.eventService.GetEventById(c.Request.Context(), eventId, "Categories", "Participants")
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, toEventResponse(event))
	}
}

// @id UpdateEvent
// @Description Updates an event
// @Tags event
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param event body EventUpdate true "Event fields to update"
// @Success 200 {object} EventResponse
// @Router /events/{event_id} [patch]
func (e *EventController) updateEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		var eventUpdate EventUpdate
		if err := c.BindJSON(&eventUpdate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		event, err := e.eventService.UpdateEvent(c.Request.Context(), eventId, eventUpdate.toModel())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, toEventResponse(event))
	}
}

// @id DeleteEvent
// @Description Deletes an event and everything attached to it
// @Tags event
// @Param event_id path int true "Event Id"
// @Success 204
// @Router /events/{event_id} [delete]
func (e *EventController) deleteEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if err := e.eventService.DeleteEvent(c.Request.Context(), eventId); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(204, nil)
	}
}

type EventCreate struct {
	Name            string                     `json:"name" binding:"required"`
	ParticipantType repository.ParticipantType `json:"participant_type"`
	Status          repository.EventStatus     `json:"status"`
}

type EventUpdate struct {
	Name            string                     `json:"name"`
	ParticipantType repository.ParticipantType `json:"participant_type"`
	Status          repository.EventStatus     `json:"status"`
}

type EventResponse struct {
	Id              int                        `json:"id"`
	Name            string                     `json:"name"`
	ParticipantType repository.ParticipantType `json:"participant_type"`
	Status          repository.EventStatus     `json:"status"`
	Categories      []CategoryResponse         `json:"categories,omitempty"`
	Participants    []ParticipantResponse      `json:"participants,omitempty"`
}

func (e *EventCreate) toModel() *repository.Event {
	return &repository.Event{
		Name:            e.Name,
		ParticipantType: e.ParticipantType,
		Status:          e.Status,
	}
}

func (e *EventUpdate) toModel() *repository.Event {
	return &repository.Event{
		Name:            e.Name,
		ParticipantType: e.ParticipantType,
		Status:          e.Status,
	}
}

func toEventResponse(event *repository.Event) EventResponse {
	response := EventResponse{
		Id:              event.Id,
		Name:            event.Name,
		ParticipantType: event.ParticipantType,
		Status:          event.Status,
	}
	if event.Categories != nil {
		response.Categories = utils.Map(event.Categories, toCategoryResponse)
	}
	if event.Participants != nil {
		response.Participants = utils.Map(event.Participants, toParticipantResponse)
	}
	return response
}
