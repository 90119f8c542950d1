package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"chorely/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventsHandler exposes chore events: creation, the two list views,
// day lookup, and the join/leave/complete participation verbs.
type EventsHandler struct {
	Events *service.EventsService
}

type CreateEventRequest struct {
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	ScheduledTime int64    `json:"scheduledTime" binding:"required"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

func (h *EventsHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	event, err := h.Events.Create(ctx, userID, service.CreateEventInput{
		Title:         req.Title,
		Description:   req.Description,
		ScheduledTime: req.ScheduledTime,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *EventsHandler) Mine(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	events, err := h.Events.Mine(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *EventsHandler) FriendsEvents(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	events, err := h.Events.FriendsEvents(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// OnDay lists the caller's events for one calendar day, completed ones
// included. The day comes as ?date=YYYY-MM-DD, interpreted in server time.
func (h *EventsHandler) OnDay(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	day, err := time.ParseInLocation("2006-01-02", c.Query("date"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	events, err := h.Events.OnDay(ctx, userID, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *EventsHandler) Join(c *gin.Context) {
	h.participate(c, h.Events.Join, "Joined event")
}

func (h *EventsHandler) Leave(c *gin.Context) {
	h.participate(c, h.Events.Leave, "Left event")
}

func (h *EventsHandler) Complete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	err := h.Events.Complete(ctx, eventID, userID)
	if errors.Is(err, service.ErrCounterDrift) {
		// The event is completed; only the counter write was lost.
		c.JSON(http.StatusOK, gin.H{
			"message": "Event completed",
			"warning": "task counters may be briefly out of date",
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event completed"})
}

func (h *EventsHandler) participate(c *gin.Context,
	op func(ctx context.Context, eventID, userID primitive.ObjectID) error, message string) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := op(ctx, eventID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}
