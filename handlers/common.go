package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"chorely/middleware"
	"chorely/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const requestTimeout = 10 * time.Second

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// callerID reads the authenticated user id. JWTAuth guarantees it on
// protected routes; a miss means a wiring bug, answered as 401.
func callerID(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
	return id, ok
}

func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return primitive.NilObjectID, false
	}
	return id, true
}

// respondError maps domain errors onto HTTP statuses. Anything unclassified
// is a 500 with a generic body.
func respondError(c *gin.Context, err error) {
	var validation *models.ValidationError
	var auth *models.AuthError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": validation.Fields})
	case errors.As(err, &auth):
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.Reason})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
