package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Event struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	CreatorID   primitive.ObjectID `bson:"creatorId" json:"creatorId"`

	ScheduledTime int64 `bson:"scheduledTime" json:"scheduledTime"` // Unix timestamp
	CreatedAt     int64 `bson:"createdAt" json:"createdAt"`

	Participants []primitive.ObjectID `bson:"participants" json:"participants"`
	Completed    bool                 `bson:"completed" json:"completed"`
	LocationName string               `bson:"locationName,omitempty" json:"locationName,omitempty"`
}

// HasParticipant reports whether id is in the participant set.
func (e *Event) HasParticipant(id primitive.ObjectID) bool {
	for _, p := range e.Participants {
		if p == id {
			return true
		}
	}
	return false
}
