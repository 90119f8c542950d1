package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash *string            `bson:"passwordHash,omitempty" json:"-"`

	FullName    string   `bson:"fullName" json:"fullName"`
	PhoneNumber string   `bson:"phoneNumber" json:"phoneNumber"`
	Birthday    int64    `bson:"birthday" json:"birthday"` // Unix timestamp
	LookingFor  []string `bson:"lookingFor" json:"lookingFor"`

	Friends             []primitive.ObjectID `bson:"friends" json:"friends"`
	CompletedTasksCount int                  `bson:"completedTasksCount" json:"completedTasksCount"`
	PendingTasksCount   int                  `bson:"pendingTasksCount" json:"pendingTasksCount"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
}

// HasFriend reports whether id is already in the friends list.
func (u *User) HasFriend(id primitive.ObjectID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}
