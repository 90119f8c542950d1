package service

import (
	"context"
	"errors"
	"strings"

	"chorely/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendsService maintains the directed friend edge set. Edges are
// one-directional by design: A listing B does not make B list A.
type FriendsService struct {
	Users UsersStore
}

// Add appends friendID to userID's friend list. Adding yourself is
// rejected; adding an existing friend is a no-op (set semantics).
func (s *FriendsService) Add(ctx context.Context, userID, friendID primitive.ObjectID) error {
	if userID == friendID {
		return models.NewValidationError(map[string]string{"friendId": "cannot add yourself"})
	}
	if _, err := s.Users.Fetch(ctx, friendID); err != nil {
		return err
	}
	return s.Users.AddFriend(ctx, userID, friendID)
}

// Remove drops the edge. Removing a non-friend is a no-op.
func (s *FriendsService) Remove(ctx context.Context, userID, friendID primitive.ObjectID) error {
	return s.Users.RemoveFriend(ctx, userID, friendID)
}

// List resolves the caller's friend ids into profiles. Unresolvable ids are
// silently dropped, so the result may be shorter than the id list.
func (s *FriendsService) List(ctx context.Context, userID primitive.ObjectID) ([]models.User, error) {
	user, err := s.Users.Fetch(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Friends) == 0 {
		return []models.User{}, nil
	}
	friends, err := s.Users.Resolve(ctx, user.Friends)
	if err != nil {
		return nil, err
	}
	if friends == nil {
		friends = []models.User{}
	}
	return friends, nil
}

// Search unions name-prefix, exact-email, and exact-phone lookups, then
// filters out the searcher and anyone already friended. No matches is an
// empty list, not an error.
func (s *FriendsService) Search(ctx context.Context, userID primitive.ObjectID, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}

	user, err := s.Users.Fetch(ctx, userID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	candidates, err := s.Users.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	results := []models.User{}
	for _, c := range candidates {
		if c.ID == userID {
			continue
		}
		if user != nil && user.HasFriend(c.ID) {
			continue
		}
		results = append(results, c)
	}
	return results, nil
}
