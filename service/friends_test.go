package service

import (
	"context"
	"errors"
	"testing"

	"chorely/models"
)

func TestAddFriend(t *testing.T) {
	users := newFakeUsers()
	alice := users.add(models.User{FullName: "Alice"})
	bob := users.add(models.User{FullName: "Bob"})
	svc := &FriendsService{Users: users}

	if err := svc.Add(context.Background(), alice, bob); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	// Re-adding is a no-op, not an error.
	if err := svc.Add(context.Background(), alice, bob); err != nil {
		t.Fatalf("re-Add() error = %v", err)
	}
	if got := users.users[alice].Friends; len(got) != 1 || got[0] != bob {
		t.Errorf("friends = %v, want exactly [bob]", got)
	}
	// One-directional edge: Bob does not list Alice.
	if got := users.users[bob].Friends; len(got) != 0 {
		t.Errorf("bob's friends = %v, want empty", got)
	}
}

func TestAddFriendSelf(t *testing.T) {
	users := newFakeUsers()
	alice := users.add(models.User{FullName: "Alice"})
	svc := &FriendsService{Users: users}

	var vErr *models.ValidationError
	if err := svc.Add(context.Background(), alice, alice); !errors.As(err, &vErr) {
		t.Errorf("self-add error = %v, want ValidationError", err)
	}
}

func TestRemoveFriendNonMember(t *testing.T) {
	users := newFakeUsers()
	alice := users.add(models.User{FullName: "Alice"})
	bob := users.add(models.User{FullName: "Bob"})
	svc := &FriendsService{Users: users}

	if err := svc.Remove(context.Background(), alice, bob); err != nil {
		t.Errorf("removing a non-friend should be a no-op, got %v", err)
	}
}

func TestListDropsUnresolvable(t *testing.T) {
	users := newFakeUsers()
	bob := users.add(models.User{FullName: "Bob"})
	ghost := users.add(models.User{FullName: "Ghost"})
	alice := users.add(models.User{FullName: "Alice"})
	users.users[alice].Friends = append(users.users[alice].Friends, bob, ghost)
	delete(users.users, ghost) // friend id pointing at a missing profile

	svc := &FriendsService{Users: users}
	friends, err := svc.List(context.Background(), alice)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(friends) != 1 || friends[0].ID != bob {
		t.Errorf("List() = %v, want just Bob", friends)
	}
}

func TestSearchExcludesSelfAndFriends(t *testing.T) {
	users := newFakeUsers()
	alice := users.add(models.User{FullName: "Sam One", Email: "alice@b.com"})
	friend := users.add(models.User{FullName: "Sam Friend", Email: "friend@b.com"})
	stranger := users.add(models.User{FullName: "Sam Stranger", Email: "sam@b.com", PhoneNumber: "555-0100"})
	users.users[alice].Friends = append(users.users[alice].Friends, friend)
	users.users[alice].FullName = "Sam One"

	svc := &FriendsService{Users: users}

	results, err := svc.Search(context.Background(), alice, "Sam")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].ID != stranger {
		t.Errorf("Search() = %v, want just the stranger", results)
	}
}

func TestSearchNoMatchIsEmptyList(t *testing.T) {
	users := newFakeUsers()
	alice := users.add(models.User{FullName: "Alice"})
	svc := &FriendsService{Users: users}

	results, err := svc.Search(context.Background(), alice, "nosuch@b.com")
	if err != nil {
		t.Fatalf("Search() error = %v, want empty result", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("Search() = %v, want empty non-nil list", results)
	}
}
