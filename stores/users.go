package stores

import (
	"context"
	"errors"
	"fmt"
)

// UserStore caches the user list (admin only on the backend).
type UserStore struct {
	api API
	cache[User]
}

func NewUserStore(api API) (*UserStore, error) {
	if api == nil {
		return nil, errors.New("[stores.NewUserStore] api is required")
	}
	return &UserStore{api: api}, nil
}

func (s *UserStore) State() State[User] {
	return s.snapshot()
}

func (s *UserStore) FetchUsers(ctx context.Context) error {
	s.begin()
	defer s.settle()

	res, err := s.api.Get(ctx, "/users", nil)
	if err == nil {
		var users []User
		if users, err = normalizeUsers(res); err == nil {
			s.replace(users)
			return nil
		}
	}
	s.fail("users", err, "Failed to fetch users.")
	return err
}

func (s *UserStore) CreateUser(ctx context.Context, input UserInput) (User, error) {
	s.begin()
	defer s.settle()

	res, err := s.api.Post(ctx, "/users", input)
	if err != nil {
		s.fail("users", err, "Failed to create user.")
		return User{}, err
	}
	user, ok, err := decodeOne[User](res)
	if err != nil {
		s.fail("users", err, "Failed to create user.")
		return User{}, err
	}
	if ok {
		s.append(user)
	}
	return user, nil
}

func (s *UserStore) UpdateUser(ctx context.Context, userID ID, update UserUpdate) (User, error) {
	s.begin()
	defer s.settle()

	res, err := s.api.Put(ctx, userPath(userID), update)
	if err != nil {
		s.fail("users", err, fmt.Sprintf("Failed to update user %s.", userID))
		return User{}, err
	}
	user, ok, err := decodeOne[User](res)
	if err != nil {
		s.fail("users", err, fmt.Sprintf("Failed to update user %s.", userID))
		return User{}, err
	}
	if ok {
		s.splice(userID, user)
	}
	return user, nil
}

func (s *UserStore) DeleteUser(ctx context.Context, userID ID) error {
	s.begin()
	defer s.settle()

	if _, err := s.api.Delete(ctx, userPath(userID)); err != nil {
		s.fail("users", err, fmt.Sprintf("Failed to delete user %s.", userID))
		return err
	}
	s.remove(userID)
	return nil
}
