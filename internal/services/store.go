package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/models"
)

// ErrNoUser is returned when no usable record exists for an ID. A corrupt
// stored record is treated the same as an absent one.
var ErrNoUser = errors.New("no stored user")

// UserStore holds one JSON user record per identity.
type UserStore interface {
	Load(ctx context.Context, id string) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type RedisUserStore struct {
	client *redis.Client
}

func NewRedisUserStore(client *redis.Client) *RedisUserStore {
	return &RedisUserStore{client: client}
}

func userKey(id string) string { return "user:" + id }

func (s *RedisUserStore) Load(ctx context.Context, id string) (*models.User, error) {
	raw, err := s.client.Get(ctx, userKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoUser
		}
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		// Discard records we can no longer parse.
		log.Printf("Discarding corrupt user record %s: %v", id, err)
		s.client.Del(ctx, userKey(id))
		return nil, ErrNoUser
	}

	return &user, nil
}

func (s *RedisUserStore) Save(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, userKey(user.ID), string(data), 0).Err()
}

func (s *RedisUserStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, userKey(id)).Err()
}

// MemoryUserStore is an in-process UserStore used by tests.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string][]byte
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string][]byte)}
}

func (s *MemoryUserStore) Load(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.users[id]
	if !ok {
		return nil, ErrNoUser
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		delete(s.users, id)
		return nil, ErrNoUser
	}
	return &user, nil
}

func (s *MemoryUserStore) Save(_ context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = data
	return nil
}

func (s *MemoryUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}
