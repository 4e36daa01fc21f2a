// Package flow keeps the state of multi-step ticket creation flows between
// interactions. State lives in redis with an idle TTL: a flow the user
// abandons simply expires and stops accepting input.
package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/moddy-app/moddysystems/internal/domain"
	util "github.com/moddy-app/moddysystems/pkg/util"
)

// State is one in-progress ticket creation flow, keyed by the user driving
// it. Cases holds the moderation cases offered in a sanction-appeal select.
type State struct {
	UserID   string                  `json:"user_id"`
	Category domain.TicketCategory   `json:"category"`
	Step     string                  `json:"step,omitempty"`
	Data     map[string]string       `json:"data,omitempty"`
	Cases    []domain.ModerationCase `json:"cases,omitempty"`
}

// Store reads and writes flow state with a fixed idle TTL. Every Put
// refreshes the TTL, so the timeout is measured from the last interaction.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore builds a flow store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{client: client, ttl: ttl}
}

func key(userID string, category domain.TicketCategory) string {
	return fmt.Sprintf("flow:%s:%s", userID, category)
}

// Put stores flow state, resetting the idle TTL.
func (s *Store) Put(ctx context.Context, state *State) error {
	if s.client == nil {
		return util.NewStoreUnavailable(errors.New("flow store not configured"))
	}
	data, err := json.Marshal(state)
	if err != nil {
		return util.NewStoreUnavailable(err)
	}
	if err := s.client.Set(ctx, key(state.UserID, state.Category), data, s.ttl).Err(); err != nil {
		return util.NewStoreUnavailable(err)
	}
	return nil
}

// Get loads flow state. An expired or absent flow reports not-found.
func (s *Store) Get(ctx context.Context, userID string, category domain.TicketCategory) (*State, error) {
	if s.client == nil {
		return nil, util.NewStoreUnavailable(errors.New("flow store not configured"))
	}
	data, err := s.client.Get(ctx, key(userID, category)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, util.NewNotFound("flow", map[string]any{"user_id": userID})
		}
		return nil, util.NewStoreUnavailable(err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, util.NewStoreUnavailable(err)
	}
	return &state, nil
}

// Delete removes flow state once the flow completes.
func (s *Store) Delete(ctx context.Context, userID string, category domain.TicketCategory) {
	if s.client == nil {
		return
	}
	s.client.Del(ctx, key(userID, category))
}
