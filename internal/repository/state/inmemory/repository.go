package inmemory

import (
	"context"
	"sync"

	"github.com/datenight/server/internal/repository/state"
)

type repo struct {
	players map[string]state.Player
	mu      sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		players: make(map[string]state.Player),
	}
}

func (r *repo) SetPlayer(_ context.Context, params *state.SetPlayerParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.players[params.ChannelId] = state.Player{
		Title:       params.Title,
		Position:    params.Position,
		Length:      params.Length,
		Status:      params.Status,
		Show:        params.Show,
		SuggestSync: params.SuggestSync,
		UpdatedAt:   params.UpdatedAt.Unix(),
	}

	return nil
}

func (r *repo) GetPlayer(_ context.Context, channelId string) (state.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	player, ok := r.players[channelId]
	if !ok {
		return state.Player{}, state.ErrPlayerNotFound
	}

	return player, nil
}
