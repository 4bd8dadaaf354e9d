package redis

import (
	"context"
	"fmt"

	"github.com/datenight/server/internal/repository/state"
)

func (r repo) getPlayerKey(channelId string) string {
	return "channel:" + channelId + ":player"
}

func (r repo) SetPlayer(ctx context.Context, params *state.SetPlayerParams) error {
	pipe := r.rc.TxPipeline()

	player := state.Player{
		Title:       params.Title,
		Position:    params.Position,
		Length:      params.Length,
		Status:      params.Status,
		Show:        params.Show,
		SuggestSync: params.SuggestSync,
		UpdatedAt:   params.UpdatedAt.Unix(),
	}
	playerKey := r.getPlayerKey(params.ChannelId)
	pipe.HSet(ctx, playerKey, player)
	if r.expireDuration > 0 {
		pipe.Expire(ctx, playerKey, r.expireDuration)
	}

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set player: %w", err)
	}

	return nil
}

func (r repo) GetPlayer(ctx context.Context, channelId string) (state.Player, error) {
	playerKey := r.getPlayerKey(channelId)
	cmd := r.rc.HGetAll(ctx, playerKey)
	fields, err := cmd.Result()
	if err != nil {
		return state.Player{}, fmt.Errorf("failed to get player: %w", err)
	}

	if len(fields) == 0 {
		return state.Player{}, state.ErrPlayerNotFound
	}

	var player state.Player
	if err := cmd.Scan(&player); err != nil {
		return state.Player{}, fmt.Errorf("failed to scan player: %w", err)
	}

	if r.expireDuration > 0 {
		r.rc.Expire(ctx, playerKey, r.expireDuration)
	}

	return player, nil
}
