package app

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/datenight/server/internal/repository/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() AppConfig {
	return AppConfig{
		Host:             "0.0.0.0",
		Port:             8080,
		LogLevel:         "info",
		ChannelQueueSize: 64,
		SendQueueSize:    256,
		PublishersLimit:  1,
		StateStore:       StateStoreMemory,
		StateTTL:         time.Hour,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cfg *AppConfig)
		wantErr bool
	}{
		{"valid", func(cfg *AppConfig) {}, false},
		{"bad port", func(cfg *AppConfig) { cfg.Port = 0 }, true},
		{"no publishers", func(cfg *AppConfig) { cfg.PublishersLimit = 0 }, true},
		{"negative members limit", func(cfg *AppConfig) { cfg.MembersLimit = -1 }, true},
		{"unknown store", func(cfg *AppConfig) { cfg.StateStore = "etcd" }, true},
		{"bad log level", func(cfg *AppConfig) { cfg.LogLevel = "loud" }, true},
		{"empty send queue", func(cfg *AppConfig) { cfg.SendQueueSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewStateRepo(t *testing.T) {
	ctx := context.Background()

	cfg := validConfig()
	repo, closeRepo, err := newStateRepo(ctx, &cfg)
	require.NoError(t, err)
	closeRepo()
	_, err = repo.GetPlayer(ctx, "c")
	assert.ErrorIs(t, err, state.ErrPlayerNotFound)

	s := miniredis.RunT(t)
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)

	cfg.StateStore = StateStoreRedis
	cfg.RedisHost = s.Host()
	cfg.RedisPort = port
	repo, closeRepo, err = newStateRepo(ctx, &cfg)
	require.NoError(t, err)
	defer closeRepo()

	require.NoError(t, repo.SetPlayer(ctx, &state.SetPlayerParams{ChannelId: "c", Title: "Film", Status: "Paused"}))
	player, err := repo.GetPlayer(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "Film", player.Title)
}
