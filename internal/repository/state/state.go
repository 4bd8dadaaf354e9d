package state

import (
	"errors"
	"time"
)

var ErrPlayerNotFound = errors.New("player not found")

// Player is the persisted playback snapshot of a channel.
type Player struct {
	Title       string `redis:"title"`
	Position    string `redis:"position"`
	Length      string `redis:"length"`
	Status      string `redis:"status"`
	Show        bool   `redis:"show"`
	SuggestSync string `redis:"suggest_sync"`
	UpdatedAt   int64  `redis:"updated_at"`
}

type SetPlayerParams struct {
	ChannelId   string
	Title       string
	Position    string
	Length      string
	Status      string
	Show        bool
	SuggestSync string
	UpdatedAt   time.Time
}
