package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/datenight/server/internal/command"
	"github.com/datenight/server/internal/service/channel"
	"github.com/datenight/server/pkg/validator"
	"github.com/datenight/server/pkg/wsrouter"
	"github.com/gorilla/websocket"
)

const defaultChannelId = "default"

type iChannelService interface {
	Join(context.Context, *channel.JoinParams) (channel.JoinResponse, error)
	Submit(context.Context, *channel.SubmitParams) error
	Leave(context.Context, *channel.LeaveParams) error
	Stats() channel.StatsResponse
}

type Config struct {
	SendQueueSize int
}

type controller struct {
	channelService  iChannelService
	upgrader        websocket.Upgrader
	interpreter     *command.Interpreter
	logger          *slog.Logger
	publishRouter   *wsrouter.WSRouter[*client]
	subscribeRouter *wsrouter.WSRouter[*client]
	sendQueueSize   int
}

func NewController(channelService iChannelService, logger *slog.Logger, cfg *Config) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		channelService: channelService,
		interpreter:    command.NewInterpreter(validator.NewValidator()),
		logger:         logger,
		sendQueueSize:  cfg.SendQueueSize,
	}

	if c.sendQueueSize <= 0 {
		c.sendQueueSize = 256
	}

	c.publishRouter = c.getPublishRouter()
	c.subscribeRouter = c.getSubscribeRouter()

	return c
}
