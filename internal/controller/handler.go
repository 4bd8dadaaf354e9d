package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/datenight/server/internal/domain"
	"github.com/datenight/server/internal/service/channel"
	"github.com/datenight/server/pkg/ctxlogger"
	"github.com/datenight/server/pkg/wsrouter"
	"github.com/go-chi/chi/v5"
)

func (c controller) publish(w http.ResponseWriter, r *http.Request) {
	c.serveSession(w, r, domain.RolePublisher, c.publishRouter)
}

func (c controller) subscribe(w http.ResponseWriter, r *http.Request) {
	c.serveSession(w, r, domain.RoleSubscriber, c.subscribeRouter)
}

func (c controller) serveSession(w http.ResponseWriter, r *http.Request, role domain.Role, router *wsrouter.WSRouter[*client]) {
	channelId := chi.URLParam(r, "channel-id")
	if channelId == "" {
		channelId = defaultChannelId
	}

	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("channel_id", channelId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("role", string(role)))

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to upgrade to websocket", "error", err)
		return
	}

	cl := newClient(conn, c.sendQueueSize)
	go cl.writePump()
	defer cl.Close()

	joinResp, err := c.channelService.Join(ctx, &channel.JoinParams{
		ChannelId: channelId,
		Role:      role,
		Nick:      r.URL.Query().Get("nick"),
		UserAgent: r.UserAgent(),
		Sender:    cl,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to join channel", "error", err)
		return
	}

	ctx = ctxlogger.AppendCtx(ctx, slog.String("session_id", joinResp.SessionId))
	ctx = context.WithValue(ctx, channelIdCtxKey, channelId)
	ctx = context.WithValue(ctx, sessionIdCtxKey, joinResp.SessionId)
	defer func() {
		if err := c.channelService.Leave(context.WithoutCancel(ctx), &channel.LeaveParams{
			ChannelId: channelId,
			SessionId: joinResp.SessionId,
		}); err != nil {
			c.logger.DebugContext(ctx, "failed to leave channel", "error", err)
		}
	}()

	if err := cl.readPump(ctx, func(ctx context.Context, data []byte) {
		if err := router.Serve(ctx, cl, data); err != nil {
			c.handleServeError(ctx, cl, err)
		}
	}); err != nil {
		c.logger.InfoContext(ctx, "connection closed unexpectedly", "error", err)
	}
}

func (c controller) handleServeError(ctx context.Context, cl *client, err error) {
	c.logger.InfoContext(ctx, "failed to serve message", "error", err)

	if errors.Is(err, wsrouter.ErrUnknownMessageType) ||
		errors.Is(err, wsrouter.ErrInvalidMessage) ||
		errors.Is(err, wsrouter.ErrInvalidPayload) ||
		errors.Is(err, domain.ErrMalformedCommand) {
		frame, encodeErr := wsrouter.Encode(channel.EventLogMessage, channel.LogMessage{Data: "obey the API!"})
		if encodeErr != nil {
			return
		}
		cl.Send(frame)
	}
}

func (c controller) stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(c.channelService.Stats()); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write stats", "error", err)
	}
}
