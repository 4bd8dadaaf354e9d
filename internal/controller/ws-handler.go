package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/datenight/server/internal/command"
	"github.com/datenight/server/internal/service/channel"
)

type EmptyInput struct{}

func (c controller) submit(ctx context.Context, action command.Action, err error) error {
	if err != nil {
		return err
	}

	if err := c.channelService.Submit(ctx, &channel.SubmitParams{
		ChannelId: c.getChannelIdFromCtx(ctx),
		SessionId: c.getSessionIdFromCtx(ctx),
		Action:    action,
	}); err != nil {
		return fmt.Errorf("failed to submit %s: %w", action.Kind, err)
	}

	return nil
}

func (c controller) handleSetUserAgent(ctx context.Context, _ *client, input command.UserAgentPayload) error {
	action, err := c.interpreter.SetUserAgent(&input)
	return c.submit(ctx, action, err)
}

func (c controller) handleUpdateState(ctx context.Context, _ *client, input command.StatePayload) error {
	action, err := c.interpreter.UpdateState(&input)
	return c.submit(ctx, action, err)
}

// handleForbiddenUpdateState drops state updates sent by subscribers
// without looking at the payload.
func (c controller) handleForbiddenUpdateState(ctx context.Context, _ *client, _ json.RawMessage) error {
	c.logger.InfoContext(ctx, "unauthorized request dropped")
	return nil
}

func (c controller) handlePause(ctx context.Context, _ *client, _ EmptyInput) error {
	return c.submit(ctx, command.Action{Kind: command.ActionPause}, nil)
}

func (c controller) handleResume(ctx context.Context, _ *client, _ EmptyInput) error {
	return c.submit(ctx, command.Action{Kind: command.ActionResume}, nil)
}

func (c controller) handleSeek(ctx context.Context, _ *client, input command.SeekPayload) error {
	action, err := c.interpreter.Seek(&input)
	return c.submit(ctx, action, err)
}

func (c controller) handleChangeNick(ctx context.Context, _ *client, input command.ChangeNickPayload) error {
	action, err := c.interpreter.ChangeNick(&input)
	return c.submit(ctx, action, err)
}

func (c controller) handleBroadcastMessage(ctx context.Context, _ *client, input command.BroadcastPayload) error {
	action, err := c.interpreter.Broadcast(&input)
	return c.submit(ctx, action, err)
}

func (c controller) handleHelp(ctx context.Context, _ *client, _ EmptyInput) error {
	return c.submit(ctx, command.Action{Kind: command.ActionHelp}, nil)
}

func (c controller) handleDisconnectRequest(ctx context.Context, _ *client, _ EmptyInput) error {
	return c.submit(ctx, command.Action{Kind: command.ActionDisconnect}, nil)
}

func (c controller) handleLatencyPing(ctx context.Context, _ *client, input command.TokenPayload) error {
	action, err := c.interpreter.Ping(&input)
	return c.submit(ctx, action, err)
}

func (c controller) handleLatencyPong(ctx context.Context, _ *client, input command.TokenPayload) error {
	action, err := c.interpreter.Pong(&input)
	return c.submit(ctx, action, err)
}

func (c controller) handleIgnored(ctx context.Context, _ *client, _ EmptyInput) error {
	c.logger.InfoContext(ctx, "message ignored on this namespace")
	return nil
}
