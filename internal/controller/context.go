package controller

import "context"

type contextKey int

const (
	channelIdCtxKey contextKey = iota
	sessionIdCtxKey
)

func (c controller) getChannelIdFromCtx(ctx context.Context) string {
	channelId, ok := ctx.Value(channelIdCtxKey).(string)
	if !ok {
		return ""
	}

	return channelId
}

func (c controller) getSessionIdFromCtx(ctx context.Context) string {
	sessionId, ok := ctx.Value(sessionIdCtxKey).(string)
	if !ok {
		return ""
	}

	return sessionId
}
