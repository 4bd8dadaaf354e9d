package controller

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/datenight/server/pkg/ctxlogger"
	"github.com/datenight/server/pkg/wsrouter"
)

func (c controller) wsRequestIdMw() wsrouter.Middleware[*client] {
	return func(next wsrouter.HandlerFunc[*client, any]) wsrouter.HandlerFunc[*client, any] {
		return func(ctx context.Context, conn *client, payload any) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("ws_request_id", c.generateTimeBasedId()))
			return next(ctx, conn, payload)
		}
	}
}

func (c controller) loggerWSMw() wsrouter.Middleware[*client] {
	return func(next wsrouter.HandlerFunc[*client, any]) wsrouter.HandlerFunc[*client, any] {
		return func(ctx context.Context, conn *client, payload any) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
			c.logger.InfoContext(ctx, "websocket message received", "payload", payload)

			start := time.Now()

			err := next(ctx, conn, payload)

			c.logger.DebugContext(ctx, "websocket message handled",
				"processing_time_us", time.Since(start).Microseconds(),
				"goroutines", runtime.NumGoroutine(),
			)

			return err
		}
	}
}
