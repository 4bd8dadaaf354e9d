package wsrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidMessage     = errors.New("invalid message")
	ErrInvalidPayload     = errors.New("invalid payload")
)

// Message is the envelope of every frame exchanged over the socket.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type HandlerFunc[C, T any] func(ctx context.Context, conn C, payload T) error

type Middleware[C any] func(next HandlerFunc[C, any]) HandlerFunc[C, any]

type route[C any] func(ctx context.Context, conn C, raw json.RawMessage) error

type WSRouter[C any] struct {
	routes      map[string]route[C]
	middlewares []Middleware[C]
}

func New[C any]() *WSRouter[C] {
	return &WSRouter[C]{routes: make(map[string]route[C])}
}

// Use appends middlewares. They run in the order they were added, after the
// payload has been decoded.
func (r *WSRouter[C]) Use(mws ...Middleware[C]) {
	r.middlewares = append(r.middlewares, mws...)
}

// Handle registers a typed handler for messageType. Methods can't have type
// parameters, hence the package level function.
func Handle[C, T any](r *WSRouter[C], messageType string, handler HandlerFunc[C, T]) {
	r.routes[messageType] = func(ctx context.Context, conn C, raw json.RawMessage) error {
		var payload T
		if len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalidPayload, messageType, err)
			}
		}

		next := func(ctx context.Context, conn C, payload any) error {
			return handler(ctx, conn, payload.(T))
		}
		for i := len(r.middlewares) - 1; i >= 0; i-- {
			next = r.middlewares[i](next)
		}

		return next(withMessageType(ctx, messageType), conn, payload)
	}
}

// Serve decodes one frame and routes it to the registered handler.
func (r *WSRouter[C]) Serve(ctx context.Context, conn C, data []byte) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	handler, ok := r.routes[msg.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}

	return handler(ctx, conn, msg.Payload)
}

// Encode builds a frame with the given type and payload.
func Encode(messageType string, payload any) ([]byte, error) {
	out := struct {
		Type    string `json:"type"`
		Payload any    `json:"payload,omitempty"`
	}{
		Type:    messageType,
		Payload: payload,
	}

	return json.Marshal(out)
}
