package wsrouter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seekInput struct {
	Seek string `json:"seek"`
}

type emptyInput struct{}

func TestWSRouter_Serve(t *testing.T) {
	r := New[string]()

	var got seekInput
	var gotConn string
	Handle(r, "seek", func(_ context.Context, conn string, payload seekInput) error {
		got = payload
		gotConn = conn
		return nil
	})

	calls := 0
	Handle(r, "pause", func(_ context.Context, _ string, _ emptyInput) error {
		calls++
		return nil
	})

	ctx := context.Background()

	require.NoError(t, r.Serve(ctx, "conn-1", []byte(`{"type":"seek","payload":{"seek":"42"}}`)))
	assert.Equal(t, "42", got.Seek)
	assert.Equal(t, "conn-1", gotConn)

	require.NoError(t, r.Serve(ctx, "conn-1", []byte(`{"type":"pause"}`)))
	require.NoError(t, r.Serve(ctx, "conn-1", []byte(`{"type":"pause","payload":null}`)))
	assert.Equal(t, 2, calls)

	err := r.Serve(ctx, "conn-1", []byte(`{"type":"nope"}`))
	assert.ErrorIs(t, err, ErrUnknownMessageType)

	err = r.Serve(ctx, "conn-1", []byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidMessage)

	err = r.Serve(ctx, "conn-1", []byte(`{"type":"seek","payload":{"seek":42}}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestWSRouter_Middleware(t *testing.T) {
	r := New[string]()

	var order []string
	r.Use(func(next HandlerFunc[string, any]) HandlerFunc[string, any] {
		return func(ctx context.Context, conn string, payload any) error {
			order = append(order, "first:"+GetMessageTypeFromCtx(ctx))
			return next(ctx, conn, payload)
		}
	})
	r.Use(func(next HandlerFunc[string, any]) HandlerFunc[string, any] {
		return func(ctx context.Context, conn string, payload any) error {
			order = append(order, "second")
			return next(ctx, conn, payload)
		}
	})

	Handle(r, "help", func(_ context.Context, _ string, _ emptyInput) error {
		order = append(order, "handler")
		return nil
	})

	require.NoError(t, r.Serve(context.Background(), "c", []byte(`{"type":"help"}`)))
	assert.Equal(t, []string{"first:help", "second", "handler"}, order)
}

func TestEncode(t *testing.T) {
	data, err := Encode("latency_pong", map[string]string{"token": "xyz"})
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "latency_pong", msg.Type)
	assert.JSONEq(t, `{"token":"xyz"}`, string(msg.Payload))
}
