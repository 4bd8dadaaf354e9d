package channel

import (
	"bytes"
	"encoding/json"

	"github.com/datenight/server/internal/domain"
	omitnilpointers "github.com/datenight/server/pkg/omit-nil-pointers"
)

const (
	EventLogMessage          = "log_message"
	EventNickChange          = "nick change"
	EventUpdateSubscriptions = "update subscriptions"
	EventUpdatePublishers    = "update publishers"
	EventPause               = "pause"
	EventResume              = "resume"
	EventSeek                = "seek"
	EventLatencyPing         = "latency_ping"
	EventLatencyPong         = "latency_pong"
)

type rosterEntry struct {
	Color string      `json:"color"`
	Role  domain.Role `json:"role"`
}

// Complete is the whole roster, encoded as an object keyed by nick in join
// order.
type Complete []domain.Session

func (c Complete) MarshalJSON() ([]byte, error) {
	return marshalOrdered(c, func(s domain.Session) any {
		return rosterEntry{Color: s.Color, Role: s.Role}
	})
}

// Publishers maps each publisher nick to the last state it reported, null
// when it has not reported any.
type Publishers []domain.Session

func (p Publishers) MarshalJSON() ([]byte, error) {
	return marshalOrdered(p, func(s domain.Session) any {
		return s.State
	})
}

func marshalOrdered(list []domain.Session, value func(domain.Session) any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range list {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(s.Nick)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		v, err := json.Marshal(value(s))
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

type LogMessage struct {
	Data  string                `json:"data"`
	Nick  *string               `json:"nick,omitempty"`
	Color *string               `json:"color,omitempty"`
	Fatal *bool                 `json:"fatal,omitempty"`
	State *domain.PlaybackState `json:"state,omitempty"`
}

type NickChange struct {
	Old      *string  `json:"old"`
	New      string   `json:"new"`
	Color    string   `json:"color"`
	Complete Complete `json:"complete"`
}

type ControlRequest struct {
	Seek *string `json:"seek,omitempty"`
	Nick *string `json:"nick,omitempty"`
}

type Token struct {
	Token string `json:"token"`
}

type updateSubscriptionsParams struct {
	Old      *string
	New      *string
	Complete Complete
}

func updateSubscriptions(params *updateSubscriptionsParams) map[string]any {
	return omitnilpointers.OmitNilPointers(map[string]any{
		"old":      params.Old,
		"new":      params.New,
		"complete": params.Complete,
	})
}

type updatePublishersParams struct {
	Old         *string
	New         *string
	Update      *string
	Show        *bool
	Data        Publishers
	Complete    *Complete
	State       *domain.PlaybackState
	SuggestSync *domain.SuggestSync
}

func updatePublishers(params *updatePublishersParams) map[string]any {
	return omitnilpointers.OmitNilPointers(map[string]any{
		"old":          params.Old,
		"new":          params.New,
		"update":       params.Update,
		"show":         params.Show,
		"data":         params.Data,
		"complete":     params.Complete,
		"state":        params.State,
		"suggest_sync": params.SuggestSync,
	})
}

func ptr[T any](v T) *T {
	return &v
}
