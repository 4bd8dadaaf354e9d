package command

import "github.com/datenight/server/internal/domain"

type Kind string

const (
	ActionHelp         Kind = "help"
	ActionNick         Kind = "nick"
	ActionPause        Kind = "pause"
	ActionResume       Kind = "resume"
	ActionSeek         Kind = "seek"
	ActionChat         Kind = "chat"
	ActionUpdateState  Kind = "update_state"
	ActionDisconnect   Kind = "disconnect"
	ActionSetUserAgent Kind = "set_user_agent"
	ActionPing         Kind = "ping"
	ActionPong         Kind = "pong"
	ActionLeave        Kind = "leave"
)

// Action is the canonical form of everything a session can ask a channel to
// do. Arg carries the nick, seek destination, chat text, user agent or probe
// token depending on Kind.
type Action struct {
	Kind      Kind
	SessionId string
	Arg       string
	State     *domain.PlaybackState
}

func (a Action) WithSession(sessionId string) Action {
	a.SessionId = sessionId
	return a
}
