package command

import (
	"fmt"
	"strings"

	"github.com/datenight/server/internal/domain"
	"github.com/datenight/server/pkg/validator"
)

type prefix struct {
	text     string
	kind     Kind
	takesArg bool
}

// Checked in order, the first match wins.
var prefixes = []prefix{
	{"/help", ActionHelp, false},
	{"/nick ", ActionNick, true},
	{"/pause", ActionPause, false},
	{"/stop", ActionPause, false},
	{"/resume", ActionResume, false},
	{"/play", ActionResume, false},
	{"/seek ", ActionSeek, true},
}

const HelpText = `Commands are: "/help", "/nick <nick>", "/pause" or "/stop", "/resume" or "/play", "/seek <position>"`

// Parse turns free text typed by a user into an action. Text matching no
// command prefix is chat. Arguments are taken verbatim.
func Parse(text string) (Action, error) {
	for _, p := range prefixes {
		if !strings.HasPrefix(text, p.text) {
			continue
		}

		if !p.takesArg {
			return Action{Kind: p.kind}, nil
		}

		arg := strings.TrimPrefix(text, p.text)
		if arg == "" {
			return Action{}, fmt.Errorf("%w: %s requires an argument", domain.ErrMalformedCommand, strings.TrimSpace(p.text))
		}

		return Action{Kind: p.kind, Arg: arg}, nil
	}

	return Action{Kind: ActionChat, Arg: text}, nil
}

type Interpreter struct {
	validator *validator.Validator
}

func NewInterpreter(v *validator.Validator) *Interpreter {
	return &Interpreter{validator: v}
}

func (i Interpreter) check(payload any) error {
	if err := i.validator.Check(payload); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrMalformedCommand, err)
	}

	return nil
}

func (i Interpreter) Broadcast(payload *BroadcastPayload) (Action, error) {
	if err := i.check(payload); err != nil {
		return Action{}, err
	}

	return Parse(payload.Data)
}

func (i Interpreter) ChangeNick(payload *ChangeNickPayload) (Action, error) {
	if err := i.check(payload); err != nil {
		return Action{}, err
	}

	return Action{Kind: ActionNick, Arg: payload.New}, nil
}

func (i Interpreter) Seek(payload *SeekPayload) (Action, error) {
	if err := i.check(payload); err != nil {
		return Action{}, err
	}

	return Action{Kind: ActionSeek, Arg: string(payload.Seek)}, nil
}

func (i Interpreter) UpdateState(payload *StatePayload) (Action, error) {
	if err := i.check(payload); err != nil {
		return Action{}, err
	}

	state := payload.toState()
	return Action{Kind: ActionUpdateState, State: &state}, nil
}

func (i Interpreter) SetUserAgent(payload *UserAgentPayload) (Action, error) {
	return Action{Kind: ActionSetUserAgent, Arg: payload.UserAgent}, nil
}

func (i Interpreter) Ping(payload *TokenPayload) (Action, error) {
	if err := i.check(payload); err != nil {
		return Action{}, err
	}

	return Action{Kind: ActionPing, Arg: payload.Token}, nil
}

func (i Interpreter) Pong(payload *TokenPayload) (Action, error) {
	if err := i.check(payload); err != nil {
		return Action{}, err
	}

	return Action{Kind: ActionPong, Arg: payload.Token}, nil
}
