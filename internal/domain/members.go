package domain

import (
	"fmt"
	"time"
)

type RosterConfig struct {
	// PublishersLimit is the number of concurrent publishers a channel accepts.
	PublishersLimit int
	// MembersLimit caps the number of sessions of any role, 0 means unlimited.
	MembersLimit int
	Generator    Generator
}

// Roster is the session registry of a channel. It is not safe for concurrent
// use, the owning channel serializes access.
type Roster struct {
	list            []Session
	publishersLimit int
	membersLimit    int
	generator       Generator
}

func NewRoster(cfg *RosterConfig) *Roster {
	r := &Roster{
		list:            make([]Session, 0),
		publishersLimit: 1,
		generator:       defaultGenerator{},
	}

	if cfg != nil {
		if cfg.PublishersLimit > 0 {
			r.publishersLimit = cfg.PublishersLimit
		}
		r.membersLimit = cfg.MembersLimit
		if cfg.Generator != nil {
			r.generator = cfg.Generator
		}
	}

	return r
}

func (r Roster) Length() int {
	return len(r.list)
}

// AsList returns the sessions in join order.
func (r Roster) AsList() []Session {
	list := make([]Session, len(r.list))
	copy(list, r.list)
	return list
}

func (r Roster) ByRole(role Role) []Session {
	list := make([]Session, 0, len(r.list))
	for _, s := range r.list {
		if s.Role == role {
			list = append(list, s)
		}
	}

	return list
}

func (r Roster) GetById(id string) (Session, int, error) {
	for index, s := range r.list {
		if s.Id == id {
			return s, index, nil
		}
	}

	return Session{}, 0, ErrSessionNotFound
}

func (r Roster) GetByNick(nick string) (Session, int, error) {
	for index, s := range r.list {
		if s.Nick == nick {
			return s, index, nil
		}
	}

	return Session{}, 0, ErrSessionNotFound
}

func (r Roster) nickTaken(nick string) bool {
	_, _, err := r.GetByNick(nick)
	return err == nil
}

func (r Roster) countRole(role Role) int {
	count := 0
	for _, s := range r.list {
		if s.Role == role {
			count++
		}
	}

	return count
}

type JoinParams struct {
	Id   string
	Role Role
	// Nick is optional, a free default is assigned when empty.
	Nick      string
	UserAgent string
}

func (r *Roster) Join(params *JoinParams) (Session, error) {
	if !params.Role.Valid() {
		return Session{}, fmt.Errorf("%w: unknown role %q", ErrMalformedCommand, params.Role)
	}

	if _, _, err := r.GetById(params.Id); err == nil {
		return Session{}, ErrSessionAlreadyExists
	}

	if r.membersLimit > 0 && r.Length() >= r.membersLimit {
		return Session{}, ErrMembersLimitReached
	}

	if params.Role == RolePublisher && r.countRole(RolePublisher) >= r.publishersLimit {
		return Session{}, ErrDuplicateRoleConflict
	}

	nick := params.Nick
	if nick != "" {
		if r.nickTaken(nick) {
			return Session{}, ErrNameConflict
		}
	} else {
		for range nickAttempts {
			candidate := defaultNick(r.generator, params.Role)
			if !r.nickTaken(candidate) {
				nick = candidate
				break
			}
		}
		if nick == "" {
			return Session{}, ErrNickUnavailable
		}
	}

	s := Session{
		Id:        params.Id,
		Role:      params.Role,
		Nick:      nick,
		Color:     pickColor(r.generator),
		UserAgent: params.UserAgent,
	}
	r.list = append(r.list, s)

	return s, nil
}

// Rename swaps the nick of a session in place, so no snapshot ever shows the
// old and the new nick at once.
func (r *Roster) Rename(id, nick string) (string, string, error) {
	if nick == "" {
		return "", "", fmt.Errorf("%w: empty nick", ErrMalformedCommand)
	}

	s, index, err := r.GetById(id)
	if err != nil {
		return "", "", err
	}

	if s.Nick == nick {
		return s.Nick, nick, ErrNickUnchanged
	}

	if r.nickTaken(nick) {
		return s.Nick, nick, ErrNameConflict
	}

	old := s.Nick
	r.list[index].Nick = nick

	return old, nick, nil
}

// Leave removes the session. The boolean is false when the session was not
// in the roster, which makes a second call a no-op.
func (r *Roster) Leave(id string) (Session, bool) {
	s, index, err := r.GetById(id)
	if err != nil {
		return Session{}, false
	}

	r.list = append(r.list[:index], r.list[index+1:]...)
	return s, true
}

func (r *Roster) SetUserAgent(id, userAgent string) error {
	_, index, err := r.GetById(id)
	if err != nil {
		return err
	}

	r.list[index].UserAgent = userAgent
	return nil
}

func (r *Roster) SetState(id string, state PlaybackState) error {
	_, index, err := r.GetById(id)
	if err != nil {
		return err
	}

	r.list[index].State = &state
	return nil
}

func (r *Roster) SetLatency(id string, latency time.Duration) error {
	_, index, err := r.GetById(id)
	if err != nil {
		return err
	}

	r.list[index].Latency = latency
	return nil
}
