package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Status string

const (
	StatusStopped Status = "Stopped"
	StatusPlaying Status = "Playing"
	StatusPaused  Status = "Paused"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "", StatusStopped:
		return StatusStopped, nil
	case StatusPlaying:
		return StatusPlaying, nil
	case StatusPaused:
		return StatusPaused, nil
	}

	return "", fmt.Errorf("%w: unknown status %q", ErrMalformedCommand, s)
}

type SuggestSync string

const (
	SuggestSyncNone  SuggestSync = ""
	SuggestSyncState SuggestSync = "state"
	SuggestSyncSeek  SuggestSync = "seek"
)

// Timecode is a position or length as reported by a player. Clients send it
// either as a string ("00:01:30", "30/180") or as a number of seconds, and it
// is relayed in its string form.
type Timecode string

func (t *Timecode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Timecode(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("timecode must be a string or a number: %w", err)
	}

	*t = Timecode(n.String())
	return nil
}

type PlaybackState struct {
	Title       string      `json:"title"`
	Position    Timecode    `json:"position"`
	Length      Timecode    `json:"length"`
	Status      Status      `json:"status"`
	Show        bool        `json:"show"`
	SuggestSync SuggestSync `json:"suggest_sync,omitempty"`
}

func DefaultPlaybackState() PlaybackState {
	return PlaybackState{Status: StatusStopped}
}

// Player is the playback state store of a channel. Like Roster it relies on
// the owning channel to serialize access.
type Player struct {
	current PlaybackState
}

func NewPlayer() *Player {
	return &Player{current: DefaultPlaybackState()}
}

// RestorePlayer seeds a player with a previously persisted snapshot.
func RestorePlayer(state PlaybackState) *Player {
	if state.Status == "" {
		state.Status = StatusStopped
	}

	return &Player{current: state}
}

func (p Player) Current() PlaybackState {
	return p.current
}

// Apply replaces the whole state with update. Fields absent from update do
// not survive from the previous state.
func (p *Player) Apply(origin Session, update PlaybackState) (PlaybackState, error) {
	if !origin.IsPublisher() {
		return p.current, ErrUnauthorized
	}

	status, err := ParseStatus(string(update.Status))
	if err != nil {
		return p.current, err
	}
	update.Status = status

	p.current = update
	return p.current, nil
}

// Pause moves Playing to Paused. The boolean reports whether the state changed.
func (p *Player) Pause(origin Session) (PlaybackState, bool, error) {
	if !origin.IsPublisher() {
		return p.current, false, ErrUnauthorized
	}

	if p.current.Status != StatusPlaying {
		return p.current, false, nil
	}

	p.transition(StatusPaused)
	return p.current, true, nil
}

// Resume moves Paused or Stopped to Playing.
func (p *Player) Resume(origin Session) (PlaybackState, bool, error) {
	if !origin.IsPublisher() {
		return p.current, false, ErrUnauthorized
	}

	if p.current.Status == StatusPlaying {
		return p.current, false, nil
	}

	p.transition(StatusPlaying)
	return p.current, true, nil
}

func (p *Player) transition(status Status) {
	p.current.Status = status
	p.current.Show = true
	p.current.SuggestSync = SuggestSyncState
}

func (p *Player) Seek(origin Session, dest string) (PlaybackState, error) {
	if !origin.IsPublisher() {
		return p.current, ErrUnauthorized
	}

	if dest == "" {
		return p.current, fmt.Errorf("%w: empty seek destination", ErrMalformedCommand)
	}

	p.current.Position = Timecode(dest)
	p.current.Show = true
	p.current.SuggestSync = SuggestSyncSeek
	return p.current, nil
}
