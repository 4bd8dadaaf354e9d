package command

import "github.com/datenight/server/internal/domain"

type SeekPayload struct {
	Seek domain.Timecode `json:"seek" validate:"required"`
}

type ChangeNickPayload struct {
	New string `json:"new" validate:"required"`
}

type BroadcastPayload struct {
	Data string `json:"data" validate:"required"`
}

type UserAgentPayload struct {
	UserAgent string `json:"user_agent"`
}

type TokenPayload struct {
	Token string `json:"token" validate:"required"`
}

type StatePayload struct {
	Title       string          `json:"title"`
	Position    domain.Timecode `json:"position"`
	Length      domain.Timecode `json:"length"`
	Status      string          `json:"status" validate:"omitempty,oneof=Stopped Playing Paused"`
	Show        bool            `json:"show"`
	SuggestSync string          `json:"suggest_sync" validate:"omitempty,oneof=state seek"`
}

func (p StatePayload) toState() domain.PlaybackState {
	status := domain.Status(p.Status)
	if status == "" {
		status = domain.StatusStopped
	}

	return domain.PlaybackState{
		Title:       p.Title,
		Position:    p.Position,
		Length:      p.Length,
		Status:      status,
		Show:        p.Show,
		SuggestSync: domain.SuggestSync(p.SuggestSync),
	}
}
