package channel

import (
	"context"
	"time"

	"github.com/datenight/server/internal/domain"
	"github.com/datenight/server/internal/repository/state"
)

// schedulePersist keeps only the latest snapshot waiting, so a slow store
// never holds up the actor.
func (a *actor) schedulePersist(s domain.PlaybackState) {
	select {
	case a.persist <- s:
		return
	default:
	}

	select {
	case <-a.persist:
	default:
	}

	select {
	case a.persist <- s:
	default:
	}
}

func (a *actor) runPersister() {
	defer close(a.persisted)

	for s := range a.persist {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := a.stateRepo.SetPlayer(ctx, &state.SetPlayerParams{
			ChannelId:   a.id,
			Title:       s.Title,
			Position:    string(s.Position),
			Length:      string(s.Length),
			Status:      string(s.Status),
			Show:        s.Show,
			SuggestSync: string(s.SuggestSync),
			UpdatedAt:   time.Now(),
		})
		cancel()
		if err != nil {
			a.logger.Error("failed to persist player", "channel_id", a.id, "error", err)
		}
	}
}
