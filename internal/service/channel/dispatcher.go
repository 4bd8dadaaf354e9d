package channel

import (
	"context"
	"log/slog"

	"github.com/datenight/server/internal/domain"
	"github.com/datenight/server/pkg/wsrouter"
)

type Audience int

const (
	AllSubscribers Audience = iota
	AllPublishers
	OriginatorOnly
	Everyone
	EveryoneExceptOriginator
)

func (a Audience) String() string {
	switch a {
	case AllSubscribers:
		return "all_subscribers"
	case AllPublishers:
		return "all_publishers"
	case OriginatorOnly:
		return "originator_only"
	case Everyone:
		return "everyone"
	case EveryoneExceptOriginator:
		return "everyone_except_originator"
	}

	return "unknown"
}

func (a *actor) recipients(audience Audience, originId string) []string {
	if audience == OriginatorOnly {
		return []string{originId}
	}

	sessions := a.roster.AsList()
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		switch audience {
		case AllSubscribers:
			if s.Role != domain.RoleSubscriber {
				continue
			}
		case AllPublishers:
			if s.Role != domain.RolePublisher {
				continue
			}
		case EveryoneExceptOriginator:
			if s.Id == originId {
				continue
			}
		}
		ids = append(ids, s.Id)
	}

	return ids
}

// publish encodes the event once and hands it to every recipient queue.
// A recipient whose queue is full or gone misses this frame and nothing else.
func (a *actor) publish(ctx context.Context, event string, payload any, audience Audience, originId string) {
	frame, err := wsrouter.Encode(event, payload)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to encode event", "event", event, "error", err)
		return
	}

	for _, sessionId := range a.recipients(audience, originId) {
		conn, err := a.connRepo.GetConn(sessionId)
		if err != nil {
			a.logger.DebugContext(ctx, "recipient has no connection", "session_id", sessionId, "event", event)
			continue
		}

		if !conn.Send(frame) {
			a.logger.WarnContext(ctx, "dropped event for slow recipient",
				slog.String("session_id", sessionId),
				slog.String("event", event),
				slog.String("audience", audience.String()),
			)
		}
	}
}
