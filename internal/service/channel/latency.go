package channel

import (
	"context"
	"time"

	"github.com/datenight/server/internal/domain"
	"github.com/rs/xid"
)

type probe struct {
	token  string
	sentAt time.Time
}

// probe sends a latency_ping to every session. A session has at most one
// outstanding probe, a newer one replaces it.
func (a *actor) probe(ctx context.Context) {
	for _, s := range a.roster.AsList() {
		p := probe{
			token:  xid.New().String(),
			sentAt: a.now(),
		}
		a.probes[s.Id] = p
		a.publish(ctx, EventLatencyPing, Token{Token: p.token}, OriginatorOnly, s.Id)
	}
}

func (a *actor) recordPong(ctx context.Context, origin domain.Session, token string) {
	p, ok := a.probes[origin.Id]
	if !ok || p.token != token {
		a.logger.DebugContext(ctx, "unexpected latency pong", "session_id", origin.Id, "token", token)
		return
	}
	delete(a.probes, origin.Id)

	rtt := a.now().Sub(p.sentAt)
	if err := a.roster.SetLatency(origin.Id, rtt); err != nil {
		return
	}

	a.logger.DebugContext(ctx, "latency measured", "session_id", origin.Id, "nick", origin.Nick, "rtt", rtt)
}
