package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/datenight/server/internal/command"
	"github.com/datenight/server/internal/domain"
	"github.com/datenight/server/internal/repository/connection"
	"github.com/datenight/server/internal/repository/state"
	"github.com/google/uuid"
	"golang.org/x/exp/maps"
)

var ErrChannelClosed = errors.New("channel closed")

type iConnRepo interface {
	Add(connection.Sender, string) error
	RemoveBySessionId(string) error
	GetConn(string) (connection.Sender, error)
	Len() int
}

type iStateRepo interface {
	SetPlayer(context.Context, *state.SetPlayerParams) error
	GetPlayer(context.Context, string) (state.Player, error)
}

type Config struct {
	QueueSize            int
	PublishersLimit      int
	MembersLimit         int
	LatencyProbeInterval time.Duration
	Generator            domain.Generator
}

type service struct {
	connRepo  iConnRepo
	stateRepo iStateRepo
	logger    *slog.Logger
	cfg       Config
	actors    map[string]*actor
	// stopping holds the last stopped actor of a channel until its final
	// snapshot is saved, so a successor restores after it.
	stopping map[string]*actor
	mu       sync.Mutex
}

func NewService(connRepo iConnRepo, stateRepo iStateRepo, logger *slog.Logger, cfg *Config) *service {
	s := service{
		connRepo:  connRepo,
		stateRepo: stateRepo,
		logger:    logger,
		cfg:       *cfg,
		actors:    make(map[string]*actor),
		stopping:  make(map[string]*actor),
	}

	if s.cfg.QueueSize <= 0 {
		s.cfg.QueueSize = 64
	}

	return &s
}

func (s *service) restorePlayer(ctx context.Context, channelId string) *domain.Player {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	player, err := s.stateRepo.GetPlayer(ctx, channelId)
	if err != nil {
		if !errors.Is(err, state.ErrPlayerNotFound) {
			s.logger.WarnContext(ctx, "failed to restore player", "channel_id", channelId, "error", err)
		}
		return domain.NewPlayer()
	}

	s.logger.DebugContext(ctx, "player restored", "channel_id", channelId)
	return domain.RestorePlayer(domain.PlaybackState{
		Title:       player.Title,
		Position:    domain.Timecode(player.Position),
		Length:      domain.Timecode(player.Length),
		Status:      domain.Status(player.Status),
		Show:        player.Show,
		SuggestSync: domain.SuggestSync(player.SuggestSync),
	})
}

// attach returns the channel actor, starting it on first use. A new actor
// restores the playback snapshot on its own goroutine, after the previous
// actor of the channel has saved its last one.
func (s *service) attach(ctx context.Context, channelId string) *actor {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actors[channelId]
	if !ok {
		a = newActor(&actorParams{
			id: channelId,
			restore: func(ctx context.Context) *domain.Player {
				return s.restorePlayer(ctx, channelId)
			},
			prev:      s.stopping[channelId],
			connRepo:  s.connRepo,
			stateRepo: s.stateRepo,
			logger:    s.logger,
			cfg:       s.cfg,
		})
		s.actors[channelId] = a
		go a.run()
		s.logger.InfoContext(ctx, "channel started", "channel_id", channelId)
	}
	a.attached++

	return a
}

func (s *service) detach(ctx context.Context, channelId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actors[channelId]
	if !ok {
		return
	}

	a.attached--
	if a.attached > 0 {
		return
	}

	delete(s.actors, channelId)
	s.stopping[channelId] = a
	a.stop()
	go s.forget(channelId, a)
	s.logger.InfoContext(ctx, "channel stopped", "channel_id", channelId)
}

func (s *service) forget(channelId string, a *actor) {
	<-a.persisted

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping[channelId] == a {
		delete(s.stopping, channelId)
	}
}

func (s *service) get(channelId string) (*actor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actors[channelId]
	return a, ok
}

type JoinParams struct {
	ChannelId string
	Role      domain.Role
	Nick      string
	UserAgent string
	Sender    connection.Sender
}

type JoinResponse struct {
	SessionId string
	Session   domain.Session
}

// Join registers the sender as a new session. On failure the session never
// becomes visible and the sender is closed after any pending frames.
func (s *service) Join(ctx context.Context, params *JoinParams) (JoinResponse, error) {
	sessionId := uuid.NewString()
	a := s.attach(ctx, params.ChannelId)

	if err := s.connRepo.Add(params.Sender, sessionId); err != nil {
		s.detach(ctx, params.ChannelId)
		return JoinResponse{}, fmt.Errorf("failed to add connection: %w", err)
	}

	reply := make(chan joinResult, 1)
	if err := a.enqueue(ctx, request{
		ctx: ctx,
		join: &joinRequest{
			params: domain.JoinParams{
				Id:        sessionId,
				Role:      params.Role,
				Nick:      params.Nick,
				UserAgent: params.UserAgent,
			},
			reply: reply,
		},
	}); err != nil {
		s.connRepo.RemoveBySessionId(sessionId)
		s.detach(ctx, params.ChannelId)
		return JoinResponse{}, err
	}

	var res joinResult
	select {
	case res = <-reply:
	case <-a.done:
		select {
		case res = <-reply:
		default:
			res.err = ErrChannelClosed
		}
	}
	if res.err != nil {
		s.connRepo.RemoveBySessionId(sessionId)
		s.detach(ctx, params.ChannelId)
		return JoinResponse{}, fmt.Errorf("failed to join channel: %w", res.err)
	}

	return JoinResponse{
		SessionId: sessionId,
		Session:   res.session,
	}, nil
}

type SubmitParams struct {
	ChannelId string
	SessionId string
	Action    command.Action
}

func (s *service) Submit(ctx context.Context, params *SubmitParams) error {
	a, ok := s.get(params.ChannelId)
	if !ok {
		return ErrChannelClosed
	}

	return a.enqueue(ctx, request{
		ctx:    ctx,
		action: params.Action.WithSession(params.SessionId),
	})
}

type LeaveParams struct {
	ChannelId string
	SessionId string
}

// Leave must be called once for every successful Join, when the transport
// is gone. Leaving twice is harmless for the roster.
func (s *service) Leave(ctx context.Context, params *LeaveParams) error {
	defer s.detach(ctx, params.ChannelId)

	return s.Submit(ctx, &SubmitParams{
		ChannelId: params.ChannelId,
		SessionId: params.SessionId,
		Action:    command.Action{Kind: command.ActionLeave},
	})
}

type StatsResponse struct {
	Channels int `json:"channels"`
	Sessions int `json:"sessions"`
}

func (s *service) Stats() StatsResponse {
	s.mu.Lock()
	channels := len(s.actors)
	s.mu.Unlock()

	return StatsResponse{
		Channels: channels,
		Sessions: s.connRepo.Len(),
	}
}

// Shutdown stops every channel and waits for pending snapshots to be saved.
func (s *service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	actors := maps.Values(s.actors)
	actors = append(actors, maps.Values(s.stopping)...)
	s.actors = make(map[string]*actor)
	s.mu.Unlock()

	for _, a := range actors {
		a.stop()
	}

	for _, a := range actors {
		select {
		case <-a.persisted:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}
