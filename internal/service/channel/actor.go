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
	"github.com/datenight/server/pkg/ctxlogger"
)

type joinResult struct {
	session domain.Session
	err     error
}

type joinRequest struct {
	params domain.JoinParams
	reply  chan joinResult
}

type request struct {
	ctx    context.Context
	action command.Action
	join   *joinRequest
}

type actorParams struct {
	id string
	// restore loads the player when the actor starts, player is used as is
	// when restore is nil.
	restore   func(context.Context) *domain.Player
	player    *domain.Player
	prev      *actor
	connRepo  iConnRepo
	stateRepo iStateRepo
	logger    *slog.Logger
	cfg       Config
}

// actor owns the roster and the player of one channel. Everything that
// touches them runs on the actor goroutine, in the order requests arrive.
type actor struct {
	id        string
	roster    *domain.Roster
	player    *domain.Player
	restore   func(context.Context) *domain.Player
	prev      *actor
	connRepo  iConnRepo
	stateRepo iStateRepo
	logger    *slog.Logger

	input     chan request
	quit      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	persist   chan domain.PlaybackState
	persisted chan struct{}

	probeInterval time.Duration
	probes        map[string]probe
	now           func() time.Time

	// guarded by the service mutex
	attached int
}

func newActor(params *actorParams) *actor {
	return &actor{
		id: params.id,
		roster: domain.NewRoster(&domain.RosterConfig{
			PublishersLimit: params.cfg.PublishersLimit,
			MembersLimit:    params.cfg.MembersLimit,
			Generator:       params.cfg.Generator,
		}),
		player:        params.player,
		restore:       params.restore,
		prev:          params.prev,
		connRepo:      params.connRepo,
		stateRepo:     params.stateRepo,
		logger:        params.logger,
		input:         make(chan request, params.cfg.QueueSize),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
		persist:       make(chan domain.PlaybackState, 1),
		persisted:     make(chan struct{}),
		probeInterval: params.cfg.LatencyProbeInterval,
		probes:        make(map[string]probe),
		now:           time.Now,
	}
}

func (a *actor) enqueue(ctx context.Context, req request) error {
	select {
	case a.input <- req:
		return nil
	case <-a.done:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *actor) stop() {
	a.stopOnce.Do(func() {
		close(a.quit)
	})
}

func (a *actor) run() {
	go a.runPersister()
	defer close(a.persist)
	defer close(a.done)

	if a.prev != nil {
		<-a.prev.persisted
		a.prev = nil
	}
	if a.restore != nil {
		a.player = a.restore(ctxlogger.AppendCtx(context.Background(), slog.String("channel_id", a.id)))
	}
	if a.player == nil {
		a.player = domain.NewPlayer()
	}

	var tick <-chan time.Time
	if a.probeInterval > 0 {
		ticker := time.NewTicker(a.probeInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case req := <-a.input:
			a.handle(req)
		case <-tick:
			a.probe(ctxlogger.AppendCtx(context.Background(), slog.String("channel_id", a.id)))
		case <-a.quit:
			a.drain()
			return
		}
	}
}

// drain handles requests queued before the actor was stopped.
func (a *actor) drain() {
	for {
		select {
		case req := <-a.input:
			a.handle(req)
		default:
			return
		}
	}
}

func (a *actor) handle(req request) {
	ctx := req.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if req.join != nil {
		session, err := a.join(ctx, &req.join.params)
		req.join.reply <- joinResult{session: session, err: err}
		return
	}

	action := req.action
	if action.Kind == command.ActionLeave || action.Kind == command.ActionDisconnect {
		a.leave(ctx, action)
		return
	}

	origin, _, err := a.roster.GetById(action.SessionId)
	if err != nil {
		a.logger.InfoContext(ctx, "action from unknown session", "session_id", action.SessionId, "action", action.Kind)
		return
	}

	switch action.Kind {
	case command.ActionHelp:
		a.publish(ctx, EventLogMessage, LogMessage{Data: command.HelpText}, OriginatorOnly, origin.Id)
	case command.ActionNick:
		a.rename(ctx, origin, action.Arg)
	case command.ActionChat:
		a.publish(ctx, EventLogMessage, LogMessage{
			Data:  action.Arg,
			Nick:  ptr(origin.Nick),
			Color: ptr(origin.Color),
		}, Everyone, origin.Id)
	case command.ActionUpdateState:
		a.updateState(ctx, origin, action.State)
	case command.ActionPause, command.ActionResume, command.ActionSeek:
		if origin.IsPublisher() {
			a.control(ctx, origin, action)
		} else {
			a.requestControl(ctx, origin, action)
		}
	case command.ActionSetUserAgent:
		if err := a.roster.SetUserAgent(origin.Id, action.Arg); err == nil {
			a.logger.InfoContext(ctx, "user agent set", "session_id", origin.Id, "user_agent", action.Arg)
		}
	case command.ActionPing:
		a.publish(ctx, EventLatencyPong, Token{Token: action.Arg}, OriginatorOnly, origin.Id)
	case command.ActionPong:
		a.recordPong(ctx, origin, action.Arg)
	default:
		a.logger.WarnContext(ctx, "unknown action", "action", action.Kind)
	}
}

// reject tells the originator why its request was refused. Unauthorized
// requests are only logged.
func (a *actor) reject(ctx context.Context, originId string, err error) {
	var msg LogMessage
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		a.logger.InfoContext(ctx, "unauthorized request dropped", "session_id", originId)
		return
	case errors.Is(err, domain.ErrMalformedCommand):
		msg = LogMessage{Data: "obey the API!"}
	case errors.Is(err, domain.ErrNickUnavailable):
		msg = LogMessage{Data: "Failed to assign you a nick", Fatal: ptr(true)}
	case errors.Is(err, domain.ErrDuplicateRoleConflict):
		msg = LogMessage{Data: "A publisher is already connected to this channel", Fatal: ptr(true)}
	case errors.Is(err, domain.ErrMembersLimitReached):
		msg = LogMessage{Data: "This channel is full", Fatal: ptr(true)}
	default:
		msg = LogMessage{Data: err.Error()}
	}

	a.logger.InfoContext(ctx, "request rejected", "session_id", originId, "error", err)
	a.publish(ctx, EventLogMessage, msg, OriginatorOnly, originId)
}

func (a *actor) join(ctx context.Context, params *domain.JoinParams) (domain.Session, error) {
	session, err := a.roster.Join(params)
	if err != nil {
		if errors.Is(err, domain.ErrNameConflict) {
			a.publish(ctx, EventLogMessage, LogMessage{
				Data:  fmt.Sprintf("Nick %s already exists", params.Nick),
				Fatal: ptr(true),
			}, OriginatorOnly, params.Id)
		} else {
			a.reject(ctx, params.Id, err)
		}
		return domain.Session{}, err
	}

	a.logger.InfoContext(ctx, "session joined",
		slog.String("session_id", session.Id),
		slog.String("role", string(session.Role)),
		slog.String("nick", session.Nick),
	)

	complete := Complete(a.roster.AsList())
	a.publish(ctx, EventNickChange, NickChange{
		New:      session.Nick,
		Color:    session.Color,
		Complete: complete,
	}, OriginatorOnly, session.Id)

	if session.IsPublisher() {
		a.publish(ctx, EventUpdatePublishers, updatePublishers(&updatePublishersParams{
			New:      ptr(session.Nick),
			Data:     a.roster.ByRole(domain.RolePublisher),
			Complete: &complete,
		}), EveryoneExceptOriginator, session.Id)
		return session, nil
	}

	a.publish(ctx, EventUpdateSubscriptions, updateSubscriptions(&updateSubscriptionsParams{
		New:      ptr(session.Nick),
		Complete: complete,
	}), EveryoneExceptOriginator, session.Id)

	current := a.player.Current()
	a.publish(ctx, EventUpdatePublishers, updatePublishers(&updatePublishersParams{
		Data:  a.roster.ByRole(domain.RolePublisher),
		State: &current,
	}), OriginatorOnly, session.Id)

	return session, nil
}

func (a *actor) leave(ctx context.Context, action command.Action) {
	session, ok := a.roster.Leave(action.SessionId)
	delete(a.probes, action.SessionId)

	if action.Kind == command.ActionDisconnect || ok {
		if err := a.connRepo.RemoveBySessionId(action.SessionId); err != nil {
			a.logger.DebugContext(ctx, "connection already removed", "session_id", action.SessionId)
		}
	}

	if !ok {
		return
	}

	a.logger.InfoContext(ctx, "session left", "session_id", session.Id, "nick", session.Nick)

	if session.IsPublisher() {
		a.publish(ctx, EventUpdatePublishers, updatePublishers(&updatePublishersParams{
			Old:      ptr(session.Nick),
			Data:     a.roster.ByRole(domain.RolePublisher),
			Complete: ptr(Complete(a.roster.AsList())),
		}), Everyone, session.Id)
		return
	}

	a.publish(ctx, EventUpdateSubscriptions, updateSubscriptions(&updateSubscriptionsParams{
		Old:      ptr(session.Nick),
		Complete: Complete(a.roster.AsList()),
	}), Everyone, session.Id)
}

func (a *actor) rename(ctx context.Context, origin domain.Session, nick string) {
	old, nick, err := a.roster.Rename(origin.Id, nick)
	switch {
	case errors.Is(err, domain.ErrNameConflict):
		a.publish(ctx, EventLogMessage, LogMessage{Data: fmt.Sprintf("Nick %s already exists", nick)}, OriginatorOnly, origin.Id)
		return
	case errors.Is(err, domain.ErrNickUnchanged):
		a.publish(ctx, EventLogMessage, LogMessage{Data: fmt.Sprintf("Your nick is already %s", nick)}, OriginatorOnly, origin.Id)
		return
	case err != nil:
		a.reject(ctx, origin.Id, err)
		return
	}

	a.logger.InfoContext(ctx, "nick changed", "session_id", origin.Id, "old", old, "new", nick)

	complete := Complete(a.roster.AsList())
	a.publish(ctx, EventNickChange, NickChange{
		Old:      ptr(old),
		New:      nick,
		Color:    origin.Color,
		Complete: complete,
	}, OriginatorOnly, origin.Id)

	if origin.IsPublisher() {
		a.publish(ctx, EventUpdatePublishers, updatePublishers(&updatePublishersParams{
			Old:      ptr(old),
			New:      ptr(nick),
			Data:     a.roster.ByRole(domain.RolePublisher),
			Complete: &complete,
		}), EveryoneExceptOriginator, origin.Id)
		return
	}

	a.publish(ctx, EventUpdateSubscriptions, updateSubscriptions(&updateSubscriptionsParams{
		Old:      ptr(old),
		New:      ptr(nick),
		Complete: complete,
	}), EveryoneExceptOriginator, origin.Id)
}

func (a *actor) updateState(ctx context.Context, origin domain.Session, update *domain.PlaybackState) {
	if update == nil {
		a.reject(ctx, origin.Id, domain.ErrMalformedCommand)
		return
	}

	state, err := a.player.Apply(origin, *update)
	if err != nil {
		a.reject(ctx, origin.Id, err)
		return
	}

	a.stateChanged(ctx, origin, state)
}

// control applies a publisher's own pause, resume or seek.
func (a *actor) control(ctx context.Context, origin domain.Session, action command.Action) {
	var (
		state   domain.PlaybackState
		changed = true
		err     error
	)
	switch action.Kind {
	case command.ActionPause:
		state, changed, err = a.player.Pause(origin)
	case command.ActionResume:
		state, changed, err = a.player.Resume(origin)
	case command.ActionSeek:
		state, err = a.player.Seek(origin, action.Arg)
	}
	if err != nil {
		a.reject(ctx, origin.Id, err)
		return
	}

	if !changed {
		a.logger.DebugContext(ctx, "playback unchanged", "session_id", origin.Id, "action", action.Kind)
		return
	}

	a.stateChanged(ctx, origin, state)
}

func (a *actor) stateChanged(ctx context.Context, origin domain.Session, state domain.PlaybackState) {
	if err := a.roster.SetState(origin.Id, state); err != nil {
		a.logger.WarnContext(ctx, "failed to store publisher state", "session_id", origin.Id, "error", err)
	}

	a.logger.DebugContext(ctx, "playback state changed",
		slog.String("status", string(state.Status)),
		slog.String("position", string(state.Position)),
	)

	a.publish(ctx, EventUpdatePublishers, updatePublishers(&updatePublishersParams{
		Update:      ptr(origin.Nick),
		Show:        ptr(state.Show),
		Data:        a.roster.ByRole(domain.RolePublisher),
		State:       &state,
		SuggestSync: ptr(state.SuggestSync),
	}), AllSubscribers, origin.Id)

	a.schedulePersist(state)
}

// requestControl relays a subscriber's pause, resume or seek to the
// publishers. The playback state is left alone.
func (a *actor) requestControl(ctx context.Context, origin domain.Session, action command.Action) {
	req := ControlRequest{Nick: ptr(origin.Nick)}

	var event, notice string
	switch action.Kind {
	case command.ActionPause:
		event = EventPause
		notice = fmt.Sprintf("Pause requested by %q", origin.Nick)
	case command.ActionResume:
		event = EventResume
		notice = fmt.Sprintf("Resume requested by %q", origin.Nick)
	case command.ActionSeek:
		if action.Arg == "" {
			a.reject(ctx, origin.Id, domain.ErrMalformedCommand)
			return
		}
		event = EventSeek
		req.Seek = ptr(action.Arg)
		notice = fmt.Sprintf("Seek to %s requested by %q", action.Arg, origin.Nick)
	}

	a.publish(ctx, event, req, AllPublishers, origin.Id)
	a.publish(ctx, EventLogMessage, LogMessage{Data: notice}, AllSubscribers, origin.Id)
}
