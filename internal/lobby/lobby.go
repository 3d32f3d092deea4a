package lobby

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/auction-chess-backend/internal/board"
	"github.com/DoyleJ11/auction-chess-backend/internal/engine"
)

var ErrNotYourTurn = errors.New("not your turn")

// ErrInvalidMove is what clients see when the engine reports an internal
// invariant failure.
var ErrInvalidMove = errors.New("invalid move")

var ErrLobbyClosed = errors.New("lobby closed")

var ErrSeatTaken = errors.New("seat already taken")

// Store persists committed snapshots. *store.Store satisfies it.
type Store interface {
	Save(ctx context.Context, code string, version int, s engine.State) error
}

type Msg interface{ isLobbyMsg() }

// FromClient carries a command from the player of Color. Reply, if set,
// receives exactly one value: nil on success or the rejection.
type FromClient struct {
	ClientID string
	Color    board.Color
	Cmd      engine.Command
	Reply    chan error
}

func (FromClient) isLobbyMsg() {}

// Join registers a client. Each color seats one client at a time; a second
// join for a held color is answered with ErrSeatTaken on Reply, if set.
type Join struct {
	ClientID string
	// Color is nil for spectators.
	Color  *board.Color
	Outbox chan Snapshot // where this client wants to receive snapshots
	Reply  chan error
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

// TimeCheck asks the lobby to end the game if the side to act has run out
// of time.
type TimeCheck struct{}

func (TimeCheck) isLobbyMsg() {}

type timerFired struct{ gen int }

func (timerFired) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Snapshot is broadcast after every committed change. Events are the
// transition that produced it, empty for the snapshot sent on join.
type Snapshot struct {
	Version int
	State   engine.State
	Events  []engine.Event
}

type View struct {
	Code       string
	Version    int
	NumClients int
	Players    []board.Color
	State      engine.State
}

type Options struct {
	Logger *zap.Logger
	Store  Store
	// Now defaults to time.Now.
	Now func() time.Time
}

type client struct {
	color  *board.Color
	outbox chan Snapshot
}

type Lobby struct {
	code    string
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]client
	ctx     context.Context
	cancel  context.CancelFunc

	log   *zap.Logger
	store Store
	now   func() time.Time

	timer    *time.Timer
	timerGen int
}

// NewLobby starts the actor for one game. Version 0 is persisted before the
// first message is handled. A paused clock stays paused until both colors
// are seated.
func NewLobby(parent context.Context, code string, initial engine.State, version int, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := &Lobby{
		code:    code,
		inbox:   make(chan Msg, 64), // Small buffer
		state:   initial,
		version: version,
		clients: make(map[string]client),
		ctx:     ctx,
		cancel:  cancel,
		log:     opts.Logger.With(zap.String("code", code)),
		store:   opts.Store,
		now:     opts.Now,
	}
	go l.loop()
	return l
}

func (l *Lobby) loop() {
	if l.version == 0 {
		l.persist()
	}
	l.armTimer()

	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				if msg.Color != nil && l.seated(*msg.Color) {
					reply(msg.Reply, ErrSeatTaken)
					break
				}
				// Register client + send current snapshot immediately
				l.clients[msg.ClientID] = client{color: msg.Color, outbox: msg.Outbox}
				reply(msg.Reply, nil)
				l.send(msg.ClientID, Snapshot{Version: l.version, State: l.state})
				if msg.Color != nil {
					l.startClock()
				}

			case Leave:
				delete(l.clients, msg.ClientID)
				if len(l.clients) == 0 && l.state.Terminal() {
					l.log.Info("finished lobby empty, closing")
					l.shutdown()
					return
				}

			case FromClient:
				reply(msg.Reply, l.handleCommand(msg))

			case TimeCheck:
				l.checkTime()

			case timerFired:
				if msg.gen != l.timerGen {
					break // stale
				}
				l.checkTime()

			case GetState:
				msg.Reply <- l.view()

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func reply(ch chan error, err error) {
	if ch == nil {
		return
	}
	select {
	case ch <- err:
	default:
	}
}

func (l *Lobby) nowMs() int64 { return l.now().UnixMilli() }

func (l *Lobby) handleCommand(msg FromClient) error {
	l.settleClock()

	if !l.state.Terminal() && msg.Color != l.state.Turn {
		return ErrNotYourTurn
	}

	events, next, err := engine.Apply(l.state, msg.Cmd)
	if err != nil {
		if errors.Is(err, engine.ErrInternalInvariant) {
			l.log.Error("engine invariant violated",
				zap.String("client", msg.ClientID),
				zap.String("command", string(msg.Cmd.Type)),
				zap.Error(err))
			return ErrInvalidMove
		}
		l.log.Debug("command rejected",
			zap.String("client", msg.ClientID),
			zap.String("kind", engine.Kind(err)),
			zap.Error(err))
		return err
	}

	l.commit(next, events)
	return nil
}

// settleClock charges the time spent since the clock was last resumed. A
// timeout found here is committed on its own. A paused clock is left alone.
func (l *Lobby) settleClock() {
	if l.state.Clock == nil || !l.state.Clock.Running() || l.state.Terminal() {
		return
	}
	now := l.nowMs()
	events, next, err := engine.Apply(l.state, engine.DeductTimeCommand(engine.Elapsed(l.state, now), now))
	if err != nil {
		l.log.Warn("deduct time failed", zap.Error(err))
		return
	}
	if next.Terminal() {
		l.commit(next, events)
		return
	}
	l.state = next
}

func (l *Lobby) seated(c board.Color) bool {
	for _, cl := range l.clients {
		if cl.color != nil && *cl.color == c {
			return true
		}
	}
	return false
}

// startClock resumes a paused clock once both colors have a client.
func (l *Lobby) startClock() {
	c := l.state.Clock
	if c == nil || c.Running() || l.state.Terminal() {
		return
	}
	for _, color := range board.Colors {
		if !l.seated(color) {
			return
		}
	}
	now := l.nowMs()
	events, next, err := engine.Apply(l.state, engine.DeductTimeCommand(0, now))
	if err != nil {
		l.log.Warn("start clock failed", zap.Error(err))
		return
	}
	l.log.Info("both players seated, clock started")
	l.commit(next, events)
}

func (l *Lobby) checkTime() {
	if l.state.Clock == nil || l.state.Terminal() {
		return
	}
	events, next, err := engine.Apply(l.state, engine.TimeCheckCommand(engine.Elapsed(l.state, l.nowMs())))
	if err != nil {
		l.log.Warn("time check failed", zap.Error(err))
		return
	}
	if next.Terminal() {
		l.commit(next, events)
		return
	}
	l.armTimer()
}

// commit makes next the current state, bumps the version, persists it and
// tells every client.
func (l *Lobby) commit(next engine.State, events []engine.Event) {
	l.state = next
	l.version++
	l.persist()
	l.broadcast(Snapshot{Version: l.version, State: l.state, Events: events})
	l.armTimer()

	if l.state.Terminal() {
		rec := engine.RecordOf(l.state.Outcome)
		fields := []zap.Field{zap.Int("version", l.version), zap.String("reason", string(rec.Reason))}
		if winner, ok := engine.Winner(l.state); ok {
			fields = append(fields, zap.String("winner", winner))
		}
		l.log.Info("game over", fields...)
	}
}

func (l *Lobby) persist() {
	if l.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(l.ctx, 3*time.Second)
	defer cancel()
	if err := l.store.Save(ctx, l.code, l.version, l.state); err != nil {
		l.log.Error("persist game", zap.Int("version", l.version), zap.Error(err))
	}
}

// armTimer schedules a time check for when the side to act runs out. Each
// arm bumps the generation so fires from older timers are ignored.
func (l *Lobby) armTimer() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.timerGen++

	left, ok := engine.RemainingAt(l.state, l.nowMs())
	if !ok || !l.state.Clock.Running() {
		return
	}
	gen := l.timerGen
	l.timer = time.AfterFunc(time.Duration(left)*time.Millisecond, func() {
		select {
		case l.inbox <- timerFired{gen: gen}:
		case <-l.ctx.Done():
		}
	})
}

func (l *Lobby) view() View {
	v := View{
		Code:       l.code,
		Version:    l.version,
		NumClients: len(l.clients),
		State:      l.state,
	}
	for _, c := range l.clients {
		if c.color != nil {
			v.Players = append(v.Players, *c.color)
		}
	}
	return v
}

func (l *Lobby) shutdown() {
	if l.timer != nil {
		l.timer.Stop()
	}
	for id, c := range l.clients {
		close(c.outbox) // Tell client no more snapshots
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) send(id string, snap Snapshot) {
	c, ok := l.clients[id]
	if !ok {
		return
	}
	select {
	case c.outbox <- snap:
		//ok
	default:
		// Client is slow/full - drop them.
		close(c.outbox)
		delete(l.clients, id)
	}
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id := range l.clients {
		l.send(id, snap)
	}
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Send delivers m unless the lobby has shut down.
func (l *Lobby) Send(m Msg) error {
	select {
	case l.inbox <- m:
		return nil
	case <-l.ctx.Done():
		return ErrLobbyClosed
	}
}

// Done is closed once the lobby stops.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

func (l *Lobby) Code() string { return l.code }
