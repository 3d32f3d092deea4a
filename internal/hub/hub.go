package hub

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/auction-chess-backend/internal/engine"
	"github.com/DoyleJ11/auction-chess-backend/internal/lobby"
)

type HubMsg interface{ isHubMsg() }

// CreateLobby starts a new game under Code. Reply gets nil if the code is
// already taken.
type CreateLobby struct {
	Code  string
	State engine.State
	Reply chan *lobby.Lobby
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// EnsureLobby returns the lobby at Code, starting it from State and Version
// if it is not running. Used when restoring games from the store.
type EnsureLobby struct {
	Code    string
	State   engine.State // only used if creation happens
	Version int
	Reply   chan *lobby.Lobby
}

type RemoveLobby struct {
	Code string
}

// Sweep asks every lobby to check its clock and forgets lobbies that have
// stopped.
type Sweep struct{}

type ListLobbies struct {
	Reply chan []string
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (Sweep) isHubMsg()       {}
func (ListLobbies) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

type Options struct {
	Logger *zap.Logger
	Store  lobby.Store
	Now    func() time.Time
}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	ctx     context.Context
	cancel  context.CancelFunc

	log   *zap.Logger
	lopts lobby.Options
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		ctx:     ctx,
		cancel:  cancel,
		log:     opts.Logger,
		lopts:   lobby.Options{Logger: opts.Logger, Store: opts.Store, Now: opts.Now},
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub has shut down.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				if h.live(msg.Code) != nil {
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.start(msg.Code, msg.State, 0)

			case GetLobby:
				msg.Reply <- h.live(msg.Code) // May be nil

			case EnsureLobby:
				if lb := h.live(msg.Code); lb != nil {
					msg.Reply <- lb
					break
				}
				msg.Reply <- h.start(msg.Code, msg.State, msg.Version)

			case RemoveLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					_ = lb.Send(lobby.Shutdown{})
					delete(h.lobbies, msg.Code)
				}

			case Sweep:
				h.sweep()

			case ListLobbies:
				codes := make([]string, 0, len(h.lobbies))
				for code := range h.lobbies {
					if h.live(code) != nil {
						codes = append(codes, code)
					}
				}
				msg.Reply <- codes

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) start(code string, s engine.State, version int) *lobby.Lobby {
	lb := lobby.NewLobby(h.ctx, code, s, version, h.lopts)
	h.lobbies[code] = lb
	h.log.Info("lobby started", zap.String("code", code), zap.Int("version", version))
	return lb
}

// live returns the lobby at code if it is still running, dropping it
// otherwise.
func (h *Hub) live(code string) *lobby.Lobby {
	lb := h.lobbies[code]
	if lb == nil {
		return nil
	}
	select {
	case <-lb.Done():
		delete(h.lobbies, code)
		return nil
	default:
		return lb
	}
}

func (h *Hub) sweep() {
	for code := range h.lobbies {
		lb := h.live(code)
		if lb == nil {
			h.log.Debug("lobby pruned", zap.String("code", code))
			continue
		}
		// Never block the hub on a busy lobby; the next sweep retries.
		select {
		case lb.Inbox() <- lobby.TimeCheck{}:
		default:
		}
	}
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		select {
		case lb.Inbox() <- lobby.Shutdown{}:
		case <-lb.Done():
		}
	}
	clear(h.lobbies)
	h.cancel()
}
