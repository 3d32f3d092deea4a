package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/DoyleJ11/auction-chess-backend/internal/board"
	"github.com/DoyleJ11/auction-chess-backend/internal/hub"
	"github.com/DoyleJ11/auction-chess-backend/internal/lobby"
	"github.com/DoyleJ11/auction-chess-backend/internal/types"
)

var (
	ErrSpectator = errors.New("spectators cannot act")
	ErrBadRole   = errors.New("role must be host or guest")
)

const (
	writeTimeout = 3 * time.Second
	replyTimeout = 5 * time.Second
)

// Handler upgrades /ws?code=XXXXXX[&role=host|guest]. The host plays the
// lobby's host color and the guest the other one. Without a role the client
// only watches.
func Handler(h *hub.Hub, log *zap.Logger, originPatterns []string) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		role := r.URL.Query().Get("role")
		if role != "" && role != "host" && role != "guest" {
			http.Error(w, ErrBadRole.Error(), http.StatusBadRequest)
			return
		}

		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.GetLobby{Code: code, Reply: reply}
		lb := <-reply
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		var color *board.Color
		if role != "" {
			c, err := seatFor(r.Context(), lb, role)
			if err != nil {
				http.Error(w, err.Error(), http.StatusGone)
				return
			}
			color = &c
		}

		// Take the seat before upgrading so a held seat is a plain 409.
		clientID := uuid.NewString()
		out := make(chan lobby.Snapshot, 8)
		joined := make(chan error, 1)
		if err := lb.Send(lobby.Join{ClientID: clientID, Color: color, Outbox: out, Reply: joined}); err != nil {
			http.Error(w, err.Error(), http.StatusGone)
			return
		}
		defer func() { _ = lb.Send(lobby.Leave{ClientID: clientID}) }()
		if err := awaitReply(r.Context(), joined); err != nil {
			status := http.StatusGone
			if errors.Is(err, lobby.ErrSeatTaken) {
				status = http.StatusConflict
			}
			http.Error(w, err.Error(), status)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			log.Debug("websocket accept", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clog := log.With(zap.String("code", code), zap.String("client", clientID))
		if color != nil {
			clog = clog.With(zap.String("role", role), zap.Stringer("color", *color))
		}
		clog.Info("client connected", zap.Bool("player", color != nil))

		direct := make(chan types.ServerMessage, 8)

		// Writer goroutine
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go func() {
			defer cancel()
			for {
				var msg types.ServerMessage
				select {
				case snap, ok := <-out:
					if !ok {
						// Lobby dropped us or shut down.
						conn.Close(websocket.StatusGoingAway, "lobby closed")
						return
					}
					msg = types.ServerMessage{
						Type:    types.TypeSnapshot,
						Version: snap.Version,
						State:   &snap.State,
						Events:  snap.Events,
					}
				case msg = <-direct:
				case <-ctx.Done():
					return
				}
				wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
				err := wsjson.Write(wctx, conn, msg)
				wcancel()
				if err != nil {
					clog.Debug("write failed", zap.Error(err))
					return
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					clog.Debug("read failed", zap.Error(err))
				}
				clog.Info("client disconnected")
				return
			}

			var msg types.ServerMessage
			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				msg = types.ServerMessage{Type: types.TypeError, Error: "bad json", Code: "bad_json"}
			} else {
				msg = handle(ctx, lb, clientID, color, cm)
			}
			select {
			case direct <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

// seatFor maps a role to a color using the host color fixed at creation.
func seatFor(ctx context.Context, lb *lobby.Lobby, role string) (board.Color, error) {
	views := make(chan lobby.View, 1)
	if err := lb.Send(lobby.GetState{Reply: views}); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	select {
	case v := <-views:
		if role == "host" {
			return v.State.HostColor, nil
		}
		return v.State.HostColor.Opposite(), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func awaitReply(ctx context.Context, ch <-chan error) error {
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handle forwards one client message to the lobby and waits for its verdict.
func handle(ctx context.Context, lb *lobby.Lobby, clientID string, color *board.Color, cm types.ClientMessage) types.ServerMessage {
	if color == nil {
		return errorMessage(ErrSpectator)
	}
	cmd, err := cm.Command()
	if err != nil {
		return errorMessage(err)
	}

	reply := make(chan error, 1)
	if err := lb.Send(lobby.FromClient{ClientID: clientID, Color: *color, Cmd: cmd, Reply: reply}); err != nil {
		return errorMessage(err)
	}

	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	select {
	case err := <-reply:
		if err != nil {
			return errorMessage(err)
		}
		return types.ServerMessage{Type: types.TypeAck}
	case <-ctx.Done():
		return errorMessage(ctx.Err())
	}
}

func errorMessage(err error) types.ServerMessage {
	msg := types.ErrorMessage(err)
	switch {
	case errors.Is(err, lobby.ErrNotYourTurn):
		msg.Code = "not_your_turn"
	case errors.Is(err, lobby.ErrInvalidMove):
		msg.Code = "invalid_move"
	case errors.Is(err, lobby.ErrLobbyClosed):
		msg.Code = "lobby_closed"
	case errors.Is(err, lobby.ErrSeatTaken):
		msg.Code = "seat_taken"
	case errors.Is(err, ErrSpectator):
		msg.Code = "spectator"
	}
	return msg
}
