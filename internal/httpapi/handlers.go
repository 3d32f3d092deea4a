package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/auction-chess-backend/internal/engine"
	"github.com/DoyleJ11/auction-chess-backend/internal/hub"
	"github.com/DoyleJ11/auction-chess-backend/internal/lobby"
)

// No 0/O or 1/I so codes survive being read aloud.
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength   = 6
	codeAttempts = 10
	replyTimeout = 2 * time.Second
)

var errCodeSpace = errors.New("no free lobby code")

func GenerateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Error: err.Error()}
	if k := engine.Kind(err); k != "unknown" {
		body.Code = k
	}
	writeJSON(w, status, body)
}

// CreateLobby reads an engine.Config body, starts the game under a fresh
// code and answers 201 {"code": ...}.
func CreateLobby(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cfg engine.Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %w", engine.ErrInvalidConfig, err))
			return
		}
		state, err := engine.CreateGame(cfg)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		for range codeAttempts {
			code, err := GenerateCode()
			if err != nil {
				writeError(w, http.StatusInternalServerError, errors.New("failed to generate code"))
				return
			}
			reply := make(chan *lobby.Lobby, 1)
			h.Inbox() <- hub.CreateLobby{Code: code, State: state, Reply: reply}
			if lb := <-reply; lb != nil {
				log.Info("lobby created", zap.String("code", code), zap.Stringer("host", cfg.HostColor))
				writeJSON(w, http.StatusCreated, struct {
					Code string `json:"code"`
				}{Code: code})
				return
			}
			log.Warn("collision on code, regenerating", zap.String("code", code))
		}
		writeError(w, http.StatusServiceUnavailable, errCodeSpace)
	}
}

func lookup(h *hub.Hub, code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- hub.GetLobby{Code: code, Reply: reply}
	return <-reply
}

type lobbyView struct {
	Code       string       `json:"code"`
	Version    int          `json:"version"`
	NumClients int          `json:"numClients"`
	Players    []string     `json:"players"`
	FEN        string       `json:"fen"`
	Winner     string       `json:"winner,omitempty"`
	State      engine.State `json:"state"`
}

// GetLobby answers with the current view of a lobby.
func GetLobby(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb := lookup(h, chi.URLParam(r, "code"))
		if lb == nil {
			writeError(w, http.StatusNotFound, errors.New("lobby not found"))
			return
		}

		reply := make(chan lobby.View, 1)
		if err := lb.Send(lobby.GetState{Reply: reply}); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		select {
		case v := <-reply:
			out := lobbyView{
				Code:       v.Code,
				Version:    v.Version,
				NumClients: v.NumClients,
				Players:    []string{},
				FEN:        v.State.FEN(),
				State:      v.State,
			}
			for _, c := range v.Players {
				out.Players = append(out.Players, c.String())
			}
			out.Winner, _ = engine.Winner(v.State)
			writeJSON(w, http.StatusOK, out)
		case <-time.After(replyTimeout):
			writeError(w, http.StatusGatewayTimeout, errors.New("lobby busy"))
		}
	}
}

// TimeCheck asks a lobby to settle its clock. The result arrives as a
// snapshot on the websocket, so this only acknowledges.
func TimeCheck(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb := lookup(h, chi.URLParam(r, "code"))
		if lb == nil {
			writeError(w, http.StatusNotFound, errors.New("lobby not found"))
			return
		}
		if err := lb.Send(lobby.TimeCheck{}); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
