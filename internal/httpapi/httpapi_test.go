package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/DoyleJ11/auction-chess-backend/internal/board"
	"github.com/DoyleJ11/auction-chess-backend/internal/engine"
	"github.com/DoyleJ11/auction-chess-backend/internal/hub"
	"github.com/DoyleJ11/auction-chess-backend/internal/types"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, hub.Options{})
	srv := httptest.NewServer(SetupRoutes(h, Options{}))
	t.Cleanup(srv.Close)
	return srv
}

func createLobby(t *testing.T, srv *httptest.Server, body string) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/lobbies", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Code
}

// funded is the smallest valid lobby config.
const funded = `{"auctionConfig":{"initBalance":{"white":100,"black":100}}}`

func TestGenerateCode(t *testing.T) {
	for range 50 {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, codeLength)
		for _, r := range code {
			assert.Contains(t, codeCharset, string(r))
		}
	}
}

func TestHealthz(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateLobby_Rejections(t *testing.T) {
	srv := newServer(t)
	cases := []struct {
		name     string
		body     string
		wantCode string
	}{
		{name: "not json", body: "{", wantCode: "invalid_config"},
		{name: "empty body", body: "", wantCode: "invalid_config"},
		{name: "no balance", body: `{"hostColor":"white"}`, wantCode: "invalid_config"},
		{name: "bad color", body: `{"hostColor":"green",` + funded[1:], wantCode: "invalid_config"},
		{
			name:     "one side unfunded",
			body:     `{"auctionConfig":{"initBalance":{"white":100,"black":0}}}`,
			wantCode: "invalid_config",
		},
		{
			name:     "clock without time",
			body:     `{"auctionConfig":{"initBalance":{"white":100,"black":100}},"timeConfig":{"enabled":true,"initTime":{"white":0,"black":1000}}}`,
			wantCode: "invalid_config",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/lobbies", "application/json", strings.NewReader(tc.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body errorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.wantCode, body.Code)
		})
	}
}

func TestCreateThenGetLobby(t *testing.T) {
	srv := newServer(t)
	code := createLobby(t, srv, `{"hostColor":"black","auctionConfig":{"initBalance":{"white":500,"black":400}},"pieceFeeConfig":{"enabled":true,"pieceFee":{"pawn":1,"knight":3,"bishop":3,"rook":5,"queen":9,"king":0}}}`)
	require.Len(t, code, codeLength)

	resp, err := http.Get(srv.URL + "/lobbies/" + code)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view lobbyView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, code, view.Code)
	assert.Equal(t, 0, view.Version)
	assert.Equal(t, board.StartingFEN, view.FEN)
	assert.Empty(t, view.Players)
	assert.Empty(t, view.Winner)
	assert.Equal(t, int64(500), view.State.Auction.Balance.Of(board.White))
	assert.Equal(t, int64(400), view.State.Auction.Balance.Of(board.Black))
	assert.Equal(t, board.Black, view.State.HostColor)
	require.NotNil(t, view.State.PieceFee)
	assert.Equal(t, int64(9), view.State.PieceFee.Of(board.Queen))
}

func TestGetLobby_NotFound(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/lobbies/ZZZZZZ")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/lobbies/ZZZZZZ/timecheck", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTimeCheck_Accepted(t *testing.T) {
	srv := newServer(t)
	code := createLobby(t, srv, funded)

	resp, err := http.Post(srv.URL+"/lobbies/"+code+"/timecheck", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var msg types.ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	return msg
}

func write(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, v))
}

// readPair reads an ack and a snapshot, in whatever order they arrive.
func readPair(t *testing.T, conn *websocket.Conn) (ack, snap types.ServerMessage) {
	t.Helper()
	for range 2 {
		msg := read(t, conn)
		switch msg.Type {
		case types.TypeAck, types.TypeError:
			ack = msg
		case types.TypeSnapshot:
			snap = msg
		}
	}
	return ack, snap
}

func TestWebSocket_BidRoundTrip(t *testing.T) {
	srv := newServer(t)
	code := createLobby(t, srv, funded)

	white := dial(t, srv, "code="+code+"&role=host")
	first := read(t, white)
	require.Equal(t, types.TypeSnapshot, first.Type)
	require.NotNil(t, first.State)
	assert.Equal(t, engine.PhaseBid, first.State.Phase)

	write(t, white, map[string]any{"type": "bid", "bid": map[string]any{"amount": 10}})
	ack, snap := readPair(t, white)
	assert.Equal(t, types.TypeAck, ack.Type)
	assert.Equal(t, 1, snap.Version)
	assert.Equal(t, board.Black, snap.State.Turn)
	require.NotEmpty(t, snap.Events)
	assert.Equal(t, engine.EvtBidPlaced, snap.Events[0].Type)
	assert.Equal(t, engine.Raise{Amount: 10}, snap.Events[0].Bid)

	// Out of turn.
	write(t, white, map[string]any{"type": "bid", "bid": map[string]any{"amount": 20}})
	rejected := read(t, white)
	assert.Equal(t, types.TypeError, rejected.Type)
	assert.Equal(t, "not_your_turn", rejected.Code)
}

func TestWebSocket_MoveByUCI(t *testing.T) {
	srv := newServer(t)
	code := createLobby(t, srv, funded)

	white := dial(t, srv, "code="+code+"&role=host")
	black := dial(t, srv, "code="+code+"&role=guest")
	read(t, white)
	read(t, black)

	write(t, white, map[string]any{"type": "bid", "bid": map[string]any{"amount": 10}})
	readPair(t, white)
	read(t, black)

	write(t, black, map[string]any{"type": "bid", "bid": map[string]any{"fold": true}})
	readPair(t, black)
	won := read(t, white)
	require.Equal(t, engine.PhaseMove, won.State.Phase)
	require.Equal(t, board.White, won.State.Turn)

	write(t, white, map[string]any{"type": "move", "uci": "e2e5"})
	bad := read(t, white)
	assert.Equal(t, types.TypeError, bad.Type)
	assert.Equal(t, "illegal_destination", bad.Code)

	write(t, white, map[string]any{"type": "move", "uci": "e2e4"})
	ack, snap := readPair(t, white)
	assert.Equal(t, types.TypeAck, ack.Type)
	assert.Equal(t, 3, snap.Version)
	assert.Equal(t, engine.PhaseBid, snap.State.Phase)
	assert.Equal(t, board.Black, snap.State.Turn)
}

func TestWebSocket_SpectatorAndBadInput(t *testing.T) {
	srv := newServer(t)
	code := createLobby(t, srv, funded)

	watcher := dial(t, srv, "code="+code)
	read(t, watcher)

	write(t, watcher, map[string]any{"type": "bid", "bid": map[string]any{"amount": 10}})
	msg := read(t, watcher)
	assert.Equal(t, types.TypeError, msg.Type)
	assert.Equal(t, "spectator", msg.Code)

	player := dial(t, srv, "code="+code+"&role=host")
	read(t, player)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, player.Write(ctx, websocket.MessageText, []byte("{")))
	msg = read(t, player)
	assert.Equal(t, "bad_json", msg.Code)

	write(t, player, map[string]any{"type": "resign"})
	msg = read(t, player)
	assert.Equal(t, "unsupported_command", msg.Code)

	write(t, player, map[string]any{"type": "bid", "bid": map[string]any{"amount": 0}})
	msg = read(t, player)
	assert.Equal(t, "invalid_amount", msg.Code)
}

func TestWebSocket_UnknownLobby(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?code=NOPE00"
	_, resp, err := websocket.Dial(ctx, url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocket_RoleFollowsHostColor(t *testing.T) {
	srv := newServer(t)
	code := createLobby(t, srv, `{"hostColor":"black","auctionConfig":{"initBalance":{"white":100,"black":100}}}`)

	host := dial(t, srv, "code="+code+"&role=host")
	guest := dial(t, srv, "code="+code+"&role=guest")
	read(t, host)
	read(t, guest)

	// White bids first, and the guest holds white here.
	write(t, host, map[string]any{"type": "bid", "bid": map[string]any{"amount": 10}})
	msg := read(t, host)
	assert.Equal(t, types.TypeError, msg.Type)
	assert.Equal(t, "not_your_turn", msg.Code)

	write(t, guest, map[string]any{"type": "bid", "bid": map[string]any{"amount": 10}})
	ack, snap := readPair(t, guest)
	assert.Equal(t, types.TypeAck, ack.Type)
	assert.Equal(t, 1, snap.Version)
	assert.Equal(t, board.Black, snap.State.Turn)
}

func TestWebSocket_RoleRejections(t *testing.T) {
	srv := newServer(t)
	code := createLobby(t, srv, funded)
	dial(t, srv, "code="+code+"&role=host")

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{name: "seat taken", query: "code=" + code + "&role=host", want: http.StatusConflict},
		{name: "unknown role", query: "code=" + code + "&role=white", want: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + tc.query
			_, resp, err := websocket.Dial(ctx, url, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
