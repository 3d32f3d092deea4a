package lobby

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/auction-chess-backend/internal/board"
	"github.com/DoyleJ11/auction-chess-backend/internal/engine"
)

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func recvNoSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			// channel closed → that's fine; no further snapshots possible
			return
		}
		t.Fatalf("expected no snapshot within %v, but got version %d", within, s.Version)
	case <-time.After(within):
		// good: no snapshot
	}
}

func recvView(t *testing.T, ch <-chan View, within time.Duration) View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func recvErr(t *testing.T, ch <-chan error, within time.Duration) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(within):
		t.Fatalf("timed out waiting for reply")
		return nil
	}
}

type save struct {
	code    string
	version int
	state   engine.State
}

type fakeStore struct {
	mu    sync.Mutex
	saves []save
}

func (f *fakeStore) Save(_ context.Context, code string, version int, s engine.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, save{code: code, version: version, state: s})
	return nil
}

func (f *fakeStore) versions() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for _, s := range f.saves {
		out = append(out, s.version)
	}
	return out
}

func newState(t *testing.T, clockMs int64) engine.State {
	t.Helper()
	cfg := engine.Config{Auction: engine.AuctionConfig{InitBalance: engine.Both[int64](1000)}}
	if clockMs > 0 {
		cfg.Time = engine.TimeConfig{Enabled: true, InitialMs: engine.Both(clockMs)}
	}
	s, err := engine.CreateGame(cfg)
	require.NoError(t, err)
	return s
}

func startLobby(t *testing.T, s engine.State, opts Options) *Lobby {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewLobby(ctx, "ABC234", s, 0, opts)
}

func join(t *testing.T, l *Lobby, id string, color *board.Color, buf int) chan Snapshot {
	t.Helper()
	out := make(chan Snapshot, buf)
	require.NoError(t, l.Send(Join{ClientID: id, Color: color, Outbox: out}))
	first := recvSnapshot(t, out, 200*time.Millisecond)
	require.Equal(t, 0, first.Version)
	require.Empty(t, first.Events)
	return out
}

// seatBoth joins a white and a black client and drains the snapshot that
// starts the clock.
func seatBoth(t *testing.T, l *Lobby) (white, black chan Snapshot) {
	t.Helper()
	white = join(t, l, "white", colorPtr(board.White), 4)
	black = join(t, l, "black", colorPtr(board.Black), 4)
	for _, out := range []chan Snapshot{white, black} {
		started := recvSnapshot(t, out, 200*time.Millisecond)
		require.Equal(t, 1, started.Version)
		require.True(t, started.State.Clock.Running())
	}
	return white, black
}

func fakeClock(start time.Time) (now func() time.Time, advance func(time.Duration)) {
	var mu sync.Mutex
	cur := start
	now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return cur
	}
	advance = func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(d)
	}
	return now, advance
}

func bid(t *testing.T, l *Lobby, color board.Color, b engine.Bid) error {
	t.Helper()
	reply := make(chan error, 1)
	require.NoError(t, l.Send(FromClient{ClientID: color.String(), Color: color, Cmd: engine.BidCommand(b), Reply: reply}))
	return recvErr(t, reply, 200*time.Millisecond)
}

func colorPtr(c board.Color) *board.Color { return &c }

func TestLobby_Bid_BroadcastsSnapshotAndVersionIncrements(t *testing.T) {
	l := startLobby(t, newState(t, 0), Options{})
	out := join(t, l, "white", colorPtr(board.White), 4)

	require.NoError(t, bid(t, l, board.White, engine.Raise{Amount: 10}))

	next := recvSnapshot(t, out, 200*time.Millisecond)
	assert.Equal(t, 1, next.Version)
	assert.Equal(t, board.Black, next.State.Turn)
	assert.Equal(t, engine.PhaseBid, next.State.Phase)
	assert.True(t, engine.ContainsEvent(next.Events, engine.EvtBidPlaced))

	require.NoError(t, bid(t, l, board.Black, engine.Fold{}))
	won := recvSnapshot(t, out, 200*time.Millisecond)
	assert.Equal(t, 2, won.Version)
	assert.Equal(t, engine.PhaseMove, won.State.Phase)
	assert.Equal(t, board.White, won.State.Turn)
	assert.Equal(t, int64(990), won.State.Auction.Balance.Of(board.White))

	l.Inbox() <- Shutdown{}
}

func TestLobby_RejectsOutOfTurn(t *testing.T) {
	l := startLobby(t, newState(t, 0), Options{})
	out := join(t, l, "black", colorPtr(board.Black), 4)

	err := bid(t, l, board.Black, engine.Raise{Amount: 10})
	require.ErrorIs(t, err, ErrNotYourTurn)
	recvNoSnapshot(t, out, 100*time.Millisecond)
}

func TestLobby_EngineRejectionIsReplied(t *testing.T) {
	l := startLobby(t, newState(t, 0), Options{})
	out := join(t, l, "white", colorPtr(board.White), 4)

	err := bid(t, l, board.White, engine.Raise{Amount: 5000})
	require.ErrorIs(t, err, engine.ErrInsufficientFunds)
	assert.Equal(t, "insufficient_funds", engine.Kind(err))
	recvNoSnapshot(t, out, 100*time.Millisecond)

	reply := make(chan View, 1)
	l.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 200*time.Millisecond)
	assert.Equal(t, 0, view.Version)
}

func TestLobby_DropSlowClient(t *testing.T) {
	l := startLobby(t, newState(t, 0), Options{})

	clientOut := make(chan Snapshot, 1)
	l.Inbox() <- Join{ClientID: "ch1", Outbox: clientOut}

	// Join snapshot fills the buffer, so the broadcast cannot be delivered.
	require.NoError(t, bid(t, l, board.White, engine.Raise{Amount: 10}))

	reply := make(chan View, 1)
	l.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 200*time.Millisecond)
	assert.Equal(t, 0, view.NumClients)
	assert.Equal(t, 1, view.Version)
}

func TestLobby_ViewListsSeatedPlayers(t *testing.T) {
	l := startLobby(t, newState(t, 0), Options{})
	join(t, l, "w", colorPtr(board.White), 2)
	join(t, l, "spectator", nil, 2)

	reply := make(chan View, 1)
	l.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 200*time.Millisecond)
	assert.Equal(t, "ABC234", view.Code)
	assert.Equal(t, 2, view.NumClients)
	assert.Equal(t, []board.Color{board.White}, view.Players)
}

func TestLobby_ClockWaitsForBothPlayers(t *testing.T) {
	now, _ := fakeClock(time.UnixMilli(1_000_000))
	l := startLobby(t, newState(t, 60_000), Options{Now: now})

	reply := make(chan View, 1)
	l.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 200*time.Millisecond)
	require.NotNil(t, view.State.Clock)
	assert.False(t, view.State.Clock.Running())

	white := join(t, l, "white", colorPtr(board.White), 4)
	join(t, l, "spectator", nil, 4)
	recvNoSnapshot(t, white, 100*time.Millisecond)

	join(t, l, "black", colorPtr(board.Black), 4)
	started := recvSnapshot(t, white, 200*time.Millisecond)
	assert.Equal(t, 1, started.Version)
	require.True(t, started.State.Clock.Running())
	assert.Equal(t, int64(1_000_000), *started.State.Clock.LastResumedAt)
	assert.Equal(t, engine.Both[int64](60_000), started.State.Clock.Remaining)
}

func TestLobby_EmptyLobbyNeverTimesOut(t *testing.T) {
	now, advance := fakeClock(time.UnixMilli(1_000_000))
	l := startLobby(t, newState(t, 60_000), Options{Now: now})

	advance(61 * time.Second)
	l.Inbox() <- TimeCheck{}

	reply := make(chan View, 1)
	l.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 200*time.Millisecond)
	assert.False(t, view.State.Terminal())
	assert.Equal(t, 0, view.Version)
	assert.Equal(t, int64(60_000), view.State.Clock.Remaining.Of(board.White))
}

func TestLobby_SeatTaken(t *testing.T) {
	l := startLobby(t, newState(t, 0), Options{})
	join(t, l, "first", colorPtr(board.White), 2)

	out := make(chan Snapshot, 2)
	reply := make(chan error, 1)
	require.NoError(t, l.Send(Join{ClientID: "second", Color: colorPtr(board.White), Outbox: out, Reply: reply}))
	require.ErrorIs(t, recvErr(t, reply, 200*time.Millisecond), ErrSeatTaken)
	recvNoSnapshot(t, out, 50*time.Millisecond)

	l.Inbox() <- Leave{ClientID: "first"}
	require.NoError(t, l.Send(Join{ClientID: "second", Color: colorPtr(board.White), Outbox: out, Reply: reply}))
	require.NoError(t, recvErr(t, reply, 200*time.Millisecond))
	assert.Equal(t, 0, recvSnapshot(t, out, 200*time.Millisecond).Version)
}

func TestLobby_TimerFires_TimeoutEndsGame(t *testing.T) {
	l := startLobby(t, newState(t, 50), Options{})
	out, _ := seatBoth(t, l)

	next := recvSnapshot(t, out, time.Second)
	assert.Equal(t, 2, next.Version)
	require.True(t, next.State.Terminal())
	assert.True(t, engine.ContainsEvent(next.Events, engine.EvtGameOver))

	rec := engine.RecordOf(next.State.Outcome)
	assert.Equal(t, engine.ReasonTimeout, rec.Reason)
	require.NotNil(t, rec.Winner)
	assert.Equal(t, board.Black, *rec.Winner)
	assert.Equal(t, int64(0), next.State.Clock.Remaining.Of(board.White))

	err := bid(t, l, board.White, engine.Raise{Amount: 10})
	require.ErrorIs(t, err, engine.ErrTerminalState)
}

func TestLobby_LateCommandLosesOnTime(t *testing.T) {
	now, advance := fakeClock(time.UnixMilli(1_000_000))
	l := startLobby(t, newState(t, 60_000), Options{Now: now})
	out, _ := seatBoth(t, l)

	advance(61 * time.Second)

	err := bid(t, l, board.White, engine.Raise{Amount: 10})
	require.ErrorIs(t, err, engine.ErrTerminalState)

	over := recvSnapshot(t, out, 200*time.Millisecond)
	assert.Equal(t, 2, over.Version)
	winner, ok := engine.Winner(over.State)
	require.True(t, ok)
	assert.Equal(t, "black", winner)
}

func TestLobby_CommandChargesElapsedTime(t *testing.T) {
	now, advance := fakeClock(time.UnixMilli(1_000_000))
	l := startLobby(t, newState(t, 60_000), Options{Now: now})
	out, _ := seatBoth(t, l)

	advance(5 * time.Second)

	require.NoError(t, bid(t, l, board.White, engine.Raise{Amount: 10}))
	next := recvSnapshot(t, out, 200*time.Millisecond)
	assert.Equal(t, 2, next.Version)
	assert.Equal(t, int64(55_000), next.State.Clock.Remaining.Of(board.White))
	assert.Equal(t, int64(60_000), next.State.Clock.Remaining.Of(board.Black))
	require.NotNil(t, next.State.Clock.LastResumedAt)
	assert.Equal(t, now().UnixMilli(), *next.State.Clock.LastResumedAt)
}

func TestLobby_BidBeforeOpponentKeepsClockPaused(t *testing.T) {
	now, advance := fakeClock(time.UnixMilli(1_000_000))
	l := startLobby(t, newState(t, 60_000), Options{Now: now})
	out := join(t, l, "white", colorPtr(board.White), 4)

	advance(30 * time.Second)
	require.NoError(t, bid(t, l, board.White, engine.Raise{Amount: 10}))
	next := recvSnapshot(t, out, 200*time.Millisecond)
	assert.Equal(t, 1, next.Version)
	assert.False(t, next.State.Clock.Running())
	assert.Equal(t, engine.Both[int64](60_000), next.State.Clock.Remaining)
}

func TestLobby_TimeCheckWithoutClockIsQuiet(t *testing.T) {
	l := startLobby(t, newState(t, 0), Options{})
	out := join(t, l, "white", colorPtr(board.White), 2)

	l.Inbox() <- TimeCheck{}
	recvNoSnapshot(t, out, 100*time.Millisecond)
}

func TestLobby_PersistsEveryVersion(t *testing.T) {
	st := &fakeStore{}
	l := startLobby(t, newState(t, 0), Options{Store: st})
	out := join(t, l, "white", colorPtr(board.White), 4)

	require.NoError(t, bid(t, l, board.White, engine.Raise{Amount: 10}))
	recvSnapshot(t, out, 200*time.Millisecond)
	require.NoError(t, bid(t, l, board.Black, engine.Raise{Amount: 20}))
	recvSnapshot(t, out, 200*time.Millisecond)

	assert.Equal(t, []int{0, 1, 2}, st.versions())
}

func TestLobby_Shutdown_ClosesOutboxes(t *testing.T) {
	l := startLobby(t, newState(t, 60_000), Options{})
	out := join(t, l, "c1", colorPtr(board.White), 2)

	l.Inbox() <- Shutdown{}

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatalf("lobby did not stop")
	}
	_, ok := <-out
	assert.False(t, ok)
	require.ErrorIs(t, l.Send(TimeCheck{}), ErrLobbyClosed)
}

func TestLobby_FinishedAndEmptyCloses(t *testing.T) {
	l := startLobby(t, newState(t, 30), Options{})
	out, _ := seatBoth(t, l)

	over := recvSnapshot(t, out, time.Second)
	require.True(t, over.State.Terminal())

	l.Inbox() <- Leave{ClientID: "white"}
	select {
	case <-l.Done():
		t.Fatalf("lobby closed while a client remained")
	case <-time.After(50 * time.Millisecond):
	}
	l.Inbox() <- Leave{ClientID: "black"}
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatalf("finished lobby stayed open after last client left")
	}
}
