package core

import (
	"testing"
	"time"

	"fourline-server/internal/game"
)

func TestVerticalWinEndsSession(t *testing.T) {
	e, rec, _ := newTestEngine(time.Second, time.Second)
	s, c0, c1 := startHumanPair(t, e)

	// alice stacks column 0, bob column 1.
	cols := []int{0, 1, 0, 1, 0, 1, 0}
	for i, col := range cols {
		if err := e.ApplyMove(s.ID, i%2, col); err != nil {
			t.Fatalf("move %d rejected: %v", i, err)
		}
		mustEvent(t, c0.Events, EventMoveMade)
		mustEvent(t, c1.Events, EventMoveMade)
	}

	for _, ch := range []<-chan *Event{c0.Events, c1.Events} {
		ev := mustEvent(t, ch, EventGameOver)
		if ev.Over.Winner != "alice" || ev.Over.Draw {
			t.Fatalf("unexpected terminal payload: %+v", ev.Over)
		}
		wantLine := [][2]int{{5, 0}, {4, 0}, {3, 0}, {2, 0}}
		if len(ev.Over.Line) != len(wantLine) {
			t.Fatalf("unexpected line %v", ev.Over.Line)
		}
		for i, cell := range wantLine {
			if ev.Over.Line[i] != cell {
				t.Fatalf("line[%d] = %v, want %v", i, ev.Over.Line[i], cell)
			}
		}
	}

	if e.Registry().Len() != 0 {
		t.Fatal("terminal session not evicted")
	}
	res := rec.last(t)
	if res.Winner != "alice" || res.IsDraw || res.Moves != 7 {
		t.Fatalf("unexpected recorded result: %+v", res)
	}
}

func TestFullBoardIsDraw(t *testing.T) {
	e, rec, _ := newTestEngine(time.Second, time.Second)
	s, c0, c1 := startHumanPair(t, e)

	// Each board row is filled left to right in this column order; the
	// resulting pattern has no four-in-a-row anywhere.
	order := []int{0, 2, 1, 3, 4, 6, 5}
	for i := 0; i < game.Rows*game.Cols; i++ {
		col := order[i%len(order)]
		if err := e.ApplyMove(s.ID, i%2, col); err != nil {
			t.Fatalf("move %d (col %d) rejected: %v", i, col, err)
		}
		mv := mustEvent(t, c0.Events, EventMoveMade)
		mustEvent(t, c1.Events, EventMoveMade)
		if i < game.Rows*game.Cols-1 && mv.Move.NextTurn == -1 {
			t.Fatalf("premature terminal after move %d", i)
		}
	}

	ev := mustEvent(t, c1.Events, EventGameOver)
	if !ev.Over.Draw || ev.Over.Winner != "" {
		t.Fatalf("expected draw without winner, got %+v", ev.Over)
	}
	if e.Registry().Len() != 0 {
		t.Fatal("terminal session not evicted")
	}
	res := rec.last(t)
	if !res.IsDraw || res.Winner != "" || res.Moves != 42 {
		t.Fatalf("unexpected recorded result: %+v", res)
	}
}

func TestMoveOutOfTurnRejected(t *testing.T) {
	e, _, _ := newTestEngine(time.Second, time.Second)
	s, c0, c1 := startHumanPair(t, e)

	err := e.ApplyMove(s.ID, 1, 3)
	rej, ok := err.(*RejectError)
	if !ok || rej.Code != CodeNotYourTurn {
		t.Fatalf("expected not_your_turn, got %v", err)
	}

	ev := mustEvent(t, c1.Events, EventRejected)
	if ev.Reject.Code != CodeNotYourTurn {
		t.Fatalf("unexpected rejection %+v", ev.Reject)
	}
	// The other seat hears nothing and the session is untouched.
	assertNoEvent(t, c0.Events, 50*time.Millisecond)
	if s.Turn() != 0 || s.Board() != (game.Grid{}) {
		t.Fatal("rejected move changed session state")
	}
}

func TestMoveIntoFullColumnRejected(t *testing.T) {
	e, _, _ := newTestEngine(time.Second, time.Second)
	s, c0, c1 := startHumanPair(t, e)

	for i := 0; i < game.Rows; i++ {
		if err := e.ApplyMove(s.ID, i%2, 0); err != nil {
			t.Fatalf("setup move %d rejected: %v", i, err)
		}
		mustEvent(t, c0.Events, EventMoveMade)
		mustEvent(t, c1.Events, EventMoveMade)
	}

	before := s.Board()
	err := e.ApplyMove(s.ID, 0, 0)
	rej, ok := err.(*RejectError)
	if !ok || rej.Code != CodeColumnFull {
		t.Fatalf("expected column_full, got %v", err)
	}
	mustEvent(t, c0.Events, EventRejected)
	if s.Turn() != 0 || s.Board() != before {
		t.Fatal("rejected move changed session state")
	}
}

func TestMoveDuringGraceRejected(t *testing.T) {
	e, _, _ := newTestEngine(time.Second, time.Second)
	s, c0, _ := startHumanPair(t, e)

	e.Disconnect("bob")
	mustEvent(t, c0.Events, EventOpponentDisconnected)

	err := e.ApplyMove(s.ID, 0, 3)
	rej, ok := err.(*RejectError)
	if !ok || rej.Code != CodeInvalidState {
		t.Fatalf("expected invalid_state, got %v", err)
	}
	if s.Board() != (game.Grid{}) {
		t.Fatal("move applied to a grace-period session")
	}
}

func TestMoveAfterTerminalIsNoOp(t *testing.T) {
	e, _, _ := newTestEngine(time.Second, time.Second)
	s, c0, c1 := startHumanPair(t, e)

	cols := []int{0, 1, 0, 1, 0, 1, 0}
	for i, col := range cols {
		if err := e.ApplyMove(s.ID, i%2, col); err != nil {
			t.Fatalf("move %d rejected: %v", i, err)
		}
	}
	// Drain both seats down to the terminal notice so the silence check
	// below sees only what the no-op move would produce.
	mustEvent(t, c0.Events, EventGameOver)
	mustEvent(t, c1.Events, EventGameOver)

	// The session is evicted on termination, so further moves resolve to
	// an absent session and change nothing.
	if err := e.ApplyMove(s.ID, 1, 2); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	assertNoEvent(t, c0.Events, 50*time.Millisecond)
	assertNoEvent(t, c1.Events, 50*time.Millisecond)
}

func TestDisconnectTimeoutForfeits(t *testing.T) {
	e, rec, _ := newTestEngine(40*time.Millisecond, time.Second)
	s, c0, _ := startHumanPair(t, e)

	e.Disconnect("bob")
	ev := mustEvent(t, c0.Events, EventOpponentDisconnected)
	if ev.User != "bob" {
		t.Fatalf("unexpected disconnect notice %+v", ev)
	}
	if s.State() != StateGrace {
		t.Fatalf("expected grace state, got %v", s.State())
	}

	over := mustEvent(t, c0.Events, EventGameOver)
	if over.Over.Winner != "alice" || over.Over.Reason != ReasonDisconnectTimeout {
		t.Fatalf("unexpected forfeit payload %+v", over.Over)
	}
	if e.Registry().Len() != 0 {
		t.Fatal("forfeited session not evicted")
	}
	res := rec.last(t)
	if res.Winner != "alice" || res.Reason != ReasonDisconnectTimeout {
		t.Fatalf("unexpected recorded result: %+v", res)
	}
}

func TestRejoinWithinGrace(t *testing.T) {
	e, _, _ := newTestEngine(200*time.Millisecond, time.Second)
	s, c0, c1 := startHumanPair(t, e)

	if err := e.ApplyMove(s.ID, 0, 3); err != nil {
		t.Fatalf("setup move rejected: %v", err)
	}
	mustEvent(t, c0.Events, EventMoveMade)
	mustEvent(t, c1.Events, EventMoveMade)

	e.Disconnect("bob")
	mustEvent(t, c0.Events, EventOpponentDisconnected)

	// bob comes back on a brand new connection handle.
	c1b := NewConn("conn-bob-2")
	if !e.Rejoin("bob", c1b) {
		t.Fatal("rejoin within grace failed")
	}

	snap := mustEvent(t, c1b.Events, EventRejoinSuccess)
	if snap.Snapshot.Seat != 1 || snap.Snapshot.Symbol != game.O ||
		snap.Snapshot.Opponent != "alice" || snap.Snapshot.Turn != 1 {
		t.Fatalf("unexpected snapshot %+v", snap.Snapshot)
	}
	if snap.Snapshot.Board[5][3] != game.X {
		t.Fatal("snapshot board missing earlier move")
	}
	mustEvent(t, c0.Events, EventOpponentRejoined)
	if s.State() != StateActive {
		t.Fatalf("expected active after rejoin, got %v", s.State())
	}

	// The forfeiture timer must be dead: wait past the grace duration.
	time.Sleep(250 * time.Millisecond)
	if s.State() != StateActive || e.Registry().Len() != 1 {
		t.Fatal("cancelled grace timer still fired")
	}

	// Play continues on the new handle.
	if err := e.ApplyMove(s.ID, 1, 2); err != nil {
		t.Fatalf("move after rejoin rejected: %v", err)
	}
	mustEvent(t, c1b.Events, EventMoveMade)
}

func TestRejoinWithoutGraceSessionFails(t *testing.T) {
	e, _, _ := newTestEngine(time.Second, time.Second)
	_, _, _ = startHumanPair(t, e)

	// Unknown identity.
	ghost := NewConn("conn-ghost")
	if e.Rejoin("ghost", ghost) {
		t.Fatal("rejoin succeeded for unknown identity")
	}
	mustEvent(t, ghost.Events, EventRejoinFailed)

	// Known identity, but no grace period running.
	back := NewConn("conn-bob-2")
	if e.Rejoin("bob", back) {
		t.Fatal("rejoin succeeded for active session")
	}
	mustEvent(t, back.Events, EventRejoinFailed)
}

func TestBotMovesAutomatically(t *testing.T) {
	e, _, _ := newTestEngine(time.Second, 10*time.Millisecond)
	c0 := NewConn("conn-alice")
	s := e.CreateSession(
		Participant{Identity: "alice", Conn: c0},
		Participant{Identity: "Bot", IsBot: true},
	)
	mustEvent(t, c0.Events, EventGameStarted)

	if err := e.ApplyMove(s.ID, 0, 0); err != nil {
		t.Fatalf("human move rejected: %v", err)
	}
	mv := mustEvent(t, c0.Events, EventMoveMade)
	if mv.Move.Seat != 0 {
		t.Fatalf("unexpected first move %+v", mv.Move)
	}

	// The bot's reply arrives without any external move request.
	mv = mustEvent(t, c0.Events, EventMoveMade)
	if mv.Move.Seat != 1 {
		t.Fatalf("expected bot move, got %+v", mv.Move)
	}
	if s.Turn() != 0 {
		t.Fatalf("turn not back with the human, got %d", s.Turn())
	}
}

func TestBotBlocksImmediateThreat(t *testing.T) {
	e, _, _ := newTestEngine(time.Second, 5*time.Millisecond)
	c0 := NewConn("conn-alice")
	s := e.CreateSession(
		Participant{Identity: "alice", Conn: c0},
		Participant{Identity: "Bot", IsBot: true},
	)
	mustEvent(t, c0.Events, EventGameStarted)

	// alice stacks column 0; the bot's first two replies are center
	// fallbacks, the third must block the vertical threat.
	for i := 0; i < 3; i++ {
		if err := e.ApplyMove(s.ID, 0, 0); err != nil {
			t.Fatalf("human move %d rejected: %v", i, err)
		}
		mustEvent(t, c0.Events, EventMoveMade) // human
		mustEvent(t, c0.Events, EventMoveMade) // bot
	}

	board := s.Board()
	if board[2][0] != game.O {
		t.Fatalf("bot failed to block column 0: %v", board)
	}
}

func TestBotTimerCancelledByDisconnectAndResumedOnRejoin(t *testing.T) {
	e, _, _ := newTestEngine(500*time.Millisecond, 50*time.Millisecond)
	c0 := NewConn("conn-alice")
	s := e.CreateSession(
		Participant{Identity: "alice", Conn: c0},
		Participant{Identity: "Bot", IsBot: true},
	)
	mustEvent(t, c0.Events, EventGameStarted)

	if err := e.ApplyMove(s.ID, 0, 0); err != nil {
		t.Fatalf("human move rejected: %v", err)
	}
	// Disconnect before the bot delay elapses; the pending bot move must
	// not mutate a grace-period session.
	e.Disconnect("alice")
	time.Sleep(120 * time.Millisecond)
	if s.State() != StateGrace {
		t.Fatalf("expected grace, got %v", s.State())
	}
	if got := s.Board(); got[5][0] != game.X || boardFilled(got) != 1 {
		t.Fatalf("bot moved during grace: %v", got)
	}

	// Rejoining resumes the bot's turn.
	c0b := NewConn("conn-alice-2")
	if !e.Rejoin("alice", c0b) {
		t.Fatal("rejoin failed")
	}
	mustEvent(t, c0b.Events, EventRejoinSuccess)
	mv := mustEvent(t, c0b.Events, EventMoveMade)
	if mv.Move.Seat != 1 {
		t.Fatalf("expected resumed bot move, got %+v", mv.Move)
	}
}

func TestStaleGraceCallbackDoesNotForfeit(t *testing.T) {
	e, rec, _ := newTestEngine(time.Minute, time.Second)
	s, c0, _ := startHumanPair(t, e)

	e.Disconnect("bob")
	mustEvent(t, c0.Events, EventOpponentDisconnected)
	s.mu.Lock()
	staleGen := s.graceGen
	s.mu.Unlock()

	// bob comes back and drops again; the second grace period must run in
	// full even if the first timer's callback is still in flight.
	c1b := NewConn("conn-bob-2")
	if !e.Rejoin("bob", c1b) {
		t.Fatal("rejoin failed")
	}
	mustEvent(t, c0.Events, EventOpponentRejoined)
	e.Disconnect("bob")
	mustEvent(t, c0.Events, EventOpponentDisconnected)

	e.expireGrace(s, 1, staleGen)
	if s.State() != StateGrace {
		t.Fatalf("stale callback forfeited the session, state %v", s.State())
	}
	if e.Registry().Len() != 1 {
		t.Fatal("stale callback evicted the session")
	}
	rec.mu.Lock()
	recorded := len(rec.results)
	rec.mu.Unlock()
	if recorded != 0 {
		t.Fatalf("stale callback recorded a result: %d", recorded)
	}

	// The live generation still forfeits.
	s.mu.Lock()
	liveGen := s.graceGen
	s.mu.Unlock()
	e.expireGrace(s, 1, liveGen)
	if res := rec.last(t); res.Winner != "alice" || res.Reason != ReasonDisconnectTimeout {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestStaleBotCallbackDoesNotMove(t *testing.T) {
	e, _, _ := newTestEngine(time.Minute, time.Minute)
	c0 := NewConn("conn-alice")
	s := e.CreateSession(
		Participant{Identity: "alice", Conn: c0},
		Participant{Identity: "Bot", IsBot: true},
	)
	mustEvent(t, c0.Events, EventGameStarted)

	if err := e.ApplyMove(s.ID, 0, 0); err != nil {
		t.Fatalf("human move rejected: %v", err)
	}
	mustEvent(t, c0.Events, EventMoveMade)
	s.mu.Lock()
	staleGen := s.botGen
	s.mu.Unlock()

	// Disconnect cancels the pending move, rejoin arms a fresh one.
	e.Disconnect("alice")
	c0b := NewConn("conn-alice-2")
	if !e.Rejoin("alice", c0b) {
		t.Fatal("rejoin failed")
	}
	mustEvent(t, c0b.Events, EventRejoinSuccess)

	e.playBotMove(s, staleGen)
	if got := boardFilled(s.Board()); got != 1 {
		t.Fatalf("stale callback moved, %d discs on board", got)
	}

	s.mu.Lock()
	liveGen := s.botGen
	s.mu.Unlock()
	e.playBotMove(s, liveGen)
	mv := mustEvent(t, c0b.Events, EventMoveMade)
	if mv.Move.Seat != 1 {
		t.Fatalf("expected bot move, got %+v", mv.Move)
	}
}

func TestForfeitAgainstBotHasNoWinner(t *testing.T) {
	e, rec, _ := newTestEngine(30*time.Millisecond, time.Second)
	c0 := NewConn("conn-alice")
	e.CreateSession(
		Participant{Identity: "alice", Conn: c0},
		Participant{Identity: "Bot", IsBot: true},
	)
	mustEvent(t, c0.Events, EventGameStarted)

	e.Disconnect("alice")
	res := rec.last(t)
	if res.Winner != "" || res.Reason != ReasonDisconnectTimeout {
		t.Fatalf("unexpected result %+v", res)
	}
	if e.Registry().Len() != 0 {
		t.Fatal("forfeited session not evicted")
	}
}

func TestTerminalPublishesAnalytics(t *testing.T) {
	e, _, pub := newTestEngine(time.Second, time.Second)
	s, _, c1 := startHumanPair(t, e)

	cols := []int{0, 1, 0, 1, 0, 1, 0}
	for i, col := range cols {
		if err := e.ApplyMove(s.ID, i%2, col); err != nil {
			t.Fatalf("move %d rejected: %v", i, err)
		}
	}
	mustEvent(t, c1.Events, EventGameOver)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		pub.mu.Lock()
		events := append([]string(nil), pub.events...)
		pub.mu.Unlock()
		if contains(events, "game_started") && contains(events, "game_over") {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("analytics events not published")
}

func boardFilled(g game.Grid) int {
	n := 0
	for _, row := range g {
		for _, c := range row {
			if c != game.Empty {
				n++
			}
		}
	}
	return n
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
