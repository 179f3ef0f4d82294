package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fourline-server/internal/game"
	"fourline-server/internal/store"
)

// ReasonDisconnectTimeout is the terminal reason when a grace period
// expires without a rejoin.
const ReasonDisconnectTimeout = "disconnect timeout"

const sideEffectTimeout = 5 * time.Second

// Participant is what matchmaking hands over when creating a session.
type Participant struct {
	Identity string
	IsBot    bool
	Conn     *Conn
}

// Options configures the engine's collaborators and timings.
type Options struct {
	Strategy     BotStrategy
	Recorder     ResultRecorder
	Publisher    EventPublisher
	Log          *zerolog.Logger
	GracePeriod  time.Duration
	BotMoveDelay time.Duration
}

// Engine is the sole mutator of session board and turn state. It applies
// moves, detects terminal states, runs disconnect grace periods, and
// schedules the automated opponent. Every mutation of one session happens
// under that session's lock, including the timer callbacks.
type Engine struct {
	registry  *Registry
	strategy  BotStrategy
	recorder  ResultRecorder
	publisher EventPublisher
	log       *zerolog.Logger
	grace     time.Duration
	botDelay  time.Duration
}

// NewEngine builds an engine around the given registry.
func NewEngine(reg *Registry, opts Options) *Engine {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 30 * time.Second
	}
	if opts.BotMoveDelay <= 0 {
		opts.BotMoveDelay = 600 * time.Millisecond
	}
	if opts.Log == nil {
		nop := zerolog.Nop()
		opts.Log = &nop
	}
	return &Engine{
		registry:  reg,
		strategy:  opts.Strategy,
		recorder:  opts.Recorder,
		publisher: opts.Publisher,
		log:       opts.Log,
		grace:     opts.GracePeriod,
		botDelay:  opts.BotMoveDelay,
	}
}

// Registry exposes the session registry for lookups.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// CreateSession pairs two participants into a new active session. Seat 0
// plays X and moves first. Both seats receive a game_started snapshot.
func (e *Engine) CreateSession(a, b Participant) *Session {
	sa := &Seat{Identity: a.Identity, IsBot: a.IsBot, conn: a.Conn}
	sb := &Seat{Identity: b.Identity, IsBot: b.IsBot, conn: b.Conn}
	s := newSession(uuid.NewString(), sa, sb)
	e.registry.add(s)

	s.mu.Lock()
	for i := range s.seats {
		s.seats[i].notify(&Event{
			Kind:      EventGameStarted,
			SessionID: s.ID,
			Snapshot:  s.snapshotLocked(i),
		})
	}
	// A session may open with the automated opponent to move; nothing in
	// the pairing order forbids it.
	e.scheduleBotLocked(s)
	s.mu.Unlock()

	e.log.Info().
		Str("session_id", s.ID).
		Str("player1", sa.Identity).
		Str("player2", sb.Identity).
		Bool("vs_bot", sa.IsBot || sb.IsBot).
		Msg("session created")
	e.publishAsync("game_started", map[string]any{
		"session_id": s.ID,
		"player1":    sa.Identity,
		"player2":    sb.Identity,
		"vs_bot":     sa.IsBot || sb.IsBot,
	})
	return s
}

// ApplyMove validates and applies one move request. Rejections are
// reported to the originating seat only and leave the session untouched.
func (e *Engine) ApplyMove(sessionID string, seatIndex, column int) error {
	s, ok := e.registry.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	if seatIndex != 0 && seatIndex != 1 {
		return ErrBadSeat
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return e.applyMoveLocked(s, seatIndex, column)
}

// applyMoveLocked is the single entry point for both human and automated
// moves. Called with s.mu held.
func (e *Engine) applyMoveLocked(s *Session, seatIndex, column int) error {
	seat := s.seats[seatIndex]

	if s.state != StateActive {
		rej := reject(CodeInvalidState, "session is not active")
		seat.notify(&Event{Kind: EventRejected, SessionID: s.ID, Reject: rej})
		return rej
	}
	if seatIndex != s.turn {
		rej := reject(CodeNotYourTurn, "not your turn")
		seat.notify(&Event{Kind: EventRejected, SessionID: s.ID, Reject: rej})
		return rej
	}
	row, err := s.board.Drop(column, seat.Symbol)
	if err != nil {
		rej := reject(CodeColumnFull, "column is full")
		seat.notify(&Event{Kind: EventRejected, SessionID: s.ID, Reject: rej})
		return rej
	}

	line, won := game.FindWin(s.board, seat.Symbol, row, column)
	nextTurn := 1 - seatIndex
	if won || s.board.IsFull() {
		nextTurn = -1
	}
	s.broadcastLocked(&Event{
		Kind:      EventMoveMade,
		SessionID: s.ID,
		Move: &MoveInfo{
			Seat:     seatIndex,
			Row:      row,
			Col:      column,
			Board:    s.board.Cells(),
			NextTurn: nextTurn,
		},
	})

	switch {
	case won:
		e.finishLocked(s, &GameOverInfo{Winner: seat.Identity, Line: line})
	case s.board.IsFull():
		e.finishLocked(s, &GameOverInfo{Draw: true})
	default:
		s.turn = nextTurn
		e.scheduleBotLocked(s)
	}
	return nil
}

// scheduleBotLocked arms the automated opponent's move timer when it is
// the bot's turn. The timer is cancelled whenever the session leaves the
// active state before it fires. Called with s.mu held.
func (e *Engine) scheduleBotLocked(s *Session) {
	if s.state != StateActive || !s.seats[s.turn].IsBot {
		return
	}
	s.stopBotTimer()
	gen := s.botGen
	s.botTimer = time.AfterFunc(e.botDelay, func() {
		e.playBotMove(s, gen)
	})
}

func (e *Engine) playBotMove(s *Session, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.botGen {
		// Cancelled or re-armed while this callback waited for the lock.
		return
	}
	s.botTimer = nil
	if s.state != StateActive || !s.seats[s.turn].IsBot {
		// Superseded by a disconnect or a terminal transition.
		return
	}
	seat := s.seats[s.turn]
	column := e.strategy(s.board, seat.Symbol)
	if err := e.applyMoveLocked(s, s.turn, column); err != nil {
		e.log.Error().Err(err).
			Str("session_id", s.ID).
			Int("column", column).
			Msg("bot move rejected")
	}
}

// Disconnect moves an active session containing identity into the grace
// state and arms the forfeiture timer. Unknown identities and non-active
// sessions are ignored.
func (e *Engine) Disconnect(identity string) {
	s, ok := e.registry.ByIdentity(identity)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	idx, ok := s.seatByIdentity(identity)
	if !ok {
		return
	}
	s.state = StateGrace
	s.graceSeat = idx
	s.seats[idx].conn = nil
	s.stopBotTimer()
	s.seats[1-idx].notify(&Event{
		Kind:      EventOpponentDisconnected,
		SessionID: s.ID,
		User:      identity,
	})
	s.stopGraceTimer()
	gen := s.graceGen
	s.graceTimer = time.AfterFunc(e.grace, func() {
		e.expireGrace(s, idx, gen)
	})
	e.log.Info().
		Str("session_id", s.ID).
		Str("identity", identity).
		Dur("grace", e.grace).
		Msg("grace period started")
}

func (e *Engine) expireGrace(s *Session, seatIndex int, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.graceGen {
		// Cancelled or re-armed while this callback waited for the lock;
		// a rejoin followed by a fresh disconnect must get its full period.
		return
	}
	s.graceTimer = nil
	if s.state != StateGrace || s.graceSeat != seatIndex {
		// A rejoin won the race.
		return
	}
	opponent := s.seats[1-seatIndex]
	winner := ""
	if !opponent.IsBot {
		winner = opponent.Identity
	}
	e.log.Info().
		Str("session_id", s.ID).
		Str("identity", s.seats[seatIndex].Identity).
		Msg("grace period expired, seat forfeits")
	e.finishLocked(s, &GameOverInfo{Winner: winner, Reason: ReasonDisconnectTimeout})
}

// Rejoin rebinds identity's seat to a new connection handle if a session
// is in its grace period for that identity. Returns false otherwise and
// reports rejoin_failed on the new handle; that is an expected outcome,
// not an error.
func (e *Engine) Rejoin(identity string, conn *Conn) bool {
	s, ok := e.registry.ByIdentity(identity)
	if !ok {
		conn.send(&Event{Kind: EventRejoinFailed})
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateGrace {
		conn.send(&Event{Kind: EventRejoinFailed, SessionID: s.ID})
		return false
	}
	idx := s.graceSeat
	if s.seats[idx].Identity != identity {
		conn.send(&Event{Kind: EventRejoinFailed, SessionID: s.ID})
		return false
	}
	s.stopGraceTimer()
	s.graceSeat = -1
	s.state = StateActive
	s.seats[idx].Rebind(conn)
	s.seats[idx].notify(&Event{
		Kind:      EventRejoinSuccess,
		SessionID: s.ID,
		Snapshot:  s.snapshotLocked(idx),
	})
	s.seats[1-idx].notify(&Event{
		Kind:      EventOpponentRejoined,
		SessionID: s.ID,
		User:      identity,
	})
	// Resume a bot move that was cancelled when the grace period began.
	e.scheduleBotLocked(s)
	e.log.Info().
		Str("session_id", s.ID).
		Str("identity", identity).
		Msg("seat rejoined")
	return true
}

// finishLocked transitions the session to terminal, broadcasts the
// outcome, dispatches best-effort side effects, and evicts the session
// from the registry. Called with s.mu held.
func (e *Engine) finishLocked(s *Session, over *GameOverInfo) {
	s.state = StateTerminal
	s.stopBotTimer()
	s.stopGraceTimer()
	s.broadcastLocked(&Event{Kind: EventGameOver, SessionID: s.ID, Over: over})

	res := &store.GameResult{
		SessionID:  s.ID,
		Player1:    s.seats[0].Identity,
		Player2:    s.seats[1].Identity,
		Winner:     over.Winner,
		IsDraw:     over.Draw,
		Reason:     over.Reason,
		Moves:      s.board.Filled(),
		FinishedAt: time.Now(),
	}
	go e.dispatchTerminal(res, over)
	e.registry.remove(s.ID)

	e.log.Info().
		Str("session_id", s.ID).
		Str("winner", over.Winner).
		Bool("draw", over.Draw).
		Str("reason", over.Reason).
		Msg("session finished")
}

// dispatchTerminal runs the persistence write and analytics publish.
// Failures are logged and swallowed; nothing here blocks the game flow.
func (e *Engine) dispatchTerminal(res *store.GameResult, over *GameOverInfo) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	if e.recorder != nil {
		if err := e.recorder.SaveResult(ctx, res); err != nil {
			e.log.Warn().Err(err).Str("session_id", res.SessionID).Msg("record result failed")
		}
	}
	if e.publisher != nil {
		payload := map[string]any{
			"session_id": res.SessionID,
			"player1":    res.Player1,
			"player2":    res.Player2,
			"draw":       res.IsDraw,
			"moves":      res.Moves,
		}
		if res.Winner != "" {
			payload["winner"] = res.Winner
		}
		if res.Reason != "" {
			payload["reason"] = res.Reason
		}
		if len(over.Line) > 0 {
			payload["line"] = over.Line
		}
		if err := e.publisher.Publish(ctx, "game_over", payload); err != nil {
			e.log.Warn().Err(err).Str("session_id", res.SessionID).Msg("publish game_over failed")
		}
	}
}

func (e *Engine) publishAsync(eventType string, payload map[string]any) {
	if e.publisher == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := e.publisher.Publish(ctx, eventType, payload); err != nil {
			e.log.Warn().Err(err).Str("event", eventType).Msg("publish failed")
		}
	}()
}
