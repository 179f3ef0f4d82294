// Package matchmaking holds the FIFO pairing glue in front of the engine.
package matchmaking

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fourline-server/internal/core"
)

// BotIdentity is the display name of the automated opponent's seat.
const BotIdentity = "Bot"

type ticket struct {
	p     core.Participant
	timer *time.Timer
}

// Matchmaker pairs waiting players. A player who waits longer than the
// configured timeout is paired with the automated opponent instead.
type Matchmaker struct {
	engine      *core.Engine
	log         *zerolog.Logger
	waitTimeout time.Duration

	mu      sync.Mutex
	waiting *ticket
}

// New builds a matchmaker in front of the given engine.
func New(engine *core.Engine, logger *zerolog.Logger, waitTimeout time.Duration) *Matchmaker {
	if waitTimeout <= 0 {
		waitTimeout = 5 * time.Second
	}
	return &Matchmaker{
		engine:      engine,
		log:         logger,
		waitTimeout: waitTimeout,
	}
}

// Enqueue adds a player to the queue, pairing immediately when another
// player is already waiting. The earlier player takes seat 0.
func (m *Matchmaker) Enqueue(p core.Participant) {
	m.mu.Lock()
	if m.waiting != nil && m.waiting.p.Identity != p.Identity {
		first := m.waiting
		m.waiting = nil
		first.timer.Stop()
		m.mu.Unlock()
		m.engine.CreateSession(first.p, p)
		return
	}
	tk := &ticket{p: p}
	tk.timer = time.AfterFunc(m.waitTimeout, func() {
		m.pairWithBot(tk)
	})
	m.waiting = tk
	m.mu.Unlock()
	m.log.Debug().Str("identity", p.Identity).Msg("player queued")
}

// Cancel removes a still-queued player, typically because the connection
// dropped before a partner showed up.
func (m *Matchmaker) Cancel(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.waiting != nil && m.waiting.p.Identity == identity {
		m.waiting.timer.Stop()
		m.waiting = nil
	}
}

func (m *Matchmaker) pairWithBot(tk *ticket) {
	m.mu.Lock()
	if m.waiting != tk {
		m.mu.Unlock()
		return
	}
	m.waiting = nil
	m.mu.Unlock()
	m.log.Debug().Str("identity", tk.p.Identity).Msg("no partner found, pairing with bot")
	m.engine.CreateSession(tk.p, core.Participant{Identity: BotIdentity, IsBot: true})
}
