package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"fourline-server/internal/game"
	"fourline-server/internal/store"
)

// recordingRecorder captures results the engine persists.
type recordingRecorder struct {
	mu      sync.Mutex
	results []*store.GameResult
}

func (r *recordingRecorder) SaveResult(_ context.Context, res *store.GameResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return nil
}

func (r *recordingRecorder) last(t *testing.T) *store.GameResult {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		n := len(r.results)
		r.mu.Unlock()
		if n > 0 {
			r.mu.Lock()
			defer r.mu.Unlock()
			return r.results[n-1]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no result recorded")
	return nil
}

// recordingPublisher captures analytics event types.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func newTestEngine(grace, botDelay time.Duration) (*Engine, *recordingRecorder, *recordingPublisher) {
	rec := &recordingRecorder{}
	pub := &recordingPublisher{}
	e := NewEngine(NewRegistry(), Options{
		Strategy:     game.ChooseColumn,
		Recorder:     rec,
		Publisher:    pub,
		GracePeriod:  grace,
		BotMoveDelay: botDelay,
	})
	return e, rec, pub
}

// startHumanPair creates an alice/bob session and drains the game_started
// events so tests see only what they provoke.
func startHumanPair(t *testing.T, e *Engine) (*Session, *Conn, *Conn) {
	t.Helper()
	c0 := NewConn("conn-alice")
	c1 := NewConn("conn-bob")
	s := e.CreateSession(
		Participant{Identity: "alice", Conn: c0},
		Participant{Identity: "bob", Conn: c1},
	)
	mustEvent(t, c0.Events, EventGameStarted)
	mustEvent(t, c1.Events, EventGameStarted)
	return s, c0, c1
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func assertNoEvent(t *testing.T, ch <-chan *Event, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v", ev.Kind)
	case <-time.After(wait):
	}
}
