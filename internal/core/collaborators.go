package core

import (
	"context"

	"fourline-server/internal/game"
	"fourline-server/internal/store"
)

// BotStrategy picks a column for the automated opponent. It sees only the
// current board and its own symbol and must return a valid column whenever
// one exists.
type BotStrategy func(b *game.Board, own game.Cell) int

// ResultRecorder persists a finished game. Best-effort: failures are
// logged by the engine and never block eviction.
type ResultRecorder interface {
	SaveResult(ctx context.Context, res *store.GameResult) error
}

// EventPublisher forwards domain events to the analytics pipeline.
// Same best-effort contract as ResultRecorder.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}
