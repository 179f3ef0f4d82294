package http

import (
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fourline-server/internal/store"
)

// APIHandlers provides HTTP handlers for the REST endpoints.
type APIHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(st store.Store, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{store: st, log: logger}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LeaderboardEntryResponse represents one leaderboard row.
type LeaderboardEntryResponse struct {
	Player string `json:"player"`
	Wins   int    `json:"wins"`
	Games  int    `json:"games"`
}

// GameResultResponse represents one finished game.
type GameResultResponse struct {
	SessionID  string `json:"session_id"`
	Player1    string `json:"player1"`
	Player2    string `json:"player2"`
	Winner     string `json:"winner,omitempty"`
	Draw       bool   `json:"draw,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Moves      int    `json:"moves"`
	FinishedAt string `json:"finished_at"`
}

// Leaderboard returns players ordered by win count.
// GET /api/leaderboard?limit=10
func (h *APIHandlers) Leaderboard(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 10)

	entries, err := h.store.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to query leaderboard")
		c.JSON(stdhttp.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := make([]LeaderboardEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, LeaderboardEntryResponse{
			Player: e.Player,
			Wins:   e.Wins,
			Games:  e.Games,
		})
	}
	c.JSON(stdhttp.StatusOK, resp)
}

// RecentGames returns the most recently finished games.
// GET /api/games/recent?limit=10
func (h *APIHandlers) RecentGames(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 10)

	results, err := h.store.RecentResults(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to query recent games")
		c.JSON(stdhttp.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := make([]GameResultResponse, 0, len(results))
	for _, r := range results {
		resp = append(resp, GameResultResponse{
			SessionID:  r.SessionID,
			Player1:    r.Player1,
			Player2:    r.Player2,
			Winner:     r.Winner,
			Draw:       r.IsDraw,
			Reason:     r.Reason,
			Moves:      r.Moves,
			FinishedAt: r.FinishedAt.Format(time.RFC3339),
		})
	}
	c.JSON(stdhttp.StatusOK, resp)
}

func parseLimit(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > 100 {
		return 100
	}
	return n
}
