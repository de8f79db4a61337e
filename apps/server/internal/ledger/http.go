package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	ledger Service
	logger *zap.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(ledgerService Service, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{ledger: ledgerService, logger: logger.Named("ledger_http")}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/tables/", h.handleTables)
	mux.HandleFunc("/api/games/recent", h.handleRecentGames)
}

// handleTables serves
//
//	GET /api/tables/{tableId}/rounds?limit=N
//	GET /api/tables/{tableId}/rounds/{gameId}/{round}/events
func (h *HTTPHandler) handleTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tables/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] != "rounds" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	tableID := parts[0]

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	switch len(parts) {
	case 2:
		items, err := h.ledger.ListTableRounds(ctx, tableID, parseLimit(r.URL.Query().Get("limit")))
		if err != nil {
			h.logger.Warn("list table rounds failed", zap.String("table_id", tableID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query rounds failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"table_id": tableID, "items": items})
	case 5:
		if parts[4] != "events" {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		round, err := strconv.Atoi(parts[3])
		if err != nil || round <= 0 {
			writeError(w, http.StatusBadRequest, "invalid round number")
			return
		}
		events, err := h.ledger.GetRoundEvents(ctx, parts[2], round)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "round not found")
				return
			}
			h.logger.Warn("get round events failed", zap.String("game_id", parts[2]), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "query round events failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"game_id":      parts[2],
			"round_number": round,
			"events":       events,
		})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *HTTPHandler) handleRecentGames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	items, err := h.ledger.ListRecentGames(ctx, parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		h.logger.Warn("list recent games failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query games failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
