package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var playedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sampleTape(t *testing.T) []EventItem {
	t.Helper()
	first, err := EncodeEvent(1, "gameStarted", map[string]any{"tableId": "t1", "round": 1}, playedAt)
	require.NoError(t, err)
	second, err := EncodeEvent(2, "roundSettled", struct {
		TableID string   `json:"tableId"`
		Winners []string `json:"winners"`
	}{"t1", []string{"a"}}, playedAt)
	require.NoError(t, err)
	return []EventItem{first, second}
}

func TestEncodeDecodeEvent(t *testing.T) {
	tape := sampleTape(t)
	assert.Equal(t, "gameStarted", tape[0].EventType)
	require.NotNil(t, tape[0].ServerTsMs)
	assert.Equal(t, playedAt.UnixMilli(), *tape[0].ServerTsMs)

	data, err := DecodeEvent(tape[1])
	require.NoError(t, err)
	assert.Equal(t, "t1", data["tableId"])
	assert.Equal(t, []any{"a"}, data["winners"])

	_, err = DecodeEvent(EventItem{EnvelopeB64: "!!"})
	assert.Error(t, err)

	_, err = EncodeEvent(3, "bad", []int{1, 2}, playedAt)
	assert.Error(t, err)
}

// exercise runs the same contract against every backend.
func exercise(t *testing.T, svc Service) {
	ctx := context.Background()
	tape := sampleTape(t)

	for i := 1; i <= 3; i++ {
		require.NoError(t, svc.RecordRound(ctx, RoundRecord{
			GameID:      "g1",
			TableID:     "t1",
			RoundNumber: i,
			PlayedAt:    playedAt.Add(time.Duration(i) * time.Minute),
			Summary:     map[string]any{"dealer_value": 17 + i},
			Events:      tape,
		}))
	}
	assert.Error(t, svc.RecordRound(ctx, RoundRecord{TableID: "t1", RoundNumber: 1}))

	rounds, err := svc.ListTableRounds(ctx, "t1", 2)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, 3, rounds[0].RoundNumber)
	assert.Equal(t, 2, rounds[1].RoundNumber)
	assert.EqualValues(t, 20, rounds[0].Summary["dealer_value"])

	events, err := svc.GetRoundEvents(ctx, "g1", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, tape[1].EnvelopeB64, events[1].EnvelopeB64)

	_, err = svc.GetRoundEvents(ctx, "g1", 9)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.RecordGame(ctx, GameRecord{
		GameID: "g0", TableID: "t1", TableName: "old", Rounds: 1, FinishedAt: playedAt,
		Standings: []Standing{{PlayerID: "b", Username: "bob", Score: 1}},
		Winners:   []string{"b"},
	}))
	require.NoError(t, svc.RecordGame(ctx, GameRecord{
		GameID: "g1", TableID: "t1", TableName: "friday", Rounds: 3, FinishedAt: playedAt.Add(time.Hour),
		Standings: []Standing{{PlayerID: "a", Username: "alice", Score: 2.5}},
		Winners:   []string{"a"},
	}))
	games, err := svc.ListRecentGames(ctx, 10)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "g1", games[0].GameID)
	assert.Equal(t, 2.5, games[0].Standings[0].Score)
	assert.Equal(t, []string{"a"}, games[0].Winners)
}

func TestMemoryService(t *testing.T) {
	exercise(t, NewMemoryService(0))
}

func TestMemoryService_TrimsPerTable(t *testing.T) {
	svc := NewMemoryService(2)
	ctx := context.Background()
	for i := 1; i <= 4; i++ {
		require.NoError(t, svc.RecordRound(ctx, RoundRecord{GameID: "g", TableID: "t", RoundNumber: i}))
	}
	rounds, err := svc.ListTableRounds(ctx, "t", 10)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, 4, rounds[0].RoundNumber)
}

func TestSQLiteService(t *testing.T) {
	svc, err := NewSQLiteService(context.Background(), ":memory:", 50, zap.NewNop())
	require.NoError(t, err)
	defer svc.Close()
	exercise(t, svc)
}

func TestNewService_Modes(t *testing.T) {
	svc, err := NewService(context.Background(), Options{Mode: "MEMORY"}, nil)
	require.NoError(t, err)
	_, ok := svc.(*MemoryService)
	assert.True(t, ok)

	_, err = NewService(context.Background(), Options{Mode: "redis"}, nil)
	assert.Error(t, err)
}

func TestHTTPHandler(t *testing.T) {
	svc := NewMemoryService(0)
	ctx := context.Background()
	tape := sampleTape(t)
	require.NoError(t, svc.RecordRound(ctx, RoundRecord{GameID: "g1", TableID: "t1", RoundNumber: 1, PlayedAt: playedAt, Events: tape}))
	require.NoError(t, svc.RecordGame(ctx, GameRecord{GameID: "g1", TableID: "t1", FinishedAt: playedAt}))

	mux := http.NewServeMux()
	NewHTTPHandler(svc, nil).RegisterRoutes(mux)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/api/tables/t1/rounds?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var rounds struct {
		Items []RoundRecord `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rounds))
	require.Len(t, rounds.Items, 1)
	assert.Empty(t, rounds.Items[0].Events)

	rec = get("/api/tables/t1/rounds/g1/1/events")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "envelope_b64")

	assert.Equal(t, http.StatusNotFound, get("/api/tables/t1/rounds/g1/7/events").Code)
	assert.Equal(t, http.StatusBadRequest, get("/api/tables/t1/rounds/g1/x/events").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/tables/t1/seats").Code)

	rec = get("/api/games/recent")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"game_id":"g1"`)

	post := httptest.NewRecorder()
	mux.ServeHTTP(post, httptest.NewRequest(http.MethodPost, "/api/games/recent", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, post.Code)
}

func TestParseLimit(t *testing.T) {
	for raw, want := range map[string]int{"": 20, "abc": 20, "-1": 20, "5": 5, "1000": 100} {
		assert.Equal(t, want, parseLimit(raw), fmt.Sprintf("raw=%q", raw))
	}
}
