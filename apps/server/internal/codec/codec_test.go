package codec

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/blackjack"
	"blackjack-lite/card"
)

func TestEncodeDecode(t *testing.T) {
	raw, err := Encode(EventGameAction, GameActionRequest{TableID: "t1", Action: "hit"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"gameAction","data":{"tableId":"t1","action":"hit"}}`, string(raw))

	env, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, EventGameAction, env.Event)

	var req GameActionRequest
	require.NoError(t, env.DecodeData(&req))
	assert.Equal(t, "hit", req.Action)
}

func TestEncode_NilPayload(t *testing.T) {
	raw, err := Encode(EventTableLeft, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"tableLeft"}`, string(raw))
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)

	env, err := Decode([]byte(`{"event":"joinTable","data":{"tableId":5}}`))
	require.NoError(t, err)
	var req JoinTableRequest
	assert.Error(t, env.DecodeData(&req))

	env, err = Decode([]byte(`{"event":"leaveTable"}`))
	require.NoError(t, err)
	assert.NoError(t, env.DecodeData(&req))
}

func TestRoundToView_MasksHoleCard(t *testing.T) {
	snap := blackjack.Snapshot{
		Round:       1,
		TotalRounds: 3,
		Phase:       blackjack.PhaseAwaitingTurn,
		Turn:        0,
		Dealer:      card.MustParse("Kh", "7s"),
		DealerValue: 17,
		Players: []blackjack.PlayerView{
			{ID: "a", Position: 0, Status: blackjack.StatusPlaying, Cards: card.MustParse("9c", "9d"), Value: 18},
		},
	}

	v := RoundToView("t1", snap)
	require.Len(t, v.Dealer.Cards, 2)
	assert.True(t, v.Dealer.Cards[0].Hidden)
	assert.Zero(t, v.Dealer.Cards[0].Rank)
	assert.Equal(t, 7, v.Dealer.Value)
	assert.Equal(t, "a", v.CurrentPlayerID)
	assert.Equal(t, "awaiting_turn", v.Phase)

	snap.Phase = blackjack.PhaseDealerPlay
	snap.Turn = blackjack.NoTurn
	v = RoundToView("t1", snap)
	assert.False(t, v.Dealer.Cards[0].Hidden)
	assert.Equal(t, int(card.RankKing), v.Dealer.Cards[0].Rank)
	assert.Equal(t, "hearts", v.Dealer.Cards[0].Suit)
	assert.Equal(t, 17, v.Dealer.Value)
	assert.Empty(t, v.CurrentPlayerID)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"hands":[`)
}

func TestTableToView(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	info := lobby.TableInfo{
		ID:          "t1",
		Name:        "friday",
		HostUserID:  "b",
		MaxSeats:    4,
		TotalRounds: 5,
		TurnTimeout: 20 * time.Second,
		HasPassword: true,
		Status:      lobby.StatusWaiting,
		CreatedAt:   created,
		Seats: []lobby.Seat{
			{UserID: "a", DisplayName: "Alice", Position: 0, ConnectionID: "c1"},
			{UserID: "b", DisplayName: "Bob", Position: 1},
		},
	}
	v := TableToView(info)
	assert.Equal(t, 20, v.Timeout)
	assert.Equal(t, "waiting", v.Status)
	assert.Equal(t, created.UnixMilli(), v.CreatedAt)
	require.Len(t, v.Players, 2)
	assert.True(t, v.Players[0].Connected)
	assert.False(t, v.Players[0].IsHost)
	assert.True(t, v.Players[1].IsHost)
	assert.False(t, v.Players[1].Connected)
}

func TestGameOverToView(t *testing.T) {
	v := GameOverToView("t1",
		[]blackjack.Standing{{PlayerID: "a", Score: 2}, {PlayerID: "gone", Score: 1}},
		[]string{"a"},
		map[string]string{"a": "Alice"})
	assert.Equal(t, "Alice", v.Standings[0].Username)
	assert.Equal(t, "gone", v.Standings[1].Username)

	empty := GameOverToView("t1", nil, nil, nil)
	assert.NotNil(t, empty.Winners)
}
