package codec

import (
	"time"

	"blackjack-lite/apps/server/internal/chat"
	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/apps/server/internal/presence"
	"blackjack-lite/blackjack"
	"blackjack-lite/card"
)

type CardView struct {
	Rank   int    `json:"rank,omitempty"`
	Suit   string `json:"suit,omitempty"`
	Label  string `json:"label,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

func CardToView(c card.Card) CardView {
	return CardView{Rank: int(c.Rank()), Suit: c.Suit().Name(), Label: c.String()}
}

func cardsToView(cards []card.Card) []CardView {
	out := make([]CardView, 0, len(cards))
	for _, c := range cards {
		out = append(out, CardToView(c))
	}
	return out
}

type SeatView struct {
	PlayerID    string `json:"playerId"`
	Username    string `json:"username"`
	Position    int    `json:"position"`
	Connected   bool   `json:"connected"`
	RoundStatus string `json:"roundStatus"`
	IsHost      bool   `json:"isHost"`
}

type TableView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	HostID      string     `json:"hostId"`
	MaxPlayers  int        `json:"maxPlayers"`
	Rounds      int        `json:"rounds"`
	Timeout     int        `json:"timeout"`
	Level       string     `json:"level"`
	HasPassword bool       `json:"hasPassword"`
	Status      string     `json:"status"`
	Players     []SeatView `json:"players"`
	CreatedAt   int64      `json:"createdAt"`
}

func SeatToView(s lobby.Seat, hostID string) SeatView {
	return SeatView{
		PlayerID:    s.UserID,
		Username:    s.DisplayName,
		Position:    s.Position,
		Connected:   s.ConnectionID != "",
		RoundStatus: s.RoundStatus.String(),
		IsHost:      s.UserID == hostID,
	}
}

func TableToView(t lobby.TableInfo) TableView {
	v := TableView{
		ID:          t.ID,
		Name:        t.Name,
		HostID:      t.HostUserID,
		MaxPlayers:  t.MaxSeats,
		Rounds:      t.TotalRounds,
		Timeout:     int(t.TurnTimeout / time.Second),
		Level:       t.SkillLevel,
		HasPassword: t.HasPassword,
		Status:      string(t.Status),
		Players:     make([]SeatView, 0, len(t.Seats)),
		CreatedAt:   t.CreatedAt.UnixMilli(),
	}
	for _, s := range t.Seats {
		v.Players = append(v.Players, SeatToView(s, t.HostUserID))
	}
	return v
}

func TablesToView(tables []lobby.TableInfo) []TableView {
	out := make([]TableView, 0, len(tables))
	for _, t := range tables {
		out = append(out, TableToView(t))
	}
	return out
}

type IdentityView struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Status       string `json:"status"`
	LastActiveAt int64  `json:"lastActiveAt"`
}

func IdentitiesToView(ids []presence.Identity) []IdentityView {
	out := make([]IdentityView, 0, len(ids))
	for _, id := range ids {
		out = append(out, IdentityView{
			ID:           id.UserID,
			Username:     id.DisplayName,
			Status:       string(id.Status),
			LastActiveAt: id.LastActiveAt.UnixMilli(),
		})
	}
	return out
}

type ChatView struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
	TableID    string `json:"tableId,omitempty"`
}

func ChatToView(tableID string, m chat.Message) ChatView {
	return ChatView{
		ID:         m.ID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Message:    m.Body,
		Timestamp:  m.Timestamp.UnixMilli(),
		TableID:    tableID,
	}
}

func ChatHistoryToView(tableID string, msgs []chat.Message) []ChatView {
	out := make([]ChatView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ChatToView(tableID, m))
	}
	return out
}

type HandView struct {
	PlayerID string     `json:"playerId"`
	Position int        `json:"position"`
	Status   string     `json:"status"`
	Cards    []CardView `json:"cards"`
	Value    int        `json:"value"`
	Score    float64    `json:"score"`
}

type DealerView struct {
	Cards []CardView `json:"cards"`
	// Value is only the visible total while the hole card is hidden.
	Value int  `json:"value"`
	Bust  bool `json:"bust,omitempty"`
}

type RoundView struct {
	TableID         string     `json:"tableId"`
	Round           int        `json:"round"`
	TotalRounds     int        `json:"totalRounds"`
	Phase           string     `json:"phase"`
	CurrentPlayerID string     `json:"currentPlayerId,omitempty"`
	TurnIndex       int        `json:"turnIndex"`
	Finished        bool       `json:"finished"`
	DeckRemaining   int        `json:"deckRemaining"`
	Dealer          DealerView `json:"dealer"`
	Hands           []HandView `json:"hands"`
}

// RoundToView builds the client round snapshot. While seats are still
// acting the dealer's first card is sent face down.
func RoundToView(tableID string, s blackjack.Snapshot) RoundView {
	v := RoundView{
		TableID:         tableID,
		Round:           s.Round,
		TotalRounds:     s.TotalRounds,
		Phase:           s.Phase.String(),
		CurrentPlayerID: s.CurrentPlayerID(),
		TurnIndex:       s.Turn,
		Finished:        s.Finished,
		DeckRemaining:   s.DeckRemaining,
		Hands:           make([]HandView, 0, len(s.Players)),
	}

	hideHole := s.Phase == blackjack.PhaseAwaitingTurn || s.Phase == blackjack.PhaseDealing
	if hideHole && len(s.Dealer) > 0 {
		v.Dealer.Cards = append([]CardView{{Hidden: true}}, cardsToView(s.Dealer[1:])...)
		v.Dealer.Value = blackjack.HandValue(s.Dealer[1:])
	} else {
		v.Dealer.Cards = cardsToView(s.Dealer)
		v.Dealer.Value = s.DealerValue
		v.Dealer.Bust = s.DealerValue > blackjack.BlackjackValue
	}

	for _, p := range s.Players {
		v.Hands = append(v.Hands, HandView{
			PlayerID: p.ID,
			Position: p.Position,
			Status:   p.Status.String(),
			Cards:    cardsToView(p.Cards),
			Value:    p.Value,
			Score:    p.Score,
		})
	}
	return v
}

type SeatResultView struct {
	PlayerID string  `json:"playerId"`
	Position int     `json:"position"`
	Value    int     `json:"value"`
	Outcome  string  `json:"outcome"`
	Points   float64 `json:"points"`
	Score    float64 `json:"score"`
}

type RoundSettledView struct {
	TableID     string           `json:"tableId"`
	RoundNumber int              `json:"roundNumber"`
	Dealer      DealerView       `json:"dealer"`
	Results     []SeatResultView `json:"results"`
	GameOver    bool             `json:"gameOver"`
}

func SettlementToView(tableID string, r *blackjack.SettlementResult) RoundSettledView {
	v := RoundSettledView{
		TableID:     tableID,
		RoundNumber: r.Round,
		Dealer: DealerView{
			Cards: cardsToView(r.DealerCards),
			Value: r.DealerValue,
			Bust:  r.DealerBust,
		},
		Results:  make([]SeatResultView, 0, len(r.Seats)),
		GameOver: r.GameOver,
	}
	for _, s := range r.Seats {
		v.Results = append(v.Results, SeatResultView{
			PlayerID: s.PlayerID,
			Position: s.Position,
			Value:    s.Value,
			Outcome:  string(s.Outcome),
			Points:   s.Points,
			Score:    s.Total,
		})
	}
	return v
}

type StandingView struct {
	PlayerID string  `json:"playerId"`
	Username string  `json:"username"`
	Score    float64 `json:"score"`
}

type GameOverView struct {
	TableID   string         `json:"tableId"`
	Standings []StandingView `json:"standings"`
	Winners   []string       `json:"winners"`
}

// GameOverToView resolves display names through names; unknown ids keep
// the id as name.
func GameOverToView(tableID string, standings []blackjack.Standing, winners []string, names map[string]string) GameOverView {
	v := GameOverView{TableID: tableID, Winners: winners, Standings: make([]StandingView, 0, len(standings))}
	if v.Winners == nil {
		v.Winners = []string{}
	}
	for _, s := range standings {
		name, ok := names[s.PlayerID]
		if !ok {
			name = s.PlayerID
		}
		v.Standings = append(v.Standings, StandingView{PlayerID: s.PlayerID, Username: name, Score: s.Score})
	}
	return v
}

// Event payloads that carry more than a single view.

type PlayerEvent struct {
	TableID string   `json:"tableId"`
	Player  SeatView `json:"player"`
}

type TableJoinedEvent struct {
	Table   TableView  `json:"table"`
	Round   *RoundView `json:"round,omitempty"`
	History []ChatView `json:"history"`
}

type GameStateEvent struct {
	Self        IdentityView   `json:"self"`
	Tables      []TableView    `json:"tables"`
	OnlineUsers []IdentityView `json:"onlineUsers"`
	History     []ChatView     `json:"history"`
	// Table and Round are set when the identity still holds a seat.
	Table *TableView `json:"table,omitempty"`
	Round *RoundView `json:"round,omitempty"`
}

type GameActionEvent struct {
	TableID   string `json:"tableId"`
	Action    string `json:"action"`
	PlayerID  string `json:"playerId"`
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
	// Auto is set when the action was taken by the turn timer.
	Auto bool `json:"auto,omitempty"`
}

type TurnChangedEvent struct {
	TableID    string `json:"tableId"`
	PlayerID   string `json:"playerId"`
	Position   int    `json:"position"`
	DeadlineMs int64  `json:"deadlineMs"`
}

type DealerCardEvent struct {
	TableID   string   `json:"tableId"`
	Card      CardView `json:"card"`
	HandValue int      `json:"handValue"`
}

type HostChangedEvent struct {
	TableID string `json:"tableId"`
	HostID  string `json:"hostId"`
}

type ErrorEvent struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
