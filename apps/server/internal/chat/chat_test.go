package chat

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestHistory_EvictsOldestFirst(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Append(Message{ID: fmt.Sprint(i)})
	}
	msgs := h.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "2", msgs[0].ID)
	assert.Equal(t, "4", msgs[2].ID)
}

func TestRelay_DefaultCap(t *testing.T) {
	r := NewRelay(0)
	for i := 0; i < DefaultHistoryCap+10; i++ {
		_, err := r.PostGlobal("u1", "alice", fmt.Sprintf("msg %d", i), now)
		require.NoError(t, err)
	}
	msgs := r.Global()
	require.Len(t, msgs, DefaultHistoryCap)
	assert.Equal(t, "msg 10", msgs[0].Body)
}

func TestRelay_TableScoped(t *testing.T) {
	r := NewRelay(10)
	m, err := r.PostTable("t1", "u1", "alice", "  hi all  ", now)
	require.NoError(t, err)
	assert.Equal(t, "hi all", m.Body)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, now, m.Timestamp)

	assert.Len(t, r.Table("t1"), 1)
	assert.Empty(t, r.Table("t2"))
	assert.Empty(t, r.Global())

	r.DropTable("t1")
	assert.Empty(t, r.Table("t1"))
}

func TestRelay_RejectsEmpty(t *testing.T) {
	r := NewRelay(10)
	_, err := r.PostGlobal("u1", "alice", "   ", now)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, r.Global())
}

func TestRelay_TruncatesLongBodies(t *testing.T) {
	r := NewRelay(10)
	m, err := r.PostGlobal("u1", "alice", strings.Repeat("é", maxBodyRunes+20), now)
	require.NoError(t, err)
	assert.Equal(t, maxBodyRunes, len([]rune(m.Body)))
}
