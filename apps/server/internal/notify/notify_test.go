package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeDirectory struct {
	conns  []string
	tables map[string][]string
}

func (f *fakeDirectory) Connections() []string { return f.conns }
func (f *fakeDirectory) TableConnections(tableID string) []string {
	return f.tables[tableID]
}

func TestRecipients(t *testing.T) {
	d := &fakeDirectory{
		conns: []string{"c3", "c1", "c2", "c4"},
		tables: map[string][]string{
			"t1": {"c2", "c1", ""},
		},
	}

	assert.Equal(t, []string{"c9"}, Recipients(Client("c9"), d))
	assert.Equal(t, []string{"c1", "c2"}, Recipients(Table("t1"), d))
	assert.Empty(t, Recipients(Table("gone"), d))
	assert.Equal(t, []string{"c1", "c2", "c3", "c4"}, Recipients(Global(), d))
	assert.Empty(t, Recipients(Client(""), d))
}

// Recipients must see the directory as mutated just before the call.
func TestRecipients_ReadsCurrentState(t *testing.T) {
	d := &fakeDirectory{tables: map[string][]string{"t1": {"c1", "c2"}}}
	assert.Len(t, Recipients(Table("t1"), d), 2)

	d.tables["t1"] = []string{"c1"}
	assert.Equal(t, []string{"c1"}, Recipients(Table("t1"), d))
}

func TestScopeKindString(t *testing.T) {
	assert.Equal(t, "table", ScopeTable.String())
	assert.Equal(t, "unknown", ScopeKind(9).String())
}

func TestRecipients_Without(t *testing.T) {
	d := &fakeDirectory{
		conns:  []string{"c1", "c2"},
		tables: map[string][]string{"t1": {"c1", "c2", "c3"}},
	}
	assert.Equal(t, []string{"c1", "c3"}, Recipients(Table("t1").Without("c2"), d))
	assert.Equal(t, []string{"c2"}, Recipients(Global().Without("c1"), d))
}
