// Package notify decides which connections receive an outgoing event.
package notify

import "sort"

type ScopeKind uint8

const (
	// ScopeClient targets a single connection.
	ScopeClient ScopeKind = iota
	// ScopeTable targets every seat holder of a table.
	ScopeTable
	// ScopeGlobal targets every live connection.
	ScopeGlobal
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeClient:
		return "client"
	case ScopeTable:
		return "table"
	case ScopeGlobal:
		return "global"
	default:
		return "unknown"
	}
}

type Scope struct {
	Kind    ScopeKind
	ConnID  string
	TableID string
	// Except drops one connection from the resolved set.
	Except string
}

func Client(connID string) Scope { return Scope{Kind: ScopeClient, ConnID: connID} }
func Table(tableID string) Scope { return Scope{Kind: ScopeTable, TableID: tableID} }
func Global() Scope { return Scope{Kind: ScopeGlobal} }
func (s Scope) Without(connID string) Scope { s.Except = connID; return s }

// Directory exposes the live state recipients are resolved against.
type Directory interface {
	// Connections lists every live connection.
	Connections() []string
	// TableConnections lists live connections seated at tableID.
	TableConnections(tableID string) []string
}

// Recipients resolves s against the directory as it is right now. The
// result is sorted and free of duplicates and empty ids.
func Recipients(s Scope, d Directory) []string {
	var ids []string
	switch s.Kind {
	case ScopeClient:
		ids = []string{s.ConnID}
	case ScopeTable:
		ids = d.TableConnections(s.TableID)
	case ScopeGlobal:
		ids = d.Connections()
	}
	return dedupe(ids, s.Except)
}

func dedupe(ids []string, except string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == except {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
