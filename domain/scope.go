package domain

// ScopeColumn is an ownership column shared by tickets and principal rows.
type ScopeColumn string

const (
	ScopeAgentID       ScopeColumn = "agent_id"
	ScopeSupervisor1ID ScopeColumn = "supervisor1_id"
	ScopeSupervisor2ID ScopeColumn = "supervisor2_id"
	ScopeSubsystemID   ScopeColumn = "subsystem_id"
)

type predicateKind int

const (
	predicateNone predicateKind = iota
	predicateAll
	predicateIn
)

// Predicate restricts a ticket or agent query to the rows a principal may
// access. The zero value matches nothing.
type Predicate struct {
	kind   predicateKind
	column ScopeColumn
	ids    []uint
}

func AllRows() Predicate {
	return Predicate{kind: predicateAll}
}

func NoRows() Predicate {
	return Predicate{}
}

// ColumnEquals matches rows whose column equals id. A zero id matches nothing.
func ColumnEquals(column ScopeColumn, id uint) Predicate {
	if id == 0 {
		return NoRows()
	}
	return Predicate{kind: predicateIn, column: column, ids: []uint{id}}
}

// ColumnIn matches rows whose column is one of ids. An empty set matches nothing.
func ColumnIn(column ScopeColumn, ids []uint) Predicate {
	filtered := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == 0 {
		return NoRows()
	}
	return Predicate{kind: predicateIn, column: column, ids: filtered}
}

func (p Predicate) Unrestricted() bool { return p.kind == predicateAll }

func (p Predicate) MatchesNothing() bool { return p.kind == predicateNone }

// Column and IDs describe a restricting predicate for query builders.
func (p Predicate) Column() ScopeColumn { return p.column }

func (p Predicate) IDs() []uint {
	out := make([]uint, len(p.ids))
	copy(out, p.ids)
	return out
}

func (p Predicate) matches(value uint) bool {
	switch p.kind {
	case predicateAll:
		return true
	case predicateIn:
		for _, id := range p.ids {
			if id == value {
				return true
			}
		}
	}
	return false
}

// MatchesTicket evaluates the predicate against a ticket row.
func (p Predicate) MatchesTicket(t Ticket) bool {
	if p.kind == predicateAll {
		return true
	}
	switch p.column {
	case ScopeAgentID:
		return p.matches(t.AgentID)
	default:
		return p.matches(t.Ancestry.value(p.column))
	}
}

// MatchesAgent evaluates the predicate against an agent row, where
// agent_id is the row's own id.
func (p Predicate) MatchesAgent(a Principal) bool {
	if p.kind == predicateAll {
		return true
	}
	switch p.column {
	case ScopeAgentID:
		return p.matches(a.ID)
	default:
		return p.matches(a.Ancestry.value(p.column))
	}
}

func (a Ancestry) value(column ScopeColumn) uint {
	switch column {
	case ScopeSupervisor1ID:
		return a.Supervisor1ID
	case ScopeSupervisor2ID:
		return a.Supervisor2ID
	case ScopeSubsystemID:
		return a.SubsystemID
	default:
		return 0
	}
}
