package search

import "sync/atomic"

// Ticket identifies one issued search. Later tickets compare greater.
type Ticket uint64

// Tracker hands out tickets and decides which finished search may still be
// shown: only the most recently issued one. Superseded searches are left to
// finish and their results dropped.
//
// A Tracker belongs to whoever issues searches (one per search box); it is
// safe for concurrent use and must not be copied after first use.
type Tracker struct {
	last atomic.Uint64
}

// Issue returns a fresh ticket, superseding every earlier one.
func (t *Tracker) Issue() Ticket {
	return Ticket(t.last.Add(1))
}

// Latest reports whether tk is still the most recent ticket.
func (t *Tracker) Latest(tk Ticket) bool {
	return uint64(tk) == t.last.Load()
}
