// Package hth keeps the running head-to-head win tally between team pairs
// while history is replayed.
package hth

// pair is an ordered (winner, loser) key.
type pair struct {
	x, y string
}

// Ledger counts, for each ordered pair (x, y), how many times x has beaten y
// in the matches recorded so far. Pairs never recorded read as zero.
//
// A Ledger is a single-writer accumulator: during a replay it must be read
// for a match (Wins, Diff) before that match's result is recorded, and
// matches must be recorded in chronological order.
type Ledger struct {
	wins    map[pair]int
	records int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{wins: make(map[pair]int)}
}

// Wins returns x's wins over y so far.
func (l *Ledger) Wins(x, y string) int {
	return l.wins[pair{x, y}]
}

// Diff returns Wins(a, b) - Wins(b, a): positive favours a.
func (l *Ledger) Diff(a, b string) int {
	return l.Wins(a, b) - l.Wins(b, a)
}

// Record increments winner's tally over loser by one.
func (l *Ledger) Record(winner, loser string) {
	l.wins[pair{winner, loser}]++
	l.records++
}

// Len returns the number of results recorded.
func (l *Ledger) Len() int { return l.records }

// Clone returns an independent copy.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{wins: make(map[pair]int, len(l.wins)), records: l.records}
	for k, v := range l.wins {
		c.wins[k] = v
	}
	return c
}
