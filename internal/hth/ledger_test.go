package hth

import "testing"

func TestUnseenPairIsZero(t *testing.T) {
	l := NewLedger()
	if l.Wins("A", "B") != 0 || l.Diff("A", "B") != 0 {
		t.Error("fresh ledger should read zero")
	}
}

func TestRecordIsDirectional(t *testing.T) {
	l := NewLedger()
	l.Record("A", "B")
	l.Record("A", "B")
	l.Record("B", "A")
	l.Record("A", "C")

	if got := l.Wins("A", "B"); got != 2 {
		t.Errorf("Wins(A,B): want 2, got %d", got)
	}
	if got := l.Wins("B", "A"); got != 1 {
		t.Errorf("Wins(B,A): want 1, got %d", got)
	}
	if got := l.Diff("A", "B"); got != 1 {
		t.Errorf("Diff(A,B): want 1, got %d", got)
	}
	if got := l.Diff("B", "A"); got != -1 {
		t.Errorf("Diff(B,A): want -1, got %d", got)
	}
	if got := l.Diff("B", "C"); got != 0 {
		t.Errorf("Diff(B,C): want 0, got %d", got)
	}
	if l.Len() != 4 {
		t.Errorf("Len: want 4, got %d", l.Len())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	l := NewLedger()
	l.Record("A", "B")
	c := l.Clone()
	c.Record("A", "B")
	if l.Wins("A", "B") != 1 || c.Wins("A", "B") != 2 {
		t.Errorf("clone shares state: orig=%d clone=%d", l.Wins("A", "B"), c.Wins("A", "B"))
	}
}
