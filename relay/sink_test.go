package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/codeloom-io/loom/types"
)

func TestMultiFansOutInOrder(t *testing.T) {
	a := NewStubSink()
	b := NewStubSink()
	m := NewMulti(a, b)

	actions := mkActions(types.ActionWriteFile, types.ActionRunCommand)
	if err := m.ApplyActions(context.Background(), actions); err != nil {
		t.Fatal(err)
	}

	if a.ActionsApplied != 2 || b.ActionsApplied != 2 {
		t.Errorf("applied = %d/%d, want 2/2", a.ActionsApplied, b.ActionsApplied)
	}
}

func TestMultiStopsAtFirstFailure(t *testing.T) {
	a := NewStubSink()
	a.ErrorOnApply = errors.New("first sink down")
	b := NewStubSink()
	m := NewMulti(a, b)

	err := m.ApplyActions(context.Background(), mkActions(types.ActionWriteFile))
	if err == nil {
		t.Fatal("ApplyActions() succeeded with failing sink")
	}
	if b.Batches != 0 {
		t.Error("later sink saw the batch after an earlier failure")
	}
}

func TestMultiCloseClosesAll(t *testing.T) {
	a := NewStubSink()
	b := NewStubSink()
	m := NewMulti(a, b)

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if !a.Closed || !b.Closed {
		t.Errorf("closed = %v/%v, want true/true", a.Closed, b.Closed)
	}
}
