//go:build linux

package chatcore

import (
	"errors"
	"testing"
)

// fakeWriter lets table_test exercise Flush/Remove without real sockets.
type fakeWriter struct {
	writes map[int][][]byte
	fail   map[int]bool
	closed map[int]bool
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		writes: make(map[int][][]byte),
		fail:   make(map[int]bool),
		closed: make(map[int]bool),
	}
}

func (f *fakeWriter) Write(fd int, p []byte) (int, error) {
	if f.fail[fd] {
		return 0, errors.New("write failed")
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	f.writes[fd] = append(f.writes[fd], cp)
	return len(p), nil
}

func (f *fakeWriter) Close(fd int) error {
	f.closed[fd] = true
	return nil
}

func newTestTable(listening int) (*ConnectionTable, *fakeWriter) {
	tbl := NewConnectionTable(listening, NewReadinessSet())
	fw := newFakeWriter()
	tbl.io = fw
	return tbl, fw
}

func TestInsertAddsReadableInterestAndUpdatesMaxHandle(t *testing.T) {
	tbl, _ := newTestTable(3)

	if err := tbl.Insert(5); err != nil {
		t.Fatalf("Insert(5) = %v, want nil", err)
	}
	if !tbl.readiness.IsReadable(5) {
		t.Fatalf("handle 5 should be readable-interested after Insert")
	}
	if tbl.readiness.IsWritable(5) {
		t.Fatalf("handle 5 should not be writable-interested before any Enqueue")
	}
	if tbl.MaxHandle() != 5 {
		t.Fatalf("MaxHandle() = %d, want 5", tbl.MaxHandle())
	}
}

func TestInsertRejectsOutOfRangeHandle(t *testing.T) {
	tbl, _ := newTestTable(3)

	if err := tbl.Insert(MaxHandle); err == nil {
		t.Fatalf("Insert(MaxHandle) should fail")
	}
	if tbl.Has(MaxHandle) {
		t.Fatalf("rejected handle must not be present in the table")
	}
}

func TestRemoveRecomputesMaxHandleDownToListeningFloor(t *testing.T) {
	tbl, fw := newTestTable(3)

	_ = tbl.Insert(5)
	_ = tbl.Insert(9)
	_ = tbl.Insert(7)

	tbl.Remove(9)

	if tbl.MaxHandle() != 7 {
		t.Fatalf("MaxHandle() = %d, want 7 after removing the max handle", tbl.MaxHandle())
	}
	if !fw.closed[9] {
		t.Fatalf("Remove must close the underlying socket")
	}

	tbl.Remove(7)
	tbl.Remove(5)

	if tbl.MaxHandle() != 3 {
		t.Fatalf("MaxHandle() = %d, want listening socket floor 3 once all clients are gone", tbl.MaxHandle())
	}
}

func TestBroadcastExcludesSenderAndMarksWritable(t *testing.T) {
	tbl, _ := newTestTable(3)
	_ = tbl.Insert(5)
	_ = tbl.Insert(6)
	_ = tbl.Insert(7)

	tbl.Broadcast(6, []byte("HELLO"))

	if tbl.readiness.IsWritable(6) {
		t.Fatalf("sender must not receive its own broadcast")
	}
	if !tbl.readiness.IsWritable(5) || !tbl.readiness.IsWritable(7) {
		t.Fatalf("every other connection should be writable-interested after Broadcast")
	}
}

func TestFlushDrainsQueueAndClearsWritableInterest(t *testing.T) {
	tbl, fw := newTestTable(3)
	_ = tbl.Insert(5)

	tbl.Enqueue(5, []byte("HI"))
	tbl.Enqueue(5, []byte("THERE"))

	tbl.Flush(5)

	if !tbl.readiness.IsReadable(5) {
		t.Fatalf("Flush must not disturb readability interest on success")
	}
	if tbl.readiness.IsWritable(5) {
		t.Fatalf("writable interest should clear once the FIFO fully drains")
	}
	if len(fw.writes[5]) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(fw.writes[5]))
	}
	if string(fw.writes[5][0]) != "HI" || string(fw.writes[5][1]) != "THERE" {
		t.Fatalf("messages must be written in FIFO order, got %q", fw.writes[5])
	}
}

func TestFlushRemovesConnectionOnWriteError(t *testing.T) {
	tbl, fw := newTestTable(3)
	_ = tbl.Insert(5)
	tbl.Enqueue(5, []byte("HI"))
	fw.fail[5] = true

	tbl.Flush(5)

	if tbl.Has(5) {
		t.Fatalf("a write error must remove the connection")
	}
	if !fw.closed[5] {
		t.Fatalf("a removed connection's socket must be closed")
	}
}

func TestUppercaseASCIIPreservesLengthAndNonASCII(t *testing.T) {
	in := []byte("Hello, Wörld! 123")
	out := UppercaseASCII(in)

	if len(out) != len(in) {
		t.Fatalf("UppercaseASCII must preserve length: got %d, want %d", len(out), len(in))
	}
	if string(out) != "HELLO, WöRLD! 123" {
		t.Fatalf("UppercaseASCII = %q, want ASCII letters uppercased only", out)
	}
}
