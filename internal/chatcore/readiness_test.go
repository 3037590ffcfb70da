//go:build linux

package chatcore

import "testing"

func TestReadinessSetSnapshotIsACopy(t *testing.T) {
	r := NewReadinessSet()
	r.AddReadable(5)

	snap, _ := r.Snapshot()
	if !fdIsSet(&snap, 5) {
		t.Fatalf("snapshot should reflect interest set at capture time")
	}

	r.AddReadable(6)
	if fdIsSet(&snap, 6) {
		t.Fatalf("snapshot must not observe changes made after it was taken")
	}
	if !r.IsReadable(6) {
		t.Fatalf("the live set should still observe the later change")
	}
}

func TestReadableWritableIndependence(t *testing.T) {
	r := NewReadinessSet()
	r.AddReadable(5)

	if r.IsWritable(5) {
		t.Fatalf("adding readability interest must not imply writability interest")
	}

	r.AddWritable(5)
	r.RemoveReadable(5)

	if !r.IsWritable(5) {
		t.Fatalf("clearing readability interest must not clear writability interest")
	}
}
