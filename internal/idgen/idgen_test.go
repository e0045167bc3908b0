package idgen

import "testing"

func TestUUID_MintsDistinctIDs(t *testing.T) {
	gen := UUID{}
	s1 := gen.NewSnapshotID()
	s2 := gen.NewSnapshotID()
	if s1 == s2 {
		t.Fatalf("expected two calls to mint distinct snapshot IDs, got %q twice", s1)
	}

	t1 := gen.NewTargetSegmentID()
	t2 := gen.NewTargetSegmentID()
	if t1 == t2 {
		t.Fatalf("expected two calls to mint distinct target segment IDs, got %q twice", t1)
	}
}
