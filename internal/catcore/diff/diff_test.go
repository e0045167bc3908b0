package diff

import (
	"strconv"
	"strings"
	"testing"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/project"
)

func stateWith(targets ...project.TargetSegment) project.ProjectState {
	return project.ProjectState{
		Project: project.Project{ID: "p1"},
		Segments: []project.Segment{
			{ID: "s1", ProjectID: "p1", SourceText: "Hello"},
		},
		TargetSegments: targets,
	}
}

func TestComputeDiff_IdempotentOnIdenticalStates(t *testing.T) {
	s := stateWith(project.TargetSegment{ID: "t1", ProjectID: "p1", SegmentID: "s1", TargetLanguage: "fr", TranslatedText: "Bonjour"})
	r1 := ComputeDiff(s, s, "S1", "S1")
	r2 := ComputeDiff(s, s, "S1", "S1")
	if r1.Summary.Modified != 0 || r1.Summary.Created != 0 || r1.Summary.Deleted != 0 {
		t.Fatalf("expected no changes for identical states, got %+v", r1.Summary)
	}
	if r1.Summary.Unchanged != 1 {
		t.Fatalf("expected 1 unchanged, got %+v", r1.Summary)
	}
	if r1.Summary != r2.Summary || len(r1.Changes) != len(r2.Changes) {
		t.Fatalf("expected deterministic repeat call, got %+v vs %+v", r1, r2)
	}
}

func TestComputeDiff_CreatedDeletedAreSwapSymmetric(t *testing.T) {
	empty := stateWith()
	withOne := stateWith(project.TargetSegment{ID: "t1", ProjectID: "p1", SegmentID: "s1", TargetLanguage: "fr", TranslatedText: "Bonjour"})

	created := ComputeDiff(empty, withOne, "S0", "S1")
	if created.Summary.Created != 1 || created.Summary.Deleted != 0 {
		t.Fatalf("expected 1 created, got %+v", created.Summary)
	}
	if created.Changes[0].Segment.ChangeType != ChangeCreated {
		t.Fatalf("expected ChangeCreated, got %v", created.Changes[0].Segment.ChangeType)
	}

	deleted := ComputeDiff(withOne, empty, "S1", "S0")
	if deleted.Summary.Deleted != 1 || deleted.Summary.Created != 0 {
		t.Fatalf("expected 1 deleted, got %+v", deleted.Summary)
	}
	if deleted.Changes[0].Segment.ChangeType != ChangeDeleted {
		t.Fatalf("expected ChangeDeleted, got %v", deleted.Changes[0].Segment.ChangeType)
	}
}

func TestComputeDiff_NoProvenanceIsUnknown(t *testing.T) {
	before := stateWith(project.TargetSegment{ID: "t1", ProjectID: "p1", SegmentID: "s1", TargetLanguage: "fr", TranslatedText: "Bonjour"})
	after := stateWith(project.TargetSegment{ID: "t1", ProjectID: "p1", SegmentID: "s1", TargetLanguage: "fr", TranslatedText: "Bonjour le monde"})

	result := ComputeDiff(before, after, "S1", "S2")
	if result.Summary.Modified != 1 {
		t.Fatalf("expected 1 modified, got %+v", result.Summary)
	}
	sd := result.Changes[0].Segment
	if sd.Cause != CauseUnknown {
		t.Fatalf("expected CauseUnknown without provenance, got %v", sd.Cause)
	}
	if sd.TMAttribution != nil {
		t.Fatalf("expected no TMAttribution without provenance, got %+v", sd.TMAttribution)
	}
	explanation := ExplainChangeCause(sd.Cause)
	for _, bad := range []string{"error", "failed", "missing", "corrupted"} {
		if strings.Contains(explanation, bad) {
			t.Fatalf("explanation must not use jargon word %q: %q", bad, explanation)
		}
	}
	if !strings.Contains(explanation, "provenance") {
		t.Fatalf("expected explanation to mention provenance, got %q", explanation)
	}
}

func TestComputeDiff_WithProvenanceAttributesTMInsert(t *testing.T) {
	before := stateWith(project.TargetSegment{ID: "t1", ProjectID: "p1", SegmentID: "s1", TargetLanguage: "fr", TranslatedText: ""})
	prov := &project.TMProvenance{ProjectID: "p-source", SnapshotID: "S-source"}
	after := stateWith(project.TargetSegment{
		ID: "t1", ProjectID: "p1", SegmentID: "s1", TargetLanguage: "fr",
		TranslatedText: "Bonjour", TMProvenance: prov,
	})

	result := ComputeDiff(before, after, "S1", "S2")
	sd := result.Changes[0].Segment
	if sd.Cause != CauseTMInsert {
		t.Fatalf("expected CauseTMInsert, got %v", sd.Cause)
	}
	if sd.TMAttribution == nil || sd.TMAttribution.SourceProjectID != "p-source" || sd.TMAttribution.SourceSnapshotID != "S-source" {
		t.Fatalf("expected TMAttribution to carry the source project/snapshot, got %+v", sd.TMAttribution)
	}
}

func TestComputeDiff_RefusesBeyondMaxSegments(t *testing.T) {
	segs := make([]project.Segment, MaxSegmentsPerDiff+1)
	for i := range segs {
		segs[i] = project.Segment{ID: ids.SegmentID("s" + strconv.Itoa(i)), ProjectID: "p1"}
	}
	big := project.ProjectState{Project: project.Project{ID: "p1"}, Segments: segs}

	result := ComputeDiff(big, big, "S1", "S1")
	if result.Completeness.Kind != CompletenessRefused {
		t.Fatalf("expected refusal beyond MaxSegmentsPerDiff, got %+v", result.Completeness)
	}
	if len(result.Changes) != 0 {
		t.Fatalf("expected no changes on refusal, got %d", len(result.Changes))
	}
	if !strings.Contains(result.Completeness.Reason, formatThousands(MaxSegmentsPerDiff+1)) || !strings.Contains(result.Completeness.Reason, formatThousands(MaxSegmentsPerDiff)) {
		t.Fatalf("expected refusal reason to name both counts, got %q", result.Completeness.Reason)
	}
}

func TestComputeDiff_ExactlyMaxSegmentsIsAccepted(t *testing.T) {
	segs := make([]project.Segment, MaxSegmentsPerDiff)
	for i := range segs {
		segs[i] = project.Segment{ID: ids.SegmentID("s" + strconv.Itoa(i)), ProjectID: "p1"}
	}
	big := project.ProjectState{Project: project.Project{ID: "p1"}, Segments: segs}

	result := ComputeDiff(big, big, "S1", "S1")
	if result.Completeness.Kind == CompletenessRefused {
		t.Fatalf("expected exactly MaxSegmentsPerDiff to be accepted, got refused: %+v", result.Completeness)
	}
}

func TestComputeDiff_TruncatesBeyondMaxChangesReturned(t *testing.T) {
	n := MaxChangesReturned + 1
	fromTargets := make([]project.TargetSegment, n)
	toTargets := make([]project.TargetSegment, n)
	segs := make([]project.Segment, n)
	for i := 0; i < n; i++ {
		segID := ids.SegmentID("s" + strconv.Itoa(i))
		segs[i] = project.Segment{ID: segID, ProjectID: "p1"}
		fromTargets[i] = project.TargetSegment{ID: ids.TargetSegmentID("t" + strconv.Itoa(i)), ProjectID: "p1", SegmentID: segID, TargetLanguage: "fr", TranslatedText: "a"}
		toTargets[i] = project.TargetSegment{ID: ids.TargetSegmentID("t" + strconv.Itoa(i)), ProjectID: "p1", SegmentID: segID, TargetLanguage: "fr", TranslatedText: "b"}
	}
	from := project.ProjectState{Project: project.Project{ID: "p1"}, Segments: segs, TargetSegments: fromTargets}
	to := project.ProjectState{Project: project.Project{ID: "p1"}, Segments: segs, TargetSegments: toTargets}

	result := ComputeDiff(from, to, "S1", "S2")
	if result.Completeness.Kind != CompletenessPartial {
		t.Fatalf("expected partial completeness beyond MaxChangesReturned, got %+v", result.Completeness)
	}
	if len(result.Changes) != MaxChangesReturned {
		t.Fatalf("expected exactly %d changes returned, got %d", MaxChangesReturned, len(result.Changes))
	}
	if result.TotalChangesBeforeTruncation != n {
		t.Fatalf("expected TotalChangesBeforeTruncation=%d, got %d", n, result.TotalChangesBeforeTruncation)
	}
}

func TestComputeDiff_ExactlyMaxChangesReturnedIsComplete(t *testing.T) {
	n := MaxChangesReturned
	fromTargets := make([]project.TargetSegment, n)
	toTargets := make([]project.TargetSegment, n)
	segs := make([]project.Segment, n)
	for i := 0; i < n; i++ {
		segID := ids.SegmentID("s" + strconv.Itoa(i))
		segs[i] = project.Segment{ID: segID, ProjectID: "p1"}
		fromTargets[i] = project.TargetSegment{ID: ids.TargetSegmentID("t" + strconv.Itoa(i)), ProjectID: "p1", SegmentID: segID, TargetLanguage: "fr", TranslatedText: "a"}
		toTargets[i] = project.TargetSegment{ID: ids.TargetSegmentID("t" + strconv.Itoa(i)), ProjectID: "p1", SegmentID: segID, TargetLanguage: "fr", TranslatedText: "b"}
	}
	from := project.ProjectState{Project: project.Project{ID: "p1"}, Segments: segs, TargetSegments: fromTargets}
	to := project.ProjectState{Project: project.Project{ID: "p1"}, Segments: segs, TargetSegments: toTargets}

	result := ComputeDiff(from, to, "S1", "S2")
	if result.Completeness.Kind != CompletenessComplete {
		t.Fatalf("expected complete at exactly MaxChangesReturned, got %+v", result.Completeness)
	}
	if len(result.Changes) != n {
		t.Fatalf("expected %d changes, got %d", n, len(result.Changes))
	}
}
