package workspace

import (
	"context"
	"fmt"
	"testing"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ports"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/project"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/tm"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/version"
	"github.com/lia-luong/catty-trans-sub000/internal/clock"
	"github.com/lia-luong/catty-trans-sub000/internal/idgen"
	"github.com/lia-luong/catty-trans-sub000/internal/storage/memory"
)

func newTestService() *Service {
	return New(memory.New(), clock.Fixed(1000), idgen.UUID{})
}

func demoProject() project.Project {
	return project.Project{
		ID:              "p1",
		ClientID:        "client-acme",
		Name:            "Demo",
		SourceLanguage:  "en",
		TargetLanguages: []ids.LanguageCode{"fr"},
		Status:          project.StatusInProgress,
	}
}

// Three sequential commits, then rollback to the first, with forward history
// still intact.
func TestRollbackRestoresEarlierSnapshotWithHistoryIntact(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if _, err := svc.InitProject(ctx, demoProject()); err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	if _, err := svc.AddSegment(ctx, "p1", project.Segment{ID: "s1", ProjectID: "p1", IndexWithinProject: 0, SourceText: "Hello", SourceLanguage: "en"}); err != nil {
		t.Fatalf("AddSegment: %v", err)
	}

	v1, err := svc.ApplyAndCommit(ctx, "p1", project.TranslationChange{
		ProjectID: "p1", SegmentID: "s1", TargetLanguage: "fr",
		NewText: "Bonjour", NewStatus: project.TargetStatusTranslated, TargetSegmentID: "t1",
	}, "S1", "first draft")
	if err != nil {
		t.Fatalf("commit S1: %v", err)
	}

	if _, err := svc.ApplyAndCommit(ctx, "p1", project.TranslationChange{
		ProjectID: "p1", SegmentID: "s1", TargetLanguage: "fr",
		NewText: "Bonjour le monde", NewStatus: project.TargetStatusApproved, TargetSegmentID: "t1",
	}, "S2", "approved"); err != nil {
		t.Fatalf("commit S2: %v", err)
	}

	if _, err := svc.ApplyAndCommit(ctx, "p1", project.TranslationChange{
		ProjectID: "p1", SegmentID: "s1", TargetLanguage: "fr",
		NewText: "Salut", NewStatus: project.TargetStatusDraft, TargetSegmentID: "t1",
	}, "S3", "casual rewrite"); err != nil {
		t.Fatalf("commit S3: %v", err)
	}

	back, err := svc.Rollback(ctx, "p1", "S1")
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if back.CurrentState.TargetSegments[0].TranslatedText != v1.CurrentState.TargetSegments[0].TranslatedText {
		t.Fatalf("expected rollback to restore S1's exact translated text, got %q want %q",
			back.CurrentState.TargetSegments[0].TranslatedText, v1.CurrentState.TargetSegments[0].TranslatedText)
	}
	if len(back.History.Snapshots) != 5 { // init + add-segment + S1 + S2 + S3
		t.Fatalf("expected forward history to remain intact, got %d snapshots", len(back.History.Snapshots))
	}
}

func TestPromoteToTM_CrossClientBlocked(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	target := project.TargetSegment{ProjectID: "p1", TranslatedText: "Bonjour", Status: project.TargetStatusTranslated}
	promoCtx := tm.PromotionContext{
		SnapshotID:     "S1",
		Project:        demoProject(),
		SourceSegment:  project.Segment{SourceText: "Hello"},
		TargetClientID: "client-globex",
	}

	decision, err := svc.PromoteToTM(ctx, target, promoCtx, "Bonjour")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Allowed {
		t.Fatal("expected promotion to be denied across clients")
	}
	if decision.RequiresExplicitOverride {
		t.Fatal("cross-client denial must never be overridable")
	}
}

// seedProjectWithTranslations stores a single snapshot for projectID whose
// state carries one translated French target segment per source text.
func seedProjectWithTranslations(t *testing.T, store *memory.Storage, projectID ids.ProjectID, clientID ids.ClientID, texts []string) {
	t.Helper()
	segs := make([]project.Segment, len(texts))
	targets := make([]project.TargetSegment, len(texts))
	for i, txt := range texts {
		segID := ids.SegmentID(fmt.Sprintf("%s-seg-%d", projectID, i))
		segs[i] = project.Segment{ID: segID, ProjectID: projectID, IndexWithinProject: i, SourceText: txt, SourceLanguage: "en"}
		targets[i] = project.TargetSegment{
			ID:             ids.TargetSegmentID(fmt.Sprintf("%s-t-%d", projectID, i)),
			ProjectID:      projectID,
			SegmentID:      segID,
			TargetLanguage: "fr",
			TranslatedText: "fr: " + txt,
			Status:         project.TargetStatusTranslated,
		}
	}
	state := project.ProjectState{
		Project: project.Project{
			ID:              projectID,
			ClientID:        clientID,
			SourceLanguage:  "en",
			TargetLanguages: []ids.LanguageCode{"fr"},
			Status:          project.StatusInProgress,
		},
		Segments:       segs,
		TargetSegments: targets,
	}
	err := store.SaveSnapshot(context.Background(), projectID, ports.SnapshotRecord{
		Snapshot: version.Snapshot{ID: ids.SnapshotID("snap-" + string(projectID)), State: state, CreatedAtEpochMs: 1},
	})
	if err != nil {
		t.Fatalf("seeding project %s: %v", projectID, err)
	}
}

// 200 entries all insert on the first run; a second batch re-using 195 of
// the source texts plus 5 new ones inserts only the 5, skipping the
// duplicates.
func TestBulkPromote_DuplicateBulkPromotion(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, clock.Fixed(1000), idgen.UUID{})

	first := make([]string, 200)
	for i := range first {
		first[i] = fmt.Sprintf("Source sentence %d.", i)
	}
	seedProjectWithTranslations(t, store, "p1", "client-acme", first)

	report, err := svc.BulkPromote(ctx, "p1", "fr", false)
	if err != nil {
		t.Fatalf("first BulkPromote: %v", err)
	}
	if report.Inserted != 200 || report.Skipped != 0 || report.Failed != 0 {
		t.Fatalf("expected {200 0 0} on first run, got %+v", report)
	}

	second := make([]string, 200)
	copy(second, first[:195])
	for i := 195; i < 200; i++ {
		second[i] = fmt.Sprintf("Brand new sentence %d.", i)
	}
	seedProjectWithTranslations(t, store, "p2", "client-acme", second)

	report, err = svc.BulkPromote(ctx, "p2", "fr", false)
	if err != nil {
		t.Fatalf("second BulkPromote: %v", err)
	}
	if report.Inserted != 5 || report.Skipped != 195 || report.Failed != 0 {
		t.Fatalf("expected {5 195 0} on duplicate-heavy rerun, got %+v", report)
	}
}

func TestVerifyIntegrity_HealthyAfterInit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	if _, err := svc.InitProject(ctx, demoProject()); err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	report, err := svc.VerifyIntegrity(ctx, "p1", 5000)
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if !report.IsSafe {
		t.Fatalf("expected a freshly initialized project to verify safe, got %+v", report.Issues)
	}
}
