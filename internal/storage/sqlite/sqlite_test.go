package sqlite

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/integrity"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ports"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/project"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/tm"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/version"
	"github.com/lia-luong/catty-trans-sub000/internal/clock"
	"github.com/lia-luong/catty-trans-sub000/internal/idgen"
	"github.com/lia-luong/catty-trans-sub000/internal/workspace"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	dir := t.TempDir()
	store, err := New(context.Background(), filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNew_StampsSchemaVersionOnFreshDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "fresh.db")
	store, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	var stamped string
	if err := store.db.QueryRow("SELECT version FROM schema_version").Scan(&stamped); err != nil {
		t.Fatalf("expected a stamped schema_version row: %v", err)
	}
	if stamped != CurrentSchemaVersion {
		t.Fatalf("expected %q, got %q", CurrentSchemaVersion, stamped)
	}
}

func TestNew_RefusesNewerSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "newer.db")
	store, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 'v99.0.0'"); err != nil {
		t.Fatalf("unexpected error bumping version: %v", err)
	}
	store.Close()

	if _, err := New(context.Background(), dbPath); err == nil {
		t.Fatalf("expected New to refuse a database with a newer schema version")
	}
}

func TestSaveAndLoadSnapshot_RoundTrips(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	state := project.ProjectState{
		Project: project.Project{ID: "p1", ClientID: "acme", SourceLanguage: "en", TargetLanguages: []ids.LanguageCode{"fr"}},
		Segments: []project.Segment{
			{ID: "s1", ProjectID: "p1", SourceText: "Hello", SourceLanguage: "en"},
		},
		TargetSegments: []project.TargetSegment{
			{ID: "t1", ProjectID: "p1", SegmentID: "s1", TargetLanguage: "fr", TranslatedText: "Bonjour", Status: project.TargetStatusTranslated},
		},
	}

	err := store.SaveSnapshot(ctx, "p1", ports.SnapshotRecord{
		Snapshot: version.Snapshot{ID: "S1", State: state, CreatedAtEpochMs: 1000},
		StoredChecksum: "abc123",
	})
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	loaded, err := store.LoadVersionedState(ctx, "p1")
	if err != nil {
		t.Fatalf("LoadVersionedState: %v", err)
	}
	if loaded.CurrentSnapshotID != "S1" {
		t.Fatalf("expected CurrentSnapshotID=S1, got %s", loaded.CurrentSnapshotID)
	}
	if !version.StatesEqual(loaded.CurrentState, state) {
		t.Fatalf("loaded state does not match saved state: %+v", loaded.CurrentState)
	}
	if _, ok := loaded.History.Snapshots["S1"]; !ok {
		t.Fatalf("expected S1 present in loaded history")
	}
}

// TestSaveSnapshot_StoresCanonicalBytesChecksumCovers pins the column
// agreement: the state_json bytes on disk are exactly what the stored
// checksum was computed over, and they round-trip as the record's
// SerializedPayload.
func TestSaveSnapshot_StoresCanonicalBytesChecksumCovers(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	state := project.ProjectState{
		Project:  project.Project{ID: "p1", ClientID: "acme", SourceLanguage: "en", TargetLanguages: []ids.LanguageCode{"fr"}},
		Segments: []project.Segment{{ID: "s1", ProjectID: "p1", SourceText: "Hello", SourceLanguage: "en"}},
	}
	payload, err := integrity.SerializeState(state)
	if err != nil {
		t.Fatal(err)
	}
	err = store.SaveSnapshot(ctx, "p1", ports.SnapshotRecord{
		Snapshot:          version.Snapshot{ID: "S1", State: state, CreatedAtEpochMs: 1000},
		SerializedPayload: payload,
		StoredChecksum:    integrity.CalculateSnapshotChecksum(payload),
	})
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	var stateJSON, checksum string
	if err := store.db.QueryRow(`SELECT state_json, checksum FROM snapshots WHERE id = 'S1'`).Scan(&stateJSON, &checksum); err != nil {
		t.Fatalf("reading stored row: %v", err)
	}
	if integrity.CalculateSnapshotChecksum([]byte(stateJSON)) != checksum {
		t.Fatalf("stored checksum does not cover the stored state_json bytes")
	}

	records, err := store.SnapshotRecords(ctx, "p1")
	if err != nil {
		t.Fatalf("SnapshotRecords: %v", err)
	}
	if !bytes.Equal(records["S1"].SerializedPayload, []byte(stateJSON)) {
		t.Fatalf("SerializedPayload does not round-trip the stored bytes")
	}
}

// Tamper with a stored row in a way that still parses as JSON (a trailing
// space): the only defense left is the checksum over the literal stored
// bytes, which VerifyIntegrity must run against.
func TestVerifyIntegrity_ChecksumMismatchOnTamperedRow(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	svc := workspace.New(store, clock.Fixed(1000), idgen.UUID{})

	if _, err := svc.InitProject(ctx, project.Project{
		ID: "p1", ClientID: "acme", SourceLanguage: "en",
		TargetLanguages: []ids.LanguageCode{"fr"}, Status: project.StatusInProgress,
	}); err != nil {
		t.Fatalf("InitProject: %v", err)
	}

	report, err := svc.VerifyIntegrity(ctx, "p1", 2000)
	if err != nil {
		t.Fatalf("VerifyIntegrity before tampering: %v", err)
	}
	if !report.IsSafe {
		t.Fatalf("expected a clean workspace to verify safe, got %+v", report.Issues)
	}

	if _, err := store.db.Exec(`UPDATE snapshots SET state_json = state_json || ' '`); err != nil {
		t.Fatalf("tampering with stored row: %v", err)
	}

	report, err = svc.VerifyIntegrity(ctx, "p1", 3000)
	if err != nil {
		t.Fatalf("VerifyIntegrity after tampering: %v", err)
	}
	if report.IsSafe {
		t.Fatalf("expected tampering with stored bytes to be detected")
	}
	found := false
	for _, issue := range report.Issues {
		if issue.IssueType == integrity.IssueChecksumMismatch && issue.Severity == integrity.SeverityError {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a checksum_mismatch error, got %+v", report.Issues)
	}
}

// A stored payload that no longer parses must come back as a structured
// invalid_json finding in the report, not as a read error that aborts
// verification of the whole project.
func TestVerifyIntegrity_UnparsablePayloadIsReportedNotFatal(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	svc := workspace.New(store, clock.Fixed(1000), idgen.UUID{})

	if _, err := svc.InitProject(ctx, project.Project{
		ID: "p1", ClientID: "acme", SourceLanguage: "en",
		TargetLanguages: []ids.LanguageCode{"fr"}, Status: project.StatusInProgress,
	}); err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	if _, err := store.db.Exec(`UPDATE snapshots SET state_json = 'not json'`); err != nil {
		t.Fatalf("corrupting stored row: %v", err)
	}

	report, err := svc.VerifyIntegrity(ctx, "p1", 3000)
	if err != nil {
		t.Fatalf("expected a structured report for a corrupt row, got error: %v", err)
	}
	if report.IsSafe {
		t.Fatalf("expected a corrupt row to make the report unsafe")
	}
	found := false
	for _, issue := range report.Issues {
		if issue.IssueType == integrity.IssueInvalidJSON && issue.Severity == integrity.SeverityError {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an invalid_json error, got %+v", report.Issues)
	}
}

func TestSaveTMEntry_DuplicateSourceTextRejectedByUniqueConstraint(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	entry := tm.NewTMEntry("Bonjour", "Hello", "acme", "p1", "S1", 1000)
	if err := store.SaveTMEntry(ctx, entry); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := store.SaveTMEntry(ctx, entry); err == nil {
		t.Fatalf("expected the UNIQUE(client_id, source_text) constraint to reject a duplicate")
	}
}

func TestExistingSourceTexts_ReturnsPromotedSet(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	if err := store.SaveTMEntry(ctx, tm.NewTMEntry("Bonjour", "Hello", "acme", "p1", "S1", 1000)); err != nil {
		t.Fatal(err)
	}
	texts, err := store.ExistingSourceTexts(ctx, "acme")
	if err != nil {
		t.Fatalf("ExistingSourceTexts: %v", err)
	}
	if _, ok := texts["Bonjour"]; !ok {
		t.Fatalf("expected Bonjour to be present, got %+v", texts)
	}
}

func TestRunInTransaction_RollsBackOnError(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	testErr := os.ErrInvalid
	err := store.RunInTransaction(ctx, func(tx ports.PersistenceGateway) error {
		if err := tx.SaveTMEntry(ctx, tm.NewTMEntry("x", "y", "acme", "p1", "S1", 1)); err != nil {
			return err
		}
		return testErr
	})
	if err == nil {
		t.Fatalf("expected RunInTransaction to surface the callback error")
	}

	texts, err := store.ExistingSourceTexts(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := texts["x"]; ok {
		t.Fatalf("expected the rolled-back insert to not be visible, got %+v", texts)
	}
}

func TestRunInTransaction_CommitsOnSuccess(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	err := store.RunInTransaction(ctx, func(tx ports.PersistenceGateway) error {
		return tx.SaveTMEntry(ctx, tm.NewTMEntry("x", "y", "acme", "p1", "S1", 1))
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	texts, err := store.ExistingSourceTexts(ctx, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := texts["x"]; !ok {
		t.Fatalf("expected the committed insert to be visible, got %+v", texts)
	}
}
