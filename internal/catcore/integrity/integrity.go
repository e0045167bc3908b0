// Package integrity verifies that persisted snapshot records have not
// silently drifted from what their stored checksum, their claimed project,
// and the domain invariants say they should be. It never repairs anything:
// every finding is reported, never auto-corrected, and no write is ever
// issued during verification.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/project"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/version"
)

// canonicalTarget is the sorted, flattened wire shape of one TargetSegment
// inside a canonicalState. Map iteration order is never relied on; the slice
// is always produced pre-sorted by (segmentID, targetLanguage).
type canonicalTarget struct {
	ID             ids.TargetSegmentID
	SegmentID      ids.SegmentID
	TargetLanguage ids.LanguageCode
	TranslatedText string
	Status         project.TargetStatus
	TMProjectID    ids.ProjectID
	TMSnapshotID   ids.SnapshotID
}

// canonicalState is the deterministic, json.Marshal-ready shape a
// ProjectState is converted into before hashing or persisting. Field order
// here is fixed by Go struct declaration order, which encoding/json always
// honors, so two independently-built but field-equal states always encode
// to the same bytes.
type canonicalState struct {
	ProjectID       ids.ProjectID
	ClientID        ids.ClientID
	Name            string
	SourceLanguage  ids.LanguageCode
	TargetLanguages []ids.LanguageCode
	Status          project.Status
	Segments        []project.Segment
	Targets         []canonicalTarget
}

func toCanonicalState(s project.ProjectState) canonicalState {
	targets := make([]canonicalTarget, len(s.TargetSegments))
	for i, t := range s.TargetSegments {
		ct := canonicalTarget{
			ID:             t.ID,
			SegmentID:      t.SegmentID,
			TargetLanguage: t.TargetLanguage,
			TranslatedText: t.TranslatedText,
			Status:         t.Status,
		}
		if t.TMProvenance != nil {
			ct.TMProjectID = t.TMProvenance.ProjectID
			ct.TMSnapshotID = t.TMProvenance.SnapshotID
		}
		targets[i] = ct
	}
	sort.Slice(targets, func(i, j int) bool {
		if targets[i].SegmentID != targets[j].SegmentID {
			return targets[i].SegmentID < targets[j].SegmentID
		}
		return targets[i].TargetLanguage < targets[j].TargetLanguage
	})

	segments := make([]project.Segment, len(s.Segments))
	copy(segments, s.Segments)
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].IndexWithinProject < segments[j].IndexWithinProject
	})

	return canonicalState{
		ProjectID:       s.Project.ID,
		ClientID:        s.Project.ClientID,
		Name:            s.Project.Name,
		SourceLanguage:  s.Project.SourceLanguage,
		TargetLanguages: s.Project.TargetLanguages,
		Status:          s.Project.Status,
		Segments:        segments,
		Targets:         targets,
	}
}

func fromCanonicalState(cs canonicalState) project.ProjectState {
	targets := make([]project.TargetSegment, len(cs.Targets))
	for i, ct := range cs.Targets {
		t := project.TargetSegment{
			ID:             ct.ID,
			ProjectID:      cs.ProjectID,
			SegmentID:      ct.SegmentID,
			TargetLanguage: ct.TargetLanguage,
			TranslatedText: ct.TranslatedText,
			Status:         ct.Status,
		}
		if ct.TMProjectID != "" || ct.TMSnapshotID != "" {
			t.TMProvenance = &project.TMProvenance{ProjectID: ct.TMProjectID, SnapshotID: ct.TMSnapshotID}
		}
		targets[i] = t
	}
	return project.ProjectState{
		Project: project.Project{
			ID:              cs.ProjectID,
			ClientID:        cs.ClientID,
			Name:            cs.Name,
			SourceLanguage:  cs.SourceLanguage,
			TargetLanguages: cs.TargetLanguages,
			Status:          cs.Status,
		},
		Segments:       cs.Segments,
		TargetSegments: targets,
	}
}

// SerializeState renders state into the canonical byte form the integrity
// kernel hashes and the persistence adapter stores. It is the sole source of
// truth for the exact bytes a checksum covers; any adapter computing its own
// checksum over a different encoding will not agree with this package.
func SerializeState(state project.ProjectState) ([]byte, error) {
	return json.Marshal(toCanonicalState(state))
}

// DeserializeState parses bytes produced by SerializeState back into a
// ProjectState. Invalid JSON, or a field of the wrong JSON type, yields an
// error; callers in this package turn that into an invalid_json
// IntegrityIssue rather than propagating it. Unknown fields are ignored, so
// well-formed JSON of another shape parses without error.
func DeserializeState(serialized []byte) (project.ProjectState, error) {
	var cs canonicalState
	if err := json.Unmarshal(serialized, &cs); err != nil {
		return project.ProjectState{}, err
	}
	return fromCanonicalState(cs), nil
}

// CalculateSnapshotChecksum returns the hex-encoded SHA-256 digest of
// serialized — the exact bytes a persistence adapter stored, ordinarily
// produced by SerializeState. Hashing a byte string can never fail; there is
// no error return.
func CalculateSnapshotChecksum(serialized []byte) string {
	sum := sha256.Sum256(serialized)
	return hex.EncodeToString(sum[:])
}

// IssueType classifies one integrity violation. The vocabulary is fixed;
// report consumers switch on it exhaustively.
type IssueType string

const (
	IssueChecksumMismatch     IssueType = "checksum_mismatch"
	IssueMissingPayload       IssueType = "missing_payload"
	IssueOrphanedNoProject    IssueType = "orphaned_no_project"
	IssueOrphanedNotInHistory IssueType = "orphaned_not_in_history"
	IssueInvalidJSON          IssueType = "invalid_json"
	IssueDomainInvariant      IssueType = "domain_invariant_violation"
)

// Severity distinguishes findings that block trust (error) from ones that
// merely note a loose end (warning). Warnings never flip IsSafe to false.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IntegrityIssue is one concrete finding against one record.
type IntegrityIssue struct {
	SnapshotID ids.SnapshotID
	IssueType  IssueType
	Severity   Severity
	Message    string
	Details    map[string]string
}

// IntegrityReport is the complete outcome of VerifySnapshotIntegrity.
// IsSafe is the single signal callers should act on: true iff no issue
// carries SeverityError. Warnings are informational only.
type IntegrityReport struct {
	ProjectID         ids.ProjectID
	VerifiedAtEpochMs int64
	TotalSnapshots    int
	Issues            []IntegrityIssue
	IsSafe            bool
}

// PersistedRecord is one row a persistence adapter handed the integrity
// kernel for verification: the serialized payload it stored for a snapshot,
// the checksum it recorded alongside that payload (if any), and the project
// the adapter believes the record belongs to.
type PersistedRecord struct {
	SnapshotID        ids.SnapshotID
	ProjectID         ids.ProjectID
	SerializedPayload []byte
	StoredChecksum    string
}

// VerifySnapshotIntegrity runs six per-record checks, in order, against
// every record in records, and assembles the resulting report. No record is
// auto-repaired and no write is issued.
//
//  1. Project existence: record.ProjectID must equal projectID, else
//     orphaned_no_project (error); checking continues regardless.
//  2. Payload non-empty, else missing_payload (error); remaining checks for
//     this record stop.
//  3. If record.StoredChecksum is present (non-empty after trim), recompute
//     over the payload and compare; mismatch is checksum_mismatch (error);
//     checking continues.
//  4. Parse the payload; failure is invalid_json (error); remaining checks
//     for this record stop.
//  5. Domain invariants against projectID: the parsed state's project ID
//     must match; every segment and target segment must carry projectID;
//     every target segment's language must be one of the parsed project's
//     target languages and differ from its source language. Each violation
//     is its own domain_invariant_violation (error).
//  6. Presence of record.SnapshotID in versionedState.History.Snapshots,
//     else orphaned_not_in_history (warning) — informational only.
func VerifySnapshotIntegrity(records []PersistedRecord, projectID ids.ProjectID, versionedState version.VersionedState, verifiedAtEpochMs int64) IntegrityReport {
	var issues []IntegrityIssue

	for _, rec := range records {
		if rec.ProjectID != projectID {
			issues = append(issues, IntegrityIssue{
				SnapshotID: rec.SnapshotID,
				IssueType:  IssueOrphanedNoProject,
				Severity:   SeverityError,
				Message:    "record claims a project other than the one being verified",
				Details:    map[string]string{"recordProjectID": string(rec.ProjectID), "expectedProjectID": string(projectID)},
			})
		}

		if len(rec.SerializedPayload) == 0 {
			issues = append(issues, IntegrityIssue{
				SnapshotID: rec.SnapshotID,
				IssueType:  IssueMissingPayload,
				Severity:   SeverityError,
				Message:    "stored record has no serialized payload",
			})
			continue
		}

		if trimmed := strings.TrimSpace(rec.StoredChecksum); trimmed != "" {
			recomputed := CalculateSnapshotChecksum(rec.SerializedPayload)
			if recomputed != trimmed {
				issues = append(issues, IntegrityIssue{
					SnapshotID: rec.SnapshotID,
					IssueType:  IssueChecksumMismatch,
					Severity:   SeverityError,
					Message:    "recomputed checksum does not match the stored value",
					Details:    map[string]string{"expected": trimmed, "actual": recomputed},
				})
			}
		}

		state, err := DeserializeState(rec.SerializedPayload)
		if err != nil {
			issues = append(issues, IntegrityIssue{
				SnapshotID: rec.SnapshotID,
				IssueType:  IssueInvalidJSON,
				Severity:   SeverityError,
				Message:    "stored payload could not be parsed",
				Details:    map[string]string{"error": err.Error()},
			})
			continue
		}

		issues = append(issues, domainInvariantIssues(rec.SnapshotID, projectID, state)...)

		if _, ok := versionedState.History.Snapshots[rec.SnapshotID]; !ok {
			issues = append(issues, IntegrityIssue{
				SnapshotID: rec.SnapshotID,
				IssueType:  IssueOrphanedNotInHistory,
				Severity:   SeverityWarning,
				Message:    "record is not referenced by the in-memory history graph",
			})
		}
	}

	isSafe := true
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			isSafe = false
			break
		}
	}

	return IntegrityReport{
		ProjectID:         projectID,
		VerifiedAtEpochMs: verifiedAtEpochMs,
		TotalSnapshots:    len(records),
		Issues:            issues,
		IsSafe:            isSafe,
	}
}

func domainInvariantIssues(snapshotID ids.SnapshotID, projectID ids.ProjectID, state project.ProjectState) []IntegrityIssue {
	var issues []IntegrityIssue

	if state.Project.ID != projectID {
		issues = append(issues, IntegrityIssue{
			SnapshotID: snapshotID,
			IssueType:  IssueDomainInvariant,
			Severity:   SeverityError,
			Message:    "parsed state's project ID does not match the record's project",
			Details:    map[string]string{"stateProjectID": string(state.Project.ID), "expectedProjectID": string(projectID)},
		})
	}

	for _, seg := range state.Segments {
		if seg.ProjectID != projectID {
			issues = append(issues, IntegrityIssue{
				SnapshotID: snapshotID,
				IssueType:  IssueDomainInvariant,
				Severity:   SeverityError,
				Message:    "segment does not carry the record's project ID",
				Details:    map[string]string{"segmentID": string(seg.ID)},
			})
		}
	}

	for _, t := range state.TargetSegments {
		if t.ProjectID != projectID {
			issues = append(issues, IntegrityIssue{
				SnapshotID: snapshotID,
				IssueType:  IssueDomainInvariant,
				Severity:   SeverityError,
				Message:    "target segment does not carry the record's project ID",
				Details:    map[string]string{"targetSegmentID": string(t.ID)},
			})
		}
		if t.TargetLanguage == state.Project.SourceLanguage {
			issues = append(issues, IntegrityIssue{
				SnapshotID: snapshotID,
				IssueType:  IssueDomainInvariant,
				Severity:   SeverityError,
				Message:    "target segment's language equals the project's source language",
				Details:    map[string]string{"targetSegmentID": string(t.ID)},
			})
			continue
		}
		if !state.Project.HasTargetLanguage(t.TargetLanguage) {
			issues = append(issues, IntegrityIssue{
				SnapshotID: snapshotID,
				IssueType:  IssueDomainInvariant,
				Severity:   SeverityError,
				Message:    "target segment's language is not one of the project's configured target languages",
				Details:    map[string]string{"targetSegmentID": string(t.ID), "targetLanguage": string(t.TargetLanguage)},
			})
		}
	}

	return issues
}
