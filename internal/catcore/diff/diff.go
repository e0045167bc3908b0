// Package diff implements the linguistic diff engine: deterministic change
// detection between two ProjectStates, with cause attribution that is always
// explicit and never inferred from content, and bounded-resource degradation
// (refusal or truncation) when a project exceeds the engine's declared
// limits.
package diff

import (
	"sort"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/project"
)

// ChangeType classifies how a (segmentID, targetLanguage) pair differs
// between the "from" and "to" states.
type ChangeType string

const (
	ChangeCreated   ChangeType = "created"
	ChangeModified  ChangeType = "modified"
	ChangeDeleted   ChangeType = "deleted"
	ChangeUnchanged ChangeType = "unchanged"
)

// ChangeCause is the engine's explanation for why a change happened. It is
// never inferred from textual content — only the presence of an explicit
// upstream signal (TM provenance) produces anything other than unknown.
type ChangeCause string

const (
	CauseUnknown    ChangeCause = "unknown"
	CauseTMInsert   ChangeCause = "tm_insert"
	CauseManualEdit ChangeCause = "manual_edit"
)

// TMProvenance names where a TM-driven translation came from. It is the same
// type project.TargetSegment carries, so provenance read off project state
// flows into a diff without any conversion.
type TMProvenance = project.TMProvenance

// SegmentDiffInput is the "before" or "after" side of a SegmentDiff.
type SegmentDiffInput struct {
	TranslatedText string
	Status         project.TargetStatus
	TargetLanguage ids.LanguageCode
	TMProvenance   *TMProvenance
}

// semanticallyEqual compares TranslatedText, Status, and TargetLanguage only;
// TMProvenance never participates in equality.
func semanticallyEqual(a, b SegmentDiffInput) bool {
	return a.TranslatedText == b.TranslatedText && a.Status == b.Status && a.TargetLanguage == b.TargetLanguage
}

// TMAttribution is populated on a SegmentDiff if and only if Cause is
// CauseTMInsert.
type TMAttribution struct {
	SourceProjectID  ids.ProjectID
	SourceSnapshotID ids.SnapshotID
}

// SegmentDiff is one unit of change for a (segmentID, targetLanguage) pair.
type SegmentDiff struct {
	SegmentID     ids.SegmentID
	ChangeType    ChangeType
	Cause         ChangeCause
	Before        *SegmentDiffInput
	After         *SegmentDiffInput
	SourceText    string
	TMAttribution *TMAttribution
}

// DiffUnit is the tagged union of possible diff entries. Only SegmentDiff is
// produced today; TermDiff is reserved for future terminology-diffing
// support and is never emitted by ComputeDiff.
type DiffUnit struct {
	Segment *SegmentDiff
	Term    *TermDiff
}

// TermDiff is reserved for future terminology-level diffing.
type TermDiff struct {
	TermID ids.TermID
}

// Summary counts the changes actually returned in a DiffResult, after any
// truncation — never the pre-truncation total.
type Summary struct {
	Created   int
	Modified  int
	Deleted   int
	Unchanged int
}

// CompletenessKind tags a DiffResult as complete, truncated, or refused.
type CompletenessKind string

const (
	CompletenessComplete CompletenessKind = "complete"
	CompletenessPartial  CompletenessKind = "partial"
	CompletenessRefused  CompletenessKind = "refused"
)

// Completeness describes how much of the true diff a DiffResult carries.
type Completeness struct {
	Kind         CompletenessKind
	TruncatedAt  int    // only meaningful when Kind == CompletenessPartial
	Reason       string // set for CompletenessPartial and CompletenessRefused
}

// DiffResult is the full outcome of ComputeDiff.
type DiffResult struct {
	FromSnapshotID               ids.SnapshotID
	ToSnapshotID                 ids.SnapshotID
	Changes                      []DiffUnit
	Summary                      Summary
	Completeness                 Completeness
	TotalChangesBeforeTruncation int // only meaningful when Completeness.Kind == CompletenessPartial
}

type pairKey struct {
	SegmentID      ids.SegmentID
	TargetLanguage ids.LanguageCode
}

func inputFrom(t project.TargetSegment, prov *TMProvenance) SegmentDiffInput {
	return SegmentDiffInput{
		TranslatedText: t.TranslatedText,
		Status:         t.Status,
		TargetLanguage: t.TargetLanguage,
		TMProvenance:   prov,
	}
}

func indexTargets(targets []project.TargetSegment) map[pairKey]project.TargetSegment {
	out := make(map[pairKey]project.TargetSegment, len(targets))
	for _, t := range targets {
		out[pairKey{SegmentID: t.SegmentID, TargetLanguage: t.TargetLanguage}] = t
	}
	return out
}

func sourceTextFor(state project.ProjectState, segmentID ids.SegmentID) string {
	for _, s := range state.Segments {
		if s.ID == segmentID {
			return s.SourceText
		}
	}
	return ""
}

// ComputeDiff computes the linguistic diff between from and to, identified by
// fromID and toID for the purpose of the returned DiffResult only (they are
// never used to look anything up).
//
// For every (segmentID, targetLanguage) pair appearing in either state's
// target segments, exactly one SegmentDiff is produced. Iteration order is
// lexicographic on the composite key, so repeated calls with identical
// inputs produce byte-identical output (required for audit replay).
//
// Resource policy: if the larger of the two states' segment counts exceeds
// MaxSegmentsPerDiff, the result is refused with an empty change list and a
// zeroed summary. Otherwise every change is computed; if the result would
// exceed MaxChangesReturned, it is truncated to that many changes and marked
// partial, with TotalChangesBeforeTruncation recording the true count.
func ComputeDiff(from, to project.ProjectState, fromID, toID ids.SnapshotID) DiffResult {
	largerSegmentCount := len(from.Segments)
	if len(to.Segments) > largerSegmentCount {
		largerSegmentCount = len(to.Segments)
	}

	if feasibility := CheckDiffFeasibility(largerSegmentCount); feasibility.Kind == CompletenessRefused {
		return DiffResult{
			FromSnapshotID: fromID,
			ToSnapshotID:   toID,
			Changes:        nil,
			Summary:        Summary{},
			Completeness:   feasibility,
		}
	}

	fromIdx := indexTargets(from.TargetSegments)
	toIdx := indexTargets(to.TargetSegments)

	keySet := make(map[pairKey]struct{}, len(fromIdx)+len(toIdx))
	for k := range fromIdx {
		keySet[k] = struct{}{}
	}
	for k := range toIdx {
		keySet[k] = struct{}{}
	}

	keys := make([]pairKey, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SegmentID != keys[j].SegmentID {
			return keys[i].SegmentID < keys[j].SegmentID
		}
		return keys[i].TargetLanguage < keys[j].TargetLanguage
	})

	all := make([]SegmentDiff, 0, len(keys))
	summary := Summary{}

	for _, k := range keys {
		fromTarget, hasFrom := fromIdx[k]
		toTarget, hasTo := toIdx[k]

		sourceText := sourceTextFor(to, k.SegmentID)
		if !hasSourceSegment(to, k.SegmentID) {
			sourceText = sourceTextFor(from, k.SegmentID)
		}

		sd := SegmentDiff{
			SegmentID:  k.SegmentID,
			SourceText: sourceText,
		}

		switch {
		case !hasFrom && hasTo:
			after := inputFrom(toTarget, toTarget.TMProvenance)
			sd.ChangeType = ChangeCreated
			sd.After = &after
			sd.Cause, sd.TMAttribution = attributeCause(nil, &after)
			summary.Created++

		case hasFrom && !hasTo:
			before := inputFrom(fromTarget, fromTarget.TMProvenance)
			sd.ChangeType = ChangeDeleted
			sd.Before = &before
			sd.Cause = CauseUnknown
			summary.Deleted++

		case hasFrom && hasTo:
			before := inputFrom(fromTarget, fromTarget.TMProvenance)
			after := inputFrom(toTarget, toTarget.TMProvenance)
			sd.Before = &before
			sd.After = &after
			if semanticallyEqual(before, after) {
				sd.ChangeType = ChangeUnchanged
				sd.Cause = CauseUnknown
				summary.Unchanged++
			} else {
				sd.ChangeType = ChangeModified
				sd.Cause, sd.TMAttribution = attributeCause(&before, &after)
				summary.Modified++
			}

		default:
			// Unreachable: k was drawn from the union of fromIdx/toIdx keys.
			continue
		}

		all = append(all, sd)
	}

	changes := make([]DiffUnit, len(all))
	for i := range all {
		sd := all[i]
		changes[i] = DiffUnit{Segment: &sd}
	}

	totalBeforeTruncation := len(changes)
	completeness := Completeness{Kind: CompletenessComplete}

	if len(changes) > MaxChangesReturned {
		truncated := changes[:MaxChangesReturned]
		summary = recount(truncated)
		return DiffResult{
			FromSnapshotID: fromID,
			ToSnapshotID:   toID,
			Changes:        truncated,
			Summary:        summary,
			Completeness: Completeness{
				Kind:        CompletenessPartial,
				TruncatedAt: len(truncated),
				Reason:      GetPartialDiffExplanation(len(truncated), totalBeforeTruncation),
			},
			TotalChangesBeforeTruncation: totalBeforeTruncation,
		}
	}

	return DiffResult{
		FromSnapshotID: fromID,
		ToSnapshotID:   toID,
		Changes:        changes,
		Summary:        summary,
		Completeness:   completeness,
	}
}

func recount(changes []DiffUnit) Summary {
	var s Summary
	for _, c := range changes {
		if c.Segment == nil {
			continue
		}
		switch c.Segment.ChangeType {
		case ChangeCreated:
			s.Created++
		case ChangeModified:
			s.Modified++
		case ChangeDeleted:
			s.Deleted++
		case ChangeUnchanged:
			s.Unchanged++
		}
	}
	return s
}

func hasSourceSegment(state project.ProjectState, segmentID ids.SegmentID) bool {
	for _, s := range state.Segments {
		if s.ID == segmentID {
			return true
		}
	}
	return false
}

// attributeCause assigns a cause: created or modified changes whose "after"
// carries TM provenance are attributed to tm_insert, with TMAttribution
// populated from that provenance; everything else is unknown. Content is
// never inspected to guess a cause.
func attributeCause(before, after *SegmentDiffInput) (ChangeCause, *TMAttribution) {
	if after != nil && after.TMProvenance != nil {
		return CauseTMInsert, &TMAttribution{
			SourceProjectID:  after.TMProvenance.ProjectID,
			SourceSnapshotID: after.TMProvenance.SnapshotID,
		}
	}
	return CauseUnknown, nil
}

// ExplainChangeCause returns a short, jargon-free sentence for cause. The
// sentence for CauseUnknown never uses the words "error", "failed",
// "missing", or "corrupted", and always mentions provenance.
func ExplainChangeCause(cause ChangeCause) string {
	switch cause {
	case CauseTMInsert:
		return "This translation was inserted from translation memory; its provenance is recorded."
	case CauseManualEdit:
		return "This translation was entered manually by a translator."
	case CauseUnknown:
		fallthrough
	default:
		return "No provenance was recorded for this change, so its origin is not tracked."
	}
}
