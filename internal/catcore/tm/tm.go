// Package tm defines the Translation-Memory value types and the pure
// promotion guard: the first-match rule chain deciding whether a translated
// segment may be promoted into a client's TM. The guard never queries a
// store; every fact it needs (existing source texts, the owning project, an
// optional target client scope) is supplied by the caller in a
// PromotionContext.
package tm

import (
	"strings"

	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/project"
)

// TMEntry is an immutable Translation-Memory record. Any correction to an
// entry is modeled as a brand new TMEntry with fresh provenance; the core
// never updates or deletes one.
type TMEntry struct {
	SourceText string
	TargetText string
	ClientID   ids.ClientID
	ProjectID  ids.ProjectID
	SnapshotID ids.SnapshotID
	CreatedAt  int64
}

// NewTMEntry assembles a TMEntry from its parts. It performs no validation
// and issues no I/O — it exists purely so every caller builds the struct the
// same way; canPromoteSegment remains the only gate before persistence.
func NewTMEntry(sourceText, targetText string, clientID ids.ClientID, projectID ids.ProjectID, snapshotID ids.SnapshotID, createdAt int64) TMEntry {
	return TMEntry{
		SourceText: sourceText,
		TargetText: targetText,
		ClientID:   clientID,
		ProjectID:  projectID,
		SnapshotID: snapshotID,
		CreatedAt:  createdAt,
	}
}

// PromotionContext carries every fact canPromoteSegment needs that is not
// already on the TargetSegment itself.
type PromotionContext struct {
	// SnapshotID must be supplied (non-empty after trim) as provenance for the
	// promotion.
	SnapshotID ids.SnapshotID

	// Project is the owning project of the segment being promoted.
	Project project.Project

	// SourceSegment is the source segment the target segment translates.
	SourceSegment project.Segment

	// TargetClientID, if non-empty, is the client the caller intends to
	// promote into. It must equal Project.ClientID or the promotion is
	// denied — and never overridable, protecting against cross-client IP
	// leakage.
	TargetClientID ids.ClientID

	// ExistingSourceTexts, if non-nil, is the set of source texts already
	// present in the target TM scope. Presence of SourceSegment.SourceText in
	// this set denies the promotion as a duplicate (overridable).
	ExistingSourceTexts map[string]struct{}

	// IsAdHoc flags a rush/one-off project whose segments do not auto-promote
	// without an explicit override.
	IsAdHoc bool
}

// PromotionDecision is the first-class outcome of canPromoteSegment: never an
// error, never silent.
type PromotionDecision struct {
	Allowed                  bool
	Reason                   string
	RequiresExplicitOverride bool
}

func deny(reason string, overridable bool) PromotionDecision {
	return PromotionDecision{Allowed: false, Reason: reason, RequiresExplicitOverride: overridable}
}

// CanPromoteSegment evaluates the promotion rules against target and ctx, in
// first-match order:
//
//  1. ctx.SnapshotID must be non-empty after trim — deny "provenance
//     required", not overridable.
//  2. ctx.Project.Status must not be archived — deny "archived", not
//     overridable.
//  3. target.TranslatedText must be non-empty after trim — deny
//     "empty translation", not overridable.
//  4. target.ProjectID must equal ctx.Project.ID — deny
//     "segment/project mismatch", not overridable.
//  5. If ctx.TargetClientID is supplied, it must equal ctx.Project.ClientID —
//     deny "cross-client IP protection", NOT overridable.
//  6. If ctx.ExistingSourceTexts is supplied, ctx.SourceSegment.SourceText
//     must not be a member — deny "duplicate entry", overridable.
//  7. ctx.IsAdHoc must be false — deny "ad-hoc quarantine", overridable.
//
// If every rule passes, the decision allows with RequiresExplicitOverride
// false.
func CanPromoteSegment(target project.TargetSegment, ctx PromotionContext) PromotionDecision {
	if strings.TrimSpace(string(ctx.SnapshotID)) == "" {
		return deny("provenance required", false)
	}
	if ctx.Project.Status == project.StatusArchived {
		return deny("archived", false)
	}
	if strings.TrimSpace(target.TranslatedText) == "" {
		return deny("empty translation", false)
	}
	if target.ProjectID != ctx.Project.ID {
		return deny("segment/project mismatch", false)
	}
	if ctx.TargetClientID != "" && ctx.TargetClientID != ctx.Project.ClientID {
		return deny("cross-client IP protection", false)
	}
	if ctx.ExistingSourceTexts != nil {
		if _, duplicate := ctx.ExistingSourceTexts[ctx.SourceSegment.SourceText]; duplicate {
			return deny("duplicate entry", true)
		}
	}
	if ctx.IsAdHoc {
		return deny("ad-hoc quarantine", true)
	}
	return PromotionDecision{Allowed: true, Reason: "all promotion rules passed", RequiresExplicitOverride: false}
}
