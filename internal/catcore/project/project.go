// Package project defines the immutable project state model: a Project header,
// its ordered source Segments, and the ordered TargetSegments translating them.
// The only operation the package exposes, ApplyTranslationChange, is a pure
// function: previous state in, next state out, never a mutation.
package project

import (
	"github.com/lia-luong/catty-trans-sub000/internal/catcore/ids"
)

// Status is a Project lifecycle state.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusArchived   Status = "archived"
)

// TargetStatus is the translation status of a TargetSegment.
type TargetStatus string

const (
	TargetStatusDraft      TargetStatus = "draft"
	TargetStatusTranslated TargetStatus = "translated"
	TargetStatusApproved   TargetStatus = "approved"
)

// Project is the header describing a translation project.
type Project struct {
	ID              ids.ProjectID
	ClientID        ids.ClientID
	Name            string
	SourceLanguage  ids.LanguageCode
	TargetLanguages []ids.LanguageCode
	Status          Status
}

// HasTargetLanguage reports whether lang is one of p's configured target
// languages.
func (p Project) HasTargetLanguage(lang ids.LanguageCode) bool {
	for _, l := range p.TargetLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// Segment is one source-language unit of translatable text.
type Segment struct {
	ID                 ids.SegmentID
	ProjectID          ids.ProjectID
	IndexWithinProject int
	SourceText         string
	SourceLanguage     ids.LanguageCode
	IsLocked           bool
}

// TMProvenance names where a TM-driven translation came from: which project
// and snapshot it was copied from. It is carried on a TargetSegment only when
// that translation was populated from translation memory, never inferred.
type TMProvenance struct {
	ProjectID  ids.ProjectID
	SnapshotID ids.SnapshotID
}

// TargetSegment is the translation of a Segment into one target language.
type TargetSegment struct {
	ID             ids.TargetSegmentID
	ProjectID      ids.ProjectID
	SegmentID      ids.SegmentID
	TargetLanguage ids.LanguageCode
	TranslatedText string
	Status         TargetStatus

	// TMProvenance is non-nil only when TranslatedText was populated from a
	// translation-memory insert rather than typed by a translator. The diff
	// engine (package diff) reads this field to attribute a tm_insert cause;
	// it is never set by ApplyTranslationChange itself unless the triggering
	// TranslationChange carries one.
	TMProvenance *TMProvenance
}

// ProjectState is the complete, immutable working state of one project: its
// header plus every source segment and target segment.
type ProjectState struct {
	Project        Project
	Segments       []Segment
	TargetSegments []TargetSegment
}

// TranslationChange describes one proposed edit to a target translation.
type TranslationChange struct {
	ProjectID       ids.ProjectID
	SegmentID       ids.SegmentID
	TargetLanguage  ids.LanguageCode
	NewText         string
	NewStatus       TargetStatus
	TargetSegmentID ids.TargetSegmentID

	// TMProvenance, when non-nil, marks NewText as having been populated from
	// translation memory rather than typed by hand. It is carried onto the
	// resulting TargetSegment unchanged; the core never inspects or
	// validates it.
	TMProvenance *TMProvenance
}

// findSegment returns the index of the segment with the given id, or -1.
func findSegment(segments []Segment, id ids.SegmentID) int {
	for i, s := range segments {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// findTargetSegment returns the index of the target segment matching
// (segmentID, lang), or -1.
func findTargetSegment(targets []TargetSegment, segmentID ids.SegmentID, lang ids.LanguageCode) int {
	for i, t := range targets {
		if t.SegmentID == segmentID && t.TargetLanguage == lang {
			return i
		}
	}
	return -1
}

// ApplyTranslationChange produces the next ProjectState after applying change
// to previous. previous is never mutated.
//
// change is rejected — previous is returned, reference-identical — when:
//   - change.ProjectID does not match previous.Project.ID;
//   - previous.Project.Status is archived;
//   - change.TargetLanguage is not one of the project's target languages;
//   - change.TargetLanguage equals the project's source language;
//   - the referenced source segment does not exist.
//
// Otherwise, if a TargetSegment for (change.SegmentID, change.TargetLanguage)
// already exists, its TranslatedText and Status are updated in a freshly built
// slice. If none exists, a new TargetSegment carrying change.TargetSegmentID is
// appended to a fresh copy. Segments is shared by reference with previous;
// TargetSegments is rebuilt in both cases.
func ApplyTranslationChange(previous ProjectState, change TranslationChange) ProjectState {
	if change.ProjectID != previous.Project.ID {
		return previous
	}
	if previous.Project.Status == StatusArchived {
		return previous
	}
	if !previous.Project.HasTargetLanguage(change.TargetLanguage) {
		return previous
	}
	if change.TargetLanguage == previous.Project.SourceLanguage {
		return previous
	}
	if findSegment(previous.Segments, change.SegmentID) < 0 {
		return previous
	}

	idx := findTargetSegment(previous.TargetSegments, change.SegmentID, change.TargetLanguage)

	if idx >= 0 {
		existing := previous.TargetSegments[idx]
		if existing.TranslatedText == change.NewText && existing.Status == change.NewStatus &&
			provenanceEqual(existing.TMProvenance, change.TMProvenance) {
			// Nothing actually changes; still return a state value (not
			// necessarily the same TargetSegments slice), but it is safe to
			// hand back previous unmodified since no field differs.
			return previous
		}
		updated := make([]TargetSegment, len(previous.TargetSegments))
		copy(updated, previous.TargetSegments)
		updated[idx] = TargetSegment{
			ID:             existing.ID,
			ProjectID:      existing.ProjectID,
			SegmentID:      existing.SegmentID,
			TargetLanguage: existing.TargetLanguage,
			TranslatedText: change.NewText,
			Status:         change.NewStatus,
			TMProvenance:   change.TMProvenance,
		}
		return ProjectState{
			Project:        previous.Project,
			Segments:       previous.Segments,
			TargetSegments: updated,
		}
	}

	appended := make([]TargetSegment, len(previous.TargetSegments), len(previous.TargetSegments)+1)
	copy(appended, previous.TargetSegments)
	appended = append(appended, TargetSegment{
		ID:             change.TargetSegmentID,
		ProjectID:      change.ProjectID,
		SegmentID:      change.SegmentID,
		TargetLanguage: change.TargetLanguage,
		TranslatedText: change.NewText,
		Status:         change.NewStatus,
		TMProvenance:   change.TMProvenance,
	})
	return ProjectState{
		Project:        previous.Project,
		Segments:       previous.Segments,
		TargetSegments: appended,
	}
}

func provenanceEqual(a, b *TMProvenance) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
