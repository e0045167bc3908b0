// Package ids defines the opaque identifier and language-code types shared by
// every layer of the translation core. Each ID space is a distinct Go type so the
// compiler rejects passing a SegmentID where a ProjectID is expected, even though
// every one of them is, at runtime, just a string.
//
// The core never generates, parses, or inspects the contents of an ID. Callers
// (the CLI harness, tests, a persistence adapter) are the only source of IDs.
package ids

// ClientID identifies the client a project belongs to.
type ClientID string

// ClientScope wraps a ClientID to make client-scoped operations (TM promotion,
// cross-client isolation checks) type-distinct from generic client-ID handling.
type ClientScope struct {
	Client ClientID
}

// ProjectID identifies a Project.
type ProjectID string

// SegmentID identifies a source Segment.
type SegmentID string

// TargetSegmentID identifies a TargetSegment.
type TargetSegmentID string

// SnapshotID identifies a committed Snapshot.
type SnapshotID string

// TermID identifies a terminology entry (reserved for future TermDiff support).
type TermID string

// LanguageCode is an opaque language identifier. The core imposes only equality
// and set-membership semantics on it; it never parses subtags or scripts.
type LanguageCode string
