package diff

import "strconv"

// MaxSegmentsPerDiff is the largest segment count (on either side of a diff)
// the engine will attempt. Beyond this, ComputeDiff refuses outright rather
// than degrade silently.
const MaxSegmentsPerDiff = 10_000

// MaxChangesReturned bounds how many SegmentDiff entries a single DiffResult
// carries. A project within MaxSegmentsPerDiff can still produce more
// changes than this if most segments changed; the result is truncated and
// marked partial rather than refused.
const MaxChangesReturned = 5_000

// WarnSegmentsThreshold is the project size at which callers should surface
// a soft warning before attempting a diff, well ahead of the hard refusal at
// MaxSegmentsPerDiff.
const WarnSegmentsThreshold = 5_000

// CheckDiffFeasibility reports whether a diff over a project with
// segmentCount segments (on its larger side) can proceed. It never returns
// CompletenessPartial — truncation is decided later, after the changes are
// actually computed.
func CheckDiffFeasibility(segmentCount int) Completeness {
	if segmentCount > MaxSegmentsPerDiff {
		return Completeness{
			Kind:   CompletenessRefused,
			Reason: "project has " + formatThousands(segmentCount) + " segments, which exceeds the limit of " + formatThousands(MaxSegmentsPerDiff) + "; diff refused",
		}
	}
	return Completeness{Kind: CompletenessComplete}
}

// ShouldWarnAboutProjectSize reports whether a project of segmentCount
// segments should carry a soft size warning ahead of diffing: true iff
// segmentCount is strictly above WarnSegmentsThreshold and no greater than
// MaxSegmentsPerDiff. Below the threshold, no warning is needed; above the
// hard limit, CheckDiffFeasibility already refuses outright, so no separate
// warning applies.
func ShouldWarnAboutProjectSize(segmentCount int) bool {
	return segmentCount > WarnSegmentsThreshold && segmentCount <= MaxSegmentsPerDiff
}

// GetProjectSizeWarning returns the warning text for a project of
// segmentCount segments. Callers should only surface it when
// ShouldWarnAboutProjectSize reports true.
func GetProjectSizeWarning(segmentCount int) string {
	return "project has " + formatThousands(segmentCount) + " segments; diffs may be slow and could be truncated at " + formatThousands(MaxChangesReturned) + " changes"
}

// GetPartialDiffExplanation explains a truncated DiffResult: returned is how
// many changes were kept, total is the true count before truncation.
func GetPartialDiffExplanation(returned, total int) string {
	return "showing " + formatThousands(returned) + " of " + formatThousands(total) + " changes; refine the comparison to see the rest"
}

// formatThousands renders n with comma thousands separators (e.g. 12345 ->
// "12,345"). fmt has no built-in for this, and golang.org/x/text's
// message printer is not part of this module's dependency graph, so it is
// done by hand over the decimal digits.
func formatThousands(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var out []byte
	rem := len(s) % 3
	if rem == 0 {
		rem = 3
	}
	out = append(out, s[:rem]...)
	for i := rem; i < len(s); i += 3 {
		out = append(out, ',')
		out = append(out, s[i:i+3]...)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
