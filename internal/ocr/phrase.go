package ocr

import (
	"sort"
	"strings"

	"github.com/dotscramble/redact/internal/region"
)

// MatchOptions controls how OCR words are matched against a target phrase.
type MatchOptions struct {
	// ConfidenceThreshold is the minimum OCR confidence (0-100) for a word
	// to be considered. Zero means DefaultConfidenceThreshold.
	ConfidenceThreshold int

	// CaseSensitive matches the phrase with exact case when true.
	CaseSensitive bool

	// ExactMatch requires whole-word equality instead of partial matching.
	ExactMatch bool
}

// Matching and grouping constants. The grouping tolerances are heuristics
// inherited from manual calibration on screenshots, not derived from font
// metrics; treat them as tunable, not canonical.
const (
	// DefaultConfidenceThreshold is the default OCR confidence floor.
	DefaultConfidenceThreshold = 30

	// groupMaxGap is the largest horizontal distance, in pixels, between a
	// group's seed and another word for the two to be merged into one
	// phrase box. Tolerant of wide spacing across a whole phrase.
	groupMaxGap = 3 * 50

	// groupPadding/wordPadding grow the final boxes for better coverage.
	groupPadding = 10
	wordPadding  = 8

	// minBoxSize drops degenerate boxes after clamping.
	minBoxSize = 5
)

func (o MatchOptions) threshold() int {
	if o.ConfidenceThreshold <= 0 {
		return DefaultConfidenceThreshold
	}
	return o.ConfidenceThreshold
}

// FindPhrase searches OCR words for a target phrase and returns the boxes
// to redact, in image coordinates, clamped to a width×height image.
//
// Single-word phrases match each word independently: by equality under
// ExactMatch, by substring containment otherwise. Multi-word phrases match
// a word when it equals one of the phrase's words, or, when not exact,
// when either string is a prefix of the other and the recognized word is at
// most twice the target word's length (so "Remind" does not loosely match
// arbitrarily long words like "Reminders!!!" beyond that ratio).
//
// When several words matched a multi-word phrase, same-line horizontally
// adjacent matches are merged into phrase-level boxes (see groupBoxes).
// Otherwise each match becomes its own padded box.
//
// An empty or whitespace-only phrase yields no boxes. Zero matches yield an
// empty, non-nil-error result: "not found" is the caller's call to judge.
func FindPhrase(words []Word, phrase string, opts MatchOptions, width, height int) []region.Box {
	target := strings.TrimSpace(phrase)
	if target == "" {
		return nil
	}
	if !opts.CaseSensitive {
		target = strings.ToLower(target)
	}
	targetWords := strings.Fields(target)

	var matched []Word
	for _, w := range words {
		if w.Confidence < opts.threshold() {
			continue
		}
		text := w.Text
		if !opts.CaseSensitive {
			text = strings.ToLower(text)
		}
		if matchesTarget(text, target, targetWords, opts.ExactMatch) {
			matched = append(matched, w)
		}
	}

	if len(matched) > 1 && len(targetWords) > 1 {
		return groupBoxes(matched, width, height)
	}

	boxes := make([]region.Box, 0, len(matched))
	for _, m := range matched {
		b := m.Box.Pad(wordPadding).ClampTo(width, height)
		if b.Width > minBoxSize && b.Height > minBoxSize {
			boxes = append(boxes, b)
		}
	}
	return boxes
}

// matchesTarget reports whether a recognized word (already case-folded)
// matches the target phrase or one of its words.
func matchesTarget(text, target string, targetWords []string, exact bool) bool {
	if len(targetWords) == 1 {
		if exact {
			return text == target
		}
		return strings.Contains(text, target)
	}

	for _, tw := range targetWords {
		if text == tw {
			return true
		}
		if exact {
			continue
		}
		// Prefix in either direction, with a length guard against
		// over-matching much longer words.
		if (strings.HasPrefix(text, tw) || strings.HasPrefix(tw, text)) &&
			len(text) <= 2*len(tw) {
			return true
		}
	}
	return false
}

// groupBoxes merges matched words into phrase-level boxes.
//
// Words are sorted by (y, x). Each un-grouped word seeds a group; any other
// un-grouped word joins when its vertical center is within the larger of
// the two heights (same text line) and its horizontal distance from the
// seed's right edge is under groupMaxGap. The group's box is the union of
// its members, padded and clamped; degenerate results are dropped.
func groupBoxes(matched []Word, width, height int) []region.Box {
	sorted := make([]Word, len(matched))
	copy(sorted, matched)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Box.Y != sorted[j].Box.Y {
			return sorted[i].Box.Y < sorted[j].Box.Y
		}
		return sorted[i].Box.X < sorted[j].Box.X
	})

	used := make([]bool, len(sorted))
	var boxes []region.Box

	for i, seed := range sorted {
		if used[i] {
			continue
		}
		used[i] = true
		group := seed.Box

		for j, other := range sorted {
			if used[j] {
				continue
			}

			lineSlack := seed.Box.Height
			if other.Box.Height > lineSlack {
				lineSlack = other.Box.Height
			}
			if abs(seed.Box.CenterY()-other.Box.CenterY()) > lineSlack {
				continue
			}

			gap := abs(other.Box.X - (seed.Box.X + seed.Box.Width))
			if gap < groupMaxGap {
				group = group.Union(other.Box)
				used[j] = true
			}
		}

		b := group.Pad(groupPadding).ClampTo(width, height)
		if b.Width > minBoxSize && b.Height > minBoxSize {
			boxes = append(boxes, b)
		}
	}

	return boxes
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
