package match

import "strings"

// Track is the currently playing audio item's metadata, supplied by the host
// player on every load event.
type Track struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	DurationMs int64  `json:"durationMs"`
}

// Candidate is one parsed search-result video entry eligible for selection.
type Candidate struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"durationSeconds"`
	PlayCount       int    `json:"playCount"`
	Author          string `json:"author"`
	URL             string `json:"url,omitempty"`
}

// Options controls the optional ranking stages.
type Options struct {
	// FilterDuration enables the minute-bucket duration stage. When false
	// the pipeline collapses to the first title-matched candidate.
	FilterDuration bool
	// MinPlayCount drops candidates below this play count. -1 disables.
	MinPlayCount int
}

// minTitleScore is the composite-similarity cutoff for the title stage.
const minTitleScore = 0.5

// maxDurationGapSeconds is how far a candidate's duration may sit from the
// track's, once both land in the same minute bucket.
const maxDurationGapSeconds = 5

// Select reduces a candidate list to the single best match for a track, or
// nil when any stage empties the set. The pipeline runs title similarity,
// then duration, then play count; stages never reorder candidates and the
// result is deterministic for identical inputs.
func Select(candidates []Candidate, track Track, opts Options) *Candidate {
	candidates = FilterByTitle(candidates, track.Title, track.Artist)
	if len(candidates) == 0 {
		return nil
	}

	var chosen *Candidate
	if opts.FilterDuration {
		chosen = FirstWithinDuration(candidates, track.DurationMs)
	} else {
		chosen = &candidates[0]
	}
	if chosen == nil {
		return nil
	}

	if survivors := FilterByPlayCount([]Candidate{*chosen}, opts.MinPlayCount); len(survivors) == 0 {
		return nil
	}
	return chosen
}

// FilterByTitle keeps candidates whose composite similarity against the track
// title and artist reaches the cutoff. A blank track title disables the stage
// entirely rather than dropping everything.
func FilterByTitle(candidates []Candidate, title, artist string) []Candidate {
	if strings.TrimSpace(title) == "" {
		return candidates
	}
	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if CalculateSimilarity(c.Title, title, artist) >= minTitleScore {
			kept = append(kept, c)
		}
	}
	return kept
}

// FirstWithinDuration returns the first candidate whose duration falls in the
// track's minute bucket and within maxDurationGapSeconds of the exact track
// length, preserving original order. First acceptable wins, not closest.
func FirstWithinDuration(candidates []Candidate, durationMs int64) *Candidate {
	audioSeconds := int(durationMs / 1000)
	audioMinutes := audioSeconds / 60

	matched := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.DurationSeconds/60 == audioMinutes {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	for i := range matched {
		gap := matched[i].DurationSeconds - audioSeconds
		if gap < 0 {
			gap = -gap
		}
		if gap < maxDurationGapSeconds {
			return &matched[i]
		}
	}
	return nil
}

// FilterByPlayCount keeps candidates at or above the threshold. The sentinel
// -1 (or any negative) passes everything through.
func FilterByPlayCount(candidates []Candidate, threshold int) []Candidate {
	if threshold < 0 {
		return candidates
	}
	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.PlayCount >= threshold {
			kept = append(kept, c)
		}
	}
	return kept
}
