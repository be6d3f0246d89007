package match

import (
	"regexp"
	"strings"
)

// bracketRe matches bracket-delimited annotations commonly found in video
// titles, e.g. 【官方MV】 or (Official Video). Contents are dropped entirely.
var bracketRe = []*regexp.Regexp{
	regexp.MustCompile(`【[^】]*】`),
	regexp.MustCompile(`\[[^\]]*\]`),
	regexp.MustCompile(`\([^)]*\)`),
	regexp.MustCompile(`「[^」]*」`),
	regexp.MustCompile(`『[^』]*』`),
}

// feat./ft. need to be tried before their dot-less forms.
var marketingRe = regexp.MustCompile(`(?i)(官方投稿|official|feat\.|feat|ft\.|ft|mv|pv)`)

var separatorRe = regexp.MustCompile(`[\s\-|/]+`)

// StripBrackets removes bracket-delimited annotations from a title.
func StripBrackets(s string) string {
	for _, re := range bracketRe {
		s = re.ReplaceAllString(s, " ")
	}
	return strings.TrimSpace(s)
}

// CleanTitle normalizes a video title for comparison: bracket annotations
// and marketing tokens are removed, separator runs collapse to one space.
func CleanTitle(s string) string {
	s = StripBrackets(s)
	s = marketingRe.ReplaceAllString(s, " ")
	s = separatorRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Score returns a similarity score in [0,1] between two strings, computed as
// the length of their longest common subsequence divided by the length of the
// longer string. Inputs are lower-cased first. Empty input on either side
// scores 0.
//
// Note this is deliberately not a normalized edit distance: scores must stay
// reproducible against the LCS/max(len) formula.
func Score(a, b string) float64 {
	ar := []rune(strings.ToLower(a))
	br := []rune(strings.ToLower(b))
	if len(ar) == 0 || len(br) == 0 {
		return 0
	}
	longest := len(ar)
	if len(br) > longest {
		longest = len(br)
	}
	return float64(lcsLength(ar, br)) / float64(longest)
}

// lcsLength computes longest-common-subsequence length with a rolling row.
func lcsLength(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// CalculateSimilarity scores a raw video title against a track's title and
// artist. The video title is cleaned first; the base LCS score is then boosted
// when the artist also matches or when the cleaned title literally contains
// the track title or artist. Result is clamped to 1.0.
func CalculateSimilarity(videoTitle, songName, artistName string) float64 {
	cleaned := CleanTitle(videoTitle)

	final := Score(cleaned, songName)

	var artistSim float64
	if artistName != "" {
		artistSim = Score(cleaned, artistName)
	}
	if artistSim > 0.3 {
		if avg := (final + artistSim) / 2; avg > final {
			final = avg
		}
	}

	lowerCleaned := strings.ToLower(cleaned)
	lowerSong := strings.ToLower(songName)
	if lowerSong != "" && strings.Contains(lowerCleaned, lowerSong) && final < 0.8 {
		final = 0.8
	}

	// Bilibili uploaders often append "official" to the artist account name.
	lowerArtist := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(artistName), "official", ""))
	if lowerArtist != "" && strings.Contains(lowerCleaned, lowerArtist) && final < 0.7 {
		final = 0.7
	}

	if final > 1.0 {
		final = 1.0
	}
	return final
}
