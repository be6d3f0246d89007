package bilibili

import (
	"strings"

	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/match"
)

// BuildKeyword renders the configured search-keyword template for a track.
// The track title has its bracket annotations stripped first, so templates
// see "晴天" rather than "晴天 (Live 2004)". {name} and {artist} are the
// supported placeholders. An empty render falls back to a plain
// "title artist" keyword.
func BuildKeyword(template, title, artist string) string {
	name := match.StripBrackets(title)

	kwd := strings.ReplaceAll(template, "{name}", name)
	kwd = strings.ReplaceAll(kwd, "{artist}", artist)
	kwd = strings.TrimSpace(kwd)
	if kwd == "" {
		kwd = strings.TrimSpace(name + " " + artist)
	}
	return kwd
}
