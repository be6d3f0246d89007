package bilibili

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/match"
)

// SearchResponse is the JSON shape of the Bilibili web search endpoint.
// Data.Result may be absent or empty; callers must tolerate both.
type SearchResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Result []SearchResult `json:"result"`
	} `json:"data"`
}

// SearchResult is one raw video entry. Title carries <em class="keyword">
// markup around matched query terms; Duration is a human-readable "MM:SS".
type SearchResult struct {
	Title    string `json:"title"`
	Bvid     string `json:"bvid"`
	Duration string `json:"duration"`
	Play     int    `json:"play"`
	Author   string `json:"author"`
	Arcurl   string `json:"arcurl"`
}

// Candidates converts raw results into ranker candidates. Titles get their
// emphasis markup stripped and durations parsed; malformed entries degrade to
// zero values instead of failing the whole response.
func (r *SearchResponse) Candidates() []match.Candidate {
	if r == nil || len(r.Data.Result) == 0 {
		return nil
	}
	out := make([]match.Candidate, 0, len(r.Data.Result))
	for _, item := range r.Data.Result {
		out = append(out, match.Candidate{
			ID:              item.Bvid,
			Title:           StripMarkup(item.Title),
			DurationSeconds: match.ParseSeconds(item.Duration),
			PlayCount:       item.Play,
			Author:          item.Author,
			URL:             item.Arcurl,
		})
	}
	return out
}

// StripMarkup removes HTML tags from a search-result title, keeping only the
// text content. Entities are unescaped along the way.
func StripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return html.UnescapeString(s)
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}
