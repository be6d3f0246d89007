package bridge

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/match"
)

// handleResolve runs the full lookup pipeline for query parameters, useful
// for debugging a track that picks the wrong video.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if len(title) > 200 {
		writeError(w, http.StatusBadRequest, "title is too long")
		return
	}
	artist := strings.TrimSpace(r.URL.Query().Get("artist"))

	var durationMs int64
	if v := r.URL.Query().Get("duration"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "duration must be milliseconds")
			return
		}
		durationMs = n
	}

	track := match.Track{Title: title, Artist: artist, DurationMs: durationMs}
	videoID, err := s.resolver.Resolve(r.Context(), track)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to query provider")
		return
	}
	if videoID == "" {
		writeError(w, http.StatusNotFound, "no matching video")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"videoId": videoID,
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Snapshot())
}

// handlePatchConfig applies a partial settings update, e.g.
// {"filter-play": -1, "search-kwd": "{name} MV"}.
func (s *Server) handlePatchConfig(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(patch) == 0 {
		writeError(w, http.StatusBadRequest, "empty patch")
		return
	}

	next, err := s.cfg.Update(r.Context(), patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, next)
}
