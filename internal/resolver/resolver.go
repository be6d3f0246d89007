// Package resolver runs the full track-to-video lookup: keyword build,
// search, ranking, and caching of the final decision.
package resolver

import (
	"context"
	"log"

	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/bilibili"
	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/cache"
	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/config"
	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/match"
)

// SearchClient is the outbound search dependency.
type SearchClient interface {
	Search(ctx context.Context, keyword string) (*bilibili.SearchResponse, error)
}

// ConfigSource supplies the current settings snapshot per lookup.
type ConfigSource interface {
	Snapshot() config.Config
}

// Service resolves tracks to video ids.
type Service struct {
	client SearchClient
	cache  *cache.Cache
	cfg    ConfigSource
}

func New(client SearchClient, c *cache.Cache, cfg ConfigSource) *Service {
	return &Service{client: client, cache: c, cfg: cfg}
}

// Resolve returns the selected video id for a track, or "" when nothing
// matched. Matches are memoized per (title, artist); misses and search
// failures are not, so the next load event tries again.
func (s *Service) Resolve(ctx context.Context, track match.Track) (string, error) {
	key := cache.Key(track.Title, track.Artist)
	return s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (string, error) {
		cfg := s.cfg.Snapshot()

		keyword := bilibili.BuildKeyword(cfg.SearchKeyword, track.Title, track.Artist)
		resp, err := s.client.Search(ctx, keyword)
		if err != nil {
			return "", err
		}

		candidates := resp.Candidates()
		if len(candidates) == 0 {
			log.Printf("playwithbilibili: no search results for %q", keyword)
			return "", nil
		}

		chosen := match.Select(candidates, track, match.Options{
			FilterDuration: cfg.FilterLength,
			MinPlayCount:   cfg.FilterPlay,
		})
		if chosen == nil {
			log.Printf("playwithbilibili: no candidate survived filtering for %q (%d results)", keyword, len(candidates))
			return "", nil
		}
		log.Printf("playwithbilibili: selected %s (%q by %s) for %s - %s", chosen.ID, chosen.Title, chosen.Author, track.Title, track.Artist)
		return chosen.ID, nil
	})
}
