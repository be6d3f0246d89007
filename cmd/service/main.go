package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/bilibili"
	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/bridge"
	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/cache"
	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/config"
	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/playback"
	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/resolver"
)

func main() {
	port := getenv("PORT", "3010")
	ctx := context.Background()

	// Redis is optional: without it selections and settings only live in
	// memory and events stay in-process.
	var rdb *redis.Client
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		rdb = redis.NewClient(opt)
		defer rdb.Close()
	}

	var cacheStore cache.Store
	var cfgStore config.Store
	if rdb != nil {
		cacheStore = cache.NewRedisStore(rdb)
		cfgStore = config.NewRedisStore(rdb)
	}

	cfgMgr := config.NewManager(ctx, config.FromEnv(), cfgStore)

	searchURL := getenv("BILIBILI_SEARCH_URL", bilibili.DefaultSearchURL)
	client := bilibili.NewClient(searchURL)
	selections := cache.New(cacheStore)
	lookup := resolver.New(client, selections, cfgMgr)

	hub := bridge.NewHub()
	go hub.Run()

	surface := bridge.NewRemoteSurface()
	srv := bridge.NewServer(hub, surface, cfgMgr, lookup, rdb, ctx)
	if rdb != nil {
		go srv.RunRedisSubscriber()
	}

	ctrl := playback.NewController(playback.Options{
		Surface:    surface,
		Resolver:   lookup,
		Config:     cfgMgr,
		Events:     srv.PublishEvent,
		BlankURL:   getenv("PWB_BLANK_URL", "about:blank"),
		PlayerBase: getenv("PWB_PLAYER_BASE", playback.DefaultPlayerBase),
	})
	srv.SetHost(ctrl)

	r := srv.Router(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	log.Printf("playwithbilibili listening on :%s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("playwithbilibili: %v", err)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
