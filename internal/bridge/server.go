// Package bridge is the host-integration boundary: the audio player page and
// the video surface page connect over websocket, host events flow in to the
// playback controller, and surface commands flow back out.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/config"
	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/match"
	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/playback"
)

// ErrHostUnavailable marks a host event that arrived without the payload its
// type requires. Fatal for that event only; the surface is left untouched.
var ErrHostUnavailable = errors.New("bridge: host event missing payload")

var upgrader = websocket.Upgrader{
	// The bridge binds to localhost for a same-machine host page.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HostHandler consumes host audio-player events.
type HostHandler interface {
	OnTrackLoad(track match.Track)
	OnPlayState(playing bool)
	OnProgress(seconds float64)
}

// TrackResolver serves the manual /video/resolve endpoint.
type TrackResolver interface {
	Resolve(ctx context.Context, track match.Track) (string, error)
}

type Server struct {
	hub      *Hub
	surface  *RemoteSurface
	cfg      *config.Manager
	resolver TrackResolver
	rdb      *redis.Client
	ctx      context.Context
	host     HostHandler
}

func NewServer(hub *Hub, surface *RemoteSurface, cfg *config.Manager, resolver TrackResolver, rdb *redis.Client, ctx context.Context) *Server {
	return &Server{
		hub:      hub,
		surface:  surface,
		cfg:      cfg,
		resolver: resolver,
		rdb:      rdb,
		ctx:      ctx,
	}
}

// SetHost wires the playback controller in after construction; the
// controller itself needs the surface from this server.
func (s *Server) SetHost(h HostHandler) {
	s.host = h
}

// Router builds the service routes.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWS)
	r.Get("/video/resolve", s.handleResolve)
	r.Get("/config", s.handleGetConfig)
	r.Patch("/config", s.handlePatchConfig)

	return r
}

// PublishEvent fans a controller event out to connected clients. With redis
// configured the event goes through the broadcast channel so other
// subscribers see it too; RunRedisSubscriber feeds it back into the hub.
func (s *Server) PublishEvent(ev playback.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("playwithbilibili: marshal event: %v", err)
		return
	}
	if s.rdb != nil {
		if err := s.rdb.Publish(s.ctx, "broadcast", string(data)).Err(); err != nil {
			log.Printf("playwithbilibili: publish event: %v", err)
		}
		return
	}
	s.hub.broadcast <- data
}

// RunRedisSubscriber relays the redis "broadcast" channel into the hub.
func (s *Server) RunRedisSubscriber() {
	sub := s.rdb.Subscribe(s.ctx, "broadcast")
	defer sub.Close()

	ch := sub.Channel()
	for msg := range ch {
		s.hub.broadcast <- []byte(msg.Payload)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "playwithbilibili",
		"surface": s.surface.Connected(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("playwithbilibili: ws upgrade: %v", err)
		return
	}

	role := r.URL.Query().Get("role")
	if role != RoleSurface {
		role = RoleHost
	}

	client := &Client{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		role:   role,
		server: s,
	}
	s.hub.register <- client
	if role == RoleSurface {
		s.surface.bind(client)
	}

	welcome := map[string]any{
		"type": "welcome",
		"role": role,
		"now":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.Marshal(welcome); err == nil {
		client.send <- b
	}

	go client.writePump()
	go client.readPump()
}

// handleMessage dispatches one inbound client message. Malformed events are
// logged and dropped; they never propagate past the bridge.
func (s *Server) handleMessage(c *Client, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("playwithbilibili: bad ws message: %v", err)
		return
	}

	switch msg.Type {
	case "load":
		if msg.Track == nil {
			log.Printf("playwithbilibili: load event: %v", ErrHostUnavailable)
			return
		}
		if s.host != nil {
			s.host.OnTrackLoad(*msg.Track)
		}
	case "state":
		if msg.State == nil {
			log.Printf("playwithbilibili: state event: %v", ErrHostUnavailable)
			return
		}
		if s.host != nil {
			s.host.OnPlayState(*msg.State == 1)
		}
	case "progress":
		if msg.Seconds == nil {
			log.Printf("playwithbilibili: progress event: %v", ErrHostUnavailable)
			return
		}
		if s.host != nil {
			s.host.OnProgress(*msg.Seconds)
		}
	case "result":
		s.surface.resolve(msg)
	default:
		log.Printf("playwithbilibili: unknown ws message type %q", msg.Type)
	}
}
