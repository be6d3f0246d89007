// Package playback owns the synchronization state machine that keeps an
// independently-running video surface locked to the host audio clock.
package playback

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/config"
	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/match"
)

// State is the controller's position in the load→search→transition→synced
// cycle.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateTransitioning
	StateSynced
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateTransitioning:
		return "transitioning"
	case StateSynced:
		return "synced"
	default:
		return "idle"
	}
}

// Event is emitted on every state transition.
type Event struct {
	Type      string `json:"type"`
	State     string `json:"state"`
	VideoID   string `json:"videoId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// EventSink receives controller events; may be nil.
type EventSink func(Event)

// Resolver turns a track into a video id ("" means no match).
type Resolver interface {
	Resolve(ctx context.Context, track match.Track) (string, error)
}

// ConfigSource supplies the current settings snapshot.
type ConfigSource interface {
	Snapshot() config.Config
}

// Timing groups the controller's clocks. Tests shrink these.
type Timing struct {
	// Debounce is the quiescence window for coalescing load-event bursts.
	Debounce time.Duration
	// Fade is the opacity transition length, waited out on both edges of a
	// source swap.
	Fade time.Duration
	// PollInterval / PollBudget bound the wait for a video element to
	// appear after a swap.
	PollInterval time.Duration
	PollBudget   time.Duration
	// ReconcileEvery is the period of the per-session re-assertion loop.
	ReconcileEvery time.Duration
	// SyncThreshold is the max tolerated drift, in seconds, before a hard
	// resync of the surface clock.
	SyncThreshold float64
}

// DefaultTiming matches the behavior of the original userscript.
func DefaultTiming() Timing {
	return Timing{
		Debounce:       250 * time.Millisecond,
		Fade:           200 * time.Millisecond,
		PollInterval:   100 * time.Millisecond,
		PollBudget:     10 * time.Second,
		ReconcileEvery: time.Second,
		SyncThreshold:  0.3,
	}
}

// DefaultPlayerBase is the embeddable Bilibili player.
const DefaultPlayerBase = "https://player.bilibili.com/player.html"

// Options configures a Controller.
type Options struct {
	Surface    Surface
	Resolver   Resolver
	Config     ConfigSource
	Events     EventSink
	Timing     Timing
	BlankURL   string
	PlayerBase string
}

// Controller reacts to host audio events, owns the surface handle, and
// reconciles play state, time and volume while synced. At most one session
// is active at any instant; starting a new one cancels the previous
// session's context, which stops its reconcile loop and discards any
// still-in-flight resolution.
type Controller struct {
	surface    Surface
	resolver   Resolver
	cfg        ConfigSource
	sink       EventSink
	timing     Timing
	blankURL   string
	playerBase string

	mu           sync.Mutex
	epoch        uint64
	session      *session
	state        State
	debounce     *time.Timer
	pendingTrack match.Track
	hostPlaying  bool
}

// session is the reconciliation state between one load event and the next.
type session struct {
	id      string
	track   match.Track
	videoID string
	epoch   uint64
	ctx     context.Context
	cancel  context.CancelFunc
	ready   bool
}

func NewController(opts Options) *Controller {
	t := opts.Timing
	if t == (Timing{}) {
		t = DefaultTiming()
	}
	base := opts.PlayerBase
	if base == "" {
		base = DefaultPlayerBase
	}
	blank := opts.BlankURL
	if blank == "" {
		blank = "about:blank"
	}
	return &Controller{
		surface:    opts.Surface,
		resolver:   opts.Resolver,
		cfg:        opts.Config,
		sink:       opts.Events,
		timing:     t,
		blankURL:   blank,
		playerBase: base,
	}
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnTrackLoad handles a host track-load event. Bursts within the debounce
// window coalesce into the last one; only that one starts a session.
func (c *Controller) OnTrackLoad(track match.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingTrack = track
	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(c.timing.Debounce, c.startSession)
}

// startSession supersedes the current session. Cancelling the old context
// stops its reconcile loop before the new session starts; without this, two
// loops race on the same surface.
func (c *Controller) startSession() {
	c.mu.Lock()
	track := c.pendingTrack
	c.epoch++
	if c.session != nil {
		c.session.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:     uuid.NewString(),
		track:  track,
		epoch:  c.epoch,
		ctx:    ctx,
		cancel: cancel,
	}
	c.session = sess
	c.mu.Unlock()

	c.setState(sess, StateSearching)
	log.Printf("playwithbilibili: session %s searching for %s - %s", sess.id, track.Title, track.Artist)
	go c.run(sess)
}

func (c *Controller) run(sess *session) {
	cfg := c.cfg.Snapshot()
	if !cfg.Enable {
		c.goBlank(sess)
		return
	}

	videoID, err := c.resolver.Resolve(sess.ctx, sess.track)
	if !c.current(sess) {
		// A newer load event superseded this session while the search was
		// in flight; its resolution must not touch the surface.
		return
	}
	if err != nil {
		log.Printf("playwithbilibili: session %s search failed: %v", sess.id, err)
		c.goBlank(sess)
		return
	}
	if videoID == "" {
		log.Printf("playwithbilibili: session %s found no match", sess.id)
		c.goBlank(sess)
		return
	}

	c.mu.Lock()
	sess.videoID = videoID
	c.mu.Unlock()
	c.setState(sess, StateTransitioning)

	if err := c.transition(sess, c.sourceURL(videoID)); err != nil {
		if sess.ctx.Err() == nil {
			log.Printf("playwithbilibili: session %s transition failed: %v", sess.id, err)
			c.goBlank(sess)
		}
		return
	}

	c.mu.Lock()
	sess.ready = true
	c.mu.Unlock()
	c.setState(sess, StateSynced)
	go c.reconcileLoop(sess)
}

// transition fades the surface out, swaps its source, fades back in, then
// waits for a video element and forces it muted.
func (c *Controller) transition(sess *session, url string) error {
	ctx := sess.ctx

	if err := c.surface.SetOpacity(ctx, 0); err != nil {
		return err
	}
	if err := sleepCtx(ctx, c.timing.Fade); err != nil {
		return err
	}
	if err := c.surface.SwapSource(ctx, url); err != nil {
		return err
	}
	if err := c.surface.SetOpacity(ctx, 1); err != nil {
		return err
	}
	if err := sleepCtx(ctx, c.timing.Fade); err != nil {
		return err
	}

	deadline := time.Now().Add(c.timing.PollBudget)
	for {
		ok, err := c.surface.Ready(ctx)
		if err != nil {
			return err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return ErrSurfaceTimeout
		}
		if err := sleepCtx(ctx, c.timing.PollInterval); err != nil {
			return err
		}
	}

	// The surface stays muted no matter what; the reconcile loop re-asserts
	// this every tick.
	return c.surface.SetVolume(ctx, 0)
}

// goBlank fades the surface out to the neutral target and parks the
// controller until the next load event.
func (c *Controller) goBlank(sess *session) {
	if !c.current(sess) {
		return
	}
	ctx := sess.ctx
	if err := c.surface.SetOpacity(ctx, 0); err == nil {
		_ = sleepCtx(ctx, c.timing.Fade)
		if err := c.surface.SwapSource(ctx, c.blankURL); err != nil {
			log.Printf("playwithbilibili: session %s blank swap: %v", sess.id, err)
		}
	}
	c.setState(sess, StateIdle)
}

// OnPlayState handles a host play/pause event. A no-op unless a session is
// synced with a resolved video element.
func (c *Controller) OnPlayState(playing bool) {
	c.mu.Lock()
	c.hostPlaying = playing
	sess, active := c.session, c.syncedLocked()
	c.mu.Unlock()
	if !active {
		return
	}

	var err error
	if playing {
		err = c.surface.Play(sess.ctx)
	} else {
		err = c.surface.Pause(sess.ctx)
	}
	if err != nil && sess.ctx.Err() == nil {
		log.Printf("playwithbilibili: session %s play-state: %v", sess.id, err)
	}
}

// OnProgress handles a host progress tick: drift beyond the threshold forces
// a hard resync, an unpaused host re-asserts play, and the mute is re-applied
// every tick.
func (c *Controller) OnProgress(seconds float64) {
	c.mu.Lock()
	sess, active := c.session, c.syncedLocked()
	playing := c.hostPlaying
	c.mu.Unlock()
	if !active {
		return
	}
	ctx := sess.ctx

	if cur, err := c.surface.CurrentTime(ctx); err == nil {
		diff := cur - seconds
		if diff < 0 {
			diff = -diff
		}
		if diff > c.timing.SyncThreshold {
			if err := c.surface.SeekTo(ctx, seconds); err != nil && ctx.Err() == nil {
				log.Printf("playwithbilibili: session %s seek: %v", sess.id, err)
			}
		}
	}
	if playing {
		_ = c.surface.Play(ctx)
	}
	_ = c.surface.SetVolume(ctx, 0)
}

// reconcileLoop periodically re-asserts mute and play state for the session
// that owns it. Exactly one loop runs per active session; session
// supersession cancels it through the context.
func (c *Controller) reconcileLoop(sess *session) {
	ticker := time.NewTicker(c.timing.ReconcileEvery)
	defer ticker.Stop()
	for {
		select {
		case <-sess.ctx.Done():
			return
		case <-ticker.C:
			if !c.current(sess) {
				return
			}
			c.mu.Lock()
			playing := c.hostPlaying
			c.mu.Unlock()
			_ = c.surface.SetVolume(sess.ctx, 0)
			if playing {
				_ = c.surface.Play(sess.ctx)
			}
		}
	}
}

// current reports whether sess is still the controller's active session.
func (c *Controller) current(sess *session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session == sess && sess.epoch == c.epoch
}

// syncedLocked reports whether the active session is synced with a located
// video element. Caller holds c.mu.
func (c *Controller) syncedLocked() bool {
	return c.state == StateSynced && c.session != nil && c.session.ready
}

func (c *Controller) setState(sess *session, state State) {
	c.mu.Lock()
	if c.session != sess {
		c.mu.Unlock()
		return
	}
	c.state = state
	sink := c.sink
	ev := Event{
		Type:      "playback_state",
		State:     state.String(),
		VideoID:   sess.videoID,
		SessionID: sess.id,
	}
	c.mu.Unlock()
	if sink != nil {
		sink(ev)
	}
}

// sourceURL maps a video id to a playable embed URL. Ids that already look
// like URLs pass through.
func (c *Controller) sourceURL(videoID string) string {
	if strings.HasPrefix(videoID, "http://") || strings.HasPrefix(videoID, "https://") {
		return videoID
	}
	return c.playerBase + "?bvid=" + videoID + "&autoplay=true&danmaku=0"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
