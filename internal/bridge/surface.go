package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoSurface means no surface page is currently connected to the bridge.
var ErrNoSurface = errors.New("bridge: no surface connected")

// defaultCallTimeout bounds a surface command when the caller's context has
// no deadline of its own. Source swaps wait for the remote load event, which
// can be slow on a cold player.
const defaultCallTimeout = 15 * time.Second

// RemoteSurface implements playback.Surface over the websocket bridge:
// commands go out to the bound surface client, replies are matched back by
// id. At most one surface client is bound at a time; a newly connecting
// surface replaces the previous one.
type RemoteSurface struct {
	mu      sync.Mutex
	client  *Client
	pending map[uint64]chan inboundMessage
	nextID  uint64
}

func NewRemoteSurface() *RemoteSurface {
	return &RemoteSurface{
		pending: make(map[uint64]chan inboundMessage),
	}
}

func (s *RemoteSurface) bind(c *Client) {
	s.mu.Lock()
	s.client = c
	s.mu.Unlock()
}

func (s *RemoteSurface) unbind(c *Client) {
	s.mu.Lock()
	if s.client == c {
		s.client = nil
	}
	s.mu.Unlock()
}

// Connected reports whether a surface client is bound.
func (s *RemoteSurface) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

// resolve routes a "result" message to the waiting call.
func (s *RemoteSurface) resolve(msg inboundMessage) {
	s.mu.Lock()
	ch, ok := s.pending[msg.ID]
	if ok {
		delete(s.pending, msg.ID)
	}
	s.mu.Unlock()
	if ok {
		ch <- msg
	}
}

func (s *RemoteSurface) call(ctx context.Context, cmd surfaceCommand) (json.RawMessage, error) {
	s.mu.Lock()
	c := s.client
	if c == nil {
		s.mu.Unlock()
		return nil, ErrNoSurface
	}
	s.nextID++
	cmd.ID = s.nextID
	ch := make(chan inboundMessage, 1)
	s.pending[cmd.ID] = ch
	s.mu.Unlock()

	cmd.Type = "cmd"
	data, err := json.Marshal(cmd)
	if err != nil {
		s.drop(cmd.ID)
		return nil, err
	}
	if !c.trySend(data) {
		s.drop(cmd.ID)
		return nil, ErrNoSurface
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultCallTimeout)
		defer cancel()
	}

	select {
	case <-ctx.Done():
		s.drop(cmd.ID)
		return nil, ctx.Err()
	case res := <-ch:
		if !res.OK {
			return nil, fmt.Errorf("bridge: surface %s: %s", cmd.Cmd, res.Error)
		}
		return res.Value, nil
	}
}

func (s *RemoteSurface) drop(id uint64) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func (s *RemoteSurface) Play(ctx context.Context) error {
	_, err := s.call(ctx, surfaceCommand{Cmd: cmdPlay})
	return err
}

func (s *RemoteSurface) Pause(ctx context.Context) error {
	_, err := s.call(ctx, surfaceCommand{Cmd: cmdPause})
	return err
}

func (s *RemoteSurface) CurrentTime(ctx context.Context) (float64, error) {
	raw, err := s.call(ctx, surfaceCommand{Cmd: cmdCurrentTime})
	if err != nil {
		return 0, err
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("bridge: currentTime value: %w", err)
	}
	return v, nil
}

func (s *RemoteSurface) SeekTo(ctx context.Context, seconds float64) error {
	_, err := s.call(ctx, surfaceCommand{Cmd: cmdSeek, Value: seconds})
	return err
}

func (s *RemoteSurface) SetVolume(ctx context.Context, volume float64) error {
	_, err := s.call(ctx, surfaceCommand{Cmd: cmdVolume, Value: volume})
	return err
}

func (s *RemoteSurface) SetOpacity(ctx context.Context, opacity float64) error {
	_, err := s.call(ctx, surfaceCommand{Cmd: cmdOpacity, Value: opacity})
	return err
}

// SwapSource resolves once the surface page reports its load event for the
// new source.
func (s *RemoteSurface) SwapSource(ctx context.Context, url string) error {
	_, err := s.call(ctx, surfaceCommand{Cmd: cmdSwap, URL: url})
	return err
}

func (s *RemoteSurface) Ready(ctx context.Context) (bool, error) {
	raw, err := s.call(ctx, surfaceCommand{Cmd: cmdReady})
	if err != nil {
		return false, err
	}
	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil {
		return false, fmt.Errorf("bridge: ready value: %w", err)
	}
	return ok, nil
}
