package playback

import (
	"context"
	"errors"
)

// Surface is the opaque playable-video handle the controller drives. The
// concrete implementation lives on the other side of the host bridge; every
// call may fail if the host page went away.
type Surface interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	CurrentTime(ctx context.Context) (float64, error)
	SeekTo(ctx context.Context, seconds float64) error
	SetVolume(ctx context.Context, volume float64) error
	SetOpacity(ctx context.Context, opacity float64) error
	// SwapSource changes the surface's source URL and returns once the
	// surface reports its load signal.
	SwapSource(ctx context.Context, url string) error
	// Ready reports whether a video element is currently resolvable on the
	// surface. The controller polls this after a source swap.
	Ready(ctx context.Context) (bool, error)
}

// ErrSurfaceTimeout is returned when no video element shows up on the
// surface within the polling budget after a source swap.
var ErrSurfaceTimeout = errors.New("playback: no video element within poll budget")
