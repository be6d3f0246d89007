package bridge

import (
	"encoding/json"

	"github.com/Xiao-Jiang-233/PlayWithBilibili/internal/match"
)

// Client roles. The host player page and the video surface page connect
// separately; host clients push audio events, the surface client answers
// commands.
const (
	RoleHost    = "host"
	RoleSurface = "surface"
)

// inboundMessage is the envelope for everything a client may send.
type inboundMessage struct {
	Type string `json:"type"`

	// "load"
	Track *match.Track `json:"track,omitempty"`

	// "state": 0 paused, 1 playing (host player convention)
	State *int `json:"state,omitempty"`

	// "progress": host audio clock position
	Seconds *float64 `json:"seconds,omitempty"`

	// "result": reply to a surface command
	ID    uint64          `json:"id,omitempty"`
	OK    bool            `json:"ok,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
	Error string          `json:"error,omitempty"`
}

// surfaceCommand is sent to the surface client; it must reply with a
// "result" message carrying the same id.
type surfaceCommand struct {
	Type  string  `json:"type"`
	ID    uint64  `json:"id"`
	Cmd   string  `json:"cmd"`
	URL   string  `json:"url,omitempty"`
	Value float64 `json:"value,omitempty"`
}

const (
	cmdPlay        = "play"
	cmdPause       = "pause"
	cmdCurrentTime = "currentTime"
	cmdSeek        = "seek"
	cmdVolume      = "volume"
	cmdOpacity     = "opacity"
	cmdSwap        = "swap"
	cmdReady       = "ready"
)
