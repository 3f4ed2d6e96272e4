package playback

// Reason describes why a snapshot was emitted. It is used for logging.
type Reason int

const (
	ReasonLoaded       Reason = iota // Queue loaded
	ReasonPlay                       // Playback started or resumed
	ReasonPause                      // Playback paused
	ReasonSeek                       // Position changed by seek
	ReasonRestart                    // Current track restarted
	ReasonTrackChanged               // Moved to another track
	ReasonExhausted                  // Skipped past the last track
	ReasonRepeatMode                 // Repeat mode changed
	ReasonTick                       // Clock advanced the position
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonLoaded:
		return "loaded"
	case ReasonPlay:
		return "play"
	case ReasonPause:
		return "pause"
	case ReasonSeek:
		return "seek"
	case ReasonRestart:
		return "restart"
	case ReasonTrackChanged:
		return "track_changed"
	case ReasonExhausted:
		return "exhausted"
	case ReasonRepeatMode:
		return "repeat_mode"
	case ReasonTick:
		return "tick"
	default:
		return "unknown"
	}
}
