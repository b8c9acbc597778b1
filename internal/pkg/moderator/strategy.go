package moderator

import (
	"strings"
	"time"
)

// Strategy names how one media item is moderated.
type Strategy int

const (
	// StrategyNone skips moderation entirely (unrecognized media type).
	StrategyNone Strategy = iota
	// StrategySingle is one single-media check, used for images.
	StrategySingle
	// StrategySyncVideo is one synchronous check on the whole video.
	StrategySyncVideo
	// StrategySegmented moderates fixed-length windows independently.
	StrategySegmented
	// StrategyAsyncPolled submits the whole video once and polls.
	StrategyAsyncPolled
)

func (s Strategy) String() string {
	switch s {
	case StrategySingle:
		return "single"
	case StrategySyncVideo:
		return "sync-video"
	case StrategySegmented:
		return "segmented"
	case StrategyAsyncPolled:
		return "async-polled"
	default:
		return "none"
	}
}

// Config holds the moderation policy knobs.
type Config struct {
	ImageThreshold  float64       // closed-boundary cutoff for image checks
	VideoThreshold  float64       // closed-boundary cutoff for video checks
	SyncMaxSeconds  float64       // videos shorter than this go through one sync call
	SegmentWindow   float64       // window length in seconds for the segmented strategy
	ByteChunkSize   int64         // fallback chunk size when duration is unknown
	PollInterval    time.Duration // delay between async poll attempts
	MaxPollAttempts int
	LongVideo       Strategy // StrategySegmented or StrategyAsyncPolled
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		ImageThreshold:  0.3,
		VideoThreshold:  0.5,
		SyncMaxSeconds:  60,
		SegmentWindow:   40,
		ByteChunkSize:   5 << 20,
		PollInterval:    5 * time.Second,
		MaxPollAttempts: 6,
		LongVideo:       StrategySegmented,
	}
}

// SelectStrategy picks the moderation strategy for one media item.
// A video with no readable duration is treated as long, since the sync
// endpoint bounds call length by play time.
func (c Config) SelectStrategy(mimeType string, duration float64, durationKnown bool) Strategy {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return StrategySingle
	case strings.HasPrefix(mimeType, "video/"):
		if durationKnown && duration > 0 && duration < c.SyncMaxSeconds {
			return StrategySyncVideo
		}
		return c.LongVideo
	default:
		return StrategyNone
	}
}
