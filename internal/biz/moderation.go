package biz

import (
	"context"

	"mediashare/internal/conf"
	"mediashare/internal/pkg/moderator"
	"mediashare/internal/pkg/sightengine"
)

// ModerationClient is the uniform interface over the moderation
// service's call shapes. Satisfied by *sightengine.Client.
type ModerationClient interface {
	// CheckImage runs the single-media check.
	CheckImage(ctx context.Context, media []byte) (sightengine.Verdict, error)
	// CheckVideoSync runs the synchronous check on a whole video.
	CheckVideoSync(ctx context.Context, media []byte) (*sightengine.VideoVerdict, error)
	// CheckSegment moderates one independently decodable sub-clip.
	CheckSegment(ctx context.Context, media []byte) (*sightengine.VideoVerdict, error)
	// SubmitVideoAsync submits a video for asynchronous moderation.
	SubmitVideoAsync(ctx context.Context, media []byte) (string, error)
	// PollVideo fetches the state of an asynchronous job.
	PollVideo(ctx context.Context, requestID string) (*sightengine.PollResult, error)
}

// DefaultMaxVideoBytes is the hard cap above which a video is rejected
// without a moderation call.
const DefaultMaxVideoBytes = 50 << 20

// NewModerationConfig assembles the moderation policy from config.
func NewModerationConfig(mc *conf.Moderation) moderator.Config {
	cfg := moderator.DefaultConfig()
	if mc != nil && mc.VideoStrategy == "async" {
		cfg.LongVideo = moderator.StrategyAsyncPolled
	}
	return cfg
}
