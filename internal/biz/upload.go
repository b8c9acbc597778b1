package biz

import (
	"context"
	"errors"
	"strings"
	"time"

	"mediashare/internal/conf"
	"mediashare/internal/pkg/imaging"
	"mediashare/internal/pkg/moderator"
	"mediashare/internal/pkg/mp4"
	"mediashare/internal/pkg/sightengine"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	downscaleMaxWidth  = 600
	downscaleMaxHeight = 600
)

// UploadUsecase orchestrates one upload: moderate every file, and only
// when all are accepted, allocate codes and persist. A single
// rejection aborts the whole upload before anything is stored.
type UploadUsecase struct {
	store      ObjectStore
	allocator  *CodeAllocator
	moderation ModerationClient
	config     moderator.Config

	maxVideoBytes int64

	// sleep is the polling delay, replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error

	log *log.Helper
}

// NewUploadUsecase creates an UploadUsecase.
func NewUploadUsecase(
	store ObjectStore,
	allocator *CodeAllocator,
	moderation ModerationClient,
	config moderator.Config,
	uc *conf.Upload,
	logger log.Logger,
) *UploadUsecase {
	maxVideoBytes := int64(DefaultMaxVideoBytes)
	if uc != nil && uc.MaxVideoBytes > 0 {
		maxVideoBytes = uc.MaxVideoBytes
	}
	return &UploadUsecase{
		store:         store,
		allocator:     allocator,
		moderation:    moderation,
		config:        config,
		maxVideoBytes: maxVideoBytes,
		sleep:         sleepCtx,
		log:           log.NewHelper(logger),
	}
}

// Upload moderates every item in order and, only if all pass, stores
// them under freshly allocated codes. Returned codes are in item
// order.
func (uc *UploadUsecase) Upload(ctx context.Context, items []*MediaItem) ([]string, error) {
	if len(items) == 0 {
		return nil, ErrNoFiles
	}

	for _, item := range items {
		decision, err := uc.Moderate(ctx, item)
		if err != nil {
			return nil, err
		}
		if !decision.Accepted {
			uc.log.Infof("upload rejected: file=%s reasons=%v", item.Name, decision.Reasons)
			return nil, ErrContentRejected(decision.Reasons)
		}
	}

	codes := make([]string, 0, len(items))
	for _, item := range items {
		code, err := uc.allocator.Allocate(ctx)
		if err != nil {
			return nil, err
		}
		if err := uc.store.Put(ctx, &StoredObject{
			Key:         code,
			ContentType: item.MIME,
			Data:        item.Data,
		}); err != nil {
			return nil, ErrStorageFailed(err)
		}
		codes = append(codes, code)
	}

	uc.log.Infof("upload stored: files=%d codes=%v", len(items), codes)
	return codes, nil
}

// Fetch reads a stored object back; (nil, nil) when the code is
// unknown.
func (uc *UploadUsecase) Fetch(ctx context.Context, code string) (*StoredObject, error) {
	return uc.store.Get(ctx, code)
}

// Moderate classifies one item, drives the selected strategy and
// returns the decision. Errors are service or policy failures, not
// content violations.
func (uc *UploadUsecase) Moderate(ctx context.Context, item *MediaItem) (*Decision, error) {
	var duration float64
	var durationKnown bool
	if isVideo(item.MIME) {
		if item.Size > uc.maxVideoBytes {
			return nil, ErrVideoTooLarge(uc.maxVideoBytes)
		}
		duration, durationKnown = mp4.ParseDuration(item.Data)
	}
	strategy := uc.config.SelectStrategy(item.MIME, duration, durationKnown)

	uc.log.Debugf("moderating file=%s type=%s size=%d strategy=%s", item.Name, item.MIME, item.Size, strategy)

	switch strategy {
	case moderator.StrategySingle:
		return uc.moderateImage(ctx, item)
	case moderator.StrategySyncVideo:
		return uc.moderateVideoSync(ctx, item)
	case moderator.StrategySegmented:
		return uc.moderateSegmented(ctx, item, duration, durationKnown)
	case moderator.StrategyAsyncPolled:
		return uc.moderateAsync(ctx, item)
	default:
		return &Decision{Accepted: true}, nil
	}
}

func (uc *UploadUsecase) moderateImage(ctx context.Context, item *MediaItem) (*Decision, error) {
	media := item.Data
	if resized, err := imaging.Downscale(item.Data, downscaleMaxWidth, downscaleMaxHeight); err == nil {
		media = resized
	} else {
		// Best-effort only: the original bytes are moderated instead.
		uc.log.Warnf("downscale failed for %s: %v", item.Name, err)
	}

	verdict, err := uc.moderation.CheckImage(ctx, media)
	if err != nil {
		return nil, ErrModerationFailed(err)
	}
	return decisionFrom(moderator.EvaluateImage(verdict, uc.config.ImageThreshold)), nil
}

func (uc *UploadUsecase) moderateVideoSync(ctx context.Context, item *MediaItem) (*Decision, error) {
	verdict, err := uc.moderation.CheckVideoSync(ctx, item.Data)
	if err != nil {
		return nil, ErrModerationFailed(err)
	}
	return decisionFrom(moderator.EvaluateVideo(verdict.Frames, verdict.Aggregate, uc.config.VideoThreshold)), nil
}

// moderateSegmented scans a long video window by window. The first
// window with a violation decides the upload; a window the service
// cannot decode is skipped, not treated as a violation.
func (uc *UploadUsecase) moderateSegmented(ctx context.Context, item *MediaItem, duration float64, durationKnown bool) (*Decision, error) {
	headers, headersOK := mp4.HeaderSegments(item.Data)

	if durationKnown && !headersOK {
		// No way to build decodable slices: moderate the whole file once.
		uc.log.Warnf("no header segments in %s, moderating whole file", item.Name)
		return uc.moderateVideoSync(ctx, item)
	}

	var ranges [][2]int64
	if durationKnown {
		for _, w := range mp4.Windows(duration, uc.config.SegmentWindow) {
			start, end, ok := w.ByteRange(item.Size, duration)
			if !ok {
				continue
			}
			ranges = append(ranges, [2]int64{start, end})
		}
	} else {
		// Unknown play length: carve fixed byte chunks as a last resort.
		ranges = mp4.ByteChunks(item.Size, uc.config.ByteChunkSize)
	}

	scanned := 0
	for i, r := range ranges {
		segment := item.Data[r[0]:r[1]]
		if headersOK {
			clip := make([]byte, 0, len(headers.FileType)+len(headers.MovieHeader)+len(segment))
			clip = append(clip, headers.FileType...)
			clip = append(clip, headers.MovieHeader...)
			clip = append(clip, segment...)
			segment = clip
		}

		verdict, err := uc.moderation.CheckSegment(ctx, segment)
		if err != nil {
			var te *sightengine.TransportError
			if errors.As(err, &te) {
				// The service could not read this slice. Not a verdict,
				// not fatal; keep scanning.
				uc.log.Warnf("segment %d of %s skipped: %v", i, item.Name, te)
				continue
			}
			return nil, ErrModerationFailed(err)
		}
		scanned++

		if labels := moderator.EvaluateVideo(verdict.Frames, verdict.Aggregate, uc.config.VideoThreshold); len(labels) > 0 {
			return &Decision{Reasons: labels}, nil
		}
	}
	if scanned == 0 {
		// Every slice was degenerate or undecodable. Accepting on zero
		// verdicts would skip moderation entirely; check the whole file.
		uc.log.Warnf("no segment of %s produced a verdict, moderating whole file", item.Name)
		return uc.moderateVideoSync(ctx, item)
	}
	return &Decision{Accepted: true}, nil
}

// moderateAsync submits the whole file once and polls on a fixed
// interval for a bounded number of attempts.
func (uc *UploadUsecase) moderateAsync(ctx context.Context, item *MediaItem) (*Decision, error) {
	jobID, err := uc.moderation.SubmitVideoAsync(ctx, item.Data)
	if err != nil {
		return nil, ErrModerationFailed(err)
	}

	for attempt := 0; attempt < uc.config.MaxPollAttempts; attempt++ {
		if err := uc.sleep(ctx, uc.config.PollInterval); err != nil {
			return nil, ErrModerationFailed(err)
		}
		res, err := uc.moderation.PollVideo(ctx, jobID)
		if err != nil {
			return nil, ErrModerationFailed(err)
		}
		if res.Failed {
			return nil, ErrModerationFailed(errors.New(res.FailureReason))
		}
		if res.Finished {
			return decisionFrom(moderator.EvaluateVideo(res.Verdict.Frames, res.Verdict.Aggregate, uc.config.VideoThreshold)), nil
		}
	}
	return nil, ErrModerationTimeout
}

func decisionFrom(labels []string) *Decision {
	if len(labels) > 0 {
		return &Decision{Reasons: labels}
	}
	return &Decision{Accepted: true}
}

func isVideo(mimeType string) bool {
	return strings.HasPrefix(mimeType, "video/")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
