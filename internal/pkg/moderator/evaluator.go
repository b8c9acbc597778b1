// Package moderator turns raw moderation verdicts into accept/reject
// decisions and picks the moderation strategy for each media item.
package moderator

import "mediashare/internal/pkg/sightengine"

// Violation labels surfaced to the user when an upload is rejected.
const (
	LabelSexual    = "sexual content"
	LabelOffensive = "offensive or abusive content"
	LabelDangerous = "weapons, alcohol or drugs"
)

// categoryLabels maps a model score group to its violation label.
// Groups not listed here never produce a violation.
var categoryLabels = map[string]string{
	"nudity":    LabelSexual,
	"offensive": LabelOffensive,
	"wad":       LabelDangerous,
	"weapon":    LabelDangerous,
	"alcohol":   LabelDangerous,
	"drugs":     LabelDangerous,
}

// Score keys inside a group that classify rather than score: they must
// never count toward a violation.
var excludedScoreKeys = map[string]bool{
	"none":    true,
	"context": true,
	"safe":    true,
}

// EvaluateImage applies the image policy: three independent category
// checks against the image threshold. The boundary is closed, a score
// equal to the threshold counts as a violation.
func EvaluateImage(v sightengine.Verdict, threshold float64) []string {
	if v == nil {
		return nil
	}

	var labels []string
	if nudity, ok := v["nudity"]; ok {
		if flagged(nudity, "is_nude") ||
			scoreAtLeast(nudity, "raw", threshold) ||
			scoreAtLeast(nudity, "partial", threshold) {
			labels = append(labels, LabelSexual)
		}
	}
	if offensive, ok := v["offensive"]; ok {
		if scoreAtLeast(offensive, "prob", threshold) {
			labels = append(labels, LabelOffensive)
		}
	}
	if wad, ok := v["wad"]; ok {
		if scoreAtLeast(wad, "weapon", threshold) ||
			scoreAtLeast(wad, "alcohol", threshold) ||
			scoreAtLeast(wad, "drugs", threshold) {
			labels = append(labels, LabelDangerous)
		}
	}
	return labels
}

// EvaluateVideo applies the video policy to per-frame verdicts, or to
// the aggregate verdict when no frame data exists. A category is
// flagged on the first frame where any of its named scores reaches the
// threshold; scanning stops once every category type has been flagged.
func EvaluateVideo(frames []sightengine.Verdict, aggregate sightengine.Verdict, threshold float64) []string {
	if len(frames) == 0 {
		if aggregate == nil {
			return nil
		}
		frames = []sightengine.Verdict{aggregate}
	}

	flaggedLabels := map[string]bool{}
	var labels []string
	for _, frame := range frames {
		for group, scores := range frame {
			label, ok := categoryLabels[group]
			if !ok || flaggedLabels[label] {
				continue
			}
			if groupViolates(scores, threshold) {
				flaggedLabels[label] = true
				labels = append(labels, label)
			}
		}
		if len(flaggedLabels) == 3 {
			break
		}
	}
	return labels
}

// groupViolates reports whether any named score in the group reaches
// the threshold, or any boolean flag is set.
func groupViolates(scores map[string]any, threshold float64) bool {
	for key, val := range scores {
		if excludedScoreKeys[key] {
			continue
		}
		switch v := val.(type) {
		case bool:
			if v {
				return true
			}
		case float64:
			if v >= threshold {
				return true
			}
		}
	}
	return false
}

func flagged(scores map[string]any, key string) bool {
	v, ok := scores[key].(bool)
	return ok && v
}

func scoreAtLeast(scores map[string]any, key string, threshold float64) bool {
	v, ok := scores[key].(float64)
	return ok && v >= threshold
}
