package moderator

import (
	"testing"

	"mediashare/internal/pkg/sightengine"
)

func TestEvaluateImage_Clean(t *testing.T) {
	v := sightengine.Verdict{
		"nudity":    {"is_nude": false, "raw": 0.01, "partial": 0.02, "safe": 0.98},
		"offensive": {"prob": 0.05},
		"wad":       {"weapon": 0.0, "alcohol": 0.1, "drugs": 0.0},
	}
	if labels := EvaluateImage(v, 0.3); len(labels) != 0 {
		t.Errorf("expected no violations, got %v", labels)
	}
}

func TestEvaluateImage_NudeFlag(t *testing.T) {
	v := sightengine.Verdict{
		"nudity": {"is_nude": true, "raw": 0.1},
	}
	labels := EvaluateImage(v, 0.3)
	if len(labels) != 1 || labels[0] != LabelSexual {
		t.Errorf("expected [%s], got %v", LabelSexual, labels)
	}
}

func TestEvaluateImage_ClosedBoundary(t *testing.T) {
	// A score equal to the threshold counts as a violation.
	v := sightengine.Verdict{
		"offensive": {"prob": 0.3},
	}
	labels := EvaluateImage(v, 0.3)
	if len(labels) != 1 || labels[0] != LabelOffensive {
		t.Errorf("expected [%s], got %v", LabelOffensive, labels)
	}
}

func TestEvaluateImage_AllCategories(t *testing.T) {
	v := sightengine.Verdict{
		"nudity":    {"partial": 0.5},
		"offensive": {"prob": 0.9},
		"wad":       {"drugs": 0.4},
	}
	labels := EvaluateImage(v, 0.3)
	if len(labels) != 3 {
		t.Errorf("expected 3 labels, got %v", labels)
	}
}

func TestEvaluateImage_SafeScoreDoesNotCount(t *testing.T) {
	// The "safe" classifier score is metadata, not a risk score.
	v := sightengine.Verdict{
		"nudity": {"safe": 0.99, "raw": 0.0},
	}
	if labels := EvaluateImage(v, 0.3); len(labels) != 0 {
		t.Errorf("expected no violations, got %v", labels)
	}
}

func TestEvaluateVideo_PerFrame(t *testing.T) {
	frames := []sightengine.Verdict{
		{"nudity": {"raw": 0.1}},
		{"nudity": {"raw": 0.7}},
		{"nudity": {"raw": 0.9}},
	}
	labels := EvaluateVideo(frames, nil, 0.5)
	if len(labels) != 1 || labels[0] != LabelSexual {
		t.Errorf("expected [%s], got %v", LabelSexual, labels)
	}
}

func TestEvaluateVideo_FirstMatchPerCategory(t *testing.T) {
	// Repeated violations in the same category produce the label once.
	frames := []sightengine.Verdict{
		{"offensive": {"prob": 0.8}},
		{"offensive": {"prob": 0.9}},
		{"wad": {"weapon": 0.6}},
	}
	labels := EvaluateVideo(frames, nil, 0.5)
	if len(labels) != 2 {
		t.Fatalf("expected 2 labels, got %v", labels)
	}
	seen := map[string]bool{}
	for _, l := range labels {
		seen[l] = true
	}
	if !seen[LabelOffensive] || !seen[LabelDangerous] {
		t.Errorf("expected offensive and dangerous labels, got %v", labels)
	}
}

func TestEvaluateVideo_AggregateFallback(t *testing.T) {
	aggregate := sightengine.Verdict{
		"wad": {"alcohol": 0.5},
	}
	labels := EvaluateVideo(nil, aggregate, 0.5)
	if len(labels) != 1 || labels[0] != LabelDangerous {
		t.Errorf("expected [%s], got %v", LabelDangerous, labels)
	}
}

func TestEvaluateVideo_ExcludedKeys(t *testing.T) {
	frames := []sightengine.Verdict{
		{"nudity": {"none": 0.99, "context": 0.99, "safe": 0.99}},
	}
	if labels := EvaluateVideo(frames, nil, 0.5); len(labels) != 0 {
		t.Errorf("expected no violations from excluded keys, got %v", labels)
	}
}

func TestEvaluateVideo_Empty(t *testing.T) {
	if labels := EvaluateVideo(nil, nil, 0.5); labels != nil {
		t.Errorf("expected nil, got %v", labels)
	}
}

func TestSelectStrategy(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name          string
		mime          string
		duration      float64
		durationKnown bool
		expected      Strategy
	}{
		{"image", "image/png", 0, false, StrategySingle},
		{"short video", "video/mp4", 42, true, StrategySyncVideo},
		{"long video", "video/mp4", 125, true, StrategySegmented},
		{"exactly sixty seconds", "video/mp4", 60, true, StrategySegmented},
		{"unknown duration", "video/mp4", 0, false, StrategySegmented},
		{"other type", "application/pdf", 0, false, StrategyNone},
	}
	for _, tc := range tests {
		if got := cfg.SelectStrategy(tc.mime, tc.duration, tc.durationKnown); got != tc.expected {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.expected, got)
		}
	}
}

func TestSelectStrategy_AsyncConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LongVideo = StrategyAsyncPolled
	if got := cfg.SelectStrategy("video/mp4", 300, true); got != StrategyAsyncPolled {
		t.Errorf("expected async-polled, got %v", got)
	}
	// Short videos stay synchronous regardless of the long-video choice.
	if got := cfg.SelectStrategy("video/mp4", 10, true); got != StrategySyncVideo {
		t.Errorf("expected sync-video, got %v", got)
	}
}
