package sightengine

import "encoding/json"

// Top-level response keys that are call metadata rather than model
// score groups.
var metadataKeys = map[string]bool{
	"status":          true,
	"request":         true,
	"media":           true,
	"error":           true,
	"data":            true,
	"frames":          true,
	"progress_status": true,
}

// extractVerdict pulls the model score groups out of a response
// object, dropping call metadata. A scalar score is wrapped as
// {"prob": v} so every group is a named-score map.
func extractVerdict(raw json.RawMessage) Verdict {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil
	}

	verdict := Verdict{}
	for key, val := range top {
		if metadataKeys[key] {
			continue
		}
		var group map[string]any
		if err := json.Unmarshal(val, &group); err == nil {
			verdict[key] = group
			continue
		}
		var scalar float64
		if err := json.Unmarshal(val, &scalar); err == nil {
			verdict[key] = map[string]any{"prob": scalar}
		}
	}
	if len(verdict) == 0 {
		return nil
	}
	return verdict
}

// extractVideoVerdict normalizes the heterogeneous video response
// shapes: frames may live under data.frames or frames, and may be an
// array or a single object.
func extractVideoVerdict(raw json.RawMessage) *VideoVerdict {
	var top struct {
		Data   json.RawMessage `json:"data"`
		Frames json.RawMessage `json:"frames"`
	}
	_ = json.Unmarshal(raw, &top)

	framesRaw := top.Frames
	var aggregateSource json.RawMessage = raw
	if len(top.Data) > 0 {
		var data struct {
			Frames json.RawMessage `json:"frames"`
		}
		if err := json.Unmarshal(top.Data, &data); err == nil && len(data.Frames) > 0 {
			framesRaw = data.Frames
		}
		aggregateSource = top.Data
	}

	return &VideoVerdict{
		Frames:    parseFrames(framesRaw),
		Aggregate: extractVerdict(aggregateSource),
	}
}

// parseFrames accepts either an array of frame objects or a single
// frame object.
func parseFrames(raw json.RawMessage) []Verdict {
	if len(raw) == 0 {
		return nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		// Single frame object.
		if v := extractFrameVerdict(raw); v != nil {
			return []Verdict{v}
		}
		return nil
	}

	var frames []Verdict
	for _, item := range list {
		if v := extractFrameVerdict(item); v != nil {
			frames = append(frames, v)
		}
	}
	return frames
}

// Frame-level keys that describe the frame rather than score it.
var frameMetadataKeys = map[string]bool{
	"info":     true,
	"position": true,
	"time":     true,
}

func extractFrameVerdict(raw json.RawMessage) Verdict {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil
	}

	verdict := Verdict{}
	for key, val := range top {
		if metadataKeys[key] || frameMetadataKeys[key] {
			continue
		}
		var group map[string]any
		if err := json.Unmarshal(val, &group); err == nil {
			verdict[key] = group
			continue
		}
		var scalar float64
		if err := json.Unmarshal(val, &scalar); err == nil {
			verdict[key] = map[string]any{"prob": scalar}
		}
	}
	if len(verdict) == 0 {
		return nil
	}
	return verdict
}
