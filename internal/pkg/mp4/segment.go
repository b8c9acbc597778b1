package mp4

// Window is a time-bounded slice of a video's timeline, moderated
// independently of its neighbors.
type Window struct {
	Start  float64 // seconds from the beginning
	Length float64 // seconds
}

// Windows splits a duration into fixed-length windows. The final
// window carries the remainder. A non-positive duration or window size
// yields no windows.
func Windows(duration, window float64) []Window {
	if duration <= 0 || window <= 0 {
		return nil
	}
	var out []Window
	for start := 0.0; start < duration; start += window {
		length := window
		if start+length > duration {
			length = duration - start
		}
		out = append(out, Window{Start: start, Length: length})
	}
	return out
}

// ByteRange maps a window onto a byte range of the file using the
// estimated average bitrate fileSize/duration. The range is clamped to
// the file; ok is false when the estimate degenerates to an empty
// slice.
func (w Window) ByteRange(fileSize int64, duration float64) (start, end int64, ok bool) {
	if fileSize <= 0 || duration <= 0 {
		return 0, 0, false
	}
	bitrate := float64(fileSize) / duration
	start = int64(w.Start * bitrate)
	end = int64((w.Start + w.Length) * bitrate)
	if end > fileSize {
		end = fileSize
	}
	if start < 0 || start >= end {
		return 0, 0, false
	}
	return start, end, true
}

// ByteChunks carves a file of unknown duration into fixed-size byte
// ranges, the last-resort segmentation when no movie header is
// readable.
func ByteChunks(fileSize, chunkSize int64) [][2]int64 {
	if fileSize <= 0 || chunkSize <= 0 {
		return nil
	}
	var out [][2]int64
	for start := int64(0); start < fileSize; start += chunkSize {
		end := start + chunkSize
		if end > fileSize {
			end = fileSize
		}
		out = append(out, [2]int64{start, end})
	}
	return out
}
