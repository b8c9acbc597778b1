// Package mp4 reads just enough of the ISO base media container to
// support moderation: the play length from the movie header, and the
// leading structural boxes needed to build independently decodable
// sub-clips.
package mp4

import "encoding/binary"

// Segments holds the raw bytes of the two leading structural boxes of
// an MP4 file. Prepending both to a byte slice of the media data yields
// a clip most decoders will accept on its own.
type Segments struct {
	FileType    []byte // the ftyp box, including its header
	MovieHeader []byte // the moov box, including its header
}

type box struct {
	boxType string
	payload []byte
	raw     []byte // header + payload
}

// walkBoxes iterates the length-prefixed boxes in data, calling fn for
// each. Malformed or truncated boxes end the walk silently; callers
// treat missing boxes as "not found" rather than errors.
func walkBoxes(data []byte, fn func(b box) bool) {
	off := 0
	for off+8 <= len(data) {
		size := int64(binary.BigEndian.Uint32(data[off : off+4]))
		boxType := string(data[off+4 : off+8])
		headerLen := int64(8)

		switch size {
		case 0:
			// Box extends to end of buffer.
			size = int64(len(data) - off)
		case 1:
			// 64-bit largesize follows the type field.
			if off+16 > len(data) {
				return
			}
			size = int64(binary.BigEndian.Uint64(data[off+8 : off+16]))
			headerLen = 16
		}

		if size < headerLen || int64(off)+size > int64(len(data)) {
			return
		}

		b := box{
			boxType: boxType,
			payload: data[off+int(headerLen) : int64(off)+size],
			raw:     data[off : int64(off)+size],
		}
		if !fn(b) {
			return
		}
		off += int(size)
	}
}

func findBox(data []byte, boxType string) (box, bool) {
	var found box
	ok := false
	walkBoxes(data, func(b box) bool {
		if b.boxType == boxType {
			found = b
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// ParseDuration extracts the play length in seconds from the movie
// header. The second return is false when the buffer holds no readable
// mvhd box; malformed input never panics.
func ParseDuration(data []byte) (float64, bool) {
	moov, ok := findBox(data, "moov")
	if !ok {
		return 0, false
	}
	mvhd, ok := findBox(moov.payload, "mvhd")
	if !ok {
		return 0, false
	}

	p := mvhd.payload
	if len(p) < 4 {
		return 0, false
	}
	version := p[0]

	var timescale uint32
	var duration uint64
	switch version {
	case 0:
		// fullbox header(4) + creation(4) + modification(4) + timescale(4) + duration(4)
		if len(p) < 20 {
			return 0, false
		}
		timescale = binary.BigEndian.Uint32(p[12:16])
		duration = uint64(binary.BigEndian.Uint32(p[16:20]))
	case 1:
		// fullbox header(4) + creation(8) + modification(8) + timescale(4) + duration(8)
		if len(p) < 32 {
			return 0, false
		}
		timescale = binary.BigEndian.Uint32(p[20:24])
		duration = binary.BigEndian.Uint64(p[24:32])
	default:
		return 0, false
	}

	if timescale == 0 {
		return 0, false
	}
	return float64(duration) / float64(timescale), true
}

// HeaderSegments locates the ftyp and moov boxes. The second return is
// false when either is missing, which tells the caller to fall back to
// whole-file moderation instead of slicing.
func HeaderSegments(data []byte) (*Segments, bool) {
	ftyp, ok := findBox(data, "ftyp")
	if !ok {
		return nil, false
	}
	moov, ok := findBox(data, "moov")
	if !ok {
		return nil, false
	}
	return &Segments{FileType: ftyp.raw, MovieHeader: moov.raw}, true
}
