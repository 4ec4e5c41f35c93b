// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rec

// FormatVersion identifies a supported container format revision.
// The version tag is stored at a fixed offset in the file prefix and
// selects both the header compression scheme and the header field table.
type FormatVersion uint32

const (
	// FormatV1 is the original format. The header region is compressed
	// with zlib (wrapped stream, Adler-32 checked).
	FormatV1 FormatVersion = 1

	// FormatV2 is the current format. The header region is compressed
	// with raw deflate (no wrapper, no checksum).
	FormatV2 FormatVersion = 2
)

// Container layout constants.
const (
	// prefixSize is the fixed uncompressed prefix: the header length
	// field followed by the format version tag.
	prefixSize = 8

	// metaSize is the fixed replay meta block at the start of the body.
	metaSize = 28

	// eventHeadSize is the event tag byte plus its uint32 payload length.
	eventHeadSize = 5
)

// RatingUnrated is the sentinel rating value for unrated games.
const RatingUnrated int32 = -1

// BroadcastSlot marks a chat message not attributed to a single slot.
const BroadcastSlot uint8 = 0xFF

// Event tags in the operations stream. Only chat events are decoded; all
// other events are self-delimiting and passed through byte-for-byte.
const (
	eventSync     = 0x01
	eventViewlock = 0x02
	eventCommand  = 0x03
	eventChat     = 0x04
	eventSeek     = 0x05
)

// knownEventTags is the set of tags a strict-mode scan accepts.
var knownEventTags = map[uint8]bool{
	eventSync:     true,
	eventViewlock: true,
	eventCommand:  true,
	eventChat:     true,
	eventSeek:     true,
}

// headerField describes one fixed metadata field in the decompressed
// header. All fields are little-endian unsigned integers and are passed
// through unchanged.
type headerField struct {
	name  string
	width int // byte width: 1, 2 or 4
}

// headerFieldTables maps each supported version to its fixed metadata
// layout. Field width and presence is version-dependent; the tables drive
// the decode and encode loops, so adding a version is a data addition,
// not a new code path.
var headerFieldTables = map[FormatVersion][]headerField{
	FormatV1: {
		{"timestamp", 4},
		{"gameSpeed", 4},
		{"mapID", 4},
	},
	FormatV2: {
		{"timestamp", 4},
		{"build", 4},
		{"gameSpeed", 4},
		{"mapID", 4},
		{"datasetID", 2},
	},
}

// supportedVersion reports whether the version tag is one of the
// supported values.
func supportedVersion(v FormatVersion) bool {
	_, ok := headerFieldTables[v]
	return ok
}
