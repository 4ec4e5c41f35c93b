// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rec

import (
	"encoding/binary"
	"fmt"
)

// Container is the parsed in-memory form of a recorded-game file.
// It owns its header and body exclusively: the input buffer is only
// borrowed during Parse, and Serialize always builds a new buffer, so
// the original file stays recoverable on failure.
type Container struct {
	Version FormatVersion
	Header  *Header
	Body    *Body
}

// Header is the decoded content of the compressed header region.
type Header struct {
	// GameVersion is the null-terminated engine version string.
	GameVersion string

	// Meta holds the fixed metadata fields, ordered per the version's
	// field table. The values are opaque and passed through unchanged.
	Meta []uint64

	// Settings is the opaque lobby settings blob.
	Settings []byte

	// Slots is the ordered player/spectator slot table. Slot identity is
	// its position in this sequence; encode order must match decode order.
	Slots []PlayerSlot

	// Trailer is the opaque remainder of the header region.
	Trailer []byte

	version FormatVersion
}

// MetaField returns the named fixed metadata field, looked up through the
// version's field table.
func (h *Header) MetaField(name string) (uint64, bool) {
	fields := headerFieldTables[h.version]
	for i, f := range fields {
		if f.name == name && i < len(h.Meta) {
			return h.Meta[i], true
		}
	}
	return 0, false
}

// PlayerSlot is one player or spectator slot. The slot has no stable ID
// of its own; downstream body records reference it by sequence index.
type PlayerSlot struct {
	Name   string
	Rating int32 // RatingUnrated for unrated games
	TeamID uint8
	CivID  uint8
}

// Body is the raw, uncompressed remainder of the container.
type Body struct {
	// StreamVersion is the operations stream revision, passed through.
	StreamVersion uint32

	// Meta is a decoded view of the fixed replay meta block. The block
	// itself is re-serialized byte-for-byte from the original, padding
	// included.
	Meta ReplayMeta

	// Ops is the sequential operations (event) stream.
	Ops []byte

	metaRaw [metaSize]byte
}

// ReplayMeta mirrors the fixed meta block at the start of the body.
type ReplayMeta struct {
	ChecksumInterval   uint32
	Multiplayer        bool
	RecOwner           uint32
	RevealMap          bool
	UseSequenceNumbers uint32
	ChapterCount       uint32
	Edition            uint32
}

// slotFixedSize is the per-slot byte count excluding the variable name:
// team, civ, rating and the name length prefix.
const slotFixedSize = 1 + 1 + 4 + 2

// Parse decodes a recorded-game file into a Container.
//
// The version tag is validated first; unsupported values fail with
// ErrUnsupportedVersion before any decompression is attempted. The
// compressed header region is located through the fixed-offset length
// field, inflated, and decoded field by field through the version's
// field table.
func Parse(data []byte) (*Container, error) {
	c := newCursor(data)

	headerLength, err := c.readUint32()
	if err != nil {
		return nil, fmt.Errorf("read header length: %w", err)
	}
	versionTag, err := c.readUint32()
	if err != nil {
		return nil, fmt.Errorf("read version tag: %w", err)
	}

	version := FormatVersion(versionTag)
	if !supportedVersion(version) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, versionTag)
	}

	if headerLength < prefixSize || int64(headerLength) > int64(len(data)) {
		return nil, fmt.Errorf("%w: header region of %d bytes in a %d byte file",
			ErrTruncatedHeader, headerLength, len(data))
	}

	rawHeader, err := decodeHeaderRegion(version, data[prefixSize:headerLength])
	if err != nil {
		return nil, err
	}

	header, err := parseHeader(version, rawHeader)
	if err != nil {
		return nil, err
	}

	body, err := parseBody(data[headerLength:])
	if err != nil {
		return nil, err
	}

	return &Container{
		Version: version,
		Header:  header,
		Body:    body,
	}, nil
}

// parseHeader decodes the decompressed header region.
func parseHeader(version FormatVersion, raw []byte) (*Header, error) {
	c := newCursor(raw)
	h := &Header{version: version}

	var err error
	if h.GameVersion, err = c.readCString(); err != nil {
		return nil, fmt.Errorf("read game version: %w", err)
	}

	fields := headerFieldTables[version]
	h.Meta = make([]uint64, len(fields))
	for i, f := range fields {
		if h.Meta[i], err = c.readUintN(f.width); err != nil {
			return nil, fmt.Errorf("read %s: %w", f.name, err)
		}
	}

	settingsLength, err := c.readUint32()
	if err != nil {
		return nil, fmt.Errorf("read settings length: %w", err)
	}
	if int64(settingsLength) > int64(c.remaining()) {
		return nil, fmt.Errorf("%w: settings of %d bytes with %d bytes remaining",
			ErrTruncatedHeader, settingsLength, c.remaining())
	}
	settings, err := c.readBytes(int(settingsLength))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	h.Settings = append([]byte(nil), settings...)

	slotCount, err := c.readUint32()
	if err != nil {
		return nil, fmt.Errorf("read slot count: %w", err)
	}
	if int64(slotCount)*slotFixedSize > int64(c.remaining()) {
		return nil, fmt.Errorf("%w: %d slots declared with %d bytes remaining",
			ErrTruncatedHeader, slotCount, c.remaining())
	}

	h.Slots = make([]PlayerSlot, 0, slotCount)
	for i := uint32(0); i < slotCount; i++ {
		slot, err := readSlot(c)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %d of %d: %v",
				ErrTruncatedHeader, i, slotCount, err)
		}
		h.Slots = append(h.Slots, slot)
	}

	trailer, err := c.readBytes(c.remaining())
	if err != nil {
		return nil, fmt.Errorf("read header trailer: %w", err)
	}
	h.Trailer = append([]byte(nil), trailer...)

	return h, nil
}

// readSlot decodes one player slot: fixed fields then the length-prefixed
// display name.
func readSlot(c *cursor) (PlayerSlot, error) {
	var s PlayerSlot
	var err error

	if s.TeamID, err = c.readUint8(); err != nil {
		return s, err
	}
	if s.CivID, err = c.readUint8(); err != nil {
		return s, err
	}
	if s.Rating, err = c.readInt32(); err != nil {
		return s, err
	}
	if s.Name, err = c.readString16(); err != nil {
		return s, err
	}
	return s, nil
}

// parseBody decodes the raw body region: the stream version, the fixed
// replay meta block, and the operations stream.
func parseBody(data []byte) (*Body, error) {
	c := newCursor(data)
	b := &Body{}

	var err error
	if b.StreamVersion, err = c.readUint32(); err != nil {
		return nil, fmt.Errorf("read stream version: %w", err)
	}

	metaRaw, err := c.readBytes(metaSize)
	if err != nil {
		return nil, fmt.Errorf("read replay meta: %w", err)
	}
	copy(b.metaRaw[:], metaRaw)
	b.Meta = decodeReplayMeta(metaRaw)

	ops, err := c.readBytes(c.remaining())
	if err != nil {
		return nil, fmt.Errorf("read operations stream: %w", err)
	}
	b.Ops = append([]byte(nil), ops...)

	return b, nil
}

// decodeReplayMeta decodes the fixed meta block. Boolean flags are single
// bytes followed by three bytes of padding.
func decodeReplayMeta(b []byte) ReplayMeta {
	return ReplayMeta{
		ChecksumInterval:   binary.LittleEndian.Uint32(b[0:4]),
		Multiplayer:        b[4] != 0,
		RecOwner:           binary.LittleEndian.Uint32(b[8:12]),
		RevealMap:          b[12] != 0,
		UseSequenceNumbers: binary.LittleEndian.Uint32(b[16:20]),
		ChapterCount:       binary.LittleEndian.Uint32(b[20:24]),
		Edition:            binary.LittleEndian.Uint32(b[24:28]),
	}
}

// Serialize encodes the container back into a complete file image.
//
// The header is re-encoded as a whole and recompressed, and the
// fixed-offset header length field is recomputed from the actual
// compressed size, never copied from the input. Slot order and all
// opaque fields are preserved; the body is appended verbatim.
func (c *Container) Serialize() ([]byte, error) {
	if !supportedVersion(c.Version) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, c.Version)
	}

	rawHeader, err := serializeHeader(c.Version, c.Header)
	if err != nil {
		return nil, err
	}
	compressed, err := encodeHeaderRegion(c.Version, rawHeader)
	if err != nil {
		return nil, err
	}

	out := newOutputCursor()
	if err := out.writeUint32(uint32(len(compressed) + prefixSize)); err != nil {
		return nil, err
	}
	if err := out.writeUint32(uint32(c.Version)); err != nil {
		return nil, err
	}
	if err := out.writeBytes(compressed); err != nil {
		return nil, err
	}
	if err := out.writeUint32(c.Body.StreamVersion); err != nil {
		return nil, err
	}
	if err := out.writeBytes(c.Body.metaRaw[:]); err != nil {
		return nil, err
	}
	if err := out.writeBytes(c.Body.Ops); err != nil {
		return nil, err
	}

	return out.bytes(), nil
}

// serializeHeader encodes the header region, still uncompressed.
func serializeHeader(version FormatVersion, h *Header) ([]byte, error) {
	fields := headerFieldTables[version]
	if len(h.Meta) != len(fields) {
		return nil, fmt.Errorf("header has %d metadata fields, version %d expects %d",
			len(h.Meta), version, len(fields))
	}

	c := newOutputCursor()
	if err := c.writeCString(h.GameVersion); err != nil {
		return nil, err
	}
	for i, f := range fields {
		if err := c.writeUintN(h.Meta[i], f.width); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	if err := c.writeUint32(uint32(len(h.Settings))); err != nil {
		return nil, err
	}
	if err := c.writeBytes(h.Settings); err != nil {
		return nil, err
	}
	if err := c.writeUint32(uint32(len(h.Slots))); err != nil {
		return nil, err
	}
	for i, slot := range h.Slots {
		if err := writeSlot(c, slot); err != nil {
			return nil, fmt.Errorf("write slot %d: %w", i, err)
		}
	}
	if err := c.writeBytes(h.Trailer); err != nil {
		return nil, err
	}

	return c.bytes(), nil
}

// writeSlot encodes one player slot.
func writeSlot(c *cursor, s PlayerSlot) error {
	if err := c.writeUint8(s.TeamID); err != nil {
		return err
	}
	if err := c.writeUint8(s.CivID); err != nil {
		return err
	}
	if err := c.writeInt32(s.Rating); err != nil {
		return err
	}
	return c.writeString16(s.Name)
}
