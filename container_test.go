// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// testHeader fabricates a header with plausible metadata for the version.
func testHeader(version FormatVersion, slots []PlayerSlot) *Header {
	fields := headerFieldTables[version]
	meta := make([]uint64, len(fields))
	for i := range meta {
		meta[i] = uint64(1000 + i)
	}
	return &Header{
		GameVersion: "VER 9.4",
		Meta:        meta,
		Settings:    []byte{0xA3, 0x5F, 0x02, 0x00, 0x01, 0x00, 0x00, 0x00},
		Slots:       slots,
		Trailer:     []byte{0x0A, 0x0B, 0x0C, 0x0D},
		version:     version,
	}
}

// testBody fabricates a body around the given operations stream.
func testBody(ops []byte) *Body {
	b := &Body{StreamVersion: 3, Ops: ops}
	raw := make([]byte, metaSize)
	binary.LittleEndian.PutUint32(raw[0:4], 500) // checksum interval
	raw[4] = 1                                   // multiplayer
	binary.LittleEndian.PutUint32(raw[8:12], 1)  // recording owner slot
	binary.LittleEndian.PutUint32(raw[16:20], 1) // sequence numbers
	binary.LittleEndian.PutUint32(raw[24:28], 2) // edition marker
	copy(b.metaRaw[:], raw)
	b.Meta = decodeReplayMeta(raw)
	return b
}

// buildFile assembles a complete container image through the serializer.
func buildFile(t *testing.T, version FormatVersion, slots []PlayerSlot, ops []byte) []byte {
	t.Helper()
	c := &Container{
		Version: version,
		Header:  testHeader(version, slots),
		Body:    testBody(ops),
	}
	data, err := c.Serialize()
	if err != nil {
		t.Fatalf("build container: %v", err)
	}
	return data
}

// opaqueEvent encodes one non-chat event.
func opaqueEvent(tag uint8, payload []byte) []byte {
	b := make([]byte, eventHeadSize+len(payload))
	b[0] = tag
	binary.LittleEndian.PutUint32(b[1:eventHeadSize], uint32(len(payload)))
	copy(b[eventHeadSize:], payload)
	return b
}

// chatEvt encodes one chat event.
func chatEvt(slot uint8, text string) []byte {
	payload := make([]byte, 1+len(text))
	payload[0] = slot
	copy(payload[1:], text)
	return opaqueEvent(eventChat, payload)
}

var testSlots = []PlayerSlot{
	{Name: "Alice", Rating: 1500, TeamID: 1, CivID: 7},
	{Name: "Bob", Rating: 1600, TeamID: 1, CivID: 12},
	{Name: "Charlie", Rating: 1400, TeamID: 2, CivID: 3},
}

func TestParseSerializeRoundTrip(t *testing.T) {
	ops := bytes.Join([][]byte{
		opaqueEvent(eventSync, make([]byte, 10)),
		chatEvt(1, "gg"),
		opaqueEvent(eventCommand, make([]byte, 6)),
	}, nil)

	for _, version := range []FormatVersion{FormatV1, FormatV2} {
		data := buildFile(t, version, testSlots, ops)

		c, err := Parse(data)
		if err != nil {
			t.Fatalf("v%d: parse: %v", version, err)
		}
		if c.Version != version {
			t.Errorf("v%d: parsed version = %d", version, c.Version)
		}
		if len(c.Header.Slots) != len(testSlots) {
			t.Fatalf("v%d: %d slots, want %d", version, len(c.Header.Slots), len(testSlots))
		}
		for i, slot := range c.Header.Slots {
			if slot != testSlots[i] {
				t.Errorf("v%d: slot %d = %+v, want %+v", version, i, slot, testSlots[i])
			}
		}

		out, err := c.Serialize()
		if err != nil {
			t.Fatalf("v%d: serialize: %v", version, err)
		}
		if !bytes.Equal(out, data) {
			t.Errorf("v%d: round trip not byte-identical (%d vs %d bytes)",
				version, len(out), len(data))
		}
	}
}

func TestParseRejectsUnsupportedVersion(t *testing.T) {
	data := buildFile(t, FormatV2, testSlots, nil)
	binary.LittleEndian.PutUint32(data[4:8], 99)

	if _, err := Parse(data); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("err = %v, want ErrUnsupportedVersion", err)
	}
}

func TestParseRejectsOversizedHeaderLength(t *testing.T) {
	data := buildFile(t, FormatV2, testSlots, nil)
	binary.LittleEndian.PutUint32(data[0:4], uint32(len(data)+100))

	if _, err := Parse(data); !errors.Is(err, ErrTruncatedHeader) {
		t.Errorf("err = %v, want ErrTruncatedHeader", err)
	}
}

func TestParseRejectsMalformedHeaderRegion(t *testing.T) {
	data := buildFile(t, FormatV2, testSlots, nil)
	// Shrink the declared header region so the deflate stream loses its
	// final block and fails the decoder's integrity checks.
	declared := binary.LittleEndian.Uint32(data[0:4])
	binary.LittleEndian.PutUint32(data[0:4], declared-4)

	if _, err := Parse(data); !errors.Is(err, ErrMalformedCompression) {
		t.Errorf("err = %v, want ErrMalformedCompression", err)
	}
}

func TestTruncatedSlotTable(t *testing.T) {
	// A header declaring 5 slots but carrying bytes for only 2 must fail
	// with ErrTruncatedHeader, never a silent partial slot list.
	raw := newOutputCursor()
	raw.writeCString("VER 9.4")
	for _, f := range headerFieldTables[FormatV2] {
		raw.writeUintN(7, f.width)
	}
	raw.writeUint32(0) // empty settings
	raw.writeUint32(5) // declared slot count
	writeSlot(raw, PlayerSlot{Name: "Alice", Rating: 1500})
	writeSlot(raw, PlayerSlot{Name: "Bob", Rating: 1600})

	compressed, err := encodeHeaderRegion(FormatV2, raw.bytes())
	if err != nil {
		t.Fatalf("encode header: %v", err)
	}

	out := newOutputCursor()
	out.writeUint32(uint32(len(compressed) + prefixSize))
	out.writeUint32(uint32(FormatV2))
	out.writeBytes(compressed)
	out.writeUint32(3)                     // stream version
	out.writeBytes(make([]byte, metaSize)) // meta block

	if _, err := Parse(out.bytes()); !errors.Is(err, ErrTruncatedHeader) {
		t.Errorf("err = %v, want ErrTruncatedHeader", err)
	}
}

func TestZeroSlots(t *testing.T) {
	data := buildFile(t, FormatV1, nil, nil)

	c, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(c.Header.Slots) != 0 {
		t.Errorf("slots = %d, want 0", len(c.Header.Slots))
	}

	out, err := c.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("zero-slot round trip not byte-identical")
	}
}

func TestMetaFieldLookup(t *testing.T) {
	c, err := Parse(buildFile(t, FormatV2, testSlots, nil))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// "build" is the second entry in the V2 field table; testHeader fills
	// fields with 1000+index.
	if v, ok := c.Header.MetaField("build"); !ok || v != 1001 {
		t.Errorf("MetaField(build) = %d, %v; want 1001, true", v, ok)
	}
	if _, ok := c.Header.MetaField("build2077"); ok {
		t.Error("MetaField for unknown name should report false")
	}
}

func TestReplayMetaDecoded(t *testing.T) {
	c, err := Parse(buildFile(t, FormatV2, testSlots, nil))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	meta := c.Body.Meta
	if meta.ChecksumInterval != 500 || !meta.Multiplayer || meta.RecOwner != 1 ||
		meta.RevealMap || meta.UseSequenceNumbers != 1 || meta.ChapterCount != 0 ||
		meta.Edition != 2 {
		t.Errorf("replay meta = %+v", meta)
	}
}

func TestHeaderLengthRecomputed(t *testing.T) {
	ops := chatEvt(0, "hello")
	data := buildFile(t, FormatV2, testSlots, ops)

	c, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c.Header.Slots[0].Name = "a much, much longer display name than before"

	out, err := c.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	bodyLength := 4 + metaSize + len(ops)
	declared := binary.LittleEndian.Uint32(out[0:4])
	if int(declared) != len(out)-bodyLength {
		t.Errorf("header length field = %d, want %d", declared, len(out)-bodyLength)
	}

	// The output must still parse cleanly through the declared length.
	reparsed, err := Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if reparsed.Header.Slots[0].Name != c.Header.Slots[0].Name {
		t.Errorf("renamed slot lost: %q", reparsed.Header.Slots[0].Name)
	}
}
