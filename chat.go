// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rec

import (
	"encoding/binary"
	"fmt"
)

// ChatEvent is one located chat message in the operations stream.
type ChatEvent struct {
	Offset int    // byte offset of the event within the stream
	Length int    // total encoded event length, tag and prefix included
	Slot   uint8  // originating slot index, or BroadcastSlot
	Text   string // decoded message text
}

// Scanner walks the operations stream sequentially and yields chat
// events, skipping every other event by its declared length without
// decoding its payload.
//
// A scan is single-pass and finite. A scanner must not be reused after
// the underlying stream has been rewritten: a length-changing rewrite
// shifts every later offset, so the new stream needs a fresh scanner.
type Scanner struct {
	ops    []byte
	pos    int
	strict bool
	ev     ChatEvent
	err    error
}

// NewScanner returns a scanner over the operations stream. In strict
// mode, events with unknown tags fail the scan with ErrUnknownEventTag;
// in the default mode they are skipped using their declared length.
func NewScanner(ops []byte, strict bool) *Scanner {
	return &Scanner{ops: ops, strict: strict}
}

// Next advances to the next chat event. It returns false at the end of
// the stream or on the first structural error; Err tells them apart.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}

	for s.pos < len(s.ops) {
		if len(s.ops)-s.pos < eventHeadSize {
			s.err = fmt.Errorf("%w: %d trailing bytes at offset %d cannot hold an event head",
				ErrCorruptEvent, len(s.ops)-s.pos, s.pos)
			return false
		}

		tag := s.ops[s.pos]
		payloadLength := int(binary.LittleEndian.Uint32(s.ops[s.pos+1 : s.pos+eventHeadSize]))
		end := s.pos + eventHeadSize + payloadLength
		if payloadLength < 0 || end < s.pos || end > len(s.ops) {
			s.err = fmt.Errorf("%w: event at offset %d declares %d payload bytes with %d remaining",
				ErrCorruptEvent, s.pos, payloadLength, len(s.ops)-s.pos-eventHeadSize)
			return false
		}

		if tag == eventChat {
			if payloadLength < 1 {
				s.err = fmt.Errorf("%w: chat event at offset %d has no slot byte",
					ErrCorruptEvent, s.pos)
				return false
			}
			s.ev = ChatEvent{
				Offset: s.pos,
				Length: eventHeadSize + payloadLength,
				Slot:   s.ops[s.pos+eventHeadSize],
				Text:   string(s.ops[s.pos+eventHeadSize+1 : end]),
			}
			s.pos = end
			return true
		}

		if s.strict && !knownEventTags[tag] {
			s.err = fmt.Errorf("%w: 0x%02X at offset %d", ErrUnknownEventTag, tag, s.pos)
			return false
		}
		s.pos = end
	}

	return false
}

// Event returns the chat event found by the last successful Next call.
func (s *Scanner) Event() ChatEvent {
	return s.ev
}

// Err returns the first structural error hit by the scan, if any.
func (s *Scanner) Err() error {
	return s.err
}
