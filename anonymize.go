// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rec

import "strconv"

// NamePolicy returns the replacement display name for a player slot.
type NamePolicy func(original string, slot int) string

// RatingPolicy returns the replacement rating for a player slot.
type RatingPolicy func(original int32, slot int) int32

// ChatPolicy returns the replacement text for a chat message. The slot
// argument is the originating slot index, or -1 for broadcast messages.
type ChatPolicy func(original string, slot int) string

// Policies bundles the replacement policies for one anonymization run.
// Each policy is a pure function; a nil policy leaves that category
// untouched.
type Policies struct {
	Name   NamePolicy
	Rating RatingPolicy
	Chat   ChatPolicy

	// Strict fails the body scan on unknown event tags instead of
	// skipping them by their declared length.
	Strict bool
}

// DefaultName replaces a display name with "Player" plus the slot index.
func DefaultName(_ string, slot int) string {
	return "Player" + strconv.Itoa(slot)
}

// DefaultRating replaces any rating with the unrated sentinel.
func DefaultRating(int32, int) int32 {
	return RatingUnrated
}

// DefaultChat replaces chat text with the empty string.
func DefaultChat(string, int) string {
	return ""
}

// DefaultPolicies anonymizes all three categories with the default
// replacements.
func DefaultPolicies() Policies {
	return Policies{
		Name:   DefaultName,
		Rating: DefaultRating,
		Chat:   DefaultChat,
	}
}

// Anonymize parses a recorded-game file, applies the replacement
// policies, and returns the rewritten file image.
//
// The transform is pure: the same input and policies always produce the
// same output, and there are no side effects beyond the returned bytes.
// Any structural failure aborts the whole run with an error and no
// output; a partially anonymized file is worse than none.
func Anonymize(data []byte, p Policies) ([]byte, error) {
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := c.Apply(p); err != nil {
		return nil, err
	}
	return c.Serialize()
}

// Apply mutates the container per the policies: slot names and ratings
// in the header, chat text in the body.
//
// Replacement names may differ in byte length from the originals; the
// header is re-serialized as a whole rather than patched in place, so
// only the recomputed compressed-section length changes. Chat events are
// rebuilt with freshly computed length prefixes; the rebuild walks the
// original immutable stream while appending to a new buffer, so a length
// change never causes a stale-offset read past a rewritten span.
func (c *Container) Apply(p Policies) error {
	for i := range c.Header.Slots {
		slot := &c.Header.Slots[i]
		if p.Name != nil {
			slot.Name = p.Name(slot.Name, i)
		}
		if p.Rating != nil {
			slot.Rating = p.Rating(slot.Rating, i)
		}
	}

	if p.Chat == nil {
		return nil
	}
	ops, err := rewriteChat(c.Body.Ops, p.Chat, p.Strict)
	if err != nil {
		return err
	}
	c.Body.Ops = ops
	return nil
}

// rewriteChat rebuilds the operations stream with replacement chat text.
// Opaque event spans are copied byte-for-byte.
func rewriteChat(ops []byte, policy ChatPolicy, strict bool) ([]byte, error) {
	s := NewScanner(ops, strict)
	out := newOutputCursor()
	last := 0

	for s.Next() {
		ev := s.Event()
		if err := out.writeBytes(ops[last:ev.Offset]); err != nil {
			return nil, err
		}

		slot := int(ev.Slot)
		if ev.Slot == BroadcastSlot {
			slot = -1
		}
		if err := writeChatEvent(out, ev.Slot, policy(ev.Text, slot)); err != nil {
			return nil, err
		}
		last = ev.Offset + ev.Length
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	if err := out.writeBytes(ops[last:]); err != nil {
		return nil, err
	}
	return out.bytes(), nil
}

// writeChatEvent encodes one chat event with its own new length prefix.
func writeChatEvent(c *cursor, slot uint8, text string) error {
	if err := c.writeUint8(eventChat); err != nil {
		return err
	}
	if err := c.writeUint32(uint32(1 + len(text))); err != nil {
		return err
	}
	if err := c.writeUint8(slot); err != nil {
		return err
	}
	return c.writeBytes([]byte(text))
}
