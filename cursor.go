// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rec

import (
	"encoding/binary"
	"fmt"
)

// cursor is a bounds-checked sequential reader/writer over a byte buffer.
// Every read validates that the requested bytes fit inside the buffer and
// fails with ErrOutOfBounds otherwise; there is no silent truncation.
//
// A cursor created with newCursor has fixed capacity: writes past the end
// fail with ErrCapacityExceeded. A cursor created with newOutputCursor is
// growable and is used only for newly built output.
type cursor struct {
	buf      []byte
	pos      int
	growable bool
}

// newCursor creates a fixed-capacity cursor over an existing buffer.
func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

// newOutputCursor creates an empty growable cursor for building output.
func newOutputCursor() *cursor {
	return &cursor{growable: true}
}

// remaining returns the number of unread bytes.
func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

// bytes returns the full underlying buffer.
func (c *cursor) bytes() []byte {
	return c.buf
}

// readBytes reads exactly n bytes and advances the position.
func (c *cursor) readBytes(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, fmt.Errorf("%w: %d bytes at offset %d, buffer length %d",
			ErrOutOfBounds, n, c.pos, len(c.buf))
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// readUint8 reads a single byte.
func (c *cursor) readUint8() (uint8, error) {
	b, err := c.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// readUint16 reads a little-endian uint16.
func (c *cursor) readUint16() (uint16, error) {
	b, err := c.readBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// readUint32 reads a little-endian uint32.
func (c *cursor) readUint32() (uint32, error) {
	b, err := c.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// readInt32 reads a little-endian int32.
func (c *cursor) readInt32() (int32, error) {
	v, err := c.readUint32()
	return int32(v), err
}

// readUintN reads a little-endian unsigned integer of the given byte width.
// Widths of 1, 2 and 4 are supported; these are the widths the header field
// tables use.
func (c *cursor) readUintN(width int) (uint64, error) {
	switch width {
	case 1:
		v, err := c.readUint8()
		return uint64(v), err
	case 2:
		v, err := c.readUint16()
		return uint64(v), err
	case 4:
		v, err := c.readUint32()
		return uint64(v), err
	default:
		return 0, fmt.Errorf("unsupported integer width: %d", width)
	}
}

// readCString reads a null-terminated string, consuming the terminator.
func (c *cursor) readCString() (string, error) {
	start := c.pos
	for i := c.pos; i < len(c.buf); i++ {
		if c.buf[i] == 0 {
			c.pos = i + 1
			return string(c.buf[start:i]), nil
		}
	}
	return "", fmt.Errorf("%w: unterminated string at offset %d, buffer length %d",
		ErrOutOfBounds, start, len(c.buf))
}

// readString16 reads a string prefixed with a little-endian uint16 length.
func (c *cursor) readString16() (string, error) {
	n, err := c.readUint16()
	if err != nil {
		return "", err
	}
	b, err := c.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// writeBytes appends or overwrites n bytes at the current position.
func (c *cursor) writeBytes(b []byte) error {
	if c.growable {
		c.buf = append(c.buf[:c.pos], b...)
		c.pos = len(c.buf)
		return nil
	}
	if c.pos+len(b) > len(c.buf) {
		return fmt.Errorf("%w: %d bytes at offset %d, capacity %d",
			ErrCapacityExceeded, len(b), c.pos, len(c.buf))
	}
	copy(c.buf[c.pos:], b)
	c.pos += len(b)
	return nil
}

// writeUint8 writes a single byte.
func (c *cursor) writeUint8(v uint8) error {
	return c.writeBytes([]byte{v})
}

// writeUint16 writes a little-endian uint16.
func (c *cursor) writeUint16(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return c.writeBytes(b[:])
}

// writeUint32 writes a little-endian uint32.
func (c *cursor) writeUint32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return c.writeBytes(b[:])
}

// writeInt32 writes a little-endian int32.
func (c *cursor) writeInt32(v int32) error {
	return c.writeUint32(uint32(v))
}

// writeUintN writes a little-endian unsigned integer of the given byte width.
func (c *cursor) writeUintN(v uint64, width int) error {
	switch width {
	case 1:
		return c.writeUint8(uint8(v))
	case 2:
		return c.writeUint16(uint16(v))
	case 4:
		return c.writeUint32(uint32(v))
	default:
		return fmt.Errorf("unsupported integer width: %d", width)
	}
}

// writeCString writes a string followed by a null terminator.
func (c *cursor) writeCString(s string) error {
	if err := c.writeBytes([]byte(s)); err != nil {
		return err
	}
	return c.writeUint8(0)
}

// writeString16 writes a string prefixed with a little-endian uint16 length.
func (c *cursor) writeString16(s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("%w: string length %d exceeds uint16 prefix",
			ErrCapacityExceeded, len(s))
	}
	if err := c.writeUint16(uint16(len(s))); err != nil {
		return err
	}
	return c.writeBytes([]byte(s))
}
