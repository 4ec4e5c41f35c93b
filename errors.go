// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rec

import "errors"

// Structural errors returned by the parser, scanner and anonymizer.
//
// Every failure wraps exactly one of these sentinels, so callers can use
// errors.Is() to find out which structural assumption broke while the
// wrapped message carries the offending offset and length.
var (
	// ErrOutOfBounds is returned when a read would pass the end of the
	// underlying buffer.
	ErrOutOfBounds = errors.New("read out of bounds")

	// ErrCapacityExceeded is returned when a write would pass the end of a
	// fixed-capacity buffer.
	ErrCapacityExceeded = errors.New("write capacity exceeded")

	// ErrMalformedCompression is returned when the compressed header region
	// fails the integrity checks of its compression scheme.
	ErrMalformedCompression = errors.New("malformed compressed header")

	// ErrUnsupportedVersion is returned when the container's format version
	// tag is not one of the supported values.
	ErrUnsupportedVersion = errors.New("unsupported format version")

	// ErrTruncatedHeader is returned when the header declares more content
	// (slots, settings, region length) than the available bytes can hold.
	ErrTruncatedHeader = errors.New("truncated header")

	// ErrUnknownEventTag is returned by a strict-mode scan when the
	// operations stream contains an event tag outside the known set.
	ErrUnknownEventTag = errors.New("unknown event tag")

	// ErrCorruptEvent is returned when an event's declared length is
	// inconsistent with its own encoding, for example extending past the
	// end of the operations stream.
	ErrCorruptEvent = errors.New("corrupt event")
)
