// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

/*
Package rec reads, anonymizes and rewrites recorded-game (replay)
container files.

A recorded game embeds personally identifying data: player display
names, rating values and in-game chat. This package parses the
container, replaces those fields through caller-supplied policies, and
re-serializes a file that stays structurally valid to any reader of the
original format. Everything the policies do not touch is passed through
byte-for-byte.

# Features

  - Parse and re-serialize the container without corrupting any offset,
    length or checksum downstream structures depend on
  - Replace player names, ratings and chat text through pure policy
    functions, with sensible defaults
  - Compressed header region handled per format version (zlib for V1,
    raw deflate for V2), with the length field recomputed on every write
  - Single-pass chat scanner that skips unrelated gameplay events by
    their declared length, with an optional strict mode
  - Structured sentinel errors carrying the offending byte offset

# Basic Usage

Anonymizing a file with the default policies:

	data, err := os.ReadFile("match.rec")
	if err != nil {
		log.Fatal(err)
	}

	out, err := rec.Anonymize(data, rec.DefaultPolicies())
	if err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile("match_anon.rec", out, 0644); err != nil {
		log.Fatal(err)
	}

Inspecting a container:

	c, err := rec.ParseFile("match.rec")
	if err != nil {
		log.Fatal(err)
	}
	for i, slot := range c.Header.Slots {
		fmt.Printf("slot %d: %s (%d)\n", i, slot.Name, slot.Rating)
	}

# Format Versions

The version tag at the start of the file selects the header compression
scheme and the header field table. Versions 1 and 2 are supported;
anything else fails with [ErrUnsupportedVersion] before any best-effort
parsing is attempted.

# Limitations

This package models only the records that can carry identifying data:

  - Non-chat events are passed through without decoding their payloads
  - The lobby settings blob and header trailer are opaque
  - Data lost to upstream corruption is not reconstructed; a structural
    error aborts the whole run with no output written
*/
package rec
