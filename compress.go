// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package rec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// decodeHeaderRegion inflates the compressed header region using the
// compression scheme selected by the container version.
func decodeHeaderRegion(version FormatVersion, data []byte) ([]byte, error) {
	switch version {
	case FormatV1:
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCompression, err)
		}
		defer r.Close()
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCompression, err)
		}
		return raw, nil

	case FormatV2:
		r := flate.NewReader(bytes.NewReader(data))
		defer r.Close()
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCompression, err)
		}
		return raw, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}

// encodeHeaderRegion compresses the raw header bytes using the scheme
// selected by the container version. Compression is deterministic for a
// given input, but re-encoding is not required to reproduce the original
// compressed bytes; the header length field is recomputed on serialize.
func encodeHeaderRegion(version FormatVersion, raw []byte) ([]byte, error) {
	var buf bytes.Buffer

	switch version {
	case FormatV1:
		w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, fmt.Errorf("create zlib writer: %w", err)
		}
		if _, err := w.Write(raw); err != nil {
			return nil, fmt.Errorf("zlib write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("zlib close: %w", err)
		}
		return buf.Bytes(), nil

	case FormatV2:
		w, err := flate.NewWriter(&buf, flate.BestCompression)
		if err != nil {
			return nil, fmt.Errorf("create flate writer: %w", err)
		}
		if _, err := w.Write(raw); err != nil {
			return nil, fmt.Errorf("flate write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("flate close: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}
