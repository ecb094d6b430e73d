// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides faultline's CBOR encoding configuration.
//
// Faultline uses two serialization formats with a clear boundary:
//
//   - JSON for the fault log: one object per line, read by humans and
//     by log tooling.
//   - CBOR for the on-disk crash marker, which only faultline itself
//     reads.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same marker always produces identical bytes:
//
//	data, err := codec.Marshal(marker)
//	err = codec.Unmarshal(data, &marker)
//
// Types that are only ever CBOR-encoded use `cbor` struct tags.
package codec
