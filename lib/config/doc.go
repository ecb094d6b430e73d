// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads fault handling configuration.
//
// Configuration is loaded from a single file named either by the
// FAULTLINE_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks and no automatic file
// search. Files ending in .json or .jsonc are JSON with comments; every
// other file is YAML.
//
// Decoding is strict: unknown keys at any level are rejected, and all
// unknown keys and malformed values in a file are reported together in
// one [fault.ConfigurationError] rather than one at a time.
// [Config.Validate] does the same for semantic problems such as
// overlapping masks or a missing background log destination.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded.
//
// Key exports:
//
//   - [Config] -- the configuration surface
//   - [Default] -- default masks, development mode
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Mask] -- a fault code set accepting integers or code names
package config
