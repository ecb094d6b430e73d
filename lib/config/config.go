// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/faultline/lib/fault"
	"github.com/bureau-foundation/faultline/lib/faultlog"
	"github.com/bureau-foundation/faultline/lib/shutdown"
)

// EnvironmentVariable names the variable [Load] reads the configuration
// path from.
const EnvironmentVariable = "FAULTLINE_CONFIG"

// DefaultSentinelMaxAge is how old a crash marker may be before it is
// treated as stale.
const DefaultSentinelMaxAge = 24 * time.Hour

// Config is the fault handling configuration.
type Config struct {
	// IgnoreMask and BackgroundMask select the codes classified as
	// Ignore and Background. Everything else is Terminal.
	IgnoreMask     Mask `yaml:"ignore_mask"`
	BackgroundMask Mask `yaml:"background_mask"`

	// Mode is one of development, production, silent, custom.
	Mode string `yaml:"mode"`

	// LogDestinationBackground is required. LogDestinationTerminal
	// defaults to it.
	LogDestinationBackground string `yaml:"log_destination_background"`
	LogDestinationTerminal   string `yaml:"log_destination_terminal"`

	// Action names are resolved against the registry passed to
	// core.Init. Empty means "use the presenter" in development and
	// production, and "no action" in custom mode.
	DevelopmentAction string        `yaml:"development_action"`
	ProductionAction  string        `yaml:"production_action"`
	CustomActions     CustomActions `yaml:"custom_actions"`

	// ExtraLogData is attached to every log record.
	ExtraLogData map[string]string `yaml:"extra_log_data"`

	// Timestamp, when set, replaces the wall-clock time on log records.
	Timestamp string `yaml:"timestamp"`

	Sentinel SentinelConfig `yaml:"sentinel"`
}

// CustomActions names the actions run in custom mode.
type CustomActions struct {
	Major string `yaml:"major"`
	Fatal string `yaml:"fatal"`
}

// SentinelConfig controls the crash marker. An empty Path disables it.
type SentinelConfig struct {
	Path   string   `yaml:"path"`
	MaxAge Duration `yaml:"max_age"`
}

// Default returns a Config with the default masks in development mode.
// The background log destination is left empty and must be set.
func Default() *Config {
	return &Config{
		IgnoreMask:     Mask(fault.DefaultIgnoreMask),
		BackgroundMask: Mask(fault.DefaultBackgroundMask),
		Mode:           string(shutdown.ModeDevelopment),
		Sentinel:       SentinelConfig{MaxAge: Duration(DefaultSentinelMaxAge)},
	}
}

// Load reads the configuration file named by FAULTLINE_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; use --config or set %s", EnvironmentVariable, EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile reads a configuration file. Files ending in .json or .jsonc
// are JSON with comments; anything else is YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	format := FormatYAML
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		format = FormatJSONC
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Format selects the syntax accepted by [Parse].
type Format int

const (
	FormatYAML Format = iota
	FormatJSONC
)

// Parse decodes configuration over [Default]. Empty input yields the
// defaults. Unknown keys and malformed values are all reported in one
// [fault.ConfigurationError].
func Parse(data []byte, format Format) (*Config, error) {
	if format == FormatJSONC {
		data = jsonc.ToJSON(data)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			problems := make([]error, len(typeErr.Errors))
			for index, message := range typeErr.Errors {
				problems[index] = errors.New(message)
			}
			return nil, fault.NewConfigurationError(problems...)
		}
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var problems []error

	if _, err := c.Policy(); err != nil {
		problems = append(problems, err)
	}
	if _, err := c.ShutdownMode(); err != nil {
		problems = append(problems, err)
	}
	if c.LogDestinationBackground == "" {
		problems = append(problems, errors.New("log_destination_background is required"))
	}
	if c.Sentinel.MaxAge < 0 {
		problems = append(problems, fmt.Errorf("sentinel.max_age must not be negative, got %s", time.Duration(c.Sentinel.MaxAge)))
	}
	for key := range c.ExtraLogData {
		if strings.TrimSpace(key) == "" {
			problems = append(problems, errors.New("extra_log_data has an empty key"))
			break
		}
	}

	return fault.NewConfigurationError(problems...)
}

// Policy builds the classification policy from the masks.
func (c *Config) Policy() (fault.Policy, error) {
	return fault.NewPolicy(fault.Code(c.IgnoreMask), fault.Code(c.BackgroundMask))
}

// ShutdownMode parses Mode.
func (c *Config) ShutdownMode() (shutdown.Mode, error) {
	return shutdown.ParseMode(c.Mode)
}

// TerminalDestination returns the terminal log path, falling back to
// the background path.
func (c *Config) TerminalDestination() string {
	if c.LogDestinationTerminal != "" {
		return c.LogDestinationTerminal
	}
	return c.LogDestinationBackground
}

// OpenDestinations opens both log destinations. Failures are reported
// as a [fault.ConfigurationError] wrapping the [faultlog.IOError].
func (c *Config) OpenDestinations() (faultlog.Destinations, error) {
	var problems []error

	background, err := faultlog.Open(c.LogDestinationBackground)
	if err != nil {
		problems = append(problems, fmt.Errorf("log_destination_background: %w", err))
	}

	terminal := background
	if c.TerminalDestination() != c.LogDestinationBackground {
		terminal, err = faultlog.Open(c.TerminalDestination())
		if err != nil {
			problems = append(problems, fmt.Errorf("log_destination_terminal: %w", err))
		}
	}

	if err := fault.NewConfigurationError(problems...); err != nil {
		return faultlog.Destinations{}, err
	}
	return faultlog.Destinations{Background: background, Terminal: terminal}, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		vars["XDG_STATE_HOME"] = dir
	}

	c.LogDestinationBackground = expandVars(c.LogDestinationBackground, vars)
	c.LogDestinationTerminal = expandVars(c.LogDestinationTerminal, vars)
	c.Sentinel.Path = expandVars(c.Sentinel.Path, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns. Variables
// missing from vars fall back to the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if val, ok := vars[name]; ok && val != "" {
			return val
		}
		if val := os.Getenv(name); val != "" {
			return val
		}
		return defaultValue
	})
}

// Mask is a set of fault codes. In YAML it is an integer, a
// "WARNING|NOTICE" string, or a list of names or integers.
type Mask fault.Code

// String renders the mask as code names.
func (m Mask) String() string { return fault.FormatMask(fault.Code(m)) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Mask) UnmarshalYAML(node *yaml.Node) error {
	var parts []string
	switch node.Kind {
	case yaml.ScalarNode:
		parts = strings.Split(node.Value, "|")
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return nodeError(item, "fault mask entries must be code names or integers")
			}
			parts = append(parts, item.Value)
		}
	default:
		return nodeError(node, "fault mask must be an integer, a code name, or a list of code names")
	}

	var mask fault.Code
	for _, part := range parts {
		code, err := parseMaskPart(part)
		if err != nil {
			return nodeError(node, err.Error())
		}
		mask |= code
	}
	*m = Mask(mask)
	return nil
}

func parseMaskPart(part string) (fault.Code, error) {
	part = strings.TrimSpace(part)
	if part == "" {
		return 0, errors.New("empty fault code name")
	}
	if value, err := strconv.ParseInt(part, 0, 64); err == nil {
		code, err := fault.CodeFromInt(value)
		if err != nil {
			return 0, fmt.Errorf("fault code %d is outside the representable range [0, %d]", value, fault.CodeAll)
		}
		return code, nil
	}
	return fault.ParseCode(part)
}

// Duration is a time.Duration written as "90s" or "24h" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return nodeError(node, "duration must be a string such as \"24h\"")
	}
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return nodeError(node, err.Error())
	}
	*d = Duration(parsed)
	return nil
}

// nodeError reports a value problem in the same shape yaml.v3 uses, so
// the decoder collects it alongside unknown-field errors.
func nodeError(node *yaml.Node, message string) error {
	return &yaml.TypeError{Errors: []string{fmt.Sprintf("line %d: %s", node.Line, message)}}
}
