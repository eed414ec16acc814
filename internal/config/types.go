// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// LogLevelDebug logs every step, including HTTP requests and file moves.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs the main steps of an update.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs only recoverable problems such as a failed mirror.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs only failures.
	LogLevelError LogLevel = "error"

	// DefaultVersionURL is the plain-text file holding the latest published version.
	DefaultVersionURL URL = "https://raw.githubusercontent.com/dota2-divine-ui/divine-ui/master/version.txt"
	// DefaultAuxConfigURL is the gameinfo.gi the game needs to load the mod.
	DefaultAuxConfigURL URL = "https://raw.githubusercontent.com/dota2-divine-ui/divine-ui/master/gameinfo.gi"

	// maxMirrors bounds the mirror list so a misconfigured file cannot retry forever.
	maxMirrors = 8
)

var (
	// ErrInvalidURL is the sentinel error wrapped by InvalidURLError.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrInvalidLogLevel is the sentinel error wrapped by InvalidLogLevelError.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	// DefaultMirrors are the archive hosts tried in order.
	DefaultMirrors = []URL{
		"https://github.com/dota2-divine-ui/divine-ui/archive/master.zip",
		"https://codeload.github.com/dota2-divine-ui/divine-ui/zip/refs/heads/master",
	}
)

type (
	// URL is an absolute http(s) URL.
	URL string

	// InvalidURLError is returned when a URL is not an absolute http(s) URL.
	// It wraps ErrInvalidURL for errors.Is() compatibility.
	InvalidURLError struct {
		Field string
		Value URL
	}

	// LogLevel selects the minimum level written by the logger.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError collects field-level validation errors from all
	// sub-components. It wraps ErrInvalidConfig.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// GameDir overrides game directory detection when set.
		GameDir string `json:"game_dir,omitempty" mapstructure:"game_dir"`
		// Source lists where versions, packages and the aux config come from.
		Source SourceConfig `json:"source,omitempty" mapstructure:"source"`
		// Install controls the on-disk layout of the mod.
		Install InstallConfig `json:"install,omitempty" mapstructure:"install"`
		// Network configures HTTP behaviour.
		Network NetworkConfig `json:"network,omitempty" mapstructure:"network"`
		// UI configures console behaviour.
		UI UIConfig `json:"ui,omitempty" mapstructure:"ui"`
		// Log configures the logger.
		Log LogConfig `json:"log,omitempty" mapstructure:"log"`
	}

	// SourceConfig lists the remote locations used by an update.
	SourceConfig struct {
		VersionURL   URL   `json:"version_url,omitempty" mapstructure:"version_url"`
		Mirrors      []URL `json:"mirrors,omitempty" mapstructure:"mirrors"`
		AuxConfigURL URL   `json:"aux_config_url,omitempty" mapstructure:"aux_config_url"`
	}

	// InstallConfig controls where and how the package is unpacked.
	InstallConfig struct {
		// DirName is the install folder inside the game directory.
		DirName string `json:"dir_name,omitempty" mapstructure:"dir_name"`
		// TestDirName is used instead of DirName when DirName is a git checkout.
		TestDirName string `json:"test_dir_name,omitempty" mapstructure:"test_dir_name"`
		// WrapperDir is the top-level folder the archive host wraps the files in.
		WrapperDir string `json:"wrapper_dir,omitempty" mapstructure:"wrapper_dir"`
		// SkipFiles are base names left behind when relocating out of WrapperDir.
		SkipFiles []string `json:"skip_files,omitempty" mapstructure:"skip_files"`
		// AuxConfigPath is where the aux config is written, relative to the game directory.
		AuxConfigPath string `json:"aux_config_path,omitempty" mapstructure:"aux_config_path"`
		// KeepArchive leaves the downloaded archive on disk after installing.
		KeepArchive bool `json:"keep_archive,omitempty" mapstructure:"keep_archive"`
	}

	// NetworkConfig configures HTTP requests.
	NetworkConfig struct {
		Timeout   time.Duration `json:"timeout,omitempty" mapstructure:"timeout"`
		UserAgent string        `json:"user_agent,omitempty" mapstructure:"user_agent"`
	}

	// UIConfig configures console behaviour.
	UIConfig struct {
		// Verbose enables verbose output
		Verbose bool `json:"verbose,omitempty" mapstructure:"verbose"`
		// PauseOnExit waits for Enter before exiting so a double-clicked
		// console window stays open.
		PauseOnExit bool `json:"pause_on_exit,omitempty" mapstructure:"pause_on_exit"`
	}

	// LogConfig configures the logger.
	LogConfig struct {
		// File enables a rotating log file when non-empty.
		File  string   `json:"file,omitempty" mapstructure:"file"`
		Level LogLevel `json:"level,omitempty" mapstructure:"level"`
	}
)

// Validate returns an *InvalidURLError unless u is an absolute http(s) URL.
func (u URL) Validate(field string) error {
	parsed, err := url.Parse(string(u))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return &InvalidURLError{Field: field, Value: u}
	}
	return nil
}

// String returns the URL as a plain string.
func (u URL) String() string { return string(u) }

// Error implements the error interface.
func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("%s: invalid URL %q (must be an absolute http or https URL)", e.Field, e.Value)
}

// Unwrap returns ErrInvalidURL for errors.Is() compatibility.
func (e *InvalidURLError) Unwrap() error { return ErrInvalidURL }

// Validate returns an *InvalidLogLevelError if the level is not recognized.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	}
	return &InvalidLogLevelError{Value: l}
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig followed by the field errors, so errors.Is
// matches both the aggregate sentinel and individual field sentinels.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate checks the constraints that survive env overrides, which bypass the
// CUE schema: URLs, mirror bounds, log level and positive timeout.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Source.VersionURL.Validate("source.version_url"); err != nil {
		errs = append(errs, err)
	}
	if err := c.Source.AuxConfigURL.Validate("source.aux_config_url"); err != nil {
		errs = append(errs, err)
	}
	switch {
	case len(c.Source.Mirrors) == 0:
		errs = append(errs, errors.New("source.mirrors: at least one mirror is required"))
	case len(c.Source.Mirrors) > maxMirrors:
		errs = append(errs, fmt.Errorf("source.mirrors: %d mirrors configured, at most %d allowed", len(c.Source.Mirrors), maxMirrors))
	}
	for i, m := range c.Source.Mirrors {
		if err := m.Validate(fmt.Sprintf("source.mirrors[%d]", i)); err != nil {
			errs = append(errs, err)
		}
	}
	if strings.TrimSpace(c.Install.DirName) == "" {
		errs = append(errs, errors.New("install.dir_name: must not be empty"))
	}
	if strings.TrimSpace(c.Install.AuxConfigPath) == "" {
		errs = append(errs, errors.New("install.aux_config_path: must not be empty"))
	}
	if c.Network.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("network.timeout: must be positive, got %s", c.Network.Timeout))
	}
	if err := c.Log.Level.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// MirrorStrings returns the mirror list as plain strings.
func (s SourceConfig) MirrorStrings() []string {
	out := make([]string, 0, len(s.Mirrors))
	for _, m := range s.Mirrors {
		out = append(out, string(m))
	}
	return out
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			VersionURL:   DefaultVersionURL,
			Mirrors:      append([]URL(nil), DefaultMirrors...),
			AuxConfigURL: DefaultAuxConfigURL,
		},
		Install: InstallConfig{
			DirName:       "dota_divine_ui",
			TestDirName:   "dota_divine_ui_test",
			WrapperDir:    "divine-ui-master",
			SkipFiles:     []string{".gitignore"},
			AuxConfigPath: "dota/gameinfo.gi",
		},
		Network: NetworkConfig{
			Timeout:   2 * time.Minute,
			UserAgent: "divineui-updater/dev",
		},
		UI: UIConfig{
			PauseOnExit: defaultPauseOnExit(),
		},
		Log: LogConfig{
			Level: LogLevelInfo,
		},
	}
}
