// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/dota2-divine-ui/updater/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "divineui-updater"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. DIVINEUI_SOURCE_VERSION_URL.
	EnvPrefix = "DIVINEUI"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ConfigFilePath returns the default config file location.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading. It returns the
// config together with the path of the file it was read from ("" for defaults).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'divineui-updater config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", invalidFileError(opts.ConfigFilePath, err)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		candidates := []string{
			filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
			ConfigFileName + "." + ConfigFileExt, // next to the updater, in the game folder
		}
		for _, candidate := range candidates {
			if !fileExists(candidate) {
				continue
			}
			if err := loadCUEIntoViper(v, candidate); err != nil {
				return nil, "", invalidFileError(candidate, err)
			}
			resolvedPath = candidate
			break
		}
		// No config file found: defaults and env only.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables, they bypass the config file schema").
			WithSuggestion("Run 'divineui-updater config show' to inspect the effective configuration").
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("game_dir", defaults.GameDir)
	v.SetDefault("source.version_url", defaults.Source.VersionURL)
	v.SetDefault("source.mirrors", defaults.Source.MirrorStrings())
	v.SetDefault("source.aux_config_url", defaults.Source.AuxConfigURL)
	v.SetDefault("install.dir_name", defaults.Install.DirName)
	v.SetDefault("install.test_dir_name", defaults.Install.TestDirName)
	v.SetDefault("install.wrapper_dir", defaults.Install.WrapperDir)
	v.SetDefault("install.skip_files", defaults.Install.SkipFiles)
	v.SetDefault("install.aux_config_path", defaults.Install.AuxConfigPath)
	v.SetDefault("install.keep_archive", defaults.Install.KeepArchive)
	v.SetDefault("network.timeout", defaults.Network.Timeout)
	v.SetDefault("network.user_agent", defaults.Network.UserAgent)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.pause_on_exit", defaults.UI.PauseOnExit)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.level", defaults.Log.Level)
}

func invalidFileError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("Run 'divineui-updater config show' to see every supported key").
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes a default config file if none exists and returns its path.
func CreateDefaultConfig() (string, error) {
	cfgPath, err := ConfigFilePath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// Divine UI updater configuration\n")
	sb.WriteString("// Remove a line to fall back to the built-in default.\n\n")

	if cfg.GameDir != "" {
		fmt.Fprintf(&sb, "game_dir: %q\n\n", cfg.GameDir)
	}

	sb.WriteString("source: {\n")
	fmt.Fprintf(&sb, "\tversion_url: %q\n", cfg.Source.VersionURL)
	sb.WriteString("\tmirrors: [\n")
	for _, m := range cfg.Source.Mirrors {
		fmt.Fprintf(&sb, "\t\t%q,\n", m)
	}
	sb.WriteString("\t]\n")
	fmt.Fprintf(&sb, "\taux_config_url: %q\n", cfg.Source.AuxConfigURL)
	sb.WriteString("}\n")

	sb.WriteString("\ninstall: {\n")
	fmt.Fprintf(&sb, "\tdir_name: %q\n", cfg.Install.DirName)
	fmt.Fprintf(&sb, "\ttest_dir_name: %q\n", cfg.Install.TestDirName)
	fmt.Fprintf(&sb, "\twrapper_dir: %q\n", cfg.Install.WrapperDir)
	sb.WriteString("\tskip_files: [")
	for i, f := range cfg.Install.SkipFiles {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", f)
	}
	sb.WriteString("]\n")
	fmt.Fprintf(&sb, "\taux_config_path: %q\n", cfg.Install.AuxConfigPath)
	fmt.Fprintf(&sb, "\tkeep_archive: %v\n", cfg.Install.KeepArchive)
	sb.WriteString("}\n")

	sb.WriteString("\nnetwork: {\n")
	fmt.Fprintf(&sb, "\ttimeout: %q\n", formatDuration(cfg.Network.Timeout))
	fmt.Fprintf(&sb, "\tuser_agent: %q\n", cfg.Network.UserAgent)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tpause_on_exit: %v\n", cfg.UI.PauseOnExit)
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	if cfg.Log.File != "" {
		fmt.Fprintf(&sb, "\tfile: %q\n", cfg.Log.File)
	}
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	sb.WriteString("}\n")

	return sb.String()
}

// GenerateTOML renders the configuration as TOML, for display only.
func GenerateTOML(cfg *Config) (string, error) {
	out, err := toml.Marshal(asMap(cfg))
	if err != nil {
		return "", fmt.Errorf("encoding config as TOML: %w", err)
	}
	return string(out), nil
}

// GenerateJSON renders the configuration as indented JSON, for display only.
func GenerateJSON(cfg *Config) (string, error) {
	out, err := json.MarshalIndent(asMap(cfg), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding config as JSON: %w", err)
	}
	return string(out) + "\n", nil
}

// asMap mirrors the config file layout, with durations as strings.
func asMap(cfg *Config) map[string]any {
	m := map[string]any{
		"source": map[string]any{
			"version_url":    cfg.Source.VersionURL.String(),
			"mirrors":        cfg.Source.MirrorStrings(),
			"aux_config_url": cfg.Source.AuxConfigURL.String(),
		},
		"install": map[string]any{
			"dir_name":        cfg.Install.DirName,
			"test_dir_name":   cfg.Install.TestDirName,
			"wrapper_dir":     cfg.Install.WrapperDir,
			"skip_files":      append([]string{}, cfg.Install.SkipFiles...),
			"aux_config_path": cfg.Install.AuxConfigPath,
			"keep_archive":    cfg.Install.KeepArchive,
		},
		"network": map[string]any{
			"timeout":    formatDuration(cfg.Network.Timeout),
			"user_agent": cfg.Network.UserAgent,
		},
		"ui": map[string]any{
			"verbose":       cfg.UI.Verbose,
			"pause_on_exit": cfg.UI.PauseOnExit,
		},
		"log": map[string]any{
			"file":  cfg.Log.File,
			"level": string(cfg.Log.Level),
		},
	}
	if cfg.GameDir != "" {
		m["game_dir"] = cfg.GameDir
	}
	return m
}

func defaultPauseOnExit() bool {
	return runtime.GOOS == "windows"
}
