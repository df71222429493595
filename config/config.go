// Package config loads and saves the terminal emulator's on-disk
// configuration: shell selection, environment, and tab-width /
// scrollback fields.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/corvidterm/termcore/cellgrid"
)

// ShellConfig controls how the child shell is launched.
type ShellConfig struct {
	Path          string            `toml:"path"`
	SourceRC      bool              `toml:"source_rc"`
	AdditionalEnv map[string]string `toml:"additional_env"`
}

// Config holds the emulator configuration. TabWidth and Scrollback are
// loaded and saved with the rest of the file, but nothing in this module
// applies them: grids are built with cellgrid.DefaultTabWidth and
// cellgrid.DefaultScrollback.
type Config struct {
	Shell      ShellConfig `toml:"shell"`
	TabWidth   int         `toml:"tab_width"`
	Scrollback int         `toml:"scrollback"`
}

// DefaultConfig returns the configuration used when no file exists yet.
func DefaultConfig() *Config {
	return &Config{
		Shell: ShellConfig{
			SourceRC:      true,
			AdditionalEnv: map[string]string{},
		},
		TabWidth:   cellgrid.DefaultTabWidth,
		Scrollback: cellgrid.DefaultScrollback,
	}
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".corvidterm.toml"
	}
	configDir := filepath.Join(homeDir, ".config", "corvidterm")
	os.MkdirAll(configDir, 0755)
	return filepath.Join(configDir, "config.toml")
}

// Load reads the configuration from disk, returning DefaultConfig if
// no file exists yet.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: creating %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("config: encoding %s: %w", path, err)
	}
	return nil
}

// availableShells lists common shell paths worth probing as a
// fallback, in preference order.
var availableShells = []string{
	"/bin/bash", "/usr/bin/bash",
	"/bin/zsh", "/usr/bin/zsh",
	"/bin/fish", "/usr/bin/fish",
	"/bin/sh", "/usr/bin/sh",
	"/bin/dash", "/usr/bin/dash",
}

// FindShell resolves the shell to launch: the config's explicit
// override, then the user's /etc/passwd shell, then a common-path
// fallback.
func FindShell(cfg *Config) string {
	if cfg.Shell.Path != "" {
		if _, err := os.Stat(cfg.Shell.Path); err == nil {
			return cfg.Shell.Path
		}
	}

	if u, err := user.Current(); err == nil {
		if shell := userShellFromPasswd(u.Username); shell != "" {
			if _, err := os.Stat(shell); err == nil {
				return shell
			}
		}
	}

	for _, shell := range availableShells {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh"
}

// userShellFromPasswd reads a user's login shell out of /etc/passwd.
func userShellFromPasswd(username string) string {
	data, err := os.ReadFile("/etc/passwd")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Split(line, ":")
		if len(fields) >= 7 && fields[0] == username {
			return fields[6]
		}
	}
	return ""
}

// ShellArgs builds the argv to run shellPath as an interactive shell
// (-i), sourcing or skipping the user's rc files per cfg.Shell.SourceRC.
// It does not request a login shell.
func ShellArgs(shellPath string, cfg *Config) []string {
	base := filepath.Base(shellPath)

	if cfg.Shell.SourceRC {
		return []string{"-i"}
	}

	switch base {
	case "bash":
		return []string{"--noprofile", "--norc", "-i"}
	case "zsh":
		return []string{"--no-rcs", "-i"}
	case "fish":
		return []string{"--no-config", "-i"}
	default:
		return []string{"-i"}
	}
}

// BuildEnv constructs the child process environment for shellPath,
// layering cfg's additional variables over a baseline the PTY needs
// (PATH, TERM, locale, home/user identity) and forwarding DISPLAY /
// WAYLAND_DISPLAY when the host has a graphical session. It also
// returns the user's home directory, the working directory the shell
// should start in.
func BuildEnv(cfg *Config, shellPath string) (env []string, homeDir string, err error) {
	u, err := user.Current()
	if err != nil {
		return nil, "", fmt.Errorf("config: resolving current user: %w", err)
	}

	env = []string{
		"PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin:" + os.Getenv("PATH"),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
		"HOME=" + u.HomeDir,
		"USER=" + u.Username,
		"SHELL=" + shellPath,
		"LANG=en_US.UTF-8",
		"LC_ALL=en_US.UTF-8",
	}

	if display := os.Getenv("DISPLAY"); display != "" {
		env = append(env, "DISPLAY="+display)
	}
	if wayland := os.Getenv("WAYLAND_DISPLAY"); wayland != "" {
		env = append(env, "WAYLAND_DISPLAY="+wayland)
	}

	for k, v := range cfg.Shell.AdditionalEnv {
		env = append(env, k+"="+v)
	}

	return env, u.HomeDir, nil
}
