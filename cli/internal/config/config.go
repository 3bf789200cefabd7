// Package config persists the CLI session: which server to talk to, the
// bearer token from the last login and the team used when --team is omitted.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PathEnv overrides the location of the session file.
const PathEnv = "TEAMSHARE_CONFIG"

const DefaultServerURL = "http://localhost:8080"

type Config struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token,omitempty"`
	Team      string `json:"team,omitempty"`
}

// Path is $TEAMSHARE_CONFIG, or teamshare/session.json under the user config dir.
func Path() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, "teamshare", "session.json"), nil
}

// Load returns the saved session. A missing file is a signed-out session
// against the default server.
func Load() (*Config, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p, err)
		}
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	return cfg, nil
}

// Save replaces the session file. The token makes it a secret, so the file
// is written owner-only and renamed into place.
func Save(cfg *Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (c *Config) SignedIn() bool {
	return c != nil && c.Token != ""
}

// SignOut forgets the token. The server and default team stay.
func (c *Config) SignOut() {
	c.Token = ""
}
