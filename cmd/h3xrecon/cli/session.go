// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Session is the state kept between invocations.
type Session struct {
	// ActiveProgram is the program selected with "use". Empty means no
	// program is selected.
	ActiveProgram string `json:"active_program,omitempty"`
}

// SessionFilePath returns the session file path: H3XRECON_SESSION_FILE
// when set, else $XDG_CONFIG_HOME/h3xrecon/session.json, with
// ~/.config standing in for an unset XDG_CONFIG_HOME.
func SessionFilePath() string {
	if envPath := os.Getenv("H3XRECON_SESSION_FILE"); envPath != "" {
		return envPath
	}
	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "h3xrecon-session.json")
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return filepath.Join(configDirectory, "h3xrecon", "session.json")
}

// LoadSessionFrom reads the session at path. A missing file is an empty
// session.
func LoadSessionFrom(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("reading session file %s: %w", path, err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("parsing session file %s: %w", path, err)
	}
	return session, nil
}

// SaveSessionTo writes session to path. The directory is created with
// mode 0700 and the file written with mode 0600.
func SaveSessionTo(session Session, path string) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	data = append(data, '\n')

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("creating session directory %s: %w", directory, err)
	}
	// Write to a sibling and rename so a concurrent reader never sees a
	// partial file.
	temporary := path + ".tmp"
	if err := os.WriteFile(temporary, data, 0o600); err != nil {
		return fmt.Errorf("writing session file %s: %w", temporary, err)
	}
	if err := os.Rename(temporary, path); err != nil {
		os.Remove(temporary)
		return fmt.Errorf("installing session file %s: %w", path, err)
	}
	return nil
}
