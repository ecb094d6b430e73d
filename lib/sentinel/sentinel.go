// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sentinel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/faultline/lib/codec"
)

// Marker identifies the process that armed a crash marker.
type Marker struct {
	// Instance is a random identifier generated when the marker is
	// created. Two processes never share one, even across PID reuse.
	Instance string `cbor:"instance"`

	// PID is the process ID of the writer.
	PID int `cbor:"pid"`

	// Executable is the absolute path of the writer's binary, or empty
	// when it could not be determined.
	Executable string `cbor:"executable,omitempty"`

	// Started is when the marker was armed. Check uses it to discard
	// stale markers.
	Started time.Time `cbor:"started"`
}

// New returns a Marker describing the current process, armed at now.
func New(now time.Time) Marker {
	executable, err := os.Executable()
	if err != nil {
		executable = ""
	}
	return Marker{
		Instance:   uuid.NewString(),
		PID:        os.Getpid(),
		Executable: executable,
		Started:    now.UTC(),
	}
}

// Describe renders the marker for a fault record message.
func (m Marker) Describe() string {
	description := fmt.Sprintf("instance %s, pid %d, started %s",
		m.Instance, m.PID, m.Started.Format(time.RFC3339))
	if m.Executable != "" {
		description += ", executable " + m.Executable
	}
	return description
}

// Write atomically writes a marker file. The file is written to a
// temporary location in the same directory, fsynced, and renamed into
// place. The file is created with mode 0600. The parent directory must
// already exist.
func Write(path string, marker Marker) error {
	data, err := codec.Marshal(marker)
	if err != nil {
		return fmt.Errorf("encoding crash marker: %w", err)
	}

	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary crash marker: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary crash marker: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary crash marker: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary crash marker: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming crash marker into place: %w", err)
	}

	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}

	return nil
}

// Read reads and decodes a marker file. When the file does not exist
// the returned error wraps fs.ErrNotExist.
func Read(path string) (Marker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Marker{}, err
	}

	var marker Marker
	if err := codec.Unmarshal(data, &marker); err != nil {
		return Marker{}, fmt.Errorf("decoding crash marker %s: %w", path, err)
	}
	return marker, nil
}

// Dump returns the CBOR diagnostic notation of a marker file. It works
// on any well-formed CBOR, including a marker whose fields no longer
// decode into [Marker].
func Dump(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return codec.Diagnose(data)
}

// Check reads a marker file and reports whether it is fresh. It returns
// the marker and true when the file exists and was armed within maxAge
// of now. A missing or stale marker returns false with a nil error. A
// maxAge of zero disables the staleness check.
//
// Any other error (permission denied, corrupt content) is returned so
// the caller can tell "no marker" from "marker exists but unreadable".
func Check(path string, now time.Time, maxAge time.Duration) (Marker, bool, error) {
	marker, err := Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Marker{}, false, nil
		}
		return Marker{}, false, err
	}

	if maxAge > 0 && now.Sub(marker.Started) > maxAge {
		return Marker{}, false, nil
	}

	return marker, true, nil
}

// Clear removes a marker file. It returns nil when the file does not
// exist.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing crash marker: %w", err)
	}
	return nil
}
