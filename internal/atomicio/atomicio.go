// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package atomicio writes files atomically, keeping a short history of
// timestamped backups. Generated articles and other outputs are saved
// through it so an interrupted run never leaves a truncated file behind.
package atomicio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

const (
	backupTimeFormat = "20060102150405.999999999"
	maxBackups       = 10
)

// WriteFile writes data to name atomically: the data lands in a temporary
// file first and is renamed into place only once fully written. A
// pre-existing file becomes a timestamped backup; backups beyond
// maxBackups are pruned, oldest first.
func WriteFile(name string, data []byte, perm fs.FileMode) (err error) {
	// The temporary file must live in the target directory: os.Rename is
	// only atomic within one filesystem.
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Turn the previous version, if any, into a backup.
	if _, err := os.Stat(name); err == nil {
		backup := name + "." + time.Now().UTC().Format(backupTimeFormat) + ".bak"
		if err := os.Rename(name, backup); err != nil {
			return err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := os.Rename(tmp.Name(), name); err != nil {
		return err
	}

	return pruneBackups(name)
}

func pruneBackups(name string) error {
	backups, err := filepath.Glob(name + ".*.bak")
	if err != nil {
		return err
	}
	if len(backups) <= maxBackups {
		return nil
	}

	// Backup names sort chronologically, so the oldest come first.
	slices.Sort(backups)
	for _, b := range backups[:len(backups)-maxBackups] {
		if err := os.Remove(b); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
