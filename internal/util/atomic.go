// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// AtomicWriteFile writes data next to path in a temp file, fsyncs it and
// renames it over path. Readers see either the old file or the new one.
// Missing parent directories are created with 0700.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return AtomicWriteFileWithDir(path, data, perm, 0700)
}

// AtomicWriteFileWithDir is AtomicWriteFile with an explicit mode for
// created parent directories.
func AtomicWriteFileWithDir(path string, data []byte, filePerm, dirPerm os.FileMode) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "resolve path")
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.Wrap(err, "create parent directory")
	}

	// Same directory as the target so the rename never crosses filesystems.
	f, err := os.CreateTemp(dir, ".nutriwise-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tempPath := f.Name()

	committed := false
	defer func() {
		if !committed {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return errors.Wrap(err, "write temp file")
	}
	if err := f.Sync(); err != nil {
		return errors.Wrap(err, "sync temp file")
	}
	// Windows refuses to rename an open file.
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Chmod(tempPath, filePerm); err != nil {
		return errors.Wrap(err, "chmod temp file")
	}
	if err := os.Rename(tempPath, absPath); err != nil {
		return errors.Wrapf(err, "rename onto %s", absPath)
	}

	committed = true
	return nil
}
