package main

import (
	"os"
	"path/filepath"
	"time"
)

// IsOutdated reports whether any of outputs must be rebuilt from inputs.
// A missing input is a STALE_INPUT fatal error. A missing output always
// needs a rebuild. Otherwise the newest input must be strictly newer
// than the newest output; equal timestamps are up to date.
func IsOutdated(outputs, inputs []string) (bool, error) {
	var newestInput time.Time
	for _, in := range inputs {
		info, err := statFile(in)
		if err != nil {
			return false, RaiseException(STALE_INPUT, in)
		}
		if info.ModTime().After(newestInput) {
			newestInput = info.ModTime()
		}
	}

	var newestOutput time.Time
	for _, out := range outputs {
		info, err := statFile(out)
		if err != nil {
			return true, nil
		}
		if info.ModTime().After(newestOutput) {
			newestOutput = info.ModTime()
		}
	}

	return newestInput.After(newestOutput), nil
}

// statFile stats the absolute form of path and rejects directories.
func statFile(path string) (os.FileInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &os.PathError{Op: "stat", Path: abs, Err: os.ErrNotExist}
	}
	return info, nil
}
