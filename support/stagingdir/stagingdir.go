// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package stagingdir stages output files so that they appear at their
// destination all at once, or not at all.
package stagingdir

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// D manages a staging directory.
//
// Files are written into the staging directory, then committed by moving
// them to their destination. Staging and destination paths should be on the
// same filesystem so that the move is atomic.
type D struct {
	// path is the path of the staging directory. It is empty once the staging
	// directory has been destroyed.
	path string
}

// ForFile creates a staging directory for writing a file that will be
// committed to dest. The staging directory is created alongside dest as a
// hidden directory.
func ForFile(dest string) (*D, error) {
	return New(filepath.Dir(dest), "."+filepath.Base(dest)+".staging")
}

// New creates a new staging directory underneath of parent, named with the
// specified prefix.
func New(parent, prefix string) (*D, error) {
	stagingPath, err := ioutil.TempDir(parent, prefix)
	if err != nil {
		return nil, errors.Wrap(err, "creating staging directory")
	}
	return &D{path: stagingPath}, nil
}

// Path returns the staging path for the named file.
func (sd *D) Path(name string) string {
	if sd.path == "" {
		panic("staging directory has been destroyed")
	}
	return filepath.Join(sd.path, name)
}

// Commit moves the named staged file to dest, replacing any file already
// there, then destroys the staging directory.
func (sd *D) Commit(name, dest string) error {
	if sd.path == "" {
		return errors.New("staging directory has been destroyed")
	}

	if err := os.Rename(sd.Path(name), dest); err != nil {
		return errors.Wrapf(err, "moving staged file into place (%q => %q)", name, dest)
	}
	return sd.Destroy()
}

// Destroy purges the staging directory and its contents.
//
// Destroying an already-destroyed staging directory does nothing.
func (sd *D) Destroy() error {
	if sd.path == "" {
		return nil
	}

	if err := os.RemoveAll(sd.path); err != nil {
		return err
	}
	sd.path = ""
	return nil
}
