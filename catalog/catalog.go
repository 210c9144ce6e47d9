// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package catalog finds paintable images in a directory and loads them at
// strip resolution.
package catalog

import (
	"context"
	"image"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	// Supported image formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/danjacques/golightpaint/pixel"
	"github.com/danjacques/golightpaint/support/logging"

	"github.com/disintegration/gift"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the number of image headers read at once when Options does
// not specify a concurrency.
const DefaultConcurrency = 4

// Options configures a Scan.
type Options struct {
	// Concurrency is the maximum number of image headers read at once. If <= 0,
	// DefaultConcurrency is used.
	Concurrency int

	// Logger is the logger instance to use. If nil, no logging will be
	// performed.
	Logger logging.L
}

// Entry is a single image in a Catalog.
type Entry struct {
	// Name is the image's file name.
	Name string
	// Path is the full path to the image file.
	Path string
	// Format is the image format, as reported by the image package.
	Format string

	// Width and Height are the dimensions of the image file.
	Width  int
	Height int
}

// Catalog is an ordered list of images.
type Catalog struct {
	entries []Entry
}

// Scan builds a Catalog from the images in dir.
//
// Hidden files (beginning with ".") and directories are ignored, as are files
// whose image header cannot be decoded. Entries are sorted by name.
func Scan(c context.Context, dir string, opts Options) (*Catalog, error) {
	logger := logging.Must(opts.Logger)

	infos, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading image directory")
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	// Each reader fills only its own slot, so no locking is needed.
	found := make([]*Entry, len(infos))
	g, gc := errgroup.WithContext(c)
	for i, fi := range infos {
		if strings.HasPrefix(fi.Name(), ".") || !fi.Mode().IsRegular() {
			continue
		}

		if err := sem.Acquire(gc, 1); err != nil {
			break
		}
		i, path := i, filepath.Join(dir, fi.Name())
		g.Go(func() error {
			defer sem.Release(1)

			e, err := readEntry(path)
			if err != nil {
				logger.Debugf("Skipping %q: %s", path, err)
				return nil
			}
			found[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	var cat Catalog
	for _, e := range found {
		if e != nil {
			cat.entries = append(cat.entries, *e)
		}
	}
	sort.Slice(cat.entries, func(i, j int) bool { return cat.entries[i].Name < cat.entries[j].Name })

	logger.Infof("Found %d image(s) in %q.", len(cat.entries), dir)
	return &cat, nil
}

func readEntry(path string) (*Entry, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	cfg, format, err := image.DecodeConfig(fd)
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Errorf("empty image (%dx%d)", cfg.Width, cfg.Height)
	}

	return &Entry{
		Name:   filepath.Base(path),
		Path:   path,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// Len returns the number of images in the Catalog.
func (cat *Catalog) Len() int { return len(cat.entries) }

// Entry returns the Entry at index i.
func (cat *Catalog) Entry(i int) Entry { return cat.entries[i] }

// Load decodes the image at index i and resizes it vertically to height rows.
// The image's width is unchanged, so the result is painted at the same column
// count regardless of the strip length.
func (cat *Catalog) Load(i, height int) (*pixel.Image, error) {
	if i < 0 || i >= len(cat.entries) {
		return nil, errors.Errorf("image index %d out of range [0, %d)", i, len(cat.entries))
	}
	if height <= 0 {
		return nil, errors.Errorf("invalid height %d", height)
	}
	return Load(cat.entries[i].Path, height)
}

// Load decodes the image file at path and resizes it vertically to height
// rows.
func Load(path string, height int) (*pixel.Image, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening image")
	}
	defer fd.Close()

	src, _, err := image.Decode(fd)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", path)
	}

	bounds := src.Bounds()
	if bounds.Dy() == height {
		return pixel.FromImage(src), nil
	}

	g := gift.New(gift.Resize(bounds.Dx(), height, gift.LanczosResampling))
	dst := image.NewNRGBA(g.Bounds(bounds))
	g.Draw(dst, src)
	return pixel.FromImage(dst), nil
}
