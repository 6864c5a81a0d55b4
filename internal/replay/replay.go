// Package replay serves still images as if they were camera frames, so the
// frame loop can run headless over recorded snapshots.
package replay

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ironsheep/shape-watch/internal/imaging"
)

// supportedExts lists the still formats the frame cache can decode.
var supportedExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Source yields frames from a fixed list of image files.
type Source struct {
	paths []string
	cache *imaging.FrameCache
	loop  bool
	next  int
}

// Option configures a Source.
type Option func(*Source)

// WithLoop restarts from the first frame after the last one instead of
// returning io.EOF.
func WithLoop(loop bool) Option {
	return func(s *Source) { s.loop = loop }
}

// WithCache shares a frame cache between sources.
func WithCache(cache *imaging.FrameCache) Option {
	return func(s *Source) { s.cache = cache }
}

// NewSource replays paths in the given order.
func NewSource(paths []string, opts ...Option) (*Source, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no frames to replay")
	}
	s := &Source{
		paths: append([]string(nil), paths...),
		cache: imaging.NewFrameCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewDirSource replays every supported image in dir, sorted by file name.
// Subdirectories are not descended into.
func NewDirSource(dir string, opts ...Option) (*Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if supportedExts[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}
	return NewSource(paths, opts...)
}

// Read returns the next frame, or io.EOF once every frame has been served
// and looping is off.
func (s *Source) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.paths) {
		if !s.loop {
			return nil, io.EOF
		}
		s.next = 0
	}

	path := s.paths[s.next]
	s.next++

	img, err := s.cache.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load frame %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// Len returns the number of frames in one pass.
func (s *Source) Len() int {
	return len(s.paths)
}

// Paths returns the replayed files in order.
func (s *Source) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Rewind restarts from the first frame.
func (s *Source) Rewind() {
	s.next = 0
}

// Close drops the cached frames.
func (s *Source) Close() error {
	s.cache.Clear()
	return nil
}
