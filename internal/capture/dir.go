package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoding
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "golang.org/x/image/webp" // register WebP decoding
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// IsImageFile reports whether path has a supported image extension.
func IsImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// DirSource cycles through the image files of a directory in name order.
// A path naming a single image file repeats that image.
type DirSource struct {
	path  string
	files []string
	next  int
	mu    sync.Mutex
}

// NewDirSource creates a source over path.
func NewDirSource(path string) *DirSource {
	return &DirSource{path: path}
}

// Name returns "dir:<path>".
func (s *DirSource) Name() string {
	return "dir:" + s.path
}

// Open lists the images under path.
func (s *DirSource) Open(_ context.Context) error {
	files, err := ListImages(s.path)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found in %s", s.path)
	}

	s.mu.Lock()
	s.files = files
	s.next = 0
	s.mu.Unlock()
	return nil
}

// Grab decodes the next file, wrapping around at the end.
func (s *DirSource) Grab(_ context.Context) (image.Image, error) {
	s.mu.Lock()
	if len(s.files) == 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("source %s is not open", s.Name())
	}
	path := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)
	s.mu.Unlock()

	return DecodeFile(path)
}

// Close is a no-op.
func (s *DirSource) Close() error {
	return nil
}

// ListImages returns the supported image files at path. A directory is
// listed non-recursively in name order.
func ListImages(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !info.IsDir() {
		if !IsImageFile(path) {
			return nil, fmt.Errorf("unsupported image file: %s", path)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// DecodeFile reads and decodes one image file.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the user's own configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}
