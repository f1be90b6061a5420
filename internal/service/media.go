package service

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore persists uploaded images. Paths are relative to the media root.
type ImageStore interface {
	Save(filename string, r io.Reader) (string, error)
	Remove(rel string) error
}

// Upload is an image file submitted with a post form.
type Upload struct {
	Filename string
	Content  io.Reader
}

const imageSubdir = "posts_images"

var allowedImageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// DiskImageStore writes uploads under a media directory using random names.
type DiskImageStore struct {
	root string
}

// NewDiskImageStore creates a store rooted at dir.
func NewDiskImageStore(dir string) *DiskImageStore {
	return &DiskImageStore{root: dir}
}

// Save stores the image. Unsupported extensions are a validation failure on the image field.
func (s *DiskImageStore) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExt[ext] {
		return "", fieldError("image", "Unsupported image type.")
	}
	if err := os.MkdirAll(filepath.Join(s.root, imageSubdir), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	rel := path.Join(imageSubdir, uuid.NewString()+ext)
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(full)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return rel, nil
}

// Remove deletes an image written by Save. A missing file is not an error.
func (s *DiskImageStore) Remove(rel string) error {
	if rel == "" || path.Dir(path.Clean(rel)) != imageSubdir {
		return fmt.Errorf("refusing to remove %q outside %s", rel, imageSubdir)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path.Clean(rel))))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove image file: %w", err)
	}
	return nil
}
