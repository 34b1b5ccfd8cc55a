package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnsupportedType is returned for non-image uploads.
	ErrUnsupportedType = errors.New("only image files are allowed")
	// ErrTooLarge is returned when the upload exceeds the configured ceiling.
	ErrTooLarge = errors.New("file size too large")
)

// DefaultPicture is the placeholder filename that Remove never deletes.
const DefaultPicture = "default-profile.jpg"

const publicPrefix = "/uploads/profile-pictures/"

// Store persists uploaded profile pictures on local disk under generated
// collision-resistant names.
type Store struct {
	dir      string
	maxBytes int64
	log      *logrus.Logger
}

// NewStore creates the upload directory if needed and returns a store bound
// to it.
func NewStore(dir string, maxBytes int64, log *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes, log: log}, nil
}

// Dir returns the directory files are stored under.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes an uploaded image to disk and returns the generated filename.
// The declared content type and the sniffed content of the payload must both
// be an image type; payloads over the byte ceiling are rejected. A partially
// written file is removed before the error is returned.
func (s *Store) Save(r io.Reader, originalName, contentType string) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupportedType
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		return "", ErrUnsupportedType
	}

	name := s.generateName(originalName)
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	payload := io.MultiReader(bytes.NewReader(head), r)
	written, err := io.Copy(f, io.LimitReader(payload, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if written > s.maxBytes {
		os.Remove(path)
		return "", ErrTooLarge
	}

	return name, nil
}

// Remove deletes a stored file. It is idempotent: an empty name, the default
// placeholder, or an already-missing file is a no-op and never an error.
func (s *Store) Remove(name string) {
	if name == "" || name == DefaultPicture {
		return
	}
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Errorf("Failed to remove stored file %s: %v", name, err)
		return
	}
	s.log.Debugf("Removed stored file: %s", name)
}

// Exists reports whether the named file is present in the store.
func (s *Store) Exists(name string) bool {
	if name == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(s.dir, filepath.Base(name)))
	return err == nil
}

// URLFor maps a stored filename to its public path. Returns nil for a nil
// reference so JSON responses carry an explicit null.
func (s *Store) URLFor(name *string) *string {
	if name == nil || *name == "" {
		return nil
	}
	url := publicPrefix + *name
	return &url
}

func (s *Store) generateName(originalName string) string {
	ext := filepath.Ext(originalName)
	return fmt.Sprintf("profile-%d-%s%s", time.Now().UnixNano(), uuid.NewString(), ext)
}
