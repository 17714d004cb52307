// Package upload stores request-scoped files on disk and enforces the
// accepted type and size limits.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/capitalize-ai/multimodal-gateway/pkg/metrics"
)

var (
	// ErrUnsupportedMediaType is returned for files outside the accepted set.
	ErrUnsupportedMediaType = errors.New("Invalid file type")
	// ErrFileTooLarge is returned for files above the size limit.
	ErrFileTooLarge = errors.New("File too large")
)

// AcceptedTypes lists the MIME types the gateway accepts.
var AcceptedTypes = []string{
	"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp",
	"application/pdf",
	"text/plain",
	"audio/mpeg", "audio/wav", "audio/webm", "audio/ogg",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// File is a file written to the store for the lifetime of one request.
type File struct {
	Path         string
	OriginalName string
	MimeType     string
	Size         int64

	once      sync.Once
	removeErr error
}

// ReadAll returns the file contents.
func (f *File) ReadAll() ([]byte, error) {
	return os.ReadFile(f.Path)
}

// Remove deletes the file. It is safe to call more than once.
func (f *File) Remove() error {
	f.once.Do(func() {
		err := os.Remove(f.Path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			f.removeErr = err
			return
		}
		metrics.DecrementTempFiles()
	})
	return f.removeErr
}

// Store writes uploaded and temporary files under one directory.
type Store struct {
	dir      string
	maxBytes int64
	accepted map[string]struct{}
}

// NewStore creates the directory if needed.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	accepted := make(map[string]struct{}, len(AcceptedTypes))
	for _, t := range AcceptedTypes {
		accepted[t] = struct{}{}
	}

	return &Store{dir: dir, maxBytes: maxBytes, accepted: accepted}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// MaxBytes returns the per-file size limit.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Accepts reports whether mimeType is in the accepted set.
func (s *Store) Accepts(mimeType string) bool {
	_, ok := s.accepted[normalize(mimeType)]
	return ok
}

// Save validates a multipart file part and copies it into the store under a
// unique name.
func (s *Store) Save(header *multipart.FileHeader) (*File, error) {
	if s.maxBytes > 0 && header.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	mimeType := normalize(header.Header.Get("Content-Type"))
	if mimeType == "" || mimeType == "application/octet-stream" {
		detected, err := mimetype.DetectReader(src)
		if err != nil {
			return nil, fmt.Errorf("failed to detect upload type: %w", err)
		}
		mimeType = normalize(detected.String())
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind upload: %w", err)
		}
	}

	if !s.Accepts(mimeType) {
		return nil, ErrUnsupportedMediaType
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
	f, err := s.write(name, src)
	if err != nil {
		return nil, err
	}
	f.OriginalName = header.Filename
	f.MimeType = mimeType
	return f, nil
}

// CreateTemp writes data to a uniquely named file: prefix + uuid + ext.
func (s *Store) CreateTemp(prefix, ext string, data []byte) (*File, error) {
	name := prefix + uuid.NewString() + ext
	f, err := s.write(name, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	f.OriginalName = name
	return f, nil
}

func (s *Store) write(name string, src io.Reader) (*File, error) {
	path := filepath.Join(s.dir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	metrics.IncrementTempFiles()
	f := &File{Path: path}

	n, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = f.Remove()
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	f.Size = n
	return f, nil
}

// normalize lowercases a media type and drops its parameters.
func normalize(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		return strings.ToLower(mediaType)
	}
	return strings.ToLower(mimeType)
}
