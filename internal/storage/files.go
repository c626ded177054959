// Package storage saves uploaded images to local disk. Filenames are
// replaced with generated ones so client-supplied names never touch the
// filesystem, and file content is sniffed so a renamed binary cannot pass
// as an image.
package storage

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrBadType is returned when the extension or the sniffed content of an
// upload is not an accepted image type.
var ErrBadType = errors.New("file must be a png or jpg/jpeg image")

var validExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}
var validMimeTypes = map[string]bool{"image/png": true, "image/jpeg": true}

// FileStore writes uploads into a single directory.
type FileStore struct{ Dir string }

func NewFileStore(dir string) *FileStore { return &FileStore{Dir: dir} }

// Save validates and persists one uploaded file and returns the stored
// filename. Validation is two-step: the client-supplied extension is checked
// first, then the first 512 bytes of the written file are sniffed and the
// detected type must agree. A file failing the sniff is removed again.
func (s *FileStore) Save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !validExtensions[ext] {
		return "", ErrBadType
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + ext
	path := filepath.Join(s.Dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		s.Remove(name)
		return "", err
	}
	if err := dst.Close(); err != nil {
		s.Remove(name)
		return "", err
	}

	ok, err := contentMatches(path)
	if err != nil {
		s.Remove(name)
		return "", err
	}
	if !ok {
		s.Remove(name)
		return "", ErrBadType
	}
	return name, nil
}

// Remove deletes a stored file, logging instead of failing when the file is
// already gone.
func (s *FileStore) Remove(name string) {
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !os.IsNotExist(err) {
		log.Printf("storage: remove %s failed: %v", name, err)
	}
}

// contentMatches sniffs the stored file and reports whether it really is
// one of the accepted image types.
func contentMatches(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false, err
	}
	return validMimeTypes[http.DetectContentType(buf[:n])], nil
}
