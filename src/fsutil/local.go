package fsutil

import (
	"io"
	"os"

	"github.com/spf13/afero"
)

// AferoFileStore implements FileStore on top of an afero file system
type AferoFileStore struct {
	fs afero.Fs
}

// NewLocalFileStore creates a FileStore backed by the local filesystem
func NewLocalFileStore() FileStore {
	return NewFileStore(afero.NewOsFs())
}

// NewFileStore creates a FileStore backed by fs
func NewFileStore(fs afero.Fs) FileStore {
	return &AferoFileStore{fs: fs}
}

func (s *AferoFileStore) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

func (s *AferoFileStore) ReadFileAsStream(path string) (io.ReadCloser, error) {
	return s.fs.Open(path)
}

func (s *AferoFileStore) ReadDir(path string) ([]os.FileInfo, error) {
	return afero.ReadDir(s.fs, path)
}

func (s *AferoFileStore) SubDirectories(path string) ([]string, error) {
	entries, err := s.ReadDir(path)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}
