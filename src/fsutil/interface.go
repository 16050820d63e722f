package fsutil

import (
	"io"
	"os"
)

// FileStore provides the read-only file system operations the eval browser needs
type FileStore interface {
	// ReadFile reads a file and returns its contents
	ReadFile(path string) ([]byte, error)

	// ReadFileAsStream opens a file and returns a reader
	ReadFileAsStream(path string) (io.ReadCloser, error)

	// ReadDir lists a directory, sorted by file name
	ReadDir(path string) ([]os.FileInfo, error)

	// SubDirectories returns the names of the directories directly under path, sorted
	SubDirectories(path string) ([]string, error)
}
