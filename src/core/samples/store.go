package samples

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode"

	"evalviewer/src/fsutil"
	"evalviewer/src/log"
)

const (
	// DefaultFilename is the conventional samples file of a sub-directory.
	DefaultFilename = "samples.jsonl"
	// DefaultCap bounds how many lines are read from a conventional samples file.
	DefaultCap = 3000
	// NoCap disables the line bound.
	NoCap = -1
)

// Store loads raw sample lines from the data tree.
type Store struct {
	files fsutil.FileStore
}

// NewStore creates a Store reading through files
func NewStore(files fsutil.FileStore) *Store {
	return &Store{files: files}
}

// Load returns the lines of sourcePath with trailing whitespace trimmed.
// Reading stops once the line with index cap has been kept, so at most
// cap+1 lines are returned.
//
// When sourcePath does not exist, the containing directory is searched
// instead: a single file there is loaded in full, several files log a
// warning and the first one in listing order is loaded in full, and no file
// fails with ErrSamplesNotFound. Permission failures on either path fail with
// ErrPermissionDenied.
func (s *Store) Load(sourcePath string, cap int) ([]string, error) {
	lines, err := s.readLines(sourcePath, cap)
	switch {
	case err == nil:
		return lines, nil
	case errors.Is(err, fs.ErrPermission):
		return nil, fmt.Errorf("%w: %s: %w", ErrPermissionDenied, sourcePath, err)
	case errors.Is(err, fs.ErrNotExist):
		return s.loadFallback(sourcePath)
	default:
		return nil, fmt.Errorf("failed to read samples %s: %w", sourcePath, err)
	}
}

func (s *Store) loadFallback(sourcePath string) ([]string, error) {
	dir := filepath.Dir(sourcePath)
	entries, err := s.files.ReadDir(dir)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("%w: %s: %w", ErrPermissionDenied, dir, err)
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrSamplesNotFound, dir)
		default:
			return nil, fmt.Errorf("failed to list samples directory %s: %w", dir, err)
		}
	}

	var candidates []string
	for _, entry := range entries {
		if !entry.IsDir() {
			candidates = append(candidates, entry.Name())
		}
	}

	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrSamplesNotFound, dir)
	case 1:
		log.Info("samples file missing, using the only file in its directory",
			"missing", sourcePath, "using", candidates[0])
	default:
		log.Warn("samples file missing and directory holds several files, using the first",
			"missing", sourcePath, "candidates", candidates, "using", candidates[0])
	}

	path := filepath.Join(dir, candidates[0])
	lines, err := s.readLines(path, NoCap)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s: %w", ErrPermissionDenied, path, err)
		}
		return nil, fmt.Errorf("failed to read samples %s: %w", path, err)
	}
	return lines, nil
}

func (s *Store) readLines(path string, cap int) ([]string, error) {
	f, err := s.files.ReadFileAsStream(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	lines := []string{}
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			lines = append(lines, strings.TrimRightFunc(line, unicode.IsSpace))
			if cap >= 0 && len(lines) > cap {
				break
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return lines, nil
}
