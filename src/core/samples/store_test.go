package samples_test

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/spf13/afero"

	"evalviewer/src/core/samples"
	"evalviewer/src/fsutil"
	"evalviewer/src/log"
)

func numberedLines(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "{\"n\": %d}\n", i)
	}
	return b.String()
}

func newStore(t *testing.T, files map[string]string, dirs ...string) (*samples.Store, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	for _, dir := range dirs {
		if err := mem.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	for path, content := range files {
		if err := afero.WriteFile(mem, path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return samples.NewStore(fsutil.NewFileStore(mem)), mem
}

func TestLoadCapKeepsOneExtraLine(t *testing.T) {
	store, _ := newStore(t, map[string]string{
		"data/big/samples.jsonl": numberedLines(5000),
	})

	lines, err := store.Load("data/big/samples.jsonl", 3000)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(lines) != 3001 {
		t.Errorf("len(Load()) = %d, want 3001", len(lines))
	}
	if lines[3000] != `{"n": 3000}` {
		t.Errorf("last line = %q", lines[3000])
	}
}

func TestLoadTrimsTrailingWhitespace(t *testing.T) {
	store, _ := newStore(t, map[string]string{
		"data/a/samples.jsonl": "  first \t\r\nsecond\n\nlast-without-newline",
	})

	got, err := store.Load("data/a/samples.jsonl", samples.NoCap)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"  first", "second", "", "last-without-newline"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %q, want %q", got, want)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	store, _ := newStore(t, map[string]string{"data/a/samples.jsonl": ""})

	got, err := store.Load("data/a/samples.jsonl", samples.DefaultCap)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Load() = %#v, want empty slice", got)
	}
}

func TestLoadFallbackSingleFileIsUncapped(t *testing.T) {
	store, _ := newStore(t, map[string]string{
		"data/misnamed/test.jsonl": numberedLines(5000),
	})

	lines, err := store.Load("data/misnamed/samples.jsonl", 3000)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(lines) != 5000 {
		t.Errorf("len(Load()) = %d, want all 5000 lines", len(lines))
	}
}

func TestLoadFallbackSeveralFilesPicksOne(t *testing.T) {
	store, _ := newStore(t, map[string]string{
		"data/multi/a.jsonl": "from-a\n",
		"data/multi/b.jsonl": "from-b\n",
	}, "data/multi/nested")

	got, err := store.Load("data/multi/samples.jsonl", samples.DefaultCap)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 || (got[0] != "from-a" && got[0] != "from-b") {
		t.Errorf("Load() = %q, want the content of one candidate", got)
	}
}

func TestLoadFallbackSeveralFilesWarns(t *testing.T) {
	var logged []string
	prev := log.Logger()
	log.SetLogger(funcr.New(func(prefix, args string) {
		logged = append(logged, args)
	}, funcr.Options{}))
	defer log.SetLogger(prev)

	store, _ := newStore(t, map[string]string{
		"data/multi/a.jsonl": "from-a\n",
		"data/multi/b.jsonl": "from-b\n",
	})
	if _, err := store.Load("data/multi/samples.jsonl", samples.DefaultCap); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var warned bool
	for _, line := range logged {
		if strings.Contains(line, "directory holds several files") &&
			strings.Contains(line, `"level"="warn"`) &&
			strings.Contains(line, "a.jsonl") &&
			strings.Contains(line, "b.jsonl") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("no warning naming both candidates, log = %q", logged)
	}
}

func TestLoadNotFound(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "empty sub-directory", path: "data/empty/samples.jsonl"},
		{name: "only sub-directories", path: "data/dirs-only/samples.jsonl"},
		{name: "missing sub-directory", path: "data/missing/samples.jsonl"},
	}

	store, _ := newStore(t, nil, "data/empty", "data/dirs-only/inner")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Load(tt.path, samples.DefaultCap)
			if !errors.Is(err, samples.ErrSamplesNotFound) {
				t.Errorf("Load() error = %v, want ErrSamplesNotFound", err)
			}
		})
	}
}

// deniedFiles refuses to open or list the configured paths.
type deniedFiles struct {
	fsutil.FileStore
	deny map[string]bool
}

func (d deniedFiles) ReadFileAsStream(path string) (io.ReadCloser, error) {
	if d.deny[path] {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
	}
	return d.FileStore.ReadFileAsStream(path)
}

func (d deniedFiles) ReadDir(path string) ([]fs.FileInfo, error) {
	if d.deny[path] {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
	}
	return d.FileStore.ReadDir(path)
}

func TestLoadPermissionDenied(t *testing.T) {
	mem := afero.NewMemMapFs()
	for path, content := range map[string]string{
		"data/locked/samples.jsonl": "x\n",
		"data/other/alt.jsonl":      "y\n",
	} {
		if err := afero.WriteFile(mem, path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := mem.MkdirAll("data/closed", 0o755); err != nil {
		t.Fatal(err)
	}

	files := deniedFiles{
		FileStore: fsutil.NewFileStore(mem),
		deny: map[string]bool{
			"data/locked/samples.jsonl": true,
			"data/other/alt.jsonl":      true,
			"data/closed":               true,
		},
	}
	store := samples.NewStore(files)

	for _, path := range []string{
		"data/locked/samples.jsonl",
		"data/other/samples.jsonl",
		"data/closed/samples.jsonl",
	} {
		t.Run(path, func(t *testing.T) {
			_, err := store.Load(path, samples.DefaultCap)
			if !errors.Is(err, samples.ErrPermissionDenied) {
				t.Fatalf("Load() error = %v, want ErrPermissionDenied", err)
			}
			if errors.Is(err, samples.ErrSamplesNotFound) {
				t.Errorf("permission failure also reported as not found")
			}
		})
	}
}
