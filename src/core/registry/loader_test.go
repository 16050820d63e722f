package registry_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/spf13/afero"

	"evalviewer/src/core/registry"
	"evalviewer/src/fsutil"
)

func writeFiles(t *testing.T, files map[string]string) fsutil.FileStore {
	t.Helper()
	mem := afero.NewMemMapFs()
	for path, content := range files {
		if err := afero.WriteFile(mem, path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return fsutil.NewFileStore(mem)
}

func TestLoadMergesInListingOrder(t *testing.T) {
	files := writeFiles(t, map[string]string{
		"evals/a.yaml": `
arithmetic:
  id: arithmetic.dev.v0
  metrics: [accuracy]
shared:
  id: from-a
`,
		"evals/b.yml": `
shared:
  id: from-b
arithmetic.dev.v0:
  class: evals.elsuite.basic.match:Match
  args:
    samples_jsonl: arithmetic/samples.jsonl
`,
		"evals/notes.txt": "not: [yaml",
	})

	reg, err := registry.NewLoader(files).Load("evals")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	wantNames := []string{"arithmetic", "shared", "arithmetic.dev.v0"}
	if got := reg.Names(); !reflect.DeepEqual(got, wantNames) {
		t.Errorf("Names() = %v, want %v", got, wantNames)
	}

	shared, _ := reg.Get("shared")
	if got := shared.String("id"); got != "from-b" {
		t.Errorf("shared.id = %q, want last document to win with %q", got, "from-b")
	}
}

func TestLoadFailsOnMalformedDocument(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid yaml", content: "a: [unterminated"},
		{name: "top level list", content: "- a\n- b\n"},
		{name: "several documents", content: "a: {}\n---\nb: {}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := writeFiles(t, map[string]string{
				"evals/good.yaml": "ok:\n  id: x\n",
				"evals/z.yaml":    tt.content,
			})

			reg, err := registry.NewLoader(files).Load("evals")
			if !errors.Is(err, registry.ErrRegistryParse) {
				t.Fatalf("Load() error = %v, want ErrRegistryParse", err)
			}
			if reg != nil {
				t.Errorf("Load() returned a partial registry")
			}

			var parseErr *registry.ParseError
			if !errors.As(err, &parseErr) || parseErr.Path != "evals/z.yaml" {
				t.Errorf("Load() error = %v, want ParseError for evals/z.yaml", err)
			}
		})
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	files := writeFiles(t, nil)
	if _, err := registry.NewLoader(files).Load("missing"); err == nil {
		t.Fatal("Load() error = nil, want error")
	}
}

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantNames []string
	}{
		{name: "empty", content: "", wantNames: []string{}},
		{name: "null", content: "~\n", wantNames: []string{}},
		{name: "scalar record", content: "a: 3\nb:\n  id: a\n", wantNames: []string{"a", "b"}},
		{
			name: "anchors",
			content: `
base: &base
  class: Match
derived:
  <<: *base
  args: {}
`,
			wantNames: []string{"base", "derived"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := registry.ParseDocument([]byte(tt.content))
			if err != nil {
				t.Fatalf("ParseDocument() error = %v", err)
			}
			if got := reg.Names(); !reflect.DeepEqual(got, tt.wantNames) {
				t.Errorf("Names() = %v, want %v", got, tt.wantNames)
			}
		})
	}
}

func TestParseDocumentMergeKey(t *testing.T) {
	reg, err := registry.ParseDocument([]byte(`
base: &base
  class: Match
derived:
  <<: *base
  args: {}
`))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	derived, _ := reg.Get("derived")
	if got := derived.String("class"); got != "Match" {
		t.Errorf("derived.class = %q, want %q", got, "Match")
	}
}

func TestParseDocumentRepeatedField(t *testing.T) {
	reg, err := registry.ParseDocument([]byte(`
a:
  id: b
  metrics: [x]
  metrics: [y]
b:
  args: {samples_jsonl: s, samples_jsonl: t}
`))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	a, _ := reg.Get("a")
	if got, want := a["metrics"], []any{"y"}; !reflect.DeepEqual(got, want) {
		t.Errorf("a.metrics = %v, want %v", got, want)
	}
	b, _ := reg.Get("b")
	args, _ := b.Map("args")
	if got := args.String("samples_jsonl"); got != "t" {
		t.Errorf("b.args.samples_jsonl = %q, want %q", got, "t")
	}
}

func TestParseDocumentMergeKeyOverride(t *testing.T) {
	reg, err := registry.ParseDocument([]byte(`
base: &base
  class: Match
  args: {samples_jsonl: base.jsonl}
derived:
  args: {samples_jsonl: own.jsonl}
  <<: *base
`))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	derived, _ := reg.Get("derived")
	if got := derived.String("class"); got != "Match" {
		t.Errorf("derived.class = %q, want %q", got, "Match")
	}
	args, _ := derived.Map("args")
	if got := args.String("samples_jsonl"); got != "own.jsonl" {
		t.Errorf("derived.args.samples_jsonl = %q, want %q", got, "own.jsonl")
	}
}
