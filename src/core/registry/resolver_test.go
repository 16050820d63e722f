package registry_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"

	"evalviewer/src/core/registry"
	"evalviewer/src/log"
)

// captureLog routes the global logger into the returned slice until the
// test ends.
func captureLog(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	prev := log.Logger()
	log.SetLogger(funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{}))
	t.Cleanup(func() { log.SetLogger(prev) })
	return &lines
}

func mustParse(t *testing.T, doc string) *registry.Registry {
	t.Helper()
	reg, err := registry.ParseDocument([]byte(doc))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	return reg
}

func TestResolveAll(t *testing.T) {
	reg := mustParse(t, `
abstract-base:
  description: no id, never listed
arithmetic:
  id: arithmetic.dev.match-v1
  metrics: [accuracy, f1]
arithmetic.dev.match-v1:
  class: evals.elsuite.basic.match:Match
  args:
    samples_jsonl: arithmetic/samples.jsonl
    eval_type: cot_classify
    modelgraded_spec: closedqa
    modelgraded_spec_file: legacy
no-args:
  id: no-args.v0
no-args.v0:
  class: evals.elsuite.basic.includes:Includes
legacy:
  id: legacy.v0
legacy.v0:
  args:
    modelgraded_spec_file: fact
`)

	got, err := registry.ResolveAll(reg)
	if err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}

	want := []registry.Eval{
		{
			Name:            "arithmetic",
			ID:              "arithmetic.dev.match-v1",
			Metrics:         []string{"accuracy", "f1"},
			Class:           "evals.elsuite.basic.match:Match",
			SamplesSource:   "arithmetic/samples.jsonl",
			EvalType:        "cot_classify",
			ModelgradedSpec: "closedqa",
		},
		{
			Name:            "legacy",
			ID:              "legacy.v0",
			Metrics:         []string{},
			ModelgradedSpec: "fact",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveAll() =\n%#v\nwant\n%#v", got, want)
	}
}

func TestResolveAllReferenceErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "dangling id",
			doc:     "a:\n  id: missing\n",
			wantErr: registry.ErrDanglingReference,
		},
		{
			name:    "self reference",
			doc:     "a:\n  id: a\n  args: {}\n",
			wantErr: registry.ErrReferenceCycle,
		},
		{
			name:    "chain",
			doc:     "a:\n  id: b\nb:\n  id: c\n  args: {}\nc:\n  args: {}\n",
			wantErr: registry.ErrReferenceCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.ResolveAll(mustParse(t, tt.doc))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ResolveAll() error = %v, want %v", err, tt.wantErr)
			}

			var refErr *registry.ReferenceError
			if !errors.As(err, &refErr) || refErr.Name != "a" {
				t.Errorf("ResolveAll() error = %v, want ReferenceError for record a", err)
			}
		})
	}
}

func TestResolveAllEmpty(t *testing.T) {
	got, err := registry.ResolveAll(registry.New())
	if err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ResolveAll() = %#v, want empty non-nil slice", got)
	}
}

func TestFind(t *testing.T) {
	evals := []registry.Eval{{Name: "a"}, {Name: "b", ID: "b.v0"}}

	got, ok := registry.Find(evals, "b")
	if !ok || got.ID != "b.v0" {
		t.Errorf("Find(b) = %#v, %v", got, ok)
	}
	if _, ok := registry.Find(evals, "c"); ok {
		t.Error("Find(c) ok = true, want false")
	}
}

func TestResolveWarnsOnTargetWithoutArgs(t *testing.T) {
	lines := captureLog(t)
	reg := mustParse(t, "bare:\n  id: bare.v0\nbare.v0:\n  class: Match\n")

	got, err := registry.ResolveAll(reg)
	if err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ResolveAll() = %v, want no evals", got)
	}

	var warned bool
	for _, line := range *lines {
		if strings.Contains(line, "eval target has no args") &&
			strings.Contains(line, `"level"="warn"`) &&
			strings.Contains(line, `"eval"="bare"`) &&
			strings.Contains(line, `"id"="bare.v0"`) {
			warned = true
		}
	}
	if !warned {
		t.Errorf("no warning for the skipped eval, log = %q", *lines)
	}
}
