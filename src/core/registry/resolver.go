package registry

import (
	"evalviewer/src/log"
)

// Eval is the resolved, read-only view of one eval definition.
type Eval struct {
	Name            string   `json:"name"`
	ID              string   `json:"id"`
	Metrics         []string `json:"metrics"`
	Class           string   `json:"class"`
	SamplesSource   string   `json:"samples_jsonl"`
	EvalType        string   `json:"eval_type"`
	ModelgradedSpec string   `json:"modelgraded_spec"`
}

// Field names of definition records.
const (
	fieldID                  = "id"
	fieldArgs                = "args"
	fieldMetrics             = "metrics"
	fieldClass               = "class"
	fieldSamplesJSONL        = "samples_jsonl"
	fieldEvalType            = "eval_type"
	fieldModelgradedSpec     = "modelgraded_spec"
	fieldModelgradedSpecFile = "modelgraded_spec_file"
)

// ResolveAll turns every record carrying an id into an Eval, in registry
// order. Records without id are abstract and skipped. Records whose
// referenced record has no args are skipped with a warning. A dangling or
// cyclic id fails the whole listing.
func ResolveAll(reg *Registry) ([]Eval, error) {
	evals := make([]Eval, 0, reg.Len())
	err := reg.Each(func(name string, rec Record) error {
		e, ok, err := Resolve(reg, name, rec)
		if err != nil {
			return err
		}
		if ok {
			evals = append(evals, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return evals, nil
}

// Resolve follows the single id hop of rec. ok is false when rec is not an
// eval (no id) or its target carries no args.
func Resolve(reg *Registry, name string, rec Record) (Eval, bool, error) {
	if !rec.Has(fieldID) {
		return Eval{}, false, nil
	}

	id := rec.String(fieldID)
	if id == name {
		return Eval{}, false, &ReferenceError{Name: name, ID: id, Err: ErrReferenceCycle}
	}

	sub, ok := reg.Get(id)
	if !ok {
		return Eval{}, false, &ReferenceError{Name: name, ID: id, Err: ErrDanglingReference}
	}
	if sub.Has(fieldID) {
		return Eval{}, false, &ReferenceError{Name: name, ID: id, Err: ErrReferenceCycle}
	}

	args, ok := sub.Map(fieldArgs)
	if !ok {
		log.Warn("eval target has no args, skipping", "eval", name, "id", id)
		return Eval{}, false, nil
	}

	return Eval{
		Name:            name,
		ID:              id,
		Metrics:         stringList(rec[fieldMetrics]),
		Class:           sub.String(fieldClass),
		SamplesSource:   args.String(fieldSamplesJSONL),
		EvalType:        args.String(fieldEvalType),
		ModelgradedSpec: modelgradedSpec(args),
	}, true, nil
}

// Find returns the eval called name
func Find(evals []Eval, name string) (Eval, bool) {
	for _, e := range evals {
		if e.Name == name {
			return e, true
		}
	}
	return Eval{}, false
}

// modelgradedSpec prefers the current field name over the legacy one.
func modelgradedSpec(args Record) string {
	if args.Has(fieldModelgradedSpec) {
		return args.String(fieldModelgradedSpec)
	}
	return args.String(fieldModelgradedSpecFile)
}

func stringList(v any) []string {
	switch items := v.(type) {
	case nil:
		return []string{}
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, scalar(item))
		}
		return out
	case []string:
		return items
	default:
		return []string{scalar(items)}
	}
}
