package browser

import (
	"context"
	"errors"

	"evalviewer/src/core/navigation"
	"evalviewer/src/core/registry"
	"evalviewer/src/core/samples"
	"evalviewer/src/log"
)

// Request is one browse request. An empty Selection picks the first
// available selection.
type Request struct {
	Selection string
	Index     string
	Complete  bool
}

// Page is the view model answered for a browse request.
type Page struct {
	Mode         navigation.Mode `json:"mode"`
	Selections   []string        `json:"selections"`
	Selection    string          `json:"selection"`
	SampleCount  int             `json:"sample_count"`
	SampleIndex  int             `json:"sample_index"`
	Sample       samples.Record  `json:"sample"`
	Eval         *registry.Eval  `json:"eval,omitempty"`
	Response     *string         `json:"response,omitempty"`
	FinishReason *string         `json:"finish_reason,omitempty"`
	Notice       string          `json:"notice,omitempty"`
}

// BrowseSubDir answers a request browsing by data sub-directory. Data
// problems never fail the request: they surface as an error sample and a
// notice on the page.
func (s *Service) BrowseSubDir(ctx context.Context, state navigation.State, req Request) (Page, navigation.State) {
	page := Page{Mode: navigation.ModeSubDir, Selections: []string{}}

	dirs, err := s.ListSubDirectories()
	if err != nil {
		return page.fail(err), state
	}
	page.Selections = dirs

	name := req.Selection
	if name == "" {
		if len(dirs) == 0 {
			return page.fail(samples.ErrSamplesNotFound), state
		}
		name = dirs[0]
	}

	index, next := s.navigate(&page, state, navigation.SubDir(name), req.Index)
	lines, err := s.LoadSamplesForSubDir(name)
	s.fill(ctx, &page, lines, err, index, req.Complete)
	return page, next
}

// BrowseEval answers a request browsing by eval name.
func (s *Service) BrowseEval(ctx context.Context, state navigation.State, req Request) (Page, navigation.State) {
	page := Page{Mode: navigation.ModeEval, Selections: []string{}}

	evals, err := s.ListEvals()
	if err != nil {
		return page.failWith(ReasonRegistryUnresolved, err), state
	}
	for _, e := range evals {
		page.Selections = append(page.Selections, e.Name)
	}

	name := req.Selection
	if name == "" {
		if len(evals) == 0 {
			return page.fail(samples.ErrSamplesNotFound), state
		}
		name = evals[0].Name
	}

	index, next := s.navigate(&page, state, navigation.Eval(name), req.Index)

	eval, ok := registry.Find(evals, name)
	if !ok {
		s.fill(ctx, &page, nil, samples.ErrSamplesNotFound, index, false)
		return page, next
	}
	page.Eval = &eval

	lines, err := s.LoadSamplesForEval(eval)
	s.fill(ctx, &page, lines, err, index, req.Complete)
	return page, next
}

func (s *Service) navigate(page *Page, state navigation.State, key navigation.Key, submitted string) (int, navigation.State) {
	page.Selection = key.Name

	index, next, err := s.Navigate(state, key, submitted)
	if err != nil {
		log.Info("ignoring sample index", "selection", key.String(), "error", err.Error())
		page.Notice = err.Error()
	}
	page.SampleIndex = index
	return index, next
}

func (s *Service) fill(ctx context.Context, page *Page, lines []string, loadErr error, index int, complete bool) {
	if loadErr != nil {
		log.Info("samples unavailable", "selection", page.Selection, "error", loadErr.Error())
		page.Sample = samples.ErrorRecord(reasonFor(loadErr))
		page.Notice = loadErr.Error()
		return
	}

	page.SampleCount = len(lines)
	page.Sample = s.GetSample(lines, index)
	if !complete || samples.Check(page.Sample) != nil || isErrorRecord(page.Sample) {
		return
	}

	text, reason := s.Complete(ctx, page.Sample)
	page.Response = &text
	page.FinishReason = &reason
}

func (p Page) fail(err error) Page {
	return p.failWith(reasonFor(err), err)
}

func (p Page) failWith(reason string, err error) Page {
	p.Sample = samples.ErrorRecord(reason)
	p.Notice = err.Error()
	return p
}

func reasonFor(err error) string {
	if errors.Is(err, ErrInvalidSelection) {
		return ReasonInvalidSelection
	}
	return samples.ReasonFor(err)
}

func isErrorRecord(rec samples.Record) bool {
	messages := samples.MessagesOf(rec)
	return len(messages) == 1 && messages[0].Role == "error"
}
