package browser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"evalviewer/src/core/completion"
	"evalviewer/src/core/navigation"
	"evalviewer/src/core/registry"
	"evalviewer/src/core/samples"
	"evalviewer/src/fsutil"
	"evalviewer/src/log"
)

// ErrInvalidSelection is returned for selection names that would leave the data root.
var ErrInvalidSelection = errors.New("browser: invalid selection name")

const (
	ReasonInvalidSelection   = "invalid selection name"
	ReasonRegistryUnresolved = "eval registry could not be resolved"
)

// Config locates the data tree. SampleCap is passed to the sample store
// as is: 0 keeps a single line and a negative value keeps every line.
type Config struct {
	DataRoot        string
	DefinitionsRoot string
	SamplesFilename string
	SampleCap       int
}

// Service is the boundary facade used by the HTTP handlers, the worker and
// the check command. It holds no state between calls: the registry and the
// sample files are read from disk on every call.
type Service struct {
	cfg       Config
	files     fsutil.FileStore
	loader    *registry.Loader
	store     *samples.Store
	completer completion.Completer
}

// NewService creates a Service. A nil completer disables completions.
func NewService(cfg Config, files fsutil.FileStore, completer completion.Completer) *Service {
	if cfg.SamplesFilename == "" {
		cfg.SamplesFilename = samples.DefaultFilename
	}
	if completer == nil {
		completer = completion.Disabled{}
	}

	return &Service{
		cfg:       cfg,
		files:     files,
		loader:    registry.NewLoader(files),
		store:     samples.NewStore(files),
		completer: completer,
	}
}

// ListSubDirectories returns the sample groups under the data root
func (s *Service) ListSubDirectories() ([]string, error) {
	dirs, err := s.files.SubDirectories(s.cfg.DataRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list data root %s: %w", s.cfg.DataRoot, err)
	}
	return dirs, nil
}

// ListEvals loads the definitions root and resolves every eval in registry order
func (s *Service) ListEvals() ([]registry.Eval, error) {
	reg, err := s.loader.Load(s.cfg.DefinitionsRoot)
	if err != nil {
		return nil, err
	}
	return registry.ResolveAll(reg)
}

// LoadSamplesForSubDir reads the conventional samples file of a data sub-directory
func (s *Service) LoadSamplesForSubDir(name string) ([]string, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	return s.store.Load(filepath.Join(s.cfg.DataRoot, name, s.cfg.SamplesFilename), s.cfg.SampleCap)
}

// LoadSamplesForEval reads the samples file an eval points at, relative to the data root
func (s *Service) LoadSamplesForEval(eval registry.Eval) ([]string, error) {
	if eval.SamplesSource == "" {
		return nil, fmt.Errorf("%w: eval %s", samples.ErrSampleFileNotSpecified, eval.Name)
	}
	if err := checkName(eval.SamplesSource); err != nil {
		return nil, err
	}
	return s.store.Load(filepath.Join(s.cfg.DataRoot, eval.SamplesSource), s.cfg.SampleCap)
}

// Navigate decides the effective sample index of a request
func (s *Service) Navigate(state navigation.State, key navigation.Key, submitted string) (int, navigation.State, error) {
	return navigation.ResolveIndex(state, key, submitted)
}

// GetSample parses and validates the sample at index. An index outside
// lines yields the out-of-range error record.
func (s *Service) GetSample(lines []string, index int) samples.Record {
	if index < 0 || index >= len(lines) {
		return samples.ErrorRecord(samples.ReasonIndexOutOfRange)
	}

	v, err := samples.Parse(lines[index])
	if err != nil {
		return samples.ErrorRecord(samples.ReasonInvalidFormat)
	}
	return samples.Validate(v)
}

// Complete submits the input of rec to the model. Failures never propagate:
// the text is empty and the finish reason carries the error message.
func (s *Service) Complete(ctx context.Context, rec samples.Record) (string, string) {
	turns := samples.MessagesOf(rec)
	messages := make([]completion.Message, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, completion.Message{Role: t.Role, Content: t.Content})
	}

	res, err := s.completer.Complete(ctx, messages)
	if err != nil {
		log.Error(err, "completion failed")
		return "", err.Error()
	}
	return res.Text, res.FinishReason
}

// CheckAll resolves every eval and checks every line of its samples. All
// problems are collected; the returned error is a *multierror.Error or nil.
// progress, when not nil, is called once per eval.
func (s *Service) CheckAll(progress func(eval registry.Eval)) (int, error) {
	evals, err := s.ListEvals()
	if err != nil {
		return 0, err
	}

	var result *multierror.Error
	for _, eval := range evals {
		if progress != nil {
			progress(eval)
		}
		if err := s.checkEval(eval); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return len(evals), result.ErrorOrNil()
}

func (s *Service) checkEval(eval registry.Eval) error {
	lines, err := s.LoadSamplesForEval(eval)
	if err != nil {
		return fmt.Errorf("eval %s: %w", eval.Name, err)
	}

	var result *multierror.Error
	for i, line := range lines {
		v, err := samples.Parse(line)
		if err == nil {
			err = samples.Check(v)
		}
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("eval %s: line %d: %w", eval.Name, i+1, err))
		}
	}
	return result.ErrorOrNil()
}

func checkName(name string) error {
	if name == "" || filepath.IsAbs(name) {
		return fmt.Errorf("%w: %q", ErrInvalidSelection, name)
	}
	for _, part := range strings.Split(filepath.ToSlash(name), "/") {
		if part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidSelection, name)
		}
	}
	return nil
}
