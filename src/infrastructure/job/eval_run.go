package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"evalviewer/src/core/completion"
	"evalviewer/src/core/registry"
	"evalviewer/src/core/samples"
	"evalviewer/src/log"
	"evalviewer/src/storage/postgres/runctrl"
)

const TaskTypeEvalRun = "eval_run"

var ErrEvalNotFound = errors.New("job: eval not found")

type EvalRunPayload struct {
	Eval  string `json:"eval"`
	Limit int    `json:"limit"` // 0 runs every sample
}

// EvalSource is the part of browser.Service an eval run reads from
type EvalSource interface {
	ListEvals() ([]registry.Eval, error)
	LoadSamplesForEval(eval registry.Eval) ([]string, error)
	GetSample(lines []string, index int) samples.Record
}

type ResultStore interface {
	Create(ctx context.Context, result *runctrl.Result) (*runctrl.Result, error)
	DeleteByJobID(ctx context.Context, jobID int) error
}

// RunExporter publishes the results of a finished run and returns where
type RunExporter interface {
	Export(ctx context.Context, jobID int, evalName string, results []runctrl.Result) (string, error)
}

// EvalRunTask submits the samples of one eval to the model and stores every reply
type EvalRunTask struct {
	source    EvalSource
	completer completion.Completer
	results   ResultStore
	exporter  RunExporter
}

var _ TaskHandler = (*EvalRunTask)(nil)

// NewEvalRunTask creates an EvalRunTask. exporter may be nil.
func NewEvalRunTask(source EvalSource, completer completion.Completer, results ResultStore, exporter RunExporter) *EvalRunTask {
	return &EvalRunTask{
		source:    source,
		completer: completer,
		results:   results,
		exporter:  exporter,
	}
}

// Handle runs the eval named in payload. Per-sample failures, invalid
// samples and completion errors alike, are stored on the result and do not
// fail the job.
func (t *EvalRunTask) Handle(ctx context.Context, jobID int, payload json.RawMessage) error {
	var p EvalRunPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("failed to unmarshal eval run payload: %w", err)
	}

	evals, err := t.source.ListEvals()
	if err != nil {
		return fmt.Errorf("failed to list evals: %w", err)
	}
	eval, ok := registry.Find(evals, p.Eval)
	if !ok {
		return fmt.Errorf("%w: %s", ErrEvalNotFound, p.Eval)
	}

	lines, err := t.source.LoadSamplesForEval(eval)
	if err != nil {
		return fmt.Errorf("failed to load samples of %s: %w", eval.Name, err)
	}

	// a redelivered job starts over
	if err := t.results.DeleteByJobID(ctx, jobID); err != nil {
		return err
	}

	n := len(lines)
	if p.Limit > 0 && p.Limit < n {
		n = p.Limit
	}

	logger := log.WithValues("job_id", jobID, "eval", eval.Name)
	logger.Info("Eval run started", "samples", n)

	results := make([]runctrl.Result, 0, n)
	failed := 0
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := t.results.Create(ctx, t.run(ctx, jobID, eval.Name, i, t.source.GetSample(lines, i)))
		if err != nil {
			return err
		}
		if res.Error != "" {
			failed++
		}
		results = append(results, *res)
	}

	logger.Info("Eval run finished", "samples", n, "failed", failed)

	if t.exporter == nil {
		return nil
	}
	location, err := t.exporter.Export(ctx, jobID, eval.Name, results)
	if err != nil {
		return fmt.Errorf("failed to export run: %w", err)
	}
	logger.Info("Eval run exported", "location", location)
	return nil
}

func (t *EvalRunTask) run(ctx context.Context, jobID int, evalName string, index int, rec samples.Record) *runctrl.Result {
	turns := samples.MessagesOf(rec)
	input, _ := json.Marshal(turns)

	result := &runctrl.Result{
		JobID:       jobID,
		EvalName:    evalName,
		SampleIndex: index,
		Input:       string(input),
		Ideal:       ideal(rec["ideal"]),
	}

	if err := samples.Check(rec); err != nil {
		result.Error = err.Error()
		return result
	}
	if len(turns) == 1 && turns[0].Role == "error" {
		result.Error = turns[0].Content
		return result
	}

	messages := make([]completion.Message, 0, len(turns))
	for _, m := range turns {
		messages = append(messages, completion.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := t.completer.Complete(ctx, messages)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Response = reply.Text
	result.FinishReason = reply.FinishReason
	return result
}

func ideal(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
