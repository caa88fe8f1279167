// Package pipeline orchestrates a full run: load documents from the store,
// transform each into records per the mapping, pass the records through the
// configured stages, and write result batches back to the store.
//
// Documents are processed concurrently on a worker pool, optionally rate
// limited. A run collects per-document outcomes into a Summary; fail-fast
// mode cancels remaining work on the first error.
package pipeline

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/c360/cleansweep/component"
	"github.com/c360/cleansweep/errors"
	"github.com/c360/cleansweep/mapping"
	"github.com/c360/cleansweep/metric"
	"github.com/c360/cleansweep/pkg/worker"
	"github.com/c360/cleansweep/transform"
)

// Config controls a pipeline run.
type Config struct {
	// Workers is the concurrent document count.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
	// Root overrides the mapping's document root.
	Root string `json:"root,omitempty" yaml:"root,omitempty"`
	// OutputPrefix is the store prefix result batches are written under.
	// Empty disables writing.
	OutputPrefix string `json:"output_prefix,omitempty" yaml:"output_prefix,omitempty"`
	// RateLimit caps documents started per second. Zero means unlimited.
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	// FailFast cancels the run on the first document error.
	FailFast bool `json:"fail_fast,omitempty" yaml:"fail_fast,omitempty"`
	// StopTimeout bounds worker drain at the end of a run.
	StopTimeout time.Duration `json:"-" yaml:"-"`
}

// Result is the outcome for one document.
type Result struct {
	Document string
	Records  []transform.Record
	Err      error
}

// Summary aggregates a run.
type Summary struct {
	RunID     string
	Documents int
	Succeeded int
	Failed    int
	Records   int
	Duration  time.Duration
	Failures  []Result
}

// Pipeline runs documents through transform and stages.
type Pipeline struct {
	spec        *mapping.Spec
	stages      []component.Stage
	transformer *transform.Transformer
	cfg         Config
	deps        component.Dependencies

	poolMetricsOnce sync.Once
}

// New creates a pipeline. The store in deps is required since documents and
// results live there.
func New(spec *mapping.Spec, stages []component.Stage, cfg Config, deps component.Dependencies) (*Pipeline, error) {
	if spec == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: mapping spec is required", errors.ErrMissingConfig),
			"pipeline", "New", "validate spec")
	}
	if deps.Store == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: store is required", errors.ErrMissingConfig),
			"pipeline", "New", "validate store")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.RateLimit < 0 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: rate limit must not be negative", errors.ErrInvalidConfig),
			"pipeline", "New", "validate rate limit")
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 30 * time.Second
	}

	return &Pipeline{
		spec:        spec,
		stages:      stages,
		transformer: transform.New(),
		cfg:         cfg,
		deps:        deps,
	}, nil
}

// Run processes the given document keys and returns the run summary. The
// returned error reports run-level failures (cancellation, submission); per
// document errors are collected in the summary.
func (p *Pipeline) Run(ctx context.Context, keys []string) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := p.deps.StageLogger("pipeline").With("run_id", runID)
	logger.Info("run starting", "documents", len(keys), "workers", p.cfg.Workers)

	summary := &Summary{RunID: runID, Documents: len(keys)}
	if len(keys) == 0 {
		summary.Duration = time.Since(start)
		return summary, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan Result, len(keys))

	var opts []worker.Option[string]
	if p.deps.Metrics != nil {
		p.poolMetricsOnce.Do(func() {
			opts = append(opts, worker.WithMetrics[string](p.deps.Metrics, "pipeline"))
		})
	}
	// queue sized to the run so Submit never drops
	pool := worker.NewPool(p.cfg.Workers, len(keys), func(ctx context.Context, key string) error {
		res := p.processDocument(ctx, key)
		results <- res
		if res.Err != nil && p.cfg.FailFast {
			cancel()
		}
		return res.Err
	}, opts...)

	if err := pool.Start(runCtx); err != nil {
		return nil, errors.Wrap(err, "pipeline", "Run", "start worker pool")
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if p.cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.cfg.RateLimit), 1)
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		for _, key := range keys {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			if err := pool.Submit(key); err != nil {
				return errors.Wrap(err, "pipeline", "Run", "submit document")
			}
		}
		return nil
	})
	collect := func(res Result) {
		if res.Err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, res)
		} else {
			summary.Succeeded++
			summary.Records += len(res.Records)
		}
	}
	g.Go(func() error {
		for i := 0; i < len(keys); i++ {
			select {
			case res := <-results:
				collect(res)
			case <-gctx.Done():
				// drain results already delivered before reporting
				for {
					select {
					case res := <-results:
						collect(res)
					default:
						return gctx.Err()
					}
				}
			}
		}
		return nil
	})

	runErr := g.Wait()
	if err := pool.Stop(p.cfg.StopTimeout); err != nil {
		logger.Warn("worker pool did not drain cleanly", "error", err)
	}

	summary.Duration = time.Since(start)
	logger.Info("run finished",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"records", summary.Records,
		"duration", summary.Duration)

	if runErr != nil && !p.failFastSatisfied(runErr, summary) {
		return summary, runErr
	}
	return summary, nil
}

// failFastSatisfied reports whether the run error is just the fail-fast
// cancellation of our own context, which the summary already explains.
func (p *Pipeline) failFastSatisfied(err error, summary *Summary) bool {
	return p.cfg.FailFast && summary.Failed > 0 && stderrors.Is(err, context.Canceled)
}

// processDocument runs one document end to end.
func (p *Pipeline) processDocument(ctx context.Context, key string) Result {
	logger := p.deps.StageLogger("pipeline").With("document", key)
	core := p.coreMetrics()
	start := time.Now()

	fail := func(stage string, err error) Result {
		logger.Error("document failed", "stage", stage, "error", err)
		if core != nil {
			core.RecordDocument("pipeline", "error")
			core.RecordError(stage, errors.Classify(err).String())
		}
		return Result{Document: key, Err: err}
	}

	data, err := p.deps.Store.Get(ctx, key)
	if err != nil {
		return fail("load", err)
	}

	records, err := p.transformer.TransformBytes(p.spec, data, p.cfg.Root)
	if err != nil {
		return fail("transform", err)
	}
	if core != nil {
		core.RecordEmitted("transform", len(records))
	}

	for _, stage := range p.stages {
		stageStart := time.Now()
		records, err = stage.Process(ctx, records)
		if err != nil {
			return fail(stage.Name(), err)
		}
		if core != nil {
			core.RecordStageDuration(stage.Name(), time.Since(stageStart))
		}
	}

	if p.cfg.OutputPrefix != "" {
		if err := p.writeResults(ctx, key, records); err != nil {
			return fail("store", err)
		}
	}

	if core != nil {
		core.RecordDocument("pipeline", "success")
		core.RecordStageDuration("pipeline", time.Since(start))
	}
	logger.Debug("document processed", "records", len(records))
	return Result{Document: key, Records: records}
}

// writeResults stores the batch as a JSON array under the output prefix.
func (p *Pipeline) writeResults(ctx context.Context, key string, records []transform.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return errors.WrapInvalid(err, "pipeline", "writeResults", "marshal records")
	}
	if err := p.deps.Store.Put(ctx, OutputKey(p.cfg.OutputPrefix, key), data); err != nil {
		if core := p.coreMetrics(); core != nil {
			core.RecordStoreOperation("put", "error")
		}
		return err
	}
	if core := p.coreMetrics(); core != nil {
		core.RecordStoreOperation("put", "success")
	}
	return nil
}

func (p *Pipeline) coreMetrics() *metric.Metrics {
	if p.deps.Metrics == nil {
		return nil
	}
	return p.deps.Metrics.CoreMetrics()
}

// OutputKey maps a document key to its result key under prefix. The full
// key path is preserved so documents from different directories cannot
// collide; the extension is replaced with .json.
func OutputKey(prefix, docKey string) string {
	key := docKey
	if ext := path.Ext(key); ext != "" {
		key = strings.TrimSuffix(key, ext)
	}
	return path.Join(prefix, key+".json")
}
