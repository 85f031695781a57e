// Package scheduler implements the Scheduler (spec.md §4.4): the
// orchestrator tying Workspace Manager, Scorer Registry and Executor
// together into run/score/pipeline operations, with retry, a circuit
// breaker, and per-workspace serialization.
package scheduler

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/executor"
	"github.com/altsen/autoscorer-sub000/pkg/logger/log"
	"github.com/altsen/autoscorer-sub000/pkg/metrics"
	"github.com/altsen/autoscorer-sub000/pkg/model"
	"github.com/altsen/autoscorer-sub000/pkg/registry"
	"github.com/altsen/autoscorer-sub000/pkg/workspace"
)

// RetryPolicy configures the Scheduler's exponential-backoff retry of
// retryable executor errors (spec.md §4.4 "Retry policy").
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Scheduler orchestrates the full validate -> select -> run -> score
// pipeline. The zero value is not usable; construct with New.
type Scheduler struct {
	Registry      *registry.Registry
	Selector      *executor.Selector
	Retry         RetryPolicy
	ScorerTimeout time.Duration
	breaker       *circuitBreaker

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New constructs a Scheduler. circuitThreshold/circuitCooldown parameterize
// the per-(executor,registry) circuit breaker (spec.md §4.4). scorerTimeout
// bounds the scoring phase (spec.md §9 Open Question 3); a zero value falls
// back to 5 minutes.
func New(reg *registry.Registry, sel *executor.Selector, retry RetryPolicy, circuitThreshold int, circuitCooldown time.Duration, scorerTimeout time.Duration) *Scheduler {
	return &Scheduler{
		Registry:      reg,
		Selector:      sel,
		Retry:         retry,
		ScorerTimeout: scorerTimeout,
		breaker:       newCircuitBreaker(circuitThreshold, circuitCooldown),
		locks:         make(map[string]*sync.Mutex),
	}
}

// workspaceLock returns (creating if needed) the mutex serializing
// run/score/pipeline calls against the same workspace path within this
// process (spec.md §4.4 "Concurrency & idempotence").
func (s *Scheduler) workspaceLock(workspacePath string) *sync.Mutex {
	key, err := filepath.Abs(workspacePath)
	if err != nil {
		key = filepath.Clean(workspacePath)
	}
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Run executes only the container phase (spec.md §4.4).
func (s *Scheduler) Run(ctx context.Context, workspacePath string) *model.ExecutionReport {
	return s.RunWithExecutorOverride(ctx, workspacePath, "")
}

// RunWithExecutorOverride is Run with the CLI's `--executor` pin applied on
// top of whatever meta.json already specifies (spec.md §4.3.4 selection step
// 1 names the JobSpec field; this lets a caller override it per-invocation
// without rewriting the workspace).
func (s *Scheduler) RunWithExecutorOverride(ctx context.Context, workspacePath, executorOverride string) *model.ExecutionReport {
	lock := s.workspaceLock(workspacePath)
	lock.Lock()
	defer lock.Unlock()

	spec, valErr := workspace.Validate(workspacePath)
	if valErr != nil {
		return &model.ExecutionReport{Status: model.ExecutionFailure, Error: valErr}
	}
	if executorOverride != "" {
		spec.Executor = executorOverride
	}
	report, _ := s.runLocked(ctx, spec, workspacePath)
	return report
}

// Score runs only the scoring phase against an existing output/ (spec.md
// §4.4).
func (s *Scheduler) Score(ctx context.Context, workspacePath string, params map[string]interface{}, scorerOverride string) *model.Result {
	lock := s.workspaceLock(workspacePath)
	lock.Lock()
	defer lock.Unlock()

	spec, valErr := workspace.Validate(workspacePath)
	if valErr != nil {
		return model.ErrorResult(valErr)
	}
	result := s.scoreLocked(ctx, spec, workspacePath, params, scorerOverride)
	s.writeResult(workspacePath, result)
	return result
}

// Pipeline runs Run then Score, writing a conforming result.json even when
// the executor phase fails (spec.md §4.4 pipeline algorithm).
func (s *Scheduler) Pipeline(ctx context.Context, workspacePath string, params map[string]interface{}, scorerOverride string) *model.Result {
	return s.PipelineWithExecutorOverride(ctx, workspacePath, params, scorerOverride, "")
}

// PipelineWithExecutorOverride is Pipeline with the CLI's `--executor` pin
// applied (see RunWithExecutorOverride).
func (s *Scheduler) PipelineWithExecutorOverride(ctx context.Context, workspacePath string, params map[string]interface{}, scorerOverride, executorOverride string) *model.Result {
	lock := s.workspaceLock(workspacePath)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	spec, valErr := workspace.Validate(workspacePath)
	if valErr != nil {
		result := model.ErrorResult(valErr)
		s.writeResult(workspacePath, result)
		return result
	}
	if executorOverride != "" {
		spec.Executor = executorOverride
	}

	execReport, execKind := s.runLocked(ctx, spec, workspacePath)
	executorKind := string(execKind)
	if executorKind == "" {
		executorKind = "unknown"
	}
	if execReport.Error != nil {
		metrics.JobsTotal.WithLabelValues(executorKind, "executor_failure").Inc()
		result := model.ErrorResult(execReport.Error)
		s.writeResult(workspacePath, result)
		return result
	}

	result := s.scoreLocked(ctx, spec, workspacePath, params, scorerOverride)
	s.writeResult(workspacePath, result)

	outcome := "success"
	if !result.Succeeded() {
		outcome = "score_failure"
	}
	metrics.JobsTotal.WithLabelValues(executorKind, outcome).Inc()
	metrics.PipelineDuration.WithLabelValues(executorKind).Observe(time.Since(start).Seconds())
	return result
}

// runLocked performs executor selection, the circuit breaker and retry
// policy, and returns the resulting ExecutionReport along with the kind of
// executor that actually ran, for the caller's metrics labels. When the
// circuit is open and no fallback is available, the kind is the tripped
// executor's; when selection itself fails, the kind is empty. Caller must
// hold the workspace lock.
func (s *Scheduler) runLocked(ctx context.Context, spec *model.JobSpec, workspacePath string) (*model.ExecutionReport, executor.Kind) {
	imageRegistry := registryOf(spec.Container.Image)

	exec, selErr := s.Selector.Select(ctx, spec)
	if selErr != nil {
		return &model.ExecutionReport{Status: model.ExecutionFailure, Error: selErr}, ""
	}

	if s.breaker.Open(exec.Kind(), imageRegistry) {
		log.Warnf("scheduler: circuit open for (%s, %s), attempting fallback executor", exec.Kind(), imageRegistry)
		fallback, fbErr := s.selectFallback(ctx, spec, exec.Kind())
		if fbErr != nil {
			return &model.ExecutionReport{Status: model.ExecutionFailure, Error: fbErr}, exec.Kind()
		}
		exec = fallback
	}

	var report *model.ExecutionReport
	attempt := 0
	policy := s.backoffPolicy()

	retryErr := backoff.Retry(func() error {
		attempt++
		report = exec.Run(ctx, spec, workspacePath)
		if report.Error == nil {
			s.breaker.RecordSuccess(exec.Kind(), imageRegistry)
			return nil
		}
		s.breaker.RecordFailure(exec.Kind(), imageRegistry)
		if apierrors.Retryable(report.Error.Code) && attempt < s.Retry.MaxAttempts {
			log.Warnf("scheduler: retryable error %s on attempt %d for %s, backing off", report.Error.Code, attempt, workspacePath)
			return report.Error
		}
		return backoff.Permanent(report.Error)
	}, policy)

	if retryErr != nil && report == nil {
		return &model.ExecutionReport{Status: model.ExecutionFailure, Error: apierrors.FromError(retryErr)}, exec.Kind()
	}
	return report, exec.Kind()
}

func (s *Scheduler) selectFallback(ctx context.Context, spec *model.JobSpec, avoid executor.Kind) (executor.Executor, *apierrors.Error) {
	clone := *spec
	clone.Executor = "" // let fallback order decide, bypassing the tripped preference
	exec, err := s.Selector.Select(ctx, &clone)
	if err != nil {
		return nil, err
	}
	if exec.Kind() == avoid {
		return nil, apierrors.Newf(apierrors.CodeNoExecutorAvailable, "circuit open for %s and no alternative executor is healthy", avoid)
	}
	return exec, nil
}

func (s *Scheduler) backoffPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.Retry.BaseDelay
	b.MaxInterval = s.Retry.MaxDelay
	b.MaxElapsedTime = 0 // bounded by MaxAttempts, not wall-clock
	return b
}

// scoreLocked resolves and invokes the scorer with a bounded deadline
// (spec.md §9 Open Question 3). The call runs in its own goroutine; if the
// deadline fires first, scoreLocked returns a SCORE_ERROR Result immediately
// without waiting for the goroutine to finish -- it is abandoned and may run
// to completion in the background, matching spec.md §5's allowance that "the
// scorer may continue to run until natural completion." Caller must hold the
// workspace lock.
func (s *Scheduler) scoreLocked(ctx context.Context, spec *model.JobSpec, workspacePath string, params map[string]interface{}, scorerOverride string) *model.Result {
	name := spec.ScorerName
	if scorerOverride != "" {
		name = scorerOverride
	}

	impl, err := s.Registry.MustGet(name)
	if err != nil {
		return model.ErrorResult(err)
	}

	mergedParams := mergeParams(spec.ScorerParams, params)

	scoreCtx, cancel := context.WithTimeout(ctx, s.scorerTimeout())
	defer cancel()

	done := make(chan *model.Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- model.ErrorResult(apierrors.Newf(apierrors.CodeScoreError, "scorer %q panicked: %v", name, r).
					WithDetail("scorer", name).
					WithDetail("stack", string(debug.Stack())))
				return
			}
		}()
		res, scoreErr := impl.Score(scoreCtx, workspacePath, mergedParams)
		if scoreErr != nil {
			done <- model.ErrorResult(apierrors.Newf(apierrors.CodeScoreError, "scorer %q failed: %v", name, scoreErr).
				WithDetail("scorer", name).
				WithDetail("version", impl.Version()).
				WithError(scoreErr))
			return
		}
		done <- res
	}()

	select {
	case result := <-done:
		return result
	case <-scoreCtx.Done():
		log.Warnf("scheduler: scorer %q exceeded scorer_timeout for %s, abandoning", name, workspacePath)
		return model.ErrorResult(apierrors.Newf(apierrors.CodeScoreError, "scorer %q exceeded scorer_timeout", name).
			WithDetail("scorer", name).
			WithDetail("version", impl.Version()))
	}
}

func (s *Scheduler) scorerTimeout() time.Duration {
	if s.ScorerTimeout > 0 {
		return s.ScorerTimeout
	}
	return 5 * time.Minute
}

func mergeParams(base, override map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// writeResult persists the final result.json, logging (not failing) on a
// write error since the Result has already been computed and returned.
func (s *Scheduler) writeResult(workspacePath string, result *model.Result) {
	paths := model.NewWorkspacePaths(workspacePath)
	data, err := resultJSON(result)
	if err != nil {
		log.Errorf("scheduler: failed to marshal result.json for %s: %v", workspacePath, err)
		return
	}
	if err := os.WriteFile(paths.Result(), data, 0o644); err != nil {
		log.Errorf("scheduler: failed to write result.json for %s: %v", workspacePath, err)
	}
}

func resultJSON(result *model.Result) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// registryOf extracts the registry host from an image reference (e.g.
// "registry.io:5000/team/img:tag" -> "registry.io:5000"), defaulting to
// "docker.io" the way most container runtimes do.
func registryOf(image string) string {
	ref := image
	if i := strings.Index(ref, "@"); i >= 0 {
		ref = ref[:i]
	}
	parts := strings.SplitN(ref, "/", 2)
	if len(parts) < 2 {
		return "docker.io"
	}
	first := parts[0]
	if strings.ContainsAny(first, ".:") || first == "localhost" {
		return first
	}
	return "docker.io"
}
