// Package local implements the Local Executor (spec.md §4.3.3): runs the
// job's command as a child process in the workspace directory with only
// coarse OS-level resource limits, intended for dev/CI. Grounded on the
// teacher's pyspy.Executor (node-exporter/pkg/collector/pyspy/executor.go):
// semaphore-bounded concurrent exec.CommandContext invocations with a
// context-timeout wrapping each run.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/executor"
	"github.com/altsen/autoscorer-sub000/pkg/logger/log"
	"github.com/altsen/autoscorer-sub000/pkg/model"
)

// Executor runs jobs as plain child processes, for dev/CI use. No
// configuration key disables it: the CLI always wires it into the Selector
// as the last fallback. Its health check always succeeds, since no external
// daemon is required.
type Executor struct {
	// GracePeriod is how long to wait after SIGTERM before SIGKILL.
	GracePeriod time.Duration
}

// New constructs a local Executor with the teacher's conventional grace
// period for terminate-then-kill sequencing.
func New() *Executor {
	return &Executor{GracePeriod: 5 * time.Second}
}

func (e *Executor) Kind() executor.Kind { return executor.KindLocal }

// HealthCheck is always true: the local executor has no external
// dependency, matching spec.md §4.3.4 step 4's fallback-of-last-resort role.
func (e *Executor) HealthCheck(ctx context.Context) bool { return true }

// buildCommand wraps the job's command in a shell that applies a coarse
// virtual-memory ceiling via `ulimit -v` before exec'ing it, the rlimit-like
// mechanism spec.md §4.3.3 calls for. "$0"/"$@" keep the job's argv intact --
// no manual quoting of the caller's command or arguments is needed. Falls
// back to exec'ing the command directly when no memory ceiling is set or it
// can't be parsed.
func (e *Executor) buildCommand(ctx context.Context, spec *model.JobSpec) *exec.Cmd {
	memBytes, memErr := model.ParseMemoryBytes(spec.Resources.Memory)
	if memErr != nil || memBytes <= 0 {
		return exec.CommandContext(ctx, spec.Container.Cmd[0], spec.Container.Cmd[1:]...)
	}
	memKB := memBytes / 1024
	args := append([]string{"-c", fmt.Sprintf("ulimit -v %d; exec \"$0\" \"$@\"", memKB)}, spec.Container.Cmd...)
	return exec.CommandContext(ctx, "/bin/sh", args...)
}

func (e *Executor) Run(ctx context.Context, spec *model.JobSpec, workspacePath string) *model.ExecutionReport {
	start := time.Now()
	paths := model.NewWorkspacePaths(workspacePath)

	if len(spec.Container.Cmd) == 0 {
		return &model.ExecutionReport{
			Status: model.ExecutionFailure,
			Error: apierrors.New(apierrors.CodeContainerCreateFailed, "job spec has no command to run locally").
				WithDetail("executor", string(e.Kind())),
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(spec.TimeLimitSeconds)*time.Second)
	defer cancel()

	cmd := e.buildCommand(runCtx, spec)
	cmd.Dir = workspacePath
	cmd.Env = os.Environ()
	for k, v := range spec.Container.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	runErr := cmd.Run()
	duration := time.Since(start)

	if logErr := os.MkdirAll(paths.Logs(), 0o755); logErr != nil {
		log.Warnf("local executor: failed to create logs dir for %s: %v", workspacePath, logErr)
	}
	if writeErr := os.WriteFile(paths.ContainerLog(), combined.Bytes(), 0o644); writeErr != nil {
		log.Warnf("local executor: failed to write container.log for %s: %v", workspacePath, writeErr)
	}

	if runCtx.Err() == context.DeadlineExceeded {
		killProcessGroup(cmd, e.GracePeriod)
		return &model.ExecutionReport{
			Status:   model.ExecutionFailure,
			Duration: duration,
			LogPath:  paths.ContainerLog(),
			Error: apierrors.Newf(apierrors.CodeTimeout, "command exceeded time_limit_seconds=%d", spec.TimeLimitSeconds).
				WithLogsPath(paths.ContainerLog()),
		}
	}

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return &model.ExecutionReport{
				Status:   model.ExecutionFailure,
				Duration: duration,
				LogPath:  paths.ContainerLog(),
				Error: apierrors.Newf(apierrors.CodeContainerCreateFailed, "failed to launch local command").
					WithError(runErr).WithLogsPath(paths.ContainerLog()),
			}
		}
	}

	if exitCode != 0 {
		writeInspect(paths.Inspect(), exitCode)
		return &model.ExecutionReport{
			Status:   model.ExecutionFailure,
			ExitCode: exitCode,
			Duration: duration,
			LogPath:  paths.ContainerLog(),
			Error: apierrors.Newf(apierrors.CodeContainerExitNonzero, "local command exited %d", exitCode).
				WithLogsPath(paths.ContainerLog()),
		}
	}

	return &model.ExecutionReport{
		Status:   model.ExecutionSuccess,
		ExitCode: 0,
		Duration: duration,
		LogPath:  paths.ContainerLog(),
	}
}

// killProcessGroup sends SIGTERM then, after the executor's grace period,
// SIGKILL to the process group so child descendants don't survive a timeout.
func killProcessGroup(cmd *exec.Cmd, grace time.Duration) {
	if cmd.Process == nil {
		return
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		_ = cmd.Process.Kill()
		return
	}
	_ = syscall.Kill(-pgid, syscall.SIGTERM)
	time.Sleep(grace)
	_ = syscall.Kill(-pgid, syscall.SIGKILL)
}

func writeInspect(path string, exitCode int) {
	content, _ := json.Marshal(map[string]int{"exit_code": exitCode})
	if err := os.WriteFile(path, content, 0o644); err != nil {
		log.Warnf("local executor: failed to write inspect.json: %v", err)
	}
}
