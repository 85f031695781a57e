// Package container implements the Container Executor (spec.md §4.3.1), the
// primary Executor variant. Grounded on the docker-executor pattern from the
// retrieved pack (bacalhau's pkg/executor/docker): a *dockerclient.Client
// drives ContainerCreate/Start/Wait/Logs/Remove around a single job
// container, with mounts and resource limits translated from the JobSpec.
package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	dockertypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	dockerclient "github.com/docker/docker/client"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/executor"
	"github.com/altsen/autoscorer-sub000/pkg/logger/log"
	"github.com/altsen/autoscorer-sub000/pkg/model"
	"github.com/altsen/autoscorer-sub000/pkg/workspace"
)

// PullPolicy mirrors spec.md §4.3.1 step 1's three pull policies.
type PullPolicy string

const (
	PullAlways       PullPolicy = "always"
	PullIfNotPresent PullPolicy = "if-not-present"
	PullNever        PullPolicy = "never"
)

const nanoCPUCoefficient = 1_000_000_000

// Executor runs each job in a single disposable Docker container.
type Executor struct {
	Client      *dockerclient.Client
	PullPolicy  PullPolicy
	GracePeriod time.Duration
	Ceilings    executor.Ceilings
}

// New constructs a container Executor against the local Docker daemon using
// environment-derived connection options, the idiomatic dockerclient
// bootstrap used throughout the pack's Docker integrations.
func New(pullPolicy PullPolicy, ceilings executor.Ceilings) (*Executor, error) {
	cli, err := dockerclient.NewClientWithOpts(dockerclient.FromEnv, dockerclient.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	return &Executor{Client: cli, PullPolicy: pullPolicy, GracePeriod: 10 * time.Second, Ceilings: ceilings}, nil
}

func (e *Executor) Kind() executor.Kind { return executor.KindContainer }

// HealthCheck pings the daemon (spec.md §4.3.4 step 4's fallback trigger).
func (e *Executor) HealthCheck(ctx context.Context) bool {
	_, err := e.Client.Ping(ctx)
	return err == nil
}

func (e *Executor) Run(ctx context.Context, spec *model.JobSpec, workspacePath string) *model.ExecutionReport {
	start := time.Now()
	paths := model.NewWorkspacePaths(workspacePath)

	if err := executor.CheckCeilings(spec, e.Ceilings); err != nil {
		return &model.ExecutionReport{Status: model.ExecutionFailure, Error: err}
	}

	image := workspace.NormalizeImage(spec.Container.Image)

	if err := e.resolveImage(ctx, image, workspacePath); err != nil {
		return &model.ExecutionReport{Status: model.ExecutionFailure, Error: err}
	}

	mounts := []mount.Mount{
		{Type: mount.TypeBind, Source: paths.Input(), Target: model.ContainerMountPath + "/input", ReadOnly: true},
		{Type: mount.TypeBind, Source: paths.Output(), Target: model.ContainerMountPath + "/output", ReadOnly: false},
		{Type: mount.TypeBind, Source: paths.Logs(), Target: model.ContainerMountPath + "/logs", ReadOnly: false},
		{Type: mount.TypeBind, Source: paths.Meta(), Target: model.ContainerMountPath + "/meta.json", ReadOnly: true},
	}

	memBytes, memErr := model.ParseMemoryBytes(spec.Resources.Memory)
	if memErr != nil {
		return &model.ExecutionReport{Status: model.ExecutionFailure, Error: memErr}
	}

	env := make([]string, 0, len(spec.Container.Env))
	for k, v := range spec.Container.Env {
		env = append(env, k+"="+v)
	}

	containerConfig := &container.Config{
		Image:      image,
		Cmd:        spec.Container.Cmd,
		Env:        env,
		WorkingDir: model.ContainerMountPath,
		User:       "65534:65534", // non-root, spec.md §4.3.1 step 3
	}

	networkMode := containerNetworkMode(spec.EffectiveNetworkPolicy())

	hostConfig := &container.HostConfig{
		Mounts:         mounts,
		ReadonlyRootfs: true,
		CapDrop:        []string{"ALL"},
		SecurityOpt:    []string{"no-new-privileges"},
		NetworkMode:    networkMode,
		ShmSize:        shmSizeBytes(spec.Container.ShmSize),
		Resources: container.Resources{
			Memory:     memBytes,
			MemorySwap: memBytes, // disallow swap beyond the memory limit
			NanoCPUs:   int64(spec.Resources.CPU * nanoCPUCoefficient),
		},
	}
	if spec.Resources.GPU > 0 {
		hostConfig.Resources.DeviceRequests = []container.DeviceRequest{
			{Count: spec.Resources.GPU, Capabilities: [][]string{{"gpu"}}},
		}
	}

	name := "autoscorer-" + spec.JobID
	created, err := e.Client.ContainerCreate(ctx, containerConfig, hostConfig, &network.NetworkingConfig{}, nil, name)
	if err != nil {
		return &model.ExecutionReport{
			Status: model.ExecutionFailure,
			Error: apierrors.Newf(apierrors.CodeContainerCreateFailed, "failed to create container for job %s", spec.JobID).
				WithError(err),
		}
	}
	defer e.removeContainer(created.ID)

	if err := e.Client.ContainerStart(ctx, created.ID, dockertypes.ContainerStartOptions{}); err != nil {
		return &model.ExecutionReport{
			Status: model.ExecutionFailure,
			Error: apierrors.Newf(apierrors.CodeContainerCreateFailed, "failed to start container for job %s", spec.JobID).
				WithError(err),
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(spec.TimeLimitSeconds)*time.Second)
	defer cancel()

	statusCh, errCh := e.Client.ContainerWait(runCtx, created.ID, container.WaitConditionNotRunning)

	var exitCode int64
	var waitErr error
	select {
	case <-runCtx.Done():
		e.terminate(ctx, created.ID)
		e.streamLogs(ctx, created.ID, paths.ContainerLog())
		return &model.ExecutionReport{
			Status:   model.ExecutionFailure,
			Duration: time.Since(start),
			LogPath:  paths.ContainerLog(),
			Error: apierrors.Newf(apierrors.CodeTimeout, "container exceeded time_limit_seconds=%d", spec.TimeLimitSeconds).
				WithLogsPath(paths.ContainerLog()),
		}
	case err := <-errCh:
		waitErr = err
	case result := <-statusCh:
		exitCode = result.StatusCode
		if result.Error != nil {
			waitErr = fmt.Errorf("%s", result.Error.Message)
		}
	}

	e.streamLogs(ctx, created.ID, paths.ContainerLog())
	duration := time.Since(start)

	if waitErr != nil {
		return &model.ExecutionReport{
			Status:   model.ExecutionFailure,
			Duration: duration,
			LogPath:  paths.ContainerLog(),
			Error: apierrors.Newf(apierrors.CodeContainerCreateFailed, "error waiting for container").
				WithError(waitErr).WithLogsPath(paths.ContainerLog()),
		}
	}

	if exitCode != 0 {
		e.writeInspect(ctx, created.ID, paths.Inspect())
		return &model.ExecutionReport{
			Status:   model.ExecutionFailure,
			ExitCode: int(exitCode),
			Duration: duration,
			LogPath:  paths.ContainerLog(),
			Error: apierrors.Newf(apierrors.CodeContainerExitNonzero, "container exited %d", exitCode).
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

// resolveImage honors the pull policy and the offline-archive shortcut
// (spec.md §4.3.1 step 1).
func (e *Executor) resolveImage(ctx context.Context, image, workspacePath string) *apierrors.Error {
	if archivePath, ok := workspace.HasOfflineImageArchive(workspacePath); ok {
		f, err := os.Open(archivePath)
		if err != nil {
			return apierrors.Newf(apierrors.CodeImagePullFailed, "failed to open offline image archive %q", archivePath).WithError(err)
		}
		defer f.Close()
		resp, err := e.Client.ImageLoad(ctx, f, true)
		if err != nil {
			return apierrors.Newf(apierrors.CodeImagePullFailed, "failed to import offline image archive %q", archivePath).WithError(err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	_, _, inspectErr := e.Client.ImageInspectWithRaw(ctx, image)
	present := inspectErr == nil

	switch e.PullPolicy {
	case PullNever:
		if !present {
			return apierrors.Newf(apierrors.CodeImageNotPresent, "image %q not present locally and pull policy is never", image)
		}
		return nil
	case PullIfNotPresent:
		if present {
			return nil
		}
		return e.pull(ctx, image)
	default: // always
		return e.pull(ctx, image)
	}
}

func (e *Executor) pull(ctx context.Context, image string) *apierrors.Error {
	reader, err := e.Client.ImagePull(ctx, image, dockertypes.ImagePullOptions{})
	if err != nil {
		return apierrors.Newf(apierrors.CodeImagePullFailed, "failed to pull image %q", image).WithError(err)
	}
	defer reader.Close()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return apierrors.Newf(apierrors.CodeImagePullFailed, "failed reading pull progress for %q", image).WithError(err)
	}
	return nil
}

func (e *Executor) terminate(ctx context.Context, containerID string) {
	timeout := int(e.GracePeriod.Seconds())
	if err := e.Client.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		log.Warnf("container executor: graceful stop of %s failed, killing: %v", containerID, err)
		_ = e.Client.ContainerKill(ctx, containerID, "SIGKILL")
	}
}

func (e *Executor) removeContainer(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Client.ContainerRemove(ctx, containerID, dockertypes.ContainerRemoveOptions{Force: true}); err != nil {
		log.Warnf("container executor: failed to remove container %s: %v", containerID, err)
	}
}

func (e *Executor) streamLogs(ctx context.Context, containerID, logPath string) {
	out, err := e.Client.ContainerLogs(ctx, containerID, dockertypes.ContainerLogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		log.Warnf("container executor: failed to fetch logs for %s: %v", containerID, err)
		return
	}
	defer out.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, out); err != nil {
		log.Warnf("container executor: failed to read logs for %s: %v", containerID, err)
	}
	if err := os.WriteFile(logPath, buf.Bytes(), 0o644); err != nil {
		log.Warnf("container executor: failed to write %s: %v", logPath, err)
	}
}

func (e *Executor) writeInspect(ctx context.Context, containerID, inspectPath string) {
	info, err := e.Client.ContainerInspect(ctx, containerID)
	if err != nil {
		log.Warnf("container executor: failed to inspect %s: %v", containerID, err)
		return
	}
	data := fmt.Sprintf(`{"id":%q,"state":%q,"exit_code":%d}`, info.ID, info.State.Status, info.State.ExitCode)
	if err := os.WriteFile(inspectPath, []byte(data), 0o644); err != nil {
		log.Warnf("container executor: failed to write %s: %v", inspectPath, err)
	}
}

func containerNetworkMode(policy model.NetworkPolicy) container.NetworkMode {
	switch policy {
	case model.NetworkBridge:
		return "bridge"
	case model.NetworkRestricted:
		return "none"
	default:
		return "none"
	}
}

func shmSizeBytes(spec string) int64 {
	if spec == "" {
		return 0
	}
	if n, err := model.ParseMemoryBytes(spec); err == nil {
		return n
	}
	log.Warnf("container executor: ignoring unparseable shm_size %q", spec)
	return 0
}
