// Package cluster implements the Cluster Executor (spec.md §4.3.2): submits
// a one-shot batch pod to a Kubernetes namespace, polls its status, collects
// logs and cleans up idempotently. Grounded on the teacher's
// TempPodManager (github_workflow_collector/temp_pod_manager.go): create,
// then wait.PollUntilContextCancel for readiness/terminal phase against a
// caller-supplied deadline, then delete with a grace period.
package cluster

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrs "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
	"github.com/altsen/autoscorer-sub000/pkg/executor"
	"github.com/altsen/autoscorer-sub000/pkg/logger/log"
	"github.com/altsen/autoscorer-sub000/pkg/model"
)

// PodLabel marks pods this executor owns, for diagnostics and GC sweeps.
const PodLabel = "autoscorer.io/job"

// SuccessTTL and FailureWindow bound how long a terminal job's pod survives
// before cleanup: a succeeded pod is deleted after SuccessTTL, a failed or
// timed-out one is kept for FailureWindow for diagnostics. Both are fixed
// constants; neither is read from configuration.
const (
	SuccessTTL    = 2 * time.Minute
	FailureWindow = 30 * time.Minute
	pollInterval  = 2 * time.Second
)

// Executor runs each job as a single-container batch Pod.
type Executor struct {
	Client    kubernetes.Interface
	Namespace string
	Ceilings  executor.Ceilings
}

// New constructs a cluster Executor bound to the given namespace.
func New(client kubernetes.Interface, namespace string, ceilings executor.Ceilings) *Executor {
	return &Executor{Client: client, Namespace: namespace, Ceilings: ceilings}
}

func (e *Executor) Kind() executor.Kind { return executor.KindCluster }

// HealthCheck verifies the API server is reachable (spec.md §4.3.4 step 4).
func (e *Executor) HealthCheck(ctx context.Context) bool {
	_, err := e.Client.CoreV1().Namespaces().Get(ctx, e.Namespace, metav1.GetOptions{})
	return err == nil
}

func (e *Executor) Run(ctx context.Context, spec *model.JobSpec, workspacePath string) *model.ExecutionReport {
	start := time.Now()
	paths := model.NewWorkspacePaths(workspacePath)

	if err := executor.CheckCeilings(spec, e.Ceilings); err != nil {
		return &model.ExecutionReport{Status: model.ExecutionFailure, Error: err}
	}

	podName := "autoscorer-" + spec.JobID
	pod := e.buildPodSpec(podName, spec, workspacePath)

	if _, err := e.Client.CoreV1().Pods(e.Namespace).Create(ctx, pod, metav1.CreateOptions{}); err != nil {
		if !apierrs.IsAlreadyExists(err) {
			return &model.ExecutionReport{
				Status: model.ExecutionFailure,
				Error: apierrors.Newf(apierrors.CodeClusterScheduleFailed, "failed to create pod %s/%s", e.Namespace, podName).
					WithError(err),
			}
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(spec.TimeLimitSeconds)*time.Second)
	defer cancel()

	phase, waitErr := e.waitForTerminal(runCtx, podName)
	duration := time.Since(start)

	e.streamLogs(ctx, podName, paths.ContainerLog())

	if runCtx.Err() == context.DeadlineExceeded {
		go e.cleanup(context.Background(), podName, false)
		return &model.ExecutionReport{
			Status:   model.ExecutionFailure,
			Duration: duration,
			LogPath:  paths.ContainerLog(),
			Error: apierrors.Newf(apierrors.CodeTimeout, "pod %s exceeded time_limit_seconds=%d", podName, spec.TimeLimitSeconds).
				WithLogsPath(paths.ContainerLog()),
		}
	}

	if waitErr != nil {
		go e.cleanup(context.Background(), podName, false)
		return &model.ExecutionReport{
			Status:   model.ExecutionFailure,
			Duration: duration,
			LogPath:  paths.ContainerLog(),
			Error: apierrors.Newf(apierrors.CodeClusterScheduleFailed, "pod %s did not reach a terminal phase", podName).
				WithError(waitErr).WithLogsPath(paths.ContainerLog()),
		}
	}

	succeeded := phase == corev1.PodSucceeded
	go e.cleanup(context.Background(), podName, succeeded)

	if !succeeded {
		return &model.ExecutionReport{
			Status:   model.ExecutionFailure,
			ExitCode: 1,
			Duration: duration,
			LogPath:  paths.ContainerLog(),
			Error: apierrors.Newf(apierrors.CodeContainerExitNonzero, "pod %s terminated with phase %s", podName, phase).
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

func (e *Executor) buildPodSpec(name string, spec *model.JobSpec, workspacePath string) *corev1.Pod {
	memBytes, _ := model.ParseMemoryBytes(spec.Resources.Memory)

	resources := corev1.ResourceRequirements{
		Limits: corev1.ResourceList{
			corev1.ResourceCPU:    resourceQuantity(spec.Resources.CPU),
			corev1.ResourceMemory: resourceQuantityBytes(memBytes),
		},
	}
	if spec.Resources.GPU > 0 {
		resources.Limits["amd.com/gpu"] = resourceQuantity(float64(spec.Resources.GPU))
	}

	env := make([]corev1.EnvVar, 0, len(spec.Container.Env))
	for k, v := range spec.Container.Env {
		env = append(env, corev1.EnvVar{Name: k, Value: v})
	}

	nonRoot := true
	readOnlyRoot := true
	noPriv := false

	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: e.Namespace,
			Labels: map[string]string{
				PodLabel:    "true",
				"job-id":    spec.JobID,
			},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			SecurityContext: &corev1.PodSecurityContext{
				RunAsNonRoot: &nonRoot,
			},
			Containers: []corev1.Container{
				{
					Name:       "job",
					Image:      spec.Container.Image,
					Command:    spec.Container.Cmd,
					Env:        env,
					WorkingDir: model.ContainerMountPath,
					Resources:  resources,
					SecurityContext: &corev1.SecurityContext{
						ReadOnlyRootFilesystem:   &readOnlyRoot,
						AllowPrivilegeEscalation: &noPriv,
						Capabilities:             &corev1.Capabilities{Drop: []corev1.Capability{"ALL"}},
					},
				},
			},
		},
	}
}

// waitForTerminal polls until the pod reaches Succeeded or Failed. ctx is
// expected to already carry the job's time_limit_seconds deadline (see Run),
// so this polls until that deadline rather than setting its own.
func (e *Executor) waitForTerminal(ctx context.Context, name string) (corev1.PodPhase, error) {
	var phase corev1.PodPhase
	err := wait.PollUntilContextCancel(ctx, pollInterval, true, func(ctx context.Context) (bool, error) {
		pod, err := e.Client.CoreV1().Pods(e.Namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			if apierrs.IsNotFound(err) {
				return false, nil
			}
			return false, err
		}
		switch pod.Status.Phase {
		case corev1.PodSucceeded, corev1.PodFailed:
			phase = pod.Status.Phase
			return true, nil
		default:
			return false, nil
		}
	})
	return phase, err
}

func (e *Executor) streamLogs(ctx context.Context, name, logPath string) {
	req := e.Client.CoreV1().Pods(e.Namespace).GetLogs(name, &corev1.PodLogOptions{})
	stream, err := req.Stream(ctx)
	if err != nil {
		log.Warnf("cluster executor: failed to stream logs for pod %s: %v", name, err)
		return
	}
	defer stream.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, stream); err != nil {
		log.Warnf("cluster executor: failed to read logs for pod %s: %v", name, err)
	}
	if err := os.WriteFile(logPath, buf.Bytes(), 0o644); err != nil {
		log.Warnf("cluster executor: failed to write %s: %v", logPath, err)
	}
}

// cleanup deletes the pod after the TTL appropriate to its outcome,
// preserving failed pods for a longer diagnostic window (spec.md §4.3.2).
func (e *Executor) cleanup(ctx context.Context, name string, succeeded bool) {
	ttl := FailureWindow
	if succeeded {
		ttl = SuccessTTL
	}
	time.Sleep(ttl)

	gracePeriod := int64(0)
	err := e.Client.CoreV1().Pods(e.Namespace).Delete(ctx, name, metav1.DeleteOptions{GracePeriodSeconds: &gracePeriod})
	if err != nil && !apierrs.IsNotFound(err) {
		log.Warnf("cluster executor: failed to delete pod %s/%s: %v", e.Namespace, name, err)
		return
	}
	log.Infof("cluster executor: cleaned up pod %s/%s (succeeded=%v)", e.Namespace, name, succeeded)
}

func resourceQuantity(v float64) resource.Quantity {
	return resource.MustParse(fmt.Sprintf("%v", v))
}

func resourceQuantityBytes(n int64) resource.Quantity {
	return resource.MustParse(fmt.Sprintf("%d", n))
}
