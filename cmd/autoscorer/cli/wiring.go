package cli

import (
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/altsen/autoscorer-sub000/pkg/config"
	"github.com/altsen/autoscorer-sub000/pkg/executor"
	"github.com/altsen/autoscorer-sub000/pkg/executor/cluster"
	"github.com/altsen/autoscorer-sub000/pkg/executor/container"
	"github.com/altsen/autoscorer-sub000/pkg/executor/local"
	"github.com/altsen/autoscorer-sub000/pkg/logger/log"
	"github.com/altsen/autoscorer-sub000/pkg/model"
	"github.com/altsen/autoscorer-sub000/pkg/registry"
	"github.com/altsen/autoscorer-sub000/pkg/scheduler"
	_ "github.com/altsen/autoscorer-sub000/pkg/scorer" // self-registers the built-in scorers
	"github.com/altsen/autoscorer-sub000/pkg/taskqueue/memqueue"
)

// buildSelector constructs an executor.Selector from the current config,
// wiring in every variant that can actually be constructed: the local
// executor always, the container executor when a Docker daemon is
// reachable, the cluster executor when cluster_enabled is set and a
// kubeconfig resolves. A variant that fails to construct is simply omitted,
// not fatal, the Selector's fallback order degrades gracefully to whatever
// is left (spec.md §4.3.4 step 4).
func buildSelector(cfg *config.Config) *executor.Selector {
	ceilings := executor.Ceilings{MaxCPU: cfg.MaxCPU(), MaxMemory: cfg.MaxMemory(), MaxGPU: cfg.MaxGPU()}
	executors := map[executor.Kind]executor.Executor{
		executor.KindLocal: local.New(),
	}

	if dockerExec, err := container.New(container.PullPolicy(cfg.ImagePullPolicy()), ceilings); err != nil {
		log.Warnf("cli: container executor unavailable: %v", err)
	} else {
		executors[executor.KindContainer] = dockerExec
	}

	if cfg.ClusterEnabled() {
		if client, err := kubeClient(); err != nil {
			log.Warnf("cli: cluster executor unavailable: %v", err)
		} else {
			executors[executor.KindCluster] = cluster.New(client, cfg.ClusterNamespace(), ceilings)
		}
	}

	return executor.NewSelector(executors, executor.Kind(cfg.DefaultExecutor()), parseMemoryThreshold(cfg.MemoryThreshold()))
}

func kubeClient() (kubernetes.Interface, error) {
	restCfg, err := rest.InClusterConfig()
	if err != nil {
		kubeconfig := clientcmd.NewDefaultClientConfigLoadingRules().GetDefaultFilename()
		restCfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, err
		}
	}
	return kubernetes.NewForConfig(restCfg)
}

func parseMemoryThreshold(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := model.ParseMemoryBytes(s)
	if err != nil {
		log.Warnf("cli: ignoring unparseable memory_threshold %q: %v", s, err)
		return 0
	}
	return n
}

func buildScheduler(cfg *config.Config, reg *registry.Registry) *scheduler.Scheduler {
	sel := buildSelector(cfg)
	retry := scheduler.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts(),
		BaseDelay:   cfg.RetryBaseDelay(),
		MaxDelay:    cfg.RetryMaxDelay(),
	}
	return scheduler.New(reg, sel, retry, cfg.CircuitBreakerThreshold(), cfg.CircuitBreakerCooldown(), cfg.ScorerTimeout())
}

// buildQueue constructs the in-process task queue adapter used by `submit`,
// starting its completed-task GC sweep on an hourly cron schedule.
func buildQueue(cfg *config.Config, sched *scheduler.Scheduler) *memqueue.Queue {
	q := memqueue.New(sched, cfg.CallbackMaxAttempts())
	if err := q.StartGC("0 * * * *"); err != nil {
		log.Warnf("cli: task queue GC sweep not started: %v", err)
	}
	return q
}
