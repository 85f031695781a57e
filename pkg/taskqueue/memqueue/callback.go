package memqueue

import (
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/altsen/autoscorer-sub000/pkg/logger/log"
	"github.com/altsen/autoscorer-sub000/pkg/model"
)

// envelope is the wire shape wrapping every callback payload, per spec.md
// §6: "{ok, data?, error?, meta:{task_id, timestamp, version}}".
type envelope struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error interface{} `json:"error,omitempty"`
	Meta  meta        `json:"meta"`
}

type meta struct {
	TaskID    string    `json:"task_id"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

const envelopeVersion = "1"

// callbackDeliverer POSTs the terminal task outcome to a caller-supplied URL
// exactly once, best-effort, with bounded exponential-backoff retries
// (spec.md §4.5). Grounded on the teacher's resty client setup
// (jobs/pkg/jobs/pyspy_task_dispatcher/client.go: SetRetryCount/SetRetryWaitTime).
type callbackDeliverer struct {
	client *resty.Client
}

func newCallbackDeliverer(maxAttempts int) *callbackDeliverer {
	// resty's retry count excludes the first attempt.
	retries := maxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(30 * time.Second)
	return &callbackDeliverer{client: client}
}

func (d *callbackDeliverer) deliver(url, taskID string, result *model.Result, report *model.ExecutionReport) {
	env := envelope{
		Meta: meta{TaskID: taskID, Timestamp: time.Now().UTC(), Version: envelopeVersion},
	}
	switch {
	case result != nil && result.Succeeded():
		env.OK = true
		env.Data = result
	case result != nil:
		env.OK = false
		env.Error = result.Error
	case report != nil && report.Succeeded():
		env.OK = true
		env.Data = report
	case report != nil:
		env.OK = false
		env.Error = report.Error
	}

	resp, err := d.client.R().SetBody(env).Post(url)
	if err != nil {
		log.Warnf("memqueue: callback delivery to %s for task %s failed: %v", url, taskID, err)
		return
	}
	if resp.IsError() {
		log.Warnf("memqueue: callback delivery to %s for task %s returned status %d", url, taskID, resp.StatusCode())
	}
}
