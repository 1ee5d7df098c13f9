package testrun

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/benchline-ai/benchline-go/internal/messages"
	"github.com/benchline-ai/benchline-go/internal/runerrors"
	"github.com/benchline-ai/benchline-go/pkg/api"
)

const (
	minPollIntervalSeconds  = 5.0
	maxPollIntervalSeconds  = 120.0
	aiPollIntervalFloorSecs = 15.0
)

// pollAnchors are the fixed (timeout minutes, interval seconds) points the
// polling interval is interpolated over.
var pollAnchors = []struct {
	timeoutMinutes  float64
	intervalSeconds float64
}{
	{10, 5},
	{15, 5},
	{30, 10},
	{60, 15},
	{120, 30},
	{1440, 120},
}

// calculatePollingInterval derives the status poll interval from the
// requested timeout. Between the two bounding anchors the interval is
// interpolated linearly in log(timeout) with exponent-2 easing, then clamped
// to [5s, 120s]. Runs with an AI-backed evaluator poll no faster than every
// 15s, since remote scoring dominates their completion time.
func calculatePollingInterval(timeoutMinutes float64, hasAIEvaluator bool) float64 {
	first, last := pollAnchors[0], pollAnchors[len(pollAnchors)-1]

	var interval float64
	switch {
	case timeoutMinutes <= first.timeoutMinutes:
		interval = first.intervalSeconds
	case timeoutMinutes >= last.timeoutMinutes:
		interval = last.intervalSeconds
	default:
		for i := 1; i < len(pollAnchors); i++ {
			hi := pollAnchors[i]
			if timeoutMinutes > hi.timeoutMinutes {
				continue
			}
			lo := pollAnchors[i-1]
			ratio := (math.Log(timeoutMinutes) - math.Log(lo.timeoutMinutes)) /
				(math.Log(hi.timeoutMinutes) - math.Log(lo.timeoutMinutes))
			eased := math.Pow(ratio, 2)
			interval = lo.intervalSeconds + eased*(hi.intervalSeconds-lo.intervalSeconds)
			break
		}
	}

	interval = math.Min(math.Max(interval, minPollIntervalSeconds), maxPollIntervalSeconds)
	if hasAIEvaluator && interval < aiPollIntervalFloorSecs {
		interval = aiPollIntervalFloorSecs
	}
	return interval
}

// sleepFn is swapped out by tests to avoid real waits.
var sleepFn = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pollUntilDone polls the run's status until it reaches a terminal state or
// the iteration budget derived from the timeout is exhausted. The hosted run
// is never stopped remotely on timeout; the error links to it for manual
// inspection.
func (r *runner) pollUntilDone(ctx context.Context, timeoutMinutes float64, hasAIEvaluator bool) (*api.TestRunResult, error) {
	intervalSeconds := calculatePollingInterval(timeoutMinutes, hasAIEvaluator)
	maxIterations := int(math.Ceil(timeoutMinutes * 60 / intervalSeconds))
	interval := time.Duration(intervalSeconds * float64(time.Second))

	for iteration := 0; iteration < maxIterations; iteration++ {
		status, err := r.remote.TestRunStatus(ctx, r.run)
		if err != nil {
			return nil, runerrors.NewRemoteError(err, messages.RemoteCallFailed,
				"Operation", "test run status", "Error", err.Error())
		}
		r.metrics.pollCycles.Inc()

		counts := status.EntryCounts
		r.logger.Info(fmt.Sprintf(
			"Test run %s: status=%s total=%d running=%d completed=%d failed=%d queued=%d stopped=%d",
			r.run.Name, status.Status, counts.Total, counts.Running, counts.Completed, counts.Failed, counts.Queued, counts.Stopped))

		switch status.Status {
		case api.RunStatusFailed, api.RunStatusStopped:
			return nil, runerrors.NewTerminalStateError(messages.RunTerminated,
				"Status", status.Status, "Link", r.run.Link)
		case api.RunStatusComplete:
			if counts.Completed+counts.Failed+counts.Stopped == counts.Total {
				result, err := r.remote.TestRunResult(ctx, r.run)
				if err != nil {
					return nil, runerrors.NewRemoteError(err, messages.RemoteCallFailed,
						"Operation", "test run result", "Error", err.Error())
				}
				return result, nil
			}
		}

		if err := sleepFn(ctx, interval); err != nil {
			return nil, err
		}
	}

	return nil, runerrors.NewTimeoutError(messages.RunTimedOut,
		"Minutes", timeoutMinutes, "Link", r.run.Link)
}
