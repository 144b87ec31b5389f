package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// CheckFunc is a function that performs an availability check.
// It returns nil if the check passes, or an error if it fails.
type CheckFunc func(ctx context.Context) error

// DefaultTimeout bounds a single check when the probe specifies none.
const DefaultTimeout = 5 * time.Second

// Probe represents a single backend availability check.
type Probe struct {
	Name     string
	Check    CheckFunc
	Timeout  time.Duration // per-check bound; DefaultTimeout if zero
	Critical bool          // If true, a failure here means the invocation cannot proceed.
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// OK reports whether the check passed.
func (r Result) OK() bool {
	return r.Error == nil
}

// Run executes a list of probes and returns their results.
// Results are never cached; backend availability can change between
// invocations, so callers must re-run probes every time.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))

	for i, p := range probes {
		start := time.Now()

		timeout := p.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}

		// Child context so an individual probe can't hang the invocation
		// even if the parent context is long-lived.
		checkCtx, cancel := context.WithTimeout(ctx, timeout)

		err := p.Check(checkCtx)
		cancel()

		results[i] = Result{
			Probe:    p,
			Error:    err,
			Duration: time.Since(start),
		}
	}

	return results
}

// RunOne is a convenience wrapper for the common single-probe case.
func RunOne(ctx context.Context, p Probe) Result {
	return Run(ctx, []Probe{p})[0]
}

// AnalyzeResults aggregates the results and returns a combined error if
// critical probes failed. Non-critical failures only route to fallbacks and
// are logged at debug level.
func AnalyzeResults(results []Result) error {
	var criticalErrors []error

	for _, r := range results {
		status := "PASS"
		if r.Error != nil {
			status = "FAIL"
		}

		msg := fmt.Sprintf("[%s] %-20s (%v)", status, r.Probe.Name, r.Duration.Round(time.Millisecond))

		if r.Error != nil {
			if r.Probe.Critical {
				slog.Error(msg, "error", r.Error)
				criticalErrors = append(criticalErrors, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
			} else {
				slog.Debug(msg, "error", r.Error)
			}
		} else {
			slog.Debug(msg)
		}
	}

	if len(criticalErrors) > 0 {
		return errors.Join(criticalErrors...)
	}

	return nil
}
