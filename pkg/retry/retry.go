package retry

import (
	"time"
)

type fn func() error
type shouldRetry func(err error, attempt int) bool

// WrapWithRetry wraps f so that failures are retried while shouldRetry
// allows it. Retrying stops when more than maxPerSecond errors land within
// a single second, which keeps a hard-down dependency from being hammered.
func WrapWithRetry(f fn, shouldRetry shouldRetry, maxPerSecond int) func() error {
	window := maxPerSecond + 1
	var errorTimestamps []time.Time

	return func() error {
		attempt := 0

		for {
			err := f()
			if err == nil {
				return nil
			}

			attempt++

			errorTimestamps = append(errorTimestamps, time.Now())
			if len(errorTimestamps) > window {
				errorTimestamps = errorTimestamps[1:]
			}

			if len(errorTimestamps) == window {
				spread := errorTimestamps[window-1].Sub(errorTimestamps[0])
				if spread <= time.Second {
					return err
				}
			}

			if !shouldRetry(err, attempt) {
				return err
			}
		}
	}
}
