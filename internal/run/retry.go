package run

import (
	"fmt"
	"log"
	"time"
)

// RetryPolicy retries an operation a bounded number of times with a delay
// that grows linearly per attempt. Sleep is injectable so tests run without
// real time passing.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
	Sleep    func(time.Duration)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Backoff:  time.Second,
		Sleep:    time.Sleep,
	}
}

// Do runs op up to Attempts times. Only errors the retryable predicate
// accepts are retried; anything else is returned as-is on first sight.
func (p RetryPolicy) Do(op func() error, retryable func(error) bool) error {
	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt < p.Attempts {
			delay := time.Duration(attempt) * p.Backoff
			log.Printf("⏳ Attempt %d/%d failed (%v), retrying in %v...", attempt, p.Attempts, lastErr, delay)
			p.Sleep(delay)
		}
	}
	return fmt.Errorf("after %d attempts: %w", p.Attempts, lastErr)
}
