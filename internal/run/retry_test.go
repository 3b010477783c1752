package run

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fake sleep records delays instead of waiting
func recordingPolicy(sleeps *[]time.Duration) RetryPolicy {
	return RetryPolicy{
		Attempts: 3,
		Backoff:  time.Second,
		Sleep:    func(d time.Duration) { *sleeps = append(*sleeps, d) },
	}
}

func TestDoSucceedsOnThirdAttempt(t *testing.T) {
	var sleeps []time.Duration
	p := recordingPolicy(&sleeps)

	calls := 0
	err := p.Do(func() error {
		calls++
		if calls < 3 {
			return errors.New("timed out")
		}
		return nil
	}, func(error) bool { return true })

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps)
}

func TestDoReturnsNonRetryableImmediately(t *testing.T) {
	var sleeps []time.Duration
	p := recordingPolicy(&sleeps)

	fatal := errors.New("bad credentials")
	calls := 0
	err := p.Do(func() error {
		calls++
		return fatal
	}, func(error) bool { return false })

	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeps)
}

func TestDoExhaustsAttempts(t *testing.T) {
	var sleeps []time.Duration
	p := recordingPolicy(&sleeps)

	timeout := errors.New("timed out")
	calls := 0
	err := p.Do(func() error {
		calls++
		return timeout
	}, func(error) bool { return true })

	require.Error(t, err)
	assert.ErrorIs(t, err, timeout)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, calls)
	assert.Len(t, sleeps, 2)
}
