package session

import (
	"errors"
	"fmt"
)

// AuthReason classifies why the session could not be (or stay) established.
type AuthReason string

const (
	// ReasonInvalidCredentials means the login form rejected the
	// username/password. Retrying would only trip rate limits.
	ReasonInvalidCredentials AuthReason = "invalid_credentials"
	// ReasonChallengeRequired means an anti-automation interstitial is up.
	// The run must stop; hammering a challenge page risks the account.
	ReasonChallengeRequired AuthReason = "challenge_required"
	// ReasonTimeout means the login flow itself timed out.
	ReasonTimeout AuthReason = "timeout"
)

// AuthError is fatal to the run and never retried.
type AuthError struct {
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed (%s)", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NavKind classifies a navigation failure.
type NavKind string

const (
	// NavTimeout is the only retryable kind: the page or its ready
	// selector did not appear within the navigation deadline.
	NavTimeout NavKind = "timeout"
	// NavFailed covers everything else (DNS, connection reset, crash).
	NavFailed NavKind = "failed"
)

// NavError reports a single failed navigation. Timeouts are retried by the
// run's bounded backoff policy; other kinds surface immediately.
type NavError struct {
	Kind NavKind
	URL  string
	Err  error
}

func (e *NavError) Error() string {
	return fmt.Sprintf("navigation to %s failed (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *NavError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a timeout-class navigation failure,
// the only class the retry policy is allowed to act on.
func IsRetryable(err error) bool {
	var ne *NavError
	return errors.As(err, &ne) && ne.Kind == NavTimeout
}
