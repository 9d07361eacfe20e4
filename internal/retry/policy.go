package retry

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/siteship/internal/config"
)

// Policy encapsulates retry/backoff settings.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration           // base delay
	Max        time.Duration           // cap for growth
	MaxRetries int                     // maximum retry attempts after the first failure
}

// DefaultPolicy returns a conservative default policy.
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
}

// NewPolicy builds a policy, keeping defaults for zero or unknown values.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	switch mode {
	case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
		p.Mode = mode
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromGitConfig builds the push retry policy.
func FromGitConfig(g config.GitConfig) Policy {
	initial, maxDelay := g.RetryDelays()
	return NewPolicy(g.RetryBackoff, initial, maxDelay, g.MaxRetries)
}

// Delay returns the backoff before retry number retryCount (1-based).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		// Compare before shifting so large retry counts cannot overflow.
		shift := retryCount - 1
		if shift >= 62 || p.Initial > p.Max>>shift {
			return p.Max
		}
		return p.Initial << shift
	default: // linear
		if p.Initial > p.Max/time.Duration(retryCount) {
			return p.Max
		}
		return time.Duration(retryCount) * p.Initial
	}
}

// Validate checks the policy for obviously invalid values.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}

// Do runs fn until it succeeds, permanent reports the error as not worth
// retrying, the retries are exhausted or ctx is done. onRetry, when set, is
// called before each wait.
func (p Policy) Do(ctx context.Context, fn func() error, permanent func(error) bool, onRetry func(attempt int, delay time.Duration, err error)) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if permanent != nil && permanent(err) {
			return err
		}
		if attempt == p.MaxRetries {
			break
		}

		delay := p.Delay(attempt + 1)
		if onRetry != nil {
			onRetry(attempt+1, delay, err)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	if p.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("failed after %d retries: %w", p.MaxRetries, lastErr)
}
