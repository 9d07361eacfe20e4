package retry

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/siteship/internal/config"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, config.RetryBackoffLinear, p.Mode)
	require.Equal(t, time.Second, p.Initial)
	require.Equal(t, 30*time.Second, p.Max)
	require.Equal(t, 2, p.MaxRetries)
}

func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, 5*time.Second, 2*time.Second, 5)
	require.Equal(t, 2*time.Second, p.Initial, "initial is clamped to max")
	require.Equal(t, 2*time.Second, p.Max)
	require.Equal(t, config.RetryBackoffFixed, p.Mode)
	require.Equal(t, 5, p.MaxRetries)
}

func TestUnknownModeFallsBack(t *testing.T) {
	p := NewPolicy("weird", 250*time.Millisecond, 500*time.Millisecond, 1)
	require.Equal(t, config.RetryBackoffLinear, p.Mode)
}

func TestFromGitConfig(t *testing.T) {
	p := FromGitConfig(config.GitConfig{
		MaxRetries:        3,
		RetryBackoff:      config.RetryBackoffExponential,
		RetryInitialDelay: "100ms",
	})
	require.Equal(t, config.RetryBackoffExponential, p.Mode)
	require.Equal(t, 100*time.Millisecond, p.Initial)
	require.Equal(t, 10*time.Second, p.Max)
	require.Equal(t, 3, p.MaxRetries)
}

func TestDelayModes(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{"fixed", NewPolicy(config.RetryBackoffFixed, 100*time.Millisecond, 500*time.Millisecond, 3), 3, 100 * time.Millisecond},
		{"linear 1", NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5), 1, 100 * time.Millisecond},
		{"linear 2", NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5), 2, 200 * time.Millisecond},
		{"linear capped", NewPolicy(config.RetryBackoffLinear, 100*time.Millisecond, 250*time.Millisecond, 5), 3, 250 * time.Millisecond},
		{"exp 1", NewPolicy(config.RetryBackoffExponential, 50*time.Millisecond, 160*time.Millisecond, 5), 1, 50 * time.Millisecond},
		{"exp 2", NewPolicy(config.RetryBackoffExponential, 50*time.Millisecond, 160*time.Millisecond, 5), 2, 100 * time.Millisecond},
		{"exp capped", NewPolicy(config.RetryBackoffExponential, 50*time.Millisecond, 160*time.Millisecond, 5), 3, 160 * time.Millisecond},
		{"exp exact max", NewPolicy(config.RetryBackoffExponential, 50*time.Millisecond, 200*time.Millisecond, 5), 3, 200 * time.Millisecond},
		{"exp large shift", NewPolicy(config.RetryBackoffExponential, time.Second, time.Hour, 100), 40, time.Hour},
		{"exp shift past width", NewPolicy(config.RetryBackoffExponential, time.Second, time.Hour, 100), 64, time.Hour},
		{"exp huge attempt", NewPolicy(config.RetryBackoffExponential, time.Second, time.Hour, 100), 1000, time.Hour},
		{"linear huge attempt", NewPolicy(config.RetryBackoffLinear, time.Second, time.Hour, 100), math.MaxInt32, time.Hour},
		{"zero attempt", DefaultPolicy(), 0, 0},
		{"negative attempt", DefaultPolicy(), -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.policy.Delay(tt.attempt))
		})
	}
}

func TestValidate(t *testing.T) {
	require.Error(t, Policy{Initial: 0, Max: time.Second}.Validate())
	require.Error(t, Policy{Initial: time.Second, Max: 0}.Validate())
	require.Error(t, Policy{Initial: time.Second, Max: 2 * time.Second, MaxRetries: -1}.Validate())
	require.NoError(t, Policy{Initial: time.Second, Max: 2 * time.Second}.Validate())
}

func TestDoRetriesTransientErrors(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	var retried []int
	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	}, nil, func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) })

	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, []int{1, 2}, retried)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 5)
	denied := errors.New("permission denied")
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return denied
	}, func(err error) bool { return errors.Is(err, denied) }, nil)

	require.ErrorIs(t, err, denied)
	require.Equal(t, 1, calls)
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
	boom := errors.New("timeout")
	calls := 0
	err := p.Do(context.Background(), func() error {
		calls++
		return boom
	}, nil, nil)

	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "failed after 2 retries")
	require.Equal(t, 3, calls)
}

func TestDoHonoursCancellation(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Hour, time.Hour, 5)
	ctx, cancel := context.WithCancel(context.Background())
	boom := errors.New("timeout")
	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		cancel()
		return boom
	}, nil, nil)

	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}
