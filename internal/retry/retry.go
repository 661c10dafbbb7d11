// Package retry implements the exponential backoff used around calls to the
// model provider. Only a caller-designated error class is retried; everything
// else propagates immediately.
package retry

import (
	"context"
	"time"
)

// Policy describes an exponential backoff schedule. The first retry waits
// Initial, each subsequent retry multiplies the wait by Multiplier, and the
// wait never exceeds Max. There is no attempt ceiling: once the wait reaches
// Max, retries continue at the Max interval until the call succeeds, fails
// with a non-retryable error, or the context is cancelled.
type Policy struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
}

// DefaultPolicy mirrors the provider-documented backoff for quota errors.
func DefaultPolicy() Policy {
	return Policy{
		Initial:    46 * time.Second,
		Multiplier: 2,
		Max:        120 * time.Second,
	}
}

// SleepFunc waits for a delay or until the context is done, returning the
// context error in the latter case. Tests substitute a recording fake.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retrier applies a Policy to function calls.
type Retrier struct {
	policy Policy
	sleep  SleepFunc
}

// New builds a Retrier. A nil sleep uses the real clock.
func New(policy Policy, sleep SleepFunc) *Retrier {
	if sleep == nil {
		sleep = Sleep
	}
	if policy.Multiplier <= 1 {
		policy.Multiplier = 2
	}
	if policy.Max > 0 && policy.Initial > policy.Max {
		policy.Initial = policy.Max
	}
	return &Retrier{policy: policy, sleep: sleep}
}

// Do invokes fn until it succeeds or returns an error for which retryable
// reports false. Between attempts it waits per the policy schedule.
func (r *Retrier) Do(ctx context.Context, retryable func(error) bool, fn func() error) error {
	delay := r.policy.Initial
	for {
		err := fn()
		if err == nil || !retryable(err) {
			return err
		}
		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
		next := time.Duration(float64(delay) * r.policy.Multiplier)
		if r.policy.Max > 0 && next > r.policy.Max {
			next = r.policy.Max
		}
		delay = next
	}
}
