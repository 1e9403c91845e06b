// Package retry retries operations which fail transiently, such as reads
// from a shared scratch mount.
package retry

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

type Settings struct {
	InitialBackoff time.Duration
	Multiplier     int
	MaxBackoff     time.Duration
	// MaxAttempts counts the first attempt. Zero or one means no retries.
	MaxAttempts int
}

func (s Settings) Verify() error {
	if s.MaxAttempts < 0 {
		return errors.Newf("max attempts must be >= 0, got %d", s.MaxAttempts)
	}
	if s.MaxAttempts <= 1 {
		return nil
	}
	if s.InitialBackoff <= 0 {
		return errors.Newf("initial backoff must be > 0, got %s", s.InitialBackoff)
	}
	if s.Multiplier < 1 {
		return errors.Newf("multiplier must be >= 1, got %d", s.Multiplier)
	}
	if s.MaxBackoff > 0 && s.InitialBackoff > s.MaxBackoff {
		return errors.Newf("initial backoff (%s) must be less than max backoff (%s)", s.InitialBackoff, s.MaxBackoff)
	}
	return nil
}

func DefaultSettings() Settings {
	return Settings{
		InitialBackoff: 200 * time.Millisecond,
		Multiplier:     2,
		MaxBackoff:     2 * time.Second,
		MaxAttempts:    3,
	}
}

// Backoff is the pause after the given failed attempt, counting from 1.
func (s Settings) Backoff(attempt int) time.Duration {
	d := s.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= time.Duration(s.Multiplier)
		if s.MaxBackoff > 0 && d >= s.MaxBackoff {
			return s.MaxBackoff
		}
	}
	if s.MaxBackoff > 0 && d > s.MaxBackoff {
		return s.MaxBackoff
	}
	return d
}

// Do calls fn until it succeeds, fails with an error retryable rejects, or
// runs out of attempts. The last error of fn is returned.
func Do(ctx context.Context, s Settings, retryable func(error) bool, fn func() error) error {
	if err := s.Verify(); err != nil {
		return err
	}
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !retryable(err) {
			return err
		}
		if attempt >= s.MaxAttempts {
			if attempt > 1 {
				return errors.Wrapf(err, "giving up after %d attempts", attempt)
			}
			return err
		}
		t := time.NewTimer(s.Backoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.CombineErrors(ctx.Err(), err)
		case <-t.C:
		}
	}
}
