package retry

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestVerifySettings(t *testing.T) {
	for _, tc := range []struct {
		desc          string
		settings      Settings
		expectedError string
	}{
		{
			desc:     "default settings",
			settings: DefaultSettings(),
		},
		{
			desc:     "no retries needs no backoff",
			settings: Settings{MaxAttempts: 1},
		},
		{
			desc:          "negative attempts",
			settings:      Settings{MaxAttempts: -1},
			expectedError: "max attempts must be >= 0, got -1",
		},
		{
			desc:          "initial backoff bad",
			settings:      Settings{MaxAttempts: 2},
			expectedError: "initial backoff must be > 0, got 0s",
		},
		{
			desc:          "multiplier bad",
			settings:      Settings{MaxAttempts: 2, InitialBackoff: time.Second},
			expectedError: "multiplier must be >= 1, got 0",
		},
		{
			desc:          "max backoff bad",
			settings:      Settings{MaxAttempts: 2, InitialBackoff: time.Second, Multiplier: 5, MaxBackoff: time.Millisecond},
			expectedError: "initial backoff (1s) must be less than max backoff (1ms)",
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			err := tc.settings.Verify()
			if tc.expectedError != "" {
				require.EqualError(t, err, tc.expectedError)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBackoff(t *testing.T) {
	s := Settings{InitialBackoff: time.Second, Multiplier: 2, MaxBackoff: 5 * time.Second}
	var got []time.Duration
	for attempt := 1; attempt <= 5; attempt++ {
		got = append(got, s.Backoff(attempt))
	}
	require.Equal(t, []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second,
		5 * time.Second,
	}, got)
}

var errTransient = errors.New("transient")

func TestDo(t *testing.T) {
	fast := Settings{InitialBackoff: time.Millisecond, Multiplier: 1, MaxAttempts: 3}
	retryable := func(err error) bool { return errors.Is(err, errTransient) }

	for _, tc := range []struct {
		desc          string
		failures      []error
		expectedCalls int
		expectedError string
	}{
		{
			desc:          "first attempt succeeds",
			expectedCalls: 1,
		},
		{
			desc:          "succeeds after transient failures",
			failures:      []error{errTransient, errTransient},
			expectedCalls: 3,
		},
		{
			desc:          "permanent failure",
			failures:      []error{errors.New("bad magic")},
			expectedCalls: 1,
			expectedError: "bad magic",
		},
		{
			desc:          "out of attempts",
			failures:      []error{errTransient, errTransient, errTransient, errTransient},
			expectedCalls: 3,
			expectedError: "giving up after 3 attempts: transient",
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			var calls int
			err := Do(context.Background(), fast, retryable, func() error {
				calls++
				if calls <= len(tc.failures) {
					return tc.failures[calls-1]
				}
				return nil
			})
			require.Equal(t, tc.expectedCalls, calls)
			if tc.expectedError != "" {
				require.EqualError(t, err, tc.expectedError)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDoCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls int
	err := Do(
		ctx,
		Settings{InitialBackoff: time.Hour, Multiplier: 1, MaxAttempts: 3},
		func(error) bool { return true },
		func() error {
			calls++
			return errTransient
		},
	)
	require.Equal(t, 1, calls)
	require.True(t, errors.Is(err, context.Canceled))
}
