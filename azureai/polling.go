// Copyright (c) Microsoft. All rights reserved.

package azureai

import "time"

// RunPollingOptions controls how a run is polled to completion and how
// message-retrieval lag is absorbed.
type RunPollingOptions struct {
	// RunPollingInterval is the delay between status checks for the first
	// RunPollingBackoffThreshold iterations.
	RunPollingInterval time.Duration

	// RunPollingBackoff is the base delay once the backoff threshold is
	// crossed. The delay doubles on each further iteration, capped at
	// sixteen times the base.
	RunPollingBackoff time.Duration

	// RunPollingBackoffThreshold is the number of iterations polled at
	// RunPollingInterval before backing off.
	RunPollingBackoffThreshold int

	// MessageSynchronizationDelay is the fixed delay between retries when a
	// message referenced by a completed step is not yet visible.
	MessageSynchronizationDelay time.Duration

	// MaximumRetryCount bounds both transient poll failures and
	// message-synchronization retries.
	MaximumRetryCount int
}

// DefaultRunPollingOptions returns the polling defaults.
func DefaultRunPollingOptions() RunPollingOptions {
	return RunPollingOptions{
		RunPollingInterval:          500 * time.Millisecond,
		RunPollingBackoff:           time.Second,
		RunPollingBackoffThreshold:  2,
		MessageSynchronizationDelay: 500 * time.Millisecond,
		MaximumRetryCount:           3,
	}
}

// Interval returns the delay to apply before the given zero-based poll
// iteration.
func (o RunPollingOptions) Interval(iteration int) time.Duration {
	if iteration < o.RunPollingBackoffThreshold {
		return o.RunPollingInterval
	}
	shift := iteration - o.RunPollingBackoffThreshold
	if shift > 4 {
		shift = 4
	}
	return o.RunPollingBackoff << uint(shift)
}

func (o RunPollingOptions) withDefaults() RunPollingOptions {
	d := DefaultRunPollingOptions()
	if o.RunPollingInterval <= 0 {
		o.RunPollingInterval = d.RunPollingInterval
	}
	if o.RunPollingBackoff <= 0 {
		o.RunPollingBackoff = d.RunPollingBackoff
	}
	if o.RunPollingBackoffThreshold <= 0 {
		o.RunPollingBackoffThreshold = d.RunPollingBackoffThreshold
	}
	if o.MessageSynchronizationDelay <= 0 {
		o.MessageSynchronizationDelay = d.MessageSynchronizationDelay
	}
	if o.MaximumRetryCount <= 0 {
		o.MaximumRetryCount = d.MaximumRetryCount
	}
	return o
}
