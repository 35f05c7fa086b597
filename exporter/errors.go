// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package exporter // import "github.com/signalfold/otelkit/exporter"

import (
	"errors"
	"time"
)

// permanent wraps an error that retrying cannot fix, e.g. a payload the
// backend rejected as malformed.
type permanent struct {
	err error
}

func (p permanent) Error() string { return "permanent error: " + p.err.Error() }

func (p permanent) Unwrap() error { return p.err }

// NewPermanent marks err as not retryable.
func NewPermanent(err error) error {
	return permanent{err: err}
}

// IsPermanent reports whether err carries a permanent marker anywhere in its
// chain.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var p permanent
	return errors.As(err, &p)
}

// throttle reports that the backend asked to slow down, carrying the delay
// it requested (e.g. from a Retry-After header).
type throttle struct {
	err   error
	delay time.Duration
}

func (t throttle) Error() string { return "throttled (" + t.delay.String() + "): " + t.err.Error() }

func (t throttle) Unwrap() error { return t.err }

// NewThrottle wraps err with a backend-requested retry delay.
func NewThrottle(err error, delay time.Duration) error {
	return throttle{err: err, delay: delay}
}

// ThrottleDelay returns the delay requested by a throttle error in err's
// chain, or zero when there is none.
func ThrottleDelay(err error) time.Duration {
	var t throttle
	if errors.As(err, &t) {
		return t.delay
	}
	return 0
}
