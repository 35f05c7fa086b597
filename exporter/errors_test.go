// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPermanent(t *testing.T) {
	base := errors.New("bad payload")
	err := NewPermanent(base)

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "permanent error")

	// The marker survives wrapping.
	wrapped := fmt.Errorf("export failed: %w", err)
	assert.True(t, IsPermanent(wrapped))

	assert.False(t, IsPermanent(nil))
	assert.False(t, IsPermanent(base))
}

func TestThrottle(t *testing.T) {
	base := errors.New("too many requests")
	err := NewThrottle(base, 30*time.Second)

	assert.Equal(t, 30*time.Second, ThrottleDelay(err))
	assert.ErrorIs(t, err, base)

	wrapped := fmt.Errorf("export failed: %w", err)
	assert.Equal(t, 30*time.Second, ThrottleDelay(wrapped))

	assert.Zero(t, ThrottleDelay(base))
	assert.Zero(t, ThrottleDelay(nil))
	assert.False(t, IsPermanent(err))
}
