// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package fanout_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/signalfold/otelkit/exporter/fanout"
	"github.com/signalfold/otelkit/internal/otelkittest"
)

func TestNewValidation(t *testing.T) {
	_, err := fanout.New[int]()
	require.Error(t, err)

	_, err = fanout.New[int](otelkittest.NewCapturingExporter[int](), nil)
	require.Error(t, err)
}

func TestFanoutDeliversToAllChildren(t *testing.T) {
	a := otelkittest.NewCapturingExporter[int]()
	b := otelkittest.NewCapturingExporter[int]()
	f, err := fanout.New[int](a, b)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, f.Export(ctx, []int{1, 2}))
	assert.Equal(t, [][]int{{1, 2}}, a.Batches())
	assert.Equal(t, [][]int{{1, 2}}, b.Batches())

	require.NoError(t, f.ForceFlush(ctx))
	assert.Equal(t, 1, a.FlushCount())
	assert.Equal(t, 1, b.FlushCount())

	require.NoError(t, f.Shutdown(ctx))
	assert.Equal(t, 1, a.ShutdownCount())
	assert.Equal(t, 1, b.ShutdownCount())
}

func TestFanoutFailedChildDoesNotStopOthers(t *testing.T) {
	a := otelkittest.NewCapturingExporter[int]()
	a.FailWith(errors.New("child a down"), -1)
	b := otelkittest.NewCapturingExporter[int]()
	f, err := fanout.New[int](a, b)
	require.NoError(t, err)

	err = f.Export(context.Background(), []int{7})
	require.Error(t, err)
	// The healthy child still received the batch.
	assert.Equal(t, [][]int{{7}}, b.Batches())
}

func TestFanoutAggregatesErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	a := otelkittest.NewCapturingExporter[int]()
	a.FailWith(errA, -1)
	b := otelkittest.NewCapturingExporter[int]()
	b.FailWith(errB, -1)
	f, err := fanout.New[int](a, b)
	require.NoError(t, err)

	err = f.Export(context.Background(), []int{1})
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], errA)
	assert.ErrorIs(t, errs[1], errB)
}
