// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalfold/otelkit/internal/otelkittest"
)

func TestSimpleExportsEachItem(t *testing.T) {
	exp := otelkittest.NewCapturingExporter[int]()
	s, err := NewSimple[int](exp)
	require.NoError(t, err)

	s.Enqueue(1)
	s.Enqueue(2)
	assert.Equal(t, [][]int{{1}, {2}}, exp.Batches())
}

func TestSimpleNilExporter(t *testing.T) {
	_, err := NewSimple[int](nil)
	require.ErrorIs(t, err, errNilExporter)
}

func TestSimpleExportFailureIsSwallowed(t *testing.T) {
	exp := otelkittest.NewCapturingExporter[int]()
	exp.FailWith(errors.New("down"), 1)
	s, err := NewSimple[int](exp)
	require.NoError(t, err)

	s.Enqueue(1)
	s.Enqueue(2)
	// The failed item is dropped; the pipeline keeps going.
	assert.Equal(t, [][]int{{2}}, exp.Batches())
}

func TestSimpleShutdown(t *testing.T) {
	exp := otelkittest.NewCapturingExporter[int]()
	s, err := NewSimple[int](exp)
	require.NoError(t, err)

	s.Enqueue(1)
	require.NoError(t, s.Shutdown(context.Background()))
	require.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, 1, exp.ShutdownCount())

	s.Enqueue(2)
	require.NoError(t, s.ForceFlush(context.Background()))
	assert.Equal(t, [][]int{{1}}, exp.Batches())
	assert.Zero(t, exp.FlushCount())
}
