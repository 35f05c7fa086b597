// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

// Package fanout provides a composite exporter that forwards every call to a
// list of child exporters.
package fanout // import "github.com/signalfold/otelkit/exporter/fanout"

import (
	"context"
	"errors"

	"go.uber.org/multierr"

	"github.com/signalfold/otelkit/exporter"
)

type fanout[T any] struct {
	children []exporter.Exporter[T]
}

// New combines children into one exporter. Children are invoked
// sequentially in the given order; every child sees every batch even when an
// earlier one fails, and the errors are combined into one result.
func New[T any](children ...exporter.Exporter[T]) (exporter.Exporter[T], error) {
	if len(children) == 0 {
		return nil, errors.New("fanout: requires at least one exporter")
	}
	for _, c := range children {
		if c == nil {
			return nil, errors.New("fanout: nil child exporter")
		}
	}
	cp := make([]exporter.Exporter[T], len(children))
	copy(cp, children)
	return fanout[T]{children: cp}, nil
}

func (f fanout[T]) Export(ctx context.Context, items []T) error {
	var err error
	for _, c := range f.children {
		err = multierr.Append(err, c.Export(ctx, items))
	}
	return err
}

func (f fanout[T]) ForceFlush(ctx context.Context) error {
	var err error
	for _, c := range f.children {
		err = multierr.Append(err, c.ForceFlush(ctx))
	}
	return err
}

func (f fanout[T]) Shutdown(ctx context.Context) error {
	var err error
	for _, c := range f.children {
		err = multierr.Append(err, c.Shutdown(ctx))
	}
	return err
}
