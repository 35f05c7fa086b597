// Copyright The Otelkit Authors
// SPDX-License-Identifier: Apache-2.0

package metric_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalfold/otelkit/attribute"
	"github.com/signalfold/otelkit/internal/otelkittest"
	"github.com/signalfold/otelkit/metric"
	"github.com/signalfold/otelkit/telemetry"
)

func counterProducer(name string, n *atomic.Int64) metric.Producer {
	return metric.ProducerFunc(func(context.Context) (telemetry.Metrics, error) {
		return telemetry.Metrics{
			Scope: telemetry.Scope{Name: "test"},
			Points: []telemetry.Point{{
				Name:      name,
				Kind:      telemetry.PointKindSum,
				Monotonic: true,
				Time:      time.Now(),
				Value:     float64(n.Add(1)),
			}},
		}, nil
	})
}

func TestProviderFlushCollectsAndExports(t *testing.T) {
	exp := otelkittest.NewCapturingExporter[telemetry.Metrics]()
	reader, err := metric.NewPeriodicReader(exp, metric.WithInterval(time.Hour))
	require.NoError(t, err)

	var n atomic.Int64
	mp, err := metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithProducer(counterProducer("requests.total", &n)),
		metric.WithResource(telemetry.NewResource(attribute.String("service.name", "shop"))),
	)
	require.NoError(t, err)

	require.NoError(t, mp.ForceFlush(context.Background()))
	items := exp.Items()
	require.Len(t, items, 1)
	got := items[0]
	assert.Equal(t, "requests.total", got.Points[0].Name)
	assert.Equal(t, float64(1), got.Points[0].Value)
	// The provider resource is stamped on collections lacking one.
	assert.True(t, got.Resource.Attributes().HasValue("service.name"))

	require.NoError(t, mp.Shutdown(context.Background()))
}

func TestPeriodicCollection(t *testing.T) {
	exp := otelkittest.NewCapturingExporter[telemetry.Metrics]()
	reader, err := metric.NewPeriodicReader(exp,
		metric.WithInterval(20*time.Millisecond),
	)
	require.NoError(t, err)

	var n atomic.Int64
	mp, err := metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithProducer(counterProducer("ticks", &n)),
	)
	require.NoError(t, err)
	defer func() { require.NoError(t, mp.Shutdown(context.Background())) }()

	require.Eventually(t, func() bool {
		return len(exp.Items()) >= 2
	}, 5*time.Second, 10*time.Millisecond)
}

func TestFailingProducerDoesNotStopOthers(t *testing.T) {
	exp := otelkittest.NewCapturingExporter[telemetry.Metrics]()
	reader, err := metric.NewPeriodicReader(exp, metric.WithInterval(time.Hour))
	require.NoError(t, err)

	var n atomic.Int64
	failing := metric.ProducerFunc(func(context.Context) (telemetry.Metrics, error) {
		return telemetry.Metrics{}, errors.New("collect failed")
	})
	mp, err := metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithProducer(failing),
		metric.WithProducer(counterProducer("healthy", &n)),
	)
	require.NoError(t, err)

	require.NoError(t, mp.ForceFlush(context.Background()))
	items := exp.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "healthy", items[0].Points[0].Name)
	require.NoError(t, mp.Shutdown(context.Background()))
}

func TestEmptyCollectionsAreSkipped(t *testing.T) {
	exp := otelkittest.NewCapturingExporter[telemetry.Metrics]()
	reader, err := metric.NewPeriodicReader(exp, metric.WithInterval(time.Hour))
	require.NoError(t, err)

	empty := metric.ProducerFunc(func(context.Context) (telemetry.Metrics, error) {
		return telemetry.Metrics{}, nil
	})
	mp, err := metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithProducer(empty),
	)
	require.NoError(t, err)

	require.NoError(t, mp.ForceFlush(context.Background()))
	assert.Empty(t, exp.Items())
	require.NoError(t, mp.Shutdown(context.Background()))
}

func TestShutdownPerformsFinalCollection(t *testing.T) {
	exp := otelkittest.NewCapturingExporter[telemetry.Metrics]()
	reader, err := metric.NewPeriodicReader(exp, metric.WithInterval(time.Hour))
	require.NoError(t, err)

	var n atomic.Int64
	mp, err := metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithProducer(counterProducer("final", &n)),
	)
	require.NoError(t, err)

	require.NoError(t, mp.Shutdown(context.Background()))
	require.Len(t, exp.Items(), 1)
	assert.Equal(t, 1, exp.ShutdownCount())

	// Idempotent: no second collection, no second exporter shutdown.
	require.NoError(t, mp.Shutdown(context.Background()))
	require.Len(t, exp.Items(), 1)
	assert.Equal(t, 1, exp.ShutdownCount())
}

func TestProducerCollectionKeepsOwnResource(t *testing.T) {
	exp := otelkittest.NewCapturingExporter[telemetry.Metrics]()
	reader, err := metric.NewPeriodicReader(exp, metric.WithInterval(time.Hour))
	require.NoError(t, err)

	own := telemetry.NewResource(attribute.String("service.name", "sidecar"))
	p := metric.ProducerFunc(func(context.Context) (telemetry.Metrics, error) {
		return telemetry.Metrics{
			Resource: own,
			Points:   []telemetry.Point{{Name: "m", Value: 1}},
		}, nil
	})
	mp, err := metric.NewMeterProvider(
		metric.WithReader(reader),
		metric.WithProducer(p),
		metric.WithResource(telemetry.NewResource(attribute.String("service.name", "main"))),
	)
	require.NoError(t, err)

	require.NoError(t, mp.ForceFlush(context.Background()))
	items := exp.Items()
	require.Len(t, items, 1)
	v, ok := items[0].Resource.Attributes().Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "sidecar", v.AsString())
	require.NoError(t, mp.Shutdown(context.Background()))
}
