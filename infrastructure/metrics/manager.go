package metrics

import (
	"context"
	"sync"

	"github.com/sortline/sortline/api/infrastructure/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Manager registers instruments up front and records against them by name,
// so call sites don't carry otel instrument handles around.
type Manager interface {
	NewCounter(name, description string)
	NewUpDownCounter(name, description string)
	NewGauge(name, description string)
	NewHistogram(name, description string, buckets ...float64)

	IncCounter(name string, attrs ...attribute.KeyValue)
	AddCounter(name string, delta int64, attrs ...attribute.KeyValue)
	AddUpDownCounter(name string, delta int64)
	SetGauge(name string, value float64)
	ObserveHistogram(name string, value float64)
}

type metricsManager struct {
	meter  metric.Meter
	logger *logger.Logger

	mu             sync.RWMutex
	counters       map[string]metric.Int64Counter
	upDownCounters map[string]metric.Int64UpDownCounter
	gauges         map[string]metric.Float64Gauge
	histograms     map[string]metric.Float64Histogram
}

func NewMetricsManager(meter metric.Meter, log *logger.Logger) Manager {
	return &metricsManager{
		meter:          meter,
		logger:         log,
		counters:       map[string]metric.Int64Counter{},
		upDownCounters: map[string]metric.Int64UpDownCounter{},
		gauges:         map[string]metric.Float64Gauge{},
		histograms:     map[string]metric.Float64Histogram{},
	}
}

func (m *metricsManager) NewCounter(name, description string) {
	counter, err := m.meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		m.logger.Error("failed to register counter", zap.String("name", name), zap.Error(err))
		return
	}
	m.mu.Lock()
	m.counters[name] = counter
	m.mu.Unlock()
}

func (m *metricsManager) NewUpDownCounter(name, description string) {
	counter, err := m.meter.Int64UpDownCounter(name, metric.WithDescription(description))
	if err != nil {
		m.logger.Error("failed to register up/down counter", zap.String("name", name), zap.Error(err))
		return
	}
	m.mu.Lock()
	m.upDownCounters[name] = counter
	m.mu.Unlock()
}

func (m *metricsManager) NewGauge(name, description string) {
	gauge, err := m.meter.Float64Gauge(name, metric.WithDescription(description))
	if err != nil {
		m.logger.Error("failed to register gauge", zap.String("name", name), zap.Error(err))
		return
	}
	m.mu.Lock()
	m.gauges[name] = gauge
	m.mu.Unlock()
}

func (m *metricsManager) NewHistogram(name, description string, buckets ...float64) {
	histogram, err := m.meter.Float64Histogram(name,
		metric.WithDescription(description),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	if err != nil {
		m.logger.Error("failed to register histogram", zap.String("name", name), zap.Error(err))
		return
	}
	m.mu.Lock()
	m.histograms[name] = histogram
	m.mu.Unlock()
}

func (m *metricsManager) IncCounter(name string, attrs ...attribute.KeyValue) {
	m.AddCounter(name, 1, attrs...)
}

func (m *metricsManager) AddCounter(name string, delta int64, attrs ...attribute.KeyValue) {
	m.mu.RLock()
	counter, ok := m.counters[name]
	m.mu.RUnlock()
	if !ok {
		return
	}
	counter.Add(context.Background(), delta, metric.WithAttributes(attrs...))
}

func (m *metricsManager) AddUpDownCounter(name string, delta int64) {
	m.mu.RLock()
	counter, ok := m.upDownCounters[name]
	m.mu.RUnlock()
	if !ok {
		return
	}
	counter.Add(context.Background(), delta)
}

func (m *metricsManager) SetGauge(name string, value float64) {
	m.mu.RLock()
	gauge, ok := m.gauges[name]
	m.mu.RUnlock()
	if !ok {
		return
	}
	gauge.Record(context.Background(), value)
}

func (m *metricsManager) ObserveHistogram(name string, value float64) {
	m.mu.RLock()
	histogram, ok := m.histograms[name]
	m.mu.RUnlock()
	if !ok {
		return
	}
	histogram.Record(context.Background(), value)
}
