package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/emberchat/ember/infrastructure/logger"
)

// Manager registers named instruments on an otel Meter and records to them
// by name. Registration happens once at startup in the container; recording
// an unregistered name is logged and dropped rather than failing the caller.
type Manager interface {
	NewGauge(name, description string)
	NewCounter(name, description string)
	NewUpDownCounter(name, description string)
	NewHistogram(name, description string, buckets ...float64)

	SetGauge(name string, value float64)
	AddCounter(name string, increment float64)
	AddUpDownCounter(name string, delta float64)
	RecordHistogram(name string, value float64)
}

type metricsManager struct {
	meter  metric.Meter
	logger *logger.Logger

	mu             sync.RWMutex
	gauges         map[string]metric.Float64Gauge
	counters       map[string]metric.Float64Counter
	upDownCounters map[string]metric.Float64UpDownCounter
	histograms     map[string]metric.Float64Histogram
}

func NewMetricsManager(meter metric.Meter, logger *logger.Logger) Manager {
	return &metricsManager{
		meter:          meter,
		logger:         logger,
		gauges:         make(map[string]metric.Float64Gauge),
		counters:       make(map[string]metric.Float64Counter),
		upDownCounters: make(map[string]metric.Float64UpDownCounter),
		histograms:     make(map[string]metric.Float64Histogram),
	}
}

func (m *metricsManager) NewGauge(name, description string) {
	gauge, err := m.meter.Float64Gauge(name, metric.WithDescription(description))
	if err != nil {
		m.logger.Error("failed to create gauge", zap.String("name", name), zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[name] = gauge
}

func (m *metricsManager) NewCounter(name, description string) {
	counter, err := m.meter.Float64Counter(name, metric.WithDescription(description))
	if err != nil {
		m.logger.Error("failed to create counter", zap.String("name", name), zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] = counter
}

func (m *metricsManager) NewUpDownCounter(name, description string) {
	counter, err := m.meter.Float64UpDownCounter(name, metric.WithDescription(description))
	if err != nil {
		m.logger.Error("failed to create updown counter", zap.String("name", name), zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.upDownCounters[name] = counter
}

func (m *metricsManager) NewHistogram(name, description string, buckets ...float64) {
	histogram, err := m.meter.Float64Histogram(name,
		metric.WithDescription(description),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	if err != nil {
		m.logger.Error("failed to create histogram", zap.String("name", name), zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms[name] = histogram
}

func (m *metricsManager) SetGauge(name string, value float64) {
	m.mu.RLock()
	gauge, ok := m.gauges[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("unknown gauge", zap.String("name", name))
		return
	}
	gauge.Record(context.Background(), value)
}

func (m *metricsManager) AddCounter(name string, increment float64) {
	m.mu.RLock()
	counter, ok := m.counters[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("unknown counter", zap.String("name", name))
		return
	}
	counter.Add(context.Background(), increment)
}

func (m *metricsManager) AddUpDownCounter(name string, delta float64) {
	m.mu.RLock()
	counter, ok := m.upDownCounters[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("unknown updown counter", zap.String("name", name))
		return
	}
	counter.Add(context.Background(), delta)
}

func (m *metricsManager) RecordHistogram(name string, value float64) {
	m.mu.RLock()
	histogram, ok := m.histograms[name]
	m.mu.RUnlock()
	if !ok {
		m.logger.Warn("unknown histogram", zap.String("name", name))
		return
	}
	histogram.Record(context.Background(), value)
}
