package metrics

import (
	"errors"
	"sync"

	"go.opentelemetry.io/otel/metric"
)

var (
	errMetricDoesNotExist = errors.New("metrics with given name does not exists")
	errMetricAlreadyExist = errors.New("metrics with given name already exists")
)

type store struct {
	mu        sync.RWMutex
	counter   map[string]metric.Int64Counter
	histogram map[string]metric.Float64Histogram
}

func newStore() *store {
	return &store{
		counter:   make(map[string]metric.Int64Counter),
		histogram: make(map[string]metric.Float64Histogram),
	}
}

func (s *store) getCounter(name string) (metric.Int64Counter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.counter[name]
	if !ok {
		return nil, errMetricDoesNotExist
	}

	return m, nil
}

func (s *store) getHistogram(name string) (metric.Float64Histogram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.histogram[name]
	if !ok {
		return nil, errMetricDoesNotExist
	}

	return m, nil
}

func (s *store) setCounter(name string, m metric.Int64Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.counter[name]; ok {
		return errMetricAlreadyExist
	}

	s.counter[name] = m

	return nil
}

func (s *store) setHistogram(name string, m metric.Float64Histogram) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.histogram[name]; ok {
		return errMetricAlreadyExist
	}

	s.histogram[name] = m

	return nil
}
