package validation

import (
	"fmt"
	"sync"

	"metaed/internal/model"
)

// Sink копит диагностики в порядке поступления. Только дописывание.
type Sink struct {
	mu       sync.RWMutex
	failures []Failure
}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) Add(f Failure) {
	s.mu.Lock()
	s.failures = append(s.failures, f)
	s.mu.Unlock()
}

func (s *Sink) Errorf(validator string, src model.Source, format string, args ...any) {
	s.Add(Failure{ValidatorName: validator, Category: CategoryError, Message: fmt.Sprintf(format, args...), Source: src})
}

func (s *Sink) Warnf(validator string, src model.Source, format string, args ...any) {
	s.Add(Failure{ValidatorName: validator, Category: CategoryWarning, Message: fmt.Sprintf(format, args...), Source: src})
}

// All: копия всех диагностик.
func (s *Sink) All() List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(List, len(s.failures))
	copy(out, s.failures)
	return out
}

func (s *Sink) Errors() List   { return s.filter(CategoryError) }
func (s *Sink) Warnings() List { return s.filter(CategoryWarning) }

func (s *Sink) filter(c Category) List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out List
	for _, f := range s.failures {
		if f.Category == c {
			out = append(out, f)
		}
	}
	return out
}

func (s *Sink) HasErrors() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.failures {
		if f.IsError() {
			return true
		}
	}
	return false
}

func (s *Sink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.failures)
}
