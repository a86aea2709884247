// Package memory disponibiliza implementações em memória dos ports.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/JeanGrijp/cascade-gateway/internal/core/ports"
)

const DefaultMaxKeys = 10000

type window struct {
	start  time.Time
	period time.Duration
	count  int64
}

func (w window) expired(now time.Time) bool {
	return now.Sub(w.start) >= w.period
}

// WindowStorage guarda janelas fixas por chave. Cada operação roda sob o mesmo
// mutex, então ler, comparar e incrementar é indivisível.
// O número de chaves é limitado: janelas vencidas são podadas e, no limite,
// a janela mais antiga é descartada.
type WindowStorage struct {
	mu      sync.Mutex
	maxKeys int
	windows map[string]window
	blocks  map[string]time.Time
	now     func() time.Time
}

var _ ports.Storage = (*WindowStorage)(nil)

func NewWindowStorage(maxKeys int) *WindowStorage {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	return &WindowStorage{
		maxKeys: maxKeys,
		windows: make(map[string]window),
		blocks:  make(map[string]time.Time),
		now:     time.Now,
	}
}

// WithClock troca o relógio usado pelas janelas.
func (s *WindowStorage) WithClock(now func() time.Time) *WindowStorage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *WindowStorage) Increment(_ context.Context, key string, period time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || now.Sub(w.start) >= period {
		if !ok {
			s.makeRoom(now)
		}
		s.windows[key] = window{start: now, period: period, count: 1}
		return 1, nil
	}

	w.count++
	s.windows[key] = w
	return w.count, nil
}

func (s *WindowStorage) IsBlocked(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.blocks[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.blocks, key)
		return false, nil
	}
	return true, nil
}

func (s *WindowStorage) SetBlock(_ context.Context, key string, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if duration <= 0 {
		delete(s.blocks, key)
		return nil
	}
	s.blocks[key] = s.now().Add(duration)
	return nil
}

// Len devolve quantas janelas estão em memória.
func (s *WindowStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

func (s *WindowStorage) makeRoom(now time.Time) {
	if len(s.windows) < s.maxKeys {
		return
	}
	for k, w := range s.windows {
		if w.expired(now) {
			delete(s.windows, k)
		}
	}
	for k, until := range s.blocks {
		if !now.Before(until) {
			delete(s.blocks, k)
		}
	}
	for len(s.windows) >= s.maxKeys {
		oldestKey := ""
		var oldest time.Time
		for k, w := range s.windows {
			if oldestKey == "" || w.start.Before(oldest) {
				oldestKey, oldest = k, w.start
			}
		}
		delete(s.windows, oldestKey)
	}
}
