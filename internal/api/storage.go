package api

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"metaed/internal/builder"

	"github.com/oklog/ulid/v2"
)

// Snapshot: одна построенная модель, которую отдаёт API.
type Snapshot struct {
	ID      string          `json:"buildId"`
	BuiltAt time.Time       `json:"builtAt"`
	Result  *builder.Result `json:"-"`
}

type Storage struct {
	mu      sync.RWMutex
	current *Snapshot

	idMu    sync.Mutex
	entropy io.Reader
}

// NewStorage готов к работе; res может быть nil, тогда API отвечает 503 до первой сборки.
func NewStorage(res *builder.Result) *Storage {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := &Storage{entropy: ulid.Monotonic(src, 0)}
	if res != nil {
		s.Swap(res)
	}
	return s
}

func (s *Storage) newID(at time.Time) string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), s.entropy).String()
}

// Swap атомарно подменяет модель и возвращает новый снимок.
func (s *Storage) Swap(res *builder.Result) *Snapshot {
	now := time.Now().UTC()
	snap := &Snapshot{ID: s.newID(now), BuiltAt: now, Result: res}

	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
	return snap
}

func (s *Storage) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
