package record

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore keeps a bounded window of recent records per bot. Oldest
// records fall off once the cap is reached.
type InMemoryStore struct {
	mu      sync.RWMutex
	cap     int
	byBot   map[int64]map[int64]MessageRecord
	orderBy map[int64][]int64
}

func NewInMemoryStore(capPerBot int) *InMemoryStore {
	if capPerBot <= 0 {
		capPerBot = 4096
	}
	return &InMemoryStore{
		cap:     capPerBot,
		byBot:   make(map[int64]map[int64]MessageRecord),
		orderBy: make(map[int64][]int64),
	}
}

func (s *InMemoryStore) Save(_ context.Context, rec MessageRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byBot[rec.BotID]
	if !ok {
		m = make(map[int64]MessageRecord)
		s.byBot[rec.BotID] = m
	}
	if _, exists := m[rec.MessageID]; !exists {
		s.orderBy[rec.BotID] = append(s.orderBy[rec.BotID], rec.MessageID)
	}
	m[rec.MessageID] = rec

	if order := s.orderBy[rec.BotID]; len(order) > s.cap {
		evict := order[0]
		s.orderBy[rec.BotID] = order[1:]
		delete(m, evict)
	}
	return nil
}

func (s *InMemoryStore) ByID(_ context.Context, botID, messageID int64) (MessageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byBot[botID][messageID]
	if !ok {
		return MessageRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *InMemoryStore) Close() error { return nil }
