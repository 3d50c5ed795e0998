package utils

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mmdatafocus/asset_audit_backend/config"
)

// KeyValueStore is the slice of redis that staging needs.
type KeyValueStore interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type redisStore struct{}

// RedisStore backs staging with the shared redis client.
func RedisStore() KeyValueStore { return redisStore{} }

func (redisStore) Get(_ context.Context, key string, dest any) (bool, error) {
	if config.GetRedisDB() == nil {
		return false, ErrServiceNotReady
	}
	return config.GetRedisObject(key, dest)
}

func (redisStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if config.GetRedisDB() == nil {
		return ErrServiceNotReady
	}
	return config.SetRedisObject(key, value, ttl)
}

func (redisStore) Delete(_ context.Context, key string) error {
	return config.RemoveRedisKey(key)
}

// MemoryStore keeps JSON copies in process. Used by commands and tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (m *MemoryStore) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *MemoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

type PendingChange[V any] struct {
	Id    int `json:"id"`
	Value V   `json:"value"`
}

// PendingChanges holds edits that are shown to the user but not yet saved.
// The confirmed state lives elsewhere; discarding only drops the staged list.
type PendingChanges[V any] struct {
	store KeyValueStore
	key   string
	ttl   time.Duration
}

func NewPendingChanges[V any](store KeyValueStore, key string, ttl time.Duration) *PendingChanges[V] {
	return &PendingChanges[V]{store: store, key: key, ttl: ttl}
}

func (p *PendingChanges[V]) List(ctx context.Context) ([]PendingChange[V], error) {
	var changes []PendingChange[V]
	if _, err := p.store.Get(ctx, p.key, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// Stage records v for id. A later stage for the same id replaces the earlier one in place.
func (p *PendingChanges[V]) Stage(ctx context.Context, id int, v V) ([]PendingChange[V], error) {
	changes, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	replaced := false
	for i := range changes {
		if changes[i].Id == id {
			changes[i].Value = v
			replaced = true
			break
		}
	}
	if !replaced {
		changes = append(changes, PendingChange[V]{Id: id, Value: v})
	}
	if err := p.store.Set(ctx, p.key, changes, p.ttl); err != nil {
		return nil, err
	}
	return changes, nil
}

// Save applies staged changes in order and stops at the first failure.
// Applied changes leave the list; the failed one and everything after stay staged.
func (p *PendingChanges[V]) Save(ctx context.Context, apply func(ctx context.Context, id int, v V) error) (BatchResult, error) {
	changes, err := p.List(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	result := RunBatch(ctx, changes, func(ctx context.Context, c PendingChange[V]) error {
		return apply(ctx, c.Id, c.Value)
	})
	remaining := changes[result.Applied:]
	if len(remaining) == 0 {
		err = p.store.Delete(ctx, p.key)
	} else {
		err = p.store.Set(ctx, p.key, remaining, p.ttl)
	}
	return result, err
}

func (p *PendingChanges[V]) Discard(ctx context.Context) error {
	return p.store.Delete(ctx, p.key)
}
