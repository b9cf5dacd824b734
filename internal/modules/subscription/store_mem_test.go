package subscription

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/diy-network/core/internal/models"
	"github.com/diy-network/core/internal/pkg/pagination"
	"github.com/google/uuid"
)

// memStore keeps subscribers in memory. Transact holds the store mutex for
// the whole callback, which serializes transactions like a row lock would,
// and restores the snapshot when the callback fails.
type memStore struct {
	mu   sync.Mutex
	rows map[string]models.SubscriberModel
	seq  int
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]models.SubscriberModel)}
}

type memTx struct{ m *memStore }

func (m *memStore) Transact(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := maps.Clone(m.rows)
	if err := fn(memTx{m}); err != nil {
		m.rows = snapshot
		return err
	}
	return nil
}

func (m *memStore) FindByEmailForUpdate(ctx context.Context, email string) (*models.SubscriberModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memTx{m}.FindByEmailForUpdate(ctx, email)
}

func (m *memStore) Get(ctx context.Context, id string) (*models.SubscriberModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memTx{m}.Get(ctx, id)
}

func (m *memStore) GetForUpdate(ctx context.Context, id string) (*models.SubscriberModel, error) {
	return m.Get(ctx, id)
}

func (m *memStore) Create(ctx context.Context, sub *models.SubscriberModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memTx{m}.Create(ctx, sub)
}

func (m *memStore) Save(ctx context.Context, sub *models.SubscriberModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memTx{m}.Save(ctx, sub)
}

func (m *memStore) List(ctx context.Context, q pagination.Query) ([]models.SubscriberModel, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memTx{m}.List(ctx, q)
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (t memTx) Transact(ctx context.Context, fn func(tx Store) error) error { return fn(t) }

func (t memTx) FindByEmailForUpdate(_ context.Context, email string) (*models.SubscriberModel, error) {
	var found *models.SubscriberModel
	for _, row := range t.m.rows {
		if row.Email != email {
			continue
		}
		if found == nil || row.CreatedAt.Before(found.CreatedAt) {
			r := row
			found = &r
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (t memTx) Get(_ context.Context, id string) (*models.SubscriberModel, error) {
	row, ok := t.m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (t memTx) GetForUpdate(ctx context.Context, id string) (*models.SubscriberModel, error) {
	return t.Get(ctx, id)
}

func (t memTx) Create(_ context.Context, sub *models.SubscriberModel) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	t.m.seq++
	sub.CreatedAt = time.Unix(int64(t.m.seq), 0)
	if sub.SubscribedAt.IsZero() {
		sub.SubscribedAt = time.Now()
	}
	t.m.rows[sub.ID] = *sub
	return nil
}

func (t memTx) Save(_ context.Context, sub *models.SubscriberModel) error {
	t.m.rows[sub.ID] = *sub
	return nil
}

func (t memTx) List(_ context.Context, q pagination.Query) ([]models.SubscriberModel, int64, error) {
	all := make([]models.SubscriberModel, 0, len(t.m.rows))
	for _, row := range t.m.rows {
		all = append(all, row)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := q.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}
