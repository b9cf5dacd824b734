package event

import (
	"context"
	"errors"
	"time"

	"github.com/diy-network/core/internal/models"
	"github.com/diy-network/core/internal/pkg/pagination"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("event not found")

// Store reads and writes events.
type Store interface {
	// ListActiveLatest returns at most limit active events, newest first.
	ListActiveLatest(ctx context.Context, limit int) ([]models.EventModel, error)
	// ListActiveCreatedAfter returns active events created strictly after t, oldest first.
	ListActiveCreatedAfter(ctx context.Context, t time.Time) ([]models.EventModel, error)
	Create(ctx context.Context, ev *models.EventModel) error
	Get(ctx context.Context, id string) (*models.EventModel, error)
	ListActive(ctx context.Context, q pagination.Query) ([]models.EventModel, int64, error)
}

type gormStore struct{ db *gorm.DB }

func NewStore(db *gorm.DB) Store { return &gormStore{db: db} }

func (s *gormStore) active(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.EventModel{}).Where("is_active = ?", true)
}

func (s *gormStore) ListActiveLatest(ctx context.Context, limit int) ([]models.EventModel, error) {
	var out []models.EventModel
	err := s.active(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (s *gormStore) ListActiveCreatedAfter(ctx context.Context, t time.Time) ([]models.EventModel, error) {
	var out []models.EventModel
	err := s.active(ctx).Where("created_at > ?", t).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (s *gormStore) Create(ctx context.Context, ev *models.EventModel) error {
	return s.db.WithContext(ctx).Create(ev).Error
}

func (s *gormStore) Get(ctx context.Context, id string) (*models.EventModel, error) {
	var ev models.EventModel
	err := s.db.WithContext(ctx).First(&ev, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *gormStore) ListActive(ctx context.Context, q pagination.Query) ([]models.EventModel, int64, error) {
	var out []models.EventModel
	total, err := pagination.Paginate(s.active(ctx).Order("created_at DESC"), q, &out)
	return out, total, err
}
