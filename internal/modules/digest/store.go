package digest

import (
	"context"
	"errors"

	"github.com/diy-network/core/internal/models"
	"github.com/diy-network/core/internal/pkg/pagination"
	"gorm.io/gorm"
)

// Store reads subscribers and keeps the append-only mailing log.
type Store interface {
	ActiveSubscribers(ctx context.Context) ([]models.SubscriberModel, error)
	// LatestMailing returns the mailing with the greatest MailingAt, or nil.
	LatestMailing(ctx context.Context) (*models.MailingModel, error)
	// RecordMailing inserts m and links it to m.Subscribers.
	RecordMailing(ctx context.Context, m *models.MailingModel) error
	ListMailings(ctx context.Context, q pagination.Query) ([]models.MailingModel, int64, error)
}

type gormStore struct{ db *gorm.DB }

func NewStore(db *gorm.DB) Store { return &gormStore{db: db} }

func (s *gormStore) ActiveSubscribers(ctx context.Context) ([]models.SubscriberModel, error) {
	var subs []models.SubscriberModel
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&subs).Error
	return subs, err
}

func (s *gormStore) LatestMailing(ctx context.Context) (*models.MailingModel, error) {
	var m models.MailingModel
	err := s.db.WithContext(ctx).Order("mailing_at DESC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormStore) RecordMailing(ctx context.Context, m *models.MailingModel) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Subscribers.* skips upserting the subscriber rows; only join rows are written.
		return tx.Omit("Subscribers.*").Create(m).Error
	})
}

func (s *gormStore) ListMailings(ctx context.Context, q pagination.Query) ([]models.MailingModel, int64, error) {
	var out []models.MailingModel
	query := s.db.WithContext(ctx).
		Model(&models.MailingModel{}).
		Preload("Subscribers").
		Order("mailing_at DESC")
	total, err := pagination.Paginate(query, q, &out)
	return out, total, err
}
