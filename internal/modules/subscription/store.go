package subscription

import (
	"context"
	"errors"

	"github.com/diy-network/core/internal/models"
	"github.com/diy-network/core/internal/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists subscribers. Implementations must run fn of Transact
// atomically: an error returned by fn discards every write made through tx.
type Store interface {
	Transact(ctx context.Context, fn func(tx Store) error) error
	// FindByEmailForUpdate returns the oldest subscriber with email or
	// ErrNotFound, holding a row lock until the transaction ends.
	FindByEmailForUpdate(ctx context.Context, email string) (*models.SubscriberModel, error)
	Get(ctx context.Context, id string) (*models.SubscriberModel, error)
	// GetForUpdate is Get holding a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.SubscriberModel, error)
	Create(ctx context.Context, sub *models.SubscriberModel) error
	Save(ctx context.Context, sub *models.SubscriberModel) error
	List(ctx context.Context, q pagination.Query) ([]models.SubscriberModel, int64, error)
}

type gormStore struct{ db *gorm.DB }

// NewStore returns a Store backed by gorm.
func NewStore(db *gorm.DB) Store { return &gormStore{db: db} }

func (s *gormStore) Transact(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func (s *gormStore) FindByEmailForUpdate(ctx context.Context, email string) (*models.SubscriberModel, error) {
	var sub models.SubscriberModel
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("email = ?", email).
		Order("created_at ASC").
		First(&sub).Error
	return wrapNotFound(&sub, err)
}

func (s *gormStore) Get(ctx context.Context, id string) (*models.SubscriberModel, error) {
	var sub models.SubscriberModel
	err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error
	return wrapNotFound(&sub, err)
}

func (s *gormStore) GetForUpdate(ctx context.Context, id string) (*models.SubscriberModel, error) {
	var sub models.SubscriberModel
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&sub, "id = ?", id).Error
	return wrapNotFound(&sub, err)
}

func (s *gormStore) Create(ctx context.Context, sub *models.SubscriberModel) error {
	return s.db.WithContext(ctx).Create(sub).Error
}

func (s *gormStore) Save(ctx context.Context, sub *models.SubscriberModel) error {
	return s.db.WithContext(ctx).Save(sub).Error
}

func (s *gormStore) List(ctx context.Context, q pagination.Query) ([]models.SubscriberModel, int64, error) {
	var subs []models.SubscriberModel
	query := s.db.WithContext(ctx).Model(&models.SubscriberModel{}).Order("created_at DESC")
	total, err := pagination.Paginate(query, q, &subs)
	return subs, total, err
}

func wrapNotFound(sub *models.SubscriberModel, err error) (*models.SubscriberModel, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}
