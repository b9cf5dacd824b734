package models

import (
	"errors"
	"time"

	"github.com/diy-network/core/internal/pkg/checkout"
	"gorm.io/gorm"
)

var (
	// ErrNoPendingCheckout is returned when a checkout is confirmed but none was requested.
	ErrNoPendingCheckout = errors.New("no pending checkout")
	// ErrCheckoutMismatch is returned when the supplied hash differs from the stored one.
	ErrCheckoutMismatch = errors.New("checkout hash mismatch")
)

// SubscriberState is derived from (IsActive, CheckoutHash); it is never stored.
type SubscriberState string

const (
	StateUnsubscribed       SubscriberState = "unsubscribed"
	StatePendingSubscribe   SubscriberState = "pending-subscribe"
	StateActive             SubscriberState = "active"
	StatePendingUnsubscribe SubscriberState = "pending-unsubscribe"
)

// SubscriberModel is a newsletter recipient.
// A non-nil CheckoutHash means a subscribe or unsubscribe request waits for confirmation.
type SubscriberModel struct {
	Base
	Email        string     `json:"email"         gorm:"size:254;index;not null"`
	IsActive     bool       `json:"is_active"     gorm:"not null;default:false"`
	SubscribedAt time.Time  `json:"subscribed_at" gorm:"not null"`
	CheckoutHash *string    `json:"-"             gorm:"size:40"`
	CheckoutAt   *time.Time `json:"checkout_at"`
}

func (SubscriberModel) TableName() string { return "subscribers" }

func (s *SubscriberModel) BeforeCreate(tx *gorm.DB) error {
	if s.SubscribedAt.IsZero() {
		s.SubscribedAt = time.Now()
	}
	return s.Base.BeforeCreate(tx)
}

// IsUnsubscribed reports the inactive state with no pending action.
func (s *SubscriberModel) IsUnsubscribed() bool {
	return !s.IsActive && !s.HasPendingCheckout()
}

func (s *SubscriberModel) HasPendingCheckout() bool {
	return s.CheckoutHash != nil
}

func (s *SubscriberModel) State() SubscriberState {
	switch {
	case !s.HasPendingCheckout() && s.IsActive:
		return StateActive
	case !s.HasPendingCheckout():
		return StateUnsubscribed
	case s.IsActive:
		return StatePendingUnsubscribe
	default:
		return StatePendingSubscribe
	}
}

// PrepareCheckout issues a fresh checkout hash and stamps its issue time.
func (s *SubscriberModel) PrepareCheckout(now time.Time) (string, error) {
	hash, err := checkout.Generate()
	if err != nil {
		return "", err
	}
	s.CheckoutHash = &hash
	s.CheckoutAt = &now
	return hash, nil
}

// ValidateCheckout checks supplied against the pending hash in constant time.
func (s *SubscriberModel) ValidateCheckout(supplied string) error {
	if s.CheckoutHash == nil {
		return ErrNoPendingCheckout
	}
	if !checkout.Compare(*s.CheckoutHash, supplied) {
		return ErrCheckoutMismatch
	}
	return nil
}

// CompleteCheckout applies the pending action: inactive subscribers are
// subscribed, active ones unsubscribed. The hash is always consumed.
func (s *SubscriberModel) CompleteCheckout(now time.Time) {
	if s.IsActive {
		s.Unsubscribe(now)
		return
	}
	s.Subscribe()
}

func (s *SubscriberModel) Subscribe() {
	s.IsActive = true
	s.CheckoutHash = nil
	s.CheckoutAt = nil
}

func (s *SubscriberModel) Unsubscribe(now time.Time) {
	s.IsActive = false
	s.CheckoutHash = nil
	s.CheckoutAt = &now
}
