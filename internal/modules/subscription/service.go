package subscription

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/diy-network/core/internal/models"
	"github.com/diy-network/core/internal/pkg/mail"
	"github.com/diy-network/core/internal/pkg/metrics"
	"github.com/diy-network/core/internal/pkg/pagination"
	"go.uber.org/zap"
)

var (
	// ErrInvalidSubscriber is returned when the subscriber is not in a state
	// that allows the requested transition.
	ErrInvalidSubscriber = errors.New("invalid subscriber")
	ErrNotFound          = errors.New("subscriber not found")
)

const (
	kindSubscribe   = "subscribe"
	kindUnsubscribe = "unsubscribe"
)

// Config carries the settings the service needs to build checkout links.
type Config struct {
	DefaultURL string
	SiteName   string
}

// Service implements the double opt-in checkout of newsletter subscribers.
type Service struct {
	store    Store
	mailer   *mail.Mailer
	renderer *mail.Renderer
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store Store, mailer *mail.Mailer, renderer *mail.Renderer, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		mailer:   mailer,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestSubscription fetches or creates the subscriber for email, issues a
// checkout hash and mails the confirmation link. Only unsubscribed
// subscribers may request. A failed send rolls everything back.
func (s *Service) RequestSubscription(ctx context.Context, email string) (*models.SubscriberModel, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidSubscriber
	}

	var out *models.SubscriberModel
	err := s.store.Transact(ctx, func(tx Store) error {
		sub, err := tx.FindByEmailForUpdate(ctx, email)
		switch {
		case errors.Is(err, ErrNotFound):
			sub = &models.SubscriberModel{Email: email, SubscribedAt: s.now()}
			if err := tx.Create(ctx, sub); err != nil {
				return fmt.Errorf("create subscriber: %w", err)
			}
		case err != nil:
			return err
		}

		if !sub.IsUnsubscribed() {
			return ErrInvalidSubscriber
		}
		if err := s.checkout(ctx, tx, sub, kindSubscribe); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RequestUnsubscription mails an unsubscribe link to an active subscriber.
// Unknown addresses get the same error as ineligible ones.
func (s *Service) RequestUnsubscription(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrInvalidSubscriber
	}

	return s.store.Transact(ctx, func(tx Store) error {
		sub, err := tx.FindByEmailForUpdate(ctx, email)
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidSubscriber
		}
		if err != nil {
			return err
		}
		if sub.State() != models.StateActive {
			return ErrInvalidSubscriber
		}
		return s.checkout(ctx, tx, sub, kindUnsubscribe)
	})
}

func (s *Service) checkout(ctx context.Context, tx Store, sub *models.SubscriberModel, kind string) error {
	hash, err := sub.PrepareCheckout(s.now())
	if err != nil {
		return fmt.Errorf("generate checkout hash: %w", err)
	}
	if err := tx.Save(ctx, sub); err != nil {
		return fmt.Errorf("save subscriber: %w", err)
	}

	err = s.sendCheckoutEmail(ctx, sub, hash, kind)
	metrics.ObserveCheckoutEmail(kind, err)
	if err != nil {
		s.logger.Error("checkout email failed",
			zap.String("kind", kind),
			zap.String("subscriber", sub.ID),
			zap.Error(err),
		)
		return err
	}
	s.logger.Info("checkout email sent", zap.String("kind", kind), zap.String("subscriber", sub.ID))
	return nil
}

func (s *Service) sendCheckoutEmail(ctx context.Context, sub *models.SubscriberModel, hash, kind string) error {
	link, err := CheckoutURL(s.cfg.DefaultURL, kind, sub.ID, hash)
	if err != nil {
		return err
	}

	tpl, subject := mail.TemplateSubscribe, mail.SubjectSubscribe
	if kind == kindUnsubscribe {
		tpl, subject = mail.TemplateUnsubscribe, mail.SubjectUnsubscribe
	}
	body, err := s.renderer.Render(tpl, mail.CheckoutData{
		SiteName:    s.cfg.SiteName,
		Email:       sub.Email,
		CheckoutURL: link,
	})
	if err != nil {
		return fmt.Errorf("render %s email: %w", kind, err)
	}
	return s.mailer.SendOne(ctx, subject, body, "", sub.Email)
}

// CheckoutURL builds the confirmation link the subscriber receives.
func CheckoutURL(base, kind, id, hash string) (string, error) {
	if _, err := url.Parse(base); err != nil || base == "" {
		return "", fmt.Errorf("invalid default url %q", base)
	}
	return url.JoinPath(base, "subscribers", kind, id, hash)
}

// Confirm applies the pending subscribe or unsubscribe action of subscriber
// id when hash matches. The row stays locked for the whole check-and-set, so
// of two racing confirmations only one succeeds.
func (s *Service) Confirm(ctx context.Context, id, hash string) (*models.SubscriberModel, error) {
	var out *models.SubscriberModel
	err := s.store.Transact(ctx, func(tx Store) error {
		sub, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := sub.ValidateCheckout(hash); err != nil {
			return err
		}

		sub.CompleteCheckout(s.now())
		if err := tx.Save(ctx, sub); err != nil {
			return fmt.Errorf("save subscriber: %w", err)
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("checkout completed", zap.String("subscriber", out.ID), zap.String("state", string(out.State())))
	return out, nil
}

// Inspect validates hash without applying the pending action.
func (s *Service) Inspect(ctx context.Context, id, hash string) (*models.SubscriberModel, error) {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sub.ValidateCheckout(hash); err != nil {
		return nil, err
	}
	return sub, nil
}

// List returns one page of subscribers, newest first.
func (s *Service) List(ctx context.Context, q pagination.Query) ([]models.SubscriberModel, int64, error) {
	return s.store.List(ctx, q)
}

// Deactivate unsubscribes id immediately and drops any pending checkout.
func (s *Service) Deactivate(ctx context.Context, id string) (*models.SubscriberModel, error) {
	var out *models.SubscriberModel
	err := s.store.Transact(ctx, func(tx Store) error {
		sub, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		sub.Unsubscribe(s.now())
		if err := tx.Save(ctx, sub); err != nil {
			return fmt.Errorf("save subscriber: %w", err)
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("subscriber deactivated", zap.String("subscriber", id))
	return out, nil
}
