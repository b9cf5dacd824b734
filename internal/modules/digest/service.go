package digest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/diy-network/core/internal/models"
	"github.com/diy-network/core/internal/pkg/mail"
	"github.com/diy-network/core/internal/pkg/metrics"
	"github.com/diy-network/core/internal/pkg/pagination"
	pkgredis "github.com/diy-network/core/internal/pkg/redis"
	"go.uber.org/zap"
)

// LockKey guards digest runs across processes.
const LockKey = "diy:lock:digest"

// Status is the outcome of one digest run.
type Status string

const (
	StatusNoSubscribers   Status = "no_subscribers"
	StatusNoItems         Status = "no_items"
	StatusSent            Status = "sent"
	StatusTransportFailed Status = "transport_failed"
	StatusLocked          Status = "locked"
)

// Result describes what a run did.
type Result struct {
	Status     Status               `json:"status"`
	Recipients int                  `json:"recipients"`
	Items      int                  `json:"items"`
	Mailing    *models.MailingModel `json:"mailing,omitempty"`
}

// EventSource supplies the content of a digest.
type EventSource interface {
	Latest(ctx context.Context, limit int) ([]models.EventModel, error)
	CreatedAfter(ctx context.Context, t time.Time) ([]models.EventModel, error)
	DigestItems(events []models.EventModel, locale string) ([]mail.DigestItem, error)
}

// Renderer renders email bodies.
type Renderer interface {
	Render(name string, data interface{}) (string, error)
}

// Locker hands out exclusive run leases.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (*pkgredis.Lock, error)
}

type Config struct {
	DefaultURL string
	SiteName   string
	Locale     string
	// Limit caps the first digest, sent before any mailing exists.
	Limit   int
	LockTTL time.Duration
}

// Service sends the periodic digest of new events to active subscribers.
type Service struct {
	store    Store
	events   EventSource
	mailer   *mail.Mailer
	renderer Renderer
	locker   Locker
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the digest pipeline. locker may be nil, in which case
// concurrent runs are not excluded.
func NewService(store Store, events EventSource, mailer *mail.Mailer, renderer Renderer, locker Locker, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 6
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &Service{
		store:    store,
		events:   events,
		mailer:   mailer,
		renderer: renderer,
		locker:   locker,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one digest pass. Every no-op outcome, a transport failure
// included, returns a nil error; only storage, rendering and lock errors are
// returned. The watermark advances only after a successful send.
func (s *Service) Run(ctx context.Context) (Result, error) {
	if s.locker != nil {
		lock, err := s.locker.TryLock(ctx, LockKey, s.cfg.LockTTL)
		if errors.Is(err, pkgredis.ErrLocked) {
			s.logger.Info("digest already running elsewhere, skipping")
			return s.finish(Result{Status: StatusLocked}), nil
		}
		if err != nil {
			return Result{}, fmt.Errorf("acquire digest lock: %w", err)
		}
		defer func() {
			if rerr := lock.Release(context.WithoutCancel(ctx)); rerr != nil {
				s.logger.Warn("release digest lock", zap.Error(rerr))
			}
		}()
	}

	startedAt := s.now()

	subscribers, err := s.store.ActiveSubscribers(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		s.logger.Info("no active subscribers, nothing to send")
		return s.finish(Result{Status: StatusNoSubscribers}), nil
	}

	last, err := s.store.LatestMailing(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load latest mailing: %w", err)
	}

	var events []models.EventModel
	if last == nil {
		events, err = s.events.Latest(ctx, s.cfg.Limit)
	} else {
		events, err = s.events.CreatedAfter(ctx, last.MailingAt)
	}
	if err != nil {
		return Result{}, fmt.Errorf("load events: %w", err)
	}
	if len(events) == 0 {
		s.logger.Info("no new events since last mailing", zap.Int("subscribers", len(subscribers)))
		return s.finish(Result{Status: StatusNoItems, Recipients: len(subscribers)}), nil
	}
	// The first digest is selected newest first; every digest reads oldest first.
	sort.SliceStable(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })

	body, err := s.render(events)
	if err != nil {
		return Result{}, err
	}

	err = mail.SendMany(ctx, s.mailer, subscribers,
		func(models.SubscriberModel) string { return mail.SubjectDigest },
		func(models.SubscriberModel) string { return body },
		func(sub models.SubscriberModel) string { return sub.Email },
		"",
	)
	if err != nil {
		s.logger.Error("digest delivery failed, watermark kept",
			zap.Int("subscribers", len(subscribers)),
			zap.Int("items", len(events)),
			zap.Error(err),
		)
		return s.finish(Result{Status: StatusTransportFailed, Recipients: len(subscribers), Items: len(events)}), nil
	}

	mailing := &models.MailingModel{
		MailingAt:   watermark(startedAt, last),
		Subscribers: subscribers,
	}
	if err := s.store.RecordMailing(ctx, mailing); err != nil {
		return Result{}, fmt.Errorf("record mailing: %w", err)
	}

	s.logger.Info("digest sent",
		zap.String("mailing", mailing.ID),
		zap.Int("subscribers", len(subscribers)),
		zap.Int("items", len(events)),
		zap.Time("mailing_at", mailing.MailingAt),
	)
	return s.finish(Result{Status: StatusSent, Recipients: len(subscribers), Items: len(events), Mailing: mailing}), nil
}

func (s *Service) finish(res Result) Result {
	sent := 0
	if res.Status == StatusSent {
		sent = res.Recipients
	}
	metrics.ObserveDigestRun(string(res.Status), sent, s.now())
	return res
}

func (s *Service) render(events []models.EventModel) (string, error) {
	items, err := s.events.DigestItems(events, s.cfg.Locale)
	if err != nil {
		return "", fmt.Errorf("build digest items: %w", err)
	}
	unsubscribe, err := url.JoinPath(s.cfg.DefaultURL, "subscribers", "unsubscribe")
	if err != nil {
		return "", fmt.Errorf("build unsubscribe url: %w", err)
	}
	body, err := s.renderer.Render(mail.TemplateDigest, mail.DigestData{
		SiteName:       s.cfg.SiteName,
		Items:          items,
		UnsubscribeURL: unsubscribe,
	})
	if err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return body, nil
}

// watermark is the run start, nudged past the previous mailing so the
// sequence of MailingAt values stays strictly increasing at millisecond
// storage precision.
func watermark(startedAt time.Time, last *models.MailingModel) time.Time {
	at := startedAt.Truncate(time.Millisecond)
	if last != nil && !at.After(last.MailingAt) {
		at = last.MailingAt.Truncate(time.Millisecond).Add(time.Millisecond)
	}
	return at
}

// Mailings returns one page of past mailings, newest first.
func (s *Service) Mailings(ctx context.Context, q pagination.Query) ([]models.MailingModel, int64, error) {
	return s.store.ListMailings(ctx, q)
}
