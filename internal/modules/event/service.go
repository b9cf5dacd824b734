package event

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/diy-network/core/internal/models"
	"github.com/diy-network/core/internal/pkg/mail"
	"github.com/diy-network/core/internal/pkg/pagination"
)

// ErrInvalidEvent is returned by Create when the default-locale title is blank.
var ErrInvalidEvent = errors.New("event title is required in the default locale")

// Config holds the site settings used to localize and link events.
type Config struct {
	DefaultURL    string
	DefaultLocale string
}

type Service struct {
	store Store
	cfg   Config
}

func NewService(store Store, cfg Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// DefaultLocale is the fallback locale of translated fields.
func (s *Service) DefaultLocale() string { return s.cfg.DefaultLocale }

// Latest returns the newest active events, at most limit.
func (s *Service) Latest(ctx context.Context, limit int) ([]models.EventModel, error) {
	return s.store.ListActiveLatest(ctx, limit)
}

// CreatedAfter returns active events created after t, oldest first.
func (s *Service) CreatedAfter(ctx context.Context, t time.Time) ([]models.EventModel, error) {
	return s.store.ListActiveCreatedAfter(ctx, t)
}

// CreateInput is the payload of a new event.
type CreateInput struct {
	Title    models.Translated `json:"title"     binding:"required"`
	Content  models.Translated `json:"content"`
	IsActive *bool             `json:"is_active"`
}

// Create stores a new event with a slug derived from the default-locale title.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.EventModel, error) {
	if strings.TrimSpace(in.Title[s.cfg.DefaultLocale]) == "" {
		return nil, ErrInvalidEvent
	}
	ev := &models.EventModel{
		Title:    in.Title,
		Content:  in.Content,
		IsActive: true,
	}
	if in.IsActive != nil {
		ev.IsActive = *in.IsActive
	}
	ev.SetSlug(s.cfg.DefaultLocale)
	if err := s.store.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return ev, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.EventModel, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListActive(ctx context.Context, q pagination.Query) ([]models.EventModel, int64, error) {
	return s.store.ListActive(ctx, q)
}

// URL returns the absolute front-end URL of ev.
func (s *Service) URL(ev *models.EventModel) (string, error) {
	base, err := url.Parse(s.cfg.DefaultURL)
	if err != nil {
		return "", err
	}
	return base.JoinPath(ev.StaticPath()).String(), nil
}

// DigestItems projects events into the digest email rows for locale.
func (s *Service) DigestItems(events []models.EventModel, locale string) ([]mail.DigestItem, error) {
	items := make([]mail.DigestItem, 0, len(events))
	for i := range events {
		ev := &events[i]
		link, err := s.URL(ev)
		if err != nil {
			return nil, err
		}
		excerpt, err := Excerpt(ev.Content.Get(locale, s.cfg.DefaultLocale))
		if err != nil {
			return nil, fmt.Errorf("render event %s: %w", ev.ID, err)
		}
		items = append(items, mail.DigestItem{
			Title:     ev.Title.Get(locale, s.cfg.DefaultLocale),
			Excerpt:   excerpt,
			URL:       link,
			CreatedAt: ev.CreatedAt,
		})
	}
	return items, nil
}

// View is the localized public representation of an event.
type View struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Slug      string        `json:"slug"`
	Content   template.HTML `json:"content"`
	URL       string        `json:"url"`
	CreatedAt time.Time     `json:"created"`
	Locales   []string      `json:"locales"`
}

func (s *Service) View(ev *models.EventModel, locale string) (View, error) {
	content, err := RenderMarkdown(ev.Content.Get(locale, s.cfg.DefaultLocale))
	if err != nil {
		return View{}, err
	}
	link, err := s.URL(ev)
	if err != nil {
		return View{}, err
	}
	return View{
		ID:        ev.ID,
		Title:     ev.Title.Get(locale, s.cfg.DefaultLocale),
		Slug:      ev.Slug,
		Content:   content,
		URL:       link,
		CreatedAt: ev.CreatedAt,
		Locales:   ev.Title.Locales(),
	}, nil
}
