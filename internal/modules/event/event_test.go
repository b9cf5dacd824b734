package event

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/diy-network/core/internal/models"
	"github.com/diy-network/core/internal/pkg/pagination"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	events []models.EventModel
	clock  time.Time
}

func (m *memStore) ListActiveLatest(_ context.Context, limit int) ([]models.EventModel, error) {
	out := m.activeSorted()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ListActiveCreatedAfter(_ context.Context, t time.Time) ([]models.EventModel, error) {
	var out []models.EventModel
	for _, ev := range m.activeSorted() {
		if ev.CreatedAt.After(t) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *memStore) activeSorted() []models.EventModel {
	var out []models.EventModel
	for _, ev := range m.events {
		if ev.IsActive {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memStore) Create(_ context.Context, ev *models.EventModel) error {
	ev.ID = uuid.NewString()
	m.clock = m.clock.Add(time.Minute)
	ev.CreatedAt = m.clock
	m.events = append(m.events, *ev)
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*models.EventModel, error) {
	for _, ev := range m.events {
		if ev.ID == id {
			return &ev, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) ListActive(ctx context.Context, q pagination.Query) ([]models.EventModel, int64, error) {
	all, _ := m.ListActiveLatest(ctx, len(m.events))
	total := int64(len(all))
	start := q.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func newTestService() (*Service, *memStore) {
	store := &memStore{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewService(store, Config{DefaultURL: "https://diy.org.ua/", DefaultLocale: "uk"}), store
}

func TestCreateDerivesSlug(t *testing.T) {
	svc, _ := newTestService()
	ev, err := svc.Create(context.Background(), CreateInput{
		Title: models.Translated{"uk": "Hello World Event", "en": "Something else"},
	})
	require.NoError(t, err)
	require.Equal(t, "hello_world_event", ev.Slug)
	require.True(t, ev.IsActive)

	_, err = svc.Create(context.Background(), CreateInput{Title: models.Translated{"en": "Only English"}})
	require.ErrorIs(t, err, ErrInvalidEvent)
}

func TestDigestItems(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	ev, err := svc.Create(ctx, CreateInput{
		Title:   models.Translated{"uk": "Толока в парку", "en": "Park cleanup"},
		Content: models.Translated{"uk": "Приходьте **всі**.\n\nДеталі згодом."},
	})
	require.NoError(t, err)

	items, err := svc.DigestItems([]models.EventModel{*ev}, "en")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Park cleanup", items[0].Title)
	require.Equal(t, "<p>Приходьте <strong>всі</strong>.</p>\n", string(items[0].Excerpt))
	require.Equal(t, "https://diy.org.ua/events/"+ev.ID+"/"+ev.Slug, items[0].URL)
}

func TestExcerptEmpty(t *testing.T) {
	out, err := Excerpt("   ")
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestHandlerListAndGet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	inactive := false
	visible, err := svc.Create(ctx, CreateInput{Title: models.Translated{"uk": "Перша", "en": "First"}})
	require.NoError(t, err)
	hidden, err := svc.Create(ctx, CreateInput{Title: models.Translated{"uk": "Друга"}, IsActive: &inactive})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, []string{"uk", "en"}).RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events?locale=en", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []View `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	require.Equal(t, "First", list.Data[0].Title)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events/"+visible.ID+"?locale=xx", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var one View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &one))
	require.Equal(t, "Перша", one.Title)
	require.Equal(t, []string{"en", "uk"}, one.Locales)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events/"+hidden.ID, nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}
