package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/diy-network/core/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResendTransport(t *testing.T) {
	var (
		mu       sync.Mutex
		payloads []map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		payloads = append(payloads, body)
		mu.Unlock()
		if body["to"].([]interface{})[0] == "bad@x.com" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"invalid recipient"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer srv.Close()

	tr := NewResendTransport("key")
	tr.endpoint = srv.URL
	m, err := New(Config{From: "noreply@diy.org.ua", To: "team@diy.org.ua", SenderName: "ДІЙ!"}, tr)
	require.NoError(t, err)

	require.NoError(t, m.SendOne(context.Background(), "s", "<p>b</p>", "", "a@x.com"))
	require.Equal(t, "ДІЙ! <noreply@diy.org.ua>", payloads[0]["from"])

	err = m.SendOne(context.Background(), "s", "b", "", "bad@x.com")
	require.ErrorIs(t, err, ErrTransport)
	require.Contains(t, err.Error(), "invalid recipient")
}

func TestNewFromConfig(t *testing.T) {
	base := config.MailConfig{From: "noreply@diy.org.ua", To: "team@diy.org.ua"}

	cfg := base
	cfg.Provider = "log"
	m, err := NewFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &Recorder{}, m.transport)

	cfg.Provider = "smtp"
	cfg.SMTP = config.SMTPConfig{Host: "smtp.example.com", Port: 465}
	m, err = NewFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)
	smtp := m.transport.(*SMTPTransport)
	require.True(t, smtp.dialer.SSL)

	cfg.Provider = "pigeon"
	_, err = NewFromConfig(cfg, zap.NewNop())
	require.ErrorIs(t, err, ErrNotConfigured)

	cfg = config.MailConfig{Provider: "log"}
	_, err = NewFromConfig(cfg, zap.NewNop())
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestRecorderBoundsHistory(t *testing.T) {
	m, rec := newTestMailer(t)
	recipients := make([]int, maxRecorded+10)
	fn := func(int) string { return "x@x.com" }
	require.NoError(t, SendMany(context.Background(), m, recipients, fn, fn, fn, ""))
	require.Len(t, rec.Sent(), maxRecorded)
}
