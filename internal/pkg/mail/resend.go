package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendTransport delivers through the Resend HTTP API, one request per message.
type ResendTransport struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewResendTransport(apiKey string) *ResendTransport {
	return &ResendTransport{
		apiKey:   apiKey,
		endpoint: resendEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *ResendTransport) Open(ctx context.Context) (Session, error) {
	return t, ctx.Err()
}

func (t *ResendTransport) Close() error { return nil }

func (t *ResendTransport) Send(ctx context.Context, msgs ...Message) error {
	for _, msg := range msgs {
		if err := t.sendOne(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (t *ResendTransport) sendOne(ctx context.Context, msg Message) error {
	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.From)
	}
	payload, err := json.Marshal(map[string]interface{}{
		"from":    from,
		"to":      []string{msg.To},
		"subject": msg.Subject,
		"html":    msg.HTML,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("resend error %d: %s", resp.StatusCode, errResp.Message)
	}
	return nil
}
