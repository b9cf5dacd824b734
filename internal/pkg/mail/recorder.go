package mail

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// maxRecorded bounds the history a long-running "log" provider keeps.
const maxRecorded = 1000

// Recorder is an in-memory Transport. It keeps every delivered message and
// can be told to fail; the "log" provider uses it to only log outgoing mail.
type Recorder struct {
	mu       sync.Mutex
	logger   *zap.Logger
	opens    int
	sent     []Message
	OpenErr  error
	SendErr  error
	CloseErr error
}

func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{logger: logger}
}

func (r *Recorder) Open(ctx context.Context) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opens++
	if r.OpenErr != nil {
		return nil, r.OpenErr
	}
	return recorderSession{r}, nil
}

// Opens returns how many sessions were opened.
func (r *Recorder) Opens() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens
}

// Sent returns a copy of the delivered messages.
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

type recorderSession struct{ r *Recorder }

func (s recorderSession) Send(ctx context.Context, msgs ...Message) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if s.r.SendErr != nil {
		return s.r.SendErr
	}
	for _, msg := range msgs {
		s.r.logger.Info("mail delivered",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
		)
	}
	s.r.sent = append(s.r.sent, msgs...)
	if over := len(s.r.sent) - maxRecorded; over > 0 {
		s.r.sent = append([]Message(nil), s.r.sent[over:]...)
	}
	return nil
}

func (s recorderSession) Close() error { return s.r.CloseErr }
