// Package notification delivers ledger action outcomes to the user.
package notification

import (
	"context"
	"sync"

	"github.com/google/uuid"
	appfee "github.com/tuition/backend/internal/application/fee"
	"github.com/tuition/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Message is the JSON form of a notification returned to the caller
type Message struct {
	Action     string     `json:"action"`
	Level      string     `json:"level"`
	StudentID  *uuid.UUID `json:"student_id,omitempty"`
	TermNumber int        `json:"term_number,omitempty"`
	Code       string     `json:"code,omitempty"`
	Message    string     `json:"message"`
}

// Inbox collects the notifications raised while serving one request
type Inbox struct {
	mu       sync.Mutex
	messages []Message
}

func (i *Inbox) add(m Message) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages = append(i.messages, m)
}

// Messages returns a copy of what has been collected so far
func (i *Inbox) Messages() []Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]Message, len(i.messages))
	copy(out, i.messages)
	return out
}

type inboxKey struct{}

// WithInbox attaches a fresh inbox to ctx
func WithInbox(ctx context.Context) (context.Context, *Inbox) {
	inbox := &Inbox{}
	return context.WithValue(ctx, inboxKey{}, inbox), inbox
}

// InboxFrom returns the inbox on ctx, or nil
func InboxFrom(ctx context.Context) *Inbox {
	inbox, _ := ctx.Value(inboxKey{}).(*Inbox)
	return inbox
}

// ZapNotifier writes every notification as a structured log entry and hands it
// to the request inbox when one is present.
type ZapNotifier struct {
	logger *zap.Logger
}

// NewZapNotifier creates a notifier logging under the "notification" name
func NewZapNotifier(log *zap.Logger) *ZapNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapNotifier{logger: log.Named("notification")}
}

// Notify implements appfee.Notifier
func (n *ZapNotifier) Notify(ctx context.Context, note appfee.Notification) {
	msg := toMessage(note)

	fields := []zap.Field{
		zap.String("action", msg.Action),
		zap.String("level", msg.Level),
	}
	if msg.StudentID != nil {
		fields = append(fields, zap.String("student_id", msg.StudentID.String()))
	}
	if msg.TermNumber > 0 {
		fields = append(fields, zap.Int("term_number", msg.TermNumber))
	}
	if msg.Code != "" {
		fields = append(fields, zap.String("code", msg.Code))
	}

	log := logger.Enrich(ctx, n.logger)
	if note.Level == appfee.LevelError {
		log.Warn(msg.Message, fields...)
	} else {
		log.Info(msg.Message, fields...)
	}

	if inbox := InboxFrom(ctx); inbox != nil {
		inbox.add(msg)
	}
}

func toMessage(note appfee.Notification) Message {
	msg := Message{
		Action:     string(note.Action),
		Level:      string(note.Level),
		TermNumber: note.TermNumber,
		Code:       note.Code,
		Message:    note.Message,
	}
	if note.StudentID != uuid.Nil {
		id := note.StudentID
		msg.StudentID = &id
	}
	return msg
}

var _ appfee.Notifier = (*ZapNotifier)(nil)
