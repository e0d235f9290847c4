package fee

import (
	"context"

	"github.com/google/uuid"
)

// Action names a user-triggered ledger operation
type Action string

const (
	ActionGenerateSchedule Action = "generate_schedule"
	ActionDeleteCycle      Action = "delete_cycle"
	ActionDeleteLedger     Action = "delete_ledger"
	ActionRecordPayment    Action = "record_payment"
	ActionEditLedger       Action = "edit_ledger"
)

// Level is the severity shown to the user
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is one user-facing message about an action
type Notification struct {
	Action     Action
	Level      Level
	StudentID  uuid.UUID
	TermNumber int
	Code       string
	Message    string
}

// Notifier surfaces the outcome of an action. Every action produces either
// exactly one success notification or one or more error notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NopNotifier discards notifications
type NopNotifier struct{}

// Notify does nothing
func (NopNotifier) Notify(context.Context, Notification) {}
