package domain

import (
	"context"
	"time"
)

type NoticeLevel string

const (
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing message raised by the form.
type Notice struct {
	Level   NoticeLevel
	Message string
	Fields  []FieldError
	Time    time.Time
}

// Notifier delivers notices to the user.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}
