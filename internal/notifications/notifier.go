package notifications

import "context"

type SendWelcomeInput struct {
	UserID int64
	Name   string
	Email  string
}

type Notifier interface {
	SendWelcome(ctx context.Context, input SendWelcomeInput) error
}
