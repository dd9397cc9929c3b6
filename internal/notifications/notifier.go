package notifications

import "context"

type SendWelcomeInput struct {
	UserID int64
	Email  string
	Name   string
}

type Notifier interface {
	SendWelcome(ctx context.Context, input SendWelcomeInput) error
}
