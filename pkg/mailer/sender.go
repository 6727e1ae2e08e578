package mailer

import (
	"context"
	"time"

	"github.com/oksasatya/go-account-service/pkg/helpers"
)

// QueueSender hands verification messages to the email worker through
// RabbitMQ. Delivery is best-effort by contract; the caller decides what to
// do with a publish error (registration logs and moves on).
type QueueSender struct {
	Pub       *helpers.RabbitPublisher
	ExpiresIn time.Duration
}

func NewQueueSender(pub *helpers.RabbitPublisher, expiresIn time.Duration) *QueueSender {
	return &QueueSender{Pub: pub, ExpiresIn: expiresIn}
}

// SendVerification enqueues a verification email for the worker to render
// and deliver.
func (s *QueueSender) SendVerification(ctx context.Context, to, username, link string) error {
	job := EmailJob{
		To:       to,
		Template: TemplateVerifyEmail,
		Data: map[string]any{
			"Username":  username,
			"Link":      link,
			"ExpiresIn": s.ExpiresIn.String(),
		},
	}
	return s.Pub.PublishJSON(ctx, job)
}
