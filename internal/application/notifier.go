package application

import (
	"context"
	"strings"

	"github.com/oksasatya/dresscode/config"
	"github.com/oksasatya/dresscode/internal/domain/entity"
	"github.com/oksasatya/dresscode/pkg/mailer"
	mailtpl "github.com/oksasatya/dresscode/pkg/mailer/templates"
)

// JobPublisher puts a JSON message on the email queue.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// WelcomeNotifier queues a welcome email for every new registration.
type WelcomeNotifier struct {
	Publisher JobPublisher
	Config    *config.Config
}

func NewWelcomeNotifier(p JobPublisher, cfg *config.Config) *WelcomeNotifier {
	return &WelcomeNotifier{Publisher: p, Config: cfg}
}

func (n *WelcomeNotifier) NotifyRegistered(ctx context.Context, u *entity.User) error {
	job := mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.Welcome,
		Data: mailtpl.NewWelcomeData(n.Config, firstName(u.FullName), u.Email, u.Username,
			mailtpl.WithLocation(u.Address.City, u.Address.State),
			mailtpl.WithStyle(u.Styles, u.FavoriteBrands),
			mailtpl.WithNewsletter(u.Newsletter),
			mailtpl.WithTime(u.CreatedAt),
		),
	}
	return n.Publisher.PublishJSON(ctx, job)
}

func firstName(full string) string {
	if f := strings.Fields(full); len(f) > 0 {
		return f[0]
	}
	return full
}
