package templates

import (
	"time"

	"github.com/oksasatya/dresscode/config"
)

// Option pattern
type Option func(*EmailData)

func WithLocation(city, state string) Option {
	return func(d *EmailData) { d.City, d.State = city, state }
}
func WithStyle(styles, brands []string) Option {
	return func(d *EmailData) { d.Styles, d.Brands = styles, brands }
}
func WithNewsletter(on bool) Option { return func(d *EmailData) { d.Newsletter = on } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = t.UTC().Format("02 January 2006, 15:04") }
}

// NewBaseEmailData fills the common fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, name, email, username string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,
		Username:       username,

		CompanyName: cfg.CompanyName,
		AppName:     cfg.AppName,
		SupportURL:  cfg.SupportURL,
		ProfileURL:  cfg.ProfileURL + username,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(cfg *config.Config, name, email, username string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, Welcome, name, email, username, opts...))
}
