package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/dresscode/config"
	"github.com/oksasatya/dresscode/pkg/mailer"
	mailtpl "github.com/oksasatya/dresscode/pkg/mailer/templates"
)

type capturePublisher struct {
	jobs []any
	err  error
}

func (p *capturePublisher) PublishJSON(_ context.Context, body any) error {
	p.jobs = append(p.jobs, body)
	return p.err
}

func TestWelcomeNotifierQueuesWelcomeJob(t *testing.T) {
	pub := &capturePublisher{}
	cfg := &config.Config{AppName: "dresscode", CompanyName: "DressCode", ProfileURL: "https://dresscode.app/u/"}
	n := NewWelcomeNotifier(pub, cfg)

	u := registered("ana", "São Paulo", "SP", true)
	u.FullName = "Ana Paula Silva"
	u.Newsletter = true
	require.NoError(t, n.NotifyRegistered(context.Background(), u))

	require.Len(t, pub.jobs, 1)
	job, ok := pub.jobs[0].(mailer.EmailJob)
	require.True(t, ok)
	assert.Equal(t, "ana@email.com", job.To)
	assert.Equal(t, mailtpl.Welcome, job.Template)
	assert.Empty(t, job.Subject, "subject comes from the template")
	assert.Equal(t, "Ana", job.Data["Name"])
	assert.Equal(t, "ana", job.Data["Username"])
	assert.Equal(t, "https://dresscode.app/u/ana", job.Data["ProfileURL"])
	assert.Equal(t, "São Paulo", job.Data["City"])
	assert.Equal(t, []any{"casual"}, job.Data["Styles"])
	assert.Equal(t, true, job.Data["Newsletter"])
	assert.Equal(t, "10 June 2025, 12:00", job.Data["Time"])
}

func TestWelcomeNotifierPropagatesPublishError(t *testing.T) {
	pub := &capturePublisher{err: errors.New("channel closed")}
	n := NewWelcomeNotifier(pub, &config.Config{})
	err := n.NotifyRegistered(context.Background(), registered("ana", "São Paulo", "SP", true))
	assert.EqualError(t, err, "channel closed")
}

func TestFirstName(t *testing.T) {
	assert.Equal(t, "Ana", firstName("  Ana   Silva "))
	assert.Equal(t, "", firstName(""))
}
