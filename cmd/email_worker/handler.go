package main

import (
	"context"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/dresscode/pkg/helpers"
	"github.com/oksasatya/dresscode/pkg/mailer"
	mailtpl "github.com/oksasatya/dresscode/pkg/mailer/templates"
)

type sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

type verdict int

const (
	ack verdict = iota
	drop
	requeue
)

type jobHandler struct {
	mail    sender
	logger  *logrus.Logger
	timeout time.Duration
}

// handle decodes, renders and sends one queued email. Malformed or
// unrenderable jobs are dropped; delivery failures are requeued.
func (h *jobHandler) handle(ctx context.Context, body []byte) verdict {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		h.logger.WithError(err).Warn("bad email job")
		return drop
	}
	helpers.NormalizeJob(&job)
	if job.To == "" {
		h.logger.Warn("email job without recipient")
		return drop
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, hm, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			helpers.LogError(h.logger, "render failed", err, logrus.Fields{"template": job.Template})
			return drop
		}
		subject, text, html = strings.TrimSpace(s), t, hm
		if subject == "" {
			subject = helpers.SubjectFor(job.Template, job.Data)
		}
	}

	c, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	if err := h.mail.Send(c, job.To, subject, text, html); err != nil {
		h.logger.WithError(err).WithField("to", job.To).Warn("send failed")
		return requeue
	}
	helpers.LogInfo(h.logger, "email sent", logrus.Fields{"to": job.To, "template": job.Template})
	return ack
}
