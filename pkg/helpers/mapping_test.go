package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/dresscode/pkg/mailer"
)

func TestNormalizeJob(t *testing.T) {
	job := mailer.EmailJob{To: " ana@email.com ", Template: " Welcome "}
	NormalizeJob(&job)
	assert.Equal(t, "welcome", job.Template)
	assert.Equal(t, "ana@email.com", job.To)
	assert.Equal(t, "ana@email.com", job.Data["Email"])
	assert.Equal(t, "ana@email.com", job.Data["RecipientEmail"])
	assert.Empty(t, job.Subject)

	raw := mailer.EmailJob{To: "bia@email.com", Text: "hi", Data: map[string]any{"Email": "other@email.com"}}
	NormalizeJob(&raw)
	assert.Equal(t, "other@email.com", raw.Data["Email"], "existing values are kept")
	assert.Equal(t, "Notification", raw.Subject)
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "Welcome to DressCode, @ana!", SubjectFor("welcome", map[string]any{"Username": "ana"}))
	assert.Equal(t, "Welcome to DressCode!", SubjectFor("WELCOME", nil))
	assert.Equal(t, "Notification", SubjectFor("other", nil))
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("segredo123")
	assert.NoError(t, err)
	assert.NotEqual(t, "segredo123", h)
	assert.True(t, CompareHashAndPassword(h, "segredo123"))
	assert.False(t, CompareHashAndPassword(h, "outra123"))
}
