package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMailgunWithoutCredentials(t *testing.T) {
	m := NewMailgun("", "", "DressCode <no-reply@dresscode.app>")
	err := m.Send(context.Background(), "ana@email.com", "hi", "text", "")
	assert.ErrorIs(t, err, ErrMailgunNotConfigured)
}
