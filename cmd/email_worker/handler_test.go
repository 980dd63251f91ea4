package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/dresscode/pkg/helpers"
)

type sent struct{ to, subject, text, html string }

type fakeSender struct {
	got []sent
	err error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	f.got = append(f.got, sent{to, subject, text, html})
	return f.err
}

func newHandler(s sender) *jobHandler {
	return &jobHandler{mail: s, logger: helpers.NopLogger(), timeout: time.Second}
}

func TestHandleRendersWelcomeTemplate(t *testing.T) {
	fs := &fakeSender{}
	body := `{"to":"ana@email.com","template":"welcome","data":{"Name":"Ana","Username":"ana","CompanyName":"DressCode","City":"São Paulo","State":"SP","Styles":["casual","boho"]}}`

	require.Equal(t, ack, newHandler(fs).handle(context.Background(), []byte(body)))
	require.Len(t, fs.got, 1)
	assert.Equal(t, "ana@email.com", fs.got[0].to)
	assert.Equal(t, "Welcome to DressCode, @ana!", fs.got[0].subject)
	assert.Contains(t, fs.got[0].text, "Ana")
	assert.Contains(t, fs.got[0].html, "casual")
}

func TestHandleRawMessage(t *testing.T) {
	fs := &fakeSender{}
	body := `{"to":"ana@email.com","subject":"Hello","text":"plain"}`
	assert.Equal(t, ack, newHandler(fs).handle(context.Background(), []byte(body)))
	assert.Equal(t, sent{"ana@email.com", "Hello", "plain", ""}, fs.got[0])
}

func TestHandleVerdicts(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want verdict
	}{
		{"malformed json", `{nope`, nil, drop},
		{"no recipient", `{"subject":"x","text":"y"}`, nil, drop},
		{"unknown template", `{"to":"a@b.com","template":"missing"}`, nil, drop},
		{"delivery failure requeues", `{"to":"a@b.com","subject":"x","text":"y"}`, errors.New("mailgun down"), requeue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newHandler(&fakeSender{err: tt.err}).handle(context.Background(), []byte(tt.body)))
		})
	}
}
