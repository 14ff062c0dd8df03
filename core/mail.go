package core

import (
	"bytes"
	"net/mail"
	"text/template"

	"github.com/pkg/errors"
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		BodyTemplate string // raw text/template source
		TemplateData interface{}
		TextContent  string
	}

	// ContextData wraps data passed to email templates.
	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently.
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0
}

func (m *EmailMessage) HasContent() bool {
	return m.TextContent != ""
}

// Render prepares the final text content of the message.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.BodyTemplate == "" {
		return nil
	}
	tmpl, err := template.New("email").Parse(m.BodyTemplate)
	if err != nil {
		return errors.Wrap(err, "parsing email template")
	}
	var buf bytes.Buffer
	data := ContextData{FrontendBaseURL: Conf.FrontendBaseURL, Data: m.TemplateData}
	if err = tmpl.Execute(&buf, data); err != nil {
		return errors.Wrap(err, "rendering email template")
	}
	m.TextContent = buf.String()
	return nil
}
