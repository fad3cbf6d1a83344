package mailer

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer turns markdown bodies into the HTML part of an email.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer returns a renderer with tables and autolinks enabled.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// Compose renders the markdown source and packs it into a Message.
func (r *Renderer) Compose(toAddress, toName, subject, markdown string) (Message, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return Message{}, fmt.Errorf("render %q: %w", subject, err)
	}
	return Message{
		ToAddress: toAddress,
		ToName:    toName,
		Subject:   subject,
		HTMLBody:  buf.String(),
		TextBody:  markdown,
	}, nil
}
