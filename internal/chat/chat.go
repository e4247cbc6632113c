// Package chat defines the transport boundary of the bot: inbound messages,
// outbound sends, and the pacing dispatcher that sits between handlers and the
// concrete transport. Handlers never see the underlying chat SDK.
package chat

import "context"

// Media carries a downloaded or outbound attachment.
type Media struct {
	MIME     string
	Data     []byte
	Filename string
}

// IsImage reports whether the media content type is an image.
func (m Media) IsImage() bool {
	return len(m.MIME) >= 6 && m.MIME[:6] == "image/"
}

// Inbound is one received chat message, normalized across transports.
type Inbound struct {
	// Sender is the opaque transport address of the author. It doubles as the
	// reply target and the admin identity key.
	Sender string
	// Text is the trimmed message body.
	Text     string
	HasMedia bool
	// Download fetches the attached media. Nil when HasMedia is false.
	Download func(ctx context.Context) (Media, error)
}

// Sender delivers outbound messages to a recipient address.
type Sender interface {
	SendText(ctx context.Context, to, text string) error
	SendMedia(ctx context.Context, to string, m Media, caption string) error
}

// Handler consumes one inbound message.
type Handler func(ctx context.Context, msg Inbound)

// Transport is a running chat connection: it pushes inbound messages into a
// Handler and exposes raw sending.
type Transport interface {
	Sender
	// Run blocks delivering updates until ctx is done.
	Run(ctx context.Context, h Handler) error
}
