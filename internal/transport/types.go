package transport

import (
	"context"
	"time"
)

// MediaKind categorizes a post attachment. Each kind maps to a distinct
// Telegram upload method.
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaDocument MediaKind = "document"
	MediaVideo    MediaKind = "video"
	MediaOther    MediaKind = "other"
)

type Attachment struct {
	Name string
	Kind MediaKind
	// Type is the original content type label, used when Kind is MediaOther.
	Type string
	Data []byte
}

// Post is a rich (HTML) notification with optional attachments.
type Post struct {
	Child       string
	Type        string
	From        string
	Date        time.Time
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Sink delivers notifications to the chat destination. Implementations own
// rate limiting and retries.
type Sink interface {
	// SendMessage sends one MarkdownV2 message. body is escaped unless
	// isMarkdown reports it is already valid MarkdownV2.
	SendMessage(ctx context.Context, child, subject, body string, isMarkdown bool) error
	SendPost(ctx context.Context, post Post) error
}
