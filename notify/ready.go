package notify

import "context"

// ReadyNotifier delivers "document ready" notifications to external systems.
type ReadyNotifier interface {
	Send(ctx context.Context, evt ReadyEvent) error
}

// ReadyEvent describes a finished export.
type ReadyEvent struct {
	Recipients []string
	Channels   []string
	Locale     string
	ActorID    string
	FileName   string
	Format     string
	URL        string
	ExpiresAt  string
	Message    string
	Attachment *Attachment
	// ChannelOverrides carries per-channel template values.
	ChannelOverrides map[string]map[string]any
}

// Attachment carries the exported file for channels that accept files.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
	Size        int64
}
