package gonotifications

import (
	"context"
	"strconv"

	"github.com/goliatone/go-cvwizard/cv"
	"github.com/goliatone/go-cvwizard/notify"
	"github.com/goliatone/go-notifications/pkg/onready"
)

// Notifier adapts a go-notifications OnReadyNotifier to notify.ReadyNotifier.
type Notifier struct {
	delegate onready.OnReadyNotifier
	// AttachmentChannels receive attachment metadata as channel overrides.
	AttachmentChannels []string
	// Recipients and Channels fill events that carry none.
	Recipients []string
	Channels   []string
}

var _ notify.ReadyNotifier = (*Notifier)(nil)

// NewNotifier wraps a go-notifications notifier.
func NewNotifier(delegate onready.OnReadyNotifier) *Notifier {
	return &Notifier{delegate: delegate, AttachmentChannels: []string{"email"}}
}

// Send forwards the event to the underlying go-notifications notifier.
func (n *Notifier) Send(ctx context.Context, evt notify.ReadyEvent) error {
	if n == nil || n.delegate == nil {
		return cv.NewError(cv.KindNotImpl, "go-notifications notifier not configured", nil)
	}

	recipients := evt.Recipients
	if len(recipients) == 0 {
		recipients = n.Recipients
	}
	if len(recipients) == 0 {
		return cv.NewError(cv.KindValidation, "ready notification has no recipients", nil)
	}
	channels := evt.Channels
	if len(channels) == 0 {
		channels = n.Channels
	}

	payload := onready.OnReadyEvent{
		Recipients:       recipients,
		Locale:           evt.Locale,
		ActorID:          evt.ActorID,
		Channels:         channels,
		FileName:         evt.FileName,
		Format:           evt.Format,
		URL:              evt.URL,
		ExpiresAt:        evt.ExpiresAt,
		Message:          evt.Message,
		ChannelOverrides: n.overrides(evt),
	}

	return n.delegate.Send(ctx, payload)
}

func (n *Notifier) overrides(evt notify.ReadyEvent) map[string]map[string]any {
	if evt.Attachment == nil && len(evt.ChannelOverrides) == 0 {
		return nil
	}
	out := make(map[string]map[string]any, len(evt.ChannelOverrides)+len(n.AttachmentChannels))
	for channel, values := range evt.ChannelOverrides {
		copied := make(map[string]any, len(values))
		for k, v := range values {
			copied[k] = v
		}
		out[channel] = copied
	}
	if evt.Attachment == nil {
		return out
	}
	for _, channel := range n.AttachmentChannels {
		values := out[channel]
		if values == nil {
			values = map[string]any{}
			out[channel] = values
		}
		values["attachment_name"] = evt.Attachment.Filename
		values["attachment_type"] = evt.Attachment.ContentType
		values["attachment_size"] = strconv.FormatInt(evt.Attachment.Size, 10)
	}
	return out
}
