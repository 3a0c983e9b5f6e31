package storefs

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-cvwizard/cv"
)

// DefaultPrefix is the key prefix for delivered downloads.
const DefaultPrefix = "downloads"

// Deliverer stores exported artifacts as downloads and returns their URL.
type Deliverer struct {
	Store     *Store
	Prefix    string
	SessionID string
	TTL       time.Duration
	NewID     func() string
}

var _ cv.Deliverer = Deliverer{}

// Deliver writes the artifact under <prefix>/<id>/<filename>.
func (d Deliverer) Deliver(ctx context.Context, artifact cv.Artifact) (string, error) {
	if d.Store == nil {
		return "", cv.NewError(cv.KindValidation, "deliverer requires store", nil)
	}
	if artifact.Filename == "" {
		return "", cv.NewError(cv.KindValidation, "artifact filename is required", nil)
	}

	key := d.Key(artifact.Filename)
	if _, err := d.Store.Put(ctx, key, bytes.NewReader(artifact.Data), Meta{
		Filename:    artifact.Filename,
		ContentType: artifact.ContentType,
		SessionID:   d.SessionID,
	}); err != nil {
		return "", err
	}
	return d.Store.URL(ctx, key, d.TTL)
}

// Key returns a fresh storage key for filename.
func (d Deliverer) Key(filename string) string {
	prefix := d.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	id := ""
	if d.NewID != nil {
		id = d.NewID()
	}
	if id == "" {
		id = uuid.NewString()
	}
	return path.Join(prefix, id, path.Base(filename))
}
