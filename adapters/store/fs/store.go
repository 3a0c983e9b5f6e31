package storefs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-cvwizard/cv"
)

// Meta describes a stored download.
type Meta struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	SessionID   string    `json:"session_id,omitempty"`
}

// Store provides filesystem-backed download storage.
type Store struct {
	Root    string
	BaseURL string
	Signer  SignedURLSigner
	Now     func() time.Time
}

// NewStore creates a filesystem-backed download store.
func NewStore(root string) *Store {
	return &Store{Root: root, Now: time.Now}
}

// Put writes r under key atomically and records meta next to it.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, meta Meta) (Meta, error) {
	if err := s.check(key); err != nil {
		return Meta{}, err
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return Meta{}, cv.NewError(cv.KindCanceled, "download store put canceled", err)
		}
	}

	pathOnDisk, err := s.resolvePath(key)
	if err != nil {
		return Meta{}, err
	}

	dir := filepath.Dir(pathOnDisk)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Meta{}, err
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return Meta{}, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return Meta{}, err
	}
	if err := tmp.Sync(); err != nil {
		return Meta{}, err
	}
	if err := tmp.Close(); err != nil {
		return Meta{}, err
	}
	if err := os.Rename(tmp.Name(), pathOnDisk); err != nil {
		return Meta{}, err
	}

	meta.Size = size
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = s.now()
	}
	if meta.Filename == "" {
		meta.Filename = filepath.Base(pathOnDisk)
	}
	if meta.ContentType == "" {
		meta.ContentType = mime.TypeByExtension(filepath.Ext(pathOnDisk))
	}

	if err := s.writeMeta(pathOnDisk, meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// Open reads a download from disk.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, Meta, error) {
	_ = ctx
	if err := s.check(key); err != nil {
		return nil, Meta{}, err
	}

	pathOnDisk, err := s.resolvePath(key)
	if err != nil {
		return nil, Meta{}, err
	}

	file, err := os.Open(pathOnDisk)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Meta{}, cv.NewError(cv.KindNotFound, fmt.Sprintf("download %q not found", key), err)
		}
		return nil, Meta{}, err
	}

	meta := s.readMeta(pathOnDisk)
	if meta.ContentType == "" {
		meta.ContentType = mime.TypeByExtension(filepath.Ext(pathOnDisk))
	}
	if meta.Filename == "" {
		meta.Filename = filepath.Base(pathOnDisk)
	}
	if meta.Size == 0 {
		if info, err := file.Stat(); err == nil {
			meta.Size = info.Size()
			if meta.CreatedAt.IsZero() {
				meta.CreatedAt = info.ModTime()
			}
		}
	}
	return file, meta, nil
}

// Delete removes a download and its metadata.
func (s *Store) Delete(ctx context.Context, key string) error {
	_ = ctx
	if err := s.check(key); err != nil {
		return err
	}
	pathOnDisk, err := s.resolvePath(key)
	if err != nil {
		return err
	}
	_ = os.Remove(pathOnDisk)
	_ = os.Remove(metaPath(pathOnDisk))
	return nil
}

// URL returns the public location of key. Signed when a signer is configured
// and ttl is positive.
func (s *Store) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.Signer != nil && s.BaseURL != "" && ttl > 0 {
		return s.SignedURL(ctx, key, ttl)
	}
	if s.BaseURL == "" {
		return key, nil
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + key, nil
}

// SignedURL generates a signed URL when configured.
func (s *Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	_ = ctx
	if s == nil {
		return "", cv.NewError(cv.KindInternal, "store is nil", nil)
	}
	if s.Signer == nil || s.BaseURL == "" {
		return "", cv.NewError(cv.KindNotImpl, "signed URLs not configured", nil)
	}
	if ttl <= 0 {
		return "", cv.NewError(cv.KindValidation, "signed URL TTL is required", nil)
	}
	if key == "" {
		return "", cv.NewError(cv.KindValidation, "download key is required", nil)
	}
	return s.Signer.SignURL(SignedURLInput{
		BaseURL:   strings.TrimRight(s.BaseURL, "/"),
		Key:       key,
		ExpiresAt: s.now().Add(ttl),
	})
}

func (s *Store) check(key string) error {
	if s == nil {
		return cv.NewError(cv.KindInternal, "store is nil", nil)
	}
	if s.Root == "" {
		return cv.NewError(cv.KindValidation, "store root is required", nil)
	}
	if key == "" {
		return cv.NewError(cv.KindValidation, "download key is required", nil)
	}
	return nil
}

func (s *Store) resolvePath(key string) (string, error) {
	clean := path.Clean("/" + key)
	rel := strings.TrimPrefix(clean, "/")
	if rel == "" || rel == "." {
		return "", cv.NewError(cv.KindValidation, "invalid download key", nil)
	}
	if strings.HasSuffix(rel, ".meta.json") {
		return "", cv.NewError(cv.KindValidation, "download key is reserved", nil)
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	target := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) && target != root {
		return "", cv.NewError(cv.KindValidation, "download key escapes root", nil)
	}
	return target, nil
}

func (s *Store) writeMeta(pathOnDisk string, meta Meta) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(pathOnDisk), ".meta-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(payload); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), metaPath(pathOnDisk))
}

func (s *Store) readMeta(pathOnDisk string) Meta {
	data, err := os.ReadFile(metaPath(pathOnDisk))
	if err != nil {
		return Meta{}
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}
	}
	return meta
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func metaPath(pathOnDisk string) string {
	return pathOnDisk + ".meta.json"
}

// Cleanup removes downloads created before the cutoff and returns how many
// were removed.
func (s *Store) Cleanup(ctx context.Context, before time.Time) (int, error) {
	if s == nil {
		return 0, cv.NewError(cv.KindInternal, "store is nil", nil)
	}
	if s.Root == "" {
		return 0, cv.NewError(cv.KindValidation, "store root is required", nil)
	}
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return 0, err
	}

	removed := 0
	err = filepath.WalkDir(root, func(pathOnDisk string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, ".meta.json") || strings.HasPrefix(name, ".") {
			return nil
		}

		created := s.readMeta(pathOnDisk).CreatedAt
		if created.IsZero() {
			info, err := entry.Info()
			if err != nil {
				return nil
			}
			created = info.ModTime()
		}
		if !created.Before(before) {
			return nil
		}
		if err := os.Remove(pathOnDisk); err != nil && !os.IsNotExist(err) {
			return err
		}
		_ = os.Remove(metaPath(pathOnDisk))
		removed++
		return nil
	})
	return removed, err
}
