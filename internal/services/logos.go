package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"jamjob-backend/internal/apperr"
	"jamjob-backend/internal/storage"
)

// UploadURLPrefix is prepended to stored names in the URLs handed to
// clients. Files are served back under /get-logo + that URL.
const UploadURLPrefix = "/uploads/"

type LogoService struct {
	store storage.Store
	now   func() time.Time
}

func NewLogoService(store storage.Store) *LogoService {
	return &LogoService{store: store, now: time.Now}
}

// StoreUpload saves r as <unix-millis>-<original-name> and returns its URL.
// When that name is taken the next millisecond is tried.
func (s *LogoService) StoreUpload(ctx context.Context, originalName, contentType string, r io.Reader) (string, error) {
	const op = "Logos.StoreUpload"

	if r == nil {
		return "", apperr.E(apperr.CodeBadRequest, op, "No file uploaded", nil)
	}
	base := sanitizeFileName(originalName)
	if base == "" {
		return "", apperr.E(apperr.CodeBadRequest, op, "No file uploaded", nil)
	}

	body, rewind := replayable(r)
	ts := s.now().UnixMilli()
	for attempt := 0; ; attempt++ {
		name := fmt.Sprintf("%d-%s", ts+int64(attempt), base)
		err := s.store.Save(ctx, name, contentType, body)
		if err == nil {
			return UploadURLPrefix + name, nil
		}
		// Another upload of the same name landed in the same millisecond.
		// Move to the next one if the body can be sent again.
		if !errors.Is(err, storage.ErrExists) || attempt+1 >= maxNameAttempts || !rewind() {
			return "", apperr.E(apperr.CodeInternal, op, "failed to store upload", err)
		}
	}
}

const maxNameAttempts = 5

// replayable returns the reader to upload and a func that readies it for
// another attempt, reporting false when it cannot. Seekable bodies are passed
// through unwrapped.
func replayable(r io.Reader) (io.Reader, func() bool) {
	if sk, ok := r.(io.Seeker); ok {
		if start, err := sk.Seek(0, io.SeekCurrent); err == nil {
			return r, func() bool {
				_, err := sk.Seek(start, io.SeekStart)
				return err == nil
			}
		}
	}
	c := &countingReader{r: r}
	return c, func() bool { return c.n == 0 }
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// OpenUpload returns a stored upload and its content type.
func (s *LogoService) OpenUpload(ctx context.Context, filename string) (io.ReadCloser, string, error) {
	const op = "Logos.OpenUpload"

	if !storage.ValidName(filename) {
		return nil, "", apperr.E(apperr.CodeBadRequest, op, "invalid file name", nil)
	}
	rc, ct, err := s.store.Open(ctx, filename)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, "", apperr.E(apperr.CodeNotFound, op, "file not found", err)
	case err != nil:
		return nil, "", apperr.E(apperr.CodeInternal, op, "failed to open file", err)
	}
	return rc, ct, nil
}

// sanitizeFileName keeps the last path element of name and replaces every
// character outside [A-Za-z0-9._-] so the result is safe in a URL path.
func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
