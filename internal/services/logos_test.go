package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamjob-backend/internal/apperr"
	"jamjob-backend/internal/storage"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"logo.png", "logo.png"},
		{"my logo (1).png", "my_logo__1_.png"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\logo.jpg`, "logo.jpg"},
		{"", ""},
		{"/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFileName(tt.in))
		})
	}
}

func TestLogoService_StoreAndOpen(t *testing.T) {
	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	svc := NewLogoService(store)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	ctx := context.Background()

	url, err := svc.StoreUpload(ctx, "acme logo.png", "image/png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1700000000000-acme_logo.png", url)

	rc, ct, err := svc.OpenUpload(ctx, "1700000000000-acme_logo.png")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(body))
	assert.Equal(t, "image/png", ct)
}

func TestLogoService_Errors(t *testing.T) {
	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	svc := NewLogoService(store)
	ctx := context.Background()

	_, err = svc.StoreUpload(ctx, "", "", strings.NewReader("x"))
	assert.True(t, apperr.IsCode(err, apperr.CodeBadRequest))

	_, err = svc.StoreUpload(ctx, "a.png", "", nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeBadRequest))

	_, _, err = svc.OpenUpload(ctx, "missing.png")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	_, _, err = svc.OpenUpload(ctx, "..")
	assert.True(t, apperr.IsCode(err, apperr.CodeBadRequest))
}

func TestLogoService_SameNameSameMillisecond(t *testing.T) {
	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	svc := NewLogoService(store)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	ctx := context.Background()

	first, err := svc.StoreUpload(ctx, "logo.png", "image/png", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := svc.StoreUpload(ctx, "logo.png", "image/png", strings.NewReader("two"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1700000000000-logo.png", first)
	assert.Equal(t, "/uploads/1700000000001-logo.png", second)

	rc, _, err := svc.OpenUpload(ctx, "1700000000001-logo.png")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "two", string(body))
}

// takenStore reads the whole body and then reports the first taken names
// as existing, like a conditional write to an object store.
type takenStore struct {
	taken int
	saved map[string]string
}

func (s *takenStore) Save(ctx context.Context, name, _ string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if s.taken > 0 {
		s.taken--
		return storage.ErrExists
	}
	if s.saved == nil {
		s.saved = map[string]string{}
	}
	s.saved[name] = string(b)
	return nil
}

func (s *takenStore) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	return nil, "", storage.ErrNotFound
}

func TestLogoService_RetryRewindsBody(t *testing.T) {
	store := &takenStore{taken: 2}
	svc := NewLogoService(store)
	svc.now = func() time.Time { return time.UnixMilli(1000) }

	url, err := svc.StoreUpload(context.Background(), "a.png", "", strings.NewReader("full body"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1002-a.png", url)
	assert.Equal(t, "full body", store.saved["1002-a.png"])
}

func TestLogoService_RetryNeedsReplayableBody(t *testing.T) {
	store := &takenStore{taken: 1}
	svc := NewLogoService(store)
	ctx := context.Background()

	_, err := svc.StoreUpload(ctx, "a.png", "", io.MultiReader(strings.NewReader("stream")))
	assert.True(t, apperr.IsCode(err, apperr.CodeInternal))
	assert.Empty(t, store.saved)

	store.taken = maxNameAttempts
	_, err = svc.StoreUpload(ctx, "a.png", "", strings.NewReader("x"))
	assert.True(t, apperr.IsCode(err, apperr.CodeInternal))
	assert.Empty(t, store.saved)
}
