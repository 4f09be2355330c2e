// Package storage keeps uploaded files in a blob store addressed by a flat
// object name.
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidName = errors.New("invalid object name")
	ErrExists      = errors.New("object already exists")
)

type Store interface {
	// Save may fail with ErrExists when name is taken. Backends that
	// overwrite never do.
	Save(ctx context.Context, name, contentType string, r io.Reader) error
	// Open returns the object body and its content type. Callers close the body.
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
}

// ValidName rejects anything that could address a different object than the
// flat name it claims to be.
func ValidName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "\x00")
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
