// Package storage moves file content in and out of the blob store and reports
// upload progress as it happens.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"
)

// ObjectRef identifies a blob that has been fully written.
type ObjectRef struct {
	Path        string
	Size        int64
	ContentType string
}

type BlobStore interface {
	Put(ctx context.Context, path string, reader io.Reader, size int64, contentType string) (ObjectRef, error)
	SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, path string) error
}

// KeyGenerator builds team-scoped storage keys. The timestamp component is
// strictly increasing for the life of the generator, so two uploads of the
// same name never share a key.
type KeyGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewKeyGenerator() *KeyGenerator {
	return &KeyGenerator{now: time.Now}
}

func (g *KeyGenerator) Next(teamID, fileName string) string {
	g.mu.Lock()
	ts := g.now().UnixMilli()
	if ts <= g.last {
		ts = g.last + 1
	}
	g.last = ts
	g.mu.Unlock()

	return fmt.Sprintf("teams/%s/files/%d_%s", teamID, ts, baseName(fileName))
}

// baseName drops any directory part a client sent along with the file name.
func baseName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return "file"
	}
	return name
}
