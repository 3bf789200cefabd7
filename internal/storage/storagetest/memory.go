// Package storagetest provides an in-memory BlobStore for tests.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/teamshare/backend/internal/storage"
)

var ErrObjectMissing = errors.New("object does not exist")

// Memory keeps blobs in a map. The Fail* fields inject errors into the
// matching operation.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int

	FailPut    error
	FailSign   error
	FailDelete error

	// ChunkSize bounds each read so uploads produce several progress events.
	ChunkSize int
	// Gate, when set, is received from before each chunk is read.
	Gate chan struct{}
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte), ChunkSize: 4}
}

func (m *Memory) Put(ctx context.Context, path string, reader io.Reader, size int64, contentType string) (storage.ObjectRef, error) {
	m.mu.Lock()
	m.puts++
	failPut := m.FailPut
	chunk := m.ChunkSize
	m.mu.Unlock()

	if failPut != nil {
		return storage.ObjectRef{}, failPut
	}
	if chunk <= 0 {
		chunk = 32 * 1024
	}

	var data []byte
	buf := make([]byte, chunk)
	for {
		if m.Gate != nil {
			select {
			case <-m.Gate:
			case <-ctx.Done():
				return storage.ObjectRef{}, ctx.Err()
			}
		}
		n, err := reader.Read(buf)
		data = append(data, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return storage.ObjectRef{}, err
		}
	}

	m.mu.Lock()
	m.objects[path] = data
	m.mu.Unlock()

	return storage.ObjectRef{Path: path, Size: int64(len(data)), ContentType: contentType}, nil
}

func (m *Memory) SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	if m.FailSign != nil {
		return "", m.FailSign
	}
	if !m.Has(path) {
		return "", ErrObjectMissing
	}
	return fmt.Sprintf("https://blob.test/%s?expires=%d", path, int64(expiry.Seconds())), nil
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	if m.FailDelete != nil {
		return m.FailDelete
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

func (m *Memory) Has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[path]
	return ok
}

func (m *Memory) Object(path string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[path]
}

// Puts counts calls to Put, including failed ones.
func (m *Memory) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
