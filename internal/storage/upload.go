package storage

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
)

var ErrUploadStarted = errors.New("upload already started")

// Progress is one transfer notification.
type Progress struct {
	BytesTransferred int64
	TotalBytes       int64
}

// Percent is round(transferred/total*100) clamped to [0,100]. An empty
// transfer reports 0 until it completes.
func (p Progress) Percent() int {
	if p.TotalBytes <= 0 {
		return 0
	}
	pct := int(math.Round(float64(p.BytesTransferred) / float64(p.TotalBytes) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

type UploadRequest struct {
	Path        string
	Reader      io.Reader
	Size        int64
	ContentType string
}

// UploadTask is a single blob transfer. It emits zero or more Progress events
// followed by exactly one terminal result, either an ObjectRef or an error.
type UploadTask struct {
	store BlobStore
	req   UploadRequest

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	started    bool
	finished   bool
	onProgress []func(Progress)
	onFailure  []func(error)
	onComplete []func(ObjectRef)

	done chan struct{}
	ref  ObjectRef
	err  error
}

func NewUploadTask(ctx context.Context, store BlobStore, req UploadRequest) *UploadTask {
	ctx, cancel := context.WithCancel(ctx)
	return &UploadTask{
		store:  store,
		req:    req,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// On registers callbacks; any of them may be nil. Registering after the task
// finished delivers the terminal result immediately.
func (t *UploadTask) On(progress func(Progress), failure func(error), complete func(ObjectRef)) *UploadTask {
	t.mu.Lock()
	if !t.finished {
		if progress != nil {
			t.onProgress = append(t.onProgress, progress)
		}
		if failure != nil {
			t.onFailure = append(t.onFailure, failure)
		}
		if complete != nil {
			t.onComplete = append(t.onComplete, complete)
		}
		t.mu.Unlock()
		return t
	}
	ref, err := t.ref, t.err
	t.mu.Unlock()

	if err != nil && failure != nil {
		failure(err)
	}
	if err == nil && complete != nil {
		complete(ref)
	}
	return t
}

// Start runs the transfer on its own goroutine. Events are delivered on that
// goroutine in order.
func (t *UploadTask) Start() error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return ErrUploadStarted
	}
	t.started = true
	t.mu.Unlock()

	go t.run()
	return nil
}

// Cancel aborts the transfer. A task cancelled before the store accepted the
// object finishes with the context error.
func (t *UploadTask) Cancel() {
	t.cancel()
}

// Done is closed once the terminal result has been delivered.
func (t *UploadTask) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends.
func (t *UploadTask) Wait(ctx context.Context) (ObjectRef, error) {
	select {
	case <-t.done:
		return t.ref, t.err
	case <-ctx.Done():
		return ObjectRef{}, ctx.Err()
	}
}

func (t *UploadTask) run() {
	defer t.cancel()

	if err := t.ctx.Err(); err != nil {
		t.finish(ObjectRef{}, err)
		return
	}

	reader := &countingReader{
		ctx:    t.ctx,
		reader: t.req.Reader,
		total:  t.req.Size,
		emit:   t.emitProgress,
	}
	// Once Put succeeds the object exists, so a late cancel no longer fails
	// the task.
	ref, err := t.store.Put(t.ctx, t.req.Path, reader, t.req.Size, t.req.ContentType)
	t.finish(ref, err)
}

func (t *UploadTask) emitProgress(p Progress) {
	t.mu.Lock()
	handlers := append([]func(Progress){}, t.onProgress...)
	t.mu.Unlock()

	for _, fn := range handlers {
		fn(p)
	}
}

func (t *UploadTask) finish(ref ObjectRef, err error) {
	t.mu.Lock()
	t.finished = true
	t.ref = ref
	t.err = err
	failures := t.onFailure
	completes := t.onComplete
	t.onProgress, t.onFailure, t.onComplete = nil, nil, nil
	t.mu.Unlock()

	if err != nil {
		for _, fn := range failures {
			fn(err)
		}
	} else {
		for _, fn := range completes {
			fn(ref)
		}
	}
	close(t.done)
}

type countingReader struct {
	ctx         context.Context
	reader      io.Reader
	total       int64
	transferred int64
	emit        func(Progress)
}

func (r *countingReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := r.reader.Read(p)
	if n > 0 {
		r.transferred += int64(n)
		r.emit(Progress{BytesTransferred: r.transferred, TotalBytes: r.total})
	}
	return n, err
}
