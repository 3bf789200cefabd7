package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teamshare/backend/internal/apperror"
	"github.com/teamshare/backend/internal/docstore"
	"github.com/teamshare/backend/internal/identity"
	"github.com/teamshare/backend/internal/metrics"
	"github.com/teamshare/backend/internal/models"
	"github.com/teamshare/backend/internal/storage"
	"github.com/teamshare/backend/pkg/logger"
)

const DeletePrompt = "Are you sure you want to delete this file?"

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Confirmed approves every prompt. Callers use it once the user has already
// agreed out of band.
var Confirmed Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// UploadSource is a file picked for upload. The panel closes Reader when the
// upload finishes, whatever the outcome.
type UploadSource struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.ReadCloser
}

type DeleteOutcome string

const (
	DeleteRemoved      DeleteOutcome = "removed"
	DeleteOrphanedBlob DeleteOutcome = "orphaned_blob"
	DeleteBrokenLink   DeleteOutcome = "broken_link"
	DeleteUnchanged    DeleteOutcome = "unchanged"
)

// DeleteResult reports both halves of a delete independently.
type DeleteResult struct {
	Outcome     DeleteOutcome
	BlobErr     error
	MetadataErr error
}

// PanelState is a point-in-time copy of the panel.
type PanelState struct {
	TeamID    string              `json:"teamID"`
	Files     []models.FileRecord `json:"files"`
	Uploading bool                `json:"uploading"`
	Progress  int                 `json:"progress"`
	Identity  *identity.Identity  `json:"identity,omitempty"`
	LastError string              `json:"lastError,omitempty"`
}

type FilePanelConfig struct {
	TeamID          string
	Files           docstore.Files
	Blobs           storage.BlobStore
	Keys            *storage.KeyGenerator
	SignedURLExpiry time.Duration
}

// FilePanel holds one team's shared files as seen by one user. The in-memory
// list is replaced by RefreshList and trimmed locally by DeleteFile; it is not
// revalidated against the store until the next refresh.
type FilePanel struct {
	teamID string
	files  docstore.Files
	blobs  storage.BlobStore
	keys   *storage.KeyGenerator
	expiry time.Duration

	mu        sync.Mutex
	records   []models.FileRecord
	uploading bool
	progress  int
	identity  *identity.Identity
	lastErr   error
	task      *storage.UploadTask
}

func NewFilePanel(cfg FilePanelConfig) *FilePanel {
	keys := cfg.Keys
	if keys == nil {
		keys = storage.NewKeyGenerator()
	}
	expiry := cfg.SignedURLExpiry
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}
	return &FilePanel{
		teamID:  cfg.TeamID,
		files:   cfg.Files,
		blobs:   cfg.Blobs,
		keys:    keys,
		expiry:  expiry,
		records: []models.FileRecord{},
	}
}

func (p *FilePanel) TeamID() string {
	return p.teamID
}

func (p *FilePanel) SetIdentity(id *identity.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id == nil {
		p.identity = nil
		return
	}
	copied := *id
	p.identity = &copied
}

// Follow keeps the panel's identity in step with session until the returned
// func is called.
func (p *FilePanel) Follow(session *identity.Session) func() {
	return session.Subscribe(p.SetIdentity)
}

func (p *FilePanel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := PanelState{
		TeamID:    p.teamID,
		Files:     append([]models.FileRecord{}, p.records...),
		Uploading: p.uploading,
		Progress:  p.progress,
	}
	if p.identity != nil {
		copied := *p.identity
		state.Identity = &copied
	}
	if p.lastErr != nil {
		state.LastError = p.lastErr.Error()
	}
	return state
}

// RefreshList replaces the list with the store's view, newest first. On failure
// the previous list is kept.
func (p *FilePanel) RefreshList(ctx context.Context) ([]models.FileRecord, error) {
	records, err := p.files.ListByTeam(ctx, p.teamID)
	if err != nil {
		appErr := apperror.Store("files.refresh", "Failed to fetch files. Check your network or permissions.", err)
		logger.Error("file_list_failed", err, map[string]interface{}{
			"team_id": p.teamID,
		})
		p.mu.Lock()
		p.lastErr = appErr
		p.mu.Unlock()
		return nil, appErr
	}

	p.mu.Lock()
	p.records = records
	p.lastErr = nil
	p.mu.Unlock()

	return append([]models.FileRecord{}, records...), nil
}

// UploadFile sends src to the blob store and then records its metadata. The
// metadata is never written unless the blob upload completed.
func (p *FilePanel) UploadFile(ctx context.Context, src UploadSource) (*models.FileRecord, error) {
	const op = "files.upload"

	p.mu.Lock()
	if p.identity == nil {
		err := apperror.Unauthenticated(op, "You must be logged in to upload files.")
		p.lastErr = err
		p.mu.Unlock()
		closeSource(src)
		metrics.UploadRejectedBeforeStart()
		return nil, err
	}
	if p.uploading {
		p.mu.Unlock()
		closeSource(src)
		metrics.UploadRejectedBeforeStart()
		return nil, apperror.Validation(op, "Another upload is already in progress.")
	}
	uploader := *p.identity
	p.uploading = true
	p.progress = 0
	p.mu.Unlock()

	started := time.Now()
	metrics.UploadStarted()
	result := metrics.UploadFailed
	var written int64

	defer func() {
		closeSource(src)
		p.mu.Lock()
		p.uploading = false
		p.progress = 0
		p.task = nil
		p.mu.Unlock()
		metrics.UploadFinished(result, written, time.Since(started))
	}()

	key := p.keys.Next(p.teamID, src.Name)
	task := storage.NewUploadTask(ctx, p.blobs, storage.UploadRequest{
		Path:        key,
		Reader:      src.Reader,
		Size:        src.Size,
		ContentType: src.ContentType,
	})
	task.On(func(progress storage.Progress) {
		p.mu.Lock()
		if p.task == task {
			p.progress = progress.Percent()
		}
		p.mu.Unlock()
	}, nil, nil)

	p.mu.Lock()
	p.task = task
	p.mu.Unlock()

	if err := task.Start(); err != nil {
		return nil, p.fail(apperror.Upload(op, "Failed to upload file. Please check your connection and try again.", err))
	}

	// The task's context derives from ctx, so this returns once ctx is done too.
	ref, err := task.Wait(context.Background())
	if err != nil {
		logger.ErrorWithUser(uploader.ID, "file_upload_failed", err, map[string]interface{}{
			"team_id":      p.teamID,
			"storage_path": key,
		})
		return nil, p.fail(apperror.Upload(op, "Failed to upload file. Please check your connection and try again.", err))
	}

	downloadURL, err := p.blobs.SignedURL(ctx, ref.Path, p.expiry)
	if err != nil {
		result = metrics.UploadInconsistent
		return nil, p.inconsistent(op, uploader.ID, ref.Path, err)
	}

	mimeType := src.ContentType
	if mimeType == "" {
		mimeType = models.UnknownMimeType
	}
	size := src.Size
	if size <= 0 {
		size = ref.Size
	}

	record := &models.FileRecord{
		TeamID:      p.teamID,
		Name:        src.Name,
		MimeType:    mimeType,
		SizeBytes:   size,
		UploaderID:  uploader.ID,
		DownloadURL: downloadURL,
		StoragePath: ref.Path,
	}
	if err := p.files.Create(ctx, record); err != nil {
		result = metrics.UploadInconsistent
		return nil, p.inconsistent(op, uploader.ID, ref.Path, err)
	}

	result = metrics.UploadSucceeded
	written = ref.Size
	logger.InfoWithUser(uploader.ID, "file_uploaded", map[string]interface{}{
		"team_id":      p.teamID,
		"file_id":      record.ID.String(),
		"storage_path": ref.Path,
		"size":         size,
	})

	if _, err := p.RefreshList(ctx); err != nil {
		logger.Warn("file_list_refresh_after_upload_failed", map[string]interface{}{
			"team_id": p.teamID,
			"error":   err.Error(),
		})
	}

	return record, nil
}

// CancelUpload aborts the transfer in flight, if any.
func (p *FilePanel) CancelUpload() bool {
	p.mu.Lock()
	task := p.task
	p.mu.Unlock()
	if task == nil {
		return false
	}
	task.Cancel()
	return true
}

// DeleteFile removes the blob and then the record, each independently of the
// other's outcome. The returned error joins whichever halves failed.
func (p *FilePanel) DeleteFile(ctx context.Context, fileID uuid.UUID, storagePath string, confirm Confirmer) (DeleteResult, error) {
	const op = "files.delete"

	if confirm == nil || !confirm.Confirm(ctx, DeletePrompt) {
		return DeleteResult{Outcome: DeleteUnchanged}, apperror.NotConfirmed(op)
	}

	var result DeleteResult

	if err := p.blobs.Delete(ctx, storagePath); err != nil {
		result.BlobErr = apperror.Blob(op, "Failed to delete file from storage.", err)
		logger.Error("file_blob_delete_failed", err, map[string]interface{}{
			"team_id":      p.teamID,
			"file_id":      fileID.String(),
			"storage_path": storagePath,
		})
	}

	err := p.files.Delete(ctx, p.teamID, fileID)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		result.MetadataErr = apperror.Store(op, "Failed to remove file metadata.", err)
		logger.Error("file_metadata_delete_failed", err, map[string]interface{}{
			"team_id": p.teamID,
			"file_id": fileID.String(),
		})
	}

	p.mu.Lock()
	if result.MetadataErr == nil {
		kept := p.records[:0:0]
		for _, record := range p.records {
			if record.ID != fileID {
				kept = append(kept, record)
			}
		}
		p.records = kept
	}
	joined := errors.Join(result.BlobErr, result.MetadataErr)
	p.lastErr = joined
	p.mu.Unlock()

	switch {
	case result.BlobErr == nil && result.MetadataErr == nil:
		result.Outcome = DeleteRemoved
	case result.BlobErr != nil && result.MetadataErr == nil:
		result.Outcome = DeleteOrphanedBlob
	case result.BlobErr == nil:
		result.Outcome = DeleteBrokenLink
	default:
		result.Outcome = DeleteUnchanged
	}
	metrics.DeleteFinished(string(result.Outcome))

	return result, joined
}

func (p *FilePanel) fail(err error) error {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
	return err
}

// inconsistent reports a blob that exists without a record. It is left in
// place.
func (p *FilePanel) inconsistent(op, uploaderID, storagePath string, cause error) error {
	logger.ErrorWithUser(uploaderID, "file_metadata_write_failed", cause, map[string]interface{}{
		"team_id":      p.teamID,
		"storage_path": storagePath,
		"orphaned":     true,
	})
	return p.fail(apperror.Inconsistent(op, "Upload succeeded but saving metadata failed.", cause))
}

func closeSource(src UploadSource) {
	if src.Reader != nil {
		_ = src.Reader.Close()
	}
}
